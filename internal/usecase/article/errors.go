// Package article provides use cases for managing article entities.
// It implements business logic for creating, updating, publishing and querying
// articles, keeping slugs, excerpts, tag links and asset ownership consistent.
package article

import "knowledgebase/internal/domain/entity"

// Sentinel errors for article use case operations.
var (
	// ErrArticleNotFound is returned by public reads.
	ErrArticleNotFound = entity.NotFound("article not found")

	// ErrNotFoundOrDenied is returned when the article is missing or belongs
	// to another user; callers cannot tell the two apart.
	ErrNotFoundOrDenied = entity.NotFound("article not found or access denied")

	// ErrSlugConflict is returned when no unique slug could be written.
	ErrSlugConflict = entity.Conflict("article slug is already in use")
)
