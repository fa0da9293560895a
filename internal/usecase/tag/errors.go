// Package tag provides use cases for managing tags and their links to articles.
package tag

import "knowledgebase/internal/domain/entity"

// Sentinel errors for tag use case operations.
var (
	// ErrTagNotFound indicates that the requested tag was not found.
	ErrTagNotFound = entity.NotFound("tag not found")

	// ErrDuplicateTag indicates that another tag already uses the name.
	ErrDuplicateTag = entity.Conflict("tag with this name already exists")

	// ErrSlugConflict is returned when no unique slug could be written.
	ErrSlugConflict = entity.Conflict("tag slug is already in use")

	// ErrArticleNotFound is returned when the article is missing or not owned by the caller.
	ErrArticleNotFound = entity.NotFound("article not found or access denied")

	// ErrAlreadyAttached indicates that the tag is already on the article.
	ErrAlreadyAttached = entity.Conflict("tag is already associated with this article")

	// ErrNotAttached indicates that the tag is not on the article.
	ErrNotAttached = entity.NotFound("tag is not associated with this article")
)
