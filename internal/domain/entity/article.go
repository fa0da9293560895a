// Package entity defines the core domain entities and validation logic for the application.
// It contains the fundamental business objects such as User, Article, Tag and Asset,
// along with their validation rules and domain-specific errors.
package entity

import (
	"encoding/json"
	"time"
)

// ArticleStatus is the publication state of an article.
type ArticleStatus string

const (
	StatusDraft     ArticleStatus = "DRAFT"
	StatusPublished ArticleStatus = "PUBLISHED"
	StatusArchived  ArticleStatus = "ARCHIVED"
)

// Valid reports whether s is one of the known statuses.
func (s ArticleStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// Article represents a knowledgebase article.
// Content is opaque JSON (a block document or a plain JSON string) and is stored as-is.
type Article struct {
	ID          string
	Title       string
	Content     json.RawMessage
	Excerpt     string
	Slug        string
	Status      ArticleStatus
	PublishedAt *time.Time
	UserID      string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Populated by read queries only.
	Author *User
	Tags   []Tag
}

// TransitionTo moves the article to status s.
// publishedAt is stamped once, on the first transition into PUBLISHED;
// re-publishing (or publishing again after an archive) keeps the original timestamp.
func (a *Article) TransitionTo(s ArticleStatus, now time.Time) {
	if s == StatusPublished && a.Status != StatusPublished && a.PublishedAt == nil {
		t := now
		a.PublishedAt = &t
	}
	a.Status = s
}

// IsOwnedBy reports whether userID owns the article.
func (a *Article) IsOwnedBy(userID string) bool {
	return a.UserID != "" && a.UserID == userID
}
