package entity

import "time"

// Tag labels articles. Name and Slug are both unique.
type Tag struct {
	ID          string
	Name        string
	Slug        string
	Description *string
	Color       *string
	CreatedAt   time.Time

	// ArticleCount is filled by list queries.
	ArticleCount int64
}
