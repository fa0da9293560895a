// Package tag provides HTTP handlers for tag endpoints and the article-tag links.
package tag

import (
	"time"

	"knowledgebase/internal/domain/entity"
)

// DTO represents the JSON structure for tag data transfer.
type DTO struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  *string   `json:"description"`
	Color        *string   `json:"color"`
	CreatedAt    time.Time `json:"createdAt"`
	ArticleCount int64     `json:"articleCount"`
}

func toDTO(t *entity.Tag) DTO {
	return DTO{
		ID:           t.ID,
		Name:         t.Name,
		Slug:         t.Slug,
		Description:  t.Description,
		Color:        t.Color,
		CreatedAt:    t.CreatedAt,
		ArticleCount: t.ArticleCount,
	}
}
