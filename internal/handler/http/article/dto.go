// Package article provides HTTP handlers for article endpoints: CRUD, status
// transitions, search, content resolution and summarization.
package article

import (
	"encoding/json"
	"time"

	"knowledgebase/internal/domain/entity"
)

// AuthorDTO is the public view of an article's owner.
type AuthorDTO struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// TagDTO is a tag as embedded in an article.
type TagDTO struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Slug  string  `json:"slug"`
	Color *string `json:"color"`
}

// DTO represents the JSON structure for article data transfer.
type DTO struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	Content     json.RawMessage      `json:"content"`
	Excerpt     string               `json:"excerpt"`
	Slug        string               `json:"slug"`
	Status      entity.ArticleStatus `json:"status"`
	PublishedAt *time.Time           `json:"publishedAt"`
	UserID      string               `json:"userId"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
	Author      *AuthorDTO           `json:"author,omitempty"`
	Tags        []TagDTO             `json:"tags"`
}

// SummaryDTO is the response of the summarize endpoint.
type SummaryDTO struct {
	Summary  string `json:"summary"`
	Provider string `json:"provider"`
	Fallback bool   `json:"fallback"`
}

func toDTO(a *entity.Article) DTO {
	d := DTO{
		ID:          a.ID,
		Title:       a.Title,
		Content:     a.Content,
		Excerpt:     a.Excerpt,
		Slug:        a.Slug,
		Status:      a.Status,
		PublishedAt: a.PublishedAt,
		UserID:      a.UserID,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
		Tags:        make([]TagDTO, 0, len(a.Tags)),
	}
	if len(d.Content) == 0 {
		d.Content = json.RawMessage(`""`)
	}
	if a.Author != nil {
		d.Author = &AuthorDTO{
			ID:        a.Author.ID,
			Email:     a.Author.Email,
			FirstName: a.Author.FirstName,
			LastName:  a.Author.LastName,
		}
	}
	for _, t := range a.Tags {
		d.Tags = append(d.Tags, TagDTO{ID: t.ID, Name: t.Name, Slug: t.Slug, Color: t.Color})
	}
	return d
}

func toDTOs(items []*entity.Article) []DTO {
	out := make([]DTO, 0, len(items))
	for _, a := range items {
		out = append(out, toDTO(a))
	}
	return out
}
