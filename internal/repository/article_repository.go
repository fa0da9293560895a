package repository

import (
	"context"

	"knowledgebase/internal/domain/entity"
)

// ArticleFilters narrows List and Count. Zero values mean "no filter".
type ArticleFilters struct {
	Status *entity.ArticleStatus
	UserID string
	// TagIDs keeps articles carrying at least one of the tags.
	TagIDs []string
	// Query matches title, excerpt or tag name case-insensitively.
	Query string
}

type ArticleRepository interface {
	Create(ctx context.Context, article *entity.Article) error
	// Get loads the article with its author and tags.
	Get(ctx context.Context, id string) (*entity.Article, error)
	GetBySlug(ctx context.Context, slug string) (*entity.Article, error)
	// List returns articles ordered by created_at DESC with author and tags populated.
	List(ctx context.Context, filters ArticleFilters, offset, limit int) ([]*entity.Article, error)
	Count(ctx context.Context, filters ArticleFilters) (int64, error)
	Update(ctx context.Context, article *entity.Article) error
	Delete(ctx context.Context, id string) error
	// SlugExists reports whether slug is used by an article other than excludeID.
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
	// ReplaceTags makes tagIDs the complete tag set of the article.
	ReplaceTags(ctx context.Context, articleID string, tagIDs []string) error
}
