package repository

import (
	"context"

	"knowledgebase/internal/domain/entity"
)

type TagRepository interface {
	Create(ctx context.Context, tag *entity.Tag) error
	Get(ctx context.Context, id string) (*entity.Tag, error)
	GetBySlug(ctx context.Context, slug string) (*entity.Tag, error)
	// List returns tags ordered by name. A non-empty query matches name or description.
	List(ctx context.Context, query string, offset, limit int) ([]*entity.Tag, error)
	Count(ctx context.Context, query string) (int64, error)
	Update(ctx context.Context, tag *entity.Tag) error
	Delete(ctx context.Context, id string) error
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
	NameExists(ctx context.Context, name, excludeID string) (bool, error)
	// CountExisting returns how many of ids refer to existing tags.
	CountExisting(ctx context.Context, ids []string) (int, error)

	ListByArticle(ctx context.Context, articleID string) ([]entity.Tag, error)
	IsAttached(ctx context.Context, articleID, tagID string) (bool, error)
	Attach(ctx context.Context, articleID, tagID string) error
	// Detach reports whether an association was removed.
	Detach(ctx context.Context, articleID, tagID string) (bool, error)
}
