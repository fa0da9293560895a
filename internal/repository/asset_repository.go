package repository

import (
	"context"

	"knowledgebase/internal/domain/entity"
)

type AssetRepository interface {
	Create(ctx context.Context, asset *entity.Asset) error
	Get(ctx context.Context, id string) (*entity.Asset, error)
	// FindByIDs bulk-loads assets; unknown ids are skipped.
	FindByIDs(ctx context.Context, ids []string) ([]*entity.Asset, error)
	// Claim sets article_id on every asset in ids.
	Claim(ctx context.Context, articleID string, ids []string) (int64, error)
	// ReleaseExcept clears article_id on assets owned by articleID whose id is not in keep.
	ReleaseExcept(ctx context.Context, articleID string, keep []string) (int64, error)
}
