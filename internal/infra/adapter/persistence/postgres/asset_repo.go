package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"knowledgebase/internal/domain/entity"
	"knowledgebase/internal/repository"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type AssetRepo struct{ db *sql.DB }

func NewAssetRepo(db *sql.DB) repository.AssetRepository {
	return &AssetRepo{db: db}
}

const assetSelect = `
SELECT id, filename, original_name, url, type, mime_type, size, width, height, article_id, created_at
FROM assets`

func scanAsset(s rowScanner) (*entity.Asset, error) {
	var a entity.Asset
	if err := s.Scan(&a.ID, &a.Filename, &a.OriginalName, &a.URL, &a.Type, &a.MimeType,
		&a.Size, &a.Width, &a.Height, &a.ArticleID, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (repo *AssetRepo) Create(ctx context.Context, asset *entity.Asset) error {
	if asset.ID == "" {
		asset.ID = uuid.NewString()
	}
	const query = `
INSERT INTO assets
       (id, filename, original_name, url, type, mime_type, size, width, height, article_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := conn(ctx, repo.db).ExecContext(ctx, query,
		asset.ID, asset.Filename, asset.OriginalName, asset.URL, string(asset.Type), asset.MimeType,
		asset.Size, asset.Width, asset.Height, asset.ArticleID, asset.CreatedAt)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *AssetRepo) Get(ctx context.Context, id string) (*entity.Asset, error) {
	asset, err := scanAsset(conn(ctx, repo.db).QueryRowContext(ctx, assetSelect+"\nWHERE id = $1\nLIMIT 1", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return asset, nil
}

// FindByIDs はN+1を避けるため1クエリでまとめて取得する
func (repo *AssetRepo) FindByIDs(ctx context.Context, ids []string) ([]*entity.Asset, error) {
	if len(ids) == 0 {
		return []*entity.Asset{}, nil
	}
	rows, err := conn(ctx, repo.db).QueryContext(ctx, assetSelect+"\nWHERE id::text = ANY($1)", pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("FindByIDs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	assets := make([]*entity.Asset, 0, len(ids))
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("FindByIDs: Scan: %w", err)
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

func (repo *AssetRepo) Claim(ctx context.Context, articleID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := conn(ctx, repo.db).ExecContext(ctx,
		`UPDATE assets SET article_id = $1 WHERE id::text = ANY($2)`, articleID, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("Claim: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (repo *AssetRepo) ReleaseExcept(ctx context.Context, articleID string, keep []string) (int64, error) {
	if keep == nil {
		keep = []string{}
	}
	res, err := conn(ctx, repo.db).ExecContext(ctx,
		`UPDATE assets SET article_id = NULL WHERE article_id = $1 AND NOT (id::text = ANY($2))`,
		articleID, pq.Array(keep))
	if err != nil {
		return 0, fmt.Errorf("ReleaseExcept: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
