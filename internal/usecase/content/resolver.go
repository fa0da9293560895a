package content

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"knowledgebase/internal/domain/entity"
	"knowledgebase/internal/repository"
)

// AssetSummary is the part of an asset a renderer needs.
type AssetSummary struct {
	ID           string           `json:"id"`
	URL          string           `json:"url"`
	Type         entity.AssetType `json:"type"`
	Width        *int             `json:"width"`
	Height       *int             `json:"height"`
	OriginalName string           `json:"originalName"`
	MimeType     string           `json:"mimeType"`
}

// Resolved is a document together with the assets it references.
type Resolved struct {
	Blocks []Block                 `json:"blocks"`
	Assets map[string]AssetSummary `json:"assets"`
}

// Resolver loads and reconciles the assets referenced by article content.
type Resolver struct {
	Assets repository.AssetRepository
	Tx     repository.Transactor
}

// NewResolver creates a Resolver.
func NewResolver(assets repository.AssetRepository, tx repository.Transactor) *Resolver {
	return &Resolver{Assets: assets, Tx: tx}
}

// Resolve parses content and fetches every referenced asset in one query.
// References to unknown assets are left out of the map.
func (r *Resolver) Resolve(ctx context.Context, raw json.RawMessage) (*Resolved, error) {
	doc, err := Parse(raw)
	if err != nil {
		return nil, entity.WrapError(entity.KindValidation, "content is not a valid block document", err)
	}
	ids, err := ExtractAssetIDs(raw)
	if err != nil {
		return nil, entity.WrapError(entity.KindValidation, "content is not a valid block document", err)
	}

	out := &Resolved{Blocks: doc.Blocks, Assets: make(map[string]AssetSummary, len(ids))}
	if len(ids) == 0 {
		return out, nil
	}

	assets, err := r.Assets.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve content assets: %w", err)
	}
	for _, a := range assets {
		out.Assets[a.ID] = AssetSummary{
			ID:           a.ID,
			URL:          a.URL,
			Type:         a.Type,
			Width:        a.Width,
			Height:       a.Height,
			OriginalName: a.OriginalName,
			MimeType:     a.MimeType,
		}
	}
	return out, nil
}

// UpdateArticleAssets makes articleID the owner of every asset its content
// references and releases the ones it no longer references. Both updates run
// in one transaction, joining the caller's if there is one.
func (r *Resolver) UpdateArticleAssets(ctx context.Context, articleID string, raw json.RawMessage) error {
	ids, err := ExtractAssetIDs(raw)
	if err != nil {
		return entity.WrapError(entity.KindValidation, "content is not a valid block document", err)
	}

	return r.Tx.WithinTx(ctx, func(ctx context.Context) error {
		claimed := int64(0)
		if len(ids) > 0 {
			n, err := r.Assets.Claim(ctx, articleID, ids)
			if err != nil {
				return fmt.Errorf("claim assets: %w", err)
			}
			claimed = n
		}
		released, err := r.Assets.ReleaseExcept(ctx, articleID, ids)
		if err != nil {
			return fmt.Errorf("release assets: %w", err)
		}
		slog.DebugContext(ctx, "article assets reconciled",
			slog.String("article_id", articleID),
			slog.Int("referenced", len(ids)),
			slog.Int64("claimed", claimed),
			slog.Int64("released", released))
		return nil
	})
}
