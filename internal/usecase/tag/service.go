package tag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"knowledgebase/internal/common/pagination"
	"knowledgebase/internal/domain/entity"
	"knowledgebase/internal/observability/metrics"
	"knowledgebase/internal/repository"
	"knowledgebase/internal/utils/slug"
)

const maxSlugWriteRetries = 3

// CreateInput represents the input parameters for creating a new tag.
type CreateInput struct {
	Name        string
	Slug        *string
	Description *string
	Color       *string
}

// UpdateInput represents the input parameters for updating an existing tag.
// Fields with nil values will not be updated.
type UpdateInput struct {
	ID          string
	Name        *string
	Slug        *string
	Description *string
	Color       *string
}

// Service provides tag management use cases.
type Service struct {
	Repo       repository.TagRepository
	Articles   repository.ArticleRepository
	Pagination pagination.Config
	Slugs      slug.Options

	// Now overrides the clock; used by tests.
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) slugOptions() slug.Options {
	if s.Slugs.MaxAttempts == 0 && s.Slugs.MaxRandomAttempts == 0 {
		return slug.DefaultOptions()
	}
	return s.Slugs
}

// Get retrieves a single tag by its ID.
func (s *Service) Get(ctx context.Context, id string) (*entity.Tag, error) {
	t, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get tag: %w", err)
	}
	if t == nil {
		return nil, ErrTagNotFound
	}
	return t, nil
}

// GetBySlug retrieves a single tag by its slug.
func (s *Service) GetBySlug(ctx context.Context, sl string) (*entity.Tag, error) {
	t, err := s.Repo.GetBySlug(ctx, sl)
	if err != nil {
		return nil, fmt.Errorf("get tag by slug: %w", err)
	}
	if t == nil {
		return nil, ErrTagNotFound
	}
	return t, nil
}

// List returns a page of tags ordered by name.
func (s *Service) List(ctx context.Context, page pagination.Params) (pagination.Page[*entity.Tag], error) {
	return s.page(ctx, "list tags", "", page)
}

// Search matches query against tag names and descriptions.
func (s *Service) Search(ctx context.Context, query string, page pagination.Params) (pagination.Page[*entity.Tag], error) {
	if strings.TrimSpace(query) == "" {
		return pagination.Page[*entity.Tag]{}, &entity.ValidationError{Field: "q", Message: "search query is required"}
	}
	return s.page(ctx, "search tags", query, page)
}

func (s *Service) page(ctx context.Context, op, query string, params pagination.Params) (pagination.Page[*entity.Tag], error) {
	cfg := s.Pagination
	if cfg.MaxLimit == 0 {
		cfg = pagination.DefaultConfig()
	}
	params = params.WithDefaults(cfg)
	start := time.Now()

	var (
		items []*entity.Tag
		total int64
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		items, err = s.Repo.List(egCtx, query, params.Offset(), params.Limit)
		return err
	})
	eg.Go(func() error {
		var err error
		total, err = s.Repo.Count(egCtx, query)
		return err
	})
	if err := eg.Wait(); err != nil {
		return pagination.Page[*entity.Tag]{}, fmt.Errorf("%s: %w", op, err)
	}

	pagination.RecordDuration("tags", time.Since(start))
	return pagination.NewPage(items, params, total), nil
}

// Create validates the input and stores a new tag. The slug is derived from
// the name unless one is given; either way it is made unique.
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.Tag, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := entity.ValidateTag(in.Name, in.Description, in.Color); err != nil {
		return nil, err
	}

	taken, err := s.Repo.NameExists(ctx, in.Name, "")
	if err != nil {
		return nil, fmt.Errorf("create tag: %w", err)
	}
	if taken {
		return nil, ErrDuplicateTag
	}

	base := slug.FromTitle(in.Name)
	if in.Slug != nil && *in.Slug != "" {
		base = slug.FromTitle(*in.Slug)
	}
	t := &entity.Tag{
		Name:        in.Name,
		Description: emptyToNil(in.Description),
		Color:       emptyToNil(in.Color),
		CreatedAt:   s.now(),
	}

	err = s.writeWithUniqueSlug(ctx, base, "", func(ctx context.Context, candidate string) error {
		t.Slug = candidate
		return s.Repo.Create(ctx, t)
	})
	if err != nil {
		return nil, fmt.Errorf("create tag: %w", err)
	}
	slog.InfoContext(ctx, "tag created", slog.String("tag_id", t.ID), slog.String("slug", t.Slug))
	return t, nil
}

// Update applies the non-nil fields of in. A new name regenerates the slug
// unless a slug is given.
func (s *Service) Update(ctx context.Context, in UpdateInput) (*entity.Tag, error) {
	t, err := s.Get(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	name := t.Name
	if in.Name != nil {
		name = strings.TrimSpace(*in.Name)
	}
	if err := entity.ValidateTag(name, in.Description, in.Color); err != nil {
		return nil, err
	}
	if name != t.Name {
		taken, err := s.Repo.NameExists(ctx, name, t.ID)
		if err != nil {
			return nil, fmt.Errorf("update tag: %w", err)
		}
		if taken {
			return nil, ErrDuplicateTag
		}
	}

	t.Name = name
	if in.Description != nil {
		t.Description = emptyToNil(in.Description)
	}
	if in.Color != nil {
		t.Color = emptyToNil(in.Color)
	}

	var base string
	switch {
	case in.Slug != nil && *in.Slug != "":
		base = slug.FromTitle(*in.Slug)
	case in.Name != nil:
		base = slug.FromTitle(name)
	}
	write := func(ctx context.Context, candidate string) error {
		if candidate != "" {
			t.Slug = candidate
		}
		return s.Repo.Update(ctx, t)
	}
	if base != "" {
		err = s.writeWithUniqueSlug(ctx, base, t.ID, write)
	} else {
		err = write(ctx, "")
	}
	if err != nil {
		return nil, fmt.Errorf("update tag: %w", err)
	}
	return t, nil
}

// Delete removes a tag; its article links cascade.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	slog.InfoContext(ctx, "tag deleted", slog.String("tag_id", id))
	return nil
}

// AddToArticle links a tag to an article owned by userID.
func (s *Service) AddToArticle(ctx context.Context, articleID, tagID, userID string) error {
	if tagID == "" {
		return &entity.ValidationError{Field: "tagId", Message: "tagId is required"}
	}
	if err := s.checkArticle(ctx, articleID, userID); err != nil {
		return err
	}
	if _, err := s.Get(ctx, tagID); err != nil {
		return err
	}
	attached, err := s.Repo.IsAttached(ctx, articleID, tagID)
	if err != nil {
		return fmt.Errorf("add tag to article: %w", err)
	}
	if attached {
		return ErrAlreadyAttached
	}
	if err := s.Repo.Attach(ctx, articleID, tagID); err != nil {
		return fmt.Errorf("add tag to article: %w", err)
	}
	return nil
}

// RemoveFromArticle unlinks a tag from an article owned by userID.
func (s *Service) RemoveFromArticle(ctx context.Context, articleID, tagID, userID string) error {
	if err := s.checkArticle(ctx, articleID, userID); err != nil {
		return err
	}
	removed, err := s.Repo.Detach(ctx, articleID, tagID)
	if err != nil {
		return fmt.Errorf("remove tag from article: %w", err)
	}
	if !removed {
		return ErrNotAttached
	}
	return nil
}

// ListByArticle returns the tags of an article ordered by name.
func (s *Service) ListByArticle(ctx context.Context, articleID string) ([]entity.Tag, error) {
	tags, err := s.Repo.ListByArticle(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("list article tags: %w", err)
	}
	if tags == nil {
		tags = []entity.Tag{}
	}
	return tags, nil
}

func (s *Service) checkArticle(ctx context.Context, articleID, userID string) error {
	art, err := s.Articles.Get(ctx, articleID)
	if err != nil {
		return fmt.Errorf("get article: %w", err)
	}
	if art == nil || !art.IsOwnedBy(userID) {
		return ErrArticleNotFound
	}
	return nil
}

// writeWithUniqueSlug probes for a free slug and runs write with it. Lost
// races on the slug are retried; a lost race on the name is a conflict.
func (s *Service) writeWithUniqueSlug(ctx context.Context, base, excludeID string, write func(ctx context.Context, candidate string) error) error {
	probe := func(ctx context.Context, candidate string) (bool, error) {
		return s.Repo.SlugExists(ctx, candidate, excludeID)
	}
	for attempt := 0; ; attempt++ {
		candidate, err := slug.Ensure(ctx, base, probe, s.slugOptions())
		if errors.Is(err, slug.ErrExhausted) {
			return entity.WrapError(entity.KindConflict, ErrSlugConflict.Message, err)
		}
		if err != nil {
			return err
		}

		err = write(ctx, candidate)
		switch {
		case errors.Is(err, repository.ErrDuplicateName):
			return ErrDuplicateTag
		case !errors.Is(err, repository.ErrDuplicateSlug):
			return err
		}
		metrics.RecordSlugCollision("tags")
		if attempt >= maxSlugWriteRetries {
			return entity.WrapError(entity.KindConflict, ErrSlugConflict.Message, err)
		}
		slog.WarnContext(ctx, "tag slug taken concurrently, retrying",
			slog.String("slug", candidate),
			slog.Int("attempt", attempt+1))
	}
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
