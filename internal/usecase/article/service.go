package article

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"knowledgebase/internal/common/pagination"
	"knowledgebase/internal/domain/entity"
	"knowledgebase/internal/observability/metrics"
	"knowledgebase/internal/repository"
	"knowledgebase/internal/utils/slug"
	"knowledgebase/internal/utils/text"
)

// maxSlugWriteRetries bounds how often a write that lost a slug race is
// retried with a fresh candidate.
const maxSlugWriteRetries = 3

// fallbackSummaryBody completes the fallback summary when an article has no excerpt.
const fallbackSummaryBody = "The article contains valuable information and insights."

// emptyContent is stored when an article is created without content.
var emptyContent = json.RawMessage(`""`)

// AssetReconciler keeps asset ownership in line with article content.
type AssetReconciler interface {
	UpdateArticleAssets(ctx context.Context, articleID string, content json.RawMessage) error
}

// Summarizer produces an AI summary of an article.
type Summarizer interface {
	Name() string
	Summarize(ctx context.Context, title, body string) (string, error)
}

// PlainTextFunc flattens article content for the summarizer.
type PlainTextFunc func(content json.RawMessage) string

// CreateInput represents the input parameters for creating a new article.
// Nil optional fields take their derived or default values.
type CreateInput struct {
	UserID  string
	Title   string
	Content json.RawMessage
	Excerpt *string
	Slug    *string
	Status  *entity.ArticleStatus
	TagIDs  []string
}

// UpdateInput represents the input parameters for updating an existing article.
// Fields with nil values will not be updated. A non-nil TagIDs replaces the
// whole tag set, so an empty slice removes every tag.
type UpdateInput struct {
	ID      string
	UserID  string
	Title   *string
	Content json.RawMessage
	Excerpt *string
	Slug    *string
	Status  *entity.ArticleStatus
	TagIDs  *[]string
}

// Summary is the outcome of Summarize.
type Summary struct {
	Text     string
	Provider string
	Fallback bool
}

// Service provides article management use cases.
// Writes run inside one transaction together with the tag and asset updates
// they imply.
type Service struct {
	Repo       repository.ArticleRepository
	Tags       repository.TagRepository
	Tx         repository.Transactor
	Assets     AssetReconciler
	Summarizer Summarizer
	PlainText  PlainTextFunc

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

func (s *Service) pageConfig() pagination.Config {
	if s.Pagination.MaxLimit == 0 {
		return pagination.DefaultConfig()
	}
	return s.Pagination
}

/* ───────── Reads ───────── */

// Get retrieves a single article with its author and tags.
func (s *Service) Get(ctx context.Context, id string) (*entity.Article, error) {
	art, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get article: %w", err)
	}
	if art == nil {
		return nil, ErrArticleNotFound
	}
	return art, nil
}

// GetBySlug retrieves a single article by its slug.
func (s *Service) GetBySlug(ctx context.Context, sl string) (*entity.Article, error) {
	art, err := s.Repo.GetBySlug(ctx, sl)
	if err != nil {
		return nil, fmt.Errorf("get article by slug: %w", err)
	}
	if art == nil {
		return nil, ErrArticleNotFound
	}
	return art, nil
}

// List returns every user's articles, optionally narrowed to one status.
func (s *Service) List(ctx context.Context, status *entity.ArticleStatus, page pagination.Params) (pagination.Page[*entity.Article], error) {
	if status != nil && !status.Valid() {
		return pagination.Page[*entity.Article]{}, &entity.ValidationError{Field: "status", Message: "status must be one of DRAFT, PUBLISHED, ARCHIVED"}
	}
	return s.page(ctx, "list articles", repository.ArticleFilters{Status: status}, page)
}

// ListByUser returns the articles of userID, optionally restricted to those
// carrying at least one of tagIDs.
func (s *Service) ListByUser(ctx context.Context, userID string, tagIDs []string, page pagination.Params) (pagination.Page[*entity.Article], error) {
	return s.page(ctx, "list user articles", repository.ArticleFilters{UserID: userID, TagIDs: tagIDs}, page)
}

// Search matches query against title, excerpt and tag names of all articles.
func (s *Service) Search(ctx context.Context, query string, page pagination.Params) (pagination.Page[*entity.Article], error) {
	if query == "" {
		return pagination.Page[*entity.Article]{}, &entity.ValidationError{Field: "q", Message: "search query is required"}
	}
	return s.page(ctx, "search articles", repository.ArticleFilters{Query: query}, page)
}

// SearchByUser is Search restricted to the articles of userID.
func (s *Service) SearchByUser(ctx context.Context, userID, query string, page pagination.Params) (pagination.Page[*entity.Article], error) {
	if query == "" {
		return pagination.Page[*entity.Article]{}, &entity.ValidationError{Field: "q", Message: "search query is required"}
	}
	return s.page(ctx, "search user articles", repository.ArticleFilters{UserID: userID, Query: query}, page)
}

// page runs the page query and the count query concurrently.
func (s *Service) page(ctx context.Context, op string, filters repository.ArticleFilters, params pagination.Params) (pagination.Page[*entity.Article], error) {
	params = params.WithDefaults(s.pageConfig())
	start := time.Now()

	var (
		items []*entity.Article
		total int64
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		items, err = s.Repo.List(egCtx, filters, params.Offset(), params.Limit)
		return err
	})
	eg.Go(func() error {
		var err error
		total, err = s.Repo.Count(egCtx, filters)
		return err
	})
	if err := eg.Wait(); err != nil {
		return pagination.Page[*entity.Article]{}, fmt.Errorf("%s: %w", op, err)
	}

	pagination.RecordDuration("articles", time.Since(start))
	return pagination.NewPage(items, params, total), nil
}

/* ───────── Writes ───────── */

// Create validates the input, derives slug and excerpt, and stores the
// article together with its tags and asset claims.
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.Article, error) {
	if err := validateCreate(in); err != nil {
		return nil, err
	}

	content := in.Content
	if len(content) == 0 {
		content = emptyContent
	}
	excerpt := text.Excerpt(content)
	if in.Excerpt != nil && *in.Excerpt != "" {
		excerpt = *in.Excerpt
	}
	base := slug.FromTitle(in.Title)
	if in.Slug != nil && *in.Slug != "" {
		base = slug.FromTitle(*in.Slug)
	}
	status := entity.StatusPublished
	if in.Status != nil {
		status = *in.Status
	}

	now := s.now()
	art := &entity.Article{
		Title:     in.Title,
		Content:   content,
		Excerpt:   excerpt,
		Status:    entity.StatusDraft,
		UserID:    in.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	art.TransitionTo(status, now)
	tagIDs := dedupe(in.TagIDs)

	err := s.writeWithUniqueSlug(ctx, base, "", func(ctx context.Context, candidate string) error {
		art.Slug = candidate
		return s.Tx.WithinTx(ctx, func(ctx context.Context) error {
			if err := s.checkTags(ctx, tagIDs); err != nil {
				return err
			}
			if err := s.Repo.Create(ctx, art); err != nil {
				return err
			}
			if len(tagIDs) > 0 {
				if err := s.Repo.ReplaceTags(ctx, art.ID, tagIDs); err != nil {
					return err
				}
			}
			return s.reconcileAssets(ctx, art.ID, in.Content)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("create article: %w", err)
	}

	metrics.RecordArticleWrite("create")
	slog.InfoContext(ctx, "article created",
		slog.String("article_id", art.ID),
		slog.String("slug", art.Slug),
		slog.String("status", string(art.Status)))
	return s.reload(ctx, art.ID)
}

// Update applies the non-nil fields of in to an article owned by in.UserID.
// A new title regenerates the slug unless a slug is given; new content
// regenerates the excerpt unless an excerpt is given.
func (s *Service) Update(ctx context.Context, in UpdateInput) (*entity.Article, error) {
	if err := validateUpdate(in); err != nil {
		return nil, err
	}
	if _, err := s.owned(ctx, in.ID, in.UserID); err != nil {
		return nil, err
	}

	var base string
	switch {
	case in.Slug != nil && *in.Slug != "":
		base = slug.FromTitle(*in.Slug)
	case in.Title != nil:
		base = slug.FromTitle(*in.Title)
	}

	write := func(ctx context.Context, candidate string) error {
		return s.Tx.WithinTx(ctx, func(ctx context.Context) error {
			art, err := s.owned(ctx, in.ID, in.UserID)
			if err != nil {
				return err
			}
			s.apply(art, in)
			if candidate != "" {
				art.Slug = candidate
			}
			if in.TagIDs != nil {
				tagIDs := dedupe(*in.TagIDs)
				if err := s.checkTags(ctx, tagIDs); err != nil {
					return err
				}
				if err := s.Repo.ReplaceTags(ctx, art.ID, tagIDs); err != nil {
					return err
				}
			}
			if err := s.Repo.Update(ctx, art); err != nil {
				return err
			}
			return s.reconcileAssets(ctx, art.ID, in.Content)
		})
	}

	var err error
	if base != "" {
		err = s.writeWithUniqueSlug(ctx, base, in.ID, write)
	} else {
		err = write(ctx, "")
	}
	if err != nil {
		return nil, fmt.Errorf("update article: %w", err)
	}

	metrics.RecordArticleWrite("update")
	return s.reload(ctx, in.ID)
}

// Publish moves the article to PUBLISHED. publishedAt is only stamped the
// first time.
func (s *Service) Publish(ctx context.Context, id, userID string) (*entity.Article, error) {
	status := entity.StatusPublished
	art, err := s.Update(ctx, UpdateInput{ID: id, UserID: userID, Status: &status})
	if err != nil {
		return nil, err
	}
	metrics.RecordArticleWrite("publish")
	return art, nil
}

// Archive moves the article to ARCHIVED.
func (s *Service) Archive(ctx context.Context, id, userID string) (*entity.Article, error) {
	status := entity.StatusArchived
	art, err := s.Update(ctx, UpdateInput{ID: id, UserID: userID, Status: &status})
	if err != nil {
		return nil, err
	}
	metrics.RecordArticleWrite("archive")
	return art, nil
}

// Delete removes an article owned by userID. Tag links cascade and assets
// are released by the foreign key.
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.owned(ctx, id, userID); err != nil {
			return err
		}
		return s.Repo.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	metrics.RecordArticleWrite("delete")
	slog.InfoContext(ctx, "article deleted", slog.String("article_id", id))
	return nil
}

/* ───────── Summarize ───────── */

// Summarize asks the configured provider for a summary of an article owned by
// userID. Provider failures never surface: they are logged and a summary
// built from the excerpt is returned instead.
func (s *Service) Summarize(ctx context.Context, id, userID string) (*Summary, error) {
	art, err := s.owned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if s.Summarizer == nil {
		return &Summary{Text: fallbackSummary(art), Provider: "none", Fallback: true}, nil
	}

	body := string(art.Content)
	if s.PlainText != nil {
		body = s.PlainText(art.Content)
	}

	provider := s.Summarizer.Name()
	start := time.Now()
	out, err := s.Summarizer.Summarize(ctx, art.Title, body)
	elapsed := time.Since(start)
	if err != nil {
		metrics.RecordSummary(provider, true, elapsed)
		slog.WarnContext(ctx, "summarization failed, using fallback",
			slog.String("article_id", art.ID),
			slog.String("provider", provider),
			slog.Any("error", err))
		return &Summary{Text: fallbackSummary(art), Provider: provider, Fallback: true}, nil
	}

	metrics.RecordSummary(provider, false, elapsed)
	return &Summary{Text: out, Provider: provider}, nil
}

func fallbackSummary(art *entity.Article) string {
	body := art.Excerpt
	if body == "" {
		body = fallbackSummaryBody
	}
	return fmt.Sprintf("This is a summary of the article \"%s\". %s", art.Title, body)
}

/* ───────── ヘルパ ───────── */

// owned loads the article and checks that userID owns it.
func (s *Service) owned(ctx context.Context, id, userID string) (*entity.Article, error) {
	art, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get article: %w", err)
	}
	if art == nil || !art.IsOwnedBy(userID) {
		return nil, ErrNotFoundOrDenied
	}
	return art, nil
}

func (s *Service) reload(ctx context.Context, id string) (*entity.Article, error) {
	art, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload article: %w", err)
	}
	if art == nil {
		return nil, ErrArticleNotFound
	}
	return art, nil
}

func (s *Service) apply(art *entity.Article, in UpdateInput) {
	if in.Title != nil {
		art.Title = *in.Title
	}
	if in.Content != nil {
		art.Content = in.Content
		art.Excerpt = text.Excerpt(in.Content)
	}
	if in.Excerpt != nil {
		art.Excerpt = *in.Excerpt
	}
	now := s.now()
	if in.Status != nil {
		art.TransitionTo(*in.Status, now)
	}
	art.UpdatedAt = now
}

func (s *Service) checkTags(ctx context.Context, tagIDs []string) error {
	if len(tagIDs) == 0 {
		return nil
	}
	n, err := s.Tags.CountExisting(ctx, tagIDs)
	if err != nil {
		return fmt.Errorf("check tags: %w", err)
	}
	if n != len(tagIDs) {
		return &entity.ValidationError{Field: "tagIds", Message: "one or more tags do not exist"}
	}
	return nil
}

func (s *Service) reconcileAssets(ctx context.Context, articleID string, content json.RawMessage) error {
	if content == nil || s.Assets == nil {
		return nil
	}
	return s.Assets.UpdateArticleAssets(ctx, articleID, content)
}

// writeWithUniqueSlug probes for a free slug and runs write with it. When the
// write loses a race for the slug, the probe and the write are repeated.
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
		if !errors.Is(err, repository.ErrDuplicateSlug) {
			return err
		}
		metrics.RecordSlugCollision("articles")
		if attempt >= maxSlugWriteRetries {
			return entity.WrapError(entity.KindConflict, ErrSlugConflict.Message, err)
		}
		slog.WarnContext(ctx, "article slug taken concurrently, retrying",
			slog.String("slug", candidate),
			slog.Int("attempt", attempt+1))
	}
}

func validateCreate(in CreateInput) error {
	var errs entity.ValidationErrors
	if in.UserID == "" {
		return entity.ErrUnauthorized
	}
	if err := entity.ValidateTitle(in.Title); err != nil {
		errs = append(errs, err.(*entity.ValidationError))
	}
	if in.Content != nil && !json.Valid(in.Content) {
		errs.Add("content", "content must be valid JSON")
	}
	if in.Status != nil && !in.Status.Valid() {
		errs.Add("status", "status must be one of DRAFT, PUBLISHED, ARCHIVED")
	}
	for _, id := range in.TagIDs {
		if id == "" {
			errs.Add("tagIds", "tag ids must not be empty")
			break
		}
	}
	return errs.ErrOrNil()
}

func validateUpdate(in UpdateInput) error {
	var errs entity.ValidationErrors
	if in.UserID == "" {
		return entity.ErrUnauthorized
	}
	if in.Title != nil {
		if err := entity.ValidateTitle(*in.Title); err != nil {
			errs = append(errs, err.(*entity.ValidationError))
		}
	}
	if in.Content != nil && !json.Valid(in.Content) {
		errs.Add("content", "content must be valid JSON")
	}
	if in.Status != nil && !in.Status.Valid() {
		errs.Add("status", "status must be one of DRAFT, PUBLISHED, ARCHIVED")
	}
	return errs.ErrOrNil()
}

func dedupe(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
