package tag_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knowledgebase/internal/common/pagination"
	"knowledgebase/internal/domain/entity"
	"knowledgebase/internal/repository"
	tagUC "knowledgebase/internal/usecase/tag"
)

/* ───────── スタブ実装 ───────── */

type stubTagRepo struct {
	data    map[string]*entity.Tag
	links   map[[2]string]bool
	nextID  int
	err     error
	dupSlug int // Create/Update が ErrDuplicateSlug を返す残り回数
	dupName bool
}

func newStub() *stubTagRepo {
	return &stubTagRepo{data: map[string]*entity.Tag{}, links: map[[2]string]bool{}}
}

func (s *stubTagRepo) Create(_ context.Context, t *entity.Tag) error {
	if err := s.writeErr(); err != nil {
		return err
	}
	s.nextID++
	t.ID = fmt.Sprintf("tag-%d", s.nextID)
	cp := *t
	s.data[t.ID] = &cp
	return nil
}
func (s *stubTagRepo) Get(_ context.Context, id string) (*entity.Tag, error) {
	if s.err != nil {
		return nil, s.err
	}
	t, ok := s.data[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}
func (s *stubTagRepo) GetBySlug(ctx context.Context, sl string) (*entity.Tag, error) {
	for id, t := range s.data {
		if t.Slug == sl {
			return s.Get(ctx, id)
		}
	}
	return nil, s.err
}
func (s *stubTagRepo) List(_ context.Context, _ string, offset, limit int) ([]*entity.Tag, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []*entity.Tag
	for _, t := range s.data {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if offset >= len(out) {
		return nil, nil
	}
	return out[offset:min(offset+limit, len(out))], nil
}
func (s *stubTagRepo) Count(_ context.Context, _ string) (int64, error) {
	return int64(len(s.data)), s.err
}
func (s *stubTagRepo) Update(_ context.Context, t *entity.Tag) error {
	if err := s.writeErr(); err != nil {
		return err
	}
	cp := *t
	s.data[t.ID] = &cp
	return nil
}
func (s *stubTagRepo) Delete(_ context.Context, id string) error {
	delete(s.data, id)
	return s.err
}
func (s *stubTagRepo) SlugExists(_ context.Context, sl, excludeID string) (bool, error) {
	for id, t := range s.data {
		if t.Slug == sl && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}
func (s *stubTagRepo) NameExists(_ context.Context, name, excludeID string) (bool, error) {
	for id, t := range s.data {
		if t.Name == name && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}
func (s *stubTagRepo) CountExisting(_ context.Context, ids []string) (int, error) {
	n := 0
	for _, id := range ids {
		if _, ok := s.data[id]; ok {
			n++
		}
	}
	return n, nil
}
func (s *stubTagRepo) ListByArticle(_ context.Context, articleID string) ([]entity.Tag, error) {
	var out []entity.Tag
	for k := range s.links {
		if k[0] == articleID {
			out = append(out, *s.data[k[1]])
		}
	}
	return out, nil
}
func (s *stubTagRepo) IsAttached(_ context.Context, articleID, tagID string) (bool, error) {
	return s.links[[2]string{articleID, tagID}], nil
}
func (s *stubTagRepo) Attach(_ context.Context, articleID, tagID string) error {
	s.links[[2]string{articleID, tagID}] = true
	return nil
}
func (s *stubTagRepo) Detach(_ context.Context, articleID, tagID string) (bool, error) {
	k := [2]string{articleID, tagID}
	ok := s.links[k]
	delete(s.links, k)
	return ok, nil
}

func (s *stubTagRepo) writeErr() error {
	if s.err != nil {
		return s.err
	}
	if s.dupName {
		return repository.ErrDuplicateName
	}
	if s.dupSlug > 0 {
		s.dupSlug--
		return repository.ErrDuplicateSlug
	}
	return nil
}

// Get だけを使う記事リポジトリ
type stubArticles struct {
	repository.ArticleRepository
	owners map[string]string
}

func (s *stubArticles) Get(_ context.Context, id string) (*entity.Article, error) {
	owner, ok := s.owners[id]
	if !ok {
		return nil, nil
	}
	return &entity.Article{ID: id, UserID: owner}, nil
}

/* ───────── ヘルパ ───────── */

func newService() (*tagUC.Service, *stubTagRepo) {
	repo := newStub()
	return &tagUC.Service{
		Repo:     repo,
		Articles: &stubArticles{owners: map[string]string{"a1": "u1"}},
	}, repo
}

func ptr[T any](v T) *T { return &v }

/* ───────── Create / Update ───────── */

func TestService_Create(t *testing.T) {
	svc, _ := newService()

	got, err := svc.Create(context.Background(), tagUC.CreateInput{Name: "  Go Lang ", Color: ptr("#00ADD8"), Description: ptr("")})
	require.NoError(t, err)
	assert.Equal(t, "Go Lang", got.Name)
	assert.Equal(t, "go-lang", got.Slug)
	assert.Nil(t, got.Description)
	require.NotNil(t, got.Color)
	assert.Equal(t, "#00ADD8", *got.Color)
}

func TestService_Create_DuplicateName(t *testing.T) {
	svc, _ := newService()
	_, err := svc.Create(context.Background(), tagUC.CreateInput{Name: "go"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), tagUC.CreateInput{Name: "go"})
	require.ErrorIs(t, err, tagUC.ErrDuplicateTag)
	assert.Equal(t, entity.KindConflict, entity.KindOf(err))
}

func TestService_Create_NameRaceIsConflict(t *testing.T) {
	svc, repo := newService()
	repo.dupName = true

	_, err := svc.Create(context.Background(), tagUC.CreateInput{Name: "go"})
	require.ErrorIs(t, err, tagUC.ErrDuplicateTag)
}

func TestService_Create_SlugRaceRetried(t *testing.T) {
	svc, repo := newService()
	repo.dupSlug = 3

	got, err := svc.Create(context.Background(), tagUC.CreateInput{Name: "go"})
	require.NoError(t, err)
	assert.Equal(t, "go", got.Slug)

	repo.dupSlug = 4
	_, err = svc.Create(context.Background(), tagUC.CreateInput{Name: "rust"})
	assert.Equal(t, entity.KindConflict, entity.KindOf(err))
}

func TestService_Create_Validation(t *testing.T) {
	tests := []struct {
		name  string
		in    tagUC.CreateInput
		field string
	}{
		{name: "empty name", in: tagUC.CreateInput{Name: "  "}, field: "name"},
		{name: "long name", in: tagUC.CreateInput{Name: string(make([]byte, 51))}, field: "name"},
		{name: "bad color", in: tagUC.CreateInput{Name: "x", Color: ptr("red")}, field: "color"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newService()
			_, err := svc.Create(context.Background(), tt.in)
			require.Error(t, err)
			assert.Equal(t, entity.KindValidation, entity.KindOf(err))
			assert.Equal(t, tt.field, entity.FieldErrors(err)[0].Field)
		})
	}
}

func TestService_Update(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	_, err := svc.Create(ctx, tagUC.CreateInput{Name: "Backend"})
	require.NoError(t, err)
	frontend, err := svc.Create(ctx, tagUC.CreateInput{Name: "Frontend"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, tagUC.UpdateInput{ID: frontend.ID, Name: ptr("Backend")})
	require.ErrorIs(t, err, tagUC.ErrDuplicateTag)

	got, err := svc.Update(ctx, tagUC.UpdateInput{ID: frontend.ID, Name: ptr("Web UI"), Color: ptr("#ffffff")})
	require.NoError(t, err)
	assert.Equal(t, "web-ui", got.Slug)
	assert.Equal(t, "#ffffff", *got.Color)

	got, err = svc.Update(ctx, tagUC.UpdateInput{ID: frontend.ID, Slug: ptr("backend")})
	require.NoError(t, err)
	assert.Equal(t, "backend-1", got.Slug)

	_, err = svc.Update(ctx, tagUC.UpdateInput{ID: "missing", Name: ptr("x")})
	require.ErrorIs(t, err, tagUC.ErrTagNotFound)
}

/* ───────── Reads / Delete ───────── */

func TestService_List(t *testing.T) {
	svc, _ := newService()
	for _, n := range []string{"c", "a", "b"} {
		_, err := svc.Create(context.Background(), tagUC.CreateInput{Name: n})
		require.NoError(t, err)
	}

	page, err := svc.List(context.Background(), pagination.Params{Page: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "a", page.Items[0].Name)
	assert.True(t, page.Pagination.HasNext)
	assert.Equal(t, int64(3), page.Pagination.Total)
}

func TestService_Search_RequiresQuery(t *testing.T) {
	svc, _ := newService()
	_, err := svc.Search(context.Background(), " ", pagination.Params{})
	assert.Equal(t, entity.KindValidation, entity.KindOf(err))
}

func TestService_GetBySlugAndDelete(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	created, err := svc.Create(ctx, tagUC.CreateInput{Name: "Ops"})
	require.NoError(t, err)

	got, err := svc.GetBySlug(ctx, "ops")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	require.NoError(t, svc.Delete(ctx, created.ID))
	require.ErrorIs(t, svc.Delete(ctx, created.ID), tagUC.ErrTagNotFound)
}

func TestService_RepoError(t *testing.T) {
	svc, repo := newService()
	repo.err = errors.New("boom")

	_, err := svc.Get(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, entity.KindInternal, entity.KindOf(err))
}

/* ───────── Article links ───────── */

func TestService_ArticleLinks(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	tg, err := svc.Create(ctx, tagUC.CreateInput{Name: "go"})
	require.NoError(t, err)

	require.ErrorIs(t, svc.AddToArticle(ctx, "a1", tg.ID, "u2"), tagUC.ErrArticleNotFound)
	require.ErrorIs(t, svc.AddToArticle(ctx, "a1", "missing", "u1"), tagUC.ErrTagNotFound)
	require.NoError(t, svc.AddToArticle(ctx, "a1", tg.ID, "u1"))
	require.ErrorIs(t, svc.AddToArticle(ctx, "a1", tg.ID, "u1"), tagUC.ErrAlreadyAttached)

	tags, err := svc.ListByArticle(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "go", tags[0].Name)

	require.NoError(t, svc.RemoveFromArticle(ctx, "a1", tg.ID, "u1"))
	err = svc.RemoveFromArticle(ctx, "a1", tg.ID, "u1")
	require.ErrorIs(t, err, tagUC.ErrNotAttached)
	assert.Equal(t, entity.KindNotFound, entity.KindOf(err))

	tags, err = svc.ListByArticle(ctx, "a1")
	require.NoError(t, err)
	assert.NotNil(t, tags)
	assert.Empty(t, tags)
}
