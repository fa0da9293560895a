package article_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knowledgebase/internal/common/pagination"
	"knowledgebase/internal/domain/entity"
	"knowledgebase/internal/handler/http/article"
	"knowledgebase/internal/handler/http/auth"
	artUC "knowledgebase/internal/usecase/article"
	"knowledgebase/internal/usecase/content"
)

const (
	articleID = "0b5c3c1e-8f5a-4c55-9d0c-2f1f3f0c9a11"
	ownerID   = "7d9e2c44-1b2a-4f6e-8a3b-5c6d7e8f9a0b"

	tagA = "11111111-1111-4111-8111-111111111111"
	tagB = "22222222-2222-4222-8222-222222222222"
	tagC = "33333333-3333-4333-8333-333333333333"
)

/* ───────── スタブ実装 ───────── */

type stubService struct {
	article *entity.Article
	page    pagination.Page[*entity.Article]
	err     error

	gotStatus *entity.ArticleStatus
	gotUser   string
	gotTags   []string
	gotQuery  string
	gotParams pagination.Params
	gotCreate artUC.CreateInput
	gotUpdate artUC.UpdateInput
	called    string
}

func (s *stubService) Get(_ context.Context, id string) (*entity.Article, error) {
	s.called = "Get"
	if s.err != nil {
		return nil, s.err
	}
	if s.article == nil || s.article.ID != id {
		return nil, artUC.ErrArticleNotFound
	}
	return s.article, nil
}
func (s *stubService) GetBySlug(_ context.Context, sl string) (*entity.Article, error) {
	s.called = "GetBySlug"
	if s.article == nil || s.article.Slug != sl {
		return nil, artUC.ErrArticleNotFound
	}
	return s.article, nil
}
func (s *stubService) List(_ context.Context, st *entity.ArticleStatus, p pagination.Params) (pagination.Page[*entity.Article], error) {
	s.called, s.gotStatus, s.gotParams = "List", st, p
	return s.page, s.err
}
func (s *stubService) ListByUser(_ context.Context, userID string, tagIDs []string, p pagination.Params) (pagination.Page[*entity.Article], error) {
	s.called, s.gotUser, s.gotTags, s.gotParams = "ListByUser", userID, tagIDs, p
	return s.page, s.err
}
func (s *stubService) Search(_ context.Context, q string, p pagination.Params) (pagination.Page[*entity.Article], error) {
	s.called, s.gotQuery, s.gotParams = "Search", q, p
	return s.page, s.err
}
func (s *stubService) SearchByUser(_ context.Context, userID, q string, p pagination.Params) (pagination.Page[*entity.Article], error) {
	s.called, s.gotUser, s.gotQuery, s.gotParams = "SearchByUser", userID, q, p
	return s.page, s.err
}
func (s *stubService) Create(_ context.Context, in artUC.CreateInput) (*entity.Article, error) {
	s.called, s.gotCreate = "Create", in
	if s.err != nil {
		return nil, s.err
	}
	return &entity.Article{ID: articleID, Title: in.Title, Slug: "hello", Status: entity.StatusPublished, UserID: in.UserID}, nil
}
func (s *stubService) Update(_ context.Context, in artUC.UpdateInput) (*entity.Article, error) {
	s.called, s.gotUpdate = "Update", in
	if s.err != nil {
		return nil, s.err
	}
	return s.article, nil
}
func (s *stubService) Publish(_ context.Context, id, userID string) (*entity.Article, error) {
	s.called, s.gotUser = "Publish", userID
	return s.article, s.err
}
func (s *stubService) Archive(_ context.Context, id, userID string) (*entity.Article, error) {
	s.called, s.gotUser = "Archive", userID
	return s.article, s.err
}
func (s *stubService) Delete(_ context.Context, id, userID string) error {
	s.called, s.gotUser = "Delete", userID
	return s.err
}
func (s *stubService) Summarize(_ context.Context, id, userID string) (*artUC.Summary, error) {
	s.called, s.gotUser = "Summarize", userID
	if s.err != nil {
		return nil, s.err
	}
	return &artUC.Summary{Text: "short", Provider: "noop", Fallback: true}, nil
}

type stubResolver struct {
	assets map[string]content.AssetSummary
}

func (r stubResolver) Resolve(_ context.Context, raw json.RawMessage) (*content.Resolved, error) {
	doc, err := content.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &content.Resolved{Blocks: doc.Blocks, Assets: r.assets}, nil
}

type tokenAuth struct{}

func (tokenAuth) Authenticate(_ context.Context, bearer string) (*entity.User, error) {
	if bearer != "owner-token" {
		return nil, entity.ErrUnauthorized
	}
	return &entity.User{ID: ownerID}, nil
}

/* ───────── ヘルパ ───────── */

func newMux(svc *stubService) *http.ServeMux {
	mux := http.NewServeMux()
	article.Register(mux, svc, stubResolver{assets: map[string]content.AssetSummary{
		"img-1": {ID: "img-1", URL: "https://cdn.example.com/a.png", Type: entity.AssetImage},
	}}, auth.Guard{Auth: tokenAuth{}}, pagination.DefaultConfig())
	return mux
}

func do(t *testing.T, mux http.Handler, method, target, body string, authed bool) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if authed {
		req.Header.Set("Authorization", "Bearer owner-token")
	}
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	var out map[string]any
	if rr.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	}
	return rr, out
}

func sampleArticle() *entity.Article {
	pub := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	color := "#00ADD8"
	return &entity.Article{
		ID:          articleID,
		Title:       "Hello",
		Content:     json.RawMessage(`{"blocks":[{"type":"image","data":{"assetId":"img-1"}}]}`),
		Excerpt:     "Hello world",
		Slug:        "hello",
		Status:      entity.StatusPublished,
		PublishedAt: &pub,
		UserID:      ownerID,
		CreatedAt:   pub,
		UpdatedAt:   pub,
		Author:      &entity.User{ID: ownerID, Email: "a@example.com", FirstName: "Ada"},
		Tags:        []entity.Tag{{ID: "t1", Name: "Go", Slug: "go", Color: &color}},
	}
}

/* ───────── Reads ───────── */

func TestGet(t *testing.T) {
	svc := &stubService{article: sampleArticle()}
	rr, body := do(t, newMux(svc), http.MethodGet, "/articles/"+articleID, "", false)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "hello", data["slug"])
	assert.Equal(t, "PUBLISHED", data["status"])
	assert.Equal(t, "Ada", data["author"].(map[string]any)["firstName"])
	tags := data["tags"].([]any)
	require.Len(t, tags, 1)
	assert.Equal(t, "go", tags[0].(map[string]any)["slug"])
	assert.NotNil(t, data["content"].(map[string]any)["blocks"])
}

func TestGet_NotFoundAndBadID(t *testing.T) {
	mux := newMux(&stubService{})

	rr, body := do(t, mux, http.MethodGet, "/articles/"+ownerID, "", false)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "article not found", body["message"])

	rr, body = do(t, mux, http.MethodGet, "/articles/123", "", false)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "id", body["errors"].([]any)[0].(map[string]any)["field"])
}

func TestGetBySlug(t *testing.T) {
	svc := &stubService{article: sampleArticle()}
	rr, _ := do(t, newMux(svc), http.MethodGet, "/articles/slug/hello", "", false)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "GetBySlug", svc.called)
}

func TestContent(t *testing.T) {
	svc := &stubService{article: sampleArticle()}
	rr, body := do(t, newMux(svc), http.MethodGet, "/articles/content/"+articleID, "", false)

	require.Equal(t, http.StatusOK, rr.Code)
	data := body["data"].(map[string]any)
	assert.Len(t, data["blocks"].([]any), 1)
	assert.Contains(t, data["assets"].(map[string]any), "img-1")
}

func TestList(t *testing.T) {
	svc := &stubService{page: pagination.NewPage([]*entity.Article{sampleArticle()}, pagination.Params{Page: 2, Limit: 1}, 3)}
	rr, body := do(t, newMux(svc), http.MethodGet, "/articles?page=2&limit=1&status=draft", "", false)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "List", svc.called)
	require.NotNil(t, svc.gotStatus)
	assert.Equal(t, entity.StatusDraft, *svc.gotStatus)
	assert.Equal(t, pagination.Params{Page: 2, Limit: 1}, svc.gotParams)

	p := body["pagination"].(map[string]any)
	assert.EqualValues(t, 3, p["total"])
	assert.Equal(t, true, p["hasNext"])
	assert.Len(t, body["data"].([]any), 1)
}

func TestList_EmptyIsArray(t *testing.T) {
	svc := &stubService{page: pagination.NewPage[*entity.Article](nil, pagination.Params{Page: 1, Limit: 10}, 0)}
	rr, _ := do(t, newMux(svc), http.MethodGet, "/articles", "", false)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"data":[]`)
}

func TestList_BadPage(t *testing.T) {
	svc := &stubService{}
	rr, _ := do(t, newMux(svc), http.MethodGet, "/articles?page=0", "", false)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Empty(t, svc.called)
}

func TestMyArticles(t *testing.T) {
	svc := &stubService{page: pagination.NewPage[*entity.Article](nil, pagination.Params{Page: 1, Limit: 10}, 0)}
	mux := newMux(svc)

	rr, _ := do(t, mux, http.MethodGet, "/articles/my-articles?tagIds="+tagA+","+tagB+"&tagIds="+tagC, "", false)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr, _ = do(t, mux, http.MethodGet, "/articles/my-articles?tagIds="+tagA+","+tagB+"&tagIds="+tagC, "", true)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, ownerID, svc.gotUser)
	assert.Equal(t, []string{tagA, tagB, tagC}, svc.gotTags)

	rr, _ = do(t, mux, http.MethodGet, "/articles/my-articles?tagIds=nope", "", true)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestUserArticles(t *testing.T) {
	svc := &stubService{page: pagination.NewPage[*entity.Article](nil, pagination.Params{Page: 1, Limit: 10}, 0)}
	rr, _ := do(t, newMux(svc), http.MethodGet, "/articles/users/"+articleID, "", true)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, articleID, svc.gotUser)
}

func TestSearch(t *testing.T) {
	svc := &stubService{page: pagination.NewPage[*entity.Article](nil, pagination.Params{Page: 1, Limit: 10}, 0)}
	mux := newMux(svc)

	rr, _ := do(t, mux, http.MethodGet, "/articles/search?q=+golang+", "", false)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Search", svc.called)
	assert.Equal(t, "golang", svc.gotQuery)

	rr, _ = do(t, mux, http.MethodGet, "/articles/my-articles/search?query=rust", "", true)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "SearchByUser", svc.called)
	assert.Equal(t, "rust", svc.gotQuery)
}

/* ───────── Writes ───────── */

func TestCreate(t *testing.T) {
	svc := &stubService{}
	rr, body := do(t, newMux(svc), http.MethodPost, "/articles",
		`{"title":"Hello","content":{"blocks":[]},"status":"DRAFT","tagIds":["`+tagA+`"]}`, true)

	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, ownerID, svc.gotCreate.UserID)
	assert.Equal(t, "Hello", svc.gotCreate.Title)
	assert.JSONEq(t, `{"blocks":[]}`, string(svc.gotCreate.Content))
	require.NotNil(t, svc.gotCreate.Status)
	assert.Equal(t, entity.StatusDraft, *svc.gotCreate.Status)
	assert.Equal(t, []string{tagA}, svc.gotCreate.TagIDs)
	assert.Equal(t, "hello", body["data"].(map[string]any)["slug"])
}

func TestCreate_RequiresAuth(t *testing.T) {
	svc := &stubService{}
	rr, body := do(t, newMux(svc), http.MethodPost, "/articles", `{"title":"x"}`, false)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "unauthorized", body["message"])
	assert.Empty(t, svc.called)
}

func TestCreate_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
		code int
	}{
		{name: "malformed json", body: `{"title":`, code: http.StatusUnprocessableEntity},
		{name: "bad tag id", body: `{"title":"x","tagIds":["t1"]}`, code: http.StatusUnprocessableEntity},
		{name: "validation", body: `{"title":""}`, err: &entity.ValidationError{Field: "title", Message: "title is required"}, code: http.StatusUnprocessableEntity},
		{name: "slug conflict", body: `{"title":"x"}`, err: artUC.ErrSlugConflict, code: http.StatusConflict},
		{name: "internal", body: `{"title":"x"}`, err: errors.New("db down"), code: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, _ := do(t, newMux(&stubService{err: tt.err}), http.MethodPost, "/articles", tt.body, true)
			assert.Equal(t, tt.code, rr.Code)
		})
	}
}

func TestUpdate_PartialFields(t *testing.T) {
	svc := &stubService{article: sampleArticle()}
	rr, _ := do(t, newMux(svc), http.MethodPut, "/articles/"+articleID, `{"title":"New","content":null,"tagIds":[]}`, true)

	require.Equal(t, http.StatusOK, rr.Code)
	in := svc.gotUpdate
	assert.Equal(t, articleID, in.ID)
	assert.Equal(t, ownerID, in.UserID)
	require.NotNil(t, in.Title)
	assert.Equal(t, "New", *in.Title)
	assert.Nil(t, in.Content)
	assert.Nil(t, in.Slug)
	require.NotNil(t, in.TagIDs)
	assert.Empty(t, *in.TagIDs)
}

func TestUpdate_NotOwner(t *testing.T) {
	svc := &stubService{err: artUC.ErrNotFoundOrDenied}
	rr, body := do(t, newMux(svc), http.MethodPut, "/articles/"+articleID, `{"title":"x"}`, true)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "article not found or access denied", body["message"])
}

func TestTransitions(t *testing.T) {
	svc := &stubService{article: sampleArticle()}
	mux := newMux(svc)

	rr, _ := do(t, mux, http.MethodPatch, "/articles/"+articleID+"/publish", "", true)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Publish", svc.called)

	rr, _ = do(t, mux, http.MethodPatch, "/articles/"+articleID+"/archive", "", true)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Archive", svc.called)
}

func TestDelete(t *testing.T) {
	svc := &stubService{}
	rr, body := do(t, newMux(svc), http.MethodDelete, "/articles/"+articleID, "", true)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Delete", svc.called)
	assert.Equal(t, "article deleted", body["message"])
}

func TestSummarize(t *testing.T) {
	svc := &stubService{}
	rr, body := do(t, newMux(svc), http.MethodPost, "/articles/"+articleID+"/summarize", "", true)
	require.Equal(t, http.StatusOK, rr.Code)
	data := body["data"].(map[string]any)
	assert.Equal(t, "short", data["summary"])
	assert.Equal(t, true, data["fallback"])
}
