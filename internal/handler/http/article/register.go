package article

import (
	"context"
	"encoding/json"
	"net/http"

	"knowledgebase/internal/common/pagination"
	"knowledgebase/internal/domain/entity"
	"knowledgebase/internal/handler/http/auth"
	artUC "knowledgebase/internal/usecase/article"
	"knowledgebase/internal/usecase/content"
)

// Service is the article use case as seen by the handlers.
type Service interface {
	Get(ctx context.Context, id string) (*entity.Article, error)
	GetBySlug(ctx context.Context, slug string) (*entity.Article, error)
	List(ctx context.Context, status *entity.ArticleStatus, page pagination.Params) (pagination.Page[*entity.Article], error)
	ListByUser(ctx context.Context, userID string, tagIDs []string, page pagination.Params) (pagination.Page[*entity.Article], error)
	Search(ctx context.Context, query string, page pagination.Params) (pagination.Page[*entity.Article], error)
	SearchByUser(ctx context.Context, userID, query string, page pagination.Params) (pagination.Page[*entity.Article], error)
	Create(ctx context.Context, in artUC.CreateInput) (*entity.Article, error)
	Update(ctx context.Context, in artUC.UpdateInput) (*entity.Article, error)
	Publish(ctx context.Context, id, userID string) (*entity.Article, error)
	Archive(ctx context.Context, id, userID string) (*entity.Article, error)
	Delete(ctx context.Context, id, userID string) error
	Summarize(ctx context.Context, id, userID string) (*artUC.Summary, error)
}

// ContentResolver expands article content into blocks plus referenced assets.
type ContentResolver interface {
	Resolve(ctx context.Context, raw json.RawMessage) (*content.Resolved, error)
}

// Register registers all article routes with the given mux. Literal segments
// such as /articles/search take precedence over /articles/{id}. Content lives
// under /articles/content/{id} because /articles/{id}/content would overlap
// /articles/users/{userId}.
func Register(mux *http.ServeMux, svc Service, resolver ContentResolver, guard auth.Guard, cfg pagination.Config) {
	mux.Handle("GET /articles", ListHandler{Svc: svc, Pagination: cfg})
	mux.Handle("GET /articles/search", SearchHandler{Svc: svc, Pagination: cfg})
	mux.Handle("GET /articles/slug/{slug}", GetBySlugHandler{Svc: svc})
	mux.Handle("GET /articles/{id}", GetHandler{Svc: svc})
	mux.Handle("GET /articles/content/{id}", ContentHandler{Svc: svc, Resolver: resolver})

	mux.Handle("GET /articles/my-articles", guard.Require(MyListHandler{Svc: svc, Pagination: cfg}))
	mux.Handle("GET /articles/my-articles/search", guard.Require(MySearchHandler{Svc: svc, Pagination: cfg}))
	mux.Handle("GET /articles/users/{userId}", guard.Require(UserListHandler{Svc: svc, Pagination: cfg}))

	mux.Handle("POST /articles", guard.Require(CreateHandler{Svc: svc}))
	mux.Handle("PUT /articles/{id}", guard.Require(UpdateHandler{Svc: svc}))
	mux.Handle("DELETE /articles/{id}", guard.Require(DeleteHandler{Svc: svc}))
	mux.Handle("PATCH /articles/{id}/publish", guard.Require(TransitionHandler{Svc: svc, To: entity.StatusPublished}))
	mux.Handle("PATCH /articles/{id}/archive", guard.Require(TransitionHandler{Svc: svc, To: entity.StatusArchived}))
	mux.Handle("POST /articles/{id}/summarize", guard.Require(SummarizeHandler{Svc: svc}))
}

// caller returns the id of the authenticated user. Routes are wrapped by
// auth.Guard, so a missing user only happens when wiring is wrong.
func caller(r *http.Request) (string, error) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		return "", entity.ErrUnauthorized
	}
	return u.ID, nil
}
