package tag

import (
	"context"
	"net/http"

	"knowledgebase/internal/common/pagination"
	"knowledgebase/internal/domain/entity"
	"knowledgebase/internal/handler/http/auth"
	tagUC "knowledgebase/internal/usecase/tag"
)

// Service is the tag use case as seen by the handlers.
type Service interface {
	Get(ctx context.Context, id string) (*entity.Tag, error)
	GetBySlug(ctx context.Context, slug string) (*entity.Tag, error)
	List(ctx context.Context, page pagination.Params) (pagination.Page[*entity.Tag], error)
	Search(ctx context.Context, query string, page pagination.Params) (pagination.Page[*entity.Tag], error)
	Create(ctx context.Context, in tagUC.CreateInput) (*entity.Tag, error)
	Update(ctx context.Context, in tagUC.UpdateInput) (*entity.Tag, error)
	Delete(ctx context.Context, id string) error
	AddToArticle(ctx context.Context, articleID, tagID, userID string) error
	RemoveFromArticle(ctx context.Context, articleID, tagID, userID string) error
	ListByArticle(ctx context.Context, articleID string) ([]entity.Tag, error)
}

// Register registers all tag routes with the given mux.
func Register(mux *http.ServeMux, svc Service, guard auth.Guard, cfg pagination.Config) {
	h := handlers{svc: svc, pagination: cfg}

	mux.HandleFunc("GET /tags", h.list)
	mux.HandleFunc("GET /tags/search", h.search)
	mux.HandleFunc("GET /tags/slug/{slug}", h.getBySlug)
	mux.HandleFunc("GET /tags/{id}", h.get)
	mux.HandleFunc("GET /tags/articles/{articleId}", h.listByArticle)

	mux.Handle("POST /tags", guard.RequireFunc(h.create))
	mux.Handle("PUT /tags/{id}", guard.RequireFunc(h.update))
	mux.Handle("DELETE /tags/{id}", guard.RequireFunc(h.delete))
	mux.Handle("POST /tags/articles/{articleId}", guard.RequireFunc(h.addToArticle))
	mux.Handle("DELETE /tags/articles/{articleId}/{tagId}", guard.RequireFunc(h.removeFromArticle))
}
