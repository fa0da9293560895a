package article

import (
	"net/http"

	"knowledgebase/internal/handler/http/pathutil"
	"knowledgebase/internal/handler/http/respond"
)

// GetHandler serves GET /articles/{id}.
type GetHandler struct{ Svc Service }

// ServeHTTP 記事詳細取得
func (h GetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	art, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, toDTO(art))
}

// GetBySlugHandler serves GET /articles/slug/{slug}.
type GetBySlugHandler struct{ Svc Service }

// ServeHTTP スラッグで記事取得
func (h GetBySlugHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	art, err := h.Svc.GetBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, toDTO(art))
}

// ContentHandler serves GET /articles/content/{id}: the article body as
// blocks together with the assets they reference.
type ContentHandler struct {
	Svc      Service
	Resolver ContentResolver
}

// ServeHTTP 記事本文の解決（ブロック + アセット）
func (h ContentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	art, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	resolved, err := h.Resolver.Resolve(r.Context(), art.Content)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, resolved)
}
