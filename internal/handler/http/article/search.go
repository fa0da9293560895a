package article

import (
	"net/http"
	"strings"

	"knowledgebase/internal/common/pagination"
	"knowledgebase/internal/handler/http/respond"
)

// SearchHandler serves GET /articles/search?q=.
type SearchHandler struct {
	Svc        Service
	Pagination pagination.Config
}

// ServeHTTP 記事検索（タイトル・抜粋・タグ名）
func (h SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	params, err := pagination.ParseQueryParams(r, h.Pagination)
	if err != nil {
		writeErr(w, r, err, params.Page)
		return
	}
	page, err := h.Svc.Search(r.Context(), query(r), params)
	if err != nil {
		writeErr(w, r, err, params.Page)
		return
	}
	writePage(w, page)
}

// MySearchHandler serves GET /articles/my-articles/search?q=.
type MySearchHandler struct {
	Svc        Service
	Pagination pagination.Config
}

// ServeHTTP 自分の記事を検索
func (h MySearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, err := caller(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	params, err := pagination.ParseQueryParams(r, h.Pagination)
	if err != nil {
		writeErr(w, r, err, params.Page)
		return
	}
	page, err := h.Svc.SearchByUser(r.Context(), userID, query(r), params)
	if err != nil {
		writeErr(w, r, err, params.Page)
		return
	}
	writePage(w, page)
}

// query reads the search term from q, falling back to query.
func query(r *http.Request) string {
	q := r.URL.Query().Get("q")
	if q == "" {
		q = r.URL.Query().Get("query")
	}
	return strings.TrimSpace(q)
}
