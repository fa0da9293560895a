package article

import (
	"net/http"
	"strings"

	"knowledgebase/internal/common/pagination"
	"knowledgebase/internal/domain/entity"
	"knowledgebase/internal/handler/http/pathutil"
	"knowledgebase/internal/handler/http/respond"
)

// ListHandler serves GET /articles.
type ListHandler struct {
	Svc        Service
	Pagination pagination.Config
}

// ServeHTTP 記事一覧取得（status で絞り込み可）
func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	params, err := pagination.ParseQueryParams(r, h.Pagination)
	if err != nil {
		writeErr(w, r, err, params.Page)
		return
	}
	var status *entity.ArticleStatus
	if s := r.URL.Query().Get("status"); s != "" {
		st := entity.ArticleStatus(strings.ToUpper(s))
		status = &st
	}

	page, err := h.Svc.List(r.Context(), status, params)
	if err != nil {
		writeErr(w, r, err, params.Page)
		return
	}
	writePage(w, page)
}

// MyListHandler serves GET /articles/my-articles.
type MyListHandler struct {
	Svc        Service
	Pagination pagination.Config
}

// ServeHTTP 自分の記事一覧（tagIds で絞り込み可）
func (h MyListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, err := caller(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	listByUser(w, r, h.Svc, h.Pagination, userID)
}

// UserListHandler serves GET /articles/users/{userId}.
type UserListHandler struct {
	Svc        Service
	Pagination pagination.Config
}

// ServeHTTP 指定ユーザーの記事一覧
func (h UserListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, err := pathutil.ID(r, "userId")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	listByUser(w, r, h.Svc, h.Pagination, userID)
}

func listByUser(w http.ResponseWriter, r *http.Request, svc Service, cfg pagination.Config, userID string) {
	params, err := pagination.ParseQueryParams(r, cfg)
	if err != nil {
		writeErr(w, r, err, params.Page)
		return
	}
	tags := tagIDs(r)
	if err := checkTagIDs(tags); err != nil {
		writeErr(w, r, err, params.Page)
		return
	}
	page, err := svc.ListByUser(r.Context(), userID, tags, params)
	if err != nil {
		writeErr(w, r, err, params.Page)
		return
	}
	writePage(w, page)
}

// tagIDs reads the tagIds filter. Both "tagIds=a,b" and repeated
// "tagIds=a&tagIds=b" are accepted.
func tagIDs(r *http.Request) []string {
	var out []string
	for _, v := range r.URL.Query()["tagIds"] {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				out = append(out, id)
			}
		}
	}
	return out
}

func writePage(w http.ResponseWriter, page pagination.Page[*entity.Article]) {
	pagination.RecordRequest("articles", http.StatusOK, page.Pagination.Page)
	respond.Paged(w, toDTOs(page.Items), page.Pagination)
}

func writeErr(w http.ResponseWriter, r *http.Request, err error, page int) {
	pagination.RecordRequest("articles", respond.StatusOf(err), page)
	respond.Error(w, r, err)
}
