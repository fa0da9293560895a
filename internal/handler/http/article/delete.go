package article

import (
	"net/http"

	"knowledgebase/internal/handler/http/pathutil"
	"knowledgebase/internal/handler/http/respond"
)

// DeleteHandler serves DELETE /articles/{id}.
type DeleteHandler struct{ Svc Service }

// ServeHTTP 記事削除（所有者のみ）
func (h DeleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, err := caller(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	id, err := pathutil.ID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := h.Svc.Delete(r.Context(), id, userID); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Message(w, "article deleted")
}
