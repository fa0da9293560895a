package article

import (
	"net/http"

	"knowledgebase/internal/handler/http/pathutil"
	"knowledgebase/internal/handler/http/respond"
)

// SummarizeHandler serves POST /articles/{id}/summarize. A provider failure
// still answers 200 with the fallback summary.
type SummarizeHandler struct{ Svc Service }

// ServeHTTP 記事の AI 要約
func (h SummarizeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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
	sum, err := h.Svc.Summarize(r.Context(), id, userID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, SummaryDTO{Summary: sum.Text, Provider: sum.Provider, Fallback: sum.Fallback})
}
