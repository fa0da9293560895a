package article

import (
	"encoding/json"
	"net/http"

	"knowledgebase/internal/domain/entity"
	"knowledgebase/internal/handler/http/pathutil"
	"knowledgebase/internal/handler/http/respond"
	artUC "knowledgebase/internal/usecase/article"
)

// updateRequest carries optional fields; an absent field is left unchanged.
type updateRequest struct {
	Title   *string         `json:"title"`
	Content json.RawMessage `json:"content"`
	Excerpt *string         `json:"excerpt"`
	Slug    *string         `json:"slug"`
	Status  *string         `json:"status"`
	TagIDs  *[]string       `json:"tagIds"`
}

// UpdateHandler serves PUT /articles/{id}.
type UpdateHandler struct{ Svc Service }

// ServeHTTP 記事更新（所有者のみ）
func (h UpdateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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
	var req updateRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}
	if req.TagIDs != nil {
		if err := checkTagIDs(*req.TagIDs); err != nil {
			respond.Error(w, r, err)
			return
		}
	}

	art, err := h.Svc.Update(r.Context(), artUC.UpdateInput{
		ID:      id,
		UserID:  userID,
		Title:   req.Title,
		Content: rawOrNil(req.Content),
		Excerpt: req.Excerpt,
		Slug:    req.Slug,
		Status:  status(req.Status),
		TagIDs:  req.TagIDs,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, toDTO(art))
}

// TransitionHandler serves PATCH /articles/{id}/publish and /archive.
type TransitionHandler struct {
	Svc Service
	To  entity.ArticleStatus
}

// ServeHTTP 記事の公開・アーカイブ
func (h TransitionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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

	var art *entity.Article
	switch h.To {
	case entity.StatusPublished:
		art, err = h.Svc.Publish(r.Context(), id, userID)
	default:
		art, err = h.Svc.Archive(r.Context(), id, userID)
	}
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, toDTO(art))
}
