package article

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"knowledgebase/internal/domain/entity"
	"knowledgebase/internal/handler/http/pathutil"
	"knowledgebase/internal/handler/http/respond"
	"knowledgebase/internal/observability/logging"
	artUC "knowledgebase/internal/usecase/article"
)

type createRequest struct {
	Title   string          `json:"title"`
	Content json.RawMessage `json:"content"`
	Excerpt *string         `json:"excerpt"`
	Slug    *string         `json:"slug"`
	Status  *string         `json:"status"`
	TagIDs  []string        `json:"tagIds"`
}

// CreateHandler serves POST /articles.
type CreateHandler struct{ Svc Service }

// ServeHTTP 記事作成
func (h CreateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, err := caller(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	var req createRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := checkTagIDs(req.TagIDs); err != nil {
		respond.Error(w, r, err)
		return
	}

	art, err := h.Svc.Create(r.Context(), artUC.CreateInput{
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
	logging.FromContext(r.Context()).Info("article created",
		slog.String("article_id", art.ID),
		slog.String("slug", art.Slug))
	respond.Created(w, toDTO(art))
}

// checkTagIDs rejects tag ids that are not UUIDs before they reach SQL.
func checkTagIDs(ids []string) error {
	for i, id := range ids {
		canon, err := pathutil.ParseUUID("tagIds", id)
		if err != nil {
			return err
		}
		ids[i] = canon
	}
	return nil
}

func status(s *string) *entity.ArticleStatus {
	if s == nil {
		return nil
	}
	st := entity.ArticleStatus(*s)
	return &st
}

// rawOrNil treats an explicit JSON null like an absent field.
func rawOrNil(raw json.RawMessage) json.RawMessage {
	if string(raw) == "null" {
		return nil
	}
	return raw
}
