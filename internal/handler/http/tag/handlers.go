package tag

import (
	"log/slog"
	"net/http"
	"strings"

	"knowledgebase/internal/common/pagination"
	"knowledgebase/internal/domain/entity"
	"knowledgebase/internal/handler/http/auth"
	"knowledgebase/internal/handler/http/pathutil"
	"knowledgebase/internal/handler/http/respond"
	"knowledgebase/internal/observability/logging"
	tagUC "knowledgebase/internal/usecase/tag"
)

type handlers struct {
	svc        Service
	pagination pagination.Config
}

type tagRequest struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
}

/* ───────── Reads ───────── */

func (h handlers) list(w http.ResponseWriter, r *http.Request) {
	params, err := pagination.ParseQueryParams(r, h.pagination)
	if err != nil {
		h.fail(w, r, err, params.Page)
		return
	}
	page, err := h.svc.List(r.Context(), params)
	if err != nil {
		h.fail(w, r, err, params.Page)
		return
	}
	h.writePage(w, page)
}

func (h handlers) search(w http.ResponseWriter, r *http.Request) {
	params, err := pagination.ParseQueryParams(r, h.pagination)
	if err != nil {
		h.fail(w, r, err, params.Page)
		return
	}
	q := r.URL.Query().Get("q")
	if q == "" {
		q = r.URL.Query().Get("query")
	}
	page, err := h.svc.Search(r.Context(), strings.TrimSpace(q), params)
	if err != nil {
		h.fail(w, r, err, params.Page)
		return
	}
	h.writePage(w, page)
}

func (h handlers) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	t, err := h.svc.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, toDTO(t))
}

func (h handlers) getBySlug(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.GetBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, toDTO(t))
}

func (h handlers) listByArticle(w http.ResponseWriter, r *http.Request) {
	articleID, err := pathutil.ID(r, "articleId")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	tags, err := h.svc.ListByArticle(r.Context(), articleID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	out := make([]DTO, 0, len(tags))
	for i := range tags {
		out = append(out, toDTO(&tags[i]))
	}
	respond.OK(w, out)
}

/* ───────── Writes ───────── */

func (h handlers) create(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}
	in := tagUC.CreateInput{Slug: req.Slug, Description: req.Description, Color: req.Color}
	if req.Name != nil {
		in.Name = *req.Name
	}
	t, err := h.svc.Create(r.Context(), in)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	logging.FromContext(r.Context()).Info("tag created", slog.String("tag_id", t.ID))
	respond.Created(w, toDTO(t))
}

func (h handlers) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	var req tagRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}
	t, err := h.svc.Update(r.Context(), tagUC.UpdateInput{
		ID:          id,
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Color:       req.Color,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, toDTO(t))
}

func (h handlers) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Message(w, "tag deleted")
}

func (h handlers) addToArticle(w http.ResponseWriter, r *http.Request) {
	articleID, err := pathutil.ID(r, "articleId")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	var req struct {
		TagID string `json:"tagId"`
	}
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}
	tagID := req.TagID
	if tagID != "" {
		if tagID, err = pathutil.ParseUUID("tagId", tagID); err != nil {
			respond.Error(w, r, err)
			return
		}
	}
	user, _ := auth.UserFromContext(r.Context())
	if err := h.svc.AddToArticle(r.Context(), articleID, tagID, userID(user)); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, respond.Envelope{Success: true, Message: "tag added to article"})
}

func (h handlers) removeFromArticle(w http.ResponseWriter, r *http.Request) {
	articleID, err := pathutil.ID(r, "articleId")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	tagID, err := pathutil.ID(r, "tagId")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	user, _ := auth.UserFromContext(r.Context())
	if err := h.svc.RemoveFromArticle(r.Context(), articleID, tagID, userID(user)); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Message(w, "tag removed from article")
}

/* ───────── ヘルパ ───────── */

func (h handlers) writePage(w http.ResponseWriter, page pagination.Page[*entity.Tag]) {
	out := make([]DTO, 0, len(page.Items))
	for _, t := range page.Items {
		out = append(out, toDTO(t))
	}
	pagination.RecordRequest("tags", http.StatusOK, page.Pagination.Page)
	respond.Paged(w, out, page.Pagination)
}

func (h handlers) fail(w http.ResponseWriter, r *http.Request, err error, page int) {
	pagination.RecordRequest("tags", respond.StatusOf(err), page)
	respond.Error(w, r, err)
}

// userID tolerates a nil user; the use case then fails the ownership check.
func userID(u *entity.User) string {
	if u == nil {
		return ""
	}
	return u.ID
}
