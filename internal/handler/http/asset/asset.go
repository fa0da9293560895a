// Package asset provides HTTP handlers for media uploads.
package asset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"knowledgebase/internal/domain/entity"
	"knowledgebase/internal/handler/http/auth"
	"knowledgebase/internal/handler/http/pathutil"
	"knowledgebase/internal/handler/http/respond"
	assetUC "knowledgebase/internal/usecase/asset"
)

// multipartOverhead is the room left for boundaries and the other form fields.
const multipartOverhead = 1 << 20

// Service is the asset use case as seen by the handlers.
type Service interface {
	Upload(ctx context.Context, in assetUC.UploadInput) (*entity.Asset, error)
	Get(ctx context.Context, id string) (*entity.Asset, error)
}

// DTO represents the JSON structure for asset data transfer.
type DTO struct {
	ID           string           `json:"id"`
	Filename     string           `json:"filename"`
	OriginalName string           `json:"originalName"`
	URL          string           `json:"url"`
	Type         entity.AssetType `json:"type"`
	MimeType     string           `json:"mimeType"`
	Size         int64            `json:"size"`
	Width        *int             `json:"width"`
	Height       *int             `json:"height"`
	ArticleID    *string          `json:"articleId"`
	CreatedAt    time.Time        `json:"createdAt"`
}

func toDTO(a *entity.Asset) DTO {
	return DTO{
		ID:           a.ID,
		Filename:     a.Filename,
		OriginalName: a.OriginalName,
		URL:          a.URL,
		Type:         a.Type,
		MimeType:     a.MimeType,
		Size:         a.Size,
		Width:        a.Width,
		Height:       a.Height,
		ArticleID:    a.ArticleID,
		CreatedAt:    a.CreatedAt,
	}
}

// Register registers the asset routes with the given mux. maxSize is the
// per-file limit in bytes.
func Register(mux *http.ServeMux, svc Service, guard auth.Guard, maxSize int64) {
	if maxSize <= 0 {
		maxSize = assetUC.DefaultMaxSize
	}
	mux.Handle("POST /assets", guard.Require(UploadHandler{Svc: svc, MaxSize: maxSize}))
	mux.Handle("GET /assets/{id}", GetHandler{Svc: svc})
}

// UploadHandler serves POST /assets (multipart field "file", optional "articleId").
type UploadHandler struct {
	Svc     Service
	MaxSize int64
}

// ServeHTTP アセットのアップロード
func (h UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respond.Error(w, r, entity.ErrUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxSize+multipartOverhead)
	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		respond.Error(w, r, formError(err, h.MaxSize))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		respond.Error(w, r, &entity.ValidationError{Field: "file", Message: "file is required"})
		return
	}
	defer func() { _ = file.Close() }()

	body, err := io.ReadAll(io.LimitReader(file, h.MaxSize+1))
	if err != nil {
		respond.Error(w, r, fmt.Errorf("read upload: %w", err))
		return
	}

	in := assetUC.UploadInput{
		UserID:       user.ID,
		OriginalName: header.Filename,
		Content:      body,
	}
	if v := r.FormValue("articleId"); v != "" {
		id, err := pathutil.ParseUUID("articleId", v)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		in.ArticleID = &id
	}

	a, err := h.Svc.Upload(r.Context(), in)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Created(w, toDTO(a))
}

func formError(err error, maxSize int64) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return &entity.ValidationError{Field: "file", Message: fmt.Sprintf("file must not exceed %d bytes", maxSize)}
	}
	return &entity.ValidationError{Field: "file", Message: "request must be multipart/form-data"}
}

// GetHandler serves GET /assets/{id}.
type GetHandler struct{ Svc Service }

// ServeHTTP アセット取得
func (h GetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	a, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, toDTO(a))
}
