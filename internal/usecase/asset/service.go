// Package asset handles media uploads: it stores the bytes in object storage
// and records the asset row that article content refers to.
package asset

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"log/slog"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp" // register decoder

	"knowledgebase/internal/domain/entity"
	"knowledgebase/internal/observability/metrics"
	"knowledgebase/internal/repository"
)

// DefaultMaxSize is the upload limit when none is configured.
const DefaultMaxSize int64 = 10 << 20

var (
	// ErrAssetNotFound indicates that the requested asset was not found.
	ErrAssetNotFound = entity.NotFound("asset not found")

	// ErrArticleNotFound is returned when the target article is missing or not owned by the caller.
	ErrArticleNotFound = entity.NotFound("article not found or access denied")

	extPattern = regexp.MustCompile(`^\.[a-z0-9]{1,10}$`)

	// allowedTypes maps a sniffed content type to the type stored and served.
	// Anything missing here, HTML and SVG included, is rejected.
	allowedTypes = map[string]string{
		"image/png":       "image/png",
		"image/jpeg":      "image/jpeg",
		"image/gif":       "image/gif",
		"image/webp":      "image/webp",
		"image/bmp":       "image/bmp",
		"video/mp4":       "video/mp4",
		"video/webm":      "video/webm",
		"video/avi":       "video/avi",
		"audio/mpeg":      "audio/mpeg",
		"audio/wave":      "audio/wave",
		"audio/aiff":      "audio/aiff",
		"audio/midi":      "audio/midi",
		"audio/basic":     "audio/basic",
		"application/ogg": "audio/ogg",
		"application/pdf": "application/pdf",
		"text/plain":      "text/plain",
	}
)

// BlobStore writes object bytes and returns their public URL.
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, body []byte) (string, error)
}

// UploadInput is one uploaded file.
type UploadInput struct {
	UserID       string
	OriginalName string
	Content      []byte
	ArticleID    *string
}

// Service provides the asset use cases.
type Service struct {
	Repo     repository.AssetRepository
	Articles repository.ArticleRepository
	Store    BlobStore
	MaxSize  int64

	// Now overrides the clock; used by tests.
	Now func() time.Time
}

func (s *Service) maxSize() int64 {
	if s.MaxSize > 0 {
		return s.MaxSize
	}
	return DefaultMaxSize
}

// Upload stores the file under a fresh key and records it. The content type
// is sniffed from the bytes; whatever the client declared is not trusted.
// Image dimensions are read from the header for png, jpeg, gif and webp.
func (s *Service) Upload(ctx context.Context, in UploadInput) (*entity.Asset, error) {
	size := int64(len(in.Content))
	if size == 0 {
		return nil, &entity.ValidationError{Field: "file", Message: "file is required"}
	}
	if size > s.maxSize() {
		return nil, &entity.ValidationError{Field: "file", Message: fmt.Sprintf("file must not exceed %d bytes", s.maxSize())}
	}
	mimeType, ok := allowedTypes[normalizeMIME(http.DetectContentType(in.Content))]
	if !ok {
		return nil, &entity.ValidationError{Field: "file", Message: "file type is not allowed"}
	}
	if in.ArticleID != nil && *in.ArticleID != "" {
		art, err := s.Articles.Get(ctx, *in.ArticleID)
		if err != nil {
			return nil, fmt.Errorf("upload asset: %w", err)
		}
		if art == nil || !art.IsOwnedBy(in.UserID) {
			return nil, ErrArticleNotFound
		}
	} else {
		in.ArticleID = nil
	}

	typ := entity.AssetTypeFromMIME(mimeType)

	id := uuid.NewString()
	key := id + extension(in.OriginalName)
	url, err := s.Store.Put(ctx, key, mimeType, in.Content)
	if err != nil {
		return nil, fmt.Errorf("upload asset: %w", err)
	}

	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now().UTC()
	}
	a := &entity.Asset{
		ID:           id,
		Filename:     key,
		OriginalName: filepath.Base(in.OriginalName),
		URL:          url,
		Type:         typ,
		MimeType:     mimeType,
		Size:         size,
		ArticleID:    in.ArticleID,
		CreatedAt:    now,
	}
	if typ == entity.AssetImage {
		a.Width, a.Height = dimensions(ctx, in.Content)
	}

	if err := s.Repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("record asset: %w", err)
	}

	metrics.RecordAssetUpload(string(typ), size)
	slog.InfoContext(ctx, "asset uploaded",
		slog.String("asset_id", a.ID),
		slog.String("type", string(typ)),
		slog.Int64("size", size))
	return a, nil
}

// Get retrieves a single asset by its ID.
func (s *Service) Get(ctx context.Context, id string) (*entity.Asset, error) {
	a, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get asset: %w", err)
	}
	if a == nil {
		return nil, ErrAssetNotFound
	}
	return a, nil
}

func dimensions(ctx context.Context, content []byte) (*int, *int) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(content))
	if err != nil {
		slog.DebugContext(ctx, "image header not decodable", slog.Any("error", err))
		return nil, nil
	}
	slog.DebugContext(ctx, "image header decoded", slog.String("format", format))
	w, h := cfg.Width, cfg.Height
	return &w, &h
}

func normalizeMIME(m string) string {
	m, _, _ = strings.Cut(m, ";")
	return strings.ToLower(strings.TrimSpace(m))
}

// extension keeps a short alphanumeric extension of name, lowercased.
func extension(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if !extPattern.MatchString(ext) {
		return ""
	}
	return ext
}
