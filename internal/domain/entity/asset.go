package entity

import (
	"strings"
	"time"
)

// AssetType is the coarse media class of an uploaded file.
type AssetType string

const (
	AssetImage    AssetType = "IMAGE"
	AssetVideo    AssetType = "VIDEO"
	AssetAudio    AssetType = "AUDIO"
	AssetDocument AssetType = "DOCUMENT"
)

// AssetTypeFromMIME maps a MIME type to its asset type by prefix.
func AssetTypeFromMIME(mimeType string) AssetType {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return AssetImage
	case strings.HasPrefix(mimeType, "video/"):
		return AssetVideo
	case strings.HasPrefix(mimeType, "audio/"):
		return AssetAudio
	default:
		return AssetDocument
	}
}

// Asset is an uploaded media file. ArticleID is reassigned whenever article
// content starts or stops referencing the asset.
type Asset struct {
	ID           string
	Filename     string
	OriginalName string
	URL          string
	Type         AssetType
	MimeType     string
	Size         int64
	Width        *int
	Height       *int
	ArticleID    *string
	CreatedAt    time.Time
}
