package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArticle_TransitionTo(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	earlier := now.Add(-48 * time.Hour)

	t.Run("publishing a draft stamps publishedAt", func(t *testing.T) {
		a := &Article{Status: StatusDraft}
		a.TransitionTo(StatusPublished, now)

		assert.Equal(t, StatusPublished, a.Status)
		require.NotNil(t, a.PublishedAt)
		assert.True(t, a.PublishedAt.Equal(now))
	})

	t.Run("re-publishing keeps the original timestamp", func(t *testing.T) {
		a := &Article{Status: StatusPublished, PublishedAt: &earlier}
		a.TransitionTo(StatusPublished, now)

		assert.True(t, a.PublishedAt.Equal(earlier))
	})

	t.Run("publishing after archive keeps the first timestamp", func(t *testing.T) {
		a := &Article{Status: StatusArchived, PublishedAt: &earlier}
		a.TransitionTo(StatusPublished, now)

		assert.Equal(t, StatusPublished, a.Status)
		assert.True(t, a.PublishedAt.Equal(earlier))
	})

	t.Run("archiving leaves publishedAt untouched", func(t *testing.T) {
		a := &Article{Status: StatusDraft}
		a.TransitionTo(StatusArchived, now)

		assert.Nil(t, a.PublishedAt)
		assert.Equal(t, StatusArchived, a.Status)
	})
}

func TestArticleStatus_Valid(t *testing.T) {
	assert.True(t, StatusDraft.Valid())
	assert.True(t, StatusArchived.Valid())
	assert.False(t, ArticleStatus("deleted").Valid())
}

func TestAssetTypeFromMIME(t *testing.T) {
	tests := map[string]AssetType{
		"image/png":       AssetImage,
		"video/mp4":       AssetVideo,
		"audio/mpeg":      AssetAudio,
		"application/pdf": AssetDocument,
		"":                AssetDocument,
	}
	for mime, want := range tests {
		assert.Equal(t, want, AssetTypeFromMIME(mime), mime)
	}
}

func TestUser_Name(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", (&User{FirstName: "Ada", LastName: "Lovelace"}).Name())
	assert.Equal(t, "ada@example.com", (&User{Email: "ada@example.com"}).Name())
}
