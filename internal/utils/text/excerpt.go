package text

import (
	"bytes"
	"encoding/json"
	"regexp"
)

// ExcerptLength is the number of characters kept before the ellipsis.
const ExcerptLength = 200

const ellipsis = "..."

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// Excerpt derives a short preview from article content.
//
// A JSON string (or raw text that is not JSON at all) is truncated directly.
// Structured content is serialized compactly, stripped of anything that looks
// like a markup tag and truncated the same way. The result is a best-effort
// approximation, not a rendering of the rich text.
func Excerpt(content []byte) string {
	content = bytes.TrimSpace(content)
	if len(content) == 0 || bytes.Equal(content, []byte("null")) {
		return ""
	}

	var s string
	if err := json.Unmarshal(content, &s); err == nil {
		return excerptOf(s)
	}
	if !json.Valid(content) {
		return excerptOf(string(content))
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, content); err != nil {
		return excerptOf(string(content))
	}
	return excerptOf(tagPattern.ReplaceAllString(buf.String(), ""))
}

// ExcerptString is Excerpt for content that is already plain text.
func ExcerptString(s string) string {
	return excerptOf(s)
}

func excerptOf(s string) string {
	head, cut := Truncate(s, ExcerptLength)
	if cut {
		return head + ellipsis
	}
	return head
}
