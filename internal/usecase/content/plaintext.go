package content

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PlainText flattens content into readable text with HTML removed. It is what
// the summarizer sees. Content that is not a block document is treated as a
// JSON string or raw HTML.
func PlainText(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ""
	}
	if trimmed[0] == '"' {
		var s string
		if json.Unmarshal(trimmed, &s) == nil {
			return stripHTML(s)
		}
	}
	if trimmed[0] != '{' {
		return stripHTML(string(trimmed))
	}

	doc, err := Parse(trimmed)
	if err != nil {
		return ""
	}
	parts := make([]string, 0, len(doc.Blocks))
	for _, b := range doc.Blocks {
		if t := blockText(b.Value); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n\n")
}

func blockText(v BlockValue) string {
	switch b := v.(type) {
	case TextBlock:
		return stripHTML(b.Text)
	case GalleryBlock:
		return stripHTML(b.Caption)
	case VideoBlock:
		return stripHTML(b.Caption)
	case GenericBlock:
		var out []string
		collectText(b.Fields, 0, &out)
		return strings.Join(out, "\n")
	}
	return ""
}

// collectText gathers text-like string fields from generic data, for example
// list items or table cells, in key order.
func collectText(v any, depth int, out *[]string) {
	if depth >= MaxDepth {
		return
	}
	switch node := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(node))
		for k := range node {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			switch k {
			case "text", "caption", "content", "title":
				if s, ok := node[k].(string); ok {
					if t := stripHTML(s); t != "" {
						*out = append(*out, t)
					}
					continue
				}
			}
			collectText(node[k], depth+1, out)
		}
	case []any:
		for _, child := range node {
			if s, ok := child.(string); ok {
				if t := stripHTML(s); t != "" {
					*out = append(*out, t)
				}
				continue
			}
			collectText(child, depth+1, out)
		}
	}
}

func stripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
