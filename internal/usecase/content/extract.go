package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
)

// MaxDepth bounds the walk through nested block data.
const MaxDepth = 32

var inlineAssetRe = regexp.MustCompile(`assetId="([^"]+)"`)

// ExtractAssetIDs returns every asset id referenced by the content, sorted
// and without duplicates. Per block it reads data.assetId, data.assetIds,
// data.poster and assetId="..." markers in data.text, then descends into
// nested objects and arrays applying the same rules.
func ExtractAssetIDs(raw json.RawMessage) ([]string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return []string{}, nil
	}

	var doc struct {
		Blocks []struct {
			Data any `json:"data"`
		} `json:"blocks"`
	}
	if err := decodeJSON(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("extract asset ids: %w", err)
	}

	seen := make(map[string]struct{})
	for _, b := range doc.Blocks {
		walk(b.Data, 0, seen)
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func walk(v any, depth int, seen map[string]struct{}) {
	if depth >= MaxDepth {
		return
	}
	switch node := v.(type) {
	case map[string]any:
		if id, ok := node["assetId"].(string); ok {
			add(seen, id)
		}
		if ids, ok := node["assetIds"].([]any); ok {
			for _, e := range ids {
				if id, ok := e.(string); ok {
					add(seen, id)
				}
			}
		}
		if id, ok := node["poster"].(string); ok {
			add(seen, id)
		}
		if text, ok := node["text"].(string); ok {
			for _, m := range inlineAssetRe.FindAllStringSubmatch(text, -1) {
				add(seen, m[1])
			}
		}
		for _, child := range node {
			walk(child, depth+1, seen)
		}
	case []any:
		for _, child := range node {
			walk(child, depth+1, seen)
		}
	}
}

func add(seen map[string]struct{}, id string) {
	if id != "" {
		seen[id] = struct{}{}
	}
}
