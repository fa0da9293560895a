package content

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractAssetIDs(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "single asset",
			content: `{"blocks":[{"id":"b1","type":"image","data":{"assetId":"a1"}}]}`,
			want:    []string{"a1"},
		},
		{
			name:    "gallery",
			content: `{"blocks":[{"type":"gallery","data":{"assetIds":["g2","g1","g2"]}}]}`,
			want:    []string{"g1", "g2"},
		},
		{
			name:    "video with poster",
			content: `{"blocks":[{"type":"video","data":{"assetId":"v1","poster":"p1"}}]}`,
			want:    []string{"p1", "v1"},
		},
		{
			name:    "inline markers in text",
			content: `{"blocks":[{"type":"paragraph","data":{"text":"see <img assetId=\"x1\"> and <img assetId=\"x2\">"}}]}`,
			want:    []string{"x1", "x2"},
		},
		{
			name:    "nested objects and arrays",
			content: `{"blocks":[{"type":"columns","data":{"cols":[{"blocks":[{"data":{"assetId":"n1"}}]},{"inner":{"poster":"n2"}}]}}]}`,
			want:    []string{"n1", "n2"},
		},
		{
			name:    "dedup across blocks",
			content: `{"blocks":[{"data":{"assetId":"a"}},{"data":{"assetIds":["a","b"]}}]}`,
			want:    []string{"a", "b"},
		},
		{
			name:    "non-string values ignored",
			content: `{"blocks":[{"data":{"assetId":42,"assetIds":[1,"ok"],"poster":null}}]}`,
			want:    []string{"ok"},
		},
		{name: "no blocks", content: `{}`, want: []string{}},
		{name: "plain string content", content: `"just text"`, want: []string{}},
		{name: "empty", content: ``, want: []string{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractAssetIDs(json.RawMessage(tc.content))
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("ExtractAssetIDs mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtractAssetIDs_InvalidJSON(t *testing.T) {
	_, err := ExtractAssetIDs(json.RawMessage(`{"blocks":[`))
	assert.Error(t, err)
}

func TestExtractAssetIDs_DepthBounded(t *testing.T) {
	// 40 levels of nesting; only ids above MaxDepth are found
	var b strings.Builder
	b.WriteString(`{"blocks":[{"data":`)
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&b, `{"assetId":"d%02d","next":`, i)
	}
	b.WriteString(`{}`)
	b.WriteString(strings.Repeat("}", 40))
	b.WriteString(`}]}`)

	got, err := ExtractAssetIDs(json.RawMessage(b.String()))
	require.NoError(t, err)
	assert.Len(t, got, MaxDepth)
	assert.Equal(t, "d00", got[0])
	assert.NotContains(t, got, fmt.Sprintf("d%02d", MaxDepth))
}
