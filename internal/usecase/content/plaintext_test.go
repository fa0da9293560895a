package content

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlainText(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "blocks with html",
			content: `{"blocks":[{"type":"header","data":{"text":"<h1>Title</h1>"}},{"type":"paragraph","data":{"text":"Hello <b>bold</b> &amp; more"}}]}`,
			want:    "Title\n\nHello bold & more",
		},
		{
			name:    "generic list items",
			content: `{"blocks":[{"type":"list","data":{"style":"unordered","items":["one","<i>two</i>"]}}]}`,
			want:    "one\ntwo",
		},
		{
			name:    "gallery caption",
			content: `{"blocks":[{"type":"gallery","data":{"assetIds":["a"],"caption":"Trip"}}]}`,
			want:    "Trip",
		},
		{name: "json string", content: `"<p>plain</p>"`, want: "plain"},
		{name: "empty", content: ``, want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, PlainText(json.RawMessage(tc.content)))
		})
	}
}
