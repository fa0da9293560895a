// Package content understands article bodies: it parses the block document,
// finds the assets it references and keeps asset ownership in step with it.
package content

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Document is the structured article body.
type Document struct {
	Blocks []Block `json:"blocks"`
}

// Block is one entry of a document. Data is kept verbatim so a parsed block
// re-encodes exactly as it was stored; Value is the typed view of it.
type Block struct {
	ID    string          `json:"id,omitempty"`
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data,omitempty"`
	Value BlockValue      `json:"-"`
}

// BlockValue is implemented by TextBlock, GalleryBlock, VideoBlock and GenericBlock.
type BlockValue interface {
	isBlock()
}

// TextBlock carries inline HTML such as a paragraph or heading.
type TextBlock struct {
	Text string `json:"text"`
}

// GalleryBlock references several assets.
type GalleryBlock struct {
	AssetIDs []string `json:"assetIds"`
	Caption  string   `json:"caption,omitempty"`
}

// VideoBlock references a video asset and an optional poster image.
type VideoBlock struct {
	AssetID string `json:"assetId"`
	Poster  string `json:"poster,omitempty"`
	Caption string `json:"caption,omitempty"`
}

// GenericBlock is any other block; Fields is the decoded data object.
type GenericBlock struct {
	Fields map[string]any
}

func (TextBlock) isBlock()    {}
func (GalleryBlock) isBlock() {}
func (VideoBlock) isBlock()   {}
func (GenericBlock) isBlock() {}

// UnmarshalJSON decodes the envelope and picks the variant from the block
// type and the keys present in data.
func (b *Block) UnmarshalJSON(raw []byte) error {
	type envelope Block
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return err
	}
	*b = Block(env)

	var fields map[string]any
	if len(bytes.TrimSpace(b.Data)) > 0 && !bytes.Equal(bytes.TrimSpace(b.Data), []byte("null")) {
		if err := decodeJSON(b.Data, &fields); err != nil {
			return fmt.Errorf("block %q data: %w", b.ID, err)
		}
	}
	b.Value = classify(b.Type, fields, b.Data)
	return nil
}

func classify(typ string, fields map[string]any, raw json.RawMessage) BlockValue {
	switch {
	case typ == "gallery" || isStringSlice(fields["assetIds"]):
		var g GalleryBlock
		if json.Unmarshal(raw, &g) == nil {
			return g
		}
	case typ == "video":
		var v VideoBlock
		if json.Unmarshal(raw, &v) == nil {
			return v
		}
	case len(fields) == 1 || typ == "paragraph" || typ == "header" || typ == "quote" || typ == "text":
		if s, ok := fields["text"].(string); ok {
			return TextBlock{Text: s}
		}
	}
	return GenericBlock{Fields: fields}
}

func isStringSlice(v any) bool {
	arr, ok := v.([]any)
	if !ok {
		return false
	}
	for _, e := range arr {
		if _, ok := e.(string); !ok {
			return false
		}
	}
	return true
}

// Parse decodes a stored content value. Content that is not a block
// document (a bare string, an empty object) yields an empty document.
func Parse(raw json.RawMessage) (*Document, error) {
	doc := &Document{Blocks: []Block{}}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return doc, nil
	}
	if err := json.Unmarshal(trimmed, doc); err != nil {
		return nil, fmt.Errorf("parse content: %w", err)
	}
	if doc.Blocks == nil {
		doc.Blocks = []Block{}
	}
	return doc, nil
}

func decodeJSON(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}
