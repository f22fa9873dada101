package domain

import (
	"encoding/json"
	"fmt"

	"canvas/internal/geom"
)

type BlockType string

const (
	BlockTypeWebview BlockType = "webview"
	BlockTypeText    BlockType = "text"
	BlockTypeImage   BlockType = "image"
)

// MinBlockSize is the smallest width or height a block may have.
const MinBlockSize = 50.0

// Content is the variant-specific payload of a block. The set of
// implementations is closed: Webview, Text and Image.
type Content interface {
	Type() BlockType
	isContent()
}

// Webview embeds a web page. Ready is runtime-only: it flips to true once the
// embedded view has loaded and is reset on every load from disk.
type Webview struct {
	URL          string `json:"url"`
	Title        string `json:"title"`
	Ready        bool   `json:"ready"`
	CanGoBack    bool   `json:"canGoBack"`
	CanGoForward bool   `json:"canGoForward"`
}

type Text struct {
	Value    string  `json:"value"`
	FontSize float64 `json:"fontSize"`
}

type Image struct {
	Src string `json:"src"`
	Alt string `json:"alt"`
}

func (Webview) Type() BlockType { return BlockTypeWebview }
func (Text) Type() BlockType    { return BlockTypeText }
func (Image) Type() BlockType   { return BlockTypeImage }

func (Webview) isContent() {}
func (Text) isContent()    {}
func (Image) isContent()   {}

// MatchContent dispatches on the concrete content kind. Every consumer that
// needs per-kind behaviour goes through here, so adding a kind means adding
// a parameter and fixing each call site.
func MatchContent[T any](c Content, webview func(Webview) T, text func(Text) T, image func(Image) T) T {
	switch v := c.(type) {
	case Webview:
		return webview(v)
	case Text:
		return text(v)
	case Image:
		return image(v)
	}
	panic(fmt.Sprintf("domain: unhandled block content %T", c))
}

// Block is a positioned, resizable rectangle on a page.
type Block struct {
	ID      int     `json:"id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	ZIndex  int     `json:"zIndex"`
	Content Content `json:"-"`
}

// Type returns the block's variant.
func (b Block) Type() BlockType {
	if b.Content == nil {
		return ""
	}
	return b.Content.Type()
}

// Rect returns the block's geometry.
func (b Block) Rect() geom.Rect {
	return geom.Rect{X: b.X, Y: b.Y, W: b.Width, H: b.Height}
}

// Geometry captures the position and size of a block.
func (b Block) Geometry() BlockGeometry {
	return BlockGeometry{ID: b.ID, X: b.X, Y: b.Y, Width: b.Width, Height: b.Height}
}

// BlockGeometry is a position/size record detached from a block's content.
type BlockGeometry struct {
	ID     int     `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type blockJSON struct {
	ID     int             `json:"id"`
	Type   BlockType       `json:"type"`
	X      float64         `json:"x"`
	Y      float64         `json:"y"`
	Width  float64         `json:"width"`
	Height float64         `json:"height"`
	ZIndex int             `json:"zIndex"`
	Config json.RawMessage `json:"config"`
}

func (b Block) MarshalJSON() ([]byte, error) {
	cfg, err := json.Marshal(b.Content)
	if err != nil {
		return nil, fmt.Errorf("marshal block %d content: %w", b.ID, err)
	}
	return json.Marshal(blockJSON{
		ID:     b.ID,
		Type:   b.Type(),
		X:      b.X,
		Y:      b.Y,
		Width:  b.Width,
		Height: b.Height,
		ZIndex: b.ZIndex,
		Config: cfg,
	})
}

func (b *Block) UnmarshalJSON(data []byte) error {
	var raw blockJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	content, err := DecodeContent(raw.Type, raw.Config)
	if err != nil {
		return fmt.Errorf("block %d: %w", raw.ID, err)
	}
	*b = Block{
		ID:      raw.ID,
		X:       raw.X,
		Y:       raw.Y,
		Width:   raw.Width,
		Height:  raw.Height,
		ZIndex:  raw.ZIndex,
		Content: content,
	}
	return nil
}

// DecodeContent parses a JSON config payload for the given block type.
// An empty payload yields the zero value of the variant.
func DecodeContent(t BlockType, data []byte) (Content, error) {
	empty := len(data) == 0 || string(data) == "null"
	switch t {
	case BlockTypeWebview:
		var w Webview
		if !empty {
			if err := json.Unmarshal(data, &w); err != nil {
				return nil, fmt.Errorf("decode webview config: %w", err)
			}
		}
		return w, nil
	case BlockTypeText:
		var tx Text
		if !empty {
			if err := json.Unmarshal(data, &tx); err != nil {
				return nil, fmt.Errorf("decode text config: %w", err)
			}
		}
		return tx, nil
	case BlockTypeImage:
		var im Image
		if !empty {
			if err := json.Unmarshal(data, &im); err != nil {
				return nil, fmt.Errorf("decode image config: %w", err)
			}
		}
		return im, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBlockType, t)
}

// ── defaults ───────────────────────────────────────────────

// DefaultSize returns the width and height used when a block is created
// without an explicit size.
func DefaultSize(t BlockType) (float64, float64) {
	switch t {
	case BlockTypeWebview:
		return 800, 600
	case BlockTypeText:
		return 200, 100
	case BlockTypeImage:
		return 300, 300
	}
	return 300, 200
}

// DefaultContent returns the variant defaults for t.
func DefaultContent(t BlockType) (Content, error) {
	switch t {
	case BlockTypeWebview:
		return Webview{URL: "about:blank"}, nil
	case BlockTypeText:
		return Text{FontSize: 16}, nil
	case BlockTypeImage:
		return Image{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBlockType, t)
}

// mergeContent fills zero-valued fields of cfg from def. Both must be the same kind.
func mergeContent(def, cfg Content) Content {
	if cfg == nil {
		return def
	}
	return MatchContent(cfg,
		func(w Webview) Content {
			d := def.(Webview)
			if w.URL == "" {
				w.URL = d.URL
			}
			w.Ready = false
			return w
		},
		func(t Text) Content {
			d := def.(Text)
			if t.FontSize == 0 {
				t.FontSize = d.FontSize
			}
			return t
		},
		func(im Image) Content {
			return im
		},
	)
}
