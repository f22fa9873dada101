package clipboard

import (
	"errors"
	"testing"

	"canvas/internal/domain"
)

func withFakeOS(t *testing.T) *string {
	t.Helper()
	var buf string
	oldRead, oldWrite := readAll, writeAll
	readAll = func() (string, error) { return buf, nil }
	writeAll = func(s string) error { buf = s; return nil }
	t.Cleanup(func() { readAll, writeAll = oldRead, oldWrite })
	return &buf
}

func TestSystem_RoundTripsBlocks(t *testing.T) {
	withFakeOS(t)
	in := domain.ClipboardPayload{
		Blocks: []domain.Block{
			{ID: 3, X: 1, Y: 2, Width: 100, Height: 80, ZIndex: 4, Content: domain.Text{Value: "a", FontSize: 12}},
			{ID: 5, X: 200, Width: 300, Height: 300, ZIndex: 5, Content: domain.Image{Src: "b.png"}},
		},
		Links: []domain.Link{{ID: 6, ParentBlockID: 3, ChildBlockID: 5}},
	}
	var c System
	if err := c.Write(in); err != nil {
		t.Fatal(err)
	}
	out, err := c.Read()
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Blocks) != 2 || len(out.Links) != 1 {
		t.Fatalf("out = %+v", out)
	}
	if img, ok := out.Blocks[1].Content.(domain.Image); !ok || img.Src != "b.png" {
		t.Errorf("content = %#v", out.Blocks[1].Content)
	}
}

func TestDecode_ForeignText(t *testing.T) {
	tests := []struct {
		in   string
		want domain.BlockType
	}{
		{"hello world", domain.BlockTypeText},
		{"https://go.dev/doc", domain.BlockTypeWebview},
		{"https://go.dev and more", domain.BlockTypeText},
		{`{"some":"json"}`, domain.BlockTypeText},
	}
	for _, tt := range tests {
		p, err := Decode(tt.in)
		if err != nil {
			t.Fatalf("Decode(%q): %v", tt.in, err)
		}
		if len(p.Blocks) != 1 || p.Blocks[0].Type() != tt.want {
			t.Errorf("Decode(%q) = %+v, want one %s block", tt.in, p.Blocks, tt.want)
		}
	}
}

func TestDecode_Empty(t *testing.T) {
	if _, err := Decode("  \n"); !errors.Is(err, ErrEmpty) {
		t.Errorf("err = %v, want ErrEmpty", err)
	}
}

func TestMemory(t *testing.T) {
	var m Memory
	if _, err := m.Read(); !errors.Is(err, ErrEmpty) {
		t.Fatalf("empty read err = %v", err)
	}
	p := domain.ClipboardPayload{Blocks: []domain.Block{{ID: 1, Width: 60, Height: 60, Content: domain.Text{Value: "x"}}}}
	if err := m.Write(p); err != nil {
		t.Fatal(err)
	}
	got, err := m.Read()
	if err != nil || len(got.Blocks) != 1 {
		t.Errorf("got %+v err %v", got, err)
	}
}
