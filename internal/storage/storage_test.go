package storage_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"canvas/internal/domain"
	"canvas/internal/storage"
)

func openStore(t *testing.T) (*storage.DB, *storage.DocumentStore) {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "nested", "canvas.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, storage.NewDocumentStore(db, zerolog.Nop())
}

func sampleDoc(t *testing.T) domain.Document {
	t.Helper()
	d := domain.NewDocument()
	d, a, err := domain.AddBlock(d, domain.BlockTypeWebview, domain.Webview{URL: "https://go.dev", Title: "Go"}, 10, 20, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	d, b, err := domain.AddBlock(d, domain.BlockTypeText, domain.Text{Value: "note"}, 900, 20, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	d, _, err = domain.AddLink(d, a, b)
	if err != nil {
		t.Fatal(err)
	}
	d = domain.UpdateCurrentPage(d, func(p *domain.Page) {
		w := p.Blocks[0].Content.(domain.Webview)
		w.Ready = true
		p.Blocks[0].Content = w
		p.SelectedIDs = []int{b}
		p.OffsetX, p.Zoom = -40, 1.5
		p.Mode = domain.Dragging{Drag: domain.DragState{ID: b}}
	})
	d, _ = domain.AddPage(d, "Second")
	return domain.SwitchPage(d, d.Pages[0].ID)
}

func TestDocumentStore_LoadEmpty(t *testing.T) {
	_, store := openStore(t)
	_, ok, err := store.Load(context.Background())
	if err != nil || ok {
		t.Fatalf("ok=%v err=%v, want nothing stored", ok, err)
	}
}

func TestDocumentStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	_, store := openStore(t)
	d := sampleDoc(t)

	if err := store.Save(ctx, d); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := store.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}

	if len(got.Pages) != 2 || got.CurrentPageID != d.Pages[0].ID {
		t.Fatalf("pages=%d current=%s", len(got.Pages), got.CurrentPageID)
	}
	p, _ := got.CurrentPage()
	if len(p.Blocks) != 2 || len(p.Links) != 1 || p.IDCounter != 4 {
		t.Errorf("blocks=%d links=%d counter=%d", len(p.Blocks), len(p.Links), p.IDCounter)
	}
	if p.OffsetX != -40 || p.Zoom != 1.5 {
		t.Errorf("viewport = (%v, %v)", p.OffsetX, p.Zoom)
	}
	if len(p.SelectedIDs) != 1 || p.SelectedIDs[0] != 2 {
		t.Errorf("selection = %v", p.SelectedIDs)
	}
	w := p.Blocks[0].Content.(domain.Webview)
	if w.Ready {
		t.Error("webview ready flag survived reload")
	}
	if w.URL != "https://go.dev" || w.Title != "Go" {
		t.Errorf("webview = %+v", w)
	}
	if !p.IsIdle() {
		t.Error("interaction mode survived reload")
	}
}

func TestDocumentStore_SaveReplaces(t *testing.T) {
	ctx := context.Background()
	_, store := openStore(t)
	d := sampleDoc(t)
	if err := store.Save(ctx, d); err != nil {
		t.Fatal(err)
	}

	d = domain.DeleteBlock(d, 1)
	if err := store.Save(ctx, d); err != nil {
		t.Fatal(err)
	}
	got, _, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	p, _ := got.CurrentPage()
	if len(p.Blocks) != 1 || len(p.Links) != 0 {
		t.Errorf("blocks=%d links=%d after delete", len(p.Blocks), len(p.Links))
	}
}

func TestSettingsStore(t *testing.T) {
	ctx := context.Background()
	db, _ := openStore(t)
	s := storage.NewSettingsStore(db)

	if _, ok, err := s.Get(ctx, "theme"); err != nil || ok {
		t.Fatalf("unset key: ok=%v err=%v", ok, err)
	}
	if err := s.Set(ctx, "theme", "dark"); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "theme", "light"); err != nil {
		t.Fatal(err)
	}
	if v, ok, _ := s.Get(ctx, "theme"); !ok || v != "light" {
		t.Errorf("theme = %q ok=%v", v, ok)
	}
}

func TestJSONExportImport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	d := sampleDoc(t)
	if err := storage.ExportJSON(path, d); err != nil {
		t.Fatal(err)
	}
	got, err := storage.ImportJSON(path)
	if err != nil {
		t.Fatal(err)
	}
	p, _ := got.CurrentPage()
	if len(p.Blocks) != 2 || p.Blocks[1].Content.(domain.Text).Value != "note" {
		t.Errorf("blocks = %+v", p.Blocks)
	}
}

func TestImportJSON_RejectsBrokenInvariants(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	bad := `{"pages":[{"id":"p","name":"P","idCounter":2,"zoom":1,
		"blocks":[{"id":1,"type":"text","x":0,"y":0,"width":100,"height":100,"zIndex":1,"config":{}}],
		"links":[{"id":5,"parentBlockId":1,"childBlockId":9}],"selectedIds":[]}],"currentPageId":"p"}`
	if err := os.WriteFile(path, []byte(bad), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := storage.ImportJSON(path); !errors.Is(err, domain.ErrInvalidDocument) {
		t.Errorf("err = %v, want ErrInvalidDocument", err)
	}
}
