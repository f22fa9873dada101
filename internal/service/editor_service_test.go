package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"canvas/internal/domain"
	"canvas/internal/service"
	"canvas/internal/storage"
	"canvas/internal/viewport"
)

// ── fakes ──────────────────────────────────────────────────

type memSaver struct {
	mu    sync.Mutex
	saves []domain.Document
	err   error
}

func (m *memSaver) Save(_ context.Context, d domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.saves = append(m.saves, d)
	return nil
}

func (m *memSaver) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saves)
}

type memClipboard struct {
	payload domain.ClipboardPayload
}

func (c *memClipboard) Read() (domain.ClipboardPayload, error) { return c.payload, nil }
func (c *memClipboard) Write(p domain.ClipboardPayload) error  { c.payload = p; return nil }

type clock struct{ t time.Time }

func newClock() *clock { return &clock{t: time.Unix(1_700_000_000, 0)} }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	editor  *service.EditorService
	emitter *service.MockEmitter
	saver   *memSaver
	clip    *memClipboard
	clock   *clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		emitter: &service.MockEmitter{},
		saver:   &memSaver{},
		clip:    &memClipboard{},
		clock:   newClock(),
	}
	f.editor = service.NewEditorService(domain.NewDocument(), service.Options{
		MaxHistory: 10,
		Saver:      f.saver,
		Clipboard:  f.clip,
		Emitter:    f.emitter,
		Logger:     zerolog.Nop(),
		Now:        f.clock.now,
	})
	return f
}

// addText places a 200x100 text block at (x, y).
func (f *fixture) addText(t *testing.T, x, y float64) int {
	t.Helper()
	id, err := f.editor.AddBlock(context.Background(), domain.BlockTypeText, nil, x, y, 0, 0)
	if err != nil {
		t.Fatalf("AddBlock: %v", err)
	}
	return id
}

func (f *fixture) block(t *testing.T, id int) domain.Block {
	t.Helper()
	p, _ := f.editor.Document().CurrentPage()
	b, ok := p.Block(id)
	if !ok {
		t.Fatalf("block %d missing", id)
	}
	return b
}

func at(x, y float64) service.PointerEvent { return service.PointerEvent{ClientX: x, ClientY: y} }

// ── gestures ───────────────────────────────────────────────

func TestDrag_CommitsAndUndoes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.addText(t, 0, 0)
	undoAfterAdd := f.editor.History()

	f.editor.PointerDown(ctx, at(50, 50))
	f.editor.PointerMove(ctx, at(70, 60))
	f.editor.PointerMove(ctx, at(80, 90))
	f.editor.PointerUp(ctx, at(80, 90))

	if b := f.block(t, id); b.X != 30 || b.Y != 40 {
		t.Fatalf("after drag = (%v,%v), want (30,40)", b.X, b.Y)
	}
	h := f.editor.History()
	if !h.CanUndo || h.UndoLabel != "Move" {
		t.Fatalf("history = %+v, want a Move checkpoint", h)
	}
	if !undoAfterAdd.CanUndo {
		t.Fatal("add should be undoable")
	}

	if !f.editor.Undo(ctx) {
		t.Fatal("undo failed")
	}
	if b := f.block(t, id); b.X != 0 || b.Y != 0 {
		t.Errorf("after undo = (%v,%v), want (0,0)", b.X, b.Y)
	}
	st, _ := f.editor.State()
	if st.Mode != "idle" {
		t.Errorf("mode after undo = %q", st.Mode)
	}

	if !f.editor.Redo(ctx) {
		t.Fatal("redo failed")
	}
	if b := f.block(t, id); b.X != 30 || b.Y != 40 {
		t.Errorf("after redo = (%v,%v), want (30,40)", b.X, b.Y)
	}
}

func TestPointer_ConvertsScreenToCanvas(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.addText(t, 0, 0)
	f.editor.SetViewport(ctx, 100, 100, 2)

	// Screen (200,200) is canvas (50,50) at offset 100 and zoom 2.
	f.editor.PointerDown(ctx, at(200, 200))
	f.editor.PointerMove(ctx, at(240, 200))
	f.editor.PointerUp(ctx, at(240, 200))

	if b := f.block(t, id); b.X != 20 {
		t.Errorf("x = %v, want 20 (40 screen px at zoom 2)", b.X)
	}
}

func TestClick_DoesNotCommit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addText(t, 0, 0)
	before := f.editor.History()

	f.editor.PointerDown(ctx, at(50, 50))
	f.editor.PointerUp(ctx, at(50, 50))

	if after := f.editor.History(); after != before {
		t.Errorf("click changed history: %+v -> %+v", before, after)
	}
	st, _ := f.editor.State()
	if len(st.SelectedIDs) != 1 {
		t.Errorf("selection = %v, want the clicked block", st.SelectedIDs)
	}
}

func TestBoxSelect_DoesNotCommit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.addText(t, 0, 0)
	b := f.addText(t, 400, 0)
	f.editor.ClearSelection(ctx)
	before := f.editor.History()

	f.editor.PointerDown(ctx, at(-10, -10))
	f.editor.PointerMove(ctx, at(700, 200))
	f.editor.PointerUp(ctx, at(700, 200))

	st, _ := f.editor.State()
	if len(st.SelectedIDs) != 2 || st.SelectedIDs[0] != a || st.SelectedIDs[1] != b {
		t.Errorf("selection = %v, want [%d %d]", st.SelectedIDs, a, b)
	}
	if after := f.editor.History(); after != before {
		t.Errorf("box select changed history: %+v", after)
	}
}

func TestBlur_CommitsActiveGesture(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.addText(t, 0, 0)

	f.editor.PointerDown(ctx, at(50, 50))
	f.editor.PointerMove(ctx, at(150, 50))
	f.editor.Blur(ctx)

	st, _ := f.editor.State()
	if st.Mode != "idle" {
		t.Fatalf("mode = %q after blur", st.Mode)
	}
	f.editor.Undo(ctx)
	if b := f.block(t, id); b.X != 0 {
		t.Errorf("undo after blur: x = %v, want 0", b.X)
	}
}

func TestRenamePage_CompletesGestureFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.addText(t, 0, 0)
	pageID := f.editor.Document().CurrentPageID

	f.editor.PointerDown(ctx, at(50, 50))
	f.editor.PointerMove(ctx, at(80, 50))
	f.editor.RenamePage(ctx, pageID, "Renamed")

	st, _ := f.editor.State()
	if st.Mode != "idle" {
		t.Fatalf("mode = %q after rename, want idle", st.Mode)
	}
	// The drag ended at the rename; later moves only hover.
	f.editor.PointerMove(ctx, at(250, 50))
	f.editor.PointerUp(ctx, at(250, 50))
	if b := f.block(t, id); b.X != 30 {
		t.Fatalf("x = %v, want 30", b.X)
	}

	f.editor.Undo(ctx)
	if p, _ := f.editor.Document().Page(pageID); p.Name == "Renamed" {
		t.Error("first undo should revert the rename")
	}
	if b := f.block(t, id); b.X != 30 {
		t.Errorf("x after undoing rename = %v, want 30", b.X)
	}
	f.editor.Undo(ctx)
	if b := f.block(t, id); b.X != 0 {
		t.Errorf("x after undoing move = %v, want 0", b.X)
	}
}

func TestStaleGesture_CompletedOnNextPress(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.addText(t, 0, 0)

	f.editor.PointerDown(ctx, at(50, 50))
	f.editor.PointerMove(ctx, at(100, 50))
	// Pointer-up never arrives.
	f.clock.advance(service.GestureTimeout + time.Second)
	f.editor.PointerDown(ctx, at(1000, 1000))
	f.editor.PointerUp(ctx, at(1000, 1000))

	if h := f.editor.History(); h.UndoLabel != "Move" {
		t.Fatalf("history = %+v, want the lost drag committed", h)
	}
	f.editor.Undo(ctx)
	if b := f.block(t, id); b.X != 0 {
		t.Errorf("x = %v, want 0", b.X)
	}
}

func TestPress_IgnoredWhileGestureFresh(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.addText(t, 0, 0)

	f.editor.PointerDown(ctx, at(50, 50))
	f.editor.PointerMove(ctx, at(60, 50))
	f.clock.advance(time.Second)
	f.editor.PointerDown(ctx, at(1000, 1000))
	f.editor.PointerMove(ctx, at(70, 50))
	f.editor.PointerUp(ctx, at(70, 50))

	if b := f.block(t, id); b.X != 20 {
		t.Errorf("x = %v, want 20", b.X)
	}
}

// ── discrete edits ─────────────────────────────────────────

func TestAddBlock_RejectedLeavesDocument(t *testing.T) {
	f := newFixture(t)
	before := f.editor.Document()
	_, err := f.editor.AddBlock(context.Background(), "chart", nil, 0, 0, 0, 0)
	if !errors.Is(err, domain.ErrUnknownBlockType) {
		t.Fatalf("err = %v", err)
	}
	if f.editor.History().CanUndo {
		t.Error("rejected add must not checkpoint")
	}
	p, _ := f.editor.Document().CurrentPage()
	bp, _ := before.CurrentPage()
	if len(p.Blocks) != len(bp.Blocks) {
		t.Error("document changed")
	}
}

func TestUpdateBlock_IDChangeRejected(t *testing.T) {
	f := newFixture(t)
	id := f.addText(t, 0, 0)
	other := 99
	err := f.editor.UpdateBlock(context.Background(), id, domain.BlockPatch{ID: &other})
	if !errors.Is(err, domain.ErrIDChange) {
		t.Errorf("err = %v, want ErrIDChange", err)
	}
}

func TestZOrder_NoopIsNotCommitted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addText(t, 0, 0)
	b := f.addText(t, 0, 0)

	f.editor.SendToFront(ctx, b)
	f.editor.Undo(ctx)
	if got := f.block(t, b).ZIndex; got != 2 {
		t.Errorf("z after undo = %d, want 2", got)
	}
	// Only the z-order checkpoint was undone.
	if h := f.editor.History(); h.UndoLabel != "Add text" {
		t.Errorf("undo label = %q", h.UndoLabel)
	}

	f.editor.SendToFront(ctx, 42)
	if h := f.editor.History(); h.UndoLabel != "Add text" {
		t.Errorf("missing block created a checkpoint: %+v", h)
	}
}

func TestDeleteSelection_CascadesAndUndoes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.addText(t, 0, 0)
	b := f.addText(t, 400, 0)
	if _, err := f.editor.AddLink(ctx, a, b); err != nil {
		t.Fatal(err)
	}
	f.editor.Select(ctx, a)
	f.editor.DeleteSelection(ctx)

	st, _ := f.editor.State()
	if len(st.Blocks) != 1 || len(st.Links) != 0 {
		t.Fatalf("blocks=%d links=%d", len(st.Blocks), len(st.Links))
	}
	f.editor.Undo(ctx)
	st, _ = f.editor.State()
	if len(st.Blocks) != 2 || len(st.Links) != 1 {
		t.Errorf("after undo blocks=%d links=%d", len(st.Blocks), len(st.Links))
	}
}

func TestDeleteBlocks_UndoKeepsPriorSelection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.addText(t, 0, 0)
	b := f.addText(t, 300, 0)
	c := f.addText(t, 600, 0)
	link, err := f.editor.AddLink(ctx, a, b)
	if err != nil {
		t.Fatalf("AddLink: %v", err)
	}
	f.editor.Select(ctx, c)

	f.editor.DeleteBlocks(ctx, []int{a, b, 99})
	st, _ := f.editor.State()
	if len(st.Blocks) != 1 || len(st.Links) != 0 {
		t.Fatalf("after delete: %d blocks, %d links", len(st.Blocks), len(st.Links))
	}
	if len(st.SelectedIDs) != 1 || st.SelectedIDs[0] != c {
		t.Errorf("selection = %v, want [%d]", st.SelectedIDs, c)
	}

	if !f.editor.Undo(ctx) {
		t.Fatal("nothing to undo")
	}
	st, _ = f.editor.State()
	if len(st.Blocks) != 3 || len(st.Links) != 1 || st.Links[0].ID != link {
		t.Errorf("after undo: %d blocks, links %v", len(st.Blocks), st.Links)
	}
	if len(st.SelectedIDs) != 1 || st.SelectedIDs[0] != c {
		t.Errorf("undo selection = %v, want [%d]", st.SelectedIDs, c)
	}
}

func TestCopyPaste(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.addText(t, 0, 0)
	f.editor.Select(ctx, a)

	if ok, err := f.editor.Copy(ctx); err != nil || !ok {
		t.Fatalf("copy: ok=%v err=%v", ok, err)
	}
	ids, err := f.editor.Paste(ctx)
	if err != nil || len(ids) != 1 {
		t.Fatalf("paste: ids=%v err=%v", ids, err)
	}
	pasted := f.block(t, ids[0])
	if pasted.X != domain.DefaultPasteOffset || pasted.ID == a {
		t.Errorf("pasted = %+v", pasted.Geometry())
	}
	if h := f.editor.History(); h.UndoLabel != "Paste" {
		t.Errorf("undo label = %q", h.UndoLabel)
	}
}

func TestWheel_ZoomsAroundCursor(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.editor.Wheel(ctx, viewport.WheelEvent{ClientX: 100, ClientY: 100, DeltaY: -100, CtrlKey: true})

	st, _ := f.editor.State()
	if st.Zoom <= 1 {
		t.Fatalf("zoom = %v, want > 1", st.Zoom)
	}
	// The canvas point under the cursor stays at (100,100).
	if cx := (100 - st.OffsetX) / st.Zoom; cx < 99.999 || cx > 100.001 {
		t.Errorf("canvas x under cursor = %v", cx)
	}
}

func TestPages_UndoableAdd(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	first := f.editor.Document().CurrentPageID
	second := f.editor.AddPage(ctx, "Two")
	if f.editor.Document().CurrentPageID != second {
		t.Fatal("new page not current")
	}
	f.editor.SwitchPage(ctx, first)
	f.editor.RemovePage(ctx, second)
	if n := len(f.editor.Document().Pages); n != 1 {
		t.Fatalf("pages = %d", n)
	}
	f.editor.Undo(ctx)
	if n := len(f.editor.Document().Pages); n != 2 {
		t.Errorf("pages after undo = %d", n)
	}
}

// ── events and persistence ─────────────────────────────────

func TestEvents(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addText(t, 0, 0)

	if n := f.emitter.Count(service.EventDocumentChanged); n != 1 {
		t.Errorf("document:changed = %d, want 1", n)
	}
	data, ok := f.emitter.Last(service.EventHistoryChanged)
	if !ok || !data.(service.HistoryState).CanUndo {
		t.Errorf("history:changed = %v", data)
	}

	f.emitter.Reset()
	f.editor.PointerMove(ctx, at(50, 50))
	if n := f.emitter.Count(service.EventHistoryChanged); n != 0 {
		t.Errorf("hover emitted history:changed %d times", n)
	}
}

func TestSave_TracksDirty(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addText(t, 0, 0)
	if !f.editor.Dirty() {
		t.Fatal("expected dirty after edit")
	}
	if saved, err := f.editor.SaveIfDirty(ctx); err != nil || !saved {
		t.Fatalf("saved=%v err=%v", saved, err)
	}
	if f.editor.Dirty() {
		t.Error("still dirty after save")
	}
	if saved, _ := f.editor.SaveIfDirty(ctx); saved {
		t.Error("clean document saved again")
	}
	if f.saver.count() != 1 || f.emitter.Count(service.EventDocumentSaved) != 1 {
		t.Errorf("saves=%d events=%d", f.saver.count(), f.emitter.Count(service.EventDocumentSaved))
	}
}

func TestIdlePointerMove_LeavesDocumentClean(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	if _, err := f.editor.SaveIfDirty(ctx); err != nil {
		t.Fatalf("SaveIfDirty: %v", err)
	}
	f.emitter.Reset()

	for _, x := range []float64{400, 420, 440} {
		f.editor.PointerMove(ctx, at(x, 300))
	}
	if f.editor.Dirty() {
		t.Error("moving over empty canvas marked the document dirty")
	}
	if n := f.emitter.Count(service.EventDocumentChanged); n != 0 {
		t.Errorf("document:changed = %d, want 0", n)
	}
	if saved, _ := f.editor.SaveIfDirty(ctx); saved || f.saver.count() != 0 {
		t.Errorf("saved=%v saves=%d, want nothing written", saved, f.saver.count())
	}
}

func TestHover_RenderedButNotDirty(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.addText(t, 0, 0)
	if _, err := f.editor.SaveIfDirty(ctx); err != nil {
		t.Fatalf("SaveIfDirty: %v", err)
	}
	f.emitter.Reset()

	f.editor.PointerMove(ctx, at(50, 50))
	data, ok := f.emitter.Last(service.EventDocumentChanged)
	if !ok || data.(domain.PageState).HoveringID != id {
		t.Errorf("hover not emitted: %v", data)
	}
	if f.editor.Dirty() {
		t.Error("hover marked the document dirty")
	}

	f.editor.SwitchPage(ctx, f.editor.Document().CurrentPageID)
	f.editor.Select(ctx)
	if n := f.emitter.Count(service.EventDocumentChanged); n != 1 {
		t.Errorf("no-op switch/select emitted: document:changed = %d, want 1", n)
	}
}

func TestSave_ErrorKeepsDirty(t *testing.T) {
	f := newFixture(t)
	f.addText(t, 0, 0)
	f.saver.err = errors.New("disk full")
	if err := f.editor.Save(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if !f.editor.Dirty() {
		t.Error("failed save cleared dirty flag")
	}
}

func TestSave_NoSaver(t *testing.T) {
	e := service.NewEditorService(domain.NewDocument(), service.Options{})
	if err := e.Save(context.Background()); !errors.Is(err, service.ErrNoSaver) {
		t.Errorf("err = %v", err)
	}
}

func TestAutosaver_Tick(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, err := service.NewAutosaver(f.editor, "@every 30s", zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	a.Tick(ctx)
	if f.saver.count() != 0 {
		t.Error("clean document autosaved")
	}
	f.addText(t, 0, 0)
	a.Tick(ctx)
	if f.saver.count() != 1 {
		t.Errorf("saves = %d, want 1", f.saver.count())
	}
}

func TestAutosaver_StopFlushes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, err := service.NewAutosaver(f.editor, "@every 1h", zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Start(ctx); err != nil {
		t.Fatal(err)
	}
	f.addText(t, 0, 0)
	if err := a.Stop(ctx); err != nil {
		t.Fatal(err)
	}
	if f.saver.count() != 1 {
		t.Errorf("saves = %d, want final flush", f.saver.count())
	}
}

func TestAutosaver_BadSchedule(t *testing.T) {
	f := newFixture(t)
	if _, err := service.NewAutosaver(f.editor, "every now and then", zerolog.Nop()); err == nil {
		t.Error("expected schedule error")
	}
}

func TestImportWatcher_Reload(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	path := filepath.Join(t.TempDir(), "doc.json")

	src := domain.NewDocument()
	src, _, err := domain.AddBlock(src, domain.BlockTypeImage, domain.Image{Src: "a.png"}, 0, 0, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := storage.ExportJSON(path, src); err != nil {
		t.Fatal(err)
	}

	w, err := service.NewImportWatcher(f.editor, path, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Reload(ctx); err != nil {
		t.Fatal(err)
	}
	st, _ := f.editor.State()
	if len(st.Blocks) != 1 || st.Blocks[0].Type() != domain.BlockTypeImage {
		t.Fatalf("blocks = %+v", st.Blocks)
	}
	if h := f.editor.History(); h.UndoLabel != "Import" {
		t.Errorf("undo label = %q", h.UndoLabel)
	}
}

func TestImportWatcher_InvalidFileLeavesDocument(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(t.TempDir(), "doc.json")
	if err := os.WriteFile(path, []byte(`{"pages":[]}`), 0644); err != nil {
		t.Fatal(err)
	}
	w, _ := service.NewImportWatcher(f.editor, path, zerolog.Nop())
	if err := w.Reload(context.Background()); !errors.Is(err, domain.ErrInvalidDocument) {
		t.Errorf("err = %v", err)
	}
	if f.editor.History().CanUndo {
		t.Error("invalid import committed")
	}
}

func TestExportJSON(t *testing.T) {
	f := newFixture(t)
	f.addText(t, 10, 10)
	path := filepath.Join(t.TempDir(), "out.json")
	if err := f.editor.ExportJSON(path); err != nil {
		t.Fatal(err)
	}
	d, err := storage.ImportJSON(path)
	if err != nil {
		t.Fatal(err)
	}
	if p, _ := d.CurrentPage(); len(p.Blocks) != 1 {
		t.Errorf("blocks = %d", len(p.Blocks))
	}
}
