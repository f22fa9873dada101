package mcpserver

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/mcp"

	"canvas/internal/clipboard"
	"canvas/internal/domain"
	"canvas/internal/logger"
	"canvas/internal/service"
	"canvas/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	editor := service.NewEditorService(domain.NewDocument(), service.Options{
		Clipboard: &clipboard.Memory{},
		Logger:    logger.Nop(),
	})
	return New(editor, logger.Nop())
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", res.Content[0])
	}
	return tc.Text
}

func createBlock(t *testing.T, s *Server, args map[string]any) blockSummary {
	t.Helper()
	res, err := s.handleCreateBlock(context.Background(), call(args))
	if err != nil {
		t.Fatalf("create_block: %v", err)
	}
	var b blockSummary
	if err := json.Unmarshal([]byte(resultText(t, res)), &b); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	return b
}

func TestCreateBlock_AutoLayout(t *testing.T) {
	s := newTestServer(t)

	first := createBlock(t, s, map[string]any{"type": "text", "config": `{"value":"hello"}`})
	if first.X != 0 || first.Y != 0 {
		t.Errorf("first block at (%v, %v), want origin", first.X, first.Y)
	}
	if first.Width != 200 || first.Height != 100 || first.Preview != "hello" {
		t.Errorf("unexpected summary: %+v", first)
	}

	second := createBlock(t, s, map[string]any{"type": "text"})
	r1 := domain.Block{X: first.X, Y: first.Y, Width: first.Width, Height: first.Height}.Rect()
	r2 := domain.Block{X: second.X, Y: second.Y, Width: second.Width, Height: second.Height}.Rect()
	if r1.Intersects(r2) {
		t.Errorf("auto-placed block %+v overlaps %+v", r2, r1)
	}
	if second.ID != first.ID+1 {
		t.Errorf("second id = %d, want %d", second.ID, first.ID+1)
	}
}

func TestCreateBlock_Errors(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	if _, err := s.handleCreateBlock(ctx, call(map[string]any{"type": "video"})); err == nil {
		t.Error("unknown type should fail")
	}
	if _, err := s.handleCreateBlock(ctx, call(map[string]any{"type": "text", "config": "{"})); err == nil {
		t.Error("malformed config should fail")
	}
	if st, _ := s.editor.State(); len(st.Blocks) != 0 {
		t.Errorf("failed creates left %d blocks", len(st.Blocks))
	}
}

func TestUpdateBlock_MergesConfig(t *testing.T) {
	s := newTestServer(t)
	b := createBlock(t, s, map[string]any{"type": "webview", "x": 10.0, "y": 10.0, "config": `{"url":"https://go.dev","title":"Go"}`})

	res, err := s.handleUpdateBlock(context.Background(), call(map[string]any{
		"blockId": float64(b.ID),
		"width":   20.0,
		"config":  `{"title":"The Go Programming Language"}`,
	}))
	if err != nil {
		t.Fatalf("update_block: %v", err)
	}
	if !strings.Contains(resultText(t, res), "https://go.dev") {
		t.Error("url should survive a partial config update")
	}

	page, _ := s.editor.Document().CurrentPage()
	got, _ := page.Block(b.ID)
	if got.Width != domain.MinBlockSize {
		t.Errorf("width = %v, want clamp to %v", got.Width, domain.MinBlockSize)
	}
	if w := got.Content.(domain.Webview); w.Title != "The Go Programming Language" {
		t.Errorf("title = %q", w.Title)
	}

	if _, err := s.handleUpdateBlock(context.Background(), call(map[string]any{"blockId": 99.0})); err == nil {
		t.Error("missing block should fail")
	}
}

func TestDeleteBlocks_SingleUndoStep(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	a := createBlock(t, s, map[string]any{"type": "text"})
	b := createBlock(t, s, map[string]any{"type": "text"})
	if _, err := s.handleLinkBlocks(ctx, call(map[string]any{"parentId": float64(a.ID), "childId": float64(b.ID)})); err != nil {
		t.Fatalf("link_blocks: %v", err)
	}

	ids := strings.Join([]string{strconv.Itoa(a.ID), strconv.Itoa(b.ID), "42"}, ",")
	if _, err := s.handleDeleteBlocks(ctx, call(map[string]any{"blockIds": ids})); err != nil {
		t.Fatalf("delete_blocks: %v", err)
	}
	st, _ := s.editor.State()
	if len(st.Blocks) != 0 || len(st.Links) != 0 {
		t.Fatalf("after delete: %d blocks, %d links", len(st.Blocks), len(st.Links))
	}

	res, _ := s.handleUndo(ctx, call(nil))
	if got := resultText(t, res); got != "Undid: Delete" {
		t.Errorf("undo result = %q", got)
	}
	st, _ = s.editor.State()
	if len(st.Blocks) != 2 || len(st.Links) != 1 {
		t.Errorf("after undo: %d blocks, %d links", len(st.Blocks), len(st.Links))
	}
}

func TestLinkBlocks_RejectsSelfLink(t *testing.T) {
	s := newTestServer(t)
	a := createBlock(t, s, map[string]any{"type": "text"})
	_, err := s.handleLinkBlocks(context.Background(), call(map[string]any{"parentId": float64(a.ID), "childId": float64(a.ID)}))
	if err == nil {
		t.Error("self link should be reported")
	}
}

func TestArrangeBlocks_RemovesOverlap(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	for range 3 {
		createBlock(t, s, map[string]any{"type": "image", "x": 0.0, "y": 0.0})
	}
	if _, err := s.handleArrangeBlocks(ctx, call(nil)); err != nil {
		t.Fatalf("arrange_blocks: %v", err)
	}
	st, _ := s.editor.State()
	for i := range st.Blocks {
		for j := i + 1; j < len(st.Blocks); j++ {
			if st.Blocks[i].Rect().Intersects(st.Blocks[j].Rect()) {
				t.Errorf("blocks %d and %d overlap after arrange", st.Blocks[i].ID, st.Blocks[j].ID)
			}
		}
	}
	if h := s.editor.History(); h.UndoLabel != "Arrange" {
		t.Errorf("undo label = %q, want Arrange", h.UndoLabel)
	}
}

func TestCopyPaste_ThroughClipboard(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handlePaste(ctx, call(nil))
	if err != nil || resultText(t, res) != "Clipboard is empty" {
		t.Fatalf("paste on empty clipboard: %v", err)
	}

	a := createBlock(t, s, map[string]any{"type": "text", "config": `{"value":"copy me"}`})
	if _, err := s.handleSelectBlocks(ctx, call(map[string]any{"ids": strconv.Itoa(a.ID)})); err != nil {
		t.Fatalf("select_blocks: %v", err)
	}
	if _, err := s.handleCopy(ctx, call(nil)); err != nil {
		t.Fatalf("copy_selection: %v", err)
	}
	if _, err := s.handlePaste(ctx, call(nil)); err != nil {
		t.Fatalf("paste: %v", err)
	}

	st, _ := s.editor.State()
	if len(st.Blocks) != 2 {
		t.Fatalf("blocks = %d, want 2", len(st.Blocks))
	}
	pasted := st.Blocks[1]
	if pasted.ID == a.ID || pasted.X != a.X+domain.DefaultPasteOffset {
		t.Errorf("pasted block %+v", pasted)
	}
}

func TestSetViewport_ClampsZoom(t *testing.T) {
	s := newTestServer(t)
	if _, err := s.handleSetViewport(context.Background(), call(map[string]any{"zoom": 50.0, "offsetX": 12.0})); err != nil {
		t.Fatalf("set_viewport: %v", err)
	}
	st, _ := s.editor.State()
	if st.Zoom != domain.MaxZoom || st.OffsetX != 12 || st.OffsetY != 0 {
		t.Errorf("viewport = (%v, %v, %v)", st.OffsetX, st.OffsetY, st.Zoom)
	}
}

func TestPages_CreateSwitchRemove(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	first := s.editor.Document().CurrentPageID

	if _, err := s.handleCreatePage(ctx, call(map[string]any{"name": "Research"})); err != nil {
		t.Fatalf("create_page: %v", err)
	}
	if got := s.pageSummaries(); len(got) != 2 || !got[1].Current || got[1].Name != "Research" {
		t.Fatalf("pages = %+v", got)
	}
	if _, err := s.handleSwitchPage(ctx, call(map[string]any{"pageId": first})); err != nil {
		t.Fatalf("switch_page: %v", err)
	}
	if s.editor.Document().CurrentPageID != first {
		t.Error("switch_page did not change the current page")
	}
	if _, err := s.handleSwitchPage(ctx, call(map[string]any{"pageId": "nope"})); err == nil {
		t.Error("unknown page should fail")
	}
}

func TestExportAndSave(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	createBlock(t, s, map[string]any{"type": "image", "config": `{"src":"cat.png"}`})

	path := filepath.Join(t.TempDir(), "doc.json")
	if _, err := s.handleExportDocument(ctx, call(map[string]any{"path": path})); err != nil {
		t.Fatalf("export_document: %v", err)
	}
	d, err := storage.ImportJSON(path)
	if err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}
	if p, _ := d.CurrentPage(); len(p.Blocks) != 1 {
		t.Errorf("exported %d blocks, want 1", len(p.Blocks))
	}

	if _, err := s.handleSaveDocument(ctx, call(nil)); err == nil {
		t.Error("save without storage should fail")
	}
}

func TestPageResource(t *testing.T) {
	s := newTestServer(t)
	createBlock(t, s, map[string]any{"type": "text", "config": `{"value":"note"}`})
	pageID := s.editor.Document().CurrentPageID

	var req mcp.ReadResourceRequest
	req.Params.URI = pageURIPrefix + pageID
	contents, err := s.handlePageResource(context.Background(), req)
	if err != nil {
		t.Fatalf("read page resource: %v", err)
	}
	text := contents[0].(mcp.TextResourceContents).Text
	if !strings.Contains(text, `"preview": "note"`) {
		t.Errorf("page resource missing block preview:\n%s", text)
	}

	req.Params.URI = pageURIPrefix + "missing"
	if _, err := s.handlePageResource(context.Background(), req); err == nil {
		t.Error("unknown page should fail")
	}
}

func TestSummarizeBlock_TruncatesOnRuneBoundary(t *testing.T) {
	b := domain.Block{ID: 1, Width: 100, Height: 100, Content: domain.Text{Value: strings.Repeat("é", 250)}}
	got := summarizeBlock(b).Preview
	if !utf8.ValidString(got) {
		t.Fatalf("preview is not valid UTF-8: %q", got)
	}
	if n := utf8.RuneCountInString(strings.TrimSuffix(got, "...")); n != previewLen {
		t.Errorf("preview has %d runes, want %d", n, previewLen)
	}
	if short := summarizeBlock(domain.Block{Content: domain.Text{Value: "héllo"}}).Preview; short != "héllo" {
		t.Errorf("short preview = %q", short)
	}
}

func TestSelectAll_IncludesLinks(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	a := createBlock(t, s, map[string]any{"type": "text"})
	b := createBlock(t, s, map[string]any{"type": "text"})
	if _, err := s.handleLinkBlocks(ctx, call(map[string]any{"parentId": float64(a.ID), "childId": float64(b.ID)})); err != nil {
		t.Fatalf("link_blocks: %v", err)
	}

	res, err := s.handleSelectAll(ctx, call(nil))
	if err != nil {
		t.Fatalf("select_all: %v", err)
	}
	var out struct {
		SelectedIDs []int `json:"selectedIds"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.SelectedIDs) != 3 {
		t.Errorf("selected = %v, want both blocks and the link", out.SelectedIDs)
	}
}

func TestDeleteBlocks_KeepsUnrelatedSelection(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	a := createBlock(t, s, map[string]any{"type": "text"})
	b := createBlock(t, s, map[string]any{"type": "text"})
	s.editor.Select(ctx, b.ID)

	if _, err := s.handleDeleteBlocks(ctx, call(map[string]any{"blockIds": strconv.Itoa(a.ID)})); err != nil {
		t.Fatalf("delete_blocks: %v", err)
	}
	s.editor.Undo(ctx)
	st, _ := s.editor.State()
	if len(st.Blocks) != 2 || len(st.SelectedIDs) != 1 || st.SelectedIDs[0] != b.ID {
		t.Errorf("after undo: %d blocks, selection %v", len(st.Blocks), st.SelectedIDs)
	}
}
