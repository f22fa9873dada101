package mcpserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"canvas/internal/clipboard"
	"canvas/internal/domain"
	"canvas/internal/service"
)

func (s *Server) registerEditTools() {
	// ── selection ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("select_blocks",
		mcp.WithDescription("Replace the selection on the current page with the given block or link IDs"),
		mcp.WithString("ids", mcp.Description("Comma-separated block or link IDs"), mcp.Required()),
	), s.handleSelectBlocks)

	s.mcp.AddTool(mcp.NewTool("select_all",
		mcp.WithDescription("Select every block and link on the current page"),
	), s.handleSelectAll)

	s.mcp.AddTool(mcp.NewTool("clear_selection",
		mcp.WithDescription("Deselect everything on the current page"),
	), s.handleClearSelection)

	s.mcp.AddTool(mcp.NewTool("delete_selection",
		mcp.WithDescription("🛑 DESTRUCTIVE: Delete the selected blocks and links, and every link touching a deleted block"),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteSelection)

	// ── z-order ────────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("send_to_front",
		mcp.WithDescription("Stack a block above every other block on the page"),
		mcp.WithNumber("blockId", mcp.Description("Block ID"), mcp.Required()),
	), s.handleSendToFront)

	s.mcp.AddTool(mcp.NewTool("send_to_back",
		mcp.WithDescription("Stack a block below every other block on the page"),
		mcp.WithNumber("blockId", mcp.Description("Block ID"), mcp.Required()),
	), s.handleSendToBack)

	// ── history ────────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Undo the last change (shared with the editor UI)"),
	), s.handleUndo)

	s.mcp.AddTool(mcp.NewTool("redo",
		mcp.WithDescription("Redo the last undone change"),
	), s.handleRedo)

	// ── clipboard ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("copy_selection",
		mcp.WithDescription("Copy the selected blocks and the links between them to the clipboard"),
	), s.handleCopy)

	s.mcp.AddTool(mcp.NewTool("paste",
		mcp.WithDescription("Paste clipboard contents onto the current page with fresh IDs"),
	), s.handlePaste)

	// ── viewport ───────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_viewport",
		mcp.WithDescription("Pan and zoom the current page. Omitted values are left unchanged; zoom is clamped to [0.1, 5]."),
		mcp.WithNumber("offsetX", mcp.Description("Screen-space X offset")),
		mcp.WithNumber("offsetY", mcp.Description("Screen-space Y offset")),
		mcp.WithNumber("zoom", mcp.Description("Zoom factor")),
	), s.handleSetViewport)

	// ── persistence ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("save_document",
		mcp.WithDescription("Write the document to storage now instead of waiting for autosave"),
	), s.handleSaveDocument)

	s.mcp.AddTool(mcp.NewTool("export_document",
		mcp.WithDescription("Export the whole document as JSON to a file"),
		mcp.WithString("path", mcp.Description("Destination file path"), mcp.Required()),
	), s.handleExportDocument)
}

func (s *Server) handleSelectBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := parseIDs(req.GetString("ids", ""))
	if err != nil {
		return nil, fmt.Errorf("ids: %w", err)
	}
	s.editor.Select(ctx, ids...)
	return s.selectionResult()
}

func (s *Server) handleSelectAll(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.editor.SelectAll(ctx)
	return s.selectionResult()
}

func (s *Server) handleClearSelection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.editor.ClearSelection(ctx)
	return textResult("Selection cleared"), nil
}

func (s *Server) selectionResult() (*mcp.CallToolResult, error) {
	st, ok := s.editor.State()
	if !ok {
		return nil, domain.ErrNoCurrentPage
	}
	return jsonResult(map[string]any{"selectedIds": st.SelectedIDs})
}

func (s *Server) handleDeleteSelection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, ok := s.editor.State()
	if !ok {
		return nil, domain.ErrNoCurrentPage
	}
	if len(st.SelectedIDs) == 0 {
		return textResult("Nothing selected"), nil
	}
	s.editor.DeleteSelection(ctx)
	return textResult(fmt.Sprintf("Deleted %d selected item(s)", len(st.SelectedIDs))), nil
}

func (s *Server) handleSendToFront(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := idArg(req.GetArguments(), "blockId")
	if err != nil {
		return nil, err
	}
	s.editor.SendToFront(ctx, id)
	return s.zIndexResult(id)
}

func (s *Server) handleSendToBack(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := idArg(req.GetArguments(), "blockId")
	if err != nil {
		return nil, err
	}
	s.editor.SendToBack(ctx, id)
	return s.zIndexResult(id)
}

func (s *Server) zIndexResult(id int) (*mcp.CallToolResult, error) {
	page, err := s.currentPage()
	if err != nil {
		return nil, err
	}
	b, ok := page.Block(id)
	if !ok {
		return nil, fmt.Errorf("block %d not found on the current page", id)
	}
	return textResult(fmt.Sprintf("Block %d now at zIndex %d", id, b.ZIndex)), nil
}

func (s *Server) handleUndo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	label := s.editor.History().UndoLabel
	if !s.editor.Undo(ctx) {
		return textResult("Nothing to undo"), nil
	}
	return textResult("Undid: " + label), nil
}

func (s *Server) handleRedo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	label := s.editor.History().RedoLabel
	if !s.editor.Redo(ctx) {
		return textResult("Nothing to redo"), nil
	}
	return textResult("Redid: " + label), nil
}

func (s *Server) handleCopy(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	copied, err := s.editor.Copy(ctx)
	if err != nil {
		return nil, err
	}
	if !copied {
		return textResult("Nothing selected"), nil
	}
	return textResult("Copied selection"), nil
}

func (s *Server) handlePaste(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := s.editor.Paste(ctx)
	if errors.Is(err, clipboard.ErrEmpty) {
		return textResult("Clipboard is empty"), nil
	}
	if err != nil {
		return nil, err
	}
	return jsonResult(map[string]any{"pastedIds": ids})
}

func (s *Server) handleSetViewport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	st, ok := s.editor.State()
	if !ok {
		return nil, domain.ErrNoCurrentPage
	}
	ox, oy, zoom := st.OffsetX, st.OffsetY, st.Zoom
	if v, ok := numberArg(args, "offsetX"); ok {
		ox = v
	}
	if v, ok := numberArg(args, "offsetY"); ok {
		oy = v
	}
	if v, ok := numberArg(args, "zoom"); ok {
		zoom = v
	}
	s.editor.SetViewport(ctx, ox, oy, zoom)

	st, _ = s.editor.State()
	return jsonResult(map[string]float64{"offsetX": st.OffsetX, "offsetY": st.OffsetY, "zoom": st.Zoom})
}

func (s *Server) handleSaveDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	saved, err := s.editor.SaveIfDirty(ctx)
	if errors.Is(err, service.ErrNoSaver) {
		return nil, fmt.Errorf("this editor was started without storage")
	}
	if err != nil {
		return nil, err
	}
	if !saved {
		return textResult("No unsaved changes"), nil
	}
	return textResult("Saved"), nil
}

func (s *Server) handleExportDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}
	if err := s.editor.ExportJSON(path); err != nil {
		return nil, err
	}
	return textResult("Exported document to " + path), nil
}
