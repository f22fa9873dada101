package mcpserver

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/mcp"

	"canvas/internal/domain"
)

func (s *Server) registerBlockTools() {
	// ── create_block ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_block",
		mcp.WithDescription("Create a new block on the current page. Position is auto-calculated if not provided."),
		mcp.WithString("type",
			mcp.Description("Block type: webview, text, image"),
			mcp.Required(),
		),
		mcp.WithNumber("x", mcp.Description("X position (optional, auto-layout if omitted)")),
		mcp.WithNumber("y", mcp.Description("Y position (optional, auto-layout if omitted)")),
		mcp.WithNumber("width", mcp.Description("Width (optional, uses the type's default)")),
		mcp.WithNumber("height", mcp.Description("Height (optional, uses the type's default)")),
		mcp.WithString("config", mcp.Description(`Block config as JSON, e.g. {"url":"https://go.dev"} for webview, {"value":"hi","fontSize":18} for text, {"src":"cat.png","alt":"cat"} for image`)),
	), s.handleCreateBlock)

	// ── update_block ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_block",
		mcp.WithDescription("Move, resize or reconfigure a block. Omitted fields are left unchanged; config fields are merged."),
		mcp.WithNumber("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithNumber("x", mcp.Description("New X position")),
		mcp.WithNumber("y", mcp.Description("New Y position")),
		mcp.WithNumber("width", mcp.Description("New width")),
		mcp.WithNumber("height", mcp.Description("New height")),
		mcp.WithString("config", mcp.Description("Partial config as JSON")),
	), s.handleUpdateBlock)

	// ── list_blocks ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_blocks",
		mcp.WithDescription("List blocks on the current page in paint order, optionally filtered by type"),
		mcp.WithString("type", mcp.Description("Filter by block type (optional)")),
	), s.handleListBlocks)

	// ── delete_blocks (destructive) ────────────────────
	s.mcp.AddTool(mcp.NewTool("delete_blocks",
		mcp.WithDescription("🛑 DESTRUCTIVE: Delete blocks and every link touching them, as one undoable step."),
		mcp.WithString("blockIds",
			mcp.Description("Comma-separated block IDs to delete"),
			mcp.Required(),
		),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteBlocks)

	// ── move_blocks ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("move_blocks",
		mcp.WithDescription("Move multiple blocks by a relative offset (dx, dy)"),
		mcp.WithString("blockIds",
			mcp.Description("Comma-separated block IDs"),
			mcp.Required(),
		),
		mcp.WithNumber("dx", mcp.Description("Horizontal offset"), mcp.Required()),
		mcp.WithNumber("dy", mcp.Description("Vertical offset"), mcp.Required()),
	), s.handleMoveBlocks)

	// ── arrange_blocks ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("arrange_blocks",
		mcp.WithDescription("Auto-arrange all blocks on the current page using a grid layout"),
		mcp.WithNumber("startX", mcp.Description("Starting X position (default 0)")),
		mcp.WithNumber("startY", mcp.Description("Starting Y position (default 0)")),
	), s.handleArrangeBlocks)

	// ── link_blocks ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("link_blocks",
		mcp.WithDescription("Create a directed link from a parent block to a child block"),
		mcp.WithNumber("parentId", mcp.Description("Parent block ID"), mcp.Required()),
		mcp.WithNumber("childId", mcp.Description("Child block ID"), mcp.Required()),
	), s.handleLinkBlocks)
}

func boolPtr(v bool) *bool { return &v }

// ── Handlers ───────────────────────────────────────────────

func (s *Server) currentPage() (domain.Page, error) {
	p, ok := s.editor.Document().CurrentPage()
	if !ok {
		return domain.Page{}, domain.ErrNoCurrentPage
	}
	return p, nil
}

func (s *Server) handleCreateBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	blockType := domain.BlockType(req.GetString("type", ""))
	if blockType == "" {
		return nil, fmt.Errorf("type is required")
	}

	var cfg domain.Content
	if raw := req.GetString("config", ""); raw != "" {
		c, err := domain.DecodeContent(blockType, []byte(raw))
		if err != nil {
			return nil, err
		}
		cfg = c
	}

	dw, dh := domain.DefaultSize(blockType)
	w, ok := numberArg(args, "width")
	if !ok {
		w = dw
	}
	h, ok := numberArg(args, "height")
	if !ok {
		h = dh
	}

	// Auto-layout if position not provided
	x, hasX := numberArg(args, "x")
	y, hasY := numberArg(args, "y")
	if !hasX || !hasY {
		page, err := s.currentPage()
		if err != nil {
			return nil, err
		}
		x, y = s.layout.NextPosition(page.Blocks, max(w, domain.MinBlockSize), max(h, domain.MinBlockSize))
	}

	id, err := s.editor.AddBlock(ctx, blockType, cfg, x, y, w, h)
	if err != nil {
		return nil, fmt.Errorf("create block: %w", err)
	}
	page, _ := s.currentPage()
	b, _ := page.Block(id)
	return jsonResult(summarizeBlock(b))
}

func (s *Server) handleUpdateBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, err := idArg(args, "blockId")
	if err != nil {
		return nil, err
	}
	page, err := s.currentPage()
	if err != nil {
		return nil, err
	}
	b, ok := page.Block(id)
	if !ok {
		return nil, fmt.Errorf("block %d not found on the current page", id)
	}

	var patch domain.BlockPatch
	if v, ok := numberArg(args, "x"); ok {
		patch.X = &v
	}
	if v, ok := numberArg(args, "y"); ok {
		patch.Y = &v
	}
	if v, ok := numberArg(args, "width"); ok {
		patch.Width = &v
	}
	if v, ok := numberArg(args, "height"); ok {
		patch.Height = &v
	}
	if raw := req.GetString("config", ""); raw != "" {
		c, err := patchContent(b.Content, raw)
		if err != nil {
			return nil, err
		}
		patch.Content = c
	}

	if err := s.editor.UpdateBlock(ctx, id, patch); err != nil {
		return nil, fmt.Errorf("update block: %w", err)
	}
	page, _ = s.currentPage()
	b, _ = page.Block(id)
	return jsonResult(summarizeBlock(b))
}

func (s *Server) handleListBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, ok := s.editor.State()
	if !ok {
		return nil, domain.ErrNoCurrentPage
	}
	filter := domain.BlockType(req.GetString("type", ""))

	summaries := []blockSummary{}
	for _, b := range st.Blocks {
		if filter == "" || b.Type() == filter {
			summaries = append(summaries, summarizeBlock(b))
		}
	}
	return jsonResult(summaries)
}

func (s *Server) handleDeleteBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := parseIDs(req.GetString("blockIds", ""))
	if err != nil {
		return nil, fmt.Errorf("blockIds: %w", err)
	}
	page, err := s.currentPage()
	if err != nil {
		return nil, err
	}
	var existing []int
	for _, id := range ids {
		if _, ok := page.Block(id); ok {
			existing = append(existing, id)
		}
	}
	if len(existing) == 0 {
		return nil, fmt.Errorf("none of the blocks exist on the current page")
	}

	s.editor.DeleteBlocks(ctx, existing)
	return textResult(fmt.Sprintf("Deleted %d block(s)", len(existing))), nil
}

func (s *Server) handleMoveBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	ids, err := parseIDs(req.GetString("blockIds", ""))
	if err != nil {
		return nil, fmt.Errorf("blockIds: %w", err)
	}
	dx, _ := numberArg(args, "dx")
	dy, _ := numberArg(args, "dy")

	s.editor.MoveBlocks(ctx, ids, dx, dy)
	return textResult(fmt.Sprintf("Moved %d blocks by (%.0f, %.0f)", len(ids), dx, dy)), nil
}

func (s *Server) handleArrangeBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	startX, _ := numberArg(args, "startX")
	startY, _ := numberArg(args, "startY")

	st, ok := s.editor.State()
	if !ok {
		return nil, domain.ErrNoCurrentPage
	}
	gs := make([]domain.BlockGeometry, len(st.Blocks))
	for i, b := range st.Blocks {
		gs[i] = b.Geometry()
	}
	s.editor.ApplyGeometry(ctx, s.layout.ArrangeGroup(gs, startX, startY), "Arrange")
	return textResult(fmt.Sprintf("Arranged %d blocks", len(gs))), nil
}

func (s *Server) handleLinkBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	parent, err := idArg(args, "parentId")
	if err != nil {
		return nil, err
	}
	child, err := idArg(args, "childId")
	if err != nil {
		return nil, err
	}
	id, err := s.editor.AddLink(ctx, parent, child)
	if err != nil {
		return nil, fmt.Errorf("link blocks: %w", err)
	}
	if id == domain.NoID {
		return nil, fmt.Errorf("cannot link %d to %d: both blocks must exist on the current page and differ", parent, child)
	}
	return jsonResult(domain.Link{ID: id, ParentBlockID: parent, ChildBlockID: child})
}

// ── Summaries ──────────────────────────────────────────────

type blockSummary struct {
	ID      int     `json:"id"`
	Type    string  `json:"type"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	ZIndex  int     `json:"zIndex"`
	Preview string  `json:"preview"` // first 200 chars of the block's main field
}

const previewLen = 200

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

func summarizeBlock(b domain.Block) blockSummary {
	preview := ""
	if b.Content != nil {
		preview = domain.MatchContent(b.Content,
			func(w domain.Webview) string { return strings.TrimSpace(w.Title + " " + w.URL) },
			func(t domain.Text) string { return t.Value },
			func(im domain.Image) string { return im.Src },
		)
	}
	preview = truncate(preview, previewLen)
	return blockSummary{
		ID:      b.ID,
		Type:    string(b.Type()),
		X:       b.X,
		Y:       b.Y,
		Width:   b.Width,
		Height:  b.Height,
		ZIndex:  b.ZIndex,
		Preview: preview,
	}
}
