package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPageTools() {
	// ── list_pages ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_pages",
		mcp.WithDescription("List all pages in the document and mark the current one"),
	), s.handleListPages)

	// ── create_page ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_page",
		mcp.WithDescription("Create a new page and make it current"),
		mcp.WithString("name",
			mcp.Description("Name of the new page (optional)"),
		),
	), s.handleCreatePage)

	// ── switch_page ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("switch_page",
		mcp.WithDescription("Make a page current. Block, link and selection tools act on the current page."),
		mcp.WithString("pageId",
			mcp.Description("ID of the page to switch to"),
			mcp.Required(),
		),
	), s.handleSwitchPage)

	// ── rename_page ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("rename_page",
		mcp.WithDescription("Rename a page"),
		mcp.WithString("pageId", mcp.Description("Page ID"), mcp.Required()),
		mcp.WithString("name", mcp.Description("New name"), mcp.Required()),
	), s.handleRenamePage)

	// ── remove_page (destructive) ──────────────────────
	s.mcp.AddTool(mcp.NewTool("remove_page",
		mcp.WithDescription("🛑 DESTRUCTIVE: Remove a page and everything on it. The last page cannot be removed. Undoable."),
		mcp.WithString("pageId", mcp.Description("Page ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleRemovePage)
}

type pageSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Current bool   `json:"current"`
	Blocks  int    `json:"blocks"`
	Links   int    `json:"links"`
}

func (s *Server) pageSummaries() []pageSummary {
	d := s.editor.Document()
	out := make([]pageSummary, len(d.Pages))
	for i, p := range d.Pages {
		out[i] = pageSummary{
			ID:      p.ID,
			Name:    p.Name,
			Current: p.ID == d.CurrentPageID,
			Blocks:  len(p.Blocks),
			Links:   len(p.Links),
		}
	}
	return out
}

func (s *Server) handleListPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.pageSummaries())
}

func (s *Server) handleCreatePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := s.editor.AddPage(ctx, req.GetString("name", ""))
	p, _ := s.editor.Document().Page(id)
	return jsonResult(pageSummary{ID: p.ID, Name: p.Name, Current: true})
}

func (s *Server) handleSwitchPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID := req.GetString("pageId", "")
	if _, ok := s.editor.Document().Page(pageID); !ok {
		return nil, fmt.Errorf("page %q not found", pageID)
	}
	s.editor.SwitchPage(ctx, pageID)
	return textResult(fmt.Sprintf("Current page set to %s", pageID)), nil
}

func (s *Server) handleRenamePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID := req.GetString("pageId", "")
	name := req.GetString("name", "")
	if pageID == "" || name == "" {
		return nil, fmt.Errorf("pageId and name are required")
	}
	if _, ok := s.editor.Document().Page(pageID); !ok {
		return nil, fmt.Errorf("page %q not found", pageID)
	}
	s.editor.RenamePage(ctx, pageID, name)
	return textResult(fmt.Sprintf("Page %s renamed to %q", pageID, name)), nil
}

func (s *Server) handleRemovePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID := req.GetString("pageId", "")
	d := s.editor.Document()
	if _, ok := d.Page(pageID); !ok {
		return nil, fmt.Errorf("page %q not found", pageID)
	}
	if len(d.Pages) == 1 {
		return nil, fmt.Errorf("cannot remove the last page")
	}
	s.editor.RemovePage(ctx, pageID)
	return textResult(fmt.Sprintf("Removed page %s", pageID)), nil
}
