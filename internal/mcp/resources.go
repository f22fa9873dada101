package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"canvas/internal/domain"
)

const (
	documentURI   = "canvas://document"
	pageURIPrefix = "canvas://page/"
)

func (s *Server) registerResources() {
	// ── canvas://document ──────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		documentURI,
		"Canvas Document",
		mcp.WithMIMEType("application/json"),
	), s.handleDocumentResource)

	// ── canvas://page/{pageId} ─────────────────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			pageURIPrefix+"{pageId}",
			"Canvas Page",
		),
		s.handlePageResource,
	)
}

func (s *Server) handleDocumentResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(s.editor.Document(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      documentURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handlePageResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	pageID := strings.TrimPrefix(uri, pageURIPrefix)
	if pageID == uri || pageID == "" {
		return nil, fmt.Errorf("invalid page URI: %s", uri)
	}

	page, ok := s.editor.Document().Page(pageID)
	if !ok {
		return nil, fmt.Errorf("page %q not found", pageID)
	}
	data, err := json.MarshalIndent(pageView(page), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal page: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// pageView is a page with its blocks summarized in paint order.
func pageView(p domain.Page) map[string]any {
	d := domain.Document{Pages: []domain.Page{p}, CurrentPageID: p.ID}
	st, _ := domain.StateOf(d)
	blocks := make([]blockSummary, len(st.Blocks))
	for i, b := range st.Blocks {
		blocks[i] = summarizeBlock(b)
	}
	return map[string]any{
		"id":          p.ID,
		"name":        p.Name,
		"blocks":      blocks,
		"links":       st.Links,
		"selectedIds": st.SelectedIDs,
		"viewport": map[string]float64{
			"offsetX": p.OffsetX,
			"offsetY": p.OffsetY,
			"zoom":    p.Zoom,
		},
	}
}
