package mcpserver

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"canvas/internal/service"
)

// Server is the MCP server for the canvas editor.
// It exposes tools, resources, and prompts so AI agents can edit the document
// through the same service the pointer-driven UI uses, sharing its undo history.
type Server struct {
	mcp    *server.MCPServer
	editor *service.EditorService
	layout *LayoutEngine
	log    zerolog.Logger
}

// New creates and configures a new MCP server with all tools and resources.
func New(editor *service.EditorService, log zerolog.Logger) *Server {
	s := &Server{
		editor: editor,
		layout: NewLayoutEngine(),
		log:    log,
	}

	s.mcp = server.NewMCPServer(
		"canvas-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerPageTools()
	s.registerBlockTools()
	s.registerEditTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	s.log.Info().Msg("starting MCP stdio server")
	return server.ServeStdio(s.mcp)
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}
