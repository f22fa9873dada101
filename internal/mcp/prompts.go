package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("research_board",
		mcp.WithPromptDescription("Lay out a research board of web pages and notes on a new canvas page"),
		mcp.WithArgument("topic",
			mcp.ArgumentDescription("Topic of the board"),
			mcp.RequiredArgument(),
		),
	), s.handleResearchBoardPrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("tidy_page",
		mcp.WithPromptDescription("Clean up the current page: arrange blocks and remove empty ones"),
	), s.handleTidyPagePrompt)
}

func (s *Server) handleResearchBoardPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	topic := req.Params.Arguments["topic"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Build a research board for: %s", topic),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Build a research board about "%s". Follow these steps:

1. Use create_page with the name "%s"
2. Create a text block (create_block type "text") with a short summary of the topic
3. For each useful source, create a webview block with {"url": "..."} as config
4. Link the summary to each source with link_blocks (summary as parent)
5. Finish with arrange_blocks so nothing overlaps

Every step is undoable, so the user can step back through the board with undo.`, topic, topic),
				},
			},
		},
	}, nil
}

func (s *Server) handleTidyPagePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Tidy the current canvas page",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: `Tidy the current page. Follow these steps:

1. Call list_blocks and look for text blocks with an empty preview and webviews still on about:blank
2. Delete those with delete_blocks (one call, comma-separated IDs)
3. Call arrange_blocks to lay the rest out on a grid
4. Report what was removed; the user can revert everything with undo`,
				},
			},
		},
	}, nil
}
