package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"canvas/internal/config"
	"canvas/internal/logger"
	mcpserver "canvas/internal/mcp"
)

// logEmitter stands in for a frontend in MCP-only mode and records editor
// events at debug level.
type logEmitter struct {
	log zerolog.Logger
}

func (e logEmitter) Emit(_ context.Context, event string, _ any) {
	e.log.Debug().Str("event", event).Msg("emit")
}

// ServeMCP runs the editor headless as an MCP server on stdin/stdout until
// ctx is cancelled or the client disconnects.
func ServeMCP(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	a := New(cfg, log)
	if err := a.Startup(ctx, logEmitter{log: log}); err != nil {
		a.Shutdown(context.Background())
		return err
	}
	defer a.Shutdown(context.Background())

	srv := mcpserver.New(a.Editor(), logger.Component(log, "mcp"))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ServeStdio() }()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		return nil
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("mcp server: %w", err)
		}
		return nil
	}
}
