package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	canvasApp "canvas/internal/app"
	"canvas/internal/config"
	"canvas/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// stdout carries the MCP protocol; logs go to stderr.
	l := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.Init(l)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := canvasApp.ServeMCP(ctx, *cfg, l); err != nil {
		l.Error().Err(err).Msg("canvas exited")
		os.Exit(1)
	}
}
