package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"canvas/internal/clipboard"
	"canvas/internal/config"
	"canvas/internal/domain"
	"canvas/internal/logger"
	"canvas/internal/service"
	"canvas/internal/storage"
)

// App owns the process-wide pieces: storage, the editor, and the
// background jobs that save and reload the document.
type App struct {
	cfg config.Config
	log zerolog.Logger

	db     *storage.DB
	store  *storage.DocumentStore
	editor *service.EditorService

	autosave *service.Autosaver
	watcher  *service.ImportWatcher
}

// New creates a new App. Nothing is opened until Startup.
func New(cfg config.Config, log zerolog.Logger) *App {
	return &App{cfg: cfg, log: log}
}

// Startup opens the database, loads the saved document (or starts a fresh
// one) and starts autosave and, when configured, the import watcher.
func (a *App) Startup(ctx context.Context, emitter service.EventEmitter) error {
	dbPath := a.cfg.DBPath
	db, err := storage.New(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	a.db = db
	a.store = storage.NewDocumentStore(db, a.log)

	// An unreadable document aborts startup rather than being overwritten
	// by the first autosave of an empty one.
	doc, found, err := a.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load document from %s: %w", dbPath, err)
	}
	if !found {
		doc = domain.NewDocument()
	}

	a.editor = service.NewEditorService(doc, service.Options{
		MaxHistory: a.cfg.MaxHistory,
		Saver:      a.store,
		Clipboard:  clipboard.System{},
		Emitter:    emitter,
		Logger:     logger.Component(a.log, "editor"),
	})
	a.log.Info().
		Str("db", dbPath).
		Bool("restored", found).
		Int("pages", len(doc.Pages)).
		Msg("document ready")

	a.autosave, err = service.NewAutosaver(a.editor, a.cfg.Autosave, logger.Component(a.log, "autosave"))
	if err != nil {
		return err
	}
	if err := a.autosave.Start(ctx); err != nil {
		return err
	}

	if a.cfg.ImportFile != "" {
		a.watcher, err = service.NewImportWatcher(a.editor, a.cfg.ImportFile, logger.Component(a.log, "import"))
		if err != nil {
			return err
		}
		if err := a.watcher.Start(ctx); err != nil {
			a.log.Warn().Err(err).Str("file", a.cfg.ImportFile).Msg("import watcher not started")
			a.watcher = nil
		}
	}
	return nil
}

// Editor returns the live editor. Valid after a successful Startup.
func (a *App) Editor() *service.EditorService {
	return a.editor
}

// Shutdown stops the background jobs, flushes unsaved changes and closes
// the database.
func (a *App) Shutdown(ctx context.Context) {
	if a.watcher != nil {
		a.watcher.Stop(ctx)
	}
	if a.autosave != nil {
		if err := a.autosave.Stop(ctx); err != nil {
			a.log.Error().Err(err).Msg("final save failed")
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}
