package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"canvas/internal/storage"
)

const (
	importJob      = "import"
	importDebounce = 500 * time.Millisecond
)

// ImportWatcher reloads a JSON document file whenever something else writes
// it. Each reload replaces the live document as one undoable step.
type ImportWatcher struct {
	editor  *EditorService
	path    string
	log     zerolog.Logger
	running runningJobsGuard

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	timer   *time.Timer
	done    chan struct{}
}

func NewImportWatcher(editor *EditorService, path string, log zerolog.Logger) (*ImportWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("import watcher: bad path %q: %w", path, err)
	}
	return &ImportWatcher{editor: editor, path: abs, log: log}, nil
}

// Start watches the file's directory; editors often replace a file by
// renaming over it, which a watch on the file itself would miss.
func (w *ImportWatcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("import watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("import watcher: watch %q: %w", filepath.Dir(w.path), err)
	}

	ctx, cancel := context.WithCancel(ctx)
	w.watcher, w.cancel, w.done = watcher, cancel, make(chan struct{})
	go w.loop(ctx)
	w.log.Info().Str("path", w.path).Msg("watching import file")
	return nil
}

func (w *ImportWatcher) loop(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if abs, _ := filepath.Abs(event.Name); abs != w.path {
				continue
			}
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.timer = time.AfterFunc(importDebounce, func() {
				if err := w.Reload(ctx); err != nil {
					w.log.Error().Err(err).Str("path", w.path).Msg("import failed")
				}
			})
			w.mu.Unlock()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("import watcher error")
		}
	}
}

// Reload reads the file and hands it to the editor.
func (w *ImportWatcher) Reload(ctx context.Context) error {
	if !w.running.TryLock(importJob) {
		return nil
	}
	defer w.running.Unlock(importJob)

	d, err := storage.ImportJSON(w.path)
	if err != nil {
		return err
	}
	if err := w.editor.ReplaceDocument(ctx, d, "Import"); err != nil {
		return err
	}
	w.log.Info().Str("path", w.path).Int("pages", len(d.Pages)).Msg("document imported")
	return nil
}

// Stop tears down the watcher and waits for a reload in flight.
func (w *ImportWatcher) Stop(ctx context.Context) {
	if w.cancel != nil {
		w.cancel()
	}
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	if w.watcher != nil {
		w.watcher.Close()
		<-w.done
	}
	w.running.WaitAll(ctx)
}

// ExportJSON writes the current document to path in the format
// ImportWatcher reads.
func (s *EditorService) ExportJSON(path string) error {
	return storage.ExportJSON(path, s.Document())
}
