package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const autosaveJob = "autosave"

// Autosaver periodically writes the document when it has unsaved changes.
type Autosaver struct {
	editor  *EditorService
	spec    string
	log     zerolog.Logger
	sched   *cron.Cron
	running runningJobsGuard
	cancel  context.CancelFunc
}

// NewAutosaver validates spec, a cron expression or descriptor such as
// "@every 30s".
func NewAutosaver(editor *EditorService, spec string, log zerolog.Logger) (*Autosaver, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("autosave schedule %q: %w", spec, err)
	}
	return &Autosaver{editor: editor, spec: spec, log: log}, nil
}

// Start schedules saves until Stop is called.
func (a *Autosaver) Start(ctx context.Context) error {
	ctx, a.cancel = context.WithCancel(ctx)
	c := cron.New()
	if _, err := c.AddFunc(a.spec, func() { a.Tick(ctx) }); err != nil {
		a.cancel()
		return fmt.Errorf("autosave schedule %q: %w", a.spec, err)
	}
	c.Start()
	a.sched = c
	a.log.Info().Str("schedule", a.spec).Msg("autosave started")
	return nil
}

// Tick saves once if the document is dirty. Overlapping ticks are skipped.
func (a *Autosaver) Tick(ctx context.Context) {
	if !a.running.TryLock(autosaveJob) {
		a.log.Debug().Msg("autosave still running, skipping tick")
		return
	}
	defer a.running.Unlock(autosaveJob)

	start := time.Now()
	saved, err := a.editor.SaveIfDirty(ctx)
	if err != nil {
		a.log.Error().Err(err).Msg("autosave failed")
		return
	}
	if saved {
		a.log.Debug().Dur("duration", time.Since(start)).Msg("autosaved")
	}
}

// Stop halts the schedule, waits for an in-flight save and writes any
// remaining changes.
func (a *Autosaver) Stop(ctx context.Context) error {
	if a.sched != nil {
		<-a.sched.Stop().Done()
		a.sched = nil
	}
	a.running.WaitAll(ctx)
	if a.cancel != nil {
		a.cancel()
	}
	if _, err := a.editor.SaveIfDirty(ctx); err != nil {
		return fmt.Errorf("final save: %w", err)
	}
	return nil
}
