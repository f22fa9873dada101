package service

import (
	"context"
	"sync"
)

// ─────────────────────────────────────────────────────────────
// EventEmitter: decouples the editor from whatever renders it
// ─────────────────────────────────────────────────────────────

// Events emitted by EditorService.
const (
	EventDocumentChanged = "document:changed"
	EventHistoryChanged  = "history:changed"
	EventDocumentSaved   = "document:saved"
)

// EventEmitter is an interface for emitting events to the frontend.
// Services receive this interface instead of a UI runtime handle,
// which makes them independently testable with a mock emitter.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// MockEmitter is a test-friendly EventEmitter that records all calls.
type MockEmitter struct {
	mu     sync.Mutex
	Events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}

// Count returns how many times event was emitted.
func (m *MockEmitter) Count(event string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.Events {
		if e.Event == event {
			n++
		}
	}
	return n
}

// Last returns the most recent payload for event.
func (m *MockEmitter) Last(event string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.Events) - 1; i >= 0; i-- {
		if m.Events[i].Event == event {
			return m.Events[i].Data, true
		}
	}
	return nil, false
}

// Reset drops recorded events.
func (m *MockEmitter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = nil
}

type nopEmitter struct{}

func (nopEmitter) Emit(context.Context, string, any) {}
