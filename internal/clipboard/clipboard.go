// Package clipboard carries copied blocks through the OS clipboard.
package clipboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/atotto/clipboard"

	"canvas/internal/domain"
)

// ErrEmpty is returned when the clipboard holds nothing pasteable.
var ErrEmpty = errors.New("clipboard is empty")

const envelopeKind = "canvas/blocks"

type envelope struct {
	Kind    string                  `json:"kind"`
	Payload domain.ClipboardPayload `json:"payload"`
}

// Indirection for tests; the real clipboard needs a display server.
var (
	readAll  = clipboard.ReadAll
	writeAll = clipboard.WriteAll
)

// System reads and writes the OS clipboard. Copied blocks are stored as a
// tagged JSON envelope; plain text copied from elsewhere pastes as a text
// block, or a webview when it is a single http(s) URL.
type System struct{}

func (System) Write(p domain.ClipboardPayload) error {
	data, err := Encode(p)
	if err != nil {
		return err
	}
	if err := writeAll(data); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
}

func (System) Read() (domain.ClipboardPayload, error) {
	text, err := readAll()
	if err != nil {
		return domain.ClipboardPayload{}, fmt.Errorf("read clipboard: %w", err)
	}
	return Decode(text)
}

// Encode serializes p into the clipboard envelope.
func Encode(p domain.ClipboardPayload) (string, error) {
	data, err := json.Marshal(envelope{Kind: envelopeKind, Payload: p})
	if err != nil {
		return "", fmt.Errorf("encode clipboard: %w", err)
	}
	return string(data), nil
}

// Decode parses clipboard text. Anything that is not an envelope becomes a
// single block built from the text.
func Decode(text string) (domain.ClipboardPayload, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return domain.ClipboardPayload{}, ErrEmpty
	}
	var env envelope
	if err := json.Unmarshal([]byte(trimmed), &env); err == nil && env.Kind == envelopeKind {
		return env.Payload, nil
	}
	return fromText(trimmed), nil
}

func fromText(text string) domain.ClipboardPayload {
	t := domain.BlockTypeText
	var content domain.Content = domain.Text{Value: text, FontSize: 16}
	if isURL(text) {
		t = domain.BlockTypeWebview
		content = domain.Webview{URL: text}
	}
	w, h := domain.DefaultSize(t)
	return domain.ClipboardPayload{Blocks: []domain.Block{{
		ID: 1, Width: w, Height: h, ZIndex: 1, Content: content,
	}}}
}

func isURL(s string) bool {
	if strings.ContainsAny(s, " \t\n") {
		return false
	}
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Memory is an in-process clipboard for headless hosts and tests.
type Memory struct {
	mu   sync.Mutex
	text string
}

func (m *Memory) Write(p domain.ClipboardPayload) error {
	data, err := Encode(p)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.text = data
	m.mu.Unlock()
	return nil
}

func (m *Memory) Read() (domain.ClipboardPayload, error) {
	m.mu.Lock()
	text := m.text
	m.mu.Unlock()
	return Decode(text)
}
