package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"canvas/internal/domain"
	"canvas/internal/gesture"
	"canvas/internal/history"
	"canvas/internal/selection"
	"canvas/internal/viewport"
)

// ─────────────────────────────────────────────────────────────
// Editor Service: single owner of the live document and its history
// ─────────────────────────────────────────────────────────────

// GestureTimeout is how long a gesture may go without pointer input before
// the next press treats its pointer-up as lost and completes it.
const GestureTimeout = 5 * time.Second

// DocumentSaver persists a whole document.
type DocumentSaver interface {
	Save(ctx context.Context, d domain.Document) error
}

// Clipboard moves copied blocks in and out of the system clipboard.
type Clipboard interface {
	Read() (domain.ClipboardPayload, error)
	Write(domain.ClipboardPayload) error
}

// ErrNoSaver is returned by Save when the service was built without storage.
var ErrNoSaver = errors.New("editor has no document store")

// PointerEvent is a pointer event in screen coordinates.
type PointerEvent struct {
	ClientX float64 `json:"clientX"`
	ClientY float64 `json:"clientY"`
	Button  int     `json:"button"`
	Shift   bool    `json:"shiftKey"`
}

// HistoryState is the payload of history:changed.
type HistoryState struct {
	CanUndo   bool   `json:"canUndo"`
	CanRedo   bool   `json:"canRedo"`
	UndoLabel string `json:"undoLabel"`
	RedoLabel string `json:"redoLabel"`
}

// Options configures an EditorService. Zero values pick defaults.
type Options struct {
	MaxHistory int
	Saver      DocumentSaver
	Clipboard  Clipboard
	Emitter    EventEmitter
	Logger     zerolog.Logger
	Now        func() time.Time
}

// EditorService serializes every input event into one transition of the
// current document. It records undo checkpoints when a gesture ends with a
// geometry change and after each discrete edit.
type EditorService struct {
	mu      sync.Mutex
	doc     domain.Document
	history *history.Manager

	// Document as it was when the active gesture began.
	gestureStart domain.Document
	lastPointer  time.Time

	revision uint64
	saved    uint64
	saveMu   sync.Mutex

	docChanged  bool
	histChanged bool

	saver   DocumentSaver
	clip    Clipboard
	emitter EventEmitter
	log     zerolog.Logger
	now     func() time.Time
}

// NewEditorService takes ownership of doc.
func NewEditorService(doc domain.Document, opts Options) *EditorService {
	if opts.Emitter == nil {
		opts.Emitter = nopEmitter{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &EditorService{
		doc:     domain.Normalize(doc),
		history: history.NewManager(opts.MaxHistory),
		saver:   opts.Saver,
		clip:    opts.Clipboard,
		emitter: opts.Emitter,
		log:     opts.Logger,
		now:     opts.Now,
	}
}

// update runs fn under the lock and emits whatever changed once the lock
// is released.
func (s *EditorService) update(ctx context.Context, fn func() error) error {
	s.mu.Lock()
	err := fn()
	var events []EmittedEvent
	if s.docChanged {
		if st, ok := domain.StateOf(s.doc); ok {
			events = append(events, EmittedEvent{Event: EventDocumentChanged, Data: st})
		}
	}
	if s.histChanged {
		events = append(events, EmittedEvent{Event: EventHistoryChanged, Data: s.historyState()})
	}
	s.docChanged, s.histChanged = false, false
	s.mu.Unlock()

	for _, e := range events {
		s.emitter.Emit(ctx, e.Event, e.Data)
	}
	return err
}

// set adopts next as the current document. An identical document is
// dropped, and only a change to persisted fields marks the document dirty.
func (s *EditorService) set(next domain.Document) {
	if history.Identical(s.doc, next) {
		return
	}
	if history.Differs(s.doc, next) {
		s.revision++
	}
	s.doc = next
	s.docChanged = true
}

// commit records before as an undo checkpoint and adopts after.
func (s *EditorService) commit(before, after domain.Document, label string) {
	s.set(s.history.Commit(before, after, label))
	s.histChanged = true
	s.log.Debug().Str("action", label).Int("undo", s.history.UndoLen()).Msg("checkpoint")
}

// commitIfChanged commits only when after differs from the current document.
func (s *EditorService) commitIfChanged(after domain.Document, label string) {
	if !history.Differs(s.doc, after) {
		s.set(after)
		return
	}
	s.commit(s.doc, after, label)
}

// settle completes any gesture still in progress so a discrete edit never
// interleaves with it.
func (s *EditorService) settle() {
	if gesture.Active(s.doc) {
		s.finishGesture(gesture.Blur(s.doc))
	}
}

func (s *EditorService) finishGesture(after domain.Document) {
	label := gestureLabel(s.doc)
	if s.gestureStart.Pages != nil && history.GeometryChanged(s.gestureStart, after, history.GeometryEpsilon) {
		s.commit(s.gestureStart, after, label)
	} else {
		s.set(after)
	}
	s.gestureStart = domain.Document{}
}

func gestureLabel(d domain.Document) string {
	p, _ := d.CurrentPage()
	switch p.Interaction().(type) {
	case domain.Dragging:
		return "Move"
	case domain.Resizing:
		return "Resize"
	}
	return "Select"
}

func (s *EditorService) canvasPointer(ev PointerEvent) gesture.Pointer {
	p, _ := s.doc.CurrentPage()
	c := viewport.ScreenToCanvas(p, ev.ClientX, ev.ClientY)
	return gesture.Pointer{X: c.X, Y: c.Y, Button: ev.Button, Shift: ev.Shift}
}

// ── pointer input ──────────────────────────────────────────

// PointerDown starts a gesture, changes selection, or both. A gesture left
// open by a lost pointer-up is completed first once GestureTimeout has passed.
func (s *EditorService) PointerDown(ctx context.Context, ev PointerEvent) {
	s.update(ctx, func() error {
		now := s.now()
		if gesture.Active(s.doc) && now.Sub(s.lastPointer) >= GestureTimeout {
			s.log.Warn().Dur("idle", now.Sub(s.lastPointer)).Msg("completing stale gesture")
			s.finishGesture(gesture.Blur(s.doc))
		}
		s.lastPointer = now

		wasIdle := !gesture.Active(s.doc)
		before := s.doc
		next := gesture.PointerDown(s.doc, s.canvasPointer(ev))
		if wasIdle && gesture.Active(next) {
			s.gestureStart = before
		}
		s.set(next)
		return nil
	})
}

// PointerMove feeds the active gesture or tracks hover.
func (s *EditorService) PointerMove(ctx context.Context, ev PointerEvent) {
	s.update(ctx, func() error {
		s.lastPointer = s.now()
		s.set(gesture.PointerMove(s.doc, s.canvasPointer(ev)))
		return nil
	})
}

// PointerUp ends the active gesture, recording an undo checkpoint when any
// block moved or resized by more than history.GeometryEpsilon.
func (s *EditorService) PointerUp(ctx context.Context, ev PointerEvent) {
	s.update(ctx, func() error {
		s.lastPointer = s.now()
		if !gesture.Active(s.doc) {
			return nil
		}
		s.finishGesture(gesture.PointerUp(s.doc, s.canvasPointer(ev)))
		return nil
	})
}

// Blur completes the active gesture as if the pointer had been released
// where it was last seen. The host calls it when the window loses focus.
func (s *EditorService) Blur(ctx context.Context) {
	s.update(ctx, func() error {
		s.settle()
		return nil
	})
}

// Wheel pans, or zooms around the cursor when ctrl is held.
func (s *EditorService) Wheel(ctx context.Context, ev viewport.WheelEvent) {
	s.update(ctx, func() error {
		s.set(viewport.HandleWheel(s.doc, ev))
		return nil
	})
}

// SetViewport replaces the current page's pan and zoom.
func (s *EditorService) SetViewport(ctx context.Context, offsetX, offsetY, zoom float64) {
	s.update(ctx, func() error {
		s.set(viewport.Set(s.doc, offsetX, offsetY, zoom))
		return nil
	})
}

// ResetViewport returns the current page to the origin at zoom 1.
func (s *EditorService) ResetViewport(ctx context.Context) {
	s.update(ctx, func() error {
		s.set(viewport.Reset(s.doc))
		return nil
	})
}

// ── blocks and links ───────────────────────────────────────

// AddBlock creates a block and returns its id.
func (s *EditorService) AddBlock(ctx context.Context, t domain.BlockType, cfg domain.Content, x, y, w, h float64) (int, error) {
	var id int
	err := s.update(ctx, func() error {
		s.settle()
		next, newID, err := domain.AddBlock(s.doc, t, cfg, x, y, w, h)
		if err != nil {
			return err
		}
		id = newID
		s.commit(s.doc, next, "Add "+string(t))
		return nil
	})
	if err != nil {
		s.log.Error().Err(err).Str("type", string(t)).Msg("add block rejected")
	}
	return id, err
}

// UpdateBlock applies a partial update to a block on the current page.
func (s *EditorService) UpdateBlock(ctx context.Context, id int, patch domain.BlockPatch) error {
	err := s.update(ctx, func() error {
		s.settle()
		next, err := domain.UpdateBlock(s.doc, id, patch)
		if err != nil {
			return err
		}
		s.commitIfChanged(next, "Edit block")
		return nil
	})
	if err != nil {
		s.log.Error().Err(err).Int("block", id).Msg("update block rejected")
	}
	return err
}

// MoveBlocks shifts blocks by (dx, dy) as one undoable step.
func (s *EditorService) MoveBlocks(ctx context.Context, ids []int, dx, dy float64) {
	s.update(ctx, func() error {
		s.settle()
		p, ok := s.doc.CurrentPage()
		if !ok {
			return nil
		}
		var gs []domain.BlockGeometry
		for _, id := range ids {
			if b, ok := p.Block(id); ok {
				g := b.Geometry()
				g.X += dx
				g.Y += dy
				gs = append(gs, g)
			}
		}
		s.applyGeometry(gs, "Move")
		return nil
	})
}

// ApplyGeometry moves and resizes several blocks as one undoable step.
// Unknown ids are skipped.
func (s *EditorService) ApplyGeometry(ctx context.Context, gs []domain.BlockGeometry, label string) {
	s.update(ctx, func() error {
		s.settle()
		s.applyGeometry(gs, label)
		return nil
	})
}

func (s *EditorService) applyGeometry(gs []domain.BlockGeometry, label string) {
	next := s.doc
	for _, g := range gs {
		next = domain.SetBlockGeometry(next, g)
	}
	if history.GeometryChanged(s.doc, next, history.GeometryEpsilon) {
		s.commit(s.doc, next, label)
	}
}

// DeleteBlock removes one block and its links.
func (s *EditorService) DeleteBlock(ctx context.Context, id int) {
	s.update(ctx, func() error {
		s.settle()
		s.commitIfChanged(domain.DeleteBlock(s.doc, id), "Delete")
		return nil
	})
}

// DeleteBlocks removes the listed blocks and their links as one undo step.
// The selection is left alone apart from the removed ids.
func (s *EditorService) DeleteBlocks(ctx context.Context, ids []int) {
	s.update(ctx, func() error {
		s.settle()
		s.commitIfChanged(domain.DeleteBlocks(s.doc, ids), "Delete")
		return nil
	})
}

// DeleteSelection removes every selected block and link.
func (s *EditorService) DeleteSelection(ctx context.Context) {
	s.update(ctx, func() error {
		s.settle()
		s.commitIfChanged(domain.DeleteSelectedItems(s.doc), "Delete")
		return nil
	})
}

// AddLink connects two blocks on the current page and returns the link id,
// or domain.NoID when the endpoints are invalid.
func (s *EditorService) AddLink(ctx context.Context, parentID, childID int) (int, error) {
	var id int
	err := s.update(ctx, func() error {
		s.settle()
		next, newID, err := domain.AddLink(s.doc, parentID, childID)
		if err != nil {
			return err
		}
		id = newID
		if newID != domain.NoID {
			s.commit(s.doc, next, "Link")
		}
		return nil
	})
	return id, err
}

// SendToFront raises a block above all others.
func (s *EditorService) SendToFront(ctx context.Context, id int) {
	s.update(ctx, func() error {
		s.settle()
		s.commitIfChanged(domain.SendToFront(s.doc, id), "Bring to front")
		return nil
	})
}

// SendToBack lowers a block below all others.
func (s *EditorService) SendToBack(ctx context.Context, id int) {
	s.update(ctx, func() error {
		s.settle()
		s.commitIfChanged(domain.SendToBack(s.doc, id), "Send to back")
		return nil
	})
}

// SetEditing marks the block whose content is being edited.
func (s *EditorService) SetEditing(ctx context.Context, id int) {
	s.update(ctx, func() error {
		s.set(domain.SetEditing(s.doc, id))
		return nil
	})
}

// ── selection ──────────────────────────────────────────────

func (s *EditorService) Select(ctx context.Context, ids ...int) {
	s.update(ctx, func() error {
		s.settle()
		s.set(selection.SelectOnly(s.doc, ids...))
		return nil
	})
}

func (s *EditorService) ToggleSelect(ctx context.Context, id int) {
	s.update(ctx, func() error {
		s.settle()
		s.set(selection.ToggleSelect(s.doc, id))
		return nil
	})
}

func (s *EditorService) ClearSelection(ctx context.Context) {
	s.update(ctx, func() error {
		s.settle()
		s.set(selection.ClearSelection(s.doc))
		return nil
	})
}

func (s *EditorService) SelectAll(ctx context.Context) {
	s.update(ctx, func() error {
		s.settle()
		s.set(selection.SelectAll(s.doc))
		return nil
	})
}

// ── clipboard ──────────────────────────────────────────────

// Copy puts the selection on the clipboard. It reports false when nothing
// was selected.
func (s *EditorService) Copy(ctx context.Context) (bool, error) {
	s.mu.Lock()
	payload := domain.Copy(s.doc)
	s.mu.Unlock()
	if payload.Empty() {
		return false, nil
	}
	if s.clip == nil {
		return false, fmt.Errorf("copy: no clipboard")
	}
	if err := s.clip.Write(payload); err != nil {
		return false, fmt.Errorf("copy: %w", err)
	}
	return true, nil
}

// Paste inserts the clipboard contents offset from their source position and
// returns the new block ids.
func (s *EditorService) Paste(ctx context.Context) ([]int, error) {
	if s.clip == nil {
		return nil, fmt.Errorf("paste: no clipboard")
	}
	payload, err := s.clip.Read()
	if err != nil {
		return nil, fmt.Errorf("paste: %w", err)
	}
	var ids []int
	err = s.update(ctx, func() error {
		s.settle()
		next, newIDs, err := domain.Paste(s.doc, payload, domain.DefaultPasteOffset, domain.DefaultPasteOffset)
		if err != nil {
			return fmt.Errorf("paste: %w", err)
		}
		ids = newIDs
		if len(newIDs) > 0 {
			s.commit(s.doc, next, "Paste")
		}
		return nil
	})
	return ids, err
}

// ── pages ──────────────────────────────────────────────────

// AddPage creates a page, makes it current and returns its id.
func (s *EditorService) AddPage(ctx context.Context, name string) string {
	var id string
	s.update(ctx, func() error {
		s.settle()
		next, pageID := domain.AddPage(s.doc, name)
		id = pageID
		s.commit(s.doc, next, "Add page")
		return nil
	})
	return id
}

// SwitchPage makes id current. Unknown ids are ignored.
func (s *EditorService) SwitchPage(ctx context.Context, id string) {
	s.update(ctx, func() error {
		s.settle()
		if next := domain.SwitchPage(s.doc, id); next.CurrentPageID != s.doc.CurrentPageID {
			s.set(next)
		}
		return nil
	})
}

func (s *EditorService) RenamePage(ctx context.Context, id, name string) {
	s.update(ctx, func() error {
		s.settle()
		s.commitIfChanged(domain.RenamePage(s.doc, id, name), "Rename page")
		return nil
	})
}

// RemovePage deletes a page unless it is the last one.
func (s *EditorService) RemovePage(ctx context.Context, id string) {
	s.update(ctx, func() error {
		s.settle()
		s.commitIfChanged(domain.RemovePage(s.doc, id), "Remove page")
		return nil
	})
}

// ── history ────────────────────────────────────────────────

// Undo restores the previous checkpoint. It reports false when there was
// nothing to undo.
func (s *EditorService) Undo(ctx context.Context) bool {
	var ok bool
	s.update(ctx, func() error {
		s.settle()
		var next domain.Document
		if next, ok = s.history.Undo(s.doc); ok {
			s.set(next)
			s.histChanged = true
		}
		return nil
	})
	return ok
}

// Redo re-applies the last undone checkpoint.
func (s *EditorService) Redo(ctx context.Context) bool {
	var ok bool
	s.update(ctx, func() error {
		s.settle()
		var next domain.Document
		if next, ok = s.history.Redo(s.doc); ok {
			s.set(next)
			s.histChanged = true
		}
		return nil
	})
	return ok
}

// ReplaceDocument swaps in a whole new document as one undoable step.
func (s *EditorService) ReplaceDocument(ctx context.Context, d domain.Document, label string) error {
	d = domain.Normalize(d)
	if err := domain.Validate(d); err != nil {
		return fmt.Errorf("replace document: %w", err)
	}
	return s.update(ctx, func() error {
		s.settle()
		s.commitIfChanged(d, label)
		return nil
	})
}

// ── reads ──────────────────────────────────────────────────

// Document returns the current document. The value is never modified later.
func (s *EditorService) Document() domain.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// State returns the read model of the current page.
func (s *EditorService) State() (domain.PageState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.StateOf(s.doc)
}

// History reports undo/redo availability.
func (s *EditorService) History() HistoryState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.historyState()
}

func (s *EditorService) historyState() HistoryState {
	return HistoryState{
		CanUndo:   s.history.CanUndo(),
		CanRedo:   s.history.CanRedo(),
		UndoLabel: s.history.UndoLabel(),
		RedoLabel: s.history.RedoLabel(),
	}
}

// ── persistence ────────────────────────────────────────────

// Dirty reports whether the document changed since the last save.
func (s *EditorService) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision != s.saved
}

// Save writes the current document. Storage I/O happens outside the
// document lock, so input keeps flowing during a slow save.
func (s *EditorService) Save(ctx context.Context) error {
	if s.saver == nil {
		return ErrNoSaver
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	doc, rev := s.doc, s.revision
	s.mu.Unlock()

	if err := s.saver.Save(ctx, doc); err != nil {
		s.log.Error().Err(err).Msg("save failed")
		return fmt.Errorf("save: %w", err)
	}

	s.mu.Lock()
	if rev > s.saved {
		s.saved = rev
	}
	s.mu.Unlock()
	s.emitter.Emit(ctx, EventDocumentSaved, rev)
	return nil
}

// SaveIfDirty saves only when there are unsaved changes.
func (s *EditorService) SaveIfDirty(ctx context.Context) (bool, error) {
	if !s.Dirty() {
		return false, nil
	}
	if err := s.Save(ctx); err != nil {
		return false, err
	}
	return true, nil
}
