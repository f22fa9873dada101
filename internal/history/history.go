// Package history keeps bounded undo/redo stacks of whole-document snapshots.
package history

import (
	"math"
	"reflect"

	"canvas/internal/domain"
)

// DefaultMaxSize bounds the undo stack when no size is configured.
const DefaultMaxSize = 100

// GeometryEpsilon is the smallest position or size change, in canvas units,
// that makes a gesture worth recording.
const GeometryEpsilon = 0.1

// Memento is an immutable snapshot of the persisted parts of a document.
// Transient interaction state is stripped, so restoring a memento always
// lands in Idle.
type Memento struct {
	Label string
	doc   domain.Document
}

// Snapshot captures d.
func Snapshot(d domain.Document, label string) Memento {
	return Memento{Label: label, doc: strip(d)}
}

// Document returns a private copy of the snapshot.
func (m Memento) Document() domain.Document {
	return m.doc.Clone()
}

func strip(d domain.Document) domain.Document {
	out := d.Clone()
	for i := range out.Pages {
		p := &out.Pages[i]
		p.Mode = domain.Idle{}
		p.PendingSelectedIDs = nil
		p.HoveringID = domain.NoID
		p.EditingID = domain.NoID
		if p.Blocks == nil {
			p.Blocks = []domain.Block{}
		}
		if p.Links == nil {
			p.Links = []domain.Link{}
		}
		if p.SelectedIDs == nil {
			p.SelectedIDs = []int{}
		}
	}
	return out
}

// Manager holds the undo and redo stacks. It is not safe for concurrent use;
// the owner serializes access.
type Manager struct {
	undo    []Memento
	redo    []Memento
	maxSize int
}

// NewManager returns a Manager that keeps at most maxSize undo entries.
func NewManager(maxSize int) *Manager {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Manager{maxSize: maxSize}
}

// Commit records before as the state to return to on undo, drops the oldest
// entry if the stack is full, invalidates redo, and returns after for the
// caller to adopt as its current document.
func (m *Manager) Commit(before, after domain.Document, label string) domain.Document {
	m.undo = append(m.undo, Snapshot(before, label))
	if over := len(m.undo) - m.maxSize; over > 0 {
		m.undo = append([]Memento(nil), m.undo[over:]...)
	}
	m.redo = nil
	return after
}

// Undo restores the most recent snapshot and pushes current onto the redo
// stack. ok is false when there is nothing to undo.
func (m *Manager) Undo(current domain.Document) (domain.Document, bool) {
	if len(m.undo) == 0 {
		return current, false
	}
	top := m.undo[len(m.undo)-1]
	m.undo = m.undo[:len(m.undo)-1]
	m.redo = append(m.redo, Snapshot(current, top.Label))
	return top.Document(), true
}

// Redo re-applies the most recently undone snapshot, pushing current back
// onto the undo stack. ok is false when there is nothing to redo.
func (m *Manager) Redo(current domain.Document) (domain.Document, bool) {
	if len(m.redo) == 0 {
		return current, false
	}
	top := m.redo[len(m.redo)-1]
	m.redo = m.redo[:len(m.redo)-1]
	m.undo = append(m.undo, Snapshot(current, top.Label))
	return top.Document(), true
}

func (m *Manager) CanUndo() bool { return len(m.undo) > 0 }
func (m *Manager) CanRedo() bool { return len(m.redo) > 0 }
func (m *Manager) UndoLen() int  { return len(m.undo) }
func (m *Manager) RedoLen() int  { return len(m.redo) }
func (m *Manager) MaxSize() int  { return m.maxSize }

// UndoLabel names the action the next Undo would revert.
func (m *Manager) UndoLabel() string {
	if len(m.undo) == 0 {
		return ""
	}
	return m.undo[len(m.undo)-1].Label
}

// RedoLabel names the action the next Redo would re-apply.
func (m *Manager) RedoLabel() string {
	if len(m.redo) == 0 {
		return ""
	}
	return m.redo[len(m.redo)-1].Label
}

// Clear drops both stacks.
func (m *Manager) Clear() {
	m.undo = nil
	m.redo = nil
}

// ─────────────────────────────────────────────────────────────
// Change detection
// ─────────────────────────────────────────────────────────────

// GeometryChanged reports whether any block was added, removed, moved or
// resized by more than eps between before and after.
func GeometryChanged(before, after domain.Document, eps float64) bool {
	if len(before.Pages) != len(after.Pages) {
		return true
	}
	for _, bp := range before.Pages {
		ap, ok := after.Page(bp.ID)
		if !ok || len(ap.Blocks) != len(bp.Blocks) {
			return true
		}
		for _, bb := range bp.Blocks {
			ab, ok := ap.Block(bb.ID)
			if !ok {
				return true
			}
			if math.Abs(ab.X-bb.X) > eps || math.Abs(ab.Y-bb.Y) > eps ||
				math.Abs(ab.Width-bb.Width) > eps || math.Abs(ab.Height-bb.Height) > eps {
				return true
			}
		}
	}
	return false
}

// Identical reports whether before and after are equal in every field,
// transient interaction state included.
func Identical(before, after domain.Document) bool {
	return reflect.DeepEqual(before, after)
}

// Differs reports whether before and after differ in any persisted field.
// Transient interaction state is ignored.
func Differs(before, after domain.Document) bool {
	return !reflect.DeepEqual(strip(before), strip(after))
}
