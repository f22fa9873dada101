// Package gesture is the manipulation engine: it turns pointer input, already
// converted to canvas coordinates, into drag, resize and box-select
// transitions on the current page.
//
// A page is in exactly one interaction mode. A gesture starts on pointer-down
// from Idle, is fed by pointer-move, and always returns to Idle on
// pointer-up or Blur. Deciding whether a finished gesture is worth an undo
// entry is left to the caller.
package gesture

import (
	"canvas/internal/domain"
	"canvas/internal/selection"
)

// PrimaryButton is the only button that starts gestures.
const PrimaryButton = 0

// Pointer is a pointer event in canvas coordinates.
type Pointer struct {
	X      float64
	Y      float64
	Button int
	Shift  bool
}

// Active reports whether the current page has a gesture in progress.
func Active(d domain.Document) bool {
	p, ok := d.CurrentPage()
	return ok && !p.IsIdle()
}

// ─────────────────────────────────────────────────────────────
// Pointer routing
// ─────────────────────────────────────────────────────────────

// PointerDown decides what a press does, in priority order: grab a resize
// handle of the selection, shift-toggle or drag a block, drag the
// multi-selection by its bounding box, select a link, or start a box-select
// on empty canvas. A press while another gesture is active is ignored.
func PointerDown(d domain.Document, ptr Pointer) domain.Document {
	p, ok := d.CurrentPage()
	if !ok || !p.IsIdle() || ptr.Button != PrimaryButton {
		return d
	}

	if !ptr.Shift {
		if hit, ok := selection.HandleAt(p, ptr.X, ptr.Y); ok {
			if hit.SelectionBox {
				return BeginSelectionResize(d, hit.Handle, ptr.X, ptr.Y)
			}
			return BeginResize(d, hit.BlockID, hit.Handle, ptr.X, ptr.Y)
		}
	}

	if b, ok := selection.BlockAt(p, ptr.X, ptr.Y); ok {
		if ptr.Shift {
			return selection.ToggleSelect(d, b.ID)
		}
		if !p.IsSelected(b.ID) {
			d = selection.SelectOnly(d, b.ID)
		}
		return BeginDrag(d, b.ID, ptr.X, ptr.Y)
	}

	if !ptr.Shift && selection.InBounds(p, ptr.X, ptr.Y) {
		return BeginDrag(d, p.SelectedBlocks()[0].ID, ptr.X, ptr.Y)
	}

	if l, ok := selection.LinkAt(p, ptr.X, ptr.Y); ok {
		if ptr.Shift {
			return selection.ToggleSelect(d, l.ID)
		}
		return selection.SelectOnly(d, l.ID)
	}

	return BeginBoxSelect(d, ptr.X, ptr.Y, ptr.Shift)
}

// PointerMove advances the active gesture. While idle it only tracks the
// hovered block.
func PointerMove(d domain.Document, ptr Pointer) domain.Document {
	p, ok := d.CurrentPage()
	if !ok {
		return d
	}
	switch m := p.Interaction().(type) {
	case domain.Dragging:
		return dragTo(d, m.Drag, ptr.X, ptr.Y)
	case domain.Resizing:
		return resizeTo(d, m.Resize, ptr.X, ptr.Y)
	case domain.BoxSelecting:
		return boxTo(d, m, ptr.X, ptr.Y, ptr.Shift)
	}
	hover := domain.NoID
	if b, ok := selection.BlockAt(p, ptr.X, ptr.Y); ok {
		hover = b.ID
	}
	return domain.SetHovering(d, hover)
}

// PointerUp ends the active gesture. A box-select commits the selection
// computed exactly as the last preview was.
func PointerUp(d domain.Document, ptr Pointer) domain.Document {
	p, ok := d.CurrentPage()
	if !ok {
		return d
	}
	if m, ok := p.Interaction().(domain.BoxSelecting); ok {
		d = boxTo(d, m, ptr.X, ptr.Y, ptr.Shift)
	}
	return end(d)
}

// Blur force-completes a gesture whose pointer-up will never arrive, e.g.
// after the window loses focus. It behaves like a pointer-up at the last
// known pointer position with the last known modifiers.
func Blur(d domain.Document) domain.Document {
	return end(d)
}

// ─────────────────────────────────────────────────────────────
// Gesture starts
// ─────────────────────────────────────────────────────────────

// BeginDrag starts moving the selection, anchored on block id.
func BeginDrag(d domain.Document, id int, x, y float64) domain.Document {
	p, ok := d.CurrentPage()
	if !ok || !p.IsIdle() {
		return d
	}
	b, ok := p.Block(id)
	if !ok {
		return d
	}
	return domain.UpdateCurrentPage(d, func(p *domain.Page) {
		p.Mode = domain.Dragging{Drag: domain.DragState{
			ID: id, StartX: b.X, StartY: b.Y, PointerX: x, PointerY: y,
		}}
	})
}

// BeginResize starts resizing block id by handle h.
func BeginResize(d domain.Document, id int, h domain.Handle, x, y float64) domain.Document {
	p, ok := d.CurrentPage()
	if !ok || !p.IsIdle() || !h.Valid() {
		return d
	}
	b, ok := p.Block(id)
	if !ok {
		return d
	}
	return domain.UpdateCurrentPage(d, func(p *domain.Page) {
		p.Mode = domain.Resizing{Resize: domain.ResizeState{
			ID: id, Handle: h,
			StartX: b.X, StartY: b.Y, StartWidth: b.Width, StartHeight: b.Height,
			PointerX: x, PointerY: y,
		}}
	})
}

// BeginSelectionResize starts resizing the bounding box of a multi-selection,
// snapshotting every selected block so the resize can be applied
// proportionally rather than absolutely.
func BeginSelectionResize(d domain.Document, h domain.Handle, x, y float64) domain.Document {
	p, ok := d.CurrentPage()
	if !ok || !p.IsIdle() || !h.Valid() {
		return d
	}
	selected := p.SelectedBlocks()
	if len(selected) < 2 {
		return d
	}
	box, _ := selection.BoundingBox(p)
	originals := make([]domain.BlockGeometry, len(selected))
	for i, b := range selected {
		originals[i] = b.Geometry()
	}
	return domain.UpdateCurrentPage(d, func(p *domain.Page) {
		p.Mode = domain.Resizing{Resize: domain.ResizeState{
			SelectionBox: true, Handle: h,
			StartX: box.X, StartY: box.Y, StartWidth: box.W, StartHeight: box.H,
			PointerX: x, PointerY: y,
			OriginalBlocks: originals,
		}}
	})
}

// BeginBoxSelect starts a drag-select rectangle at (x, y). With additive set
// the result is unioned with the existing selection.
func BeginBoxSelect(d domain.Document, x, y float64, additive bool) domain.Document {
	p, ok := d.CurrentPage()
	if !ok || !p.IsIdle() {
		return d
	}
	box := domain.SelectionBox{StartX: x, StartY: y, CurrentX: x, CurrentY: y}
	pending := selection.Preview(p, box, additive)
	return domain.UpdateCurrentPage(d, func(p *domain.Page) {
		p.Mode = domain.BoxSelecting{Box: box, Additive: additive}
		p.PendingSelectedIDs = pending
	})
}

// ─────────────────────────────────────────────────────────────
// Gesture progress
// ─────────────────────────────────────────────────────────────

func dragTo(d domain.Document, drag domain.DragState, x, y float64) domain.Document {
	p, _ := d.CurrentPage()
	anchor, ok := p.Block(drag.ID)
	if !ok {
		return d
	}
	targetX := drag.StartX + (x - drag.PointerX)
	targetY := drag.StartY + (y - drag.PointerY)
	dx, dy := targetX-anchor.X, targetY-anchor.Y
	if dx == 0 && dy == 0 {
		return d
	}
	return domain.UpdateCurrentPage(d, func(p *domain.Page) {
		for i := range p.Blocks {
			b := &p.Blocks[i]
			if b.ID == drag.ID || p.IsSelected(b.ID) {
				b.X += dx
				b.Y += dy
			}
		}
	})
}

func resizeTo(d domain.Document, rs domain.ResizeState, x, y float64) domain.Document {
	dx, dy := x-rs.PointerX, y-rs.PointerY
	if !rs.SelectionBox {
		r := ResizeRect(rs.StartRect(), rs.Handle, dx, dy, domain.MinBlockSize)
		return domain.SetBlockGeometry(d, domain.BlockGeometry{ID: rs.ID, X: r.X, Y: r.Y, Width: r.W, Height: r.H})
	}

	box := ResizeRect(rs.StartRect(), rs.Handle, dx, dy, domain.MinBlockSize)
	scaled := ScaleInto(rs.OriginalBlocks, rs.StartRect(), box)
	return domain.UpdateCurrentPage(d, func(p *domain.Page) {
		for _, g := range scaled {
			for i := range p.Blocks {
				if p.Blocks[i].ID == g.ID {
					b := &p.Blocks[i]
					b.X, b.Y, b.Width, b.Height = g.X, g.Y, g.Width, g.Height
				}
			}
		}
	})
}

func boxTo(d domain.Document, m domain.BoxSelecting, x, y float64, additive bool) domain.Document {
	m.Box.CurrentX, m.Box.CurrentY = x, y
	m.Additive = additive
	p, _ := d.CurrentPage()
	pending := selection.Preview(p, m.Box, additive)
	return domain.UpdateCurrentPage(d, func(p *domain.Page) {
		p.Mode = m
		p.PendingSelectedIDs = pending
	})
}

func end(d domain.Document) domain.Document {
	p, ok := d.CurrentPage()
	if !ok || p.IsIdle() {
		return d
	}
	var final []int
	m, boxing := p.Interaction().(domain.BoxSelecting)
	if boxing {
		final = selection.Preview(p, m.Box, m.Additive)
	}
	return domain.UpdateCurrentPage(d, func(p *domain.Page) {
		if boxing {
			p.SelectedIDs = final
		}
		p.PendingSelectedIDs = nil
		p.Mode = domain.Idle{}
	})
}
