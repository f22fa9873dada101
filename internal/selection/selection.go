// Package selection computes selection sets and answers hit-test queries
// against the current page.
package selection

import (
	"slices"

	"canvas/internal/domain"
	"canvas/internal/geom"
)

// BoundingBox returns the rectangle enclosing the selected blocks of p.
// A single selected block yields its own rectangle.
func BoundingBox(p domain.Page) (geom.Rect, bool) {
	selected := p.SelectedBlocks()
	rects := make([]geom.Rect, len(selected))
	for i, b := range selected {
		rects[i] = b.Rect()
	}
	return geom.BoundingBox(rects)
}

// SelectionBoundingBox is BoundingBox for the document's current page.
func SelectionBoundingBox(d domain.Document) (geom.Rect, bool) {
	p, ok := d.CurrentPage()
	if !ok {
		return geom.Rect{}, false
	}
	return BoundingBox(p)
}

// InBounds reports whether (x, y) falls inside the shared bounding box of a
// multi-selection. A single selection has no draggable box of its own.
func InBounds(p domain.Page, x, y float64) bool {
	if len(p.SelectedBlocks()) < 2 {
		return false
	}
	box, ok := BoundingBox(p)
	return ok && box.Contains(x, y)
}

// IsPointInSelectionBounds is InBounds for the document's current page.
func IsPointInSelectionBounds(d domain.Document, x, y float64) bool {
	p, ok := d.CurrentPage()
	return ok && InBounds(p, x, y)
}

// LinkSegment returns the centre-to-centre segment of l on p.
func LinkSegment(p domain.Page, l domain.Link) (geom.Segment, bool) {
	parent, ok := p.Block(l.ParentBlockID)
	if !ok {
		return geom.Segment{}, false
	}
	child, ok := p.Block(l.ChildBlockID)
	if !ok {
		return geom.Segment{}, false
	}
	return geom.Segment{A: parent.Rect().Center(), B: child.Rect().Center()}, true
}

// Preview returns the selection a box-select over box would produce on p.
// Blocks are included when their rectangle is not disjoint from the box and
// links when their centre segment crosses it. With additive set the result
// is unioned with the current selection, otherwise it replaces it.
//
// Both the live preview and the final pointer-up go through this function,
// so the committed selection always equals the last preview frame.
func Preview(p domain.Page, box domain.SelectionBox, additive bool) []int {
	r := box.Rect()
	var hits []int
	for _, b := range p.Blocks {
		if b.Rect().Intersects(r) {
			hits = append(hits, b.ID)
		}
	}
	for _, l := range p.Links {
		if seg, ok := LinkSegment(p, l); ok && seg.IntersectsRect(r) {
			hits = append(hits, l.ID)
		}
	}

	out := []int{}
	if additive {
		out = append(out, p.SelectedIDs...)
	}
	for _, id := range hits {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

// PreviewSelection is Preview for the document's current page.
func PreviewSelection(d domain.Document, box domain.SelectionBox, additive bool) []int {
	p, ok := d.CurrentPage()
	if !ok {
		return []int{}
	}
	return Preview(p, box, additive)
}

// ── explicit selection ─────────────────────────────────────

// ToggleSelect adds id to the selection, or removes it if already present.
// Ids that are neither a block nor a link on the page are ignored.
func ToggleSelect(d domain.Document, id int) domain.Document {
	p, ok := d.CurrentPage()
	if !ok || !exists(p, id) {
		return d
	}
	return domain.UpdateCurrentPage(d, func(p *domain.Page) {
		if i := slices.Index(p.SelectedIDs, id); i >= 0 {
			p.SelectedIDs = slices.Delete(p.SelectedIDs, i, i+1)
		} else {
			p.SelectedIDs = append(p.SelectedIDs, id)
		}
	})
}

// SelectOnly replaces the selection with ids, dropping unknown ones.
func SelectOnly(d domain.Document, ids ...int) domain.Document {
	p, ok := d.CurrentPage()
	if !ok {
		return d
	}
	next := []int{}
	for _, id := range ids {
		if exists(p, id) && !slices.Contains(next, id) {
			next = append(next, id)
		}
	}
	if slices.Equal(next, p.SelectedIDs) {
		return d
	}
	return domain.UpdateCurrentPage(d, func(p *domain.Page) {
		p.SelectedIDs = next
	})
}

// ClearSelection empties both the committed and pending selection.
func ClearSelection(d domain.Document) domain.Document {
	p, ok := d.CurrentPage()
	if !ok || (len(p.SelectedIDs) == 0 && len(p.PendingSelectedIDs) == 0) {
		return d
	}
	return domain.UpdateCurrentPage(d, func(p *domain.Page) {
		p.SelectedIDs = []int{}
		p.PendingSelectedIDs = nil
	})
}

// SelectAll selects every block and link on the current page.
func SelectAll(d domain.Document) domain.Document {
	p, ok := d.CurrentPage()
	if !ok {
		return d
	}
	ids := make([]int, 0, len(p.Blocks)+len(p.Links))
	for _, b := range p.Blocks {
		ids = append(ids, b.ID)
	}
	for _, l := range p.Links {
		ids = append(ids, l.ID)
	}
	return SelectOnly(d, ids...)
}

func exists(p domain.Page, id int) bool {
	if _, ok := p.Block(id); ok {
		return true
	}
	_, ok := p.Link(id)
	return ok
}
