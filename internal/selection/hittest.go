package selection

import (
	"canvas/internal/domain"
	"canvas/internal/geom"
)

// Hit-test tolerances in screen pixels, so grabbing feels the same at any zoom.
const (
	HandleTolerance = 6.0
	LinkTolerance   = 5.0
)

// BlockAt returns the topmost block containing canvas point (x, y).
// Among equal zIndex values the block added later wins.
func BlockAt(p domain.Page, x, y float64) (domain.Block, bool) {
	var (
		hit   domain.Block
		found bool
	)
	for _, b := range p.Blocks {
		if !b.Rect().Contains(x, y) {
			continue
		}
		if !found || b.ZIndex >= hit.ZIndex {
			hit, found = b, true
		}
	}
	return hit, found
}

// LinkAt returns the link whose centre segment passes within LinkTolerance
// screen pixels of canvas point (x, y).
func LinkAt(p domain.Page, x, y float64) (domain.Link, bool) {
	tol := LinkTolerance / zoom(p)
	pt := geom.Point{X: x, Y: y}
	best, bestDist := domain.Link{}, tol
	found := false
	for _, l := range p.Links {
		seg, ok := LinkSegment(p, l)
		if !ok {
			continue
		}
		if d := seg.DistanceTo(pt); d <= bestDist {
			best, bestDist, found = l, d, true
		}
	}
	return best, found
}

// HandleHit identifies a grabbed resize handle. SelectionBox is set when the
// handle belongs to the multi-selection bounding box rather than a block.
type HandleHit struct {
	BlockID      int
	SelectionBox bool
	Handle       domain.Handle
	Rect         geom.Rect
}

// HandleAt returns the resize handle under canvas point (x, y). Handles are
// only shown for the current selection: a single selected block exposes its
// own handles, a multi-selection exposes the shared bounding box's.
func HandleAt(p domain.Page, x, y float64) (HandleHit, bool) {
	selected := p.SelectedBlocks()
	if len(selected) == 0 {
		return HandleHit{}, false
	}
	hit := HandleHit{}
	if len(selected) == 1 {
		hit.BlockID = selected[0].ID
		hit.Rect = selected[0].Rect()
	} else {
		box, _ := BoundingBox(p)
		hit.SelectionBox = true
		hit.Rect = box
	}

	tol := HandleTolerance / zoom(p)
	for _, h := range domain.Handles {
		pos := h.Position(hit.Rect)
		if geom.ApproxEqual(pos.X, x, tol) && geom.ApproxEqual(pos.Y, y, tol) {
			hit.Handle = h
			return hit, true
		}
	}
	return HandleHit{}, false
}

func zoom(p domain.Page) float64 {
	if p.Zoom <= 0 {
		return domain.DefaultZoom
	}
	return p.Zoom
}
