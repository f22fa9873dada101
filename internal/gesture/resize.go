package gesture

import (
	"strings"

	"canvas/internal/domain"
	"canvas/internal/geom"
)

// ResizeRect applies a pointer delta (dx, dy) to r as if handle h were
// dragged. The edge or corner opposite h stays fixed, and neither side
// shrinks below minSize.
func ResizeRect(r geom.Rect, h domain.Handle, dx, dy, minSize float64) geom.Rect {
	out := r
	name := string(h)
	if strings.Contains(name, "e") {
		out.W = max(minSize, r.W+dx)
	}
	if strings.Contains(name, "w") {
		out.W = max(minSize, r.W-dx)
		out.X = r.MaxX() - out.W
	}
	if strings.Contains(name, "s") {
		out.H = max(minSize, r.H+dy)
	}
	if strings.Contains(name, "n") {
		out.H = max(minSize, r.H-dy)
		out.Y = r.MaxY() - out.H
	}
	return out
}

// ScaleInto maps each original geometry from box from onto box to. Offsets
// from the box origin and sizes are scaled per axis by the box's width and
// height ratios, so the selection as a whole fills the new box exactly.
// Individual blocks do not keep their own aspect ratio under non-uniform
// scaling, and each is clamped to the minimum block size.
func ScaleInto(originals []domain.BlockGeometry, from, to geom.Rect) []domain.BlockGeometry {
	sx, sy := 1.0, 1.0
	if from.W > 0 {
		sx = to.W / from.W
	}
	if from.H > 0 {
		sy = to.H / from.H
	}
	out := make([]domain.BlockGeometry, len(originals))
	for i, o := range originals {
		out[i] = domain.BlockGeometry{
			ID:     o.ID,
			X:      to.X + (o.X-from.X)*sx,
			Y:      to.Y + (o.Y-from.Y)*sy,
			Width:  max(domain.MinBlockSize, o.Width*sx),
			Height: max(domain.MinBlockSize, o.Height*sy),
		}
	}
	return out
}
