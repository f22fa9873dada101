package mcpserver

import (
	"math"

	"canvas/internal/domain"
	"canvas/internal/geom"
)

const (
	GridSize = 20.0
	Padding  = 40.0 // 2 grid cells between blocks
	MaxRowW  = 2400.0
)

// LayoutEngine handles automatic placement of blocks on the canvas
// so that agent-created blocks don't overlap existing ones.
type LayoutEngine struct {
	gridSize float64
	padding  float64
	maxRowW  float64
}

func NewLayoutEngine() *LayoutEngine {
	return &LayoutEngine{
		gridSize: GridSize,
		padding:  Padding,
		maxRowW:  MaxRowW,
	}
}

// snap rounds v to the nearest grid point.
func (le *LayoutEngine) snap(v float64) float64 {
	return math.Round(v/le.gridSize) * le.gridSize
}

// padded grows r by the layout padding on every side.
func (le *LayoutEngine) padded(r geom.Rect) geom.Rect {
	return geom.Rect{X: r.X - le.padding, Y: r.Y - le.padding, W: r.W + le.padding*2, H: r.H + le.padding*2}
}

// NextPosition finds the first grid position, scanning rows top to bottom,
// where a block of size (w, h) clears every existing block by the padding.
func (le *LayoutEngine) NextPosition(existing []domain.Block, w, h float64) (float64, float64) {
	if len(existing) == 0 {
		return 0, 0
	}

	occupied := make([]geom.Rect, len(existing))
	for i, b := range existing {
		occupied[i] = le.padded(b.Rect())
	}

	// Interior overlap only: a candidate may sit exactly on the padding edge.
	fits := func(c geom.Rect) bool {
		for _, occ := range occupied {
			if c.X < occ.MaxX() && c.MaxX() > occ.X && c.Y < occ.MaxY() && c.MaxY() > occ.Y {
				return false
			}
		}
		return true
	}

	bottom := 0.0
	for _, b := range existing {
		bottom = max(bottom, b.Y+b.Height)
	}
	limit := bottom + h + le.padding*2
	for y := 0.0; y <= limit; y += le.gridSize {
		for x := 0.0; x+w <= le.maxRowW; x += le.gridSize {
			c := geom.Rect{X: le.snap(x), Y: le.snap(y), W: w, H: h}
			if fits(c) {
				return c.X, c.Y
			}
		}
	}

	// Fallback: place below all existing blocks
	return 0, le.snap(bottom + le.padding)
}

// ArrangeGroup lays geometries out left to right from (startX, startY),
// wrapping rows at the maximum row width. Sizes are kept.
func (le *LayoutEngine) ArrangeGroup(gs []domain.BlockGeometry, startX, startY float64) []domain.BlockGeometry {
	out := make([]domain.BlockGeometry, len(gs))
	x := le.snap(startX)
	y := le.snap(startY)
	rowHeight := 0.0

	for i, g := range gs {
		if x > le.snap(startX) && x+g.Width > le.maxRowW {
			x = le.snap(startX)
			y += le.snap(rowHeight + le.padding)
			rowHeight = 0
		}
		g.X, g.Y = x, y
		out[i] = g
		rowHeight = max(rowHeight, g.Height)
		x += le.snap(g.Width + le.padding)
	}
	return out
}
