package domain

import "canvas/internal/geom"

// Handle names one of the eight resize anchors around a rectangle.
type Handle string

const (
	HandleN  Handle = "n"
	HandleNE Handle = "ne"
	HandleE  Handle = "e"
	HandleSE Handle = "se"
	HandleS  Handle = "s"
	HandleSW Handle = "sw"
	HandleW  Handle = "w"
	HandleNW Handle = "nw"
)

// Handles lists every resize handle in clockwise order starting at the top.
var Handles = []Handle{HandleN, HandleNE, HandleE, HandleSE, HandleS, HandleSW, HandleW, HandleNW}

// Valid reports whether h names a known handle.
func (h Handle) Valid() bool {
	for _, k := range Handles {
		if h == k {
			return true
		}
	}
	return false
}

// Position returns where h sits on r.
func (h Handle) Position(r geom.Rect) geom.Point {
	cx, cy := r.X+r.W/2, r.Y+r.H/2
	switch h {
	case HandleN:
		return geom.Point{X: cx, Y: r.MinY()}
	case HandleNE:
		return geom.Point{X: r.MaxX(), Y: r.MinY()}
	case HandleE:
		return geom.Point{X: r.MaxX(), Y: cy}
	case HandleSE:
		return geom.Point{X: r.MaxX(), Y: r.MaxY()}
	case HandleS:
		return geom.Point{X: cx, Y: r.MaxY()}
	case HandleSW:
		return geom.Point{X: r.MinX(), Y: r.MaxY()}
	case HandleW:
		return geom.Point{X: r.MinX(), Y: cy}
	case HandleNW:
		return geom.Point{X: r.MinX(), Y: r.MinY()}
	}
	return geom.Point{X: cx, Y: cy}
}

// InteractionMode is the page's active gesture. Exactly one mode is active
// at a time, which rules out overlapping drag, resize and box-select.
type InteractionMode interface {
	isMode()
}

type Idle struct{}

type Dragging struct {
	Drag DragState
}

type Resizing struct {
	Resize ResizeState
}

// BoxSelecting carries the additive (shift) flag last seen alongside the box,
// so a gesture finished without a pointer-up keeps the same semantics.
type BoxSelecting struct {
	Box      SelectionBox
	Additive bool
}

func (Idle) isMode()         {}
func (Dragging) isMode()     {}
func (Resizing) isMode()     {}
func (BoxSelecting) isMode() {}

// DragState anchors a drag: the anchor block's position and the canvas
// pointer position when the gesture began.
type DragState struct {
	ID       int     `json:"id"`
	StartX   float64 `json:"startX"`
	StartY   float64 `json:"startY"`
	PointerX float64 `json:"pointerX"`
	PointerY float64 `json:"pointerY"`
}

// ResizeState records the geometry at the start of a resize. When
// SelectionBox is set the target is the bounding box of the selection and
// OriginalBlocks holds each selected block's starting geometry.
type ResizeState struct {
	ID             int             `json:"id"`
	SelectionBox   bool            `json:"selectionBox"`
	Handle         Handle          `json:"handle"`
	StartX         float64         `json:"startX"`
	StartY         float64         `json:"startY"`
	StartWidth     float64         `json:"startWidth"`
	StartHeight    float64         `json:"startHeight"`
	PointerX       float64         `json:"pointerX"`
	PointerY       float64         `json:"pointerY"`
	OriginalBlocks []BlockGeometry `json:"originalBlocks,omitempty"`
}

// StartRect returns the target's rectangle when the resize began.
func (r ResizeState) StartRect() geom.Rect {
	return geom.Rect{X: r.StartX, Y: r.StartY, W: r.StartWidth, H: r.StartHeight}
}

// SelectionBox is the drag rectangle of a box-select gesture in canvas coordinates.
type SelectionBox struct {
	StartX   float64 `json:"startX"`
	StartY   float64 `json:"startY"`
	CurrentX float64 `json:"currentX"`
	CurrentY float64 `json:"currentY"`
}

// Rect returns the normalized extent of the box.
func (s SelectionBox) Rect() geom.Rect {
	return geom.FromCorners(s.StartX, s.StartY, s.CurrentX, s.CurrentY)
}
