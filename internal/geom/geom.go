package geom

import "math"

// Point is a position in canvas coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"width"`
	H float64 `json:"height"`
}

// FromCorners builds a normalized rectangle from two arbitrary corners,
// so a selection box dragged up-left has the same extent as one dragged down-right.
func FromCorners(x1, y1, x2, y2 float64) Rect {
	minX, maxX := math.Min(x1, x2), math.Max(x1, x2)
	minY, maxY := math.Min(y1, y2), math.Max(y1, y2)
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

func (r Rect) MinX() float64 { return r.X }
func (r Rect) MinY() float64 { return r.Y }
func (r Rect) MaxX() float64 { return r.X + r.W }
func (r Rect) MaxY() float64 { return r.Y + r.H }

// Center returns the midpoint of r.
func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Contains reports whether (x, y) lies inside r, edges included.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.MinX() && x <= r.MaxX() && y >= r.MinY() && y <= r.MaxY()
}

// Intersects reports whether r and o are not fully disjoint.
// Touching edges count as intersecting.
func (r Rect) Intersects(o Rect) bool {
	return !(r.MaxX() < o.MinX() || o.MaxX() < r.MinX() ||
		r.MaxY() < o.MinY() || o.MaxY() < r.MinY())
}

// IsEmpty reports whether r has zero area.
func (r Rect) IsEmpty() bool {
	return r.W <= 0 || r.H <= 0
}

// Union returns the smallest rectangle covering both r and o.
func (r Rect) Union(o Rect) Rect {
	minX := math.Min(r.MinX(), o.MinX())
	minY := math.Min(r.MinY(), o.MinY())
	maxX := math.Max(r.MaxX(), o.MaxX())
	maxY := math.Max(r.MaxY(), o.MaxY())
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Edges returns the four sides of r as segments: top, right, bottom, left.
func (r Rect) Edges() [4]Segment {
	tl := Point{r.MinX(), r.MinY()}
	tr := Point{r.MaxX(), r.MinY()}
	br := Point{r.MaxX(), r.MaxY()}
	bl := Point{r.MinX(), r.MaxY()}
	return [4]Segment{{tl, tr}, {tr, br}, {br, bl}, {bl, tl}}
}

// BoundingBox returns the union of rects. ok is false when rects is empty.
func BoundingBox(rects []Rect) (box Rect, ok bool) {
	if len(rects) == 0 {
		return Rect{}, false
	}
	box = rects[0]
	for _, r := range rects[1:] {
		box = box.Union(r)
	}
	return box, true
}

// ApproxEqual reports whether a and b differ by no more than eps.
func ApproxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
