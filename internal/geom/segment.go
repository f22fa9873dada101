package geom

import "math"

// Segment is a straight line between two points.
type Segment struct {
	A Point `json:"a"`
	B Point `json:"b"`
}

// Intersects reports whether s and o share at least one point, using the
// parametric form P = A + t(B-A), Q = C + u(D-C) with t, u in [0, 1].
// Collinear overlapping segments count as intersecting.
func (s Segment) Intersects(o Segment) bool {
	r := s.B.Sub(s.A)
	q := o.B.Sub(o.A)
	denom := cross(r, q)
	diff := o.A.Sub(s.A)

	if r == (Point{}) {
		return o.DistanceTo(s.A) == 0
	}
	if q == (Point{}) {
		return s.DistanceTo(o.A) == 0
	}
	if denom == 0 {
		if cross(diff, r) != 0 {
			return false // parallel, not collinear
		}
		return collinearOverlap(s, o)
	}

	t := cross(diff, q) / denom
	u := cross(diff, r) / denom
	return t >= 0 && t <= 1 && u >= 0 && u <= 1
}

// IntersectsRect reports whether any part of s lies within r. A segment with
// an endpoint inside r short-circuits; otherwise each edge of r is tested.
func (s Segment) IntersectsRect(r Rect) bool {
	if r.Contains(s.A.X, s.A.Y) || r.Contains(s.B.X, s.B.Y) {
		return true
	}
	for _, e := range r.Edges() {
		if s.Intersects(e) {
			return true
		}
	}
	return false
}

// DistanceTo returns the shortest distance from p to s.
func (s Segment) DistanceTo(p Point) float64 {
	d := s.B.Sub(s.A)
	lenSq := d.X*d.X + d.Y*d.Y
	if lenSq == 0 {
		return math.Hypot(p.X-s.A.X, p.Y-s.A.Y)
	}
	t := ((p.X-s.A.X)*d.X + (p.Y-s.A.Y)*d.Y) / lenSq
	t = Clamp(t, 0, 1)
	proj := Point{X: s.A.X + t*d.X, Y: s.A.Y + t*d.Y}
	return math.Hypot(p.X-proj.X, p.Y-proj.Y)
}

func cross(a, b Point) float64 {
	return a.X*b.Y - a.Y*b.X
}

func collinearOverlap(s, o Segment) bool {
	// Project onto the dominant axis so vertical segments work too.
	if math.Abs(s.B.X-s.A.X) >= math.Abs(s.B.Y-s.A.Y) {
		return rangesOverlap(s.A.X, s.B.X, o.A.X, o.B.X)
	}
	return rangesOverlap(s.A.Y, s.B.Y, o.A.Y, o.B.Y)
}

func rangesOverlap(a1, a2, b1, b2 float64) bool {
	return math.Max(math.Min(a1, a2), math.Min(b1, b2)) <= math.Min(math.Max(a1, a2), math.Max(b1, b2))
}
