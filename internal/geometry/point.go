package geometry

import "math"

// Point is a real-valued image-space coordinate.
//
// Sub-pixel precision is kept throughout so that corner edits made on a
// scaled-down preview map back to the full-resolution image without
// accumulating rounding error.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns p+q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p-q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Scale returns p*s.
func (p Point) Scale(s float64) Point {
	return Point{X: p.X * s, Y: p.Y * s}
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// DistanceSquared returns the squared Euclidean distance between a and b.
func DistanceSquared(a, b Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	return dx*dx + dy*dy
}

// Cross returns the z component of (b-a) x (c-a).
// Positive means a->b->c turns counterclockwise in a y-up frame
// (clockwise on screen, where y grows downward).
func Cross(a, b, c Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// Clamp constrains p to the pixel rectangle [0,width-1] x [0,height-1].
func Clamp(p Point, width, height int) Point {
	return Point{
		X: clampFloat(p.X, 0, float64(width-1)),
		Y: clampFloat(p.Y, 0, float64(height-1)),
	}
}

func clampFloat(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
