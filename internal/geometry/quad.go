package geometry

import (
	"fmt"
	"math"
)

// Corner indexes into a Quad.
const (
	TopLeft = iota
	TopRight
	BottomRight
	BottomLeft
)

// CornerNames holds a label for each Quad index, in order.
var CornerNames = [4]string{"top-left", "top-right", "bottom-right", "bottom-left"}

// Quad is a four-point polygon in image space, ordered top-left, top-right,
// bottom-right, bottom-left.
type Quad [4]Point

// FullFrame returns the quadrilateral covering an entire width x height image,
// already in canonical order.
func FullFrame(width, height int) Quad {
	w := float64(max(width-1, 0))
	h := float64(max(height-1, 0))
	return Quad{
		{X: 0, Y: 0},
		{X: w, Y: 0},
		{X: w, Y: h},
		{X: 0, Y: h},
	}
}

// OrderCorners assigns the four points to their corner roles.
//
// The top-left corner has the smallest x+y and the bottom-right the largest.
// The top-right corner has the smallest y-x and the bottom-left the largest.
// Ties resolve to the lowest input index, so the result does not depend on
// input order for any convex quadrilateral with distinct extremes.
//
// When two roles resolve to the same input point (for example a square rotated
// by exactly 45 degrees, where sums tie), no valid ordering exists. The input is
// then returned unchanged with ok=false so the caller can keep its own order.
func OrderCorners(pts [4]Point) (q Quad, ok bool) {
	var minSum, maxSum, minDiff, maxDiff int
	for i := 1; i < 4; i++ {
		s := pts[i].X + pts[i].Y
		d := pts[i].Y - pts[i].X
		if s < pts[minSum].X+pts[minSum].Y {
			minSum = i
		}
		if s > pts[maxSum].X+pts[maxSum].Y {
			maxSum = i
		}
		if d < pts[minDiff].Y-pts[minDiff].X {
			minDiff = i
		}
		if d > pts[maxDiff].Y-pts[maxDiff].X {
			maxDiff = i
		}
	}

	var used [4]bool
	for _, idx := range [4]int{minSum, minDiff, maxSum, maxDiff} {
		if used[idx] {
			return Quad(pts), false
		}
		used[idx] = true
	}

	return Quad{pts[minSum], pts[minDiff], pts[maxSum], pts[maxDiff]}, true
}

// Edges returns the lengths of the top, right, bottom and left sides.
func (q Quad) Edges() (top, right, bottom, left float64) {
	top = Distance(q[TopLeft], q[TopRight])
	right = Distance(q[TopRight], q[BottomRight])
	bottom = Distance(q[BottomLeft], q[BottomRight])
	left = Distance(q[TopLeft], q[BottomLeft])
	return top, right, bottom, left
}

// Bounds returns the axis-aligned bounding box of q as min and max corners.
func (q Quad) Bounds() (min, max Point) {
	min, max = q[0], q[0]
	for _, p := range q[1:] {
		min.X = math.Min(min.X, p.X)
		min.Y = math.Min(min.Y, p.Y)
		max.X = math.Max(max.X, p.X)
		max.Y = math.Max(max.Y, p.Y)
	}
	return min, max
}

// Area returns the unsigned shoelace area of q taken in corner order.
func (q Quad) Area() float64 {
	var sum float64
	for i := 0; i < 4; i++ {
		a := q[i]
		b := q[(i+1)%4]
		sum += a.X*b.Y - b.X*a.Y
	}
	return math.Abs(sum) / 2
}

// HasCoincidentCorners reports whether any two corners lie within eps of
// each other.
func (q Quad) HasCoincidentCorners(eps float64) bool {
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			if Distance(q[i], q[j]) <= eps {
				return true
			}
		}
	}
	return false
}

// HasColinearTriple reports whether any three corners are colinear. The
// test is relative: the triangle area they span is compared against eps times
// the squared length of its longest side.
func (q Quad) HasColinearTriple(eps float64) bool {
	for skip := 0; skip < 4; skip++ {
		var tri [3]Point
		n := 0
		for i := 0; i < 4; i++ {
			if i != skip {
				tri[n] = q[i]
				n++
			}
		}
		longest := math.Max(DistanceSquared(tri[0], tri[1]),
			math.Max(DistanceSquared(tri[1], tri[2]), DistanceSquared(tri[0], tri[2])))
		if longest == 0 {
			return true
		}
		if math.Abs(Cross(tri[0], tri[1], tri[2])) <= eps*longest {
			return true
		}
	}
	return false
}

// IsSelfIntersecting reports whether opposite sides of q cross, which happens
// when a corner has been dragged past one of its neighbours.
func (q Quad) IsSelfIntersecting() bool {
	return segmentsIntersect(q[0], q[1], q[2], q[3]) ||
		segmentsIntersect(q[1], q[2], q[3], q[0])
}

// IsConvex reports whether every turn along q has the same orientation.
func (q Quad) IsConvex() bool {
	var pos, neg bool
	for i := 0; i < 4; i++ {
		c := Cross(q[i], q[(i+1)%4], q[(i+2)%4])
		if c > 0 {
			pos = true
		} else if c < 0 {
			neg = true
		}
	}
	return !(pos && neg)
}

// String formats q as "TL(x,y) TR(x,y) BR(x,y) BL(x,y)".
func (q Quad) String() string {
	return fmt.Sprintf("TL(%.1f,%.1f) TR(%.1f,%.1f) BR(%.1f,%.1f) BL(%.1f,%.1f)",
		q[0].X, q[0].Y, q[1].X, q[1].Y, q[2].X, q[2].Y, q[3].X, q[3].Y)
}

// segmentsIntersect reports whether segment p1p2 properly crosses segment p3p4.
// Touching at an endpoint is not counted; colinear overlap is handled by the
// colinearity check instead.
func segmentsIntersect(p1, p2, p3, p4 Point) bool {
	d1 := Cross(p3, p4, p1)
	d2 := Cross(p3, p4, p2)
	d3 := Cross(p1, p2, p3)
	d4 := Cross(p1, p2, p4)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}
