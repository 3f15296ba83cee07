package detection

import (
	"image"
	"math"
)

// ApproxPolyDP simplifies a closed contour with the Douglas-Peucker algorithm.
//
// Every point of the input lies within epsilon of the returned polygon. The
// polygon's vertices are a subset of the contour's points, in contour order.
//
// # Algorithm
//
// A closed curve has no natural endpoints, so two far-apart anchor points are
// chosen first: starting from the first point, the farthest point is found,
// then the point farthest from that one, twice over. This lands the anchors on
// (or very near) a diameter of the shape, which for a quadrilateral means two
// opposite corners. Each of the two arcs between the anchors is then reduced
// independently:
//
//  1. Find the point on the arc farthest from the chord joining its ends.
//  2. If that distance exceeds epsilon, keep the point and recurse on both
//     halves; otherwise drop every interior point of the arc.
func ApproxPolyDP(c Contour, epsilon float64) Contour {
	n := len(c)
	if n < 3 {
		out := make(Contour, n)
		copy(out, c)
		return out
	}

	a := 0
	b := farthestFrom(c, a)
	for i := 0; i < 2; i++ {
		a = b
		b = farthestFrom(c, a)
	}
	if a == b || c[a] == c[b] {
		return Contour{c[a]}
	}
	if a > b {
		a, b = b, a
	}

	keep := make([]bool, n)
	keep[a] = true
	keep[b] = true
	simplify(c, a, b, epsilon, keep)
	simplify(c, b, a+n, epsilon, keep)

	out := make(Contour, 0, 8)
	for i := 0; i < n; i++ {
		if keep[i] {
			out = append(out, c[i])
		}
	}
	return out
}

// simplify marks the points to keep on the arc from index lo to hi (hi may
// run past the end of c and wraps around).
func simplify(c Contour, lo, hi int, epsilon float64, keep []bool) {
	n := len(c)
	type span struct{ lo, hi int }
	stack := []span{{lo, hi}}

	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if s.hi-s.lo < 2 {
			continue
		}

		p0 := c[s.lo%n]
		p1 := c[s.hi%n]
		best, bestDist := -1, -1.0
		for i := s.lo + 1; i < s.hi; i++ {
			d := distanceToLine(c[i%n], p0, p1)
			if d > bestDist {
				best, bestDist = i, d
			}
		}

		if bestDist > epsilon {
			keep[best%n] = true
			stack = append(stack, span{s.lo, best}, span{best, s.hi})
		}
	}
}

// farthestFrom returns the index of the point in c farthest from c[from].
// Ties keep the earliest index.
func farthestFrom(c Contour, from int) int {
	p := c[from]
	best, bestDist := from, -1
	for i, q := range c {
		dx, dy := q.X-p.X, q.Y-p.Y
		if d := dx*dx + dy*dy; d > bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// distanceToLine returns the perpendicular distance from p to the line
// through a and b, or the distance to a when a and b coincide.
func distanceToLine(p, a, b image.Point) float64 {
	dx := float64(b.X - a.X)
	dy := float64(b.Y - a.Y)
	px := float64(p.X - a.X)
	py := float64(p.Y - a.Y)
	length := math.Hypot(dx, dy)
	if length == 0 {
		return math.Hypot(px, py)
	}
	return math.Abs(dx*py-dy*px) / length
}
