package detection

import (
	"image"
	"math"

	"github.com/s-elg/scannning-app/internal/imaging"
)

// Contour is a closed boundary traced around a connected group of edge
// pixels, as an ordered list of pixel coordinates.
type Contour []image.Point

// FindContours traces every border in a binary edge map.
//
// Non-zero pixels are foreground. Both outer borders (around a connected
// component) and hole borders (around a background region enclosed by one)
// are returned, in the order their starting pixels are met by a raster scan.
// No nesting hierarchy is recorded.
//
// # Algorithm
//
// This is the Suzuki-Abe border following scheme:
//
//  1. Scan the image row by row. A foreground pixel with background to its
//     left that has not been visited starts an outer border; a foreground
//     pixel with background to its right starts a hole border.
//
//  2. From the start pixel, follow the border by repeatedly searching the
//     8-neighbourhood counterclockwise, beginning just past the previous
//     pixel, until the trace returns to the start through the same pixel it
//     first left by.
//
//  3. Visited pixels are labelled with the border number, negated when the
//     pixel has background on its right, so no border is traced twice.
//
// Runs of points moving in the same direction are compressed to their
// endpoints, so a straight edge contributes two points regardless of length.
func FindContours(edges *imaging.Raster) []Contour {
	t := newTracer(edges)

	var contours []Contour
	nbd := int32(1)
	for y := 1; y <= edges.Height; y++ {
		for x := 1; x <= edges.Width; x++ {
			i := y*t.stride + x
			v := t.f[i]
			if v == 0 {
				continue
			}

			var from int
			switch {
			case v == 1 && t.f[i-1] == 0:
				from = i - 1
			case v >= 1 && t.f[i+1] == 0:
				from = i + 1
			default:
				continue
			}

			nbd++
			contours = append(contours, compress(t.follow(i, from, nbd)))
		}
	}
	return contours
}

// tracer holds the labelled, zero-padded working copy of an edge map.
type tracer struct {
	f      []int32
	stride int
	// dirs are index offsets to the 8 neighbours, counterclockwise on
	// screen starting east: E, NE, N, NW, W, SW, S, SE.
	dirs [8]int
}

func newTracer(edges *imaging.Raster) *tracer {
	w, h := edges.Width, edges.Height
	stride := w + 2
	t := &tracer{
		f:      make([]int32, stride*(h+2)),
		stride: stride,
		dirs: [8]int{
			1, -stride + 1, -stride, -stride - 1,
			-1, stride - 1, stride, stride + 1,
		},
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if edges.Pix[(y*w+x)*edges.Channels] != 0 {
				t.f[(y+1)*stride+x+1] = 1
			}
		}
	}
	return t
}

func (t *tracer) dirOf(from, to int) int {
	d := to - from
	for k, off := range t.dirs {
		if off == d {
			return k
		}
	}
	return 0
}

func (t *tracer) point(i int) image.Point {
	return image.Point{X: i%t.stride - 1, Y: i/t.stride - 1}
}

// follow traces one border starting at pixel start, whose background
// neighbour from marks where the search begins.
func (t *tracer) follow(start, from int, nbd int32) Contour {
	// Clockwise search for the first foreground neighbour.
	d := t.dirOf(start, from)
	first := -1
	for k := 0; k < 8; k++ {
		n := start + t.dirs[(d-k+8)%8]
		if t.f[n] != 0 {
			first = n
			break
		}
	}
	if first < 0 {
		t.f[start] = -nbd
		return Contour{t.point(start)}
	}

	var pts Contour
	prev, cur := first, start
	for {
		pts = append(pts, t.point(cur))

		d2 := t.dirOf(cur, prev)
		eastExamined := false
		next := prev
		for k := 1; k <= 8; k++ {
			dd := (d2 + k) % 8
			n := cur + t.dirs[dd]
			if t.f[n] != 0 {
				next = n
				break
			}
			if dd == 0 {
				eastExamined = true
			}
		}

		if eastExamined {
			t.f[cur] = -nbd
		} else if t.f[cur] == 1 {
			t.f[cur] = nbd
		}

		if next == start && cur == first {
			break
		}
		prev, cur = cur, next
	}
	return pts
}

// compress drops points that continue a straight run, keeping only the
// points where the step direction changes.
func compress(c Contour) Contour {
	n := len(c)
	if n < 3 {
		return c
	}
	out := make(Contour, 0, n/2+1)
	for i := 0; i < n; i++ {
		p := c[(i+n-1)%n]
		q := c[i]
		r := c[(i+1)%n]
		if q.Sub(p) != r.Sub(q) {
			out = append(out, q)
		}
	}
	if len(out) == 0 {
		return Contour{c[0]}
	}
	return out
}

// Area returns the unsigned area enclosed by the contour (shoelace formula).
func (c Contour) Area() float64 {
	n := len(c)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		a := c[i]
		b := c[(i+1)%n]
		sum += float64(a.X*b.Y - b.X*a.Y)
	}
	return math.Abs(sum) / 2
}

// ArcLength returns the perimeter of the contour treated as a closed polygon.
func (c Contour) ArcLength() float64 {
	n := len(c)
	if n < 2 {
		return 0
	}
	var total float64
	for i := 0; i < n; i++ {
		a := c[i]
		b := c[(i+1)%n]
		total += math.Hypot(float64(b.X-a.X), float64(b.Y-a.Y))
	}
	return total
}
