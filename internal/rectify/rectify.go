// Package rectify unwarps a perspective-distorted document into a flat,
// fronto-parallel image.
//
// The output size is derived from the quadrilateral's side lengths and then
// normalised to a fixed page aspect ratio (A4 by default), so that a photo of
// a page taken at an angle comes out with page proportions.
package rectify

import (
	"errors"
	"fmt"
	"math"

	"github.com/s-elg/scannning-app/internal/geometry"
	"github.com/s-elg/scannning-app/internal/imaging"
)

// ErrDegenerateQuadrilateral is returned when a quadrilateral cannot define a
// perspective transform: corners coincide, three of them are colinear, its
// sides cross, or the resulting page would be smaller than 2x2 pixels.
var ErrDegenerateQuadrilateral = errors.New("degenerate quadrilateral")

// A4AspectRatio is the long-to-short side ratio of ISO 216 paper.
const A4AspectRatio = 1.414

const (
	// coincidentEpsilon is the distance in pixels below which two corners are
	// considered the same point.
	coincidentEpsilon = 0.5

	// colinearEpsilon bounds the triangle spanned by any three corners,
	// relative to the square of its longest side.
	colinearEpsilon = 1e-3

	minSide = 2
)

// Config holds rectifier settings.
type Config struct {
	// AspectRatio is the ratio of the long page side to the short one.
	AspectRatio float64 `json:"aspect_ratio"`
}

// DefaultConfig returns A4 proportions.
func DefaultConfig() Config {
	return Config{AspectRatio: A4AspectRatio}
}

// Validate reports an invalid aspect ratio.
func (c Config) Validate() error {
	if c.AspectRatio < 1 || math.IsInf(c.AspectRatio, 0) || math.IsNaN(c.AspectRatio) {
		return fmt.Errorf("aspect ratio must be a finite value >= 1, got %v", c.AspectRatio)
	}
	return nil
}

// Rectifier maps the region inside a quadrilateral onto an upright page.
type Rectifier struct {
	cfg Config
}

// New creates a Rectifier.
func New(cfg Config) *Rectifier {
	return &Rectifier{cfg: cfg}
}

// CheckQuad returns a wrapped ErrDegenerateQuadrilateral describing why q
// cannot be rectified, or nil.
func CheckQuad(q geometry.Quad) error {
	for _, p := range q {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return fmt.Errorf("%w: non-finite corner", ErrDegenerateQuadrilateral)
		}
	}
	if q.HasCoincidentCorners(coincidentEpsilon) {
		return fmt.Errorf("%w: corners coincide", ErrDegenerateQuadrilateral)
	}
	if q.HasColinearTriple(colinearEpsilon) {
		return fmt.Errorf("%w: three corners are colinear", ErrDegenerateQuadrilateral)
	}
	if q.IsSelfIntersecting() {
		return fmt.Errorf("%w: sides cross", ErrDegenerateQuadrilateral)
	}
	if !q.IsConvex() {
		return fmt.Errorf("%w: outline is concave", ErrDegenerateQuadrilateral)
	}
	return nil
}

// TargetSize computes the output page size for q.
//
// The raw size is the longer of each pair of opposite sides, truncated to
// whole pixels. The shorter dimension is then recomputed from the longer one
// and the aspect ratio: landscape keeps the width, anything else keeps the
// height.
func TargetSize(q geometry.Quad, aspect float64) (width, height int, err error) {
	top, right, bottom, left := q.Edges()
	width = max(int(top), int(bottom))
	height = max(int(left), int(right))
	if height == 0 {
		return 0, 0, fmt.Errorf("%w: zero height", ErrDegenerateQuadrilateral)
	}

	if float64(width)/float64(height) > 1 {
		height = int(float64(width) / aspect)
	} else {
		width = int(float64(height) / aspect)
	}

	if width < minSide || height < minSide {
		return width, height, fmt.Errorf("%w: target %dx%d too small", ErrDegenerateQuadrilateral, width, height)
	}
	return width, height, nil
}

// Transform returns the homography taking q onto the upright page of the
// given size.
func Transform(q geometry.Quad, width, height int) (Matrix, error) {
	w := float64(width - 1)
	h := float64(height - 1)
	dst := [4]geometry.Point{{X: 0, Y: 0}, {X: w, Y: 0}, {X: w, Y: h}, {X: 0, Y: h}}
	return ComputeHomography(q, dst)
}

// Rectify extracts the region inside q from src as an upright page with the
// configured aspect ratio. The output has the same channel count as src.
// Destination pixels whose preimage falls outside src are black.
//
// q is read, never modified.
func (r *Rectifier) Rectify(src *imaging.Raster, q geometry.Quad) (*imaging.Raster, error) {
	if src.Empty() {
		return nil, errors.New("failed to rectify: empty image")
	}
	if err := src.Validate(); err != nil {
		return nil, fmt.Errorf("failed to rectify: %w", err)
	}
	if err := CheckQuad(q); err != nil {
		return nil, err
	}

	width, height, err := TargetSize(q, r.cfg.AspectRatio)
	if err != nil {
		return nil, err
	}

	forward, err := Transform(q, width, height)
	if err != nil {
		return nil, err
	}
	inverse, err := forward.Inverse()
	if err != nil {
		return nil, err
	}

	return warp(src, inverse, width, height), nil
}

// warp fills a width x height raster by pulling each pixel from src through
// inv.
func warp(src *imaging.Raster, inv Matrix, width, height int) *imaging.Raster {
	dst := imaging.NewRaster(width, height, src.Channels)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p, ok := inv.Apply(geometry.Pt(float64(x), float64(y)))
			if !ok {
				continue
			}
			bilinear(src, p.X, p.Y, dst.Pix[dst.Offset(x, y):dst.Offset(x, y)+dst.Channels])
		}
	}
	return dst
}

// bilinear writes the interpolated sample of src at (x, y) into out. Points
// outside the pixel grid leave out untouched (black).
func bilinear(src *imaging.Raster, x, y float64, out []uint8) {
	maxX := float64(src.Width - 1)
	maxY := float64(src.Height - 1)
	if x < 0 || y < 0 || x > maxX || y > maxY {
		return
	}

	x0 := int(x)
	y0 := int(y)
	x1 := min(x0+1, src.Width-1)
	y1 := min(y0+1, src.Height-1)
	fx := x - float64(x0)
	fy := y - float64(y0)

	o00 := src.Offset(x0, y0)
	o10 := src.Offset(x1, y0)
	o01 := src.Offset(x0, y1)
	o11 := src.Offset(x1, y1)
	for c := range out {
		top := lerp(float64(src.Pix[o00+c]), float64(src.Pix[o10+c]), fx)
		bottom := lerp(float64(src.Pix[o01+c]), float64(src.Pix[o11+c]), fx)
		out[c] = uint8(math.Min(lerp(top, bottom, fy)+0.5, 255))
	}
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
