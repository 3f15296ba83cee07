// Package enhance turns a rectified page photo into a clean, high-contrast
// grayscale scan.
//
// The steps are fixed: grayscale, an S-shaped tone curve that pushes paper
// towards white and ink towards black, a 5x5 box blur to suppress sensor
// noise, and a mild sharpen to restore stroke edges.
package enhance

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/convolution"
	imgproc "github.com/disintegration/imaging"

	"github.com/s-elg/scannning-app/internal/imaging"
)

// CurvePoint is a control point of the tone curve.
type CurvePoint struct {
	In  uint8 `json:"in"`
	Out uint8 `json:"out"`
}

// DefaultToneCurve darkens shadows, lifts highlights and leaves mid-gray
// in place.
var DefaultToneCurve = []CurvePoint{
	{0, 0},
	{64, 16},
	{128, 128},
	{192, 240},
	{255, 255},
}

// Config holds enhancer settings.
type Config struct {
	ToneCurve []CurvePoint `json:"tone_curve"`

	// BlurRadius is the box blur radius; 2 gives a 5x5 box.
	BlurRadius float64 `json:"blur_radius"`

	// Sharpen enables the final sharpening pass.
	Sharpen bool `json:"sharpen"`
}

// DefaultConfig returns the standard scan look.
func DefaultConfig() Config {
	curve := make([]CurvePoint, len(DefaultToneCurve))
	copy(curve, DefaultToneCurve)
	return Config{
		ToneCurve:  curve,
		BlurRadius: 2,
		Sharpen:    true,
	}
}

// Validate checks the tone curve spans 0..255 with strictly increasing
// inputs and that the blur radius is usable.
func (c Config) Validate() error {
	if len(c.ToneCurve) < 2 {
		return fmt.Errorf("tone curve needs at least 2 points, got %d", len(c.ToneCurve))
	}
	if c.ToneCurve[0].In != 0 || c.ToneCurve[len(c.ToneCurve)-1].In != 255 {
		return fmt.Errorf("tone curve must start at 0 and end at 255")
	}
	for i := 1; i < len(c.ToneCurve); i++ {
		if c.ToneCurve[i].In <= c.ToneCurve[i-1].In {
			return fmt.Errorf("tone curve inputs must increase, point %d has %d after %d",
				i, c.ToneCurve[i].In, c.ToneCurve[i-1].In)
		}
	}
	if c.BlurRadius < 0 {
		return fmt.Errorf("blur radius must not be negative, got %v", c.BlurRadius)
	}
	return nil
}

// ToneLUT builds a 256-entry lookup table by linear interpolation between
// the curve's control points. Interpolated values are truncated.
func ToneLUT(curve []CurvePoint) [256]uint8 {
	var lut [256]uint8
	if len(curve) == 0 {
		for i := range lut {
			lut[i] = uint8(i)
		}
		return lut
	}

	seg := 0
	for i := range lut {
		x := float64(i)
		for seg < len(curve)-2 && x > float64(curve[seg+1].In) {
			seg++
		}
		a := curve[seg]
		b := curve[min(seg+1, len(curve)-1)]

		switch {
		case x <= float64(a.In):
			lut[i] = a.Out
		case x >= float64(b.In):
			lut[i] = b.Out
		default:
			t := (x - float64(a.In)) / float64(b.In-a.In)
			lut[i] = uint8(float64(a.Out) + t*(float64(b.Out)-float64(a.Out)))
		}
	}
	return lut
}

// roundHalf is added to every convolution sum before bild truncates it to
// 8 bits, turning truncation into round-to-nearest.
var roundHalf = &convolution.Options{Bias: 0.5, KeepAlpha: true}

// boxKernel is a normalized square averaging kernel of side 2*radius+1,
// rounded up.
func boxKernel(radius float64) convolution.Matrix {
	n := int(math.Ceil(2*radius + 1))
	k := convolution.NewKernel(n, n)
	for i := range k.Matrix {
		k.Matrix[i] = 1
	}
	return k.Normalized()
}

// sharpenKernel is [[0,-1,0],[-1,7,-1],[0,-1,0]] / 3. Its weights sum to 1,
// so with rounding a flat region keeps its level.
func sharpenKernel() *convolution.Kernel {
	k := convolution.NewKernel(3, 3)
	copy(k.Matrix, []float64{
		0, -1.0 / 3, 0,
		-1.0 / 3, 7.0 / 3, -1.0 / 3,
		0, -1.0 / 3, 0,
	})
	return k
}

// Enhancer applies the scan look to rectified pages.
type Enhancer struct {
	cfg Config
	lut [256]uint8
}

// New creates an Enhancer. The tone lookup table is built once here.
func New(cfg Config) *Enhancer {
	return &Enhancer{cfg: cfg, lut: ToneLUT(cfg.ToneCurve)}
}

// Enhance returns a single-channel enhanced copy of r. Enhancement cannot
// fail; r is not modified.
func (e *Enhancer) Enhance(r *imaging.Raster) *imaging.Raster {
	if r.Empty() {
		return imaging.NewRaster(0, 0, 1)
	}

	src := r.ToImage()
	if r.Channels != 1 {
		src = imgproc.Grayscale(src)
	}

	img := imgproc.AdjustFunc(src, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{R: e.lut[c.R], G: e.lut[c.G], B: e.lut[c.B], A: c.A}
	})

	var out image.Image = img
	if e.cfg.BlurRadius > 0 {
		out = convolution.Convolve(out, boxKernel(e.cfg.BlurRadius), roundHalf)
	}
	if e.cfg.Sharpen {
		out = convolution.Convolve(out, sharpenKernel(), roundHalf)
	}
	return imaging.GrayFromImage(out)
}
