//go:build gocv

package detection

import (
	"testing"

	"github.com/s-elg/scannning-app/internal/geometry"
	"github.com/s-elg/scannning-app/internal/imaging"
)

func TestOpenCVDetect_UprightPage(t *testing.T) {
	page := geometry.Quad{{X: 50, Y: 50}, {X: 950, Y: 50}, {X: 950, Y: 1350}, {X: 50, Y: 1350}}
	r := createDocumentRaster(1000, 1400, page)

	res := NewOpenCVDetector(DefaultConfig()).Detect(r)

	if !res.Found {
		t.Fatalf("expected a document to be found, got fallback %v", res.Quad)
	}
	if !res.Ordered {
		t.Error("upright page corners should order cleanly")
	}
	assertQuadNear(t, res.Quad, page, 2)
}

func TestOpenCVDetect_PerspectivePage(t *testing.T) {
	page := geometry.Quad{{X: 120, Y: 80}, {X: 880, Y: 40}, {X: 960, Y: 1300}, {X: 30, Y: 1380}}
	r := createDocumentRaster(1000, 1400, page)

	res := NewOpenCVDetector(DefaultConfig()).Detect(r)

	if !res.Found {
		t.Fatalf("expected a document to be found, got fallback %v", res.Quad)
	}
	assertQuadNear(t, res.Quad, page, 3)
}

func TestOpenCVDetect_UniformImageFallsBack(t *testing.T) {
	r := imaging.NewRaster(320, 240, 3)
	for i := range r.Pix {
		r.Pix[i] = 128
	}

	res := NewOpenCVDetector(DefaultConfig()).Detect(r)

	if res.Found {
		t.Errorf("uniform image should not yield an outline, got %v", res.Quad)
	}
	if res.Quad != geometry.FullFrame(320, 240) {
		t.Errorf("expected full frame fallback, got %v", res.Quad)
	}
}

func TestOpenCVDetect_EmptyRaster(t *testing.T) {
	res := NewOpenCVDetector(DefaultConfig()).Detect(imaging.NewRaster(0, 0, 3))
	if res.Found || !res.Ordered {
		t.Errorf("empty raster: got found=%v ordered=%v", res.Found, res.Ordered)
	}
}
