//go:build gocv

package detection

import (
	"image"
	"sort"

	"gocv.io/x/gocv"

	"github.com/s-elg/scannning-app/internal/geometry"
	"github.com/s-elg/scannning-app/internal/imaging"
)

// OpenCVDetector is a BoundaryDetector backed by OpenCV through gocv.
//
// It follows the same steps as Detector but delegates blur, Canny, contour
// tracing and polygon approximation to OpenCV. Build with -tags gocv and an
// OpenCV 4 installation to enable it.
type OpenCVDetector struct {
	cfg Config
}

var _ BoundaryDetector = (*OpenCVDetector)(nil)

// NewOpenCVDetector creates an OpenCV-backed detector.
func NewOpenCVDetector(cfg Config) *OpenCVDetector {
	return &OpenCVDetector{cfg: cfg}
}

// Detect implements BoundaryDetector.
func (d *OpenCVDetector) Detect(r *imaging.Raster) Result {
	fallback := Result{Quad: geometry.FullFrame(r.Width, r.Height), Ordered: true}
	if r.Empty() {
		return fallback
	}

	gray := r.Gray()
	mat, err := gocv.NewMatFromBytes(gray.Height, gray.Width, gocv.MatTypeCV8UC1, gray.Pix)
	if err != nil {
		return fallback
	}
	defer mat.Close()

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(mat, &blurred, image.Pt(5, 5), 0, 0, gocv.BorderDefault)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(blurred, &edges, float32(d.cfg.LowThreshold), float32(d.cfg.HighThreshold))

	if d.cfg.DilateEdges {
		kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3))
		defer kernel.Close()
		gocv.Dilate(edges, &edges, kernel)
	}

	contours := gocv.FindContours(edges, gocv.RetrievalList, gocv.ChainApproxSimple)
	defer contours.Close()

	type scored struct {
		idx  int
		area float64
	}
	ranked := make([]scored, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		ranked[i] = scored{i, gocv.ContourArea(contours.At(i))}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].area > ranked[j].area
	})
	if len(ranked) > d.cfg.MaxCandidates {
		ranked = ranked[:d.cfg.MaxCandidates]
	}

	fallback.Contours = contours.Size()
	fallback.Candidates = len(ranked)

	for _, s := range ranked {
		contour := contours.At(s.idx)
		epsilon := d.cfg.EpsilonFraction * gocv.ArcLength(contour, true)
		approx := gocv.ApproxPolyDP(contour, epsilon, true)
		if approx.Size() != 4 {
			approx.Close()
			continue
		}

		var raw [4]geometry.Point
		for i, p := range approx.ToPoints() {
			raw[i] = geometry.Pt(float64(p.X), float64(p.Y))
		}
		approx.Close()

		quad, ordered := geometry.OrderCorners(raw)
		return Result{
			Quad:       quad,
			Found:      true,
			Ordered:    ordered,
			Contours:   fallback.Contours,
			Candidates: fallback.Candidates,
		}
	}

	return fallback
}
