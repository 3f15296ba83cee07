package detection

import (
	"fmt"
	"sort"

	"github.com/s-elg/scannning-app/internal/geometry"
	"github.com/s-elg/scannning-app/internal/imaging"
)

// Config holds the tuning constants of the boundary detector.
type Config struct {
	// LowThreshold and HighThreshold are the Canny hysteresis thresholds on
	// the L1 Sobel magnitude.
	LowThreshold  float64 `json:"low_threshold"`
	HighThreshold float64 `json:"high_threshold"`

	// MaxCandidates bounds how many of the largest contours are tried.
	MaxCandidates int `json:"max_candidates"`

	// EpsilonFraction is the Douglas-Peucker tolerance as a fraction of each
	// contour's perimeter.
	EpsilonFraction float64 `json:"epsilon_fraction"`

	// DilateEdges closes one and two pixel gaps in the edge map before
	// contours are traced. When set, detected corners sit about one pixel
	// outside the page edge.
	DilateEdges bool `json:"dilate_edges"`
}

// DefaultConfig returns the detector settings used by the scanner.
func DefaultConfig() Config {
	return Config{
		LowThreshold:    75,
		HighThreshold:   200,
		MaxCandidates:   5,
		EpsilonFraction: 0.02,
		DilateEdges:     false,
	}
}

// Validate reports the first invalid setting in c.
func (c Config) Validate() error {
	if c.LowThreshold < 0 || c.HighThreshold < c.LowThreshold {
		return fmt.Errorf("invalid canny thresholds low=%v high=%v", c.LowThreshold, c.HighThreshold)
	}
	if c.MaxCandidates < 1 {
		return fmt.Errorf("max candidates must be at least 1, got %d", c.MaxCandidates)
	}
	if c.EpsilonFraction <= 0 || c.EpsilonFraction >= 1 {
		return fmt.Errorf("epsilon fraction must be in (0,1), got %v", c.EpsilonFraction)
	}
	return nil
}

// Result describes the outcome of a detection run.
type Result struct {
	// Quad is the detected document outline, or the full frame.
	Quad geometry.Quad `json:"quad"`

	// Found is false when no candidate simplified to four vertices and Quad
	// is the full-frame fallback.
	Found bool `json:"found"`

	// Ordered is false when the four vertices could not be assigned to
	// distinct corner roles and were kept in contour order.
	Ordered bool `json:"ordered"`

	// Contours is the total number of borders traced; Candidates is how many
	// of the largest were tried.
	Contours   int `json:"contours"`
	Candidates int `json:"candidates"`
}

// BoundaryDetector locates the document outline in a photograph.
// Detection cannot fail: when nothing suitable is found the full image
// frame is returned.
type BoundaryDetector interface {
	Detect(r *imaging.Raster) Result
}

// Detector is the pure-Go BoundaryDetector.
type Detector struct {
	cfg Config
}

var _ BoundaryDetector = (*Detector)(nil)

// NewDetector creates a detector with the given configuration.
func NewDetector(cfg Config) *Detector {
	return &Detector{cfg: cfg}
}

// DetectBoundary runs a default detector and returns just the quadrilateral.
func DetectBoundary(r *imaging.Raster) geometry.Quad {
	return NewDetector(DefaultConfig()).Detect(r).Quad
}

// Detect finds the document outline in r.
//
// # Algorithm
//
//  1. Reduce to intensity and apply a 5x5 Gaussian blur
//  2. Canny edge detection (optionally followed by a 3x3 dilation)
//  3. Trace all contour borders and rank them by enclosed area, largest first
//  4. Keep the top MaxCandidates and simplify each with Douglas-Peucker at
//     EpsilonFraction of its perimeter
//  5. Accept the first candidate that simplifies to exactly four vertices
//     and order its corners
//
// The first four-vertex candidate wins even if a smaller one is a better
// fit. If none qualifies the full frame is returned unordered, as it is
// already canonical.
func (d *Detector) Detect(r *imaging.Raster) Result {
	fallback := Result{Quad: geometry.FullFrame(r.Width, r.Height), Ordered: true}
	if r.Empty() {
		return fallback
	}

	edges := imaging.Canny(imaging.GaussianBlur5(r.Gray()), d.cfg.LowThreshold, d.cfg.HighThreshold)
	if d.cfg.DilateEdges {
		edges = imaging.Dilate3x3(edges)
	}

	contours := FindContours(edges)
	candidates := rankByArea(contours, d.cfg.MaxCandidates)

	fallback.Contours = len(contours)
	fallback.Candidates = len(candidates)

	for _, c := range candidates {
		poly := ApproxPolyDP(c, d.cfg.EpsilonFraction*c.ArcLength())
		if len(poly) != 4 {
			continue
		}

		var raw [4]geometry.Point
		for i, p := range poly {
			raw[i] = geometry.Pt(float64(p.X), float64(p.Y))
		}
		quad, ordered := geometry.OrderCorners(raw)

		return Result{
			Quad:       quad,
			Found:      true,
			Ordered:    ordered,
			Contours:   len(contours),
			Candidates: len(candidates),
		}
	}

	return fallback
}

// rankByArea returns up to limit contours sorted by descending area. Equal
// areas keep their trace order.
func rankByArea(contours []Contour, limit int) []Contour {
	type scored struct {
		c    Contour
		area float64
	}
	all := make([]scored, len(contours))
	for i, c := range contours {
		all[i] = scored{c, c.Area()}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].area > all[j].area
	})

	if len(all) > limit {
		all = all[:limit]
	}
	out := make([]Contour, len(all))
	for i, s := range all {
		out[i] = s.c
	}
	return out
}
