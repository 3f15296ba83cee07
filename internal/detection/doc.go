// Package detection finds the outline of a document in a photograph.
//
// The detector assumes a roughly uniform background and a page whose border
// produces a strong, mostly continuous edge. It reports the largest contour
// that simplifies to a quadrilateral, and never fails: when no such contour
// exists the whole image frame is returned instead.
//
// # Pipeline
//
//  1. Edge Detection: intensity, 5x5 Gaussian, Canny (75/200 by default)
//  2. Contour Extraction: Suzuki-Abe border following over the edge map,
//     outer and hole borders alike
//  3. Candidate Selection: the five largest contours by enclosed area
//  4. Polygon Approximation: Douglas-Peucker at 2% of each perimeter; the
//     first candidate with exactly four vertices wins
//  5. Corner Ordering: geometry.OrderCorners, falling back to contour order
//     when two corners compete for the same role
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//
// # Backends
//
// Detector is implemented in pure Go. Building with -tags gocv adds
// OpenCVDetector, which runs the same pipeline through OpenCV; both satisfy
// BoundaryDetector.
//
// # Limitations
//
// Low-contrast pages (white paper on a white desk), pages cut off by the
// frame, and heavily curled pages usually fall back to the full frame. The
// result is meant as a starting point for manual corner correction.
package detection
