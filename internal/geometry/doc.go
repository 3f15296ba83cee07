// Package geometry provides the planar primitives shared by the scanning
// pipeline: points, ordered quadrilaterals, corner ordering, and the
// degeneracy predicates the rectifier relies on.
//
// # Coordinate System
//
// Coordinates are real-valued and image-space:
//   - Origin (0, 0) at the top-left pixel
//   - X increases rightward
//   - Y increases downward
//
// A Quad is always indexed TopLeft, TopRight, BottomRight, BottomLeft. Values
// produced by OrderCorners or FullFrame satisfy that ordering; values edited
// by hand may not, and IsSelfIntersecting exists to catch that case.
package geometry
