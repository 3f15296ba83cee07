// Package editor implements manual corner correction on top of a detected
// document outline.
//
// The caller owns the display. Every interaction passes the current
// geometry.ScreenMapping so that screen positions can be related to the
// full-resolution image without the editor knowing how the preview was drawn.
package editor

import "github.com/s-elg/scannning-app/internal/geometry"

// ProximityThreshold is the squared screen distance within which a pointer
// grabs a corner (15 screen units).
const ProximityThreshold = 225.0

// HitTest returns the index of the corner closest to screen, provided it lies
// within ProximityThreshold. When two corners are exactly equidistant the
// lower index wins.
func HitTest(screen geometry.Point, quad geometry.Quad, m geometry.ScreenMapping) (int, bool) {
	best := -1
	bestDist := 0.0
	for i, corner := range quad {
		d := geometry.DistanceSquared(m.ToScreen(corner), screen)
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	if bestDist > ProximityThreshold {
		return -1, false
	}
	return best, true
}

// DragUpdate moves corner idx to the image position under screen, clamped
// into the width x height image. The other corners are left alone and the
// quad is not reordered, even if the move crosses a neighbour.
//
// quad is passed by value; the caller's copy is not modified. An index
// outside 0..3 returns quad unchanged.
func DragUpdate(idx int, screen geometry.Point, width, height int, quad geometry.Quad, m geometry.ScreenMapping) geometry.Quad {
	if idx < 0 || idx >= len(quad) {
		return quad
	}
	quad[idx] = geometry.Clamp(m.ToImage(screen), width, height)
	return quad
}
