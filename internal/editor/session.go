package editor

import (
	"errors"
	"fmt"

	"github.com/s-elg/scannning-app/internal/geometry"
)

var (
	// ErrSessionFinalized is returned by edits made after Finalize.
	ErrSessionFinalized = errors.New("editing session already finalized")

	// ErrNoCornerGrabbed is returned by Drag when no corner is held.
	ErrNoCornerGrabbed = errors.New("no corner grabbed")
)

// Session holds the state of one corner editing session: the working quad,
// the grabbed corner (if any) and the bounds of the source image.
//
// A Session is not safe for concurrent use.
type Session struct {
	quad      geometry.Quad
	grabbed   int
	width     int
	height    int
	finalized bool
}

// NewSession starts editing quad on a width x height image.
func NewSession(quad geometry.Quad, width, height int) *Session {
	return &Session{
		quad:    quad,
		grabbed: -1,
		width:   width,
		height:  height,
	}
}

// Grab hit-tests screen against the current quad and, on a hit, holds that
// corner until Release. A miss releases any previously held corner.
func (s *Session) Grab(screen geometry.Point, m geometry.ScreenMapping) (int, bool, error) {
	if s.finalized {
		return -1, false, ErrSessionFinalized
	}
	idx, ok := HitTest(screen, s.quad, m)
	s.grabbed = idx
	return idx, ok, nil
}

// GrabCorner holds corner idx directly, without a hit test.
func (s *Session) GrabCorner(idx int) error {
	if s.finalized {
		return ErrSessionFinalized
	}
	if idx < 0 || idx > 3 {
		return fmt.Errorf("invalid corner index %d", idx)
	}
	s.grabbed = idx
	return nil
}

// Drag moves the held corner to screen and returns the updated quad.
func (s *Session) Drag(screen geometry.Point, m geometry.ScreenMapping) (geometry.Quad, error) {
	if s.finalized {
		return s.quad, ErrSessionFinalized
	}
	if s.grabbed < 0 {
		return s.quad, ErrNoCornerGrabbed
	}
	s.quad = DragUpdate(s.grabbed, screen, s.width, s.height, s.quad, m)
	return s.quad, nil
}

// Release lets go of the held corner. Releasing with nothing held is a no-op.
func (s *Session) Release() {
	s.grabbed = -1
}

// SetQuad replaces the working quad, clamping every corner into the image.
func (s *Session) SetQuad(q geometry.Quad) error {
	if s.finalized {
		return ErrSessionFinalized
	}
	for i := range q {
		q[i] = geometry.Clamp(q[i], s.width, s.height)
	}
	s.quad = q
	s.grabbed = -1
	return nil
}

// Quad returns a copy of the working quad.
func (s *Session) Quad() geometry.Quad {
	return s.quad
}

// Grabbed returns the held corner index, or -1.
func (s *Session) Grabbed() int {
	return s.grabbed
}

// Bounds returns the image size the session clamps against.
func (s *Session) Bounds() (width, height int) {
	return s.width, s.height
}

// Finalized reports whether Finalize has been called.
func (s *Session) Finalized() bool {
	return s.finalized
}

// Clone returns an independent copy of the session.
func (s *Session) Clone() *Session {
	c := *s
	return &c
}

// Finalize ends the session and hands the quad over for rectification. Any
// later edit fails with ErrSessionFinalized.
func (s *Session) Finalize() (geometry.Quad, error) {
	if s.finalized {
		return s.quad, ErrSessionFinalized
	}
	s.finalized = true
	s.grabbed = -1
	return s.quad, nil
}
