package geometry

// ScreenMapping is the affine relation between image space and the caller's
// display space: screen = image*Scale + Offset.
//
// The display owner recomputes it whenever the preview size changes and
// passes it with every interaction.
type ScreenMapping struct {
	Scale   float64 `json:"scale"`
	OffsetX float64 `json:"offset_x"`
	OffsetY float64 `json:"offset_y"`
}

// Identity maps image space onto itself.
var Identity = ScreenMapping{Scale: 1}

// ToScreen maps an image-space point to screen space.
func (m ScreenMapping) ToScreen(p Point) Point {
	return p.Scale(m.Scale).Add(Point{X: m.OffsetX, Y: m.OffsetY})
}

// ToImage maps a screen-space point back to image space. A zero scale is
// treated as identity scaling so a zero-value mapping stays usable.
func (m ScreenMapping) ToImage(p Point) Point {
	s := m.Scale
	if s == 0 {
		s = 1
	}
	d := p.Sub(Point{X: m.OffsetX, Y: m.OffsetY})
	return Point{X: d.X / s, Y: d.Y / s}
}
