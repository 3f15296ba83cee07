package imaging

import (
	"image"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/s-elg/scannning-app/internal/geometry"
)

// OverlayStyle controls how a quadrilateral is drawn onto a preview.
// Colors are hex strings such as "#00FFFF"; an unparseable value falls back
// to the default for that element.
type OverlayStyle struct {
	EdgeColor    string    `json:"edge_color"`
	CornerColors [4]string `json:"corner_colors"`
	LineWidth    int       `json:"line_width"`
	MarkerRadius int       `json:"marker_radius"`
}

// DefaultOverlayStyle draws cyan edges and one distinct marker color per
// corner (top-left red, top-right blue, bottom-right green, bottom-left
// purple).
func DefaultOverlayStyle() OverlayStyle {
	return OverlayStyle{
		EdgeColor:    "#00FFFF",
		CornerColors: [4]string{"#FF0000", "#0000FF", "#00FF00", "#800080"},
		LineWidth:    2,
		MarkerRadius: 5,
	}
}

// DrawQuadOverlay draws the edges and corner markers of quad onto img, mapping
// image-space corners through m. img is modified in place.
func DrawQuadOverlay(img *image.NRGBA, quad geometry.Quad, m geometry.ScreenMapping, style OverlayStyle) {
	def := DefaultOverlayStyle()
	if style.LineWidth <= 0 {
		style.LineWidth = def.LineWidth
	}
	if style.MarkerRadius <= 0 {
		style.MarkerRadius = def.MarkerRadius
	}

	edge := parseColor(style.EdgeColor, def.EdgeColor)

	var screen [4]geometry.Point
	for i, p := range quad {
		screen[i] = m.ToScreen(p)
	}

	for i := 0; i < 4; i++ {
		drawLine(img, screen[i], screen[(i+1)%4], style.LineWidth, edge)
	}
	for i, p := range screen {
		fill := parseColor(style.CornerColors[i], def.CornerColors[i])
		drawDisc(img, p, float64(style.MarkerRadius), fill)
	}
}

// parseColor converts a hex string to an opaque NRGBA color, using fallback
// when hex is empty or malformed.
func parseColor(hex, fallback string) color.NRGBA {
	c, err := colorful.Hex(hex)
	if err != nil {
		c, _ = colorful.Hex(fallback)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

// drawLine strokes a segment by stamping square pens of the given width
// along it at unit steps.
func drawLine(img *image.NRGBA, a, b geometry.Point, width int, c color.NRGBA) {
	steps := int(math.Ceil(math.Max(math.Abs(b.X-a.X), math.Abs(b.Y-a.Y))))
	if steps == 0 {
		steps = 1
	}
	half := width / 2
	for s := 0; s <= steps; s++ {
		t := float64(s) / float64(steps)
		x := int(math.Round(a.X + (b.X-a.X)*t))
		y := int(math.Round(a.Y + (b.Y-a.Y)*t))
		for dy := -half; dy < width-half; dy++ {
			for dx := -half; dx < width-half; dx++ {
				setIfInside(img, x+dx, y+dy, c)
			}
		}
	}
}

// drawDisc fills a circle of radius r centred on p.
func drawDisc(img *image.NRGBA, p geometry.Point, r float64, c color.NRGBA) {
	cx, cy := int(math.Round(p.X)), int(math.Round(p.Y))
	ir := int(math.Ceil(r))
	for dy := -ir; dy <= ir; dy++ {
		for dx := -ir; dx <= ir; dx++ {
			if float64(dx*dx+dy*dy) <= r*r {
				setIfInside(img, cx+dx, cy+dy, c)
			}
		}
	}
}

func setIfInside(img *image.NRGBA, x, y int, c color.NRGBA) {
	if (image.Point{X: x, Y: y}).In(img.Bounds()) {
		img.SetNRGBA(x, y, c)
	}
}
