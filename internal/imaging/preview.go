package imaging

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/disintegration/imaging"

	"github.com/s-elg/scannning-app/internal/geometry"
)

// Default display box used when a caller does not specify one.
const (
	DefaultPreviewWidth  = 800
	DefaultPreviewHeight = 600
)

// previewFill is the share of the limiting box dimension the image covers.
const previewFill = 0.9

// PreviewResult is a display-sized rendering of a raster together with the
// screen mapping that relates preview pixels to image pixels.
type PreviewResult struct {
	Width       int                    `json:"width"`
	Height      int                    `json:"height"`
	Mapping     geometry.ScreenMapping `json:"mapping"`
	ImageBase64 string                 `json:"image_base64"`
	MimeType    string                 `json:"mime_type"`
}

// Preview fits r into a boxWidth x boxHeight display canvas.
//
// The raster is scaled uniformly by 0.9*min(boxWidth/W, boxHeight/H) with a
// Lanczos filter and centred on a black canvas of exactly the box size. The
// returned mapping satisfies screen = image*Scale + Offset, which is the form
// the corner editor consumes.
func Preview(r *Raster, boxWidth, boxHeight int) (*image.NRGBA, geometry.ScreenMapping, error) {
	if r.Empty() {
		return nil, geometry.ScreenMapping{}, fmt.Errorf("cannot preview an empty image")
	}
	if boxWidth <= 0 || boxHeight <= 0 {
		return nil, geometry.ScreenMapping{}, fmt.Errorf("invalid preview size %dx%d", boxWidth, boxHeight)
	}

	scale := min(float64(boxWidth)/float64(r.Width), float64(boxHeight)/float64(r.Height)) * previewFill
	newWidth := max(1, int(float64(r.Width)*scale))
	newHeight := max(1, int(float64(r.Height)*scale))

	resized := imaging.Resize(r.ToImage(), newWidth, newHeight, imaging.Lanczos)

	offsetX := (boxWidth - newWidth) / 2
	offsetY := (boxHeight - newHeight) / 2

	canvas := imaging.New(boxWidth, boxHeight, image.Black)
	dst := image.Rect(offsetX, offsetY, offsetX+newWidth, offsetY+newHeight)
	draw.Draw(canvas, dst, resized, image.Point{}, draw.Src)

	return canvas, geometry.ScreenMapping{
		Scale:   scale,
		OffsetX: float64(offsetX),
		OffsetY: float64(offsetY),
	}, nil
}

// RenderPreview builds a preview with the quadrilateral overlay drawn on it
// and encodes it as base64 PNG.
func RenderPreview(r *Raster, quad geometry.Quad, boxWidth, boxHeight int, style OverlayStyle) (*PreviewResult, error) {
	canvas, mapping, err := Preview(r, boxWidth, boxHeight)
	if err != nil {
		return nil, err
	}

	DrawQuadOverlay(canvas, quad, mapping, style)

	encoded, err := EncodeBase64PNG(canvas)
	if err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}

	return &PreviewResult{
		Width:       boxWidth,
		Height:      boxHeight,
		Mapping:     mapping,
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}
