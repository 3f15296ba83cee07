package imaging

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Raster is a row-major interleaved 8-bit pixel buffer.
//
// Channels is 1 (intensity) or 3 (RGB). Pixel (x, y) channel c lives at
// Pix[(y*Width+x)*Channels+c].
//
// Pipeline stages never modify a Raster they are given; each returns a new
// one. Callers that hand a Raster to more than one consumer may therefore
// share it without copying.
type Raster struct {
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Channels int     `json:"channels"`
	Pix      []uint8 `json:"-"`
}

// NewRaster allocates a zeroed width x height raster with the given channel count.
func NewRaster(width, height, channels int) *Raster {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Raster{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]uint8, width*height*channels),
	}
}

// Stride returns the number of bytes per row.
func (r *Raster) Stride() int {
	return r.Width * r.Channels
}

// Offset returns the index of the first channel of pixel (x, y).
func (r *Raster) Offset(x, y int) int {
	return y*r.Stride() + x*r.Channels
}

// Empty reports whether the raster has no pixels.
func (r *Raster) Empty() bool {
	return r == nil || r.Width == 0 || r.Height == 0
}

// Clone returns a deep copy of r.
func (r *Raster) Clone() *Raster {
	out := &Raster{Width: r.Width, Height: r.Height, Channels: r.Channels}
	out.Pix = make([]uint8, len(r.Pix))
	copy(out.Pix, r.Pix)
	return out
}

// FromImage converts any image.Image into a Raster.
//
// Grayscale sources (*image.Gray) become single-channel rasters. Everything
// else is drawn onto an RGBA canvas and stored as 3-channel RGB; transparent
// areas therefore come out black.
func FromImage(img image.Image) *Raster {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	if g, ok := img.(*image.Gray); ok {
		out := NewRaster(w, h, 1)
		for y := 0; y < h; y++ {
			row := g.Pix[y*g.Stride : y*g.Stride+w]
			copy(out.Pix[y*w:(y+1)*w], row)
		}
		return out
	}

	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)

	out := NewRaster(w, h, 3)
	for y := 0; y < h; y++ {
		src := rgba.Pix[y*rgba.Stride:]
		dst := out.Pix[y*w*3:]
		for x := 0; x < w; x++ {
			dst[x*3] = src[x*4]
			dst[x*3+1] = src[x*4+1]
			dst[x*3+2] = src[x*4+2]
		}
	}
	return out
}

// ToImage converts r to an image.Image: *image.Gray for single-channel
// rasters, *image.NRGBA (fully opaque) for RGB.
func (r *Raster) ToImage() image.Image {
	rect := image.Rect(0, 0, r.Width, r.Height)
	if r.Channels == 1 {
		g := image.NewGray(rect)
		copy(g.Pix, r.Pix)
		return g
	}

	img := image.NewNRGBA(rect)
	for i, j := 0, 0; i < len(r.Pix); i, j = i+r.Channels, j+4 {
		img.Pix[j] = r.Pix[i]
		img.Pix[j+1] = r.Pix[i+1]
		img.Pix[j+2] = r.Pix[i+2]
		img.Pix[j+3] = 255
	}
	return img
}

// GrayFromImage converts img to a single-channel raster through
// color.GrayModel. Images whose channels are already equal, such as the
// outputs of grayscale filters, pass through unchanged.
func GrayFromImage(img image.Image) *Raster {
	b := img.Bounds()
	out := NewRaster(b.Dx(), b.Dy(), 1)
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			c := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
			out.Pix[y*out.Width+x] = c.Y
		}
	}
	return out
}

// Gray returns a single-channel intensity copy of r.
//
// RGB pixels are reduced with the ITU-R BT.601 weights in 14-bit fixed point
// (0.299 R + 0.587 G + 0.114 B, rounded). Single-channel input is cloned.
func (r *Raster) Gray() *Raster {
	if r.Channels == 1 {
		return r.Clone()
	}

	out := NewRaster(r.Width, r.Height, 1)
	for i, j := 0, 0; j < len(out.Pix); i, j = i+r.Channels, j+1 {
		rv := uint32(r.Pix[i])
		gv := uint32(r.Pix[i+1])
		bv := uint32(r.Pix[i+2])
		out.Pix[j] = uint8((rv*4899 + gv*9617 + bv*1868 + 8192) >> 14)
	}
	return out
}

// Validate checks that the buffer length matches the declared geometry.
func (r *Raster) Validate() error {
	if r.Channels != 1 && r.Channels != 3 {
		return fmt.Errorf("unsupported channel count %d", r.Channels)
	}
	if len(r.Pix) != r.Width*r.Height*r.Channels {
		return fmt.Errorf("pixel buffer has %d bytes, want %d for %dx%dx%d",
			len(r.Pix), r.Width*r.Height*r.Channels, r.Width, r.Height, r.Channels)
	}
	return nil
}
