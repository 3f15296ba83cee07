package imaging

import (
	"image"
	"image/color"
	"testing"
)

func TestFromImage_RGB(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	img.Set(0, 0, color.NRGBA{255, 0, 0, 255})
	img.Set(2, 1, color.NRGBA{1, 2, 3, 255})

	r := FromImage(img)
	if r.Width != 3 || r.Height != 2 || r.Channels != 3 {
		t.Fatalf("geometry: got %dx%dx%d, want 3x2x3", r.Width, r.Height, r.Channels)
	}
	if err := r.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if r.Stride() != 9 {
		t.Errorf("Stride: got %d, want 9", r.Stride())
	}
	off := r.Offset(2, 1)
	if r.Pix[off] != 1 || r.Pix[off+1] != 2 || r.Pix[off+2] != 3 {
		t.Errorf("pixel (2,1): got %v, want [1 2 3]", r.Pix[off:off+3])
	}

	back := r.ToImage().(*image.NRGBA)
	if got := back.NRGBAAt(0, 0); got != (color.NRGBA{255, 0, 0, 255}) {
		t.Errorf("ToImage (0,0): got %v", got)
	}
}

func TestFromImage_OffsetBounds(t *testing.T) {
	base := image.NewRGBA(image.Rect(0, 0, 10, 10))
	base.Set(5, 5, color.RGBA{9, 9, 9, 255})
	sub := base.SubImage(image.Rect(4, 4, 8, 8))

	r := FromImage(sub)
	if r.Width != 4 || r.Height != 4 {
		t.Fatalf("dimensions: got %dx%d, want 4x4", r.Width, r.Height)
	}
	if r.Pix[r.Offset(1, 1)] != 9 {
		t.Errorf("sub-image origin not honoured: got %d at (1,1)", r.Pix[r.Offset(1, 1)])
	}
}

func TestRaster_Gray(t *testing.T) {
	tests := []struct {
		name string
		rgb  [3]uint8
		want uint8
	}{
		{"black", [3]uint8{0, 0, 0}, 0},
		{"white", [3]uint8{255, 255, 255}, 255},
		{"red", [3]uint8{255, 0, 0}, 76},
		{"green", [3]uint8{0, 255, 0}, 150},
		{"blue", [3]uint8{0, 0, 255}, 29},
		{"mid gray", [3]uint8{128, 128, 128}, 128},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRaster(1, 1, 3)
			copy(r.Pix, tt.rgb[:])
			g := r.Gray()
			if g.Channels != 1 {
				t.Fatalf("Channels: got %d, want 1", g.Channels)
			}
			if g.Pix[0] != tt.want {
				t.Errorf("Gray(%v): got %d, want %d", tt.rgb, g.Pix[0], tt.want)
			}
			if r.Pix[0] != tt.rgb[0] {
				t.Error("Gray modified its input")
			}
		})
	}
}

func TestRaster_CloneIsIndependent(t *testing.T) {
	r := NewRaster(2, 2, 1)
	c := r.Clone()
	c.Pix[0] = 200
	if r.Pix[0] != 0 {
		t.Error("Clone shares its buffer with the original")
	}
}

func TestRaster_Validate(t *testing.T) {
	bad := &Raster{Width: 4, Height: 4, Channels: 3, Pix: make([]uint8, 10)}
	if err := bad.Validate(); err == nil {
		t.Error("Validate should reject a short buffer")
	}
	four := NewRaster(2, 2, 4)
	if err := four.Validate(); err == nil {
		t.Error("Validate should reject 4 channels")
	}
}
