package enhance

import (
	"testing"

	"github.com/s-elg/scannning-app/internal/imaging"
)

func createUniformRaster(width, height, channels int, v uint8) *imaging.Raster {
	r := imaging.NewRaster(width, height, channels)
	for i := range r.Pix {
		r.Pix[i] = v
	}
	return r
}

// createStripeRaster alternates black and white vertical stripes of the
// given width.
func createStripeRaster(width, height, stripe int) *imaging.Raster {
	r := imaging.NewRaster(width, height, 3)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if (x/stripe)%2 == 1 {
				off := r.Offset(x, y)
				r.Pix[off], r.Pix[off+1], r.Pix[off+2] = 255, 255, 255
			}
		}
	}
	return r
}

func TestToneLUT_DefaultCurve(t *testing.T) {
	lut := ToneLUT(DefaultToneCurve)

	tests := []struct {
		in   int
		want uint8
	}{
		{0, 0},
		{32, 8},
		{64, 16},
		{100, 79},
		{128, 128},
		{160, 184},
		{192, 240},
		{200, 241},
		{255, 255},
	}

	for _, tt := range tests {
		if got := lut[tt.in]; got != tt.want {
			t.Errorf("lut[%d] = %d, want %d", tt.in, got, tt.want)
		}
	}

	for i := 1; i < 256; i++ {
		if lut[i] < lut[i-1] {
			t.Errorf("lut not monotonic at %d: %d < %d", i, lut[i], lut[i-1])
		}
	}
}

func TestToneLUT_Degenerate(t *testing.T) {
	identity := ToneLUT(nil)
	for i := range identity {
		if identity[i] != uint8(i) {
			t.Fatalf("empty curve should be identity, lut[%d] = %d", i, identity[i])
		}
	}

	flat := ToneLUT([]CurvePoint{{In: 0, Out: 42}})
	if flat[0] != 42 || flat[255] != 42 {
		t.Errorf("single point curve should be constant 42, got %d..%d", flat[0], flat[255])
	}
}

func TestEnhance_OutputIsSingleChannel(t *testing.T) {
	tests := []struct {
		name     string
		channels int
	}{
		{"rgb", 3},
		{"gray", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := createUniformRaster(40, 30, tt.channels, 200)
			out := New(DefaultConfig()).Enhance(in)

			if out.Channels != 1 {
				t.Errorf("channels: got %d, want 1", out.Channels)
			}
			if out.Width != 40 || out.Height != 30 {
				t.Errorf("size: got %dx%d, want 40x30", out.Width, out.Height)
			}
			if err := out.Validate(); err != nil {
				t.Errorf("invalid output: %v", err)
			}
		})
	}
}

func TestEnhance_AppliesToneCurve(t *testing.T) {
	tests := []struct {
		in   uint8
		want uint8
	}{
		{32, 8},
		{128, 128},
		{192, 240},
	}

	e := New(DefaultConfig())
	for _, tt := range tests {
		out := e.Enhance(createUniformRaster(20, 20, 3, tt.in))
		if v := out.Pix[10*20+10]; v != tt.want {
			t.Errorf("uniform %d: got %d, want %d", tt.in, v, tt.want)
		}
	}
}

func TestEnhance_FlatLevelsExact(t *testing.T) {
	e := New(DefaultConfig())
	lut := ToneLUT(DefaultToneCurve)

	for level := 0; level < 256; level++ {
		out := e.Enhance(createUniformRaster(16, 16, 1, uint8(level)))
		want := lut[level]
		for i, v := range out.Pix {
			if v != want {
				t.Errorf("flat %d: pixel %d is %d, want %d", level, i, v, want)
				break
			}
		}
	}
}

func TestEnhance_WhitePaperStaysWhite(t *testing.T) {
	out := New(DefaultConfig()).Enhance(createUniformRaster(32, 24, 3, 255))
	for i, v := range out.Pix {
		if v != 255 {
			t.Fatalf("pixel %d: got %d, want 255", i, v)
		}
	}
}

func TestEnhance_ClampsToRange(t *testing.T) {
	out := New(DefaultConfig()).Enhance(createStripeRaster(100, 20, 10))

	lo, hi := uint8(255), uint8(0)
	for _, v := range out.Pix {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if lo != 0 {
		t.Errorf("black stripes should stay black, darkest is %d", lo)
	}
	if hi != 255 {
		t.Errorf("white stripes should stay white, brightest is %d", hi)
	}
}

func TestEnhance_DoesNotModifyInput(t *testing.T) {
	in := createStripeRaster(30, 10, 5)
	before := in.Clone()

	New(DefaultConfig()).Enhance(in)

	for i := range in.Pix {
		if in.Pix[i] != before.Pix[i] {
			t.Fatalf("input modified at %d", i)
		}
	}
}

func TestEnhance_Empty(t *testing.T) {
	out := New(DefaultConfig()).Enhance(&imaging.Raster{Channels: 3})
	if !out.Empty() || out.Channels != 1 {
		t.Errorf("expected empty single-channel raster, got %dx%dx%d", out.Width, out.Height, out.Channels)
	}
}

func TestEnhance_ToneOnly(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BlurRadius = 0
	cfg.Sharpen = false

	out := New(cfg).Enhance(createUniformRaster(8, 8, 1, 100))
	for i, v := range out.Pix {
		if v != 79 {
			t.Fatalf("pixel %d: got %d, want 79", i, v)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"one point", func(c *Config) { c.ToneCurve = c.ToneCurve[:1] }, true},
		{"does not reach 255", func(c *Config) { c.ToneCurve = c.ToneCurve[:4] }, true},
		{"decreasing input", func(c *Config) { c.ToneCurve[2].In = 50 }, true},
		{"negative blur", func(c *Config) { c.BlurRadius = -1 }, true},
		{"no blur", func(c *Config) { c.BlurRadius = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultConfig_CurveIsACopy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ToneCurve[1].Out = 99
	if DefaultToneCurve[1].Out != 16 {
		t.Error("mutating a config changed DefaultToneCurve")
	}
}
