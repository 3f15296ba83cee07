package imaging

// gaussian5 is the 5-tap binomial kernel, the separable form of a 5x5
// Gaussian with sigma of about 1.1.
var gaussian5 = [5]int{1, 4, 6, 4, 1}

// GaussianBlur5 applies a 5x5 Gaussian blur to r and returns a new raster.
//
// The blur is separable: a horizontal pass followed by a vertical pass with
// the kernel [1 4 6 4 1]/16. Border pixels use clamped (replicated) edge
// values. Every channel is filtered independently.
func GaussianBlur5(r *Raster) *Raster {
	w, h, c := r.Width, r.Height, r.Channels
	if w == 0 || h == 0 {
		return r.Clone()
	}

	// Horizontal pass keeps 4 extra bits of precision (sum of weights = 16).
	tmp := make([]int32, len(r.Pix))
	for y := 0; y < h; y++ {
		row := y * w
		for x := 0; x < w; x++ {
			for ch := 0; ch < c; ch++ {
				var sum int32
				for k := -2; k <= 2; k++ {
					px := clamp(x+k, 0, w-1)
					sum += int32(gaussian5[k+2]) * int32(r.Pix[(row+px)*c+ch])
				}
				tmp[(row+x)*c+ch] = sum
			}
		}
	}

	out := NewRaster(w, h, c)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for ch := 0; ch < c; ch++ {
				var sum int32
				for k := -2; k <= 2; k++ {
					py := clamp(y+k, 0, h-1)
					sum += int32(gaussian5[k+2]) * tmp[(py*w+x)*c+ch]
				}
				out.Pix[(y*w+x)*c+ch] = uint8((sum + 128) >> 8)
			}
		}
	}
	return out
}

// Dilate3x3 grows the non-zero pixels of a single-channel binary raster by one
// pixel in every direction (8-neighbourhood). Output pixels are 0 or 255.
func Dilate3x3(r *Raster) *Raster {
	w, h := r.Width, r.Height
	out := NewRaster(w, h, 1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if r.Pix[y*w+x] == 0 {
				continue
			}
			for dy := -1; dy <= 1; dy++ {
				py := y + dy
				if py < 0 || py >= h {
					continue
				}
				for dx := -1; dx <= 1; dx++ {
					px := x + dx
					if px < 0 || px >= w {
						continue
					}
					out.Pix[py*w+px] = 255
				}
			}
		}
	}
	return out
}

// clamp constrains an integer value to the range [min, max].
// Used for boundary handling in convolution operations.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
