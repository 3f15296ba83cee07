package imaging

import (
	"fmt"
	"math"
)

// EdgeDetectResult contains an edge map encoded as base64 PNG.
//
// The result is a grayscale image where white pixels (255) represent detected
// edges and black pixels (0) represent non-edges.
type EdgeDetectResult struct {
	// Width of the output image in pixels (same as input).
	Width int `json:"width"`

	// Height of the output image in pixels (same as input).
	Height int `json:"height"`

	// EdgePixels is the number of pixels marked as edges.
	EdgePixels int `json:"edge_pixels"`

	// ImageBase64 is the edge image encoded as base64 PNG.
	ImageBase64 string `json:"image_base64"`

	// MimeType is always "image/png" for edge detection results.
	MimeType string `json:"mime_type"`
}

// EdgeDetect runs the same edge stage the boundary detector uses and returns
// the edge map as a PNG. It is a debugging aid for understanding why a
// document outline was or was not found.
//
// Parameters:
//   - img: Source raster (RGB or intensity).
//   - thresholdLow: Hysteresis low threshold on the L1 Sobel magnitude.
//   - thresholdHigh: Hysteresis high threshold on the L1 Sobel magnitude.
//
// The document detector uses 75 and 200.
func EdgeDetect(img *Raster, thresholdLow, thresholdHigh float64) (*EdgeDetectResult, error) {
	edges := Canny(GaussianBlur5(img.Gray()), thresholdLow, thresholdHigh)

	count := 0
	for _, v := range edges.Pix {
		if v != 0 {
			count++
		}
	}

	encoded, err := EncodeBase64PNG(edges.ToImage())
	if err != nil {
		return nil, fmt.Errorf("failed to encode edge image: %w", err)
	}

	return &EdgeDetectResult{
		Width:       edges.Width,
		Height:      edges.Height,
		EdgePixels:  count,
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}

// Canny produces a binary edge map from a single-channel raster.
//
// The input is expected to be smoothed already; Canny does not blur.
//
// # Algorithm
//
//  1. Gradient computation: 3x3 Sobel operators with replicated borders.
//     magnitude = |Gx| + |Gy| (L1 norm, on the 0-255 intensity scale)
//
//  2. Non-maximum suppression: the gradient direction is quantized to one of
//     four sectors and a pixel survives only if it is a local maximum along
//     it. On a two-pixel plateau the earlier pixel in scan order wins, so a
//     symmetric step edge yields a single-pixel line.
//
//  3. Hysteresis thresholding:
//     - Pixels above thresholdHigh are strong edges (always kept)
//     - Pixels above thresholdLow are weak edges, kept only when connected
//     to a strong edge through a chain of weak or strong pixels
//     (8-connectivity)
//     - Everything else is discarded
//
// Output pixels are 0 or 255.
func Canny(gray *Raster, thresholdLow, thresholdHigh float64) *Raster {
	w, h := gray.Width, gray.Height
	out := NewRaster(w, h, 1)
	if w < 3 || h < 3 {
		return out
	}

	src := gray
	if gray.Channels != 1 {
		src = gray.Gray()
	}

	gx := make([]float64, w*h)
	gy := make([]float64, w*h)
	mag := make([]float64, w*h)

	at := func(x, y int) float64 {
		return float64(src.Pix[clamp(y, 0, h-1)*w+clamp(x, 0, w-1)])
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			tl, tc, tr := at(x-1, y-1), at(x, y-1), at(x+1, y-1)
			ml, mr := at(x-1, y), at(x+1, y)
			bl, bc, br := at(x-1, y+1), at(x, y+1), at(x+1, y+1)

			dx := (tr + 2*mr + br) - (tl + 2*ml + bl)
			dy := (bl + 2*bc + br) - (tl + 2*tc + tr)

			i := y*w + x
			gx[i] = dx
			gy[i] = dy
			mag[i] = math.Abs(dx) + math.Abs(dy)
		}
	}

	// Non-maximum suppression; border pixels are never edges.
	suppressed := make([]float64, w*h)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			m := mag[i]
			if m <= thresholdLow {
				continue
			}

			angle := math.Atan2(gy[i], gx[i])
			var n1, n2 float64
			switch {
			case (angle >= -math.Pi/8 && angle < math.Pi/8) || angle >= 7*math.Pi/8 || angle < -7*math.Pi/8:
				n1, n2 = mag[i-1], mag[i+1]
			case (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8):
				n1, n2 = mag[i-w-1], mag[i+w+1]
			case (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8):
				n1, n2 = mag[i-w], mag[i+w]
			default:
				n1, n2 = mag[i-w+1], mag[i+w-1]
			}

			if m > n1 && m >= n2 {
				suppressed[i] = m
			}
		}
	}

	// Double threshold and edge tracking by hysteresis.
	stack := make([]int, 0, 1024)
	for i, v := range suppressed {
		if v > thresholdHigh && out.Pix[i] == 0 {
			out.Pix[i] = 255
			stack = append(stack, i)
		}
		for len(stack) > 0 {
			j := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			jx, jy := j%w, j/w
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := jx+dx, jy+dy
					if nx < 0 || nx >= w || ny < 0 || ny >= h {
						continue
					}
					k := ny*w + nx
					if out.Pix[k] == 0 && suppressed[k] > thresholdLow {
						out.Pix[k] = 255
						stack = append(stack, k)
					}
				}
			}
		}
	}

	return out
}
