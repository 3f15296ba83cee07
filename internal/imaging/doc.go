// Package imaging provides the raster type and pixel-level plumbing shared by
// the scanning pipeline.
//
// This package implements the Raster buffer that every stage consumes and
// produces, image decoding and caching, the Gaussian and Canny edge stage used
// by boundary detection, display previews, and quadrilateral overlays.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - Preview coordinates relate to image coordinates through a
//     geometry.ScreenMapping: screen = image*Scale + Offset
//
// # Ownership
//
// Functions that take a *Raster never modify it; results are always freshly
// allocated. Rasters held by Cache are shared between callers on the strength
// of that rule.
//
// # Thread Safety
//
// The Cache type is safe for concurrent use. Individual raster operations
// are stateless and can be called concurrently on different images.
//
// # Error Handling
//
// Decoding failures wrap ErrImageDecode so that callers can distinguish
// unreadable content from missing files:
//
//	r, err := cache.Load(path)
//	if errors.Is(err, imaging.ErrImageDecode) {
//	    // not an image
//	}
//
// # Supported Formats
//
// PNG, JPEG and GIF through the standard library; BMP, TIFF and WebP through
// golang.org/x/image. JPEG EXIF orientation is honoured on decode.
package imaging
