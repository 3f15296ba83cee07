package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ErrImageDecode reports that a file or stream could not be decoded as an
// image. Callers test for it with errors.Is; the pipeline is never invoked
// on such input.
var ErrImageDecode = errors.New("failed to decode image")

// Decode reads a single image from r and converts it to a Raster.
//
// EXIF orientation is applied, so a portrait phone photo stored sideways is
// returned upright. The returned format is the registered decoder name
// ("jpeg", "png", "bmp", ...).
//
// Any failure to recognise or decode the data is wrapped with ErrImageDecode.
func Decode(r io.Reader) (*Raster, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image: %w", err)
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrImageDecode, err)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrImageDecode, err)
	}

	raster := FromImage(img)
	if raster.Empty() {
		return nil, "", fmt.Errorf("%w: image has no pixels", ErrImageDecode)
	}
	return raster, format, nil
}

// Open decodes the image file at path without caching it.
func Open(path string) (*Raster, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

type cacheEntry struct {
	raster *Raster
	format string
}

// Cache provides thread-safe caching of decoded rasters to avoid redundant
// disk reads and decodes.
//
// Rasters are keyed by the exact path string used to load them. Cached
// rasters are shared between callers and must be treated as read-only, which
// every pipeline stage already guarantees.
//
// Cache is safe for concurrent use by multiple goroutines.
//
// # Memory Management
//
// Cached rasters remain in memory until explicitly removed via Evict() or
// Clear(). A 12 megapixel photo costs 36 MB as an RGB raster.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

// NewCache creates and initializes a new empty raster cache.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
	}
}

// Load retrieves a raster from the cache or decodes it from disk.
//
// # Errors
//
//   - Returns a wrapped os error if the file does not exist or cannot be read
//   - Returns an error wrapping ErrImageDecode if the content is not a
//     supported image (PNG, JPEG, GIF, BMP, TIFF, WebP)
func (c *Cache) Load(path string) (*Raster, error) {
	c.mu.RLock()
	if e, ok := c.entries[path]; ok {
		c.mu.RUnlock()
		return e.raster, nil
	}
	c.mu.RUnlock()

	raster, format, err := Open(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[path] = cacheEntry{raster: raster, format: format}
	c.mu.Unlock()

	return raster, nil
}

// Format returns the decoder name recorded for a cached path.
func (c *Cache) Format(path string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[path]
	return e.format, ok
}

// Clear removes all rasters from the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// Evict removes a specific raster from the cache by its path.
// If the path is not in the cache, this method does nothing.
func (c *Cache) Evict(path string) {
	c.mu.Lock()
	delete(c.entries, path)
	c.mu.Unlock()
}

// Len returns the number of cached rasters.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// ImageInfo contains metadata about a loaded image file.
type ImageInfo struct {
	// Width is the image width in pixels, after EXIF orientation.
	Width int `json:"width"`

	// Height is the image height in pixels, after EXIF orientation.
	Height int `json:"height"`

	// Channels is 3 for color sources and 1 for grayscale sources.
	Channels int `json:"channels"`

	// Format is the decoder that recognised the file content: "png", "jpeg",
	// "gif", "bmp", "tiff" or "webp".
	Format string `json:"format"`

	// Extension is the lower-cased file extension without the dot.
	Extension string `json:"extension"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads an image into the cache and returns metadata about it.
//
// Unlike extension-based detection, Format reflects the actual content, so a
// JPEG saved with a .png extension reports "jpeg".
func LoadImageInfo(cache *Cache, path string) (*ImageInfo, error) {
	raster, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	format, _ := cache.Format(path)

	return &ImageInfo{
		Width:         raster.Width,
		Height:        raster.Height,
		Channels:      raster.Channels,
		Format:        format,
		Extension:     strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
		FileSizeBytes: stat.Size(),
	}, nil
}
