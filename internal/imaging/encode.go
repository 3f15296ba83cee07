package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ImageResult carries an encoded raster back to a caller that cannot share
// memory with us, such as an MCP client.
type ImageResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Channels    int    `json:"channels"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// EncodeBase64PNG encodes img as PNG and returns it base64 encoded.
func EncodeBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// EncodeRaster wraps r as a base64 PNG ImageResult.
func EncodeRaster(r *Raster) (*ImageResult, error) {
	encoded, err := EncodeBase64PNG(r.ToImage())
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return &ImageResult{
		Width:       r.Width,
		Height:      r.Height,
		Channels:    r.Channels,
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}
