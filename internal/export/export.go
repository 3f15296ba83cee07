// Package export writes finished scans to disk as PDF pages or image files.
package export

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	imgproc "github.com/disintegration/imaging"
	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/s-elg/scannning-app/internal/imaging"
)

func init() {
	// pdfcpu otherwise creates a config directory under the user's home.
	pdfapi.DisableConfigDir()
}

// PDFOptions controls page layout for PDF export.
type PDFOptions struct {
	// PageSize is a paper name known to pdfcpu, such as "A4" or "Letter".
	PageSize string `json:"page_size"`

	// Scale is the fraction of the page the image may occupy. The image is
	// fitted inside that area and centred.
	Scale float64 `json:"scale"`
}

// DefaultPDFOptions returns an A4 page with roughly 10 mm margins.
func DefaultPDFOptions() PDFOptions {
	return PDFOptions{PageSize: "A4", Scale: 0.9}
}

func (o PDFOptions) importConfig() (*pdfcpu.Import, error) {
	imp := pdfcpu.DefaultImportConfig()
	if o.PageSize != "" {
		dim, ok := types.PaperSize[o.PageSize]
		if !ok {
			return nil, fmt.Errorf("unknown page size %q", o.PageSize)
		}
		imp.PageDim = dim
		imp.PageSize = o.PageSize
	}
	if o.Scale <= 0 || o.Scale > 1 {
		return nil, fmt.Errorf("scale must be in (0,1], got %v", o.Scale)
	}
	imp.Scale = o.Scale
	imp.Pos = types.Center
	return imp, nil
}

// WritePDF writes r as a single-page PDF to w. The raster is embedded as a
// lossless PNG.
func WritePDF(w io.Writer, r *imaging.Raster, opts PDFOptions) error {
	if r.Empty() {
		return fmt.Errorf("failed to write PDF: empty image")
	}

	imp, err := opts.importConfig()
	if err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}

	var png bytes.Buffer
	if err := imgproc.Encode(&png, r.ToImage(), imgproc.PNG); err != nil {
		return fmt.Errorf("failed to encode page image: %w", err)
	}

	if err := pdfapi.ImportImages(nil, w, []io.Reader{&png}, imp, nil); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

// SavePDF writes r as a single-page PDF file at path.
func SavePDF(path string, r *imaging.Raster, opts PDFOptions) error {
	var buf bytes.Buffer
	if err := WritePDF(&buf, r, opts); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to save PDF: %w", err)
	}
	return nil
}

// SaveImage writes r to path in the format implied by its extension (PNG,
// JPEG, TIFF, BMP or GIF).
func SaveImage(path string, r *imaging.Raster) error {
	if r.Empty() {
		return fmt.Errorf("failed to save image: empty image")
	}
	if err := imgproc.Save(r.ToImage(), path, imgproc.JPEGQuality(95)); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}

// Save writes r to path, choosing PDF or an image format by extension.
func Save(path string, r *imaging.Raster, opts PDFOptions) error {
	if IsPDF(path) {
		return SavePDF(path, r, opts)
	}
	return SaveImage(path, r)
}

// IsPDF reports whether path has a .pdf extension.
func IsPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}
