// Package pipeline wires the scanning stages together: boundary detection,
// corner editing, perspective rectification, enhancement and export.
//
// A Pipeline holds configuration only. Every method is a pure function of its
// arguments, so one Pipeline may serve any number of goroutines working on
// independent images.
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/s-elg/scannning-app/internal/detection"
	"github.com/s-elg/scannning-app/internal/editor"
	"github.com/s-elg/scannning-app/internal/enhance"
	"github.com/s-elg/scannning-app/internal/export"
	"github.com/s-elg/scannning-app/internal/geometry"
	"github.com/s-elg/scannning-app/internal/imaging"
	"github.com/s-elg/scannning-app/internal/rectify"
)

// Config collects the settings of every stage.
type Config struct {
	Detector  detection.Config  `json:"detector"`
	Rectifier rectify.Config    `json:"rectifier"`
	Enhancer  enhance.Config    `json:"enhancer"`
	PDF       export.PDFOptions `json:"pdf"`

	// SkipEnhance returns the rectified color page instead of the enhanced
	// grayscale scan.
	SkipEnhance bool `json:"skip_enhance"`
}

// DefaultConfig returns the standard scanner settings.
func DefaultConfig() Config {
	return Config{
		Detector:  detection.DefaultConfig(),
		Rectifier: rectify.DefaultConfig(),
		Enhancer:  enhance.DefaultConfig(),
		PDF:       export.DefaultPDFOptions(),
	}
}

// Validate checks every stage's settings.
func (c Config) Validate() error {
	if err := c.Detector.Validate(); err != nil {
		return fmt.Errorf("invalid detector config: %w", err)
	}
	if err := c.Rectifier.Validate(); err != nil {
		return fmt.Errorf("invalid rectifier config: %w", err)
	}
	if err := c.Enhancer.Validate(); err != nil {
		return fmt.Errorf("invalid enhancer config: %w", err)
	}
	return nil
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithDetector replaces the pure-Go boundary detector.
func WithDetector(d detection.BoundaryDetector) Option {
	return func(p *Pipeline) {
		p.detector = d
	}
}

// Pipeline runs the scanning stages with a fixed configuration.
type Pipeline struct {
	cfg       Config
	detector  detection.BoundaryDetector
	rectifier *rectify.Rectifier
	enhancer  *enhance.Enhancer
	log       logrus.FieldLogger
}

// Result holds the outputs of Process.
type Result struct {
	// Quad is the outline the page was cut from.
	Quad geometry.Quad

	// Rectified is the upright page in the source's channel layout.
	Rectified *imaging.Raster

	// Enhanced is the single-channel scan, or nil when enhancement is
	// skipped.
	Enhanced *imaging.Raster
}

// Output returns the final page: Enhanced when present, Rectified otherwise.
func (r *Result) Output() *imaging.Raster {
	if r.Enhanced != nil {
		return r.Enhanced
	}
	return r.Rectified
}

// New validates cfg and creates a Pipeline. A nil logger discards output.
func New(cfg Config, logger logrus.FieldLogger, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}

	p := &Pipeline{
		cfg:       cfg,
		detector:  detection.NewDetector(cfg.Detector),
		rectifier: rectify.New(cfg.Rectifier),
		enhancer:  enhance.New(cfg.Enhancer),
		log:       logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Config returns the pipeline's configuration.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// DetectResult locates the document in r and reports how it was found.
func (p *Pipeline) DetectResult(r *imaging.Raster) detection.Result {
	start := time.Now()
	res := p.detector.Detect(r)

	entry := p.log.WithFields(logrus.Fields{
		"width":      r.Width,
		"height":     r.Height,
		"contours":   res.Contours,
		"candidates": res.Candidates,
		"quad":       res.Quad.String(),
		"area":       res.Quad.Area(),
		"elapsed":    time.Since(start).String(),
	})
	switch {
	case !res.Found:
		entry.Info("No document outline found, using full frame")
	case !res.Ordered:
		entry.Warn("Document outline found but corners could not be ordered")
	default:
		entry.Info("Document outline found")
	}
	return res
}

// Detect returns the document outline in r, or the full frame.
func (p *Pipeline) Detect(r *imaging.Raster) geometry.Quad {
	return p.DetectResult(r).Quad
}

// NewSession opens a corner editing session for q on r.
func (p *Pipeline) NewSession(r *imaging.Raster, q geometry.Quad) *editor.Session {
	return editor.NewSession(q, r.Width, r.Height)
}

// Rectify cuts the region inside q out of r as an upright page.
func (p *Pipeline) Rectify(r *imaging.Raster, q geometry.Quad) (*imaging.Raster, error) {
	out, err := p.rectifier.Rectify(r, q)
	if err != nil {
		p.log.WithError(err).WithField("quad", q.String()).Warn("Rectification rejected")
		return nil, err
	}
	p.log.WithFields(logrus.Fields{
		"width":  out.Width,
		"height": out.Height,
	}).Debug("Page rectified")
	return out, nil
}

// Enhance applies the scan look to a rectified page.
func (p *Pipeline) Enhance(r *imaging.Raster) *imaging.Raster {
	return p.enhancer.Enhance(r)
}

// Process rectifies r inside q and, unless disabled, enhances the result.
func (p *Pipeline) Process(r *imaging.Raster, q geometry.Quad) (*Result, error) {
	rectified, err := p.Rectify(r, q)
	if err != nil {
		return nil, err
	}

	res := &Result{Quad: q, Rectified: rectified}
	if !p.cfg.SkipEnhance {
		res.Enhanced = p.Enhance(rectified)
	}
	return res, nil
}

// Scan runs the whole pipeline on r with the detected outline.
func (p *Pipeline) Scan(r *imaging.Raster) (*Result, error) {
	return p.Process(r, p.Detect(r))
}

// ScanFile decodes the image at inPath, scans it and saves the page to
// outPath as PDF or an image, depending on the extension.
func (p *Pipeline) ScanFile(inPath, outPath string) (*Result, error) {
	r, format, err := imaging.Open(inPath)
	if err != nil {
		return nil, err
	}
	p.log.WithFields(logrus.Fields{
		"path":   inPath,
		"format": format,
		"width":  r.Width,
		"height": r.Height,
	}).Debug("Image loaded")

	res, err := p.Scan(r)
	if err != nil {
		return nil, err
	}

	if err := p.Save(outPath, res.Output()); err != nil {
		return nil, err
	}
	return res, nil
}

// Save writes page to path as PDF or an image, depending on the extension.
func (p *Pipeline) Save(path string, page *imaging.Raster) error {
	if err := export.Save(path, page, p.cfg.PDF); err != nil {
		p.log.WithError(err).WithField("path", path).Error("Export failed")
		return err
	}
	p.log.WithFields(logrus.Fields{
		"path":   path,
		"width":  page.Width,
		"height": page.Height,
	}).Info("Page exported")
	return nil
}
