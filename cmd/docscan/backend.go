//go:build !gocv

package main

import "github.com/s-elg/scannning-app/internal/detection"

const detectorBackend = "go"

func newDetector(cfg detection.Config) detection.BoundaryDetector {
	return detection.NewDetector(cfg)
}
