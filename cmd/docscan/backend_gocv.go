//go:build gocv

package main

import "github.com/s-elg/scannning-app/internal/detection"

const detectorBackend = "opencv"

func newDetector(cfg detection.Config) detection.BoundaryDetector {
	return detection.NewOpenCVDetector(cfg)
}
