package main

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// ---------------------------------------------------------------------------
// Header Image
// ---------------------------------------------------------------------------

// headerImageWidth is the pixel width header images are resampled to.
const headerImageWidth = 1600

// prepareHeaderImage loads the theme's header image, flattens any
// transparency onto white and crops it to the aspect of a bandW x bandH band.
// The result is PNG encoded.
func prepareHeaderImage(path string, bandW, bandH float64) ([]byte, error) {
	if bandW <= 0 || bandH <= 0 {
		return nil, fmt.Errorf("invalid header band %.1fx%.1f", bandW, bandH)
	}
	src, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open header image: %w", err)
	}

	b := src.Bounds()
	flat := imaging.Overlay(imaging.New(b.Dx(), b.Dy(), color.White), src, image.Pt(0, 0), 1.0)

	height := int(math.Round(headerImageWidth * bandH / bandW))
	band := imaging.Fill(flat, headerImageWidth, height, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, band, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode header image: %w", err)
	}
	return buf.Bytes(), nil
}
