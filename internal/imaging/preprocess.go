package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// OCROptions controls how a sketch is cleaned up before text recognition.
type OCROptions struct {
	// UpscaleBelow enlarges images narrower than this many pixels so that
	// hand-written letters reach a size Tesseract handles well. Zero disables
	// upscaling.
	UpscaleBelow int

	// Contrast is passed to imaging.AdjustContrast (-100 to 100).
	Contrast float64
}

// Prepared is a preprocessed image and the factor its coordinates were
// scaled by relative to the original.
type Prepared struct {
	Image image.Image
	Scale float64
}

// PrepareForOCR converts img to grayscale, raises contrast, sharpens stroke
// edges and, when the image is narrow, upscales it.
//
// Coordinates measured on the result must be divided by Scale to map back to
// the original image.
func PrepareForOCR(img image.Image, opts OCROptions) *Prepared {
	var out image.Image = imaging.Grayscale(img)
	if opts.Contrast != 0 {
		out = imaging.AdjustContrast(out, opts.Contrast)
	}
	out = imaging.Sharpen(out, 0.5)

	scale := 1.0
	w := out.Bounds().Dx()
	if opts.UpscaleBelow > 0 && w > 0 && w < opts.UpscaleBelow {
		scale = float64(opts.UpscaleBelow) / float64(w)
		h := int(float64(out.Bounds().Dy()) * scale)
		out = imaging.Resize(out, opts.UpscaleBelow, h, imaging.Lanczos)
	}

	return &Prepared{Image: out, Scale: scale}
}

// EncodePNG returns img as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes img to path; the format follows the file extension.
func Save(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}
