// Package ocr extracts words and their positions from sketches using
// Tesseract (via gosseract/v2).
//
// Tesseract implements layout.Recognizer. Each recognized word becomes one
// layout.TextFragment whose polygon is the word box's four corners, clockwise
// from the top-left.
//
// # Prerequisites
//
// Tesseract and its language data must be installed:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// # Preprocessing
//
// Handwriting is recognized far better after cleanup, so every image goes
// through imaging.PrepareForOCR first: grayscale, contrast, light sharpening
// and, for narrow images, a Lanczos upscale. Boxes are divided by the upscale
// factor so they refer to the original pixels.
//
// # Coordinates
//
// Polygons are normalized to 0-1 by the original image size unless the
// recognizer is configured for pixel output. The detector must use the same
// format, otherwise no word will land inside any element.
package ocr
