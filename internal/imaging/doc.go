// Package imaging loads sketch images and prepares them for recognition.
//
// Coordinates follow the usual image convention: origin at the top-left
// corner, X to the right, Y downward.
//
// # Caching
//
// ImageCache decodes each path once and hands out the same image.Image on
// later calls. It is safe for concurrent use. Sketches are redrawn between
// builds, so callers evict a path before rebuilding it.
//
// # Preprocessing
//
// PrepareForOCR turns a colored hand-drawn sketch into a high-contrast
// grayscale image, upscaled when narrow, using github.com/disintegration/imaging.
// The returned scale factor maps coordinates back to the original image.
package imaging
