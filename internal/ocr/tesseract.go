package ocr

import (
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/unicode/norm"

	"github.com/ironsheep/sketch-layout-mcp/internal/config"
	"github.com/ironsheep/sketch-layout-mcp/internal/imaging"
	"github.com/ironsheep/sketch-layout-mcp/internal/layout"
)

// Options tunes the recognizer.
type Options struct {
	// Language is a Tesseract language code such as "eng" or "eng+deu".
	Language string

	// Prep controls the cleanup applied before recognition.
	Prep imaging.OCROptions

	// Pixel reports polygons in pixels instead of normalized 0-1
	// coordinates. It must match the detector's box format.
	Pixel bool
}

// Tesseract recognizes words in an image and reports each one as a
// four-point polygon in the original image's coordinate space.
type Tesseract struct {
	cache *imaging.ImageCache
	opts  Options
	log   *logrus.Entry
}

// New returns a Tesseract recognizer configured from cfg. bboxFormat selects
// pixel or normalized output.
func New(cfg config.OCRConfig, bboxFormat string, cache *imaging.ImageCache) *Tesseract {
	if cache == nil {
		cache = imaging.NewImageCache()
	}
	lang := cfg.Language
	if lang == "" {
		lang = "eng"
	}
	return &Tesseract{
		cache: cache,
		opts: Options{
			Language: lang,
			Prep: imaging.OCROptions{
				UpscaleBelow: cfg.UpscaleBelow,
				Contrast:     cfg.Contrast,
			},
			Pixel: bboxFormat == "pixel_xyxy",
		},
		log: logrus.WithField("component", "ocr"),
	}
}

// Recognize runs OCR over the image at imagePath.
//
// The image is converted to grayscale, contrast-adjusted and upscaled when
// narrow before it is handed to Tesseract. Word boxes are mapped back through
// the upscale so they line up with the detector's boxes.
func (t *Tesseract) Recognize(imagePath string) (*layout.OCRResult, error) {
	img, err := t.cache.Load(imagePath)
	if err != nil {
		return nil, err
	}

	prepared := imaging.PrepareForOCR(img, t.opts.Prep)
	data, err := imaging.EncodePNG(prepared.Image)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image for OCR: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(strings.Split(t.opts.Language, "+")...); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("tesseract word extraction failed: %w", err)
	}

	b := img.Bounds()
	entries := Words(boxes, prepared.Scale, b.Dx(), b.Dy(), t.opts.Pixel)

	t.log.WithFields(logrus.Fields{
		"image": imagePath,
		"words": len(entries),
		"scale": prepared.Scale,
	}).Debug("ocr complete")

	return &layout.OCRResult{Entries: entries}, nil
}

// Words converts Tesseract word boxes to text fragments.
//
// scale is the factor the image was enlarged by before recognition; boxes are
// divided by it. Unless pixel is set the result is normalized by width and
// height. Words that are blank after trimming are dropped and the rest are
// NFC-normalized. Confidence is mapped from 0-100 to 0-1.
func Words(boxes []gosseract.BoundingBox, scale float64, width, height int, pixel bool) []layout.TextFragment {
	if scale <= 0 {
		scale = 1
	}

	entries := make([]layout.TextFragment, 0, len(boxes))
	for _, box := range boxes {
		text := norm.NFC.String(strings.TrimSpace(box.Word))
		if text == "" {
			continue
		}
		entries = append(entries, layout.TextFragment{
			Text:       text,
			BBox:       polygon(box.Box, scale, width, height, pixel),
			Confidence: math.Round(box.Confidence*10) / 1000,
		})
	}
	return entries
}

// polygon returns the corners of r clockwise from the top-left.
func polygon(r image.Rectangle, scale float64, width, height int, pixel bool) layout.Polygon {
	x1 := float64(r.Min.X) / scale
	y1 := float64(r.Min.Y) / scale
	x2 := float64(r.Max.X) / scale
	y2 := float64(r.Max.Y) / scale

	if !pixel && width > 0 && height > 0 {
		w, h := float64(width), float64(height)
		x1, x2 = round4(x1/w), round4(x2/w)
		y1, y2 = round4(y1/h), round4(y2/h)
	}

	return layout.Polygon{{x1, y1}, {x2, y1}, {x2, y2}, {x1, y2}}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
