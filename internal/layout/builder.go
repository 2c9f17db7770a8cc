package layout

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// Detector produces labeled element boxes for an image.
//
// annotatedPath, when non-empty, asks the detector to also write a copy of
// the image with the detections drawn on it.
type Detector interface {
	Detect(imagePath, annotatedPath string) (*DetectionResult, error)
}

// Recognizer produces OCR text fragments for an image. Its boxes must be in
// the same coordinate space as the Detector's.
type Recognizer interface {
	Recognize(imagePath string) (*OCRResult, error)
}

// Fuse combines a detection result and an OCR result into a Layout: text is
// attached with Attach, then elements are ordered with Cluster.
//
// Either argument may be nil and is then treated as empty. NaN and infinite
// coordinates are replaced by 0 before matching; the inputs are not
// modified.
func Fuse(det *DetectionResult, ocr *OCRResult, gap float64) *Layout {
	if det == nil {
		det = &DetectionResult{}
	}
	var fragments []TextFragment
	if ocr != nil {
		fragments = finiteFragments(ocr.Entries)
	}

	elements, unassigned := Attach(finiteElements(det.Elements), fragments)

	format := det.BBoxFormat
	if format == "" {
		format = DefaultBBoxFormat
	}

	return &Layout{
		ImagePath:      det.ImagePath,
		ImageSize:      det.ImageSize,
		BBoxFormat:     format,
		Elements:       Cluster(elements, gap),
		UnassignedText: unassigned,
	}
}

// Builder runs detection and OCR for one image and fuses the results.
type Builder struct {
	detector   Detector
	recognizer Recognizer
	gap        float64
	log        *logrus.Entry
}

// BuilderOption customizes a Builder.
type BuilderOption func(*Builder)

// WithSectionGap sets the clustering gap. Non-positive values are ignored.
func WithSectionGap(gap float64) BuilderOption {
	return func(b *Builder) {
		if gap > 0 {
			b.gap = gap
		}
	}
}

// WithLogger sets the logger used for build progress.
func WithLogger(log *logrus.Entry) BuilderOption {
	return func(b *Builder) {
		if log != nil {
			b.log = log
		}
	}
}

// NewBuilder returns a Builder over the given collaborators.
func NewBuilder(detector Detector, recognizer Recognizer, opts ...BuilderOption) *Builder {
	b := &Builder{
		detector:   detector,
		recognizer: recognizer,
		gap:        DefaultSectionGap,
		log:        logrus.WithField("component", "layout"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Gap returns the section gap in use.
func (b *Builder) Gap() float64 { return b.gap }

// Build detects elements, recognizes text and fuses both into a Layout.
//
// Detection and OCR run strictly one after the other. Their failures are
// returned wrapped; fusion itself never fails. A nil result from either
// collaborator counts as empty.
func (b *Builder) Build(imagePath, annotatedPath string) (*Layout, error) {
	log := b.log.WithField("image", imagePath)

	det, err := b.detector.Detect(imagePath, annotatedPath)
	if err != nil {
		return nil, fmt.Errorf("detection failed: %w", err)
	}
	if det == nil {
		det = &DetectionResult{ImagePath: imagePath}
	}
	log.WithField("elements", len(det.Elements)).Debug("detection complete")

	ocr, err := b.recognizer.Recognize(imagePath)
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}
	if ocr == nil {
		ocr = &OCRResult{}
	}
	log.WithField("fragments", len(ocr.Entries)).Debug("OCR complete")

	layout := Fuse(det, ocr, b.gap)
	log.WithFields(logrus.Fields{
		"elements":   len(layout.Elements),
		"unassigned": len(layout.UnassignedText),
	}).Info("layout built")

	return layout, nil
}

// finiteElements returns elements with NaN and infinite box coordinates and
// confidences replaced by 0, so the layout can always be encoded. The input
// is returned as-is when every value is finite.
func finiteElements(elements []DetectedElement) []DetectedElement {
	var out []DetectedElement
	for i, el := range elements {
		box, ok := finiteBox(el.BBox)
		conf, confOK := finite(el.Confidence)
		if ok && confOK {
			continue
		}
		if out == nil {
			out = make([]DetectedElement, len(elements))
			copy(out, elements)
		}
		out[i].BBox = box
		out[i].Confidence = conf
	}
	if out == nil {
		return elements
	}
	return out
}

// finiteFragments is finiteElements for OCR fragments. Polygons are copied
// before they are changed.
func finiteFragments(fragments []TextFragment) []TextFragment {
	var out []TextFragment
	for i, f := range fragments {
		poly, ok := finitePolygon(f.BBox)
		conf, confOK := finite(f.Confidence)
		if ok && confOK {
			continue
		}
		if out == nil {
			out = make([]TextFragment, len(fragments))
			copy(out, fragments)
		}
		out[i].BBox = poly
		out[i].Confidence = conf
	}
	if out == nil {
		return fragments
	}
	return out
}

func finiteBox(b BBox) (BBox, bool) {
	ok := true
	for i := range b {
		var fine bool
		if b[i], fine = finite(b[i]); !fine {
			ok = false
		}
	}
	return b, ok
}

func finitePolygon(p Polygon) (Polygon, bool) {
	for _, pt := range p {
		if _, ok := finite(pt[0]); !ok {
			return zeroNonFinite(p), false
		}
		if _, ok := finite(pt[1]); !ok {
			return zeroNonFinite(p), false
		}
	}
	return p, true
}

func zeroNonFinite(p Polygon) Polygon {
	out := make(Polygon, len(p))
	for i, pt := range p {
		out[i][0], _ = finite(pt[0])
		out[i][1], _ = finite(pt[1])
	}
	return out
}

func finite(v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
