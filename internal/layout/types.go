package layout

// DefaultBBoxFormat is assumed when a detector does not report its box format.
const DefaultBBoxFormat = "normalized_xyxy"

// Point is a 2-D coordinate encoded as a JSON pair [x, y].
type Point [2]float64

// X returns the horizontal coordinate.
func (p Point) X() float64 { return p[0] }

// Y returns the vertical coordinate.
func (p Point) Y() float64 { return p[1] }

// Polygon is an ordered list of vertices, as reported by OCR engines.
// It is usually four points but need not be axis-aligned.
type Polygon []Point

// Centroid returns the arithmetic mean of the vertex coordinates.
//
// The x and y means are computed independently. A polygon with no points has
// a centroid of (0, 0).
func (p Polygon) Centroid() Point {
	if len(p) == 0 {
		return Point{0, 0}
	}
	var sx, sy float64
	for _, v := range p {
		sx += v[0]
		sy += v[1]
	}
	n := float64(len(p))
	return Point{sx / n, sy / n}
}

// BBox is an axis-aligned box (x1, y1, x2, y2) encoded as a JSON array.
type BBox [4]float64

// X1 returns the left edge.
func (b BBox) X1() float64 { return b[0] }

// Y1 returns the top edge.
func (b BBox) Y1() float64 { return b[1] }

// X2 returns the right edge.
func (b BBox) X2() float64 { return b[2] }

// Y2 returns the bottom edge.
func (b BBox) Y2() float64 { return b[3] }

// Center returns the midpoint of the box.
func (b BBox) Center() Point {
	return Point{(b[0] + b[2]) / 2.0, (b[1] + b[3]) / 2.0}
}

// Contains reports whether p lies inside the box. Both axes use closed
// intervals, so points on an edge are inside.
func (b BBox) Contains(p Point) bool {
	return b[0] <= p[0] && p[0] <= b[2] && b[1] <= p[1] && p[1] <= b[3]
}

// TextFragment is one OCR recognition result.
type TextFragment struct {
	// Text is the recognized string. It may be empty.
	Text string `json:"text"`

	// BBox is the polygon around the text.
	BBox Polygon `json:"bbox"`

	// Confidence is the recognizer's score (0.0 to 1.0), when it reports one.
	Confidence float64 `json:"confidence,omitempty"`
}

// DetectedElement is one labeled box from the detection stage.
type DetectedElement struct {
	// Label is the category assigned by the detector (e.g., "Navbar", "Button").
	Label string `json:"label"`

	// BBox is the element box in the detector's coordinate space.
	BBox BBox `json:"bbox"`

	// Confidence is the detector's score, when it reports one.
	Confidence float64 `json:"confidence,omitempty"`

	// Texts holds the fragments attached by Attach, in OCR order.
	Texts []TextFragment `json:"texts"`

	// SectionIndex and OrderInSection are stamped by Cluster. They are nil
	// until clustering runs.
	SectionIndex   *int `json:"section_index,omitempty"`
	OrderInSection *int `json:"order_in_section,omitempty"`
}

// clone returns a copy that shares nothing mutable with e.
func (e DetectedElement) clone() DetectedElement {
	out := e
	out.Texts = make([]TextFragment, len(e.Texts))
	copy(out.Texts, e.Texts)
	if e.SectionIndex != nil {
		v := *e.SectionIndex
		out.SectionIndex = &v
	}
	if e.OrderInSection != nil {
		v := *e.OrderInSection
		out.OrderInSection = &v
	}
	return out
}

// ImageSize is the source image dimensions in pixels.
type ImageSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DetectionResult is what a detector returns for one image.
type DetectionResult struct {
	ImagePath  string            `json:"image_path"`
	ImageSize  ImageSize         `json:"image_size"`
	BBoxFormat string            `json:"bbox_format,omitempty"`
	Elements   []DetectedElement `json:"elements"`
}

// OCRResult is what a recognizer returns for one image.
type OCRResult struct {
	Entries []TextFragment `json:"entries"`
}

// Layout is the fused description of one image.
type Layout struct {
	ImagePath      string            `json:"image_path"`
	ImageSize      ImageSize         `json:"image_size"`
	BBoxFormat     string            `json:"bbox_format"`
	Elements       []DetectedElement `json:"elements"`
	UnassignedText []TextFragment    `json:"unassigned_text"`

	// PageContext is attached after code generation. It is never interpreted
	// here, only carried through.
	PageContext string `json:"page_context,omitempty"`
}

// FragmentCount returns the number of text fragments held by the layout,
// attached or not.
func (l *Layout) FragmentCount() int {
	n := len(l.UnassignedText)
	for _, el := range l.Elements {
		n += len(el.Texts)
	}
	return n
}
