package detection

import (
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/sketch-layout-mcp/internal/imaging"
	"github.com/ironsheep/sketch-layout-mcp/internal/layout"
)

// Box formats reported by the detectors.
const (
	FormatNormalized = "normalized_xyxy"
	FormatPixel      = "pixel_xyxy"
)

// outlineCoverage is the share of a component's bounding-box border that must
// carry ink for the component to count as a drawn box rather than writing.
const outlineCoverage = 0.6

// SketchOptions tunes the heuristic detector.
type SketchOptions struct {
	// Threshold is the gray level below which a pixel is ink.
	Threshold uint8

	// DilateRadius thickens strokes so small gaps in hand-drawn lines close.
	DilateRadius float64

	// MinWidth and MinHeight, as fractions of the image, drop specks.
	MinWidth  float64
	MinHeight float64

	// Pixel reports boxes in pixels instead of normalized 0-1 coordinates.
	Pixel bool
}

// DefaultSketchOptions returns the options used when none are configured.
func DefaultSketchOptions() SketchOptions {
	return SketchOptions{
		Threshold:    128,
		DilateRadius: 2,
		MinWidth:     0.03,
		MinHeight:    0.02,
	}
}

// Sketch detects UI elements in a hand-drawn mockup without a trained model.
//
// Each connected stroke group becomes a candidate element. Groups whose
// bounding box is outlined by ink are drawn boxes and are labeled by position
// and shape; the rest are handwriting and labeled "Text".
type Sketch struct {
	cache *imaging.ImageCache
	opts  SketchOptions
	log   *logrus.Entry
}

// NewSketch returns a Sketch detector that loads images through cache.
func NewSketch(cache *imaging.ImageCache, opts SketchOptions) *Sketch {
	if cache == nil {
		cache = imaging.NewImageCache()
	}
	return &Sketch{
		cache: cache,
		opts:  opts,
		log:   logrus.WithField("component", "detection"),
	}
}

// Format returns the box format the detector reports.
func (s *Sketch) Format() string {
	if s.opts.Pixel {
		return FormatPixel
	}
	return FormatNormalized
}

// Detect finds elements in the image at imagePath. When annotatedPath is set
// a copy of the image with the detections drawn on it is written there.
func (s *Sketch) Detect(imagePath, annotatedPath string) (*layout.DetectionResult, error) {
	img, err := s.cache.Load(imagePath)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	result := &layout.DetectionResult{
		ImagePath:  imagePath,
		ImageSize:  layout.ImageSize{Width: b.Dx(), Height: b.Dy()},
		BBoxFormat: s.Format(),
		Elements:   s.DetectImage(img),
	}

	if annotatedPath != "" {
		if err := Annotate(img, result, annotatedPath); err != nil {
			return nil, fmt.Errorf("failed to write annotated image: %w", err)
		}
	}

	s.log.WithFields(logrus.Fields{
		"image":    imagePath,
		"elements": len(result.Elements),
	}).Debug("sketch detection complete")
	return result, nil
}

// component is one 8-connected group of ink pixels.
type component struct {
	minX, minY, maxX, maxY int
	pixels                 int
}

// DetectImage runs detection on an in-memory image. Elements are ordered by
// area, smallest first, so a box drawn inside another precedes it.
func (s *Sketch) DetectImage(img image.Image) []layout.DetectedElement {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		return []layout.DetectedElement{}
	}

	ink := s.inkMask(img, width, height)
	comps := findComponents(ink, width, height)

	minW := int(math.Ceil(s.opts.MinWidth * float64(width)))
	minH := int(math.Ceil(s.opts.MinHeight * float64(height)))

	type candidate struct {
		el   layout.DetectedElement
		area int
	}
	candidates := make([]candidate, 0, len(comps))
	for _, c := range comps {
		cw := c.maxX - c.minX + 1
		ch := c.maxY - c.minY + 1
		if cw < minW || ch < minH {
			continue
		}

		coverage := borderCoverage(ink, width, c, s.bandWidth())
		label := classify(cw, ch, width, height, float64(c.minY+c.maxY+1)/2.0/float64(height), coverage)

		candidates = append(candidates, candidate{
			el: layout.DetectedElement{
				Label:      label,
				BBox:       s.toBBox(c, width, height),
				Confidence: math.Round(coverage*1000) / 1000,
				Texts:      []layout.TextFragment{},
			},
			area: cw * ch,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].area != candidates[j].area {
			return candidates[i].area < candidates[j].area
		}
		bi, bj := candidates[i].el.BBox, candidates[j].el.BBox
		if bi.Y1() != bj.Y1() {
			return bi.Y1() < bj.Y1()
		}
		return bi.X1() < bj.X1()
	})

	elements := make([]layout.DetectedElement, len(candidates))
	for i, c := range candidates {
		elements[i] = c.el
	}
	return elements
}

// inkMask thresholds the image and thickens strokes. The result is a
// row-major mask where true marks ink.
func (s *Sketch) inkMask(img image.Image, width, height int) []bool {
	// Threshold makes ink black on white; invert so dilation grows the ink.
	bin := effect.Invert(segment.Threshold(img, s.opts.Threshold))
	if s.opts.DilateRadius > 0 {
		bin = effect.Dilate(bin, s.opts.DilateRadius)
	}

	mask := make([]bool, width*height)
	for y := 0; y < height; y++ {
		row := y * bin.Stride
		for x := 0; x < width; x++ {
			mask[y*width+x] = bin.Pix[row+x*4] > 127
		}
	}
	return mask
}

func (s *Sketch) bandWidth() int {
	return int(math.Ceil(s.opts.DilateRadius)) + 2
}

func (s *Sketch) toBBox(c component, width, height int) layout.BBox {
	x1, y1 := float64(c.minX), float64(c.minY)
	x2, y2 := float64(c.maxX+1), float64(c.maxY+1)
	if s.opts.Pixel {
		return layout.BBox{x1, y1, x2, y2}
	}
	w, h := float64(width), float64(height)
	return layout.BBox{round4(x1 / w), round4(y1 / h), round4(x2 / w), round4(y2 / h)}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// findComponents groups ink pixels into 8-connected components using an
// explicit stack, so large outlines cannot overflow the goroutine stack.
func findComponents(ink []bool, width, height int) []component {
	visited := make([]bool, len(ink))
	comps := make([]component, 0)
	stack := make([]int, 0, 64)

	for start := range ink {
		if !ink[start] || visited[start] {
			continue
		}

		c := component{minX: width, minY: height, maxX: -1, maxY: -1}
		stack = append(stack[:0], start)
		visited[start] = true

		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			x, y := idx%width, idx/width
			c.pixels++
			if x < c.minX {
				c.minX = x
			}
			if x > c.maxX {
				c.maxX = x
			}
			if y < c.minY {
				c.minY = y
			}
			if y > c.maxY {
				c.maxY = y
			}

			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					nx, ny := x+dx, y+dy
					if nx < 0 || nx >= width || ny < 0 || ny >= height {
						continue
					}
					n := ny*width + nx
					if ink[n] && !visited[n] {
						visited[n] = true
						stack = append(stack, n)
					}
				}
			}
		}

		comps = append(comps, c)
	}

	return comps
}

// borderCoverage returns the share of border positions of c's bounding box
// that have ink within band pixels of the edge. Drawn boxes score near 1.
func borderCoverage(ink []bool, width int, c component, band int) float64 {
	has := func(x0, y0, x1, y1 int) bool {
		for y := y0; y <= y1; y++ {
			for x := x0; x <= x1; x++ {
				if ink[y*width+x] {
					return true
				}
			}
		}
		return false
	}

	bx := minInt(band, c.maxX-c.minX+1) - 1
	by := minInt(band, c.maxY-c.minY+1) - 1

	hits, total := 0, 0
	for x := c.minX; x <= c.maxX; x++ {
		total += 2
		if has(x, c.minY, x, c.minY+by) {
			hits++
		}
		if has(x, c.maxY-by, x, c.maxY) {
			hits++
		}
	}
	for y := c.minY; y <= c.maxY; y++ {
		total += 2
		if has(c.minX, y, c.minX+bx, y) {
			hits++
		}
		if has(c.maxX-bx, y, c.maxX, y) {
			hits++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// classify names a component from its pixel size, its vertical center as a
// fraction of the image height, and how well ink outlines it.
func classify(w, h, imgW, imgH int, cy, coverage float64) string {
	if coverage < outlineCoverage {
		return "Text"
	}

	fw := float64(w) / float64(imgW)
	fh := float64(h) / float64(imgH)
	aspect := float64(w) / float64(h)

	switch {
	case fw >= 0.8 && cy <= 0.15:
		return "Navbar"
	case fw >= 0.8 && cy >= 0.85:
		return "Footer"
	case fw >= 0.5 && fh >= 0.2:
		return "Hero"
	case fh <= 0.12 && aspect >= 2:
		return "Button"
	case fh >= 0.1 && aspect >= 0.6 && aspect <= 1.6:
		return "Image"
	}
	return "Container"
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
