package detection

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ironsheep/sketch-layout-mcp/internal/imaging"
	"github.com/ironsheep/sketch-layout-mcp/internal/layout"
)

// SidecarSuffix names the detection file an external model writes next to
// an image: landing.png -> landing.detections.json.
const SidecarSuffix = ".detections.json"

// File reads detection results produced by an external model.
//
// The document has the shape
//
//	{"image_path": "...", "image_size": {"width": 0, "height": 0},
//	 "bbox_format": "normalized_xyxy",
//	 "elements": [{"label": "Hero", "bbox": [x1, y1, x2, y2]}]}
type File struct {
	// Path, when set, is read for every image. Otherwise the sidecar next
	// to the image is used.
	Path string

	// Format is the box format results are returned in. Documents written
	// in the other format are converted using the image size.
	Format string

	cache *imaging.ImageCache
}

// NewFile returns a File detector that reports boxes in format (normalized
// when empty). cache is used to fill in the image size when the document
// omits it; it may be nil.
func NewFile(path, format string, cache *imaging.ImageCache) *File {
	if format == "" {
		format = FormatNormalized
	}
	return &File{Path: path, Format: format, cache: cache}
}

// SidecarPath returns the detection file expected next to imagePath.
func SidecarPath(imagePath string) string {
	return strings.TrimSuffix(imagePath, filepath.Ext(imagePath)) + SidecarSuffix
}

// Detect loads the detection document for imagePath. Boxes with swapped
// corners are reordered so that x1 <= x2 and y1 <= y2, and converted to
// f.Format when the document uses the other format. A document without
// bbox_format is taken to be in f.Format.
func (f *File) Detect(imagePath, annotatedPath string) (*layout.DetectionResult, error) {
	path := f.Path
	if path == "" {
		path = SidecarPath(imagePath)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read detections: %w", err)
	}

	var result layout.DetectionResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse detections %s: %w", path, err)
	}

	if result.ImagePath == "" {
		result.ImagePath = imagePath
	}
	switch result.BBoxFormat {
	case "":
		result.BBoxFormat = f.Format
	case FormatNormalized, FormatPixel:
	default:
		return nil, fmt.Errorf("unknown bbox_format in %s: %q", path, result.BBoxFormat)
	}
	if result.Elements == nil {
		result.Elements = []layout.DetectedElement{}
	}
	for i := range result.Elements {
		result.Elements[i].BBox = orderCorners(result.Elements[i].BBox)
	}

	needsImage := result.ImageSize.Width == 0 || annotatedPath != ""
	if needsImage && f.cache != nil {
		img, err := f.cache.Load(imagePath)
		if err != nil {
			return nil, err
		}
		if result.ImageSize.Width == 0 {
			b := img.Bounds()
			result.ImageSize = layout.ImageSize{Width: b.Dx(), Height: b.Dy()}
		}
		if annotatedPath != "" {
			if err := Annotate(img, &result, annotatedPath); err != nil {
				return nil, fmt.Errorf("failed to write annotated image: %w", err)
			}
		}
	}

	if result.BBoxFormat != f.Format {
		if err := convertBoxes(&result, f.Format); err != nil {
			return nil, fmt.Errorf("detections %s: %w", path, err)
		}
	}

	return &result, nil
}

// convertBoxes rewrites every box of result into format using its image
// size.
func convertBoxes(result *layout.DetectionResult, format string) error {
	w, h := float64(result.ImageSize.Width), float64(result.ImageSize.Height)
	if w <= 0 || h <= 0 {
		return fmt.Errorf("cannot convert %s boxes to %s without an image size", result.BBoxFormat, format)
	}
	sx, sy := w, h
	if format == FormatNormalized {
		sx, sy = 1/w, 1/h
	}
	for i := range result.Elements {
		b := &result.Elements[i].BBox
		b[0], b[1], b[2], b[3] = b[0]*sx, b[1]*sy, b[2]*sx, b[3]*sy
	}
	result.BBoxFormat = format
	return nil
}

func orderCorners(b layout.BBox) layout.BBox {
	if b[0] > b[2] {
		b[0], b[2] = b[2], b[0]
	}
	if b[1] > b[3] {
		b[1], b[3] = b[3], b[1]
	}
	return b
}
