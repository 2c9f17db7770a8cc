package detection

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/sketch-layout-mcp/internal/config"
	"github.com/ironsheep/sketch-layout-mcp/internal/imaging"
	"github.com/ironsheep/sketch-layout-mcp/internal/layout"
)

func TestSidecarPath(t *testing.T) {
	assert.Equal(t, "/tmp/landing.detections.json", SidecarPath("/tmp/landing.png"))
	assert.Equal(t, "shots/a.b.detections.json", SidecarPath("shots/a.b.jpg"))
	assert.Equal(t, "noext.detections.json", SidecarPath("noext"))
}

func TestFile_Detect_Sidecar(t *testing.T) {
	imagePath := writePNG(t, createTestImage(200, 100, color.White), "page.png")
	doc := `{
		"image_size": {"width": 200, "height": 100},
		"bbox_format": "normalized_xyxy",
		"elements": [
			{"label": "Hero", "bbox": [0.9, 0.8, 0.1, 0.2], "confidence": 0.9},
			{"label": "Button", "bbox": [0.1, 0.1, 0.3, 0.2]}
		]
	}`
	require.NoError(t, os.WriteFile(SidecarPath(imagePath), []byte(doc), 0644))

	result, err := NewFile("", FormatNormalized, nil).Detect(imagePath, "")
	require.NoError(t, err)

	assert.Equal(t, imagePath, result.ImagePath)
	assert.Equal(t, layout.ImageSize{Width: 200, Height: 100}, result.ImageSize)
	require.Len(t, result.Elements, 2)
	assert.Equal(t, layout.BBox{0.1, 0.2, 0.9, 0.8}, result.Elements[0].BBox, "corners reordered")
	assert.Equal(t, 0.9, result.Elements[0].Confidence)
	assert.Equal(t, "Button", result.Elements[1].Label)
}

func TestFile_Detect_FixedPathFillsDefaults(t *testing.T) {
	dir := t.TempDir()
	imagePath := writePNG(t, createTestImage(64, 48, color.White), "page.png")
	resultPath := filepath.Join(dir, "out.json")
	require.NoError(t, os.WriteFile(resultPath, []byte(`{}`), 0644))

	result, err := NewFile(resultPath, FormatNormalized, imaging.NewImageCache()).Detect(imagePath, "")
	require.NoError(t, err)

	assert.Equal(t, imagePath, result.ImagePath)
	assert.Equal(t, FormatNormalized, result.BBoxFormat)
	assert.NotNil(t, result.Elements)
	assert.Empty(t, result.Elements)
	assert.Equal(t, layout.ImageSize{Width: 64, Height: 48}, result.ImageSize)
}

func TestFile_Detect_Annotates(t *testing.T) {
	imagePath := writePNG(t, createTestImage(100, 100, color.White), "page.png")
	doc := `{"elements": [{"label": "Image", "bbox": [0.2, 0.2, 0.6, 0.6]}]}`
	require.NoError(t, os.WriteFile(SidecarPath(imagePath), []byte(doc), 0644))
	annotated := filepath.Join(t.TempDir(), "annotated.png")

	_, err := NewFile("", FormatNormalized, imaging.NewImageCache()).Detect(imagePath, annotated)
	require.NoError(t, err)
	_, err = os.Stat(annotated)
	assert.NoError(t, err)
}

func TestFile_Detect_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := NewFile("", FormatNormalized, nil).Detect(filepath.Join(dir, "missing.png"), "")
	assert.ErrorContains(t, err, "failed to read detections")

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[1, 2`), 0644))
	_, err = NewFile(bad, FormatNormalized, nil).Detect(filepath.Join(dir, "page.png"), "")
	assert.ErrorContains(t, err, "failed to parse detections")
}

func TestFile_Detect_PixelDocumentNormalized(t *testing.T) {
	dir := t.TempDir()
	resultPath := filepath.Join(dir, "out.json")
	doc := `{
		"image_size": {"width": 1000, "height": 1000},
		"bbox_format": "pixel_xyxy",
		"elements": [{"label": "Hero", "bbox": [0, 400, 1000, 700]}]
	}`
	require.NoError(t, os.WriteFile(resultPath, []byte(doc), 0644))

	det, err := NewFile(resultPath, FormatNormalized, nil).Detect(filepath.Join(dir, "page.png"), "")
	require.NoError(t, err)

	assert.Equal(t, FormatNormalized, det.BBoxFormat)
	require.Len(t, det.Elements, 1)
	assert.Equal(t, layout.BBox{0, 0.4, 1, 0.7}, det.Elements[0].BBox)

	// Words from a normalized recognizer now land in the Hero.
	ocr := &layout.OCRResult{Entries: []layout.TextFragment{{
		Text: "Welcome",
		BBox: layout.Polygon{{0.1, 0.5}, {0.2, 0.5}, {0.2, 0.52}, {0.1, 0.52}},
	}}}
	l := layout.Fuse(det, ocr, layout.DefaultSectionGap)
	require.Len(t, l.Elements, 1)
	assert.Len(t, l.Elements[0].Texts, 1)
	assert.Empty(t, l.UnassignedText)
}

func TestFile_Detect_NormalizedDocumentToPixel(t *testing.T) {
	imagePath := writePNG(t, createTestImage(200, 100, color.White), "page.png")
	doc := `{"bbox_format": "normalized_xyxy", "elements": [{"label": "Button", "bbox": [0.25, 0.5, 0.75, 1]}]}`
	require.NoError(t, os.WriteFile(SidecarPath(imagePath), []byte(doc), 0644))

	det, err := NewFile("", FormatPixel, imaging.NewImageCache()).Detect(imagePath, "")
	require.NoError(t, err)

	assert.Equal(t, FormatPixel, det.BBoxFormat)
	assert.Equal(t, layout.ImageSize{Width: 200, Height: 100}, det.ImageSize)
	box := det.Elements[0].BBox
	assert.InDelta(t, 50, box[0], 1e-9)
	assert.InDelta(t, 50, box[1], 1e-9)
	assert.InDelta(t, 150, box[2], 1e-9)
	assert.InDelta(t, 100, box[3], 1e-9)
}

func TestFile_Detect_FormatErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			"no image size",
			`{"bbox_format": "pixel_xyxy", "elements": [{"label": "Hero", "bbox": [0, 0, 10, 10]}]}`,
			"without an image size",
		},
		{
			"unknown format",
			`{"bbox_format": "center_xywh", "elements": []}`,
			"unknown bbox_format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "out.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.doc), 0644))

			_, err := NewFile(path, FormatNormalized, nil).Detect(filepath.Join(dir, "page.png"), "")
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestNew_Backends(t *testing.T) {
	cfg := config.Default().Detector

	d, err := New(cfg, FormatPixel, nil)
	require.NoError(t, err)
	sketch, ok := d.(*Sketch)
	require.True(t, ok)
	assert.Equal(t, FormatPixel, sketch.Format())
	assert.Equal(t, uint8(cfg.Threshold), sketch.opts.Threshold)

	cfg.Backend = "file"
	cfg.ResultPath = "/tmp/detections.json"
	d, err = New(cfg, FormatNormalized, nil)
	require.NoError(t, err)
	file, ok := d.(*File)
	require.True(t, ok)
	assert.Equal(t, "/tmp/detections.json", file.Path)
	assert.Equal(t, FormatNormalized, file.Format)

	cfg.Backend = "yolo"
	_, err = New(cfg, FormatNormalized, nil)
	assert.ErrorContains(t, err, "unknown detector backend")
}

func TestPixelRect(t *testing.T) {
	box := layout.BBox{0.25, 0.5, 0.75, 1}
	assert.Equal(t, image.Rect(50, 50, 150, 100), pixelRect(box, FormatNormalized, 200, 100))
	assert.Equal(t, image.Rect(50, 50, 150, 100), pixelRect(box, "", 200, 100))

	px := layout.BBox{10, 20, 30, 40}
	assert.Equal(t, image.Rect(10, 20, 30, 40), pixelRect(px, FormatPixel, 200, 100))
}

func TestAnnotate_DrawsOutline(t *testing.T) {
	img := createTestImage(100, 100, color.White)
	result := &layout.DetectionResult{
		BBoxFormat: FormatPixel,
		Elements:   []layout.DetectedElement{{Label: "Button", BBox: layout.BBox{20, 40, 80, 70}}},
	}
	path := filepath.Join(t.TempDir(), "out.png")

	require.NoError(t, Annotate(img, result, path))

	cache := imaging.NewImageCache()
	out, err := cache.Load(path)
	require.NoError(t, err)
	r, g, b, _ := out.At(50, 69).RGBA()
	assert.Equal(t, uint32(boxColor.R)<<8|uint32(boxColor.R), r, "bottom edge is stroked")
	assert.Less(t, g, r)
	assert.Less(t, b, r)

	r, g, b, _ = out.At(50, 55).RGBA()
	assert.Equal(t, []uint32{0xffff, 0xffff, 0xffff}, []uint32{r, g, b}, "interior untouched")

	// The source image is not drawn on.
	r, _, _, _ = img.At(50, 69).RGBA()
	assert.Equal(t, uint32(0xffff), r)
}
