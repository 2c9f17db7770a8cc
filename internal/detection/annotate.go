package detection

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/sketch-layout-mcp/internal/imaging"
	"github.com/ironsheep/sketch-layout-mcp/internal/layout"
)

var (
	boxColor   = color.RGBA{R: 220, G: 38, B: 38, A: 255}
	labelColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Annotate draws every detected box and its label over img and saves the
// result to path. Normalized boxes are scaled to the image size first.
func Annotate(img image.Image, result *layout.DetectionResult, path string) error {
	b := img.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(canvas, canvas.Bounds(), img, b.Min, draw.Src)

	for _, el := range result.Elements {
		r := pixelRect(el.BBox, result.BBoxFormat, b.Dx(), b.Dy())
		strokeRect(canvas, r, 2, boxColor)
		drawLabel(canvas, r.Min.X, r.Min.Y, el.Label)
	}

	return imaging.Save(canvas, path)
}

// pixelRect converts a box in the given format to an image rectangle.
func pixelRect(box layout.BBox, format string, width, height int) image.Rectangle {
	if format == FormatNormalized || format == "" {
		return image.Rect(
			int(box.X1()*float64(width)), int(box.Y1()*float64(height)),
			int(box.X2()*float64(width)), int(box.Y2()*float64(height)),
		)
	}
	return image.Rect(int(box.X1()), int(box.Y1()), int(box.X2()), int(box.Y2()))
}

func strokeRect(dst *image.RGBA, r image.Rectangle, thickness int, c color.Color) {
	src := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thickness),
		image.Rect(r.Min.X, r.Max.Y-thickness, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+thickness, r.Max.Y),
		image.Rect(r.Max.X-thickness, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(dst, e.Intersect(dst.Bounds()), src, image.Point{}, draw.Over)
	}
}

// drawLabel writes text on a filled tag just above (x, y), or just inside the
// box when there is no room above.
func drawLabel(dst *image.RGBA, x, y int, text string) {
	face := basicfont.Face7x13
	w := font.MeasureString(face, text).Ceil() + 4
	h := face.Height + 2

	top := y - h
	if top < 0 {
		top = y
	}
	tag := image.Rect(x, top, x+w, top+h).Intersect(dst.Bounds())
	draw.Draw(dst, tag, image.NewUniform(boxColor), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(labelColor),
		Face: face,
		Dot:  fixed.P(x+2, top+face.Ascent+1),
	}
	d.DrawString(text)
}
