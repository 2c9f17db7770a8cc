package detection

import (
	"fmt"

	"github.com/ironsheep/sketch-layout-mcp/internal/config"
	"github.com/ironsheep/sketch-layout-mcp/internal/imaging"
	"github.com/ironsheep/sketch-layout-mcp/internal/layout"
)

// New returns the detector selected by cfg.Backend.
func New(cfg config.DetectorConfig, bboxFormat string, cache *imaging.ImageCache) (layout.Detector, error) {
	switch cfg.Backend {
	case "", "sketch":
		opts := DefaultSketchOptions()
		if cfg.Threshold > 0 {
			opts.Threshold = uint8(cfg.Threshold)
		}
		if cfg.DilateRadius >= 0 {
			opts.DilateRadius = cfg.DilateRadius
		}
		if cfg.MinWidth > 0 {
			opts.MinWidth = cfg.MinWidth
		}
		if cfg.MinHeight > 0 {
			opts.MinHeight = cfg.MinHeight
		}
		opts.Pixel = bboxFormat == FormatPixel
		return NewSketch(cache, opts), nil
	case "file":
		return NewFile(cfg.ResultPath, bboxFormat, cache), nil
	}
	return nil, fmt.Errorf("unknown detector backend: %s", cfg.Backend)
}
