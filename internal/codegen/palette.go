package codegen

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// NormalizePalette parses every color and returns it as lowercase #rrggbb.
// Short forms like "#fff" are expanded.
func NormalizePalette(colors []string) ([]string, error) {
	out := make([]string, 0, len(colors))
	for _, c := range colors {
		c = strings.TrimSpace(c)
		if !strings.HasPrefix(c, "#") {
			c = "#" + c
		}
		parsed, err := colorful.Hex(c)
		if err != nil {
			return nil, fmt.Errorf("invalid palette color %q: %w", c, err)
		}
		out = append(out, parsed.Hex())
	}
	return out, nil
}
