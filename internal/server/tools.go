package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the sketch image",
	}
}

func gapProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "number",
		"description": "Maximum vertical distance between an element's center and a section's mean center, in box units. Defaults to the configured section_gap (0.08)",
	}
}

// boxSchema describes an [x1, y1, x2, y2] box.
var boxSchema = map[string]interface{}{
	"type":     "array",
	"items":    map[string]interface{}{"type": "number"},
	"minItems": 4,
	"maxItems": 4,
}

var elementSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"label":      map[string]interface{}{"type": "string"},
		"bbox":       boxSchema,
		"confidence": map[string]interface{}{"type": "number"},
	},
	"required": []string{"label", "bbox"},
}

var fragmentSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"text": map[string]interface{}{"type": "string"},
		"bbox": map[string]interface{}{
			"type":        "array",
			"description": "Polygon as a list of [x, y] points",
			"items": map[string]interface{}{
				"type":  "array",
				"items": map[string]interface{}{"type": "number"},
			},
		},
		"confidence": map[string]interface{}{"type": "number"},
	},
	"required": []string{"text", "bbox"},
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load a sketch image and return its dimensions, format and file size.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of a sketch image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},

		// Layout Stages
		{
			Name:        "layout_detect",
			Description: "Detect UI elements (Navbar, Hero, Button, Image, Text, ...) in a sketch. Boxes use the configured bbox_format.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"annotated_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path for a copy of the sketch with the detections drawn on it",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "layout_ocr",
			Description: "Recognize handwritten words in a sketch. Each word is returned with a four-point polygon.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "layout_fuse",
			Description: "Combine a detection result and an OCR result into a layout: each word is attached to the first element containing its centroid, and elements are grouped into sections and ordered top-to-bottom, left-to-right.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"detection": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"image_path":  map[string]interface{}{"type": "string"},
							"image_size":  map[string]interface{}{"type": "object"},
							"bbox_format": map[string]interface{}{"type": "string"},
							"elements":    map[string]interface{}{"type": "array", "items": elementSchema},
						},
						"required": []string{"elements"},
					},
					"ocr": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"entries": map[string]interface{}{"type": "array", "items": fragmentSchema},
						},
					},
					"section_gap": gapProperty(),
				},
				"required": []string{"detection"},
			},
		},
		{
			Name:        "layout_cluster",
			Description: "Group elements into horizontal sections and number them. Returns the elements sorted by center (y, then x) with section_index and order_in_section set, plus the sections themselves.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"elements":    map[string]interface{}{"type": "array", "items": elementSchema},
					"section_gap": gapProperty(),
				},
				"required": []string{"elements"},
			},
		},
		{
			Name:        "layout_build",
			Description: "Run detection, OCR and fusion on a sketch and record the layout in the layout history under its filename. Other entries in the history are kept.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"filename": map[string]interface{}{
						"type":        "string",
						"description": "History key. Defaults to the image's base name",
					},
					"save": map[string]interface{}{
						"type":        "boolean",
						"description": "Write the layout to the history file. Default true",
						"default":     true,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "layout_history",
			Description: "Read the layout history. With a filename, returns that entry; otherwise lists the recorded filenames.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"filename": map[string]interface{}{
						"type":        "string",
						"description": "Entry to return",
					},
				},
			},
		},
		{
			Name:        "layout_generate",
			Description: "Build and record a sketch's layout, then generate its React page from the whole layout history. Generation failures are reported without losing the saved layout.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"filename": map[string]interface{}{
						"type":        "string",
						"description": "History key. Defaults to the image's base name",
					},
					"palette": map[string]interface{}{
						"type":        "string",
						"description": "Name of a configured palette (Bright, Calm, Warm). Defaults to the configured palette",
					},
					"colors": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Explicit hex colors; overrides palette",
					},
				},
				"required": []string{"path"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
