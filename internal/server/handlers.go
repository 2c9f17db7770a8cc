package server

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/ironsheep/sketch-layout-mcp/internal/imaging"
	"github.com/ironsheep/sketch-layout-mcp/internal/layout"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "layout_build").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.WithError(err).WithField("tool", params.Name).Warn("Tool execution failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}

	switch name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)

	// Layout Stages
	case "layout_detect":
		return s.handleLayoutDetect(args)
	case "layout_ocr":
		return s.handleLayoutOCR(args)
	case "layout_fuse":
		return s.handleLayoutFuse(args)
	case "layout_cluster":
		return s.handleLayoutCluster(args)

	// Layout History
	case "layout_build":
		return s.handleLayoutBuild(args)
	case "layout_history":
		return s.handleLayoutHistory(args)
	case "layout_generate":
		return s.handleLayoutGenerate(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func requirePath(path string) error {
	if path == "" {
		return fmt.Errorf("path is required")
	}
	return nil
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath(a.Path); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath(a.Path); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

// === Layout Stage Handlers ===

type layoutDetectArgs struct {
	Path          string `json:"path"`
	AnnotatedPath string `json:"annotated_path"`
}

func (s *Server) handleLayoutDetect(args json.RawMessage) (interface{}, error) {
	var a layoutDetectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath(a.Path); err != nil {
		return nil, err
	}
	return s.detector.Detect(a.Path, a.AnnotatedPath)
}

func (s *Server) handleLayoutOCR(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath(a.Path); err != nil {
		return nil, err
	}
	return s.recognizer.Recognize(a.Path)
}

type layoutFuseArgs struct {
	Detection  *layout.DetectionResult `json:"detection"`
	OCR        *layout.OCRResult       `json:"ocr"`
	SectionGap float64                 `json:"section_gap"`
}

func (s *Server) handleLayoutFuse(args json.RawMessage) (interface{}, error) {
	var a layoutFuseArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Detection == nil {
		return nil, fmt.Errorf("detection is required")
	}
	return layout.Fuse(a.Detection, a.OCR, s.gap(a.SectionGap)), nil
}

type layoutClusterArgs struct {
	Elements   []layout.DetectedElement `json:"elements"`
	SectionGap float64                  `json:"section_gap"`
}

type layoutClusterResult struct {
	Elements []layout.DetectedElement   `json:"elements"`
	Sections [][]layout.DetectedElement `json:"sections"`
}

func (s *Server) handleLayoutCluster(args json.RawMessage) (interface{}, error) {
	var a layoutClusterArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	for i := range a.Elements {
		if a.Elements[i].Texts == nil {
			a.Elements[i].Texts = []layout.TextFragment{}
		}
	}

	ordered := layout.Cluster(a.Elements, s.gap(a.SectionGap))
	if ordered == nil {
		ordered = []layout.DetectedElement{}
	}
	return &layoutClusterResult{
		Elements: ordered,
		Sections: layout.Sections(ordered),
	}, nil
}

// gap returns the requested section gap, or the configured one.
func (s *Server) gap(requested float64) float64 {
	if requested > 0 {
		return requested
	}
	return s.builder.Gap()
}

// === Layout History Handlers ===

type layoutBuildArgs struct {
	Path     string `json:"path"`
	Filename string `json:"filename"`
	Save     *bool  `json:"save"`
}

type layoutBuildResult struct {
	Filename    string         `json:"filename"`
	HistoryPath string         `json:"history_path,omitempty"`
	Layout      *layout.Layout `json:"layout"`
}

func (s *Server) handleLayoutBuild(args json.RawMessage) (interface{}, error) {
	var a layoutBuildArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath(a.Path); err != nil {
		return nil, err
	}
	filename := historyKey(a.Filename, a.Path)

	s.cache.Evict(a.Path)
	l, err := s.builder.Build(a.Path, "")
	if err != nil {
		return nil, err
	}

	result := &layoutBuildResult{Filename: filename, Layout: l}
	if a.Save == nil || *a.Save {
		if _, err := layout.MergeAndSave(s.cfg.HistoryPath, filename, l); err != nil {
			return nil, err
		}
		result.HistoryPath = s.cfg.HistoryPath
	}
	return result, nil
}

type layoutHistoryArgs struct {
	Filename string `json:"filename"`
}

type layoutHistoryList struct {
	HistoryPath string   `json:"history_path"`
	Count       int      `json:"count"`
	Filenames   []string `json:"filenames"`
}

func (s *Server) handleLayoutHistory(args json.RawMessage) (interface{}, error) {
	var a layoutHistoryArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	h := layout.LoadHistory(s.cfg.HistoryPath)
	if a.Filename == "" {
		return &layoutHistoryList{
			HistoryPath: s.cfg.HistoryPath,
			Count:       h.Len(),
			Filenames:   h.Filenames(),
		}, nil
	}

	raw, ok := h.Raw(a.Filename)
	if !ok {
		return nil, fmt.Errorf("no layout recorded for %s", a.Filename)
	}
	return raw, nil
}

type layoutGenerateArgs struct {
	Path     string   `json:"path"`
	Filename string   `json:"filename"`
	Palette  string   `json:"palette"`
	Colors   []string `json:"colors"`
}

func (s *Server) handleLayoutGenerate(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a layoutGenerateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath(a.Path); err != nil {
		return nil, err
	}

	palette := a.Colors
	if len(palette) == 0 && a.Palette != "" {
		p, ok := s.cfg.Palettes[a.Palette]
		if !ok {
			return nil, fmt.Errorf("unknown palette: %s", a.Palette)
		}
		palette = p
	}

	out, err := s.pipeline.Run(ctx, historyKey(a.Filename, a.Path), a.Path, palette)
	if err != nil {
		return nil, err
	}
	if s.generator == nil {
		out.GenerateError = "code generation is not configured"
	}
	return out, nil
}

// historyKey returns the explicit filename, or the image's base name.
func historyKey(filename, path string) string {
	if filename != "" {
		return filename
	}
	return filepath.Base(path)
}
