package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/sketch-layout-mcp/internal/codegen"
	"github.com/ironsheep/sketch-layout-mcp/internal/config"
	"github.com/ironsheep/sketch-layout-mcp/internal/detection"
	"github.com/ironsheep/sketch-layout-mcp/internal/imaging"
	"github.com/ironsheep/sketch-layout-mcp/internal/layout"
	"github.com/ironsheep/sketch-layout-mcp/internal/ocr"
	"github.com/ironsheep/sketch-layout-mcp/internal/pipeline"
)

// Server handles MCP protocol communication
type Server struct {
	cfg        *config.Config
	cache      *imaging.ImageCache
	detector   layout.Detector
	recognizer layout.Recognizer
	generator  pipeline.Generator
	builder    *layout.Builder
	pipeline   *pipeline.Pipeline

	in      io.Reader
	out     io.Writer
	version string
	log     *logrus.Entry
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Option customizes a Server.
type Option func(*Server)

// WithIO replaces stdin and stdout.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(s *Server) {
		s.in = in
		s.out = out
	}
}

// WithDetector replaces the configured detector.
func WithDetector(d layout.Detector) Option {
	return func(s *Server) { s.detector = d }
}

// WithRecognizer replaces the Tesseract recognizer.
func WithRecognizer(r layout.Recognizer) Option {
	return func(s *Server) { s.recognizer = r }
}

// WithGenerator replaces the configured code generator.
func WithGenerator(g pipeline.Generator) Option {
	return func(s *Server) { s.generator = g }
}

// WithVersion sets the version reported to clients.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// New creates a new MCP server instance from cfg. A nil cfg uses defaults.
//
// When code generation is enabled but no API key is available the server
// still starts; layout_generate then stops after saving the layout.
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Server{
		cfg:     cfg,
		cache:   imaging.NewImageCache(),
		in:      os.Stdin,
		out:     os.Stdout,
		version: "dev",
		log:     logrus.WithField("component", "server"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.detector == nil {
		d, err := detection.New(cfg.Detector, cfg.BBoxFormat, s.cache)
		if err != nil {
			return nil, err
		}
		s.detector = d
	}
	if s.recognizer == nil {
		s.recognizer = ocr.New(cfg.OCR, cfg.BBoxFormat, s.cache)
	}
	if s.generator == nil && cfg.CodeGen.Enabled {
		g, err := codegen.New(cfg.CodeGen, cfg.APIKey())
		if err != nil {
			s.log.WithError(err).Warn("Code generation disabled")
		} else {
			s.generator = g
		}
	}

	s.builder = layout.NewBuilder(s.detector, s.recognizer, layout.WithSectionGap(cfg.SectionGap))
	s.pipeline = pipeline.New(s.builder, s.generator, codegen.NewMemory(), s.cache, pipeline.Options{
		HistoryPath: cfg.HistoryPath,
		Annotate:    cfg.Detector.Annotate,
		OutputDir:   cfg.CodeGen.OutputDir,
		Palette:     cfg.ActivePalette(),
	})
	return s, nil
}

// Pipeline returns the build pipeline the server runs.
func (s *Server) Pipeline() *pipeline.Pipeline { return s.pipeline }

// Run starts the MCP server, reading requests until the input ends or ctx is
// canceled.
func (s *Server) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	// Layout documents can be large.
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 16*1024*1024)

	encoder := json.NewEncoder(s.out)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.log.WithError(err).Warn("Failed to parse request")
			continue
		}

		resp := s.handleRequest(ctx, &req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.log.WithError(err).Error("Failed to encode response")
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	s.log.WithField("method", req.Method).Debug("request")

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "sketch-layout-mcp",
				"version": s.version,
			},
		},
	}
}
