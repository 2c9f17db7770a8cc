// Package pipeline runs the full sketch-to-page flow: build the layout of a
// sketch, merge it into the layout history, and optionally generate the
// page's code from the whole history.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/sketch-layout-mcp/internal/codegen"
	"github.com/ironsheep/sketch-layout-mcp/internal/imaging"
	"github.com/ironsheep/sketch-layout-mcp/internal/layout"
)

// Generator produces code for one page. *codegen.Generator implements it.
type Generator interface {
	Generate(ctx context.Context, req codegen.Request) (*codegen.Result, error)
}

// Options configures a Pipeline.
type Options struct {
	// HistoryPath is the layout history file.
	HistoryPath string

	// Annotate writes <image>_detected.png next to each sketch.
	Annotate bool

	// OutputDir, when set, receives generated pages as <stem>/page.tsx.
	OutputDir string

	// Palette is used when Run is given none.
	Palette []string
}

// Outcome reports what one run produced.
type Outcome struct {
	Filename      string         `json:"filename"`
	HistoryPath   string         `json:"history_path"`
	Layout        *layout.Layout `json:"layout"`
	AnnotatedPath string         `json:"annotated_path,omitempty"`

	// Page is the generated page's path, e.g. "home/page.tsx". PagePath is
	// where it was written, if anywhere.
	Page     string `json:"page,omitempty"`
	PagePath string `json:"page_path,omitempty"`
	Code     string `json:"code,omitempty"`

	// GenerateError is set when the layout was saved but code generation
	// failed.
	GenerateError string `json:"generate_error,omitempty"`
}

// Pipeline ties the builder, the history file and the code generator
// together.
type Pipeline struct {
	builder   *layout.Builder
	generator Generator
	memory    *codegen.Memory
	cache     *imaging.ImageCache
	opts      Options
	log       *logrus.Entry
}

// New returns a Pipeline. generator may be nil, in which case runs stop after
// the history is written. memory and cache may be nil.
func New(builder *layout.Builder, generator Generator, memory *codegen.Memory, cache *imaging.ImageCache, opts Options) *Pipeline {
	if memory == nil {
		memory = codegen.NewMemory()
	}
	if opts.HistoryPath == "" {
		opts.HistoryPath = layout.DefaultHistoryPath
	}
	return &Pipeline{
		builder:   builder,
		generator: generator,
		memory:    memory,
		cache:     cache,
		opts:      opts,
		log:       logrus.WithField("component", "pipeline"),
	}
}

// Memory returns the store of generated code.
func (p *Pipeline) Memory() *codegen.Memory { return p.memory }

// HistoryPath returns the layout history file the pipeline writes.
func (p *Pipeline) HistoryPath() string { return p.opts.HistoryPath }

// AnnotatedPath returns where the annotated copy of imagePath is written.
func AnnotatedPath(imagePath string) string {
	return strings.TrimSuffix(imagePath, filepath.Ext(imagePath)) + "_detected.png"
}

// Run processes the sketch at imagePath and records it under filename.
//
// A build or history failure is returned as an error. A code generation
// failure is not: the layout is already saved, so the failure is logged and
// reported in Outcome.GenerateError.
func (p *Pipeline) Run(ctx context.Context, filename, imagePath string, palette []string) (*Outcome, error) {
	log := p.log.WithFields(logrus.Fields{"filename": filename, "image": imagePath})

	// The sketch may have been redrawn since it was last loaded.
	if p.cache != nil {
		p.cache.Evict(imagePath)
	}

	out := &Outcome{Filename: filename, HistoryPath: p.opts.HistoryPath}
	if p.opts.Annotate {
		out.AnnotatedPath = AnnotatedPath(imagePath)
	}

	l, err := p.builder.Build(imagePath, out.AnnotatedPath)
	if err != nil {
		return nil, err
	}
	out.Layout = l

	history, err := layout.MergeAndSave(p.opts.HistoryPath, filename, l)
	if err != nil {
		return nil, fmt.Errorf("failed to save layout history: %w", err)
	}

	if p.generator == nil {
		return out, nil
	}

	if palette == nil {
		palette = p.opts.Palette
	}
	if err := p.generate(ctx, history, out, palette); err != nil {
		log.WithError(err).Warn("Code generation failed; layout kept")
		out.GenerateError = err.Error()
	}
	return out, nil
}

func (p *Pipeline) generate(ctx context.Context, history *layout.History, out *Outcome, palette []string) error {
	doc, err := history.Marshal()
	if err != nil {
		return err
	}

	res, err := p.generator.Generate(ctx, codegen.Request{
		Layout:     doc,
		Filename:   out.Filename,
		Palette:    palette,
		Components: p.memory.Snapshot(),
	})
	if err != nil {
		return err
	}

	page := codegen.ExpectedFilename(out.Filename)
	code, ok := res.Code[page]
	if !ok {
		return fmt.Errorf("%w: %s", codegen.ErrMissingPage, page)
	}

	if _, err := history.SetPageContext(out.Filename, res.Context); err != nil {
		return err
	}
	if err := history.Save(p.opts.HistoryPath); err != nil {
		return err
	}
	out.Layout.PageContext = res.Context
	out.Page = page
	out.Code = code
	p.memory.Remember(out.Filename, code)

	if p.opts.OutputDir != "" {
		path := filepath.Join(p.opts.OutputDir, filepath.FromSlash(page))
		if err := writePage(path, code); err != nil {
			return err
		}
		out.PagePath = path
	}
	return nil
}

func writePage(path, code string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create page directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(code), 0644); err != nil {
		return fmt.Errorf("failed to write page: %w", err)
	}
	return nil
}
