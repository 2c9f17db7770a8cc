package codegen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"github.com/ironsheep/sketch-layout-mcp/internal/config"
)

// ErrMissingPage is returned when the model's answer does not contain the
// page that was asked for.
var ErrMissingPage = errors.New("generated code is missing the requested page")

// Request describes one page to generate.
type Request struct {
	// Layout is the full layout history document, so the model sees every
	// page of the site.
	Layout []byte

	// Filename is the sketch the page is generated for, e.g. "home.png".
	Filename string

	// Palette holds hex colors the page should use. May be empty.
	Palette []string

	// Components maps sketch filenames to code generated for them earlier.
	Components map[string]string
}

// Result is the model's answer.
type Result struct {
	// Code maps output paths such as "home/page.tsx" to file contents.
	Code map[string]string `json:"files"`

	// Context is a short description of the page, stored in the layout as
	// page_context and shown to the model when later pages are generated.
	Context string `json:"context"`
}

// ExpectedFilename returns the path the generated page for a sketch must
// have: the sketch name without extension, as an app-router page.
func ExpectedFilename(filename string) string {
	base := filepath.Base(filename)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return stem + "/page.tsx"
}

// Generator turns layouts into React pages with a chat model.
type Generator struct {
	llm         llms.Model
	model       string
	temperature float64
	log         *logrus.Entry
}

// New returns a Generator that talks to an OpenAI-compatible endpoint, by
// default OpenRouter.
func New(cfg config.CodeGenConfig, apiKey string) (*Generator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is not set (%s)", cfg.APIKeyEnv)
	}
	opts := []openai.Option{
		openai.WithModel(cfg.Model),
		openai.WithToken(apiKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("error creating LLM client: %w", err)
	}
	return NewWithModel(llm, cfg.Model, cfg.Temperature), nil
}

// NewWithModel returns a Generator over an existing model.
func NewWithModel(llm llms.Model, model string, temperature float64) *Generator {
	return &Generator{
		llm:         llm,
		model:       model,
		temperature: temperature,
		log: logrus.WithFields(logrus.Fields{
			"component": "codegen",
			"model":     model,
		}),
	}
}

// Generate asks the model for the page of req.Filename.
//
// The answer must be a JSON object {"files": {...}, "context": "..."}; code
// fences around it are tolerated. If the requested page is not among the
// files the error wraps ErrMissingPage and the partial result is returned.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	palette, err := NormalizePalette(req.Palette)
	if err != nil {
		return nil, err
	}
	expected := ExpectedFilename(req.Filename)

	logger := g.log.WithFields(logrus.Fields{
		"filename": req.Filename,
		"page":     expected,
	})
	logger.Debug("Sending request to code model")

	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(schema.ChatMessageTypeHuman, userPrompt(req, expected, palette)),
	}
	callOpts := []llms.CallOption{llms.WithJSONMode()}
	if g.temperature > 0 {
		callOpts = append(callOpts, llms.WithTemperature(g.temperature))
	}

	completion, err := g.llm.GenerateContent(ctx, messages, callOpts...)
	if err != nil {
		logger.WithError(err).Error("Failed to get response from code model")
		return nil, fmt.Errorf("error getting response from LLM: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, errors.New("LLM returned no choices")
	}

	result, err := parseResult(completion.Choices[0].Content)
	if err != nil {
		return nil, err
	}
	if _, ok := result.Code[expected]; !ok {
		return result, fmt.Errorf("%w: %s", ErrMissingPage, expected)
	}

	logger.WithField("files", len(result.Code)).Info("Generated page")
	return result, nil
}

// parseResult extracts the JSON object from a model answer.
func parseResult(content string) (*Result, error) {
	text := strings.TrimSpace(content)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("LLM answer is not a JSON object: %q", truncate(text, 80))
	}

	var result Result
	if err := json.Unmarshal([]byte(text[start:end+1]), &result); err != nil {
		return nil, fmt.Errorf("failed to parse LLM answer: %w", err)
	}
	if result.Code == nil {
		result.Code = map[string]string{}
	}
	return &result, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
