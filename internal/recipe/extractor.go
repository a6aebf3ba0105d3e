package recipe

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"

	"meal-rotation/internal/llm"
	"meal-rotation/internal/shared"
)

//go:embed extractor_prompt.md
var extractorPrompt string

var extractorTmpl = template.Must(template.New("extractor").Parse(extractorPrompt))

// PostData is the raw material handed to the extractor.
type PostData struct {
	SourceID  string
	SourceURL string
	Title     string
	UpdatedAt string
	Content   string
}

type ExtractorResult struct {
	Recipe Recipe
	Meta   shared.AgentMeta
}

// Extractor turns unstructured recipe text into a Recipe with measured ingredients.
type Extractor struct {
	textGen llm.TextGenerator
}

func NewExtractor(textGen llm.TextGenerator) *Extractor {
	return &Extractor{textGen: textGen}
}

// ExtractRecipe runs the LLM over data and validates what comes back.
// Meta is filled even on failure so callers can record token usage.
func (e *Extractor) ExtractRecipe(ctx context.Context, data PostData) (ExtractorResult, error) {
	start := time.Now()

	prompt, err := buildExtractorPrompt(data)
	if err != nil {
		return ExtractorResult{}, err
	}

	llmResp, err := e.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return ExtractorResult{}, fmt.Errorf("failed to get LLM response: %w", err)
	}

	meta := shared.AgentMeta{
		AgentName: "Extractor",
		Usage:     llmResp.Usage,
		Latency:   time.Since(start),
	}

	var rec Recipe
	if err := json.Unmarshal([]byte(stripCodeFence(llmResp.Content)), &rec); err != nil {
		return ExtractorResult{Meta: meta}, fmt.Errorf("failed to unmarshal LLM response: %w", err)
	}

	rec.ID = 0
	rec.Version = 0
	rec.History = nil
	rec.SourceID = data.SourceID
	rec.SourceURL = data.SourceURL
	rec.UpdatedAt = data.UpdatedAt
	if rec.Title == "" {
		rec.Title = data.Title
	}
	rec.Normalize()

	if err := rec.Validate(); err != nil {
		return ExtractorResult{Recipe: rec, Meta: meta}, fmt.Errorf("extracted recipe is invalid: %w", err)
	}

	return ExtractorResult{Recipe: rec, Meta: meta}, nil
}

func buildExtractorPrompt(data PostData) (string, error) {
	var buf bytes.Buffer
	if err := extractorTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render extractor prompt: %w", err)
	}
	return buf.String(), nil
}

// stripCodeFence removes a ```json fence some models add despite instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
