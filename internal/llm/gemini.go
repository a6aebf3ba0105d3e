package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"meal-rotation/internal/config"
	"meal-rotation/internal/shared"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// ErrNoContent is returned when the model answers without any text.
var ErrNoContent = errors.New("no content generated")

// GeminiClient is a client for the Google Gemini API.
type GeminiClient struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	modelName string
}

// NewGeminiClient creates a new Gemini API client.
func NewGeminiClient(ctx context.Context, cfg *config.Config) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	model := client.GenerativeModel(cfg.GeminiModel)
	model.SetTemperature(0.1)
	model.ResponseMIMEType = "application/json"
	return &GeminiClient{client: client, model: model, modelName: cfg.GeminiModel}, nil
}

// GenerateContent sends a prompt to the Gemini model and returns the generated text.
func (c *GeminiClient) GenerateContent(ctx context.Context, prompt string) (ContentResponse, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return ContentResponse{}, fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ContentResponse{}, ErrNoContent
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return ContentResponse{}, ErrNoContent
	}

	out := ContentResponse{
		Content: sb.String(),
		Usage:   shared.TokenUsage{Model: c.modelName},
	}
	if md := resp.UsageMetadata; md != nil {
		out.Usage.PromptTokens = int(md.PromptTokenCount)
		out.Usage.CompletionTokens = int(md.CandidatesTokenCount)
		out.Usage.TotalTokens = int(md.TotalTokenCount)
	}
	return out, nil
}

// Close closes the underlying Gemini client.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}
