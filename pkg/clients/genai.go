package clients

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GenaiAnalyzer streams completions straight from the Gemini API.
type GenaiAnalyzer struct {
	Client  *genai.Client
	Model   string
	Options GenerationOptions
}

func NewGenaiAnalyzer(ctx context.Context, model, apiKey string, opts GenerationOptions) (*GenaiAnalyzer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("google API key is not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	if model == "" {
		model = string(DefaultModel)
	}
	return &GenaiAnalyzer{Client: client, Model: model, Options: opts}, nil
}

func (a *GenaiAnalyzer) Analyze(ctx context.Context, prompt string, onChunk func(string) error) error {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(a.Options.Temperature)),
		MaxOutputTokens: int32(a.Options.MaxTokens),
	}

	for resp, err := range a.Client.Models.GenerateContentStream(ctx, a.Model, genai.Text(prompt), cfg) {
		if err != nil {
			return fmt.Errorf("gemini stream failed: %w", err)
		}
		if text := resp.Text(); text != "" {
			if err := onChunk(text); err != nil {
				return err
			}
		}
	}
	return nil
}
