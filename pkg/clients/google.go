package clients

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
)

// ModelType names a Google model.
type ModelType string

const (
	// DefaultModel is the default model to use if none is specified
	DefaultModel ModelType = "gemini-3-flash-preview"
	ProModel     ModelType = "gemini-3-pro-preview"
)

// GenerationOptions bound one analysis call.
type GenerationOptions struct {
	MaxTokens   int
	Temperature float64
}

// DefaultGenerationOptions matches the short, low-temperature answers the
// research service produces.
var DefaultGenerationOptions = GenerationOptions{MaxTokens: 600, Temperature: 0.2}

// GoogleAi creates a langchaingo Google AI model.
func GoogleAi(ctx context.Context, model ModelType, apiKey string) (*googleai.GoogleAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("google API key is not set")
	}
	if model == "" {
		model = DefaultModel
	}

	// See https://ai.google.dev/gemini-api/docs/models/gemini for possible models
	llm, err := googleai.New(ctx, googleai.WithAPIKey(apiKey), googleai.WithDefaultModel(string(model)))
	if err != nil {
		return nil, fmt.Errorf("failed to init google ai: %w", err)
	}
	return llm, nil
}

// LangchainAnalyzer streams completions from any langchaingo model.
type LangchainAnalyzer struct {
	LLM     llms.Model
	Options GenerationOptions
}

func NewLangchainAnalyzer(llm llms.Model, opts GenerationOptions) *LangchainAnalyzer {
	return &LangchainAnalyzer{LLM: llm, Options: opts}
}

// Analyze sends prompt and passes every streamed fragment to onChunk.
func (a *LangchainAnalyzer) Analyze(ctx context.Context, prompt string, onChunk func(string) error) error {
	streamed := false
	resp, err := a.LLM.GenerateContent(ctx,
		[]llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)},
		llms.WithMaxTokens(a.Options.MaxTokens),
		llms.WithTemperature(a.Options.Temperature),
		llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			if len(chunk) == 0 {
				return nil
			}
			streamed = true
			return onChunk(string(chunk))
		}),
	)
	if err != nil {
		return fmt.Errorf("llm generation failed: %w", err)
	}

	// Some models ignore the streaming func and answer in one piece.
	if !streamed && resp != nil && len(resp.Choices) > 0 && resp.Choices[0].Content != "" {
		return onChunk(resp.Choices[0].Content)
	}
	return nil
}
