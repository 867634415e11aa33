package clients

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// fakeModel streams the configured pieces through the streaming func.
type fakeModel struct {
	pieces     []string
	final      string
	ignoreFunc bool
	err        error
	gotOpts    llms.CallOptions
}

func (f *fakeModel) GenerateContent(ctx context.Context, msgs []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	for _, opt := range options {
		opt(&f.gotOpts)
	}
	if f.err != nil {
		return nil, f.err
	}
	if !f.ignoreFunc && f.gotOpts.StreamingFunc != nil {
		for _, p := range f.pieces {
			if err := f.gotOpts.StreamingFunc(ctx, []byte(p)); err != nil {
				return nil, err
			}
		}
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.final}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func collect(t *testing.T, a *LangchainAnalyzer) []string {
	t.Helper()
	var got []string
	require.NoError(t, a.Analyze(context.Background(), "prompt", func(s string) error {
		got = append(got, s)
		return nil
	}))
	return got
}

func TestLangchainAnalyzer_Streams(t *testing.T) {
	model := &fakeModel{pieces: []string{"SUMMARY: ", "", "fast"}, final: "SUMMARY: fast"}
	a := NewLangchainAnalyzer(model, DefaultGenerationOptions)

	assert.Equal(t, []string{"SUMMARY: ", "fast"}, collect(t, a))
	assert.Equal(t, 600, model.gotOpts.MaxTokens)
	assert.InDelta(t, 0.2, model.gotOpts.Temperature, 1e-9)
}

func TestLangchainAnalyzer_FallsBackToFinalContent(t *testing.T) {
	model := &fakeModel{final: "whole answer", ignoreFunc: true}
	a := NewLangchainAnalyzer(model, DefaultGenerationOptions)

	assert.Equal(t, []string{"whole answer"}, collect(t, a))
}

func TestLangchainAnalyzer_Error(t *testing.T) {
	model := &fakeModel{err: errors.New("quota")}
	a := NewLangchainAnalyzer(model, DefaultGenerationOptions)

	err := a.Analyze(context.Background(), "p", func(string) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota")
}

func TestLangchainAnalyzer_StopsOnCallbackError(t *testing.T) {
	model := &fakeModel{pieces: []string{"a", "b"}}
	a := NewLangchainAnalyzer(model, DefaultGenerationOptions)

	stop := errors.New("client gone")
	calls := 0
	err := a.Analyze(context.Background(), "p", func(string) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestConstructorsRequireKey(t *testing.T) {
	_, err := GoogleAi(context.Background(), DefaultModel, "")
	assert.Error(t, err)
	_, err = NewGenaiAnalyzer(context.Background(), "", "", DefaultGenerationOptions)
	assert.Error(t, err)
}
