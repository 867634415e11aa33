package research

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikeboe/research-stream/pkg/events"
	"github.com/mikeboe/research-stream/pkg/research/tools"
	"github.com/mikeboe/research-stream/pkg/session"
)

type fakeSearcher struct {
	docs []tools.Document
	err  error
}

func (f *fakeSearcher) Name() string { return "fake" }

func (f *fakeSearcher) Search(ctx context.Context, query string, n int) ([]tools.Document, error) {
	return f.docs, f.err
}

type fakeAnalyzer struct {
	chunks []string
	err    error
	prompt string
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, prompt string, onChunk func(string) error) error {
	f.prompt = prompt
	for _, c := range f.chunks {
		if err := onChunk(c); err != nil {
			return err
		}
	}
	return f.err
}

func long(word string) string {
	return strings.Repeat(word+" ", 150)
}

func newTestAgent(s Searcher, a Analyzer) *Agent {
	agent := NewAgent(s, a, DefaultConfig)
	agent.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return agent
}

func kinds(evs []events.Event) []events.Kind {
	out := make([]events.Kind, len(evs))
	for i, e := range evs {
		out[i] = e.Kind
	}
	return out
}

func TestResearch_FullRun(t *testing.T) {
	searcher := &fakeSearcher{docs: []tools.Document{
		{Title: "Alpha", URL: "https://a", Content: long("alpha")},
		{Title: "Too short", URL: "https://s", Content: "tiny"},
		{Title: "Beta", URL: "https://b", Content: long("beta")},
	}}
	analyzer := &fakeAnalyzer{chunks: []string{"SUMMARY: ", "both."}}

	evs := slices.Collect(newTestAgent(searcher, analyzer).Research(context.Background(), "letters"))

	assert.Equal(t, []events.Kind{
		events.KindStart,
		events.KindSearchStart,
		events.KindSearchComplete,
		events.KindSearchResult,
		events.KindSearchResult,
		events.KindAnalysisStart,
		events.KindAIThinking,
		events.KindAIChunk,
		events.KindAIChunk,
		events.KindAnalysisComplete,
		events.KindComplete,
	}, kinds(evs))
	assert.Equal(t, 2, evs[2].SourcesFound)
	assert.Equal(t, events.SearchResult(1, "Alpha", "https://a"), evs[3])
	assert.Equal(t, events.SearchResult(2, "Beta", "https://b"), evs[4])

	assert.Contains(t, analyzer.prompt, "Research query: letters")
	assert.Contains(t, analyzer.prompt, "Source 2:\nTitle: Beta")
	assert.NotContains(t, analyzer.prompt, "Too short")
	assert.Contains(t, analyzer.prompt, "INSIGHTS:")

	final := session.Fold(session.New("letters"), evs)
	assert.Equal(t, "SUMMARY: both.", final.NarrativeText)
	assert.Equal(t, "Research completed", final.StatusLabel())
}

func TestResearch_ContentIsCut(t *testing.T) {
	searcher := &fakeSearcher{docs: []tools.Document{
		{Title: "Huge", URL: "https://h", Content: strings.Repeat("data ", 2000)},
	}}
	analyzer := &fakeAnalyzer{}

	slices.Collect(newTestAgent(searcher, analyzer).Research(context.Background(), "q"))

	assert.Less(t, len(analyzer.prompt), 2000)
}

func TestResearch_NoSources(t *testing.T) {
	searcher := &fakeSearcher{docs: []tools.Document{{Title: "x", Content: "short"}}}
	analyzer := &fakeAnalyzer{}

	evs := slices.Collect(newTestAgent(searcher, analyzer).Research(context.Background(), "q"))

	require.Len(t, evs, 4)
	assert.Equal(t, events.SearchComplete(0), evs[2])
	assert.Equal(t, events.Error(NoSourcesMessage), evs[3])
	assert.Empty(t, analyzer.prompt)
}

func TestResearch_SearchError(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("rate limited")}

	evs := slices.Collect(newTestAgent(searcher, &fakeAnalyzer{}).Research(context.Background(), "q"))

	require.Len(t, evs, 3)
	assert.Equal(t, events.KindError, evs[2].Kind)
	assert.Contains(t, evs[2].Message, "rate limited")
}

func TestResearch_AnalysisError(t *testing.T) {
	searcher := &fakeSearcher{docs: []tools.Document{{Title: "A", URL: "u", Content: long("a")}}}
	analyzer := &fakeAnalyzer{chunks: []string{"partial"}, err: errors.New("model overloaded")}

	evs := slices.Collect(newTestAgent(searcher, analyzer).Research(context.Background(), "q"))

	last := evs[len(evs)-1]
	assert.Equal(t, events.KindError, last.Kind)
	assert.Contains(t, last.Message, "model overloaded")
	assert.Equal(t, events.AIChunk("partial"), evs[len(evs)-2])
}

func TestResearch_ConsumerStops(t *testing.T) {
	searcher := &fakeSearcher{docs: []tools.Document{{Title: "A", URL: "u", Content: long("a")}}}
	analyzer := &fakeAnalyzer{chunks: []string{"one", "two", "three"}}

	var got []events.Event
	for e := range newTestAgent(searcher, analyzer).Research(context.Background(), "q") {
		got = append(got, e)
		if e.Kind == events.KindAIChunk {
			break
		}
	}

	assert.Equal(t, events.AIChunk("one"), got[len(got)-1])
}

func TestAgentWithoutConstructor(t *testing.T) {
	a := &Agent{
		Searcher: &fakeSearcher{docs: []tools.Document{{Title: "A", URL: "u", Content: long("a")}}},
		Analyzer: &fakeAnalyzer{chunks: []string{"ok"}},
		Config:   DefaultConfig,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	evs := slices.Collect(a.Research(context.Background(), "q"))
	assert.Equal(t, events.KindComplete, evs[len(evs)-1].Kind)
}
