// Package research runs one query through search and analysis and reports
// progress as a sequence of research events.
package research

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/mikeboe/research-stream/pkg/events"
	"github.com/mikeboe/research-stream/pkg/research/tools"
	"github.com/mikeboe/research-stream/pkg/splitter"
)

// NoSourcesMessage is reported when no search hit carries enough text.
const NoSourcesMessage = "No relevant sources found"

// Searcher finds candidate sources for a query.
type Searcher interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]tools.Document, error)
}

// Analyzer streams a model's answer to prompt, fragment by fragment.
type Analyzer interface {
	Analyze(ctx context.Context, prompt string, onChunk func(string) error) error
}

type Config struct {
	NumResults      int
	MinContentChars int
	MaxContentChars int
}

var DefaultConfig = Config{NumResults: 5, MinContentChars: 200, MaxContentChars: 1000}

type Agent struct {
	Searcher Searcher
	Analyzer Analyzer
	Config   Config
	Logger   *slog.Logger

	splitter *splitter.TextSplitter
}

func NewAgent(searcher Searcher, analyzer Analyzer, cfg Config) *Agent {
	if cfg.NumResults <= 0 {
		cfg.NumResults = DefaultConfig.NumResults
	}
	if cfg.MaxContentChars <= 0 {
		cfg.MaxContentChars = DefaultConfig.MaxContentChars
	}
	return &Agent{
		Searcher: searcher,
		Analyzer: analyzer,
		Config:   cfg,
		Logger:   slog.Default(),
		splitter: splitter.NewRecursiveCharacterTextSplitter(cfg.MaxContentChars, 0),
	}
}

// errStopped is handed back to the analyzer once the consumer stops pulling
// events.
var errStopped = errors.New("event consumer stopped")

// Research yields the events of one research run. The last event is always
// complete or error unless the consumer stops early.
func (a *Agent) Research(ctx context.Context, query string) iter.Seq[events.Event] {
	return func(yield func(events.Event) bool) {
		logger := a.Logger.With("query", query)

		if !yield(events.Start()) || !yield(events.SearchStart()) {
			return
		}

		docs, err := a.Searcher.Search(ctx, query, a.Config.NumResults)
		if err != nil {
			logger.Error("Search failed", "searcher", a.Searcher.Name(), "error", err)
			yield(events.Error(fmt.Sprintf("Search failed: %v", err)))
			return
		}

		sources := a.selectSources(docs)
		logger.Info("Found relevant sources", "candidates", len(docs), "kept", len(sources))

		if !yield(events.SearchComplete(len(sources))) {
			return
		}
		for i, src := range sources {
			if !yield(events.SearchResult(i+1, src.Title, src.URL)) {
				return
			}
		}
		if len(sources) == 0 {
			yield(events.Error(NoSourcesMessage))
			return
		}

		if !yield(events.AnalysisStart()) || !yield(events.AIThinking()) {
			return
		}

		chunks, stopped := 0, false
		err = a.Analyzer.Analyze(ctx, BuildPrompt(query, sources), func(text string) error {
			if stopped {
				return errStopped
			}
			chunks++
			if !yield(events.AIChunk(text)) {
				stopped = true
				return errStopped
			}
			return nil
		})
		if stopped {
			logger.Info("Consumer stopped during analysis")
			return
		}
		if err != nil {
			logger.Error("Analysis failed", "error", err)
			yield(events.Error(fmt.Sprintf("Analysis failed: %v", err)))
			return
		}

		logger.Info("AI analysis complete", "chunks", chunks)
		if !yield(events.AnalysisComplete()) {
			return
		}
		yield(events.Complete())
	}
}

// selectSources keeps documents with more than MinContentChars of text and
// cuts their content to the first MaxContentChars chunk.
func (a *Agent) selectSources(docs []tools.Document) []tools.Document {
	if a.splitter == nil {
		a.splitter = splitter.NewRecursiveCharacterTextSplitter(max(a.Config.MaxContentChars, 1), 0)
	}

	var out []tools.Document
	for _, d := range docs {
		content := strings.TrimSpace(d.Content)
		if content == "" || utf8.RuneCountInString(content) <= a.Config.MinContentChars {
			continue
		}
		d.Content = a.splitter.Head(content)
		out = append(out, d)
	}
	return out
}

// BuildPrompt lays out the query and numbered sources for the analyzer.
func BuildPrompt(query string, sources []tools.Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Research query: %s\n\nSources:\n", query)
	for i, src := range sources {
		fmt.Fprintf(&b, "\nSource %d:\nTitle: %s\n\n%s\n\n", i+1, src.Title, src.Content)
	}
	b.WriteString(`
Based on these sources, provide:
1. A comprehensive summary (2-3 sentences)
2. Three key insights as bullet points

Format your response exactly like this:
SUMMARY: [your summary here]

INSIGHTS:
- [insight 1]
- [insight 2]
- [insight 3]`)
	return b.String()
}
