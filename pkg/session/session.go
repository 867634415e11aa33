// Package session folds research events into the state a client renders.
//
// State is a value. Reduce never modifies its input, so replaying the same
// events from New always produces the same State.
package session

import (
	"fmt"
	"slices"

	"github.com/mikeboe/research-stream/pkg/events"
)

// Source is one discovered search result, in arrival order.
type Source struct {
	Index int    `json:"index"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// State is everything accumulated over one query's lifetime.
type State struct {
	Query         string
	RawEvents     []events.Event
	NarrativeText string
	Sources       []Source
	Active        bool
}

// New starts an active session for query.
func New(query string) State {
	return State{Query: query, Active: true}
}

// Reduce returns the state after e. Every event is logged in RawEvents; once
// the session is inactive nothing else changes.
func Reduce(prior State, e events.Event) State {
	next := prior
	next.RawEvents = append(slices.Clip(prior.RawEvents), e)

	if !prior.Active {
		return next
	}

	switch e.Kind {
	case events.KindAIChunk:
		next.NarrativeText = prior.NarrativeText + e.Content
	case events.KindSearchResult:
		next.Sources = append(slices.Clip(prior.Sources), Source{
			Index: e.Index,
			Title: e.Title,
			URL:   e.URL,
		})
	case events.KindComplete, events.KindError:
		next.Active = false
	}
	return next
}

// Fold applies Reduce to evs in order.
func Fold(initial State, evs []events.Event) State {
	s := initial
	for _, e := range evs {
		s = Reduce(s, e)
	}
	return s
}

// End marks the session inactive without recording an event. It is used when
// the stream closes without a terminal event or the run is cancelled.
func End(s State) State {
	s.Active = false
	return s
}

// Terminated reports whether a complete or error event has been recorded.
func (s State) Terminated() bool {
	for _, e := range s.RawEvents {
		if e.IsTerminal() {
			return true
		}
	}
	return false
}

// StatusLabel describes the most recent event.
func (s State) StatusLabel() string {
	if len(s.RawEvents) == 0 {
		return ""
	}
	last := s.RawEvents[len(s.RawEvents)-1]
	switch last.Kind {
	case events.KindStart:
		return "Starting research…"
	case events.KindSearchStart:
		return "Searching the web…"
	case events.KindSearchComplete:
		return fmt.Sprintf("Found %d sources", last.SourcesFound)
	case events.KindAnalysisStart:
		return "Analyzing with AI…"
	case events.KindAIThinking:
		return "AI is processing…"
	case events.KindAnalysisComplete:
		return "Analysis complete"
	case events.KindComplete:
		return "Research completed"
	case events.KindError:
		return "Error: " + last.Message
	default:
		return ""
	}
}
