// Package events defines the typed research events carried by the stream and
// the parser that turns a frame payload into one of them.
package events

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Kind is the value of the "type" discriminator.
type Kind string

const (
	KindStart            Kind = "start"
	KindSearchStart      Kind = "search_start"
	KindSearchComplete   Kind = "search_complete"
	KindSearchResult     Kind = "search_result"
	KindAnalysisStart    Kind = "analysis_start"
	KindAIThinking       Kind = "ai_thinking"
	KindAIChunk          Kind = "ai_chunk"
	KindAnalysisComplete Kind = "analysis_complete"
	KindComplete         Kind = "complete"
	KindError            Kind = "error"
)

// ErrMalformed is wrapped by every Parse failure.
var ErrMalformed = errors.New("malformed event payload")

// Event is one decoded research event. Only the fields belonging to Kind are
// meaningful; Raw keeps the payload exactly as received.
type Event struct {
	Kind Kind

	// search_complete
	SourcesFound int
	// search_result
	Index int
	Title string
	URL   string
	// ai_chunk
	Content string
	// error
	Message string

	Raw json.RawMessage
}

// Known reports whether the kind is one this package understands.
func (e Event) Known() bool {
	switch e.Kind {
	case KindStart, KindSearchStart, KindSearchComplete, KindSearchResult,
		KindAnalysisStart, KindAIThinking, KindAIChunk, KindAnalysisComplete,
		KindComplete, KindError:
		return true
	}
	return false
}

// IsTerminal reports whether the event ends a session.
func (e Event) IsTerminal() bool {
	return e.Kind == KindComplete || e.Kind == KindError
}

type wireType struct {
	Type *string `json:"type"`
}

type wireSearchComplete struct {
	SourcesFound *int `json:"sources_found"`
}

type wireSearchResult struct {
	Index *int    `json:"index"`
	Title *string `json:"title"`
	URL   *string `json:"url"`
}

type wireAIChunk struct {
	Content *string `json:"content"`
}

type wireError struct {
	Message *string `json:"message"`
}

// Parse decodes one frame payload. Unknown kinds are returned as events with
// Known() == false rather than as errors. Only the fields of the decoded kind
// are type checked; anything else in the object is ignored.
func Parse(payload string) (Event, error) {
	raw := bytes.TrimSpace([]byte(payload))
	if len(raw) == 0 || raw[0] != '{' {
		return Event{}, fmt.Errorf("%w: expected a JSON object", ErrMalformed)
	}

	var t wireType
	if err := json.Unmarshal(raw, &t); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if t.Type == nil || *t.Type == "" {
		return Event{}, fmt.Errorf("%w: missing type", ErrMalformed)
	}

	e := Event{
		Kind: Kind(*t.Type),
		Raw:  json.RawMessage(raw),
	}
	var err error
	switch e.Kind {
	case KindSearchComplete:
		var w wireSearchComplete
		if err = json.Unmarshal(raw, &w); err == nil {
			e.SourcesFound = deref(w.SourcesFound)
		}
	case KindSearchResult:
		var w wireSearchResult
		if err = json.Unmarshal(raw, &w); err == nil {
			e.Index = deref(w.Index)
			e.Title = deref(w.Title)
			e.URL = deref(w.URL)
		}
	case KindAIChunk:
		var w wireAIChunk
		if err = json.Unmarshal(raw, &w); err == nil {
			e.Content = deref(w.Content)
		}
	case KindError:
		var w wireError
		if err = json.Unmarshal(raw, &w); err == nil {
			e.Message = deref(w.Message)
		}
	}
	if err != nil {
		return Event{}, fmt.Errorf("%w: %s: %v", ErrMalformed, e.Kind, err)
	}
	return e, nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// MarshalJSON writes the type plus the fields that belong to it. Unknown
// events are written back as they were received.
func (e Event) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case KindSearchComplete:
		return json.Marshal(struct {
			Type         Kind `json:"type"`
			SourcesFound int  `json:"sources_found"`
		}{e.Kind, e.SourcesFound})
	case KindSearchResult:
		return json.Marshal(struct {
			Type  Kind   `json:"type"`
			Index int    `json:"index"`
			Title string `json:"title"`
			URL   string `json:"url"`
		}{e.Kind, e.Index, e.Title, e.URL})
	case KindAIChunk:
		return json.Marshal(struct {
			Type    Kind   `json:"type"`
			Content string `json:"content"`
		}{e.Kind, e.Content})
	case KindError:
		return json.Marshal(struct {
			Type    Kind   `json:"type"`
			Message string `json:"message"`
		}{e.Kind, e.Message})
	}
	if !e.Known() && len(e.Raw) > 0 {
		return e.Raw, nil
	}
	return json.Marshal(struct {
		Type Kind `json:"type"`
	}{e.Kind})
}

// UnmarshalJSON accepts the same payloads as Parse.
func (e *Event) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

func Start() Event            { return Event{Kind: KindStart} }
func SearchStart() Event      { return Event{Kind: KindSearchStart} }
func AnalysisStart() Event    { return Event{Kind: KindAnalysisStart} }
func AIThinking() Event       { return Event{Kind: KindAIThinking} }
func AnalysisComplete() Event { return Event{Kind: KindAnalysisComplete} }
func Complete() Event         { return Event{Kind: KindComplete} }

func SearchComplete(sourcesFound int) Event {
	return Event{Kind: KindSearchComplete, SourcesFound: sourcesFound}
}

func SearchResult(index int, title, url string) Event {
	return Event{Kind: KindSearchResult, Index: index, Title: title, URL: url}
}

func AIChunk(content string) Event {
	return Event{Kind: KindAIChunk, Content: content}
}

func Error(message string) Event {
	return Event{Kind: KindError, Message: message}
}
