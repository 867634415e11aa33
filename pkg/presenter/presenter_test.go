package presenter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mikeboe/research-stream/pkg/events"
	"github.com/mikeboe/research-stream/pkg/session"
)

func TestProject(t *testing.T) {
	tests := []struct {
		name  string
		state session.State
		want  View
	}{
		{
			name:  "fresh session",
			state: session.New("go generics"),
			want: View{
				ShowStatus:  true,
				Status:      "Researching...",
				Live:        true,
				Header:      "Research: go generics",
				Placeholder: "Waiting for AI response...",
			},
		},
		{
			name: "streaming",
			state: session.Fold(session.New("q"), []events.Event{
				events.SearchResult(4, "Spec", "https://go.dev/ref/spec"),
				events.AIChunk("héllo"),
			}),
			want: View{
				ShowStatus: true,
				Status:     "Researching...",
				Live:       true,
				Header:     "Research: q",
				Body:       "héllo",
				CharCount:  5,
				Sources:    []SourceLine{{Badge: "[4]", Title: "Spec", URL: "https://go.dev/ref/spec"}},
			},
		},
		{
			name: "finished with error",
			state: session.Fold(session.New("q"), []events.Event{
				events.Error("quota"),
			}),
			want: View{
				ShowStatus:  true,
				Status:      "Error: quota",
				Header:      "Research: q",
				Placeholder: "No output yet",
			},
		},
		{
			name:  "ended with nothing",
			state: session.End(session.New("")),
			want: View{
				Header:      "Research Output",
				Placeholder: "No output yet",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Project(tt.state.Snapshot()))
		})
	}
}

func TestTerminal_IncrementalOutput(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(&out)

	s := session.New("why is the sky blue")
	for _, e := range []events.Event{
		events.Start(),
		events.SearchComplete(1),
		events.SearchResult(1, "Rayleigh scattering", "https://example.com/rayleigh"),
		events.AIChunk("Because of "),
		events.AIChunk("scattering."),
		events.Complete(),
	} {
		s = session.Reduce(s, e)
		term.Update(s.Snapshot())
	}
	term.Finish(s.Snapshot())
	term.Finish(s.Snapshot())

	text := out.String()
	assert.Equal(t, 1, strings.Count(text, "Research: why is the sky blue"))
	assert.Equal(t, 1, strings.Count(text, "Because of scattering."))
	assert.Equal(t, 1, strings.Count(text, "Found 1 sources"))
	assert.Contains(t, text, "Research completed")
	assert.Contains(t, text, "Sources (1 found)")
	assert.Contains(t, text, "https://example.com/rayleigh")
	assert.Equal(t, 1, strings.Count(text, "22 chars"))
	assert.Less(t, strings.Index(text, "Starting research"), strings.Index(text, "Because of"))
}

func TestTerminal_RepeatedSnapshotPrintsNothingNew(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(&out)

	s := session.Fold(session.New("q"), []events.Event{events.Start(), events.AIChunk("abc")})
	term.Update(s.Snapshot())
	before := out.Len()
	term.Update(s.Snapshot())

	assert.Equal(t, before, out.Len())
}

func TestTerminal_FinishWithoutText(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(&out)

	s := session.End(session.Fold(session.New("q"), []events.Event{events.Start()}))
	term.Finish(s.Snapshot())

	assert.Contains(t, out.String(), "No output yet")
	assert.NotContains(t, out.String(), "Sources")
}
