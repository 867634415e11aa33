package session

import (
	"slices"

	"github.com/mikeboe/research-stream/pkg/events"
)

// Snapshot is the read-only view handed to the presentation layer after
// every state change.
type Snapshot struct {
	Query         string
	Active        bool
	StatusLabel   string
	NarrativeText string
	Sources       []Source

	events []events.Event
}

// Snapshot copies the renderable parts of s.
func (s State) Snapshot() Snapshot {
	return Snapshot{
		Query:         s.Query,
		Active:        s.Active,
		StatusLabel:   s.StatusLabel(),
		NarrativeText: s.NarrativeText,
		Sources:       slices.Clone(s.Sources),
		events:        s.RawEvents,
	}
}

// Events returns a copy of the raw event log for audit or history views.
func (s Snapshot) Events() []events.Event {
	return slices.Clone(s.events)
}

// EventCount is the length of the raw event log.
func (s Snapshot) EventCount() int {
	return len(s.events)
}
