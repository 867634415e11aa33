// Package presenter turns session snapshots into something a terminal can
// show. It never mutates the session.
package presenter

import (
	"fmt"
	"unicode/utf8"

	"github.com/mikeboe/research-stream/pkg/session"
)

// View is the renderable projection of one snapshot.
type View struct {
	// ShowStatus is false only before anything happened.
	ShowStatus  bool
	Status      string
	Live        bool
	Header      string
	Body        string
	Placeholder string
	CharCount   int
	Sources     []SourceLine
}

type SourceLine struct {
	Badge string
	Title string
	URL   string
}

// Project maps a snapshot onto a View.
func Project(s session.Snapshot) View {
	v := View{
		Live:      s.Active,
		Body:      s.NarrativeText,
		CharCount: utf8.RuneCountInString(s.NarrativeText),
	}

	if s.Active {
		v.Status = "Researching..."
	} else {
		v.Status = s.StatusLabel
	}
	v.ShowStatus = s.Active || s.StatusLabel != ""

	if s.Query != "" {
		v.Header = "Research: " + s.Query
	} else {
		v.Header = "Research Output"
	}

	if s.NarrativeText == "" {
		if s.Active {
			v.Placeholder = "Waiting for AI response..."
		} else {
			v.Placeholder = "No output yet"
		}
	}

	for _, src := range s.Sources {
		v.Sources = append(v.Sources, SourceLine{
			Badge: fmt.Sprintf("[%d]", src.Index),
			Title: src.Title,
			URL:   src.URL,
		})
	}
	return v
}
