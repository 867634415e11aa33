package presenter

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/mikeboe/research-stream/pkg/session"
)

var (
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	badgeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Bold(true)
	urlStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("242")).Underline(true)
)

// Terminal writes a session to a stream as it progresses. Status changes are
// printed on their own line, narrative text is printed as it grows and the
// sources are listed once the session has ended.
type Terminal struct {
	out io.Writer

	mu         sync.Mutex
	headerDone bool
	lastStatus string
	printed    int
	inText     bool
	finished   bool
}

func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{out: out}
}

// Update renders the difference between the last snapshot and s.
func (t *Terminal) Update(s session.Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.finished {
		return
	}

	if !t.headerDone {
		fmt.Fprintln(t.out, headerStyle.Render(Project(s).Header))
		t.headerDone = true
	}

	if s.StatusLabel != "" && s.StatusLabel != t.lastStatus {
		t.endText()
		style := statusStyle
		if strings.HasPrefix(s.StatusLabel, "Error: ") {
			style = errorStyle
		}
		fmt.Fprintln(t.out, style.Render("» "+s.StatusLabel))
		t.lastStatus = s.StatusLabel
	}

	// Narrative text only ever grows, so the unseen suffix is all that is new.
	if len(s.NarrativeText) > t.printed {
		fmt.Fprint(t.out, s.NarrativeText[t.printed:])
		t.printed = len(s.NarrativeText)
		t.inText = true
	}
}

// Finish prints the closing summary for the final state of a session.
func (t *Terminal) Finish(s session.Snapshot) {
	t.Update(s)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finished {
		return
	}
	t.finished = true
	t.endText()

	v := Project(s)
	if v.Body == "" {
		fmt.Fprintln(t.out, statusStyle.Render(v.Placeholder))
	}
	if len(v.Sources) > 0 {
		fmt.Fprintln(t.out)
		fmt.Fprintln(t.out, headerStyle.Render(fmt.Sprintf("Sources (%d found)", len(v.Sources))))
		for _, src := range v.Sources {
			fmt.Fprintf(t.out, "%s %s\n    %s\n", badgeStyle.Render(src.Badge), src.Title, urlStyle.Render(src.URL))
		}
	}
	fmt.Fprintln(t.out, statusStyle.Render(fmt.Sprintf("%d chars", v.CharCount)))
}

func (t *Terminal) endText() {
	if t.inText {
		fmt.Fprintln(t.out)
		t.inText = false
	}
}
