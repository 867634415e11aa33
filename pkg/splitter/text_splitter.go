package splitter

import (
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

// TextSplitter cuts source text on paragraph, line and word boundaries.
type TextSplitter struct {
	splitter textsplitter.TextSplitter
}

// NewRecursiveCharacterTextSplitter creates a new recursive character text splitter
func NewRecursiveCharacterTextSplitter(chunkSize, chunkOverlap int) *TextSplitter {
	ts := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
	)

	return &TextSplitter{splitter: ts}
}

// SplitText splits text into chunks
func (ts *TextSplitter) SplitText(text string) ([]string, error) {
	return ts.splitter.SplitText(text)
}

// Head returns the first chunk of text, or the trimmed text itself when it
// cannot be split.
func (ts *TextSplitter) Head(text string) string {
	chunks, err := ts.SplitText(text)
	if err != nil || len(chunks) == 0 {
		return strings.TrimSpace(text)
	}
	return chunks[0]
}
