package splitter

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestHead_ShortTextUnchanged(t *testing.T) {
	ts := NewRecursiveCharacterTextSplitter(1000, 0)
	assert.Equal(t, "a short abstract", ts.Head("a short abstract"))
}

func TestHead_LongTextIsCut(t *testing.T) {
	ts := NewRecursiveCharacterTextSplitter(100, 0)
	text := strings.Repeat("word ", 200)

	head := ts.Head(text)

	assert.NotEmpty(t, head)
	assert.LessOrEqual(t, utf8.RuneCountInString(head), 100)
	assert.True(t, strings.HasPrefix(text, head))
}

func TestHead_Empty(t *testing.T) {
	ts := NewRecursiveCharacterTextSplitter(100, 0)
	assert.Equal(t, "", ts.Head("   "))
}
