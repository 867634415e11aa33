// Package tools holds the search backends the research agent draws sources
// from.
package tools

// Document is one search hit with the text that will be shown to the model.
type Document struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}
