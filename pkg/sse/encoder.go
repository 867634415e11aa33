package sse

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Encoder writes values as data frames followed by a blank separator line.
type Encoder struct {
	w       io.Writer
	flusher http.Flusher
}

func NewEncoder(w io.Writer) *Encoder {
	enc := &Encoder{w: w}
	if f, ok := w.(http.Flusher); ok {
		enc.flusher = f
	}
	return enc
}

// WriteEvent marshals v to JSON and writes it as one frame, flushing the
// underlying writer when it supports it.
func (e *Encoder) WriteEvent(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if _, err := e.w.Write([]byte(DataPrefix)); err != nil {
		return err
	}
	if _, err := e.w.Write(data); err != nil {
		return err
	}
	if _, err := e.w.Write([]byte("\n\n")); err != nil {
		return err
	}
	if e.flusher != nil {
		e.flusher.Flush()
	}
	return nil
}
