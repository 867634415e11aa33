package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// LogWriter persists one log record of a run.
type LogWriter interface {
	InsertLog(ctx context.Context, runID uuid.UUID, ts time.Time, level, message string, metadata []byte) error
}

// DBLogHandler is a slog.Handler that writes records of one run to the database
type DBLogHandler struct {
	Store LogWriter
	RunID uuid.UUID
	Level slog.Leveler

	attrs  []slog.Attr
	prefix string
}

func NewDBLogHandler(store LogWriter, runID uuid.UUID) *DBLogHandler {
	return &DBLogHandler{
		Store: store,
		RunID: runID,
		Level: slog.LevelInfo,
	}
}

func (h *DBLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.Level.Level()
}

func (h *DBLogHandler) Handle(ctx context.Context, r slog.Record) error {
	attrs := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[h.prefix+a.Key] = a.Value.Any()
		return true
	})

	metaJSON, err := json.Marshal(attrs)
	if err != nil {
		metaJSON = []byte("{}")
	}

	// Logs must outlive the request that produced them.
	return h.Store.InsertLog(context.WithoutCancel(ctx), h.RunID, r.Time, r.Level.String(), r.Message, metaJSON)
}

func (h *DBLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = h.attrs[:len(h.attrs):len(h.attrs)]
	for _, a := range attrs {
		next.attrs = append(next.attrs, slog.Attr{Key: h.prefix + a.Key, Value: a.Value})
	}
	return &next
}

// Groups become dotted key prefixes in the flat metadata object.
func (h *DBLogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}
