package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("info"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("loud"))
}

func TestFanout(t *testing.T) {
	var a, b bytes.Buffer
	logger := slog.New(Fanout{
		slog.NewTextHandler(&a, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelWarn}),
	}).With("run", "r1")

	logger.Debug("quiet detail")
	logger.Warn("loud problem")

	assert.Contains(t, a.String(), "quiet detail")
	assert.Contains(t, a.String(), "loud problem")
	assert.NotContains(t, b.String(), "quiet detail")
	assert.Contains(t, b.String(), "loud problem")
	assert.Contains(t, b.String(), "run=r1")
}

func TestConsoleHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewConsoleHandler(&buf, "warn"))

	logger.Info("hidden")
	logger.Error("shown", "key", "value")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
