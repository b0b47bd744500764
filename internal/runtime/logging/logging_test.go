package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSlogServiceLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger := NewSlogServiceLogger(log)
	logger.Info("message published", LogFields{"topic": "user.loggedIn"})

	out := buf.String()
	assert.Contains(t, out, "message published")
	assert.Contains(t, out, "user.loggedIn")
}

func TestNewSlogServiceLoggerNilPanics(t *testing.T) {
	assert.Panics(t, func() { NewSlogServiceLogger(nil) })
}

func TestWithCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger := NewSlogServiceLogger(log).With(LogFields{"component": "codec"})
	logger.Debug("encoded", nil)

	assert.Contains(t, buf.String(), "codec")
}

func TestErrorIncludesError(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger := NewSlogServiceLogger(log)
	logger.Error("decode failed", errors.New("missing source"), nil)

	assert.Contains(t, buf.String(), "missing source")
}

func TestWatermillAdapterRoundTrip(t *testing.T) {
	captured := watermill.NewCaptureLogger()

	logger := NewWatermillServiceLogger(captured)
	adapter := NewWatermillAdapter(logger)
	adapter.Info("bridge", watermill.LogFields{"k": "v"})

	require.True(t, captured.Has(watermill.CapturedMessage{
		Level:  watermill.InfoLogLevel,
		Msg:    "bridge",
		Fields: watermill.LogFields{"k": "v"},
	}))
}

func TestNewWatermillAdapterNilPanics(t *testing.T) {
	assert.Panics(t, func() { NewWatermillAdapter(nil) })
	assert.Panics(t, func() { NewWatermillServiceLogger(nil) })
}
