// Package zerolog builds the process logger and logs session events with
// github.com/rs/zerolog.
package zerolog

import (
	"errors"
	"io"
	"strings"
	"time"

	"github.com/afilimonchyk/ai-goals-assistant"
	"github.com/rs/zerolog"
)

// Config selects the log level ("trace" to "error", default "info") and
// format ("json" or "console", default "json").
type Config struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// New creates a logger writing to w.
func New(cfg Config, w io.Writer) zerolog.Logger {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		if l, err := zerolog.ParseLevel(strings.ToLower(cfg.Level)); err == nil {
			level = l
		}
	}

	out := w
	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// EventLogger returns an event handler that logs session events.
func EventLogger(logger zerolog.Logger) func(assistant.Event) {
	return func(evt assistant.Event) {
		switch e := evt.(type) {
		case assistant.EventTurnRendered:
			logger.Debug().
				Str("role", string(e.Turn.Role)).
				Int("bytes", len(e.Turn.Content)).
				Msg("turn rendered")
		case assistant.EventTypingStarted:
			logger.Debug().Msg("awaiting response")
		case assistant.EventTypingStopped:
			logger.Debug().Msg("response settled")
		case assistant.EventError:
			ev := logger.Warn().Err(e.Err)
			var te *assistant.TransportError
			if errors.As(e.Err, &te) && te.StatusCode != 0 {
				ev = ev.Int("status", te.StatusCode)
			}
			ev.Msg("request failed")
		case assistant.EventHistoryCleared:
			logger.Info().Msg("history cleared")
		case assistant.EventHistoryTruncated:
			logger.Warn().
				Int("dropped", e.Dropped).
				Int("kept", e.Kept).
				Msg("history truncated")
		case assistant.EventPersistFailed:
			logger.Error().Err(e.Err).Msg("history not persisted")
		}
	}
}
