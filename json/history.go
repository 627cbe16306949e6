package json

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/afilimonchyk/ai-goals-assistant"
	"github.com/rs/zerolog"
)

const (
	// DefaultHistoryKey is the storage key of the conversation log.
	DefaultHistoryKey = "chatHistory"

	// DefaultCeiling is the serialized size above which the log is
	// truncated: 4.5 MiB.
	DefaultCeiling = 4718592

	// DefaultKeep is the number of most recent turns kept on truncation.
	DefaultKeep = 50
)

var _ assistant.HistoryStore = (*History)(nil)

// History implements assistant.HistoryStore as a single JSON array stored
// under one key.
type History struct {
	storage assistant.Storage
	key     string
	ceiling int
	keep    int
	logger  zerolog.Logger
}

// HistoryOption configures a History.
type HistoryOption func(*History)

// WithKey sets the storage key. Default is "chatHistory".
func WithKey(key string) HistoryOption {
	return func(h *History) { h.key = key }
}

// WithCeiling sets the serialized size in bytes above which the log is
// truncated.
func WithCeiling(n int) HistoryOption {
	return func(h *History) { h.ceiling = n }
}

// WithKeep sets how many of the newest turns survive truncation.
func WithKeep(n int) HistoryOption {
	return func(h *History) { h.keep = n }
}

// WithLogger sets the logger used for truncation and discard warnings.
func WithLogger(l zerolog.Logger) HistoryOption {
	return func(h *History) { h.logger = l }
}

// NewHistory creates a History over s.
func NewHistory(s assistant.Storage, opts ...HistoryOption) *History {
	h := &History{
		storage: s,
		key:     DefaultHistoryKey,
		ceiling: DefaultCeiling,
		keep:    DefaultKeep,
		logger:  zerolog.Nop(),
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Load returns the stored log. A missing or empty value is an empty log.
// Unreadable or corrupt data is discarded: the log is empty and the error
// says why.
func (h *History) Load(ctx context.Context) (assistant.Log, error) {
	data, err := h.storage.Get(ctx, h.key)
	if errors.Is(err, assistant.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		h.logger.Warn().Err(err).Str("key", h.key).Msg("history unreadable, starting empty")
		return nil, fmt.Errorf("read history: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	log, err := UnmarshalLog(data)
	if err != nil {
		h.logger.Warn().Err(err).Str("key", h.key).Int("bytes", len(data)).Msg("discarding corrupt history")
		return nil, err
	}
	return log, nil
}

// Save writes l. When the serialized log is larger than the ceiling, or the
// storage reports its quota is exhausted, only the newest turns are kept.
// A quota rejection is retried once with the truncated log. The returned
// log is what Save last tried to write.
func (h *History) Save(ctx context.Context, l assistant.Log) (assistant.Log, error) {
	data, err := MarshalLog(l)
	if err != nil {
		return l, fmt.Errorf("marshal history: %w", err)
	}
	if len(data) > h.ceiling && len(l) > h.keep {
		h.logger.Warn().Int("bytes", len(data)).Int("ceiling", h.ceiling).Int("keep", h.keep).
			Msg("history too large, keeping newest turns")
		l, data, err = h.truncate(l)
		if err != nil {
			return l, err
		}
	}

	err = h.storage.Set(ctx, h.key, data)
	if errors.Is(err, assistant.ErrQuotaExceeded) && len(l) > h.keep {
		h.logger.Warn().Err(err).Int("turns", len(l)).Int("keep", h.keep).
			Msg("storage quota exceeded, retrying with newest turns")
		l, data, err = h.truncate(l)
		if err != nil {
			return l, err
		}
		err = h.storage.Set(ctx, h.key, data)
	}
	if err != nil {
		h.logger.Warn().Err(err).Str("key", h.key).Msg("history not saved")
		return l, fmt.Errorf("save history: %w", err)
	}
	return l, nil
}

// Clear removes the stored log.
func (h *History) Clear(ctx context.Context) error {
	if err := h.storage.Delete(ctx, h.key); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

func (h *History) truncate(l assistant.Log) (assistant.Log, []byte, error) {
	kept := l.Tail(h.keep)
	data, err := MarshalLog(kept)
	if err != nil {
		return kept, nil, fmt.Errorf("marshal history: %w", err)
	}
	return kept, data, nil
}
