package assistant

import "context"

// Storage is a durable string-keyed byte store shared by the history and the
// goal list.
//
// Get returns ErrNotFound for a missing key. Set returns an error wrapping
// ErrQuotaExceeded when the backend is out of space. Deleting a missing key
// is not an error.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// HistoryStore persists the conversation log.
type HistoryStore interface {
	// Load returns the saved log. It always returns a usable log: when the
	// stored data is unreadable the log is empty and the error explains what
	// was discarded.
	Load(ctx context.Context) (Log, error)

	// Save persists l, truncating it when it is too large, and returns the
	// log it last attempted to write. Callers adopt the returned log.
	Save(ctx context.Context, l Log) (Log, error)

	// Clear removes the stored log.
	Clear(ctx context.Context) error
}
