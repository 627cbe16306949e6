package assistant

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates input failed validation, e.g. an empty message.
	ErrValidation = errors.New("validation error")

	// ErrBusy indicates a request is already in flight.
	ErrBusy = errors.New("request in flight")

	// ErrNotFound indicates a storage key or goal does not exist.
	ErrNotFound = errors.New("not found")

	// ErrQuotaExceeded indicates the storage backend rejected a write
	// because it is out of space.
	ErrQuotaExceeded = errors.New("storage quota exceeded")

	// ErrCorrupt indicates persisted data could not be parsed.
	ErrCorrupt = errors.New("corrupt data")
)

// TransportError is returned when the remote assistant could not produce an
// answer. StatusCode is set for non-2xx replies; Err is set for network
// failures, timeouts and undecodable bodies.
type TransportError struct {
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "transport error"
}

func (e *TransportError) Unwrap() error { return e.Err }
