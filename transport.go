package assistant

import "context"

// Response is the reply of the remote assistant. Answer may be empty when
// the service replied without one.
type Response struct {
	Answer string
}

// Transport sends the conversation to the remote assistant and returns its
// reply. Implementations return a *TransportError for every failure and do
// not retry.
type Transport interface {
	Send(ctx context.Context, log Log) (Response, error)
}
