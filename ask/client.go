package ask

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/afilimonchyk/ai-goals-assistant"
)

// Interface compliance check.
var _ assistant.Transport = (*Client)(nil)

// Client implements [assistant.Transport] over HTTP.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// Option configures a [Client].
type Option func(*Client)

// WithEndpoint sets the full URL of the ask endpoint. Useful for testing
// with httptest.
func WithEndpoint(url string) Option {
	return func(c *Client) { c.endpoint = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a new [Client] with the given options.
func New(opts ...Option) *Client {
	c := &Client{
		endpoint:   DefaultEndpoint,
		httpClient: http.DefaultClient,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiRequest struct {
	Messages []apiMessage `json:"messages"`
}

type apiResponse struct {
	Answer string `json:"answer"`
}

// Send posts the log and returns the service's answer. Any failure is
// returned as a *[assistant.TransportError].
func (c *Client) Send(ctx context.Context, log assistant.Log) (assistant.Response, error) {
	body, err := json.Marshal(apiRequest{Messages: convertTurns(log)})
	if err != nil {
		return assistant.Response{}, &assistant.TransportError{Err: fmt.Errorf("ask: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return assistant.Response{}, &assistant.TransportError{Err: fmt.Errorf("ask: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return assistant.Response{}, &assistant.TransportError{Err: fmt.Errorf("ask: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return assistant.Response{}, &assistant.TransportError{StatusCode: resp.StatusCode}
	}

	var out apiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		return assistant.Response{}, &assistant.TransportError{Err: fmt.Errorf("ask: decode response: %w", err)}
	}
	return assistant.Response{Answer: out.Answer}, nil
}

// convertTurns converts a log to request messages, dropping blank turns.
func convertTurns(log assistant.Log) []apiMessage {
	msgs := make([]apiMessage, 0, len(log))
	for _, t := range log {
		if t.Blank() {
			continue
		}
		msgs = append(msgs, apiMessage{Role: string(t.Role), Content: t.Content})
	}
	return msgs
}
