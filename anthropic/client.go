package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/afilimonchyk/ai-goals-assistant"
)

// Interface compliance check.
var _ assistant.Transport = (*Client)(nil)

// Client implements [assistant.Transport] for the Anthropic Messages API.
type Client struct {
	apiKey       string
	baseURL      string
	model        string
	systemPrompt string
	httpClient   *http.Client
}

// Option configures a [Client].
type Option func(*Client)

// WithBaseURL sets the API base URL. Useful for testing with httptest.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithModel sets the model ID.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithSystemPrompt sets the system prompt sent with every request.
func WithSystemPrompt(prompt string) Option {
	return func(c *Client) { c.systemPrompt = prompt }
}

// New creates a new Anthropic [Client] with the given API key and options.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		model:      defaultModel,
		httpClient: http.DefaultClient,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Send asks the model for the next assistant turn. Every failure is
// returned as an *assistant.TransportError.
func (c *Client) Send(ctx context.Context, log assistant.Log) (assistant.Response, error) {
	body, err := json.Marshal(c.buildRequest(log))
	if err != nil {
		return assistant.Response{}, &assistant.TransportError{Err: fmt.Errorf("anthropic: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+messagesPath, bytes.NewReader(body))
	if err != nil {
		return assistant.Response{}, &assistant.TransportError{Err: fmt.Errorf("anthropic: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", c.apiKey)
	httpReq.Header.Set("Anthropic-Version", apiVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return assistant.Response{}, &assistant.TransportError{Err: fmt.Errorf("anthropic: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return assistant.Response{}, parseHTTPError(resp)
	}

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return assistant.Response{}, &assistant.TransportError{Err: fmt.Errorf("anthropic: decode response: %w", err)}
	}
	var answer strings.Builder
	for _, b := range apiResp.Content {
		if b.Type == "text" {
			answer.WriteString(b.Text)
		}
	}
	return assistant.Response{Answer: answer.String()}, nil
}

func (c *Client) buildRequest(log assistant.Log) apiRequest {
	req := apiRequest{
		Model:     c.model,
		MaxTokens: defaultMaxTokens,
		Messages:  convertTurns(log),
	}
	if c.systemPrompt != "" {
		// The system prompt never changes within a session, so it is a
		// stable cache breakpoint.
		req.System = []apiTextBlock{{
			Type:         "text",
			Text:         c.systemPrompt,
			CacheControl: &apiCacheControl{Type: "ephemeral"},
		}}
	}
	// Top-level cache_control for automatic message-window caching.
	req.CacheControl = &apiCacheControl{Type: "ephemeral"}
	return req
}

// convertTurns maps the log to API messages. The API wants alternating
// roles starting with the user, so leading assistant turns are dropped and
// consecutive turns of one role are merged into one message. Two user turns
// in a row happen after a failed request.
func convertTurns(log assistant.Log) []apiMessage {
	result := make([]apiMessage, 0, len(log))
	for _, t := range log {
		if t.Blank() {
			continue
		}
		if len(result) == 0 && t.Role != assistant.RoleUser {
			continue
		}
		block := apiTextBlock{Type: "text", Text: t.Content}
		if n := len(result); n > 0 && result[n-1].Role == string(t.Role) {
			result[n-1].Content = append(result[n-1].Content, block)
			continue
		}
		result = append(result, apiMessage{Role: string(t.Role), Content: []apiTextBlock{block}})
	}
	return result
}

func parseHTTPError(resp *http.Response) error {
	te := &assistant.TransportError{StatusCode: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		te.Err = fmt.Errorf("anthropic: HTTP %d (failed to read body: %w)", resp.StatusCode, err)
		return te
	}
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Error.Message == "" {
		te.Err = errors.New("anthropic: " + strings.TrimSpace(string(body)))
		return te
	}
	te.Err = fmt.Errorf("anthropic: %s: %s", apiErr.Error.Type, apiErr.Error.Message)
	return te
}
