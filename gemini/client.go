package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/afilimonchyk/ai-goals-assistant"
	"google.golang.org/genai"
)

// Interface compliance check.
var _ assistant.Transport = (*Client)(nil)

// Client implements [assistant.Transport] for the Google Gemini API.
type Client struct {
	client       *genai.Client
	model        string
	systemPrompt string
}

// Option configures a [Client].
type Option func(*Client)

// WithModel sets the model ID.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithSystemPrompt sets the system instruction sent with every request.
func WithSystemPrompt(prompt string) Option {
	return func(c *Client) { c.systemPrompt = prompt }
}

// New creates a new Gemini [Client] with the given API key and options.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	c := &Client{
		client: gc,
		model:  defaultModel,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Send asks the model for the next assistant turn.
func (c *Client) Send(ctx context.Context, log assistant.Log) (assistant.Response, error) {
	var config *genai.GenerateContentConfig
	if c.systemPrompt != "" {
		config = &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{
				Parts: []*genai.Part{{Text: c.systemPrompt}},
			},
		}
	}
	resp, err := c.client.Models.GenerateContent(ctx, c.model, ConvertTurns(log), config)
	if err != nil {
		return assistant.Response{}, mapError(err)
	}
	return assistant.Response{Answer: ExtractAnswer(resp)}, nil
}

// ConvertTurns converts a log to genai Contents, dropping blank turns.
// Exported for testing.
func ConvertTurns(log assistant.Log) []*genai.Content {
	var result []*genai.Content
	for _, t := range log {
		if t.Blank() {
			continue
		}
		role := "user"
		if t.Role == assistant.RoleAssistant {
			role = "model"
		}
		result = append(result, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: t.Content}},
		})
	}
	return result
}

// ExtractAnswer joins the text parts of the first candidate, skipping
// thoughts. It returns "" when the response has no candidate.
// Exported for testing.
func ExtractAnswer(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	content := resp.Candidates[0].Content
	if content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range content.Parts {
		if p == nil || p.Thought {
			continue
		}
		b.WriteString(p.Text)
	}
	return b.String()
}

// mapError converts SDK errors to *assistant.TransportError, keeping the
// HTTP status of API errors.
func mapError(err error) *assistant.TransportError {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &assistant.TransportError{StatusCode: apiErr.Code, Err: fmt.Errorf("gemini: %w", err)}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &assistant.TransportError{StatusCode: apiErrPtr.Code, Err: fmt.Errorf("gemini: %w", err)}
	}
	return &assistant.TransportError{Err: fmt.Errorf("gemini: %w", err)}
}
