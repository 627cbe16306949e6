package anthropic_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/afilimonchyk/ai-goals-assistant"
	"github.com/afilimonchyk/ai-goals-assistant/anthropic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const textReply = `{"id":"msg_1","type":"message","role":"assistant","content":[{"type":"text","text":"Start with "},{"type":"text","text":"ten minutes a day."}],"stop_reason":"end_turn"}`

// capture returns a server that records the request body and replies with
// status and body.
func capture(t *testing.T, status int, reply string, got *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		if got != nil {
			assert.NoError(t, json.Unmarshal(data, got))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_RequestFormat(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "test-api-key", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("Anthropic-Version"))
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/messages", r.URL.Path)

		data, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{
			"model": "claude-opus-4-20250514",
			"max_tokens": 4096,
			"system": [{"type":"text","text":"You are a goal coach.","cache_control":{"type":"ephemeral"}}],
			"messages": [
				{"role":"user","content":[{"type":"text","text":"Hello"}]},
				{"role":"assistant","content":[{"type":"text","text":"Hi"}]},
				{"role":"user","content":[{"type":"text","text":"Thanks"}]}
			],
			"cache_control": {"type":"ephemeral"}
		}`, string(data))

		_, _ = io.WriteString(w, textReply)
	}))
	defer srv.Close()

	client := anthropic.New("test-api-key",
		anthropic.WithBaseURL(srv.URL),
		anthropic.WithModel("claude-opus-4-20250514"),
		anthropic.WithSystemPrompt("You are a goal coach."),
	)
	resp, err := client.Send(context.Background(), assistant.Log{
		{Role: assistant.RoleUser, Content: "Hello", Timestamp: "09:00"},
		{Role: assistant.RoleAssistant, Content: "Hi", Timestamp: "09:00"},
		{Role: assistant.RoleUser, Content: "Thanks", Timestamp: "09:01"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Start with ten minutes a day.", resp.Answer)
}

func TestClient_DefaultModel(t *testing.T) {
	t.Parallel()

	var body map[string]any
	srv := capture(t, http.StatusOK, textReply, &body)
	_, err := anthropic.New("k", anthropic.WithBaseURL(srv.URL)).Send(context.Background(), assistant.Log{
		{Role: assistant.RoleUser, Content: "hi"},
	})
	require.NoError(t, err)
	assert.Equal(t, "claude-sonnet-4-20250514", body["model"])
	assert.NotContains(t, body, "system")
}

func TestClient_RolesAlternate(t *testing.T) {
	t.Parallel()

	var body map[string]any
	srv := capture(t, http.StatusOK, textReply, &body)
	_, err := anthropic.New("k", anthropic.WithBaseURL(srv.URL)).Send(context.Background(), assistant.Log{
		{Role: assistant.RoleAssistant, Content: "Welcome back"},
		{Role: assistant.RoleUser, Content: "first try"},
		{Role: assistant.RoleUser, Content: "  "},
		{Role: assistant.RoleUser, Content: "second try"},
	})
	require.NoError(t, err)

	msgs := body["messages"].([]any)
	require.Len(t, msgs, 1)
	msg := msgs[0].(map[string]any)
	assert.Equal(t, "user", msg["role"])
	content := msg["content"].([]any)
	require.Len(t, content, 2)
	assert.Equal(t, "first try", content[0].(map[string]any)["text"])
	assert.Equal(t, "second try", content[1].(map[string]any)["text"])
}

func TestClient_SkipsNonTextBlocks(t *testing.T) {
	t.Parallel()

	reply := `{"content":[{"type":"thinking","thinking":"hmm"},{"type":"text","text":"Done."}]}`
	srv := capture(t, http.StatusOK, reply, nil)
	resp, err := anthropic.New("k", anthropic.WithBaseURL(srv.URL)).Send(context.Background(), assistant.Log{
		{Role: assistant.RoleUser, Content: "hi"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Done.", resp.Answer)
}

func TestClient_EmptyContent(t *testing.T) {
	t.Parallel()

	srv := capture(t, http.StatusOK, `{"content":[]}`, nil)
	resp, err := anthropic.New("k", anthropic.WithBaseURL(srv.URL)).Send(context.Background(), assistant.Log{
		{Role: assistant.RoleUser, Content: "hi"},
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Answer)
}

func TestClient_HTTPError(t *testing.T) {
	t.Parallel()

	srv := capture(t, http.StatusTooManyRequests,
		`{"type":"error","error":{"type":"rate_limit_error","message":"Rate limited"}}`, nil)
	_, err := anthropic.New("k", anthropic.WithBaseURL(srv.URL)).Send(context.Background(), assistant.Log{
		{Role: assistant.RoleUser, Content: "hi"},
	})

	var te *assistant.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusTooManyRequests, te.StatusCode)
	assert.Equal(t, "HTTP error! status: 429", te.Error())
	assert.EqualError(t, errors.Unwrap(te), "anthropic: rate_limit_error: Rate limited")
}

func TestClient_HTTPErrorNonJSON(t *testing.T) {
	t.Parallel()

	srv := capture(t, http.StatusBadGateway, "upstream down\n", nil)
	_, err := anthropic.New("k", anthropic.WithBaseURL(srv.URL)).Send(context.Background(), assistant.Log{
		{Role: assistant.RoleUser, Content: "hi"},
	})

	var te *assistant.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusBadGateway, te.StatusCode)
	assert.EqualError(t, errors.Unwrap(te), "anthropic: upstream down")
}

func TestClient_BadResponseBody(t *testing.T) {
	t.Parallel()

	srv := capture(t, http.StatusOK, "not json", nil)
	_, err := anthropic.New("k", anthropic.WithBaseURL(srv.URL)).Send(context.Background(), assistant.Log{
		{Role: assistant.RoleUser, Content: "hi"},
	})

	var te *assistant.TransportError
	require.ErrorAs(t, err, &te)
	assert.Zero(t, te.StatusCode)
	assert.Contains(t, te.Error(), "decode response")
}

func TestClient_NetworkError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := anthropic.New("k", anthropic.WithBaseURL(srv.URL)).Send(context.Background(), assistant.Log{
		{Role: assistant.RoleUser, Content: "hi"},
	})
	var te *assistant.TransportError
	require.ErrorAs(t, err, &te)
	assert.Zero(t, te.StatusCode)
}
