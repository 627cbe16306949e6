package chi_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/afilimonchyk/ai-goals-assistant"
	"github.com/afilimonchyk/ai-goals-assistant/ask"
	"github.com/afilimonchyk/ai-goals-assistant/chi"
	ajson "github.com/afilimonchyk/ai-goals-assistant/json"
	"github.com/afilimonchyk/ai-goals-assistant/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 14, 9, 5, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type history struct {
	Turns []struct {
		Role      string `json:"role"`
		Content   string `json:"content"`
		Timestamp string `json:"timestamp"`
		Markup    string `json:"markup"`
		Text      string `json:"text"`
	} `json:"turns"`
	Error *struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"error"`
}

func newServer(t *testing.T, tr assistant.Transport, opts ...chi.Option) (*chi.Server, *assistant.Controller) {
	t.Helper()
	ctrl := assistant.NewController(tr, ajson.NewHistory(&mock.Memory{}), assistant.WithClock(clock))
	require.NoError(t, ctrl.Open(context.Background()))
	opts = append([]chi.Option{chi.WithClock(clock)}, opts...)
	return chi.NewServer(":0", ctrl, opts...), ctrl
}

func answering(answer string) *mock.Transport {
	return &mock.Transport{
		SendFn: func(ctx context.Context, log assistant.Log) (assistant.Response, error) {
			return assistant.Response{Answer: answer}, nil
		},
	}
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

func TestServer_Health(t *testing.T) {
	t.Parallel()

	srv, _ := newServer(t, answering(""))
	w := do(t, srv, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, w)["status"])
}

func TestServer_Index(t *testing.T) {
	t.Parallel()

	srv, _ := newServer(t, answering(""))
	w := do(t, srv, "GET", "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "AI Goals Assistant")
}

func TestServer_NotFound(t *testing.T) {
	t.Parallel()

	srv, _ := newServer(t, answering(""))
	assert.Equal(t, http.StatusNotFound, do(t, srv, "GET", "/nonexistent", "").Code)
	// Optional routes are only mounted when configured.
	assert.Equal(t, http.StatusNotFound, do(t, srv, "GET", "/api/goals", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, srv, "GET", "/metrics", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, srv, "PUT", "/api/history", "").Code)
}

func TestServer_PostMessage(t *testing.T) {
	t.Parallel()

	t.Run("returns the history with the reply", func(t *testing.T) {
		t.Parallel()

		srv, _ := newServer(t, answering("Try **small** steps"))
		w := do(t, srv, "POST", "/api/messages", `{"message":"help me <now>"}`)
		require.Equal(t, http.StatusOK, w.Code)

		h := decode[history](t, w)
		require.Len(t, h.Turns, 2)
		assert.Equal(t, "user", h.Turns[0].Role)
		assert.Equal(t, "help me <now>", h.Turns[0].Content)
		assert.Equal(t, "help me &lt;now&gt;", h.Turns[0].Markup)
		assert.Equal(t, "help me <now>", h.Turns[0].Text)
		assert.Equal(t, "09:05", h.Turns[0].Timestamp)
		assert.Equal(t, "Try <b>small</b> steps", h.Turns[1].Markup)
		assert.Equal(t, "Try small steps", h.Turns[1].Text)
		assert.Nil(t, h.Error)
	})

	t.Run("empty message is a no-op", func(t *testing.T) {
		t.Parallel()

		srv, ctrl := newServer(t, answering("unused"))
		w := do(t, srv, "POST", "/api/messages", `{"message":"   "}`)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, ctrl.Log())
	})

	t.Run("bad body", func(t *testing.T) {
		t.Parallel()

		srv, _ := newServer(t, answering("unused"))
		w := do(t, srv, "POST", "/api/messages", `{`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.NotEmpty(t, decode[map[string]string](t, w)["error"])
	})

	t.Run("transport failure returns an error turn outside the history", func(t *testing.T) {
		t.Parallel()

		failing := &mock.Transport{
			SendFn: func(ctx context.Context, log assistant.Log) (assistant.Response, error) {
				return assistant.Response{}, &assistant.TransportError{StatusCode: 500}
			},
		}
		srv, ctrl := newServer(t, failing)
		w := do(t, srv, "POST", "/api/messages", `{"message":"hi"}`)
		require.Equal(t, http.StatusOK, w.Code)

		h := decode[history](t, w)
		require.Len(t, h.Turns, 1)
		require.NotNil(t, h.Error)
		assert.Equal(t, "assistant", h.Error.Role)
		assert.Equal(t, "Error: HTTP error! status: 500", h.Error.Content)
		assert.Len(t, ctrl.Log(), 1)
	})

	t.Run("concurrent submission is rejected", func(t *testing.T) {
		t.Parallel()

		started := make(chan struct{})
		release := make(chan struct{})
		slow := &mock.Transport{
			SendFn: func(ctx context.Context, log assistant.Log) (assistant.Response, error) {
				close(started)
				<-release
				return assistant.Response{Answer: "done"}, nil
			},
		}
		srv, _ := newServer(t, slow)

		var wg sync.WaitGroup
		wg.Add(1)
		var first *httptest.ResponseRecorder
		go func() {
			defer wg.Done()
			first = do(t, srv, "POST", "/api/messages", `{"message":"one"}`)
		}()
		<-started

		assert.Equal(t, http.StatusConflict, do(t, srv, "POST", "/api/messages", `{"message":"two"}`).Code)
		assert.Equal(t, http.StatusConflict, do(t, srv, "DELETE", "/api/history", "").Code)

		close(release)
		wg.Wait()
		assert.Equal(t, http.StatusOK, first.Code)
	})
}

func TestServer_History(t *testing.T) {
	t.Parallel()

	srv, _ := newServer(t, answering("hello"))

	h := decode[history](t, do(t, srv, "GET", "/api/history", ""))
	assert.NotNil(t, h.Turns)
	assert.Empty(t, h.Turns)

	do(t, srv, "POST", "/api/messages", `{"message":"hi"}`)
	h = decode[history](t, do(t, srv, "GET", "/api/history", ""))
	assert.Len(t, h.Turns, 2)

	assert.Equal(t, http.StatusNoContent, do(t, srv, "DELETE", "/api/history", "").Code)
	h = decode[history](t, do(t, srv, "GET", "/api/history", ""))
	assert.Empty(t, h.Turns)
}

func TestServer_Goals(t *testing.T) {
	t.Parallel()

	type goal struct {
		ID        string `json:"id"`
		Text      string `json:"text"`
		Completed bool   `json:"completed"`
		Progress  int    `json:"progress"`
		Deadline  string `json:"deadline"`
		DaysLeft  int    `json:"days_left"`
		Urgent    bool   `json:"urgent"`
	}

	srv, _ := newServer(t, answering(""), chi.WithGoals(ajson.NewGoals(&mock.Memory{})))

	w := do(t, srv, "POST", "/api/goals", `{"text":"Run a marathon","deadline":"2026-10-16"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[goal](t, w)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "2026-10-16", created.Deadline)
	assert.Equal(t, 2, created.DaysLeft)
	assert.True(t, created.Urgent)

	assert.Equal(t, http.StatusBadRequest, do(t, srv, "POST", "/api/goals", `{"text":"x","deadline":"soon"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, "POST", "/api/goals", `{"text":" ","deadline":"2026-12-01"}`).Code)

	w = do(t, srv, "PUT", "/api/goals/"+created.ID+"/progress", `{"progress":40}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 40, decode[goal](t, w).Progress)

	assert.Equal(t, http.StatusBadRequest, do(t, srv, "PUT", "/api/goals/"+created.ID+"/progress", `{"progress":140}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, "PUT", "/api/goals/"+created.ID+"/progress", `{}`).Code)

	w = do(t, srv, "POST", "/api/goals/"+created.ID+"/complete", "")
	require.Equal(t, http.StatusOK, w.Code)
	done := decode[goal](t, w)
	assert.True(t, done.Completed)
	assert.Equal(t, 100, done.Progress)
	assert.False(t, done.Urgent)

	assert.Equal(t, http.StatusNotFound, do(t, srv, "POST", "/api/goals/missing/complete", "").Code)

	w = do(t, srv, "GET", "/api/goals", "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[map[string][]goal](t, w)["goals"]
	require.Len(t, list, 1)
	assert.Equal(t, "Run a marathon", list[0].Text)
}

func TestServer_Metrics(t *testing.T) {
	t.Parallel()

	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "assistant_turns_total 0\n")
	})
	srv, _ := newServer(t, answering(""), chi.WithMetrics(metrics))
	w := do(t, srv, "GET", "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "assistant_turns_total")
}

func TestServer_Ask(t *testing.T) {
	t.Parallel()

	t.Run("answers the ask client", func(t *testing.T) {
		t.Parallel()

		var got assistant.Log
		backend := &mock.Transport{
			SendFn: func(ctx context.Context, log assistant.Log) (assistant.Response, error) {
				got = log
				return assistant.Response{Answer: "Break it into weekly steps."}, nil
			},
		}
		srv, _ := newServer(t, answering(""), chi.WithAnswerer(backend))
		ts := httptest.NewServer(srv)
		defer ts.Close()

		client := ask.New(ask.WithEndpoint(ts.URL + "/ask"))
		resp, err := client.Send(context.Background(), assistant.Log{
			{Role: assistant.RoleUser, Content: "How do I learn Go?", Timestamp: "09:00"},
		})
		require.NoError(t, err)
		assert.Equal(t, "Break it into weekly steps.", resp.Answer)
		require.Len(t, got, 1)
		assert.Equal(t, assistant.RoleUser, got[0].Role)
		assert.Equal(t, "How do I learn Go?", got[0].Content)
	})

	t.Run("backend failure is a 500 for the client", func(t *testing.T) {
		t.Parallel()

		backend := &mock.Transport{
			SendFn: func(ctx context.Context, log assistant.Log) (assistant.Response, error) {
				return assistant.Response{}, errors.New("model unavailable")
			},
		}
		srv, _ := newServer(t, answering(""), chi.WithAnswerer(backend))
		ts := httptest.NewServer(srv)
		defer ts.Close()

		_, err := ask.New(ask.WithEndpoint(ts.URL+"/ask")).Send(context.Background(), assistant.Log{
			{Role: assistant.RoleUser, Content: "hi"},
		})
		var te *assistant.TransportError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, http.StatusInternalServerError, te.StatusCode)
	})

	t.Run("unknown role", func(t *testing.T) {
		t.Parallel()

		srv, _ := newServer(t, answering(""), chi.WithAnswerer(answering("x")))
		w := do(t, srv, "POST", "/ask", `{"messages":[{"role":"system","content":"x"}]}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestPlainText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"emphasis", "**bold** and *it*", "bold and it"},
		{"entities", `a < b & "c"`, `a < b & "c"`},
		{"code", "run `go test`", "run go test"},
		{"fence", "```\nx := 1\n```", "\nx := 1\n"},
		{"script", "<script>alert(1)</script>", "<script>alert(1)</script>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, chi.PlainText(assistant.Format(tt.raw)))
		})
	}
}
