// Package chi serves the chat session to a browser over HTTP using the chi
// router.
package chi

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/afilimonchyk/ai-goals-assistant"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

//go:embed index.html
var indexHTML []byte

// Session is the part of *assistant.Controller the server drives.
type Session interface {
	Submit(ctx context.Context, text string) error
	Clear(ctx context.Context) error
	Log() assistant.Log
}

var _ Session = (*assistant.Controller)(nil)

// Server is the HTTP surface of a chat session.
type Server struct {
	router  *chi.Mux
	addr    string
	session Session
	goals   assistant.GoalStore
	answer  assistant.Transport
	metrics http.Handler
	logger  zerolog.Logger
	now     func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithGoals mounts the /api/goals routes.
func WithGoals(g assistant.GoalStore) Option {
	return func(s *Server) { s.goals = g }
}

// WithAnswerer mounts POST /ask, answering with t. This lets the server act
// as the endpoint the ask transport talks to.
func WithAnswerer(t assistant.Transport) Option {
	return func(s *Server) { s.answer = t }
}

// WithMetrics mounts h at GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithLogger sets the request and error logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithClock sets the clock used for urgency and error timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// NewServer creates a Server for session listening on addr.
func NewServer(addr string, session Session, opts ...Option) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		addr:    addr,
		session: session,
		logger:  zerolog.Nop(),
		now:     time.Now,
	}
	for _, o := range opts {
		o(s)
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(s.logRequests)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/", s.index)
	s.router.Get("/health", s.health)
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/history", s.history)
		r.Delete("/history", s.clearHistory)
		r.Post("/messages", s.postMessage)
		if s.goals != nil {
			r.Get("/goals", s.listGoals)
			r.Post("/goals", s.addGoal)
			r.Post("/goals/{id}/complete", s.completeGoal)
			r.Put("/goals/{id}/progress", s.setProgress)
		}
	})
	if s.answer != nil {
		s.router.Post("/ask", s.ask)
	}
	if s.metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run listens on the server's address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.addr).Msg("http server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(indexHTML)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps err to a status code and writes it as JSON.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, assistant.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, assistant.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, assistant.ErrBusy):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
