// Package prometheus exposes session metrics using the Prometheus client.
package prometheus

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/afilimonchyk/ai-goals-assistant"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the session collectors on a private registry so several
// instances can coexist in one process.
type Metrics struct {
	registry        *prometheus.Registry
	turns           *prometheus.CounterVec
	transportErrors *prometheus.CounterVec
	truncations     prometheus.Counter
	persistFailures prometheus.Counter
	latency         *prometheus.HistogramVec
}

// New creates Metrics with Go runtime and process collectors registered.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assistant_turns_total",
				Help: "Turns rendered per role, including replayed history.",
			},
			[]string{"role"},
		),
		transportErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assistant_transport_errors_total",
				Help: "Failed requests to the assistant by HTTP status, or \"network\".",
			},
			[]string{"status"},
		),
		truncations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "assistant_history_truncations_total",
			Help: "Times the stored history was cut down to its newest turns.",
		}),
		persistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "assistant_persist_failures_total",
			Help: "Saves of the history that failed.",
		}),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "assistant_transport_latency_seconds",
				Help:    "Assistant request latency by outcome.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 32, 60},
			},
			[]string{"outcome"},
		),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.turns,
		m.transportErrors,
		m.truncations,
		m.persistFailures,
		m.latency,
	)
	return m
}

// Handle is an event handler that updates the counters.
func (m *Metrics) Handle(evt assistant.Event) {
	switch e := evt.(type) {
	case assistant.EventTurnRendered:
		m.turns.WithLabelValues(string(e.Turn.Role)).Inc()
	case assistant.EventError:
		m.transportErrors.WithLabelValues(statusLabel(e.Err)).Inc()
	case assistant.EventHistoryTruncated:
		m.truncations.Inc()
	case assistant.EventPersistFailed:
		m.persistFailures.Inc()
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Transport wraps next so every request's latency is observed.
func (m *Metrics) Transport(next assistant.Transport) *Transport {
	return &Transport{next: next, latency: m.latency}
}

var _ assistant.Transport = (*Transport)(nil)

// Transport is an assistant.Transport that records request latency.
type Transport struct {
	next    assistant.Transport
	latency *prometheus.HistogramVec
}

// Send forwards to the wrapped transport.
func (t *Transport) Send(ctx context.Context, log assistant.Log) (assistant.Response, error) {
	start := time.Now()
	resp, err := t.next.Send(ctx, log)
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	t.latency.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	return resp, err
}

func statusLabel(err error) string {
	var te *assistant.TransportError
	if errors.As(err, &te) && te.StatusCode != 0 {
		return strconv.Itoa(te.StatusCode)
	}
	return "network"
}
