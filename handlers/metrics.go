package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tracekit/tracekit-go/contracts"
)

// MetricsHandler is a built-in TraceHandler that records per-operation call
// counts, error counts and durations as Prometheus metrics. Before/after
// phases of one call are paired through the invocation ID.
type MetricsHandler struct {
	calls    *prometheus.CounterVec
	errors   *prometheus.CounterVec
	duration *prometheus.HistogramVec

	inflight sync.Map // invocation ID -> start time
}

// NewMetricsHandler creates a metrics handler and registers its collectors
// with reg. A nil registerer leaves the collectors unregistered, which is
// useful in tests.
func NewMetricsHandler(reg prometheus.Registerer) (*MetricsHandler, error) {
	h := &MetricsHandler{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tracekit",
			Name:      "calls_total",
			Help:      "Traced operation invocations.",
		}, []string{"operation"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tracekit",
			Name:      "errors_total",
			Help:      "Traced operation invocations that returned an error.",
		}, []string{"operation"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tracekit",
			Name:      "call_duration_seconds",
			Help:      "Traced operation durations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{h.calls, h.errors, h.duration} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return h, nil
}

// BeforeHandle implements contracts.TraceHandler.
func (h *MetricsHandler) BeforeHandle(_ context.Context, inv contracts.Invocation, at time.Time) error {
	h.calls.WithLabelValues(h.operation(inv)).Inc()
	h.inflight.Store(inv.ID, at)
	return nil
}

// AfterHandle implements contracts.TraceHandler.
func (h *MetricsHandler) AfterHandle(_ context.Context, inv contracts.Invocation, _ interface{}, at time.Time) error {
	h.observe(inv, at)
	return nil
}

// ErrorHandle implements contracts.TraceHandler.
func (h *MetricsHandler) ErrorHandle(_ context.Context, inv contracts.Invocation, _ error, at time.Time) error {
	h.errors.WithLabelValues(h.operation(inv)).Inc()
	h.observe(inv, at)
	return nil
}

func (h *MetricsHandler) observe(inv contracts.Invocation, end time.Time) {
	start, ok := h.inflight.LoadAndDelete(inv.ID)
	if !ok {
		return
	}
	h.duration.WithLabelValues(h.operation(inv)).Observe(end.Sub(start.(time.Time)).Seconds())
}

func (h *MetricsHandler) operation(inv contracts.Invocation) string {
	return inv.Operation.QualifiedSignature(inv.Target)
}
