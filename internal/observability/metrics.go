package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	registry *prometheus.Registry
	stages   *stageWindow

	UpstreamCalls     *prometheus.CounterVec
	UpstreamRetries   *prometheus.CounterVec
	GateCoercions     *prometheus.CounterVec
	StructuredIntents *prometheus.CounterVec
	RealtimeOffers    *prometheus.CounterVec
	UploadCleanup     *prometheus.CounterVec
	StageLatency      *prometheus.HistogramVec
}

// NewMetrics registers the instruments on a registry private to this Metrics value,
// so several servers (and tests) can coexist in one process.
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		stages:   newStageWindow(256),
		UpstreamCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_calls_total",
			Help:      "Calls to the conversational AI provider by operation and outcome.",
		}, []string{"op", "outcome"}),
		UpstreamRetries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_retries_total",
			Help:      "Retries of transient upstream failures by operation.",
		}, []string{"op"}),
		GateCoercions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gate_coercions_total",
			Help:      "Structured replies corrected by the dialogue gate, by field.",
		}, []string{"field"}),
		StructuredIntents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "structured_intents_total",
			Help:      "Gate-resolved intents returned to clients.",
		}, []string{"intent"}),
		RealtimeOffers: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "realtime_negotiations_total",
			Help:      "Realtime session offers relayed, by outcome.",
		}, []string{"outcome"}),
		UploadCleanup: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_cleanup_total",
			Help:      "Temporary voice-note files released, by outcome.",
		}, []string{"outcome"}),
		StageLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_stage_latency_ms",
			Help:      "Latency of each turn stage in milliseconds.",
			Buckets:   []float64{100, 250, 500, 750, 1000, 1500, 2500, 4000, 8000},
		}, []string{"stage"}),
	}
}

// ObserveStage records a stage latency in both the histogram and the rolling window.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	ms := float64(d.Microseconds()) / 1000
	m.StageLatency.WithLabelValues(stage).Observe(ms)
	m.stages.Observe(stage, ms)
}

// ObserveIndicator counts a named turn event (fallbacks, coercions) in the rolling window.
func (m *Metrics) ObserveIndicator(name string) {
	if m == nil {
		return
	}
	m.stages.ObserveIndicator(name)
}

func (m *Metrics) ObserveUpstream(op string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.UpstreamCalls.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) SnapshotStages() LatencySnapshot {
	if m == nil {
		return LatencySnapshot{Stages: []StageStats{}}
	}
	return m.stages.Snapshot()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveRetry(op string) {
	if m == nil {
		return
	}
	m.UpstreamRetries.WithLabelValues(op).Inc()
	m.stages.ObserveIndicator("retry_" + op)
}

func (m *Metrics) ObserveCoercion(field string) {
	if m == nil {
		return
	}
	m.GateCoercions.WithLabelValues(field).Inc()
	m.stages.ObserveIndicator("gate_coercion")
}

func (m *Metrics) ObserveIntent(intent string) {
	if m == nil {
		return
	}
	m.StructuredIntents.WithLabelValues(intent).Inc()
}

func (m *Metrics) ObserveRealtimeOffer(outcome string) {
	if m == nil {
		return
	}
	m.RealtimeOffers.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveUploadCleanup(outcome string) {
	if m == nil {
		return
	}
	m.UploadCleanup.WithLabelValues(outcome).Inc()
}
