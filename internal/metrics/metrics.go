package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Channel names used as label values.
const (
	ChannelFaces   = "faces"
	ChannelObjects = "objects"
)

// Metrics holds the proctoring collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	ticks          *prometheus.CounterVec
	skipped        *prometheus.CounterVec
	failures       *prometheus.CounterVec
	tickDuration   *prometheus.HistogramVec
	violations     *prometheus.CounterVec
	integrityScore prometheus.Gauge
	sessionActive  prometheus.Gauge
	subscribers    prometheus.Gauge
}

// New creates a Metrics instance with its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "proctor_poll_ticks_total",
			Help: "Detection poll ticks that ran, by channel",
		}, []string{"channel"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "proctor_poll_ticks_skipped_total",
			Help: "Detection poll ticks skipped because the previous tick was still running",
		}, []string{"channel"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "proctor_inference_failures_total",
			Help: "Detection calls that returned an error, by channel",
		}, []string{"channel"}),
		tickDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "proctor_poll_tick_seconds",
			Help:    "Duration of a detection poll tick, inference included",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.2, 0.5, 1, 2},
		}, []string{"channel"}),
		violations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "proctor_violations_total",
			Help: "Violations counted, by type",
		}, []string{"violation"}),
		integrityScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "proctor_integrity_score",
			Help: "Integrity score of the current session",
		}),
		sessionActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "proctor_session_active",
			Help: "Session running (0=stopped, 1=running)",
		}),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "proctor_update_subscribers",
			Help: "Connected live-update subscribers",
		}),
	}
	m.registry.MustRegister(m.ticks, m.skipped, m.failures, m.tickDuration,
		m.violations, m.integrityScore, m.sessionActive, m.subscribers)
	return m
}

func (m *Metrics) TickRan(channel string, seconds float64) {
	if m == nil {
		return
	}
	m.ticks.WithLabelValues(channel).Inc()
	m.tickDuration.WithLabelValues(channel).Observe(seconds)
}

func (m *Metrics) TickSkipped(channel string) {
	if m == nil {
		return
	}
	m.skipped.WithLabelValues(channel).Inc()
}

func (m *Metrics) InferenceFailed(channel string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(channel).Inc()
}

func (m *Metrics) ViolationCounted(violation string) {
	if m == nil {
		return
	}
	m.violations.WithLabelValues(violation).Inc()
}

func (m *Metrics) SetIntegrityScore(score int) {
	if m == nil {
		return
	}
	m.integrityScore.Set(float64(score))
}

func (m *Metrics) SetSessionActive(active bool) {
	if m == nil {
		return
	}
	if active {
		m.sessionActive.Set(1)
		return
	}
	m.sessionActive.Set(0)
}

func (m *Metrics) SetSubscribers(n int) {
	if m == nil {
		return
	}
	m.subscribers.Set(float64(n))
}

// Registry exposes the underlying registry (tests gather from it).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus HTTP handler
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
