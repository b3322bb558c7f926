package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const Namespace = "voxrelay"

// Rejection reasons for messages_rejected_total.
const (
	ReasonInvalidMessage   = "invalid_message"
	ReasonInvalidDataURL   = "invalid_data_url"
	ReasonRateLimited      = "rate_limited"
	ReasonTranscribeFailed = "transcribe_failed"
	ReasonUnauthorized     = "unauthorized"
)

// Metrics holds the relay's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	published          *prometheus.CounterVec
	rejected           *prometheus.CounterVec
	subscribers        prometheus.Gauge
	delivered          prometheus.Counter
	dropped            prometheus.Counter
	transcribeDuration *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "messages_published_total",
			Help:      "Messages accepted for broadcast, by body type.",
		}, []string{"kind"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "messages_rejected_total",
			Help:      "Inbound messages rejected before broadcast, by reason.",
		}, []string{"reason"}),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "subscribers",
			Help:      "Currently connected WebSocket subscribers.",
		}),
		delivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "deliveries_total",
			Help:      "Events queued to subscribers.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "deliveries_dropped_total",
			Help:      "Events dropped because a subscriber buffer was full.",
		}),
		transcribeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "transcribe_duration_seconds",
			Help:      "Voice transcription latency.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 8),
		}, []string{"status"}),
	}

	m.registry.MustRegister(
		m.published,
		m.rejected,
		m.subscribers,
		m.delivered,
		m.dropped,
		m.transcribeDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the registry for the /metrics handler and tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// The recorders below are nil-safe so components can run without metrics.

func (m *Metrics) MessagePublished(kind string) {
	if m == nil {
		return
	}
	m.published.WithLabelValues(kind).Inc()
}

func (m *Metrics) MessageRejected(reason string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) SetSubscribers(n int) {
	if m == nil {
		return
	}
	m.subscribers.Set(float64(n))
}

func (m *Metrics) Delivered(n int) {
	if m == nil {
		return
	}
	m.delivered.Add(float64(n))
}

func (m *Metrics) Dropped(n int) {
	if m == nil {
		return
	}
	m.dropped.Add(float64(n))
}

func (m *Metrics) ObserveTranscribe(d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.transcribeDuration.WithLabelValues(status).Observe(d.Seconds())
}
