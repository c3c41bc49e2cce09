package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "studyhabit"

// Delivery channels.
const (
	ChannelAgent   = "agent"
	ChannelSurface = "surface"
)

// Reasons a notification was not shown.
const (
	ReasonPermission = "permission"
	ReasonDuplicate  = "duplicate"
)

// Metrics holds the notification counters on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry   *prometheus.Registry
	dispatched *prometheus.CounterVec
	failures   *prometheus.CounterVec
	suppressed *prometheus.CounterVec
	fires      prometheus.Counter
	active     prometheus.Gauge
}

// New registers all collectors, including Go runtime and process stats.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_dispatched_total",
			Help:      "Notifications handed to a delivery channel.",
		}, []string{"channel"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_failures_total",
			Help:      "Notifications a delivery channel rejected.",
		}, []string{"channel"}),
		suppressed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_suppressed_total",
			Help:      "Notifications skipped before dispatch.",
		}, []string{"reason"}),
		fires: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "daily_reminder_fires_total",
			Help:      "Times the daily reminder timer fired.",
		}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "daily_reminder_active",
			Help:      "1 while a daily reminder is armed.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.dispatched, m.failures, m.suppressed, m.fires, m.active,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Dispatched(channel string) {
	if m == nil {
		return
	}
	m.dispatched.WithLabelValues(channel).Inc()
}

func (m *Metrics) Failed(channel string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(channel).Inc()
}

func (m *Metrics) Suppressed(reason string) {
	if m == nil {
		return
	}
	m.suppressed.WithLabelValues(reason).Inc()
}

func (m *Metrics) Fired() {
	if m == nil {
		return
	}
	m.fires.Inc()
}

func (m *Metrics) SetScheduleActive(active bool) {
	if m == nil {
		return
	}
	if active {
		m.active.Set(1)
	} else {
		m.active.Set(0)
	}
}
