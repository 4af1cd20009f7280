// Package metrics exposes Prometheus counters for check-ins, reviews, feed
// syncs and push deliveries.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricPrefix = "chargetracker_"

// Result labels.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Metrics holds the service collectors on a private registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	checkIns      *prometheus.CounterVec
	checkOuts     *prometheus.CounterVec
	reviews       *prometheus.CounterVec
	feedSyncs     *prometheus.CounterVec
	notifications *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		checkIns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "checkins_total",
				Help: "Check-in attempts by result",
			},
			[]string{"result"},
		),
		checkOuts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "checkouts_total",
				Help: "Check-out attempts by result",
			},
			[]string{"result"},
		),
		reviews: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "reviews_total",
				Help: "Review submissions by result",
			},
			[]string{"result"},
		),
		feedSyncs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "feed_sync_total",
				Help: "Station feed sync runs by result",
			},
			[]string{"result"},
		),
		notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "notifications_sent_total",
				Help: "Web push deliveries by result",
			},
			[]string{"result"},
		),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.checkIns,
		m.checkOuts,
		m.reviews,
		m.feedSyncs,
		m.notifications,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) CheckIn(result string) {
	if m == nil {
		return
	}
	m.checkIns.WithLabelValues(result).Inc()
}

func (m *Metrics) CheckOut(result string) {
	if m == nil {
		return
	}
	m.checkOuts.WithLabelValues(result).Inc()
}

func (m *Metrics) Review(result string) {
	if m == nil {
		return
	}
	m.reviews.WithLabelValues(result).Inc()
}

func (m *Metrics) FeedSync(result string) {
	if m == nil {
		return
	}
	m.feedSyncs.WithLabelValues(result).Inc()
}

func (m *Metrics) Notification(result string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(result).Inc()
}

// Result maps an error to a result label.
func Result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}
