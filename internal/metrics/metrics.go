package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shop"

// Metrics holds the application counters. Label values are kept to small fixed sets.
type Metrics struct {
	OrdersCreated   prometheus.Counter
	CartRejections  *prometheus.CounterVec
	Notifications   *prometheus.CounterVec
	AdminCommands   *prometheus.CounterVec
	OutboxPublished *prometheus.CounterVec
	HTTPRequests    *prometheus.CounterVec
	HTTPLatencyMS   *prometheus.HistogramVec
	registry        prometheus.Gatherer
}

// New creates the counters and registers them in reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		OrdersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Orders committed by checkout.",
		}),
		CartRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_rejections_total",
			Help:      "Checkouts that did not produce an order.",
		}, []string{"reason"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Admin notifications by delivery outcome.",
		}, []string{"outcome"}),
		AdminCommands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admin_commands_total",
			Help:      "Admin bot commands handled.",
		}, []string{"command"}),
		OutboxPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_published_total",
			Help:      "Outbox publish attempts by result.",
		}, []string{"result"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"route", "status"}),
		HTTPLatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"route"}),
		registry: reg,
	}

	reg.MustRegister(
		m.OrdersCreated,
		m.CartRejections,
		m.Notifications,
		m.AdminCommands,
		m.OutboxPublished,
		m.HTTPRequests,
		m.HTTPLatencyMS,
	)

	return m
}

// Discard returns metrics registered on a private registry nobody scrapes.
func Discard() *Metrics {
	return New(prometheus.NewRegistry())
}

// Handler exposes the registry the metrics were created on.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
