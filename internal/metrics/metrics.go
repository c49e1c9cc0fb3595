// Package metrics holds the Prometheus instrumentation for the server.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   prometheus.CounterVec
	HTTPRequestDuration prometheus.HistogramVec

	// Realtime metrics
	SocketConnectionsActive prometheus.Gauge
	SocketConnectionsTotal  prometheus.Counter
	SocketMessagesSent      prometheus.Counter
	SocketMessagesReceived  prometheus.Counter

	// Notification dispatch
	NotificationsDelivered prometheus.CounterVec
	NotificationsDropped   prometheus.CounterVec

	// Rate limiting
	RateLimitExceededTotal prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),
			SocketConnectionsActive: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "socket_connections_active",
					Help: "Currently open realtime connections",
				},
			),
			SocketConnectionsTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "socket_connections_total",
					Help: "Total realtime connections accepted",
				},
			),
			SocketMessagesSent: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "socket_messages_sent_total",
					Help: "Messages written to realtime connections",
				},
			),
			SocketMessagesReceived: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "socket_messages_received_total",
					Help: "Messages read from realtime connections",
				},
			),
			NotificationsDelivered: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "notifications_delivered_total",
					Help: "Notifications handed to a live connection",
				},
				[]string{"type"},
			),
			NotificationsDropped: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "notifications_dropped_total",
					Help: "Notifications dropped because the recipient was offline",
				},
				[]string{"type"},
			),
			RateLimitExceededTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "rate_limit_exceeded_total",
					Help: "Requests rejected by the rate limiter",
				},
				[]string{"endpoint", "method"},
			),
		}
	})
	return instance
}

// Get returns the metrics instance, initializing it if needed
func Get() *Metrics {
	if instance == nil {
		return Initialize()
	}
	return instance
}
