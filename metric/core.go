package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace is the Prometheus namespace for all SDK metrics.
const Namespace = "hypersim"

// Metrics contains all SDK-level metrics (not domain-specific)
type Metrics struct {
	// Request metrics
	RequestsTotal     *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	ErrorsTotal       *prometheus.CounterVec
	HealthCheckStatus *prometheus.GaugeVec

	// Plugin metrics
	PluginExecutions *prometheus.CounterVec
	PluginFailures   *prometheus.CounterVec

	// WebSocket metrics
	WSConnected     prometheus.Gauge
	WSReconnects    prometheus.Counter
	WSSubscriptions prometheus.Gauge
	WSMessagesRecv  prometheus.Counter
	WSMessagesSent  prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all SDK metrics
func NewMetrics() *Metrics {
	return &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "requests",
				Name:      "total",
				Help:      "Total number of SDK requests",
			},
			[]string{"client", "method", "status"},
		),

		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "requests",
				Name:      "duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"client", "method"},
		),

		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "errors",
				Name:      "total",
				Help:      "Total number of errors",
			},
			[]string{"component", "type"},
		),

		HealthCheckStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Subsystem: "health",
				Name:      "status",
				Help:      "Health check status (0=unhealthy, 1=healthy)",
			},
			[]string{"component"},
		),

		PluginExecutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "plugin",
				Name:      "executions_total",
				Help:      "Total number of plugin hook executions",
			},
			[]string{"plugin", "hook"},
		),

		PluginFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "plugin",
				Name:      "failures_total",
				Help:      "Total number of plugin hook failures",
			},
			[]string{"plugin", "hook"},
		),

		WSConnected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Subsystem: "websocket",
				Name:      "connected",
				Help:      "WebSocket connection status (0=disconnected, 1=connected)",
			},
		),

		WSReconnects: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "websocket",
				Name:      "reconnects_total",
				Help:      "Total number of WebSocket reconnections",
			},
		),

		WSSubscriptions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Subsystem: "websocket",
				Name:      "subscriptions",
				Help:      "Current number of active subscriptions",
			},
		),

		WSMessagesRecv: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "websocket",
				Name:      "messages_received_total",
				Help:      "Total number of WebSocket messages received",
			},
		),

		WSMessagesSent: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "websocket",
				Name:      "messages_sent_total",
				Help:      "Total number of WebSocket messages sent",
			},
		),
	}
}

// RecordRequest increments the request counter
func (c *Metrics) RecordRequest(client, method, status string) {
	c.RequestsTotal.WithLabelValues(client, method, status).Inc()
}

// RecordRequestDuration records request latency
func (c *Metrics) RecordRequestDuration(client, method string, duration time.Duration) {
	c.RequestDuration.WithLabelValues(client, method).Observe(duration.Seconds())
}

// RecordError increments error counter
func (c *Metrics) RecordError(component, errorType string) {
	c.ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

// RecordHealthStatus updates health check status
func (c *Metrics) RecordHealthStatus(component string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	c.HealthCheckStatus.WithLabelValues(component).Set(value)
}

// RecordPluginExecution increments the plugin execution counter
func (c *Metrics) RecordPluginExecution(plugin, hook string) {
	c.PluginExecutions.WithLabelValues(plugin, hook).Inc()
}

// RecordPluginFailure increments the plugin failure counter
func (c *Metrics) RecordPluginFailure(plugin, hook string) {
	c.PluginFailures.WithLabelValues(plugin, hook).Inc()
}

// RecordWSStatus updates WebSocket connection status
func (c *Metrics) RecordWSStatus(connected bool) {
	value := 0.0
	if connected {
		value = 1.0
	}
	c.WSConnected.Set(value)
}

// RecordWSReconnect increments reconnection counter
func (c *Metrics) RecordWSReconnect() {
	c.WSReconnects.Inc()
}

// RecordWSSubscriptions updates the active subscription gauge
func (c *Metrics) RecordWSSubscriptions(count int) {
	c.WSSubscriptions.Set(float64(count))
}

// RecordWSMessageReceived increments the received message counter
func (c *Metrics) RecordWSMessageReceived() {
	c.WSMessagesRecv.Inc()
}

// RecordWSMessageSent increments the sent message counter
func (c *Metrics) RecordWSMessageSent() {
	c.WSMessagesSent.Inc()
}
