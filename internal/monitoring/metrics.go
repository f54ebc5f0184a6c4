package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Session metrics
	SessionsActive prometheus.Gauge
	SessionsTotal  prometheus.Counter
	SpawnErrors    prometheus.Counter
	Resizes        prometheus.Counter
	OutputBytes    prometheus.Counter
	InputBytes     prometheus.Counter

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
}

// NewMetrics creates and registers the metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		startTime: time.Now(),

		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "termstack_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "termstack_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),

		SessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "termstack_sessions_active",
			Help: "Number of live terminal sessions",
		}),
		SessionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "termstack_sessions_total",
			Help: "Total number of terminal sessions created",
		}),
		SpawnErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "termstack_spawn_errors_total",
			Help: "Total number of failed session spawns",
		}),
		Resizes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "termstack_resizes_total",
			Help: "Total number of terminal resize operations",
		}),
		OutputBytes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "termstack_pty_output_bytes_total",
			Help: "Bytes read from PTY masters",
		}),
		InputBytes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "termstack_pty_input_bytes_total",
			Help: "Bytes written to PTY masters",
		}),

		WSConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "termstack_ws_connections",
			Help: "Number of open WebSocket attachments",
		}),
		WSMessages: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "termstack_ws_messages_total",
				Help: "Total number of WebSocket messages by type",
			},
			[]string{"type"},
		),

		Uptime: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "termstack_uptime_seconds",
			Help: "Service uptime in seconds",
		}),
	}
}

// RecordHTTPRequest records a completed HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordSessionStart records a successful session spawn.
func (m *Metrics) RecordSessionStart() {
	m.SessionsTotal.Inc()
	m.SessionsActive.Inc()
}

// RecordSessionEnd records a reaped session.
func (m *Metrics) RecordSessionEnd() {
	m.SessionsActive.Dec()
}

// UpdateUptime refreshes the uptime gauge.
func (m *Metrics) UpdateUptime() {
	m.Uptime.Set(time.Since(m.startTime).Seconds())
}
