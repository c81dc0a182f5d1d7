package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the service's Prometheus metrics.
type Collector struct {
	gatherer prometheus.Gatherer

	Runs         *prometheus.CounterVec
	RunDurations prometheus.Histogram
	ArchiveBytes prometheus.Histogram
	HTTPRequests *prometheus.CounterVec
	LiveSessions prometheus.Gauge
}

// NewCollector registers the metrics against reg, defaulting to the global
// Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	runs, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nzcvm_runs_total",
		Help: "Velocity model generation requests, labeled by outcome.",
	}, []string{"status"}), "nzcvm_runs_total")
	if err != nil {
		return nil, err
	}
	durations, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "nzcvm_run_duration_seconds",
		Help:    "Wall time of generator runs in seconds.",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
	}), "nzcvm_run_duration_seconds")
	if err != nil {
		return nil, err
	}
	archive, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "nzcvm_archive_bytes",
		Help:    "Size of output archives sent to clients.",
		Buckets: prometheus.ExponentialBuckets(1<<10, 4, 12),
	}), "nzcvm_archive_bytes")
	if err != nil {
		return nil, err
	}
	requests, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nzcvm_http_requests_total",
		Help: "Handled HTTP requests, labeled by route template and status code.",
	}, []string{"route", "code"}), "nzcvm_http_requests_total")
	if err != nil {
		return nil, err
	}
	sessions, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "nzcvm_live_sessions",
		Help: "Open live editing sessions.",
	}), "nzcvm_live_sessions")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:     gatherer,
		Runs:         runs,
		RunDurations: durations,
		ArchiveBytes: archive,
		HTTPRequests: requests,
		LiveSessions: sessions,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveRun records one generation request. duration and archiveBytes are
// only recorded when positive.
func (c *Collector) ObserveRun(status string, durationSeconds float64, archiveBytes int64) {
	if c == nil {
		return
	}
	c.Runs.WithLabelValues(status).Inc()
	if durationSeconds > 0 {
		c.RunDurations.Observe(durationSeconds)
	}
	if archiveBytes > 0 {
		c.ArchiveBytes.Observe(float64(archiveBytes))
	}
}

// ObserveRequest counts one HTTP request.
func (c *Collector) ObserveRequest(route string, code int) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(route, fmt.Sprint(code)).Inc()
}

// SessionOpened and SessionClosed track the live session gauge.
func (c *Collector) SessionOpened() {
	if c != nil {
		c.LiveSessions.Inc()
	}
}

func (c *Collector) SessionClosed() {
	if c != nil {
		c.LiveSessions.Dec()
	}
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T, name string) (T, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		var zero T
		return zero, err
	}
	return c, nil
}
