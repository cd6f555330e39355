// ABOUTME: Prometheus metrics for the scan pipeline and its stage availability.
// ABOUTME: Registers counters and histograms and serves them on the /metrics endpoint.

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry
	logger   *logrus.Logger

	scansTotal     *prometheus.CounterVec
	scanDuration   prometheus.Histogram
	findingsTotal  *prometheus.CounterVec
	stageAvailable *prometheus.GaugeVec
}

// New creates and registers the pipeline metrics.
func New(logger *logrus.Logger) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		logger:   logger,

		scansTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vulnhunt_scans_total",
				Help: "Number of scan requests by outcome",
			},
			[]string{"status"},
		),

		scanDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "vulnhunt_scan_duration_seconds",
				Help:    "End-to-end scan duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
			},
		),

		findingsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vulnhunt_findings_total",
				Help: "Number of reported vulnerability findings by severity",
			},
			[]string{"severity"},
		),

		stageAvailable: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "vulnhunt_stage_available",
				Help: "Whether a pipeline stage's backing resource is loaded (1=yes, 0=no)",
			},
			[]string{"stage"},
		),
	}

	m.registry.MustRegister(m.scansTotal)
	m.registry.MustRegister(m.scanDuration)
	m.registry.MustRegister(m.findingsTotal)
	m.registry.MustRegister(m.stageAvailable)

	return m
}

// ObserveScan records a completed or failed scan.
func (m *Metrics) ObserveScan(status string, durationSeconds float64) {
	m.scansTotal.WithLabelValues(status).Inc()
	m.scanDuration.Observe(durationSeconds)
}

// ObserveFinding records one reported finding.
func (m *Metrics) ObserveFinding(severity string) {
	m.findingsTotal.WithLabelValues(severity).Inc()
}

// SetStageAvailable records a stage's resource readiness.
func (m *Metrics) SetStageAvailable(stage string, available bool) {
	v := 0.0
	if available {
		v = 1.0
	}
	m.stageAvailable.WithLabelValues(stage).Set(v)
}

// Handler returns the HTTP handler exposing the registered metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
