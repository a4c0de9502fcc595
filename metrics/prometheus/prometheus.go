package prometheusmetrics

import (
	"strconv"
	"time"

	"github.com/digital-lumenspei/renovi-web-sdk/config"
	"github.com/digital-lumenspei/renovi-web-sdk/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics defines the Prometheus metrics backing the MetricsEngine implementation.
type Metrics struct {
	Registry *prometheus.Registry
	Gatherer prometheus.Gatherer

	instancesTracked *prometheus.CounterVec
	instancesRemoved *prometheus.CounterVec
	visibilityEvents prometheus.Counter
	slideRotations   prometheus.Counter
	impressions      *prometheus.CounterVec
	impressionTimer  prometheus.Histogram
	backendRequests  *prometheus.CounterVec
	backendTimer     *prometheus.HistogramVec
	setups           *prometheus.CounterVec
}

const (
	backendCallLabel = "call"
	kindLabel        = "kind"
	statusLabel      = "status"
	successLabel     = "success"
)

// NewMetrics initializes a new Prometheus metrics instance with preloaded label values.
func NewMetrics(cfg config.PrometheusMetrics) *Metrics {
	standardTimeBuckets := []float64{0.05, 0.1, 0.15, 0.20, 0.25, 0.3, 0.4, 0.5, 0.75, 1, 2, 5}

	metrics := Metrics{}
	metrics.Registry = prometheus.NewRegistry()
	metrics.Gatherer = metrics.Registry

	metrics.instancesTracked = newCounter(cfg, metrics.Registry,
		"instances_tracked",
		"Count of document elements which started being tracked labeled by kind.",
		[]string{kindLabel})

	metrics.instancesRemoved = newCounter(cfg, metrics.Registry,
		"instances_removed",
		"Count of tracked document elements removed from the document labeled by kind.",
		[]string{kindLabel})

	metrics.visibilityEvents = newCounterWithoutLabels(cfg, metrics.Registry,
		"visibility_events",
		"Count of panel instances which crossed the viewability threshold.")

	metrics.slideRotations = newCounterWithoutLabels(cfg, metrics.Registry,
		"slide_rotations",
		"Count of slide rotation ticks applied to sliders.")

	metrics.impressions = newCounter(cfg, metrics.Registry,
		"impressions",
		"Count of impression dispatches labeled by outcome.",
		[]string{statusLabel})

	metrics.impressionTimer = newHistogram(cfg, metrics.Registry,
		"impression_send_time_seconds",
		"Seconds to send an impression report.",
		standardTimeBuckets)

	metrics.backendRequests = newCounter(cfg, metrics.Registry,
		"backend_requests",
		"Count of backend requests labeled by call and success.",
		[]string{backendCallLabel, successLabel})

	metrics.backendTimer = newHistogramVec(cfg, metrics.Registry,
		"backend_request_time_seconds",
		"Seconds to complete a backend request labeled by call.",
		[]string{backendCallLabel},
		standardTimeBuckets)

	metrics.setups = newCounter(cfg, metrics.Registry,
		"setups",
		"Count of setup attempts labeled by success.",
		[]string{successLabel})

	preloadLabelValues(&metrics)

	return &metrics
}

func newCounter(cfg config.PrometheusMetrics, registry *prometheus.Registry, name, help string, labels []string) *prometheus.CounterVec {
	opts := prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      name,
		Help:      help,
	}
	counter := prometheus.NewCounterVec(opts, labels)
	registry.MustRegister(counter)
	return counter
}

func newCounterWithoutLabels(cfg config.PrometheusMetrics, registry *prometheus.Registry, name, help string) prometheus.Counter {
	opts := prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      name,
		Help:      help,
	}
	counter := prometheus.NewCounter(opts)
	registry.MustRegister(counter)
	return counter
}

func newHistogramVec(cfg config.PrometheusMetrics, registry *prometheus.Registry, name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	opts := prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}
	histogram := prometheus.NewHistogramVec(opts, labels)
	registry.MustRegister(histogram)
	return histogram
}

func newHistogram(cfg config.PrometheusMetrics, registry *prometheus.Registry, name, help string, buckets []float64) prometheus.Histogram {
	opts := prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}
	histogram := prometheus.NewHistogram(opts)
	registry.MustRegister(histogram)
	return histogram
}

func preloadLabelValues(m *Metrics) {
	for _, kind := range metrics.InstanceKinds() {
		m.instancesTracked.With(prometheus.Labels{kindLabel: string(kind)})
		m.instancesRemoved.With(prometheus.Labels{kindLabel: string(kind)})
	}
	for _, status := range metrics.ImpressionStatuses() {
		m.impressions.With(prometheus.Labels{statusLabel: string(status)})
	}
	for _, call := range metrics.BackendCalls() {
		for _, success := range []bool{true, false} {
			m.backendRequests.With(prometheus.Labels{
				backendCallLabel: string(call),
				successLabel:     strconv.FormatBool(success),
			})
		}
		m.backendTimer.With(prometheus.Labels{backendCallLabel: string(call)})
	}
	for _, success := range []bool{true, false} {
		m.setups.With(prometheus.Labels{successLabel: strconv.FormatBool(success)})
	}
}

func (m *Metrics) RecordInstanceTracked(kind metrics.InstanceKind) {
	m.instancesTracked.With(prometheus.Labels{kindLabel: string(kind)}).Inc()
}

func (m *Metrics) RecordInstanceRemoved(kind metrics.InstanceKind) {
	m.instancesRemoved.With(prometheus.Labels{kindLabel: string(kind)}).Inc()
}

func (m *Metrics) RecordVisibilityEvent() {
	m.visibilityEvents.Inc()
}

func (m *Metrics) RecordSlideRotation() {
	m.slideRotations.Inc()
}

func (m *Metrics) RecordImpression(status metrics.ImpressionStatus) {
	m.impressions.With(prometheus.Labels{statusLabel: string(status)}).Inc()
}

func (m *Metrics) RecordImpressionTime(length time.Duration) {
	m.impressionTimer.Observe(length.Seconds())
}

func (m *Metrics) RecordBackendRequest(call metrics.BackendCall, success bool, length time.Duration) {
	m.backendRequests.With(prometheus.Labels{
		backendCallLabel: string(call),
		successLabel:     strconv.FormatBool(success),
	}).Inc()
	m.backendTimer.With(prometheus.Labels{backendCallLabel: string(call)}).Observe(length.Seconds())
}

func (m *Metrics) RecordSetup(success bool) {
	m.setups.With(prometheus.Labels{successLabel: strconv.FormatBool(success)}).Inc()
}
