package config

import (
	"time"

	"github.com/digital-lumenspei/renovi-web-sdk/config"
	"github.com/digital-lumenspei/renovi-web-sdk/metrics"
	prometheusmetrics "github.com/digital-lumenspei/renovi-web-sdk/metrics/prometheus"
	gometrics "github.com/rcrowley/go-metrics"
)

// NewMetricsEngine reads the configuration and returns the appropriate metrics engine
// for this instance.
func NewMetricsEngine(cfg *config.Configuration) *DetailedMetricsEngine {
	// Create a list of metrics engines to use.
	// Capacity of 2, as unlikely to have more than 2 metrics backends, and in the case
	// of 1 we won't use the list so it will be garbage collected.
	engineList := make(MultiMetricsEngine, 0, 2)
	returnEngine := DetailedMetricsEngine{}

	if cfg.Metrics.GoMetrics.Enabled {
		returnEngine.GoMetrics = metrics.NewMetrics(gometrics.NewPrefixedRegistry("renovi."))
		engineList = append(engineList, returnEngine.GoMetrics)
	}
	if cfg.Metrics.Prometheus.Port != 0 {
		returnEngine.PrometheusMetrics = prometheusmetrics.NewMetrics(cfg.Metrics.Prometheus)
		engineList = append(engineList, returnEngine.PrometheusMetrics)
	}

	// Now return the proper metrics engine
	if len(engineList) > 1 {
		returnEngine.MetricsEngine = &engineList
	} else if len(engineList) == 1 {
		returnEngine.MetricsEngine = engineList[0]
	} else {
		returnEngine.MetricsEngine = &NilMetricsEngine{}
	}

	return &returnEngine
}

// DetailedMetricsEngine is a MultiMetricsEngine that preserves links to underlying metrics engines.
type DetailedMetricsEngine struct {
	metrics.MetricsEngine
	GoMetrics         *metrics.Metrics
	PrometheusMetrics *prometheusmetrics.Metrics
}

// MultiMetricsEngine logs metrics to multiple metrics databases The can be useful in transitioning
// an instance from one engine to another, you can run both in parallel to verify stats match up.
type MultiMetricsEngine []metrics.MetricsEngine

func (me *MultiMetricsEngine) RecordInstanceTracked(kind metrics.InstanceKind) {
	for _, thisME := range *me {
		thisME.RecordInstanceTracked(kind)
	}
}

func (me *MultiMetricsEngine) RecordInstanceRemoved(kind metrics.InstanceKind) {
	for _, thisME := range *me {
		thisME.RecordInstanceRemoved(kind)
	}
}

func (me *MultiMetricsEngine) RecordVisibilityEvent() {
	for _, thisME := range *me {
		thisME.RecordVisibilityEvent()
	}
}

func (me *MultiMetricsEngine) RecordSlideRotation() {
	for _, thisME := range *me {
		thisME.RecordSlideRotation()
	}
}

func (me *MultiMetricsEngine) RecordImpression(status metrics.ImpressionStatus) {
	for _, thisME := range *me {
		thisME.RecordImpression(status)
	}
}

func (me *MultiMetricsEngine) RecordImpressionTime(length time.Duration) {
	for _, thisME := range *me {
		thisME.RecordImpressionTime(length)
	}
}

func (me *MultiMetricsEngine) RecordBackendRequest(call metrics.BackendCall, success bool, length time.Duration) {
	for _, thisME := range *me {
		thisME.RecordBackendRequest(call, success, length)
	}
}

func (me *MultiMetricsEngine) RecordSetup(success bool) {
	for _, thisME := range *me {
		thisME.RecordSetup(success)
	}
}

// NilMetricsEngine implements the MetricsEngine interface where no metrics are actually captured. This is
// used if no metric backend is configured and also for tests.
type NilMetricsEngine struct{}

func (me *NilMetricsEngine) RecordInstanceTracked(kind metrics.InstanceKind) {}

func (me *NilMetricsEngine) RecordInstanceRemoved(kind metrics.InstanceKind) {}

func (me *NilMetricsEngine) RecordVisibilityEvent() {}

func (me *NilMetricsEngine) RecordSlideRotation() {}

func (me *NilMetricsEngine) RecordImpression(status metrics.ImpressionStatus) {}

func (me *NilMetricsEngine) RecordImpressionTime(length time.Duration) {}

func (me *NilMetricsEngine) RecordBackendRequest(call metrics.BackendCall, success bool, length time.Duration) {
}

func (me *NilMetricsEngine) RecordSetup(success bool) {}
