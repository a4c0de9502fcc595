package prometheusmetrics

import (
	"testing"
	"time"

	"github.com/digital-lumenspei/renovi-web-sdk/config"
	"github.com/digital-lumenspei/renovi-web-sdk/metrics"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
)

func createMetricsForTesting() *Metrics {
	return NewMetrics(config.PrometheusMetrics{
		Port:      8080,
		Namespace: "renovi",
		Subsystem: "sdk",
	})
}

func TestMetricCountGatekeeping(t *testing.T) {
	m := createMetricsForTesting()

	metricFamilies, err := m.Registry.Gather()
	assert.NoError(t, err, "gather metics")

	assert.Len(t, metricFamilies, 9)
}

func TestRecordInstanceTracked(t *testing.T) {
	m := createMetricsForTesting()

	m.RecordInstanceTracked(metrics.InstancePanel)
	m.RecordInstanceTracked(metrics.InstancePanel)
	m.RecordInstanceRemoved(metrics.InstanceSlider)

	assertCounterVecValue(t, "", "tracked panel", m.instancesTracked, 2, prometheus.Labels{kindLabel: "panel"})
	assertCounterVecValue(t, "", "tracked slider", m.instancesTracked, 0, prometheus.Labels{kindLabel: "slider"})
	assertCounterVecValue(t, "", "removed slider", m.instancesRemoved, 1, prometheus.Labels{kindLabel: "slider"})
}

func TestRecordImpression(t *testing.T) {
	m := createMetricsForTesting()

	m.RecordVisibilityEvent()
	m.RecordImpression(metrics.ImpressionOK)
	m.RecordImpression(metrics.ImpressionFailed)
	m.RecordImpression(metrics.ImpressionFailed)
	m.RecordImpressionTime(250 * time.Millisecond)

	assertCounterValue(t, "", "visibility", m.visibilityEvents, 1)
	assertCounterVecValue(t, "", "ok", m.impressions, 1, prometheus.Labels{statusLabel: "ok"})
	assertCounterVecValue(t, "", "failed", m.impressions, 2, prometheus.Labels{statusLabel: "failed"})
	assertHistogram(t, "impression time", getHistogramFromHistogram(m.impressionTimer), 1, 0.25)
}

func TestRecordBackendRequest(t *testing.T) {
	m := createMetricsForTesting()

	m.RecordBackendRequest(metrics.BackendLogin, true, 100*time.Millisecond)
	m.RecordBackendRequest(metrics.BackendLogin, false, 300*time.Millisecond)

	assertCounterVecValue(t, "", "login ok", m.backendRequests, 1, prometheus.Labels{backendCallLabel: "login", successLabel: "true"})
	assertCounterVecValue(t, "", "login failed", m.backendRequests, 1, prometheus.Labels{backendCallLabel: "login", successLabel: "false"})
	assertHistogram(t, "login time", getHistogramFromHistogramVec(m.backendTimer, backendCallLabel, "login"), 2, 0.4)
}

func TestRecordSetupAndRotation(t *testing.T) {
	m := createMetricsForTesting()

	m.RecordSetup(false)
	m.RecordSlideRotation()
	m.RecordSlideRotation()

	assertCounterVecValue(t, "", "setup failed", m.setups, 1, prometheus.Labels{successLabel: "false"})
	assertCounterValue(t, "", "rotations", m.slideRotations, 2)
}

func assertCounterValue(t *testing.T, description, name string, counter prometheus.Counter, expected float64) {
	m := dto.Metric{}
	counter.Write(&m)
	actual := *m.GetCounter().Value

	assert.Equal(t, expected, actual, description)
}

func assertCounterVecValue(t *testing.T, description, name string, counterVec *prometheus.CounterVec, expected float64, labels prometheus.Labels) {
	counter := counterVec.With(labels)
	assertCounterValue(t, description, name, counter, expected)
}

func getHistogramFromHistogram(histogram prometheus.Histogram) *dto.Histogram {
	var result *dto.Histogram
	processMetrics(histogram, func(m *dto.Metric) {
		result = m.GetHistogram()
	})
	return result
}

func getHistogramFromHistogramVec(histogram *prometheus.HistogramVec, labelKey, labelValue string) *dto.Histogram {
	var result *dto.Histogram
	processMetrics(histogram, func(m *dto.Metric) {
		for _, label := range m.GetLabel() {
			if label.GetName() == labelKey && label.GetValue() == labelValue {
				result = m.GetHistogram()
			}
		}
	})
	return result
}

func processMetrics(collector prometheus.Collector, handler func(m *dto.Metric)) {
	collectorChan := make(chan prometheus.Metric)
	go func() {
		collector.Collect(collectorChan)
		close(collectorChan)
	}()

	for metric := range collectorChan {
		dtoMetric := dto.Metric{}
		metric.Write(&dtoMetric)
		handler(&dtoMetric)
	}
}

func assertHistogram(t *testing.T, name string, histogram *dto.Histogram, expectedCount uint64, expectedSum float64) {
	assert.Equal(t, expectedCount, histogram.GetSampleCount(), name+":count")
	assert.InDelta(t, expectedSum, histogram.GetSampleSum(), 0.0001, name+":sum")
}
