package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/digital-lumenspei/renovi-web-sdk/config"
	"github.com/digital-lumenspei/renovi-web-sdk/logger"
	metricsconfig "github.com/digital-lumenspei/renovi-web-sdk/metrics/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func newPrometheusServer(cfg *config.Configuration, metrics *metricsconfig.DetailedMetricsEngine) (*http.Server, error) {
	if metrics == nil || metrics.PrometheusMetrics == nil {
		return nil, errors.New("prometheus metrics configured, but a Prometheus metrics engine was not found")
	}
	proMetrics := metrics.PrometheusMetrics

	return &http.Server{
		Addr: cfg.Host + ":" + strconv.Itoa(cfg.Metrics.Prometheus.Port),
		Handler: promhttp.HandlerFor(proMetrics.Gatherer, promhttp.HandlerOpts{
			ErrorLog:            loggerForPrometheus{},
			MaxRequestsInFlight: 5,
			Timeout:             cfg.Metrics.Prometheus.Timeout(),
		}),
	}, nil
}

type loggerForPrometheus struct{}

func (loggerForPrometheus) Println(v ...interface{}) {
	logger.Warnf("%v", v)
}
