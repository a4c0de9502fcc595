package config

import (
	"fmt"
	"time"
)

type Metrics struct {
	Prometheus PrometheusMetrics `mapstructure:"prometheus"`
	GoMetrics  GoMetrics         `mapstructure:"go_metrics"`
}

type PrometheusMetrics struct {
	Port             int    `mapstructure:"port"`
	Namespace        string `mapstructure:"namespace"`
	Subsystem        string `mapstructure:"subsystem"`
	TimeoutMillisRaw int    `mapstructure:"timeout_ms"`
}

func (cfg *PrometheusMetrics) Timeout() time.Duration {
	return time.Duration(cfg.TimeoutMillisRaw) * time.Millisecond
}

type GoMetrics struct {
	Enabled bool `mapstructure:"enabled"`
}

func (m Metrics) validate(errs []error) []error {
	if m.Prometheus.Port < 0 {
		errs = append(errs, fmt.Errorf("metrics.prometheus.port must be non-negative. Got %d", m.Prometheus.Port))
	}
	return errs
}
