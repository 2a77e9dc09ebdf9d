package config

import (
	"fmt"

	"github.com/kilianp07/nightplan/core/factory"
)

// MetricsConfig lists the metrics sinks and where Prometheus is exposed.
type MetricsConfig struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusAddr starts a /metrics listener when set, e.g. ":9100".
	PrometheusAddr string `json:"prometheus_addr"`
}

// Validate rejects sinks without a type.
func (c MetricsConfig) Validate() error {
	for i, s := range c.Sinks {
		if s.Type == "" {
			return fmt.Errorf("metrics: sink %d has no type", i)
		}
	}
	return nil
}
