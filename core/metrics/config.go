package metrics

import (
	"fmt"

	"github.com/kilianp07/timetable/core/factory"
)

// Config defines settings for metrics sinks.
type Config struct {
	Sinks          []factory.ModuleConfig `json:"sinks" yaml:"sinks" koanf:"sinks"`
	PrometheusPort string                 `json:"prometheus_port" yaml:"prometheus_port" koanf:"prometheus_port"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.PrometheusPort == "" {
		c.PrometheusPort = "9090"
	}
}

// Validate rejects sink entries without a type.
func (c Config) Validate() error {
	for i, s := range c.Sinks {
		if s.Type == "" {
			return fmt.Errorf("metrics.sinks[%d]: type required", i)
		}
	}
	return nil
}
