package main

import (
	"fmt"
	"time"

	"github.com/kbukum/tpcgraph/config"
	"github.com/kbukum/tpcgraph/monitor"
	"github.com/kbukum/tpcgraph/observability"
	"github.com/kbukum/tpcgraph/validation"
)

const serviceName = "tpcgraph"

// Graph kinds.
const (
	GraphSimple = "simple"
	GraphPerf   = "perf"
)

// Config is the program configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Runtime  config.RuntimeConfig       `yaml:"runtime" mapstructure:"runtime"`
	Pipeline PipelineConfig             `yaml:"pipeline" mapstructure:"pipeline"`
	Monitor  monitor.Config             `yaml:"monitor" mapstructure:"monitor"`
	Metrics  observability.MeterConfig  `yaml:"metrics" mapstructure:"metrics"`
	Tracing  observability.TracerConfig `yaml:"tracing" mapstructure:"tracing"`
}

// PipelineConfig selects and sizes the demo graph.
type PipelineConfig struct {
	Graph     string        `yaml:"graph" mapstructure:"graph" validate:"oneof=simple perf"`
	Items     int           `yaml:"items" mapstructure:"items" validate:"gte=0"`
	Factor    int           `yaml:"factor" mapstructure:"factor"`
	VectorLen int           `yaml:"vector_len" mapstructure:"vector_len" validate:"gt=0"`
	Rate      float64       `yaml:"rate" mapstructure:"rate" validate:"gte=0"`
	Duration  time.Duration `yaml:"duration" mapstructure:"duration" validate:"gte=0"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	c.ServiceConfig.ApplyDefaults()
	c.Runtime.ApplyDefaults()
	c.Monitor.ApplyDefaults()

	if c.Pipeline.Graph == "" {
		c.Pipeline.Graph = GraphSimple
	}
	if c.Pipeline.Factor == 0 {
		c.Pipeline.Factor = 2
	}
	if c.Pipeline.VectorLen == 0 {
		c.Pipeline.VectorLen = 4096
	}

	c.Metrics.Inherit(c.Name, c.Version, c.Environment)
	c.Tracing.Inherit(c.Name, c.Version, c.Environment)
	if c.Metrics.Interval == 0 {
		c.Metrics.Interval = observability.DefaultMeterConfig(c.Name).Interval
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Runtime.Validate(); err != nil {
		return fmt.Errorf("runtime: %w", err)
	}
	if err := validation.Validate(&c.Pipeline); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	if err := c.Monitor.Validate(); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	if err := c.Tracing.Validate(); err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	return nil
}

// loaderDefaults are the defaults ApplyDefaults cannot express because the
// zero value is meaningful.
func loaderDefaults() map[string]any {
	d := config.RuntimeDefaults("runtime")
	d["pipeline.items"] = 1000
	d["metrics.insecure"] = true
	d["tracing.insecure"] = true
	d["tracing.sample_rate"] = 1.0
	return d
}
