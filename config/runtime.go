package config

import (
	"sort"
	"time"

	"github.com/kbukum/tpcgraph/errors"
	"github.com/kbukum/tpcgraph/node"
	"github.com/kbukum/tpcgraph/queue"
	"github.com/kbukum/tpcgraph/validation"
)

// Runtime defaults.
const (
	DefaultQueueCapacity     = 64
	DefaultQueuePolicy       = "blocking"
	DefaultTelemetryInterval = time.Second
)

// RuntimeConfig holds the engine settings of a pipeline.
type RuntimeConfig struct {
	QueueCapacity     int            `yaml:"queue_capacity" mapstructure:"queue_capacity" validate:"gt=0"`
	QueuePolicy       string         `yaml:"queue_policy" mapstructure:"queue_policy" validate:"queue_policy"`
	TelemetryInterval time.Duration  `yaml:"telemetry_interval" mapstructure:"telemetry_interval" validate:"min=10ms"`
	RaisePriority     bool           `yaml:"raise_priority" mapstructure:"raise_priority"`
	CPUs              map[string]int `yaml:"cpus" mapstructure:"cpus"`
}

// DefaultRuntimeConfig returns the runtime defaults, priority elevation on.
func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		QueueCapacity:     DefaultQueueCapacity,
		QueuePolicy:       DefaultQueuePolicy,
		TelemetryInterval: DefaultTelemetryInterval,
		RaisePriority:     true,
	}
}

// RuntimeDefaults returns loader defaults for a RuntimeConfig under key.
// raise_priority defaults to true, which ApplyDefaults cannot express.
func RuntimeDefaults(key string) map[string]any {
	d := DefaultRuntimeConfig()
	return map[string]any{
		key + ".queue_capacity":     d.QueueCapacity,
		key + ".queue_policy":       d.QueuePolicy,
		key + ".telemetry_interval": d.TelemetryInterval,
		key + ".raise_priority":     d.RaisePriority,
	}
}

// ApplyDefaults fills zero values.
func (c *RuntimeConfig) ApplyDefaults() {
	if c.QueueCapacity == 0 {
		c.QueueCapacity = DefaultQueueCapacity
	}
	if c.QueuePolicy == "" {
		c.QueuePolicy = DefaultQueuePolicy
	}
	if c.TelemetryInterval == 0 {
		c.TelemetryInterval = DefaultTelemetryInterval
	}
}

// Validate checks struct tags and the CPU map.
func (c *RuntimeConfig) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	v := validation.New()
	for _, name := range c.cpuNames() {
		v.NodeName("cpus", name).CPU("cpus."+name, c.CPUs[name], nil)
	}
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// CheckCPUs reports configured cores outside allowed, the cores the process
// may currently run on. Nodes on such cores run unpinned.
func (c *RuntimeConfig) CheckCPUs(allowed []int) error {
	v := validation.New()
	for _, name := range c.cpuNames() {
		v.CPU("cpus."+name, c.CPUs[name], allowed)
	}
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

func (c *RuntimeConfig) cpuNames() []string {
	names := make([]string, 0, len(c.CPUs))
	for name := range c.CPUs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Policy returns the parsed queue policy.
func (c *RuntimeConfig) Policy() (queue.Policy, error) {
	return queue.ParsePolicy(c.QueuePolicy)
}

// MustPolicy is Policy for validated configs.
func (c *RuntimeConfig) MustPolicy() queue.Policy {
	p, err := c.Policy()
	if err != nil {
		panic(errors.InvalidInput("queue_policy", err.Error()))
	}
	return p
}

// CPUFor returns the core assigned to a node.
func (c *RuntimeConfig) CPUFor(name string) (int, bool) {
	cpu, ok := c.CPUs[name]
	return cpu, ok
}

// NodeOptions returns the instance options for a node: its core if one is
// assigned, priority elevation and the telemetry interval. extra options
// are appended and win over these.
func (c *RuntimeConfig) NodeOptions(name string, extra ...node.Option) []node.Option {
	opts := []node.Option{
		node.WithPriority(c.RaisePriority),
		node.WithTelemetryInterval(c.TelemetryInterval),
	}
	if cpu, ok := c.CPUFor(name); ok {
		opts = append(opts, node.WithCPU(cpu))
	}
	return append(opts, extra...)
}
