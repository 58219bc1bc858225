package observability

import (
	"fmt"
	"runtime"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
)

// DefaultEndpoint is the local OTLP/HTTP collector.
const DefaultEndpoint = "localhost:4318"

// ExportConfig holds the settings shared by the metric and trace
// exporters. Both are off unless Enabled is set.
type ExportConfig struct {
	Enabled        bool   `yaml:"enabled" mapstructure:"enabled"`
	ServiceName    string `yaml:"service_name" mapstructure:"service_name"`
	ServiceVersion string `yaml:"service_version" mapstructure:"service_version"`
	Environment    string `yaml:"environment" mapstructure:"environment"`
	// Endpoint is the OTLP/HTTP host:port.
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure bool   `yaml:"insecure" mapstructure:"insecure"`
}

// Inherit fills empty service fields from the program's own settings.
func (c *ExportConfig) Inherit(service, version, environment string) {
	if c.ServiceName == "" {
		c.ServiceName = service
	}
	if c.ServiceVersion == "" {
		c.ServiceVersion = version
	}
	if c.Environment == "" {
		c.Environment = environment
	}
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
}

// Validate checks the fields an enabled exporter needs.
func (c *ExportConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required when export is enabled")
	}
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required when export is enabled")
	}
	return nil
}

// resource describes the process. host.cpu.count matters for reading node
// metrics: every node holds one OS thread.
func (c *ExportConfig) resource() (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			attribute.String("service.name", c.ServiceName),
			attribute.String("service.version", c.ServiceVersion),
			attribute.String("deployment.environment", c.Environment),
			attribute.Int("host.cpu.count", runtime.NumCPU()),
		),
	)
}
