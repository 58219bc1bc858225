package component

import (
	"context"

	"github.com/kbukum/tpcgraph/observability"
)

// Component is a lifecycle-managed service.
type Component interface {
	// Name returns the unique name of the component for registration.
	Name() string

	// Start initializes and starts the component.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the component and releases resources.
	Stop(ctx context.Context) error

	// Health returns the current health status of the component.
	Health(ctx context.Context) observability.Health
}

// Description holds summary information for the startup banner.
type Description struct {
	// Name is the display name. If empty, the component's Name() is used.
	Name string
	// Type categorizes the component: "server", "metrics", "tracing".
	Type string
	// Details is a one-liner such as "0.0.0.0:9090".
	Details string
}

// Describable is optionally implemented by components that report
// themselves in the startup banner.
type Describable interface {
	Describe() Description
}
