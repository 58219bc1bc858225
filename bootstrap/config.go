package bootstrap

import (
	"github.com/kbukum/tpcgraph/config"
)

// Config is the constraint for application configuration types. Any struct
// embedding config.ServiceConfig satisfies it through promoted methods, as
// long as it overrides ApplyDefaults and Validate to cover its own fields.
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
