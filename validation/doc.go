// Package validation checks engine settings and monitor inputs.
//
// Struct tag validation backs the runtime configuration:
//
//	type RuntimeConfig struct {
//	    QueueCapacity int    `validate:"gt=0"`
//	    QueuePolicy   string `validate:"queue_policy"`
//	}
//	err := validation.Validate(cfg)
//
// Programmatic validation collects field errors for values that are only
// known at wiring time:
//
//	v := validation.New()
//	v.NodeName("node", name).OptionalUUID("run_id", runID)
//	err := v.Validate()
//
// Both return an INVALID_INPUT AppError listing every failed field.
package validation
