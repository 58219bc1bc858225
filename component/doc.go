// Package component manages the lifecycle of the services around a running
// pipeline: the monitor endpoint and the OpenTelemetry providers.
//
// Components start in registration order and stop in reverse order.
//
//	reg := component.NewRegistry()
//	_ = reg.Register(mon)
//	_ = reg.Register(component.NewFunc("meter", nil, mp.Shutdown))
//	if err := reg.StartAll(ctx); err != nil { ... }
//	defer reg.StopAll(ctx)
package component
