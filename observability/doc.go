// Package observability provides OpenTelemetry tracing, metrics and health for
// node instances.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("tpcgraph"))
//	defer tp.Shutdown(ctx)
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("tpcgraph"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewNodeMetrics(observability.Meter("tpcgraph"))
//
// Each spawned instance opens a RunContext: a "node.run" span that lives as
// long as the node thread, plus node.active / node.runs bookkeeping.
//
// Health:
//
//	health := observability.NewServiceHealth("tpcgraph", version.Version)
//	health.AddComponent(observability.Health{Name: "source", Status: observability.HealthStatusUp})
package observability
