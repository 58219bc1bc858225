// Package telemetry defines the per-interval report emitted by every running
// node instance and the sinks that consume it.
//
// An instance accumulates receive-wait, process and send-wait time plus the
// byte size of consumed input. Once its telemetry interval has elapsed it
// builds a Report with NewReport, hands it to its Reporter and resets.
//
// Sinks:
//
//	telemetry.NewLogReporter(log)           // info-level log line, humanized throughput
//	telemetry.NewMetricsReporter(metrics)   // OpenTelemetry instruments
//	telemetry.NewStore()                    // latest report per node, for the monitor
//	telemetry.Multi(a, b, c)                // fan out to several sinks
package telemetry
