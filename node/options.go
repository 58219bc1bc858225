package node

import (
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/tpcgraph/logger"
	"github.com/kbukum/tpcgraph/observability"
	"github.com/kbukum/tpcgraph/telemetry"
)

// DefaultTelemetryInterval is the window over which telemetry is aggregated.
const DefaultTelemetryInterval = time.Second

// Logger is the leveled logging collaborator of an instance. Both
// *logger.Logger and *logger.Capture satisfy it.
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
	Warn(msg string, fields ...map[string]interface{})
	Error(msg string, fields ...map[string]interface{})
	Fatal(msg string, fields ...map[string]interface{})
}

type options struct {
	cpu      int
	log      Logger
	reporter telemetry.Reporter
	interval time.Duration
	priority bool
	tracer   trace.Tracer
	metrics  *observability.NodeMetrics
}

func defaultOptions() options {
	return options{
		cpu:      -1,
		interval: DefaultTelemetryInterval,
		priority: true,
	}
}

// Option configures an Instance.
type Option func(*options)

// WithCPU pins the instance's thread to a CPU core. Pinning is best effort.
func WithCPU(cpu int) Option {
	return func(o *options) { o.cpu = cpu }
}

// WithLogger sets the logger. The default is the global logger with the
// "node" component.
func WithLogger(l Logger) Option {
	return func(o *options) { o.log = l }
}

// WithReporter sets the telemetry sink. The default logs every report at
// info level.
func WithReporter(r telemetry.Reporter) Option {
	return func(o *options) { o.reporter = r }
}

// WithTelemetryInterval overrides the telemetry window. Non-positive values
// are ignored.
func WithTelemetryInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.interval = d
		}
	}
}

// WithPriority enables or disables priority elevation of the thread.
func WithPriority(raise bool) Option {
	return func(o *options) { o.priority = raise }
}

// WithTracer sets the tracer used for the node.run span. The default is the
// global tracer provider.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithMetrics records run bookkeeping (active nodes, finished runs, resource
// failures) into m.
func WithMetrics(m *observability.NodeMetrics) Option {
	return func(o *options) { o.metrics = m }
}

func (o *options) finalize() {
	if o.log == nil {
		o.log = logger.GetGlobalLogger().WithComponent("node")
	}
	if o.reporter == nil {
		o.reporter = telemetry.NewLogReporter(o.log)
	}
}
