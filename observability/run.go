package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// instrumentationName names the tracer used when none is supplied.
const instrumentationName = "github.com/kbukum/tpcgraph/node"

// Run status values recorded on spans and node.runs.
const (
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Span attribute keys.
const (
	AttrNode   = "node.name"
	AttrRunID  = "node.run_id"
	AttrCPU    = "node.cpu"
	AttrStatus = "status"
)

// RunContext holds observability state for one node thread, from spawn to exit.
type RunContext struct {
	Node      string
	RunID     string
	CPU       int
	StartTime time.Time
	Metrics   *NodeMetrics

	tracer trace.Tracer
}

// NewRunContext creates a run context. If metrics is nil, metric recording is
// skipped; if tracer is nil, the global tracer is used.
func NewRunContext(node, runID string, cpu int, metrics *NodeMetrics, tracer trace.Tracer) *RunContext {
	if tracer == nil {
		tracer = Tracer(instrumentationName)
	}
	return &RunContext{
		Node:      node,
		RunID:     runID,
		CPU:       cpu,
		StartTime: time.Now(),
		Metrics:   metrics,
		tracer:    tracer,
	}
}

type runContextKey struct{}

// WithRunContext stores a RunContext in the context.
func WithRunContext(ctx context.Context, rc *RunContext) context.Context {
	return context.WithValue(ctx, runContextKey{}, rc)
}

// RunContextFromContext retrieves the RunContext from context, or nil.
func RunContextFromContext(ctx context.Context) *RunContext {
	if rc, ok := ctx.Value(runContextKey{}).(*RunContext); ok {
		return rc
	}
	return nil
}

// Start opens the node.run span and marks the node active.
func (rc *RunContext) Start(ctx context.Context) (context.Context, trace.Span) {
	rc.StartTime = time.Now()
	ctx, span := rc.tracer.Start(WithRunContext(ctx, rc), "node.run")
	span.SetAttributes(
		attribute.String(AttrNode, rc.Node),
		attribute.String(AttrRunID, rc.RunID),
	)
	if rc.CPU >= 0 {
		span.SetAttributes(attribute.Int(AttrCPU, rc.CPU))
	}
	if rc.Metrics != nil {
		rc.Metrics.RecordRunStart(ctx, rc.Node)
	}
	return ctx, span
}

// Event adds a named event to the run span, e.g. a resource control failure.
func (rc *RunContext) Event(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// End closes the span and records the finished run. A non-nil err marks the
// run failed.
func (rc *RunContext) End(ctx context.Context, span trace.Span, err error) {
	status := RunStatusCompleted
	if err != nil {
		status = RunStatusFailed
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(attribute.String(AttrStatus, status))
	span.End()

	if rc.Metrics != nil {
		rc.Metrics.RecordRunEnd(ctx, rc.Node, status, rc.Duration())
	}
}

// Duration returns the elapsed time since the run started.
func (rc *RunContext) Duration() time.Duration {
	return time.Since(rc.StartTime)
}
