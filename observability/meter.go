package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/tpcgraph/logger"
)

// Stage names used as the "stage" attribute of node.time.share.
const (
	StageRecv    = "recv"
	StageProcess = "process"
	StageSend    = "send"
)

// MeterConfig configures export of node metrics.
type MeterConfig struct {
	ExportConfig `yaml:",inline" mapstructure:",squash"`
	// Interval is the export period. Node telemetry is aggregated per
	// second, so periods below that only resend the same totals.
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

// DefaultMeterConfig returns development defaults: local collector, 15s
// export period.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ExportConfig: ExportConfig{
			ServiceName: serviceName,
			Environment: "development",
			Endpoint:    DefaultEndpoint,
			Insecure:    true,
		},
		Interval: 15 * time.Second,
	}
}

// InitMeter installs a global meter provider exporting over OTLP/HTTP on a
// periodic reader. Shut the provider down on exit to flush the last period.
func InitMeter(ctx context.Context, cfg MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := cfg.resource()
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"endpoint", cfg.Endpoint,
		"interval", cfg.Interval.String(),
	))
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// NodeMetrics holds the OpenTelemetry instruments for node instances.
type NodeMetrics struct {
	bytesTotal       metric.Int64Counter
	itemsTotal       metric.Int64Counter
	throughput       metric.Float64Histogram
	timeShare        metric.Float64Histogram
	active           metric.Int64UpDownCounter
	runsTotal        metric.Int64Counter
	runDuration      metric.Float64Histogram
	resourceFailures metric.Int64Counter
}

// NewNodeMetrics creates node instruments on the given meter.
func NewNodeMetrics(meter metric.Meter) (*NodeMetrics, error) {
	bytesTotal, err := meter.Int64Counter("node.bytes",
		metric.WithDescription("Bytes of input consumed by a node"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating node.bytes counter: %w", err)
	}

	itemsTotal, err := meter.Int64Counter("node.items",
		metric.WithDescription("Input items consumed by a node"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating node.items counter: %w", err)
	}

	throughput, err := meter.Float64Histogram("node.throughput",
		metric.WithDescription("Input throughput per telemetry interval"),
		metric.WithUnit("By/s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating node.throughput histogram: %w", err)
	}

	timeShare, err := meter.Float64Histogram("node.time.share",
		metric.WithDescription("Share of instrumented time spent per stage"),
		metric.WithUnit("%"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating node.time.share histogram: %w", err)
	}

	active, err := meter.Int64UpDownCounter("node.active",
		metric.WithDescription("Number of running node threads"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating node.active gauge: %w", err)
	}

	runsTotal, err := meter.Int64Counter("node.runs",
		metric.WithDescription("Finished node runs by status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating node.runs counter: %w", err)
	}

	runDuration, err := meter.Float64Histogram("node.run.duration",
		metric.WithDescription("Lifetime of node threads in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating node.run.duration histogram: %w", err)
	}

	resourceFailures, err := meter.Int64Counter("node.resource.failures",
		metric.WithDescription("Failed CPU pinning or priority elevation attempts"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating node.resource.failures counter: %w", err)
	}

	return &NodeMetrics{
		bytesTotal:       bytesTotal,
		itemsTotal:       itemsTotal,
		throughput:       throughput,
		timeShare:        timeShare,
		active:           active,
		runsTotal:        runsTotal,
		runDuration:      runDuration,
		resourceFailures: resourceFailures,
	}, nil
}

// IntervalSample is one telemetry interval of a node, as recorded by RecordInterval.
type IntervalSample struct {
	Node        string
	Bytes       uint64
	Items       uint64
	BytesPerSec float64
	RecvPct     float64
	ProcPct     float64
	SendPct     float64
}

// RecordInterval records one telemetry interval.
func (m *NodeMetrics) RecordInterval(ctx context.Context, s IntervalSample) {
	nodeAttr := metric.WithAttributes(attribute.String("node", s.Node))
	m.bytesTotal.Add(ctx, int64(s.Bytes), nodeAttr)
	m.itemsTotal.Add(ctx, int64(s.Items), nodeAttr)
	m.throughput.Record(ctx, s.BytesPerSec, nodeAttr)
	for stage, pct := range map[string]float64{
		StageRecv:    s.RecvPct,
		StageProcess: s.ProcPct,
		StageSend:    s.SendPct,
	} {
		m.timeShare.Record(ctx, pct, metric.WithAttributes(
			attribute.String("node", s.Node),
			attribute.String("stage", stage),
		))
	}
}

// RecordRunStart increments the active node count.
func (m *NodeMetrics) RecordRunStart(ctx context.Context, node string) {
	m.active.Add(ctx, 1, metric.WithAttributes(attribute.String("node", node)))
}

// RecordRunEnd decrements the active node count and records the finished run.
func (m *NodeMetrics) RecordRunEnd(ctx context.Context, node, status string, duration time.Duration) {
	m.active.Add(ctx, -1, metric.WithAttributes(attribute.String("node", node)))
	m.runsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("node", node),
		attribute.String("status", status),
	))
	m.runDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("node", node)))
}

// RecordResourceFailure records a failed pinning or priority change.
func (m *NodeMetrics) RecordResourceFailure(ctx context.Context, node, operation string) {
	m.resourceFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("node", node),
		attribute.String("operation", operation),
	))
}
