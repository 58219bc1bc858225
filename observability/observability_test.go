package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestDefaultTracerConfig(t *testing.T) {
	cfg := DefaultTracerConfig("test-service")

	if cfg.ServiceName != "test-service" {
		t.Errorf("expected ServiceName 'test-service', got %s", cfg.ServiceName)
	}
	if cfg.Endpoint != "localhost:4318" {
		t.Errorf("expected Endpoint 'localhost:4318', got %s", cfg.Endpoint)
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("expected SampleRate 1.0, got %f", cfg.SampleRate)
	}
	if !cfg.Insecure {
		t.Error("expected Insecure to be true")
	}
}

func TestDefaultMeterConfig(t *testing.T) {
	cfg := DefaultMeterConfig("test-service")

	if cfg.ServiceName != "test-service" {
		t.Errorf("expected ServiceName 'test-service', got %s", cfg.ServiceName)
	}
	if cfg.Interval != 15*time.Second {
		t.Errorf("expected Interval 15s, got %v", cfg.Interval)
	}
}

func TestSamplerFor(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, "AlwaysOnSampler"},
		{2.0, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{-1, "AlwaysOffSampler"},
	}
	for _, tt := range tests {
		if got := samplerFor(tt.rate).Description(); got != tt.want {
			t.Errorf("samplerFor(%v) = %s, want %s", tt.rate, got, tt.want)
		}
	}
}

func TestNewNodeMetricsNoop(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	metrics, err := NewNodeMetrics(meter)
	if err != nil {
		t.Fatalf("unexpected error creating metrics: %v", err)
	}
	if metrics == nil {
		t.Fatal("expected non-nil metrics")
	}

	ctx := context.Background()
	metrics.RecordRunStart(ctx, "n")
	metrics.RecordInterval(ctx, IntervalSample{Node: "n", Bytes: 10, Items: 1})
	metrics.RecordResourceFailure(ctx, "n", "pin")
	metrics.RecordRunEnd(ctx, "n", RunStatusCompleted, time.Millisecond)
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestNodeMetricsRecordInterval(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := NewNodeMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()
	metrics.RecordInterval(ctx, IntervalSample{Node: "square", Bytes: 800, Items: 100, BytesPerSec: 800, RecvPct: 10, ProcPct: 80, SendPct: 10})
	metrics.RecordInterval(ctx, IntervalSample{Node: "square", Bytes: 200, Items: 25, BytesPerSec: 200})

	got := collect(t, reader)

	bytes, ok := got["node.bytes"].Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("node.bytes missing or wrong type: %#v", got["node.bytes"].Data)
	}
	if len(bytes.DataPoints) != 1 || bytes.DataPoints[0].Value != 1000 {
		t.Errorf("expected node.bytes 1000, got %+v", bytes.DataPoints)
	}

	items, ok := got["node.items"].Data.(metricdata.Sum[int64])
	if !ok || len(items.DataPoints) != 1 || items.DataPoints[0].Value != 125 {
		t.Errorf("expected node.items 125, got %+v", got["node.items"].Data)
	}

	share, ok := got["node.time.share"].Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("node.time.share missing")
	}
	if len(share.DataPoints) != 3 {
		t.Errorf("expected one data point per stage, got %d", len(share.DataPoints))
	}
}

func TestNodeMetricsActive(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := NewNodeMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()
	metrics.RecordRunStart(ctx, "a")
	metrics.RecordRunStart(ctx, "a")
	metrics.RecordRunEnd(ctx, "a", RunStatusFailed, time.Second)

	got := collect(t, reader)
	active, ok := got["node.active"].Data.(metricdata.Sum[int64])
	if !ok || len(active.DataPoints) != 1 || active.DataPoints[0].Value != 1 {
		t.Errorf("expected node.active 1, got %+v", got["node.active"].Data)
	}
	runs, ok := got["node.runs"].Data.(metricdata.Sum[int64])
	if !ok || len(runs.DataPoints) != 1 || runs.DataPoints[0].Value != 1 {
		t.Errorf("expected one failed run, got %+v", got["node.runs"].Data)
	}
}

func TestRunContextSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	rc := NewRunContext("square", "run-1", 2, nil, tp.Tracer("test"))
	ctx, span := rc.Start(context.Background())
	if RunContextFromContext(ctx) != rc {
		t.Error("expected run context to be stored in the span context")
	}
	rc.End(ctx, span, nil)

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name() != "node.run" {
		t.Errorf("expected span name node.run, got %s", spans[0].Name())
	}
	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	if attrs[AttrNode] != "square" || attrs[AttrRunID] != "run-1" || attrs[AttrCPU] != "2" {
		t.Errorf("unexpected attributes: %v", attrs)
	}
	if attrs[AttrStatus] != RunStatusCompleted {
		t.Errorf("expected status completed, got %s", attrs[AttrStatus])
	}
}

func TestRunContextEndWithError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	rc := NewRunContext("boom", "run-2", -1, nil, tp.Tracer("test"))
	ctx, span := rc.Start(context.Background())
	rc.End(ctx, span, errors.New("panicked"))

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Status().Code != otelcodes.Error {
		t.Errorf("expected error status, got %v", spans[0].Status().Code)
	}
	for _, kv := range spans[0].Attributes() {
		if string(kv.Key) == AttrCPU {
			t.Error("unpinned run should not carry a cpu attribute")
		}
	}
}

func TestRunContextFromEmptyContext(t *testing.T) {
	if RunContextFromContext(context.Background()) != nil {
		t.Error("expected nil run context")
	}
}

func TestServiceHealth(t *testing.T) {
	h := NewServiceHealth("svc", "1.0")
	h.AddComponent(Health{Name: "a", Status: HealthStatusUp})
	if h.Status != HealthStatusUp {
		t.Errorf("expected up, got %s", h.Status)
	}
	h.AddComponent(Health{Name: "b", Status: HealthStatusDegraded})
	if h.Status != HealthStatusDegraded {
		t.Errorf("expected degraded, got %s", h.Status)
	}
	if h.HTTPStatus() != 200 {
		t.Errorf("degraded should still answer 200, got %d", h.HTTPStatus())
	}
	h.AddComponent(Health{Name: "c", Status: HealthStatusDown})
	h.AddComponent(Health{Name: "d", Status: HealthStatusUp})
	if h.Status != HealthStatusDown {
		t.Errorf("expected down, got %s", h.Status)
	}
	if h.HTTPStatus() != 503 {
		t.Errorf("expected 503, got %d", h.HTTPStatus())
	}
}

func TestWorst(t *testing.T) {
	tests := []struct {
		in   []HealthStatus
		want HealthStatus
	}{
		{nil, HealthStatusUp},
		{[]HealthStatus{HealthStatusUp, HealthStatusDegraded}, HealthStatusDegraded},
		{[]HealthStatus{HealthStatusDown, HealthStatusDegraded}, HealthStatusDown},
		{[]HealthStatus{HealthStatusUp, "unknown"}, HealthStatusDown},
	}
	for _, tt := range tests {
		if got := Worst(tt.in...); got != tt.want {
			t.Errorf("Worst(%v) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestExportConfig(t *testing.T) {
	var cfg ExportConfig
	if err := cfg.Validate(); err != nil {
		t.Errorf("disabled export should always validate: %v", err)
	}
	cfg.Enabled = true
	if err := cfg.Validate(); err == nil {
		t.Error("expected missing service name to fail")
	}

	cfg.Inherit("tpcgraph", "1.2.3", "staging")
	if cfg.ServiceName != "tpcgraph" || cfg.ServiceVersion != "1.2.3" || cfg.Environment != "staging" {
		t.Errorf("unexpected inherited fields: %+v", cfg)
	}
	if cfg.Endpoint != DefaultEndpoint {
		t.Errorf("expected default endpoint, got %s", cfg.Endpoint)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	cfg.ServiceName = "custom"
	cfg.Inherit("tpcgraph", "", "")
	if cfg.ServiceName != "custom" {
		t.Error("Inherit must not override set fields")
	}

	res, err := cfg.resource()
	if err != nil {
		t.Fatalf("resource: %v", err)
	}
	found := false
	for _, kv := range res.Attributes() {
		if kv.Key == "host.cpu.count" && kv.Value.AsInt64() > 0 {
			found = true
		}
	}
	if !found {
		t.Error("expected host.cpu.count on the resource")
	}
}
