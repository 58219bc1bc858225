package telemetry

import (
	"context"
	"sort"
	"sync"

	"github.com/kbukum/tpcgraph/observability"
)

// Reporter consumes interval reports. Report is called from the node's own
// thread, so implementations shared between nodes must be safe for
// concurrent use and should not block.
type Reporter interface {
	Report(ctx context.Context, r Report)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, r Report)

// Report calls f.
func (f ReporterFunc) Report(ctx context.Context, r Report) { f(ctx, r) }

// Discard drops every report.
var Discard Reporter = ReporterFunc(func(context.Context, Report) {})

// Logger is the subset of the logger used for telemetry lines.
type Logger interface {
	Info(msg string, fields ...map[string]interface{})
}

// LogReporter writes one info-level line per report.
type LogReporter struct {
	log Logger
}

// NewLogReporter creates a LogReporter.
func NewLogReporter(log Logger) *LogReporter {
	return &LogReporter{log: log}
}

// Report implements Reporter.
func (l *LogReporter) Report(_ context.Context, r Report) {
	l.log.Info("node telemetry", r.Fields())
}

// MetricsReporter records reports into OpenTelemetry instruments.
type MetricsReporter struct {
	metrics *observability.NodeMetrics
}

// NewMetricsReporter creates a MetricsReporter.
func NewMetricsReporter(metrics *observability.NodeMetrics) *MetricsReporter {
	return &MetricsReporter{metrics: metrics}
}

// Report implements Reporter.
func (m *MetricsReporter) Report(ctx context.Context, r Report) {
	m.metrics.RecordInterval(ctx, observability.IntervalSample{
		Node:        r.Node,
		Bytes:       r.Bytes,
		Items:       r.Items,
		BytesPerSec: r.BytesPerSec,
		RecvPct:     r.RecvPct,
		ProcPct:     r.ProcPct,
		SendPct:     r.SendPct,
	})
}

// Store keeps the latest report of every node.
type Store struct {
	mu     sync.RWMutex
	latest map[string]Report
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{latest: make(map[string]Report)}
}

// Report implements Reporter.
func (s *Store) Report(_ context.Context, r Report) {
	s.mu.Lock()
	s.latest[r.Node] = r
	s.mu.Unlock()
}

// Get returns the latest report for a node.
func (s *Store) Get(node string) (Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.latest[node]
	return r, ok
}

// All returns the latest report of every node, sorted by node name.
func (s *Store) All() []Report {
	s.mu.RLock()
	out := make([]Report, 0, len(s.latest))
	for _, r := range s.latest {
		out = append(out, r)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Node < out[j].Node })
	return out
}

// Len returns the number of nodes with at least one report.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.latest)
}

type multi []Reporter

func (m multi) Report(ctx context.Context, r Report) {
	for _, rep := range m {
		rep.Report(ctx, r)
	}
}

// Multi fans a report out to every non-nil reporter in order.
func Multi(reporters ...Reporter) Reporter {
	out := make(multi, 0, len(reporters))
	for _, r := range reporters {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}
