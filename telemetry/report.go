package telemetry

import (
	"time"

	"github.com/dustin/go-humanize"
)

// Report is one telemetry interval of a node instance.
type Report struct {
	Node        string        `json:"node"`
	RunID       string        `json:"run_id"`
	At          time.Time     `json:"at"`
	Interval    time.Duration `json:"interval"`
	Bytes       uint64        `json:"bytes"`
	Items       uint64        `json:"items"`
	BytesPerSec float64       `json:"bytes_per_sec"`
	RecvPct     float64       `json:"recv_pct"`
	ProcPct     float64       `json:"proc_pct"`
	SendPct     float64       `json:"send_pct"`
}

// Stats are the raw accumulators of one interval.
type Stats struct {
	Bytes uint64
	Items uint64
	Recv  time.Duration
	Proc  time.Duration
	Send  time.Duration
}

// Total is the instrumented time of the interval.
func (s Stats) Total() time.Duration {
	return s.Recv + s.Proc + s.Send
}

// NewReport derives throughput and the time breakdown from raw stats.
// elapsed is the wall-clock time since the previous report. All
// percentages are zero when no time was instrumented.
func NewReport(node, runID string, elapsed time.Duration, s Stats) Report {
	r := Report{
		Node:     node,
		RunID:    runID,
		At:       time.Now(),
		Interval: elapsed,
		Bytes:    s.Bytes,
		Items:    s.Items,
	}
	if secs := elapsed.Seconds(); secs > 0 {
		r.BytesPerSec = float64(s.Bytes) / secs
	}
	if total := s.Total(); total > 0 {
		r.RecvPct = pct(s.Recv, total)
		r.ProcPct = pct(s.Proc, total)
		r.SendPct = pct(s.Send, total)
	}
	return r
}

func pct(part, total time.Duration) float64 {
	return float64(part) / float64(total) * 100
}

// Throughput returns the human-scaled bytes per second, e.g. "12 MB/s".
func (r Report) Throughput() string {
	return humanize.Bytes(uint64(r.BytesPerSec)) + "/s"
}

// Fields returns the report as structured log fields.
func (r Report) Fields() map[string]interface{} {
	return map[string]interface{}{
		"node":       r.Node,
		"run_id":     r.RunID,
		"throughput": r.Throughput(),
		"items":      r.Items,
		"bytes":      humanize.Bytes(r.Bytes),
		"recv_pct":   round1(r.RecvPct),
		"proc_pct":   round1(r.ProcPct),
		"send_pct":   round1(r.SendPct),
	}
}

func round1(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}
