package node

import (
	"context"
	stderrors "errors"
	"math/rand/v2"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/tpcgraph/errors"
	"github.com/kbukum/tpcgraph/logger"
	"github.com/kbukum/tpcgraph/queue"
	"github.com/kbukum/tpcgraph/telemetry"
)

var policies = []queue.Policy{queue.Blocking, queue.SpinYield}

type sliceSource struct {
	data []int
	i    int
}

func (s *sliceSource) Process(struct{}, bool) (int, bool) {
	if s.i >= len(s.data) {
		return 0, false
	}
	v := s.data[s.i]
	s.i++
	return v, true
}

func (s *sliceSource) Finished() bool { return s.i >= len(s.data) }

type collector[T any] struct {
	mu  sync.Mutex
	got []T
}

func (c *collector[T]) Process(v T, ok bool) (struct{}, bool) {
	if ok {
		c.mu.Lock()
		c.got = append(c.got, v)
		c.mu.Unlock()
	}
	return struct{}{}, false
}

func (c *collector[T]) items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.got))
	copy(out, c.got)
	return out
}

func seq(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

func quiet(log *logger.Capture, extra ...Option) []Option {
	return append([]Option{WithLogger(log), WithPriority(false), WithReporter(telemetry.Discard)}, extra...)
}

func spawnAll(t *testing.T, spawners ...interface{ Spawn() (*Handle, error) }) []*Handle {
	t.Helper()
	handles := make([]*Handle, 0, len(spawners))
	for _, s := range spawners {
		h, err := s.Spawn()
		if err != nil {
			t.Fatalf("spawn: %v", err)
		}
		handles = append(handles, h)
	}
	return handles
}

func joinAll(t *testing.T, handles []*Handle) {
	t.Helper()
	for _, h := range handles {
		if err := h.Join(); err != nil {
			t.Errorf("join %s: %v", h.Name(), err)
		}
	}
}

func TestCompositionLaw(t *testing.T) {
	for _, policy := range policies {
		t.Run(policy.String(), func(t *testing.T) {
			log := logger.NewCapture()
			src := New[struct{}, int]("source", &sliceSource{data: seq(1, 10)}, quiet(log)...)
			dbl := New[int, int]("double", Func[int, int](func(v int, ok bool) (int, bool) {
				return v * 2, ok
			}), quiet(log)...)
			even := New[int, int]("even", Func[int, int](func(v int, ok bool) (int, bool) {
				return v, ok && v%2 == 0
			}), quiet(log)...)
			sink := &collector[int]{}
			snk := New[int, struct{}]("sink", sink, quiet(log)...)

			if err := Connect(src, dbl, 4, policy); err != nil {
				t.Fatalf("connect: %v", err)
			}
			if err := Connect(dbl, even, 4, policy); err != nil {
				t.Fatalf("connect: %v", err)
			}
			if err := Connect(even, snk, 4, policy); err != nil {
				t.Fatalf("connect: %v", err)
			}

			joinAll(t, spawnAll(t, src, dbl, even, snk))

			want := []int{2, 4, 6, 8, 10, 12, 14, 16, 18, 20}
			got := sink.items()
			if len(got) != len(want) {
				t.Fatalf("expected %v, got %v", want, got)
			}
			for i := range want {
				if got[i] != want[i] {
					t.Fatalf("expected %v, got %v", want, got)
				}
			}
		})
	}
}

func TestFatalContract(t *testing.T) {
	log := logger.NewCapture()
	n := New[struct{}, int]("orphan", Func[struct{}, int](func(struct{}, bool) (int, bool) {
		return 42, true
	}), quiet(log)...)

	h, err := n.Spawn()
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	err = h.Join()
	if err == nil {
		t.Fatal("expected abnormal termination")
	}

	var pe *PanicError
	if !stderrors.As(err, &pe) {
		t.Fatalf("expected *PanicError, got %T", err)
	}
	if pe.Code() != errors.ErrCodeConfigurationViolation {
		t.Errorf("expected CONFIGURATION_VIOLATION, got %s", pe.Code())
	}
	if !errors.Is(err, errors.ErrCodeConfigurationViolation) {
		t.Error("expected code to be reachable through the error chain")
	}
	if !log.Contains(logger.LevelFatal, "no output connection") {
		t.Error("expected a fatal log entry")
	}
	if h.State() != Stopped {
		t.Errorf("expected stopped, got %s", h.State())
	}
}

func TestStressNoLoss(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}
	const total = 100_000

	for _, policy := range policies {
		t.Run(policy.String(), func(t *testing.T) {
			log := logger.NewCapture()
			src := New[struct{}, int]("source", &sliceSource{data: seq(0, total-1)}, quiet(log)...)
			inc := New[int, int]("inc", Func[int, int](func(v int, ok bool) (int, bool) {
				return v + 1, ok
			}), quiet(log)...)

			rng := rand.New(rand.NewPCG(1, 2))
			sink := &collector[int]{}
			delayed := Func[int, struct{}](func(v int, ok bool) (struct{}, bool) {
				switch rng.IntN(1000) {
				case 0:
					time.Sleep(time.Duration(rng.IntN(200)) * time.Microsecond)
				case 1, 2, 3:
					runtime.Gosched()
				}
				return sink.Process(v, ok)
			})
			snk := New[int, struct{}]("sink", delayed, quiet(log)...)

			if err := Connect(src, inc, 64, policy); err != nil {
				t.Fatalf("connect: %v", err)
			}
			if err := Connect(inc, snk, 64, policy); err != nil {
				t.Fatalf("connect: %v", err)
			}
			joinAll(t, spawnAll(t, src, inc, snk))

			got := sink.items()
			if len(got) != total {
				t.Fatalf("expected %d items, got %d", total, len(got))
			}
			for i, v := range got {
				if v != i+1 {
					t.Fatalf("item %d: expected %d, got %d", i, i+1, v)
				}
			}
		})
	}
}

func TestPanicPropagation(t *testing.T) {
	log := logger.NewCapture()
	src := New[struct{}, int]("source", Func[struct{}, int](func(struct{}, bool) (int, bool) {
		return 1, true
	}), quiet(log)...)
	calls := 0
	bad := New[int, struct{}]("bad", Func[int, struct{}](func(int, bool) (struct{}, bool) {
		calls++
		if calls == 3 {
			panic("boom")
		}
		return struct{}{}, false
	}), quiet(log)...)

	if err := Connect(src, bad, 2, queue.Blocking); err != nil {
		t.Fatalf("connect: %v", err)
	}
	handles := spawnAll(t, src, bad)

	if err := handles[0].Join(); err != nil {
		t.Errorf("source should stop normally once its consumer is gone, got %v", err)
	}
	err := handles[1].Join()
	var pe *PanicError
	if !stderrors.As(err, &pe) {
		t.Fatalf("expected *PanicError, got %v", err)
	}
	if pe.Value != "boom" || pe.Node != "bad" {
		t.Errorf("unexpected panic error: %+v", pe)
	}
	if pe.Code() != errors.ErrCodeNodePanic {
		t.Errorf("expected NODE_PANIC, got %s", pe.Code())
	}
	if len(pe.Stack) == 0 {
		t.Error("expected a stack trace")
	}
	if log.Count(logger.LevelError) != 1 {
		t.Errorf("expected one error entry, got %d", log.Count(logger.LevelError))
	}
}

func TestPanicErrorWrapsError(t *testing.T) {
	cause := stderrors.New("disk on fire")
	pe := newPanicError("n", cause, nil)
	if !stderrors.Is(pe, cause) {
		t.Error("expected panic value error in chain")
	}
	if pe.Code() != errors.ErrCodeNodePanic {
		t.Errorf("expected NODE_PANIC, got %s", pe.Code())
	}
}

func TestSpawnOnce(t *testing.T) {
	log := logger.NewCapture()
	n := New[struct{}, struct{}]("once", &finishing{}, quiet(log)...)

	h, err := n.Spawn()
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	if err := h.Join(); err != nil {
		t.Fatalf("join: %v", err)
	}

	_, err = n.Spawn()
	if !errors.Is(err, errors.ErrCodeSpawnFailed) || !errors.Is(err, errors.ErrCodeAlreadySpawned) {
		t.Errorf("expected SPAWN_FAILED caused by ALREADY_SPAWNED, got %v", err)
	}

	other := New[struct{}, struct{}]("other", &finishing{}, quiet(log)...)
	if err := Connect(n, other, 1, queue.Blocking); !errors.Is(err, errors.ErrCodeAlreadySpawned) {
		t.Errorf("expected ALREADY_SPAWNED, got %v", err)
	}
	if other.HasInput() {
		t.Error("failed connect must not attach anything")
	}
}

func TestSpawnNilNode(t *testing.T) {
	n := New[int, int]("nil", nil, quiet(logger.NewCapture())...)
	if _, err := n.Spawn(); !errors.Is(err, errors.ErrCodeSpawnFailed) {
		t.Errorf("expected SPAWN_FAILED, got %v", err)
	}
}

func endless() Func[struct{}, int] {
	return func(struct{}, bool) (int, bool) { return 1, true }
}

func joinWithin(t *testing.T, h *Handle, d time.Duration) {
	t.Helper()
	select {
	case <-h.Done():
	case <-time.After(d):
		t.Fatalf("%s still running %s after its neighbor went away (state %s)", h.Name(), d, h.State())
	}
}

func TestSpawnFailureClosesConnections(t *testing.T) {
	for _, policy := range policies {
		t.Run(policy.String(), func(t *testing.T) {
			log := logger.NewCapture()
			src := New[struct{}, int]("source", endless(), quiet(log)...)
			mid := New[int, int]("broken", nil, quiet(log)...)
			snk := New[int, struct{}]("sink", &collector[int]{}, quiet(log)...)
			if err := Connect(src, mid, 4, policy); err != nil {
				t.Fatalf("connect: %v", err)
			}
			if err := Connect(mid, snk, 4, policy); err != nil {
				t.Fatalf("connect: %v", err)
			}

			if _, err := mid.Spawn(); !errors.Is(err, errors.ErrCodeSpawnFailed) {
				t.Fatalf("expected SPAWN_FAILED, got %v", err)
			}
			if _, err := mid.Spawn(); !errors.Is(err, errors.ErrCodeAlreadySpawned) {
				t.Errorf("failed instance must be consumed, got %v", err)
			}

			hs := spawnAll(t, src, snk)
			for _, h := range hs {
				joinWithin(t, h, 2*time.Second)
				if err := h.Join(); err != nil {
					t.Errorf("%s: %v", h.Name(), err)
				}
			}
		})
	}
}

func TestDiscard(t *testing.T) {
	log := logger.NewCapture()
	src := New[struct{}, int]("source", endless(), quiet(log)...)
	snk := New[int, struct{}]("sink", &collector[int]{}, quiet(log)...)
	if err := Connect(src, snk, 2, queue.Blocking); err != nil {
		t.Fatalf("connect: %v", err)
	}

	snk.Discard()
	if _, err := snk.Spawn(); !errors.Is(err, errors.ErrCodeAlreadySpawned) {
		t.Errorf("expected ALREADY_SPAWNED after discard, got %v", err)
	}
	h, err := src.Spawn()
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	joinWithin(t, h, 2*time.Second)

	// Discard after spawn leaves the running thread alone.
	gate := make(chan struct{})
	gated := New[struct{}, struct{}]("gated", &gatedFinish{gate: gate}, quiet(log)...)
	gh, err := gated.Spawn()
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	gated.Discard()
	if gh.State() != Running {
		t.Errorf("expected running, got %s", gh.State())
	}
	close(gate)
	if err := gh.Join(); err != nil {
		t.Fatalf("join: %v", err)
	}
}

func TestSpawnReturnsRunning(t *testing.T) {
	log := logger.NewCapture()
	gate := make(chan struct{})
	n := New[struct{}, struct{}]("gated", &gatedFinish{gate: gate}, quiet(log)...)
	h, err := n.Spawn()
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	if got := h.State(); got != Running {
		t.Errorf("expected running right after spawn, got %s", got)
	}
	close(gate)
	if err := h.Join(); err != nil {
		t.Fatalf("join: %v", err)
	}
	if got := h.State(); got != Stopped {
		t.Errorf("expected stopped after join, got %s", got)
	}
}

type gatedFinish struct{ gate chan struct{} }

func (g *gatedFinish) OnStart() { <-g.gate }
func (g *gatedFinish) Process(struct{}, bool) (struct{}, bool) {
	return struct{}{}, false
}
func (g *gatedFinish) Finished() bool { return true }

func TestConnectOnce(t *testing.T) {
	log := logger.NewCapture()
	id := Func[int, int](func(v int, ok bool) (int, bool) { return v, ok })
	a := New[int, int]("a", id, quiet(log)...)
	b := New[int, int]("b", id, quiet(log)...)
	c := New[int, int]("c", id, quiet(log)...)

	if err := Connect(a, b, 1, queue.Blocking); err != nil {
		t.Fatalf("connect: %v", err)
	}
	err := Connect(a, c, 1, queue.Blocking)
	if !errors.Is(err, errors.ErrCodeAlreadyConnected) {
		t.Errorf("expected ALREADY_CONNECTED for second output, got %v", err)
	}
	if c.HasInput() {
		t.Error("c must stay unconnected")
	}
	err = Connect(c, b, 1, queue.Blocking)
	if !errors.Is(err, errors.ErrCodeAlreadyConnected) {
		t.Errorf("expected ALREADY_CONNECTED for second input, got %v", err)
	}
	if c.HasOutput() {
		t.Error("c must stay unconnected")
	}
}

func TestConnectInvalidCapacity(t *testing.T) {
	log := logger.NewCapture()
	id := Func[int, int](func(v int, ok bool) (int, bool) { return v, ok })
	a := New[int, int]("a", id, quiet(log)...)
	b := New[int, int]("b", id, quiet(log)...)
	if err := Connect(a, b, 0, queue.Blocking); !errors.Is(err, errors.ErrCodeInvalidCapacity) {
		t.Errorf("expected INVALID_CAPACITY, got %v", err)
	}
	if a.HasOutput() || b.HasInput() {
		t.Error("failed connect must not attach anything")
	}
}

type finishing struct{}

func (finishing) Process(struct{}, bool) (struct{}, bool) { return struct{}{}, false }
func (finishing) Finished() bool                          { return true }

type hooked struct {
	mu     sync.Mutex
	events []string
	left   int
}

func (h *hooked) record(e string) {
	h.mu.Lock()
	h.events = append(h.events, e)
	h.mu.Unlock()
}

func (h *hooked) OnStart() { h.record("start") }
func (h *hooked) OnStop()  { h.record("stop") }
func (h *hooked) Process(struct{}, bool) (struct{}, bool) {
	h.record("process")
	h.left--
	return struct{}{}, false
}
func (h *hooked) Finished() bool { return h.left <= 0 }

func TestLifecycleHooks(t *testing.T) {
	log := logger.NewCapture()
	node := &hooked{left: 2}
	n := New[struct{}, struct{}]("hooks", node, quiet(log)...)

	h, err := n.Spawn()
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	if err := h.Join(); err != nil {
		t.Fatalf("join: %v", err)
	}

	want := []string{"start", "process", "process", "stop"}
	if len(node.events) != len(want) {
		t.Fatalf("expected %v, got %v", want, node.events)
	}
	for i := range want {
		if node.events[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, node.events)
		}
	}
	if h.State() != Stopped {
		t.Errorf("expected stopped, got %s", h.State())
	}
	if !log.Contains(logger.LevelInfo, "node starting") || !log.Contains(logger.LevelInfo, "node stopping") {
		t.Error("expected start and stop info entries")
	}
	if h.RunID() == "" {
		t.Error("expected a run id")
	}
}

func TestMissingConnectionWarnings(t *testing.T) {
	tests := []struct {
		name    string
		wire    func(a, b *Instance[struct{}, struct{}]) error
		warning string
	}{
		{
			name:    "isolated",
			wire:    func(a, b *Instance[struct{}, struct{}]) error { return nil },
			warning: "neither input nor output",
		},
		{
			name:    "source",
			wire:    func(a, b *Instance[struct{}, struct{}]) error { return Connect(a, b, 1, queue.Blocking) },
			warning: "no input connection",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := logger.NewCapture()
			a := New[struct{}, struct{}]("a", &finishing{}, quiet(log)...)
			b := New[struct{}, struct{}]("b", &finishing{}, quiet(logger.NewCapture())...)
			if err := tt.wire(a, b); err != nil {
				t.Fatalf("wire: %v", err)
			}
			h, err := a.Spawn()
			if err != nil {
				t.Fatalf("spawn: %v", err)
			}
			if err := h.Join(); err != nil {
				t.Fatalf("join: %v", err)
			}
			if !log.Contains(logger.LevelWarn, tt.warning) {
				t.Errorf("expected warning %q, got %+v", tt.warning, log.Entries())
			}
		})
	}
}

func TestSinkWarning(t *testing.T) {
	log := logger.NewCapture()
	p, c, err := queue.New[int](1, queue.Blocking)
	if err != nil {
		t.Fatalf("queue: %v", err)
	}
	sink := &collector[int]{}
	n := New[int, struct{}]("sink", sink, quiet(log)...)
	if err := n.AttachInput(c); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := n.AttachInput(c); !errors.Is(err, errors.ErrCodeAlreadyConnected) {
		t.Errorf("expected ALREADY_CONNECTED, got %v", err)
	}
	h, err := n.Spawn()
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := p.Send(i); err != nil {
			t.Fatalf("send: %v", err)
		}
	}
	p.Close()
	if err := h.Join(); err != nil {
		t.Fatalf("join: %v", err)
	}
	if len(sink.items()) != 3 {
		t.Errorf("expected 3 items, got %v", sink.items())
	}
	if !log.Contains(logger.LevelWarn, "no output connection") {
		t.Error("expected sink warning")
	}
}

func TestResourceFailureIsNotFatal(t *testing.T) {
	log := logger.NewCapture()
	n := New[struct{}, struct{}]("pinned", &finishing{}, quiet(log, WithCPU(1<<20))...)
	h, err := n.Spawn()
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	if err := h.Join(); err != nil {
		t.Fatalf("join: %v", err)
	}
	if !log.Contains(logger.LevelWarn, "failed to pin") {
		t.Error("expected pinning warning")
	}
	if !log.Contains(logger.LevelInfo, "node stopping") {
		t.Error("expected the node to keep running after the failure")
	}
}

type slowSource struct {
	left int
}

func (s *slowSource) Process(struct{}, bool) (int, bool) {
	time.Sleep(100 * time.Microsecond)
	s.left--
	return 8, true
}

func (s *slowSource) Finished() bool { return s.left <= 0 }

func TestTelemetryReports(t *testing.T) {
	log := logger.NewCapture()
	var (
		mu      sync.Mutex
		reports []telemetry.Report
	)
	rec := telemetry.ReporterFunc(func(_ context.Context, r telemetry.Report) {
		mu.Lock()
		reports = append(reports, r)
		mu.Unlock()
	})

	src := New[struct{}, int]("source", &slowSource{left: 500}, quiet(log)...)
	sink := New[int, struct{}]("sink", &collector[int]{}, append(quiet(log),
		WithReporter(rec), WithTelemetryInterval(10*time.Millisecond))...)
	if err := Connect(src, sink, 8, queue.Blocking); err != nil {
		t.Fatalf("connect: %v", err)
	}
	joinAll(t, spawnAll(t, src, sink))

	mu.Lock()
	defer mu.Unlock()
	if len(reports) == 0 {
		t.Fatal("expected at least one telemetry report")
	}
	for _, r := range reports {
		if r.Node != "sink" {
			t.Errorf("unexpected node %s", r.Node)
		}
		if r.Interval < 10*time.Millisecond {
			t.Errorf("report before the interval elapsed: %v", r.Interval)
		}
		if sum := r.RecvPct + r.ProcPct + r.SendPct; sum != 0 && (sum < 99.9 || sum > 100.1) {
			t.Errorf("percentages should sum to 100, got %v", sum)
		}
		if r.Bytes != r.Items*uint64(SizeOf(0)) {
			t.Errorf("bytes %d do not match %d items", r.Bytes, r.Items)
		}
	}
	// a sink that waits on a slow source spends most of its time receiving
	if reports[0].RecvPct < 50 {
		t.Errorf("expected receive wait to dominate, got %+v", reports[0])
	}
}

type payload struct{ n int }

func (p payload) DataSize() int { return p.n }

type named string

func TestSizeOf(t *testing.T) {
	var iface any = payload{n: 7}
	tests := []struct {
		name string
		got  int
		want int
	}{
		{"int64", SizeOf(int64(1)), 8},
		{"float32", SizeOf(float32(1)), 4},
		{"string", SizeOf("hello"), 5},
		{"named string", SizeOf(named("abc")), 3},
		{"slice", SizeOf([]float64{1, 2, 3}), 24},
		{"array", SizeOf([4]int32{}), 16},
		{"sizer", SizeOf(payload{n: 42}), 42},
		{"sizer in interface", SizeOf(iface), 7},
		{"map", SizeOf(map[string]int{"a": 1}), 0},
		{"empty", SizeOf(struct{}{}), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %d, want %d", tt.got, tt.want)
			}
		})
	}
}

func TestStateString(t *testing.T) {
	if Created.String() != "created" || Running.String() != "running" || Stopped.String() != "stopped" {
		t.Error("unexpected state names")
	}
}
