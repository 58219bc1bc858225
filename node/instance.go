package node

import (
	"context"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/tpcgraph/errors"
	"github.com/kbukum/tpcgraph/logger"
	"github.com/kbukum/tpcgraph/observability"
	"github.com/kbukum/tpcgraph/queue"
	"github.com/kbukum/tpcgraph/sysctl"
	"github.com/kbukum/tpcgraph/telemetry"
)

// wiring guards connection and spawn bookkeeping of all instances. Wiring
// happens at build time, so a single lock is enough.
var wiring sync.Mutex

// Instance runs one Node on a dedicated OS thread.
type Instance[I, O any] struct {
	name    string
	node    Node[I, O]
	fin     Finisher
	in      queue.Consumer[I]
	out     queue.Producer[O]
	opts    options
	size    func(I) int
	spawned bool
}

// New wraps n in an instance named name.
func New[I, O any](name string, n Node[I, O], opts ...Option) *Instance[I, O] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	o.finalize()
	fin, _ := n.(Finisher)
	return &Instance[I, O]{
		name: name,
		node: n,
		fin:  fin,
		opts: o,
		size: sizerFor[I](),
	}
}

// Name returns the instance name.
func (n *Instance[I, O]) Name() string { return n.name }

// HasInput reports whether an input connection is attached.
func (n *Instance[I, O]) HasInput() bool {
	wiring.Lock()
	defer wiring.Unlock()
	return n.in != nil
}

// HasOutput reports whether an output connection is attached.
func (n *Instance[I, O]) HasOutput() bool {
	wiring.Lock()
	defer wiring.Unlock()
	return n.out != nil
}

// AttachInput attaches an existing consumer half as the input connection.
func (n *Instance[I, O]) AttachInput(c queue.Consumer[I]) error {
	wiring.Lock()
	defer wiring.Unlock()
	if err := n.checkInput(); err != nil {
		return err
	}
	n.in = c
	return nil
}

// AttachOutput attaches an existing producer half as the output connection.
func (n *Instance[I, O]) AttachOutput(p queue.Producer[O]) error {
	wiring.Lock()
	defer wiring.Unlock()
	if err := n.checkOutput(); err != nil {
		return err
	}
	n.out = p
	return nil
}

func (n *Instance[I, O]) checkInput() error {
	if n.spawned {
		return errors.AlreadySpawned(n.name)
	}
	if n.in != nil {
		return errors.AlreadyConnected(n.name, "input")
	}
	return nil
}

func (n *Instance[I, O]) checkOutput() error {
	if n.spawned {
		return errors.AlreadySpawned(n.name)
	}
	if n.out != nil {
		return errors.AlreadyConnected(n.name, "output")
	}
	return nil
}

// Connect creates a queue of the given capacity and policy and attaches its
// producer half to up and its consumer half to down. Nothing is attached
// when an error is returned.
func Connect[A, B, C any](up *Instance[A, B], down *Instance[B, C], capacity int, policy queue.Policy) error {
	wiring.Lock()
	defer wiring.Unlock()
	if err := up.checkOutput(); err != nil {
		return err
	}
	if err := down.checkInput(); err != nil {
		return err
	}
	p, c, err := queue.New[B](capacity, policy)
	if err != nil {
		return err
	}
	up.out = p
	down.in = c
	up.opts.log.Debug("nodes connected", logger.Fields(
		logger.FieldNode, up.name,
		"downstream", down.name,
		logger.FieldCapacity, capacity,
		logger.FieldPolicy, policy.String(),
	))
	return nil
}

// Spawn starts the instance on its own OS thread and returns immediately.
// An instance can be spawned once; afterwards it is consumed and every
// Connect, Attach or Spawn on it fails. An instance that fails to spawn is
// consumed too and its connections are closed.
func (n *Instance[I, O]) Spawn() (*Handle, error) {
	wiring.Lock()
	if n.node == nil {
		n.spawned = true
		wiring.Unlock()
		n.release()
		return nil, errors.SpawnFailed(n.name, errors.InvalidInput("node", "node is nil"))
	}
	if n.spawned {
		wiring.Unlock()
		return nil, errors.SpawnFailed(n.name, errors.AlreadySpawned(n.name))
	}
	n.spawned = true
	wiring.Unlock()

	fields := logger.Fields(logger.FieldNode, n.name)
	switch {
	case n.in == nil && n.out == nil:
		n.opts.log.Warn("node has neither input nor output connection", fields)
	case n.in == nil:
		n.opts.log.Warn("node has no input connection, running as source", fields)
	case n.out == nil:
		n.opts.log.Warn("node has no output connection, running as sink", fields)
	}

	h := newHandle(n.name, uuid.NewString())
	h.setState(Running)
	go n.run(h)
	return h, nil
}

// Discard consumes an instance that will not be spawned and closes its
// connections, so neighbors see end of stream. It is a no-op once the
// instance has been spawned.
func (n *Instance[I, O]) Discard() {
	wiring.Lock()
	if n.spawned {
		wiring.Unlock()
		return
	}
	n.spawned = true
	wiring.Unlock()
	n.release()
}

func (n *Instance[I, O]) fields(h *Handle) map[string]interface{} {
	return logger.Fields(logger.FieldNode, n.name, logger.FieldRunID, h.runID)
}

// run is the body of the node thread. The OS thread is never unlocked, so
// the runtime discards it when the goroutine exits.
func (n *Instance[I, O]) run(h *Handle) {
	runtime.LockOSThread()
	defer close(h.done)

	rc := observability.NewRunContext(n.name, h.runID, n.opts.cpu, n.opts.metrics, n.opts.tracer)
	ctx, span := rc.Start(context.Background())

	defer func() {
		if r := recover(); r != nil {
			pe := newPanicError(n.name, r, debug.Stack())
			h.err = pe
			fields := n.fields(h)
			fields[logger.FieldError] = pe.Error()
			n.opts.log.Error("node thread terminated abnormally", fields)
		}
		n.release()
		h.setState(Stopped)
		rc.End(ctx, span, h.err)
	}()

	n.applyResourcePolicy(ctx, rc, span, h)

	n.opts.log.Info("node starting", n.fields(h))
	if s, ok := n.node.(Starter); ok {
		s.OnStart()
	}

	n.loop(ctx, h)

	n.opts.log.Info("node stopping", n.fields(h))
	if s, ok := n.node.(Stopper); ok {
		s.OnStop()
	}
}

// release drops both connection halves so neighbors see end of stream.
func (n *Instance[I, O]) release() {
	if n.in != nil {
		n.in.Close()
	}
	if n.out != nil {
		n.out.Close()
	}
}

func (n *Instance[I, O]) applyResourcePolicy(ctx context.Context, rc *observability.RunContext, span trace.Span, h *Handle) {
	if err := sysctl.SetThreadName(n.name); err != nil {
		n.opts.log.Debug("thread naming unavailable", logger.ErrorFields("set_thread_name", err))
	}

	if n.opts.cpu >= 0 {
		if err := sysctl.PinToCPU(n.opts.cpu); err != nil {
			fields := n.fields(h)
			fields[logger.FieldCPU] = n.opts.cpu
			fields[logger.FieldError] = err.Error()
			n.opts.log.Warn("failed to pin node to cpu", fields)
			n.resourceFailure(ctx, rc, span, "pin")
		} else {
			fields := n.fields(h)
			fields[logger.FieldCPU] = n.opts.cpu
			n.opts.log.Debug("node pinned to cpu", fields)
		}
	}

	if n.opts.priority {
		nice, err := sysctl.RaisePriority()
		if err != nil {
			fields := n.fields(h)
			fields[logger.FieldError] = err.Error()
			n.opts.log.Warn("failed to raise node priority", fields)
			n.resourceFailure(ctx, rc, span, "priority")
		} else {
			fields := n.fields(h)
			fields["nice"] = nice
			n.opts.log.Debug("node priority raised", fields)
		}
	}
}

func (n *Instance[I, O]) resourceFailure(ctx context.Context, rc *observability.RunContext, span trace.Span, op string) {
	rc.Event(span, "resource_control.failed", attribute.String("operation", op))
	if rc.Metrics != nil {
		rc.Metrics.RecordResourceFailure(ctx, n.name, op)
	}
}

func (n *Instance[I, O]) loop(ctx context.Context, h *Handle) {
	var (
		stats    telemetry.Stats
		last     = time.Now()
		interval = n.opts.interval
	)
	for {
		var (
			in I
			ok bool
		)
		start := time.Now()
		if n.in != nil {
			v, err := n.in.Recv()
			now := time.Now()
			stats.Recv += now.Sub(start)
			start = now
			if err != nil {
				n.opts.log.Debug("input connection closed", n.fields(h))
				return
			}
			in, ok = v, true
			stats.Bytes += uint64(n.size(v))
			stats.Items++
		}

		out, emit := n.node.Process(in, ok)
		now := time.Now()
		stats.Proc += now.Sub(start)

		if emit {
			if n.out == nil {
				n.violation(h)
			}
			err := n.out.Send(out)
			stats.Send += time.Since(now)
			if err != nil {
				n.opts.log.Debug("output connection closed", n.fields(h))
				return
			}
		}

		if elapsed := time.Since(last); elapsed >= interval {
			n.opts.reporter.Report(ctx, telemetry.NewReport(n.name, h.runID, elapsed, stats))
			stats = telemetry.Stats{}
			last = time.Now()
		}

		if n.fin != nil && n.fin.Finished() {
			n.opts.log.Debug("node finished", n.fields(h))
			return
		}
	}
}

// violation reports output produced with nowhere to send it. The default
// logger exits the process at fatal level; with any other logger the
// thread panics.
func (n *Instance[I, O]) violation(h *Handle) {
	err := errors.ConfigurationViolation(n.name)
	fields := n.fields(h)
	fields[logger.FieldError] = err.Error()
	n.opts.log.Fatal("node produced output with no output connection", fields)
	panic(err)
}
