package graph

import (
	stderrors "errors"
	"sync"

	"github.com/kbukum/tpcgraph/errors"
	"github.com/kbukum/tpcgraph/logger"
	"github.com/kbukum/tpcgraph/node"
)

// Spawner is any node instance, whatever its input and output types.
type Spawner interface {
	Name() string
	Spawn() (*node.Handle, error)
	Discard()
}

// Graph is a registry of running node handles.
type Graph struct {
	mu       sync.Mutex
	handles  []*node.Handle
	consumed bool
	log      node.Logger
}

// Option configures a Graph.
type Option func(*Graph)

// WithLogger sets the logger used to report node failures on Wait.
func WithLogger(l node.Logger) Option {
	return func(g *Graph) { g.log = l }
}

// New creates an empty graph.
func New(opts ...Option) *Graph {
	g := &Graph{}
	for _, opt := range opts {
		opt(g)
	}
	if g.log == nil {
		g.log = logger.GetGlobalLogger().WithComponent("graph")
	}
	return g
}

// AddHandle registers a handle. Handles are joined in registration order.
func (g *Graph) AddHandle(h *node.Handle) error {
	if h == nil {
		return errors.InvalidInput("handle", "handle is nil")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.consumed {
		return errors.GraphConsumed()
	}
	g.handles = append(g.handles, h)
	return nil
}

// Spawn spawns each instance in order and registers its handle. It stops at
// the first failure and discards the instances after it. Instances spawned
// before it keep running and stay registered; with the failed part of the
// pipeline closed they drain, so Wait still joins them.
func (g *Graph) Spawn(instances ...Spawner) error {
	for i, inst := range instances {
		h, err := inst.Spawn()
		if err == nil {
			err = g.AddHandle(h)
		}
		if err != nil {
			g.log.Error("failed to spawn node", logger.Fields(
				logger.FieldNode, inst.Name(),
				logger.FieldError, err.Error(),
			))
			for _, rest := range instances[i+1:] {
				rest.Discard()
			}
			return err
		}
	}
	return nil
}

// Len returns the number of registered handles.
func (g *Graph) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.handles)
}

// Handles returns a snapshot of the registered handles.
func (g *Graph) Handles() []*node.Handle {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*node.Handle, len(g.handles))
	copy(out, g.handles)
	return out
}

// Wait joins every handle in registration order and consumes the graph.
// It returns nil if every node exited normally, otherwise the join of all
// node failures. A second Wait returns GRAPH_CONSUMED.
func (g *Graph) Wait() error {
	g.mu.Lock()
	if g.consumed {
		g.mu.Unlock()
		return errors.GraphConsumed()
	}
	g.consumed = true
	handles := g.handles
	g.mu.Unlock()

	var errs []error
	for _, h := range handles {
		if err := h.Join(); err != nil {
			g.log.Error("node failed", logger.Fields(
				logger.FieldNode, h.Name(),
				logger.FieldRunID, h.RunID(),
				logger.FieldError, err.Error(),
			))
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

// MustWait is Wait that re-panics with the first node panic on the caller's
// goroutine.
func (g *Graph) MustWait() {
	err := g.Wait()
	if err == nil {
		return
	}
	var pe *node.PanicError
	if stderrors.As(err, &pe) {
		panic(pe)
	}
	panic(err)
}
