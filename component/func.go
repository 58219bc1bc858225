package component

import (
	"context"
	"sync"

	"github.com/kbukum/tpcgraph/observability"
)

// Func is a component built from start and stop functions, e.g. an
// OpenTelemetry provider whose Shutdown is the stop function.
type Func struct {
	name    string
	desc    Description
	start   func(context.Context) error
	stop    func(context.Context) error
	mu      sync.RWMutex
	running bool
	lastErr error
}

// NewFunc creates a Func component. Either function may be nil.
func NewFunc(name string, start, stop func(context.Context) error) *Func {
	return &Func{name: name, start: start, stop: stop}
}

// WithDescription sets the banner description.
func (f *Func) WithDescription(d Description) *Func {
	f.desc = d
	return f
}

// Name implements Component.
func (f *Func) Name() string { return f.name }

// Start implements Component.
func (f *Func) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.start != nil {
		if err := f.start(ctx); err != nil {
			f.lastErr = err
			return err
		}
	}
	f.running = true
	f.lastErr = nil
	return nil
}

// Stop implements Component.
func (f *Func) Stop(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = false
	if f.stop != nil {
		if err := f.stop(ctx); err != nil {
			f.lastErr = err
			return err
		}
	}
	return nil
}

// Health implements Component.
func (f *Func) Health(context.Context) observability.Health {
	f.mu.RLock()
	defer f.mu.RUnlock()
	h := observability.Health{Name: f.name, Status: observability.HealthStatusUp}
	switch {
	case f.lastErr != nil:
		h.Status = observability.HealthStatusDown
		h.Message = f.lastErr.Error()
	case !f.running:
		h.Status = observability.HealthStatusDown
		h.Message = "not running"
	}
	return h
}

// Describe implements Describable.
func (f *Func) Describe() Description {
	return f.desc
}
