package nodes

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/kbukum/tpcgraph/node"
)

// SliceSource emits the items of a slice in order, then finishes.
type SliceSource[T any] struct {
	items []T
	next  int
}

// FromSlice creates a source over items. The slice is not copied.
func FromSlice[T any](items []T) node.Node[struct{}, T] {
	return &SliceSource[T]{items: items}
}

// Process implements node.Node.
func (s *SliceSource[T]) Process(struct{}, bool) (T, bool) {
	var zero T
	if s.next >= len(s.items) {
		return zero, false
	}
	v := s.items[s.next]
	s.next++
	return v, true
}

// Finished implements node.Finisher.
func (s *SliceSource[T]) Finished() bool { return s.next >= len(s.items) }

// FuncSource emits values from a generator until it reports false.
type FuncSource[T any] struct {
	fn   func() (T, bool)
	done bool
}

// FromFunc creates a source that calls fn once per cycle. The source
// finishes the first time fn returns false.
func FromFunc[T any](fn func() (T, bool)) node.Node[struct{}, T] {
	return &FuncSource[T]{fn: fn}
}

// Process implements node.Node.
func (s *FuncSource[T]) Process(struct{}, bool) (T, bool) {
	v, ok := s.fn()
	if !ok {
		s.done = true
	}
	return v, ok
}

// Finished implements node.Finisher.
func (s *FuncSource[T]) Finished() bool { return s.done }

// Limited paces another node with a token bucket. Every Process call waits
// for a token first, which keeps a self-driven source from spinning.
type Limited[I, O any] struct {
	inner   node.Node[I, O]
	limiter *rate.Limiter
}

// RateLimited wraps n so it runs at most perSecond times per second with the
// given burst. A non-positive rate leaves n unthrottled.
func RateLimited[I, O any](n node.Node[I, O], perSecond float64, burst int) node.Node[I, O] {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst < 1 {
		burst = 1
	}
	return &Limited[I, O]{inner: n, limiter: rate.NewLimiter(limit, burst)}
}

// Process implements node.Node.
func (l *Limited[I, O]) Process(in I, ok bool) (O, bool) {
	// Wait only fails for a cancelled context or a burst below 1.
	_ = l.limiter.Wait(context.Background())
	return l.inner.Process(in, ok)
}

// OnStart forwards to the wrapped node.
func (l *Limited[I, O]) OnStart() {
	if s, ok := l.inner.(node.Starter); ok {
		s.OnStart()
	}
}

// OnStop forwards to the wrapped node.
func (l *Limited[I, O]) OnStop() {
	if s, ok := l.inner.(node.Stopper); ok {
		s.OnStop()
	}
}

// Finished forwards to the wrapped node.
func (l *Limited[I, O]) Finished() bool {
	f, ok := l.inner.(node.Finisher)
	return ok && f.Finished()
}
