package nodes

import (
	"time"

	"github.com/kbukum/tpcgraph/node"
)

// Map transforms each input item with fn.
func Map[I, O any](fn func(I) O) node.Node[I, O] {
	return node.Func[I, O](func(in I, ok bool) (O, bool) {
		if !ok {
			var zero O
			return zero, false
		}
		return fn(in), true
	})
}

// Filter keeps only items that satisfy pred.
func Filter[T any](pred func(T) bool) node.Node[T, T] {
	return node.Func[T, T](func(in T, ok bool) (T, bool) {
		return in, ok && pred(in)
	})
}

// Tap calls fn as a side effect for each item and passes it through
// unchanged.
func Tap[T any](fn func(T)) node.Node[T, T] {
	return node.Func[T, T](func(in T, ok bool) (T, bool) {
		if ok {
			fn(in)
		}
		return in, ok
	})
}

// Throttle drops items that arrive within interval of the last one passed
// through.
func Throttle[T any](interval time.Duration) node.Node[T, T] {
	var last time.Time
	return node.Func[T, T](func(in T, ok bool) (T, bool) {
		if !ok {
			return in, false
		}
		now := time.Now()
		if !last.IsZero() && now.Sub(last) < interval {
			return in, false
		}
		last = now
		return in, true
	})
}

// TakeN passes the first n items through and then finishes. Finishing
// closes both connections, so upstream stops on its next send and
// downstream sees end of stream.
type TakeN[T any] struct {
	left int
}

// Take creates a TakeN operator.
func Take[T any](n int) node.Node[T, T] {
	return &TakeN[T]{left: n}
}

// Process implements node.Node.
func (t *TakeN[T]) Process(in T, ok bool) (T, bool) {
	if !ok || t.left <= 0 {
		return in, false
	}
	t.left--
	return in, true
}

// Finished implements node.Finisher.
func (t *TakeN[T]) Finished() bool { return t.left <= 0 }
