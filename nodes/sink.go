package nodes

import (
	"sync"

	"github.com/kbukum/tpcgraph/node"
)

// Collector is a sink that keeps every item it receives. Items may be read
// from any goroutine, including while the pipeline runs.
type Collector[T any] struct {
	mu    sync.Mutex
	items []T
}

// Collect creates an empty Collector.
func Collect[T any]() *Collector[T] {
	return &Collector[T]{}
}

// Process implements node.Node.
func (c *Collector[T]) Process(in T, ok bool) (struct{}, bool) {
	if ok {
		c.mu.Lock()
		c.items = append(c.items, in)
		c.mu.Unlock()
	}
	return struct{}{}, false
}

// Items returns a copy of the received items in arrival order.
func (c *Collector[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of received items.
func (c *Collector[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// ForEach is a sink that calls fn for each item.
func ForEach[T any](fn func(T)) node.Node[T, struct{}] {
	return node.Func[T, struct{}](func(in T, ok bool) (struct{}, bool) {
		if ok {
			fn(in)
		}
		return struct{}{}, false
	})
}
