package queue

import (
	"runtime"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// ring is the SpinYield policy: a Lamport single-producer/single-consumer
// ring buffer. head is only written by the consumer and tail only by the
// producer; each side keeps a cached copy of the other's index so the shared
// cache line is read only when the cached view says full/empty.
//
// Slots are rounded up to a power of two for masking, but occupancy is capped
// at capacity so the connection holds exactly capacity items.
type ring[T any] struct {
	_    cpu.CacheLinePad
	head atomic.Uint64
	_    cpu.CacheLinePad
	tail atomic.Uint64
	_    cpu.CacheLinePad

	producerGone atomic.Bool
	consumerGone atomic.Bool

	capacity uint64
	mask     uint64
	slots    []T
}

func newRing[T any](capacity int) *ring[T] {
	size := uint64(1)
	for size < uint64(capacity) {
		size <<= 1
	}
	return &ring[T]{
		capacity: uint64(capacity),
		mask:     size - 1,
		slots:    make([]T, size),
	}
}

type ringProducer[T any] struct {
	r          *ring[T]
	cachedHead uint64
	closed     bool
}

func (p *ringProducer[T]) trySend(v T) bool {
	tail := p.r.tail.Load()
	if tail-p.cachedHead >= p.r.capacity {
		p.cachedHead = p.r.head.Load()
		if tail-p.cachedHead >= p.r.capacity {
			return false
		}
	}
	p.r.slots[tail&p.r.mask] = v
	p.r.tail.Store(tail + 1)
	return true
}

func (p *ringProducer[T]) Send(v T) error {
	if p.closed {
		return ErrClosed
	}
	for {
		if p.trySend(v) {
			return nil
		}
		if p.r.consumerGone.Load() {
			return ErrClosed
		}
		runtime.Gosched()
	}
}

func (p *ringProducer[T]) Close() {
	if p.closed {
		return
	}
	p.closed = true
	p.r.producerGone.Store(true)
}

func (p *ringProducer[T]) Cap() int       { return int(p.r.capacity) }
func (p *ringProducer[T]) Policy() Policy { return SpinYield }

type ringConsumer[T any] struct {
	r          *ring[T]
	cachedTail uint64
	closed     bool
}

func (c *ringConsumer[T]) tryRecv() (T, bool) {
	var zero T
	head := c.r.head.Load()
	if head == c.cachedTail {
		c.cachedTail = c.r.tail.Load()
		if head == c.cachedTail {
			return zero, false
		}
	}
	idx := head & c.r.mask
	v := c.r.slots[idx]
	c.r.slots[idx] = zero
	c.r.head.Store(head + 1)
	return v, true
}

func (c *ringConsumer[T]) Recv() (T, error) {
	var zero T
	if c.closed {
		return zero, ErrClosed
	}
	for {
		if v, ok := c.tryRecv(); ok {
			return v, nil
		}
		if c.r.producerGone.Load() {
			// The producer may have published between the failed attempt
			// and the flag becoming visible.
			if v, ok := c.tryRecv(); ok {
				return v, nil
			}
			return zero, ErrClosed
		}
		runtime.Gosched()
	}
}

func (c *ringConsumer[T]) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.r.consumerGone.Store(true)
}

func (c *ringConsumer[T]) Cap() int       { return int(c.r.capacity) }
func (c *ringConsumer[T]) Policy() Policy { return SpinYield }
