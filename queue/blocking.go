package queue

import "sync"

// chanQueue is the Blocking policy: a buffered channel carries the items and
// done is closed when the consumer is dropped. Closing items signals the
// producer drop; buffered items are still received after that.
type chanQueue[T any] struct {
	items    chan T
	done     chan struct{}
	prodOnce sync.Once
	consOnce sync.Once
}

func newChanQueue[T any](capacity int) *chanQueue[T] {
	return &chanQueue[T]{
		items: make(chan T, capacity),
		done:  make(chan struct{}),
	}
}

type chanProducer[T any] struct {
	q      *chanQueue[T]
	closed bool
}

func (p *chanProducer[T]) Send(v T) error {
	if p.closed {
		return ErrClosed
	}
	// select picks randomly among ready cases; check done first so a
	// dropped consumer is never fed while the buffer has room.
	select {
	case <-p.q.done:
		return ErrClosed
	default:
	}
	select {
	case p.q.items <- v:
		return nil
	case <-p.q.done:
		return ErrClosed
	}
}

func (p *chanProducer[T]) Close() {
	p.q.prodOnce.Do(func() {
		p.closed = true
		close(p.q.items)
	})
}

func (p *chanProducer[T]) Cap() int       { return cap(p.q.items) }
func (p *chanProducer[T]) Policy() Policy { return Blocking }

type chanConsumer[T any] struct {
	q      *chanQueue[T]
	closed bool
}

func (c *chanConsumer[T]) Recv() (T, error) {
	var zero T
	if c.closed {
		return zero, ErrClosed
	}
	v, ok := <-c.q.items
	if !ok {
		return zero, ErrClosed
	}
	return v, nil
}

func (c *chanConsumer[T]) Close() {
	c.q.consOnce.Do(func() {
		c.closed = true
		close(c.q.done)
	})
}

func (c *chanConsumer[T]) Cap() int       { return cap(c.q.items) }
func (c *chanConsumer[T]) Policy() Policy { return Blocking }
