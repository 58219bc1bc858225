package queue

import (
	"fmt"
	"strings"

	"github.com/kbukum/tpcgraph/errors"
)

// ErrClosed is returned by Send and Recv once the peer half is gone (or the
// caller's own half was closed). It is the expected end-of-stream signal.
var ErrClosed = errors.PeerClosed()

// Policy selects the backpressure strategy of a connection.
type Policy int

const (
	// Blocking parks the calling goroutine on full/empty.
	Blocking Policy = iota
	// SpinYield retries with runtime.Gosched on full/empty.
	SpinYield
)

func (p Policy) String() string {
	switch p {
	case Blocking:
		return "blocking"
	case SpinYield:
		return "spin"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy maps a config value to a Policy. Accepts "blocking" and
// "spin" (or "spin-yield", "spinyield").
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "blocking", "block":
		return Blocking, nil
	case "spin", "spin-yield", "spinyield", "spin_yield":
		return SpinYield, nil
	default:
		return Blocking, errors.InvalidInput("queue_policy", fmt.Sprintf("unknown queue policy %q", s))
	}
}

// Producer is the sending half of a connection.
type Producer[T any] interface {
	// Send enqueues v, waiting according to the policy while the queue is
	// full. Returns ErrClosed if the consumer is gone.
	Send(v T) error
	// Close drops the producer half. Idempotent.
	Close()
	// Cap returns the fixed capacity of the connection.
	Cap() int
	// Policy returns the backpressure policy of the connection.
	Policy() Policy
}

// Consumer is the receiving half of a connection.
type Consumer[T any] interface {
	// Recv dequeues the next item, waiting according to the policy while
	// the queue is empty. Returns ErrClosed once the producer is gone and
	// every buffered item has been delivered.
	Recv() (T, error)
	// Close drops the consumer half. Idempotent.
	Close()
	// Cap returns the fixed capacity of the connection.
	Cap() int
	// Policy returns the backpressure policy of the connection.
	Policy() Policy
}

// New creates a connection with the given capacity and policy and returns
// its two halves. Capacity must be > 0.
func New[T any](capacity int, policy Policy) (Producer[T], Consumer[T], error) {
	if capacity <= 0 {
		return nil, nil, errors.InvalidCapacity(capacity)
	}
	switch policy {
	case Blocking:
		q := newChanQueue[T](capacity)
		return &chanProducer[T]{q: q}, &chanConsumer[T]{q: q}, nil
	case SpinYield:
		r := newRing[T](capacity)
		return &ringProducer[T]{r: r}, &ringConsumer[T]{r: r}, nil
	default:
		return nil, nil, errors.InvalidInput("policy", fmt.Sprintf("unknown queue policy %d", int(policy)))
	}
}
