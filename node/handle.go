package node

import (
	"fmt"
	"sync/atomic"

	"github.com/kbukum/tpcgraph/errors"
)

// State is the lifecycle state of an instance's thread.
type State int32

const (
	Created State = iota
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Handle joins a spawned instance's thread.
type Handle struct {
	name  string
	runID string
	done  chan struct{}
	state atomic.Int32
	err   error
}

func newHandle(name, runID string) *Handle {
	return &Handle{name: name, runID: runID, done: make(chan struct{})}
}

// Name returns the node name.
func (h *Handle) Name() string { return h.name }

// RunID returns the id of this spawn, as seen in logs, reports and spans.
func (h *Handle) RunID() string { return h.runID }

// State returns the current lifecycle state.
func (h *Handle) State() State { return State(h.state.Load()) }

// Done is closed when the thread has exited.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Join blocks until the thread exits. It returns nil after a normal exit and
// a *PanicError if the node panicked. Join may be called any number of times.
func (h *Handle) Join() error {
	<-h.done
	return h.err
}

// Err returns the exit error without blocking: nil while the thread is
// still running or after a normal exit.
func (h *Handle) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}

func (h *Handle) setState(s State) { h.state.Store(int32(s)) }

// PanicError is a panic recovered on a node thread.
type PanicError struct {
	Node  string
	Value any
	Stack []byte
	cause *errors.AppError
}

func newPanicError(node string, value any, stack []byte) *PanicError {
	cause, ok := value.(*errors.AppError)
	if !ok {
		cause = errors.NodePanic(node, value)
		if err, isErr := value.(error); isErr {
			cause = cause.WithCause(err)
		}
	}
	return &PanicError{Node: node, Value: value, Stack: stack, cause: cause}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("node '%s' panicked: %v", e.Node, e.Value)
}

// Unwrap returns the AppError describing the panic: the panic value itself
// when it is an AppError, NODE_PANIC otherwise.
func (e *PanicError) Unwrap() error { return e.cause }

// Code returns the error code of the panic.
func (e *PanicError) Code() errors.ErrorCode { return e.cause.Code }
