// Package node defines the node contract and the instance that runs a node
// on its own OS thread.
//
// A Node transforms an optional input into an optional output. An Instance
// owns one Node, at most one input connection and at most one output
// connection. Spawn starts a goroutine locked to a dedicated OS thread and
// returns a Handle to join it:
//
//	src := node.New("source", nodes.FromSlice(data), node.WithCPU(2))
//	dbl := node.New("double", nodes.Map(func(v int) int { return v * 2 }))
//	if err := node.Connect(src, dbl, 16, queue.Blocking); err != nil {
//		return err
//	}
//	h, err := src.Spawn()
//
// The loop ends when a connection's peer is gone. A node that emits a value
// while it has no output connection is a broken pipeline: the violation is
// logged at fatal level and the thread panics.
//
// Panics inside a node are recovered on its thread and returned from
// Handle.Join as a *PanicError. Both connection halves are closed on exit,
// so neighbors observe the failure as end of stream.
package node
