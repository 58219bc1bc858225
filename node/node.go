package node

// Node is a single processing stage.
//
// ok is true exactly once per item consumed from the input connection and
// always false for a source with no input connection. emit reports whether
// out should be sent downstream. Process is only ever called from the
// instance's own thread.
type Node[I, O any] interface {
	Process(in I, ok bool) (out O, emit bool)
}

// Starter is implemented by nodes that need setup on their thread before the
// first Process call.
type Starter interface {
	OnStart()
}

// Stopper is implemented by nodes that need teardown on their thread after
// the loop ends normally.
type Stopper interface {
	OnStop()
}

// Func adapts a plain function to Node.
type Func[I, O any] func(in I, ok bool) (O, bool)

// Process calls f.
func (f Func[I, O]) Process(in I, ok bool) (O, bool) {
	return f(in, ok)
}

// Finisher is implemented by nodes with a natural end, such as a finite
// source. The loop checks Finished after every cycle and exits normally once
// it reports true; dropping the output connection then ends the stream for
// every downstream node.
type Finisher interface {
	Finished() bool
}
