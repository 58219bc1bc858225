// Package queue provides the bounded single-producer/single-consumer
// connection used between node instances.
//
// A connection is created as a pair of halves by New. The Producer half is
// owned by the upstream instance and the Consumer half by the downstream one;
// no third party may hold either. Closing a half is how the owner "drops" it:
// the peer observes ErrClosed on its next operation that cannot complete.
//
// Two backpressure policies share the same interface:
//
//   - Blocking: Send parks the goroutine while the queue is full and Recv
//     parks while it is empty. Zero CPU while waiting.
//   - SpinYield: Send/Recv try once, check the peer's abandonment flag when
//     the attempt fails, and otherwise yield the processor and retry. Lower
//     worst-case wake latency at the cost of CPU.
//
// Both deliver items in FIFO order, at most once, with no loss while both
// halves are open. A Consumer always drains buffered items before reporting
// closure.
//
//	tx, rx, err := queue.New[int](16, queue.Blocking)
//	go func() {
//	    defer tx.Close()
//	    for i := range 10 {
//	        if tx.Send(i) != nil {
//	            return
//	        }
//	    }
//	}()
//	for {
//	    v, err := rx.Recv()
//	    if err != nil {
//	        break // producer gone, everything drained
//	    }
//	    use(v)
//	}
package queue
