// Package graph collects the handles of a running pipeline and joins them.
//
//	g := graph.New()
//	if err := g.Spawn(src, double, sink); err != nil {
//		return err
//	}
//	if err := g.Wait(); err != nil {
//		// one or more nodes panicked
//	}
//
// Wait joins every handle in registration order and never swallows a
// failure: the returned error joins all of them.
package graph
