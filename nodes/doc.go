// Package nodes provides reusable node building blocks: sources, per-item
// operators and sinks.
//
//	src := node.New("source", nodes.FromSlice([]int{1, 2, 3}))
//	dbl := node.New("double", nodes.Map(func(v int) int { return v * 2 }))
//	out := nodes.Collect[int]()
//	snk := node.New[int, struct{}]("sink", out)
//
// Finite sources implement node.Finisher, so a pipeline built from them
// shuts down on its own once the data is exhausted.
package nodes
