package main

import (
	"context"
	"sync/atomic"

	"github.com/kbukum/tpcgraph/config"
	"github.com/kbukum/tpcgraph/graph"
	"github.com/kbukum/tpcgraph/node"
	"github.com/kbukum/tpcgraph/nodes"
	"github.com/kbukum/tpcgraph/queue"
)

// wiring carries what every node of a demo graph shares.
type wiring struct {
	runtime config.RuntimeConfig
	policy  queue.Policy
	extra   []node.Option
	log     node.Logger
}

func (w wiring) options(name string) []node.Option {
	return w.runtime.NodeOptions(name, w.extra...)
}

// stoppable turns next into a source that finishes once ctx is done. Node
// threads cannot be interrupted, so stopping the source is how a graph is
// drained on shutdown.
func stoppable[T any](ctx context.Context, next func() (T, bool)) node.Node[struct{}, T] {
	var stop atomic.Bool
	context.AfterFunc(ctx, func() { stop.Store(true) })
	return nodes.FromFunc(func() (T, bool) {
		if stop.Load() {
			var zero T
			return zero, false
		}
		return next()
	})
}

// counter emits n, n-1, ..., 1. A negative n counts 1, 2, 3, ... forever.
func counter(n int) func() (int, bool) {
	next := n
	forever := n < 0
	if forever {
		next = 0
	}
	return func() (int, bool) {
		if forever {
			next++
			return next, true
		}
		if next <= 0 {
			return 0, false
		}
		v := next
		next--
		return v, true
	}
}

// buildSimple wires source -> multiply -> filter even -> printer.
func buildSimple(ctx context.Context, g *graph.Graph, p PipelineConfig, w wiring) error {
	items := p.Items
	if items == 0 {
		items = -1
	}
	var src node.Node[struct{}, int] = stoppable(ctx, counter(items))
	if p.Rate > 0 {
		src = nodes.RateLimited(src, p.Rate, 1)
	}
	factor := p.Factor

	source := node.New("source", src, w.options("source")...)
	mult := node.New("multiply", nodes.Map(func(v int) int { return v * factor }), w.options("multiply")...)
	even := node.New("filter-even", nodes.Filter(func(v int) bool { return v%2 == 0 }), w.options("filter-even")...)
	printer := node.New("printer", nodes.ForEach(func(v int) {
		w.log.Info("received", map[string]interface{}{"value": v})
	}), w.options("printer")...)

	capacity := w.runtime.QueueCapacity
	if err := node.Connect(source, mult, capacity, w.policy); err != nil {
		return err
	}
	if err := node.Connect(mult, even, capacity, w.policy); err != nil {
		return err
	}
	if err := node.Connect(even, printer, capacity, w.policy); err != nil {
		return err
	}

	return g.Spawn(source, mult, even, printer)
}

// buildPerf wires vector source -> multiply -> discarding sink, the
// throughput benchmark graph.
func buildPerf(ctx context.Context, g *graph.Graph, p PipelineConfig, w wiring) error {
	remaining := p.Items
	forever := remaining == 0
	length := p.VectorLen
	var src node.Node[struct{}, []int32] = stoppable(ctx, func() ([]int32, bool) {
		if !forever {
			if remaining == 0 {
				return nil, false
			}
			remaining--
		}
		v := make([]int32, length)
		for i := range v {
			v[i] = int32(i)
		}
		return v, true
	})
	if p.Rate > 0 {
		src = nodes.RateLimited(src, p.Rate, 1)
	}
	factor := int32(p.Factor)

	source := node.New("source", src, w.options("source")...)
	mult := node.New("multiply", nodes.Map(func(in []int32) []int32 {
		for i := range in {
			in[i] *= factor
		}
		return in
	}), w.options("multiply")...)
	sink := node.New("sink", nodes.ForEach(func([]int32) {}), w.options("sink")...)

	capacity := w.runtime.QueueCapacity
	if err := node.Connect(source, mult, capacity, w.policy); err != nil {
		return err
	}
	if err := node.Connect(mult, sink, capacity, w.policy); err != nil {
		return err
	}

	return g.Spawn(source, mult, sink)
}

// buildGraph spawns the configured demo graph into g. On error, nodes
// spawned so far stay registered in g.
func buildGraph(ctx context.Context, g *graph.Graph, p PipelineConfig, w wiring) error {
	if p.Graph == GraphPerf {
		return buildPerf(ctx, g, p, w)
	}
	return buildSimple(ctx, g, p, w)
}
