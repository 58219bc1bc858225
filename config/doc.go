// Package config loads settings for tpcgraph programs and holds the engine's
// runtime settings.
//
// LoadConfig reads a config.yml (searched under cmd/<service>, config/ and
// the working directory), then a .env file, then the environment. Variables
// carrying the service prefix override file values:
//
//	TPCGRAPH_RUNTIME_QUEUE_CAPACITY=256 -> runtime.queue_capacity
//
// RuntimeConfig turns validated settings into queue parameters and per-node
// instance options:
//
//	policy, _ := cfg.Runtime.Policy()
//	inst := node.New("source", src, cfg.Runtime.NodeOptions("source")...)
package config
