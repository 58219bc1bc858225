// Package errors provides the unified error type for tpcgraph.
// It implements structured error types with error codes, a fatal/recoverable
// classification for the engine's error taxonomy, and HTTP status mapping for
// the monitor endpoint.
package errors
