package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Queue/connection errors (recoverable)
const (
	// ErrCodePeerClosed indicates the other half of a queue was dropped.
	ErrCodePeerClosed ErrorCode = "PEER_CLOSED"
	// ErrCodeInvalidCapacity indicates a queue capacity that is not > 0.
	ErrCodeInvalidCapacity ErrorCode = "INVALID_CAPACITY"
	// ErrCodeAlreadyConnected indicates an instance already holds that queue end.
	ErrCodeAlreadyConnected ErrorCode = "ALREADY_CONNECTED"
)

// Lifecycle errors
const (
	// ErrCodeAlreadySpawned indicates the instance was consumed by Spawn.
	ErrCodeAlreadySpawned ErrorCode = "ALREADY_SPAWNED"
	// ErrCodeSpawnFailed indicates the node thread could not be started.
	ErrCodeSpawnFailed ErrorCode = "SPAWN_FAILED"
	// ErrCodeGraphConsumed indicates Wait was already called on the graph.
	ErrCodeGraphConsumed ErrorCode = "GRAPH_CONSUMED"
)

// Resource control errors (logged, never fatal)
const (
	// ErrCodeResourceControl indicates CPU pinning or priority elevation failed.
	ErrCodeResourceControl ErrorCode = "RESOURCE_CONTROL_FAILED"
	// ErrCodeUnsupported indicates the platform lacks the requested control.
	ErrCodeUnsupported ErrorCode = "UNSUPPORTED"
)

// Fatal pipeline defects
const (
	// ErrCodeConfigurationViolation indicates a node emitted output with no output connection.
	ErrCodeConfigurationViolation ErrorCode = "CONFIGURATION_VIOLATION"
	// ErrCodeNodePanic indicates a panic inside a node thread.
	ErrCodeNodePanic ErrorCode = "NODE_PANIC"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeInternal indicates an unexpected failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var fatalCodes = map[ErrorCode]bool{
	ErrCodeConfigurationViolation: true,
	ErrCodeNodePanic:              true,
	ErrCodePeerClosed:             false,
	ErrCodeResourceControl:        false,
}

// IsFatalCode returns true if the error code indicates a pipeline defect that
// must not be recovered from.
func IsFatalCode(code ErrorCode) bool {
	return fatalCodes[code]
}
