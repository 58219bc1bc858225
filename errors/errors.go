package errors

import (
	"fmt"
	"net/http"
)

// AppError is the unified error type used across the engine.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Fatal marks pipeline defects that must end the pipeline.
	Fatal bool `json:"fatal"`
	// HTTPStatus is the status the monitor answers with for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic fatal detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Fatal:      IsFatalCode(code),
		HTTPStatus: http.StatusInternalServerError,
	}
}

// --- Engine error constructors ---

// PeerClosed creates the error returned by a queue half whose peer was dropped.
func PeerClosed() *AppError {
	return &AppError{
		Code: ErrCodePeerClosed, Message: "queue peer closed",
		HTTPStatus: http.StatusGone,
	}
}

// InvalidCapacity creates an error for a queue capacity that is not positive.
func InvalidCapacity(capacity int) *AppError {
	return &AppError{
		Code: ErrCodeInvalidCapacity, Message: fmt.Sprintf("queue capacity must be > 0 (got: %d)", capacity),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"capacity": capacity},
	}
}

// AlreadyConnected creates an error for a second input or output attachment.
func AlreadyConnected(node, side string) *AppError {
	return &AppError{
		Code: ErrCodeAlreadyConnected, Message: fmt.Sprintf("node '%s' already has an %s connection", node, side),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"node": node, "side": side},
	}
}

// AlreadySpawned creates an error for an instance that was consumed by Spawn.
func AlreadySpawned(node string) *AppError {
	return &AppError{
		Code: ErrCodeAlreadySpawned, Message: fmt.Sprintf("node '%s' was already spawned", node),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"node": node},
	}
}

// SpawnFailed creates an error for a node thread that could not be started.
func SpawnFailed(node string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeSpawnFailed, Message: fmt.Sprintf("failed to spawn node '%s'", node),
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"node": node}, Cause: cause,
	}
}

// GraphConsumed creates an error for a second Wait on the same graph.
func GraphConsumed() *AppError {
	return &AppError{
		Code: ErrCodeGraphConsumed, Message: "graph was already waited on",
		HTTPStatus: http.StatusConflict,
	}
}

// ResourceControl creates an error for a failed pinning or priority change.
func ResourceControl(operation string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeResourceControl, Message: fmt.Sprintf("%s failed", operation),
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"operation": operation}, Cause: cause,
	}
}

// Unsupported creates an error for a control the platform does not provide.
func Unsupported(operation string) *AppError {
	return &AppError{
		Code: ErrCodeUnsupported, Message: fmt.Sprintf("%s is not supported on this platform", operation),
		HTTPStatus: http.StatusNotImplemented,
		Details:    map[string]any{"operation": operation},
	}
}

// ConfigurationViolation creates the error for a node that produced output
// with no output connection to send it to.
func ConfigurationViolation(node string) *AppError {
	return &AppError{
		Code:       ErrCodeConfigurationViolation,
		Message:    fmt.Sprintf("node '%s' produced output but has no output connection", node),
		Fatal:      true,
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"node": node},
	}
}

// NodePanic creates the error for an unexpected panic inside a node thread.
func NodePanic(node string, value any) *AppError {
	return &AppError{
		Code:       ErrCodeNodePanic,
		Message:    fmt.Sprintf("node '%s' panicked: %v", node, value),
		Fatal:      true,
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"node": node},
	}
}

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		HTTPStatus: http.StatusBadRequest, Details: details,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NotFound creates a new AppError for a resource that was not found.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		HTTPStatus: http.StatusNotFound, Details: details,
	}
}

// Internal wraps an unexpected error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError, Cause: cause,
	}
}
