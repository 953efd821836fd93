package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
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

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// Is reports whether err is, or wraps, an AppError with the given code.
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// --- Common Error Constructors ---

// NotFound creates a new AppError for a resource that was not found.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		HTTPStatus: http.StatusNotFound, Retryable: false, Details: details,
	}
}

// AlreadyExists creates a new AppError for a resource that already exists.
func AlreadyExists(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeAlreadyExists, Message: fmt.Sprintf("A %s named %q already exists.", resource, id),
		HTTPStatus: http.StatusConflict, Retryable: false, Details: details,
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
		HTTPStatus: http.StatusBadRequest, Retryable: false, Details: details,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// MissingField creates a new AppError for a missing required field.
func MissingField(field string) *AppError {
	return &AppError{
		Code: ErrCodeMissingField, Message: fmt.Sprintf("Missing required field: %s", field),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"field": field},
	}
}

// InvalidFormat creates a new AppError for an invalid field format.
func InvalidFormat(field, expectedFormat string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidFormat, Message: fmt.Sprintf("Invalid format for %s. Expected: %s", field, expectedFormat),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"field": field, "expected_format": expectedFormat},
	}
}

// TooLarge creates a new AppError for a request body over limit bytes.
func TooLarge(limit int64) *AppError {
	return &AppError{
		Code: ErrCodePayloadTooLarge, Message: fmt.Sprintf("Request body exceeds %d bytes", limit),
		HTTPStatus: http.StatusRequestEntityTooLarge, Retryable: false,
		Details: map[string]any{"limit": limit},
	}
}

// Internal creates a new AppError for an internal server error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}

// Timeout creates a new AppError for an operation that exceeded its deadline.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: fmt.Sprintf("Operation timed out: %s", operation),
		HTTPStatus: http.StatusGatewayTimeout, Retryable: true,
		Details: map[string]any{"operation": operation},
	}
}

// RateLimited creates a new AppError for a request rejected by a rate limiter.
// retryAfter is the wait, in seconds, before a token is available.
func RateLimited(retryAfter int) *AppError {
	return &AppError{
		Code: ErrCodeRateLimited, Message: "Too many requests",
		HTTPStatus: http.StatusTooManyRequests, Retryable: true,
		Details: map[string]any{"retry_after": retryAfter},
	}
}

// ServiceUnavailable creates a new AppError for a resource with no free capacity.
func ServiceUnavailable(resource string) *AppError {
	return &AppError{
		Code: ErrCodeServiceUnavailable, Message: fmt.Sprintf("No capacity left: %s", resource),
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
		Details: map[string]any{"resource": resource},
	}
}

// --- Graph Construction Errors ---

func edgeDetails(srcNode, srcPort, dstNode, dstPort string) map[string]any {
	return map[string]any{
		"src_node": srcNode,
		"src_port": srcPort,
		"dst_node": dstNode,
		"dst_port": dstPort,
	}
}

// IncompatibleIO is raised when the two ports of a connection carry different datatypes.
func IncompatibleIO(srcNode, srcPort, dstNode, dstPort, srcType, dstType string) *AppError {
	details := edgeDetails(srcNode, srcPort, dstNode, dstPort)
	details["src_type"] = srcType
	details["dst_type"] = dstType
	return &AppError{
		Code: ErrCodeIncompatibleIO,
		Message: fmt.Sprintf("Cannot connect %s.%s (%s) to %s.%s (%s)",
			srcNode, srcPort, srcType, dstNode, dstPort, dstType),
		HTTPStatus: http.StatusUnprocessableEntity, Details: details,
	}
}

// DuplicateEdge is raised when a port pair is connected twice or an input already has a producer.
func DuplicateEdge(srcNode, srcPort, dstNode, dstPort string) *AppError {
	return &AppError{
		Code:       ErrCodeDuplicateEdge,
		Message:    fmt.Sprintf("Input %s.%s is already connected (new producer %s.%s)", dstNode, dstPort, srcNode, srcPort),
		HTTPStatus: http.StatusUnprocessableEntity, Details: edgeDetails(srcNode, srcPort, dstNode, dstPort),
	}
}

// UnconnectedIO is raised when a port is bound neither to an edge nor to a constant.
func UnconnectedIO(node, port string) *AppError {
	return &AppError{
		Code:       ErrCodeUnconnectedIO,
		Message:    fmt.Sprintf("Port %s.%s is not connected", node, port),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"node": node, "port": port},
	}
}

// CannotDelayConstant is raised when a delay is requested on a constant connection.
func CannotDelayConstant(constant, node, port string) *AppError {
	return &AppError{
		Code:       ErrCodeCannotDelayConstant,
		Message:    fmt.Sprintf("Constant %s cannot be connected with a delay to %s.%s", constant, node, port),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"constant": constant, "node": node, "port": port},
	}
}

// --- Buffer Constraint Errors ---

// BufferConstraintOnIOAreIncompatibles is raised at connect time when both
// ports declare buffer constraints that differ.
func BufferConstraintOnIOAreIncompatibles(srcNode, srcPort, dstNode, dstPort string) *AppError {
	return &AppError{
		Code: ErrCodeBufferConstraintOnIOAreIncompatibles,
		Message: fmt.Sprintf("Buffer constraints on %s.%s and %s.%s are incompatible",
			srcNode, srcPort, dstNode, dstPort),
		HTTPStatus: http.StatusUnprocessableEntity, Details: edgeDetails(srcNode, srcPort, dstNode, dstPort),
	}
}

// CannotReuseCustomBuffer is raised when the same custom buffer name is
// attached to more than one edge group.
func CannotReuseCustomBuffer(name string) *AppError {
	return &AppError{
		Code:       ErrCodeCannotReuseCustomBuffer,
		Message:    fmt.Sprintf("Custom buffer %q is used more than once", name),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"buffer": name},
	}
}

// CantHaveBufferConstraintOnFIFO is raised when an edge-level constraint
// sits on an output that must be legalized with a duplicate node.
func CantHaveBufferConstraintOnFIFO(srcNode, srcPort, dstNode, dstPort string) *AppError {
	return &AppError{
		Code: ErrCodeCantHaveBufferConstraintOnFIFO,
		Message: fmt.Sprintf("Edge %s.%s -> %s.%s has a buffer constraint but a duplicate node must be inserted",
			srcNode, srcPort, dstNode, dstPort),
		HTTPStatus: http.StatusUnprocessableEntity, Details: edgeDetails(srcNode, srcPort, dstNode, dstPort),
	}
}

// FIFOWithCustomBufferMustBeArray is raised when a constraint demands array
// use but the computed schedule made the FIFO a real FIFO.
func FIFOWithCustomBufferMustBeArray(fifoID int, srcNode, dstNode, buffer string) *AppError {
	return &AppError{
		Code: ErrCodeFIFOWithCustomBufferMustBeArray,
		Message: fmt.Sprintf("FIFO %d (%s -> %s) uses custom buffer %q but is not used as an array",
			fifoID, srcNode, dstNode, buffer),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"fifo":     fifoID,
			"src_node": srcNode,
			"dst_node": dstNode,
			"buffer":   buffer,
		},
	}
}

// --- Scheduling Errors ---

// GraphIsNotConnected is raised when the graph has several connected components.
func GraphIsNotConnected(components int) *AppError {
	return &AppError{
		Code:       ErrCodeGraphIsNotConnected,
		Message:    fmt.Sprintf("Graph is not connected (%d components)", components),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"components": components},
	}
}

// NotSchedulable is raised when the topology matrix null space is not one-dimensional.
func NotSchedulable(dimension int) *AppError {
	return &AppError{
		Code:       ErrCodeNotSchedulable,
		Message:    fmt.Sprintf("Rates are inconsistent: null space has dimension %d", dimension),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"dimension": dimension},
	}
}

// Deadlock is raised when no remaining node can run.
func Deadlock(step int, reason string) *AppError {
	return &AppError{
		Code:       ErrCodeDeadlock,
		Message:    fmt.Sprintf("Deadlock at step %d: %s", step, reason),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"step": step},
	}
}

// ScheduleTooLong is raised when one schedule period needs more than limit
// activations.
func ScheduleTooLong(limit int) *AppError {
	return &AppError{
		Code:       ErrCodeScheduleTooLong,
		Message:    fmt.Sprintf("Schedule needs more than %d activations", limit),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"limit": limit},
	}
}
