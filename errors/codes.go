package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Resource errors
const (
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeAlreadyExists indicates the resource already exists.
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
	// ErrCodeInvalidFormat indicates a field has an invalid format.
	ErrCodeInvalidFormat ErrorCode = "INVALID_FORMAT"
	// ErrCodePayloadTooLarge indicates a request body over the configured limit.
	ErrCodePayloadTooLarge ErrorCode = "PAYLOAD_TOO_LARGE"
)

// Graph construction errors
const (
	// ErrCodeIncompatibleIO indicates two connected ports carry different datatypes.
	ErrCodeIncompatibleIO ErrorCode = "INCOMPATIBLE_IO"
	// ErrCodeDuplicateEdge indicates a port pair is connected twice or an input is bound twice.
	ErrCodeDuplicateEdge ErrorCode = "DUPLICATE_EDGE"
	// ErrCodeUnconnectedIO indicates a port is bound neither to an edge nor to a constant.
	ErrCodeUnconnectedIO ErrorCode = "UNCONNECTED_IO"
	// ErrCodeCannotDelayConstant indicates a delay was requested on a constant connection.
	ErrCodeCannotDelayConstant ErrorCode = "CANNOT_DELAY_CONSTANT"
)

// Buffer constraint errors
const (
	// ErrCodeBufferConstraintOnIOAreIncompatibles indicates both ports of an edge carry incompatible constraints.
	ErrCodeBufferConstraintOnIOAreIncompatibles ErrorCode = "BUFFER_CONSTRAINT_ON_IO_ARE_INCOMPATIBLES"
	// ErrCodeCannotReuseCustomBuffer indicates a custom buffer name is attached to more than one edge group.
	ErrCodeCannotReuseCustomBuffer ErrorCode = "CANNOT_REUSE_CUSTOM_BUFFER_MORE_THAN_ONCE"
	// ErrCodeCantHaveBufferConstraintOnFIFO indicates an edge-level constraint sits on a fan-out that needs a duplicate node.
	ErrCodeCantHaveBufferConstraintOnFIFO ErrorCode = "CANT_HAVE_BUFFER_CONSTRAINT_ON_FIFO_WHEN_DUPLICATE_IS_INSERTED"
	// ErrCodeFIFOWithCustomBufferMustBeArray indicates a constrained FIFO could not be used as an array.
	ErrCodeFIFOWithCustomBufferMustBeArray ErrorCode = "FIFO_WITH_CUSTOM_BUFFER_MUST_BE_USED_AS_ARRAY"
)

// Scheduling errors
const (
	// ErrCodeGraphIsNotConnected indicates the graph has more than one connected component.
	ErrCodeGraphIsNotConnected ErrorCode = "GRAPH_IS_NOT_CONNECTED"
	// ErrCodeNotSchedulable indicates inconsistent rates (null space dimension is not one).
	ErrCodeNotSchedulable ErrorCode = "NOT_SCHEDULABLE"
	// ErrCodeDeadlock indicates no node can run without starving a FIFO.
	ErrCodeDeadlock ErrorCode = "DEADLOCK"
	// ErrCodeScheduleTooLong indicates the schedule period exceeds the configured step limit.
	ErrCodeScheduleTooLong ErrorCode = "SCHEDULE_TOO_LONG"
)

// Internal errors
const (
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeTimeout indicates an operation exceeded its deadline.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// Overload errors
const (
	// ErrCodeRateLimited indicates the client sent more requests than allowed.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
	// ErrCodeServiceUnavailable indicates every computation slot is busy.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
)

// Scheduling is deterministic: only load related failures may succeed on retry.
var retryableCodes = map[ErrorCode]bool{
	ErrCodeInternal:           false,
	ErrCodeTimeout:            true,
	ErrCodeRateLimited:        true,
	ErrCodeServiceUnavailable: true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
