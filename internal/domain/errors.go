package domain

type ErrorCode string

const (
	CodeValidation       ErrorCode = "VALIDATION_ERROR"
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeCapacityExceeded ErrorCode = "CAPACITY_EXCEEDED"
	CodeUnauthenticated  ErrorCode = "UNAUTHENTICATED"
	CodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	CodeInvalidPayload   ErrorCode = "INVALID_PAYLOAD"
	CodeInternal         ErrorCode = "INTERNAL"
)

// Error is a failure with a stable code that is surfaced to callers as is.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func NewError(code ErrorCode, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

var (
	ErrEventNotFound        = NewError(CodeNotFound, "event not found")
	ErrRegistrationNotFound = NewError(CodeNotFound, "registration not found")
	ErrCapacityExceeded     = NewError(CodeCapacityExceeded, "event has reached its maximum number of participants")
	ErrUnauthenticated      = NewError(CodeUnauthenticated, "authentication required")
	ErrUnauthorized         = NewError(CodeUnauthorized, "insufficient permissions for this event")
	ErrInvalidPayload       = NewError(CodeInvalidPayload, "ticket is invalid or has been tampered with")
	ErrAlreadyAttended      = NewError(CodeValidation, "attended registrations cannot be cancelled")
)
