package errors

import "fmt"

// ErrorCode represents a Mythic engine error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrParse          ErrorCode = "PARSE_ERROR"     // 400
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrConflict       ErrorCode = "CONFLICT"        // 409
	ErrStructural     ErrorCode = "STRUCTURAL"      // 422
	ErrCancelled      ErrorCode = "CANCELLED"       // 499
	ErrInternal       ErrorCode = "INTERNAL"        // 500
)

// EngineError represents a structured error with code, status, and details.
type EngineError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *EngineError {
	return &EngineError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewParse creates a 400 error for unparseable input (file, clipboard, AI output).
func NewParse(msg string) *EngineError {
	return &EngineError{
		Code:    ErrParse,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing session, table, turn, or file.
func NewNotFound(identifier string) *EngineError {
	return &EngineError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewConflict creates a 409 error for general conflicts.
func NewConflict(msg string) *EngineError {
	return &EngineError{
		Code:    ErrConflict,
		Status:  409,
		Message: msg,
	}
}

// NewStructural creates a 422 error for structurally invalid documents,
// e.g. an import payload with no tables array.
func NewStructural(msg string) *EngineError {
	return &EngineError{
		Code:    ErrStructural,
		Status:  422,
		Message: msg,
	}
}

// NewCancelled creates a 499 error for a context-cancelled operation.
func NewCancelled(operation string) *EngineError {
	return &EngineError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("operation cancelled: %s", operation),
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *EngineError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &EngineError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is an EngineError with the given code.
func Is(err error, code ErrorCode) bool {
	if eErr, ok := err.(*EngineError); ok {
		return eErr.Code == code
	}
	return false
}
