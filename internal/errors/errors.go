package errors

import "fmt"

// ErrorCode represents an AEC error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrDuplicateName  ErrorCode = "DUPLICATE_NAME"  // 409
	ErrUnknownCommand ErrorCode = "UNKNOWN_COMMAND" // 422
	ErrInvalidPlugin  ErrorCode = "INVALID_PLUGIN"  // 422
	ErrCancelled      ErrorCode = "CANCELLED"       // 499
	ErrInternal       ErrorCode = "INTERNAL"        // 500
)

// AecError represents a structured error with code, status, and details.
type AecError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *AecError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *AecError {
	return &AecError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error. kind names what was looked up ("run", "plugin").
func NewNotFound(kind, identifier string) *AecError {
	return &AecError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", kind, identifier),
		Details: map[string]any{"kind": kind, "identifier": identifier},
	}
}

// NewPluginNotFound creates a 404 error for an unknown catalog plugin,
// optionally carrying a spelling suggestion.
func NewPluginNotFound(name, suggestion string) *AecError {
	err := NewNotFound("plugin", name)
	if suggestion != "" {
		err.Message += fmt.Sprintf(". Did you mean '%s'?", suggestion)
		err.Details["suggestion"] = suggestion
	}
	return err
}

// NewDuplicateName creates a 409 error when a namespace or command name is
// registered twice.
func NewDuplicateName(kind, name string) *AecError {
	return &AecError{
		Code:    ErrDuplicateName,
		Status:  409,
		Message: fmt.Sprintf("duplicate %s name %q", kind, name),
		Details: map[string]any{"kind": kind, "name": name},
	}
}

// NewUnknownCommand creates a 422 error for a source token that matches no
// reserved keyword, module trigger, or command name. suggestion may be empty.
func NewUnknownCommand(token, suggestion string) *AecError {
	msg := fmt.Sprintf("unknown command '%s'.", token)
	details := map[string]any{"token": token}
	if suggestion != "" {
		msg += fmt.Sprintf(" Did you mean '%s'?", suggestion)
		details["suggestion"] = suggestion
	}
	return &AecError{
		Code:    ErrUnknownCommand,
		Status:  422,
		Message: msg,
		Details: details,
	}
}

// NewInvalidPlugin creates a 422 error for a malformed plugin definition.
func NewInvalidPlugin(name, reason string) *AecError {
	return &AecError{
		Code:    ErrInvalidPlugin,
		Status:  422,
		Message: fmt.Sprintf("invalid plugin %q: %s", name, reason),
		Details: map[string]any{"plugin": name},
	}
}

// NewCancelled creates a 499 error when an operation is cancelled by context.
func NewCancelled(op string) *AecError {
	return &AecError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", op),
		Details: map[string]any{"operation": op},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *AecError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &AecError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is an AecError with the given code.
func Is(err error, code ErrorCode) bool {
	if aErr, ok := err.(*AecError); ok {
		return aErr.Code == code
	}
	return false
}
