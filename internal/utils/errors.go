package utils

import "fmt"

// Request-level error codes. These short-circuit before any agent dispatch.
const (
	CodeFileNotFound         = "FILE_NOT_FOUND"
	CodeUnsupportedMediaType = "UNSUPPORTED_MEDIA_TYPE"
	CodeInvalidRequest       = "INVALID_REQUEST"
)

// AppError wraps an operation, a taxonomy code, a human-facing message, and an
// underlying error.
type AppError struct {
	Op   string
	Code string
	Msg  string
	Err  error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s: %v", e.Op, e.Code, e.Msg, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(op, code, msg string, err error) error {
	return &AppError{Op: op, Code: code, Msg: msg, Err: err}
}

// ErrorCode extracts the taxonomy code from an error, empty when the error is
// not an AppError.
func ErrorCode(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return ""
}
