package utils

import "fmt"

// AppError annotates a failure with the operation that produced it. The
// underlying error, when present, stays reachable through errors.Is and
// errors.As so sentinel checks keep working across service boundaries.
type AppError struct {
	Op  string
	Msg string
	Err error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Msg
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
}

func (e *AppError) Unwrap() error { return e.Err }

// NewAppError wraps err with an operation name and message. A nil err is
// allowed for failures that originate inside the service itself.
func NewAppError(op, msg string, err error) error {
	return &AppError{Op: op, Msg: msg, Err: err}
}
