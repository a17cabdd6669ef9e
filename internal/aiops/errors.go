package aiops

import (
	"errors"
	"fmt"
)

// ErrUnknownOperation is returned by Run for names not in the registry.
var ErrUnknownOperation = errors.New("unknown operation")

// InvalidInputError reports caller input that an operation rejects before any
// model call. It is never retried.
type InvalidInputError struct {
	Operation string
	Field     string
	Code      string
	Err       error
}

func (e *InvalidInputError) Error() string {
	switch {
	case e.Code != "":
		return e.Code + ":" + e.Field
	case e.Err != nil:
		return fmt.Sprintf("%s: invalid %s: %v", e.Operation, e.Field, e.Err)
	default:
		return fmt.Sprintf("%s: invalid input: %s is required", e.Operation, e.Field)
	}
}

func (e *InvalidInputError) Unwrap() error { return e.Err }

func invalidInput(operation, field string) error {
	return &InvalidInputError{Operation: operation, Field: field}
}

// fallbackAllowed reports whether an operation with a marked fallback payload
// may substitute it for err. Only caller input errors propagate.
func fallbackAllowed(err error) bool {
	var invalid *InvalidInputError
	return !errors.As(err, &invalid)
}
