package recovery

import (
	"errors"
	"fmt"
)

// ErrNoGateway is returned when a controller has no gateway configured.
var ErrNoGateway = errors.New("model gateway not configured")

// UnstableModelOutputError is returned when neither the first attempt nor the
// schema retry produced parseable JSON.
type UnstableModelOutputError struct {
	Operation string
	Err       error
}

func (e *UnstableModelOutputError) Error() string {
	return fmt.Sprintf("AI cannot produce a stable answer. Last error: %v", e.Err)
}

func (e *UnstableModelOutputError) Unwrap() error { return e.Err }

// StructuralFormatError is returned when a markdown result still fails its
// structural check after the repair attempt.
type StructuralFormatError struct {
	Operation string
	Reason    string
}

func (e *StructuralFormatError) Error() string {
	return fmt.Sprintf("%s: output failed structural check after repair: %s", e.Operation, e.Reason)
}

// IsRecoverable reports whether err is a model-output failure that a caller
// may replace with a fallback payload. Gateway and input errors are not.
func IsRecoverable(err error) bool {
	var unstable *UnstableModelOutputError
	var structural *StructuralFormatError
	return errors.As(err, &unstable) || errors.As(err, &structural)
}
