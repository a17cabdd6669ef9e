package generations

import "errors"

var (
	// ErrMissingTraceID is returned when an event has no trace id.
	ErrMissingTraceID = errors.New("missing trace id")
)
