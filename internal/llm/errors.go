package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrEmptyResponse is returned when the provider body is empty.
	ErrEmptyResponse = errors.New("empty response from model")
	// ErrInvalidResponse is returned when the text path is missing from the body.
	ErrInvalidResponse = errors.New("invalid response structure from model")
)

// Gateway failure reasons.
const (
	ReasonTransport       = "transport"
	ReasonEmptyResponse   = "empty_response"
	ReasonInvalidResponse = "invalid_response"
)

// GatewayError wraps any failure of a single model invocation.
type GatewayError struct {
	Model     string
	Operation string
	Reason    string
	Err       error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("model gateway %s (%s, %s): %v", e.Reason, e.Operation, e.Model, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// Timeout reports whether the underlying failure was a deadline or network timeout.
func (e *GatewayError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

func reasonFor(err error) string {
	switch {
	case errors.Is(err, ErrEmptyResponse):
		return ReasonEmptyResponse
	case errors.Is(err, ErrInvalidResponse):
		return ReasonInvalidResponse
	default:
		return ReasonTransport
	}
}
