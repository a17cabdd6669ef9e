package llm

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"career-backend/internal/shared/telemetry"
)

const transportRetryDelay = 300 * time.Millisecond

type retryingTransport struct {
	base  Transport
	delay time.Duration
}

// WithTransportRetry retries a failed send once after a short pause when the
// failure looks transient. Malformed output is not a transport failure and is
// never retried here.
func WithTransportRetry(base Transport) Transport {
	if base == nil {
		return nil
	}
	return retryingTransport{base: base, delay: transportRetryDelay}
}

func (r retryingTransport) Send(ctx context.Context, inv Invocation) (Completion, error) {
	out, err := r.base.Send(ctx, inv)
	if err == nil || !shouldRetryTransport(err) {
		return out, err
	}

	telemetry.Warn("llm.transport_retry", map[string]any{
		"operation": inv.Operation,
		"attempt":   1,
		"error":     err.Error(),
	})
	select {
	case <-time.After(r.delay):
	case <-ctx.Done():
		return Completion{}, ctx.Err()
	}
	return r.base.Send(ctx, inv)
}

func shouldRetryTransport(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrEmptyResponse) || errors.Is(err, ErrInvalidResponse) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "throttl") || strings.Contains(msg, "too many requests") || strings.Contains(msg, "status 429") || strings.Contains(msg, "statuscode: 429") {
		return true
	}
	if strings.Contains(msg, "http status 5") || strings.Contains(msg, "statuscode: 5") || strings.Contains(msg, "server_error") || strings.Contains(msg, "overloaded") {
		return true
	}
	if strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection closed") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "tls handshake timeout") {
		return true
	}
	return false
}
