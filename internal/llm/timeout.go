package llm

import (
	"context"
	"time"
)

// WithTimeout bounds each send by d. A non-positive d returns base unchanged.
func WithTimeout(base Transport, d time.Duration) Transport {
	if base == nil || d <= 0 {
		return base
	}
	return TransportFunc(func(ctx context.Context, inv Invocation) (Completion, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return base.Send(ctx, inv)
	})
}
