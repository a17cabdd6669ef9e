package generations

import (
	"context"
	"fmt"
	"sync"
	"time"

	"career-backend/internal/shared/metrics"
	"career-backend/internal/shared/telemetry"
)

const defaultPublishTimeout = 5 * time.Second

// Sink receives generation events.
type Sink interface {
	Publish(ctx context.Context, ev Event) error
}

// Recorder publishes events in the background. Publish failures and panics
// are logged and counted, never returned to the caller.
type Recorder struct {
	sink    Sink
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewRecorder returns a recorder for sink. A nil sink yields a nil recorder,
// which is valid and records nothing.
func NewRecorder(sink Sink) *Recorder {
	if sink == nil {
		return nil
	}
	return &Recorder{sink: sink, timeout: defaultPublishTimeout}
}

// Record publishes ev without blocking.
func (r *Recorder) Record(ev Event) {
	if r == nil || r.sink == nil {
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if p := recover(); p != nil {
				r.dropped(ev, fmt.Errorf("panic: %v", p))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		if err := r.sink.Publish(ctx, ev); err != nil {
			r.dropped(ev, err)
		}
	}()
}

// Flush waits for in-flight publishes or until ctx is done.
func (r *Recorder) Flush(ctx context.Context) error {
	if r == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Recorder) dropped(ev Event, err error) {
	metrics.IncTelemetryDropped()
	telemetry.Error("generations.publish_failed", map[string]any{
		"trace_id":  ev.TraceID,
		"operation": ev.Operation,
		"error":     err.Error(),
	})
}
