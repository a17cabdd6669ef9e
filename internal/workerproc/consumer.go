package workerproc

import (
	"context"
	"errors"
	"sync"
	"time"

	"career-backend/internal/generations"
	"career-backend/internal/queue"
	"career-backend/internal/shared/metrics"
	"career-backend/internal/shared/telemetry"
)

const (
	defaultConcurrency  = 4
	receiveErrorBackoff = time.Second
)

// Consumer drains a queue into a generations repo.
type Consumer struct {
	Receiver    queue.Receiver
	Repo        generations.Repo
	Concurrency int
}

// Run polls until ctx is done, then waits up to shutdownTimeout for in-flight
// messages.
func (c *Consumer) Run(ctx context.Context, shutdownTimeout time.Duration) {
	concurrency := c.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

pollLoop:
	for {
		select {
		case <-ctx.Done():
			break pollLoop
		default:
		}

		deliveries, err := c.Receiver.Receive(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				break pollLoop
			}
			telemetry.Error("worker.receive_failed", map[string]any{"error": err.Error()})
			select {
			case <-ctx.Done():
				break pollLoop
			case <-time.After(receiveErrorBackoff):
			}
			continue
		}

		for _, d := range deliveries {
			select {
			case <-ctx.Done():
				break pollLoop
			case sem <- struct{}{}:
			}
			metrics.IncWorkerMessage(metrics.WorkerReceived)
			wg.Add(1)
			go func(d queue.Delivery) {
				defer wg.Done()
				defer func() { <-sem }()
				c.Handle(ctx, d)
			}(d)
		}
	}

	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(shutdownTimeout):
		telemetry.Warn("worker.shutdown_timeout", map[string]any{"timeout": shutdownTimeout.String()})
	}
}

// Handle processes one delivery. Successful and unrecoverable messages are
// acknowledged; failed saves are left for redelivery.
func (c *Consumer) Handle(ctx context.Context, d queue.Delivery) {
	err := HandleMessage(ctx, c.Repo, d.Body)
	fields := map[string]any{"message_id": d.ID}
	switch {
	case err == nil:
		if c.ack(ctx, d) {
			metrics.IncWorkerMessage(metrics.WorkerCompleted)
		}
	case Unrecoverable(err):
		meta := ComputeMeta(d.Body)
		fields["body_len"] = meta.BodyLen
		fields["body_sha256"] = meta.BodySHA
		fields["error"] = err.Error()
		telemetry.Error("worker.generation.unrecoverable", fields)
		if c.ack(ctx, d) {
			metrics.IncWorkerMessage(metrics.WorkerUnrecoverable)
		}
	default:
		fields["error"] = err.Error()
		var proc ErrProcess
		if errors.As(err, &proc) {
			fields["trace_id"] = proc.TraceID
		}
		telemetry.Error("worker.generation.failed", fields)
		metrics.IncWorkerMessage(metrics.WorkerFailed)
	}
}

func (c *Consumer) ack(ctx context.Context, d queue.Delivery) bool {
	if err := c.Receiver.Ack(ctx, d); err != nil {
		telemetry.Error("worker.ack_failed", map[string]any{
			"message_id": d.ID,
			"error":      err.Error(),
		})
		return false
	}
	return true
}
