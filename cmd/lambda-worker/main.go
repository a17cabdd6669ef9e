package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=amd64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-worker

import (
	"context"
	"log"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"career-backend/internal/bootstrap"
	"career-backend/internal/generations"
	"career-backend/internal/shared/config"
	"career-backend/internal/shared/metrics"
	"career-backend/internal/shared/telemetry"
	"career-backend/internal/workerproc"
)

var (
	initOnce sync.Once
	initErr  error
	app      *bootstrap.App
)

func initApp() {
	cfg := config.Load()
	// Persist only; never publish from the worker.
	cfg.Telemetry.Enabled = false
	cfg.Worker = true
	built, err := bootstrap.Build(cfg)
	if err != nil {
		initErr = err
		return
	}
	app = built
}

func handler(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	initOnce.Do(initApp)
	if initErr != nil {
		log.Printf("bootstrap error: %v", initErr)
		failures := make([]events.SQSBatchItemFailure, 0, len(event.Records))
		for _, record := range event.Records {
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		}
		return events.SQSEventResponse{BatchItemFailures: failures}, initErr
	}
	return processBatch(ctx, app.GenerationsRepo, event), nil
}

// processBatch reports only retryable failures; unparseable records are
// logged and dropped.
func processBatch(ctx context.Context, repo generations.Repo, event events.SQSEvent) events.SQSEventResponse {
	failures := make([]events.SQSBatchItemFailure, 0)
	for _, record := range event.Records {
		metrics.IncWorkerMessage(metrics.WorkerReceived)
		err := workerproc.HandleMessage(ctx, repo, record.Body)
		switch {
		case err == nil:
			metrics.IncWorkerMessage(metrics.WorkerCompleted)
		case workerproc.Unrecoverable(err):
			meta := workerproc.ComputeMeta(record.Body)
			telemetry.Error("worker.generation.unrecoverable", map[string]any{
				"sqs_message_id": record.MessageId,
				"body_len":       meta.BodyLen,
				"body_sha256":    meta.BodySHA,
				"error":          err.Error(),
			})
			metrics.IncWorkerMessage(metrics.WorkerUnrecoverable)
		default:
			telemetry.Error("worker.generation.failed", map[string]any{
				"sqs_message_id": record.MessageId,
				"error":          err.Error(),
			})
			metrics.IncWorkerMessage(metrics.WorkerFailed)
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		}
	}
	return events.SQSEventResponse{BatchItemFailures: failures}
}

func main() {
	lambda.Start(handler)
}
