package main

// Build the Lambda resolver binary:
//   GOOS=linux GOARCH=arm64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-op

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/tidwall/gjson"

	"career-backend/internal/aiops"
	"career-backend/internal/bootstrap"
	"career-backend/internal/shared/config"
)

const flushTimeout = 2 * time.Second

// resolverEvent is the direct Lambda resolver payload: the field being
// resolved names the operation.
type resolverEvent struct {
	Arguments json.RawMessage `json:"arguments"`
	Info      struct {
		FieldName      string `json:"fieldName"`
		ParentTypeName string `json:"parentTypeName"`
	} `json:"info"`
}

var (
	initOnce sync.Once
	initErr  error
	app      *bootstrap.App
)

func initApp() {
	built, err := bootstrap.Build(config.Load())
	if err != nil {
		initErr = err
		return
	}
	app = built
}

func handler(ctx context.Context, ev resolverEvent) (any, error) {
	initOnce.Do(initApp)
	if initErr != nil {
		log.Printf("bootstrap error: %v", initErr)
		return nil, initErr
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		defer cancel()
		if err := app.Recorder.Flush(flushCtx); err != nil {
			log.Printf("telemetry flush: %v", err)
		}
	}()
	return resolve(ctx, app.AI, ev)
}

func resolve(ctx context.Context, svc *aiops.Service, ev resolverEvent) (any, error) {
	out, err := svc.Run(ctx, ev.Info.FieldName, operationArgs(ev.Arguments))
	if err != nil {
		_, code := aiops.StatusFor(err)
		return nil, fmt.Errorf("%s: %w", code, err)
	}
	return out, nil
}

// operationArgs unwraps an `input` argument when present so resolvers can be
// declared either as field(input: JSON) or with flat arguments.
func operationArgs(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	if input := gjson.GetBytes(raw, "input"); input.Exists() && input.IsObject() {
		return json.RawMessage(input.Raw)
	}
	return raw
}

func main() {
	lambda.Start(handler)
}
