package llm

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"career-backend/internal/generations"
	"career-backend/internal/shared/metrics"
	"career-backend/internal/shared/telemetry"
)

// Recorder receives one event per invocation. Implementations must not block.
type Recorder interface {
	Record(ev generations.Event)
}

type gateway struct {
	transport Transport
	model     string
	recorder  Recorder
	now       func() time.Time
}

// NewGateway wraps transport with tracing, metrics and telemetry. recorder may be nil.
func NewGateway(transport Transport, model string, recorder Recorder) Gateway {
	return &gateway{
		transport: transport,
		model:     model,
		recorder:  recorder,
		now:       time.Now,
	}
}

// Invoke performs exactly one transport call. It never retries.
func (g *gateway) Invoke(ctx context.Context, inv Invocation) (Completion, error) {
	traceID := uuid.NewString()
	start := g.now()

	out, err := g.transport.Send(ctx, inv)
	if err == nil && strings.TrimSpace(out.Text) == "" {
		err = ErrEmptyResponse
	}
	latency := g.now().Sub(start)
	metrics.ObserveModelInvocation(g.model, err == nil, float64(latency)/float64(time.Millisecond))

	ev := generations.Event{
		TraceID:      traceID,
		Operation:    inv.Operation,
		Model:        g.model,
		SystemPrompt: inv.SystemPrompt,
		UserPrompt:   inv.UserPrompt,
		Response:     out.Text,
		InputTokens:  out.InputTokens,
		OutputTokens: out.OutputTokens,
		LatencyMs:    latency.Milliseconds(),
		CreatedAt:    start.UTC(),
	}

	if err != nil {
		gwErr := &GatewayError{Model: g.model, Operation: inv.Operation, Reason: reasonFor(err), Err: err}
		ev.Response = ""
		ev.Error = gwErr.Error()
		g.record(ev)
		telemetry.Error("llm.invoke", map[string]any{
			"trace_id":   traceID,
			"operation":  inv.Operation,
			"model":      g.model,
			"reason":     gwErr.Reason,
			"latency_ms": ev.LatencyMs,
			"error":      err.Error(),
		})
		return Completion{}, gwErr
	}

	if out.Model == "" {
		out.Model = g.model
	}
	g.record(ev)
	telemetry.Info("llm.invoke", map[string]any{
		"trace_id":      traceID,
		"operation":     inv.Operation,
		"model":         g.model,
		"latency_ms":    ev.LatencyMs,
		"input_tokens":  out.InputTokens,
		"output_tokens": out.OutputTokens,
	})
	return out, nil
}

func (g *gateway) record(ev generations.Event) {
	if g.recorder == nil {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			telemetry.Error("generations.record_panic", map[string]any{"trace_id": ev.TraceID})
		}
	}()
	g.recorder.Record(ev)
}
