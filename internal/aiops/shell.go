package aiops

import (
	"context"
	"encoding/json"
	"time"

	"career-backend/internal/aiops/recovery"
	"career-backend/internal/aiops/sanitize"
	"career-backend/internal/shared/metrics"
	"career-backend/internal/shared/telemetry"
)

const logPreviewLength = 100

// TruncateForLog shortens text for log fields, appending "..." when cut.
func TruncateForLog(text string) string {
	return sanitize.TruncateWithEllipsis(text, logPreviewLength)
}

func previewJSON(v any, max int) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return sanitize.TruncateWithEllipsis(string(b), max)
}

// handle is the common entry point of every operation. It attaches a fallback
// trace, logs the redacted input with the output or error and records the
// outcome metric.
func handle[In, Out any](
	ctx context.Context,
	op string,
	in In,
	redact func(In) map[string]any,
	core func(context.Context, In) (Out, error),
) (Out, error) {
	start := time.Now()
	ctx, trace := recovery.WithTrace(ctx)
	input := redact(in)

	out, err := core(ctx, in)
	if err != nil {
		telemetry.Error("ai.operation.error", map[string]any{
			"operation": op,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"error":     err.Error(),
			"input":     input,
		})
		metrics.ObserveOperation(op, metrics.OutcomeError, metrics.SinceMillis(start))
		return out, err
	}

	fields := map[string]any{
		"operation": op,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"input":     input,
		"output":    out,
	}
	outcome := metrics.OutcomeOK
	if used := trace.Fallbacks(); len(used) > 0 {
		fields["fallbacksUsed"] = used
		for _, name := range used {
			if name == recovery.FallbackPayload {
				outcome = metrics.OutcomeFallback
			}
		}
	}
	telemetry.Info("ai.operation", fields)
	metrics.ObserveOperation(op, outcome, metrics.SinceMillis(start))
	return out, nil
}
