package recovery

import (
	"context"
	"sync"
)

// Fallback names recorded in a trace.
const (
	FallbackRetryWithSchema = "retry_with_schema"
	FallbackFormatRepair    = "format_repair"
	FallbackPayload         = "fallback_payload"
)

// Trace collects the fallbacks used while serving one operation.
type Trace struct {
	mu    sync.Mutex
	names []string
}

type traceKey struct{}

// WithTrace attaches a fresh trace to ctx.
func WithTrace(ctx context.Context) (context.Context, *Trace) {
	t := &Trace{}
	return context.WithValue(ctx, traceKey{}, t), t
}

// Note records name on the trace in ctx, if any. Repeated names are kept once.
func Note(ctx context.Context, name string) {
	t, ok := ctx.Value(traceKey{}).(*Trace)
	if !ok || t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, n := range t.names {
		if n == name {
			return
		}
	}
	t.names = append(t.names, name)
}

// Fallbacks returns the recorded names in order.
func (t *Trace) Fallbacks() []string {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.names...)
}
