// Package llm is the model gateway: one Invoke per attempt, provider-specific
// wire shapes behind Transport, and best-effort generation telemetry.
package llm

import "context"

// Invocation is a single model call. It is built per attempt and never stored.
type Invocation struct {
	Operation    string
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
}

// Completion is the text and token usage returned by a model.
type Completion struct {
	Text         string
	InputTokens  int
	OutputTokens int
	Model        string
}

// Gateway invokes the configured model.
type Gateway interface {
	Invoke(ctx context.Context, inv Invocation) (Completion, error)
}

// Transport sends one invocation to a provider endpoint.
type Transport interface {
	Send(ctx context.Context, inv Invocation) (Completion, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, inv Invocation) (Completion, error)

// Send calls f.
func (f TransportFunc) Send(ctx context.Context, inv Invocation) (Completion, error) {
	return f(ctx, inv)
}
