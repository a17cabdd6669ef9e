package generations

import "time"

// Event is one model invocation as seen by the gateway.
type Event struct {
	TraceID      string    `json:"traceId"`
	Operation    string    `json:"operation"`
	Model        string    `json:"model"`
	SystemPrompt string    `json:"systemPrompt"`
	UserPrompt   string    `json:"userPrompt"`
	Response     string    `json:"response"`
	InputTokens  int       `json:"inputTokens"`
	OutputTokens int       `json:"outputTokens"`
	LatencyMs    int64     `json:"latencyMs"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Succeeded reports whether the invocation returned text.
func (e Event) Succeeded() bool {
	return e.Error == ""
}
