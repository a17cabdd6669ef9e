package llm

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// Provider builds request bodies and reads response bodies for one model family.
type Provider interface {
	Name() string
	BuildBody(inv Invocation) ([]byte, error)
	ParseBody(body []byte) (Completion, error)
}

// ProviderFor selects the body shape from a model identifier. Anthropic models
// use the Claude messages shape; every other model uses the Nova shape.
func ProviderFor(modelID string) Provider {
	id := strings.ToLower(modelID)
	if strings.Contains(id, "anthropic") || strings.Contains(id, "claude") {
		return ClaudeShape{}
	}
	return NovaShape{}
}

// ClaudeShape is the Anthropic messages body used on Bedrock.
type ClaudeShape struct{}

type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type claudeMessage struct {
	Role    string          `json:"role"`
	Content []claudeContent `json:"content"`
}

type claudeRequest struct {
	AnthropicVersion string          `json:"anthropic_version"`
	System           string          `json:"system"`
	Messages         []claudeMessage `json:"messages"`
	MaxTokens        int             `json:"max_tokens"`
	Temperature      float64         `json:"temperature"`
}

func (ClaudeShape) Name() string { return "claude" }

func (ClaudeShape) BuildBody(inv Invocation) ([]byte, error) {
	return json.Marshal(claudeRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		System:           inv.SystemPrompt,
		Messages: []claudeMessage{{
			Role:    "user",
			Content: []claudeContent{{Type: "text", Text: inv.UserPrompt}},
		}},
		MaxTokens:   inv.MaxTokens,
		Temperature: inv.Temperature,
	})
}

func (ClaudeShape) ParseBody(body []byte) (Completion, error) {
	return parseWith(body, "content.0.text", "usage.input_tokens", "usage.output_tokens")
}

// NovaShape is the Amazon Nova converse-style body.
type NovaShape struct{}

type novaText struct {
	Text string `json:"text"`
}

type novaMessage struct {
	Role    string     `json:"role"`
	Content []novaText `json:"content"`
}

type novaInference struct {
	MaxTokens   int     `json:"maxTokens"`
	Temperature float64 `json:"temperature"`
}

type novaRequest struct {
	System          []novaText    `json:"system"`
	Messages        []novaMessage `json:"messages"`
	InferenceConfig novaInference `json:"inferenceConfig"`
}

func (NovaShape) Name() string { return "nova" }

func (NovaShape) BuildBody(inv Invocation) ([]byte, error) {
	return json.Marshal(novaRequest{
		System: []novaText{{Text: inv.SystemPrompt}},
		Messages: []novaMessage{{
			Role:    "user",
			Content: []novaText{{Text: inv.UserPrompt}},
		}},
		InferenceConfig: novaInference{MaxTokens: inv.MaxTokens, Temperature: inv.Temperature},
	})
}

func (NovaShape) ParseBody(body []byte) (Completion, error) {
	return parseWith(body, "output.message.content.0.text", "usage.inputTokens", "usage.outputTokens")
}

func parseWith(body []byte, textPath, inPath, outPath string) (Completion, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return Completion{}, ErrEmptyResponse
	}
	if !gjson.ValidBytes(body) {
		return Completion{}, ErrInvalidResponse
	}
	text := gjson.GetBytes(body, textPath)
	if text.Type != gjson.String || text.Str == "" {
		return Completion{}, ErrInvalidResponse
	}
	return Completion{
		Text:         text.Str,
		InputTokens:  int(gjson.GetBytes(body, inPath).Int()),
		OutputTokens: int(gjson.GetBytes(body, outPath).Int()),
	}, nil
}
