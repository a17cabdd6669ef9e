// Package anthropic sends model invocations to the Anthropic Messages API.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"career-backend/internal/llm"
)

// MessagesAPI is the subset of the SDK message service used here.
type MessagesAPI interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// Client implements llm.Transport over the Anthropic SDK.
type Client struct {
	messages MessagesAPI
	model    string
}

// NewClient constructs a client for model using apiKey.
func NewClient(apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("MODEL_ID is required for Anthropic")
	}
	sdk := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Client{messages: &sdk.Messages, model: model}, nil
}

// NewWithAPI builds a client over an existing message service.
func NewWithAPI(messages MessagesAPI, model string) *Client {
	return &Client{messages: messages, model: model}
}

// Send implements llm.Transport.
func (c *Client) Send(ctx context.Context, inv llm.Invocation) (llm.Completion, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   int64(inv.MaxTokens),
		Temperature: anthropic.Float(inv.Temperature),
		Messages: []anthropic.MessageParam{{
			Content: []anthropic.ContentBlockParamUnion{{
				OfText: &anthropic.TextBlockParam{Text: inv.UserPrompt},
			}},
			Role: anthropic.MessageParamRoleUser,
		}},
	}
	if inv.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: inv.SystemPrompt}}
	}

	resp, err := c.messages.New(ctx, params)
	if err != nil {
		return llm.Completion{}, fmt.Errorf("anthropic messages: %w", err)
	}
	if resp == nil || len(resp.Content) == 0 {
		return llm.Completion{}, llm.ErrEmptyResponse
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return llm.Completion{}, llm.ErrInvalidResponse
	}
	return llm.Completion{
		Text:         text,
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
		Model:        c.model,
	}, nil
}

var _ llm.Transport = (*Client)(nil)
