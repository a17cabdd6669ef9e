package anthropic

import (
	"context"
	"errors"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"career-backend/internal/llm"
)

type fakeMessages struct {
	params anthropic.MessageNewParams
	resp   *anthropic.Message
	err    error
}

func (f *fakeMessages) New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error) {
	f.params = body
	return f.resp, f.err
}

func TestSendBuildsParams(t *testing.T) {
	resp := &anthropic.Message{}
	resp.Content = []anthropic.ContentBlockUnion{{Type: "text", Text: "# CV"}}
	resp.Usage.InputTokens = 11
	resp.Usage.OutputTokens = 22
	fake := &fakeMessages{resp: resp}

	c := NewWithAPI(fake, "claude-3-5-haiku-latest")
	out, err := c.Send(context.Background(), llm.Invocation{SystemPrompt: "sys", UserPrompt: "user", MaxTokens: 4000, Temperature: 0.3})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if out.Text != "# CV" || out.InputTokens != 11 || out.OutputTokens != 22 {
		t.Fatalf("unexpected completion %+v", out)
	}
	if fake.params.MaxTokens != 4000 || string(fake.params.Model) != "claude-3-5-haiku-latest" {
		t.Fatalf("unexpected params %+v", fake.params)
	}
	if len(fake.params.System) != 1 || fake.params.System[0].Text != "sys" {
		t.Fatalf("expected system prompt block")
	}
}

func TestSendEmptyContent(t *testing.T) {
	c := NewWithAPI(&fakeMessages{resp: &anthropic.Message{}}, "claude")
	if _, err := c.Send(context.Background(), llm.Invocation{}); !errors.Is(err, llm.ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient("", "claude"); err == nil {
		t.Fatalf("expected missing key error")
	}
}
