// Package llmtest provides gateway stubs for tests.
package llmtest

import (
	"context"
	"errors"
	"sync"

	"career-backend/internal/llm"
)

// ErrExhausted is returned once every scripted reply has been used.
var ErrExhausted = errors.New("llmtest: no scripted reply left")

// Reply is one scripted gateway result.
type Reply struct {
	Text string
	Err  error
}

// Scripted replays Replies in order and records every invocation.
type Scripted struct {
	mu      sync.Mutex
	Replies []Reply
	Calls   []llm.Invocation
}

// Texts builds a Scripted gateway returning each text in turn.
func Texts(texts ...string) *Scripted {
	s := &Scripted{}
	for _, t := range texts {
		s.Replies = append(s.Replies, Reply{Text: t})
	}
	return s
}

// Invoke implements llm.Gateway.
func (s *Scripted) Invoke(ctx context.Context, inv llm.Invocation) (llm.Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := len(s.Calls)
	s.Calls = append(s.Calls, inv)
	if i >= len(s.Replies) {
		return llm.Completion{}, ErrExhausted
	}
	r := s.Replies[i]
	if r.Err != nil {
		return llm.Completion{}, r.Err
	}
	return llm.Completion{Text: r.Text, Model: "scripted"}, nil
}

// CallCount returns the number of invocations so far.
func (s *Scripted) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Calls)
}

var _ llm.Gateway = (*Scripted)(nil)
