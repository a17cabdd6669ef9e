// Package workerproc decodes queued generation events and persists them. It is
// shared by the long-running worker and the SQS Lambda handler.
package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"career-backend/internal/generations"
	"career-backend/internal/queue"
)

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates the envelope or event payload is not valid JSON.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

func (e ErrDecode) Unwrap() error { return e.Err }

// ErrUnsupportedKind indicates an envelope this worker does not handle.
type ErrUnsupportedKind struct {
	Meta MessageMeta
	Kind string
}

func (e ErrUnsupportedKind) Error() string { return fmt.Sprintf("unsupported message kind %q", e.Kind) }

// ErrMissingTraceID indicates an event without a trace id.
type ErrMissingTraceID struct {
	Meta MessageMeta
}

func (e ErrMissingTraceID) Error() string { return "missing trace id" }

// ErrProcess indicates persistence failed after successful parsing.
type ErrProcess struct {
	TraceID string
	Err     error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "save generation event"
	}
	return "save generation event: " + e.Err.Error()
}

func (e ErrProcess) Unwrap() error { return e.Err }

// Unrecoverable reports whether redelivering the message cannot succeed, so
// the caller should drop it.
func Unrecoverable(err error) bool {
	var (
		empty   ErrEmptyBody
		decode  ErrDecode
		kind    ErrUnsupportedKind
		missing ErrMissingTraceID
	)
	return errors.As(err, &empty) || errors.As(err, &decode) || errors.As(err, &kind) || errors.As(err, &missing)
}

// ParseMessage validates the envelope and decodes the generation event.
func ParseMessage(body string) (generations.Event, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return generations.Event{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return generations.Event{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	if msg.Kind != queue.KindGenerationEvent {
		return generations.Event{}, meta, ErrUnsupportedKind{Meta: meta, Kind: msg.Kind}
	}

	var ev generations.Event
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return generations.Event{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	if strings.TrimSpace(ev.TraceID) == "" {
		ev.TraceID = msg.TraceID
	}
	if strings.TrimSpace(ev.TraceID) == "" {
		return ev, meta, ErrMissingTraceID{Meta: meta}
	}
	return ev, meta, nil
}

// HandleMessage parses a message body and saves the event in repo.
func HandleMessage(ctx context.Context, repo generations.Repo, body string) error {
	if repo == nil {
		return errors.New("generations repo not configured")
	}
	ev, _, err := ParseMessage(body)
	if err != nil {
		return err
	}
	if err := repo.Save(ctx, ev); err != nil {
		return ErrProcess{TraceID: ev.TraceID, Err: err}
	}
	return nil
}
