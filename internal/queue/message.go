package queue

import (
	"encoding/json"
	"errors"
	"time"
)

// KindGenerationEvent tags messages carrying a model generation event.
const KindGenerationEvent = "generation_event"

// CurrentVersion is the message envelope version written by this build.
const CurrentVersion = 1

// ErrEmptyPayload is returned by NewMessage for an empty payload.
var ErrEmptyPayload = errors.New("empty payload")

// Message is the envelope sent to downstream queue consumers.
type Message struct {
	Kind       string          `json:"kind"`
	TraceID    string          `json:"traceId"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt string          `json:"enqueuedAt"`
	Version    int             `json:"version"`
}

// NewMessage marshals payload into an envelope stamped with the current time.
func NewMessage(kind, traceID string, payload any) (Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return Message{}, ErrEmptyPayload
	}
	return Message{
		Kind:       kind,
		TraceID:    traceID,
		Payload:    raw,
		EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
		Version:    CurrentVersion,
	}, nil
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
