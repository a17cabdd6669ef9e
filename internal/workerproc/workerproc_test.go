package workerproc

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"career-backend/internal/generations"
	"career-backend/internal/queue"
)

func eventBody(t *testing.T, ev generations.Event) string {
	t.Helper()
	msg, err := queue.NewMessage(queue.KindGenerationEvent, ev.TraceID, ev)
	if err != nil {
		t.Fatalf("new message: %v", err)
	}
	raw, err := queue.EncodeMessage(msg)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return string(raw)
}

type failingRepo struct{ err error }

func (f failingRepo) Save(ctx context.Context, ev generations.Event) error { return f.err }
func (f failingRepo) ListRecent(ctx context.Context, operation string, limit int) ([]generations.Event, error) {
	return nil, f.err
}

type fakeReceiver struct {
	mu      sync.Mutex
	batches [][]queue.Delivery
	acked   []string
}

func (f *fakeReceiver) Receive(ctx context.Context) ([]queue.Delivery, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.batches) == 0 {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	b := f.batches[0]
	f.batches = f.batches[1:]
	return b, nil
}

func (f *fakeReceiver) Ack(ctx context.Context, d queue.Delivery) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked = append(f.acked, d.ID)
	return nil
}

func (f *fakeReceiver) ackedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.acked...)
}

func TestParseMessage(t *testing.T) {
	body := eventBody(t, generations.Event{TraceID: "t-1", Operation: "parseCvText", Model: "m"})
	ev, meta, err := ParseMessage(body)
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	if ev.TraceID != "t-1" || ev.Operation != "parseCvText" {
		t.Fatalf("unexpected event %+v", ev)
	}
	if meta.BodyLen != len(body) || len(meta.BodySHA) != 64 {
		t.Fatalf("unexpected meta %+v", meta)
	}
}

func TestParseMessageUsesEnvelopeTraceID(t *testing.T) {
	msg, err := queue.NewMessage(queue.KindGenerationEvent, "envelope-trace", map[string]string{"operation": "generateCv"})
	if err != nil {
		t.Fatalf("new message: %v", err)
	}
	raw, _ := queue.EncodeMessage(msg)
	ev, _, err := ParseMessage(string(raw))
	if err != nil || ev.TraceID != "envelope-trace" {
		t.Fatalf("expected envelope trace id, got %+v err=%v", ev, err)
	}
}

func TestParseMessageErrors(t *testing.T) {
	other, _ := queue.NewMessage("something_else", "t", map[string]string{"a": "b"})
	otherRaw, _ := queue.EncodeMessage(other)
	noTrace, _ := queue.NewMessage(queue.KindGenerationEvent, "", map[string]string{"operation": "x"})
	noTraceRaw, _ := queue.EncodeMessage(noTrace)

	tests := []struct {
		name   string
		body   string
		target any
	}{
		{"empty", "  ", new(ErrEmptyBody)},
		{"bad json", "{bad", new(ErrDecode)},
		{"other kind", string(otherRaw), new(ErrUnsupportedKind)},
		{"no trace", string(noTraceRaw), new(ErrMissingTraceID)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseMessage(tt.body)
			if !errors.As(err, tt.target) {
				t.Fatalf("unexpected error %v", err)
			}
			if !Unrecoverable(err) {
				t.Fatalf("parse errors should be unrecoverable")
			}
		})
	}
}

func TestHandleMessageSavesEvent(t *testing.T) {
	repo := generations.NewMemoryRepo()
	body := eventBody(t, generations.Event{TraceID: "t-2", Operation: "generateSpeech", CreatedAt: time.Now()})
	if err := HandleMessage(context.Background(), repo, body); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	events, _ := repo.ListRecent(context.Background(), "generateSpeech", 10)
	if len(events) != 1 || events[0].TraceID != "t-2" {
		t.Fatalf("unexpected events %+v", events)
	}
}

func TestHandleMessageSaveFailureIsRecoverable(t *testing.T) {
	body := eventBody(t, generations.Event{TraceID: "t-3"})
	err := HandleMessage(context.Background(), failingRepo{err: errors.New("db down")}, body)
	var proc ErrProcess
	if !errors.As(err, &proc) || proc.TraceID != "t-3" {
		t.Fatalf("expected ErrProcess, got %v", err)
	}
	if Unrecoverable(err) {
		t.Fatalf("save failures should be retried")
	}
}

func TestConsumerAcksSuccessAndPoison(t *testing.T) {
	recv := &fakeReceiver{batches: [][]queue.Delivery{{
		{ID: "ok", Body: eventBody(t, generations.Event{TraceID: "t-4"})},
		{ID: "poison", Body: "{bad"},
	}}}
	c := &Consumer{Receiver: recv, Repo: generations.NewMemoryRepo(), Concurrency: 2}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	c.Run(ctx, time.Second)

	acked := recv.ackedIDs()
	if len(acked) != 2 {
		t.Fatalf("expected both messages acked, got %v", acked)
	}
}

func TestConsumerLeavesFailedSaves(t *testing.T) {
	recv := &fakeReceiver{}
	c := &Consumer{Receiver: recv, Repo: failingRepo{err: errors.New("db down")}}
	c.Handle(context.Background(), queue.Delivery{ID: "m", Body: eventBody(t, generations.Event{TraceID: "t-5"})})
	if len(recv.ackedIDs()) != 0 {
		t.Fatalf("failed save must not be acked")
	}
}
