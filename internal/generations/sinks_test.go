package generations

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"career-backend/internal/queue"
)

type captureQueue struct {
	msgs []queue.Message
}

func (q *captureQueue) Send(ctx context.Context, msg queue.Message) error {
	q.msgs = append(q.msgs, msg)
	return nil
}

func TestQueueSinkWrapsEvent(t *testing.T) {
	q := &captureQueue{}
	if err := (QueueSink{Queue: q}).Publish(context.Background(), Event{TraceID: "t-1", Operation: "generateCv"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(q.msgs) != 1 || q.msgs[0].Kind != queue.KindGenerationEvent || q.msgs[0].TraceID != "t-1" {
		t.Fatalf("unexpected messages %+v", q.msgs)
	}
	var ev Event
	if err := json.Unmarshal(q.msgs[0].Payload, &ev); err != nil || ev.Operation != "generateCv" {
		t.Fatalf("payload should decode to the event: %v %+v", err, ev)
	}
}

func TestHTTPSinkSendsBearer(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sink := NewHTTPSink(srv.URL, "secret")
	if err := sink.Publish(context.Background(), Event{TraceID: "t-1"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
}

func TestHTTPSinkReportsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if err := NewHTTPSink(srv.URL, "").Publish(context.Background(), Event{TraceID: "t-1"}); err == nil {
		t.Fatalf("expected error for 500")
	}
}
