package generations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"career-backend/internal/queue"
)

// RepoSink writes events straight to a repository.
type RepoSink struct {
	Repo Repo
}

func (s RepoSink) Publish(ctx context.Context, ev Event) error {
	return s.Repo.Save(ctx, ev)
}

// QueueSink enqueues events for a worker to persist.
type QueueSink struct {
	Queue queue.Client
}

func (s QueueSink) Publish(ctx context.Context, ev Event) error {
	msg, err := queue.NewMessage(queue.KindGenerationEvent, ev.TraceID, ev)
	if err != nil {
		return fmt.Errorf("build queue message: %w", err)
	}
	return s.Queue.Send(ctx, msg)
}

// HTTPSink posts events to an ingestion endpoint with a bearer key.
type HTTPSink struct {
	Endpoint string
	APIKey   string
	Client   *http.Client
}

// NewHTTPSink returns a sink for endpoint with a short client timeout.
func NewHTTPSink(endpoint, apiKey string) *HTTPSink {
	return &HTTPSink{
		Endpoint: endpoint,
		APIKey:   apiKey,
		Client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *HTTPSink) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if strings.TrimSpace(s.APIKey) != "" {
		req.Header.Set("Authorization", "Bearer "+s.APIKey)
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("telemetry post: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("telemetry post: http status %d", resp.StatusCode)
	}
	return nil
}

var (
	_ Sink = RepoSink{}
	_ Sink = QueueSink{}
	_ Sink = (*HTTPSink)(nil)
)
