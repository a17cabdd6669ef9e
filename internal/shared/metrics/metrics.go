package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

// Operation outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeFallback = "fallback"
	OutcomeError    = "error"
)

var (
	operationTotal = newCounterVec()
	modelInvokes   = newCounterVec()
	workerMessages = newCounterVec()

	telemetryDroppedTotal atomic.Uint64

	operationDuration = newHistogram([]float64{250, 500, 1000, 2000, 5000, 10000, 30000, 60000, 90000})
	modelLatency      = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// ObserveOperation records one AI operation run and its duration.
func ObserveOperation(operation, outcome string, durationMs float64) {
	operationTotal.Inc(fmt.Sprintf(`operation=%q,outcome=%q`, operation, outcome))
	if durationMs < 0 {
		durationMs = 0
	}
	operationDuration.Observe(durationMs)
}

// ObserveModelInvocation records one model call.
func ObserveModelInvocation(model string, ok bool, latencyMs float64) {
	status := "ok"
	if !ok {
		status = "error"
	}
	modelInvokes.Inc(fmt.Sprintf(`model=%q,status=%q`, model, status))
	if latencyMs < 0 {
		latencyMs = 0
	}
	modelLatency.Observe(latencyMs)
}

// IncTelemetryDropped counts generation events that could not be published.
func IncTelemetryDropped() {
	telemetryDroppedTotal.Add(1)
}

// Worker message outcomes.
const (
	WorkerReceived      = "received"
	WorkerCompleted     = "completed"
	WorkerFailed        = "failed"
	WorkerUnrecoverable = "unrecoverable"
)

// IncWorkerMessage counts one queue message outcome in the telemetry worker.
func IncWorkerMessage(outcome string) {
	workerMessages.Inc(fmt.Sprintf(`outcome=%q`, outcome))
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounterVec(&buf, "ai_operation_total", "AI operations by outcome", operationTotal.Snapshot())
	writeHistogram(&buf, "ai_operation_duration_ms", "AI operation duration in milliseconds", operationDuration.Snapshot())
	writeCounterVec(&buf, "model_invocation_total", "Model invocations by status", modelInvokes.Snapshot())
	writeHistogram(&buf, "model_latency_ms", "Model invocation latency in milliseconds", modelLatency.Snapshot())
	writeCounterVec(&buf, "worker_messages_total", "Telemetry worker messages by outcome", workerMessages.Snapshot())
	writeCounter(&buf, "telemetry_dropped_total", "Generation events that failed to publish", telemetryDroppedTotal.Load())
	return buf.String()
}

type counterVec struct {
	mu     sync.Mutex
	values map[string]*atomic.Uint64
}

func newCounterVec() *counterVec {
	return &counterVec{values: map[string]*atomic.Uint64{}}
}

func (v *counterVec) Inc(labels string) {
	v.mu.Lock()
	c, ok := v.values[labels]
	if !ok {
		c = &atomic.Uint64{}
		v.values[labels] = c
	}
	v.mu.Unlock()
	c.Add(1)
}

func (v *counterVec) Snapshot() map[string]uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make(map[string]uint64, len(v.values))
	for k, c := range v.values {
		out[k] = c.Load()
	}
	return out
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

// Observe counts value in the first bucket that holds it; Render accumulates.
func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			return
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeCounterVec(buf *bytes.Buffer, name, help string, values map[string]uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(buf, "%s{%s} %d\n", name, k, values[k])
	}
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// SinceMillis returns the elapsed milliseconds since start.
func SinceMillis(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}
