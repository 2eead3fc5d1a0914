package logger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	mu      sync.Mutex
	topics  []string
	batches []LogBatch
	err     error
}

func (p *capturePublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.batches = append(p.batches, payload.(LogBatch))
	return p.err
}

func (p *capturePublisher) snapshot() []LogBatch {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]LogBatch(nil), p.batches...)
}

func TestCollectorAggregatesRepeats(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 100, Topic: "rentwise.logs", Publisher: pub})

	for i := 0; i < 3; i++ {
		c.AddLog("error", "model service down", map[string]interface{}{"status": 503}, "predictors/base.go:80")
	}
	c.AddLog("warn", "cache miss storm", nil, "predictors/cached.go:40")
	assert.Equal(t, 2, c.Pending())

	c.Close()
	batches := pub.snapshot()
	require.Len(t, batches, 1)
	assert.Equal(t, []string{"rentwise.logs"}, pub.topics)

	entries := batches[0].Entries
	require.Len(t, entries, 2)
	assert.Equal(t, "model service down", entries[0].Message)
	assert.Equal(t, 3, entries[0].Count)
	assert.Equal(t, 1, entries[1].Count)
}

func TestCollectorFlushesAtThreshold(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 2, Publisher: pub})
	defer c.Close()

	c.AddLog("error", "a", nil, "x.go:1")
	c.AddLog("error", "b", nil, "x.go:2")

	require.Eventually(t, func() bool { return len(pub.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Len(t, pub.snapshot()[0].Entries, 2)
	assert.Equal(t, 0, c.Pending())
}

func TestCollectorSurvivesPublishErrors(t *testing.T) {
	pub := &capturePublisher{err: errors.New("broker unavailable")}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, Publisher: pub})

	c.AddLog("error", "a", nil, "x.go:1")
	c.Close()
	c.Close()
	assert.Len(t, pub.snapshot(), 1)
}

func TestEntryKeyIgnoresFieldOrder(t *testing.T) {
	a := entryKey("error", "m", map[string]interface{}{"x": 1, "y": "z"}, "c")
	b := entryKey("error", "m", map[string]interface{}{"y": "z", "x": 1}, "c")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, entryKey("warn", "m", map[string]interface{}{"x": 1, "y": "z"}, "c"))
}

func TestLoggerFeedsCollector(t *testing.T) {
	l, err := New(&Config{Level: "info", Output: "stderr", Service: "rentwise"})
	require.NoError(t, err)
	pub := &capturePublisher{}
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, Publisher: pub})

	l.Info("ignored")
	l.Warn("slow model", Duration("took", 1500*time.Millisecond))
	l.With(String("component", "api")).Error("failed", Error(errors.New("boom")))
	l.RemoveCollector()

	batches := pub.snapshot()
	require.Len(t, batches, 1)
	require.Len(t, batches[0].Entries, 2)
	for _, e := range batches[0].Entries {
		assert.Contains(t, e.Caller, "logger_test.go:")
		switch e.Level {
		case "warn":
			assert.Equal(t, int64(1500), e.Fields["took"])
		case "error":
			assert.Equal(t, "boom", e.Fields["error"])
		default:
			t.Fatalf("unexpected level %q", e.Level)
		}
	}
}
