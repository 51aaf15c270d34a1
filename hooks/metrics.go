package hooks

import (
	"maps"
	"sync"
	"sync/atomic"
	"time"
)

// ── In-memory metrics collector ───────────────────────────────────────────────

// InMemoryMetrics accumulates metrics; safe for concurrent use.
type InMemoryMetrics struct {
	mu sync.RWMutex

	opDurationsMs map[string]int64 // cumulative ms per operation
	opCalls       map[string]int64
	opErrors      map[string]int64
	errorsByCat   map[string]int64

	uploadedBytes int64
}

// NewInMemoryMetrics creates an empty metrics store.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		opDurationsMs: make(map[string]int64),
		opCalls:       make(map[string]int64),
		opErrors:      make(map[string]int64),
		errorsByCat:   make(map[string]int64),
	}
}

func (m *InMemoryMetrics) RecordOperationTime(op string, d time.Duration) {
	m.mu.Lock()
	m.opDurationsMs[op] += d.Milliseconds()
	m.opCalls[op]++
	m.mu.Unlock()
}

func (m *InMemoryMetrics) RecordUploadBytes(bytes int64) {
	atomic.AddInt64(&m.uploadedBytes, bytes)
}

func (m *InMemoryMetrics) RecordError(op string, category string) {
	m.mu.Lock()
	m.opErrors[op]++
	m.errorsByCat[category]++
	m.mu.Unlock()
}

// Snapshot returns a copy of current metrics.
func (m *InMemoryMetrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return MetricsSnapshot{
		OpDurationsMs:    maps.Clone(m.opDurationsMs),
		OpCalls:          maps.Clone(m.opCalls),
		OpErrors:         maps.Clone(m.opErrors),
		ErrorsByCategory: maps.Clone(m.errorsByCat),
		UploadedBytes:    atomic.LoadInt64(&m.uploadedBytes),
	}
}

// MetricsSnapshot is an immutable point-in-time copy of metrics.
type MetricsSnapshot struct {
	OpDurationsMs    map[string]int64
	OpCalls          map[string]int64
	OpErrors         map[string]int64
	ErrorsByCategory map[string]int64
	UploadedBytes    int64
}
