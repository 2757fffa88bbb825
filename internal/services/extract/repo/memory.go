// Package repo holds the sample sinks and the layout catalog of the extract service
package repo

import (
	"context"
	"sync"

	"chartline/internal/services/extract/domain"
)

// MemorySink keeps every batch in arrival order
type MemorySink struct {
	mu      sync.Mutex
	batches []domain.Batch
	flushes int
}

// NewMemory returns an empty MemorySink
func NewMemory() *MemorySink { return &MemorySink{} }

// Write implements domain.SampleSink
func (m *MemorySink) Write(_ context.Context, b domain.Batch) error {
	m.mu.Lock()
	m.batches = append(m.batches, b)
	m.mu.Unlock()
	return nil
}

// Flush implements domain.SampleSink
func (m *MemorySink) Flush(context.Context) error {
	m.mu.Lock()
	m.flushes++
	m.mu.Unlock()
	return nil
}

// Batches returns a copy of what was written
func (m *MemorySink) Batches() []domain.Batch {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Batch(nil), m.batches...)
}

// Samples flattens every batch
func (m *MemorySink) Samples() []domain.Sample {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Sample
	for _, b := range m.batches {
		out = append(out, b.Samples...)
	}
	return out
}

// Flushes counts Flush calls
func (m *MemorySink) Flushes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flushes
}

// Reset drops everything written so far
func (m *MemorySink) Reset() {
	m.mu.Lock()
	m.batches, m.flushes = nil, 0
	m.mu.Unlock()
}
