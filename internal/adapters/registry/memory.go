package registry

import (
	"context"
	"sync"

	"go.trai.ch/stitch/internal/core/domain"
)

// Memory is a map-backed registry that is safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	records map[string]*domain.ComponentRecord
}

// NewMemory creates a Memory registry holding records.
func NewMemory(records ...*domain.ComponentRecord) *Memory {
	m := &Memory{records: make(map[string]*domain.ComponentRecord, len(records))}
	for _, rec := range records {
		m.Put(rec)
	}
	return m
}

// Put stores rec under its name, replacing any previous record.
func (m *Memory) Put(rec *domain.ComponentRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.Name] = rec
}

// Delete removes the record stored under id.
func (m *Memory) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
}

// Fetch returns the record stored under id.
func (m *Memory) Fetch(ctx context.Context, id string) (*domain.ComponentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, transportFailure(id, err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok {
		return nil, notFound(id)
	}
	return rec, nil
}
