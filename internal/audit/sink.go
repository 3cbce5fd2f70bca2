// Package audit provides the append-only trail of pipeline stage
// transitions. Sinks own buffering and durability; the pipeline only hands
// entries over and logs when a sink refuses one.
package audit

import (
	"context"
	"sync"

	"returns-service/internal/models"
	"returns-service/internal/util"
)

// Sink records audit entries. Implementations must be safe for concurrent
// writers and must not silently drop entries.
type Sink interface {
	Record(ctx context.Context, entry *models.AuditEntry) error
}

// EntryStore is the persistence surface the store sink needs.
type EntryStore interface {
	AppendAuditEntry(ctx context.Context, entry *models.AuditEntry) error
}

// StoreSink persists entries to the database.
type StoreSink struct {
	store EntryStore
}

// NewStoreSink creates a database-backed sink
func NewStoreSink(store EntryStore) *StoreSink {
	return &StoreSink{store: store}
}

func (s *StoreSink) Record(ctx context.Context, entry *models.AuditEntry) error {
	if err := s.store.AppendAuditEntry(ctx, entry); err != nil {
		util.AuditSinkErrorsTotal.Inc()
		return err
	}
	return nil
}

// MemorySink keeps entries in memory, for tests and local runs.
type MemorySink struct {
	mu      sync.Mutex
	entries []models.AuditEntry
}

// NewMemorySink creates an in-memory sink
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (m *MemorySink) Record(ctx context.Context, entry *models.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *entry)
	return nil
}

// Entries returns a copy of everything recorded so far
func (m *MemorySink) Entries() []models.AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.AuditEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// ByRequest returns the entries for one request in recorded order
func (m *MemorySink) ByRequest(requestID string) []models.AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.AuditEntry
	for _, e := range m.entries {
		if e.RequestID == requestID {
			out = append(out, e)
		}
	}
	return out
}

// MultiSink fans an entry out to several sinks. The first error is returned
// after every sink has seen the entry, so one failing sink does not starve
// the others.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink creates a fan-out sink
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) Record(ctx context.Context, entry *models.AuditEntry) error {
	var firstErr error
	for _, s := range m.sinks {
		if err := s.Record(ctx, entry); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
