package store

import (
	"context"
	"sync"
	"time"

	"github.com/vigilab/incident-triage/internal/model"
)

// DefaultCapacity bounds the in-memory history when no capacity is given.
const DefaultCapacity = 500

type entry struct {
	incident model.HistoricalIncident
	report   model.Report
}

// MemoryStore implements History with in-process storage. It is the
// default backend when no database is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	entries  []entry
	capacity int
}

// NewMemoryStore creates an in-memory history store. capacity <= 0 uses
// DefaultCapacity.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryStore{capacity: capacity}
}

// SaveReport appends the report, evicting the oldest entry at capacity.
func (s *MemoryStore) SaveReport(ctx context.Context, report model.Report, logText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := report.GeneratedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	s.entries = append(s.entries, entry{
		incident: model.HistoricalIncident{
			ID:        report.ID,
			Title:     report.Title,
			LogText:   logText,
			CreatedAt: created,
		},
		report: report,
	})
	if len(s.entries) > s.capacity {
		s.entries = s.entries[len(s.entries)-s.capacity:]
	}
	return nil
}

// ListRecent returns up to limit incidents, newest first.
func (s *MemoryStore) ListRecent(ctx context.Context, limit int) ([]model.HistoricalIncident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.entries) {
		limit = len(s.entries)
	}
	out := make([]model.HistoricalIncident, 0, limit)
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.entries[i].incident)
	}
	return out, nil
}

// GetReport returns a stored report by ID.
func (s *MemoryStore) GetReport(ctx context.Context, id string) (model.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].incident.ID == id {
			return s.entries[i].report, true
		}
	}
	return model.Report{}, false
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() {}
