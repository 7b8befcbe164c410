package memory

import (
	"context"
	"sync"

	"github.com/tractorstats/tractor-stats/internal/domain/gamerecord"
)

// Source serves a fixed record set from memory. Used for local development
// and handler tests.
type Source struct {
	mu      sync.RWMutex
	records []gamerecord.Record
}

func NewSource(records []gamerecord.Record) *Source {
	out := make([]gamerecord.Record, len(records))
	copy(out, records)
	return &Source{records: out}
}

func (s *Source) List(_ context.Context) ([]gamerecord.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]gamerecord.Record, len(s.records))
	copy(out, s.records)
	return out, nil
}

// Replace swaps the record set, e.g. after reloading a fixture file.
func (s *Source) Replace(records []gamerecord.Record) {
	out := make([]gamerecord.Record, len(records))
	copy(out, records)

	s.mu.Lock()
	s.records = out
	s.mu.Unlock()
}
