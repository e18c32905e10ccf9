package memory

import (
	"context"
	"sync"

	contractx "github.com/tanpawarit/meal-planner-agent/agent/contract"
)

var _ contractx.MemoryStore = (*InMemoryStore)(nil)

// InMemoryStore keeps the memory log in process. Safe for concurrent use.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []contractx.MemoryRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, records ...contractx.MemoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
	return nil
}

func (s *InMemoryStore) SimilaritySearch(_ context.Context, embedding []float32, k int, minScore float64) ([]contractx.ScoredRecord, error) {
	s.mu.RLock()
	snapshot := append([]contractx.MemoryRecord(nil), s.records...)
	s.mu.RUnlock()

	return rank(snapshot, embedding, k, minScore), nil
}

func (s *InMemoryStore) Count(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}
