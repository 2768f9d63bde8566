package memory

import (
	"context"
	"sort"
	"sync"

	"copytrade-engine/internal/domain"
	"copytrade-engine/internal/storage"
)

// SimilarityEventStore is an in-memory implementation of
// storage.SimilarityEventStore.
type SimilarityEventStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SimilarityEvent // keyed by event_id
}

// NewSimilarityEventStore creates a new in-memory similarity event store.
func NewSimilarityEventStore() *SimilarityEventStore {
	return &SimilarityEventStore{
		data: make(map[string]*domain.SimilarityEvent),
	}
}

// Compile-time interface check.
var _ storage.SimilarityEventStore = (*SimilarityEventStore)(nil)

// InsertBulk adds a scan's events. Events with an existing event_id are
// skipped, so re-running an identical scan is a no-op.
func (s *SimilarityEventStore) InsertBulk(_ context.Context, events []*domain.SimilarityEvent) error {
	if len(events) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ev := range events {
		if ev == nil || ev.EventID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[ev.EventID]; exists {
			continue
		}
		copy := *ev
		s.data[ev.EventID] = &copy
	}
	return nil
}

// GetByPair retrieves all events for a (reference, suspect) account pair,
// ordered by reference trade id then descending score.
func (s *SimilarityEventStore) GetByPair(_ context.Context, referenceAccount, suspectAccount string) ([]*domain.SimilarityEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SimilarityEvent
	for _, ev := range s.data {
		if ev.ReferenceAccount == referenceAccount && ev.SuspectAccount == suspectAccount {
			copy := *ev
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].ReferenceTradeID != result[j].ReferenceTradeID {
			return result[i].ReferenceTradeID < result[j].ReferenceTradeID
		}
		return result[i].Score > result[j].Score
	})
	return result, nil
}
