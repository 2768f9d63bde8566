package memory

import (
	"context"
	"sync"

	"copytrade-engine/internal/domain"
	"copytrade-engine/internal/storage"
)

// DailySummaryStore is an in-memory implementation of
// storage.DailySummaryStore.
type DailySummaryStore struct {
	mu   sync.RWMutex
	data map[string]*domain.DailySummary // keyed by (date, chain)
}

// NewDailySummaryStore creates a new in-memory daily summary store.
func NewDailySummaryStore() *DailySummaryStore {
	return &DailySummaryStore{
		data: make(map[string]*domain.DailySummary),
	}
}

// Compile-time interface check.
var _ storage.DailySummaryStore = (*DailySummaryStore)(nil)

// summaryKey generates a unique key for a daily summary.
func summaryKey(date, chain string) string {
	return date + "|" + chain
}

// Upsert writes the snapshot for (date, chain), replacing any prior one.
func (s *DailySummaryStore) Upsert(_ context.Context, sum *domain.DailySummary) error {
	if sum == nil || sum.Date == "" || sum.Chain == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *sum
	s.data[summaryKey(sum.Date, sum.Chain)] = &copy
	return nil
}

// GetByKey retrieves the snapshot. Returns ErrNotFound if not exists.
func (s *DailySummaryStore) GetByKey(_ context.Context, date, chain string) (*domain.DailySummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum, exists := s.data[summaryKey(date, chain)]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *sum
	return &copy, nil
}
