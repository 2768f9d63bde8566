package memory

import (
	"context"
	"sync"

	"copytrade-engine/internal/domain"
	"copytrade-engine/internal/storage"
)

// WatchedAccountStatsStore is an in-memory implementation of
// storage.WatchedAccountStatsStore.
type WatchedAccountStatsStore struct {
	mu   sync.RWMutex
	data map[string]*domain.WatchedAccountStats // keyed by account
}

// NewWatchedAccountStatsStore creates a new in-memory stats store.
func NewWatchedAccountStatsStore() *WatchedAccountStatsStore {
	return &WatchedAccountStatsStore{
		data: make(map[string]*domain.WatchedAccountStats),
	}
}

// Compile-time interface check.
var _ storage.WatchedAccountStatsStore = (*WatchedAccountStatsStore)(nil)

// Upsert writes the snapshot for an account.
func (s *WatchedAccountStatsStore) Upsert(_ context.Context, st *domain.WatchedAccountStats) error {
	if st == nil || st.Account == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *st
	s.data[st.Account] = &copy
	return nil
}

// GetByAccount retrieves the snapshot. Returns ErrNotFound if not exists.
func (s *WatchedAccountStatsStore) GetByAccount(_ context.Context, account string) (*domain.WatchedAccountStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, exists := s.data[account]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *st
	return &copy, nil
}
