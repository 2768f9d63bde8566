package memory

import (
	"context"
	"sort"
	"sync"

	"copytrade-engine/internal/domain"
	"copytrade-engine/internal/storage"
)

// AccountActivityStore is an in-memory implementation of
// storage.AccountActivityStore.
type AccountActivityStore struct {
	mu   sync.RWMutex
	data map[string]*domain.AccountActivity // keyed by (account, date)
}

// NewAccountActivityStore creates a new in-memory account activity store.
func NewAccountActivityStore() *AccountActivityStore {
	return &AccountActivityStore{
		data: make(map[string]*domain.AccountActivity),
	}
}

// Compile-time interface check.
var _ storage.AccountActivityStore = (*AccountActivityStore)(nil)

// activityKey generates a unique key for an account activity record.
func activityKey(account, date string) string {
	return account + "|" + date
}

// Upsert writes the snapshot for (account, date).
func (s *AccountActivityStore) Upsert(_ context.Context, a *domain.AccountActivity) error {
	if a == nil || a.Account == "" || a.Date == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *a
	s.data[activityKey(a.Account, a.Date)] = &copy
	return nil
}

// GetByKey retrieves the snapshot. Returns ErrNotFound if not exists.
func (s *AccountActivityStore) GetByKey(_ context.Context, account, date string) (*domain.AccountActivity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.data[activityKey(account, date)]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *a
	return &copy, nil
}

// GetByAccount retrieves all snapshots for an account, ordered by date ASC.
func (s *AccountActivityStore) GetByAccount(_ context.Context, account string) ([]*domain.AccountActivity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.AccountActivity
	for _, a := range s.data {
		if a.Account == account {
			copy := *a
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date < result[j].Date
	})
	return result, nil
}
