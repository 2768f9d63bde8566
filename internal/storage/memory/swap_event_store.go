package memory

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"copytrade-engine/internal/domain"
	"copytrade-engine/internal/storage"
)

// SwapEventStore is an in-memory implementation of storage.SwapEventStore.
type SwapEventStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SwapEvent // keyed by (tx_hash, log_index)
}

// NewSwapEventStore creates a new in-memory swap event store.
func NewSwapEventStore() *SwapEventStore {
	return &SwapEventStore{
		data: make(map[string]*domain.SwapEvent),
	}
}

// Compile-time interface check.
var _ storage.SwapEventStore = (*SwapEventStore)(nil)

// swapEventKey generates a unique key for a raw swap event.
func swapEventKey(txHash string, logIndex int) string {
	return fmt.Sprintf("%s|%d", txHash, logIndex)
}

// Insert adds a raw event. Returns ErrDuplicateKey if exists.
func (s *SwapEventStore) Insert(_ context.Context, e *domain.SwapEvent) error {
	if e == nil || e.TxHash == "" || e.Pool == "" {
		return storage.ErrInvalidInput
	}

	key := swapEventKey(e.TxHash, e.LogIndex)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[key] = cloneSwapEvent(e)
	return nil
}

// cloneSwapEvent value-copies an event, including the big.Int amounts: a
// shallow copy would alias the caller's amounts and let post-insert
// mutation reach the stored record.
func cloneSwapEvent(e *domain.SwapEvent) *domain.SwapEvent {
	out := *e
	if e.Amount0 != nil {
		out.Amount0 = new(big.Int).Set(e.Amount0)
	}
	if e.Amount1 != nil {
		out.Amount1 = new(big.Int).Set(e.Amount1)
	}
	return &out
}

// GetByPool retrieves all events for a pool, ordered by (block, log index).
func (s *SwapEventStore) GetByPool(_ context.Context, pool string) ([]*domain.SwapEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SwapEvent
	for _, e := range s.data {
		if e.Pool == pool {
			result = append(result, cloneSwapEvent(e))
		}
	}

	domain.SortSwapEvents(result)
	return result, nil
}

// GetAll retrieves all events, ordered by (block, log index).
func (s *SwapEventStore) GetAll(_ context.Context) ([]*domain.SwapEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.SwapEvent, 0, len(s.data))
	for _, e := range s.data {
		result = append(result, cloneSwapEvent(e))
	}

	domain.SortSwapEvents(result)
	return result, nil
}
