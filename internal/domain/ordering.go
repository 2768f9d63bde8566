package domain

import (
	"errors"
	"sort"
)

// ErrInvalidOrdering is returned when events are not properly ordered.
var ErrInvalidOrdering = errors.New("events are not in deterministic order")

// SortSwapEvents orders events by (block_number ASC, log_index ASC).
// This is the chain's deterministic delivery order per contract.
func SortSwapEvents(events []*SwapEvent) {
	sort.Slice(events, func(i, j int) bool {
		return CompareSwapEvents(events[i], events[j]) < 0
	})
}

// ValidateSwapEventOrdering checks that events are strictly ordered by
// (block_number, log_index). Returns ErrInvalidOrdering if not.
func ValidateSwapEventOrdering(events []*SwapEvent) error {
	for i := 1; i < len(events); i++ {
		if CompareSwapEvents(events[i-1], events[i]) >= 0 {
			return ErrInvalidOrdering
		}
	}
	return nil
}

// CompareSwapEvents returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
//
// Order: (block_number ASC, log_index ASC)
func CompareSwapEvents(a, b *SwapEvent) int {
	if a.BlockNumber != b.BlockNumber {
		if a.BlockNumber < b.BlockNumber {
			return -1
		}
		return 1
	}
	if a.LogIndex != b.LogIndex {
		if a.LogIndex < b.LogIndex {
			return -1
		}
		return 1
	}
	return 0
}
