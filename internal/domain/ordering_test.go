package domain

import (
	"errors"
	"testing"
)

func ev(block int64, logIndex int) *SwapEvent {
	return &SwapEvent{
		TxHash:      "0xtx",
		LogIndex:    logIndex,
		BlockNumber: block,
	}
}

func TestCompareSwapEvents(t *testing.T) {
	tests := []struct {
		name string
		a, b *SwapEvent
		want int // sign only
	}{
		{name: "earlier block", a: ev(100, 5), b: ev(101, 0), want: -1},
		{name: "later block", a: ev(102, 0), b: ev(101, 9), want: 1},
		{name: "same block earlier log", a: ev(100, 1), b: ev(100, 2), want: -1},
		{name: "same block later log", a: ev(100, 3), b: ev(100, 2), want: 1},
		{name: "identical position", a: ev(100, 2), b: ev(100, 2), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CompareSwapEvents(tt.a, tt.b)
			if sign(got) != tt.want {
				t.Errorf("CompareSwapEvents() = %d, want sign %d", got, tt.want)
			}
		})
	}
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	default:
		return 0
	}
}

func TestValidateSwapEventOrdering(t *testing.T) {
	ordered := []*SwapEvent{ev(100, 1), ev(100, 2), ev(101, 0)}
	if err := ValidateSwapEventOrdering(ordered); err != nil {
		t.Errorf("ordered slice rejected: %v", err)
	}

	unordered := []*SwapEvent{ev(101, 0), ev(100, 2)}
	if err := ValidateSwapEventOrdering(unordered); !errors.Is(err, ErrInvalidOrdering) {
		t.Errorf("expected ErrInvalidOrdering, got %v", err)
	}

	// Duplicate positions are not strictly ordered.
	dup := []*SwapEvent{ev(100, 1), ev(100, 1)}
	if err := ValidateSwapEventOrdering(dup); !errors.Is(err, ErrInvalidOrdering) {
		t.Errorf("expected ErrInvalidOrdering for duplicates, got %v", err)
	}

	if err := ValidateSwapEventOrdering(nil); err != nil {
		t.Errorf("empty slice rejected: %v", err)
	}
}

func TestSortSwapEvents(t *testing.T) {
	events := []*SwapEvent{ev(102, 0), ev(100, 7), ev(100, 2), ev(101, 1)}

	SortSwapEvents(events)

	if err := ValidateSwapEventOrdering(events); err != nil {
		t.Fatalf("sorted slice still unordered: %v", err)
	}
	if events[0].BlockNumber != 100 || events[0].LogIndex != 2 {
		t.Errorf("first event = (%d, %d), want (100, 2)", events[0].BlockNumber, events[0].LogIndex)
	}
}

func TestTrade_Date(t *testing.T) {
	// 2024-01-01T00:00:30Z, just past a UTC midnight boundary.
	trade := &Trade{Timestamp: 1704067230}
	if got := trade.Date(); got != "2024-01-01" {
		t.Errorf("Date() = %s, want 2024-01-01", got)
	}

	// One minute before the same midnight lands on the previous day.
	trade = &Trade{Timestamp: 1704067140}
	if got := trade.Date(); got != "2023-12-31" {
		t.Errorf("Date() = %s, want 2023-12-31", got)
	}
}
