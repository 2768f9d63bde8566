// Package replay rebuilds engine state by re-feeding archived swap events
// in deterministic chain order. Idempotent aggregation makes replay into a
// live engine safe; replay into a fresh engine is a full rebuild.
package replay

import (
	"context"
	"fmt"

	"copytrade-engine/internal/domain"
	"copytrade-engine/internal/storage"
)

// Acceptor consumes replayed events. *engine.Engine satisfies it.
type Acceptor interface {
	Accept(ctx context.Context, event *domain.SwapEvent) error
}

// Runner loads archived events and replays them in deterministic order.
type Runner struct {
	swapEvents storage.SwapEventStore
}

// NewRunner creates a new replay runner.
func NewRunner(swapEvents storage.SwapEventStore) *Runner {
	return &Runner{swapEvents: swapEvents}
}

// RunPool replays all archived events for one pool through the acceptor,
// ordered by (block_number, log_index).
func (r *Runner) RunPool(ctx context.Context, pool string, acceptor Acceptor) (int, error) {
	events, err := r.swapEvents.GetByPool(ctx, pool)
	if err != nil {
		return 0, fmt.Errorf("load events for pool %s: %w", pool, err)
	}
	return r.replay(ctx, events, acceptor)
}

// RunAll replays every archived event through the acceptor, ordered by
// (block_number, log_index).
func (r *Runner) RunAll(ctx context.Context, acceptor Acceptor) (int, error) {
	events, err := r.swapEvents.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("load events: %w", err)
	}
	return r.replay(ctx, events, acceptor)
}

// replay validates ordering and feeds events one at a time. Returns the
// number of events delivered before any failure.
func (r *Runner) replay(ctx context.Context, events []*domain.SwapEvent, acceptor Acceptor) (int, error) {
	if err := domain.ValidateSwapEventOrdering(events); err != nil {
		domain.SortSwapEvents(events)
	}

	for i, event := range events {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := acceptor.Accept(ctx, event); err != nil {
			return i, fmt.Errorf("replay event %s[%d]: %w", event.TxHash, event.LogIndex, err)
		}
	}
	return len(events), nil
}
