package storage

import (
	"context"

	"copytrade-engine/internal/domain"
)

// SwapEventStore archives raw swap events for deterministic replay.
type SwapEventStore interface {
	// Insert adds a raw event. Returns ErrDuplicateKey if
	// (tx_hash, log_index) exists.
	Insert(ctx context.Context, e *domain.SwapEvent) error

	// GetByPool retrieves all events for a pool, ordered by
	// (block_number, log_index) ASC.
	GetByPool(ctx context.Context, pool string) ([]*domain.SwapEvent, error)

	// GetAll retrieves all events, ordered by (block_number, log_index) ASC.
	GetAll(ctx context.Context) ([]*domain.SwapEvent, error)
}

// TradeStore persists classified trades, the input to similarity scans.
type TradeStore interface {
	// Insert adds a trade. Returns ErrDuplicateKey if trade_id exists.
	Insert(ctx context.Context, t *domain.Trade) error

	// GetByAccount retrieves all trades for an account, ordered by
	// timestamp ASC.
	GetByAccount(ctx context.Context, account string) ([]*domain.Trade, error)

	// GetByAccountTimeRange retrieves an account's trades within
	// [start, end] seconds (inclusive), ordered by timestamp ASC.
	GetByAccountTimeRange(ctx context.Context, account string, start, end int64) ([]*domain.Trade, error)
}

// DailySummaryStore persists daily summary snapshots emitted by the engine.
// The engine owns the live state; this layer only records the latest
// snapshot per key.
type DailySummaryStore interface {
	// Upsert writes the snapshot for (date, chain), replacing any prior one.
	Upsert(ctx context.Context, s *domain.DailySummary) error

	// GetByKey retrieves the snapshot. Returns ErrNotFound if not exists.
	GetByKey(ctx context.Context, date, chain string) (*domain.DailySummary, error)
}

// AccountActivityStore persists per-account daily activity snapshots.
type AccountActivityStore interface {
	// Upsert writes the snapshot for (account, date).
	Upsert(ctx context.Context, a *domain.AccountActivity) error

	// GetByKey retrieves the snapshot. Returns ErrNotFound if not exists.
	GetByKey(ctx context.Context, account, date string) (*domain.AccountActivity, error)

	// GetByAccount retrieves all snapshots for an account, ordered by
	// date ASC.
	GetByAccount(ctx context.Context, account string) ([]*domain.AccountActivity, error)
}

// WatchedAccountStatsStore persists lifetime stats snapshots.
type WatchedAccountStatsStore interface {
	// Upsert writes the snapshot for an account.
	Upsert(ctx context.Context, st *domain.WatchedAccountStats) error

	// GetByAccount retrieves the snapshot. Returns ErrNotFound if not exists.
	GetByAccount(ctx context.Context, account string) (*domain.WatchedAccountStats, error)
}

// SimilarityEventStore persists the output of similarity scans.
type SimilarityEventStore interface {
	// InsertBulk adds a scan's events. Re-running an identical scan
	// replaces nothing: events with an existing event_id are skipped.
	InsertBulk(ctx context.Context, events []*domain.SimilarityEvent) error

	// GetByPair retrieves all events for a (reference, suspect) account
	// pair, ordered by reference trade then score.
	GetByPair(ctx context.Context, referenceAccount, suspectAccount string) ([]*domain.SimilarityEvent, error)
}
