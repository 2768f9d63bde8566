package postgres

import (
	"context"
	"fmt"

	"copytrade-engine/internal/domain"
	"copytrade-engine/internal/storage"
)

// WatchedAccountStatsStore implements storage.WatchedAccountStatsStore
// using PostgreSQL.
type WatchedAccountStatsStore struct {
	pool *Pool
}

// NewWatchedAccountStatsStore creates a new WatchedAccountStatsStore.
func NewWatchedAccountStatsStore(pool *Pool) *WatchedAccountStatsStore {
	return &WatchedAccountStatsStore{pool: pool}
}

// Compile-time interface check.
var _ storage.WatchedAccountStatsStore = (*WatchedAccountStatsStore)(nil)

// Upsert writes the snapshot for an account.
func (s *WatchedAccountStatsStore) Upsert(ctx context.Context, st *domain.WatchedAccountStats) error {
	query := `
		INSERT INTO watched_account_stats (
			account, trade_count, first_trade_at, last_trade_at, updated_at
		) VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (account) DO UPDATE SET
			trade_count = EXCLUDED.trade_count,
			first_trade_at = EXCLUDED.first_trade_at,
			last_trade_at = EXCLUDED.last_trade_at,
			updated_at = now()
	`

	_, err := s.pool.Exec(ctx, query,
		st.Account,
		st.TradeCount,
		st.FirstTradeAt,
		st.LastTradeAt,
	)
	if err != nil {
		return fmt.Errorf("upsert watched account stats: %w", err)
	}
	return nil
}

// GetByAccount retrieves the snapshot. Returns ErrNotFound if not exists.
func (s *WatchedAccountStatsStore) GetByAccount(ctx context.Context, account string) (*domain.WatchedAccountStats, error) {
	query := `
		SELECT account, trade_count, first_trade_at, last_trade_at
		FROM watched_account_stats
		WHERE account = $1
	`

	var st domain.WatchedAccountStats
	err := s.pool.QueryRow(ctx, query, account).Scan(
		&st.Account, &st.TradeCount, &st.FirstTradeAt, &st.LastTradeAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get watched account stats: %w", err)
	}
	return &st, nil
}
