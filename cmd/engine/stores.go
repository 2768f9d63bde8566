package main

import (
	"context"
	"log"
	"time"

	"copytrade-engine/internal/aggregate"
	"copytrade-engine/internal/domain"
	"copytrade-engine/internal/storage"
)

// snapshotWriteTimeout bounds each snapshot persistence attempt.
const snapshotWriteTimeout = 10 * time.Second

// snapshotNotifier persists aggregate snapshots as they are upserted.
// Persistence failures are logged and skipped: the live aggregates stay
// authoritative and a later upsert for the same key rewrites the row.
type snapshotNotifier struct {
	summaries  storage.DailySummaryStore
	activities storage.AccountActivityStore
	stats      storage.WatchedAccountStatsStore
	logger     *log.Logger
}

var _ aggregate.Notifier = (*snapshotNotifier)(nil)

func (n *snapshotNotifier) DailySummaryUpserted(s *domain.DailySummary) {
	ctx, cancel := context.WithTimeout(context.Background(), snapshotWriteTimeout)
	defer cancel()
	if err := n.summaries.Upsert(ctx, s); err != nil {
		n.logger.Printf("WARN: persist daily summary %s/%s: %v", s.Date, s.Chain, err)
	}
}

func (n *snapshotNotifier) AccountActivityUpserted(a *domain.AccountActivity) {
	ctx, cancel := context.WithTimeout(context.Background(), snapshotWriteTimeout)
	defer cancel()
	if err := n.activities.Upsert(ctx, a); err != nil {
		n.logger.Printf("WARN: persist account activity %s/%s: %v", a.Account, a.Date, err)
	}
}

func (n *snapshotNotifier) WatchedAccountStatsUpserted(st *domain.WatchedAccountStats) {
	ctx, cancel := context.WithTimeout(context.Background(), snapshotWriteTimeout)
	defer cancel()
	if err := n.stats.Upsert(ctx, st); err != nil {
		n.logger.Printf("WARN: persist watched account stats %s: %v", st.Account, err)
	}
}

// teeTradeStore writes trades to both backends and reads from the primary.
type teeTradeStore struct {
	primary   storage.TradeStore
	secondary storage.TradeStore
}

var _ storage.TradeStore = (*teeTradeStore)(nil)

func (t *teeTradeStore) Insert(ctx context.Context, trade *domain.Trade) error {
	if err := t.primary.Insert(ctx, trade); err != nil {
		return err
	}
	return t.secondary.Insert(ctx, trade)
}

func (t *teeTradeStore) GetByAccount(ctx context.Context, account string) ([]*domain.Trade, error) {
	return t.primary.GetByAccount(ctx, account)
}

func (t *teeTradeStore) GetByAccountTimeRange(ctx context.Context, account string, start, end int64) ([]*domain.Trade, error) {
	return t.primary.GetByAccountTimeRange(ctx, account, start, end)
}

// teeSimilarityEventStore writes scan output to both backends and reads
// from the primary.
type teeSimilarityEventStore struct {
	primary   storage.SimilarityEventStore
	secondary storage.SimilarityEventStore
}

var _ storage.SimilarityEventStore = (*teeSimilarityEventStore)(nil)

func (t *teeSimilarityEventStore) InsertBulk(ctx context.Context, events []*domain.SimilarityEvent) error {
	if err := t.primary.InsertBulk(ctx, events); err != nil {
		return err
	}
	return t.secondary.InsertBulk(ctx, events)
}

func (t *teeSimilarityEventStore) GetByPair(ctx context.Context, referenceAccount, suspectAccount string) ([]*domain.SimilarityEvent, error) {
	return t.primary.GetByPair(ctx, referenceAccount, suspectAccount)
}
