package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"copytrade-engine/internal/domain"
	"copytrade-engine/internal/storage"
)

// DailySummaryStore implements storage.DailySummaryStore using PostgreSQL.
type DailySummaryStore struct {
	pool *Pool
}

// NewDailySummaryStore creates a new DailySummaryStore.
func NewDailySummaryStore(pool *Pool) *DailySummaryStore {
	return &DailySummaryStore{pool: pool}
}

// Compile-time interface check.
var _ storage.DailySummaryStore = (*DailySummaryStore)(nil)

// Upsert writes the snapshot for (date, chain), replacing any prior one.
func (s *DailySummaryStore) Upsert(ctx context.Context, sum *domain.DailySummary) error {
	query := `
		INSERT INTO daily_summaries (
			date, chain, total_transactions, buy_count, sell_count,
			total_buy_base, total_sell_base, total_buy_quote, total_sell_quote,
			min_price, max_price, unique_accounts, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now())
		ON CONFLICT (date, chain) DO UPDATE SET
			total_transactions = EXCLUDED.total_transactions,
			buy_count = EXCLUDED.buy_count,
			sell_count = EXCLUDED.sell_count,
			total_buy_base = EXCLUDED.total_buy_base,
			total_sell_base = EXCLUDED.total_sell_base,
			total_buy_quote = EXCLUDED.total_buy_quote,
			total_sell_quote = EXCLUDED.total_sell_quote,
			min_price = EXCLUDED.min_price,
			max_price = EXCLUDED.max_price,
			unique_accounts = EXCLUDED.unique_accounts,
			updated_at = now()
	`

	_, err := s.pool.Exec(ctx, query,
		sum.Date,
		sum.Chain,
		sum.TotalTransactions,
		sum.BuyCount,
		sum.SellCount,
		sum.TotalBuyBase.String(),
		sum.TotalSellBase.String(),
		sum.TotalBuyQuote.String(),
		sum.TotalSellQuote.String(),
		sum.MinPrice.String(),
		sum.MaxPrice.String(),
		sum.UniqueAccounts,
	)
	if err != nil {
		return fmt.Errorf("upsert daily summary: %w", err)
	}
	return nil
}

// GetByKey retrieves the snapshot. Returns ErrNotFound if not exists.
func (s *DailySummaryStore) GetByKey(ctx context.Context, date, chain string) (*domain.DailySummary, error) {
	query := `
		SELECT date, chain, total_transactions, buy_count, sell_count,
		       total_buy_base::text, total_sell_base::text,
		       total_buy_quote::text, total_sell_quote::text,
		       min_price::text, max_price::text, unique_accounts
		FROM daily_summaries
		WHERE date = $1 AND chain = $2
	`

	var (
		sum                                              domain.DailySummary
		buyBase, sellBase, buyQuote, sellQuote, min, max string
	)
	err := s.pool.QueryRow(ctx, query, date, chain).Scan(
		&sum.Date, &sum.Chain, &sum.TotalTransactions, &sum.BuyCount, &sum.SellCount,
		&buyBase, &sellBase, &buyQuote, &sellQuote, &min, &max, &sum.UniqueAccounts,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get daily summary: %w", err)
	}

	fields := []struct {
		dst *decimal.Decimal
		src string
	}{
		{&sum.TotalBuyBase, buyBase},
		{&sum.TotalSellBase, sellBase},
		{&sum.TotalBuyQuote, buyQuote},
		{&sum.TotalSellQuote, sellQuote},
		{&sum.MinPrice, min},
		{&sum.MaxPrice, max},
	}
	for _, f := range fields {
		v, err := decimal.NewFromString(f.src)
		if err != nil {
			return nil, fmt.Errorf("parse summary decimal: %w", err)
		}
		*f.dst = v
	}

	return &sum, nil
}
