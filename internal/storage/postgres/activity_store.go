package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"copytrade-engine/internal/domain"
	"copytrade-engine/internal/storage"
)

// AccountActivityStore implements storage.AccountActivityStore using
// PostgreSQL.
type AccountActivityStore struct {
	pool *Pool
}

// NewAccountActivityStore creates a new AccountActivityStore.
func NewAccountActivityStore(pool *Pool) *AccountActivityStore {
	return &AccountActivityStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AccountActivityStore = (*AccountActivityStore)(nil)

// Upsert writes the snapshot for (account, date).
func (s *AccountActivityStore) Upsert(ctx context.Context, a *domain.AccountActivity) error {
	query := `
		INSERT INTO account_activities (
			account, date, trade_count, buy_count, sell_count,
			buy_base_volume, sell_base_volume, buy_quote_volume, sell_quote_volume,
			min_price, max_price, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
		ON CONFLICT (account, date) DO UPDATE SET
			trade_count = EXCLUDED.trade_count,
			buy_count = EXCLUDED.buy_count,
			sell_count = EXCLUDED.sell_count,
			buy_base_volume = EXCLUDED.buy_base_volume,
			sell_base_volume = EXCLUDED.sell_base_volume,
			buy_quote_volume = EXCLUDED.buy_quote_volume,
			sell_quote_volume = EXCLUDED.sell_quote_volume,
			min_price = EXCLUDED.min_price,
			max_price = EXCLUDED.max_price,
			updated_at = now()
	`

	_, err := s.pool.Exec(ctx, query,
		a.Account,
		a.Date,
		a.TradeCount,
		a.BuyCount,
		a.SellCount,
		a.BuyBaseVolume.String(),
		a.SellBaseVolume.String(),
		a.BuyQuoteVolume.String(),
		a.SellQuoteVolume.String(),
		a.MinPrice.String(),
		a.MaxPrice.String(),
	)
	if err != nil {
		return fmt.Errorf("upsert account activity: %w", err)
	}
	return nil
}

// GetByKey retrieves the snapshot. Returns ErrNotFound if not exists.
func (s *AccountActivityStore) GetByKey(ctx context.Context, account, date string) (*domain.AccountActivity, error) {
	rows, err := s.pool.Query(ctx, activitySelect+" WHERE account = $1 AND date = $2", account, date)
	if err != nil {
		return nil, fmt.Errorf("get account activity: %w", err)
	}
	defer rows.Close()

	activities, err := scanActivities(rows)
	if err != nil {
		return nil, err
	}
	if len(activities) == 0 {
		return nil, storage.ErrNotFound
	}
	return activities[0], nil
}

// GetByAccount retrieves all snapshots for an account, ordered by date ASC.
func (s *AccountActivityStore) GetByAccount(ctx context.Context, account string) ([]*domain.AccountActivity, error) {
	rows, err := s.pool.Query(ctx, activitySelect+" WHERE account = $1 ORDER BY date ASC", account)
	if err != nil {
		return nil, fmt.Errorf("get account activities: %w", err)
	}
	defer rows.Close()

	return scanActivities(rows)
}

const activitySelect = `
	SELECT account, date, trade_count, buy_count, sell_count,
	       buy_base_volume::text, sell_base_volume::text,
	       buy_quote_volume::text, sell_quote_volume::text,
	       min_price::text, max_price::text
	FROM account_activities`

// scanActivities reads activity rows, parsing numeric columns.
func scanActivities(rows pgx.Rows) ([]*domain.AccountActivity, error) {
	var activities []*domain.AccountActivity
	for rows.Next() {
		var (
			a                                                domain.AccountActivity
			buyBase, sellBase, buyQuote, sellQuote, min, max string
		)
		err := rows.Scan(
			&a.Account, &a.Date, &a.TradeCount, &a.BuyCount, &a.SellCount,
			&buyBase, &sellBase, &buyQuote, &sellQuote, &min, &max,
		)
		if err != nil {
			return nil, fmt.Errorf("scan account activity: %w", err)
		}

		fields := []struct {
			dst *decimal.Decimal
			src string
		}{
			{&a.BuyBaseVolume, buyBase},
			{&a.SellBaseVolume, sellBase},
			{&a.BuyQuoteVolume, buyQuote},
			{&a.SellQuoteVolume, sellQuote},
			{&a.MinPrice, min},
			{&a.MaxPrice, max},
		}
		for _, f := range fields {
			v, err := decimal.NewFromString(f.src)
			if err != nil {
				return nil, fmt.Errorf("parse activity decimal: %w", err)
			}
			*f.dst = v
		}

		activities = append(activities, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate account activities: %w", err)
	}
	return activities, nil
}
