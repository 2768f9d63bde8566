package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"copytrade-engine/internal/domain"
	"copytrade-engine/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

// Insert adds a trade. Returns ErrDuplicateKey if trade_id exists.
func (s *TradeStore) Insert(ctx context.Context, t *domain.Trade) error {
	query := `
		INSERT INTO trades (
			trade_id, tx_hash, log_index, block_number, timestamp, account,
			direction, base_amount, quote_amount, price, pool, sender, recipient
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := s.pool.Exec(ctx, query,
		t.TradeID,
		t.TxHash,
		t.LogIndex,
		t.BlockNumber,
		t.Timestamp,
		t.Account,
		string(t.Direction),
		t.BaseAmount.String(),
		t.QuoteAmount.String(),
		t.Price.String(),
		t.Pool,
		t.Sender,
		t.Recipient,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// GetByAccount retrieves all trades for an account, ordered by timestamp ASC.
func (s *TradeStore) GetByAccount(ctx context.Context, account string) ([]*domain.Trade, error) {
	query := `
		SELECT trade_id, tx_hash, log_index, block_number, timestamp, account,
		       direction, base_amount::text, quote_amount::text, price::text,
		       pool, sender, recipient
		FROM trades
		WHERE account = $1
		ORDER BY timestamp ASC, trade_id ASC
	`

	rows, err := s.pool.Query(ctx, query, account)
	if err != nil {
		return nil, fmt.Errorf("get trades by account: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// GetByAccountTimeRange retrieves an account's trades within [start, end]
// (inclusive), ordered by timestamp ASC.
func (s *TradeStore) GetByAccountTimeRange(ctx context.Context, account string, start, end int64) ([]*domain.Trade, error) {
	query := `
		SELECT trade_id, tx_hash, log_index, block_number, timestamp, account,
		       direction, base_amount::text, quote_amount::text, price::text,
		       pool, sender, recipient
		FROM trades
		WHERE account = $1 AND timestamp >= $2 AND timestamp <= $3
		ORDER BY timestamp ASC, trade_id ASC
	`

	rows, err := s.pool.Query(ctx, query, account, start, end)
	if err != nil {
		return nil, fmt.Errorf("get trades by time range: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// scanTrades reads trade rows, parsing numeric columns into decimals.
func scanTrades(rows pgx.Rows) ([]*domain.Trade, error) {
	var trades []*domain.Trade
	for rows.Next() {
		var (
			t         domain.Trade
			direction string
			base      string
			quote     string
			price     string
		)
		err := rows.Scan(
			&t.TradeID, &t.TxHash, &t.LogIndex, &t.BlockNumber, &t.Timestamp,
			&t.Account, &direction, &base, &quote, &price,
			&t.Pool, &t.Sender, &t.Recipient,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}

		t.Direction = domain.Direction(direction)
		if t.BaseAmount, err = decimal.NewFromString(base); err != nil {
			return nil, fmt.Errorf("parse base_amount: %w", err)
		}
		if t.QuoteAmount, err = decimal.NewFromString(quote); err != nil {
			return nil, fmt.Errorf("parse quote_amount: %w", err)
		}
		if t.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("parse price: %w", err)
		}

		trades = append(trades, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trades: %w", err)
	}
	return trades, nil
}
