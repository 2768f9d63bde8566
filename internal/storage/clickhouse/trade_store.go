package clickhouse

import (
	"context"
	"fmt"

	"copytrade-engine/internal/domain"
	"copytrade-engine/internal/storage"
)

// TradeStore implements storage.TradeStore using ClickHouse.
type TradeStore struct {
	conn *Conn
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(conn *Conn) *TradeStore {
	return &TradeStore{conn: conn}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

// Insert adds a trade. Returns ErrDuplicateKey if trade_id exists.
// ReplacingMergeTree doesn't enforce uniqueness at insert time, so the
// check is done explicitly before inserting.
func (s *TradeStore) Insert(ctx context.Context, t *domain.Trade) error {
	exists, err := s.exists(ctx, t.TradeID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO trades (
			trade_id, tx_hash, log_index, block_number, timestamp,
			account, direction, base_amount, quote_amount, price,
			pool, sender, recipient
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	err = batch.Append(
		t.TradeID, t.TxHash, uint32(t.LogIndex), uint64(t.BlockNumber), uint64(t.Timestamp),
		t.Account, string(t.Direction), t.BaseAmount, t.QuoteAmount, t.Price,
		t.Pool, t.Sender, t.Recipient,
	)
	if err != nil {
		return fmt.Errorf("append to batch: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByAccount retrieves all trades for an account, ordered by timestamp ASC.
func (s *TradeStore) GetByAccount(ctx context.Context, account string) ([]*domain.Trade, error) {
	query := `
		SELECT trade_id, tx_hash, log_index, block_number, timestamp,
		       account, direction, base_amount, quote_amount, price,
		       pool, sender, recipient
		FROM trades
		WHERE account = ?
		ORDER BY timestamp ASC, trade_id ASC
	`

	rows, err := s.conn.Query(ctx, query, account)
	if err != nil {
		return nil, fmt.Errorf("query by account: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// GetByAccountTimeRange retrieves an account's trades within [start, end]
// seconds (inclusive), ordered by timestamp ASC.
func (s *TradeStore) GetByAccountTimeRange(ctx context.Context, account string, start, end int64) ([]*domain.Trade, error) {
	query := `
		SELECT trade_id, tx_hash, log_index, block_number, timestamp,
		       account, direction, base_amount, quote_amount, price,
		       pool, sender, recipient
		FROM trades
		WHERE account = ? AND timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp ASC, trade_id ASC
	`

	rows, err := s.conn.Query(ctx, query, account, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// exists checks if a trade with the given id exists.
func (s *TradeStore) exists(ctx context.Context, tradeID string) (bool, error) {
	query := `SELECT count(*) FROM trades WHERE trade_id = ?`

	var count uint64
	err := s.conn.QueryRow(ctx, query, tradeID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Rows interface for scanning
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanTrades scans multiple rows into a slice.
func scanTrades(rows chRows) ([]*domain.Trade, error) {
	var trades []*domain.Trade

	for rows.Next() {
		var t domain.Trade
		var logIndex uint32
		var blockNumber, timestamp uint64
		var direction string

		err := rows.Scan(
			&t.TradeID, &t.TxHash, &logIndex, &blockNumber, &timestamp,
			&t.Account, &direction, &t.BaseAmount, &t.QuoteAmount, &t.Price,
			&t.Pool, &t.Sender, &t.Recipient,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trade row: %w", err)
		}

		t.LogIndex = int(logIndex)
		t.BlockNumber = int64(blockNumber)
		t.Timestamp = int64(timestamp)
		t.Direction = domain.Direction(direction)
		trades = append(trades, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade rows: %w", err)
	}

	return trades, nil
}
