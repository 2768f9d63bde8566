package postgres

import (
	"context"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5"

	"copytrade-engine/internal/domain"
	"copytrade-engine/internal/storage"
)

// SwapEventStore implements storage.SwapEventStore using PostgreSQL.
type SwapEventStore struct {
	pool *Pool
}

// NewSwapEventStore creates a new SwapEventStore.
func NewSwapEventStore(pool *Pool) *SwapEventStore {
	return &SwapEventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SwapEventStore = (*SwapEventStore)(nil)

// Insert adds a raw event. Returns ErrDuplicateKey if (tx_hash, log_index)
// exists.
func (s *SwapEventStore) Insert(ctx context.Context, e *domain.SwapEvent) error {
	query := `
		INSERT INTO swap_events (
			tx_hash, log_index, block_number, timestamp, sender, recipient,
			amount0, amount1, pool
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.pool.Exec(ctx, query,
		e.TxHash,
		e.LogIndex,
		e.BlockNumber,
		e.Timestamp,
		e.Sender,
		e.Recipient,
		bigIntString(e.Amount0),
		bigIntString(e.Amount1),
		e.Pool,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert swap event: %w", err)
	}
	return nil
}

// GetByPool retrieves all events for a pool, ordered by (block, log index).
func (s *SwapEventStore) GetByPool(ctx context.Context, pool string) ([]*domain.SwapEvent, error) {
	query := `
		SELECT tx_hash, log_index, block_number, timestamp, sender, recipient,
		       amount0::text, amount1::text, pool
		FROM swap_events
		WHERE pool = $1
		ORDER BY block_number ASC, log_index ASC
	`

	rows, err := s.pool.Query(ctx, query, pool)
	if err != nil {
		return nil, fmt.Errorf("get swap events by pool: %w", err)
	}
	defer rows.Close()

	return scanSwapEvents(rows)
}

// GetAll retrieves all events, ordered by (block, log index).
func (s *SwapEventStore) GetAll(ctx context.Context) ([]*domain.SwapEvent, error) {
	query := `
		SELECT tx_hash, log_index, block_number, timestamp, sender, recipient,
		       amount0::text, amount1::text, pool
		FROM swap_events
		ORDER BY block_number ASC, log_index ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all swap events: %w", err)
	}
	defer rows.Close()

	return scanSwapEvents(rows)
}

// scanSwapEvents reads event rows, parsing raw deltas into big integers.
func scanSwapEvents(rows pgx.Rows) ([]*domain.SwapEvent, error) {
	var events []*domain.SwapEvent
	for rows.Next() {
		var (
			e       domain.SwapEvent
			amount0 string
			amount1 string
		)
		err := rows.Scan(
			&e.TxHash, &e.LogIndex, &e.BlockNumber, &e.Timestamp,
			&e.Sender, &e.Recipient, &amount0, &amount1, &e.Pool,
		)
		if err != nil {
			return nil, fmt.Errorf("scan swap event: %w", err)
		}

		var ok bool
		if e.Amount0, ok = new(big.Int).SetString(amount0, 10); !ok {
			return nil, fmt.Errorf("parse amount0 %q", amount0)
		}
		if e.Amount1, ok = new(big.Int).SetString(amount1, 10); !ok {
			return nil, fmt.Errorf("parse amount1 %q", amount1)
		}

		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate swap events: %w", err)
	}
	return events, nil
}

// bigIntString renders a raw delta for a NUMERIC column. Nil means zero.
func bigIntString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
