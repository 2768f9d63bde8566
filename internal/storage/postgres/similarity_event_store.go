package postgres

import (
	"context"
	"fmt"

	"copytrade-engine/internal/domain"
	"copytrade-engine/internal/storage"
)

// SimilarityEventStore implements storage.SimilarityEventStore using
// PostgreSQL.
type SimilarityEventStore struct {
	pool *Pool
}

// NewSimilarityEventStore creates a new SimilarityEventStore.
func NewSimilarityEventStore(pool *Pool) *SimilarityEventStore {
	return &SimilarityEventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SimilarityEventStore = (*SimilarityEventStore)(nil)

// InsertBulk adds a scan's events atomically. Events whose event_id
// already exists are skipped, so re-running an identical scan is a no-op.
func (s *SimilarityEventStore) InsertBulk(ctx context.Context, events []*domain.SimilarityEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO similarity_events (
			event_id, reference_account, suspect_account,
			reference_trade_id, suspect_trade_id,
			time_offset, direction_match, score
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (event_id) DO NOTHING
	`

	for _, ev := range events {
		if ev == nil || ev.EventID == "" {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, query,
			ev.EventID,
			ev.ReferenceAccount,
			ev.SuspectAccount,
			ev.ReferenceTradeID,
			ev.SuspectTradeID,
			ev.TimeOffset,
			ev.DirectionMatch,
			ev.Score,
		)
		if err != nil {
			return fmt.Errorf("insert similarity event: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByPair retrieves all events for a (reference, suspect) account pair.
func (s *SimilarityEventStore) GetByPair(ctx context.Context, referenceAccount, suspectAccount string) ([]*domain.SimilarityEvent, error) {
	query := `
		SELECT event_id, reference_account, suspect_account,
		       reference_trade_id, suspect_trade_id,
		       time_offset, direction_match, score
		FROM similarity_events
		WHERE reference_account = $1 AND suspect_account = $2
		ORDER BY reference_trade_id ASC, score DESC
	`

	rows, err := s.pool.Query(ctx, query, referenceAccount, suspectAccount)
	if err != nil {
		return nil, fmt.Errorf("get similarity events: %w", err)
	}
	defer rows.Close()

	var events []*domain.SimilarityEvent
	for rows.Next() {
		var ev domain.SimilarityEvent
		err := rows.Scan(
			&ev.EventID, &ev.ReferenceAccount, &ev.SuspectAccount,
			&ev.ReferenceTradeID, &ev.SuspectTradeID,
			&ev.TimeOffset, &ev.DirectionMatch, &ev.Score,
		)
		if err != nil {
			return nil, fmt.Errorf("scan similarity event: %w", err)
		}
		events = append(events, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate similarity events: %w", err)
	}
	return events, nil
}
