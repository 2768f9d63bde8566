package clickhouse

import (
	"context"
	"fmt"

	"copytrade-engine/internal/domain"
	"copytrade-engine/internal/storage"
)

// SimilarityEventStore implements storage.SimilarityEventStore using ClickHouse.
type SimilarityEventStore struct {
	conn *Conn
}

// NewSimilarityEventStore creates a new SimilarityEventStore.
func NewSimilarityEventStore(conn *Conn) *SimilarityEventStore {
	return &SimilarityEventStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SimilarityEventStore = (*SimilarityEventStore)(nil)

// InsertBulk adds a scan's events, skipping any whose event_id already
// exists. Re-running an identical scan is a no-op.
func (s *SimilarityEventStore) InsertBulk(ctx context.Context, events []*domain.SimilarityEvent) error {
	if len(events) == 0 {
		return nil
	}

	var fresh []*domain.SimilarityEvent
	seen := make(map[string]struct{})
	for _, e := range events {
		if _, dup := seen[e.EventID]; dup {
			continue
		}
		seen[e.EventID] = struct{}{}

		exists, err := s.exists(ctx, e.EventID)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if !exists {
			fresh = append(fresh, e)
		}
	}
	if len(fresh) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO similarity_events (
			event_id, reference_account, suspect_account,
			reference_trade_id, suspect_trade_id,
			time_offset, direction_match, score
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, e := range fresh {
		var match uint8
		if e.DirectionMatch {
			match = 1
		}
		err = batch.Append(
			e.EventID, e.ReferenceAccount, e.SuspectAccount,
			e.ReferenceTradeID, e.SuspectTradeID,
			e.TimeOffset, match, e.Score,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
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
		WHERE reference_account = ? AND suspect_account = ?
		ORDER BY reference_trade_id ASC, score DESC
	`

	rows, err := s.conn.Query(ctx, query, referenceAccount, suspectAccount)
	if err != nil {
		return nil, fmt.Errorf("query by pair: %w", err)
	}
	defer rows.Close()

	var events []*domain.SimilarityEvent
	for rows.Next() {
		var e domain.SimilarityEvent
		var match uint8

		err := rows.Scan(
			&e.EventID, &e.ReferenceAccount, &e.SuspectAccount,
			&e.ReferenceTradeID, &e.SuspectTradeID,
			&e.TimeOffset, &match, &e.Score,
		)
		if err != nil {
			return nil, fmt.Errorf("scan similarity event row: %w", err)
		}

		e.DirectionMatch = match != 0
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate similarity event rows: %w", err)
	}

	return events, nil
}

// exists checks if an event with the given id exists.
func (s *SimilarityEventStore) exists(ctx context.Context, eventID string) (bool, error) {
	query := `SELECT count(*) FROM similarity_events WHERE event_id = ?`

	var count uint64
	err := s.conn.QueryRow(ctx, query, eventID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
