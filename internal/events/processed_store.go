package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type rowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ProcessedRetention outlives the longest SQS message retention period, so
// a purged row can never be redelivered.
const ProcessedRetention = 15 * 24 * time.Hour

// ProcessedStore remembers which queue events a consumer has finished, so a
// redelivered appointment.created.v1 does not send its emails twice.
type ProcessedStore struct {
	db  rowQuerier
	now func() time.Time
}

// NewProcessedStore accepts a *pgxpool.Pool or a pgxmock pool.
func NewProcessedStore(db rowQuerier) *ProcessedStore {
	if db == nil {
		panic("events: pgx pool required")
	}
	return &ProcessedStore{db: db, now: time.Now}
}

// AlreadyProcessed reports whether consumer has recorded eventID.
func (s *ProcessedStore) AlreadyProcessed(ctx context.Context, consumer, eventID string) (bool, error) {
	query := `SELECT 1 FROM processed_events WHERE consumer = $1 AND event_id = $2`
	var exists int
	if err := s.db.QueryRow(ctx, query, consumer, eventID).Scan(&exists); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("events: check processed: %w", err)
	}
	return true, nil
}

// MarkProcessed records eventID for consumer. It returns false when the
// event was already recorded.
func (s *ProcessedStore) MarkProcessed(ctx context.Context, consumer, eventID string) (bool, error) {
	query := `
		INSERT INTO processed_events (consumer, event_id, processed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (consumer, event_id) DO NOTHING
	`
	ct, err := s.db.Exec(ctx, query, consumer, eventID, s.now().UTC())
	if err != nil {
		return false, fmt.Errorf("events: mark processed: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

// Purge deletes consumer's records older than retention and returns how
// many were removed.
func (s *ProcessedStore) Purge(ctx context.Context, consumer string, retention time.Duration) (int64, error) {
	cutoff := s.now().UTC().Add(-retention)
	ct, err := s.db.Exec(ctx, `DELETE FROM processed_events WHERE consumer = $1 AND processed_at < $2`, consumer, cutoff)
	if err != nil {
		return 0, fmt.Errorf("events: purge processed: %w", err)
	}
	return ct.RowsAffected(), nil
}
