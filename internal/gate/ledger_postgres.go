package gate

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"progression/internal/events"
	"progression/pkg/domain"
	"progression/pkg/platform/sentinel"
	"progression/pkg/platform/tx"
)

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresLedger records processed ids in processed_events, in the same
// transaction as the projection writes.
type PostgresLedger struct {
	db *sql.DB
}

// NewPostgresLedger creates a ledger on db.
func NewPostgresLedger(db *sql.DB) *PostgresLedger {
	return &PostgresLedger{db: db}
}

func (l *PostgresLedger) execer(ctx context.Context) dbExecutor {
	if sqlTx, ok := tx.From(ctx); ok {
		return sqlTx
	}
	return l.db
}

func (l *PostgresLedger) Seen(ctx context.Context, id domain.EventID) (bool, error) {
	var seen bool
	err := l.execer(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM processed_events WHERE event_id = $1)`, string(id),
	).Scan(&seen)
	if err != nil {
		return false, fmt.Errorf("check processed event: %w", err)
	}
	return seen, nil
}

func (l *PostgresLedger) Commit(ctx context.Context, id domain.EventID, name events.Name) error {
	res, err := l.execer(ctx).ExecContext(ctx, `
		INSERT INTO processed_events (event_id, event_name, processed_at)
		VALUES ($1, $2, now())
		ON CONFLICT (event_id) DO NOTHING
	`, string(id), string(name))
	if err != nil {
		return fmt.Errorf("record processed event: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("record processed event: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

// Prune deletes ids recorded before cutoff and returns how many went.
func (l *PostgresLedger) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := l.db.ExecContext(ctx, `DELETE FROM processed_events WHERE processed_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune processed events: %w", err)
	}
	return res.RowsAffected()
}
