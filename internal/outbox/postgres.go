package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"progression/internal/events"
	"progression/pkg/domain"
	"progression/pkg/platform/tx"
)

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Postgres writes messages to the outbox table in the caller's transaction.
// The Relay delivers them.
type Postgres struct {
	db *sql.DB
}

// NewPostgres creates an outbox on db.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) execer(ctx context.Context) dbExecutor {
	if sqlTx, ok := tx.From(ctx); ok {
		return sqlTx
	}
	return p.db
}

func (p *Postgres) Publish(ctx context.Context, causedBy domain.EventID, evs []events.Public) error {
	msgs, err := Messages(causedBy, evs, time.Now())
	if err != nil {
		return err
	}
	for _, msg := range msgs {
		_, err := p.execer(ctx).ExecContext(ctx, `
			INSERT INTO outbox (id, causation_id, aggregate_id, event_type, payload, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO NOTHING
		`, string(msg.ID), string(msg.CausationID), msg.Key, string(msg.Name), []byte(msg.Payload), msg.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert outbox entry: %w", err)
		}
	}
	return nil
}

// Claim locks up to limit undelivered messages in creation order. It must run
// inside a transaction; rows locked by another relay are skipped.
func (p *Postgres) Claim(ctx context.Context, limit int) ([]Message, error) {
	rows, err := p.execer(ctx).QueryContext(ctx, `
		SELECT id, causation_id, aggregate_id, event_type, payload, created_at
		FROM outbox
		WHERE processed_at IS NULL
		ORDER BY created_at, id
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("claim outbox entries: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var (
			msg                 Message
			id, causation, name string
			payload             []byte
		)
		if err := rows.Scan(&id, &causation, &msg.Key, &name, &payload, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		msg.ID = domain.EventID(id)
		msg.CausationID = domain.EventID(causation)
		msg.Name = events.Name(name)
		msg.Payload = payload
		out = append(out, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox entries: %w", err)
	}
	return out, nil
}

// MarkProcessed stamps the given messages as delivered.
func (p *Postgres) MarkProcessed(ctx context.Context, ids []domain.EventID) error {
	if len(ids) == 0 {
		return nil
	}
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = string(id)
	}
	_, err := p.execer(ctx).ExecContext(ctx,
		`UPDATE outbox SET processed_at = now() WHERE id = ANY($1::uuid[])`, pq.Array(raw))
	if err != nil {
		return fmt.Errorf("mark outbox entries processed: %w", err)
	}
	return nil
}

// Purge deletes delivered messages older than cutoff.
func (p *Postgres) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := p.db.ExecContext(ctx,
		`DELETE FROM outbox WHERE processed_at IS NOT NULL AND processed_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge outbox: %w", err)
	}
	return res.RowsAffected()
}
