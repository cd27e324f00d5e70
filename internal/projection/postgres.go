package projection

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"progression/internal/platform/postgres"
	"progression/pkg/platform/sentinel"
	"progression/pkg/platform/tx"
)

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type postgresRepository[T any] struct {
	db   *sql.DB
	kind string
}

// NewPostgres returns the repository for kind stored in the projections
// table. Writes join the transaction carried by the context.
func NewPostgres[T any](db *sql.DB, kind string) Repository[T] {
	return &postgresRepository[T]{db: db, kind: kind}
}

func (r *postgresRepository[T]) execer(ctx context.Context) dbExecutor {
	if sqlTx, ok := tx.From(ctx); ok {
		return sqlTx
	}
	return r.db
}

func (r *postgresRepository[T]) Kind() string { return r.kind }

func (r *postgresRepository[T]) Load(ctx context.Context, id string) (*T, int64, error) {
	var (
		version int64
		body    []byte
	)
	err := r.execer(ctx).QueryRowContext(ctx,
		`SELECT version, body FROM projections WHERE kind = $1 AND id = $2`,
		r.kind, id,
	).Scan(&version, &body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, sentinel.ErrNotFound
		}
		return nil, 0, fmt.Errorf("load %s %s: %w", r.kind, id, err)
	}
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, 0, fmt.Errorf("decode %s %s: %w", r.kind, id, err)
	}
	return &v, version, nil
}

func (r *postgresRepository[T]) Save(ctx context.Context, id string, value *T, expectedVersion int64) (int64, error) {
	body, err := json.Marshal(value)
	if err != nil {
		return 0, fmt.Errorf("encode %s %s: %w", r.kind, id, err)
	}

	var res sql.Result
	if expectedVersion == 0 {
		res, err = r.execer(ctx).ExecContext(ctx, `
			INSERT INTO projections (kind, id, version, body, updated_at)
			VALUES ($1, $2, 1, $3, now())
			ON CONFLICT (kind, id) DO NOTHING
		`, r.kind, id, body)
	} else {
		res, err = r.execer(ctx).ExecContext(ctx, `
			UPDATE projections SET version = version + 1, body = $3, updated_at = now()
			WHERE kind = $1 AND id = $2 AND version = $4
		`, r.kind, id, body, expectedVersion)
	}
	if err != nil {
		if postgres.IsSerializationFailure(err) || postgres.IsUniqueViolation(err) {
			return 0, fmt.Errorf("save %s %s: %w", r.kind, id, sentinel.ErrVersionConflict)
		}
		return 0, fmt.Errorf("save %s %s: %w", r.kind, id, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("save %s %s: %w", r.kind, id, err)
	}
	if rows == 0 {
		return 0, sentinel.ErrVersionConflict
	}
	return expectedVersion + 1, nil
}

func (r *postgresRepository[T]) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.execer(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM projections WHERE kind = $1 AND id = $2)`,
		r.kind, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check %s %s: %w", r.kind, id, err)
	}
	return exists, nil
}

func (r *postgresRepository[T]) Find(ctx context.Context, filter Filter) ([]T, error) {
	containment, err := json.Marshal(filter)
	if err != nil {
		return nil, fmt.Errorf("encode filter: %w", err)
	}
	rows, err := r.execer(ctx).QueryContext(ctx,
		`SELECT body FROM projections WHERE kind = $1 AND body @> $2::jsonb ORDER BY id`,
		r.kind, containment,
	)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", r.kind, err)
	}
	defer rows.Close()

	found := []T{}
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan %s: %w", r.kind, err)
		}
		var v T
		if err := json.Unmarshal(body, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", r.kind, err)
		}
		found = append(found, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", r.kind, err)
	}
	return found, nil
}
