//go:build integration

package gate

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"progression/internal/platform/postgres"
	"progression/pkg/domain"
	"progression/pkg/platform/sentinel"
	"progression/pkg/platform/tx"
	"progression/pkg/testutil/containers"
)

func TestPostgresLedger(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	require.NoError(t, postgres.Migrate(pg.DB, slog.Default()))
	ledger := NewPostgresLedger(pg.DB)
	ctx := context.Background()
	id := domain.NewEventID()

	t.Run("commit then seen", func(t *testing.T) {
		seen, err := ledger.Seen(ctx, id)
		require.NoError(t, err)
		require.False(t, seen)

		require.NoError(t, ledger.Commit(ctx, id, "hearing-confirmed"))
		seen, err = ledger.Seen(ctx, id)
		require.NoError(t, err)
		require.True(t, seen)
	})

	t.Run("second commit conflicts", func(t *testing.T) {
		require.ErrorIs(t, ledger.Commit(ctx, id, "hearing-confirmed"), sentinel.ErrConflict)
	})

	t.Run("rolled back commit is not recorded", func(t *testing.T) {
		other := domain.NewEventID()
		err := tx.SQLRunner{DB: pg.DB}.RunInTx(ctx, func(ctx context.Context) error {
			require.NoError(t, ledger.Commit(ctx, other, "hearing-updated"))
			return sentinel.ErrVersionConflict
		})
		require.ErrorIs(t, err, sentinel.ErrVersionConflict)

		seen, err := ledger.Seen(ctx, other)
		require.NoError(t, err)
		require.False(t, seen)
	})

	t.Run("prune removes old ids", func(t *testing.T) {
		n, err := ledger.Prune(ctx, time.Now().Add(time.Hour))
		require.NoError(t, err)
		require.EqualValues(t, 1, n)
	})
}

func TestRedisLedger(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ledger := NewRedisLedger(rc.Client, time.Hour)
	ctx := context.Background()
	id := domain.NewEventID()

	seen, err := ledger.Seen(ctx, id)
	require.NoError(t, err)
	require.False(t, seen)

	require.NoError(t, ledger.Commit(ctx, id, "case-referred"))
	require.ErrorIs(t, ledger.Commit(ctx, id, "case-referred"), sentinel.ErrConflict)

	seen, err = ledger.Seen(ctx, id)
	require.NoError(t, err)
	require.True(t, seen)
}
