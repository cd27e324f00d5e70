//go:build integration

package projection

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"progression/internal/document"
	"progression/internal/platform/postgres"
	"progression/pkg/domain"
	"progression/pkg/platform/sentinel"
	"progression/pkg/platform/tx"
	"progression/pkg/testutil/containers"
)

func TestPostgresRepository(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	require.NoError(t, postgres.Migrate(pg.DB, slog.Default()))
	ctx := context.Background()
	repo := NewPostgres[document.Document](pg.DB, document.Kind)

	t.Run("versions and conflicts", func(t *testing.T) {
		require.NoError(t, pg.Truncate(ctx, "projections"))
		_, _, err := repo.Load(ctx, "d1")
		require.ErrorIs(t, err, sentinel.ErrNotFound)

		v, err := repo.Save(ctx, "d1", &document.Document{ID: "d1", Name: "a.pdf"}, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(1), v)

		_, err = repo.Save(ctx, "d1", &document.Document{ID: "d1"}, 0)
		assert.ErrorIs(t, err, sentinel.ErrVersionConflict)

		v, err = repo.Save(ctx, "d1", &document.Document{ID: "d1", Name: "b.pdf"}, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(2), v)

		_, err = repo.Save(ctx, "d1", &document.Document{ID: "d1"}, 1)
		assert.ErrorIs(t, err, sentinel.ErrVersionConflict)

		loaded, version, err := repo.Load(ctx, "d1")
		require.NoError(t, err)
		assert.Equal(t, int64(2), version)
		assert.Equal(t, "b.pdf", loaded.Name)
	})

	t.Run("find by containment", func(t *testing.T) {
		require.NoError(t, pg.Truncate(ctx, "projections"))
		caseA := domain.CaseID("case-a")
		for id, c := range map[string]domain.CaseID{"d1": caseA, "d2": "case-b", "d3": caseA} {
			_, err := repo.Save(ctx, id, &document.Document{ID: domain.CourtDocumentID(id), ProsecutionCaseID: c}, 0)
			require.NoError(t, err)
		}

		found, err := repo.Find(ctx, Filter{"prosecutionCaseId": caseA})
		require.NoError(t, err)
		require.Len(t, found, 2)
		assert.Equal(t, domain.CourtDocumentID("d1"), found[0].ID)
		assert.Equal(t, domain.CourtDocumentID("d3"), found[1].ID)
	})

	t.Run("rolled back transaction leaves no snapshot", func(t *testing.T) {
		require.NoError(t, pg.Truncate(ctx, "projections"))
		runner := tx.SQLRunner{DB: pg.DB}
		err := runner.RunInTx(ctx, func(ctx context.Context) error {
			if _, err := repo.Save(ctx, "d9", &document.Document{ID: "d9"}, 0); err != nil {
				return err
			}
			return sentinel.ErrUnavailable
		})
		require.ErrorIs(t, err, sentinel.ErrUnavailable)

		exists, err := repo.Exists(ctx, "d9")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}
