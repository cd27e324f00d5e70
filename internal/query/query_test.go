package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"progression/internal/application"
	"progression/internal/deadletter"
	"progression/internal/document"
	"progression/internal/events"
	"progression/internal/hearing"
	"progression/internal/notice"
	"progression/internal/projection"
	"progression/internal/prosecutioncase"
	"progression/pkg/domain"
	dErrors "progression/pkg/domain-errors"
	"progression/pkg/testutil"
)

const (
	caseID      = domain.CaseID("6f1c1c9e-3f4a-4c55-9b0d-1d6c2b4f0a01")
	defendantID = domain.DefendantID("6f1c1c9e-3f4a-4c55-9b0d-1d6c2b4f0a02")
	hearingID   = domain.HearingID("6f1c1c9e-3f4a-4c55-9b0d-1d6c2b4f0a03")
	appID       = domain.ApplicationID("6f1c1c9e-3f4a-4c55-9b0d-1d6c2b4f0a04")
)

func save[T any](t *testing.T, repo projection.Repository[T], id string, v *T) {
	t.Helper()
	_, err := repo.Save(context.Background(), id, v, 0)
	require.NoError(t, err)
}

func TestHearingIsEnrichedWithLiveStatuses(t *testing.T) {
	ctx := context.Background()
	store := projection.NewMemorySet()
	svc := New(store)

	save(t, store.Hearings, hearingID.String(), &hearing.Hearing{
		ID:                  hearingID,
		Status:              hearing.StatusInitialised,
		ProsecutionCases:    []events.HearingCase{{ID: caseID}},
		CourtApplicationIDs: []domain.ApplicationID{appID},
	})
	save(t, store.Cases, caseID.String(), &prosecutioncase.Case{
		ID:            caseID,
		Status:        prosecutioncase.StatusEjected,
		RemovalReason: "sent in error",
	})
	save(t, store.Applications, appID.String(), &application.Application{
		ID:     appID,
		Status: application.StatusEjected,
	})

	view, err := svc.Hearing(ctx, hearingID)
	require.NoError(t, err)
	require.Len(t, view.ProsecutionCases, 1)
	assert.Equal(t, prosecutioncase.StatusEjected, view.ProsecutionCases[0].CaseStatus)
	assert.Equal(t, "sent in error", view.ProsecutionCases[0].RemovalReason)
	require.Len(t, view.CourtApplications, 1)
	assert.Equal(t, application.StatusEjected, view.CourtApplications[0].ApplicationStatus)
}

func TestDeletedHearingIsNotFound(t *testing.T) {
	store := projection.NewMemorySet()
	svc := New(store)
	save(t, store.Hearings, hearingID.String(), &hearing.Hearing{ID: hearingID, Deleted: true})

	_, err := svc.Hearing(context.Background(), hearingID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = svc.Case(context.Background(), caseID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestDocumentsAreFilteredByCallerGroups(t *testing.T) {
	ctx := context.Background()
	store := projection.NewMemorySet()
	svc := New(store)

	testutil.Given(t, "case and defendant level documents readable by different groups", func(t *testing.T) {
		save(t, store.Documents, "doc-case", &document.Document{
			ID:                "doc-case",
			Category:          document.CategoryCase,
			ProsecutionCaseID: caseID,
			DocumentTypeRBAC:  events.DocumentRBAC{ReadUserGroups: []string{"Listing Officers"}},
		})
		save(t, store.Documents, "doc-defendant", &document.Document{
			ID:                "doc-defendant",
			Category:          document.CategoryDefendant,
			ProsecutionCaseID: caseID,
			DefendantIDs:      []domain.DefendantID{defendantID},
			DocumentTypeRBAC:  events.DocumentRBAC{ReadUserGroups: []string{"Defence Lawyers"}},
		})
		save(t, store.Documents, "doc-removed", &document.Document{
			ID:                "doc-removed",
			Category:          document.CategoryCase,
			ProsecutionCaseID: caseID,
			Removed:           true,
			DocumentTypeRBAC:  events.DocumentRBAC{ReadUserGroups: []string{"Defence Lawyers"}},
		})
	})

	testutil.When(t, "a defence lawyer reads the defendant's documents", func(t *testing.T) {
		idx, err := svc.Documents(ctx, []string{"Defence Lawyers"}, DocumentFilter{ProsecutionCaseID: caseID, DefendantID: defendantID})
		require.NoError(t, err)

		testutil.Then(t, "only the defendant level document is returned", func(t *testing.T) {
			require.Len(t, idx.DocumentIndices, 1)
			assert.Equal(t, domain.CourtDocumentID("doc-defendant"), idx.DocumentIndices[0].ID)
		})
	})

	testutil.When(t, "a caller in no permitted group reads the case", func(t *testing.T) {
		idx, err := svc.Documents(ctx, []string{"Court Clerks"}, DocumentFilter{ProsecutionCaseID: caseID})
		require.NoError(t, err)

		testutil.Then(t, "the index is empty rather than missing", func(t *testing.T) {
			assert.NotNil(t, idx.DocumentIndices)
			assert.Empty(t, idx.DocumentIndices)
		})
	})

	testutil.When(t, "no filter is given", func(t *testing.T) {
		_, err := svc.Documents(ctx, []string{"Defence Lawyers"}, DocumentFilter{})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestNoticesOfUnknownHearingAreEmpty(t *testing.T) {
	svc := New(projection.NewMemorySet())

	reg, err := svc.Notices(context.Background(), hearingID, notice.RegisterPress)
	require.NoError(t, err)
	assert.Empty(t, reg.Notices)
	assert.Equal(t, notice.RegisterPress, reg.Register)
}

func TestFailuresNewestFirst(t *testing.T) {
	store := deadletter.NewRingBuffer(10)
	for _, id := range []string{"first", "second"} {
		store.Enqueue(deadletter.Entry{ID: id, Kind: deadletter.KindFailure})
	}
	svc := New(projection.NewMemorySet(), WithFailures(store))

	list := svc.Failures(0)
	require.Len(t, list.Failures, 2)
	assert.Equal(t, "second", list.Failures[0].ID)

	assert.Empty(t, New(projection.NewMemorySet()).Failures(5).Failures)
}
