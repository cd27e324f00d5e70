package document

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"progression/internal/events"
	"progression/pkg/domain"
)

const (
	docID   domain.CourtDocumentID = "6d7e8f90-a1b2-4c3d-9e4f-5a6b7c8d9e01"
	caseID  domain.CaseID          = "6d7e8f90-a1b2-4c3d-9e4f-5a6b7c8d9e02"
	defID   domain.DefendantID     = "6d7e8f90-a1b2-4c3d-9e4f-5a6b7c8d9e03"
	otherID domain.DefendantID     = "6d7e8f90-a1b2-4c3d-9e4f-5a6b7c8d9e04"
	hearing domain.HearingID       = "6d7e8f90-a1b2-4c3d-9e4f-5a6b7c8d9e05"
)

func meta(name events.Name) events.Meta {
	return events.Meta{EventID: domain.NewEventID(), Name: name, OccurredAt: time.Now().UTC()}
}

func add(id domain.CourtDocumentID, defendants []domain.DefendantID, readers ...string) Document {
	d, _ := Add(meta(events.AddCourtDocument), events.AddCourtDocumentPayload{
		CourtDocumentID:   id,
		ProsecutionCaseID: caseID,
		DefendantIDs:      defendants,
		DocumentTypeID:    "SJP",
		Name:              "notice.pdf",
		DocumentTypeRBAC:  events.DocumentRBAC{ReadUserGroups: readers},
	})
	return *d
}

func names(out events.Outcome) []events.Name {
	var n []events.Name
	for _, e := range out.Events {
		n = append(n, e.Name)
	}
	return n
}

func TestAdd_InfersCategory(t *testing.T) {
	assert.Equal(t, CategoryCase, add(docID, nil).Category)
	assert.Equal(t, CategoryDefendant, add(docID, []domain.DefendantID{defID}).Category)

	d, _ := Add(meta(events.AddCourtDocument), events.AddCourtDocumentPayload{CourtDocumentID: docID, ApplicationID: "6d7e8f90-a1b2-4c3d-9e4f-5a6b7c8d9e06"})
	assert.Equal(t, CategoryApplication, d.Category)
}

func TestVisible(t *testing.T) {
	docs := []Document{
		add("6d7e8f90-a1b2-4c3d-9e4f-5a6b7c8d9e11", nil, "Listing Officers"),
		add("6d7e8f90-a1b2-4c3d-9e4f-5a6b7c8d9e12", []domain.DefendantID{defID}, "Defence Lawyers"),
		add("6d7e8f90-a1b2-4c3d-9e4f-5a6b7c8d9e13", []domain.DefendantID{otherID}, "Defence Lawyers"),
		add("6d7e8f90-a1b2-4c3d-9e4f-5a6b7c8d9e14", nil, "Judiciary"),
	}

	t.Run("case and defendant documents readable by the caller", func(t *testing.T) {
		got := Visible(docs, []string{"listing officers", "Defence Lawyers"}, caseID, defID, "")
		require.Len(t, got, 2)
		assert.Equal(t, docs[0].ID, got[0].ID)
		assert.Equal(t, docs[1].ID, got[1].ID)
	})

	t.Run("no shared group yields an empty list", func(t *testing.T) {
		got := Visible(docs, []string{"Court Clerks"}, caseID, defID, "")
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("removed documents are hidden", func(t *testing.T) {
		removed := docs[0]
		removed.Remove(meta(events.RemoveCourtDocument))
		assert.Empty(t, Visible([]Document{removed}, []string{"Listing Officers"}, caseID, "", ""))
	})
}

func TestShare(t *testing.T) {
	d := add(docID, nil, "Listing Officers")
	share := events.ShareCourtDocumentPayload{
		CourtDocumentID:     docID,
		HearingID:           hearing,
		HearingTypeCategory: events.CategoryTrial,
		UserGroups:          []string{"Defence Lawyers"},
	}

	assert.Equal(t, []events.Name{events.CourtDocumentShared}, names(d.Share(meta(events.ShareCourtDocument), share)))
	assert.Equal(t, []events.Name{events.DuplicateShareCourtDocumentReceived}, names(d.Share(meta(events.ShareCourtDocument), share)))
	assert.Len(t, d.Shares, 1)

	t.Run("removed document cannot be shared", func(t *testing.T) {
		assert.Equal(t, []events.Name{events.CourtDocumentRemoved}, names(d.Remove(meta(events.RemoveCourtDocument))))
		assert.Equal(t, []events.Name{events.ShareCourtDocumentFailed}, names(d.Share(meta(events.ShareCourtDocument), share)))
	})

	t.Run("unknown document is not found", func(t *testing.T) {
		assert.Equal(t, []events.Name{events.OperationFailed}, names(ShareUnknown(meta(events.ShareCourtDocument), share)))
	})
}
