// Package document indexes court document metadata, decides who may see a
// document, and tracks who it was shared with.
package document

import (
	"time"

	"progression/internal/events"
	"progression/pkg/domain"
	dErrors "progression/pkg/domain-errors"
	"progression/pkg/platform/strings"
)

// Kind names the projection and the sequencing key prefix.
const Kind = "document"

// Category is the level a document is indexed at.
type Category string

const (
	CategoryCase        Category = "CASE"
	CategoryDefendant   Category = "DEFENDANT"
	CategoryApplication Category = "APPLICATION"
)

// Document is the court document index entry. Binaries are stored elsewhere.
type Document struct {
	ID                      domain.CourtDocumentID `json:"courtDocumentId"`
	Category                Category               `json:"documentCategory"`
	ProsecutionCaseID       domain.CaseID          `json:"prosecutionCaseId,omitempty"`
	DefendantIDs            []domain.DefendantID   `json:"defendantIds,omitempty"`
	ApplicationID           domain.ApplicationID   `json:"applicationId,omitempty"`
	DocumentTypeID          string                 `json:"documentTypeId"`
	DocumentTypeDescription string                 `json:"documentTypeDescription,omitempty"`
	Name                    string                 `json:"name"`
	MimeType                string                 `json:"mimeType,omitempty"`
	DocumentTypeRBAC        events.DocumentRBAC    `json:"documentTypeRBAC"`
	Removed                 bool                   `json:"removed,omitempty"`
	Shares                  []Share                `json:"shares,omitempty"`
}

// Share records one (hearing, user group) share.
type Share struct {
	HearingID           domain.HearingID           `json:"hearingId"`
	HearingTypeCategory events.HearingTypeCategory `json:"hearingTypeCategory"`
	UserGroup           string                     `json:"userGroup"`
	SharedAt            time.Time                  `json:"sharedAt"`
}

// SharedPayload is progression.court-document-shared and the duplicate share event.
type SharedPayload struct {
	CourtDocumentID     domain.CourtDocumentID     `json:"courtDocumentId"`
	HearingID           domain.HearingID           `json:"hearingId"`
	HearingTypeCategory events.HearingTypeCategory `json:"hearingTypeCategory"`
	UserGroups          []string                   `json:"userGroups"`
}

// ShareFailedPayload is progression.share-court-document-failed.
type ShareFailedPayload struct {
	CourtDocumentID domain.CourtDocumentID `json:"courtDocumentId"`
	HearingID       domain.HearingID       `json:"hearingId"`
	Reason          string                 `json:"reason"`
}

// RemovedPayload is progression.court-document-removed.
type RemovedPayload struct {
	CourtDocumentID domain.CourtDocumentID `json:"courtDocumentId"`
}

// Add indexes a document. The category follows from what it is attached to.
func Add(m events.Meta, p events.AddCourtDocumentPayload) (*Document, events.Outcome) {
	var out events.Outcome
	d := &Document{
		ID:                      p.CourtDocumentID,
		ProsecutionCaseID:       p.ProsecutionCaseID,
		DefendantIDs:            p.DefendantIDs,
		ApplicationID:           p.ApplicationID,
		DocumentTypeID:          p.DocumentTypeID,
		DocumentTypeDescription: p.DocumentTypeDescription,
		Name:                    p.Name,
		MimeType:                p.MimeType,
		DocumentTypeRBAC:        p.DocumentTypeRBAC,
	}
	switch {
	case p.ApplicationID != "":
		d.Category = CategoryApplication
	case len(p.DefendantIDs) > 0:
		d.Category = CategoryDefendant
	default:
		d.Category = CategoryCase
	}
	out.Publish(events.CourtDocumentAdded, d.ID.String(), d)
	return d, out
}

// Exists answers a second add of the same document.
func (d *Document) Exists(m events.Meta) events.Outcome {
	var out events.Outcome
	out.Fail(m, d.ID.String(), dErrors.CodeConflict, "court document already exists")
	return out
}

// ShareUnknown answers a share of a document that was never indexed.
func ShareUnknown(m events.Meta, p events.ShareCourtDocumentPayload) events.Outcome {
	var out events.Outcome
	out.Fail(m, p.CourtDocumentID.String(), dErrors.CodeNotFound, "court document not found")
	return out
}

// Share shares the document for a hearing. Groups already shared for the
// hearing are reported as duplicates.
func (d *Document) Share(m events.Meta, p events.ShareCourtDocumentPayload) events.Outcome {
	var out events.Outcome
	if d.Removed {
		out.Publish(events.ShareCourtDocumentFailed, d.ID.String(), ShareFailedPayload{
			CourtDocumentID: d.ID,
			HearingID:       p.HearingID,
			Reason:          "court document has been removed",
		})
		return out
	}

	var fresh, repeated []string
	for _, group := range strings.DedupeAndTrim(p.UserGroups) {
		if d.sharedWith(p.HearingID, group) {
			repeated = append(repeated, group)
			continue
		}
		d.Shares = append(d.Shares, Share{
			HearingID:           p.HearingID,
			HearingTypeCategory: p.HearingTypeCategory,
			UserGroup:           group,
			SharedAt:            m.OccurredAt,
		})
		fresh = append(fresh, group)
	}
	if len(repeated) > 0 {
		out.Publish(events.DuplicateShareCourtDocumentReceived, d.ID.String(), SharedPayload{
			CourtDocumentID:     d.ID,
			HearingID:           p.HearingID,
			HearingTypeCategory: p.HearingTypeCategory,
			UserGroups:          repeated,
		})
	}
	if len(fresh) > 0 {
		out.Publish(events.CourtDocumentShared, d.ID.String(), SharedPayload{
			CourtDocumentID:     d.ID,
			HearingID:           p.HearingID,
			HearingTypeCategory: p.HearingTypeCategory,
			UserGroups:          fresh,
		})
	}
	return out
}

func (d *Document) sharedWith(hearingID domain.HearingID, group string) bool {
	for _, s := range d.Shares {
		if s.HearingID == hearingID && s.UserGroup == group {
			return true
		}
	}
	return false
}

// Remove logically removes the document.
func (d *Document) Remove(m events.Meta) events.Outcome {
	var out events.Outcome
	if d.Removed {
		return out
	}
	d.Removed = true
	out.Publish(events.CourtDocumentRemoved, d.ID.String(), RemovedPayload{CourtDocumentID: d.ID})
	return out
}

// Readable reports whether a caller in groups may read the document.
func (d *Document) Readable(groups []string) bool {
	return !d.Removed && strings.Intersects(d.DocumentTypeRBAC.ReadUserGroups, groups)
}

// Visible returns the case level documents of caseID and, when defendantID is
// set, that defendant's documents, filtered to those the caller may read.
// Without a caseID it returns the readable documents of applicationID.
func Visible(docs []Document, groups []string, caseID domain.CaseID, defendantID domain.DefendantID, applicationID domain.ApplicationID) []Document {
	visible := []Document{}
	for _, d := range docs {
		if !d.Readable(groups) || !d.indexedUnder(caseID, defendantID, applicationID) {
			continue
		}
		visible = append(visible, d)
	}
	return visible
}

func (d *Document) indexedUnder(caseID domain.CaseID, defendantID domain.DefendantID, applicationID domain.ApplicationID) bool {
	switch d.Category {
	case CategoryCase:
		return caseID != "" && d.ProsecutionCaseID == caseID
	case CategoryDefendant:
		if caseID == "" || d.ProsecutionCaseID != caseID {
			return false
		}
		if defendantID == "" {
			return true
		}
		for _, id := range d.DefendantIDs {
			if id == defendantID {
				return true
			}
		}
		return false
	case CategoryApplication:
		return applicationID != "" && d.ApplicationID == applicationID
	}
	return false
}
