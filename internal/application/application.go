// Package application holds the court application aggregate: its reference,
// linkage to a case or parent application, listing and ejection.
package application

import (
	"crypto/sha256"
	"slices"

	"progression/internal/events"
	"progression/pkg/domain"
	dErrors "progression/pkg/domain-errors"
)

// Kind names the projection and the sequencing key prefix.
const Kind = "application"

// Status is the application status.
type Status string

const (
	StatusDraft   Status = "DRAFT"
	StatusListed  Status = "LISTED"
	StatusEjected Status = "EJECTED"
)

// LinkType tells whether the application belongs to a case.
type LinkType string

const (
	LinkLinked     LinkType = "LINKED"
	LinkStandalone LinkType = "STANDALONE"
)

const referenceLength = 10

// Application is the court application projection.
type Application struct {
	ID                   domain.ApplicationID   `json:"id"`
	ApplicationReference string                 `json:"applicationReference"`
	ApplicationType      string                 `json:"applicationType"`
	Status               Status                 `json:"applicationStatus"`
	LinkType             LinkType               `json:"linkType"`
	ProsecutionCaseID    domain.CaseID          `json:"prosecutionCaseId,omitempty"`
	ParentApplicationID  domain.ApplicationID   `json:"parentApplicationId,omitempty"`
	ChildApplicationIDs  []domain.ApplicationID `json:"childApplicationIds,omitempty"`
	HearingIDs           []domain.HearingID     `json:"hearingIds,omitempty"`
	RemovalReason        string                 `json:"removalReason,omitempty"`
	LaaApplnReference    *events.LaaReference   `json:"laaApplnReference,omitempty"`
}

// CreatedPayload is progression.court-application-created.
type CreatedPayload struct {
	Application Application `json:"courtApplication"`
}

// ListedPayload is progression.court-application-listed.
type ListedPayload struct {
	ApplicationID domain.ApplicationID `json:"applicationId"`
	HearingID     domain.HearingID     `json:"hearingId"`
}

// New creates an application. Linked applications arrive with the reference
// their case assigned; standalone ones get a generated reference.
func New(m events.Meta, p events.CreateCourtApplicationPayload) (*Application, events.Outcome) {
	var out events.Outcome
	a := &Application{
		ID:                   p.ApplicationID,
		ApplicationReference: p.ApplicationReference,
		ApplicationType:      p.ApplicationType,
		Status:               StatusDraft,
		LinkType:             LinkStandalone,
		ProsecutionCaseID:    p.ProsecutionCaseID,
		ParentApplicationID:  p.ParentApplicationID,
	}
	if a.ProsecutionCaseID != "" {
		a.LinkType = LinkLinked
	}
	if a.ApplicationReference == "" {
		a.ApplicationReference = GenerateReference(m.EventID)
	}
	if a.ParentApplicationID != "" {
		out.Follow(m, events.RegisterChildApplication, a.ParentApplicationID.String(), events.RegisterChildApplicationPayload{
			ParentApplicationID: a.ParentApplicationID,
			ChildApplicationID:  a.ID,
		})
	}
	out.Publish(events.CourtApplicationCreated, a.ID.String(), CreatedPayload{Application: *a})
	return a, out
}

// Exists answers a second creation of the same application.
func (a *Application) Exists(m events.Meta) events.Outcome {
	var out events.Outcome
	out.Fail(m, a.ID.String(), dErrors.CodeConflict, "court application already exists")
	return out
}

// GenerateReference returns a fixed length upper-case alphanumeric reference.
// It derives from the creating event so a redelivered creation gets the same one.
func GenerateReference(id domain.EventID) string {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	sum := sha256.Sum256([]byte(id))
	ref := make([]byte, referenceLength)
	for i := range ref {
		ref[i] = alphabet[int(sum[i])%len(alphabet)]
	}
	return string(ref)
}

// RegisterChild links a child application.
func (a *Application) RegisterChild(p events.RegisterChildApplicationPayload) bool {
	if slices.Contains(a.ChildApplicationIDs, p.ChildApplicationID) {
		return false
	}
	a.ChildApplicationIDs = append(a.ChildApplicationIDs, p.ChildApplicationID)
	return true
}

// MarkListed records the hearing the application is listed in.
func (a *Application) MarkListed(m events.Meta, p events.MarkApplicationListedPayload) events.Outcome {
	var out events.Outcome
	if slices.Contains(a.HearingIDs, p.HearingID) {
		return out
	}
	a.HearingIDs = append(a.HearingIDs, p.HearingID)
	if a.Status == StatusEjected {
		return out
	}
	a.Status = StatusListed
	a.summary(m, &out)
	out.Publish(events.CourtApplicationListed, a.ID.String(), ListedPayload{ApplicationID: a.ID, HearingID: p.HearingID})
	return out
}

// Eject ejects the application and its children.
func (a *Application) Eject(m events.Meta, reason string) events.Outcome {
	var out events.Outcome
	if a.Status == StatusEjected {
		return out
	}
	a.Status = StatusEjected
	a.RemovalReason = reason
	for _, child := range a.ChildApplicationIDs {
		out.Follow(m, events.EjectLinkedApplication, child.String(), events.EjectLinkedApplicationPayload{
			ApplicationID: child,
			RemovalReason: reason,
		})
	}
	a.summary(m, &out)
	out.Publish(events.CaseOrApplicationEjected, a.ID.String(), events.CaseOrApplicationEjectedPayload{
		ApplicationID: a.ID,
		RemovalReason: reason,
	})
	return out
}

// summary mirrors the status onto the owning case.
func (a *Application) summary(m events.Meta, out *events.Outcome) {
	if a.ProsecutionCaseID == "" {
		return
	}
	out.Follow(m, events.UpdateApplicationSummary, a.ProsecutionCaseID.String(), events.UpdateApplicationSummaryPayload{
		ProsecutionCaseID:    a.ProsecutionCaseID,
		ApplicationID:        a.ID,
		ApplicationReference: a.ApplicationReference,
		ApplicationStatus:    string(a.Status),
		RemovalReason:        a.RemovalReason,
	})
}

// RecordLaaReference records a legal aid reference on the application.
func (a *Application) RecordLaaReference(m events.Meta, p events.RecordApplicationLaaReferencePayload) events.Outcome {
	var out events.Outcome
	ref := p.LaaReference
	a.LaaApplnReference = &ref
	out.Publish(events.LaaReferenceRecorded, a.ID.String(), events.LaaReferenceRecordedPayload{
		ApplicationID:     a.ID,
		ProsecutionCaseID: a.ProsecutionCaseID,
		LaaReference:      ref,
	})
	return out
}
