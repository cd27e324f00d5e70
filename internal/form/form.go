// Package form holds court forms. Failures are reported as
// progression.form-operation-failed rather than the generic failure event.
package form

import (
	"encoding/json"
	"time"

	"progression/internal/events"
	"progression/pkg/domain"
	dErrors "progression/pkg/domain-errors"
)

// Kind names the projection and the sequencing key prefix.
const Kind = "form"

// Status is the form status.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusFinalised Status = "FINALISED"
)

// Operation names used on failure events.
const (
	OperationCreate   = "CREATE"
	OperationUpdate   = "UPDATE"
	OperationFinalise = "FINALISE"
)

// Form is the court form projection. FormData is opaque.
type Form struct {
	ID                domain.CourtFormID   `json:"courtFormId"`
	ProsecutionCaseID domain.CaseID        `json:"prosecutionCaseId"`
	FormType          string               `json:"formType"`
	DefendantIDs      []domain.DefendantID `json:"defendantIds,omitempty"`
	FormData          json.RawMessage      `json:"formData,omitempty"`
	Status            Status               `json:"status"`
	LastUpdated       time.Time            `json:"lastUpdated"`
}

// Create creates a form.
func Create(m events.Meta, p events.CreateCourtFormPayload) (*Form, events.Outcome) {
	var out events.Outcome
	f := &Form{
		ID:                p.CourtFormID,
		ProsecutionCaseID: p.ProsecutionCaseID,
		FormType:          p.FormType,
		DefendantIDs:      p.DefendantIDs,
		FormData:          p.FormData,
		Status:            StatusDraft,
		LastUpdated:       m.OccurredAt,
	}
	out.Publish(events.FormCreated, f.ID.String(), f)
	return f, out
}

// Failed reports a form operation that could not be applied.
func Failed(id domain.CourtFormID, operation string, code dErrors.Code, message string) events.Outcome {
	var out events.Outcome
	out.Publish(events.FormOperationFailed, id.String(), events.FormOperationFailedPayload{
		CourtFormID: id,
		Operation:   operation,
		Code:        string(code),
		Message:     message,
	})
	return out
}

// Exists answers a second creation of the same form.
func (f *Form) Exists() events.Outcome {
	return Failed(f.ID, OperationCreate, dErrors.CodeConflict, "court form already exists")
}

// Update replaces the form data of a draft form.
func (f *Form) Update(m events.Meta, p events.UpdateCourtFormPayload) events.Outcome {
	if f.Status == StatusFinalised {
		return Failed(f.ID, OperationUpdate, dErrors.CodeInvariantViolation, "court form is finalised")
	}
	var out events.Outcome
	if p.DefendantIDs != nil {
		f.DefendantIDs = p.DefendantIDs
	}
	f.FormData = p.FormData
	f.LastUpdated = m.OccurredAt
	out.Publish(events.FormUpdated, f.ID.String(), f)
	return out
}

// Finalise finalises the form. Finalising twice is a no-op.
func (f *Form) Finalise(m events.Meta) events.Outcome {
	var out events.Outcome
	if f.Status == StatusFinalised {
		return out
	}
	f.Status = StatusFinalised
	f.LastUpdated = m.OccurredAt
	out.Publish(events.FormFinalised, f.ID.String(), f)
	return out
}
