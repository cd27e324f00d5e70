package events

import (
	"progression/pkg/domain"
	dErrors "progression/pkg/domain-errors"
)

// OperationFailedPayload is progression.operation-failed.
type OperationFailedPayload struct {
	EventID     domain.EventID `json:"eventId"`
	EventName   Name           `json:"eventName"`
	AggregateID string         `json:"aggregateId"`
	Code        string         `json:"code"`
	Message     string         `json:"message"`
}

// FormOperationFailedPayload is progression.form-operation-failed.
type FormOperationFailedPayload struct {
	CourtFormID domain.CourtFormID `json:"courtFormId"`
	Operation   string             `json:"operation"`
	Code        string             `json:"code"`
	Message     string             `json:"message"`
}

// CaseOrApplicationEjectedPayload is progression.events.case-or-application-ejected.
type CaseOrApplicationEjectedPayload struct {
	ProsecutionCaseID domain.CaseID        `json:"prosecutionCaseId,omitempty"`
	ApplicationID     domain.ApplicationID `json:"applicationId,omitempty"`
	RemovalReason     string               `json:"removalReason"`
}

// CivilCaseExistsPayload is progression.civil-case-exists.
type CivilCaseExistsPayload struct {
	ProsecutionCaseID domain.CaseID  `json:"prosecutionCaseId"`
	GroupID           domain.GroupID `json:"groupId"`
}

// DeadLetteredPayload is progression.event-dead-lettered.
type DeadLetteredPayload struct {
	EventID   domain.EventID `json:"eventId"`
	EventName Name           `json:"eventName"`
	Reason    string         `json:"reason"`
	Attempts  int            `json:"attempts"`
}

// LaaReferenceRecordedPayload is progression.laa-reference-recorded.
type LaaReferenceRecordedPayload struct {
	ProsecutionCaseID domain.CaseID        `json:"prosecutionCaseId,omitempty"`
	DefendantID       domain.DefendantID   `json:"defendantId,omitempty"`
	OffenceID         domain.OffenceID     `json:"offenceId,omitempty"`
	ApplicationID     domain.ApplicationID `json:"applicationId,omitempty"`
	LaaReference      LaaReference         `json:"laaReference"`
}

// Failed builds an operation-failed event for the event described by m.
func Failed(m Meta, aggregateID, code, message string) Public {
	return Public{
		Name: OperationFailed,
		Key:  aggregateID,
		Payload: OperationFailedPayload{
			EventID:     m.EventID,
			EventName:   m.Name,
			AggregateID: aggregateID,
			Code:        code,
			Message:     message,
		},
	}
}

// Fail appends an operation-failed event.
func (o *Outcome) Fail(m Meta, aggregateID string, code dErrors.Code, message string) {
	o.Events = append(o.Events, Failed(m, aggregateID, string(code), message))
}
