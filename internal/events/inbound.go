package events

import (
	"time"

	"progression/pkg/domain"
)

// ConfirmedHearing is the allocation listing confirmed.
type ConfirmedHearing struct {
	ID                  domain.HearingID       `json:"id"`
	CourtCentre         CourtCentre            `json:"courtCentre"`
	Type                HearingType            `json:"type"`
	JurisdictionType    string                 `json:"jurisdictionType,omitempty"`
	HearingDays         []HearingDay           `json:"hearingDays,omitempty"`
	ProsecutionCases    []HearingCase          `json:"prosecutionCases,omitempty"`
	CourtApplicationIDs []domain.ApplicationID `json:"courtApplicationIds,omitempty"`
	NumberOfGroupCases  int                    `json:"numberOfGroupCases,omitempty"`
	ExtendedHearingID   domain.HearingID       `json:"extendedHearingId,omitempty"`
}

// HearingConfirmedPayload is listing.hearing-confirmed.
type HearingConfirmedPayload struct {
	ConfirmedHearing ConfirmedHearing `json:"confirmedHearing"`
}

// UpdatedHearing carries the detail listing changed.
type UpdatedHearing struct {
	ID               domain.HearingID `json:"id"`
	CourtCentre      *CourtCentre     `json:"courtCentre,omitempty"`
	Type             *HearingType     `json:"type,omitempty"`
	JurisdictionType string           `json:"jurisdictionType,omitempty"`
	HearingDays      []HearingDay     `json:"hearingDays,omitempty"`
}

// HearingUpdatedPayload is listing.hearing-updated.
type HearingUpdatedPayload struct {
	UpdatedHearing UpdatedHearing `json:"updatedHearing"`
}

// ResultedOffence carries the results of one offence.
type ResultedOffence struct {
	ID              domain.OffenceID `json:"id"`
	JudicialResults []JudicialResult `json:"judicialResults,omitempty"`
}

// ResultedDefendant carries the results of one defendant.
type ResultedDefendant struct {
	ID       domain.DefendantID `json:"id"`
	Offences []ResultedOffence  `json:"offences,omitempty"`
}

// ResultedCase carries the results of one case.
type ResultedCase struct {
	ID         domain.CaseID       `json:"id"`
	Defendants []ResultedDefendant `json:"defendants,omitempty"`
}

// ResultedHearing is the hearing snapshot carried on a resulted event.
type ResultedHearing struct {
	ID               domain.HearingID `json:"id"`
	Type             HearingType      `json:"type"`
	ProsecutionCases []ResultedCase   `json:"prosecutionCases,omitempty"`
}

// HearingResultedPayload is hearing.hearing-resulted and its v2 variant.
type HearingResultedPayload struct {
	Hearing               ResultedHearing `json:"hearing"`
	SharedTime            time.Time       `json:"sharedTime"`
	PublicResultsWithheld bool            `json:"publicResultsWithheld,omitempty"`
}

// OffencesRemovedPayload is hearing.selected-offences-removed-from-allocated-hearing.
type OffencesRemovedPayload struct {
	HearingID  domain.HearingID   `json:"hearingId"`
	OffenceIDs []domain.OffenceID `json:"offenceIds"`
}

// OffencesMovedPayload is listing.offences-moved-to-next-hearing.
type OffencesMovedPayload struct {
	HearingID     domain.HearingID   `json:"hearingId"`
	NextHearingID domain.HearingID   `json:"nextHearingId"`
	OffenceIDs    []domain.OffenceID `json:"offenceIds"`
}

// PleasAllocatedPayload is defence.allocation-pleas-added and -updated.
type PleasAllocatedPayload struct {
	AllocationID      string             `json:"allocationId,omitempty"`
	ProsecutionCaseID domain.CaseID      `json:"prosecutionCaseId"`
	DefendantID       domain.DefendantID `json:"defendantId"`
	HearingID         domain.HearingID   `json:"hearingId"`
	OffencePleas      []OffencePlea      `json:"offencePleas,omitempty"`
}

// CaseCreatedInHearingPayload is hearing.prosecution-case-created-in-hearing.
type CaseCreatedInHearingPayload struct {
	HearingID       domain.HearingID             `json:"hearingId"`
	ProsecutionCase CreateProsecutionCasePayload `json:"prosecutionCase"`
}
