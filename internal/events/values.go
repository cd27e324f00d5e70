package events

import (
	"time"

	"progression/pkg/domain"
)

// CourtCentre locates a hearing.
type CourtCentre struct {
	ID     string `json:"id" validate:"required"`
	Name   string `json:"name,omitempty"`
	RoomID string `json:"roomId,omitempty"`
}

// HearingType describes the kind of hearing.
type HearingType struct {
	ID          string `json:"id,omitempty"`
	Description string `json:"description,omitempty"`
}

// HearingDay is one sitting of a hearing.
type HearingDay struct {
	SittingDay            time.Time `json:"sittingDay"`
	ListedDurationMinutes int       `json:"listedDurationMinutes,omitempty"`
	CourtRoomID           string    `json:"courtRoomId,omitempty"`
}

// ProsecutionCaseIdentifier carries the prosecuting authority's references.
type ProsecutionCaseIdentifier struct {
	ProsecutionAuthorityReference string `json:"prosecutionAuthorityReference" validate:"required"`
	CaseURN                       string `json:"caseURN,omitempty"`
}

// ContactDetails of a person defendant.
type ContactDetails struct {
	Email   string `json:"email,omitempty" validate:"omitempty,email"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// PersonDefendant holds a natural person's details.
type PersonDefendant struct {
	FirstName            string          `json:"firstName" validate:"required"`
	LastName             string          `json:"lastName" validate:"required"`
	DateOfBirth          string          `json:"dateOfBirth,omitempty" validate:"omitempty,datetime=2006-01-02"`
	BailStatus           string          `json:"bailStatus,omitempty"`
	CustodyEstablishment string          `json:"custodyEstablishment,omitempty"`
	Contact              *ContactDetails `json:"contact,omitempty"`
}

// LegalEntityDefendant is an organisation. Never matched.
type LegalEntityDefendant struct {
	OrganisationName string `json:"organisationName" validate:"required"`
}

// ReportingRestriction on an offence.
type ReportingRestriction struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	OrderedDate string `json:"orderedDate,omitempty"`
}

// ResultCategory classifies a judicial result.
type ResultCategory string

const (
	ResultFinal        ResultCategory = "FINAL"
	ResultIntermediary ResultCategory = "INTERMEDIARY"
	ResultAncillary    ResultCategory = "ANCILLARY"
)

// NextHearing is the hearing an adjournment result sends the offence to.
type NextHearing struct {
	HearingID           domain.HearingID `json:"hearingId,omitempty"`
	Type                HearingType      `json:"type"`
	CourtCentre         CourtCentre      `json:"courtCentre"`
	JurisdictionType    string           `json:"jurisdictionType,omitempty"`
	ListedStartDateTime time.Time        `json:"listedStartDateTime"`
}

// JudicialResult recorded against an offence. OrderedDate is an ISO date.
type JudicialResult struct {
	JudicialResultID    string         `json:"judicialResultId"`
	Label               string         `json:"label"`
	Category            ResultCategory `json:"category"`
	OrderedDate         string         `json:"orderedDate"`
	IsAdjournmentResult bool           `json:"isAdjournmentResult,omitempty"`
	NextHearing         *NextHearing   `json:"nextHearing,omitempty"`
}

// LaaReference is a legal aid agency application reference.
type LaaReference struct {
	ApplicationReference string `json:"applicationReference" validate:"required"`
	StatusCode           string `json:"statusCode,omitempty"`
	StatusDescription    string `json:"statusDescription,omitempty"`
	EffectiveStartDate   string `json:"effectiveStartDate,omitempty"`
}

// OffenceInput is an offence as supplied when a case is created.
type OffenceInput struct {
	ID                    domain.OffenceID       `json:"id" validate:"required,uuid"`
	OffenceCode           string                 `json:"offenceCode" validate:"required"`
	Wording               string                 `json:"wording,omitempty"`
	ListingNumber         int                    `json:"listingNumber,omitempty"`
	ReportingRestrictions []ReportingRestriction `json:"reportingRestrictions,omitempty"`
}

// DefendantInput is a defendant as supplied when a case is created.
type DefendantInput struct {
	ID                   domain.DefendantID    `json:"id" validate:"required,uuid"`
	MasterDefendantID    domain.DefendantID    `json:"masterDefendantId,omitempty" validate:"omitempty,uuid"`
	PersonDefendant      *PersonDefendant      `json:"personDefendant,omitempty" validate:"required_without=LegalEntityDefendant"`
	LegalEntityDefendant *LegalEntityDefendant `json:"legalEntityDefendant,omitempty"`
	LegalAidStatus       string                `json:"legalAidStatus,omitempty"`
	Offences             []OffenceInput        `json:"offences" validate:"required,min=1,dive"`
}

// DefendantRef addresses a defendant within a case.
type DefendantRef struct {
	ProsecutionCaseID domain.CaseID      `json:"prosecutionCaseId"`
	DefendantID       domain.DefendantID `json:"defendantId"`
}

// DefendantAttributes are the mutable attributes matched defendants converge on.
type DefendantAttributes struct {
	FirstName            string          `json:"firstName,omitempty"`
	LastName             string          `json:"lastName,omitempty"`
	BailStatus           string          `json:"bailStatus,omitempty"`
	CustodyEstablishment string          `json:"custodyEstablishment,omitempty"`
	LegalAidStatus       string          `json:"legalAidStatus,omitempty"`
	Contact              *ContactDetails `json:"contact,omitempty"`
}

// HearingOffence is an offence allocated to a hearing.
type HearingOffence struct {
	ID            domain.OffenceID `json:"id"`
	ListingNumber int              `json:"listingNumber,omitempty"`
}

// HearingDefendant is a defendant allocated to a hearing.
type HearingDefendant struct {
	ID       domain.DefendantID `json:"id"`
	Offences []HearingOffence   `json:"offences"`
}

// HearingCase is a prosecution case allocated to a hearing.
type HearingCase struct {
	ID         domain.CaseID      `json:"id"`
	Defendants []HearingDefendant `json:"defendants"`
}

// DocumentRBAC declares which user groups may read or upload a document type.
type DocumentRBAC struct {
	ReadUserGroups   []string `json:"readUserGroups"`
	UploadUserGroups []string `json:"uploadUserGroups,omitempty"`
}

// HearingTypeCategory drives which audience a shared document reaches.
type HearingTypeCategory string

const (
	CategoryTrial        HearingTypeCategory = "TRIAL"
	CategoryNonTrial     HearingTypeCategory = "NON_TRIAL"
	CategoryTrialOfIssue HearingTypeCategory = "TRIAL_OF_ISSUE"
)

// OffencePlea is an indicated plea on an offence.
type OffencePlea struct {
	OffenceID     domain.OffenceID `json:"offenceId"`
	IndicatedPlea string           `json:"indicatedPlea"`
	PleaDate      string           `json:"pleaDate,omitempty"`
}
