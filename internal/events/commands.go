package events

import (
	"encoding/json"
	"time"

	"progression/pkg/domain"
)

// ListingRequest asks for the new case to be sent for listing.
type ListingRequest struct {
	HearingID           domain.HearingID `json:"hearingId,omitempty" validate:"omitempty,uuid"`
	Type                HearingType      `json:"type"`
	CourtCentre         CourtCentre      `json:"courtCentre" validate:"required"`
	JurisdictionType    string           `json:"jurisdictionType,omitempty" validate:"omitempty,oneof=CROWN MAGISTRATES"`
	ListedStartDateTime time.Time        `json:"listedStartDateTime,omitempty"`
}

// CreateProsecutionCasePayload refers a case to court. Group fields are set
// only when a group initiation creates the case.
type CreateProsecutionCasePayload struct {
	ProsecutionCaseID domain.CaseID             `json:"id" validate:"required,uuid"`
	Identifier        ProsecutionCaseIdentifier `json:"prosecutionCaseIdentifier" validate:"required"`
	IsCivil           bool                      `json:"isCivil,omitempty"`
	Defendants        []DefendantInput          `json:"defendants" validate:"required,min=1,dive"`
	ListHearing       *ListingRequest           `json:"listHearingRequest,omitempty"`
	GroupID           domain.GroupID            `json:"groupId,omitempty"`
	IsGroupMember     bool                      `json:"isGroupMember,omitempty"`
	IsGroupMaster     bool                      `json:"isGroupMaster,omitempty"`
}

// AddDefendantsPayload adds defendants to an existing case.
type AddDefendantsPayload struct {
	ProsecutionCaseID domain.CaseID    `json:"prosecutionCaseId" validate:"required,uuid"`
	Defendants        []DefendantInput `json:"defendants" validate:"required,min=1,dive"`
}

// UpdateDefendantPayload changes a defendant's mutable attributes.
type UpdateDefendantPayload struct {
	ProsecutionCaseID domain.CaseID       `json:"prosecutionCaseId" validate:"required,uuid"`
	DefendantID       domain.DefendantID  `json:"defendantId" validate:"required,uuid"`
	Attributes        DefendantAttributes `json:"attributes"`
	UpdatedAt         time.Time           `json:"updatedAt"`
}

// MatchDefendantPayload matches defendant A with defendant B under a master id.
type MatchDefendantPayload struct {
	ProsecutionCaseID        domain.CaseID      `json:"prosecutionCaseId" validate:"required,uuid"`
	DefendantID              domain.DefendantID `json:"defendantId" validate:"required,uuid"`
	MatchedProsecutionCaseID domain.CaseID      `json:"matchedProsecutionCaseId" validate:"required,uuid"`
	MatchedDefendantID       domain.DefendantID `json:"matchedDefendantId" validate:"required,uuid"`
	MasterDefendantID        domain.DefendantID `json:"masterDefendantId" validate:"required,uuid"`
}

// UnmatchDefendantPayload removes a defendant from its match group.
type UnmatchDefendantPayload struct {
	ProsecutionCaseID domain.CaseID      `json:"prosecutionCaseId" validate:"required,uuid"`
	DefendantID       domain.DefendantID `json:"defendantId" validate:"required,uuid"`
	MasterDefendantID domain.DefendantID `json:"masterDefendantId" validate:"required,uuid"`
}

// RecordOffenceLaaReferencePayload records a legal aid reference on an offence.
type RecordOffenceLaaReferencePayload struct {
	ProsecutionCaseID domain.CaseID      `json:"prosecutionCaseId" validate:"required,uuid"`
	DefendantID       domain.DefendantID `json:"defendantId" validate:"required,uuid"`
	OffenceID         domain.OffenceID   `json:"offenceId" validate:"required,uuid"`
	LaaReference      LaaReference       `json:"laaReference" validate:"required"`
}

// EjectCasePayload ejects a case and cascades to its linked applications.
type EjectCasePayload struct {
	ProsecutionCaseID domain.CaseID `json:"prosecutionCaseId" validate:"required,uuid"`
	RemovalReason     string        `json:"removalReason" validate:"required"`
}

// InitiateGroupProceedingsPayload creates a group of civil cases.
type InitiateGroupProceedingsPayload struct {
	GroupID      domain.GroupID                 `json:"groupId" validate:"required,uuid"`
	MasterCaseID domain.CaseID                  `json:"masterCaseId,omitempty" validate:"omitempty,uuid"`
	Cases        []CreateProsecutionCasePayload `json:"prosecutionCases" validate:"required,min=1,dive"`
}

// RemoveCaseFromGroupPayload removes one member case.
type RemoveCaseFromGroupPayload struct {
	GroupID           domain.GroupID `json:"groupId" validate:"required,uuid"`
	ProsecutionCaseID domain.CaseID  `json:"prosecutionCaseId" validate:"required,uuid"`
}

// CreateCourtApplicationPayload creates an application. ApplicationReference is
// assigned by the owning case for linked applications and generated otherwise.
type CreateCourtApplicationPayload struct {
	ApplicationID        domain.ApplicationID `json:"id" validate:"required,uuid"`
	ApplicationType      string               `json:"applicationType" validate:"required"`
	ProsecutionCaseID    domain.CaseID        `json:"prosecutionCaseId,omitempty" validate:"omitempty,uuid"`
	ParentApplicationID  domain.ApplicationID `json:"parentApplicationId,omitempty" validate:"omitempty,uuid"`
	ApplicationReference string               `json:"applicationReference,omitempty"`
}

// EjectCourtApplicationPayload ejects one application.
type EjectCourtApplicationPayload struct {
	ApplicationID domain.ApplicationID `json:"applicationId" validate:"required,uuid"`
	RemovalReason string               `json:"removalReason" validate:"required"`
}

// RecordApplicationLaaReferencePayload records a legal aid reference on an application.
type RecordApplicationLaaReferencePayload struct {
	ApplicationID domain.ApplicationID `json:"applicationId" validate:"required,uuid"`
	LaaReference  LaaReference         `json:"laaReference" validate:"required"`
}

// AddCourtDocumentPayload indexes document metadata.
type AddCourtDocumentPayload struct {
	CourtDocumentID         domain.CourtDocumentID `json:"courtDocumentId" validate:"required,uuid"`
	ProsecutionCaseID       domain.CaseID          `json:"prosecutionCaseId,omitempty" validate:"required_without=ApplicationID,omitempty,uuid"`
	DefendantIDs            []domain.DefendantID   `json:"defendantIds,omitempty" validate:"dive,uuid"`
	ApplicationID           domain.ApplicationID   `json:"applicationId,omitempty" validate:"omitempty,uuid"`
	DocumentTypeID          string                 `json:"documentTypeId" validate:"required"`
	DocumentTypeDescription string                 `json:"documentTypeDescription,omitempty"`
	Name                    string                 `json:"name" validate:"required"`
	MimeType                string                 `json:"mimeType,omitempty"`
	DocumentTypeRBAC        DocumentRBAC           `json:"documentTypeRBAC"`
}

// ShareCourtDocumentPayload shares a document with user groups for a hearing.
type ShareCourtDocumentPayload struct {
	CourtDocumentID     domain.CourtDocumentID `json:"courtDocumentId" validate:"required,uuid"`
	HearingID           domain.HearingID       `json:"hearingId" validate:"required,uuid"`
	HearingTypeCategory HearingTypeCategory    `json:"hearingTypeCategory" validate:"required,oneof=TRIAL NON_TRIAL TRIAL_OF_ISSUE"`
	UserGroups          []string               `json:"userGroups" validate:"required,min=1,dive,required"`
}

// RemoveCourtDocumentPayload logically removes a document.
type RemoveCourtDocumentPayload struct {
	CourtDocumentID domain.CourtDocumentID `json:"courtDocumentId" validate:"required,uuid"`
}

// CreateCourtFormPayload creates a court form.
type CreateCourtFormPayload struct {
	CourtFormID       domain.CourtFormID   `json:"courtFormId" validate:"required,uuid"`
	ProsecutionCaseID domain.CaseID        `json:"prosecutionCaseId" validate:"required,uuid"`
	FormType          string               `json:"formType" validate:"required"`
	DefendantIDs      []domain.DefendantID `json:"defendantIds,omitempty" validate:"dive,uuid"`
	FormData          json.RawMessage      `json:"formData,omitempty"`
}

// UpdateCourtFormPayload replaces a form's data.
type UpdateCourtFormPayload struct {
	CourtFormID  domain.CourtFormID   `json:"courtFormId" validate:"required,uuid"`
	DefendantIDs []domain.DefendantID `json:"defendantIds,omitempty" validate:"dive,uuid"`
	FormData     json.RawMessage      `json:"formData,omitempty"`
}

// FinaliseCourtFormPayload finalises a form.
type FinaliseCourtFormPayload struct {
	CourtFormID domain.CourtFormID `json:"courtFormId" validate:"required,uuid"`
}
