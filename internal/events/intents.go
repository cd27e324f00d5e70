package events

import (
	"time"

	"progression/pkg/domain"
)

// SendCaseForListingPayload creates or extends a hearing awaiting confirmation.
type SendCaseForListingPayload struct {
	HearingID           domain.HearingID `json:"hearingId"`
	Type                HearingType      `json:"type"`
	CourtCentre         CourtCentre      `json:"courtCentre"`
	JurisdictionType    string           `json:"jurisdictionType,omitempty"`
	ListedStartDateTime time.Time        `json:"listedStartDateTime,omitempty"`
	ProsecutionCases    []HearingCase    `json:"prosecutionCases"`
	OriginHearingID     domain.HearingID `json:"originHearingId,omitempty"`
}

// AllocateOffencesPayload adds offences moved from another hearing.
type AllocateOffencesPayload struct {
	HearingID        domain.HearingID `json:"hearingId"`
	FromHearingID    domain.HearingID `json:"fromHearingId"`
	ProsecutionCases []HearingCase    `json:"prosecutionCases"`
}

// DeleteHearingPayload deletes a next hearing no longer named by results.
type DeleteHearingPayload struct {
	HearingID       domain.HearingID `json:"hearingId"`
	OriginHearingID domain.HearingID `json:"originHearingId"`
}

// MarkHearingExtendedIntoPayload records that a hearing merged into another.
type MarkHearingExtendedIntoPayload struct {
	HearingID    domain.HearingID `json:"hearingId"`
	ExtendedInto domain.HearingID `json:"extendedInto"`
}

// ApplyHearingResultsPayload forwards one case's results to the case.
type ApplyHearingResultsPayload struct {
	ProsecutionCaseID domain.CaseID       `json:"prosecutionCaseId"`
	HearingID         domain.HearingID    `json:"hearingId"`
	HearingType       HearingType         `json:"hearingType"`
	Defendants        []ResultedDefendant `json:"defendants"`
}

// AssignMasterDefendantPayload sets a defendant's master id.
type AssignMasterDefendantPayload struct {
	Target            DefendantRef       `json:"target"`
	MasterDefendantID domain.DefendantID `json:"masterDefendantId"`
}

// MergeMatchGroupPayload tombstones group From into group Into.
type MergeMatchGroupPayload struct {
	From domain.DefendantID `json:"from"`
	Into domain.DefendantID `json:"into"`
}

// AbsorbMatchMembersPayload carries a merged group's members to the survivor.
type AbsorbMatchMembersPayload struct {
	MasterDefendantID domain.DefendantID  `json:"masterDefendantId"`
	From              domain.DefendantID  `json:"from"`
	Members           []DefendantRef      `json:"members"`
	Attributes        DefendantAttributes `json:"attributes"`
	Clock             AttributeClock      `json:"clock,omitempty"`
}

// PropagateDefendantAttributesPayload reports a member's attribute change to its group.
type PropagateDefendantAttributesPayload struct {
	MasterDefendantID domain.DefendantID  `json:"masterDefendantId"`
	Source            DefendantRef        `json:"source"`
	Attributes        DefendantAttributes `json:"attributes"`
	UpdatedAt         time.Time           `json:"updatedAt"`
}

// ApplyDefendantAttributesPayload pushes group attributes to one member.
// Clock, when set, dates each attribute; UpdatedAt dates the rest.
type ApplyDefendantAttributesPayload struct {
	Target            DefendantRef        `json:"target"`
	MasterDefendantID domain.DefendantID  `json:"masterDefendantId"`
	Attributes        DefendantAttributes `json:"attributes"`
	Clock             AttributeClock      `json:"clock,omitempty"`
	UpdatedAt         time.Time           `json:"updatedAt"`
}

// SetGroupMembershipPayload sets a case's group flags.
type SetGroupMembershipPayload struct {
	ProsecutionCaseID domain.CaseID  `json:"prosecutionCaseId"`
	GroupID           domain.GroupID `json:"groupId"`
	IsGroupMember     bool           `json:"isGroupMember"`
	IsGroupMaster     bool           `json:"isGroupMaster"`
}

// RegisterChildApplicationPayload links a child application to its parent.
type RegisterChildApplicationPayload struct {
	ParentApplicationID domain.ApplicationID `json:"parentApplicationId"`
	ChildApplicationID  domain.ApplicationID `json:"childApplicationId"`
}

// MarkApplicationListedPayload lists an application in a confirmed hearing.
type MarkApplicationListedPayload struct {
	ApplicationID domain.ApplicationID `json:"applicationId"`
	HearingID     domain.HearingID     `json:"hearingId"`
}

// EjectLinkedApplicationPayload cascades an ejection from a case or parent.
type EjectLinkedApplicationPayload struct {
	ApplicationID domain.ApplicationID `json:"applicationId"`
	RemovalReason string               `json:"removalReason"`
}

// UpdateApplicationSummaryPayload mirrors an application's status on its case.
type UpdateApplicationSummaryPayload struct {
	ProsecutionCaseID    domain.CaseID        `json:"prosecutionCaseId"`
	ApplicationID        domain.ApplicationID `json:"applicationId"`
	ApplicationReference string               `json:"applicationReference,omitempty"`
	ApplicationStatus    string               `json:"applicationStatus"`
	RemovalReason        string               `json:"removalReason,omitempty"`
}

// GenerateOpaNoticesPayload marks a hearing confirmed for OPA notices.
type GenerateOpaNoticesPayload struct {
	HearingID domain.HearingID `json:"hearingId"`
}

// ApplyOpaHearingResultPayload generates result notices or deactivates all notices.
type ApplyOpaHearingResultPayload struct {
	HearingID       domain.HearingID `json:"hearingId"`
	ResultsWithheld bool             `json:"resultsWithheld"`
}
