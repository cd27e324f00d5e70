package events

// Inbound topics. The topic name is the event name.
const (
	ListingHearingConfirmed     Name = "listing.hearing-confirmed"
	ListingHearingUpdated       Name = "listing.hearing-updated"
	HearingResulted             Name = "hearing.hearing-resulted"
	HearingResultedV2           Name = "hearing.events.hearing-resulted-v2"
	HearingOffencesRemoved      Name = "hearing.selected-offences-removed-from-allocated-hearing"
	ListingOffencesMoved        Name = "listing.offences-moved-to-next-hearing"
	DefencePleasAdded           Name = "defence.allocation-pleas-added"
	DefencePleasUpdated         Name = "defence.allocation-pleas-updated"
	HearingCaseCreatedInHearing Name = "hearing.prosecution-case-created-in-hearing"
)

// InboundTopics lists every topic the consumer subscribes to.
var InboundTopics = []Name{
	ListingHearingConfirmed,
	ListingHearingUpdated,
	HearingResulted,
	HearingResultedV2,
	HearingOffencesRemoved,
	ListingOffencesMoved,
	DefencePleasAdded,
	DefencePleasUpdated,
	HearingCaseCreatedInHearing,
}

// Commands accepted over HTTP.
const (
	CreateProsecutionCase         Name = "progression.command.create-prosecution-case"
	AddDefendants                 Name = "progression.command.add-defendants"
	UpdateDefendant               Name = "progression.command.update-defendant"
	MatchDefendant                Name = "progression.command.match-defendant"
	UnmatchDefendant              Name = "progression.command.unmatch-defendant"
	RecordOffenceLaaReference     Name = "progression.command.record-offence-laa-reference"
	EjectCase                     Name = "progression.command.eject-case"
	InitiateGroupProceedings      Name = "progression.command.initiate-group-proceedings"
	RemoveCaseFromGroup           Name = "progression.command.remove-case-from-group"
	CreateLinkedCourtApplication  Name = "progression.command.create-linked-court-application"
	CreateCourtApplication        Name = "progression.command.create-court-application"
	EjectCourtApplication         Name = "progression.command.eject-court-application"
	RecordApplicationLaaReference Name = "progression.command.record-application-laa-reference"
	AddCourtDocument              Name = "progression.command.add-court-document"
	ShareCourtDocument            Name = "progression.command.share-court-document"
	RemoveCourtDocument           Name = "progression.command.remove-court-document"
	CreateCourtForm               Name = "progression.command.create-court-form"
	UpdateCourtForm               Name = "progression.command.update-court-form"
	FinaliseCourtForm             Name = "progression.command.finalise-court-form"
)

// Intents exchanged between aggregates.
const (
	SendCaseForListing           Name = "progression.intent.send-case-for-listing"
	AllocateOffences             Name = "progression.intent.allocate-offences"
	DeleteHearing                Name = "progression.intent.delete-hearing"
	MarkHearingExtendedInto      Name = "progression.intent.mark-hearing-extended-into"
	ApplyHearingResults          Name = "progression.intent.apply-hearing-results"
	AssignMasterDefendant        Name = "progression.intent.assign-master-defendant"
	MergeMatchGroup              Name = "progression.intent.merge-match-group"
	AbsorbMatchMembers           Name = "progression.intent.absorb-match-members"
	PropagateDefendantAttributes Name = "progression.intent.propagate-defendant-attributes"
	ApplyDefendantAttributes     Name = "progression.intent.apply-defendant-attributes"
	SetGroupMembership           Name = "progression.intent.set-group-membership"
	RegisterChildApplication     Name = "progression.intent.register-child-application"
	MarkApplicationListed        Name = "progression.intent.mark-application-listed"
	EjectLinkedApplication       Name = "progression.intent.eject-linked-application"
	UpdateApplicationSummary     Name = "progression.intent.update-application-summary"
	GenerateOpaNotices           Name = "progression.intent.generate-opa-notices"
	ApplyOpaHearingResult        Name = "progression.intent.apply-opa-hearing-result"
)

// Public events published through the outbox.
const (
	ProsecutionCaseCreated              Name = "progression.prosecution-case-created"
	HearingSentForListing               Name = "progression.hearing-sent-for-listing"
	HearingInitialised                  Name = "progression.hearing-initialised"
	HearingExtended                     Name = "progression.hearing-extended"
	HearingDetailChanged                Name = "public.hearing-detail-changed"
	HearingResultedPublic               Name = "progression.hearing-resulted"
	NextHearingDeleted                  Name = "progression.next-hearing-deleted"
	HearingDeleted                      Name = "progression.hearing-deleted"
	OffencesRemovedFromHearing          Name = "progression.offences-removed-from-hearing"
	DefendantsAddedToCase               Name = "progression.defendants-added-to-case"
	DefendantMatched                    Name = "progression.defendant-matched"
	DefendantUnmatched                  Name = "progression.defendant-unmatched"
	CaseDefendantChanged                Name = "progression.case-defendant-changed"
	CaseStatusChanged                   Name = "progression.case-status-changed"
	GroupProceedingsInitiated           Name = "progression.group-proceedings-initiated"
	CaseRemovedFromGroupCases           Name = "progression.case-removed-from-group-cases"
	RemoveLastCaseInGroupRejected       Name = "progression.remove-last-case-in-group-cases-rejected"
	CivilCaseExists                     Name = "progression.civil-case-exists"
	CourtApplicationCreated             Name = "progression.court-application-created"
	CourtApplicationListed              Name = "progression.court-application-listed"
	CaseOrApplicationEjected            Name = "progression.events.case-or-application-ejected"
	CourtDocumentAdded                  Name = "progression.court-document-added"
	CourtDocumentShared                 Name = "progression.court-document-shared"
	DuplicateShareCourtDocumentReceived Name = "progression.duplicate-share-court-document-request-received"
	ShareCourtDocumentFailed            Name = "progression.share-court-document-failed"
	CourtDocumentRemoved                Name = "progression.court-document-removed"
	FormCreated                         Name = "progression.form-created"
	FormUpdated                         Name = "progression.form-updated"
	FormFinalised                       Name = "progression.form-finalised"
	FormOperationFailed                 Name = "progression.form-operation-failed"
	PublicOpaNoticeGenerated            Name = "progression.public-opa-notice-generated"
	PressOpaNoticeGenerated             Name = "progression.press-opa-notice-generated"
	ResultOpaNoticeGenerated            Name = "progression.result-opa-notice-generated"
	OpaNoticesDeactivated               Name = "progression.opa-notices-deactivated"
	LaaReferenceRecorded                Name = "progression.laa-reference-recorded"
	OperationFailed                     Name = "progression.operation-failed"
	EventDeadLettered                   Name = "progression.event-dead-lettered"
)

// PublicNames lists every outbound topic provisioned at startup.
var PublicNames = []Name{
	ProsecutionCaseCreated, HearingSentForListing, HearingInitialised, HearingExtended,
	HearingDetailChanged, HearingResultedPublic, NextHearingDeleted, HearingDeleted,
	OffencesRemovedFromHearing, DefendantsAddedToCase, DefendantMatched, DefendantUnmatched,
	CaseDefendantChanged, CaseStatusChanged, GroupProceedingsInitiated, CaseRemovedFromGroupCases,
	RemoveLastCaseInGroupRejected, CivilCaseExists, CourtApplicationCreated, CourtApplicationListed,
	CaseOrApplicationEjected, CourtDocumentAdded, CourtDocumentShared, DuplicateShareCourtDocumentReceived,
	ShareCourtDocumentFailed, CourtDocumentRemoved, FormCreated, FormUpdated, FormFinalised,
	FormOperationFailed, PublicOpaNoticeGenerated, PressOpaNoticeGenerated, ResultOpaNoticeGenerated,
	OpaNoticesDeactivated, LaaReferenceRecorded, OperationFailed, EventDeadLettered,
}

// IsFailure reports whether name is one of the explicit failure events.
func IsFailure(name Name) bool {
	switch name {
	case OperationFailed, FormOperationFailed, RemoveLastCaseInGroupRejected,
		ShareCourtDocumentFailed, CivilCaseExists, EventDeadLettered:
		return true
	}
	return false
}
