// Package prosecutioncase holds the prosecution case aggregate: defendants,
// offences and their results, group flags, and the linked application summary.
package prosecutioncase

import (
	"time"

	"progression/internal/events"
	"progression/pkg/domain"
)

// Kind names the projection and the sequencing key prefix.
const Kind = "case"

// Status is the case status.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
	StatusEjected  Status = "EJECTED"
)

// Application summary statuses mirrored from the application aggregate.
const (
	ApplicationDraft   = "DRAFT"
	ApplicationListed  = "LISTED"
	ApplicationEjected = "EJECTED"
)

// Case is the prosecution case projection. Cases are never deleted.
type Case struct {
	ID                        domain.CaseID                    `json:"id"`
	Identifier                events.ProsecutionCaseIdentifier `json:"prosecutionCaseIdentifier"`
	Status                    Status                           `json:"caseStatus"`
	IsCivil                   bool                             `json:"isCivil"`
	IsGroupMember             bool                             `json:"isGroupMember"`
	IsGroupMaster             bool                             `json:"isGroupMaster"`
	GroupID                   *domain.GroupID                  `json:"groupId,omitempty"`
	RemovalReason             string                           `json:"removalReason,omitempty"`
	Defendants                []Defendant                      `json:"defendants"`
	LinkedApplicationsSummary []ApplicationSummary             `json:"linkedApplicationsSummary,omitempty"`
	ApplicationSequence       int                              `json:"applicationSequence"`
	CreatedAt                 time.Time                        `json:"createdAt"`
}

// Defendant on a case. MasterDefendantID defaults to the defendant's own id.
type Defendant struct {
	ID                   domain.DefendantID           `json:"id"`
	MasterDefendantID    domain.DefendantID           `json:"masterDefendantId"`
	ProsecutionCaseID    domain.CaseID                `json:"prosecutionCaseId"`
	PersonDefendant      *events.PersonDefendant      `json:"personDefendant,omitempty"`
	LegalEntityDefendant *events.LegalEntityDefendant `json:"legalEntityDefendant,omitempty"`
	LegalAidStatus       string                       `json:"legalAidStatus,omitempty"`
	AttributesUpdatedAt  events.AttributeClock        `json:"attributesUpdatedAt,omitempty"`
	Offences             []Offence                    `json:"offences"`
}

// IsLegalEntity reports whether the defendant is an organisation.
func (d Defendant) IsLegalEntity() bool {
	return d.LegalEntityDefendant != nil
}

// Attributes returns the defendant's shareable attributes.
func (d Defendant) Attributes() events.DefendantAttributes {
	a := events.DefendantAttributes{LegalAidStatus: d.LegalAidStatus}
	if pd := d.PersonDefendant; pd != nil {
		a.FirstName = pd.FirstName
		a.LastName = pd.LastName
		a.BailStatus = pd.BailStatus
		a.CustodyEstablishment = pd.CustodyEstablishment
		if pd.Contact != nil {
			contact := *pd.Contact
			a.Contact = &contact
		}
	}
	return a
}

// IsMatched reports whether the defendant belongs to another master identity.
func (d Defendant) IsMatched() bool {
	return d.MasterDefendantID != "" && d.MasterDefendantID != d.ID
}

// Offence on a defendant. JudicialResults are append-only and ordered by date.
type Offence struct {
	ID                       domain.OffenceID              `json:"id"`
	OffenceCode              string                        `json:"offenceCode"`
	Wording                  string                        `json:"wording,omitempty"`
	ListingNumber            int                           `json:"listingNumber,omitempty"`
	JudicialResults          []events.JudicialResult       `json:"judicialResults,omitempty"`
	LaaApplnReference        *events.LaaReference          `json:"laaApplnReference,omitempty"`
	ReportingRestrictions    []events.ReportingRestriction `json:"reportingRestrictions,omitempty"`
	LastAdjournDate          string                        `json:"lastAdjournDate,omitempty"`
	LastAdjournedHearingType string                        `json:"lastAdjournedHearingType,omitempty"`
}

// HasFinalResult reports whether any result on the offence is final.
func (o Offence) HasFinalResult() bool {
	for _, r := range o.JudicialResults {
		if r.Category == events.ResultFinal {
			return true
		}
	}
	return false
}

// ApplicationSummary mirrors a linked application on its case.
type ApplicationSummary struct {
	ApplicationID        domain.ApplicationID `json:"applicationId"`
	ApplicationReference string               `json:"applicationReference"`
	ApplicationStatus    string               `json:"applicationStatus"`
	RemovalReason        string               `json:"removalReason,omitempty"`
}

// DefendantChangedPayload is progression.case-defendant-changed.
type DefendantChangedPayload struct {
	ProsecutionCaseID domain.CaseID `json:"prosecutionCaseId"`
	Defendant         Defendant     `json:"defendant"`
}

// DefendantsAddedPayload is progression.defendants-added-to-case.
type DefendantsAddedPayload struct {
	ProsecutionCaseID domain.CaseID `json:"prosecutionCaseId"`
	Defendants        []Defendant   `json:"defendants"`
}

// StatusChangedPayload is progression.case-status-changed.
type StatusChangedPayload struct {
	ProsecutionCaseID domain.CaseID `json:"prosecutionCaseId"`
	CaseStatus        Status        `json:"caseStatus"`
	RemovalReason     string        `json:"removalReason,omitempty"`
}

// Defendant returns the defendant with id.
func (c *Case) Defendant(id domain.DefendantID) (*Defendant, bool) {
	for i := range c.Defendants {
		if c.Defendants[i].ID == id {
			return &c.Defendants[i], true
		}
	}
	return nil, false
}

// Summary returns the linked application summary entry for id.
func (c *Case) Summary(id domain.ApplicationID) (*ApplicationSummary, bool) {
	for i := range c.LinkedApplicationsSummary {
		if c.LinkedApplicationsSummary[i].ApplicationID == id {
			return &c.LinkedApplicationsSummary[i], true
		}
	}
	return nil, false
}

// AllOffencesFinal reports whether every offence carries a final result.
func (c *Case) AllOffencesFinal() bool {
	seen := false
	for _, d := range c.Defendants {
		for _, o := range d.Offences {
			seen = true
			if !o.HasFinalResult() {
				return false
			}
		}
	}
	return seen
}

// HearingCase returns the allocation view of the whole case.
func (c *Case) HearingCase() events.HearingCase {
	hc := events.HearingCase{ID: c.ID}
	for _, d := range c.Defendants {
		hd := events.HearingDefendant{ID: d.ID}
		for _, o := range d.Offences {
			hd.Offences = append(hd.Offences, events.HearingOffence{ID: o.ID, ListingNumber: o.ListingNumber})
		}
		hc.Defendants = append(hc.Defendants, hd)
	}
	return hc
}
