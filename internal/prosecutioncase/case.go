package prosecutioncase

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"progression/internal/events"
	"progression/pkg/domain"
	dErrors "progression/pkg/domain-errors"
)

// New creates a case referred to court. When the referral asks for listing,
// the whole case is sent to a hearing.
func New(m events.Meta, p events.CreateProsecutionCasePayload) (*Case, events.Outcome) {
	var out events.Outcome
	c := &Case{
		ID:            p.ProsecutionCaseID,
		Identifier:    p.Identifier,
		Status:        StatusActive,
		IsCivil:       p.IsCivil,
		IsGroupMember: p.IsGroupMember,
		IsGroupMaster: p.IsGroupMaster,
		CreatedAt:     m.OccurredAt,
	}
	if p.GroupID != "" {
		gid := p.GroupID
		c.GroupID = &gid
	}
	for _, in := range p.Defendants {
		c.Defendants = append(c.Defendants, newDefendant(c.ID, in, m))
	}

	out.Publish(events.ProsecutionCaseCreated, c.ID.String(), c)

	if req := p.ListHearing; req != nil {
		hearingID := req.HearingID
		if hearingID == "" {
			hearingID = domain.HearingID(domain.DeriveEventID(m.EventID, "hearing"))
		}
		out.Follow(m, events.SendCaseForListing, hearingID.String(), events.SendCaseForListingPayload{
			HearingID:           hearingID,
			Type:                req.Type,
			CourtCentre:         req.CourtCentre,
			JurisdictionType:    req.JurisdictionType,
			ListedStartDateTime: req.ListedStartDateTime,
			ProsecutionCases:    []events.HearingCase{c.HearingCase()},
		})
	}
	return c, out
}

func newDefendant(caseID domain.CaseID, in events.DefendantInput, m events.Meta) Defendant {
	d := Defendant{
		ID:                   in.ID,
		MasterDefendantID:    in.MasterDefendantID,
		ProsecutionCaseID:    caseID,
		PersonDefendant:      in.PersonDefendant,
		LegalEntityDefendant: in.LegalEntityDefendant,
		LegalAidStatus:       in.LegalAidStatus,
		AttributesUpdatedAt:  events.AttributeClock{},
	}
	d.AttributesUpdatedAt.Stamp(d.Attributes(), m.OccurredAt)
	if d.MasterDefendantID == "" {
		d.MasterDefendantID = d.ID
	}
	for _, o := range in.Offences {
		d.Offences = append(d.Offences, Offence{
			ID:                    o.ID,
			OffenceCode:           o.OffenceCode,
			Wording:               o.Wording,
			ListingNumber:         o.ListingNumber,
			ReportingRestrictions: o.ReportingRestrictions,
		})
	}
	return d
}

// Exists answers a second creation of the same case. Group initiation gets
// civil-case-exists, anything else a conflict.
func (c *Case) Exists(m events.Meta, p events.CreateProsecutionCasePayload) events.Outcome {
	var out events.Outcome
	if p.GroupID != "" {
		out.Publish(events.CivilCaseExists, c.ID.String(), events.CivilCaseExistsPayload{
			ProsecutionCaseID: c.ID,
			GroupID:           p.GroupID,
		})
		return out
	}
	out.Fail(m, c.ID.String(), dErrors.CodeConflict, "prosecution case already exists")
	return out
}

// AddDefendants appends defendants not already on the case.
func (c *Case) AddDefendants(m events.Meta, p events.AddDefendantsPayload) events.Outcome {
	var out events.Outcome
	var added []Defendant
	for _, in := range p.Defendants {
		if _, ok := c.Defendant(in.ID); ok {
			continue
		}
		d := newDefendant(c.ID, in, m)
		c.Defendants = append(c.Defendants, d)
		added = append(added, d)
	}
	if len(added) == 0 {
		return out
	}
	out.Publish(events.DefendantsAddedToCase, c.ID.String(), DefendantsAddedPayload{
		ProsecutionCaseID: c.ID,
		Defendants:        added,
	})
	return out
}

// UpdateDefendant applies each attribute unless a newer value of that
// attribute was already applied, then reports the accepted change to the
// defendant's master lane. The lane ignores it when no match group exists.
func (c *Case) UpdateDefendant(m events.Meta, p events.UpdateDefendantPayload) events.Outcome {
	var out events.Outcome
	d, ok := c.Defendant(p.DefendantID)
	if !ok {
		out.Fail(m, c.ID.String(), dErrors.CodeNotFound, "defendant not found on case")
		return out
	}
	at := p.UpdatedAt
	if at.IsZero() {
		at = m.OccurredAt
	}
	taken, changed := d.apply(p.Attributes, func(string) time.Time { return at })
	if changed {
		out.Publish(events.CaseDefendantChanged, c.ID.String(), DefendantChangedPayload{ProsecutionCaseID: c.ID, Defendant: *d})
	}
	if d.IsLegalEntity() || taken.IsZero() {
		return out
	}
	out.Follow(m, events.PropagateDefendantAttributes, d.MasterDefendantID.String(), events.PropagateDefendantAttributesPayload{
		MasterDefendantID: d.MasterDefendantID,
		Source:            events.DefendantRef{ProsecutionCaseID: c.ID, DefendantID: d.ID},
		Attributes:        taken,
		UpdatedAt:         at,
	})
	return out
}

// ApplyDefendantAttributes converges a matched defendant on its group's
// attributes. Attributes older than the defendant's own are ignored.
func (c *Case) ApplyDefendantAttributes(m events.Meta, p events.ApplyDefendantAttributesPayload) events.Outcome {
	var out events.Outcome
	d, ok := c.Defendant(p.Target.DefendantID)
	if !ok {
		return out
	}
	_, changed := d.apply(p.Attributes, func(field string) time.Time { return p.Clock.At(field, p.UpdatedAt) })
	if changed {
		out.Publish(events.CaseDefendantChanged, c.ID.String(), DefendantChangedPayload{ProsecutionCaseID: c.ID, Defendant: *d})
	}
	return out
}

// apply merges a into the defendant field by field and returns the accepted
// attributes. Legal entities only carry a legal aid status.
func (d *Defendant) apply(a events.DefendantAttributes, at func(field string) time.Time) (events.DefendantAttributes, bool) {
	if d.PersonDefendant == nil {
		a = events.DefendantAttributes{LegalAidStatus: a.LegalAidStatus}
	}
	if d.AttributesUpdatedAt == nil {
		d.AttributesUpdatedAt = events.AttributeClock{}
	}
	before := d.Attributes()
	cur := d.Attributes()
	taken := events.MergeAttributes(&cur, d.AttributesUpdatedAt, a, at)
	if cur.Equal(before) {
		return taken, false
	}
	d.LegalAidStatus = cur.LegalAidStatus
	if d.PersonDefendant != nil {
		pd := *d.PersonDefendant
		pd.FirstName = cur.FirstName
		pd.LastName = cur.LastName
		pd.BailStatus = cur.BailStatus
		pd.CustodyEstablishment = cur.CustodyEstablishment
		pd.Contact = cur.Contact
		d.PersonDefendant = &pd
	}
	return taken, true
}

// AssignMaster sets a defendant's master id.
func (c *Case) AssignMaster(m events.Meta, p events.AssignMasterDefendantPayload) events.Outcome {
	var out events.Outcome
	d, ok := c.Defendant(p.Target.DefendantID)
	if !ok {
		out.Fail(m, c.ID.String(), dErrors.CodeNotFound, "defendant not found on case")
		return out
	}
	if d.MasterDefendantID == p.MasterDefendantID {
		return out
	}
	d.MasterDefendantID = p.MasterDefendantID
	out.Publish(events.CaseDefendantChanged, c.ID.String(), DefendantChangedPayload{ProsecutionCaseID: c.ID, Defendant: *d})
	return out
}

// ApplyResults appends the hearing's judicial results to each offence. The
// adjournment date only moves forward. A case whose every offence is finally
// resulted becomes inactive.
func (c *Case) ApplyResults(m events.Meta, p events.ApplyHearingResultsPayload) events.Outcome {
	var out events.Outcome
	for _, rd := range p.Defendants {
		d, ok := c.Defendant(rd.ID)
		if !ok {
			continue
		}
		for _, ro := range rd.Offences {
			o := d.offence(ro.ID)
			if o == nil {
				continue
			}
			o.appendResults(ro.JudicialResults, p.HearingType)
		}
	}

	if c.Status == StatusActive && c.AllOffencesFinal() {
		c.Status = StatusInactive
		out.Publish(events.CaseStatusChanged, c.ID.String(), StatusChangedPayload{ProsecutionCaseID: c.ID, CaseStatus: c.Status})
	}
	return out
}

func (d *Defendant) offence(id domain.OffenceID) *Offence {
	for i := range d.Offences {
		if d.Offences[i].ID == id {
			return &d.Offences[i]
		}
	}
	return nil
}

func (o *Offence) appendResults(results []events.JudicialResult, hearingType events.HearingType) {
	for _, r := range results {
		// results without an id cannot be told apart and are always kept
		if r.JudicialResultID != "" && slices.ContainsFunc(o.JudicialResults, func(e events.JudicialResult) bool {
			return e.JudicialResultID == r.JudicialResultID
		}) {
			continue
		}
		o.JudicialResults = append(o.JudicialResults, r)
		if r.IsAdjournmentResult && r.OrderedDate > o.LastAdjournDate {
			o.LastAdjournDate = r.OrderedDate
			o.LastAdjournedHearingType = hearingType.Description
		}
	}
	slices.SortStableFunc(o.JudicialResults, func(a, b events.JudicialResult) int {
		return strings.Compare(a.OrderedDate, b.OrderedDate)
	})
}

// RecordOffenceLaaReference records a legal aid reference on one offence.
func (c *Case) RecordOffenceLaaReference(m events.Meta, p events.RecordOffenceLaaReferencePayload) events.Outcome {
	var out events.Outcome
	d, ok := c.Defendant(p.DefendantID)
	if !ok {
		out.Fail(m, c.ID.String(), dErrors.CodeNotFound, "defendant not found on case")
		return out
	}
	o := d.offence(p.OffenceID)
	if o == nil {
		out.Fail(m, c.ID.String(), dErrors.CodeNotFound, "offence not found on defendant")
		return out
	}
	ref := p.LaaReference
	o.LaaApplnReference = &ref
	out.Publish(events.LaaReferenceRecorded, c.ID.String(), events.LaaReferenceRecordedPayload{
		ProsecutionCaseID: c.ID,
		DefendantID:       d.ID,
		OffenceID:         o.ID,
		LaaReference:      ref,
	})
	return out
}

// Eject ejects the case, its application summary entries and every linked
// application with the same reason. Hearings pick the status up at query time.
func (c *Case) Eject(m events.Meta, p events.EjectCasePayload) events.Outcome {
	var out events.Outcome
	if c.Status == StatusEjected {
		return out
	}
	c.Status = StatusEjected
	c.RemovalReason = p.RemovalReason
	for i := range c.LinkedApplicationsSummary {
		s := &c.LinkedApplicationsSummary[i]
		s.ApplicationStatus = ApplicationEjected
		s.RemovalReason = p.RemovalReason
		out.Follow(m, events.EjectLinkedApplication, s.ApplicationID.String(), events.EjectLinkedApplicationPayload{
			ApplicationID: s.ApplicationID,
			RemovalReason: p.RemovalReason,
		})
	}
	out.Publish(events.CaseOrApplicationEjected, c.ID.String(), events.CaseOrApplicationEjectedPayload{
		ProsecutionCaseID: c.ID,
		RemovalReason:     p.RemovalReason,
	})
	out.Publish(events.CaseStatusChanged, c.ID.String(), StatusChangedPayload{
		ProsecutionCaseID: c.ID,
		CaseStatus:        c.Status,
		RemovalReason:     c.RemovalReason,
	})
	return out
}

// AddLinkedApplication assigns the next per-case reference, records a draft
// summary entry and asks the application aggregate to create itself.
func (c *Case) AddLinkedApplication(m events.Meta, p events.CreateCourtApplicationPayload) events.Outcome {
	var out events.Outcome
	if _, ok := c.Summary(p.ApplicationID); ok {
		out.Fail(m, p.ApplicationID.String(), dErrors.CodeConflict, "court application already exists")
		return out
	}
	if c.Status == StatusEjected {
		out.Fail(m, c.ID.String(), dErrors.CodeInvariantViolation, "cannot link an application to an ejected case")
		return out
	}
	c.ApplicationSequence++
	ref := fmt.Sprintf("%s-%d", c.Identifier.ProsecutionAuthorityReference, c.ApplicationSequence)
	c.LinkedApplicationsSummary = append(c.LinkedApplicationsSummary, ApplicationSummary{
		ApplicationID:        p.ApplicationID,
		ApplicationReference: ref,
		ApplicationStatus:    ApplicationDraft,
	})

	create := p
	create.ProsecutionCaseID = c.ID
	create.ApplicationReference = ref
	out.Follow(m, events.CreateCourtApplication, p.ApplicationID.String(), create)
	return out
}

// UpdateApplicationSummary mirrors an application status onto the case.
func (c *Case) UpdateApplicationSummary(p events.UpdateApplicationSummaryPayload) {
	s, ok := c.Summary(p.ApplicationID)
	if !ok {
		c.LinkedApplicationsSummary = append(c.LinkedApplicationsSummary, ApplicationSummary{ApplicationID: p.ApplicationID})
		s = &c.LinkedApplicationsSummary[len(c.LinkedApplicationsSummary)-1]
	}
	if p.ApplicationReference != "" {
		s.ApplicationReference = p.ApplicationReference
	}
	// an ejected entry stays ejected
	if s.ApplicationStatus == ApplicationEjected && p.ApplicationStatus != ApplicationEjected {
		return
	}
	s.ApplicationStatus = p.ApplicationStatus
	s.RemovalReason = p.RemovalReason
}

// SetGroupMembership sets the group flags. Leaving a group clears the group id.
func (c *Case) SetGroupMembership(p events.SetGroupMembershipPayload) {
	c.IsGroupMember = p.IsGroupMember
	c.IsGroupMaster = p.IsGroupMaster
	if p.IsGroupMember {
		gid := p.GroupID
		c.GroupID = &gid
		return
	}
	c.GroupID = nil
}
