// Package groupcase coordinates civil group proceedings. A group always has
// exactly one master case while it has members.
package groupcase

import (
	"slices"

	"progression/internal/events"
	"progression/pkg/domain"
	dErrors "progression/pkg/domain-errors"
)

// Kind names the projection and the sequencing key prefix.
const Kind = "group"

// Group is the group cases projection.
type Group struct {
	GroupID       domain.GroupID  `json:"groupId"`
	MemberCaseIDs []domain.CaseID `json:"memberCaseIds"`
	MasterCaseID  domain.CaseID   `json:"masterCaseId"`
}

// CaseFlags is a case's membership as reported on group events.
type CaseFlags struct {
	CaseID        domain.CaseID `json:"caseId"`
	IsGroupMember bool          `json:"isGroupMember"`
	IsGroupMaster bool          `json:"isGroupMaster"`
}

// InitiatedPayload is progression.group-proceedings-initiated.
type InitiatedPayload struct {
	GroupID       domain.GroupID  `json:"groupId"`
	MasterCaseID  domain.CaseID   `json:"masterCaseId"`
	MemberCaseIDs []domain.CaseID `json:"memberCaseIds"`
}

// CaseRemovedPayload is progression.case-removed-from-group-cases.
type CaseRemovedPayload struct {
	GroupID        domain.GroupID `json:"groupId"`
	MasterCaseID   domain.CaseID  `json:"masterCaseId"`
	RemovedCase    CaseFlags      `json:"removedCase"`
	NewGroupMaster *CaseFlags     `json:"newGroupMaster,omitempty"`
}

// RemoveRejectedPayload is progression.remove-last-case-in-group-cases-rejected.
type RemoveRejectedPayload struct {
	GroupID domain.GroupID `json:"groupId"`
	CaseID  domain.CaseID  `json:"caseId"`
}

// Initiate creates the group. Cases that already exist are reported and not
// recreated; the remaining ones are created as members through intents. The
// designated master wins if it is created, otherwise the first created case.
func Initiate(m events.Meta, p events.InitiateGroupProceedingsPayload, exists func(domain.CaseID) bool) (*Group, events.Outcome) {
	var out events.Outcome
	var created []events.CreateProsecutionCasePayload
	for _, c := range p.Cases {
		if exists(c.ProsecutionCaseID) {
			out.Publish(events.CivilCaseExists, c.ProsecutionCaseID.String(), events.CivilCaseExistsPayload{
				ProsecutionCaseID: c.ProsecutionCaseID,
				GroupID:           p.GroupID,
			})
			continue
		}
		created = append(created, c)
	}
	if len(created) == 0 {
		out.Fail(m, p.GroupID.String(), dErrors.CodeConflict, "every case in the group already exists")
		return nil, out
	}

	g := &Group{GroupID: p.GroupID, MasterCaseID: created[0].ProsecutionCaseID}
	for _, c := range created {
		g.MemberCaseIDs = append(g.MemberCaseIDs, c.ProsecutionCaseID)
		if c.ProsecutionCaseID == p.MasterCaseID {
			g.MasterCaseID = p.MasterCaseID
		}
	}
	for _, c := range created {
		c.GroupID = p.GroupID
		c.IsCivil = true
		c.IsGroupMember = true
		c.IsGroupMaster = c.ProsecutionCaseID == g.MasterCaseID
		out.Follow(m, events.CreateProsecutionCase, c.ProsecutionCaseID.String(), c)
	}
	out.Publish(events.GroupProceedingsInitiated, g.GroupID.String(), InitiatedPayload{
		GroupID:       g.GroupID,
		MasterCaseID:  g.MasterCaseID,
		MemberCaseIDs: g.MemberCaseIDs,
	})
	return g, out
}

// Exists answers a second initiation of the same group.
func (g *Group) Exists(m events.Meta) events.Outcome {
	var out events.Outcome
	out.Fail(m, g.GroupID.String(), dErrors.CodeConflict, "group already exists")
	return out
}

// RemoveCase removes a member. Removing the master elects the lowest remaining
// case id. The last member can never be removed.
func (g *Group) RemoveCase(m events.Meta, caseID domain.CaseID) events.Outcome {
	var out events.Outcome
	i := slices.Index(g.MemberCaseIDs, caseID)
	if i < 0 {
		out.Fail(m, g.GroupID.String(), dErrors.CodeNotFound, "case is not a member of the group")
		return out
	}
	if len(g.MemberCaseIDs) == 1 {
		out.Publish(events.RemoveLastCaseInGroupRejected, g.GroupID.String(), RemoveRejectedPayload{GroupID: g.GroupID, CaseID: caseID})
		return out
	}

	g.MemberCaseIDs = slices.Delete(g.MemberCaseIDs, i, i+1)
	payload := CaseRemovedPayload{
		GroupID:      g.GroupID,
		MasterCaseID: g.MasterCaseID,
		RemovedCase:  CaseFlags{CaseID: caseID},
	}
	out.Follow(m, events.SetGroupMembership, caseID.String(), events.SetGroupMembershipPayload{
		ProsecutionCaseID: caseID,
		GroupID:           g.GroupID,
	})

	if caseID == g.MasterCaseID {
		g.MasterCaseID = slices.Min(g.MemberCaseIDs)
		payload.MasterCaseID = g.MasterCaseID
		payload.NewGroupMaster = &CaseFlags{CaseID: g.MasterCaseID, IsGroupMember: true, IsGroupMaster: true}
		out.Follow(m, events.SetGroupMembership, g.MasterCaseID.String(), events.SetGroupMembershipPayload{
			ProsecutionCaseID: g.MasterCaseID,
			GroupID:           g.GroupID,
			IsGroupMember:     true,
			IsGroupMaster:     true,
		})
	}
	out.Publish(events.CaseRemovedFromGroupCases, g.GroupID.String(), payload)
	return out
}
