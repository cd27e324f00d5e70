// Package defendant resolves defendant identity across cases. A match group is
// keyed by its master defendant id and lists every case defendant sharing it.
package defendant

import (
	"slices"
	"time"

	"progression/internal/events"
	"progression/pkg/domain"
)

// Kind names the projection and the sequencing key prefix.
const Kind = "master"

// MatchGroup is one node of the identity graph.
type MatchGroup struct {
	MasterDefendantID         domain.DefendantID         `json:"masterDefendantId"`
	Members                   []events.DefendantRef      `json:"members"`
	SharedAttributes          events.DefendantAttributes `json:"sharedAttributes"`
	SharedAttributesUpdatedAt events.AttributeClock      `json:"sharedAttributesUpdatedAt,omitempty"`
	MergedInto                domain.DefendantID         `json:"mergedInto,omitempty"`
}

// Party is a defendant as the match operation sees it.
type Party struct {
	Ref           events.DefendantRef
	MasterID      domain.DefendantID
	IsLegalEntity bool
	Attributes    events.DefendantAttributes
	Clock         events.AttributeClock
}

// MatchedPayload is progression.defendant-matched.
type MatchedPayload struct {
	ProsecutionCaseID domain.CaseID         `json:"prosecutionCaseId"`
	DefendantID       domain.DefendantID    `json:"defendantId"`
	MasterDefendantID domain.DefendantID    `json:"masterDefendantId"`
	MatchedDefendants []events.DefendantRef `json:"matchedDefendants"`
}

// UnmatchedPayload is progression.defendant-unmatched.
type UnmatchedPayload struct {
	ProsecutionCaseID domain.CaseID      `json:"prosecutionCaseId"`
	DefendantID       domain.DefendantID `json:"defendantId"`
	MasterDefendantID domain.DefendantID `json:"masterDefendantId"`
}

// HasMember reports whether ref belongs to the group.
func (g *MatchGroup) HasMember(ref events.DefendantRef) bool {
	return slices.Contains(g.Members, ref)
}

// Merged reports whether the group was absorbed into another.
func (g *MatchGroup) Merged() bool {
	return g.MergedInto != ""
}

func (g *MatchGroup) clock() events.AttributeClock {
	if g.SharedAttributesUpdatedAt == nil {
		g.SharedAttributesUpdatedAt = events.AttributeClock{}
	}
	return g.SharedAttributesUpdatedAt
}

// share merges attributes dated by clock into the shared set.
func (g *MatchGroup) share(a events.DefendantAttributes, clock events.AttributeClock) {
	events.MergeAttributes(&g.SharedAttributes, g.clock(), a, func(field string) time.Time {
		return clock.At(field, time.Time{})
	})
}

// converge sends the shared attributes to every member.
func (g *MatchGroup) converge(m events.Meta, out *events.Outcome) {
	if g.SharedAttributes.IsZero() {
		return
	}
	for _, ref := range g.Members {
		out.Follow(m, events.ApplyDefendantAttributes, assignDiscriminator(ref), events.ApplyDefendantAttributesPayload{
			Target:            ref,
			MasterDefendantID: g.MasterDefendantID,
			Attributes:        g.SharedAttributes,
			Clock:             g.SharedAttributesUpdatedAt.Clone(),
		})
	}
}

func (g *MatchGroup) add(ref events.DefendantRef) bool {
	if g.HasMember(ref) {
		return false
	}
	g.Members = append(g.Members, ref)
	return true
}

// Match puts both parties under the payload's master and converges every
// member on the newest value of each attribute. Parties carrying another
// master have their old group merged in. Legal entities are never matched.
// Matching against a merged group is forwarded to its survivor.
func Match(m events.Meta, g *MatchGroup, p events.MatchDefendantPayload, a, b Party) (*MatchGroup, events.Outcome) {
	var out events.Outcome
	if a.IsLegalEntity || b.IsLegalEntity {
		return nil, out
	}
	master := p.MasterDefendantID
	if g == nil {
		g = &MatchGroup{MasterDefendantID: master}
	}
	if g.Merged() {
		fwd := p
		fwd.MasterDefendantID = g.MergedInto
		out.Follow(m, events.MatchDefendant, g.MergedInto.String(), fwd)
		return nil, out
	}

	merged := map[domain.DefendantID]bool{}
	for _, party := range []Party{a, b} {
		if old := party.MasterID; old != "" && old != master && !merged[old] {
			merged[old] = true
			out.Follow(m, events.MergeMatchGroup, old.String(), events.MergeMatchGroupPayload{From: old, Into: master})
		}
		g.add(party.Ref)
		g.share(party.Attributes, party.Clock)
		if party.MasterID != master {
			out.Follow(m, events.AssignMasterDefendant, assignDiscriminator(party.Ref), events.AssignMasterDefendantPayload{
				Target:            party.Ref,
				MasterDefendantID: master,
			})
		}
	}

	g.converge(m, &out)

	out.Publish(events.DefendantMatched, master.String(), MatchedPayload{
		ProsecutionCaseID: a.Ref.ProsecutionCaseID,
		DefendantID:       a.Ref.DefendantID,
		MasterDefendantID: master,
		MatchedDefendants: g.Members,
	})
	return g, out
}

func assignDiscriminator(ref events.DefendantRef) string {
	return ref.ProsecutionCaseID.String() + "/" + ref.DefendantID.String()
}

// Merge tombstones the group and hands its members to the surviving group.
func (g *MatchGroup) Merge(m events.Meta, p events.MergeMatchGroupPayload) events.Outcome {
	var out events.Outcome
	if g.MergedInto == p.Into || p.Into == g.MasterDefendantID {
		return out
	}
	g.MergedInto = p.Into
	out.Follow(m, events.AbsorbMatchMembers, p.Into.String(), events.AbsorbMatchMembersPayload{
		MasterDefendantID: p.Into,
		From:              g.MasterDefendantID,
		Members:           g.Members,
		Attributes:        g.SharedAttributes,
		Clock:             g.SharedAttributesUpdatedAt.Clone(),
	})
	return out
}

// Absorb takes in the members and shared attributes of a merged group,
// reassigns the members' master and converges the whole group.
func Absorb(m events.Meta, g *MatchGroup, p events.AbsorbMatchMembersPayload) (*MatchGroup, events.Outcome) {
	var out events.Outcome
	if g == nil {
		g = &MatchGroup{MasterDefendantID: p.MasterDefendantID}
	}
	added := false
	for _, ref := range p.Members {
		if !g.add(ref) {
			continue
		}
		added = true
		out.Follow(m, events.AssignMasterDefendant, assignDiscriminator(ref), events.AssignMasterDefendantPayload{
			Target:            ref,
			MasterDefendantID: g.MasterDefendantID,
		})
	}
	g.share(p.Attributes, p.Clock)
	if added {
		g.converge(m, &out)
	}
	return g, out
}

// Unmatch removes a member, which reverts to being its own master.
func (g *MatchGroup) Unmatch(m events.Meta, ref events.DefendantRef) events.Outcome {
	var out events.Outcome
	i := slices.Index(g.Members, ref)
	if i < 0 {
		return out
	}
	g.Members = slices.Delete(g.Members, i, i+1)
	out.Follow(m, events.AssignMasterDefendant, assignDiscriminator(ref), events.AssignMasterDefendantPayload{
		Target:            ref,
		MasterDefendantID: ref.DefendantID,
	})
	out.Publish(events.DefendantUnmatched, g.MasterDefendantID.String(), UnmatchedPayload{
		ProsecutionCaseID: ref.ProsecutionCaseID,
		DefendantID:       ref.DefendantID,
		MasterDefendantID: g.MasterDefendantID,
	})
	return out
}

// Propagate records a member's attribute change and fans the attributes
// newer than the group's out to every other member. A merged group forwards
// the change to its survivor.
func (g *MatchGroup) Propagate(m events.Meta, p events.PropagateDefendantAttributesPayload) events.Outcome {
	var out events.Outcome
	if g.Merged() {
		fwd := p
		fwd.MasterDefendantID = g.MergedInto
		out.Follow(m, events.PropagateDefendantAttributes, g.MergedInto.String(), fwd)
		return out
	}
	taken := events.MergeAttributes(&g.SharedAttributes, g.clock(), p.Attributes, func(string) time.Time { return p.UpdatedAt })
	if taken.IsZero() {
		return out
	}

	for _, ref := range g.Members {
		if ref == p.Source {
			continue
		}
		out.Follow(m, events.ApplyDefendantAttributes, assignDiscriminator(ref), events.ApplyDefendantAttributesPayload{
			Target:            ref,
			MasterDefendantID: g.MasterDefendantID,
			Attributes:        taken,
			UpdatedAt:         p.UpdatedAt,
		})
	}
	return out
}
