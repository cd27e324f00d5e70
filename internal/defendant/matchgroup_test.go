package defendant

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"progression/internal/events"
	"progression/pkg/domain"
)

var (
	refA = events.DefendantRef{ProsecutionCaseID: "c0a80101-0000-4000-8000-00000000000a", DefendantID: "d0a80101-0000-4000-8000-00000000000a"}
	refB = events.DefendantRef{ProsecutionCaseID: "c0a80101-0000-4000-8000-00000000000b", DefendantID: "d0a80101-0000-4000-8000-00000000000b"}
	refC = events.DefendantRef{ProsecutionCaseID: "c0a80101-0000-4000-8000-00000000000c", DefendantID: "d0a80101-0000-4000-8000-00000000000c"}
)

func meta(name events.Name) events.Meta {
	return events.Meta{EventID: domain.NewEventID(), Name: name, OccurredAt: time.Now().UTC()}
}

func party(ref events.DefendantRef) Party {
	return Party{Ref: ref, MasterID: ref.DefendantID}
}

func matchPayload(a, b events.DefendantRef, master domain.DefendantID) events.MatchDefendantPayload {
	return events.MatchDefendantPayload{
		ProsecutionCaseID:        a.ProsecutionCaseID,
		DefendantID:              a.DefendantID,
		MatchedProsecutionCaseID: b.ProsecutionCaseID,
		MatchedDefendantID:       b.DefendantID,
		MasterDefendantID:        master,
	}
}

func followUps(out events.Outcome, name events.Name) []events.Intent {
	var found []events.Intent
	for _, f := range out.FollowUps {
		if f.Name == name {
			found = append(found, f)
		}
	}
	return found
}

func TestMatch(t *testing.T) {
	master := refB.DefendantID

	t.Run("assigns the master to every member not carrying it", func(t *testing.T) {
		g, out := Match(meta(events.MatchDefendant), nil, matchPayload(refA, refB, master), party(refA), party(refB))
		require.NotNil(t, g)
		assert.ElementsMatch(t, []events.DefendantRef{refA, refB}, g.Members)

		assigns := followUps(out, events.AssignMasterDefendant)
		require.Len(t, assigns, 1)
		assert.Equal(t, refA, assigns[0].Payload.(events.AssignMasterDefendantPayload).Target)
		require.Len(t, out.Events, 1)
		assert.Equal(t, events.DefendantMatched, out.Events[0].Name)
	})

	t.Run("re-matching publishes identical content", func(t *testing.T) {
		g, first := Match(meta(events.MatchDefendant), nil, matchPayload(refA, refB, master), party(refA), party(refB))
		a := Party{Ref: refA, MasterID: master}
		b := Party{Ref: refB, MasterID: master}
		_, second := Match(meta(events.MatchDefendant), g, matchPayload(refA, refB, master), a, b)
		assert.Equal(t, first.Events[0].Payload, second.Events[0].Payload)
		assert.Empty(t, followUps(second, events.AssignMasterDefendant))
	})

	t.Run("legal entities are never matched", func(t *testing.T) {
		b := party(refB)
		b.IsLegalEntity = true
		g, out := Match(meta(events.MatchDefendant), nil, matchPayload(refA, refB, master), party(refA), b)
		assert.Nil(t, g)
		assert.True(t, out.Empty())
	})

	t.Run("a party with another master merges its old group", func(t *testing.T) {
		a := Party{Ref: refA, MasterID: refC.DefendantID}
		_, out := Match(meta(events.MatchDefendant), nil, matchPayload(refA, refB, master), a, party(refB))
		merges := followUps(out, events.MergeMatchGroup)
		require.Len(t, merges, 1)
		assert.Equal(t, events.MergeMatchGroupPayload{From: refC.DefendantID, Into: master}, merges[0].Payload)
	})

	t.Run("a merged group forwards the match", func(t *testing.T) {
		g := &MatchGroup{MasterDefendantID: master, MergedInto: refC.DefendantID}
		_, out := Match(meta(events.MatchDefendant), g, matchPayload(refA, refB, master), party(refA), party(refB))
		fwd := followUps(out, events.MatchDefendant)
		require.Len(t, fwd, 1)
		assert.Equal(t, refC.DefendantID, fwd[0].Payload.(events.MatchDefendantPayload).MasterDefendantID)
	})
}

func TestMergeAndAbsorb(t *testing.T) {
	old := &MatchGroup{MasterDefendantID: refC.DefendantID, Members: []events.DefendantRef{refC, refA}}
	out := old.Merge(meta(events.MergeMatchGroup), events.MergeMatchGroupPayload{From: refC.DefendantID, Into: refB.DefendantID})
	assert.True(t, old.Merged())
	absorb := followUps(out, events.AbsorbMatchMembers)
	require.Len(t, absorb, 1)

	survivor := &MatchGroup{MasterDefendantID: refB.DefendantID, Members: []events.DefendantRef{refB, refA}}
	survivor, out = Absorb(meta(events.AbsorbMatchMembers), survivor, absorb[0].Payload.(events.AbsorbMatchMembersPayload))
	assert.ElementsMatch(t, []events.DefendantRef{refA, refB, refC}, survivor.Members)
	require.Len(t, followUps(out, events.AssignMasterDefendant), 1)
}

func TestUnmatch(t *testing.T) {
	g := &MatchGroup{MasterDefendantID: refB.DefendantID, Members: []events.DefendantRef{refA, refB}}

	out := g.Unmatch(meta(events.UnmatchDefendant), refA)
	assert.Equal(t, []events.DefendantRef{refB}, g.Members)
	assigns := followUps(out, events.AssignMasterDefendant)
	require.Len(t, assigns, 1)
	assert.Equal(t, refA.DefendantID, assigns[0].Payload.(events.AssignMasterDefendantPayload).MasterDefendantID)
	assert.Equal(t, events.DefendantUnmatched, out.Events[0].Name)

	t.Run("non member is a silent no-op", func(t *testing.T) {
		assert.True(t, g.Unmatch(meta(events.UnmatchDefendant), refC).Empty())
	})
}

func TestPropagate_FansOutAcrossThreeCases(t *testing.T) {
	g := &MatchGroup{MasterDefendantID: refA.DefendantID, Members: []events.DefendantRef{refA, refB, refC}}
	at := time.Now().UTC()

	out := g.Propagate(meta(events.PropagateDefendantAttributes), events.PropagateDefendantAttributesPayload{
		MasterDefendantID: refA.DefendantID,
		Source:            refB,
		Attributes:        events.DefendantAttributes{BailStatus: "CUSTODY"},
		UpdatedAt:         at,
	})

	applies := followUps(out, events.ApplyDefendantAttributes)
	require.Len(t, applies, 2)
	var targets []events.DefendantRef
	for _, a := range applies {
		targets = append(targets, a.Payload.(events.ApplyDefendantAttributesPayload).Target)
	}
	assert.ElementsMatch(t, []events.DefendantRef{refA, refC}, targets)
	assert.Equal(t, "CUSTODY", g.SharedAttributes.BailStatus)

	t.Run("older change is ignored", func(t *testing.T) {
		out := g.Propagate(meta(events.PropagateDefendantAttributes), events.PropagateDefendantAttributesPayload{
			Source:     refC,
			Attributes: events.DefendantAttributes{BailStatus: "UNCONDITIONAL"},
			UpdatedAt:  at.Add(-time.Minute),
		})
		assert.True(t, out.Empty())
		assert.Equal(t, "CUSTODY", g.SharedAttributes.BailStatus)
	})
}

func TestPropagate_KeepsOneClockPerAttribute(t *testing.T) {
	g := &MatchGroup{MasterDefendantID: refA.DefendantID, Members: []events.DefendantRef{refA, refB}}
	at := time.Now().UTC()

	g.Propagate(meta(events.PropagateDefendantAttributes), events.PropagateDefendantAttributesPayload{
		Source:     refA,
		Attributes: events.DefendantAttributes{BailStatus: "CUSTODY"},
		UpdatedAt:  at,
	})
	out := g.Propagate(meta(events.PropagateDefendantAttributes), events.PropagateDefendantAttributesPayload{
		Source:     refA,
		Attributes: events.DefendantAttributes{BailStatus: "UNCONDITIONAL", CustodyEstablishment: "HMP Leeds"},
		UpdatedAt:  at.Add(-time.Minute),
	})

	applies := followUps(out, events.ApplyDefendantAttributes)
	require.Len(t, applies, 1)
	sent := applies[0].Payload.(events.ApplyDefendantAttributesPayload).Attributes
	assert.Equal(t, events.DefendantAttributes{CustodyEstablishment: "HMP Leeds"}, sent)
	assert.Equal(t, "CUSTODY", g.SharedAttributes.BailStatus)
	assert.Equal(t, "HMP Leeds", g.SharedAttributes.CustodyEstablishment)
}

func TestMatch_ConvergesMembersOnSharedAttributes(t *testing.T) {
	older := time.Now().UTC().Add(-time.Hour)
	newer := older.Add(30 * time.Minute)
	a := party(refA)
	a.Attributes = events.DefendantAttributes{BailStatus: "CUSTODY", CustodyEstablishment: "HMP Leeds"}
	a.Clock = events.AttributeClock{events.AttrBailStatus: older, events.AttrCustodyEstablishment: older}
	b := party(refB)
	b.Attributes = events.DefendantAttributes{BailStatus: "UNCONDITIONAL"}
	b.Clock = events.AttributeClock{events.AttrBailStatus: newer}

	g, out := Match(meta(events.MatchDefendant), nil, matchPayload(refA, refB, refA.DefendantID), a, b)
	require.NotNil(t, g)
	assert.Equal(t, "UNCONDITIONAL", g.SharedAttributes.BailStatus)
	assert.Equal(t, "HMP Leeds", g.SharedAttributes.CustodyEstablishment)

	applies := followUps(out, events.ApplyDefendantAttributes)
	require.Len(t, applies, 2)
	for _, f := range applies {
		p := f.Payload.(events.ApplyDefendantAttributesPayload)
		assert.Equal(t, g.SharedAttributes, p.Attributes)
		assert.Equal(t, newer, p.Clock[events.AttrBailStatus])
	}
}

func TestAbsorb_ConvergesNewMembers(t *testing.T) {
	at := time.Now().UTC()
	old := &MatchGroup{
		MasterDefendantID:         refC.DefendantID,
		Members:                   []events.DefendantRef{refC},
		SharedAttributes:          events.DefendantAttributes{CustodyEstablishment: "HMP Durham"},
		SharedAttributesUpdatedAt: events.AttributeClock{events.AttrCustodyEstablishment: at},
	}
	out := old.Merge(meta(events.MergeMatchGroup), events.MergeMatchGroupPayload{From: refC.DefendantID, Into: refA.DefendantID})
	absorb := followUps(out, events.AbsorbMatchMembers)
	require.Len(t, absorb, 1)

	survivor := &MatchGroup{MasterDefendantID: refA.DefendantID, Members: []events.DefendantRef{refA, refB}}
	survivor, out = Absorb(meta(events.AbsorbMatchMembers), survivor, absorb[0].Payload.(events.AbsorbMatchMembersPayload))
	assert.Equal(t, "HMP Durham", survivor.SharedAttributes.CustodyEstablishment)

	var targets []events.DefendantRef
	for _, f := range followUps(out, events.ApplyDefendantAttributes) {
		targets = append(targets, f.Payload.(events.ApplyDefendantAttributesPayload).Target)
	}
	assert.ElementsMatch(t, []events.DefendantRef{refA, refB, refC}, targets)
}
