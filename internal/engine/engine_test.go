package engine

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"progression/internal/application"
	"progression/internal/events"
	"progression/internal/form"
	"progression/internal/gate"
	"progression/internal/groupcase"
	"progression/internal/hearing"
	"progression/internal/outbox"
	"progression/internal/projection"
	"progression/internal/prosecutioncase"
	"progression/pkg/domain"
	dErrors "progression/pkg/domain-errors"
	"progression/pkg/platform/sentinel"
	"progression/pkg/testutil"
)

type EngineSuite struct {
	suite.Suite
	ctx    context.Context
	store  *projection.Set
	outbox *outbox.Memory
	engine *Engine
	gate   *gate.Gate
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = projection.NewMemorySet()
	s.outbox = outbox.NewMemory()
	s.engine = New(s.store, s.outbox)
	s.gate = gate.New(s.engine, s.engine, gate.NewMemoryLedger(),
		gate.WithWorkers(4),
		gate.WithDeferBackoff(5*time.Millisecond, 20*time.Millisecond, 2*time.Second),
	)
}

func (s *EngineSuite) TearDownTest() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.NoError(s.gate.Close(ctx))
}

func (s *EngineSuite) send(name events.Name, payload any) domain.EventID {
	return s.sendWithID(domain.NewEventID(), name, payload)
}

func (s *EngineSuite) sendWithID(id domain.EventID, name events.Name, payload any) domain.EventID {
	env, err := events.NewEnvelope(id, name, payload, time.Now().UTC())
	s.Require().NoError(err)
	_, err = s.gate.Ingest(s.ctx, env)
	s.Require().NoError(err)
	return id
}

func newCase(ref string, defendants ...domain.DefendantID) events.CreateProsecutionCasePayload {
	p := events.CreateProsecutionCasePayload{
		ProsecutionCaseID: domain.CaseID(uuid.NewString()),
		Identifier:        events.ProsecutionCaseIdentifier{ProsecutionAuthorityReference: ref},
	}
	for _, id := range defendants {
		p.Defendants = append(p.Defendants, events.DefendantInput{
			ID:              id,
			PersonDefendant: &events.PersonDefendant{FirstName: "Alex", LastName: "Smith"},
			Offences:        []events.OffenceInput{{ID: domain.OffenceID(uuid.NewString()), OffenceCode: "TH68001"}},
		})
	}
	return p
}

func newDefendantID() domain.DefendantID { return domain.DefendantID(uuid.NewString()) }

func (s *EngineSuite) loadCase(id domain.CaseID) *prosecutioncase.Case {
	c, err := load(s.ctx, s.store.Cases, id.String())
	s.Require().NoError(err)
	return c
}

func (s *EngineSuite) caseEventually(id domain.CaseID, cond func(c *prosecutioncase.Case) bool) *prosecutioncase.Case {
	var c *prosecutioncase.Case
	testutil.Eventually(s.T(), func() bool {
		c = s.loadCase(id)
		return c != nil && cond(c)
	})
	return c
}

func (s *EngineSuite) TestReferralConfirmationAndUpdate() {
	hearingID := domain.HearingID(uuid.NewString())
	referral := newCase("TFL1", newDefendantID())
	referral.ListHearing = &events.ListingRequest{
		HearingID:   hearingID,
		CourtCentre: events.CourtCentre{ID: "centre-a"},
	}

	testutil.Given(s.T(), "a case referred for listing", func(t *testing.T) {
		s.send(events.CreateProsecutionCase, referral)
		testutil.Eventually(t, func() bool {
			h, _ := load(s.ctx, s.store.Hearings, hearingID.String())
			return h != nil && h.Status == hearing.StatusSentForListing
		})
	})

	testutil.When(s.T(), "listing confirms and then moves the hearing", func(t *testing.T) {
		s.send(events.ListingHearingConfirmed, events.HearingConfirmedPayload{ConfirmedHearing: events.ConfirmedHearing{
			ID:               hearingID,
			CourtCentre:      events.CourtCentre{ID: "centre-x"},
			ProsecutionCases: []events.HearingCase{{ID: referral.ProsecutionCaseID}},
		}})
		s.send(events.ListingHearingUpdated, events.HearingUpdatedPayload{UpdatedHearing: events.UpdatedHearing{
			ID:          hearingID,
			CourtCentre: &events.CourtCentre{ID: "centre-y"},
		}})
	})

	testutil.Then(s.T(), "the hearing stays initialised at the new centre", func(t *testing.T) {
		testutil.Eventually(t, func() bool {
			return len(s.outbox.Published(events.HearingDetailChanged)) == 1
		})
		h, err := load(s.ctx, s.store.Hearings, hearingID.String())
		s.Require().NoError(err)
		s.Equal(hearing.StatusInitialised, h.Status)
		s.Equal("centre-y", h.CourtCentre.ID)
		s.Len(s.outbox.Published(events.HearingInitialised), 1)
		s.Len(s.outbox.Published(events.HearingSentForListing), 1)
	})
}

func (s *EngineSuite) TestUpdateBeforeConfirmationWaits() {
	hearingID := domain.HearingID(uuid.NewString())

	s.send(events.ListingHearingUpdated, events.HearingUpdatedPayload{UpdatedHearing: events.UpdatedHearing{
		ID:          hearingID,
		CourtCentre: &events.CourtCentre{ID: "centre-y"},
	}})
	s.send(events.ListingHearingConfirmed, events.HearingConfirmedPayload{ConfirmedHearing: events.ConfirmedHearing{
		ID:          hearingID,
		CourtCentre: events.CourtCentre{ID: "centre-x"},
	}})

	testutil.Eventually(s.T(), func() bool {
		return len(s.outbox.Published(events.HearingDetailChanged)) == 1
	})
	h, err := load(s.ctx, s.store.Hearings, hearingID.String())
	s.Require().NoError(err)
	s.Equal(hearing.StatusInitialised, h.Status)
	s.Equal("centre-y", h.CourtCentre.ID)
}

func (s *EngineSuite) TestResultBeforeConfirmationWaits() {
	hearingID := domain.HearingID(uuid.NewString())
	referral := newCase("TFL9", newDefendantID())
	referral.ListHearing = &events.ListingRequest{HearingID: hearingID, CourtCentre: events.CourtCentre{ID: "centre-a"}}

	testutil.Given(s.T(), "a hearing sent for listing", func(t *testing.T) {
		s.send(events.CreateProsecutionCase, referral)
		testutil.Eventually(t, func() bool {
			h, _ := load(s.ctx, s.store.Hearings, hearingID.String())
			return h != nil && h.Status == hearing.StatusSentForListing
		})
	})

	testutil.When(s.T(), "the result arrives ahead of the confirmation", func(t *testing.T) {
		s.send(events.HearingResulted, events.HearingResultedPayload{Hearing: events.ResultedHearing{
			ID:               hearingID,
			ProsecutionCases: []events.ResultedCase{{ID: referral.ProsecutionCaseID}},
		}})
		s.send(events.ListingHearingConfirmed, events.HearingConfirmedPayload{ConfirmedHearing: events.ConfirmedHearing{
			ID:          hearingID,
			CourtCentre: events.CourtCentre{ID: "centre-a"},
		}})
	})

	testutil.Then(s.T(), "the hearing is initialised and then resulted", func(t *testing.T) {
		testutil.Eventually(t, func() bool {
			h, _ := load(s.ctx, s.store.Hearings, hearingID.String())
			return h != nil && h.Status == hearing.StatusResulted
		})
		s.Len(s.outbox.Published(events.HearingInitialised), 1)
		s.Len(s.outbox.Published(events.HearingResultedPublic), 1)
	})
}

func (s *EngineSuite) TestRedeliveryAppliesOnce() {
	c := newCase("TFL2", newDefendantID())
	id := domain.NewEventID()

	s.sendWithID(id, events.CreateProsecutionCase, c)
	s.caseEventually(c.ProsecutionCaseID, func(*prosecutioncase.Case) bool { return true })
	testutil.Eventually(s.T(), func() bool { return s.gate.Pending() == 0 })

	env, err := events.NewEnvelope(id, events.CreateProsecutionCase, c, time.Now().UTC())
	s.Require().NoError(err)
	outcome, err := s.gate.Ingest(s.ctx, env)
	s.Require().NoError(err)
	s.Equal(gate.Duplicate, outcome)
	s.Len(s.outbox.Published(events.ProsecutionCaseCreated), 1)
}

func (s *EngineSuite) TestCommandOnUnknownCaseFails() {
	s.send(events.EjectCase, events.EjectCasePayload{
		ProsecutionCaseID: domain.CaseID(uuid.NewString()),
		RemovalReason:     "duplicate",
	})

	testutil.Eventually(s.T(), func() bool {
		return len(s.outbox.Published(events.OperationFailed)) == 1
	})
	s.Empty(s.outbox.Published(events.CaseOrApplicationEjected))
}

func (s *EngineSuite) TestMatchingPropagatesAcrossTransitiveGroup() {
	da, db, dc := newDefendantID(), newDefendantID(), newDefendantID()
	a, b, c := newCase("A", da), newCase("B", db), newCase("C", dc)

	testutil.Given(s.T(), "three cases with one defendant each", func(t *testing.T) {
		for _, p := range []events.CreateProsecutionCasePayload{a, b, c} {
			s.send(events.CreateProsecutionCase, p)
		}
	})

	testutil.When(s.T(), "A is matched with B and B with C", func(t *testing.T) {
		s.send(events.MatchDefendant, events.MatchDefendantPayload{
			ProsecutionCaseID:        a.ProsecutionCaseID,
			DefendantID:              da,
			MatchedProsecutionCaseID: b.ProsecutionCaseID,
			MatchedDefendantID:       db,
			MasterDefendantID:        da,
		})
		s.caseEventually(b.ProsecutionCaseID, func(cs *prosecutioncase.Case) bool {
			d, _ := cs.Defendant(db)
			return d.MasterDefendantID == da
		})
		s.send(events.MatchDefendant, events.MatchDefendantPayload{
			ProsecutionCaseID:        b.ProsecutionCaseID,
			DefendantID:              db,
			MatchedProsecutionCaseID: c.ProsecutionCaseID,
			MatchedDefendantID:       dc,
			MasterDefendantID:        da,
		})
		s.caseEventually(c.ProsecutionCaseID, func(cs *prosecutioncase.Case) bool {
			d, _ := cs.Defendant(dc)
			return d.MasterDefendantID == da
		})
	})

	testutil.Then(s.T(), "a change on C reaches A and B", func(t *testing.T) {
		s.send(events.UpdateDefendant, events.UpdateDefendantPayload{
			ProsecutionCaseID: c.ProsecutionCaseID,
			DefendantID:       dc,
			Attributes:        events.DefendantAttributes{BailStatus: "CUSTODY"},
			UpdatedAt:         time.Now().UTC(),
		})
		for _, ref := range []events.DefendantRef{
			{ProsecutionCaseID: a.ProsecutionCaseID, DefendantID: da},
			{ProsecutionCaseID: b.ProsecutionCaseID, DefendantID: db},
		} {
			s.caseEventually(ref.ProsecutionCaseID, func(cs *prosecutioncase.Case) bool {
				d, _ := cs.Defendant(ref.DefendantID)
				return d.PersonDefendant.BailStatus == "CUSTODY"
			})
		}
		g, err := load(s.ctx, s.store.MatchGroups, da.String())
		s.Require().NoError(err)
		s.Len(g.Members, 3)
	})
}

func (s *EngineSuite) match(a, b events.CreateProsecutionCasePayload, master domain.DefendantID) {
	da, db := a.Defendants[0].ID, b.Defendants[0].ID
	s.send(events.MatchDefendant, events.MatchDefendantPayload{
		ProsecutionCaseID:        a.ProsecutionCaseID,
		DefendantID:              da,
		MatchedProsecutionCaseID: b.ProsecutionCaseID,
		MatchedDefendantID:       db,
		MasterDefendantID:        master,
	})
	for _, p := range []events.CreateProsecutionCasePayload{a, b} {
		id := p.Defendants[0].ID
		s.caseEventually(p.ProsecutionCaseID, func(cs *prosecutioncase.Case) bool {
			d, _ := cs.Defendant(id)
			return d.MasterDefendantID == master
		})
	}
}

func (s *EngineSuite) TestUpdateOnMasterDefendantReachesMatchedCase() {
	da, db := newDefendantID(), newDefendantID()
	a, b := newCase("A", da), newCase("B", db)

	testutil.Given(s.T(), "A's defendant is the master of a match with B", func(t *testing.T) {
		s.send(events.CreateProsecutionCase, a)
		s.send(events.CreateProsecutionCase, b)
		s.match(a, b, da)
	})

	testutil.When(s.T(), "the master-side defendant changes custody", func(t *testing.T) {
		s.send(events.UpdateDefendant, events.UpdateDefendantPayload{
			ProsecutionCaseID: a.ProsecutionCaseID,
			DefendantID:       da,
			Attributes:        events.DefendantAttributes{CustodyEstablishment: "HMP X"},
			UpdatedAt:         time.Now().UTC(),
		})
	})

	testutil.Then(s.T(), "B's defendant carries the new custody", func(t *testing.T) {
		s.caseEventually(b.ProsecutionCaseID, func(cs *prosecutioncase.Case) bool {
			d, _ := cs.Defendant(db)
			return d.PersonDefendant.CustodyEstablishment == "HMP X"
		})
	})
}

func (s *EngineSuite) TestMatchingConvergesExistingAttributes() {
	da, db := newDefendantID(), newDefendantID()
	a, b := newCase("A", da), newCase("B", db)

	testutil.Given(s.T(), "A's defendant was moved to custody before any match", func(t *testing.T) {
		s.send(events.CreateProsecutionCase, a)
		s.send(events.CreateProsecutionCase, b)
		s.caseEventually(b.ProsecutionCaseID, func(*prosecutioncase.Case) bool { return true })
		s.send(events.UpdateDefendant, events.UpdateDefendantPayload{
			ProsecutionCaseID: a.ProsecutionCaseID,
			DefendantID:       da,
			Attributes:        events.DefendantAttributes{BailStatus: "CUSTODY"},
			UpdatedAt:         time.Now().UTC(),
		})
		s.caseEventually(a.ProsecutionCaseID, func(cs *prosecutioncase.Case) bool {
			d, _ := cs.Defendant(da)
			return d.PersonDefendant.BailStatus == "CUSTODY"
		})
	})

	testutil.When(s.T(), "B's defendant is matched under B", func(t *testing.T) {
		s.match(a, b, db)
	})

	testutil.Then(s.T(), "B's defendant takes A's bail status", func(t *testing.T) {
		s.caseEventually(b.ProsecutionCaseID, func(cs *prosecutioncase.Case) bool {
			d, _ := cs.Defendant(db)
			return d.PersonDefendant.BailStatus == "CUSTODY"
		})
	})
}

func (s *EngineSuite) TestEjectingCaseCascadesToApplications() {
	c := newCase("TFL3", newDefendantID())
	appID := domain.ApplicationID(uuid.NewString())

	s.send(events.CreateProsecutionCase, c)
	s.send(events.CreateLinkedCourtApplication, events.CreateCourtApplicationPayload{
		ApplicationID:     appID,
		ApplicationType:   "breach",
		ProsecutionCaseID: c.ProsecutionCaseID,
	})
	testutil.Eventually(s.T(), func() bool {
		a, _ := load(s.ctx, s.store.Applications, appID.String())
		return a != nil
	})

	s.send(events.EjectCase, events.EjectCasePayload{ProsecutionCaseID: c.ProsecutionCaseID, RemovalReason: "sent in error"})

	testutil.Eventually(s.T(), func() bool {
		a, _ := load(s.ctx, s.store.Applications, appID.String())
		return a != nil && a.Status == application.StatusEjected
	})
	cs := s.loadCase(c.ProsecutionCaseID)
	s.Equal(prosecutioncase.StatusEjected, cs.Status)
	summary, ok := cs.Summary(appID)
	s.Require().True(ok)
	s.Equal("TFL3-1", summary.ApplicationReference)
}

func (s *EngineSuite) TestGroupMasterIsReelected() {
	groupID := domain.GroupID(uuid.NewString())
	first, second, third := newCase("G1", newDefendantID()), newCase("G2", newDefendantID()), newCase("G3", newDefendantID())

	s.send(events.InitiateGroupProceedings, events.InitiateGroupProceedingsPayload{
		GroupID:      groupID,
		MasterCaseID: first.ProsecutionCaseID,
		Cases:        []events.CreateProsecutionCasePayload{first, second, third},
	})
	s.caseEventually(third.ProsecutionCaseID, func(*prosecutioncase.Case) bool { return true })

	s.send(events.RemoveCaseFromGroup, events.RemoveCaseFromGroupPayload{GroupID: groupID, ProsecutionCaseID: first.ProsecutionCaseID})

	var g *groupcase.Group
	testutil.Eventually(s.T(), func() bool {
		g, _ = load(s.ctx, s.store.Groups, groupID.String())
		return g != nil && len(g.MemberCaseIDs) == 2
	})
	newMaster := min(second.ProsecutionCaseID, third.ProsecutionCaseID)
	s.Equal(newMaster, g.MasterCaseID)

	masters := 0
	for _, id := range g.MemberCaseIDs {
		cs := s.caseEventually(id, func(cs *prosecutioncase.Case) bool {
			return cs.IsGroupMaster == (id == newMaster)
		})
		if cs.IsGroupMaster {
			masters++
		}
	}
	s.Equal(1, masters)
}

func (s *EngineSuite) TestUnknownFormFails() {
	formID := domain.CourtFormID(uuid.NewString())
	s.send(events.FinaliseCourtForm, events.FinaliseCourtFormPayload{CourtFormID: formID})

	testutil.Eventually(s.T(), func() bool {
		return len(s.outbox.Published(events.FormOperationFailed)) == 1
	})
	var failure events.FormOperationFailedPayload
	s.Require().NoError(json.Unmarshal(s.outbox.Published(events.FormOperationFailed)[0].Payload, &failure))
	s.Equal(formID, failure.CourtFormID)
	s.Equal(form.OperationFinalise, failure.Operation)
	s.Equal(string(dErrors.CodeNotFound), failure.Code)
}

func (s *EngineSuite) TestUnknownEventIsMalformed() {
	env, err := events.NewEnvelope(domain.NewEventID(), "progression.command.unknown", struct{}{}, time.Now())
	s.Require().NoError(err)
	_, err = s.engine.Key(env)
	s.ErrorIs(err, sentinel.ErrMalformed)
}
