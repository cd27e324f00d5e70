package engine

import (
	"context"

	"progression/internal/defendant"
	"progression/internal/events"
	"progression/internal/prosecutioncase"
	"progression/pkg/domain"
	dErrors "progression/pkg/domain-errors"
)

// party reads a defendant from its case. The master lane only reads case
// snapshots; case changes go back through intents.
func (e *Engine) party(ctx context.Context, caseID domain.CaseID, defendantID domain.DefendantID) (*defendant.Party, error) {
	c, err := load(ctx, e.store.Cases, caseID.String())
	if err != nil || c == nil {
		return nil, err
	}
	d, ok := c.Defendant(defendantID)
	if !ok {
		return nil, nil
	}
	return partyOf(c, d), nil
}

func partyOf(c *prosecutioncase.Case, d *prosecutioncase.Defendant) *defendant.Party {
	return &defendant.Party{
		Ref:           events.DefendantRef{ProsecutionCaseID: c.ID, DefendantID: d.ID},
		MasterID:      d.MasterDefendantID,
		IsLegalEntity: d.IsLegalEntity(),
		Attributes:    d.Attributes(),
		Clock:         d.AttributesUpdatedAt.Clone(),
	}
}

func (e *Engine) registerDefendant() {
	register(e, events.MatchDefendant, handler[events.MatchDefendantPayload]{
		kind: defendant.Kind,
		key:  func(p events.MatchDefendantPayload) string { return p.MasterDefendantID.String() },
		needs: func(e *Engine, ctx context.Context, p events.MatchDefendantPayload) error {
			if err := e.caseExists(ctx, p.ProsecutionCaseID); err != nil {
				return err
			}
			return e.caseExists(ctx, p.MatchedProsecutionCaseID)
		},
		apply: func(e *Engine, ctx context.Context, m events.Meta, p events.MatchDefendantPayload) (events.Outcome, error) {
			a, err := e.party(ctx, p.ProsecutionCaseID, p.DefendantID)
			if err != nil {
				return events.Outcome{}, err
			}
			b, err := e.party(ctx, p.MatchedProsecutionCaseID, p.MatchedDefendantID)
			if err != nil {
				return events.Outcome{}, err
			}
			if a == nil || b == nil {
				var out events.Outcome
				out.Fail(m, p.MasterDefendantID.String(), dErrors.CodeNotFound, "defendant not found on case")
				return out, nil
			}
			return mutate(ctx, e.store.MatchGroups, p.MasterDefendantID.String(), func(g *defendant.MatchGroup) (*defendant.MatchGroup, events.Outcome, error) {
				next, out := defendant.Match(m, g, p, *a, *b)
				return next, out, nil
			})
		},
	})

	register(e, events.UnmatchDefendant, handler[events.UnmatchDefendantPayload]{
		kind: defendant.Kind,
		key:  func(p events.UnmatchDefendantPayload) string { return p.MasterDefendantID.String() },
		apply: func(e *Engine, ctx context.Context, m events.Meta, p events.UnmatchDefendantPayload) (events.Outcome, error) {
			return mutate(ctx, e.store.MatchGroups, p.MasterDefendantID.String(), func(g *defendant.MatchGroup) (*defendant.MatchGroup, events.Outcome, error) {
				if g == nil {
					return nil, events.Outcome{}, nil
				}
				out := g.Unmatch(m, events.DefendantRef{ProsecutionCaseID: p.ProsecutionCaseID, DefendantID: p.DefendantID})
				if out.Empty() {
					return nil, out, nil
				}
				return g, out, nil
			})
		},
	})

	register(e, events.MergeMatchGroup, handler[events.MergeMatchGroupPayload]{
		kind: defendant.Kind,
		key:  func(p events.MergeMatchGroupPayload) string { return p.From.String() },
		apply: func(e *Engine, ctx context.Context, m events.Meta, p events.MergeMatchGroupPayload) (events.Outcome, error) {
			return mutate(ctx, e.store.MatchGroups, p.From.String(), func(g *defendant.MatchGroup) (*defendant.MatchGroup, events.Outcome, error) {
				if g == nil {
					return nil, events.Outcome{}, nil
				}
				out := g.Merge(m, p)
				if out.Empty() {
					return nil, out, nil
				}
				return g, out, nil
			})
		},
	})

	register(e, events.AbsorbMatchMembers, handler[events.AbsorbMatchMembersPayload]{
		kind: defendant.Kind,
		key:  func(p events.AbsorbMatchMembersPayload) string { return p.MasterDefendantID.String() },
		apply: func(e *Engine, ctx context.Context, m events.Meta, p events.AbsorbMatchMembersPayload) (events.Outcome, error) {
			return mutate(ctx, e.store.MatchGroups, p.MasterDefendantID.String(), func(g *defendant.MatchGroup) (*defendant.MatchGroup, events.Outcome, error) {
				next, out := defendant.Absorb(m, g, p)
				return next, out, nil
			})
		},
	})

	register(e, events.PropagateDefendantAttributes, handler[events.PropagateDefendantAttributesPayload]{
		kind: defendant.Kind,
		key:  func(p events.PropagateDefendantAttributesPayload) string { return p.MasterDefendantID.String() },
		apply: func(e *Engine, ctx context.Context, m events.Meta, p events.PropagateDefendantAttributesPayload) (events.Outcome, error) {
			return mutate(ctx, e.store.MatchGroups, p.MasterDefendantID.String(), func(g *defendant.MatchGroup) (*defendant.MatchGroup, events.Outcome, error) {
				if g == nil {
					return nil, events.Outcome{}, nil
				}
				return g, g.Propagate(m, p), nil
			})
		},
	})
}
