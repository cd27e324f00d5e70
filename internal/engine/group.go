package engine

import (
	"context"

	"progression/internal/events"
	"progression/internal/groupcase"
	"progression/pkg/domain"
	dErrors "progression/pkg/domain-errors"
)

func (e *Engine) registerGroup() {
	register(e, events.InitiateGroupProceedings, handler[events.InitiateGroupProceedingsPayload]{
		kind: groupcase.Kind,
		key:  func(p events.InitiateGroupProceedingsPayload) string { return p.GroupID.String() },
		apply: func(e *Engine, ctx context.Context, m events.Meta, p events.InitiateGroupProceedingsPayload) (events.Outcome, error) {
			existing := make(map[domain.CaseID]bool, len(p.Cases))
			for _, c := range p.Cases {
				ok, err := e.store.Cases.Exists(ctx, c.ProsecutionCaseID.String())
				if err != nil {
					return events.Outcome{}, err
				}
				existing[c.ProsecutionCaseID] = ok
			}
			return mutate(ctx, e.store.Groups, p.GroupID.String(), func(g *groupcase.Group) (*groupcase.Group, events.Outcome, error) {
				if g != nil {
					return nil, g.Exists(m), nil
				}
				next, out := groupcase.Initiate(m, p, func(id domain.CaseID) bool { return existing[id] })
				return next, out, nil
			})
		},
	})

	register(e, events.RemoveCaseFromGroup, handler[events.RemoveCaseFromGroupPayload]{
		kind: groupcase.Kind,
		key:  func(p events.RemoveCaseFromGroupPayload) string { return p.GroupID.String() },
		apply: func(e *Engine, ctx context.Context, m events.Meta, p events.RemoveCaseFromGroupPayload) (events.Outcome, error) {
			return mutate(ctx, e.store.Groups, p.GroupID.String(), func(g *groupcase.Group) (*groupcase.Group, events.Outcome, error) {
				if g == nil {
					var out events.Outcome
					out.Fail(m, p.GroupID.String(), dErrors.CodeNotFound, "group not found")
					return nil, out, nil
				}
				return g, g.RemoveCase(m, p.ProsecutionCaseID), nil
			})
		},
	})
}
