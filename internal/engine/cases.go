package engine

import (
	"context"

	"progression/internal/events"
	"progression/internal/prosecutioncase"
	"progression/pkg/domain"
	dErrors "progression/pkg/domain-errors"
	"progression/pkg/platform/sentinel"
)

func (e *Engine) caseExists(ctx context.Context, id domain.CaseID) error {
	return exists(ctx, e.store.Cases, id.String())
}

// commandCase applies a command to an existing case. Commands naming an
// unknown case fail with NotFound.
func (e *Engine) commandCase(ctx context.Context, m events.Meta, id domain.CaseID, fn func(c *prosecutioncase.Case) events.Outcome) (events.Outcome, error) {
	return mutate(ctx, e.store.Cases, id.String(), func(c *prosecutioncase.Case) (*prosecutioncase.Case, events.Outcome, error) {
		if c == nil {
			var out events.Outcome
			out.Fail(m, id.String(), dErrors.CodeNotFound, "prosecution case not found")
			return nil, out, nil
		}
		return c, fn(c), nil
	})
}

// intentCase applies an intent to a case. Intents wait for the case to exist.
func (e *Engine) intentCase(ctx context.Context, id domain.CaseID, fn func(c *prosecutioncase.Case) events.Outcome) (events.Outcome, error) {
	return mutate(ctx, e.store.Cases, id.String(), func(c *prosecutioncase.Case) (*prosecutioncase.Case, events.Outcome, error) {
		if c == nil {
			return nil, events.Outcome{}, sentinel.ErrDeferred
		}
		return c, fn(c), nil
	})
}

func (e *Engine) registerCase() {
	register(e, events.CreateProsecutionCase, handler[events.CreateProsecutionCasePayload]{
		kind: prosecutioncase.Kind,
		key:  func(p events.CreateProsecutionCasePayload) string { return p.ProsecutionCaseID.String() },
		apply: func(e *Engine, ctx context.Context, m events.Meta, p events.CreateProsecutionCasePayload) (events.Outcome, error) {
			return mutate(ctx, e.store.Cases, p.ProsecutionCaseID.String(), func(c *prosecutioncase.Case) (*prosecutioncase.Case, events.Outcome, error) {
				if c != nil {
					return nil, c.Exists(m, p), nil
				}
				c, out := prosecutioncase.New(m, p)
				return c, out, nil
			})
		},
	})

	register(e, events.HearingCaseCreatedInHearing, handler[events.CaseCreatedInHearingPayload]{
		kind: prosecutioncase.Kind,
		key:  func(p events.CaseCreatedInHearingPayload) string { return p.ProsecutionCase.ProsecutionCaseID.String() },
		apply: func(e *Engine, ctx context.Context, m events.Meta, p events.CaseCreatedInHearingPayload) (events.Outcome, error) {
			create := p.ProsecutionCase
			create.ListHearing = nil
			return mutate(ctx, e.store.Cases, create.ProsecutionCaseID.String(), func(c *prosecutioncase.Case) (*prosecutioncase.Case, events.Outcome, error) {
				var out events.Outcome
				next := c
				if c == nil {
					next, out = prosecutioncase.New(m, create)
				}
				if p.HearingID != "" {
					out.Follow(m, events.AllocateOffences, p.HearingID.String(), events.AllocateOffencesPayload{
						HearingID:        p.HearingID,
						ProsecutionCases: []events.HearingCase{next.HearingCase()},
					})
				}
				if c != nil {
					return nil, out, nil
				}
				return next, out, nil
			})
		},
	})

	register(e, events.AddDefendants, handler[events.AddDefendantsPayload]{
		kind: prosecutioncase.Kind,
		key:  func(p events.AddDefendantsPayload) string { return p.ProsecutionCaseID.String() },
		apply: func(e *Engine, ctx context.Context, m events.Meta, p events.AddDefendantsPayload) (events.Outcome, error) {
			return e.commandCase(ctx, m, p.ProsecutionCaseID, func(c *prosecutioncase.Case) events.Outcome {
				return c.AddDefendants(m, p)
			})
		},
	})

	register(e, events.UpdateDefendant, handler[events.UpdateDefendantPayload]{
		kind: prosecutioncase.Kind,
		key:  func(p events.UpdateDefendantPayload) string { return p.ProsecutionCaseID.String() },
		apply: func(e *Engine, ctx context.Context, m events.Meta, p events.UpdateDefendantPayload) (events.Outcome, error) {
			return e.commandCase(ctx, m, p.ProsecutionCaseID, func(c *prosecutioncase.Case) events.Outcome {
				return c.UpdateDefendant(m, p)
			})
		},
	})

	register(e, events.RecordOffenceLaaReference, handler[events.RecordOffenceLaaReferencePayload]{
		kind: prosecutioncase.Kind,
		key:  func(p events.RecordOffenceLaaReferencePayload) string { return p.ProsecutionCaseID.String() },
		apply: func(e *Engine, ctx context.Context, m events.Meta, p events.RecordOffenceLaaReferencePayload) (events.Outcome, error) {
			return e.commandCase(ctx, m, p.ProsecutionCaseID, func(c *prosecutioncase.Case) events.Outcome {
				return c.RecordOffenceLaaReference(m, p)
			})
		},
	})

	register(e, events.EjectCase, handler[events.EjectCasePayload]{
		kind: prosecutioncase.Kind,
		key:  func(p events.EjectCasePayload) string { return p.ProsecutionCaseID.String() },
		apply: func(e *Engine, ctx context.Context, m events.Meta, p events.EjectCasePayload) (events.Outcome, error) {
			return e.commandCase(ctx, m, p.ProsecutionCaseID, func(c *prosecutioncase.Case) events.Outcome {
				return c.Eject(m, p)
			})
		},
	})

	register(e, events.CreateLinkedCourtApplication, handler[events.CreateCourtApplicationPayload]{
		kind: prosecutioncase.Kind,
		key:  func(p events.CreateCourtApplicationPayload) string { return p.ProsecutionCaseID.String() },
		apply: func(e *Engine, ctx context.Context, m events.Meta, p events.CreateCourtApplicationPayload) (events.Outcome, error) {
			return e.commandCase(ctx, m, p.ProsecutionCaseID, func(c *prosecutioncase.Case) events.Outcome {
				return c.AddLinkedApplication(m, p)
			})
		},
	})

	register(e, events.ApplyHearingResults, handler[events.ApplyHearingResultsPayload]{
		kind: prosecutioncase.Kind,
		key:  func(p events.ApplyHearingResultsPayload) string { return p.ProsecutionCaseID.String() },
		needs: func(e *Engine, ctx context.Context, p events.ApplyHearingResultsPayload) error {
			return e.caseExists(ctx, p.ProsecutionCaseID)
		},
		apply: func(e *Engine, ctx context.Context, m events.Meta, p events.ApplyHearingResultsPayload) (events.Outcome, error) {
			return e.intentCase(ctx, p.ProsecutionCaseID, func(c *prosecutioncase.Case) events.Outcome {
				return c.ApplyResults(m, p)
			})
		},
	})

	register(e, events.AssignMasterDefendant, handler[events.AssignMasterDefendantPayload]{
		kind: prosecutioncase.Kind,
		key:  func(p events.AssignMasterDefendantPayload) string { return p.Target.ProsecutionCaseID.String() },
		needs: func(e *Engine, ctx context.Context, p events.AssignMasterDefendantPayload) error {
			return e.caseExists(ctx, p.Target.ProsecutionCaseID)
		},
		apply: func(e *Engine, ctx context.Context, m events.Meta, p events.AssignMasterDefendantPayload) (events.Outcome, error) {
			return e.intentCase(ctx, p.Target.ProsecutionCaseID, func(c *prosecutioncase.Case) events.Outcome {
				return c.AssignMaster(m, p)
			})
		},
	})

	register(e, events.ApplyDefendantAttributes, handler[events.ApplyDefendantAttributesPayload]{
		kind: prosecutioncase.Kind,
		key:  func(p events.ApplyDefendantAttributesPayload) string { return p.Target.ProsecutionCaseID.String() },
		needs: func(e *Engine, ctx context.Context, p events.ApplyDefendantAttributesPayload) error {
			return e.caseExists(ctx, p.Target.ProsecutionCaseID)
		},
		apply: func(e *Engine, ctx context.Context, m events.Meta, p events.ApplyDefendantAttributesPayload) (events.Outcome, error) {
			return e.intentCase(ctx, p.Target.ProsecutionCaseID, func(c *prosecutioncase.Case) events.Outcome {
				return c.ApplyDefendantAttributes(m, p)
			})
		},
	})

	register(e, events.SetGroupMembership, handler[events.SetGroupMembershipPayload]{
		kind: prosecutioncase.Kind,
		key:  func(p events.SetGroupMembershipPayload) string { return p.ProsecutionCaseID.String() },
		needs: func(e *Engine, ctx context.Context, p events.SetGroupMembershipPayload) error {
			return e.caseExists(ctx, p.ProsecutionCaseID)
		},
		apply: func(e *Engine, ctx context.Context, m events.Meta, p events.SetGroupMembershipPayload) (events.Outcome, error) {
			return e.intentCase(ctx, p.ProsecutionCaseID, func(c *prosecutioncase.Case) events.Outcome {
				c.SetGroupMembership(p)
				return events.Outcome{}
			})
		},
	})

	register(e, events.UpdateApplicationSummary, handler[events.UpdateApplicationSummaryPayload]{
		kind: prosecutioncase.Kind,
		key:  func(p events.UpdateApplicationSummaryPayload) string { return p.ProsecutionCaseID.String() },
		needs: func(e *Engine, ctx context.Context, p events.UpdateApplicationSummaryPayload) error {
			return e.caseExists(ctx, p.ProsecutionCaseID)
		},
		apply: func(e *Engine, ctx context.Context, m events.Meta, p events.UpdateApplicationSummaryPayload) (events.Outcome, error) {
			return e.intentCase(ctx, p.ProsecutionCaseID, func(c *prosecutioncase.Case) events.Outcome {
				c.UpdateApplicationSummary(p)
				return events.Outcome{}
			})
		},
	})
}
