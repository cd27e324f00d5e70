package engine

import (
	"context"

	"progression/internal/application"
	"progression/internal/events"
	"progression/pkg/domain"
	dErrors "progression/pkg/domain-errors"
	"progression/pkg/platform/sentinel"
)

func (e *Engine) applicationExists(ctx context.Context, id domain.ApplicationID) error {
	return exists(ctx, e.store.Applications, id.String())
}

func (e *Engine) commandApplication(ctx context.Context, m events.Meta, id domain.ApplicationID, fn func(a *application.Application) events.Outcome) (events.Outcome, error) {
	return mutate(ctx, e.store.Applications, id.String(), func(a *application.Application) (*application.Application, events.Outcome, error) {
		if a == nil {
			var out events.Outcome
			out.Fail(m, id.String(), dErrors.CodeNotFound, "court application not found")
			return nil, out, nil
		}
		return a, fn(a), nil
	})
}

func (e *Engine) intentApplication(ctx context.Context, id domain.ApplicationID, fn func(a *application.Application) events.Outcome) (events.Outcome, error) {
	return mutate(ctx, e.store.Applications, id.String(), func(a *application.Application) (*application.Application, events.Outcome, error) {
		if a == nil {
			return nil, events.Outcome{}, sentinel.ErrDeferred
		}
		return a, fn(a), nil
	})
}

func (e *Engine) registerApplication() {
	register(e, events.CreateCourtApplication, handler[events.CreateCourtApplicationPayload]{
		kind: application.Kind,
		key:  func(p events.CreateCourtApplicationPayload) string { return p.ApplicationID.String() },
		apply: func(e *Engine, ctx context.Context, m events.Meta, p events.CreateCourtApplicationPayload) (events.Outcome, error) {
			return mutate(ctx, e.store.Applications, p.ApplicationID.String(), func(a *application.Application) (*application.Application, events.Outcome, error) {
				if a != nil {
					return nil, a.Exists(m), nil
				}
				next, out := application.New(m, p)
				return next, out, nil
			})
		},
	})

	register(e, events.EjectCourtApplication, handler[events.EjectCourtApplicationPayload]{
		kind: application.Kind,
		key:  func(p events.EjectCourtApplicationPayload) string { return p.ApplicationID.String() },
		apply: func(e *Engine, ctx context.Context, m events.Meta, p events.EjectCourtApplicationPayload) (events.Outcome, error) {
			return e.commandApplication(ctx, m, p.ApplicationID, func(a *application.Application) events.Outcome {
				return a.Eject(m, p.RemovalReason)
			})
		},
	})

	register(e, events.RecordApplicationLaaReference, handler[events.RecordApplicationLaaReferencePayload]{
		kind: application.Kind,
		key:  func(p events.RecordApplicationLaaReferencePayload) string { return p.ApplicationID.String() },
		apply: func(e *Engine, ctx context.Context, m events.Meta, p events.RecordApplicationLaaReferencePayload) (events.Outcome, error) {
			return e.commandApplication(ctx, m, p.ApplicationID, func(a *application.Application) events.Outcome {
				return a.RecordLaaReference(m, p)
			})
		},
	})

	register(e, events.RegisterChildApplication, handler[events.RegisterChildApplicationPayload]{
		kind: application.Kind,
		key:  func(p events.RegisterChildApplicationPayload) string { return p.ParentApplicationID.String() },
		needs: func(e *Engine, ctx context.Context, p events.RegisterChildApplicationPayload) error {
			return e.applicationExists(ctx, p.ParentApplicationID)
		},
		apply: func(e *Engine, ctx context.Context, m events.Meta, p events.RegisterChildApplicationPayload) (events.Outcome, error) {
			return e.intentApplication(ctx, p.ParentApplicationID, func(a *application.Application) events.Outcome {
				var out events.Outcome
				// a child registered after its parent was ejected follows it
				if a.RegisterChild(p) && a.Status == application.StatusEjected {
					out.Follow(m, events.EjectLinkedApplication, p.ChildApplicationID.String(), events.EjectLinkedApplicationPayload{
						ApplicationID: p.ChildApplicationID,
						RemovalReason: a.RemovalReason,
					})
				}
				return out
			})
		},
	})

	register(e, events.MarkApplicationListed, handler[events.MarkApplicationListedPayload]{
		kind: application.Kind,
		key:  func(p events.MarkApplicationListedPayload) string { return p.ApplicationID.String() },
		needs: func(e *Engine, ctx context.Context, p events.MarkApplicationListedPayload) error {
			return e.applicationExists(ctx, p.ApplicationID)
		},
		apply: func(e *Engine, ctx context.Context, m events.Meta, p events.MarkApplicationListedPayload) (events.Outcome, error) {
			return e.intentApplication(ctx, p.ApplicationID, func(a *application.Application) events.Outcome {
				return a.MarkListed(m, p)
			})
		},
	})

	register(e, events.EjectLinkedApplication, handler[events.EjectLinkedApplicationPayload]{
		kind: application.Kind,
		key:  func(p events.EjectLinkedApplicationPayload) string { return p.ApplicationID.String() },
		needs: func(e *Engine, ctx context.Context, p events.EjectLinkedApplicationPayload) error {
			return e.applicationExists(ctx, p.ApplicationID)
		},
		apply: func(e *Engine, ctx context.Context, m events.Meta, p events.EjectLinkedApplicationPayload) (events.Outcome, error) {
			return e.intentApplication(ctx, p.ApplicationID, func(a *application.Application) events.Outcome {
				return a.Eject(m, p.RemovalReason)
			})
		},
	})
}
