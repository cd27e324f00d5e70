package engine

import (
	"context"
	"fmt"

	"progression/internal/events"
	"progression/internal/hearing"
	"progression/pkg/domain"
	"progression/pkg/platform/sentinel"
)

func (e *Engine) hearingExists(ctx context.Context, id domain.HearingID) error {
	return exists(ctx, e.store.Hearings, id.String())
}

// updateHearing applies fn to an existing hearing. A missing hearing defers.
func (e *Engine) updateHearing(ctx context.Context, id domain.HearingID, fn func(h *hearing.Hearing) events.Outcome) (events.Outcome, error) {
	return mutate(ctx, e.store.Hearings, id.String(), func(h *hearing.Hearing) (*hearing.Hearing, events.Outcome, error) {
		if h == nil {
			return nil, events.Outcome{}, sentinel.ErrDeferred
		}
		return h, fn(h), nil
	})
}

func (e *Engine) registerHearing() {
	register(e, events.ListingHearingConfirmed, handler[events.HearingConfirmedPayload]{
		kind: hearing.Kind,
		key: func(p events.HearingConfirmedPayload) string {
			if id := p.ConfirmedHearing.ExtendedHearingID; id != "" {
				return id.String()
			}
			return p.ConfirmedHearing.ID.String()
		},
		needs: func(e *Engine, ctx context.Context, p events.HearingConfirmedPayload) error {
			if id := p.ConfirmedHearing.ExtendedHearingID; id != "" {
				return e.hearingExists(ctx, id)
			}
			return nil
		},
		apply: func(e *Engine, ctx context.Context, m events.Meta, p events.HearingConfirmedPayload) (events.Outcome, error) {
			ch := p.ConfirmedHearing
			if ext := ch.ExtendedHearingID; ext != "" && ext != ch.ID {
				return mutate(ctx, e.store.Hearings, ext.String(), func(h *hearing.Hearing) (*hearing.Hearing, events.Outcome, error) {
					if h == nil {
						return nil, events.Outcome{}, sentinel.ErrDeferred
					}
					out, err := h.Extend(m, ch)
					return h, out, err
				})
			}
			return mutate(ctx, e.store.Hearings, ch.ID.String(), func(h *hearing.Hearing) (*hearing.Hearing, events.Outcome, error) {
				h, out := hearing.Confirm(m, h, ch)
				return h, out, nil
			})
		},
	})

	register(e, events.ListingHearingUpdated, handler[events.HearingUpdatedPayload]{
		kind: hearing.Kind,
		key:  func(p events.HearingUpdatedPayload) string { return p.UpdatedHearing.ID.String() },
		needs: func(e *Engine, ctx context.Context, p events.HearingUpdatedPayload) error {
			return e.hearingExists(ctx, p.UpdatedHearing.ID)
		},
		apply: func(e *Engine, ctx context.Context, m events.Meta, p events.HearingUpdatedPayload) (events.Outcome, error) {
			return e.updateHearing(ctx, p.UpdatedHearing.ID, func(h *hearing.Hearing) events.Outcome {
				return h.Update(m, p.UpdatedHearing)
			})
		},
	})

	resulted := handler[events.HearingResultedPayload]{
		kind: hearing.Kind,
		key:  func(p events.HearingResultedPayload) string { return p.Hearing.ID.String() },
		needs: func(e *Engine, ctx context.Context, p events.HearingResultedPayload) error {
			h, err := load(ctx, e.store.Hearings, p.Hearing.ID.String())
			if err != nil {
				return err
			}
			if h == nil || !h.AcceptsResults() {
				return fmt.Errorf("hearing %s not confirmed: %w", p.Hearing.ID, sentinel.ErrDeferred)
			}
			return nil
		},
		apply: func(e *Engine, ctx context.Context, m events.Meta, p events.HearingResultedPayload) (events.Outcome, error) {
			return mutate(ctx, e.store.Hearings, p.Hearing.ID.String(), func(h *hearing.Hearing) (*hearing.Hearing, events.Outcome, error) {
				if h == nil {
					return nil, events.Outcome{}, sentinel.ErrDeferred
				}
				out, err := h.Result(m, p)
				return h, out, err
			})
		},
	}
	register(e, events.HearingResulted, resulted)
	register(e, events.HearingResultedV2, resulted)

	register(e, events.HearingOffencesRemoved, handler[events.OffencesRemovedPayload]{
		kind: hearing.Kind,
		key:  func(p events.OffencesRemovedPayload) string { return p.HearingID.String() },
		needs: func(e *Engine, ctx context.Context, p events.OffencesRemovedPayload) error {
			return e.hearingExists(ctx, p.HearingID)
		},
		apply: func(e *Engine, ctx context.Context, m events.Meta, p events.OffencesRemovedPayload) (events.Outcome, error) {
			return e.updateHearing(ctx, p.HearingID, func(h *hearing.Hearing) events.Outcome {
				return h.RemoveOffences(m, p.OffenceIDs)
			})
		},
	})

	register(e, events.ListingOffencesMoved, handler[events.OffencesMovedPayload]{
		kind: hearing.Kind,
		key:  func(p events.OffencesMovedPayload) string { return p.HearingID.String() },
		needs: func(e *Engine, ctx context.Context, p events.OffencesMovedPayload) error {
			if err := e.hearingExists(ctx, p.HearingID); err != nil {
				return err
			}
			return e.hearingExists(ctx, p.NextHearingID)
		},
		apply: func(e *Engine, ctx context.Context, m events.Meta, p events.OffencesMovedPayload) (events.Outcome, error) {
			return e.updateHearing(ctx, p.HearingID, func(h *hearing.Hearing) events.Outcome {
				return h.MoveOffences(m, p)
			})
		},
	})

	register(e, events.SendCaseForListing, handler[events.SendCaseForListingPayload]{
		kind: hearing.Kind,
		key:  func(p events.SendCaseForListingPayload) string { return p.HearingID.String() },
		apply: func(e *Engine, ctx context.Context, m events.Meta, p events.SendCaseForListingPayload) (events.Outcome, error) {
			return mutate(ctx, e.store.Hearings, p.HearingID.String(), func(h *hearing.Hearing) (*hearing.Hearing, events.Outcome, error) {
				if h == nil {
					h, out := hearing.SendForListing(m, p)
					return h, out, nil
				}
				if !h.AddListing(p) {
					return nil, events.Outcome{}, nil
				}
				return h, events.Outcome{}, nil
			})
		},
	})

	register(e, events.AllocateOffences, handler[events.AllocateOffencesPayload]{
		kind: hearing.Kind,
		key:  func(p events.AllocateOffencesPayload) string { return p.HearingID.String() },
		needs: func(e *Engine, ctx context.Context, p events.AllocateOffencesPayload) error {
			return e.hearingExists(ctx, p.HearingID)
		},
		apply: func(e *Engine, ctx context.Context, m events.Meta, p events.AllocateOffencesPayload) (events.Outcome, error) {
			return mutate(ctx, e.store.Hearings, p.HearingID.String(), func(h *hearing.Hearing) (*hearing.Hearing, events.Outcome, error) {
				if h == nil {
					return nil, events.Outcome{}, sentinel.ErrDeferred
				}
				if !h.Allocate(p) {
					return nil, events.Outcome{}, nil
				}
				return h, events.Outcome{}, nil
			})
		},
	})

	register(e, events.DeleteHearing, handler[events.DeleteHearingPayload]{
		kind: hearing.Kind,
		key:  func(p events.DeleteHearingPayload) string { return p.HearingID.String() },
		apply: func(e *Engine, ctx context.Context, m events.Meta, p events.DeleteHearingPayload) (events.Outcome, error) {
			return mutate(ctx, e.store.Hearings, p.HearingID.String(), func(h *hearing.Hearing) (*hearing.Hearing, events.Outcome, error) {
				if h == nil {
					return nil, events.Outcome{}, nil
				}
				return h, h.Delete(m), nil
			})
		},
	})

	register(e, events.MarkHearingExtendedInto, handler[events.MarkHearingExtendedIntoPayload]{
		kind: hearing.Kind,
		key:  func(p events.MarkHearingExtendedIntoPayload) string { return p.HearingID.String() },
		apply: func(e *Engine, ctx context.Context, m events.Meta, p events.MarkHearingExtendedIntoPayload) (events.Outcome, error) {
			return mutate(ctx, e.store.Hearings, p.HearingID.String(), func(h *hearing.Hearing) (*hearing.Hearing, events.Outcome, error) {
				if h == nil || !h.MarkExtendedInto(p) {
					return nil, events.Outcome{}, nil
				}
				return h, events.Outcome{}, nil
			})
		},
	})
}
