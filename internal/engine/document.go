package engine

import (
	"context"

	"progression/internal/document"
	"progression/internal/events"
	"progression/internal/form"
	"progression/internal/notice"
	dErrors "progression/pkg/domain-errors"
)

func (e *Engine) registerDocument() {
	register(e, events.AddCourtDocument, handler[events.AddCourtDocumentPayload]{
		kind: document.Kind,
		key:  func(p events.AddCourtDocumentPayload) string { return p.CourtDocumentID.String() },
		apply: func(e *Engine, ctx context.Context, m events.Meta, p events.AddCourtDocumentPayload) (events.Outcome, error) {
			return mutate(ctx, e.store.Documents, p.CourtDocumentID.String(), func(d *document.Document) (*document.Document, events.Outcome, error) {
				if d != nil {
					return nil, d.Exists(m), nil
				}
				next, out := document.Add(m, p)
				return next, out, nil
			})
		},
	})

	register(e, events.ShareCourtDocument, handler[events.ShareCourtDocumentPayload]{
		kind: document.Kind,
		key:  func(p events.ShareCourtDocumentPayload) string { return p.CourtDocumentID.String() },
		apply: func(e *Engine, ctx context.Context, m events.Meta, p events.ShareCourtDocumentPayload) (events.Outcome, error) {
			return mutate(ctx, e.store.Documents, p.CourtDocumentID.String(), func(d *document.Document) (*document.Document, events.Outcome, error) {
				if d == nil {
					return nil, document.ShareUnknown(m, p), nil
				}
				return d, d.Share(m, p), nil
			})
		},
	})

	register(e, events.RemoveCourtDocument, handler[events.RemoveCourtDocumentPayload]{
		kind: document.Kind,
		key:  func(p events.RemoveCourtDocumentPayload) string { return p.CourtDocumentID.String() },
		apply: func(e *Engine, ctx context.Context, m events.Meta, p events.RemoveCourtDocumentPayload) (events.Outcome, error) {
			return mutate(ctx, e.store.Documents, p.CourtDocumentID.String(), func(d *document.Document) (*document.Document, events.Outcome, error) {
				if d == nil {
					var out events.Outcome
					out.Fail(m, p.CourtDocumentID.String(), dErrors.CodeNotFound, "court document not found")
					return nil, out, nil
				}
				return d, d.Remove(m), nil
			})
		},
	})
}

func (e *Engine) registerNotice() {
	pleas := handler[events.PleasAllocatedPayload]{
		kind: notice.Kind,
		key:  func(p events.PleasAllocatedPayload) string { return p.HearingID.String() },
		apply: func(e *Engine, ctx context.Context, m events.Meta, p events.PleasAllocatedPayload) (events.Outcome, error) {
			return mutate(ctx, e.store.Notices, p.HearingID.String(), func(n *notice.HearingNotices) (*notice.HearingNotices, events.Outcome, error) {
				if n == nil {
					n = notice.New(p.HearingID)
				}
				return n, n.RecordPleas(m, p), nil
			})
		},
	}
	register(e, events.DefencePleasAdded, pleas)
	register(e, events.DefencePleasUpdated, pleas)

	register(e, events.GenerateOpaNotices, handler[events.GenerateOpaNoticesPayload]{
		kind: notice.Kind,
		key:  func(p events.GenerateOpaNoticesPayload) string { return p.HearingID.String() },
		apply: func(e *Engine, ctx context.Context, m events.Meta, p events.GenerateOpaNoticesPayload) (events.Outcome, error) {
			return mutate(ctx, e.store.Notices, p.HearingID.String(), func(n *notice.HearingNotices) (*notice.HearingNotices, events.Outcome, error) {
				if n == nil {
					n = notice.New(p.HearingID)
				}
				return n, n.Generate(m), nil
			})
		},
	})

	register(e, events.ApplyOpaHearingResult, handler[events.ApplyOpaHearingResultPayload]{
		kind: notice.Kind,
		key:  func(p events.ApplyOpaHearingResultPayload) string { return p.HearingID.String() },
		apply: func(e *Engine, ctx context.Context, m events.Meta, p events.ApplyOpaHearingResultPayload) (events.Outcome, error) {
			return mutate(ctx, e.store.Notices, p.HearingID.String(), func(n *notice.HearingNotices) (*notice.HearingNotices, events.Outcome, error) {
				if n == nil {
					n = notice.New(p.HearingID)
				}
				return n, n.ApplyResult(m, p.ResultsWithheld), nil
			})
		},
	})
}

func (e *Engine) registerForm() {
	register(e, events.CreateCourtForm, handler[events.CreateCourtFormPayload]{
		kind: form.Kind,
		key:  func(p events.CreateCourtFormPayload) string { return p.CourtFormID.String() },
		apply: func(e *Engine, ctx context.Context, m events.Meta, p events.CreateCourtFormPayload) (events.Outcome, error) {
			return mutate(ctx, e.store.Forms, p.CourtFormID.String(), func(f *form.Form) (*form.Form, events.Outcome, error) {
				if f != nil {
					return nil, f.Exists(), nil
				}
				next, out := form.Create(m, p)
				return next, out, nil
			})
		},
	})

	register(e, events.UpdateCourtForm, handler[events.UpdateCourtFormPayload]{
		kind: form.Kind,
		key:  func(p events.UpdateCourtFormPayload) string { return p.CourtFormID.String() },
		apply: func(e *Engine, ctx context.Context, m events.Meta, p events.UpdateCourtFormPayload) (events.Outcome, error) {
			return mutate(ctx, e.store.Forms, p.CourtFormID.String(), func(f *form.Form) (*form.Form, events.Outcome, error) {
				if f == nil {
					return nil, form.Failed(p.CourtFormID, form.OperationUpdate, dErrors.CodeNotFound, "court form not found"), nil
				}
				return f, f.Update(m, p), nil
			})
		},
	})

	register(e, events.FinaliseCourtForm, handler[events.FinaliseCourtFormPayload]{
		kind: form.Kind,
		key:  func(p events.FinaliseCourtFormPayload) string { return p.CourtFormID.String() },
		apply: func(e *Engine, ctx context.Context, m events.Meta, p events.FinaliseCourtFormPayload) (events.Outcome, error) {
			return mutate(ctx, e.store.Forms, p.CourtFormID.String(), func(f *form.Form) (*form.Form, events.Outcome, error) {
				if f == nil {
					return nil, form.Failed(p.CourtFormID, form.OperationFinalise, dErrors.CodeNotFound, "court form not found"), nil
				}
				return f, f.Finalise(m), nil
			})
		},
	})
}
