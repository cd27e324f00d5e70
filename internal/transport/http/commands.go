package httptransport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"progression/internal/events"
	"progression/pkg/domain"
	dErrors "progression/pkg/domain-errors"
	"progression/pkg/platform/httputil"
	"progression/pkg/platform/sentinel"
	"progression/pkg/requestcontext"
)

// Accepted is the body of every 202 response.
type Accepted struct {
	EventID domain.EventID `json:"eventId"`
	Outcome string         `json:"outcome"`
}

// command decodes, binds and validates a payload of type P and submits it as
// name. bind copies path parameters into the payload; path values win over the body.
func command[P any](h *Handler, name events.Name, bind func(r *http.Request, p *P) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := decode(h, w, r, bind)
		if !ok {
			return
		}
		h.submit(w, r, name, p)
	}
}

func decode[P any](h *Handler, w http.ResponseWriter, r *http.Request, bind func(r *http.Request, p *P) error) (P, bool) {
	var p P
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, r, dErrors.New(dErrors.CodeBadRequest, "invalid request body"), "invalid command body")
		return p, false
	}
	if bind != nil {
		if err := bind(r, &p); err != nil {
			h.writeError(w, r, err, "invalid path parameter")
			return p, false
		}
	}
	if err := h.validate.Struct(p); err != nil {
		h.writeError(w, r, validationError(err), "command validation failed")
		return p, false
	}
	return p, true
}

// submit wraps payload in an envelope and hands it to the gate. An
// Idempotency-Key makes the envelope id deterministic, so a retried request
// is recognised as a duplicate.
func (h *Handler) submit(w http.ResponseWriter, r *http.Request, name events.Name, payload any) {
	ctx := r.Context()
	id := domain.NewEventID()
	if key := requestcontext.IdempotencyKey(ctx); key != "" {
		id = domain.EventIDFromKey(key)
	}
	env, err := events.NewEnvelope(id, name, payload, requestcontext.Now(ctx))
	if err != nil {
		h.writeError(w, r, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build envelope"), "envelope failed")
		return
	}

	outcome, err := h.ingester.Ingest(ctx, env)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrMalformed):
			err = dErrors.Wrap(err, dErrors.CodeBadRequest, "command rejected")
		case errors.Is(err, sentinel.ErrUnavailable):
			err = dErrors.Wrap(err, dErrors.CodeUnavailable, "service is shutting down")
		default:
			err = dErrors.Wrap(err, dErrors.CodeInternal, "failed to accept command")
		}
		h.writeError(w, r, err, "command not accepted")
		return
	}

	h.metrics.IncCommand(string(name), string(outcome))
	h.logger.InfoContext(ctx, "command accepted",
		"event_id", env.ID,
		"event_name", name,
		"outcome", string(outcome),
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteJSON(w, http.StatusAccepted, "", Accepted{EventID: env.ID, Outcome: string(outcome)})
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return dErrors.New(dErrors.CodeValidation, err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag())
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		msgs = append(msgs, msg)
	}
	return dErrors.New(dErrors.CodeValidation, strings.Join(msgs, "; "))
}

func pathParam[T ~string](r *http.Request, name string, parse func(string) (T, error)) (T, error) {
	id, err := parse(chi.URLParam(r, name))
	if err != nil {
		var zero T
		return zero, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+name)
	}
	return id, nil
}

func (h *Handler) handleCreateCase(w http.ResponseWriter, r *http.Request) {
	command[events.CreateProsecutionCasePayload](h, events.CreateProsecutionCase, nil)(w, r)
}

func (h *Handler) handleAddDefendants(w http.ResponseWriter, r *http.Request) {
	command(h, events.AddDefendants, func(r *http.Request, p *events.AddDefendantsPayload) (err error) {
		p.ProsecutionCaseID, err = pathParam(r, "caseId", domain.ParseCaseID)
		return err
	})(w, r)
}

// bindDefendant binds the case and defendant path parameters.
func bindDefendant(r *http.Request, caseID *domain.CaseID, defendantID *domain.DefendantID) (err error) {
	if *caseID, err = pathParam(r, "caseId", domain.ParseCaseID); err != nil {
		return err
	}
	*defendantID, err = pathParam(r, "defendantId", domain.ParseDefendantID)
	return err
}

func (h *Handler) handleUpdateDefendant(w http.ResponseWriter, r *http.Request) {
	command(h, events.UpdateDefendant, func(r *http.Request, p *events.UpdateDefendantPayload) error {
		return bindDefendant(r, &p.ProsecutionCaseID, &p.DefendantID)
	})(w, r)
}

func (h *Handler) handleMatchDefendant(w http.ResponseWriter, r *http.Request) {
	command(h, events.MatchDefendant, func(r *http.Request, p *events.MatchDefendantPayload) error {
		return bindDefendant(r, &p.ProsecutionCaseID, &p.DefendantID)
	})(w, r)
}

func (h *Handler) handleUnmatchDefendant(w http.ResponseWriter, r *http.Request) {
	command(h, events.UnmatchDefendant, func(r *http.Request, p *events.UnmatchDefendantPayload) error {
		return bindDefendant(r, &p.ProsecutionCaseID, &p.DefendantID)
	})(w, r)
}

func (h *Handler) handleOffenceLaaReference(w http.ResponseWriter, r *http.Request) {
	command(h, events.RecordOffenceLaaReference, func(r *http.Request, p *events.RecordOffenceLaaReferencePayload) (err error) {
		if err = bindDefendant(r, &p.ProsecutionCaseID, &p.DefendantID); err != nil {
			return err
		}
		p.OffenceID, err = pathParam(r, "offenceId", domain.ParseOffenceID)
		return err
	})(w, r)
}

func (h *Handler) handleEjectCase(w http.ResponseWriter, r *http.Request) {
	command(h, events.EjectCase, func(r *http.Request, p *events.EjectCasePayload) (err error) {
		p.ProsecutionCaseID, err = pathParam(r, "caseId", domain.ParseCaseID)
		return err
	})(w, r)
}

func (h *Handler) handleInitiateGroup(w http.ResponseWriter, r *http.Request) {
	command[events.InitiateGroupProceedingsPayload](h, events.InitiateGroupProceedings, nil)(w, r)
}

func (h *Handler) handleRemoveCaseFromGroup(w http.ResponseWriter, r *http.Request) {
	command(h, events.RemoveCaseFromGroup, func(r *http.Request, p *events.RemoveCaseFromGroupPayload) (err error) {
		if p.GroupID, err = pathParam(r, "groupId", domain.ParseGroupID); err != nil {
			return err
		}
		p.ProsecutionCaseID, err = pathParam(r, "caseId", domain.ParseCaseID)
		return err
	})(w, r)
}

// handleCreateApplication routes applications linked to a case through the
// case, which assigns their reference.
func (h *Handler) handleCreateApplication(w http.ResponseWriter, r *http.Request) {
	p, ok := decode[events.CreateCourtApplicationPayload](h, w, r, nil)
	if !ok {
		return
	}
	name := events.CreateCourtApplication
	if p.ProsecutionCaseID != "" {
		name = events.CreateLinkedCourtApplication
	}
	h.submit(w, r, name, p)
}

func (h *Handler) handleEjectApplication(w http.ResponseWriter, r *http.Request) {
	command(h, events.EjectCourtApplication, func(r *http.Request, p *events.EjectCourtApplicationPayload) (err error) {
		p.ApplicationID, err = pathParam(r, "applicationId", domain.ParseApplicationID)
		return err
	})(w, r)
}

func (h *Handler) handleApplicationLaaReference(w http.ResponseWriter, r *http.Request) {
	command(h, events.RecordApplicationLaaReference, func(r *http.Request, p *events.RecordApplicationLaaReferencePayload) (err error) {
		p.ApplicationID, err = pathParam(r, "applicationId", domain.ParseApplicationID)
		return err
	})(w, r)
}

func (h *Handler) handleAddDocument(w http.ResponseWriter, r *http.Request) {
	command[events.AddCourtDocumentPayload](h, events.AddCourtDocument, nil)(w, r)
}

func (h *Handler) handleShareDocument(w http.ResponseWriter, r *http.Request) {
	command(h, events.ShareCourtDocument, func(r *http.Request, p *events.ShareCourtDocumentPayload) (err error) {
		p.CourtDocumentID, err = pathParam(r, "documentId", domain.ParseCourtDocumentID)
		return err
	})(w, r)
}

func (h *Handler) handleRemoveDocument(w http.ResponseWriter, r *http.Request) {
	command(h, events.RemoveCourtDocument, func(r *http.Request, p *events.RemoveCourtDocumentPayload) (err error) {
		p.CourtDocumentID, err = pathParam(r, "documentId", domain.ParseCourtDocumentID)
		return err
	})(w, r)
}

func (h *Handler) handleCreateForm(w http.ResponseWriter, r *http.Request) {
	command[events.CreateCourtFormPayload](h, events.CreateCourtForm, nil)(w, r)
}

func (h *Handler) handleUpdateForm(w http.ResponseWriter, r *http.Request) {
	command(h, events.UpdateCourtForm, func(r *http.Request, p *events.UpdateCourtFormPayload) (err error) {
		p.CourtFormID, err = pathParam(r, "courtFormId", domain.ParseCourtFormID)
		return err
	})(w, r)
}

func (h *Handler) handleFinaliseForm(w http.ResponseWriter, r *http.Request) {
	command(h, events.FinaliseCourtForm, func(r *http.Request, p *events.FinaliseCourtFormPayload) (err error) {
		p.CourtFormID, err = pathParam(r, "courtFormId", domain.ParseCourtFormID)
		return err
	})(w, r)
}
