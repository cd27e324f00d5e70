// Package httptransport exposes commands and queries over HTTP. Commands are
// validated, wrapped in an envelope and handed to the gate; the response only
// says whether the gate took the event. Queries read the projections.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"progression/internal/application"
	"progression/internal/events"
	"progression/internal/form"
	"progression/internal/gate"
	"progression/internal/groupcase"
	"progression/internal/notice"
	"progression/internal/platform/metrics"
	"progression/internal/platform/middleware"
	"progression/internal/prosecutioncase"
	"progression/internal/query"
	"progression/pkg/domain"
	dErrors "progression/pkg/domain-errors"
	"progression/pkg/platform/httputil"
	"progression/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/transport-mocks.go -package=mocks Ingester,Queries

// Ingester accepts envelopes for sequenced application.
type Ingester interface {
	Ingest(ctx context.Context, env events.Envelope) (gate.Outcome, error)
}

// Queries reads the projections.
type Queries interface {
	Case(ctx context.Context, id domain.CaseID) (*prosecutioncase.Case, error)
	Hearing(ctx context.Context, id domain.HearingID) (*query.HearingView, error)
	Application(ctx context.Context, id domain.ApplicationID) (*application.Application, error)
	Documents(ctx context.Context, groups []string, f query.DocumentFilter) (*query.DocumentIndex, error)
	Group(ctx context.Context, id domain.GroupID) (*groupcase.Group, error)
	Form(ctx context.Context, id domain.CourtFormID) (*form.Form, error)
	Notices(ctx context.Context, hearingID domain.HearingID, register notice.Register) (*query.NoticeRegister, error)
	Failures(limit int) *query.FailureList
}

// Handler serves every progression endpoint.
type Handler struct {
	ingester Ingester
	queries  Queries
	logger   *slog.Logger
	metrics  *metrics.Metrics
	validate *validator.Validate
	ready    func(ctx context.Context) error
	timeout  time.Duration
}

// Option configures a Handler.
type Option func(*Handler)

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

// WithReadiness sets the check behind /healthz.
func WithReadiness(check func(ctx context.Context) error) Option {
	return func(h *Handler) {
		h.ready = check
	}
}

func WithTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// New creates a Handler.
func New(ingester Ingester, queries Queries, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		ingester: ingester,
		queries:  queries,
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		timeout:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register registers the routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	api := chi.NewRouter()
	api.Use(middleware.Recovery(h.logger))
	api.Use(middleware.RequestID)
	api.Use(middleware.RequestTime)
	api.Use(middleware.CallerContext)
	api.Use(middleware.Logger(h.logger, h.metrics))
	api.Use(middleware.Timeout(h.timeout))

	api.Post("/prosecutioncases", h.handleCreateCase)
	api.Post("/prosecutioncases/{caseId}/defendants", h.handleAddDefendants)
	api.Post("/prosecutioncases/{caseId}/defendants/{defendantId}/update", h.handleUpdateDefendant)
	api.Post("/prosecutioncases/{caseId}/defendants/{defendantId}/match", h.handleMatchDefendant)
	api.Post("/prosecutioncases/{caseId}/defendants/{defendantId}/unmatch", h.handleUnmatchDefendant)
	api.Post("/prosecutioncases/{caseId}/defendants/{defendantId}/offences/{offenceId}/laa-reference", h.handleOffenceLaaReference)
	api.Post("/prosecutioncases/{caseId}/eject", h.handleEjectCase)
	api.Post("/groupcases", h.handleInitiateGroup)
	api.Post("/groupcases/{groupId}/cases/{caseId}/remove", h.handleRemoveCaseFromGroup)
	api.Post("/courtapplications", h.handleCreateApplication)
	api.Post("/courtapplications/{applicationId}/eject", h.handleEjectApplication)
	api.Post("/courtapplications/{applicationId}/laa-reference", h.handleApplicationLaaReference)
	api.Post("/courtdocuments", h.handleAddDocument)
	api.Post("/courtdocuments/{documentId}/share", h.handleShareDocument)
	api.Delete("/courtdocuments/{documentId}", h.handleRemoveDocument)
	api.Post("/courtforms", h.handleCreateForm)
	api.Put("/courtforms/{courtFormId}", h.handleUpdateForm)
	api.Post("/courtforms/{courtFormId}/finalise", h.handleFinaliseForm)

	api.Get("/prosecutioncases/{caseId}", h.handleGetCase)
	api.Get("/hearings/{hearingId}", h.handleGetHearing)
	api.Get("/hearings/{hearingId}/opa-notices/{register}", h.handleGetNotices)
	api.Get("/courtapplications/{applicationId}", h.handleGetApplication)
	api.Get("/courtdocuments", h.handleGetDocuments)
	api.Get("/groupcases/{groupId}", h.handleGetGroup)
	api.Get("/courtforms/{courtFormId}", h.handleGetForm)
	api.Get("/operations/failures", h.handleGetFailures)

	r.Mount("/", api)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready(r.Context()); err != nil {
			h.logger.WarnContext(r.Context(), "health check failed", "error", err)
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnavailable, "not ready"))
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, "", map[string]string{"status": "ok"})
}

// writeError logs and writes err. Client errors log at warn.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	code := dErrors.CodeOf(err)
	attrs := []any{
		"request_id", requestcontext.RequestID(r.Context()),
		"path", r.URL.Path,
		"error", err.Error(),
	}
	if dErrors.HTTPStatus(code) >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), msg, attrs...)
	} else {
		h.logger.WarnContext(r.Context(), msg, attrs...)
	}
	httputil.WriteError(w, err)
}
