// Package query composes the read models served by the query endpoints.
// Reads are eventually consistent with the commands that produced them.
package query

import (
	"context"
	"errors"
	"log/slog"

	"progression/internal/application"
	"progression/internal/deadletter"
	"progression/internal/document"
	"progression/internal/events"
	"progression/internal/form"
	"progression/internal/groupcase"
	"progression/internal/hearing"
	"progression/internal/notice"
	"progression/internal/projection"
	"progression/internal/prosecutioncase"
	"progression/pkg/domain"
	dErrors "progression/pkg/domain-errors"
	"progression/pkg/platform/sentinel"
)

// DefaultFailureLimit bounds the failures listing when the caller sets none.
const DefaultFailureLimit = 50

// Failures lists recent failure records.
type Failures interface {
	Recent(limit int) []deadletter.Entry
}

// Service answers queries over the projection set.
type Service struct {
	store    *projection.Set
	failures Failures
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithFailures(f Failures) Option {
	return func(s *Service) {
		s.failures = f
	}
}

// New creates a query service.
func New(store *projection.Set, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HearingView is a hearing with the live status of what it lists.
type HearingView struct {
	*hearing.Hearing
	ProsecutionCases  []HearingCaseView        `json:"prosecutionCases"`
	CourtApplications []HearingApplicationView `json:"courtApplications,omitempty"`
}

// HearingCaseView is a listed case with its current status.
type HearingCaseView struct {
	events.HearingCase
	CaseStatus    prosecutioncase.Status `json:"caseStatus,omitempty"`
	RemovalReason string                 `json:"removalReason,omitempty"`
}

// HearingApplicationView is a listed application with its current status.
type HearingApplicationView struct {
	ID                   domain.ApplicationID `json:"id"`
	ApplicationReference string               `json:"applicationReference,omitempty"`
	ApplicationStatus    application.Status   `json:"applicationStatus,omitempty"`
	RemovalReason        string               `json:"removalReason,omitempty"`
}

// DocumentIndex is the court documents response.
type DocumentIndex struct {
	DocumentIndices []document.Document `json:"documentIndices"`
}

// DocumentFilter selects documents by what they are indexed under.
type DocumentFilter struct {
	ProsecutionCaseID domain.CaseID
	DefendantID       domain.DefendantID
	ApplicationID     domain.ApplicationID
}

// NoticeRegister is one OPA register of a hearing.
type NoticeRegister struct {
	HearingID domain.HearingID `json:"hearingId"`
	Register  notice.Register  `json:"register"`
	Notices   []notice.Notice  `json:"notices"`
}

// FailureList is the recent failures response.
type FailureList struct {
	Failures []deadletter.Entry `json:"failures"`
}

func get[T any](ctx context.Context, repo projection.Repository[T], id, what string) (*T, error) {
	v, _, err := repo.Load(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, what+" not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load "+what)
	}
	return v, nil
}

// Case returns a prosecution case.
func (s *Service) Case(ctx context.Context, id domain.CaseID) (*prosecutioncase.Case, error) {
	return get(ctx, s.store.Cases, id.String(), "prosecution case")
}

// Hearing returns a hearing enriched with the current status of its cases and
// applications. Deleted hearings are reported as not found.
func (s *Service) Hearing(ctx context.Context, id domain.HearingID) (*HearingView, error) {
	h, err := get(ctx, s.store.Hearings, id.String(), "hearing")
	if err != nil {
		return nil, err
	}
	if h.Deleted {
		return nil, dErrors.New(dErrors.CodeNotFound, "hearing not found")
	}

	view := &HearingView{Hearing: h, ProsecutionCases: []HearingCaseView{}}
	for _, hc := range h.ProsecutionCases {
		cv := HearingCaseView{HearingCase: hc}
		c, _, err := s.store.Cases.Load(ctx, hc.ID.String())
		switch {
		case err == nil:
			cv.CaseStatus = c.Status
			cv.RemovalReason = c.RemovalReason
		case !errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load prosecution case")
		}
		view.ProsecutionCases = append(view.ProsecutionCases, cv)
	}
	for _, appID := range h.CourtApplicationIDs {
		av := HearingApplicationView{ID: appID}
		a, _, err := s.store.Applications.Load(ctx, appID.String())
		switch {
		case err == nil:
			av.ApplicationReference = a.ApplicationReference
			av.ApplicationStatus = a.Status
			av.RemovalReason = a.RemovalReason
		case !errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load court application")
		}
		view.CourtApplications = append(view.CourtApplications, av)
	}
	return view, nil
}

// Application returns a court application.
func (s *Service) Application(ctx context.Context, id domain.ApplicationID) (*application.Application, error) {
	return get(ctx, s.store.Applications, id.String(), "court application")
}

// Documents returns the documents indexed under f that a caller in groups may
// read. Callers with no readable documents get an empty index.
func (s *Service) Documents(ctx context.Context, groups []string, f DocumentFilter) (*DocumentIndex, error) {
	filter := projection.Filter{}
	switch {
	case f.ProsecutionCaseID != "":
		filter["prosecutionCaseId"] = f.ProsecutionCaseID.String()
	case f.ApplicationID != "":
		filter["applicationId"] = f.ApplicationID.String()
	default:
		return nil, dErrors.New(dErrors.CodeValidation, "caseId or applicationId is required")
	}
	docs, err := s.store.Documents.Find(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to find court documents")
	}
	visible := document.Visible(docs, groups, f.ProsecutionCaseID, f.DefendantID, f.ApplicationID)
	s.logger.DebugContext(ctx, "court documents filtered",
		"candidates", len(docs),
		"visible", len(visible),
	)
	return &DocumentIndex{DocumentIndices: visible}, nil
}

// Group returns a group of civil cases.
func (s *Service) Group(ctx context.Context, id domain.GroupID) (*groupcase.Group, error) {
	return get(ctx, s.store.Groups, id.String(), "group")
}

// Form returns a court form.
func (s *Service) Form(ctx context.Context, id domain.CourtFormID) (*form.Form, error) {
	return get(ctx, s.store.Forms, id.String(), "court form")
}

// Notices returns the active entries of one OPA register. A hearing without
// notices has an empty register.
func (s *Service) Notices(ctx context.Context, hearingID domain.HearingID, register notice.Register) (*NoticeRegister, error) {
	reg := &NoticeRegister{HearingID: hearingID, Register: register, Notices: []notice.Notice{}}
	n, _, err := s.store.Notices.Load(ctx, hearingID.String())
	if errors.Is(err, sentinel.ErrNotFound) {
		return reg, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load notices")
	}
	reg.Notices = n.Entries(register)
	return reg, nil
}

// Failures returns the most recent failures, newest first.
func (s *Service) Failures(limit int) *FailureList {
	if limit <= 0 {
		limit = DefaultFailureLimit
	}
	list := &FailureList{Failures: []deadletter.Entry{}}
	if s.failures == nil {
		return list
	}
	list.Failures = append(list.Failures, s.failures.Recent(limit)...)
	return list
}
