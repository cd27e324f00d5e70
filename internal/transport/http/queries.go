package httptransport

import (
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"progression/internal/application"
	"progression/internal/form"
	"progression/internal/groupcase"
	"progression/internal/notice"
	"progression/internal/prosecutioncase"
	"progression/internal/query"
	"progression/pkg/domain"
	dErrors "progression/pkg/domain-errors"
	"progression/pkg/platform/httputil"
	"progression/pkg/requestcontext"
)

// Vendor media types of the query endpoints.
const (
	MediaTypeCase        = "application/vnd.progression.query.prosecutioncase+json"
	MediaTypeHearing     = "application/vnd.progression.query.hearing+json"
	MediaTypeApplication = "application/vnd.progression.query.court-application+json"
	MediaTypeDocuments   = "application/vnd.progression.query.courtdocuments+json"
	MediaTypeGroup       = "application/vnd.progression.query.groupcases+json"
	MediaTypeForm        = "application/vnd.progression.query.courtform+json"
	MediaTypeNotices     = "application/vnd.progression.query.opa-notices+json"
	MediaTypeFailures    = "application/vnd.progression.query.operation-failures+json"
)

// negotiate picks the response media type for an Accept header. The vendor
// type is served for itself, for wildcards and when Accept is absent; plain
// application/json is served as such.
func negotiate(accept, vendor string) (string, bool) {
	if strings.TrimSpace(accept) == "" {
		return vendor, true
	}
	for _, part := range strings.Split(accept, ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		switch mt {
		case vendor, "*/*", "application/*":
			return vendor, true
		case "application/json":
			return "application/json", true
		}
	}
	return "", false
}

// serve negotiates the media type before reading so an unacceptable request
// does no work.
func serve[T any](h *Handler, vendor string, fetch func(r *http.Request) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mediaType, ok := negotiate(r.Header.Get("Accept"), vendor)
		if !ok {
			h.writeError(w, r, dErrors.New(dErrors.CodeNotAcceptable, "supported media types: "+vendor+", application/json"), "media type not acceptable")
			return
		}
		v, err := fetch(r)
		if err != nil {
			h.writeError(w, r, err, "query failed")
			return
		}
		httputil.WriteJSON(w, http.StatusOK, mediaType, v)
	}
}

func (h *Handler) handleGetCase(w http.ResponseWriter, r *http.Request) {
	serve(h, MediaTypeCase, func(r *http.Request) (*prosecutioncase.Case, error) {
		id, err := pathParam(r, "caseId", domain.ParseCaseID)
		if err != nil {
			return nil, err
		}
		return h.queries.Case(r.Context(), id)
	})(w, r)
}

func (h *Handler) handleGetHearing(w http.ResponseWriter, r *http.Request) {
	serve(h, MediaTypeHearing, func(r *http.Request) (*query.HearingView, error) {
		id, err := pathParam(r, "hearingId", domain.ParseHearingID)
		if err != nil {
			return nil, err
		}
		return h.queries.Hearing(r.Context(), id)
	})(w, r)
}

func (h *Handler) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	serve(h, MediaTypeApplication, func(r *http.Request) (*application.Application, error) {
		id, err := pathParam(r, "applicationId", domain.ParseApplicationID)
		if err != nil {
			return nil, err
		}
		return h.queries.Application(r.Context(), id)
	})(w, r)
}

// handleGetDocuments filters by the caller's user groups from X-User-Groups.
func (h *Handler) handleGetDocuments(w http.ResponseWriter, r *http.Request) {
	serve(h, MediaTypeDocuments, func(r *http.Request) (*query.DocumentIndex, error) {
		var f query.DocumentFilter
		var err error
		q := r.URL.Query()
		if v := q.Get("caseId"); v != "" {
			if f.ProsecutionCaseID, err = domain.ParseCaseID(v); err != nil {
				return nil, err
			}
		}
		if v := q.Get("defendantId"); v != "" {
			if f.DefendantID, err = domain.ParseDefendantID(v); err != nil {
				return nil, err
			}
		}
		if v := q.Get("applicationId"); v != "" {
			if f.ApplicationID, err = domain.ParseApplicationID(v); err != nil {
				return nil, err
			}
		}
		return h.queries.Documents(r.Context(), requestcontext.UserGroups(r.Context()), f)
	})(w, r)
}

func (h *Handler) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	serve(h, MediaTypeGroup, func(r *http.Request) (*groupcase.Group, error) {
		id, err := pathParam(r, "groupId", domain.ParseGroupID)
		if err != nil {
			return nil, err
		}
		return h.queries.Group(r.Context(), id)
	})(w, r)
}

func (h *Handler) handleGetForm(w http.ResponseWriter, r *http.Request) {
	serve(h, MediaTypeForm, func(r *http.Request) (*form.Form, error) {
		id, err := pathParam(r, "courtFormId", domain.ParseCourtFormID)
		if err != nil {
			return nil, err
		}
		return h.queries.Form(r.Context(), id)
	})(w, r)
}

func (h *Handler) handleGetNotices(w http.ResponseWriter, r *http.Request) {
	serve(h, MediaTypeNotices, func(r *http.Request) (*query.NoticeRegister, error) {
		id, err := pathParam(r, "hearingId", domain.ParseHearingID)
		if err != nil {
			return nil, err
		}
		register, ok := notice.ParseRegister(chi.URLParam(r, "register"))
		if !ok {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "register must be public, press or result")
		}
		return h.queries.Notices(r.Context(), id, register)
	})(w, r)
}

func (h *Handler) handleGetFailures(w http.ResponseWriter, r *http.Request) {
	serve(h, MediaTypeFailures, func(r *http.Request) (*query.FailureList, error) {
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return nil, dErrors.New(dErrors.CodeInvalidInput, "limit must be a non-negative integer")
			}
			limit = n
		}
		return h.queries.Failures(limit), nil
	})(w, r)
}
