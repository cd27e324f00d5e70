package httptransport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"progression/internal/events"
	"progression/internal/gate"
	"progression/internal/notice"
	"progression/internal/prosecutioncase"
	"progression/internal/query"
	"progression/internal/transport/http/mocks"
	"progression/pkg/domain"
	dErrors "progression/pkg/domain-errors"
	"progression/pkg/platform/sentinel"
	"progression/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	router   chi.Router
	ingester *mocks.MockIngester
	queries  *mocks.MockQueries
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.ingester = mocks.NewMockIngester(ctrl)
	s.queries = mocks.NewMockQueries(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.router = chi.NewRouter()
	New(s.ingester, s.queries, logger).Register(s.router)
}

func newCaseBody(id string) map[string]any {
	return map[string]any{
		"id": id,
		"prosecutionCaseIdentifier": map[string]any{
			"prosecutionAuthorityReference": "TFL",
		},
		"defendants": []map[string]any{{
			"id":              uuid.NewString(),
			"personDefendant": map[string]any{"firstName": "Ada", "lastName": "Lovelace"},
			"offences":        []map[string]any{{"id": uuid.NewString(), "offenceCode": "TH68001"}},
		}},
	}
}

func (s *HandlerSuite) TestCreateCase() {
	caseID := uuid.NewString()

	s.Run("accepted command returns the event id", func() {
		var got events.Envelope
		s.ingester.EXPECT().Ingest(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, env events.Envelope) (gate.Outcome, error) {
				got = env
				return gate.Accepted, nil
			})

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/prosecutioncases", newCaseBody(caseID)))

		eventID := testutil.AssertAccepted(s.T(), rr)
		assert.Equal(s.T(), got.ID.String(), eventID)
		assert.Equal(s.T(), events.CreateProsecutionCase, got.Name)
		p, err := events.Decode[events.CreateProsecutionCasePayload](got)
		require.NoError(s.T(), err)
		assert.Equal(s.T(), domain.CaseID(caseID), p.ProsecutionCaseID)
	})

	s.Run("idempotency key fixes the event id", func() {
		s.ingester.EXPECT().Ingest(gomock.Any(), gomock.Any()).Return(gate.Duplicate, nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/prosecutioncases", newCaseBody(caseID))
		rr := testutil.DoRequest(s.router, testutil.WithIdempotencyKey(req, "client-key-1"))

		eventID := testutil.AssertAccepted(s.T(), rr)
		assert.Equal(s.T(), domain.EventIDFromKey("client-key-1").String(), eventID)
		resp := testutil.UnmarshalResponse[Accepted](s.T(), rr)
		assert.Equal(s.T(), string(gate.Duplicate), resp.Outcome)
	})

	s.Run("invalid JSON is a bad request", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequestWithBody(s.T(), http.MethodPost, "/prosecutioncases", "{not json"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))
	})

	s.Run("missing defendants fail validation", func() {
		body := newCaseBody(caseID)
		delete(body, "defendants")
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/prosecutioncases", body))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})

	s.Run("shutting down is unavailable", func() {
		s.ingester.EXPECT().Ingest(gomock.Any(), gomock.Any()).Return(gate.Outcome(""), sentinel.ErrUnavailable)
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/prosecutioncases", newCaseBody(caseID)))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusServiceUnavailable, string(dErrors.CodeUnavailable))
	})

	s.Run("ledger failure is internal", func() {
		s.ingester.EXPECT().Ingest(gomock.Any(), gomock.Any()).Return(gate.Outcome(""), errors.New("ledger down"))
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/prosecutioncases", newCaseBody(caseID)))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusInternalServerError, string(dErrors.CodeInternal))
	})
}

func (s *HandlerSuite) TestPathParametersAreBound() {
	t := s.T()
	caseID, defendantID := uuid.NewString(), uuid.NewString()

	testutil.Given(t, "an update for a defendant addressed by path", func(t *testing.T) {
		var got events.Envelope
		s.ingester.EXPECT().Ingest(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, env events.Envelope) (gate.Outcome, error) {
				got = env
				return gate.Accepted, nil
			})

		testutil.When(t, "the body names other ids", func(t *testing.T) {
			path := "/prosecutioncases/" + caseID + "/defendants/" + defendantID + "/update"
			rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(t, http.MethodPost, path, map[string]any{
				"prosecutionCaseId": uuid.NewString(),
				"defendantId":       uuid.NewString(),
				"attributes":        map[string]any{},
			}))
			testutil.AssertAccepted(t, rr)

			testutil.Then(t, "the path ids win", func(t *testing.T) {
				p, err := events.Decode[events.UpdateDefendantPayload](got)
				require.NoError(t, err)
				assert.Equal(t, domain.CaseID(caseID), p.ProsecutionCaseID)
				assert.Equal(t, domain.DefendantID(defendantID), p.DefendantID)
			})
		})
	})

	testutil.Given(t, "a path id that is not a uuid", func(t *testing.T) {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(t, http.MethodPost, "/prosecutioncases/nope/eject", map[string]any{"removalReason": "x"}))

		testutil.Then(t, "the command is rejected before ingest", func(t *testing.T) {
			testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, string(dErrors.CodeInvalidInput))
		})
	})
}

func (s *HandlerSuite) TestCreateApplicationRouting() {
	s.Run("linked application goes through the case", func() {
		s.ingester.EXPECT().Ingest(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, env events.Envelope) (gate.Outcome, error) {
				assert.Equal(s.T(), events.CreateLinkedCourtApplication, env.Name)
				return gate.Accepted, nil
			})
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/courtapplications", map[string]any{
			"id":                uuid.NewString(),
			"applicationType":   "breach",
			"prosecutionCaseId": uuid.NewString(),
		}))
		testutil.AssertAccepted(s.T(), rr)
	})

	s.Run("standalone application", func() {
		s.ingester.EXPECT().Ingest(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, env events.Envelope) (gate.Outcome, error) {
				assert.Equal(s.T(), events.CreateCourtApplication, env.Name)
				return gate.Accepted, nil
			})
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/courtapplications", map[string]any{
			"id":              uuid.NewString(),
			"applicationType": "appeal",
		}))
		testutil.AssertAccepted(s.T(), rr)
	})
}

func (s *HandlerSuite) TestQueryNegotiation() {
	caseID := uuid.NewString()
	path := "/prosecutioncases/" + caseID
	c := &prosecutioncase.Case{ID: domain.CaseID(caseID), Status: prosecutioncase.StatusActive}

	tests := []struct {
		name     string
		accept   string
		expected string
	}{
		{"vendor type", MediaTypeCase, MediaTypeCase},
		{"plain json", "application/json", "application/json"},
		{"wildcard", "*/*", MediaTypeCase},
		{"no accept header", "", MediaTypeCase},
		{"first acceptable wins", "text/html, application/json;q=0.9", "application/json"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.queries.EXPECT().Case(gomock.Any(), domain.CaseID(caseID)).Return(c, nil)

			rr := testutil.DoRequest(s.router, testutil.NewQueryRequest(s.T(), path, tt.accept))

			testutil.AssertStatusOK(s.T(), rr)
			testutil.AssertContentType(s.T(), rr, tt.expected)
			got := testutil.UnmarshalResponse[prosecutioncase.Case](s.T(), rr)
			assert.Equal(s.T(), c.ID, got.ID)
		})
	}

	s.Run("unsupported media type is not acceptable", func() {
		rr := testutil.DoRequest(s.router, testutil.NewQueryRequest(s.T(), path, "text/html"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotAcceptable, string(dErrors.CodeNotAcceptable))
	})

	s.Run("missing projection is not found", func() {
		s.queries.EXPECT().Case(gomock.Any(), domain.CaseID(caseID)).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "prosecution case not found"))
		rr := testutil.DoRequest(s.router, testutil.NewQueryRequest(s.T(), path, MediaTypeCase))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, string(dErrors.CodeNotFound))
	})
}

func (s *HandlerSuite) TestDocumentsUseCallerGroups() {
	caseID := uuid.NewString()
	s.queries.EXPECT().
		Documents(gomock.Any(), []string{"Defence Lawyers", "Probation"}, query.DocumentFilter{ProsecutionCaseID: domain.CaseID(caseID)}).
		Return(&query.DocumentIndex{}, nil)

	req := testutil.NewQueryRequest(s.T(), "/courtdocuments?caseId="+caseID, MediaTypeDocuments)
	rr := testutil.DoRequest(s.router, testutil.WithUserGroups(req, "Defence Lawyers", "Probation"))

	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertContentType(s.T(), rr, MediaTypeDocuments)
}

func (s *HandlerSuite) TestNoticesRegister() {
	hearingID := uuid.NewString()

	s.Run("known register", func() {
		s.queries.EXPECT().Notices(gomock.Any(), domain.HearingID(hearingID), notice.RegisterPress).
			Return(&query.NoticeRegister{HearingID: domain.HearingID(hearingID), Register: notice.RegisterPress, Notices: []notice.Notice{}}, nil)
		rr := testutil.DoRequest(s.router, testutil.NewQueryRequest(s.T(), "/hearings/"+hearingID+"/opa-notices/press", ""))
		testutil.AssertStatusOK(s.T(), rr)
	})

	s.Run("unknown register", func() {
		rr := testutil.DoRequest(s.router, testutil.NewQueryRequest(s.T(), "/hearings/"+hearingID+"/opa-notices/gazette", ""))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeInvalidInput))
	})
}

func (s *HandlerSuite) TestFailuresLimit() {
	s.queries.EXPECT().Failures(5).Return(&query.FailureList{})
	rr := testutil.DoRequest(s.router, testutil.NewQueryRequest(s.T(), "/operations/failures?limit=5", ""))
	testutil.AssertStatusOK(s.T(), rr)

	rr = testutil.DoRequest(s.router, testutil.NewQueryRequest(s.T(), "/operations/failures?limit=-1", ""))
	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
}

func (s *HandlerSuite) TestHealth() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/healthz"))
	testutil.AssertStatusOK(s.T(), rr)
}
