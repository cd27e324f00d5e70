package domain

import (
	"github.com/google/uuid"

	dErrors "progression/pkg/domain-errors"
)

// Typed identifiers keep case, hearing and application ids from being mixed
// up across aggregate boundaries. Values are canonical lower-case UUID strings
// so they serialize naturally in projections and public events.
//
// Construct via the Parse* functions at trust boundaries; direct conversion
// bypasses validation.
type (
	CaseID          string
	DefendantID     string
	OffenceID       string
	HearingID       string
	ApplicationID   string
	CourtDocumentID string
	GroupID         string
	CourtFormID     string
	EventID         string
)

func parseID[T ~string](kind, s string) (T, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if u == uuid.Nil {
		return "", dErrors.New(dErrors.CodeInvalidInput, kind+" cannot be nil")
	}
	return T(u.String()), nil
}

func ParseCaseID(s string) (CaseID, error)           { return parseID[CaseID]("prosecution case id", s) }
func ParseDefendantID(s string) (DefendantID, error) { return parseID[DefendantID]("defendant id", s) }
func ParseOffenceID(s string) (OffenceID, error)     { return parseID[OffenceID]("offence id", s) }
func ParseHearingID(s string) (HearingID, error)     { return parseID[HearingID]("hearing id", s) }
func ParseApplicationID(s string) (ApplicationID, error) {
	return parseID[ApplicationID]("application id", s)
}
func ParseCourtDocumentID(s string) (CourtDocumentID, error) {
	return parseID[CourtDocumentID]("court document id", s)
}
func ParseGroupID(s string) (GroupID, error)         { return parseID[GroupID]("group id", s) }
func ParseCourtFormID(s string) (CourtFormID, error) { return parseID[CourtFormID]("court form id", s) }
func ParseEventID(s string) (EventID, error)         { return parseID[EventID]("event id", s) }

// NewEventID returns a random event id.
func NewEventID() EventID { return EventID(uuid.NewString()) }

// DeriveEventID returns a deterministic id for work derived from a parent
// event, so redelivery of the parent produces the same follow-up ids.
func DeriveEventID(parent EventID, parts ...string) EventID {
	name := string(parent)
	for _, p := range parts {
		name += "|" + p
	}
	return EventID(uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String())
}

// EventIDFromKey maps a client supplied idempotency key to an event id.
func EventIDFromKey(key string) EventID {
	return EventID(uuid.NewSHA1(uuid.NameSpaceURL, []byte("progression:"+key)).String())
}

func (id CaseID) String() string          { return string(id) }
func (id DefendantID) String() string     { return string(id) }
func (id OffenceID) String() string       { return string(id) }
func (id HearingID) String() string       { return string(id) }
func (id ApplicationID) String() string   { return string(id) }
func (id CourtDocumentID) String() string { return string(id) }
func (id GroupID) String() string         { return string(id) }
func (id CourtFormID) String() string     { return string(id) }
func (id EventID) String() string         { return string(id) }

func (id CaseID) IsNil() bool      { return id == "" }
func (id DefendantID) IsNil() bool { return id == "" }
func (id HearingID) IsNil() bool   { return id == "" }
func (id ApplicationID) IsNil() bool {
	return id == ""
}
func (id GroupID) IsNil() bool { return id == "" }
