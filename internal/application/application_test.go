package application

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"progression/internal/events"
	"progression/pkg/domain"
)

const (
	appID   domain.ApplicationID = "3e4f5a6b-7c8d-4e9f-8a0b-1c2d3e4f5a01"
	childID domain.ApplicationID = "3e4f5a6b-7c8d-4e9f-8a0b-1c2d3e4f5a02"
	caseID  domain.CaseID        = "3e4f5a6b-7c8d-4e9f-8a0b-1c2d3e4f5a03"
	hearing domain.HearingID     = "3e4f5a6b-7c8d-4e9f-8a0b-1c2d3e4f5a04"
)

func meta(name events.Name) events.Meta {
	return events.Meta{EventID: domain.NewEventID(), Name: name, OccurredAt: time.Now().UTC()}
}

func followed(out events.Outcome) []events.Name {
	var names []events.Name
	for _, f := range out.FollowUps {
		names = append(names, f.Name)
	}
	return names
}

func TestNew(t *testing.T) {
	t.Run("standalone application gets a generated reference", func(t *testing.T) {
		m := meta(events.CreateCourtApplication)
		a, out := New(m, events.CreateCourtApplicationPayload{ApplicationID: appID, ApplicationType: "APPEAL"})
		assert.Equal(t, LinkStandalone, a.LinkType)
		assert.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{10}$`), a.ApplicationReference)
		assert.Equal(t, GenerateReference(m.EventID), a.ApplicationReference)
		assert.Equal(t, events.CourtApplicationCreated, out.Events[0].Name)
	})

	t.Run("linked application keeps the case reference", func(t *testing.T) {
		a, _ := New(meta(events.CreateCourtApplication), events.CreateCourtApplicationPayload{
			ApplicationID: appID, ProsecutionCaseID: caseID, ApplicationReference: "TFL123-1",
		})
		assert.Equal(t, LinkLinked, a.LinkType)
		assert.Equal(t, "TFL123-1", a.ApplicationReference)
	})

	t.Run("child registers on its parent", func(t *testing.T) {
		_, out := New(meta(events.CreateCourtApplication), events.CreateCourtApplicationPayload{
			ApplicationID: childID, ParentApplicationID: appID,
		})
		assert.Equal(t, []events.Name{events.RegisterChildApplication}, followed(out))
	})
}

func TestMarkListed(t *testing.T) {
	a, _ := New(meta(events.CreateCourtApplication), events.CreateCourtApplicationPayload{ApplicationID: appID, ProsecutionCaseID: caseID})

	out := a.MarkListed(meta(events.MarkApplicationListed), events.MarkApplicationListedPayload{ApplicationID: appID, HearingID: hearing})
	assert.Equal(t, StatusListed, a.Status)
	assert.Equal(t, []events.Name{events.UpdateApplicationSummary}, followed(out))
	assert.Equal(t, events.CourtApplicationListed, out.Events[0].Name)

	assert.True(t, a.MarkListed(meta(events.MarkApplicationListed), events.MarkApplicationListedPayload{HearingID: hearing}).Empty())
}

func TestEject_CascadesToChildren(t *testing.T) {
	a, _ := New(meta(events.CreateCourtApplication), events.CreateCourtApplicationPayload{ApplicationID: appID, ProsecutionCaseID: caseID})
	a.RegisterChild(events.RegisterChildApplicationPayload{ParentApplicationID: appID, ChildApplicationID: childID})

	out := a.Eject(meta(events.EjectCourtApplication), "withdrawn")

	assert.Equal(t, StatusEjected, a.Status)
	assert.Equal(t, "withdrawn", a.RemovalReason)
	assert.Equal(t, []events.Name{events.EjectLinkedApplication, events.UpdateApplicationSummary}, followed(out))
	summary := out.FollowUps[1].Payload.(events.UpdateApplicationSummaryPayload)
	assert.Equal(t, string(StatusEjected), summary.ApplicationStatus)
	require.Len(t, out.Events, 1)
	assert.Equal(t, events.CaseOrApplicationEjected, out.Events[0].Name)

	t.Run("ejecting again is a no-op", func(t *testing.T) {
		assert.True(t, a.Eject(meta(events.EjectCourtApplication), "again").Empty())
	})

	t.Run("an ejected application stays ejected when listed", func(t *testing.T) {
		a.MarkListed(meta(events.MarkApplicationListed), events.MarkApplicationListedPayload{HearingID: hearing})
		assert.Equal(t, StatusEjected, a.Status)
	})
}
