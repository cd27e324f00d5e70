// Package notice keeps the online plea allocation (OPA) notice registers of a
// hearing: public, press and result.
package notice

import (
	"slices"
	"time"

	"progression/internal/events"
	"progression/pkg/domain"
)

// Kind names the projection and the sequencing key prefix.
const Kind = "notice"

// Register selects one of the three notice registers.
type Register string

const (
	RegisterPublic Register = "public"
	RegisterPress  Register = "press"
	RegisterResult Register = "result"
)

// ParseRegister validates a register name.
func ParseRegister(s string) (Register, bool) {
	r := Register(s)
	switch r {
	case RegisterPublic, RegisterPress, RegisterResult:
		return r, true
	}
	return "", false
}

// HearingNotices holds every notice entry of one hearing.
type HearingNotices struct {
	HearingID        domain.HearingID `json:"hearingId"`
	HearingConfirmed bool             `json:"hearingConfirmed"`
	Notices          []Notice         `json:"notices"`
}

// Notice is one (case, defendant, hearing) entry.
type Notice struct {
	ProsecutionCaseID domain.CaseID        `json:"prosecutionCaseId"`
	DefendantID       domain.DefendantID   `json:"defendantId"`
	HearingID         domain.HearingID     `json:"hearingId"`
	OffencePleas      []events.OffencePlea `json:"offencePleas,omitempty"`
	Active            bool                 `json:"active"`
	PublicGeneratedAt *time.Time           `json:"publicGeneratedAt,omitempty"`
	PressGeneratedAt  *time.Time           `json:"pressGeneratedAt,omitempty"`
	ResultGeneratedAt *time.Time           `json:"resultGeneratedAt,omitempty"`
	DeactivatedAt     *time.Time           `json:"deactivatedAt,omitempty"`
}

// GeneratedPayload is the public, press and result notice generated events.
type GeneratedPayload struct {
	HearingID         domain.HearingID     `json:"hearingId"`
	ProsecutionCaseID domain.CaseID        `json:"prosecutionCaseId"`
	DefendantID       domain.DefendantID   `json:"defendantId"`
	OffencePleas      []events.OffencePlea `json:"offencePleas,omitempty"`
}

// DeactivatedPayload is progression.opa-notices-deactivated.
type DeactivatedPayload struct {
	HearingID domain.HearingID `json:"hearingId"`
	Count     int              `json:"count"`
}

// New returns empty registers for a hearing.
func New(hearingID domain.HearingID) *HearingNotices {
	return &HearingNotices{HearingID: hearingID}
}

// RecordPleas upserts the entry for the plea allocation. On a confirmed
// hearing the public and press notices are generated straight away.
func (h *HearingNotices) RecordPleas(m events.Meta, p events.PleasAllocatedPayload) events.Outcome {
	var out events.Outcome
	i := slices.IndexFunc(h.Notices, func(n Notice) bool {
		return n.ProsecutionCaseID == p.ProsecutionCaseID && n.DefendantID == p.DefendantID
	})
	if i < 0 {
		h.Notices = append(h.Notices, Notice{
			ProsecutionCaseID: p.ProsecutionCaseID,
			DefendantID:       p.DefendantID,
			HearingID:         h.HearingID,
			Active:            true,
		})
		i = len(h.Notices) - 1
	}
	h.Notices[i].OffencePleas = p.OffencePleas
	if h.HearingConfirmed {
		h.generate(&h.Notices[i], m.OccurredAt, &out)
	}
	return out
}

// Generate marks the hearing confirmed and generates the missing public and
// press notices.
func (h *HearingNotices) Generate(m events.Meta) events.Outcome {
	var out events.Outcome
	h.HearingConfirmed = true
	for i := range h.Notices {
		h.generate(&h.Notices[i], m.OccurredAt, &out)
	}
	return out
}

func (h *HearingNotices) generate(n *Notice, at time.Time, out *events.Outcome) {
	if !n.Active {
		return
	}
	if n.PublicGeneratedAt == nil {
		n.PublicGeneratedAt = &at
		out.Publish(events.PublicOpaNoticeGenerated, h.HearingID.String(), n.payload())
	}
	if n.PressGeneratedAt == nil {
		n.PressGeneratedAt = &at
		out.Publish(events.PressOpaNoticeGenerated, h.HearingID.String(), n.payload())
	}
}

// ApplyResult generates result notices, or drops every entry from all
// registers when results are withheld.
func (h *HearingNotices) ApplyResult(m events.Meta, withheld bool) events.Outcome {
	var out events.Outcome
	at := m.OccurredAt
	if withheld {
		count := 0
		for i := range h.Notices {
			n := &h.Notices[i]
			if !n.Active {
				continue
			}
			n.Active = false
			n.DeactivatedAt = &at
			count++
		}
		if count > 0 {
			out.Publish(events.OpaNoticesDeactivated, h.HearingID.String(), DeactivatedPayload{HearingID: h.HearingID, Count: count})
		}
		return out
	}
	for i := range h.Notices {
		n := &h.Notices[i]
		if !n.Active || n.ResultGeneratedAt != nil {
			continue
		}
		n.ResultGeneratedAt = &at
		out.Publish(events.ResultOpaNoticeGenerated, h.HearingID.String(), n.payload())
	}
	return out
}

// Entries returns the active entries of a register.
func (h *HearingNotices) Entries(r Register) []Notice {
	entries := []Notice{}
	for _, n := range h.Notices {
		if !n.Active {
			continue
		}
		var generated *time.Time
		switch r {
		case RegisterPublic:
			generated = n.PublicGeneratedAt
		case RegisterPress:
			generated = n.PressGeneratedAt
		case RegisterResult:
			generated = n.ResultGeneratedAt
		}
		if generated != nil {
			entries = append(entries, n)
		}
	}
	return entries
}

func (n Notice) payload() GeneratedPayload {
	return GeneratedPayload{
		HearingID:         n.HearingID,
		ProsecutionCaseID: n.ProsecutionCaseID,
		DefendantID:       n.DefendantID,
		OffencePleas:      n.OffencePleas,
	}
}
