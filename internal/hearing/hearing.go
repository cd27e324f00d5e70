package hearing

import (
	"fmt"
	"strconv"

	"progression/internal/events"
	"progression/pkg/domain"
	"progression/pkg/platform/sentinel"
	"progression/pkg/platform/strings"
)

// SendForListing creates a hearing awaiting confirmation.
func SendForListing(m events.Meta, p events.SendCaseForListingPayload) (*Hearing, events.Outcome) {
	var out events.Outcome
	h := &Hearing{
		ID:               p.HearingID,
		Status:           StatusSentForListing,
		CourtCentre:      p.CourtCentre,
		Type:             p.Type,
		JurisdictionType: p.JurisdictionType,
		OriginHearingID:  p.OriginHearingID,
	}
	if !p.ListedStartDateTime.IsZero() {
		h.HearingDays = []events.HearingDay{{SittingDay: p.ListedStartDateTime}}
	}
	mergeCases(&h.ProsecutionCases, p.ProsecutionCases)
	out.Publish(events.HearingSentForListing, h.ID.String(), h)
	return h, out
}

// AddListing merges further cases sent to an existing hearing.
func (h *Hearing) AddListing(p events.SendCaseForListingPayload) bool {
	if h.Deleted {
		return false
	}
	return mergeCases(&h.ProsecutionCases, p.ProsecutionCases)
}

// Confirm initialises the hearing with the confirmed allocation. Court centre,
// type and days are taken from the confirmation. A hearing never sent for
// listing is created directly in the initialised state.
func Confirm(m events.Meta, h *Hearing, p events.ConfirmedHearing) (*Hearing, events.Outcome) {
	var out events.Outcome
	if h == nil {
		h = &Hearing{ID: p.ID}
	}
	initialising := h.Status != StatusInitialised && h.Status != StatusResulted
	if initialising {
		h.Status = StatusInitialised
	}
	h.CourtCentre = p.CourtCentre
	h.Type = p.Type
	h.JurisdictionType = p.JurisdictionType
	if len(p.HearingDays) > 0 {
		h.HearingDays = p.HearingDays
	}
	h.NumberOfGroupCases = p.NumberOfGroupCases
	mergeCases(&h.ProsecutionCases, p.ProsecutionCases)

	h.listApplications(m, p.CourtApplicationIDs, &out)
	out.Follow(m, events.GenerateOpaNotices, h.ID.String(), events.GenerateOpaNoticesPayload{HearingID: h.ID})
	if initialising {
		out.Publish(events.HearingInitialised, h.ID.String(), h)
	}
	return h, out
}

// Extend merges a confirmation for another hearing into this initialised
// hearing. The source hearing is told where it went.
func (h *Hearing) Extend(m events.Meta, p events.ConfirmedHearing) (events.Outcome, error) {
	var out events.Outcome
	if h.Status == StatusSentForListing || h.Deleted {
		return out, sentinel.ErrDeferred
	}
	mergeCases(&h.ProsecutionCases, p.ProsecutionCases)
	h.Extended = true
	h.ExtendedFrom = strings.AppendUnique(h.ExtendedFrom, p.ID)
	if p.NumberOfGroupCases > h.NumberOfGroupCases {
		h.NumberOfGroupCases = p.NumberOfGroupCases
	}
	h.listApplications(m, p.CourtApplicationIDs, &out)

	out.Publish(events.HearingExtended, h.ID.String(), ExtendedPayload{
		HearingID:        h.ID,
		ExtendedFrom:     p.ID,
		ProsecutionCases: h.ProsecutionCases,
	})
	out.Follow(m, events.MarkHearingExtendedInto, p.ID.String(), events.MarkHearingExtendedIntoPayload{
		HearingID:    p.ID,
		ExtendedInto: h.ID,
	})
	return out, nil
}

func (h *Hearing) listApplications(m events.Meta, ids []domain.ApplicationID, out *events.Outcome) {
	for _, id := range ids {
		h.CourtApplicationIDs = strings.AppendUnique(h.CourtApplicationIDs, id)
		out.Follow(m, events.MarkApplicationListed, id.String(), events.MarkApplicationListedPayload{
			ApplicationID: id,
			HearingID:     h.ID,
		})
	}
}

// MarkExtendedInto records that the hearing was merged into another one.
func (h *Hearing) MarkExtendedInto(p events.MarkHearingExtendedIntoPayload) bool {
	if h.ExtendedInto == p.ExtendedInto {
		return false
	}
	h.ExtendedInto = p.ExtendedInto
	return true
}

// Update applies changed hearing detail. The listing status is unchanged.
// Deleted hearings ignore updates.
func (h *Hearing) Update(m events.Meta, p events.UpdatedHearing) events.Outcome {
	var out events.Outcome
	if h.Deleted {
		return out
	}
	if p.CourtCentre != nil {
		h.CourtCentre = *p.CourtCentre
	}
	if p.Type != nil {
		h.Type = *p.Type
	}
	if p.JurisdictionType != "" {
		h.JurisdictionType = p.JurisdictionType
	}
	if len(p.HearingDays) > 0 {
		h.HearingDays = p.HearingDays
	}
	out.Publish(events.HearingDetailChanged, h.ID.String(), DetailChangedPayload{Hearing: *h})
	return out
}

// AcceptsResults reports whether a result can be recorded now. A hearing
// still sent for listing waits for its confirmation; a deleted one takes the
// result as a no-op.
func (h *Hearing) AcceptsResults() bool {
	return h.Deleted || h.Status == StatusInitialised || h.Status == StatusResulted
}

// Result records the hearing outcome, forwards each case's results, sends the
// named next hearings for listing and deletes next hearings no longer named.
// A hearing not yet confirmed returns sentinel.ErrDeferred.
func (h *Hearing) Result(m events.Meta, p events.HearingResultedPayload) (events.Outcome, error) {
	var out events.Outcome
	if !h.AcceptsResults() {
		return out, fmt.Errorf("hearing %s is %s: %w", h.ID, h.Status, sentinel.ErrDeferred)
	}
	if h.Deleted {
		return out, nil
	}
	h.Status = StatusResulted
	shared := p.SharedTime
	if shared.IsZero() {
		shared = m.OccurredAt
	}
	h.SharedTime = &shared
	hearingType := h.Type
	if p.Hearing.Type.Description != "" {
		hearingType = p.Hearing.Type
	}

	next := map[domain.HearingID]*events.SendCaseForListingPayload{}
	var order []domain.HearingID
	for _, rc := range p.Hearing.ProsecutionCases {
		out.Follow(m, events.ApplyHearingResults, rc.ID.String(), events.ApplyHearingResultsPayload{
			ProsecutionCaseID: rc.ID,
			HearingID:         h.ID,
			HearingType:       hearingType,
			Defendants:        rc.Defendants,
		})
		for _, rd := range rc.Defendants {
			for _, ro := range rd.Offences {
				for _, jr := range ro.JudicialResults {
					if jr.NextHearing == nil {
						continue
					}
					id := h.nextHearingID(*jr.NextHearing)
					req, ok := next[id]
					if !ok {
						req = &events.SendCaseForListingPayload{
							HearingID:           id,
							Type:                jr.NextHearing.Type,
							CourtCentre:         jr.NextHearing.CourtCentre,
							JurisdictionType:    jr.NextHearing.JurisdictionType,
							ListedStartDateTime: jr.NextHearing.ListedStartDateTime,
							OriginHearingID:     h.ID,
						}
						next[id] = req
						order = append(order, id)
					}
					mergeCases(&req.ProsecutionCases, []events.HearingCase{{
						ID: rc.ID,
						Defendants: []events.HearingDefendant{{
							ID:       rd.ID,
							Offences: []events.HearingOffence{{ID: ro.ID}},
						}},
					}})
				}
			}
		}
	}

	for _, id := range order {
		out.Follow(m, events.SendCaseForListing, id.String(), *next[id])
	}
	for _, old := range h.NextHearingIDs {
		if _, ok := next[old]; ok {
			continue
		}
		out.Follow(m, events.DeleteHearing, old.String(), events.DeleteHearingPayload{HearingID: old, OriginHearingID: h.ID})
		out.Publish(events.NextHearingDeleted, old.String(), NextHearingDeletedPayload{HearingID: old, SeedingHearingID: h.ID})
	}
	h.NextHearingIDs = order

	out.Follow(m, events.ApplyOpaHearingResult, h.ID.String(), events.ApplyOpaHearingResultPayload{
		HearingID:       h.ID,
		ResultsWithheld: p.PublicResultsWithheld,
	})
	out.Publish(events.HearingResultedPublic, h.ID.String(), ResultedPayload{
		HearingID:      h.ID,
		SharedTime:     shared,
		NextHearingIDs: order,
	})
	return out, nil
}

// nextHearingID returns the id carried by the result or one derived from this
// hearing and the requested listing, so re-resulting names the same hearing.
func (h *Hearing) nextHearingID(nh events.NextHearing) domain.HearingID {
	if nh.HearingID != "" {
		return nh.HearingID
	}
	return domain.HearingID(domain.DeriveEventID(domain.EventID(h.ID), "next",
		nh.CourtCentre.ID, nh.Type.ID, strconv.FormatInt(nh.ListedStartDateTime.Unix(), 10)))
}

// RemoveOffences removes offences from the allocation.
func (h *Hearing) RemoveOffences(m events.Meta, ids []domain.OffenceID) events.Outcome {
	var out events.Outcome
	kept, removed := removeOffences(h.ProsecutionCases, ids)
	if len(removed) == 0 {
		return out
	}
	h.ProsecutionCases = kept
	out.Publish(events.OffencesRemovedFromHearing, h.ID.String(), OffencesRemovedPayload{
		HearingID:  h.ID,
		OffenceIDs: offenceIDs(removed),
	})
	return out
}

// MoveOffences removes offences and allocates them into the next hearing.
func (h *Hearing) MoveOffences(m events.Meta, p events.OffencesMovedPayload) events.Outcome {
	var out events.Outcome
	kept, removed := removeOffences(h.ProsecutionCases, p.OffenceIDs)
	if len(removed) == 0 {
		return out
	}
	h.ProsecutionCases = kept
	out.Publish(events.OffencesRemovedFromHearing, h.ID.String(), OffencesRemovedPayload{
		HearingID:  h.ID,
		OffenceIDs: offenceIDs(removed),
	})
	out.Follow(m, events.AllocateOffences, p.NextHearingID.String(), events.AllocateOffencesPayload{
		HearingID:        p.NextHearingID,
		FromHearingID:    h.ID,
		ProsecutionCases: removed,
	})
	return out
}

// Allocate adds offences moved from another hearing.
func (h *Hearing) Allocate(p events.AllocateOffencesPayload) bool {
	return mergeCases(&h.ProsecutionCases, p.ProsecutionCases)
}

// Delete marks the hearing deleted. Deleted hearings are not found by queries.
func (h *Hearing) Delete(m events.Meta) events.Outcome {
	var out events.Outcome
	if h.Deleted {
		return out
	}
	h.Deleted = true
	out.Publish(events.HearingDeleted, h.ID.String(), DeletedPayload{HearingID: h.ID})
	return out
}

func offenceIDs(cases []events.HearingCase) []domain.OffenceID {
	var ids []domain.OffenceID
	for _, c := range cases {
		for _, d := range c.Defendants {
			for _, o := range d.Offences {
				ids = append(ids, o.ID)
			}
		}
	}
	return ids
}
