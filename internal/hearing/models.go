// Package hearing holds the hearing allocation state machine.
package hearing

import (
	"slices"
	"time"

	"progression/internal/events"
	"progression/pkg/domain"
)

// Kind names the projection and the sequencing key prefix.
const Kind = "hearing"

// ListingStatus is the hearing listing status.
type ListingStatus string

const (
	StatusSentForListing ListingStatus = "SENT_FOR_LISTING"
	StatusInitialised    ListingStatus = "HEARING_INITIALISED"
	StatusResulted       ListingStatus = "HEARING_RESULTED"
)

// Hearing is the hearing projection.
type Hearing struct {
	ID                  domain.HearingID       `json:"id"`
	Status              ListingStatus          `json:"hearingListingStatus"`
	Extended            bool                   `json:"extended,omitempty"`
	ExtendedFrom        []domain.HearingID     `json:"extendedFrom,omitempty"`
	ExtendedInto        domain.HearingID       `json:"extendedInto,omitempty"`
	CourtCentre         events.CourtCentre     `json:"courtCentre"`
	Type                events.HearingType     `json:"type"`
	JurisdictionType    string                 `json:"jurisdictionType,omitempty"`
	HearingDays         []events.HearingDay    `json:"hearingDays,omitempty"`
	ProsecutionCases    []events.HearingCase   `json:"prosecutionCases"`
	CourtApplicationIDs []domain.ApplicationID `json:"courtApplicationIds,omitempty"`
	NumberOfGroupCases  int                    `json:"numberOfGroupCases,omitempty"`
	NextHearingIDs      []domain.HearingID     `json:"nextHearingIds,omitempty"`
	OriginHearingID     domain.HearingID       `json:"originHearingId,omitempty"`
	SharedTime          *time.Time             `json:"sharedTime,omitempty"`
	Deleted             bool                   `json:"deleted,omitempty"`
}

// ExtendedPayload is progression.hearing-extended.
type ExtendedPayload struct {
	HearingID        domain.HearingID     `json:"hearingId"`
	ExtendedFrom     domain.HearingID     `json:"extendedFromHearingId"`
	ProsecutionCases []events.HearingCase `json:"prosecutionCases"`
}

// DetailChangedPayload is public.hearing-detail-changed.
type DetailChangedPayload struct {
	Hearing Hearing `json:"hearing"`
}

// ResultedPayload is progression.hearing-resulted.
type ResultedPayload struct {
	HearingID      domain.HearingID   `json:"hearingId"`
	SharedTime     time.Time          `json:"sharedTime"`
	NextHearingIDs []domain.HearingID `json:"nextHearingIds,omitempty"`
}

// NextHearingDeletedPayload is progression.next-hearing-deleted.
type NextHearingDeletedPayload struct {
	HearingID        domain.HearingID `json:"hearingId"`
	SeedingHearingID domain.HearingID `json:"seedingHearingId"`
}

// DeletedPayload is progression.hearing-deleted.
type DeletedPayload struct {
	HearingID domain.HearingID `json:"hearingId"`
}

// OffencesRemovedPayload is progression.offences-removed-from-hearing.
type OffencesRemovedPayload struct {
	HearingID  domain.HearingID   `json:"hearingId"`
	OffenceIDs []domain.OffenceID `json:"offenceIds"`
}

// CaseIDs lists the cases allocated to the hearing.
func (h *Hearing) CaseIDs() []domain.CaseID {
	ids := make([]domain.CaseID, 0, len(h.ProsecutionCases))
	for _, c := range h.ProsecutionCases {
		ids = append(ids, c.ID)
	}
	return ids
}

// OffenceCount counts allocated offences.
func (h *Hearing) OffenceCount() int {
	n := 0
	for _, c := range h.ProsecutionCases {
		for _, d := range c.Defendants {
			n += len(d.Offences)
		}
	}
	return n
}

// mergeCases unions the allocation in src into dst and reports whether dst grew.
// Nothing already allocated is removed.
func mergeCases(dst *[]events.HearingCase, src []events.HearingCase) bool {
	changed := false
	for _, sc := range src {
		ci := slices.IndexFunc(*dst, func(c events.HearingCase) bool { return c.ID == sc.ID })
		if ci < 0 {
			*dst = append(*dst, events.HearingCase{ID: sc.ID})
			ci = len(*dst) - 1
			changed = true
		}
		dc := &(*dst)[ci]
		for _, sd := range sc.Defendants {
			di := slices.IndexFunc(dc.Defendants, func(d events.HearingDefendant) bool { return d.ID == sd.ID })
			if di < 0 {
				dc.Defendants = append(dc.Defendants, events.HearingDefendant{ID: sd.ID})
				di = len(dc.Defendants) - 1
				changed = true
			}
			dd := &dc.Defendants[di]
			for _, so := range sd.Offences {
				if slices.ContainsFunc(dd.Offences, func(o events.HearingOffence) bool { return o.ID == so.ID }) {
					continue
				}
				dd.Offences = append(dd.Offences, so)
				changed = true
			}
		}
	}
	return changed
}

// removeOffences drops the named offences, then defendants the removal left
// without offences, then cases the removal left without defendants. Entries
// allocated without offences stay. It returns what was allocated.
func removeOffences(cases []events.HearingCase, ids []domain.OffenceID) ([]events.HearingCase, []events.HearingCase) {
	var kept, removed []events.HearingCase
	for _, c := range cases {
		keptCase := events.HearingCase{ID: c.ID}
		removedCase := events.HearingCase{ID: c.ID}
		for _, d := range c.Defendants {
			keptDef := events.HearingDefendant{ID: d.ID}
			removedDef := events.HearingDefendant{ID: d.ID}
			for _, o := range d.Offences {
				if slices.Contains(ids, o.ID) {
					removedDef.Offences = append(removedDef.Offences, o)
					continue
				}
				keptDef.Offences = append(keptDef.Offences, o)
			}
			if len(removedDef.Offences) == 0 {
				keptCase.Defendants = append(keptCase.Defendants, d)
				continue
			}
			removedCase.Defendants = append(removedCase.Defendants, removedDef)
			if len(keptDef.Offences) > 0 {
				keptCase.Defendants = append(keptCase.Defendants, keptDef)
			}
		}
		if len(removedCase.Defendants) == 0 {
			kept = append(kept, c)
			continue
		}
		removed = append(removed, removedCase)
		if len(keptCase.Defendants) > 0 {
			kept = append(kept, keptCase)
		}
	}
	return kept, removed
}
