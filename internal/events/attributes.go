package events

import "time"

// Defendant attribute names, as used in an AttributeClock.
const (
	AttrFirstName            = "firstName"
	AttrLastName             = "lastName"
	AttrBailStatus           = "bailStatus"
	AttrCustodyEstablishment = "custodyEstablishment"
	AttrLegalAidStatus       = "legalAidStatus"
	AttrContact              = "contact"
)

// AttributeClock records when each defendant attribute was last set.
type AttributeClock map[string]time.Time

// At returns when field was set, or def when the clock has no entry.
func (c AttributeClock) At(field string, def time.Time) time.Time {
	if t, ok := c[field]; ok {
		return t
	}
	return def
}

// Stamp dates every attribute set in a at t.
func (c AttributeClock) Stamp(a DefendantAttributes, t time.Time) {
	MergeAttributes(&DefendantAttributes{}, c, a, func(string) time.Time { return t })
}

// Clone returns a copy of the clock.
func (c AttributeClock) Clone() AttributeClock {
	out := make(AttributeClock, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// IsZero reports whether no attribute is set.
func (a DefendantAttributes) IsZero() bool {
	return a == DefendantAttributes{}
}

// Equal compares attributes, contact details by value.
func (a DefendantAttributes) Equal(b DefendantAttributes) bool {
	ac, bc := a.Contact, b.Contact
	a.Contact, b.Contact = nil, nil
	if a != b {
		return false
	}
	if ac == nil || bc == nil {
		return ac == bc
	}
	return *ac == *bc
}

// MergeAttributes copies every field set in src into dst unless dst's clock
// holds a newer time for that field. at gives the time of each src field.
// The fields taken are returned; clock is advanced for them.
func MergeAttributes(dst *DefendantAttributes, clock AttributeClock, src DefendantAttributes, at func(field string) time.Time) DefendantAttributes {
	var taken DefendantAttributes
	take := func(field string) bool {
		t := at(field)
		if last, ok := clock[field]; ok && t.Before(last) {
			return false
		}
		clock[field] = t
		return true
	}
	str := func(field string, d, tk *string, v string) {
		if v != "" && take(field) {
			*d, *tk = v, v
		}
	}
	str(AttrFirstName, &dst.FirstName, &taken.FirstName, src.FirstName)
	str(AttrLastName, &dst.LastName, &taken.LastName, src.LastName)
	str(AttrBailStatus, &dst.BailStatus, &taken.BailStatus, src.BailStatus)
	str(AttrCustodyEstablishment, &dst.CustodyEstablishment, &taken.CustodyEstablishment, src.CustodyEstablishment)
	str(AttrLegalAidStatus, &dst.LegalAidStatus, &taken.LegalAidStatus, src.LegalAidStatus)
	if src.Contact != nil && take(AttrContact) {
		c := *src.Contact
		dst.Contact, taken.Contact = &c, &c
	}
	return taken
}
