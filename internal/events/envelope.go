// Package events defines the envelope every inbound event, command and intent
// travels in, the event names, and the payload contracts.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"progression/pkg/domain"
	"progression/pkg/platform/sentinel"
)

// Name identifies an event type. Inbound names match their Kafka topic.
type Name string

func (n Name) String() string { return string(n) }

// Kafka record headers carrying envelope identity.
const (
	HeaderEventID     = "event-id"
	HeaderCausationID = "causation-id"
)

// Envelope carries one event through the gate.
type Envelope struct {
	ID          domain.EventID  `json:"id"`
	Name        Name            `json:"name"`
	Payload     json.RawMessage `json:"payload"`
	OccurredAt  time.Time       `json:"occurredAt"`
	CausationID domain.EventID  `json:"causationId,omitempty"`
	Attempt     int             `json:"attempt,omitempty"`
}

// NewEnvelope marshals payload into a new envelope.
func NewEnvelope(id domain.EventID, name Name, payload any, occurredAt time.Time) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", name, err)
	}
	return Envelope{ID: id, Name: name, Payload: raw, OccurredAt: occurredAt.UTC()}, nil
}

// Decode unmarshals the payload. Failures wrap sentinel.ErrMalformed.
func Decode[P any](env Envelope) (P, error) {
	var p P
	if len(env.Payload) == 0 {
		return p, fmt.Errorf("%s: empty payload: %w", env.Name, sentinel.ErrMalformed)
	}
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return p, fmt.Errorf("%s: decode payload: %v: %w", env.Name, err, sentinel.ErrMalformed)
	}
	return p, nil
}

// Meta is the slice of the envelope handlers see.
type Meta struct {
	EventID    domain.EventID
	Name       Name
	OccurredAt time.Time
}

// MetaOf extracts handler metadata from an envelope.
func MetaOf(env Envelope) Meta {
	return Meta{EventID: env.ID, Name: env.Name, OccurredAt: env.OccurredAt}
}

// Public is an outbound event. Key is the aggregate id used as the Kafka key.
type Public struct {
	Name    Name   `json:"name"`
	Key     string `json:"key"`
	Payload any    `json:"payload"`
}

// Intent is a follow-up event addressed to another aggregate. Its id derives
// from the causing event so replays produce the same intents.
type Intent struct {
	ID      domain.EventID
	Name    Name
	Payload any
}

// Outcome is what a handler produces besides the next aggregate state.
type Outcome struct {
	Events    []Public
	FollowUps []Intent
}

// Publish appends a public event.
func (o *Outcome) Publish(name Name, key string, payload any) {
	o.Events = append(o.Events, Public{Name: name, Key: key, Payload: payload})
}

// Follow appends an intent whose id derives from m.EventID and discriminator.
// Distinct intents caused by one event must use distinct discriminators.
func (o *Outcome) Follow(m Meta, name Name, discriminator string, payload any) {
	o.FollowUps = append(o.FollowUps, Intent{
		ID:      domain.DeriveEventID(m.EventID, string(name), discriminator),
		Name:    name,
		Payload: payload,
	})
}

// Merge appends other's events and intents.
func (o *Outcome) Merge(other Outcome) {
	o.Events = append(o.Events, other.Events...)
	o.FollowUps = append(o.FollowUps, other.FollowUps...)
}

// Empty reports whether nothing was produced.
func (o Outcome) Empty() bool {
	return len(o.Events) == 0 && len(o.FollowUps) == 0
}

// Envelope turns an intent into an envelope caused by m.
func (i Intent) Envelope(m Meta) (Envelope, error) {
	env, err := NewEnvelope(i.ID, i.Name, i.Payload, m.OccurredAt)
	if err != nil {
		return Envelope{}, err
	}
	env.CausationID = m.EventID
	return env, nil
}
