// Package deadletter keeps the recent failures operators look at: events the
// gate gave up on and the explicit failure events handlers published.
package deadletter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"progression/internal/events"
	"progression/internal/outbox"
	"progression/pkg/domain"
)

// Kind distinguishes gate dead letters from published failure events.
type Kind string

const (
	KindDeadLetter Kind = "dead-letter"
	KindFailure    Kind = "operation-failed"
)

// Entry is one recorded failure.
type Entry struct {
	ID          string         `json:"id"`
	Kind        Kind           `json:"kind"`
	EventID     domain.EventID `json:"eventId"`
	EventName   events.Name    `json:"eventName"`
	AggregateID string         `json:"aggregateId,omitempty"`
	Code        string         `json:"code,omitempty"`
	Reason      string         `json:"reason"`
	Attempts    int            `json:"attempts,omitempty"`
	RecordedAt  time.Time      `json:"recordedAt"`
}

// Store records failures in a ring buffer and announces dead letters.
type Store struct {
	buffer    *RingBuffer
	publisher outbox.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithPublisher publishes progression.event-dead-lettered for every dead letter.
func WithPublisher(p outbox.Publisher) Option {
	return func(s *Store) {
		s.publisher = p
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a store keeping up to capacity entries.
func New(capacity int, opts ...Option) *Store {
	s := &Store{
		buffer: NewRingBuffer(capacity),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DeadLetter records an event the gate gave up on.
func (s *Store) DeadLetter(ctx context.Context, env events.Envelope, reason error) error {
	msg := "unknown"
	if reason != nil {
		msg = reason.Error()
	}
	s.buffer.Enqueue(Entry{
		ID:         "dead-letter:" + string(env.ID),
		Kind:       KindDeadLetter,
		EventID:    env.ID,
		EventName:  env.Name,
		Reason:     msg,
		Attempts:   env.Attempt,
		RecordedAt: s.now().UTC(),
	})
	if s.publisher == nil {
		return nil
	}
	err := s.publisher.Publish(ctx, env.ID, []events.Public{{
		Name: events.EventDeadLettered,
		Key:  string(env.ID),
		Payload: events.DeadLetteredPayload{
			EventID:   env.ID,
			EventName: env.Name,
			Reason:    msg,
			Attempts:  env.Attempt,
		},
	}})
	if err != nil {
		return fmt.Errorf("publish dead letter: %w", err)
	}
	return nil
}

// Observe records delivered failure events. It is an outbox.Observer.
func (s *Store) Observe(ctx context.Context, msg outbox.Message) {
	if !events.IsFailure(msg.Name) || msg.Name == events.EventDeadLettered {
		return
	}
	entry := Entry{
		ID:          string(msg.ID),
		Kind:        KindFailure,
		EventID:     msg.CausationID,
		EventName:   msg.Name,
		AggregateID: msg.Key,
		RecordedAt:  msg.CreatedAt,
	}
	switch msg.Name {
	case events.OperationFailed:
		var p events.OperationFailedPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			s.logger.WarnContext(ctx, "undecodable failure event", "message_id", msg.ID, "error", err)
			return
		}
		entry.EventName = p.EventName
		entry.Code = p.Code
		entry.Reason = p.Message
	case events.FormOperationFailed:
		var p events.FormOperationFailedPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			s.logger.WarnContext(ctx, "undecodable failure event", "message_id", msg.ID, "error", err)
			return
		}
		entry.Code = p.Code
		entry.Reason = p.Operation + ": " + p.Message
	default:
		entry.Reason = string(msg.Name)
	}
	s.buffer.Enqueue(entry)
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(limit int) []Entry {
	return s.buffer.Recent(limit)
}

// Dropped returns how many entries were evicted.
func (s *Store) Dropped() int64 {
	return s.buffer.Dropped()
}
