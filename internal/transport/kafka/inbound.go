// Package kafka adapts consumed records into gate envelopes.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"progression/internal/events"
	"progression/internal/gate"
	"progression/internal/platform/kafka/consumer"
	"progression/pkg/domain"
	"progression/pkg/platform/sentinel"
)

// Ingester accepts envelopes for sequenced application.
type Ingester interface {
	Ingest(ctx context.Context, env events.Envelope) (gate.Outcome, error)
}

// Inbound turns every record of an inbound topic into an envelope named after
// the topic. Records that cannot become an envelope are dead-lettered and
// committed; only transient failures are returned for the consumer to retry.
type Inbound struct {
	ingester    Ingester
	deadLetters gate.DeadLetterer
	logger      *slog.Logger
}

// NewInbound creates the adapter.
func NewInbound(ingester Ingester, deadLetters gate.DeadLetterer, logger *slog.Logger) *Inbound {
	return &Inbound{ingester: ingester, deadLetters: deadLetters, logger: logger}
}

// Register routes every inbound topic to the adapter.
func (a *Inbound) Register(r *consumer.Router) {
	for _, name := range events.InboundTopics {
		r.Register(string(name), a)
	}
}

// Handle implements consumer.Handler.
func (a *Inbound) Handle(ctx context.Context, msg *consumer.Message) error {
	env, err := Envelope(msg)
	if err != nil {
		a.logger.WarnContext(ctx, "dead-lettering malformed record",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", err,
		)
		if err := a.deadLetters.DeadLetter(ctx, Unreadable(msg), err); err != nil {
			return fmt.Errorf("dead-letter %s/%d/%d: %w", msg.Topic, msg.Partition, msg.Offset, err)
		}
		return nil
	}

	outcome, err := a.ingester.Ingest(ctx, env)
	switch {
	case err == nil:
		a.logger.DebugContext(ctx, "record ingested",
			"event_id", env.ID,
			"event_name", env.Name,
			"outcome", string(outcome),
		)
		return nil
	case errors.Is(err, sentinel.ErrMalformed):
		a.logger.WarnContext(ctx, "record rejected",
			"event_id", env.ID,
			"event_name", env.Name,
			"error", err,
		)
		return nil
	default:
		return fmt.Errorf("ingest %s: %w", env.ID, err)
	}
}

// Unreadable wraps a record that failed Envelope. The id derives from the
// record position and the raw value is kept as a JSON string.
func Unreadable(msg *consumer.Message) events.Envelope {
	raw, _ := json.Marshal(string(msg.Value))
	return events.Envelope{
		ID:         positionID(msg),
		Name:       events.Name(msg.Topic),
		Payload:    raw,
		OccurredAt: msg.Timestamp.UTC(),
	}
}

func positionID(msg *consumer.Message) domain.EventID {
	return domain.EventIDFromKey(fmt.Sprintf("%s:%d:%d", msg.Topic, msg.Partition, msg.Offset))
}

// Envelope builds the envelope of msg. The id comes from the event-id header
// when the producer set one and is otherwise derived from the record position,
// so redelivery of the same record yields the same id.
func Envelope(msg *consumer.Message) (events.Envelope, error) {
	if !json.Valid(msg.Value) {
		return events.Envelope{}, fmt.Errorf("%s: payload is not JSON: %w", msg.Topic, sentinel.ErrMalformed)
	}
	id := positionID(msg)
	if raw := msg.Headers[events.HeaderEventID]; raw != "" {
		parsed, err := domain.ParseEventID(raw)
		if err != nil {
			return events.Envelope{}, fmt.Errorf("%s: %v: %w", events.HeaderEventID, err, sentinel.ErrMalformed)
		}
		id = parsed
	}
	env := events.Envelope{
		ID:         id,
		Name:       events.Name(msg.Topic),
		Payload:    json.RawMessage(msg.Value),
		OccurredAt: msg.Timestamp.UTC(),
	}
	if causation := msg.Headers[events.HeaderCausationID]; causation != "" {
		env.CausationID = domain.EventID(causation)
	}
	return env, nil
}
