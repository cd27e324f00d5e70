// Package outbox delivers public events. The engine publishes inside the
// transaction that saves the aggregate; delivery to Kafka happens later.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"progression/internal/events"
	"progression/pkg/domain"
)

// Message is one public event ready for delivery. ID derives from the causing
// event so republishing after a retry yields the same id.
type Message struct {
	ID          domain.EventID  `json:"id"`
	Name        events.Name     `json:"name"`
	Key         string          `json:"key"`
	Payload     json.RawMessage `json:"payload"`
	CausationID domain.EventID  `json:"causationId"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Publisher records public events caused by one applied event.
type Publisher interface {
	Publish(ctx context.Context, causedBy domain.EventID, evs []events.Public) error
}

// Observer is told about every delivered message.
type Observer func(ctx context.Context, msg Message)

// Messages converts public events into messages.
func Messages(causedBy domain.EventID, evs []events.Public, now time.Time) ([]Message, error) {
	out := make([]Message, 0, len(evs))
	for i, e := range evs {
		payload, err := json.Marshal(e.Payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", e.Name, err)
		}
		out = append(out, Message{
			ID:          domain.DeriveEventID(causedBy, string(e.Name), strconv.Itoa(i)),
			Name:        e.Name,
			Key:         e.Key,
			Payload:     payload,
			CausationID: causedBy,
			CreatedAt:   now.UTC(),
		})
	}
	return out, nil
}
