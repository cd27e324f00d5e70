package outbox

import (
	"context"
	"sync"
	"time"

	"progression/internal/events"
	"progression/pkg/domain"
)

// Memory delivers messages immediately to its observers and keeps them for
// inspection.
type Memory struct {
	mu        sync.RWMutex
	messages  []Message
	observers []Observer
}

// NewMemory creates an empty in-memory outbox.
func NewMemory(observers ...Observer) *Memory {
	return &Memory{observers: observers}
}

// Observe adds an observer.
func (m *Memory) Observe(o Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, o)
}

func (m *Memory) Publish(ctx context.Context, causedBy domain.EventID, evs []events.Public) error {
	msgs, err := Messages(causedBy, evs, time.Now())
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.messages = append(m.messages, msgs...)
	observers := append([]Observer(nil), m.observers...)
	m.mu.Unlock()

	for _, msg := range msgs {
		for _, o := range observers {
			o(ctx, msg)
		}
	}
	return nil
}

// Published returns delivered messages, filtered by name when names are given.
func (m *Memory) Published(names ...events.Name) []Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(names) == 0 {
		return append([]Message(nil), m.messages...)
	}
	var out []Message
	for _, msg := range m.messages {
		for _, n := range names {
			if msg.Name == n {
				out = append(out, msg)
				break
			}
		}
	}
	return out
}
