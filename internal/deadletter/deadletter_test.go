package deadletter

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"progression/internal/events"
	"progression/internal/outbox"
	"progression/pkg/domain"
	dErrors "progression/pkg/domain-errors"
)

func TestRingBufferDropsOldest(t *testing.T) {
	b := NewRingBuffer(3)
	for i := range 5 {
		b.Enqueue(Entry{ID: fmt.Sprintf("e%d", i)})
	}

	assert.Equal(t, 3, b.Len())
	assert.EqualValues(t, 2, b.Dropped())
	recent := b.Recent(0)
	require.Len(t, recent, 3)
	assert.Equal(t, "e4", recent[0].ID)
	assert.Equal(t, "e2", recent[2].ID)
}

func TestRingBufferIgnoresBufferedIDs(t *testing.T) {
	b := NewRingBuffer(3)
	assert.True(t, b.Enqueue(Entry{ID: "e1"}))
	assert.False(t, b.Enqueue(Entry{ID: "e1"}))
	assert.Equal(t, 1, b.Len())
}

func TestDeadLetterPublishes(t *testing.T) {
	pub := outbox.NewMemory()
	s := New(10, WithPublisher(pub))
	env := events.Envelope{ID: domain.NewEventID(), Name: events.ListingHearingUpdated, Attempt: 7}

	require.NoError(t, s.DeadLetter(context.Background(), env, errors.New("retries exhausted")))

	entries := s.Recent(10)
	require.Len(t, entries, 1)
	assert.Equal(t, KindDeadLetter, entries[0].Kind)
	assert.Equal(t, env.ID, entries[0].EventID)
	assert.Equal(t, 7, entries[0].Attempts)

	published := pub.Published(events.EventDeadLettered)
	require.Len(t, published, 1)
	assert.Equal(t, string(env.ID), published[0].Key)
}

func TestObserveRecordsFailureEvents(t *testing.T) {
	s := New(10)
	pub := outbox.NewMemory(s.Observe)
	m := events.Meta{EventID: domain.NewEventID(), Name: events.EjectCase, OccurredAt: time.Now()}

	var out events.Outcome
	out.Publish(events.CaseStatusChanged, "case-1", struct{}{})
	out.Fail(m, "case-1", dErrors.CodeNotFound, "prosecution case not found")
	require.NoError(t, pub.Publish(context.Background(), m.EventID, out.Events))

	entries := s.Recent(10)
	require.Len(t, entries, 1)
	assert.Equal(t, KindFailure, entries[0].Kind)
	assert.Equal(t, events.EjectCase, entries[0].EventName)
	assert.Equal(t, string(dErrors.CodeNotFound), entries[0].Code)
	assert.Equal(t, "case-1", entries[0].AggregateID)
}
