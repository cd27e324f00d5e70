package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"progression/internal/events"
	"progression/internal/platform/kafka/producer"
	"progression/pkg/domain"
	"progression/pkg/platform/circuit"
	"progression/pkg/platform/tx"
)

func TestMessagesDeriveStableIDs(t *testing.T) {
	cause := domain.NewEventID()
	evs := []events.Public{
		{Name: events.HearingInitialised, Key: "h1", Payload: map[string]string{"id": "h1"}},
		{Name: events.HearingInitialised, Key: "h1", Payload: map[string]string{"id": "h1"}},
	}

	first, err := Messages(cause, evs, timeNow())
	require.NoError(t, err)
	again, err := Messages(cause, evs, timeNow())
	require.NoError(t, err)

	require.Len(t, first, 2)
	assert.NotEqual(t, first[0].ID, first[1].ID, "position distinguishes same-named events")
	assert.Equal(t, first[0].ID, again[0].ID)
	assert.Equal(t, cause, first[0].CausationID)
	assert.JSONEq(t, `{"id":"h1"}`, string(first[0].Payload))
}

func TestMemoryNotifiesObservers(t *testing.T) {
	var seen []events.Name
	m := NewMemory(func(_ context.Context, msg Message) {
		seen = append(seen, msg.Name)
	})

	err := m.Publish(context.Background(), domain.NewEventID(), []events.Public{
		{Name: events.ProsecutionCaseCreated, Key: "c1"},
		{Name: events.OperationFailed, Key: "c1"},
	})
	require.NoError(t, err)

	assert.Equal(t, []events.Name{events.ProsecutionCaseCreated, events.OperationFailed}, seen)
	assert.Len(t, m.Published(), 2)
	assert.Len(t, m.Published(events.OperationFailed), 1)
}

type fakeStore struct {
	mu        sync.Mutex
	pending   []Message
	processed []domain.EventID
}

func (s *fakeStore) Claim(_ context.Context, limit int) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := min(limit, len(s.pending))
	return append([]Message(nil), s.pending[:n]...), nil
}

func (s *fakeStore) MarkProcessed(_ context.Context, ids []domain.EventID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed = append(s.processed, ids...)
	s.pending = s.pending[len(ids):]
	return nil
}

type fakeSink struct {
	fail    bool
	records []producer.Record
}

func (s *fakeSink) Publish(_ context.Context, records ...producer.Record) error {
	if s.fail {
		return errors.New("broker down")
	}
	s.records = append(s.records, records...)
	return nil
}

func pendingMessages(t *testing.T, n int) []Message {
	t.Helper()
	evs := make([]events.Public, n)
	for i := range evs {
		evs[i] = events.Public{Name: events.CaseStatusChanged, Key: "c1", Payload: struct{}{}}
	}
	msgs, err := Messages(domain.NewEventID(), evs, timeNow())
	require.NoError(t, err)
	return msgs
}

func TestRelayDeliversAndMarks(t *testing.T) {
	store := &fakeStore{pending: pendingMessages(t, 3)}
	sink := &fakeSink{}
	var observed int
	relay := NewRelay(store, sink, tx.NopRunner{}, WithBatchSize(2), WithObserver(func(context.Context, Message) {
		observed++
	}))

	n, err := relay.RelayBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = relay.RelayBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Len(t, sink.records, 3)
	assert.Equal(t, string(events.CaseStatusChanged), sink.records[0].Topic)
	assert.Equal(t, "c1", sink.records[0].Key)
	assert.NotEmpty(t, sink.records[0].Headers["event-id"])
	assert.Len(t, store.processed, 3)
	assert.Equal(t, 3, observed)
}

func TestRelayProbesWhileBreakerOpen(t *testing.T) {
	store := &fakeStore{pending: pendingMessages(t, 5)}
	sink := &fakeSink{fail: true}
	breaker := circuit.New("test", circuit.WithFailureThreshold(2), circuit.WithSuccessThreshold(1))
	relay := NewRelay(store, sink, tx.NopRunner{}, WithBreaker(breaker))

	for range 2 {
		_, err := relay.RelayBatch(context.Background())
		require.Error(t, err)
	}
	require.True(t, breaker.IsOpen())
	assert.Empty(t, store.processed, "failed batches stay in the outbox")

	sink.fail = false
	n, err := relay.RelayBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n, "open breaker sends a single probe")
	assert.False(t, breaker.IsOpen())

	n, err = relay.RelayBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func timeNow() time.Time { return time.Unix(1700000000, 0) }
