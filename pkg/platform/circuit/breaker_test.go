package circuit

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"progression/pkg/testutil"
)

// relayLimit mirrors how the outbox relay sizes a batch from the breaker.
func relayLimit(b *Breaker, batch int) int {
	if b.IsOpen() {
		return 1
	}
	return batch
}

func TestBreaker_BrokerOutageAndRecovery(t *testing.T) {
	b := New("outbox-relay", WithFailureThreshold(3), WithSuccessThreshold(2))

	testutil.Given(t, "a closed breaker in front of the broker", func(t *testing.T) {
		assert.Equal(t, "outbox-relay", b.Name())
		assert.Equal(t, StateClosed, b.State())
		assert.Equal(t, 100, relayLimit(b, 100))
	})

	testutil.When(t, "deliveries fail up to the failure threshold", func(t *testing.T) {
		for range 2 {
			fallback, change := b.RecordFailure()
			require.False(t, fallback)
			require.Equal(t, StateChange{}, change)
		}
		fallback, change := b.RecordFailure()
		assert.True(t, fallback)
		assert.True(t, change.Opened)
	})

	testutil.Then(t, "the relay sends one message at a time", func(t *testing.T) {
		assert.Equal(t, "open", b.State().String())
		assert.Equal(t, 1, relayLimit(b, 100))

		fallback, change := b.RecordFailure()
		assert.True(t, fallback)
		assert.False(t, change.Opened, "an open breaker reports no second transition")
	})

	testutil.And(t, "full batches resume after the success threshold", func(t *testing.T) {
		primary, change := b.RecordSuccess()
		assert.False(t, primary)
		assert.False(t, change.Closed)
		assert.Equal(t, 1, relayLimit(b, 100))

		primary, change = b.RecordSuccess()
		assert.True(t, primary)
		assert.True(t, change.Closed)
		assert.Equal(t, "closed", b.State().String())
		assert.Equal(t, 100, relayLimit(b, 100))
	})
}

func TestBreaker_CountersResetOnOppositeResult(t *testing.T) {
	t.Run("a delivered batch clears earlier failures", func(t *testing.T) {
		b := New("outbox-relay", WithFailureThreshold(2))
		b.RecordFailure()
		b.RecordSuccess()
		b.RecordFailure()
		assert.False(t, b.IsOpen())
		b.RecordFailure()
		assert.True(t, b.IsOpen())
	})

	t.Run("a failure while open restarts recovery", func(t *testing.T) {
		b := New("outbox-relay", WithFailureThreshold(1), WithSuccessThreshold(2))
		b.RecordFailure()
		b.RecordSuccess()
		b.RecordFailure()
		b.RecordSuccess()
		assert.True(t, b.IsOpen())
		b.RecordSuccess()
		assert.False(t, b.IsOpen())
	})
}

func TestBreaker_ThresholdOptions(t *testing.T) {
	t.Run("non-positive thresholds keep the defaults", func(t *testing.T) {
		b := New("outbox-relay", WithFailureThreshold(0), WithSuccessThreshold(-1))
		for range 4 {
			b.RecordFailure()
		}
		assert.False(t, b.IsOpen())
		b.RecordFailure()
		assert.True(t, b.IsOpen())

		b.RecordSuccess()
		assert.True(t, b.IsOpen())
		b.RecordSuccess()
		assert.False(t, b.IsOpen())
	})

	t.Run("reset closes an open breaker", func(t *testing.T) {
		b := New("outbox-relay", WithFailureThreshold(1))
		b.RecordFailure()
		require.True(t, b.IsOpen())
		b.Reset()
		assert.Equal(t, StateClosed, b.State())
		b.RecordSuccess()
		assert.False(t, b.IsOpen())
	})
}

func TestBreaker_ConcurrentResults(t *testing.T) {
	b := New("outbox-relay", WithFailureThreshold(50))
	var wg sync.WaitGroup
	for range 49 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.RecordFailure()
		}()
	}
	wg.Wait()
	assert.False(t, b.IsOpen())

	_, change := b.RecordFailure()
	assert.True(t, change.Opened)
}
