package outbox

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"progression/internal/events"
	"progression/internal/platform/kafka/producer"
	"progression/pkg/domain"
	"progression/pkg/platform/circuit"
	"progression/pkg/platform/tx"
)

// Store holds undelivered messages. Claim runs inside the relay's transaction.
type Store interface {
	Claim(ctx context.Context, limit int) ([]Message, error)
	MarkProcessed(ctx context.Context, ids []domain.EventID) error
}

// Sink delivers records to the broker.
type Sink interface {
	Publish(ctx context.Context, records ...producer.Record) error
}

// Relay moves messages from the outbox table to Kafka. While the broker is
// unhealthy the breaker opens and each poll sends a single probe message.
type Relay struct {
	store     Store
	sink      Sink
	runner    tx.Runner
	breaker   *circuit.Breaker
	interval  time.Duration
	batchSize int
	observers []Observer
	logger    *slog.Logger
	metrics   *Metrics
}

// RelayOption configures a Relay.
type RelayOption func(*Relay)

func WithInterval(d time.Duration) RelayOption {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithBatchSize(n int) RelayOption {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithBreaker(b *circuit.Breaker) RelayOption {
	return func(r *Relay) {
		r.breaker = b
	}
}

// WithObserver adds an observer told about each delivered message.
func WithObserver(o Observer) RelayOption {
	return func(r *Relay) {
		r.observers = append(r.observers, o)
	}
}

func WithRelayLogger(logger *slog.Logger) RelayOption {
	return func(r *Relay) {
		r.logger = logger
	}
}

func WithRelayMetrics(m *Metrics) RelayOption {
	return func(r *Relay) {
		r.metrics = m
	}
}

// NewRelay creates a relay reading store and writing sink.
func NewRelay(store Store, sink Sink, runner tx.Runner, opts ...RelayOption) *Relay {
	r := &Relay{
		store:     store,
		sink:      sink,
		runner:    runner,
		breaker:   circuit.New("outbox-relay"),
		interval:  500 * time.Millisecond,
		batchSize: 100,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run polls until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			for {
				n, err := r.RelayBatch(ctx)
				if err != nil {
					r.logger.WarnContext(ctx, "outbox relay failed", "error", err, "breaker", r.breaker.State().String())
					break
				}
				if n < r.limit() {
					break
				}
			}
		}
	}
}

func (r *Relay) limit() int {
	if r.breaker.IsOpen() {
		return 1
	}
	return r.batchSize
}

// RelayBatch delivers one batch and returns how many messages it sent.
func (r *Relay) RelayBatch(ctx context.Context) (int, error) {
	var delivered []Message
	err := r.runner.RunInTx(ctx, func(ctx context.Context) error {
		msgs, err := r.store.Claim(ctx, r.limit())
		if err != nil {
			return err
		}
		if len(msgs) == 0 {
			return nil
		}
		records := make([]producer.Record, 0, len(msgs))
		ids := make([]domain.EventID, 0, len(msgs))
		for _, msg := range msgs {
			records = append(records, producer.Record{
				Topic: string(msg.Name),
				Key:   msg.Key,
				Value: msg.Payload,
				Headers: map[string]string{
					events.HeaderEventID:     string(msg.ID),
					events.HeaderCausationID: string(msg.CausationID),
				},
			})
			ids = append(ids, msg.ID)
		}
		if err := r.sink.Publish(ctx, records...); err != nil {
			r.recordFailure(ctx)
			return fmt.Errorf("relay %d messages: %w", len(records), err)
		}
		r.recordSuccess(ctx)
		if err := r.store.MarkProcessed(ctx, ids); err != nil {
			return err
		}
		delivered = msgs
		return nil
	})
	if err != nil {
		return 0, err
	}
	r.metrics.addRelayed(len(delivered))
	for _, msg := range delivered {
		for _, o := range r.observers {
			o(ctx, msg)
		}
	}
	return len(delivered), nil
}

func (r *Relay) recordFailure(ctx context.Context) {
	r.metrics.incRelayFailures()
	if _, change := r.breaker.RecordFailure(); change.Opened {
		r.metrics.setBreakerOpen(true)
		r.logger.WarnContext(ctx, "outbox relay circuit opened", "breaker", r.breaker.Name())
	}
}

func (r *Relay) recordSuccess(ctx context.Context) {
	if _, change := r.breaker.RecordSuccess(); change.Closed {
		r.metrics.setBreakerOpen(false)
		r.logger.InfoContext(ctx, "outbox relay circuit closed", "breaker", r.breaker.Name())
	}
}
