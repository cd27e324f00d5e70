// Package gate deduplicates and sequences events before they reach the
// engine. Events sharing a sequencing key apply one at a time in arrival
// order; distinct keys apply concurrently up to the worker limit.
package gate

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/semaphore"

	"progression/internal/events"
	"progression/internal/platform/tracing"
	"progression/pkg/domain"
	"progression/pkg/platform/sentinel"
	"progression/pkg/platform/tx"
)

// Outcome is the gate's answer to Ingest.
type Outcome string

const (
	Accepted  Outcome = "accepted"
	Duplicate Outcome = "duplicate"
	Deferred  Outcome = "deferred"
)

// Router maps an envelope to its sequencing key and checks its prerequisites.
// Key fails with sentinel.ErrMalformed; Ready fails with sentinel.ErrDeferred.
type Router interface {
	Key(env events.Envelope) (string, error)
	Ready(ctx context.Context, env events.Envelope) error
}

// Processor applies one envelope and returns the follow-up envelopes it caused.
type Processor interface {
	Process(ctx context.Context, env events.Envelope) ([]events.Envelope, error)
}

// DeadLetterer records events the gate gives up on.
type DeadLetterer interface {
	DeadLetter(ctx context.Context, env events.Envelope, reason error) error
}

type pendingEvent struct {
	env     events.Envelope
	key     string
	seq     uint64
	backoff *backoff.ExponentialBackOff
	timer   *time.Timer
}

type lane struct {
	queue []events.Envelope
}

// Gate is the dedup and sequencing gate.
type Gate struct {
	router      Router
	processor   Processor
	ledger      Ledger
	runner      tx.Runner
	deadLetters DeadLetterer
	logger      *slog.Logger
	metrics     *Metrics
	sem         *semaphore.Weighted

	deferInitial     time.Duration
	deferMaxInterval time.Duration
	deferMaxElapsed  time.Duration
	conflictRetries  uint64
	conflictDelay    time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	lanes   map[string]*lane
	pending map[domain.EventID]*pendingEvent
	held    map[string][]*pendingEvent
	seq     uint64
	closed  bool
}

// Option configures a Gate.
type Option func(*Gate)

// WithWorkers bounds how many keys apply concurrently.
func WithWorkers(n int64) Option {
	return func(g *Gate) {
		if n > 0 {
			g.sem = semaphore.NewWeighted(n)
		}
	}
}

// WithDeferBackoff sets the exponential schedule for deferred events. Events
// still deferred after maxElapsed are dead-lettered.
func WithDeferBackoff(initial, maxInterval, maxElapsed time.Duration) Option {
	return func(g *Gate) {
		g.deferInitial = initial
		g.deferMaxInterval = maxInterval
		g.deferMaxElapsed = maxElapsed
	}
}

// WithConflictRetries sets how often a version conflict is retried in the lane.
func WithConflictRetries(n uint64) Option {
	return func(g *Gate) {
		g.conflictRetries = n
	}
}

// WithRunner sets the transaction runner wrapping each application.
func WithRunner(r tx.Runner) Option {
	return func(g *Gate) {
		g.runner = r
	}
}

// WithDeadLetters sets where rejected events go.
func WithDeadLetters(d DeadLetterer) Option {
	return func(g *Gate) {
		g.deadLetters = d
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) {
		g.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(g *Gate) {
		g.metrics = m
	}
}

// New creates a gate. Background work runs until Close.
func New(router Router, processor Processor, ledger Ledger, opts ...Option) *Gate {
	ctx, cancel := context.WithCancel(context.Background())
	g := &Gate{
		router:           router,
		processor:        processor,
		ledger:           ledger,
		runner:           tx.NopRunner{},
		logger:           slog.Default(),
		sem:              semaphore.NewWeighted(32),
		deferInitial:     50 * time.Millisecond,
		deferMaxInterval: 5 * time.Second,
		deferMaxElapsed:  2 * time.Minute,
		conflictRetries:  5,
		conflictDelay:    10 * time.Millisecond,
		ctx:              ctx,
		cancel:           cancel,
		lanes:            make(map[string]*lane),
		pending:          make(map[domain.EventID]*pendingEvent),
		held:             make(map[string][]*pendingEvent),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Ingest offers an event. Duplicates of committed or in-flight events are
// reported and dropped. Accepted and deferred events are applied later.
// Malformed events are dead-lettered and the error wraps sentinel.ErrMalformed.
func (g *Gate) Ingest(ctx context.Context, env events.Envelope) (Outcome, error) {
	if env.ID == "" {
		return "", fmt.Errorf("%s: missing event id: %w", env.Name, sentinel.ErrMalformed)
	}
	key, err := g.router.Key(env)
	if err != nil {
		g.reject(ctx, env, err)
		return "", err
	}

	if g.inFlight(env.ID) {
		g.metrics.incIngested(Duplicate)
		return Duplicate, nil
	}
	seen, err := g.ledger.Seen(ctx, env.ID)
	if err != nil {
		return "", err
	}
	if seen {
		g.metrics.incIngested(Duplicate)
		return Duplicate, nil
	}

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return "", fmt.Errorf("gate closed: %w", sentinel.ErrUnavailable)
	}
	if _, ok := g.pending[env.ID]; ok {
		g.mu.Unlock()
		g.metrics.incIngested(Duplicate)
		return Duplicate, nil
	}
	g.seq++
	g.pending[env.ID] = &pendingEvent{env: env, key: key, seq: g.seq}
	g.mu.Unlock()

	if err := g.router.Ready(ctx, env); err != nil {
		if errors.Is(err, sentinel.ErrDeferred) {
			g.retryLater(env, err)
			g.metrics.incIngested(Deferred)
			return Deferred, nil
		}
		g.forget(env.ID)
		if errors.Is(err, sentinel.ErrMalformed) {
			g.reject(ctx, env, err)
		}
		return "", err
	}

	g.release(ctx, key, nil)
	g.enqueue(key, env)
	g.metrics.incIngested(Accepted)
	return Accepted, nil
}

func (g *Gate) inFlight(id domain.EventID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.pending[id]
	return ok
}

// Pending returns the number of events accepted or deferred but not finished.
func (g *Gate) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pending)
}

func (g *Gate) enqueue(key string, env events.Envelope) {
	g.mu.Lock()
	l := g.enqueueLocked(key, env)
	g.mu.Unlock()
	g.start(key, l)
}

// enqueueLocked appends env to the key's lane and returns the lane when it
// was created and needs a drain.
func (g *Gate) enqueueLocked(key string, env events.Envelope) *lane {
	l, ok := g.lanes[key]
	if !ok {
		l = &lane{}
		g.lanes[key] = l
	}
	l.queue = append(l.queue, env)
	g.metrics.setSizes(len(g.lanes), len(g.pending))
	if ok {
		return nil
	}
	return l
}

func (g *Gate) start(key string, l *lane) {
	if l == nil {
		return
	}
	g.wg.Add(1)
	go g.drain(key, l)
}

// release moves deferred events of key back into its lane in arrival order.
// Without due, only events that are ready again move, so a later event on
// the key never overtakes an earlier one that could apply. With due, whose
// retry timer fired, the events deferred before it that are ready move
// first and due follows regardless.
func (g *Gate) release(ctx context.Context, key string, due *pendingEvent) {
	g.mu.Lock()
	held := slices.Clone(g.held[key])
	g.mu.Unlock()

	for _, p := range held {
		if due != nil && p.seq > due.seq {
			break
		}
		if p != due && g.router.Ready(ctx, p.env) != nil {
			continue
		}
		g.mu.Lock()
		if !g.unhold(p) {
			g.mu.Unlock()
			continue
		}
		if p != due && p.timer != nil {
			p.timer.Stop()
		}
		l := g.enqueueLocked(key, p.env)
		g.mu.Unlock()
		g.start(key, l)
	}
}

// hold records a deferred event on its key, keeping arrival order.
func (g *Gate) hold(p *pendingEvent) {
	held := g.held[p.key]
	i, _ := slices.BinarySearchFunc(held, p.seq, func(e *pendingEvent, seq uint64) int {
		return cmp.Compare(e.seq, seq)
	})
	g.held[p.key] = slices.Insert(held, i, p)
}

// unhold removes p from its key and reports whether it was held.
func (g *Gate) unhold(p *pendingEvent) bool {
	held := g.held[p.key]
	i := slices.Index(held, p)
	if i < 0 {
		return false
	}
	held = slices.Delete(held, i, i+1)
	if len(held) == 0 {
		delete(g.held, p.key)
		return true
	}
	g.held[p.key] = held
	return true
}

// drain applies the lane's events in order and removes the lane once empty.
func (g *Gate) drain(key string, l *lane) {
	defer g.wg.Done()
	for {
		g.mu.Lock()
		if len(l.queue) == 0 {
			delete(g.lanes, key)
			g.metrics.setSizes(len(g.lanes), len(g.pending))
			g.mu.Unlock()
			return
		}
		env := l.queue[0]
		l.queue = l.queue[1:]
		g.mu.Unlock()

		if err := g.sem.Acquire(g.ctx, 1); err != nil {
			g.abandon(key, l, env)
			return
		}
		g.apply(key, env)
		g.sem.Release(1)
	}
}

// abandon drops queued work when the gate is stopping. Nothing was committed,
// so redelivery applies it later.
func (g *Gate) abandon(key string, l *lane, head events.Envelope) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.pending, head.ID)
	for _, env := range l.queue {
		delete(g.pending, env.ID)
	}
	l.queue = nil
	delete(g.lanes, key)
}

func (g *Gate) apply(key string, env events.Envelope) {
	ctx, span := tracing.StartSpan(g.ctx, "gate.apply",
		"event.id", string(env.ID), "event.name", string(env.Name), "key", key)
	start := time.Now()

	var (
		followUps []events.Envelope
		duplicate bool
	)
	op := func() error {
		followUps, duplicate = nil, false
		err := g.runner.RunInTx(ctx, func(ctx context.Context) error {
			produced, err := g.processor.Process(ctx, env)
			if err != nil {
				return err
			}
			if err := g.ledger.Commit(ctx, env.ID, env.Name); err != nil {
				return err
			}
			followUps = produced
			return nil
		})
		switch {
		case err == nil:
			return nil
		case errors.Is(err, sentinel.ErrVersionConflict):
			return err
		case errors.Is(err, sentinel.ErrConflict):
			duplicate = true
			return nil
		default:
			return backoff.Permanent(err)
		}
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(g.conflictDelay), g.conflictRetries), ctx)
	err := backoff.Retry(op, policy)
	tracing.End(span, err)

	switch {
	case err == nil && duplicate:
		g.metrics.observeApplied(string(env.Name), "duplicate", time.Since(start))
		g.forget(env.ID)
	case err == nil:
		g.metrics.observeApplied(string(env.Name), "applied", time.Since(start))
		g.forget(env.ID)
		for _, next := range followUps {
			if _, err := g.Ingest(g.ctx, next); err != nil {
				g.logger.ErrorContext(ctx, "failed to ingest follow-up",
					"event_id", next.ID, "event_name", next.Name, "caused_by", env.ID, "error", err)
			}
		}
	case errors.Is(err, sentinel.ErrMalformed):
		g.metrics.observeApplied(string(env.Name), "malformed", time.Since(start))
		g.reject(ctx, env, err)
		g.forget(env.ID)
	default:
		g.metrics.observeApplied(string(env.Name), "retry", time.Since(start))
		g.retryLater(env, err)
	}
}

// retryLater schedules another attempt with exponential backoff, or
// dead-letters the event once the schedule is exhausted.
func (g *Gate) retryLater(env events.Envelope, cause error) {
	g.mu.Lock()
	p, ok := g.pending[env.ID]
	if !ok || g.closed {
		delete(g.pending, env.ID)
		g.mu.Unlock()
		return
	}
	if p.backoff == nil {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = g.deferInitial
		b.MaxInterval = g.deferMaxInterval
		b.MaxElapsedTime = g.deferMaxElapsed
		b.Reset()
		p.backoff = b
	}
	wait := p.backoff.NextBackOff()
	if wait == backoff.Stop {
		delete(g.pending, env.ID)
		g.mu.Unlock()
		g.logger.Warn("giving up on event",
			"event_id", env.ID, "event_name", env.Name, "attempts", env.Attempt, "error", cause)
		g.deadLetter(g.ctx, env, fmt.Errorf("retries exhausted: %w", cause))
		return
	}
	p.env.Attempt++
	attempt := p.env.Attempt
	g.hold(p)
	p.timer = time.AfterFunc(wait, func() {
		g.release(g.ctx, p.key, p)
	})
	g.mu.Unlock()

	g.metrics.incDeferrals()
	g.logger.Debug("event deferred",
		"event_id", env.ID, "event_name", env.Name, "attempt", attempt, "wait", wait, "reason", cause)
}

func (g *Gate) forget(id domain.EventID) {
	g.mu.Lock()
	delete(g.pending, id)
	g.metrics.setSizes(len(g.lanes), len(g.pending))
	g.mu.Unlock()
}

// reject dead-letters a malformed event and records it as processed so
// redelivery does not dead-letter it again.
func (g *Gate) reject(ctx context.Context, env events.Envelope, reason error) {
	if env.ID == "" {
		g.deadLetter(ctx, env, reason)
		return
	}
	err := g.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := g.ledger.Commit(ctx, env.ID, env.Name); err != nil {
			return err
		}
		return g.deadLetterErr(ctx, env, reason)
	})
	if err != nil && !errors.Is(err, sentinel.ErrConflict) {
		g.logger.ErrorContext(ctx, "failed to reject malformed event", "event_id", env.ID, "error", err)
	}
}

func (g *Gate) deadLetter(ctx context.Context, env events.Envelope, reason error) {
	if err := g.deadLetterErr(ctx, env, reason); err != nil {
		g.logger.ErrorContext(ctx, "failed to dead-letter event", "event_id", env.ID, "error", err)
	}
}

func (g *Gate) deadLetterErr(ctx context.Context, env events.Envelope, reason error) error {
	g.metrics.incDeadLetters()
	g.logger.WarnContext(ctx, "event dead-lettered",
		"event_id", env.ID, "event_name", env.Name, "reason", reason)
	if g.deadLetters == nil {
		return nil
	}
	return g.deadLetters.DeadLetter(ctx, env, reason)
}

// Close stops accepting events, cancels scheduled retries and waits for the
// lanes to drain or ctx to expire.
func (g *Gate) Close(ctx context.Context) error {
	g.mu.Lock()
	g.closed = true
	for id, p := range g.pending {
		if p.timer != nil && p.timer.Stop() {
			g.unhold(p)
			delete(g.pending, id)
		}
	}
	g.mu.Unlock()

	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	defer g.cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
