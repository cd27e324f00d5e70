// Package engine is the dispatch table between the gate and the aggregates.
// Each event name maps to a sequencing key, optional prerequisites and a
// handler that loads one aggregate, applies the event and saves it. Public
// events go to the outbox in the same unit of work; follow-up intents are
// handed back to the gate.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"progression/internal/events"
	"progression/internal/outbox"
	"progression/internal/platform/tracing"
	"progression/internal/projection"
	"progression/pkg/platform/sentinel"
)

type route struct {
	key   func(env events.Envelope) (string, error)
	ready func(ctx context.Context, env events.Envelope) error
	apply func(ctx context.Context, env events.Envelope) (events.Outcome, error)
}

// Engine implements gate.Router and gate.Processor.
type Engine struct {
	store     *projection.Set
	publisher outbox.Publisher
	logger    *slog.Logger
	routes    map[events.Name]route
}

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an engine over store publishing through publisher.
func New(store *projection.Set, publisher outbox.Publisher, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		publisher: publisher,
		logger:    slog.Default(),
		routes:    make(map[events.Name]route),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.registerHearing()
	e.registerCase()
	e.registerDefendant()
	e.registerGroup()
	e.registerApplication()
	e.registerDocument()
	e.registerNotice()
	e.registerForm()
	return e
}

// Handles reports whether name has a route.
func (e *Engine) Handles(name events.Name) bool {
	_, ok := e.routes[name]
	return ok
}

func (e *Engine) route(name events.Name) (route, error) {
	r, ok := e.routes[name]
	if !ok {
		return route{}, fmt.Errorf("unknown event %q: %w", name, sentinel.ErrMalformed)
	}
	return r, nil
}

// Key returns the sequencing key of env, "<kind>:<id>".
func (e *Engine) Key(env events.Envelope) (string, error) {
	r, err := e.route(env.Name)
	if err != nil {
		return "", err
	}
	return r.key(env)
}

// Ready checks env's prerequisites and returns sentinel.ErrDeferred when an
// aggregate it needs does not exist yet.
func (e *Engine) Ready(ctx context.Context, env events.Envelope) error {
	r, err := e.route(env.Name)
	if err != nil {
		return err
	}
	if r.ready == nil {
		return nil
	}
	return r.ready(ctx, env)
}

// Process applies env and returns the follow-up envelopes it caused.
func (e *Engine) Process(ctx context.Context, env events.Envelope) (_ []events.Envelope, err error) {
	r, err := e.route(env.Name)
	if err != nil {
		return nil, err
	}
	ctx, span := tracing.StartSpan(ctx, "engine.process", "event.name", string(env.Name))
	defer func() { tracing.End(span, err) }()

	if r.ready != nil {
		if err := r.ready(ctx, env); err != nil {
			return nil, err
		}
	}
	out, err := r.apply(ctx, env)
	if err != nil {
		return nil, err
	}
	if len(out.Events) > 0 {
		if err := e.publisher.Publish(ctx, env.ID, out.Events); err != nil {
			return nil, err
		}
	}

	m := events.MetaOf(env)
	next := make([]events.Envelope, 0, len(out.FollowUps))
	for _, intent := range out.FollowUps {
		fu, err := intent.Envelope(m)
		if err != nil {
			return nil, err
		}
		next = append(next, fu)
	}
	e.logger.DebugContext(ctx, "event applied",
		"event_id", env.ID,
		"event_name", env.Name,
		"published", len(out.Events),
		"follow_ups", len(next),
	)
	return next, nil
}

// handler describes one event name. key returns the aggregate id the event is
// sequenced on; needs lists prerequisite checks.
type handler[P any] struct {
	kind  string
	key   func(p P) string
	needs func(e *Engine, ctx context.Context, p P) error
	apply func(e *Engine, ctx context.Context, m events.Meta, p P) (events.Outcome, error)
}

func register[P any](e *Engine, name events.Name, h handler[P]) {
	key := func(env events.Envelope) (string, P, error) {
		p, err := events.Decode[P](env)
		if err != nil {
			return "", p, err
		}
		id := strings.TrimSpace(h.key(p))
		if id == "" {
			return "", p, fmt.Errorf("%s: missing %s id: %w", name, h.kind, sentinel.ErrMalformed)
		}
		return h.kind + ":" + id, p, nil
	}
	r := route{
		key: func(env events.Envelope) (string, error) {
			k, _, err := key(env)
			return k, err
		},
		apply: func(ctx context.Context, env events.Envelope) (events.Outcome, error) {
			_, p, err := key(env)
			if err != nil {
				return events.Outcome{}, err
			}
			return h.apply(e, ctx, events.MetaOf(env), p)
		},
	}
	if h.needs != nil {
		r.ready = func(ctx context.Context, env events.Envelope) error {
			_, p, err := key(env)
			if err != nil {
				return err
			}
			return h.needs(e, ctx, p)
		}
	}
	e.routes[name] = r
}

// mutate loads the aggregate stored under id, applies fn and saves the
// returned value under the loaded version. fn receives nil when nothing is
// stored; returning nil skips the save.
func mutate[T any](ctx context.Context, repo projection.Repository[T], id string, fn func(cur *T) (*T, events.Outcome, error)) (events.Outcome, error) {
	cur, version, err := repo.Load(ctx, id)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return events.Outcome{}, err
	}
	next, out, err := fn(cur)
	if err != nil {
		return events.Outcome{}, err
	}
	if next != nil {
		if _, err := repo.Save(ctx, id, next, version); err != nil {
			return events.Outcome{}, err
		}
	}
	return out, nil
}

// exists returns sentinel.ErrDeferred unless id is stored.
func exists[T any](ctx context.Context, repo projection.Repository[T], id string) error {
	ok, err := repo.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s %s not found: %w", repo.Kind(), id, sentinel.ErrDeferred)
	}
	return nil
}

// load returns the stored aggregate or nil.
func load[T any](ctx context.Context, repo projection.Repository[T], id string) (*T, error) {
	cur, _, err := repo.Load(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	return cur, err
}
