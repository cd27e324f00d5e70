package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"progression/internal/deadletter"
	"progression/internal/engine"
	"progression/internal/events"
	"progression/internal/gate"
	"progression/internal/outbox"
	"progression/internal/platform/config"
	"progression/internal/platform/httpserver"
	"progression/internal/platform/kafka/admin"
	"progression/internal/platform/kafka/consumer"
	"progression/internal/platform/kafka/producer"
	"progression/internal/platform/logger"
	"progression/internal/platform/metrics"
	"progression/internal/query"
	httptransport "progression/internal/transport/http"
	kafkatransport "progression/internal/transport/kafka"
	"progression/pkg/platform/circuit"
)

// main wires the stores, the gate and the transports, and keeps the process
// lifecycle in one errgroup. Business logic lives in the internal packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("progression stopped", "error", err)
		os.Exit(1)
	}
	log.Info("progression stopped")
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	stores, err := openInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer stores.close()

	var sink outbox.Sink = discardSink{logger: log}
	if cfg.Kafka.Enabled() {
		if cfg.Kafka.EnsureTopics {
			if err := admin.EnsureTopics(ctx, cfg.Kafka.Brokers, cfg.Kafka.TopicPartitions, cfg.Kafka.TopicReplication, topics(), log); err != nil {
				return err
			}
		}
		prod, err := producer.New(cfg.Kafka.Brokers)
		if err != nil {
			return err
		}
		defer prod.Close()
		sink = prod
	}

	failures := deadletter.New(cfg.Gate.DeadLetterCapacity,
		deadletter.WithPublisher(stores.outbox),
		deadletter.WithLogger(log),
	)
	if mem, ok := stores.outbox.(*outbox.Memory); ok {
		mem.Observe(failures.Observe)
		mem.Observe(forward(sink, log))
	}

	eng := engine.New(stores.store, stores.outbox, engine.WithLogger(log))
	g := gate.New(eng, eng, stores.ledger,
		gate.WithWorkers(cfg.Gate.Workers),
		gate.WithDeferBackoff(cfg.Gate.DeferInitial, cfg.Gate.DeferMaxInterval, cfg.Gate.DeferMaxElapsed),
		gate.WithConflictRetries(cfg.Gate.ConflictRetries),
		gate.WithRunner(stores.runner),
		gate.WithDeadLetters(failures),
		gate.WithLogger(log),
		gate.WithMetrics(gate.NewMetrics()),
	)

	queries := query.New(stores.store, query.WithLogger(log), query.WithFailures(failures))
	handler := httptransport.New(g, queries, log,
		httptransport.WithMetrics(metrics.New()),
		httptransport.WithReadiness(stores.ready),
		httptransport.WithTimeout(cfg.Server.RequestTimeout),
	)
	router := chi.NewRouter()
	handler.Register(router)
	srv := httpserver.New(cfg.Server.Addr, router)

	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting progression", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if stores.relayed {
		relay := outbox.NewRelay(stores.relayStore, sink, stores.runner,
			outbox.WithInterval(cfg.Outbox.PollInterval),
			outbox.WithBatchSize(cfg.Outbox.BatchSize),
			outbox.WithBreaker(circuit.New("outbox-relay",
				circuit.WithFailureThreshold(cfg.Outbox.FailureThreshold),
				circuit.WithSuccessThreshold(cfg.Outbox.SuccessThreshold),
			)),
			outbox.WithObserver(failures.Observe),
			outbox.WithRelayLogger(log),
			outbox.WithRelayMetrics(outbox.NewMetrics()),
		)
		group.Go(func() error { return relay.Run(gctx) })
		group.Go(func() error { return stores.sweep(gctx, cfg, log) })
	}

	if cfg.Kafka.Enabled() {
		topicRouter := consumer.NewRouter(log, nil)
		kafkatransport.NewInbound(g, failures, log).Register(topicRouter)
		cons, err := consumer.New(consumer.Config{
			Brokers: cfg.Kafka.Brokers,
			Group:   cfg.Kafka.ConsumerGroup,
			Topics:  topicRouter.Topics(),
		}, topicRouter, log)
		if err != nil {
			return err
		}
		group.Go(func() error { return cons.Run(gctx) })
	}

	group.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("http shutdown failed", "error", err)
		}
		if err := g.Close(shutdownCtx); err != nil {
			log.Warn("gate closed with work in flight", "error", err, "pending", g.Pending())
		}
		return nil
	})

	return group.Wait()
}

func topics() []string {
	out := make([]string, 0, len(events.InboundTopics)+len(events.PublicNames))
	for _, n := range events.InboundTopics {
		out = append(out, string(n))
	}
	for _, n := range events.PublicNames {
		out = append(out, string(n))
	}
	return out
}

// forward sends messages of the in-memory outbox straight to the sink.
// Delivery is best effort; the in-memory mode has nothing to replay from.
func forward(sink outbox.Sink, log *slog.Logger) outbox.Observer {
	return func(ctx context.Context, msg outbox.Message) {
		err := sink.Publish(ctx, producer.Record{
			Topic: string(msg.Name),
			Key:   msg.Key,
			Value: msg.Payload,
			Headers: map[string]string{
				events.HeaderEventID:     string(msg.ID),
				events.HeaderCausationID: string(msg.CausationID),
			},
		})
		if err != nil {
			log.WarnContext(ctx, "public event not delivered", "message_id", msg.ID, "event_name", msg.Name, "error", err)
		}
	}
}

// discardSink stands in for Kafka when no brokers are configured.
type discardSink struct {
	logger *slog.Logger
}

func (s discardSink) Publish(ctx context.Context, records ...producer.Record) error {
	for _, r := range records {
		s.logger.DebugContext(ctx, "public event", "topic", r.Topic, "key", r.Key)
	}
	return nil
}
