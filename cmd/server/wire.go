package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"progression/internal/gate"
	"progression/internal/outbox"
	"progression/internal/platform/config"
	"progression/internal/platform/postgres"
	"progression/internal/platform/redis"
	"progression/internal/projection"
	"progression/pkg/platform/tx"
)

// infra is the storage selected by configuration. Postgres carries the
// projections, the ledger and the outbox in one transaction; without it
// everything lives in memory and Redis, when set, backs the ledger alone.
type infra struct {
	store      *projection.Set
	ledger     gate.Ledger
	outbox     outbox.Publisher
	runner     tx.Runner
	relayStore outbox.Store
	relayed    bool
	db         *sql.DB
	redis      *redis.Client
}

func openInfra(ctx context.Context, cfg config.Config, log *slog.Logger) (*infra, error) {
	if cfg.Postgres.Enabled() {
		db, err := postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		if cfg.Postgres.MigrateOnStart {
			if err := postgres.Migrate(db, log); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
		box := outbox.NewPostgres(db)
		log.Info("using postgres storage")
		return &infra{
			store:      projection.NewPostgresSet(db),
			ledger:     gate.NewPostgresLedger(db),
			outbox:     box,
			runner:     tx.SQLRunner{DB: db},
			relayStore: box,
			relayed:    true,
			db:         db,
		}, nil
	}

	in := &infra{
		store:  projection.NewMemorySet(),
		ledger: gate.NewMemoryLedger(),
		outbox: outbox.NewMemory(),
		runner: tx.NopRunner{},
	}
	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if client != nil {
		in.redis = client
		in.ledger = gate.NewRedisLedger(client.Client, cfg.Redis.LedgerTTL)
		log.Info("using in-memory projections with redis ledger")
	} else {
		log.Info("using in-memory storage")
	}
	return in, nil
}

// ready reports whether the backing stores answer.
func (in *infra) ready(ctx context.Context) error {
	if in.db != nil {
		if err := in.db.PingContext(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
	}
	if in.redis != nil {
		if err := in.redis.Health(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

// sweep deletes delivered outbox rows and ledger entries past retention.
func (in *infra) sweep(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	if in.db == nil {
		return nil
	}
	box, ok := in.relayStore.(*outbox.Postgres)
	if !ok {
		return nil
	}
	ledger, ok := in.ledger.(*gate.PostgresLedger)
	if !ok {
		return nil
	}
	ticker := time.NewTicker(cfg.Outbox.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			purged, err := box.Purge(ctx, now.Add(-cfg.Outbox.Retention))
			if err != nil {
				log.WarnContext(ctx, "outbox purge failed", "error", err)
			}
			pruned, err := ledger.Prune(ctx, now.Add(-cfg.Gate.LedgerRetention))
			if err != nil {
				log.WarnContext(ctx, "ledger prune failed", "error", err)
			}
			log.DebugContext(ctx, "retention sweep", "outbox_purged", purged, "ledger_pruned", pruned)
		}
	}
}

func (in *infra) close() {
	if in.db != nil {
		_ = in.db.Close()
	}
	if in.redis != nil {
		_ = in.redis.Close()
	}
}
