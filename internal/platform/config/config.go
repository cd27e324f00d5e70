// Package config loads process configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full process configuration.
type Config struct {
	Server   Server
	Postgres Postgres
	Redis    Redis
	Kafka    Kafka
	Gate     Gate
	Outbox   Outbox
	LogLevel string `env:"PROGRESSION_LOG_LEVEL" envDefault:"info"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"PROGRESSION_ADDR" envDefault:":8080"`
	RequestTimeout  time.Duration `env:"PROGRESSION_REQUEST_TIMEOUT" envDefault:"15s"`
	ShutdownTimeout time.Duration `env:"PROGRESSION_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Postgres enables the durable projection store, ledger and outbox when DSN is set.
type Postgres struct {
	DSN             string        `env:"PROGRESSION_POSTGRES_DSN"`
	MaxOpenConns    int           `env:"PROGRESSION_POSTGRES_MAX_OPEN_CONNS" envDefault:"20"`
	MaxIdleConns    int           `env:"PROGRESSION_POSTGRES_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"PROGRESSION_POSTGRES_CONN_MAX_LIFETIME" envDefault:"30m"`
	MigrateOnStart  bool          `env:"PROGRESSION_POSTGRES_MIGRATE" envDefault:"true"`
}

// Enabled reports whether Postgres is configured.
func (p Postgres) Enabled() bool { return p.DSN != "" }

// Redis enables the Redis dedup ledger when URL is set and Postgres is not.
type Redis struct {
	URL          string        `env:"PROGRESSION_REDIS_URL"`
	PoolSize     int           `env:"PROGRESSION_REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"PROGRESSION_REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"PROGRESSION_REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"PROGRESSION_REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"PROGRESSION_REDIS_WRITE_TIMEOUT" envDefault:"3s"`
	LedgerTTL    time.Duration `env:"PROGRESSION_REDIS_LEDGER_TTL" envDefault:"168h"`
}

// Enabled reports whether Redis is configured.
func (r Redis) Enabled() bool { return r.URL != "" }

// Kafka enables the inbound consumer and the outbox relay when brokers are set.
type Kafka struct {
	Brokers          []string `env:"PROGRESSION_KAFKA_BROKERS" envSeparator:","`
	ConsumerGroup    string   `env:"PROGRESSION_KAFKA_GROUP" envDefault:"progression"`
	EnsureTopics     bool     `env:"PROGRESSION_KAFKA_ENSURE_TOPICS" envDefault:"true"`
	TopicPartitions  int32    `env:"PROGRESSION_KAFKA_TOPIC_PARTITIONS" envDefault:"3"`
	TopicReplication int16    `env:"PROGRESSION_KAFKA_TOPIC_REPLICATION" envDefault:"1"`
}

// Enabled reports whether Kafka is configured.
func (k Kafka) Enabled() bool { return len(k.Brokers) > 0 }

// Gate tunes the dedup and sequencing gate.
type Gate struct {
	Workers            int64         `env:"PROGRESSION_GATE_WORKERS" envDefault:"32"`
	DeferInitial       time.Duration `env:"PROGRESSION_GATE_DEFER_INITIAL" envDefault:"50ms"`
	DeferMaxInterval   time.Duration `env:"PROGRESSION_GATE_DEFER_MAX_INTERVAL" envDefault:"5s"`
	DeferMaxElapsed    time.Duration `env:"PROGRESSION_GATE_DEFER_MAX_ELAPSED" envDefault:"2m"`
	ConflictRetries    uint64        `env:"PROGRESSION_GATE_CONFLICT_RETRIES" envDefault:"5"`
	DeadLetterCapacity int           `env:"PROGRESSION_GATE_DEAD_LETTER_CAPACITY" envDefault:"1000"`
	LedgerRetention    time.Duration `env:"PROGRESSION_GATE_LEDGER_RETENTION" envDefault:"720h"`
}

// Outbox tunes the Postgres outbox relay.
type Outbox struct {
	PollInterval     time.Duration `env:"PROGRESSION_OUTBOX_POLL_INTERVAL" envDefault:"500ms"`
	BatchSize        int           `env:"PROGRESSION_OUTBOX_BATCH_SIZE" envDefault:"100"`
	FailureThreshold int           `env:"PROGRESSION_OUTBOX_FAILURE_THRESHOLD" envDefault:"5"`
	SuccessThreshold int           `env:"PROGRESSION_OUTBOX_SUCCESS_THRESHOLD" envDefault:"2"`
	Retention        time.Duration `env:"PROGRESSION_OUTBOX_RETENTION" envDefault:"168h"`
	SweepInterval    time.Duration `env:"PROGRESSION_OUTBOX_SWEEP_INTERVAL" envDefault:"1h"`
}

// FromEnv builds the configuration from environment variables so main stays lean.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Gate.Workers <= 0 {
		return Config{}, fmt.Errorf("PROGRESSION_GATE_WORKERS must be positive, got %d", cfg.Gate.Workers)
	}
	return cfg, nil
}
