// Package config loads the settings shared by the ledger API, the statement projector
// and ledgerctl. Every binary reads the same keys; each only dials what it uses.
package config

import (
	"errors"
	"strings"
	"time"
)

// Config is validated as a whole at startup
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	Kafka       KafkaConfig
	Postgres    PostgresConfig
	MongoDB     MongoDBConfig
	Redis       RedisConfig
	Outbox      OutboxConfig
	WorkerPool  WorkerPoolConfig
	Ledger      LedgerConfig
	Metrics     MetricsConfig
}

// ApplicationConfig contains general application configuration
type ApplicationConfig struct {
	Env  string
	Name string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration // drain window for in-flight ledger requests
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
}

// KafkaConfig contains Kafka configuration
type KafkaConfig struct {
	Brokers           string
	EventTopic        string // Terminal transaction events published by the outbox relay
	NumPartitions     int    // used when the relay creates EventTopic
	ReplicationFactor int
	ConsumerGroup     string
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	StartOffset       int64
	DLQTopic          string // poison events from the projector; empty drops them
}

// PostgresConfig contains PostgreSQL configuration
type PostgresConfig struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	MigrationsPath  string // empty skips migrations at API startup
}

// MongoDBConfig contains MongoDB configuration
type MongoDBConfig struct {
	URI             string
	Database        string
	Timeout         time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// RedisConfig contains the idempotency cache configuration
type RedisConfig struct {
	Enabled        bool
	Addr           string
	Password       string
	DB             int
	IdempotencyTTL time.Duration // How long a completed result stays cached
}

// OutboxConfig contains outbox pattern configuration
type OutboxConfig struct {
	PollingInterval  time.Duration
	BatchSize        int
	MaxRetryAttempts int // publish attempts before a message is marked FAILED_TO_PUBLISH
}

// WorkerPoolConfig contains worker pool configuration
type WorkerPoolConfig struct {
	Size int // Maximum number of concurrent ledger operations
}

// LedgerConfig contains money movement engine settings
type LedgerConfig struct {
	StalePendingAfter time.Duration // PENDING records older than this are abandoned
	ReaperInterval    time.Duration
	ReaperBatchSize   int
	OperationTimeout  time.Duration // Upper bound for one deposit, withdrawal or transfer
}

// MetricsConfig contains Prometheus exposition settings
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// problems collects every configuration error so a bad deployment reports them all at once
type problems []string

func (p *problems) require(ok bool, msg string) {
	if !ok {
		*p = append(*p, msg)
	}
}

func (p *problems) positive(name string, v int64) {
	p.require(v > 0, name+" must be greater than 0")
}

func (p *problems) present(name, v string) {
	p.require(v != "", name+" is required")
}

func (c *Config) validate() error {
	var p problems
	c.Server.check(&p)
	c.Kafka.check(&p)
	c.Postgres.check(&p)
	c.MongoDB.check(&p)
	c.Outbox.check(&p)
	c.Redis.check(&p)
	c.Ledger.check(&p)

	p.positive("WORKER_POOL_SIZE", int64(c.WorkerPool.Size))
	// a ledger operation can hold its unit connection while the PENDING insert takes another
	if c.WorkerPool.Size > 0 && c.Postgres.MaxConns > 0 {
		p.require(int32(2*c.WorkerPool.Size) <= c.Postgres.MaxConns, "POSTGRES_MAX_CONNS must be at least twice WORKER_POOL_SIZE")
	}

	p.require(!c.Metrics.Enabled || c.Metrics.Path != "", "METRICS_PATH is required when METRICS_ENABLED is true")

	if len(p) > 0 {
		return errors.New(strings.Join(p, ", "))
	}
	return nil
}

func (s ServerConfig) check(p *problems) {
	p.positive("SERVER_PORT", int64(s.Port))
	p.positive("SERVER_SHUTDOWN_TIMEOUT", int64(s.ShutdownTimeout))
	p.positive("SERVER_READ_TIMEOUT", int64(s.ReadTimeout))
	p.positive("SERVER_WRITE_TIMEOUT", int64(s.WriteTimeout))
	p.positive("SERVER_IDLE_TIMEOUT", int64(s.IdleTimeout))
}

func (k KafkaConfig) check(p *problems) {
	p.present("KAFKA_BROKERS", k.Brokers)
	p.present("KAFKA_EVENT_TOPIC", k.EventTopic)
	p.present("KAFKA_CONSUMER_GROUP", k.ConsumerGroup)
	p.positive("KAFKA_CONSUMER_MIN_BYTES", int64(k.MinBytes))
	p.positive("KAFKA_CONSUMER_MAX_BYTES", int64(k.MaxBytes))
	p.positive("KAFKA_CONSUMER_MAX_WAIT", int64(k.MaxWait))
}

func (pg PostgresConfig) check(p *problems) {
	p.present("POSTGRES_URL", pg.URL)
	p.positive("POSTGRES_MAX_CONNS", int64(pg.MaxConns))
	p.positive("POSTGRES_MIN_CONNS", int64(pg.MinConns))
	p.positive("POSTGRES_MAX_CONN_LIFETIME", int64(pg.ConnMaxLifetime))
	p.positive("POSTGRES_MAX_CONN_IDLE_TIME", int64(pg.ConnMaxIdleTime))
}

func (m MongoDBConfig) check(p *problems) {
	p.present("MONGO_URI", m.URI)
	p.present("MONGO_DATABASE", m.Database)
	p.positive("MONGO_TIMEOUT", int64(m.Timeout))
	p.positive("MONGO_MAX_POOL_SIZE", int64(m.MaxPoolSize))
	p.positive("MONGO_MIN_POOL_SIZE", int64(m.MinPoolSize))
	p.positive("MONGO_MAX_CONN_IDLE_TIME", int64(m.MaxConnIdleTime))
}

func (o OutboxConfig) check(p *problems) {
	p.positive("OUTBOX_POLLING_INTERVAL", int64(o.PollingInterval))
	p.positive("OUTBOX_BATCH_SIZE", int64(o.BatchSize))
	p.positive("OUTBOX_MAX_RETRY_ATTEMPTS", int64(o.MaxRetryAttempts))
}

func (r RedisConfig) check(p *problems) {
	if !r.Enabled {
		return
	}
	p.require(r.Addr != "", "REDIS_ADDR is required when REDIS_ENABLED is true")
	p.positive("REDIS_IDEMPOTENCY_TTL", int64(r.IdempotencyTTL))
}

// PENDING records younger than one operation timeout may still be in flight
func (l LedgerConfig) check(p *problems) {
	p.positive("LEDGER_STALE_PENDING_AFTER", int64(l.StalePendingAfter))
	p.positive("LEDGER_REAPER_INTERVAL", int64(l.ReaperInterval))
	p.positive("LEDGER_REAPER_BATCH_SIZE", int64(l.ReaperBatchSize))
	p.positive("LEDGER_OPERATION_TIMEOUT", int64(l.OperationTimeout))
	if l.OperationTimeout > 0 && l.StalePendingAfter > 0 {
		p.require(l.StalePendingAfter > l.OperationTimeout, "LEDGER_STALE_PENDING_AFTER must exceed LEDGER_OPERATION_TIMEOUT")
	}
}
