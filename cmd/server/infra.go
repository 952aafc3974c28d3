package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"skillchain/internal/platform/config"
	"skillchain/internal/platform/kafka"
	"skillchain/internal/platform/postgres"
	"skillchain/internal/platform/redis"
	"skillchain/internal/ratelimit"
	"skillchain/internal/registry/cache"
	registryservice "skillchain/internal/registry/service"
	"skillchain/internal/registry/store"
	audit "skillchain/pkg/platform/audit"
	"skillchain/pkg/platform/audit/publisher"
	"skillchain/pkg/platform/audit/publishers/stream"
	auditmemory "skillchain/pkg/platform/audit/store/memory"
	auditpostgres "skillchain/pkg/platform/audit/store/postgres"
)

const (
	streamBreakerThreshold = 5
	streamBreakerCooldown  = 30 * time.Second
)

// infra owns every external resource the registry runs on.
type infra struct {
	store  registryservice.Store
	tx     registryservice.StoreTx
	cache  registryservice.CertificateCache
	limits ratelimit.Store
	audit  *publisher.Publisher

	db       *sql.DB
	redis    *redis.Client
	producer *kafka.Producer
}

func buildInfra(ctx context.Context, cfg config.Config, log *slog.Logger, reg prometheus.Registerer) (_ *infra, err error) {
	d := &infra{}
	defer func() {
		if err != nil {
			d.Close()
		}
	}()

	var auditStore audit.Store
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		d.db, err = postgres.Open(ctx, cfg.Storage)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx, d.db); err != nil {
			return nil, err
		}
		if err := auditpostgres.Migrate(ctx, d.db); err != nil {
			return nil, err
		}
		pg := store.NewPostgres(d.db, store.WithTxTimeout(cfg.Storage.TxTimeout))
		d.store, d.tx = pg, pg
		auditStore = auditpostgres.New(d.db)
	default:
		mem := store.NewInMemoryStore()
		d.store, d.tx = mem, mem
		auditStore = auditmemory.NewInMemoryStore()
	}

	d.redis, err = redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	d.limits = ratelimit.NewInMemoryStore()
	if d.redis != nil {
		d.cache = cache.NewRedisCache(d.redis, cfg.Redis.CertificateTTL, cache.WithLogger(log))
		d.limits = ratelimit.NewRedisStore(d.redis)
	}

	opts := []publisher.Option{
		publisher.WithLogger(log),
		publisher.WithAsyncBuffer(cfg.Audit.BufferSize),
	}
	d.producer, err = kafka.New(ctx, cfg.Kafka)
	if err != nil {
		return nil, err
	}
	if d.producer != nil {
		opts = append(opts, publisher.WithSink(stream.NewSink(d.producer,
			stream.WithCooldownBreaker(streamBreakerThreshold, streamBreakerCooldown),
			stream.WithMetrics(stream.NewMetrics(reg)),
		)))
	}
	d.audit = publisher.NewPublisher(auditStore, opts...)
	return d, nil
}

// Health reports the first unreachable dependency.
func (d *infra) Health(ctx context.Context) error {
	var errs []error
	if d.db != nil {
		if err := d.db.PingContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("postgres: %w", err))
		}
	}
	if d.redis != nil {
		if err := d.redis.Health(ctx); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if d.producer != nil {
		if err := d.producer.Health(ctx); err != nil {
			errs = append(errs, fmt.Errorf("kafka: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Close drains the audit buffer before closing the connections it writes to.
func (d *infra) Close() {
	if d.audit != nil {
		d.audit.Close()
	}
	if d.producer != nil {
		d.producer.Close()
	}
	if d.redis != nil {
		_ = d.redis.Close()
	}
	if d.db != nil {
		_ = d.db.Close()
	}
}
