// Package cache keeps issued certificates in Redis. Certificates never change
// after issuance, so entries are only ever written once and expire by TTL.
// Keys carry the ledger id of the registry that issued them.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"skillchain/internal/registry/models"
	"skillchain/pkg/platform/circuit"
)

const (
	certificateKeyPrefix = "skillchain:certificate:"
	defaultTTL           = time.Hour
)

type certificateEntry struct {
	TokenID     uint64         `json:"token_id"`
	SkillName   string         `json:"skill_name"`
	Level       uint64         `json:"level"`
	Issuer      models.Address `json:"issuer"`
	Recipient   models.Address `json:"recipient"`
	IssuedAt    uint64         `json:"issued_at"`
	MetadataURI string         `json:"metadata_uri"`
}

func toEntry(cert models.Certificate) certificateEntry {
	return certificateEntry{
		TokenID:     uint64(cert.TokenID),
		SkillName:   cert.SkillName,
		Level:       uint64(cert.Level),
		Issuer:      cert.Issuer,
		Recipient:   cert.Recipient,
		IssuedAt:    cert.IssuedAt,
		MetadataURI: cert.MetadataURI,
	}
}

func (e certificateEntry) certificate() models.Certificate {
	return models.Certificate{
		TokenID:     models.TokenID(e.TokenID),
		SkillName:   e.SkillName,
		Level:       models.Level(e.Level),
		Issuer:      e.Issuer,
		Recipient:   e.Recipient,
		IssuedAt:    e.IssuedAt,
		MetadataURI: e.MetadataURI,
	}
}

// RedisCache is a best-effort certificate cache. Redis failures read as
// misses; after repeated failures the breaker opens and writes are skipped
// until reads succeed again.
type RedisCache struct {
	client  redis.Cmdable
	ttl     time.Duration
	breaker *circuit.Breaker
	logger  *slog.Logger
}

type Option func(*RedisCache)

func WithLogger(logger *slog.Logger) Option {
	return func(c *RedisCache) {
		c.logger = logger
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(c *RedisCache) {
		if b != nil {
			c.breaker = b
		}
	}
}

// NewRedisCache constructs a cache storing entries for ttl.
func NewRedisCache(client redis.Cmdable, ttl time.Duration, opts ...Option) *RedisCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	c := &RedisCache{
		client:  client,
		ttl:     ttl,
		breaker: circuit.New("certificate-cache"),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func certificateKey(ledger string, id models.TokenID) string {
	return certificateKeyPrefix + ledger + ":" + strconv.FormatUint(uint64(id), 10)
}

// Get returns the cached certificate, or false on a miss or any Redis error.
// An empty ledger always misses.
func (c *RedisCache) Get(ctx context.Context, ledger string, id models.TokenID) (*models.Certificate, bool) {
	if ledger == "" {
		return nil, false
	}
	raw, err := c.client.Get(ctx, certificateKey(ledger, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.recordSuccess(ctx)
		return nil, false
	}
	if err != nil {
		c.recordFailure(ctx, "get", err)
		return nil, false
	}
	c.recordSuccess(ctx)

	var entry certificateEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.logger.WarnContext(ctx, "discarding malformed cached certificate",
			"ledger", ledger,
			"token_id", uint64(id),
			"error", err,
		)
		return nil, false
	}
	cert := entry.certificate()
	return &cert, true
}

// Put stores certs in one pipeline. It is a no-op while the breaker is open.
func (c *RedisCache) Put(ctx context.Context, ledger string, certs ...models.Certificate) {
	if ledger == "" || len(certs) == 0 || c.breaker.IsOpen() {
		return
	}
	_, err := c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, cert := range certs {
			data, err := json.Marshal(toEntry(cert))
			if err != nil {
				return err
			}
			pipe.Set(ctx, certificateKey(ledger, cert.TokenID), data, c.ttl)
		}
		return nil
	})
	if err != nil {
		c.recordFailure(ctx, "put", err)
		return
	}
	c.recordSuccess(ctx)
}

func (c *RedisCache) recordFailure(ctx context.Context, op string, err error) {
	_, change := c.breaker.RecordFailure()
	if change.Opened {
		c.logger.WarnContext(ctx, "certificate cache circuit opened",
			"breaker", c.breaker.Name(),
			"op", op,
			"error", err,
		)
	}
}

func (c *RedisCache) recordSuccess(ctx context.Context) {
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "certificate cache circuit closed",
			"breaker", c.breaker.Name(),
		)
	}
}
