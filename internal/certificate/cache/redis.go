package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"sacra360/internal/certificate/models"
)

const (
	keyPrefix  = "sacra360:certificado:"
	DefaultTTL = 10 * time.Minute
)

// RedisCache stores assembled certificates as JSON under a per-sacrament key.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	hits   prometheus.Counter
	misses prometheus.Counter
}

type Option func(*RedisCache)

// WithTTL overrides DefaultTTL. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(c *RedisCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// NewRedis registers the hit and miss counters on reg.
func NewRedis(client *redis.Client, reg prometheus.Registerer, opts ...Option) *RedisCache {
	f := promauto.With(reg)
	c := &RedisCache{
		client: client,
		ttl:    DefaultTTL,
		hits: f.NewCounter(prometheus.CounterOpts{
			Name: "sacra360_certificate_cache_hits_total",
			Help: "Certificates served from the cache",
		}),
		misses: f.NewCounter(prometheus.CounterOpts{
			Name: "sacra360_certificate_cache_misses_total",
			Help: "Certificate lookups that had to be assembled",
		}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func key(sacramentoID int64) string {
	return keyPrefix + strconv.FormatInt(sacramentoID, 10)
}

// Get returns the cached certificate, or (nil, false, nil) on a miss.
func (c *RedisCache) Get(ctx context.Context, sacramentoID int64) (*models.Certificate, bool, error) {
	raw, err := c.client.Get(ctx, key(sacramentoID)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.misses.Inc()
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cached certificate: %w", err)
	}
	var cert models.Certificate
	if err := json.Unmarshal(raw, &cert); err != nil {
		c.misses.Inc()
		return nil, false, fmt.Errorf("decode cached certificate: %w", err)
	}
	c.hits.Inc()
	return &cert, true, nil
}

func (c *RedisCache) Set(ctx context.Context, cert *models.Certificate) error {
	raw, err := json.Marshal(cert)
	if err != nil {
		return fmt.Errorf("encode certificate: %w", err)
	}
	if err := c.client.Set(ctx, key(cert.SacramentoID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache certificate: %w", err)
	}
	return nil
}

// Invalidate drops the cached certificate of the sacrament, if any.
func (c *RedisCache) Invalidate(ctx context.Context, sacramentoID int64) error {
	if err := c.client.Del(ctx, key(sacramentoID)).Err(); err != nil {
		return fmt.Errorf("invalidate certificate: %w", err)
	}
	return nil
}
