package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Apurer/go-gin-meal-orders/internal/domains/directory/domain"
	"github.com/Apurer/go-gin-meal-orders/internal/domains/directory/ports"
)

// DefaultTTL bounds how long reference data may be served stale.
const DefaultTTL = 30 * time.Second

const keyPrefix = "directory"

// Cache entry kinds accepted by Invalidate.
const (
	KindEmployee   = "employee"
	KindShift      = "shift"
	KindDepartment = "department"
)

var _ ports.Directory = (*Directory)(nil)

// Directory is a cache-aside decorator over another directory. Redis
// failures are logged and the lookup falls through to the inner directory.
type Directory struct {
	inner  ports.Directory
	client goredis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

// Option customizes the cache.
type Option func(*Directory)

// WithTTL sets the entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(d *Directory) {
		if ttl > 0 {
			d.ttl = ttl
		}
	}
}

// WithLogger sets the logger used for cache failures.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Directory) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDirectory decorates inner with a Redis cache.
func NewDirectory(inner ports.Directory, client goredis.UniversalClient, opts ...Option) *Directory {
	d := &Directory{inner: inner, client: client, ttl: DefaultTTL, logger: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Directory) Employee(ctx context.Context, id int64) (*domain.Employee, error) {
	return cached(ctx, d, key(KindEmployee, id), func() (*domain.Employee, error) {
		return d.inner.Employee(ctx, id)
	})
}

func (d *Directory) Shift(ctx context.Context, id int64) (*domain.Shift, error) {
	return cached(ctx, d, key(KindShift, id), func() (*domain.Shift, error) {
		return d.inner.Shift(ctx, id)
	})
}

func (d *Directory) Department(ctx context.Context, id int64) (*domain.Department, error) {
	return cached(ctx, d, key(KindDepartment, id), func() (*domain.Department, error) {
		return d.inner.Department(ctx, id)
	})
}

// Invalidate drops the cached entries of an employee, shift or department.
func (d *Directory) Invalidate(ctx context.Context, kind string, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, key(kind, id))
	}
	return d.client.Del(ctx, keys...).Err()
}

func cached[T any](ctx context.Context, d *Directory, cacheKey string, load func() (*T, error)) (*T, error) {
	raw, err := d.client.Get(ctx, cacheKey).Bytes()
	switch {
	case err == nil:
		var value T
		if err := json.Unmarshal(raw, &value); err == nil {
			return &value, nil
		}
		d.logger.LogAttrs(ctx, slog.LevelWarn, "directory cache entry unreadable", slog.String("key", cacheKey))
	case !errors.Is(err, goredis.Nil):
		d.logger.LogAttrs(ctx, slog.LevelWarn, "directory cache read failed",
			slog.String("key", cacheKey), slog.String("error", err.Error()))
	}

	value, err := load()
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return value, nil
	}
	if err := d.client.Set(ctx, cacheKey, payload, d.ttl).Err(); err != nil {
		d.logger.LogAttrs(ctx, slog.LevelWarn, "directory cache write failed",
			slog.String("key", cacheKey), slog.String("error", err.Error()))
	}
	return value, nil
}

func key(kind string, id int64) string {
	return fmt.Sprintf("%s:%s:%d", keyPrefix, kind, id)
}
