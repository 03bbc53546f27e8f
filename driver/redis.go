package driver

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// RedisKV implements KeyValue on top of *redis.Client. Documents are stored
// as plain string values.
type RedisKV struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisKV wraps an existing go-redis client.
func NewRedisKV(c *redis.Client) *RedisKV { return &RedisKV{client: c} }

var _ KeyValue = (*RedisKV)(nil)

// WithTTL sets an expiry applied on Insert and Replace (0 keeps keys forever).
func (rk *RedisKV) WithTTL(ttl time.Duration) *RedisKV {
	rk.ttl = ttl
	return rk
}

func (rk *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	var out []byte
	err := rk.traced(ctx, "redis.get", key, func(ctx context.Context) error {
		b, err := rk.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrKeyNotFound
		}
		out = b
		return err
	})
	return out, err
}

// Insert fails with ErrKeyExists when key is already present (SET NX).
func (rk *RedisKV) Insert(ctx context.Context, key string, doc []byte) error {
	return rk.traced(ctx, "redis.insert", key, func(ctx context.Context) error {
		ok, err := rk.client.SetNX(ctx, key, doc, rk.ttl).Result()
		if err != nil {
			return err
		}
		if !ok {
			return ErrKeyExists
		}
		return nil
	})
}

// Replace fails with ErrKeyNotFound when key is absent (SET XX).
func (rk *RedisKV) Replace(ctx context.Context, key string, doc []byte) error {
	return rk.traced(ctx, "redis.replace", key, func(ctx context.Context) error {
		ok, err := rk.client.SetXX(ctx, key, doc, rk.ttl).Result()
		if err != nil {
			return err
		}
		if !ok {
			return ErrKeyNotFound
		}
		return nil
	})
}

func (rk *RedisKV) Remove(ctx context.Context, key string) error {
	return rk.traced(ctx, "redis.remove", key, func(ctx context.Context) error {
		n, err := rk.client.Del(ctx, key).Result()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrKeyNotFound
		}
		return nil
	})
}

// Close conveniently closes the underlying *redis.Client.
func (rk *RedisKV) Close() error { return rk.client.Close() }

// traced runs fn inside a span carrying the key and duration.
func (rk *RedisKV) traced(ctx context.Context, name, key string, fn func(context.Context) error) error {
	ctx, span := otel.Tracer("docquery.driver").Start(ctx, name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	span.SetAttributes(
		attribute.String("db.key", key),
		attribute.Float64("db.duration_ms", float64(elapsed.Milliseconds())),
	)
	if err != nil && !errors.Is(err, ErrKeyNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
