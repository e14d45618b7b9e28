package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"pulse/internal/middleware"
	"pulse/internal/observability"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// GetJSON reads key and decodes it into dest. It reports false without an
// error on a miss or when Redis is not configured.
func GetJSON(ctx context.Context, key string, dest any) (found bool, err error) {
	if client == nil {
		return false, nil
	}
	ctx, span := observability.TraceRedisOperation(ctx, "get")
	defer func() { endRedisSpan(span, "get", err) }()

	raw, err := client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON stores v under key as JSON with ttl.
func SetJSON(ctx context.Context, key string, v any, ttl time.Duration) (err error) {
	if client == nil {
		return nil
	}
	ctx, span := observability.TraceRedisOperation(ctx, "set")
	defer func() { endRedisSpan(span, "set", err) }()

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, b, ttl).Err()
}

func endRedisSpan(span trace.Span, op string, err error) {
	if err != nil {
		middleware.RedisErrors.WithLabelValues(op).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Aside tries Redis first; on a miss (or an unreadable entry) it calls fetch,
// which must populate dest, then stores dest with ttl. Cache failures never
// fail the read.
func Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	if found, err := GetJSON(ctx, key, dest); err == nil && found {
		return nil
	}

	if err := fetch(); err != nil {
		return err
	}

	_ = SetJSON(ctx, key, dest, ttl)
	return nil
}
