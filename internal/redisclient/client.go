package redisclient

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Client wraps a Redis client with OpenTelemetry tracing. The identity
// service keeps verification codes, verified markers and send-code rate
// limits in Redis, so every command is traced with its key and duration.
type Client struct {
	cmdable redis.Cmdable
}

// NewClient creates a new traced Redis client for a single Redis instance
func NewClient(client *redis.Client) *Client {
	return &Client{cmdable: client}
}

// NewClusterClient creates a new traced Redis client for a Redis cluster
func NewClusterClient(client *redis.ClusterClient) *Client {
	return &Client{cmdable: client}
}

func startSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span, time.Time) {
	base := []attribute.KeyValue{
		attribute.String("redis.operation", operation),
		attribute.String("redis.client", "identity"),
	}
	ctx, span := otel.Tracer("redis").Start(ctx, "redis."+operation,
		trace.WithAttributes(append(base, attrs...)...),
	)
	return ctx, span, time.Now()
}

func endSpan(span trace.Span, start time.Time, err error) {
	if err != nil && err != redis.Nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "success")
	}
	span.SetAttributes(attribute.Int64("redis.duration_ms", time.Since(start).Milliseconds()))
	span.End()
}

// Get wraps Redis GET with tracing
func (c *Client) Get(ctx context.Context, key string) *redis.StringCmd {
	ctx, span, start := startSpan(ctx, "get", attribute.String("redis.key", key))
	cmd := c.cmdable.Get(ctx, key)
	endSpan(span, start, cmd.Err())
	return cmd
}

// Set wraps Redis SET with tracing
func (c *Client) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	ctx, span, start := startSpan(ctx, "set",
		attribute.String("redis.key", key),
		attribute.String("redis.expiration", expiration.String()),
	)
	cmd := c.cmdable.Set(ctx, key, value, expiration)
	endSpan(span, start, cmd.Err())
	return cmd
}

// SetNX wraps Redis SETNX with tracing
func (c *Client) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	ctx, span, start := startSpan(ctx, "setnx",
		attribute.String("redis.key", key),
		attribute.String("redis.expiration", expiration.String()),
	)
	cmd := c.cmdable.SetNX(ctx, key, value, expiration)
	endSpan(span, start, cmd.Err())
	return cmd
}

// Del wraps Redis DEL with tracing
func (c *Client) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	ctx, span, start := startSpan(ctx, "del",
		attribute.StringSlice("redis.keys", keys),
		attribute.Int("redis.key_count", len(keys)),
	)
	cmd := c.cmdable.Del(ctx, keys...)
	endSpan(span, start, cmd.Err())
	return cmd
}

// Incr wraps Redis INCR with tracing
func (c *Client) Incr(ctx context.Context, key string) *redis.IntCmd {
	ctx, span, start := startSpan(ctx, "incr", attribute.String("redis.key", key))
	cmd := c.cmdable.Incr(ctx, key)
	endSpan(span, start, cmd.Err())
	return cmd
}

// Expire wraps Redis EXPIRE with tracing
func (c *Client) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	ctx, span, start := startSpan(ctx, "expire",
		attribute.String("redis.key", key),
		attribute.String("redis.expiration", expiration.String()),
	)
	cmd := c.cmdable.Expire(ctx, key, expiration)
	endSpan(span, start, cmd.Err())
	return cmd
}

// TTL wraps Redis TTL with tracing
func (c *Client) TTL(ctx context.Context, key string) *redis.DurationCmd {
	ctx, span, start := startSpan(ctx, "ttl", attribute.String("redis.key", key))
	cmd := c.cmdable.TTL(ctx, key)
	endSpan(span, start, cmd.Err())
	return cmd
}

// Ping wraps Redis PING with tracing
func (c *Client) Ping(ctx context.Context) *redis.StatusCmd {
	ctx, span, start := startSpan(ctx, "ping")
	cmd := c.cmdable.Ping(ctx)
	endSpan(span, start, cmd.Err())
	return cmd
}

// Pipeline exposes the underlying pipeliner
func (c *Client) Pipeline() redis.Pipeliner {
	return c.cmdable.Pipeline()
}

// PoolStats returns connection pool statistics when available
func (c *Client) PoolStats() *redis.PoolStats {
	if singleClient, ok := c.cmdable.(*redis.Client); ok {
		return singleClient.PoolStats()
	}
	if clusterClient, ok := c.cmdable.(*redis.ClusterClient); ok {
		return clusterClient.PoolStats()
	}
	return &redis.PoolStats{}
}
