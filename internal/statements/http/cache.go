package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const defaultReportTTL = 5 * time.Minute

// ReportCache keeps rendered report view models in Redis. A nil cache is
// valid and passes every lookup through. Concurrent requests for the same
// key share one build via singleflight.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

func NewReportCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *ReportCache {
	if ttl <= 0 {
		ttl = defaultReportTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportCache{client: client, ttl: ttl, logger: logger}
}

// getOrBuild returns the cached view model for key, building and storing
// it on a miss. The build is deduplicated across concurrent callers.
func getOrBuild[T any](ctx context.Context, c *ReportCache, key string, build func(context.Context) (T, error)) (T, error) {
	var zero T
	if c == nil || c.client == nil {
		return build(ctx)
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var cached T
		if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
			return cached, nil
		}
		// stale or corrupt payload, rebuild below
		c.client.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("report cache unavailable", slog.String("key", key), slog.Any("error", err))
		return build(ctx)
	}

	resultChan := c.group.DoChan(key, func() (any, error) {
		value, err := build(ctx)
		if err != nil {
			return zero, err
		}
		payload, err := json.Marshal(value)
		if err != nil {
			return zero, fmt.Errorf("reports: encode cache payload: %w", err)
		}
		if setErr := c.client.Set(ctx, key, payload, c.ttl).Err(); setErr != nil {
			c.logger.Warn("report cache write failed", slog.String("key", key), slog.Any("error", setErr))
		}
		return value, nil
	})
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return zero, res.Err
		}
		value, ok := res.Val.(T)
		if !ok {
			return zero, fmt.Errorf("reports: unexpected cache value type %T", res.Val)
		}
		return value, nil
	}
}

// Bust drops every cached report. Called after postings mutate the
// journal.
func (c *ReportCache) Bust(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	iter := c.client.Scan(ctx, 0, "reports:*", 0).Iterator()
	for iter.Next(ctx) {
		c.client.Del(ctx, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("report cache bust failed", slog.Any("error", err))
	}
}

func cacheKey(report string, parts ...string) string {
	key := "reports:" + report
	for _, part := range parts {
		key += ":" + part
	}
	return key
}
