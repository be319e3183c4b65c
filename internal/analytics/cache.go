package analytics

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

func profileKey(studentID string) string  { return "analytics:profile:" + studentID }
func progressKey(studentID string) string { return "analytics:progress:" + studentID }

// cacheGet decodes a cached value into dst and reports whether it was found.
// Cache failures are logged and treated as misses.
func (s *service) cacheGet(ctx context.Context, span trace.Span, key string, dst any) bool {
	if s.cache == nil {
		return false
	}

	cached, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			span.RecordError(err)
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to read analytics cache")
		}
		s.metrics.CacheMissInc()
		return false
	}
	if err := json.Unmarshal([]byte(cached), dst); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("discarding malformed cache entry")
		s.metrics.CacheMissInc()
		return false
	}

	span.SetAttributes(attribute.Bool("analytics.cache_hit", true))
	s.metrics.CacheHitInc()
	s.logger.Debug().Str("key", key).Msg("analytics cache hit")
	return true
}

func (s *service) cachePut(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to encode cache entry")
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to store analytics cache")
	}
}

// invalidate drops every cached view derived from a student's records.
func (s *service) invalidate(ctx context.Context, studentID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, profileKey(studentID), progressKey(studentID)).Err(); err != nil {
		s.logger.Warn().Err(err).Str("student_id", studentID).Msg("failed to invalidate analytics cache")
	}
}
