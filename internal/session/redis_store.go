package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const sessionKeyPrefix = "session:"

const (
	fieldLeadScore   = "lead_score"
	fieldSentiment   = "sentiment_score"
	fieldComplexity  = "complexity_score"
	fieldFrustration = "frustration_score"
	fieldLabel       = "sentiment_label"
	fieldFailures    = "failures"
)

var redisTracer = otel.Tracer("chatcore/session-store")

// RedisStore keeps one hash per session and refreshes its TTL on writes.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed session store. A zero ttl keeps
// sessions until deleted.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if client == nil {
		panic("session: redis client cannot be nil")
	}
	return &RedisStore{client: client, ttl: ttl}
}

// Snapshot reads the session hash.
func (s *RedisStore) Snapshot(ctx context.Context, sessionID string) (Snapshot, error) {
	ctx, span := redisTracer.Start(ctx, "session.snapshot")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", sessionID))

	values, err := s.client.HGetAll(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		span.RecordError(err)
		return Snapshot{}, fmt.Errorf("session: load %s: %w", sessionID, err)
	}

	var snap Snapshot
	for field, dst := range map[string]**float64{
		fieldLeadScore:   &snap.LeadScore,
		fieldSentiment:   &snap.SentimentScore,
		fieldComplexity:  &snap.ComplexityScore,
		fieldFrustration: &snap.FrustrationScore,
	} {
		raw, ok := values[field]
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Snapshot{}, fmt.Errorf("session: parse %s: %w", field, err)
		}
		*dst = &v
	}
	snap.SentimentLabel = values[fieldLabel]
	if raw, ok := values[fieldFailures]; ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Snapshot{}, fmt.Errorf("session: parse %s: %w", fieldFailures, err)
		}
		snap.FailureCount = n
	}
	return snap, nil
}

// SetLeadScore stores the latest lead score.
func (s *RedisStore) SetLeadScore(ctx context.Context, sessionID string, score float64) error {
	return s.set(ctx, sessionID, fieldLeadScore, strconv.FormatFloat(score, 'f', -1, 64))
}

// RecordSignals stores whichever analyzer scores are present.
func (s *RedisStore) RecordSignals(ctx context.Context, sessionID string, sentiment, complexity, frustration *float64) error {
	fields := make(map[string]interface{})
	for field, v := range map[string]*float64{
		fieldSentiment:   sentiment,
		fieldComplexity:  complexity,
		fieldFrustration: frustration,
	} {
		if v != nil {
			fields[field] = strconv.FormatFloat(*v, 'f', -1, 64)
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return s.write(ctx, sessionID, func(pipe redis.Pipeliner, key string) {
		pipe.HSet(ctx, key, fields)
	})
}

// SetSentimentLabel stores the coarse sentiment label (positive, neutral, negative).
func (s *RedisStore) SetSentimentLabel(ctx context.Context, sessionID, label string) error {
	return s.set(ctx, sessionID, fieldLabel, label)
}

// RecordFailure increments the provider failure count and returns the new value.
func (s *RedisStore) RecordFailure(ctx context.Context, sessionID string) (int, error) {
	var incr *redis.IntCmd
	err := s.write(ctx, sessionID, func(pipe redis.Pipeliner, key string) {
		incr = pipe.HIncrBy(ctx, key, fieldFailures, 1)
	})
	if err != nil {
		return 0, err
	}
	return int(incr.Val()), nil
}

// ResetFailures clears the failure count after a successful generation.
func (s *RedisStore) ResetFailures(ctx context.Context, sessionID string) error {
	if err := s.client.HDel(ctx, sessionKey(sessionID), fieldFailures).Err(); err != nil {
		return fmt.Errorf("session: reset failures: %w", err)
	}
	return nil
}

func (s *RedisStore) set(ctx context.Context, sessionID, field, value string) error {
	return s.write(ctx, sessionID, func(pipe redis.Pipeliner, key string) {
		pipe.HSet(ctx, key, field, value)
	})
}

func (s *RedisStore) write(ctx context.Context, sessionID string, fn func(pipe redis.Pipeliner, key string)) error {
	key := sessionKey(sessionID)
	pipe := s.client.TxPipeline()
	fn(pipe, key)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("session: write %s: %w", sessionID, err)
	}
	return nil
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}
