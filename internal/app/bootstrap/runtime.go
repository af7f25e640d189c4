// Package bootstrap builds the runtime collaborators shared by the API server
// and the CLI from configuration.
package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/chatbot-decision-core/internal/config"
	"github.com/wolfman30/chatbot-decision-core/internal/session"
	"github.com/wolfman30/chatbot-decision-core/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildPostgresPool connects to the lead score database. An empty URL or a
// failed ping returns nil; lead scores are optional.
func BuildPostgresPool(ctx context.Context, databaseURL string, logger *logging.Logger) *pgxpool.Pool {
	if strings.TrimSpace(databaseURL) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		logger.Warn("postgres pool init failed", "error", err)
		return nil
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Warn("postgres not available", "error", err)
		pool.Close()
		return nil
	}
	return pool
}

// Sessions groups the session collaborators handed to the decision engine.
type Sessions struct {
	Reader session.Reader
	Store  *session.RedisStore
}

// BuildSessions wires the Redis session hash and, when a database is
// available, the Postgres lead score fallback. Both are optional.
func BuildSessions(cfg *appconfig.Config, redisClient *redis.Client, scores session.Querier) Sessions {
	var out Sessions
	if redisClient != nil {
		out.Store = session.NewRedisStore(redisClient, cfg.SessionTTL)
	}

	var leadScores session.LeadScoreReader
	if scores != nil {
		leadScores = session.NewPostgresLeadScores(scores)
	}

	switch {
	case out.Store != nil:
		out.Reader = session.NewCombinedReader(out.Store, leadScores)
	case leadScores != nil:
		out.Reader = session.NewCombinedReader(emptySessions{}, leadScores)
	}
	return out
}

type emptySessions struct{}

func (emptySessions) Snapshot(context.Context, string) (session.Snapshot, error) {
	return session.Snapshot{}, nil
}
