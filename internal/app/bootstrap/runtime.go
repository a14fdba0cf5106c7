package bootstrap

import (
	"context"
	"crypto/tls"
	"database/sql"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/telehealth-portal/internal/config"
	"github.com/wolfman30/telehealth-portal/internal/auth"
	"github.com/wolfman30/telehealth-portal/internal/users"
	"github.com/wolfman30/telehealth-portal/pkg/logging"
)

const sessionTTL = 7 * 24 * time.Hour

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

// BuildSessionStore shares sessions through Redis when available so tabs
// served by different instances stay in sync; otherwise sessions are
// process-local.
func BuildSessionStore(redisClient *redis.Client, logger *logging.Logger) auth.SessionStore {
	if redisClient == nil {
		if logger != nil {
			logger.Warn("redis not configured; sessions are process-local")
		}
		return auth.NewMemorySessionStore()
	}
	return auth.NewRedisSessionStore(redisClient, sessionTTL, logger)
}

// ConnectPostgresPool returns nil when url is empty or unreachable.
func ConnectPostgresPool(ctx context.Context, url string, logger *logging.Logger) *pgxpool.Pool {
	if strings.TrimSpace(url) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		logger.Error("failed to connect postgres", "error", err)
		return nil
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Warn("postgres not reachable", "error", err)
		pool.Close()
		return nil
	}
	return pool
}

// OpenUsersDB opens the users table connection through lib/pq. It returns
// nil when url is empty.
func OpenUsersDB(url string, logger *logging.Logger) *sql.DB {
	if strings.TrimSpace(url) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	db, err := sql.Open("postgres", url)
	if err != nil {
		logger.Error("failed to open users database", "error", err)
		return nil
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db
}

// BuildUserStore falls back to memory when no database is configured.
func BuildUserStore(db *sql.DB, logger *logging.Logger) auth.UserStore {
	if db == nil {
		if logger != nil {
			logger.Warn("DATABASE_URL not set; users are kept in memory")
		}
		return users.NewInMemoryStore()
	}
	return users.NewStore(db)
}
