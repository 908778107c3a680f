package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/utafrali/shopstate/internal/storage"
	"github.com/utafrali/shopstate/internal/storage/file"
	"github.com/utafrali/shopstate/internal/storage/memory"
	"github.com/utafrali/shopstate/internal/storage/postgres"
	redisstore "github.com/utafrali/shopstate/internal/storage/redis"
	"github.com/utafrali/shopstate/pkg/database"
)

// BackendOptions tunes the backend built from a DSN.
type BackendOptions struct {
	// TTL applies to backends that expire keys (redis).
	TTL time.Duration
	// Registerer receives connection pool metrics; nil skips registration.
	Registerer prometheus.Registerer
}

// Backend is a durable backend plus the function that releases it.
type Backend struct {
	storage.Backend
	Scheme string
	Close  func() error
}

func noopClose() error { return nil }

// BuildBackend opens the backend named by dsn. Supported schemes are memory,
// file, redis/rediss and postgres/postgresql.
func BuildBackend(ctx context.Context, dsn string, opts BackendOptions, logger *slog.Logger) (*Backend, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse storage dsn: %w", err)
	}
	scheme := strings.ToLower(u.Scheme)

	switch scheme {
	case "memory":
		return &Backend{Backend: memory.New(), Scheme: scheme, Close: noopClose}, nil

	case "file":
		path := filePath(u)
		if path == "" {
			return nil, fmt.Errorf("file storage dsn has no path: %q", dsn)
		}
		b, err := file.New(path)
		if err != nil {
			return nil, fmt.Errorf("open file storage: %w", err)
		}
		logger.Info("using file storage", slog.String("path", path))
		return &Backend{Backend: b, Scheme: scheme, Close: noopClose}, nil

	case "redis", "rediss":
		client, err := database.NewRedisClientFromURL(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("connected to Redis", slog.String("addr", client.Options().Addr), slog.Int("db", client.Options().DB))
		return &Backend{Backend: redisstore.New(client, opts.TTL), Scheme: scheme, Close: client.Close}, nil

	case "postgres", "postgresql":
		pool, err := database.NewPostgresPool(ctx, database.DefaultPostgresConfig(dsn), logger)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if opts.Registerer != nil {
			if err := database.RegisterPoolMetrics(opts.Registerer, pool, "shopstate"); err != nil {
				logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
			}
		}
		b := postgres.New(pool)
		if err := b.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ensure postgres schema: %w", err)
		}
		logger.Info("connected to PostgreSQL")
		return &Backend{Backend: b, Scheme: scheme, Close: func() error { pool.Close(); return nil }}, nil

	default:
		return nil, fmt.Errorf("unsupported storage scheme %q", u.Scheme)
	}
}

// filePath accepts file:///abs/path, file://relative/path and file:relative.
func filePath(u *url.URL) string {
	switch {
	case u.Opaque != "":
		return u.Opaque
	case u.Host != "":
		return u.Host + u.Path
	default:
		return u.Path
	}
}
