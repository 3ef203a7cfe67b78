package docstore

import (
	"context"
	"fmt"
	"strings"

	"tenant-sync/core/storage"
)

// RemoteConfig selects and configures the remote backend.
type RemoteConfig struct {
	// Backend is one of s3, redis, postgres or memory.
	Backend string `mapstructure:"backend" default:"s3"`
	// RedisURL is used by the redis backend.
	RedisURL string `mapstructure:"redis_url" default:"redis://localhost:6379/0"`
	// PostgresURL is used by the postgres backend.
	PostgresURL string `mapstructure:"postgres_url" default:"postgres://localhost:5432/tenant_sync?sslmode=disable"`
	// KeyPrefix namespaces redis keys.
	KeyPrefix string `mapstructure:"key_prefix" default:"sync"`
}

// Remote is an opened remote backend with its provisioning and release hooks.
type Remote struct {
	Store   Store
	Backend string
	prepare func(ctx context.Context) error
	close   func() error
}

// Prepare provisions what the backend needs before first use: the bucket for
// s3, the documents table for postgres. It needs the backend to be reachable.
func (r *Remote) Prepare(ctx context.Context) error {
	if r == nil || r.prepare == nil {
		return nil
	}
	return r.prepare(ctx)
}

// Close releases backend resources.
func (r *Remote) Close() error {
	if r == nil || r.close == nil {
		return nil
	}
	return r.close()
}

// OpenRemote builds the configured remote backend without dialing it.
func OpenRemote(ctx context.Context, cfg RemoteConfig, objects storage.Config) (*Remote, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "s3":
		client, err := storage.NewClient(objects)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		return &Remote{
			Store:   NewObjectStore(client, objects.Bucket, objects.Prefix),
			Backend: "s3",
			prepare: func(ctx context.Context) error {
				return storage.EnsureBucket(ctx, client, objects.Bucket, objects.Region)
			},
		}, nil
	case "redis":
		client, err := NewRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		store := NewRedisStore(client, cfg.KeyPrefix)
		return &Remote{Store: store, Backend: "redis", close: store.Close}, nil
	case "postgres":
		pool, err := NewPostgresPool(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		store := NewPostgresStore(pool)
		return &Remote{Store: store, Backend: "postgres", prepare: store.EnsureSchema, close: store.Close}, nil
	case "memory":
		return &Remote{Store: NewMemoryStore(), Backend: "memory"}, nil
	default:
		return nil, fmt.Errorf("unsupported remote backend: %s", cfg.Backend)
	}
}
