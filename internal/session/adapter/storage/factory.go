package storage

import (
	"context"
	"fmt"
	"time"

	"roster-console/internal/session/config"
	"roster-console/internal/session/domain/repository"
	"roster-console/internal/shared/logger"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CloseFunc releases backend resources
type CloseFunc func(ctx context.Context) error

// OpenDurable connects the durable backend selected by cfg.DurableBackend
func OpenDurable(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.Storage, CloseFunc, error) {
	log = log.WithComponent("session-storage")

	switch cfg.DurableBackend {
	case config.BackendRedis:
		client := NewRedisClient(cfg)
		store := NewRedisStorage(client, cfg.KeyPrefix)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		log.Infof("durable session storage: redis at %s", cfg.RedisAddr)
		return store, func(context.Context) error { return client.Close() }, nil

	case config.BackendMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to mongodb: %w", err)
		}
		if err := client.Ping(connectCtx, nil); err != nil {
			_ = client.Disconnect(ctx)
			return nil, nil, fmt.Errorf("failed to ping mongodb: %w", err)
		}
		store, err := NewMongoStorage(connectCtx, client.Database(cfg.MongoDatabase), cfg.MongoCollection)
		if err != nil {
			_ = client.Disconnect(ctx)
			return nil, nil, err
		}
		log.Infof("durable session storage: mongodb %s.%s", cfg.MongoDatabase, cfg.MongoCollection)
		return prefixed(store, cfg.KeyPrefix), client.Disconnect, nil

	default:
		log.Warn("durable session storage is in-memory; remembered sessions will not survive a restart")
		return prefixed(NewMemoryStorage(), cfg.KeyPrefix), func(context.Context) error { return nil }, nil
	}
}

// prefixedStorage namespaces keys of an underlying store
type prefixedStorage struct {
	inner  repository.Storage
	prefix string
}

func prefixed(inner repository.Storage, prefix string) repository.Storage {
	if prefix == "" {
		return inner
	}
	return &prefixedStorage{inner: inner, prefix: prefix}
}

func (p *prefixedStorage) Get(ctx context.Context, key string) (string, bool, error) {
	return p.inner.Get(ctx, p.prefix+key)
}

func (p *prefixedStorage) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return p.inner.Set(ctx, p.prefix+key, value, ttl)
}

func (p *prefixedStorage) Delete(ctx context.Context, keys ...string) error {
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = p.prefix + k
	}
	return p.inner.Delete(ctx, full...)
}
