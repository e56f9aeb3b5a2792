package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/creditledger/backend/internal/domain/shared"
	"github.com/creditledger/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ManagerFactory creates customer lock managers based on configuration
type ManagerFactory struct {
	redisConfig           config.RedisConfig
	lockConfig            config.LockConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// ManagerFactoryOption is a functional option for configuring the factory
type ManagerFactoryOption func(*ManagerFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) ManagerFactoryOption {
	return func(f *ManagerFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to in-process locks
// when Redis is unavailable. Default is true (allow fallback).
func WithInMemoryFallback(allow bool) ManagerFactoryOption {
	return func(f *ManagerFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewManagerFactory creates a new factory
func NewManagerFactory(redisCfg config.RedisConfig, lockCfg config.LockConfig, opts ...ManagerFactoryOption) *ManagerFactory {
	f := &ManagerFactory{
		redisConfig:           redisCfg,
		lockConfig:            lockCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisManager creates a Redis-based lock manager
func (f *ManagerFactory) CreateRedisManager() (shared.CustomerLockManager, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     f.redisConfig.Addr(),
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisLockManager(client, RedisLockConfig{
		TTL:           f.lockConfig.TTL,
		RetryInterval: f.lockConfig.RetryInterval,
	}), nil
}

// CreateInProcessManager creates an in-process lock manager.
// WARNING: in-process locks do not serialize mutations across instances.
func (f *ManagerFactory) CreateInProcessManager() shared.CustomerLockManager {
	return NewKeyedMutexManager()
}

// CreateManager creates a lock manager based on configuration. When Redis
// locking is requested but unreachable, it falls back to in-process locks
// if fallback is allowed.
func (f *ManagerFactory) CreateManager() (shared.CustomerLockManager, error) {
	if !f.lockConfig.UseRedis {
		f.logger.Info("using in-process customer locks")
		return f.CreateInProcessManager(), nil
	}

	manager, err := f.CreateRedisManager()
	if err == nil {
		f.logger.Info("using Redis customer locks")
		return manager, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for customer locks but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-process customer locks. "+
		"Concurrent mutations from other instances will not be serialized.",
		zap.Error(err),
	)
	return f.CreateInProcessManager(), nil
}
