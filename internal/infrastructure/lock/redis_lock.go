package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/creditledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock key only if this holder still owns it.
// Deleting unconditionally could release a lock that expired and was
// re-acquired by another instance.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLockManager implements CustomerLockManager using Redis SETNX locks.
// This is suitable for distributed deployments where multiple instances
// mutate the same customers.
type RedisLockManager struct {
	client        *redis.Client
	keyPrefix     string
	ttl           time.Duration
	retryInterval time.Duration
}

// RedisLockConfig holds Redis lock settings
type RedisLockConfig struct {
	// TTL bounds how long a crashed holder can keep the lock
	TTL time.Duration
	// RetryInterval is how often a blocked acquirer polls
	RetryInterval time.Duration
}

// NewRedisLockManager creates a lock manager on an existing Redis client
func NewRedisLockManager(client *redis.Client, cfg RedisLockConfig) *RedisLockManager {
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 50 * time.Millisecond
	}
	return &RedisLockManager{
		client:        client,
		keyPrefix:     "customer:lock:",
		ttl:           cfg.TTL,
		retryInterval: cfg.RetryInterval,
	}
}

// Acquire polls SETNX until the customer's lock is held or the context is done
func (m *RedisLockManager) Acquire(ctx context.Context, customerID uuid.UUID) (func(), error) {
	key := m.keyPrefix + customerID.String()
	token := uuid.NewString()

	for {
		ok, err := m.client.SetNX(ctx, key, token, m.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire customer lock: %w", err)
		}
		if ok {
			release := func() {
				// Release must not inherit a cancelled request context
				releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = releaseScript.Run(releaseCtx, m.client, []string{key}, token).Err()
			}
			return release, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.retryInterval):
		}
	}
}

// Close closes the underlying Redis client
func (m *RedisLockManager) Close() error {
	return m.client.Close()
}

// Ensure RedisLockManager implements CustomerLockManager
var _ shared.CustomerLockManager = (*RedisLockManager)(nil)
