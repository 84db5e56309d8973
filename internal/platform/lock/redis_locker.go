package lock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "lock:"

// releaseScript deletes the key only while it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a single-instance Redis lock (SET NX PX with a random token)
type RedisLocker struct {
	client        redis.UniversalClient
	ttl           time.Duration
	wait          time.Duration
	retryInterval time.Duration
	logger        *slog.Logger
}

func NewRedisLocker(client redis.UniversalClient, ttl, wait, retryInterval time.Duration, logger *slog.Logger) *RedisLocker {
	return &RedisLocker{
		client:        client,
		ttl:           ttl,
		wait:          wait,
		retryInterval: retryInterval,
		logger:        logger,
	}
}

// Lock blocks until key is acquired, the wait timeout passes, or ctx is done
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := keyPrefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			l.logger.Debug("Lock acquired", "key", key)
			return l.unlockFunc(redisKey, token), nil
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: %s held for longer than %s", ErrNotAcquired, key, l.wait)
		}

		timer := time.NewTimer(l.retryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *RedisLocker) unlockFunc(redisKey, token string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			// Release must run even if the caller's context was cancelled
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			released, err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Int()
			if err != nil {
				l.logger.Error("Failed to release lock", "key", redisKey, "error", err)
				return
			}
			if released == 0 {
				l.logger.Warn("Lock expired before release", "key", redisKey)
			}
		})
	}
}
