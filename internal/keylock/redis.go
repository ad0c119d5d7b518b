package keylock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// releaseScript deletes the key only while it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisConfig tunes lock acquisition
type RedisConfig struct {
	Prefix        string
	TTL           time.Duration
	MaxRetries    int
	RetryInterval time.Duration
}

// RedisLocker shares locks between API instances through SET NX with a TTL
type RedisLocker struct {
	client redis.UniversalClient
	cfg    RedisConfig
	logger *zap.Logger
}

func NewRedisLocker(client redis.UniversalClient, cfg RedisConfig, logger *zap.Logger) *RedisLocker {
	if cfg.Prefix == "" {
		cfg.Prefix = "lock:procurement:"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 50
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 100 * time.Millisecond
	}
	return &RedisLocker{client: client, cfg: cfg, logger: logger}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := l.cfg.Prefix + key
	token := uuid.New().String()

	for attempt := 0; attempt < l.cfg.MaxRetries; attempt++ {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.cfg.TTL).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %s: %w", ErrLockTimeout, key, ctx.Err())
			}
			l.logger.Error("failed to acquire lock", zap.String("key", redisKey), zap.Error(err))
		}
		if ok {
			return l.unlocker(redisKey, token), nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %w", ErrLockTimeout, key, ctx.Err())
		case <-time.After(l.cfg.RetryInterval):
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrLockTimeout, key)
}

func (l *RedisLocker) unlocker(redisKey, token string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			// The caller's context may already be done; release on a short fresh deadline
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Err(); err != nil {
				l.logger.Warn("failed to release lock", zap.String("key", redisKey), zap.Error(err))
			}
		})
	}
}
