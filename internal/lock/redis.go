package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if it still holds our token.
// KEYS[1] = lock key
// ARGV[1] = token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker shares per-key locks between processes through Redis. A held
// lock expires after TTL if its holder never releases it.
type RedisLocker struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	retry  time.Duration
	logger *slog.Logger
}

type RedisOption func(*RedisLocker)

func WithPrefix(p string) RedisOption { return func(l *RedisLocker) { l.prefix = p } }

func WithRetryInterval(d time.Duration) RedisOption { return func(l *RedisLocker) { l.retry = d } }

func WithLogger(logger *slog.Logger) RedisOption { return func(l *RedisLocker) { l.logger = logger } }

func NewRedisLocker(client redis.UniversalClient, ttl time.Duration, opts ...RedisOption) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	l := &RedisLocker{
		client: client,
		prefix: "focusquest:lock:",
		ttl:    ttl,
		retry:  25 * time.Millisecond,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewRedisClient builds the client used by RedisLocker.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	k := l.prefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()
	for {
		ok, err := l.client.SetNX(ctx, k, token, l.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("redis lock %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	// Release must run even when the caller's ctx is already cancelled.
	releaseCtx := context.WithoutCancel(ctx)
	released := false
	return func() {
		if released {
			return
		}
		released = true
		err := releaseScript.Run(releaseCtx, l.client, []string{k}, token).Err()
		if err != nil && !errors.Is(err, redis.Nil) {
			// The key still expires after ttl.
			l.logger.WarnContext(releaseCtx, "redis unlock failed", "key", key, "error", err)
		}
	}, nil
}
