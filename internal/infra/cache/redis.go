package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"industry-mailer/internal/domain"
	"industry-mailer/internal/infra/metrics"
)

// Снимаем блокировку только если она всё ещё принадлежит нам.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker реализует domain.Locker через SET NX PX.
type RedisLocker struct {
	client *redis.Client
	prefix string
}

var _ domain.Locker = (*RedisLocker)(nil)

// NewRedis создаёт клиент Redis и проверяет соединение.
func NewRedis(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewRedisLocker создаёт блокировщик. Ключи получают префикс prefix.
func NewRedisLocker(client *redis.Client, prefix string) *RedisLocker {
	return &RedisLocker{client: client, prefix: prefix}
}

// TryLock пытается занять ключ на ttl.
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	token := uuid.NewString()
	fullKey := l.prefix + key

	start := time.Now()
	ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
	metrics.ObserveNetworkRequest("cache", "lock", "redis", start, err)
	if err != nil {
		return nil, false, fmt.Errorf("захват блокировки %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	unlock := func() {
		// контекст вызова мог уже истечь, а ключ нужно освободить
		unlockCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		start := time.Now()
		err := unlockScript.Run(unlockCtx, l.client, []string{fullKey}, token).Err()
		metrics.ObserveNetworkRequest("cache", "unlock", "redis", start, err)
	}
	return unlock, true, nil
}
