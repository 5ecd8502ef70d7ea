// Package cache хранит рекомендательные результаты поиска доступности в Redis.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL задаёт время жизни записи кэша.
const DefaultTTL = 30 * time.Second

const defaultPrefix = "hotel:availability"

// RedisCache хранит ответы поиска под текущим поколением. Invalidate увеличивает
// поколение, и все прежние записи перестают читаться, а затем истекают по TTL.
type RedisCache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache создаёт кэш поверх клиента Redis.
func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{rdb: rdb, prefix: defaultPrefix, ttl: ttl}
}

// NewRedisClient подключается к Redis и проверяет соединение.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

func (c *RedisCache) generationKey() string {
	return c.prefix + ":gen"
}

func (c *RedisCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.rdb.Get(ctx, c.generationKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get generation: %w", err)
	}
	return gen, nil
}

func (c *RedisCache) entryKey(gen int64, key string) string {
	return c.prefix + ":" + strconv.FormatInt(gen, 10) + ":" + key
}

// Load читает запись в dst и возвращает поколение, под которым искал. Это поколение
// передаётся в Store, чтобы результат, прочитанный до Invalidate, не попал в новое поколение.
func (c *RedisCache) Load(ctx context.Context, key string, dst any) (int64, bool, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return 0, false, err
	}

	data, err := c.rdb.Get(ctx, c.entryKey(gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return gen, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return 0, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return gen, true, nil
}

// Store сохраняет запись под поколением gen, полученным из Load.
func (c *RedisCache) Store(ctx context.Context, gen int64, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	if err := c.rdb.Set(ctx, c.entryKey(gen, key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Invalidate делает все записи недоступными.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	if err := c.rdb.Incr(ctx, c.generationKey()).Err(); err != nil {
		return fmt.Errorf("bump generation: %w", err)
	}
	return nil
}
