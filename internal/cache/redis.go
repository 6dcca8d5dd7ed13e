package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/retail-orders/internal/domain"
)

// RedisCache — инвалидация кэша товаров поверх Redis.
// Ядру важен только контракт удаления по шаблону: содержимое кэша
// наполняет читающая сторона, здесь оно только выселяется.
type RedisCache struct {
	client *redis.Client
	logger *log.Entry
}

// NewRedisCache создаёт обёртку над существующим клиентом Redis.
func NewRedisCache(client *redis.Client, logger *log.Entry) *RedisCache {
	if logger == nil {
		logger = log.WithField("component", "product-cache")
	}
	return &RedisCache{client: client, logger: logger}
}

// DeletePattern удаляет все ключи по шаблону через SCAN + DEL.
// KEYS намеренно не используется, чтобы не блокировать Redis.
func (c *RedisCache) DeletePattern(ctx context.Context, pattern string) error {
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()

	deleted := 0
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("delete cache key %s: %w", iter.Val(), err)
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan cache keys %s: %w", pattern, err)
	}

	c.logger.WithFields(log.Fields{
		"pattern": pattern,
		"deleted": deleted,
	}).Debug("cache keys evicted")
	return nil
}

// Ping проверяет доступность Redis (для health check).
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

var _ domain.ProductCache = (*RedisCache)(nil)
