// Package cache implementa cachés respaldadas por Redis.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/contablebot/portal-api/internal/application/ports"
	"github.com/contablebot/portal-api/internal/domain/plan"
)

const planKeyPrefix = "contablebot:firm_plan:"

var _ ports.PlanCache = (*RedisPlanCache)(nil)

// RedisPlanCache guarda la clave de plan de cada firma con TTL.
type RedisPlanCache struct {
	client *redis.Client
}

// Connect abre un cliente a partir de REDIS_URL y verifica la conexión.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("cache: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache: ping redis: %w", err)
	}
	return client, nil
}

// NewRedisPlanCache usa un cliente existente; el llamador lo cierra.
func NewRedisPlanCache(client *redis.Client) *RedisPlanCache {
	return &RedisPlanCache{client: client}
}

func planKey(firmID int64) string {
	return planKeyPrefix + strconv.FormatInt(firmID, 10)
}

// Get devuelve ok=false en un fallo de caché (miss) o si la clave guardada ya no existe en el catálogo.
func (c *RedisPlanCache) Get(ctx context.Context, firmID int64) (plan.Key, bool, error) {
	v, err := c.client.Get(ctx, planKey(firmID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache: get plan: %w", err)
	}
	k := plan.Key(v)
	if _, ok := plan.ByKey(k); !ok {
		return "", false, nil
	}
	return k, true, nil
}

// Set guarda la clave de plan con expiración.
func (c *RedisPlanCache) Set(ctx context.Context, firmID int64, key plan.Key, ttl time.Duration) error {
	if err := c.client.Set(ctx, planKey(firmID), string(key), ttl).Err(); err != nil {
		return fmt.Errorf("cache: set plan: %w", err)
	}
	return nil
}

// Invalidate borra la entrada de la firma (p. ej. tras un cambio de plan).
func (c *RedisPlanCache) Invalidate(ctx context.Context, firmID int64) error {
	if err := c.client.Del(ctx, planKey(firmID)).Err(); err != nil {
		return fmt.Errorf("cache: invalidate plan: %w", err)
	}
	return nil
}
