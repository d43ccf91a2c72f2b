package replay

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"attendance-qr-backend/internal/model"
)

const redisKeyPrefix = "qr:used:"

// redisGuard backs the guard with Redis SETNX + TTL. Deployments with
// several scanner instances use it as a fast distributed pre-filter in
// front of the transactional arbiter; the key expiry doubles as the reaper.
type redisGuard struct {
	client *redis.Client
}

// NewRedisGuard returns a guard over the given Redis client.
func NewRedisGuard(client *redis.Client) Guard {
	return &redisGuard{client: client}
}

func (g *redisGuard) IsUsed(ctx context.Context, token string) (bool, error) {
	n, err := g.client.Exists(ctx, redisKeyPrefix+token).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

func (g *redisGuard) MarkUsed(ctx context.Context, rec model.UsedToken) error {
	ttl := time.Until(rec.ExpiresAt)
	if ttl <= 0 {
		ttl = TTL
	}
	ok, err := g.client.SetNX(ctx, redisKeyPrefix+rec.Token, rec.ConsumerID, ttl).Result()
	if err != nil {
		return fmt.Errorf("redis setnx: %w", err)
	}
	if !ok {
		return ErrAlreadyUsed
	}
	return nil
}
