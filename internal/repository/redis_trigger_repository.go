package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type redisTriggerRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisTriggerRepository creates a Redis-backed TriggerRepository. The
// cooldown marker is a SET NX with TTL: the first trigger attempt within the
// window wins, later attempts see the key and back off.
func NewRedisTriggerRepository(client *redis.Client, logger *zap.Logger) TriggerRepository {
	return &redisTriggerRepository{client: client, logger: logger.Named("RedisTriggerRepo")}
}

var _ TriggerRepository = (*redisTriggerRepository)(nil)

func cooldownKey(orderID uuid.UUID) string {
	return fmt.Sprintf("generation:cooldown:%s", orderID)
}

func (r *redisTriggerRepository) AcquireCooldown(ctx context.Context, orderID uuid.UUID, window time.Duration) (bool, error) {
	key := cooldownKey(orderID)
	acquired, err := r.client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), window).Result()
	if err != nil {
		return false, fmt.Errorf("failed to set cooldown marker %s: %w", key, err)
	}
	if !acquired {
		r.logger.Debug("Cooldown marker already present",
			zap.Stringer("orderID", orderID),
			zap.Duration("window", window),
		)
	}
	return acquired, nil
}
