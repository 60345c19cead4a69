package cache

import (
	"context"
	"errors"
	"time"

	"newsbox-topics/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	runMarkerPrefix = "topics:last_run:"
	runMarkerTTL    = 90 * 24 * time.Hour
)

type RedisRunMarkerRepository struct {
	rdb *redis.Client
}

func NewRedisRunMarkerRepository(rdb *redis.Client) contract.RunMarkerRepository {
	return &RedisRunMarkerRepository{rdb: rdb}
}

func RunMarkerKey(userId uuid.UUID) string {
	return runMarkerPrefix + userId.String()
}

func (r *RedisRunMarkerRepository) LastRun(ctx context.Context, userId uuid.UUID) (time.Time, bool, error) {
	raw, err := r.rdb.Get(ctx, RunMarkerKey(userId)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		// unreadable marker behaves like a missing one
		return time.Time{}, false, nil
	}
	return t, true, nil
}

func (r *RedisRunMarkerRepository) MarkRun(ctx context.Context, userId uuid.UUID, at time.Time) error {
	return r.rdb.Set(ctx, RunMarkerKey(userId), at.UTC().Format(time.RFC3339Nano), runMarkerTTL).Err()
}
