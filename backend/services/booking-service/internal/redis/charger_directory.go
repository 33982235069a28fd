package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"chargebook/backend/services/booking-service/internal/scheduling"
)

// Cache is the subset of redis commands the directory uses; *redis.Client satisfies it.
type Cache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// ChargerDirectory is a read-through cache of charger existence in front of the database.
// Redis failures fall back to the source; the cache never decides on its own.
type ChargerDirectory struct {
	client Cache
	source scheduling.ChargerDirectory
	ttl    time.Duration
	logger *zap.Logger
}

// NewChargerDirectory returns cached directory.
func NewChargerDirectory(client Cache, source scheduling.ChargerDirectory, ttl time.Duration, logger *zap.Logger) *ChargerDirectory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChargerDirectory{client: client, source: source, ttl: ttl, logger: logger}
}

func (d *ChargerDirectory) key(chargerID int64) string {
	return fmt.Sprintf("chargers:exists:%d", chargerID)
}

// Exists implements scheduling.ChargerDirectory.
func (d *ChargerDirectory) Exists(ctx context.Context, chargerID int64) (bool, error) {
	cached, err := d.client.Get(ctx, d.key(chargerID)).Result()
	switch {
	case err == nil:
		return cached == "1", nil
	case !errors.Is(err, redis.Nil):
		d.logger.Warn("charger cache read failed", zap.Int64("charger_id", chargerID), zap.Error(err))
	}

	exists, err := d.source.Exists(ctx, chargerID)
	if err != nil {
		return false, err
	}
	value := "0"
	if exists {
		value = "1"
	}
	if err := d.client.Set(ctx, d.key(chargerID), value, d.ttl).Err(); err != nil {
		d.logger.Warn("charger cache write failed", zap.Int64("charger_id", chargerID), zap.Error(err))
	}
	return exists, nil
}

// Invalidate drops the cached answer for chargerID.
func (d *ChargerDirectory) Invalidate(ctx context.Context, chargerID int64) error {
	return d.client.Del(ctx, d.key(chargerID)).Err()
}
