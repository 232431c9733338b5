package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/location-lookup/internal/domain"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const resolutionKeyPrefix = "loc:res:"

// RedisStore - второй уровень кеша разрешений, общий для всех инстансов сервиса
type RedisStore struct {
	client redis.Cmdable
	logger *zap.Logger
}

func NewRedisStore(redis *Redis) *RedisStore {
	return &RedisStore{
		client: redis.Client(),
		logger: redis.logger,
	}
}

// NewRedisStoreWithClient - для тестов и для переиспользования существующего клиента
func NewRedisStoreWithClient(client redis.Cmdable, logger *zap.Logger) *RedisStore {
	return &RedisStore{client: client, logger: logger}
}

func resolutionKey(fp domain.Fingerprint) string {
	return resolutionKeyPrefix + fp.Hex()
}

// Get читает запись; (nil, nil) при промахе. Запись с чужим каноническим ключом
// (коллизия хеша) считается промахом.
func (r *RedisStore) Get(ctx context.Context, fp domain.Fingerprint) (*domain.CacheEntry, error) {
	key := resolutionKey(fp)
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil // Cache miss
	}
	if err != nil {
		r.logger.Error("Failed to get from cache", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("cache get error: %w", err)
	}

	var entry domain.CacheEntry
	if err := json.Unmarshal(val, &entry); err != nil {
		r.logger.Warn("Failed to unmarshal cached resolution", zap.String("key", key), zap.Error(err))
		return nil, nil
	}
	if entry.Fingerprint.Key != fp.Key {
		r.logger.Warn("Fingerprint collision in cache", zap.String("key", key))
		return nil, nil
	}

	r.logger.Debug("Cache hit", zap.String("key", key))
	return &entry, nil
}

// Set сохраняет запись с TTL; TTL хранится и в самой записи для пересчёта остатка
func (r *RedisStore) Set(ctx context.Context, entry *domain.CacheEntry) error {
	key := resolutionKey(entry.Fingerprint)
	data, err := json.Marshal(entry)
	if err != nil {
		r.logger.Error("Failed to marshal resolution", zap.Error(err))
		return fmt.Errorf("marshal resolution: %w", err)
	}

	if err := r.client.Set(ctx, key, data, entry.TTL).Err(); err != nil {
		r.logger.Error("Failed to set cache", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache set error: %w", err)
	}

	r.logger.Debug("Cache set", zap.String("key", key), zap.Duration("ttl", entry.TTL))
	return nil
}

// Delete удаляет запись
func (r *RedisStore) Delete(ctx context.Context, fp domain.Fingerprint) error {
	key := resolutionKey(fp)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.logger.Error("Failed to delete from cache", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache delete error: %w", err)
	}
	return nil
}
