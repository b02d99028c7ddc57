package repository

import (
	"context"
	"time"

	redisapp "gallery_api/internal/storage/redis"
)

type RedisMessageRepo struct {
	Client *redisapp.Client
}

func NewRedisMessageRepo(client *redisapp.Client) *RedisMessageRepo {
	return &RedisMessageRepo{Client: client}
}

func (r *RedisMessageRepo) MarkProcessed(ctx context.Context, messageID string, ttl time.Duration) error {
	return r.Client.SetNX(ctx, processedMessageKey(messageID), "1", ttl).Err()
}

func (r *RedisMessageRepo) IsProcessed(ctx context.Context, messageID string) (bool, error) {
	n, err := r.Client.Exists(ctx, processedMessageKey(messageID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func processedMessageKey(messageID string) string {
	return "pubsub:processed:" + messageID
}
