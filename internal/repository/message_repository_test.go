package repository_test

import (
	"context"
	"testing"
	"time"

	"gallery_api/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestRedisMessageRepo_MarkProcessed(t *testing.T) {
	ctx := context.Background()
	client, mock := NewMockClient()
	repo := repository.NewRedisMessageRepo(client)
	ttl := 24 * time.Hour

	t.Run("successful mark", func(t *testing.T) {
		mock.ExpectSetNX("pubsub:processed:msg-1", "1", ttl).SetVal(true)
		err := repo.MarkProcessed(ctx, "msg-1", ttl)
		assert.NoError(t, err)
	})

	t.Run("already marked", func(t *testing.T) {
		mock.ExpectSetNX("pubsub:processed:msg-1", "1", ttl).SetVal(false)
		err := repo.MarkProcessed(ctx, "msg-1", ttl)
		assert.NoError(t, err)
	})

	t.Run("redis error", func(t *testing.T) {
		mock.ExpectSetNX("pubsub:processed:msg-1", "1", ttl).SetErr(redis.ErrClosed)
		err := repo.MarkProcessed(ctx, "msg-1", ttl)
		assert.ErrorIs(t, err, redis.ErrClosed)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisMessageRepo_IsProcessed(t *testing.T) {
	ctx := context.Background()
	client, mock := NewMockClient()
	repo := repository.NewRedisMessageRepo(client)

	t.Run("seen", func(t *testing.T) {
		mock.ExpectExists("pubsub:processed:msg-1").SetVal(1)
		seen, err := repo.IsProcessed(ctx, "msg-1")
		assert.NoError(t, err)
		assert.True(t, seen)
	})

	t.Run("not seen", func(t *testing.T) {
		mock.ExpectExists("pubsub:processed:msg-2").SetVal(0)
		seen, err := repo.IsProcessed(ctx, "msg-2")
		assert.NoError(t, err)
		assert.False(t, seen)
	})

	t.Run("redis error", func(t *testing.T) {
		mock.ExpectExists("pubsub:processed:msg-3").SetErr(redis.ErrClosed)
		_, err := repo.IsProcessed(ctx, "msg-3")
		assert.ErrorIs(t, err, redis.ErrClosed)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
