package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gallery_api/internal/domain/models"
	"gallery_api/internal/lib/logger/sl"
	"gallery_api/internal/metrics"
	redisapp "gallery_api/internal/storage/redis"

	"github.com/redis/go-redis/v9"
)

// CachedGalleryRepo is a read-through Redis cache in front of a
// GalleryRepository. Writes go to the inner repository first and then evict the
// cached entry; a Redis failure never fails the operation.
//
// A fill racing a save can put an older version back for up to ttl, so only
// GetGallery reads are served from the cache. GetGalleryForUpdate always goes
// to the inner repository.
type CachedGalleryRepo struct {
	log    *slog.Logger
	inner  GalleryRepository
	client *redisapp.Client
	ttl    time.Duration
}

func NewCachedGalleryRepo(log *slog.Logger, inner GalleryRepository, client *redisapp.Client, ttl time.Duration) *CachedGalleryRepo {
	return &CachedGalleryRepo{
		log:    log,
		inner:  inner,
		client: client,
		ttl:    ttl,
	}
}

func (r *CachedGalleryRepo) GetGallery(ctx context.Context, ownerID, itemID string) (models.Gallery, error) {
	const op = "repository.CachedGalleryRepo.GetGallery"

	key := galleryKey(ownerID, itemID)

	raw, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var gallery models.Gallery
		if err := json.Unmarshal(raw, &gallery); err == nil {
			metrics.CacheHitsTotal.Inc()
			return gallery, nil
		}
		r.log.Warn("drop undecodable cache entry", slog.String("op", op), slog.String("key", key))
	case errors.Is(err, redis.Nil):
	default:
		if ctxErr := ctx.Err(); ctxErr != nil {
			return models.Gallery{}, fmt.Errorf("%s: %w", op, ctxErr)
		}
		r.log.Warn("cache read failed", slog.String("op", op), sl.Err(err))
	}

	metrics.CacheMissesTotal.Inc()

	gallery, err := r.inner.GetGallery(ctx, ownerID, itemID)
	if err != nil {
		return models.Gallery{}, err
	}

	r.store(ctx, gallery)

	return gallery, nil
}

func (r *CachedGalleryRepo) GetGalleryForUpdate(ctx context.Context, ownerID, itemID string) (models.Gallery, error) {
	return r.inner.GetGalleryForUpdate(ctx, ownerID, itemID)
}

func (r *CachedGalleryRepo) CreateGallery(ctx context.Context, gallery models.Gallery) (models.Gallery, error) {
	created, err := r.inner.CreateGallery(ctx, gallery)
	if err != nil {
		return models.Gallery{}, err
	}

	r.evict(ctx, created.OwnerID, created.ItemID)

	return created, nil
}

func (r *CachedGalleryRepo) SaveGallery(ctx context.Context, gallery models.Gallery) (models.Gallery, error) {
	saved, err := r.inner.SaveGallery(ctx, gallery)
	if err != nil {
		return models.Gallery{}, err
	}

	r.evict(ctx, saved.OwnerID, saved.ItemID)

	return saved, nil
}

func (r *CachedGalleryRepo) SaveGalleryVersioned(ctx context.Context, gallery models.Gallery, expectedVersion int64) (models.Gallery, error) {
	saved, err := r.inner.SaveGalleryVersioned(ctx, gallery, expectedVersion)
	if err != nil {
		// A conflict means our cached copy may be stale too.
		r.evict(ctx, gallery.OwnerID, gallery.ItemID)
		return models.Gallery{}, err
	}

	r.evict(ctx, saved.OwnerID, saved.ItemID)

	return saved, nil
}

func (r *CachedGalleryRepo) DeleteGallery(ctx context.Context, ownerID, itemID string) error {
	if err := r.inner.DeleteGallery(ctx, ownerID, itemID); err != nil {
		return err
	}

	r.evict(ctx, ownerID, itemID)

	return nil
}

func (r *CachedGalleryRepo) GetGalleryPaged(ctx context.Context, ownerID string, limit int, pageToken string) ([]models.Gallery, string, error) {
	return r.inner.GetGalleryPaged(ctx, ownerID, limit, pageToken)
}

func (r *CachedGalleryRepo) GetBatchGallery(ctx context.Context, ids map[string]string) ([]models.Gallery, error) {
	return r.inner.GetBatchGallery(ctx, ids)
}

func (r *CachedGalleryRepo) store(ctx context.Context, gallery models.Gallery) {
	const op = "repository.CachedGalleryRepo.store"

	raw, err := json.Marshal(gallery)
	if err != nil {
		r.log.Warn("encode cache entry", slog.String("op", op), sl.Err(err))
		return
	}

	if err := r.client.Set(ctx, galleryKey(gallery.OwnerID, gallery.ItemID), raw, r.ttl).Err(); err != nil {
		r.log.Warn("cache write failed", slog.String("op", op), sl.Err(err))
	}
}

func (r *CachedGalleryRepo) evict(ctx context.Context, ownerID, itemID string) {
	const op = "repository.CachedGalleryRepo.evict"

	if err := r.client.Del(ctx, galleryKey(ownerID, itemID)).Err(); err != nil {
		r.log.Warn("cache evict failed", slog.String("op", op), sl.Err(err))
	}
}

func galleryKey(ownerID, itemID string) string {
	return "gallery:" + ownerID + ":" + itemID
}
