package repository

import (
	"context"
	"time"

	"gallery_api/internal/domain/models"
)

// GalleryRepository persists galleries keyed by (ownerID, itemID). Saves always
// replace the whole record.
type GalleryRepository interface {
	GetGallery(ctx context.Context, ownerID, itemID string) (models.Gallery, error)
	// GetGalleryForUpdate reads the stored record, never a cached copy.
	// Load-modify-save paths must load through it.
	GetGalleryForUpdate(ctx context.Context, ownerID, itemID string) (models.Gallery, error)
	CreateGallery(ctx context.Context, gallery models.Gallery) (models.Gallery, error)
	// SaveGallery upserts the gallery, last write wins.
	SaveGallery(ctx context.Context, gallery models.Gallery) (models.Gallery, error)
	// SaveGalleryVersioned writes only if the stored version still equals
	// expectedVersion, otherwise storage.ErrVersionConflict is returned.
	SaveGalleryVersioned(ctx context.Context, gallery models.Gallery, expectedVersion int64) (models.Gallery, error)
	DeleteGallery(ctx context.Context, ownerID, itemID string) error
	GetGalleryPaged(ctx context.Context, ownerID string, limit int, pageToken string) ([]models.Gallery, string, error)
	// GetBatchGallery loads one gallery per ownerID -> itemID pair. Missing
	// pairs are skipped.
	GetBatchGallery(ctx context.Context, ids map[string]string) ([]models.Gallery, error)
}

// MessageRepository remembers processed pub/sub message ids.
type MessageRepository interface {
	MarkProcessed(ctx context.Context, messageID string, ttl time.Duration) error
	IsProcessed(ctx context.Context, messageID string) (bool, error)
}
