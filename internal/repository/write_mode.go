package repository

import (
	"context"
	"fmt"

	"gallery_api/internal/domain/models"
)

// WriteMode selects how load-mutate-save callers persist a gallery.
type WriteMode string

const (
	// WriteLastWins overwrites whatever is stored.
	WriteLastWins WriteMode = "last_write_wins"
	// WriteVersioned only writes if nobody saved since the gallery was loaded.
	WriteVersioned WriteMode = "versioned"
)

func ParseWriteMode(s string) (WriteMode, error) {
	switch WriteMode(s) {
	case "", WriteLastWins:
		return WriteLastWins, nil
	case WriteVersioned:
		return WriteVersioned, nil
	}
	return "", fmt.Errorf("unknown write mode %q", s)
}

// Save persists a gallery previously returned by GetGalleryForUpdate. In
// versioned mode the version it was loaded with is the expected one.
func Save(ctx context.Context, repo GalleryRepository, gallery models.Gallery, mode WriteMode) (models.Gallery, error) {
	if mode == WriteVersioned {
		return repo.SaveGalleryVersioned(ctx, gallery, gallery.Version)
	}
	return repo.SaveGallery(ctx, gallery)
}
