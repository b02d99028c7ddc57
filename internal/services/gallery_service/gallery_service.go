package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gallery_api/internal/domain/models"
	"gallery_api/internal/lib/logger/sl"
	"gallery_api/internal/metrics"
	"gallery_api/internal/repository"
	"gallery_api/internal/storage"
	"gallery_api/internal/transport/http/dto"
)

var (
	ErrGalleryNotFound  = errors.New("gallery not found")
	ErrGalleryExists    = errors.New("gallery already exists")
	ErrConcurrentUpdate = errors.New("gallery was modified concurrently")
	ErrInvalidInput     = errors.New("invalid input")
)

const maxBatchSize = 100

type GalleryService struct {
	log  *slog.Logger
	repo repository.GalleryRepository
	mode repository.WriteMode
	now  func() time.Time
}

func NewGalleryService(log *slog.Logger, repo repository.GalleryRepository, mode repository.WriteMode) *GalleryService {
	return &GalleryService{
		log:  log,
		repo: repo,
		mode: mode,
		now:  time.Now,
	}
}

// UpsertImage adds an image to an existing gallery or replaces one of its
// images. The gallery is never created implicitly. A replace naming an unknown
// image id is not an error: the gallery is saved as loaded and the result
// reports Matched=false.
func (s *GalleryService) UpsertImage(ctx context.Context, ownerID, itemID string, req dto.UpsertImageRequest) (dto.UpsertImageResult, error) {
	const op = "service.GalleryService.UpsertImage"
	log := s.log.With(
		slog.String("op", op),
		slog.String("owner_id", ownerID),
		slog.String("item_id", itemID),
		slog.String("image_id", req.ID),
	)

	if ownerID == "" || itemID == "" || req.URL == "" {
		return dto.UpsertImageResult{}, fmt.Errorf("%s: %w", op, ErrInvalidInput)
	}

	gallery, err := s.repo.GetGalleryForUpdate(ctx, ownerID, itemID)
	if err != nil {
		if errors.Is(err, storage.ErrGalleryNotFound) {
			log.Warn("gallery not found")
			return dto.UpsertImageResult{}, fmt.Errorf("%s: %w", op, ErrGalleryNotFound)
		}
		log.Error("failed to load gallery", sl.Err(err))
		return dto.UpsertImageResult{}, fmt.Errorf("%s: %w", op, err)
	}

	var (
		result dto.UpsertImageResult
		kind   string
	)

	switch {
	case req.ID == "":
		img := gallery.AddImage(req.URL, req.Rank)
		result.Image, result.Matched, kind = &img, true, "added"
	case gallery.ReplaceImage(req.ID, req.URL, req.Rank):
		img, _ := gallery.FindImage(req.ID)
		result.Image, result.Matched, kind = &img, true, "replaced"
	default:
		log.Warn("image not found in gallery, saving unchanged")
		kind = "unmatched"
	}

	gallery.Touch(s.now().UTC())

	if err := ctx.Err(); err != nil {
		return dto.UpsertImageResult{}, fmt.Errorf("%s: %w", op, err)
	}

	saved, err := repository.Save(ctx, s.repo, gallery, s.mode)
	if err != nil {
		return dto.UpsertImageResult{}, fmt.Errorf("%s: %w", op, s.saveError(log, err))
	}

	metrics.ImageUpsertsTotal.WithLabelValues(kind).Inc()
	result.Version = saved.Version

	log.Info("image upserted", slog.String("kind", kind), slog.Int64("version", saved.Version))

	return result, nil
}

// CreateGallery creates an empty gallery for the owner.
func (s *GalleryService) CreateGallery(ctx context.Context, ownerID string, req dto.CreateGalleryRequest) (*dto.GalleryResponse, error) {
	const op = "service.GalleryService.CreateGallery"
	log := s.log.With(
		slog.String("op", op),
		slog.String("owner_id", ownerID),
		slog.String("item_id", req.ItemID),
	)

	if ownerID == "" || req.ItemID == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidInput)
	}

	gallery := models.NewGallery(ownerID, req.ItemID, s.now().UTC())
	gallery.Name = req.Name
	gallery.Description = req.Description

	created, err := s.repo.CreateGallery(ctx, gallery)
	if err != nil {
		if errors.Is(err, storage.ErrGalleryExists) {
			log.Warn("gallery already exists")
			return nil, fmt.Errorf("%s: %w", op, ErrGalleryExists)
		}
		log.Error("failed to create gallery", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("gallery created")

	resp := dto.NewGalleryResponse(created)
	return &resp, nil
}

func (s *GalleryService) GetGallery(ctx context.Context, ownerID, itemID string) (*dto.GalleryResponse, error) {
	const op = "service.GalleryService.GetGallery"

	gallery, err := s.repo.GetGallery(ctx, ownerID, itemID)
	if err != nil {
		if errors.Is(err, storage.ErrGalleryNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrGalleryNotFound)
		}
		s.log.Error("failed to get gallery", slog.String("op", op), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp := dto.NewGalleryResponse(gallery)
	return &resp, nil
}

// ListGalleries returns one page of the owner's galleries ordered by item id.
func (s *GalleryService) ListGalleries(ctx context.Context, ownerID string, limit int, pageToken string) (dto.ListGalleriesResponse, error) {
	const op = "service.GalleryService.ListGalleries"
	log := s.log.With(
		slog.String("op", op),
		slog.String("owner_id", ownerID),
		slog.Int("limit", limit),
	)

	galleries, next, err := s.repo.GetGalleryPaged(ctx, ownerID, limit, pageToken)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidPageToken) {
			log.Warn("invalid page token")
			return dto.ListGalleriesResponse{}, fmt.Errorf("%s: %w", op, ErrInvalidInput)
		}
		log.Error("failed to list galleries", sl.Err(err))
		return dto.ListGalleriesResponse{}, fmt.Errorf("%s: %w", op, err)
	}

	return dto.ListGalleriesResponse{
		Items:     mapGalleries(galleries),
		NextToken: next,
	}, nil
}

// GetBatch loads one gallery per owner id -> item id pair. Missing pairs are
// left out of the result.
func (s *GalleryService) GetBatch(ctx context.Context, ids map[string]string) ([]dto.GalleryResponse, error) {
	const op = "service.GalleryService.GetBatch"

	if len(ids) > maxBatchSize {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidInput)
	}
	if len(ids) == 0 {
		return []dto.GalleryResponse{}, nil
	}

	galleries, err := s.repo.GetBatchGallery(ctx, ids)
	if err != nil {
		s.log.Error("failed to get galleries", slog.String("op", op), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return mapGalleries(galleries), nil
}

func (s *GalleryService) DeleteGallery(ctx context.Context, ownerID, itemID string) error {
	const op = "service.GalleryService.DeleteGallery"
	log := s.log.With(
		slog.String("op", op),
		slog.String("owner_id", ownerID),
		slog.String("item_id", itemID),
	)

	if err := s.repo.DeleteGallery(ctx, ownerID, itemID); err != nil {
		if errors.Is(err, storage.ErrGalleryNotFound) {
			return fmt.Errorf("%s: %w", op, ErrGalleryNotFound)
		}
		log.Error("failed to delete gallery", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("gallery deleted")
	return nil
}

func (s *GalleryService) saveError(log *slog.Logger, err error) error {
	switch {
	case errors.Is(err, storage.ErrVersionConflict):
		metrics.VersionConflictsTotal.Inc()
		log.Warn("gallery changed since it was loaded")
		return ErrConcurrentUpdate
	case errors.Is(err, storage.ErrGalleryNotFound):
		log.Warn("gallery deleted since it was loaded")
		return ErrGalleryNotFound
	}
	log.Error("failed to save gallery", sl.Err(err))
	return err
}

func mapGalleries(galleries []models.Gallery) []dto.GalleryResponse {
	out := make([]dto.GalleryResponse, 0, len(galleries))
	for _, g := range galleries {
		out = append(out, dto.NewGalleryResponse(g))
	}
	return out
}
