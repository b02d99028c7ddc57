package services

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
	"gallery_api/internal/repository"
	"gallery_api/internal/storage"
)

const (
	outcomeApplied    = "applied"
	outcomeUnresolved = "unresolved"
	outcomeFailed     = "failed"
	outcomeEmpty      = "empty"
	outcomeIgnored    = "ignored"
)

// ModerationService applies asynchronous moderation verdicts to gallery images.
type ModerationService struct {
	log  *slog.Logger
	repo repository.GalleryRepository
	mode repository.WriteMode
	now  func() time.Time
}

func NewModerationService(log *slog.Logger, repo repository.GalleryRepository, mode repository.WriteMode) *ModerationService {
	return &ModerationService{
		log:  log,
		repo: repo,
		mode: mode,
		now:  time.Now,
	}
}

// HandleEvent dispatches a pub/sub event by name. Only ImageModeration is acted
// upon; any other name, including an empty one, is reported as processed.
func (s *ModerationService) HandleEvent(ctx context.Context, name string, data json.RawMessage) (bool, error) {
	const op = "service.ModerationService.HandleEvent"
	log := s.log.With(
		slog.String("op", op),
		slog.String("event", name),
	)

	switch name {
	case models.EventImageModeration:
		var payload models.ModerationPayload
		if len(data) > 0 {
			if err := json.Unmarshal(data, &payload); err != nil {
				log.Warn("undecodable moderation payload, treating as empty", sl.Err(err))
				payload = models.ModerationPayload{}
			}
		}
		return s.ModerateImage(ctx, payload)
	default:
		log.Debug("ignoring event")
		metrics.ModerationEventsTotal.WithLabelValues(eventLabel(name), outcomeIgnored).Inc()
		return true, nil
	}
}

// ModerateImage records the verdict on the addressed image. It returns false
// with a nil error when the gallery, the image or the verdict cannot be
// resolved, and false with an error when the store fails.
//
// Without an ItemID every gallery of the owner holding the image is updated,
// one save each. A failed save leaves the galleries before it updated; the
// redelivery applies the same verdict again, which leaves them unchanged.
func (s *ModerationService) ModerateImage(ctx context.Context, payload models.ModerationPayload) (bool, error) {
	const op = "service.ModerationService.ModerateImage"
	log := s.log.With(
		slog.String("op", op),
		slog.String("owner_id", payload.UserID),
		slog.String("item_id", payload.ItemID),
		slog.String("image_id", payload.ImageID),
		slog.String("result", string(payload.Result)),
	)

	if payload.Empty() {
		log.Warn("empty moderation payload, nothing to apply")
		s.count(outcomeEmpty)
		return true, nil
	}

	if payload.UserID == "" || !payload.Result.Valid() {
		log.Warn("moderation payload cannot be resolved")
		s.count(outcomeUnresolved)
		return false, nil
	}

	galleries, err := s.resolve(ctx, payload)
	if err != nil {
		log.Error("failed to resolve galleries", sl.Err(err))
		s.count(outcomeFailed)
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if len(galleries) == 0 {
		log.Warn("no gallery contains the image")
		s.count(outcomeUnresolved)
		return false, nil
	}

	at := s.now().UTC()
	for _, gallery := range galleries {
		gallery.ApplyModeration(payload.ImageID, payload.Result, payload.Reason, at)
		gallery.Touch(at)

		if err := ctx.Err(); err != nil {
			s.count(outcomeFailed)
			return false, fmt.Errorf("%s: %w", op, err)
		}

		if _, err := repository.Save(ctx, s.repo, gallery, s.mode); err != nil {
			if errors.Is(err, storage.ErrVersionConflict) {
				metrics.VersionConflictsTotal.Inc()
			}
			log.Error("failed to save gallery", slog.String("gallery", gallery.ItemID), sl.Err(err))
			s.count(outcomeFailed)
			return false, fmt.Errorf("%s: %w", op, err)
		}
	}

	log.Info("moderation applied", slog.Int("galleries", len(galleries)))
	s.count(outcomeApplied)

	return true, nil
}

// resolve returns the galleries the payload applies to, each containing the
// image. Missing galleries are not an error.
func (s *ModerationService) resolve(ctx context.Context, payload models.ModerationPayload) ([]models.Gallery, error) {
	if payload.ItemID != "" {
		gallery, err := s.repo.GetGalleryForUpdate(ctx, payload.UserID, payload.ItemID)
		if err != nil {
			if errors.Is(err, storage.ErrGalleryNotFound) {
				return nil, nil
			}
			return nil, err
		}
		if _, ok := gallery.FindImage(payload.ImageID); !ok {
			return nil, nil
		}
		return []models.Gallery{gallery}, nil
	}

	var (
		matched []models.Gallery
		token   string
	)
	for {
		page, next, err := s.repo.GetGalleryPaged(ctx, payload.UserID, repository.MaxPageLimit, token)
		if err != nil {
			return nil, err
		}
		for _, gallery := range page {
			if _, ok := gallery.FindImage(payload.ImageID); ok {
				matched = append(matched, gallery)
			}
		}
		if next == "" {
			return matched, nil
		}
		token = next
	}
}

func (s *ModerationService) count(outcome string) {
	metrics.ModerationEventsTotal.WithLabelValues(models.EventImageModeration, outcome).Inc()
}

func eventLabel(name string) string {
	switch name {
	case "":
		return "none"
	case models.EventImageModeration:
		return name
	}
	// Unknown names share one label value.
	return "other"
}
