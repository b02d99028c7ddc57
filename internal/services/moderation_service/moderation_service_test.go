package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"gallery_api/internal/domain/models"
	"gallery_api/internal/lib/logger/handlers/slogdiscard"
	"gallery_api/internal/repository"
	"gallery_api/internal/repository/mocks"
	"gallery_api/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, mode repository.WriteMode) (*ModerationService, *mocks.GalleryRepository) {
	repo := mocks.NewGalleryRepository(t)
	service := NewModerationService(slogdiscard.NewDiscardLogger(), repo, mode)
	service.now = func() time.Time { return fixedNow }
	return service, repo
}

func twoImageGallery(itemID string) models.Gallery {
	return models.Gallery{
		OwnerID: "u1",
		ItemID:  itemID,
		Images: []models.Image{
			{ID: "a", URL: "x", Rank: 0, Moderation: models.Moderation{Status: models.ModerationPending}},
			{ID: "b", URL: "y", Rank: 1, Moderation: models.Moderation{Status: models.ModerationPending}},
		},
		Version: 4,
	}
}

func moderated(g models.Gallery, imageID string, status models.ModerationStatus, reason string) models.Gallery {
	images := make([]models.Image, len(g.Images))
	copy(images, g.Images)
	g.Images = images
	g.ApplyModeration(imageID, status, reason, fixedNow)
	g.Touch(fixedNow)
	return g
}

func TestModerationService_ModerateImage(t *testing.T) {
	ctx := context.Background()

	t.Run("applies verdict to the addressed image only", func(t *testing.T) {
		service, repo := newTestService(t, repository.WriteLastWins)
		loaded := twoImageGallery("g1")
		want := moderated(loaded, "a", models.ModerationRejected, "nsfw")

		repo.On("GetGalleryForUpdate", ctx, "u1", "g1").Return(loaded, nil).Once()
		repo.On("SaveGallery", ctx, want).Return(want, nil).Once()

		ok, err := service.ModerateImage(ctx, models.ModerationPayload{
			UserID: "u1", ItemID: "g1", ImageID: "a",
			Result: models.ModerationRejected, Reason: "nsfw",
		})
		require.NoError(t, err)
		assert.True(t, ok)

		assert.Equal(t, models.ModerationRejected, want.Images[0].Moderation.Status)
		assert.Equal(t, loaded.Images[1], want.Images[1])
		repo.AssertNumberOfCalls(t, "SaveGallery", 1)
	})

	t.Run("versioned mode uses loaded version", func(t *testing.T) {
		service, repo := newTestService(t, repository.WriteVersioned)
		loaded := twoImageGallery("g1")

		repo.On("GetGalleryForUpdate", ctx, "u1", "g1").Return(loaded, nil).Once()
		repo.On("SaveGalleryVersioned", ctx, mock.AnythingOfType("models.Gallery"), int64(4)).
			Return(models.Gallery{}, storage.ErrVersionConflict).Once()

		ok, err := service.ModerateImage(ctx, models.ModerationPayload{
			UserID: "u1", ItemID: "g1", ImageID: "a", Result: models.ModerationApproved,
		})
		assert.False(t, ok)
		assert.ErrorIs(t, err, storage.ErrVersionConflict)
	})

	t.Run("empty item id scans all owner galleries", func(t *testing.T) {
		service, repo := newTestService(t, repository.WriteLastWins)
		withImage := twoImageGallery("g1")
		without := models.Gallery{OwnerID: "u1", ItemID: "g2", Images: []models.Image{{ID: "c"}}}
		alsoWithImage := twoImageGallery("g3")

		repo.On("GetGalleryPaged", ctx, "u1", repository.MaxPageLimit, "").
			Return([]models.Gallery{withImage, without}, "tok", nil).Once()
		repo.On("GetGalleryPaged", ctx, "u1", repository.MaxPageLimit, "tok").
			Return([]models.Gallery{alsoWithImage}, "", nil).Once()
		repo.On("SaveGallery", ctx, moderated(withImage, "b", models.ModerationApproved, "")).
			Return(models.Gallery{}, nil).Once()
		repo.On("SaveGallery", ctx, moderated(alsoWithImage, "b", models.ModerationApproved, "")).
			Return(models.Gallery{}, nil).Once()

		ok, err := service.ModerateImage(ctx, models.ModerationPayload{
			UserID: "u1", ImageID: "b", Result: models.ModerationApproved,
		})
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("redelivery completes a partially applied scan", func(t *testing.T) {
		service, repo := newTestService(t, repository.WriteLastWins)
		first, second := twoImageGallery("g1"), twoImageGallery("g3")
		firstDone := moderated(first, "b", models.ModerationApproved, "")
		payload := models.ModerationPayload{UserID: "u1", ImageID: "b", Result: models.ModerationApproved}
		storeErr := errors.New("db down")

		repo.On("GetGalleryPaged", ctx, "u1", repository.MaxPageLimit, "").
			Return([]models.Gallery{first, second}, "", nil).Once()
		repo.On("SaveGallery", ctx, firstDone).Return(firstDone, nil).Once()
		repo.On("SaveGallery", ctx, moderated(second, "b", models.ModerationApproved, "")).
			Return(models.Gallery{}, storeErr).Once()

		ok, err := service.ModerateImage(ctx, payload)
		assert.False(t, ok)
		assert.ErrorIs(t, err, storeErr)

		// Re-applying the verdict to the already updated gallery changes nothing.
		assert.Equal(t, firstDone, moderated(firstDone, "b", models.ModerationApproved, ""))

		repo.On("GetGalleryPaged", ctx, "u1", repository.MaxPageLimit, "").
			Return([]models.Gallery{firstDone, second}, "", nil).Once()
		repo.On("SaveGallery", ctx, firstDone).Return(firstDone, nil).Once()
		repo.On("SaveGallery", ctx, moderated(second, "b", models.ModerationApproved, "")).
			Return(models.Gallery{}, nil).Once()

		ok, err = service.ModerateImage(ctx, payload)
		require.NoError(t, err)
		assert.True(t, ok)
		repo.AssertNumberOfCalls(t, "SaveGallery", 4)
	})

	t.Run("gallery not found", func(t *testing.T) {
		service, repo := newTestService(t, repository.WriteLastWins)
		repo.On("GetGalleryForUpdate", ctx, "u1", "g1").Return(models.Gallery{}, storage.ErrGalleryNotFound).Once()

		ok, err := service.ModerateImage(ctx, models.ModerationPayload{
			UserID: "u1", ItemID: "g1", ImageID: "a", Result: models.ModerationApproved,
		})
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("image not in gallery", func(t *testing.T) {
		service, repo := newTestService(t, repository.WriteLastWins)
		repo.On("GetGalleryForUpdate", ctx, "u1", "g1").Return(twoImageGallery("g1"), nil).Once()

		ok, err := service.ModerateImage(ctx, models.ModerationPayload{
			UserID: "u1", ItemID: "g1", ImageID: "zzz", Result: models.ModerationApproved,
		})
		assert.NoError(t, err)
		assert.False(t, ok)
		repo.AssertNotCalled(t, "SaveGallery", mock.Anything, mock.Anything)
	})

	t.Run("unknown verdict", func(t *testing.T) {
		service, _ := newTestService(t, repository.WriteLastWins)

		ok, err := service.ModerateImage(ctx, models.ModerationPayload{
			UserID: "u1", ItemID: "g1", ImageID: "a", Result: "maybe",
		})
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("empty payload is a no-op success", func(t *testing.T) {
		service, _ := newTestService(t, repository.WriteLastWins)

		ok, err := service.ModerateImage(ctx, models.ModerationPayload{})
		assert.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("store failure", func(t *testing.T) {
		service, repo := newTestService(t, repository.WriteLastWins)
		storeErr := errors.New("timeout")
		repo.On("GetGalleryForUpdate", ctx, "u1", "g1").Return(models.Gallery{}, storeErr).Once()

		ok, err := service.ModerateImage(ctx, models.ModerationPayload{
			UserID: "u1", ItemID: "g1", ImageID: "a", Result: models.ModerationApproved,
		})
		assert.False(t, ok)
		assert.ErrorIs(t, err, storeErr)
	})

	t.Run("cancelled before save", func(t *testing.T) {
		service, repo := newTestService(t, repository.WriteLastWins)
		cctx, cancel := context.WithCancel(context.Background())
		repo.On("GetGalleryForUpdate", cctx, "u1", "g1").
			Run(func(mock.Arguments) { cancel() }).
			Return(twoImageGallery("g1"), nil).Once()

		ok, err := service.ModerateImage(cctx, models.ModerationPayload{
			UserID: "u1", ItemID: "g1", ImageID: "a", Result: models.ModerationApproved,
		})
		assert.False(t, ok)
		assert.ErrorIs(t, err, context.Canceled)
		repo.AssertNotCalled(t, "SaveGallery", mock.Anything, mock.Anything)
	})
}

func TestModerationService_HandleEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown event name is processed without touching the store", func(t *testing.T) {
		service, repo := newTestService(t, repository.WriteLastWins)

		ok, err := service.HandleEvent(ctx, "ImageResized", json.RawMessage(`{"ImageId":"a"}`))
		require.NoError(t, err)
		assert.True(t, ok)
		repo.AssertNotCalled(t, "GetGalleryForUpdate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("empty event name", func(t *testing.T) {
		service, _ := newTestService(t, repository.WriteLastWins)

		ok, err := service.HandleEvent(ctx, "", nil)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("moderation event is applied", func(t *testing.T) {
		service, repo := newTestService(t, repository.WriteLastWins)
		loaded := twoImageGallery("g1")
		repo.On("GetGalleryForUpdate", ctx, "u1", "g1").Return(loaded, nil).Once()
		repo.On("SaveGallery", ctx, moderated(loaded, "a", models.ModerationNeedsAction, "blurry")).
			Return(loaded, nil).Once()

		data := json.RawMessage(`{"UserId":"u1","ItemId":"g1","ImageId":"a","Result":"needs_action","Reason":"blurry"}`)
		ok, err := service.HandleEvent(ctx, models.EventImageModeration, data)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("undecodable data is treated as empty payload", func(t *testing.T) {
		service, _ := newTestService(t, repository.WriteLastWins)

		ok, err := service.HandleEvent(ctx, models.EventImageModeration, json.RawMessage(`"not an object"`))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("missing data is treated as empty payload", func(t *testing.T) {
		service, _ := newTestService(t, repository.WriteLastWins)

		ok, err := service.HandleEvent(ctx, models.EventImageModeration, nil)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}
