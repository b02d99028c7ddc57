package repository_test

import (
	"context"
	"testing"

	"gallery_api/internal/domain/models"
	"gallery_api/internal/repository"
	"gallery_api/internal/repository/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWriteMode(t *testing.T) {
	tests := []struct {
		in      string
		want    repository.WriteMode
		wantErr bool
	}{
		{in: "", want: repository.WriteLastWins},
		{in: "last_write_wins", want: repository.WriteLastWins},
		{in: "versioned", want: repository.WriteVersioned},
		{in: "optimistic", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := repository.ParseWriteMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSave(t *testing.T) {
	ctx := context.Background()
	g := models.Gallery{OwnerID: "u1", ItemID: "g1", Version: 7}

	t.Run("last write wins", func(t *testing.T) {
		repo := mocks.NewGalleryRepository(t)
		repo.On("SaveGallery", ctx, g).Return(g, nil).Once()

		_, err := repository.Save(ctx, repo, g, repository.WriteLastWins)
		assert.NoError(t, err)
	})

	t.Run("versioned uses the loaded version", func(t *testing.T) {
		repo := mocks.NewGalleryRepository(t)
		repo.On("SaveGalleryVersioned", ctx, g, int64(7)).Return(g, nil).Once()

		_, err := repository.Save(ctx, repo, g, repository.WriteVersioned)
		assert.NoError(t, err)
	})
}
