package dto

import (
	"time"

	"gallery_api/internal/domain/models"
)

// GalleryResponse is the public view of a gallery.
type GalleryResponse struct {
	OwnerID     string         `json:"owner_id"`
	ItemID      string         `json:"item_id"`
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	Images      []models.Image `json:"images"`
	Version     int64          `json:"version"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type CreateGalleryRequest struct {
	ItemID      string  `json:"item_id" validate:"required,max=128"`
	Name        *string `json:"name,omitempty" validate:"omitempty,max=256"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2048"`
}

// UpsertImageRequest adds an image when ID is empty and replaces the image
// with that ID otherwise.
type UpsertImageRequest struct {
	ID   string `json:"id,omitempty"`
	URL  string `json:"url" validate:"required,url"`
	Rank int    `json:"rank"`
}

// UpsertImageResult reports what an upsert did. Matched is false when the
// request named an image the gallery does not contain; the gallery is saved
// unchanged in that case.
type UpsertImageResult struct {
	Image   *models.Image `json:"image,omitempty"`
	Matched bool          `json:"matched"`
	Version int64         `json:"version"`
}

type ListGalleriesResponse struct {
	Items     []GalleryResponse `json:"items"`
	NextToken string            `json:"next_token,omitempty"`
}

// BatchGalleryRequest maps owner id to item id.
type BatchGalleryRequest struct {
	Galleries map[string]string `json:"galleries" validate:"required,min=1,max=100"`
}

func NewGalleryResponse(gallery models.Gallery) GalleryResponse {
	images := gallery.Images
	if images == nil {
		images = []models.Image{}
	}

	return GalleryResponse{
		OwnerID:     gallery.OwnerID,
		ItemID:      gallery.ItemID,
		Name:        gallery.Name,
		Description: gallery.Description,
		Images:      images,
		Version:     gallery.Version,
		CreatedAt:   gallery.CreatedAt,
		UpdatedAt:   gallery.UpdatedAt,
	}
}
