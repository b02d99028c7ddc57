package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Gallery is one user's ordered collection of images, keyed by (OwnerID, ItemID).
type Gallery struct {
	OwnerID     string    `json:"owner_id"`              // Owner of the gallery (caller identity)
	ItemID      string    `json:"item_id"`               // Item the gallery belongs to
	Name        *string   `json:"name,omitempty"`        // Optional display name
	Description *string   `json:"description,omitempty"` // Optional description
	Images      []Image   `json:"images"`                // Ordered images
	Version     int64     `json:"version"`               // Write counter, bumped on every save
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Image is a single picture inside a Gallery.
type Image struct {
	ID         string     `json:"id"`                  // Unique within the gallery
	URL        string     `json:"url"`                 // Source location
	Rank       int        `json:"rank"`                // Display order key, not unique
	Dimension  *Dimension `json:"dimension,omitempty"` // nil until computed downstream
	Moderation Moderation `json:"moderation"`
}

// Dimension holds the pixel size of an image.
type Dimension struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// NewGallery returns an empty gallery with both timestamps set to now.
func NewGallery(ownerID, itemID string, now time.Time) Gallery {
	return Gallery{
		OwnerID:   ownerID,
		ItemID:    itemID,
		Images:    make([]Image, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// FindImage returns the image with the given id, or false if the gallery does
// not contain it.
func (g *Gallery) FindImage(id string) (Image, bool) {
	if i := g.imageIndex(id); i >= 0 {
		return g.Images[i], true
	}
	return Image{}, false
}

// AddImage appends a new image with a freshly generated id. The dimension is
// left unset and moderation starts as pending. Timestamps are not touched.
func (g *Gallery) AddImage(url string, rank int) Image {
	id := newImageID()
	for g.imageIndex(id) >= 0 {
		id = newImageID()
	}

	img := Image{
		ID:         id,
		URL:        url,
		Rank:       rank,
		Moderation: Moderation{Status: ModerationPending},
	}
	g.Images = append(g.Images, img)

	return img
}

// ReplaceImage overwrites url and rank of the image with the given id and
// clears its dimension, since the cached size belongs to the old content.
// Moderation is reset to pending for the same reason.
//
// An unknown id leaves the gallery untouched and returns false.
func (g *Gallery) ReplaceImage(id, url string, rank int) bool {
	i := g.imageIndex(id)
	if i < 0 {
		return false
	}

	img := &g.Images[i]
	img.URL = url
	img.Rank = rank
	img.Dimension = nil
	img.Moderation = Moderation{Status: ModerationPending}

	return true
}

// ApplyModeration records a moderation verdict on the image with the given id.
// Returns false if the gallery does not contain the image.
func (g *Gallery) ApplyModeration(imageID string, status ModerationStatus, reason string, at time.Time) bool {
	i := g.imageIndex(imageID)
	if i < 0 {
		return false
	}

	g.Images[i].Moderation = Moderation{
		Status:    status,
		Reason:    reason,
		UpdatedAt: &at,
	}

	return true
}

// Touch refreshes the update timestamp.
func (g *Gallery) Touch(now time.Time) {
	g.UpdatedAt = now
}

func (g *Gallery) imageIndex(id string) int {
	for i, img := range g.Images {
		if img.ID == id {
			return i
		}
	}
	return -1
}

// newImageID returns an opaque 32-char hex token.
func newImageID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
