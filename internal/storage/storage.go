package storage

import "errors"

var (
	ErrGalleryNotFound  = errors.New("gallery not found")
	ErrGalleryExists    = errors.New("gallery already exists")
	ErrVersionConflict  = errors.New("gallery version conflict")
	ErrInvalidPageToken = errors.New("invalid page token")
)
