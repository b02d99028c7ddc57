package models

import (
	"encoding/json"
	"time"
)

// ModerationStatus is the moderation state of an image.
type ModerationStatus string

const (
	ModerationPending     ModerationStatus = "pending"
	ModerationApproved    ModerationStatus = "approved"
	ModerationRejected    ModerationStatus = "rejected"
	ModerationNeedsAction ModerationStatus = "needs_action"
)

// Valid reports whether s is a verdict a moderation event may carry.
func (s ModerationStatus) Valid() bool {
	switch s {
	case ModerationApproved, ModerationRejected, ModerationNeedsAction:
		return true
	}
	return false
}

// Moderation is the moderation state tracked per image.
type Moderation struct {
	Status    ModerationStatus `json:"status"`
	Reason    string           `json:"reason,omitempty"`
	UpdatedAt *time.Time       `json:"updated_at,omitempty"` // Time of the last verdict
}

// EventImageModeration is the only event name the listener acts on.
const EventImageModeration = "ImageModeration"

// Event is the domain event carried in the pub/sub message body.
type Event struct {
	EventName string          `json:"EventName"`
	Data      json.RawMessage `json:"Data,omitempty"`
}

// ModerationPayload is the verdict about one image. An empty ItemID addresses
// every gallery of UserID that contains ImageID.
type ModerationPayload struct {
	UserID  string           `json:"UserId"`
	ItemID  string           `json:"ItemId,omitempty"`
	ImageID string           `json:"ImageId"`
	Result  ModerationStatus `json:"Result"`
	Reason  string           `json:"Reason,omitempty"`
}

// Empty reports whether the payload addresses nothing.
func (p ModerationPayload) Empty() bool {
	return p.ImageID == ""
}
