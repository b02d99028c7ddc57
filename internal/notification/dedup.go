package notification

import (
	"context"
	"time"

	"gallery_api/internal/repository"
)

// Deduplicator remembers SNS message ids that were processed successfully so
// redeliveries are acknowledged without running the handler again.
type Deduplicator struct {
	repo repository.MessageRepository
	ttl  time.Duration
}

func NewDeduplicator(repo repository.MessageRepository, ttl time.Duration) *Deduplicator {
	return &Deduplicator{
		repo: repo,
		ttl:  ttl,
	}
}

func (d *Deduplicator) Seen(ctx context.Context, messageID string) (bool, error) {
	return d.repo.IsProcessed(ctx, messageID)
}

func (d *Deduplicator) Remember(ctx context.Context, messageID string) error {
	return d.repo.MarkProcessed(ctx, messageID, d.ttl)
}
