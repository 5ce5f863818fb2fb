package repository

import (
	"context"
	"time"

	"github.com/user/scamshield-agent/internal/entity"
)

// HistoryRepository stores the capped analysis log.
type HistoryRepository interface {
	// Append adds entry, then keeps only the newest limit entries analysed after cutoff.
	Append(ctx context.Context, entry *entity.HistoryEntry, limit int, cutoff time.Time) error
	// List returns entries newest first.
	List(ctx context.Context) ([]*entity.HistoryEntry, error)
}
