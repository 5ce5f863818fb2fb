package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/user/scamshield-agent/internal/entity"
)

const historyKey = "scamshield:history"

// HistoryRepoImpl provides a concrete implementation for the HistoryRepository interface using a Redis list.
// The head of the list is the newest entry.
type HistoryRepoImpl struct {
	client *redis.Client
}

// NewHistoryRepo creates a new instance of HistoryRepoImpl.
func NewHistoryRepo(client *redis.Client) *HistoryRepoImpl {
	return &HistoryRepoImpl{client: client}
}

// Append pushes entry on the left of the list, trims it to limit and then
// pops expired entries off the right.
func (r *HistoryRepoImpl) Append(ctx context.Context, entry *entity.HistoryEntry, limit int, cutoff time.Time) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode history entry: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, historyKey, raw)
	if limit > 0 {
		pipe.LTrim(ctx, historyKey, 0, int64(limit-1))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	return r.dropExpired(ctx, cutoff)
}

func (r *HistoryRepoImpl) dropExpired(ctx context.Context, cutoff time.Time) error {
	for {
		raw, err := r.client.LIndex(ctx, historyKey, -1).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		var oldest entity.HistoryEntry
		if err := json.Unmarshal(raw, &oldest); err == nil && !oldest.AnalyzedAt.Before(cutoff) {
			return nil
		}
		// LREM by value so a concurrent push to the head cannot make us pop a fresh entry.
		if err := r.client.LRem(ctx, historyKey, -1, raw).Err(); err != nil {
			return err
		}
	}
}

// List returns every stored entry, newest first. Undecodable entries are skipped.
func (r *HistoryRepoImpl) List(ctx context.Context) ([]*entity.HistoryEntry, error) {
	raws, err := r.client.LRange(ctx, historyKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]*entity.HistoryEntry, 0, len(raws))
	for _, raw := range raws {
		var e entity.HistoryEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			continue
		}
		entries = append(entries, &e)
	}
	return entries, nil
}
