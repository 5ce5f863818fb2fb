package kvstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/user/scamshield-agent/internal/entity"
	"github.com/user/scamshield-agent/internal/repository"
)

// HistoryRepoImpl keeps the analysis log as one JSON array under
// repository.KeyHistory, newest first, the way the extension stores it.
type HistoryRepoImpl struct {
	storage repository.LocalStorage
	// mu serialises read-modify-write cycles from this process.
	mu sync.Mutex
}

// NewHistoryRepo creates a history log on top of storage.
func NewHistoryRepo(storage repository.LocalStorage) *HistoryRepoImpl {
	return &HistoryRepoImpl{storage: storage}
}

// Append prepends entry, drops entries analysed before cutoff and trims to limit.
func (r *HistoryRepoImpl) Append(ctx context.Context, entry *entity.HistoryEntry, limit int, cutoff time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.load(ctx)
	if err != nil {
		return err
	}
	kept := make([]*entity.HistoryEntry, 0, len(entries)+1)
	kept = append(kept, entry)
	for _, e := range entries {
		if limit > 0 && len(kept) >= limit {
			break
		}
		if e.AnalyzedAt.Before(cutoff) {
			continue
		}
		kept = append(kept, e)
	}

	raw, err := json.Marshal(kept)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	return r.storage.Set(ctx, repository.KeyHistory, raw)
}

// List returns the stored entries, newest first.
func (r *HistoryRepoImpl) List(ctx context.Context) ([]*entity.HistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

func (r *HistoryRepoImpl) load(ctx context.Context) ([]*entity.HistoryEntry, error) {
	raw, err := r.storage.Get(ctx, repository.KeyHistory)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	var entries []*entity.HistoryEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return entries, nil
}
