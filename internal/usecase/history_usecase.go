package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/user/scamshield-agent/internal/entity"
	"github.com/user/scamshield-agent/internal/repository"
)

// History keeps the capped log of past analyses.
type History interface {
	Record(ctx context.Context, tabID int, url string, content *entity.ExtractedContent, result *entity.AnalysisResult) (*entity.HistoryEntry, error)
	List(ctx context.Context, limit int) ([]*entity.HistoryEntry, error)
}

type historyUseCase struct {
	repo      repository.HistoryRepository
	limit     int
	retention time.Duration
	now       func() time.Time
}

// NewHistory creates the History use case. Every append trims the log to
// limit entries and drops entries older than retention.
func NewHistory(repo repository.HistoryRepository, limit int, retention time.Duration) History {
	return &historyUseCase{repo: repo, limit: limit, retention: retention, now: time.Now}
}

func (uc *historyUseCase) Record(ctx context.Context, tabID int, url string, content *entity.ExtractedContent, result *entity.AnalysisResult) (*entity.HistoryEntry, error) {
	now := uc.now()
	entry := &entity.HistoryEntry{
		ID:                uuid.NewString(),
		TabID:             tabID,
		URL:               url,
		ScamType:          content.Type,
		RiskLevel:         result.RiskLevel,
		Analysis:          result.Analysis,
		RecommendedAction: result.RecommendedAction,
		TargetLanguage:    result.TargetLanguage,
		AnalyzedAt:        now,
	}
	if err := uc.repo.Append(ctx, entry, uc.limit, now.Add(-uc.retention)); err != nil {
		return nil, fmt.Errorf("append history: %w", err)
	}
	return entry, nil
}

// List returns at most limit entries, newest first. limit <= 0 means all.
func (uc *historyUseCase) List(ctx context.Context, limit int) ([]*entity.HistoryEntry, error) {
	entries, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	cutoff := uc.now().Add(-uc.retention)
	out := entries[:0]
	for _, e := range entries {
		if e.AnalyzedAt.Before(cutoff) {
			continue
		}
		out = append(out, e)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
