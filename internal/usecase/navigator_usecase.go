package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/user/scamshield-agent/internal/classifier"
	"github.com/user/scamshield-agent/internal/entity"
	"github.com/user/scamshield-agent/internal/tabstate"
)

// Navigator reacts to tab lifecycle events: it classifies each significant
// navigation, sets the badge and drops state that belongs to the old page.
type Navigator interface {
	TabUpdated(ctx context.Context, tabID int, url string) (*entity.TabDetection, error)
	TabActivated(ctx context.Context, tabID int, url string) (*entity.TabDetection, error)
	TabRemoved(ctx context.Context, tabID int) error
	// Detection returns nil when the tab has not been classified.
	Detection(ctx context.Context, tabID int) (*entity.TabDetection, error)
	UpdateDetection(ctx context.Context, tabID int, url string, detection entity.SiteDetectionResult) (*entity.TabDetection, error)
}

type navigatorUseCase struct {
	store     *tabstate.Store
	settings  Settings
	extractor ContentExtractor
	logger    *zap.Logger
}

// NewNavigator creates the Navigator use case.
func NewNavigator(store *tabstate.Store, settings Settings, extractor ContentExtractor, logger *zap.Logger) Navigator {
	return &navigatorUseCase{store: store, settings: settings, extractor: extractor, logger: logger}
}

// TabUpdated handles a URL change. A significant change always drops the
// old page's analysis state, modal and post selection. With auto detection
// off the tab's detection and badge are cleared and nil is returned.
func (uc *navigatorUseCase) TabUpdated(ctx context.Context, tabID int, url string) (*entity.TabDetection, error) {
	prevURL, err := uc.store.Visit(ctx, tabID, url)
	if err != nil {
		return nil, err
	}
	significant := classifier.IsSignificantURLChange(prevURL, url)
	if significant {
		// The old page's results must be gone before anything about the new
		// page is stored.
		if err := uc.store.ClearAnalysis(ctx, tabID); err != nil {
			return nil, err
		}
		if err := uc.store.DismissModal(ctx, tabID); err != nil {
			return nil, err
		}
		uc.extractor.RemoveSelection(tabID)
	}

	s, err := uc.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !s.AutoDetectionEnabled {
		return nil, uc.store.ClearDetection(ctx, tabID)
	}

	if !significant {
		prev, ok, err := uc.store.Detection(ctx, tabID)
		if err != nil {
			return nil, err
		}
		if ok {
			return &prev, nil
		}
	}
	return uc.saveDetection(ctx, tabID, url, classifier.Detect(url))
}

// TabActivated re-checks the focused tab. An empty url returns what is stored.
func (uc *navigatorUseCase) TabActivated(ctx context.Context, tabID int, url string) (*entity.TabDetection, error) {
	if url == "" {
		return uc.Detection(ctx, tabID)
	}
	return uc.TabUpdated(ctx, tabID, url)
}

func (uc *navigatorUseCase) TabRemoved(ctx context.Context, tabID int) error {
	uc.extractor.RemoveSelection(tabID)
	if err := uc.store.RemoveTab(ctx, tabID); err != nil {
		return fmt.Errorf("remove tab %d: %w", tabID, err)
	}
	uc.logger.Debug("tab removed", zap.Int("tab_id", tabID))
	return nil
}

func (uc *navigatorUseCase) Detection(ctx context.Context, tabID int) (*entity.TabDetection, error) {
	d, ok, err := uc.store.Detection(ctx, tabID)
	if err != nil || !ok {
		return nil, err
	}
	return &d, nil
}

// UpdateDetection stores a detection computed elsewhere, e.g. by the
// content script after an in-page navigation.
func (uc *navigatorUseCase) UpdateDetection(ctx context.Context, tabID int, url string, detection entity.SiteDetectionResult) (*entity.TabDetection, error) {
	return uc.saveDetection(ctx, tabID, url, detection)
}

func (uc *navigatorUseCase) saveDetection(ctx context.Context, tabID int, url string, detection entity.SiteDetectionResult) (*entity.TabDetection, error) {
	d := entity.TabDetection{
		TabID:     tabID,
		URL:       url,
		Detection: detection,
		Badge:     classifier.Badge(detection),
	}
	if err := uc.store.SetDetection(ctx, d); err != nil {
		return nil, err
	}
	uc.logger.Debug("site detected",
		zap.Int("tab_id", tabID),
		zap.String("type", string(detection.Type)),
		zap.String("platform", detection.Platform),
		zap.Float64("confidence", detection.Confidence),
	)
	return &d, nil
}
