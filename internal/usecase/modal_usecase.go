package usecase

import (
	"context"
	"time"

	"github.com/user/scamshield-agent/internal/entity"
	"github.com/user/scamshield-agent/internal/tabstate"
)

// Modals queues the on-page modal for a tab's content script, which picks
// it up with GET_MODAL.
type Modals interface {
	ShowResult(ctx context.Context, tabID int, result *entity.AnalysisResult) (*entity.Modal, error)
	ShowError(ctx context.Context, tabID int, message string) (*entity.Modal, error)
	// Get returns nil when nothing is queued.
	Get(ctx context.Context, tabID int) (*entity.Modal, error)
	Dismiss(ctx context.Context, tabID int) error
}

type modalUseCase struct {
	store *tabstate.Store
	now   func() time.Time
}

func NewModals(store *tabstate.Store) Modals {
	return &modalUseCase{store: store, now: time.Now}
}

func (uc *modalUseCase) ShowResult(ctx context.Context, tabID int, result *entity.AnalysisResult) (*entity.Modal, error) {
	m := entity.Modal{
		Kind:    entity.ModalResult,
		Title:   "ScamShield Analysis",
		Message: result.RecommendedAction,
		Result:  result,
		ShownAt: uc.now(),
	}
	if err := uc.store.SetModal(ctx, tabID, m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (uc *modalUseCase) ShowError(ctx context.Context, tabID int, message string) (*entity.Modal, error) {
	m := entity.Modal{
		Kind:    entity.ModalError,
		Title:   "Analysis Failed",
		Message: message,
		ShownAt: uc.now(),
	}
	if err := uc.store.SetModal(ctx, tabID, m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (uc *modalUseCase) Get(ctx context.Context, tabID int) (*entity.Modal, error) {
	m, ok, err := uc.store.Modal(ctx, tabID)
	if err != nil || !ok {
		return nil, err
	}
	return &m, nil
}

func (uc *modalUseCase) Dismiss(ctx context.Context, tabID int) error {
	return uc.store.DismissModal(ctx, tabID)
}
