package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/user/scamshield-agent/internal/backend"
	"github.com/user/scamshield-agent/internal/entity"
	"github.com/user/scamshield-agent/internal/repository"
)

// SettingsPatch carries the fields a SET_SETTINGS message wants changed.
type SettingsPatch struct {
	AutoDetectionEnabled *bool   `json:"auto_detection_enabled,omitempty"`
	TargetLanguage       *string `json:"target_language,omitempty"`
}

// Settings reads and writes the user preferences in local storage.
type Settings interface {
	Get(ctx context.Context) (*entity.Settings, error)
	Update(ctx context.Context, patch SettingsPatch) (*entity.Settings, error)
}

type settingsUseCase struct {
	storage         repository.LocalStorage
	defaultLanguage string
}

// NewSettings creates the Settings use case.
func NewSettings(storage repository.LocalStorage, defaultLanguage string) Settings {
	return &settingsUseCase{storage: storage, defaultLanguage: defaultLanguage}
}

// Get returns the stored settings; auto detection defaults to on.
func (uc *settingsUseCase) Get(ctx context.Context) (*entity.Settings, error) {
	s := &entity.Settings{AutoDetectionEnabled: true, TargetLanguage: uc.defaultLanguage}

	raw, err := uc.storage.Get(ctx, repository.KeyAutoDetection)
	switch {
	case err == nil:
		if v, perr := strconv.ParseBool(string(raw)); perr == nil {
			s.AutoDetectionEnabled = v
		}
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("read %s: %w", repository.KeyAutoDetection, err)
	}

	raw, err = uc.storage.Get(ctx, repository.KeyTargetLanguage)
	switch {
	case err == nil:
		s.TargetLanguage = backend.NormalizeLanguage(string(raw), uc.defaultLanguage)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("read %s: %w", repository.KeyTargetLanguage, err)
	}
	return s, nil
}

func (uc *settingsUseCase) Update(ctx context.Context, patch SettingsPatch) (*entity.Settings, error) {
	if patch.AutoDetectionEnabled != nil {
		v := strconv.FormatBool(*patch.AutoDetectionEnabled)
		if err := uc.storage.Set(ctx, repository.KeyAutoDetection, []byte(v)); err != nil {
			return nil, fmt.Errorf("write %s: %w", repository.KeyAutoDetection, err)
		}
	}
	if patch.TargetLanguage != nil {
		lang := backend.NormalizeLanguage(*patch.TargetLanguage, uc.defaultLanguage)
		if err := uc.storage.Set(ctx, repository.KeyTargetLanguage, []byte(lang)); err != nil {
			return nil, fmt.Errorf("write %s: %w", repository.KeyTargetLanguage, err)
		}
	}
	return uc.Get(ctx)
}
