package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

type SettingsService struct {
	repo core.SettingsRepository
	now  func() time.Time
}

func NewSettingsService(repo core.SettingsRepository) *SettingsService {
	return &SettingsService{repo: repo, now: time.Now}
}

// Get returns the owner's settings, storing the defaults on first access.
func (s *SettingsService) Get(ctx context.Context, ownerID string) (core.Settings, error) {
	st, err := s.repo.GetSettings(ctx, ownerID)
	if err == nil {
		return st, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return core.Settings{}, fmt.Errorf("load settings: %w", err)
	}

	st = core.DefaultSettings(ownerID)
	st.UpdatedAt = s.now().UTC()
	if err := s.repo.SaveSettings(ctx, st); err != nil {
		return core.Settings{}, fmt.Errorf("save default settings: %w", err)
	}
	slog.InfoContext(ctx, "Default settings created",
		log.FieldComponent, log.ComponentSettings,
		log.FieldOperation, log.OpCreate,
		log.FieldOwnerID, ownerID)
	return st, nil
}

// Update merges patch into the stored settings.
func (s *SettingsService) Update(ctx context.Context, ownerID string, patch core.SettingsPatch) (core.Settings, error) {
	current, err := s.Get(ctx, ownerID)
	if err != nil {
		return core.Settings{}, err
	}

	next := patch.Apply(current)
	if err := next.Validate(); err != nil {
		return core.Settings{}, err
	}
	next.UpdatedAt = s.now().UTC()
	if err := s.repo.SaveSettings(ctx, next); err != nil {
		return core.Settings{}, fmt.Errorf("save settings: %w", err)
	}
	return next, nil
}
