package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"fintrack/internal/core"
)

func (r *SQLiteRepository) GetSettings(ctx context.Context, ownerID string) (core.Settings, error) {
	var (
		s                  core.Settings
		prefs, sec, update string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT owner_id, preferences, security, updated_at FROM settings WHERE owner_id = ?`, ownerID).
		Scan(&s.OwnerID, &prefs, &sec, &update)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Settings{}, fmt.Errorf("get settings: %w", core.ErrNotFound)
	}
	if err != nil {
		return core.Settings{}, fmt.Errorf("get settings: %w", err)
	}

	if err := json.Unmarshal([]byte(prefs), &s.Preferences); err != nil {
		return core.Settings{}, fmt.Errorf("decode preferences: %w", err)
	}
	if err := json.Unmarshal([]byte(sec), &s.Security); err != nil {
		return core.Settings{}, fmt.Errorf("decode security: %w", err)
	}
	if s.UpdatedAt, err = parseTime(update); err != nil {
		return core.Settings{}, err
	}
	return s, nil
}

func (r *SQLiteRepository) SaveSettings(ctx context.Context, s core.Settings) error {
	prefs, err := json.Marshal(s.Preferences)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	sec, err := json.Marshal(s.Security)
	if err != nil {
		return fmt.Errorf("encode security: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO settings (owner_id, preferences, security, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (owner_id) DO UPDATE SET
		     preferences = excluded.preferences,
		     security = excluded.security,
		     updated_at = excluded.updated_at`,
		s.OwnerID, string(prefs), string(sec), formatTime(s.UpdatedAt))
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
