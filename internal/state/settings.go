package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/metcalfc/lector/internal/settings"
)

const (
	appKey   = "app"
	voiceKey = "voice"
)

// LoadSettings returns the stored settings, falling back to defaults for
// whichever record is missing.
func (s *Store) LoadSettings(ctx context.Context) (settings.App, settings.Voice, error) {
	app, err := getOne[settings.App](ctx, s.db, "SELECT data FROM settings WHERE key = ?", appKey)
	if errors.Is(err, ErrNotFound) {
		app, err = settings.DefaultApp(), nil
	}
	if err != nil {
		return settings.App{}, settings.Voice{}, fmt.Errorf("load app settings: %w", err)
	}
	voice, err := getOne[settings.Voice](ctx, s.db, "SELECT data FROM settings WHERE key = ?", voiceKey)
	if errors.Is(err, ErrNotFound) {
		voice, err = settings.DefaultVoice(), nil
	}
	if err != nil {
		return settings.App{}, settings.Voice{}, fmt.Errorf("load voice settings: %w", err)
	}
	return app.Normalize(), voice.Normalize(), nil
}

// SaveSettings writes both settings records.
func (s *Store) SaveSettings(ctx context.Context, app settings.App, voice settings.Voice) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return saveSettings(ctx, tx, &app, &voice)
	})
}

func saveSettings(ctx context.Context, q execer, app *settings.App, voice *settings.Voice) error {
	if app != nil {
		if err := putSetting(ctx, q, appKey, app); err != nil {
			return err
		}
	}
	if voice != nil {
		if err := putSetting(ctx, q, voiceKey, voice); err != nil {
			return err
		}
	}
	return nil
}

func putSetting(ctx context.Context, q execer, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s settings: %w", key, err)
	}
	if _, err := q.ExecContext(ctx,
		"INSERT OR REPLACE INTO settings (key, data) VALUES (?, ?)", key, string(data),
	); err != nil {
		return fmt.Errorf("save %s settings: %w", key, err)
	}
	return nil
}
