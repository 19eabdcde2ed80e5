package db

import (
	"fmt"

	"github.com/dtnitsch/docufind/models"
)

// LoadSettings reads persisted settings over the defaults. Unknown keys and
// unparsable values are ignored.
func (db *DB) LoadSettings() (models.Settings, error) {
	settings := models.DefaultSettings()

	rows, err := db.Query("SELECT key, value FROM settings")
	if err != nil {
		return settings, fmt.Errorf("failed to load settings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return settings, fmt.Errorf("failed to scan setting: %w", err)
		}
		_ = settings.Set(key, value)
	}
	return settings, rows.Err()
}

// SaveSetting validates and persists one setting
func (db *DB) SaveSetting(key, value string) error {
	var probe models.Settings
	if err := probe.Set(key, value); err != nil {
		return err
	}
	normalized, _ := probe.Get(key)

	_, err := db.Exec(`
		INSERT INTO settings (key, value)
		VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`, key, normalized)
	if err != nil {
		return fmt.Errorf("failed to save setting %s: %w", key, err)
	}
	return nil
}

// SaveSettings persists every field of s
func (db *DB) SaveSettings(s models.Settings) error {
	for _, key := range models.SettingKeys {
		value, err := s.Get(key)
		if err != nil {
			return err
		}
		if key == models.KeyGeminiAPIKey && value == "" {
			if _, err := db.Exec("DELETE FROM settings WHERE key = ?", key); err != nil {
				return fmt.Errorf("failed to clear setting %s: %w", key, err)
			}
			continue
		}
		if err := db.SaveSetting(key, value); err != nil {
			return err
		}
	}
	return nil
}

// ResetSettings drops every stored setting so defaults apply
func (db *DB) ResetSettings() error {
	if _, err := db.Exec("DELETE FROM settings"); err != nil {
		return fmt.Errorf("failed to reset settings: %w", err)
	}
	return nil
}
