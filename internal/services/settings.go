package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/maszaen/reelhouse/internal/crypto"
	"github.com/maszaen/reelhouse/internal/db"
)

// Well-known settings keys.
const (
	SettingLibraryRoot = "library_root"
	SettingResumeMode  = "resume_mode"
	SettingNotifyURL   = "notify_url"
)

// secretKeys lists settings encrypted at rest when an encryption key is
// configured.
var secretKeys = map[string]bool{
	SettingNotifyURL: true,
}

// SettingsService reads and writes persisted key-value settings.
type SettingsService struct {
	db *sql.DB
}

// NewSettingsService creates a SettingsService.
func NewSettingsService(database *sql.DB) *SettingsService {
	return &SettingsService{db: database}
}

// Get returns the value for key, or "" when unset.
func (s *SettingsService) Get(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read setting %s: %w", key, err)
	}

	if secretKeys[key] {
		decrypted, err := crypto.Decrypt(value)
		if err != nil {
			return "", fmt.Errorf("failed to decrypt setting %s: %w", key, err)
		}
		return decrypted, nil
	}
	return value, nil
}

// Set upserts the value for key. Secret keys are encrypted when an
// encryption key is configured.
func (s *SettingsService) Set(key, value string) error {
	stored := value
	if secretKeys[key] && value != "" {
		encrypted, err := crypto.Encrypt(value)
		if err != nil {
			return fmt.Errorf("failed to encrypt setting %s: %w", key, err)
		}
		stored = encrypted
	}

	_, err := db.ExecWithRetry(s.db, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, stored, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	return nil
}

// Delete removes a setting. Deleting an unset key is not an error.
func (s *SettingsService) Delete(key string) error {
	_, err := db.ExecWithRetry(s.db, "DELETE FROM settings WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("failed to delete setting %s: %w", key, err)
	}
	return nil
}
