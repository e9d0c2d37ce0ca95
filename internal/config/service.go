package config

import (
	"context"
	"database/sql"

	"github.com/tildaslashalef/worklog/internal/loggy"
)

// SettingsService provides operations for managing application settings
type SettingsService struct {
	repo   SettingsRepository
	config *Config
	logger *loggy.Logger
}

// NewSettingsService creates a new settings service
func NewSettingsService(db *sql.DB, config *Config, logger *loggy.Logger) *SettingsService {
	repo := NewSQLSettingsRepository(db, logger)

	return &SettingsService{
		repo:   repo,
		config: config,
		logger: logger,
	}
}

// GetSettings retrieves multiple settings by prefix
func (s *SettingsService) GetSettings(ctx context.Context, prefix string) (map[string]string, error) {
	return s.repo.GetSettings(ctx, prefix)
}

// DeleteSetting deletes a setting
func (s *SettingsService) DeleteSetting(ctx context.Context, key string) error {
	return s.repo.DeleteSetting(ctx, key)
}

// LoadTrackerSettings loads tracker settings from the database into the Config
func (s *SettingsService) LoadTrackerSettings(ctx context.Context) error {
	return LoadTrackerSettings(ctx, s.config, s.repo)
}

// SetToken sets the tracker API token with proper obfuscation
func (s *SettingsService) SetToken(ctx context.Context, token string) error {
	s.config.Tracker.APIToken = token
	return s.repo.SetSetting(ctx, tokenKey, token)
}

// SetTrackerURL sets the tracker base URL
func (s *SettingsService) SetTrackerURL(ctx context.Context, url string) error {
	s.config.Tracker.BaseURL = url
	return s.repo.SetSetting(ctx, "tracker.base_url", url)
}

// SetUsername sets the tracker username
func (s *SettingsService) SetUsername(ctx context.Context, name string) error {
	s.config.Tracker.Username = name
	return s.repo.SetSetting(ctx, "tracker.username", name)
}
