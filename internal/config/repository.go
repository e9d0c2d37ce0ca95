package config

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/tildaslashalef/worklog/internal/loggy"
	"github.com/tildaslashalef/worklog/internal/ulid"
)

// tokenKey is the settings key whose value is stored obfuscated
const tokenKey = "tracker.api_token"

// SettingsRepository defines operations for persisting settings
type SettingsRepository interface {
	// GetSettings retrieves the settings whose keys share a prefix
	GetSettings(ctx context.Context, prefix string) (map[string]string, error)

	// SetSetting stores a setting value, inserting or updating as needed
	SetSetting(ctx context.Context, key, value string) error

	// DeleteSetting removes a setting
	DeleteSetting(ctx context.Context, key string) error
}

// SQLSettingsRepository implements SettingsRepository using a SQL database
type SQLSettingsRepository struct {
	db     *sql.DB
	logger *loggy.Logger
}

// NewSQLSettingsRepository creates a new SQL settings repository
func NewSQLSettingsRepository(db *sql.DB, logger *loggy.Logger) SettingsRepository {
	return &SQLSettingsRepository{db: db, logger: logger}
}

// GetSettings retrieves the settings whose keys share a prefix. An
// empty prefix returns every setting.
func (r *SQLSettingsRepository) GetSettings(ctx context.Context, prefix string) (map[string]string, error) {
	query := sq.Select("key", "value").
		From("settings").
		Where(sq.Like{"key": prefix + "%"})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("generating SQL: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scanning setting row: %w", err)
		}

		if key == tokenKey && value != "" {
			value, err = deobfuscateToken(value)
			if err != nil {
				r.logger.Warn("Failed to decode stored token", "error", err)
				continue
			}
		}

		settings[key] = value
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating setting rows: %w", err)
	}

	return settings, nil
}

// SetSetting stores a setting value, inserting or updating as needed
func (r *SQLSettingsRepository) SetSetting(ctx context.Context, key, value string) error {
	storeValue := value
	if key == tokenKey && value != "" {
		var err error
		storeValue, err = obfuscateToken(value)
		if err != nil {
			return fmt.Errorf("encoding token: %w", err)
		}
	}

	now := time.Now().UTC()
	query := sq.Insert("settings").
		Columns("id", "key", "value", "created_at", "updated_at").
		Values(ulid.SettingID(), key, storeValue, now, now).
		Suffix("ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("generating SQL: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("executing query: %w", err)
	}

	return nil
}

// DeleteSetting removes a setting
func (r *SQLSettingsRepository) DeleteSetting(ctx context.Context, key string) error {
	query := sq.Delete("settings").
		Where(sq.Eq{"key": key})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("generating SQL: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("executing query: %w", err)
	}

	return nil
}

// LoadTrackerSettings copies the stored tracker settings into cfg,
// leaving fields alone when nothing is stored for them
func LoadTrackerSettings(ctx context.Context, cfg *Config, repo SettingsRepository) error {
	settings, err := repo.GetSettings(ctx, "tracker.")
	if err != nil {
		return fmt.Errorf("loading tracker settings: %w", err)
	}

	if url, ok := settings["tracker.base_url"]; ok && url != "" {
		cfg.Tracker.BaseURL = url
	}
	if username, ok := settings["tracker.username"]; ok && username != "" {
		cfg.Tracker.Username = username
	}
	if token, ok := settings[tokenKey]; ok && token != "" {
		cfg.Tracker.APIToken = token
	}

	return nil
}

// SaveTrackerSettings persists cfg's tracker settings
func SaveTrackerSettings(ctx context.Context, cfg *Config, repo SettingsRepository) error {
	if err := repo.SetSetting(ctx, "tracker.base_url", cfg.Tracker.BaseURL); err != nil {
		return fmt.Errorf("saving tracker URL: %w", err)
	}
	if err := repo.SetSetting(ctx, "tracker.username", cfg.Tracker.Username); err != nil {
		return fmt.Errorf("saving tracker username: %w", err)
	}
	if err := repo.SetSetting(ctx, tokenKey, cfg.Tracker.APIToken); err != nil {
		return fmt.Errorf("saving tracker token: %w", err)
	}

	return nil
}

// Tokens are stored reversed and base64-encoded. This keeps them out
// of casual view in the database file, nothing more.

func obfuscateToken(token string) (string, error) {
	runes := []rune(token)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return "OBFS:" + base64.StdEncoding.EncodeToString([]byte(string(runes))), nil
}

func deobfuscateToken(stored string) (string, error) {
	if !strings.HasPrefix(stored, "OBFS:") {
		return stored, nil
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(stored, "OBFS:"))
	if err != nil {
		return "", fmt.Errorf("decoding stored token: %w", err)
	}

	runes := []rune(string(decoded))
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}

	return string(runes), nil
}
