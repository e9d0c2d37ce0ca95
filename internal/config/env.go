package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// LoadFromEnv loads configuration from environment variables.
// configDir is the directory containing config files (empty for the
// default ~/.worklog); configFilePath points at a .env file (empty for
// <configDir>/.env).
func LoadFromEnv(configDir string, configFilePath string) (*Config, error) {
	cfg := New()

	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".worklog")
		if err := os.MkdirAll(configDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	cfg.configDir = configDir

	// Defaults that depend on the config directory
	cfg.Database.Path = filepath.Join(configDir, "worklog.db")
	defaultLogPath := filepath.Join(configDir, "worklog.log")

	if configFilePath == "" {
		configFilePath = filepath.Join(configDir, ".env")
	}

	// WORKLOG_ENV_FILE overrides where the .env is read from
	if envFilePath := getEnvString("WORKLOG_ENV_FILE", ""); envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			return nil, fmt.Errorf("failed to load env file from %s: %w", envFilePath, err)
		}
	} else if err := godotenv.Load(configFilePath); err != nil {
		// Fall back to a .env in the current directory, ignoring absence
		_ = godotenv.Load()
	}

	cfg.Tracker = TrackerConfig{
		BaseURL:        getEnvString("WORKLOG_TRACKER_BASE_URL", ""),
		Username:       getEnvString("WORKLOG_TRACKER_USERNAME", ""),
		APIToken:       getEnvString("WORKLOG_TRACKER_API_TOKEN", ""),
		RequestTimeout: getEnvDuration("WORKLOG_TRACKER_REQUEST_TIMEOUT", cfg.Tracker.RequestTimeout),
		MaxRetries:     getEnvInt("WORKLOG_TRACKER_MAX_RETRIES", cfg.Tracker.MaxRetries),
		RequestsPerSec: getEnvFloat("WORKLOG_TRACKER_REQUESTS_PER_SEC", cfg.Tracker.RequestsPerSec),
	}

	cfg.GitHub = GitHubConfig{
		Token:          getEnvString("WORKLOG_GITHUB_TOKEN", ""),
		Organisation:   getEnvString("WORKLOG_GITHUB_ORG", ""),
		LocalRepos:     splitList(getEnvString("WORKLOG_GITHUB_LOCAL_REPOS", "")),
		RequestTimeout: getEnvDuration("WORKLOG_GITHUB_REQUEST_TIMEOUT", cfg.GitHub.RequestTimeout),
	}

	cfg.Worklog = WorklogConfig{
		DailyHoursLimit: getEnvFloat("WORKLOG_DAILY_HOURS_LIMIT", cfg.Worklog.DailyHoursLimit),
		GapMinimumHours: getEnvFloat("WORKLOG_GAP_MINIMUM_HOURS", cfg.Worklog.GapMinimumHours),
	}

	cfg.Database = DatabaseConfig{
		Path:            getEnvString("WORKLOG_DB_PATH", cfg.Database.Path),
		JournalMode:     getEnvString("WORKLOG_DB_JOURNAL_MODE", cfg.Database.JournalMode),
		SynchronousMode: getEnvString("WORKLOG_DB_SYNCHRONOUS", cfg.Database.SynchronousMode),
		BusyTimeout:     getEnvInt("WORKLOG_DB_BUSY_TIMEOUT", cfg.Database.BusyTimeout),
		CacheSize:       getEnvInt("WORKLOG_DB_CACHE_SIZE", cfg.Database.CacheSize),
		ForeignKeys:     getEnvBool("WORKLOG_DB_FOREIGN_KEYS", cfg.Database.ForeignKeys),
		ConnMaxLife:     getEnvDuration("WORKLOG_DB_CONN_MAX_LIFE", cfg.Database.ConnMaxLife),
		QueryTimeout:    getEnvDuration("WORKLOG_DB_QUERY_TIMEOUT", cfg.Database.QueryTimeout),
	}

	cfg.Logging = LoggingConfig{
		Level:      getEnvString("WORKLOG_LOG_LEVEL", cfg.Logging.Level),
		Format:     getEnvString("WORKLOG_LOG_FORMAT", cfg.Logging.Format),
		Output:     getEnvString("WORKLOG_LOG_OUTPUT", defaultLogPath),
		AddSource:  getEnvBool("WORKLOG_LOG_ADD_SOURCE", false),
		TimeFormat: cfg.Logging.TimeFormat,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
