// Package config provides application configuration loaded from the
// environment, with a process-wide instance set once at startup.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"
)

var (
	globalConfig *Config
	configMutex  sync.RWMutex
)

// Get returns the global configuration instance.
// If the configuration has not been initialized, it will return an error.
func Get() (*Config, error) {
	configMutex.RLock()
	defer configMutex.RUnlock()

	if globalConfig == nil {
		return nil, fmt.Errorf("configuration not initialized")
	}
	return globalConfig, nil
}

// Set sets the global configuration instance
func Set(cfg *Config) {
	configMutex.Lock()
	defer configMutex.Unlock()

	globalConfig = cfg
}

// Config represents the complete application configuration
type Config struct {
	Tracker   TrackerConfig
	GitHub    GitHubConfig
	Worklog   WorklogConfig
	Database  DatabaseConfig
	Logging   LoggingConfig
	configDir string // Internal: directory where config was loaded from
}

// TrackerConfig represents issue-tracker API configuration
type TrackerConfig struct {
	BaseURL        string        // Tracker REST base URL
	Username       string        // Account name used for API auth
	APIToken       string        // API token used for API auth
	RequestTimeout time.Duration // Per-request timeout
	MaxRetries     int           // Retry attempts per request
	RequestsPerSec float64       // Client-side rate limit
}

// GitHubConfig represents GitHub session-scanning configuration
type GitHubConfig struct {
	Token          string        // GitHub Personal Access Token
	Organisation   string        // Restrict event scanning to one org (optional)
	LocalRepos     []string      // Local clones to scan for commit sessions
	RequestTimeout time.Duration // Request timeout for GitHub API
}

// WorklogConfig represents worklog bookkeeping configuration
type WorklogConfig struct {
	DailyHoursLimit float64 // Ceiling applied when deriving worklogs
	GapMinimumHours float64 // Days below this total count as gaps
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Path            string        // Path to the SQLite database file
	JournalMode     string        // Journal mode (WAL recommended)
	SynchronousMode string        // Synchronous mode
	BusyTimeout     int           // Busy timeout in milliseconds
	CacheSize       int           // Cache size in KiB
	ForeignKeys     bool          // Whether to enforce foreign key constraints
	ConnMaxLife     time.Duration // Maximum connection lifetime
	QueryTimeout    time.Duration // Query timeout
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string // debug, info, warn, error
	Format     string // text or json
	Output     string // stdout, stderr, or file path
	AddSource  bool
	TimeFormat string
}

// New creates a Config populated with defaults only
func New() *Config {
	return &Config{
		Tracker: TrackerConfig{
			RequestTimeout: 30 * time.Second,
			MaxRetries:     3,
			RequestsPerSec: 5,
		},
		GitHub: GitHubConfig{
			RequestTimeout: 30 * time.Second,
		},
		Worklog: WorklogConfig{
			DailyHoursLimit: 8.0,
			GapMinimumHours: 6.0,
		},
		Database: DatabaseConfig{
			JournalMode:     "WAL",
			SynchronousMode: "NORMAL",
			BusyTimeout:     5000,
			CacheSize:       -64000,
			ForeignKeys:     true,
			ConnMaxLife:     time.Hour,
			QueryTimeout:    30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			TimeFormat: time.RFC3339,
		},
	}
}

// ConfigDir returns the directory the configuration was loaded from
func (c *Config) ConfigDir() string {
	return c.configDir
}

// Validate checks the configuration for obvious mistakes
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if c.Worklog.DailyHoursLimit <= 0 || c.Worklog.DailyHoursLimit > 24 {
		return fmt.Errorf("daily hours limit must be in (0, 24], got %v", c.Worklog.DailyHoursLimit)
	}
	if c.Worklog.GapMinimumHours < 0 || c.Worklog.GapMinimumHours > c.Worklog.DailyHoursLimit {
		return fmt.Errorf("gap minimum hours must be in [0, daily limit]")
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported log format %q", c.Logging.Format)
	}
	return nil
}

// ParseLogLevel converts a level name to a slog.Level
func ParseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Environment helpers

func getEnvString(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
