package config

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tildaslashalef/worklog/internal/loggy"
)

//go:embed env.sample
var configFS embed.FS

// SetupConfigDirectory ensures the config directory exists and contains a
// sample .env the user can fill in.
func SetupConfigDirectory(configDir string, backupExisting bool) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	sampleEnvPath := filepath.Join(configDir, ".env")
	if err := extractEmbeddedFile("env.sample", sampleEnvPath, backupExisting); err != nil {
		loggy.Warn("Failed to extract sample env file", "error", err)
		// Not critical, the app runs on defaults without a .env
	}

	return nil
}

// extractEmbeddedFile extracts an embedded file to the target path if it
// doesn't exist. If backupExisting is true and the file exists, it is
// backed up before overwriting.
func extractEmbeddedFile(embeddedPath, targetPath string, backupExisting bool) error {
	if _, err := os.Stat(targetPath); err == nil {
		if !backupExisting {
			return nil
		}
		backupPath := fmt.Sprintf("%s.bak.%s", targetPath, time.Now().Format("20060102150405"))
		if err := os.Rename(targetPath, backupPath); err != nil {
			return fmt.Errorf("failed to back up existing file: %w", err)
		}
		loggy.Info("Backed up existing config file", "from", targetPath, "to", backupPath)
	}

	data, err := configFS.ReadFile(embeddedPath)
	if err != nil {
		return fmt.Errorf("failed to read embedded file %s: %w", embeddedPath, err)
	}

	if err := os.WriteFile(targetPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", targetPath, err)
	}

	return nil
}
