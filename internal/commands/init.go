package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/tildaslashalef/worklog/internal/config"
	"github.com/tildaslashalef/worklog/internal/database"
	"github.com/tildaslashalef/worklog/internal/loggy"
	"github.com/tildaslashalef/worklog/internal/utils"
)

// InitCommand returns the CLI command for first-time setup
func InitCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Initialize or update the worklog environment",
		Description: "Sets up the configuration directory and the database schema. " +
			"Run this once before first use, or after upgrading to pick up schema changes.",
		Action: func(c *cli.Context) error {
			utils.PrintHeading("Initializing worklog")

			homeDir, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("getting user home directory: %w", err)
			}

			configDir := filepath.Join(homeDir, ".worklog")
			utils.PrintInfo("Configuration directory: " + color.YellowString("%s", configDir))

			if err := config.SetupConfigDirectory(configDir, true); err != nil {
				utils.PrintWarning(fmt.Sprintf("Failed to set up configuration files: %s", err))
				// Not critical, the app runs on defaults without a .env
			}

			cfg, err := config.LoadFromEnv(configDir, filepath.Join(configDir, ".env"))
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			config.Set(cfg)

			utils.PrintInfo("Database: " + color.YellowString("%s", cfg.Database.Path))
			if err := database.InitDB(cfg); err != nil {
				return fmt.Errorf("initializing database: %w", err)
			}
			if err := database.RunMigrations(); err != nil {
				return fmt.Errorf("applying migrations: %w", err)
			}

			// Persist credentials found in the environment so that
			// `settings show` and later runs see them without the .env
			if cfg.Tracker.BaseURL != "" || cfg.Tracker.Username != "" || cfg.Tracker.APIToken != "" {
				db, err := database.DB()
				if err != nil {
					return fmt.Errorf("getting database handle: %w", err)
				}
				repo := config.NewSQLSettingsRepository(db, loggy.GetGlobalLogger())
				if err := config.SaveTrackerSettings(c.Context, cfg, repo); err != nil {
					return fmt.Errorf("saving tracker settings: %w", err)
				}
			}

			utils.PrintSuccess("Environment ready")
			utils.PrintInfo("Fill in " + color.YellowString("%s", filepath.Join(configDir, ".env")) +
				" with your tracker credentials, then run " + color.CyanString("worklog tui"))
			return nil
		},
	}
}
