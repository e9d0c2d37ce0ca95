package commands

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/tildaslashalef/worklog/internal/database"
	"github.com/tildaslashalef/worklog/internal/utils"
)

// MigrateCommand returns the CLI command for database migrations
func MigrateCommand() *cli.Command {
	return &cli.Command{
		Name:   "migrate",
		Usage:  "Manage database migrations",
		Hidden: true,
		Subcommands: []*cli.Command{
			{
				Name:  "up",
				Usage: "Apply all pending migrations",
				Action: func(c *cli.Context) error {
					utils.PrintInfo("Applying embedded migrations")
					if err := database.RunMigrations(); err != nil {
						utils.PrintError(fmt.Sprintf("Failed to apply migrations: %s", err))
						return fmt.Errorf("applying migrations: %w", err)
					}
					utils.PrintSuccess("Database schema is up-to-date")
					return nil
				},
			},
			{
				Name:  "down",
				Usage: "Revert migrations",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "steps",
						Usage: "Number of migrations to revert",
						Value: 1,
					},
				},
				Action: func(c *cli.Context) error {
					steps := c.Int("steps")
					utils.PrintWarning(fmt.Sprintf("Reverting %d migration(s)", steps))
					if err := database.RevertMigrations(steps); err != nil {
						utils.PrintError(fmt.Sprintf("Failed to revert migrations: %s", err))
						return fmt.Errorf("reverting migrations: %w", err)
					}
					utils.PrintSuccess("Migration(s) reverted")
					return nil
				},
			},
			{
				Name:  "status",
				Usage: "Show the current schema version",
				Action: func(c *cli.Context) error {
					version, dirty, err := database.MigrationVersion()
					if err != nil {
						return fmt.Errorf("reading migration version: %w", err)
					}
					state := "clean"
					if dirty {
						state = "dirty"
					}
					utils.PrintKeyValue("Schema version", fmt.Sprintf("%d (%s)", version, state))
					return nil
				},
			},
		},
	}
}
