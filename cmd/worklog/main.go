package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/tildaslashalef/worklog/internal/app"
	"github.com/tildaslashalef/worklog/internal/commands"
)

// Version information - populated at build time
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	cliApp := &cli.App{
		Name:  "worklog",
		Usage: "Sprint worklog bookkeeping for the terminal",
		Description: "worklog mirrors your sprint from the issue tracker, reconstructs what you\n" +
			"actually worked on from meetings and commits, and pushes the resulting\n" +
			"worklogs back. Run without a subcommand to open the dashboard.",
		Version: Version,
		Compiled: func() time.Time {
			t, err := time.Parse(time.RFC3339, BuildTime)
			if err != nil {
				return time.Now()
			}
			return t
		}(),
		Before: func(c *cli.Context) error {
			application, err := app.New()
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			c.App.Metadata = map[string]interface{}{
				"app": application,
			}
			return nil
		},
		After: func(c *cli.Context) error {
			if application, ok := c.App.Metadata["app"].(*app.App); ok {
				return application.Shutdown()
			}
			return nil
		},
		Commands: []*cli.Command{
			commands.TuiCommand(),
			commands.WorklogsCommand(),
			commands.MeetingsCommand(),
			commands.AchievementsCommand(),
			commands.SettingsCommand(),
			commands.InitCommand(),
			commands.MigrateCommand(),
		},
		Action: func(c *cli.Context) error {
			// Default action is the dashboard
			return commands.TuiCommand().Action(c)
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
