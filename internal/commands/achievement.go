package commands

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/tildaslashalef/worklog/internal/achievement"
	"github.com/tildaslashalef/worklog/internal/app"
	"github.com/tildaslashalef/worklog/internal/utils"
)

// AchievementsCommand returns the CLI command for inspecting and
// resetting achievement unlocks
func AchievementsCommand() *cli.Command {
	return &cli.Command{
		Name:  "achievements",
		Usage: "Show or reset achievements",
		Subcommands: []*cli.Command{
			listAchievementsCommand(),
			resetAchievementsCommand(),
		},
	}
}

func listAchievementsCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List achievements and their unlock state",
		Action: func(c *cli.Context) error {
			application, err := app.FromContext(c)
			if err != nil {
				return fmt.Errorf("getting application from context: %w", err)
			}

			unlocks, err := application.Achievements.Unlocks(c.Context)
			if err != nil {
				return fmt.Errorf("listing unlocks: %w", err)
			}

			unlockedAt := make(map[achievement.Achievement]string, len(unlocks))
			for _, u := range unlocks {
				unlockedAt[u.Achievement] = u.UnlockedAt.Format("2006-01-02 15:04")
			}

			t := utils.NewTable("", "Achievement", "Description", "Unlocked")
			for _, a := range achievement.All() {
				meta := a.Meta()
				when, unlocked := unlockedAt[a]
				switch {
				case unlocked:
					t.AppendRow([]interface{}{meta.Icon, meta.Name, meta.Description, when})
				case meta.Secret:
					t.AppendRow([]interface{}{"🔒", "???", "", ""})
				default:
					t.AppendRow([]interface{}{"🔒", meta.Name, meta.Description, ""})
				}
			}
			t.Render()
			return nil
		},
	}
}

func resetAchievementsCommand() *cli.Command {
	return &cli.Command{
		Name:  "reset",
		Usage: "Remove every achievement unlock",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "yes",
				Usage: "Skip the confirmation prompt",
			},
		},
		Action: func(c *cli.Context) error {
			application, err := app.FromContext(c)
			if err != nil {
				return fmt.Errorf("getting application from context: %w", err)
			}

			any, err := application.Achievements.HasAnyUnlocked(c.Context)
			if err != nil {
				return fmt.Errorf("checking unlocks: %w", err)
			}
			if !any {
				utils.PrintInfo("Nothing unlocked yet")
				return nil
			}

			if !c.Bool("yes") {
				fmt.Print("Remove all achievement unlocks? [y/N] ")
				var answer string
				fmt.Scanln(&answer)
				if answer != "y" && answer != "Y" {
					utils.PrintInfo("Reset cancelled")
					return nil
				}
			}

			if err := application.Achievements.ResetAll(c.Context); err != nil {
				return fmt.Errorf("resetting achievements: %w", err)
			}
			utils.PrintSuccess("Achievements reset")
			return nil
		},
	}
}
