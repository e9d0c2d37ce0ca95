package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/tildaslashalef/worklog/internal/app"
	"github.com/tildaslashalef/worklog/internal/utils"
)

// SettingsCommand returns the CLI command for tracker credentials and
// other persisted settings
func SettingsCommand() *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Manage tracker credentials and persisted settings",
		Subcommands: []*cli.Command{
			{
				Name:  "set-url",
				Usage: "Set the tracker base URL",
				Action: func(c *cli.Context) error {
					return setTrackerValue(c, "URL", func(a *app.App, v string) error {
						return a.Settings.SetTrackerURL(c.Context, v)
					})
				},
			},
			{
				Name:  "set-username",
				Usage: "Set the tracker account name",
				Action: func(c *cli.Context) error {
					return setTrackerValue(c, "username", func(a *app.App, v string) error {
						return a.Settings.SetUsername(c.Context, v)
					})
				},
			},
			{
				Name:  "set-token",
				Usage: "Set the tracker API token",
				Action: func(c *cli.Context) error {
					return setTrackerValue(c, "token", func(a *app.App, v string) error {
						return a.Settings.SetToken(c.Context, v)
					})
				},
			},
			{
				Name:  "list",
				Usage: "List every persisted setting",
				Action: func(c *cli.Context) error {
					application, err := app.FromContext(c)
					if err != nil {
						return fmt.Errorf("getting application from context: %w", err)
					}

					settings, err := application.Settings.GetSettings(c.Context, "")
					if err != nil {
						return fmt.Errorf("listing settings: %w", err)
					}
					if len(settings) == 0 {
						utils.PrintInfo("No settings stored")
						return nil
					}

					keys := make([]string, 0, len(settings))
					for k := range settings {
						keys = append(keys, k)
					}
					sort.Strings(keys)
					for _, k := range keys {
						v := settings[k]
						if strings.HasSuffix(k, "token") {
							v = maskToken(v)
						}
						utils.PrintKeyValue(k, v)
					}
					return nil
				},
			},
			{
				Name:      "unset",
				Usage:     "Remove a persisted setting",
				ArgsUsage: "<key>",
				Action: func(c *cli.Context) error {
					key := strings.TrimSpace(c.Args().First())
					if key == "" {
						return fmt.Errorf("missing key argument")
					}

					application, err := app.FromContext(c)
					if err != nil {
						return fmt.Errorf("getting application from context: %w", err)
					}
					if err := application.Settings.DeleteSetting(c.Context, key); err != nil {
						return fmt.Errorf("removing setting: %w", err)
					}
					utils.PrintSuccess("Setting " + key + " removed")
					return nil
				},
			},
			{
				Name:  "show",
				Usage: "Show the stored tracker settings",
				Action: func(c *cli.Context) error {
					application, err := app.FromContext(c)
					if err != nil {
						return fmt.Errorf("getting application from context: %w", err)
					}

					cfg := application.Config.Tracker
					utils.PrintKeyValue("Tracker URL", orUnset(cfg.BaseURL))
					utils.PrintKeyValue("Username", orUnset(cfg.Username))
					utils.PrintKeyValue("API token", maskToken(cfg.APIToken))
					return nil
				},
			},
		},
	}
}

func setTrackerValue(c *cli.Context, what string, set func(*app.App, string) error) error {
	value := strings.TrimSpace(c.Args().First())
	if value == "" {
		return fmt.Errorf("missing %s argument", what)
	}

	application, err := app.FromContext(c)
	if err != nil {
		return fmt.Errorf("getting application from context: %w", err)
	}
	if err := set(application, value); err != nil {
		return fmt.Errorf("saving %s: %w", what, err)
	}

	utils.PrintSuccess("Tracker " + what + " saved")
	return nil
}

func orUnset(v string) string {
	if v == "" {
		return "(unset)"
	}
	return v
}

func maskToken(token string) string {
	if token == "" {
		return "(unset)"
	}
	if len(token) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(token)-4) + token[len(token)-4:]
}
