package commands

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v2"

	"github.com/tildaslashalef/worklog/internal/app"
	"github.com/tildaslashalef/worklog/internal/tui"
)

// TuiCommand returns the CLI command for the interactive dashboard
func TuiCommand() *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Open the interactive worklog dashboard",
		Action: func(c *cli.Context) error {
			application, err := app.FromContext(c)
			if err != nil {
				return fmt.Errorf("getting application from context: %w", err)
			}

			p := tea.NewProgram(tui.NewModel(application), tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("running dashboard: %w", err)
			}
			return nil
		},
	}
}
