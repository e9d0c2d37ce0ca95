package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/tildaslashalef/worklog/internal/app"
	"github.com/tildaslashalef/worklog/internal/utils"
	"github.com/tildaslashalef/worklog/internal/worklog"
)

// WorklogsCommand returns the CLI command for worklog bookkeeping
// outside the dashboard
func WorklogsCommand() *cli.Command {
	return &cli.Command{
		Name:    "worklogs",
		Aliases: []string{"wl"},
		Usage:   "List and push local worklogs",
		Subcommands: []*cli.Command{
			listWorklogsCommand(),
			pushWorklogsCommand(),
			historyCommand(),
		},
	}
}

func listWorklogsCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List the worklogs in the working window",
		Action: func(c *cli.Context) error {
			application, err := app.FromContext(c)
			if err != nil {
				return fmt.Errorf("getting application from context: %w", err)
			}

			snap, err := application.Snapshots.Collect(c.Context)
			if err != nil {
				return fmt.Errorf("collecting worklogs: %w", err)
			}

			if len(snap.Worklogs) == 0 {
				utils.PrintInfo("No worklogs in the working window")
				return nil
			}

			t := utils.NewTable("Issue", "Date", "Hours", "Status", "Source", "Comment")
			total := 0.0
			for _, wl := range snap.Worklogs {
				t.AppendRow([]interface{}{
					wl.IssueKey,
					wl.WorkDate.Format("2006-01-02"),
					fmt.Sprintf("%.2f", wl.Hours),
					wl.Status,
					wl.Source,
					wl.Comment,
				})
				total += wl.Hours
			}
			t.AppendFooter([]interface{}{"", "Total", fmt.Sprintf("%.2f", total)})
			t.Render()
			return nil
		},
	}
}

func pushWorklogsCommand() *cli.Command {
	return &cli.Command{
		Name:  "push",
		Usage: "Stage every draft worklog and push to the tracker",
		Action: func(c *cli.Context) error {
			application, err := app.FromContext(c)
			if err != nil {
				return fmt.Errorf("getting application from context: %w", err)
			}

			staged, err := application.Worklogs.StageAll(c.Context)
			if err != nil {
				return fmt.Errorf("staging worklogs: %w", err)
			}
			if staged > 0 {
				utils.PrintInfo(fmt.Sprintf("Staged %d draft worklog(s)", staged))
			}

			result, err := application.Worklogs.Push(c.Context, func(done, total int) {
				fmt.Printf("\rPushing %d/%d", done, total)
			})
			if err != nil {
				return fmt.Errorf("pushing worklogs: %w", err)
			}
			fmt.Println()

			if result.Pushed == 0 && result.Failed == 0 {
				utils.PrintInfo("Nothing staged, nothing pushed")
				return nil
			}

			utils.PrintSuccess(fmt.Sprintf("Pushed %s worklog(s), %.2fh as %s",
				color.GreenString("%d", result.Pushed),
				result.TotalHours,
				color.CyanString(result.HistoryName)))
			if result.Failed > 0 {
				utils.PrintWarning(fmt.Sprintf("%d worklog(s) failed and stay staged", result.Failed))
			}
			return nil
		},
	}
}

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List past pushes",
		Action: func(c *cli.Context) error {
			application, err := app.FromContext(c)
			if err != nil {
				return fmt.Errorf("getting application from context: %w", err)
			}

			entries, err := application.Worklogs.History(c.Context)
			if err != nil {
				return fmt.Errorf("listing history: %w", err)
			}
			if len(entries) == 0 {
				utils.PrintInfo("Nothing pushed yet")
				return nil
			}

			t := utils.NewTable("Name", "Items", "Hours", "Pushed", "State")
			for _, e := range entries {
				t.AppendRow([]interface{}{
					e.Name,
					e.ItemCount,
					fmt.Sprintf("%.2f", e.TotalHours),
					e.PushedAt.Format("2006-01-02 15:04"),
					historyState(e),
				})
			}
			t.Render()
			return nil
		},
	}
}

func historyState(e *worklog.HistoryEntry) string {
	if e.Reverted() {
		return color.YellowString("reverted")
	}
	return color.GreenString("pushed")
}
