package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/tildaslashalef/worklog/internal/app"
	"github.com/tildaslashalef/worklog/internal/meeting"
	"github.com/tildaslashalef/worklog/internal/utils"
)

// calendarEvent is one entry of a calendar JSON export
type calendarEvent struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Declined bool      `json:"declined"`
}

// MeetingsCommand returns the CLI command for calendar meetings
func MeetingsCommand() *cli.Command {
	return &cli.Command{
		Name:  "meetings",
		Usage: "Import and list calendar meetings",
		Subcommands: []*cli.Command{
			importMeetingsCommand(),
			listMeetingsCommand(),
		},
	}
}

func importMeetingsCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import meetings from a calendar JSON export",
		ArgsUsage: "<file>",
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				return fmt.Errorf("missing export file argument")
			}

			application, err := app.FromContext(c)
			if err != nil {
				return fmt.Errorf("getting application from context: %w", err)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			var events []calendarEvent
			if err := json.Unmarshal(data, &events); err != nil {
				return fmt.Errorf("parsing %s: %w", path, err)
			}

			meetings := make([]*meeting.Meeting, 0, len(events))
			for _, ev := range events {
				if ev.ID == "" || ev.Title == "" {
					utils.PrintWarning(fmt.Sprintf("Skipping event without id or title: %+v", ev))
					continue
				}
				meetings = append(meetings, &meeting.Meeting{
					ExternalID: ev.ID,
					Title:      ev.Title,
					StartTime:  ev.Start,
					EndTime:    ev.End,
					Declined:   ev.Declined,
				})
			}

			count, err := application.Meetings.Import(c.Context, meetings)
			if err != nil {
				return fmt.Errorf("importing meetings: %w", err)
			}
			utils.PrintSuccess(fmt.Sprintf("Imported %d meeting(s)", count))
			return nil
		},
	}
}

func listMeetingsCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List the meetings in the working window",
		Action: func(c *cli.Context) error {
			application, err := app.FromContext(c)
			if err != nil {
				return fmt.Errorf("getting application from context: %w", err)
			}

			snap, err := application.Snapshots.Collect(c.Context)
			if err != nil {
				return fmt.Errorf("collecting meetings: %w", err)
			}
			if len(snap.Meetings) == 0 {
				utils.PrintInfo("No meetings in the working window")
				return nil
			}

			t := utils.NewTable("Title", "Start", "Hours", "Issue", "Declined")
			for _, mt := range snap.Meetings {
				issueKey := ""
				if mt.IssueKey != nil {
					issueKey = *mt.IssueKey
				}
				declined := ""
				if mt.Declined {
					declined = "yes"
				}
				t.AppendRow([]interface{}{
					mt.Title,
					mt.StartTime.Format("2006-01-02 15:04"),
					fmt.Sprintf("%.1f", mt.Hours()),
					issueKey,
					declined,
				})
			}
			t.Render()
			return nil
		},
	}
}
