// Package snapshot builds the immutable read-model the dashboard
// renders from. Collect hits every service and must therefore run in
// a background operation, never on the render path.
package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/tildaslashalef/worklog/internal/achievement"
	"github.com/tildaslashalef/worklog/internal/issue"
	"github.com/tildaslashalef/worklog/internal/loggy"
	"github.com/tildaslashalef/worklog/internal/meeting"
	"github.com/tildaslashalef/worklog/internal/session"
	"github.com/tildaslashalef/worklog/internal/sprint"
	"github.com/tildaslashalef/worklog/internal/worklog"
)

// defaultWindow is the lookback used when no sprint is followed
const defaultWindow = 14 * 24 * time.Hour

// Snapshot is one consistent view of everything the dashboard shows
type Snapshot struct {
	CollectedAt time.Time

	// Followed is the sprint the dashboard works against, nil if none
	Followed *sprint.Sprint
	Sprints  []*sprint.Sprint
	Issues   []*issue.Issue
	Meetings []*meeting.Meeting
	Worklogs []*worklog.LocalWorklog
	Sessions []*session.Session
	History  []*worklog.HistoryEntry
	Unlocks  []achievement.Unlock

	// From/To is the window the meeting, worklog and session lists
	// cover
	From time.Time
	To   time.Time
}

// StagedCount returns the number of worklogs staged for pushing
func (s *Snapshot) StagedCount() int {
	n := 0
	for _, w := range s.Worklogs {
		if w.Status == worklog.StatusStaged {
			n++
		}
	}
	return n
}

// LinkedMeetings returns the non-declined meetings linked to an issue
func (s *Snapshot) LinkedMeetings() []*meeting.Meeting {
	var out []*meeting.Meeting
	for _, m := range s.Meetings {
		if !m.Declined && m.Linked() {
			out = append(out, m)
		}
	}
	return out
}

// UnlinkedMeetings returns the non-declined meetings without a link
func (s *Snapshot) UnlinkedMeetings() []*meeting.Meeting {
	var out []*meeting.Meeting
	for _, m := range s.Meetings {
		if !m.Declined && !m.Linked() {
			out = append(out, m)
		}
	}
	return out
}

// IsUnlocked reports whether an achievement appears in the snapshot
func (s *Snapshot) IsUnlocked(a achievement.Achievement) bool {
	for _, u := range s.Unlocks {
		if u.Achievement == a {
			return true
		}
	}
	return false
}

// DailyTotal sums the hours of the snapshot's worklogs on a day
func (s *Snapshot) DailyTotal(day time.Time) float64 {
	day = day.UTC().Truncate(24 * time.Hour)
	total := 0.0
	for _, w := range s.Worklogs {
		if w.Day().Equal(day) {
			total += w.Hours
		}
	}
	return total
}

// Collector assembles snapshots from the domain services
type Collector struct {
	sprints      *sprint.Service
	issues       *issue.Service
	meetings     *meeting.Service
	worklogs     *worklog.Service
	sessions     *session.Service
	achievements *achievement.Service
	logger       *loggy.Logger
}

// NewCollector creates a snapshot collector
func NewCollector(
	sprints *sprint.Service,
	issues *issue.Service,
	meetings *meeting.Service,
	worklogs *worklog.Service,
	sessions *session.Service,
	achievements *achievement.Service,
	logger *loggy.Logger,
) *Collector {
	return &Collector{
		sprints:      sprints,
		issues:       issues,
		meetings:     meetings,
		worklogs:     worklogs,
		sessions:     sessions,
		achievements: achievements,
		logger:       logger,
	}
}

// Collect builds a fresh snapshot
func (c *Collector) Collect(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{CollectedAt: time.Now().UTC()}

	followed, err := c.sprints.Followed(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading followed sprint: %w", err)
	}
	snap.Followed = followed

	snap.Sprints, err = c.sprints.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sprints: %w", err)
	}

	if followed != nil {
		snap.From = followed.StartDate
		snap.To = followed.EndDate
		snap.Issues, err = c.issues.List(ctx, followed.ID)
		if err != nil {
			return nil, fmt.Errorf("listing issues: %w", err)
		}
	} else {
		snap.To = snap.CollectedAt
		snap.From = snap.To.Add(-defaultWindow)
	}

	snap.Meetings, err = c.meetings.List(ctx, snap.From, snap.To)
	if err != nil {
		return nil, fmt.Errorf("listing meetings: %w", err)
	}

	snap.Worklogs, err = c.worklogs.List(ctx, snap.From, snap.To)
	if err != nil {
		return nil, fmt.Errorf("listing worklogs: %w", err)
	}

	snap.Sessions, err = c.sessions.List(ctx, snap.From, snap.To)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	snap.History, err = c.worklogs.History(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}

	snap.Unlocks, err = c.achievements.Unlocks(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing achievements: %w", err)
	}

	return snap, nil
}
