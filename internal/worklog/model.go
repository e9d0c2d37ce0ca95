// Package worklog provides local worklog drafting, pushing and history
package worklog

import "time"

// Status represents the lifecycle state of a local worklog
type Status string

const (
	// StatusCreated is a draft worklog not yet marked for pushing
	StatusCreated Status = "created"
	// StatusStaged is a worklog marked for the next push
	StatusStaged Status = "staged"
	// StatusPushed is a worklog that exists on the tracker
	StatusPushed Status = "pushed"
)

// Source records where a worklog was derived from
type Source string

const (
	// SourceMeeting is a worklog derived from a linked meeting
	SourceMeeting Source = "meeting"
	// SourceSession is a worklog derived from a coding session
	SourceSession Source = "session"
	// SourceGap is a worklog created to fill an under-logged day
	SourceGap Source = "gap"
	// SourceManual is a worklog entered by hand
	SourceManual Source = "manual"
)

// LocalWorklog represents a worklog entry in the local store
type LocalWorklog struct {
	ID        string
	IssueKey  string
	WorkDate  time.Time
	Hours     float64
	Comment   string
	Status    Status
	Source    Source
	SourceID  *string
	RemoteID  *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Day returns the worklog's calendar day at midnight UTC
func (w *LocalWorklog) Day() time.Time {
	return w.WorkDate.UTC().Truncate(24 * time.Hour)
}

// HistoryEntry represents one push recorded in the history log
type HistoryEntry struct {
	ID         string
	Name       string
	TotalHours float64
	ItemCount  int
	PushedAt   time.Time
	RevertedAt *time.Time
}

// Reverted reports whether the entry has been reverted
func (h *HistoryEntry) Reverted() bool {
	return h.RevertedAt != nil
}

// HistoryItem represents one worklog within a history entry
type HistoryItem struct {
	HistoryID string
	WorklogID string
	IssueKey  string
	WorkDate  time.Time
	Hours     float64
	RemoteID  *string
}
