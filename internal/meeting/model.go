// Package meeting provides calendar meeting storage and issue linking
package meeting

import "time"

// Meeting represents a calendar meeting mirrored locally
type Meeting struct {
	ID         string
	ExternalID string
	Title      string
	StartTime  time.Time
	EndTime    time.Time
	Declined   bool
	IssueKey   *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Hours returns the meeting duration in hours
func (m *Meeting) Hours() float64 {
	if m.EndTime.Before(m.StartTime) {
		return 0
	}
	return m.EndTime.Sub(m.StartTime).Hours()
}

// Linked reports whether the meeting is linked to an issue
func (m *Meeting) Linked() bool {
	return m.IssueKey != nil && *m.IssueKey != ""
}

// Day returns the meeting's calendar day at midnight UTC
func (m *Meeting) Day() time.Time {
	return m.StartTime.UTC().Truncate(24 * time.Hour)
}
