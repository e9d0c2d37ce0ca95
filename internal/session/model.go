// Package session provides coding session tracking from git activity
package session

import (
	"strings"
	"time"
)

// Source records where a session was observed
type Source string

const (
	// SourceLocal is a session reconstructed from a local repository
	SourceLocal Source = "local"
	// SourceGitHub is a session reconstructed from GitHub events
	SourceGitHub Source = "github"
)

// Session represents a contiguous stretch of coding activity in one
// repository
type Session struct {
	ID          string
	Repo        string
	Branch      string
	Source      Source
	StartTime   time.Time
	EndTime     time.Time
	CommitCount int
	IssueKeys   []string
	CreatedAt   time.Time
}

// Hours returns the session duration in hours
func (s *Session) Hours() float64 {
	if s.EndTime.Before(s.StartTime) {
		return 0
	}
	return s.EndTime.Sub(s.StartTime).Hours()
}

// Day returns the session's calendar day at midnight UTC
func (s *Session) Day() time.Time {
	return s.StartTime.UTC().Truncate(24 * time.Hour)
}

// joinKeys flattens issue keys for storage
func joinKeys(keys []string) string {
	return strings.Join(keys, ",")
}

// splitKeys parses stored issue keys
func splitKeys(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
