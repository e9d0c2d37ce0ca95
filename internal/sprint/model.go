// Package sprint provides sprint tracking for the worklog application
package sprint

import (
	"time"

	"github.com/tildaslashalef/worklog/internal/tracker"
)

// State represents the lifecycle state of a sprint
type State string

const (
	// StateActive is a sprint currently in progress
	StateActive State = "active"
	// StateClosed is a finished sprint
	StateClosed State = "closed"
	// StateFuture is a sprint that has not started yet
	StateFuture State = "future"
)

// Sprint represents a sprint mirrored from the tracker
type Sprint struct {
	ID         string
	Name       string
	State      State
	StartDate  time.Time
	EndDate    time.Time
	IsFollowed bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// FromRemote builds a local sprint from its tracker representation
func FromRemote(r tracker.Sprint) *Sprint {
	now := time.Now().UTC()
	state := State(r.State)
	if state != StateActive && state != StateClosed && state != StateFuture {
		state = StateActive
	}
	return &Sprint{
		ID:        r.ID,
		Name:      r.Name,
		State:     state,
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Contains reports whether t falls within the sprint date range
func (s *Sprint) Contains(t time.Time) bool {
	return !t.Before(s.StartDate) && !t.After(s.EndDate)
}

// WorkDays returns the weekdays covered by the sprint, one timestamp
// per day at midnight UTC
func (s *Sprint) WorkDays() []time.Time {
	var days []time.Time
	start := s.StartDate.UTC().Truncate(24 * time.Hour)
	end := s.EndDate.UTC().Truncate(24 * time.Hour)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		days = append(days, d)
	}
	return days
}
