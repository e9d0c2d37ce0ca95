// Package issue provides tracked issue storage for the worklog application
package issue

import (
	"time"

	"github.com/tildaslashalef/worklog/internal/tracker"
)

// Issue represents a tracker issue mirrored locally
type Issue struct {
	Key       string
	SprintID  *string
	Summary   string
	Status    string
	Assignee  *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FromRemote builds a local issue from its tracker representation
func FromRemote(r tracker.Issue) *Issue {
	now := time.Now().UTC()
	iss := &Issue{
		Key:       r.Key,
		Summary:   r.Summary,
		Status:    r.Status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if r.SprintID != "" {
		sprintID := r.SprintID
		iss.SprintID = &sprintID
	}
	if r.Assignee != "" {
		assignee := r.Assignee
		iss.Assignee = &assignee
	}
	return iss
}
