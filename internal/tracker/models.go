package tracker

import "time"

// Sprint represents a sprint as reported by the tracker
type Sprint struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	State     string    `json:"state"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

// Issue represents a tracked issue as reported by the tracker
type Issue struct {
	Key      string `json:"key"`
	Summary  string `json:"summary"`
	Status   string `json:"status"`
	Assignee string `json:"assignee,omitempty"`
	SprintID string `json:"sprintId,omitempty"`
}

// Worklog represents a worklog entry on the tracker side
type Worklog struct {
	ID       string    `json:"id,omitempty"`
	IssueKey string    `json:"issueKey"`
	Started  time.Time `json:"started"`
	Hours    float64   `json:"hours"`
	Comment  string    `json:"comment,omitempty"`
}

// sprintListResponse is the wire shape of the sprint listing endpoint
type sprintListResponse struct {
	Sprints []Sprint `json:"sprints"`
}

// issueListResponse is the wire shape of the sprint issue listing endpoint
type issueListResponse struct {
	Issues []Issue `json:"issues"`
}

// worklogResponse is the wire shape of the worklog creation endpoint
type worklogResponse struct {
	ID string `json:"id"`
}

// errorResponse is the wire shape of tracker error payloads
type errorResponse struct {
	Message string   `json:"message,omitempty"`
	Errors  []string `json:"errorMessages,omitempty"`
}
