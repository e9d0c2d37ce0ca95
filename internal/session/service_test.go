package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSessionsSplitsOnGap(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	commits := []commitInfo{
		{when: base, message: "PROJ-1: start refactor"},
		{when: base.Add(30 * time.Minute), message: "wip"},
		{when: base.Add(1 * time.Hour), message: "PROJ-2: fix tests"},
		// Long lunch, new session
		{when: base.Add(5 * time.Hour), message: "PROJ-1: finish refactor"},
	}

	sessions := buildSessions("svc", "main", SourceLocal, commits)
	require.Len(t, sessions, 2)

	first := sessions[0]
	assert.Equal(t, 3, first.CommitCount)
	assert.Equal(t, base, first.StartTime)
	assert.Equal(t, base.Add(1*time.Hour), first.EndTime)
	assert.Equal(t, []string{"PROJ-1", "PROJ-2"}, first.IssueKeys)
	assert.Equal(t, "main", first.Branch)

	second := sessions[1]
	assert.Equal(t, 1, second.CommitCount)
	assert.Equal(t, []string{"PROJ-1"}, second.IssueKeys)
}

func TestBuildSessionsUnsortedInput(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	commits := []commitInfo{
		{when: base.Add(time.Hour), message: "later"},
		{when: base, message: "earlier"},
	}

	sessions := buildSessions("svc", "", SourceGitHub, commits)
	require.Len(t, sessions, 1)
	assert.Equal(t, base, sessions[0].StartTime)
	assert.Equal(t, base.Add(time.Hour), sessions[0].EndTime)
}

func TestBuildSessionsEmpty(t *testing.T) {
	assert.Nil(t, buildSessions("svc", "", SourceLocal, nil))
}

func TestSessionHours(t *testing.T) {
	s := &Session{
		StartTime: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2025, 3, 10, 11, 30, 0, 0, time.UTC),
	}
	assert.InDelta(t, 2.5, s.Hours(), 0.001)
}
