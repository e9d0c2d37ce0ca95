package tui

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tildaslashalef/worklog/internal/achievement"
	"github.com/tildaslashalef/worklog/internal/app"
	"github.com/tildaslashalef/worklog/internal/branding"
	"github.com/tildaslashalef/worklog/internal/config"
	"github.com/tildaslashalef/worklog/internal/loggy"
	"github.com/tildaslashalef/worklog/internal/meeting"
	"github.com/tildaslashalef/worklog/internal/session"
	"github.com/tildaslashalef/worklog/internal/snapshot"
	"github.com/tildaslashalef/worklog/internal/sprint"
	"github.com/tildaslashalef/worklog/internal/worklog"
)

// newTestModel wires a model around a mocked database. Services not
// touched by a test stay nil.
func newTestModel(t *testing.T) (*Model, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := loggy.NewNoopLogger()
	m := &Model{
		app: &app.App{
			Config:       config.New(),
			Worklogs:     worklog.NewService(db, nil, logger),
			Meetings:     meeting.NewService(db, nil, logger),
			Achievements: achievement.NewService(db, logger),
			Branding:     branding.Load(),
		},
		bus:     NewBus(),
		cursors: make(map[Tab]int),
		keys:    DefaultKeyMap(),
		styles:  DefaultStyles(),
		logs:    loggy.NewCollector(20),
	}
	m.ops = NewOps(m.bus, logger)
	m.wizard = NewWizard()
	m.confirm = NewConfirm()
	return m, mock
}

// freshWizardState puts a run into the given step without walking the
// earlier stages
func freshWizardState(m *Model, step Step) *wizardState {
	st := &wizardState{
		sprintID:      "sp1",
		sprintName:    "Sprint 12",
		step:          step,
		completed:     make(map[Step]bool),
		skipReasons:   make(map[Step]string),
		linkedThisRun: make(map[string]string),
		dayTotals:     make(map[time.Time]float64),
		rollback:      rollbackLog{originalLinks: make(map[string]*string)},
	}
	m.wizard.state = st
	return st
}

func pastSprint() *sprint.Sprint {
	// A full business week, safely in the past
	return &sprint.Sprint{
		ID:        "sp1",
		Name:      "Sprint 12",
		StartDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC),
	}
}

func TestWizardLaunchNeedsFollowedSprint(t *testing.T) {
	m, _ := newTestModel(t)
	m.snap = &snapshot.Snapshot{}

	m.wizard.Launch(m)

	assert.Nil(t, m.wizard.state)
	assert.True(t, m.statusErr)
}

func TestWizardCancelRefusedWhilePushing(t *testing.T) {
	m, _ := newTestModel(t)
	freshWizardState(m, StepPushing)

	m.wizard.RequestCancel(m)

	assert.NotNil(t, m.wizard.state)
	assert.Equal(t, ConfirmNone, m.confirm.Active())
	assert.True(t, m.statusErr)
}

func TestWizardCancelConfirmFlow(t *testing.T) {
	m, _ := newTestModel(t)
	freshWizardState(m, StepManualLinking)

	m.wizard.RequestCancel(m)
	require.Equal(t, ConfirmWizardCancel, m.confirm.Active())

	// Declining resumes the run untouched
	m.confirm.HandleKey(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})
	assert.Equal(t, ConfirmNone, m.confirm.Active())
	assert.NotNil(t, m.wizard.state)
	assert.Equal(t, StepManualLinking, m.wizard.state.step)
}

func TestWizardSkipsEmptySteps(t *testing.T) {
	m, mock := newTestModel(t)
	m.snap = &snapshot.Snapshot{Followed: pastSprint()}
	st := freshWizardState(m, StepSessionWorklogs)

	// Gap scan: every sprint work day is fully logged
	for i := 0; i < 5; i++ {
		mock.ExpectQuery("SELECT COALESCE").
			WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(8.0))
	}
	// Review: no drafts to stage, nothing staged
	mock.ExpectQuery("SELECT .+ FROM worklogs WHERE status").
		WillReturnRows(sqlmock.NewRows(worklogColumnsForTest()))
	mock.ExpectQuery("SELECT .+ FROM worklogs WHERE status").
		WillReturnRows(sqlmock.NewRows(worklogColumnsForTest()))

	m.wizard.enterSessionWorklogs(m)

	assert.Equal(t, StepComplete, st.step)
	assert.Equal(t, "no items found", st.skipReasons[StepSessionWorklogs])
	assert.Equal(t, "no gap days", st.skipReasons[StepFillingGaps])
	assert.Equal(t, "nothing to push", st.skipReasons[StepReviewing])
	assert.Equal(t, "nothing to push", st.skipReasons[StepPushing])
	for _, step := range []Step{StepSessionWorklogs, StepFillingGaps, StepReviewing, StepPushing} {
		assert.True(t, st.completed[step], step.String())
	}

	// The run's end is announced for the next bus pass
	finished := false
	m.bus.Subscribe(subscriberFunc(func(ev Event, _ *Model) {
		if _, ok := ev.(WizardFinishedEvent); ok {
			finished = true
		}
	}))
	m.bus.Process(m)
	assert.True(t, finished)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWizardRollbackOnCancel(t *testing.T) {
	m, mock := newTestModel(t)
	st := freshWizardState(m, StepManualLinking)

	origKey := "PROJ-7"
	st.rollback.createdWorklogIDs = []string{"wl1"}
	st.rollback.linkedMeetingIDs = []string{"mtg1", "mtg-gone"}
	st.rollback.originalLinks = map[string]*string{
		"mtg1":     &origKey,
		"mtg-gone": nil,
	}

	// Created worklog is looked up, then removed
	mock.ExpectQuery("SELECT .+ FROM worklogs WHERE id").
		WillReturnRows(sqlmock.NewRows(worklogColumnsForTest()).
			AddRow("wl1", "PROJ-1", time.Now(), 2.5, "standup", "created", "meeting", nil, nil, time.Now(), time.Now()))
	mock.ExpectExec("DELETE FROM worklogs").
		WillReturnResult(sqlmock.NewResult(0, 1))
	// First link restored, second meeting is gone and only warned about
	mock.ExpectExec("UPDATE meetings SET issue_key").
		WithArgs(&origKey, "mtg1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE meetings SET issue_key").
		WillReturnResult(sqlmock.NewResult(0, 0))

	m.wizard.confirmCancel(m)

	assert.Nil(t, m.wizard.state)
	assert.False(t, m.statusErr)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWizardAbortsWhenRefreshFails(t *testing.T) {
	m, _ := newTestModel(t)
	freshWizardState(m, StepSyncing)

	m.wizard.OnEvent(RefreshFailedEvent{Reason: "db locked"}, m)

	assert.Nil(t, m.wizard.state)
	assert.True(t, m.statusErr)
}

func TestBulkSkipRecordsRemainingCount(t *testing.T) {
	m, mock := newTestModel(t)
	m.snap = &snapshot.Snapshot{Followed: pastSprint()}
	st := freshWizardState(m, StepManualLinking)
	st.pendingMeetings = []*meeting.Meeting{{ID: "mtg1"}, {ID: "mtg2"}}

	// No linked meetings or sessions, so skipping the rest runs the
	// same empty-step chain through to the end of the run
	for i := 0; i < 5; i++ {
		mock.ExpectQuery("SELECT COALESCE").
			WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(8.0))
	}
	mock.ExpectQuery("SELECT .+ FROM worklogs WHERE status").
		WillReturnRows(sqlmock.NewRows(worklogColumnsForTest()))
	mock.ExpectQuery("SELECT .+ FROM worklogs WHERE status").
		WillReturnRows(sqlmock.NewRows(worklogColumnsForTest()))

	handled := m.wizard.HandleKey(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})

	require.True(t, handled)
	assert.True(t, st.completed[StepManualLinking])
	assert.Equal(t, "skipped 2 remaining meetings", st.skipReasons[StepManualLinking])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewCompletesWhenPushCommits(t *testing.T) {
	m, _ := newTestModel(t)
	st := freshWizardState(m, StepReviewing)
	st.pendingList = []*worklog.LocalWorklog{{ID: "wl1", IssueKey: "PROJ-1", Hours: 2}}

	handled := m.wizard.HandleKey(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	require.True(t, handled)
	assert.Equal(t, StepPushing, st.step)
	assert.True(t, st.completed[StepReviewing])
	assert.Empty(t, st.skipReasons[StepReviewing])

	m.wizard.OnEvent(PushCompleteEvent{Pushed: 2}, m)

	assert.Equal(t, StepComplete, st.step)
	assert.True(t, st.completed[StepReviewing])
	assert.True(t, st.completed[StepPushing])
}

func sessionFor(id, issueKey string, day time.Time) *session.Session {
	return &session.Session{
		ID:        id,
		Repo:      "svc",
		Branch:    "main",
		StartTime: day.Add(9 * time.Hour),
		EndTime:   day.Add(11 * time.Hour),
		IssueKeys: []string{issueKey},
	}
}

func TestDailyDetourPartialLogsReducedHours(t *testing.T) {
	m, mock := newTestModel(t)
	m.snap = &snapshot.Snapshot{}
	st := freshWizardState(m, StepSessionWorklogs)

	day := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	st.sessions = []*session.Session{
		sessionFor("ses1", "PROJ-1", day),
		sessionFor("ses2", "PROJ-2", day),
	}

	mock.ExpectExec("INSERT INTO worklogs").
		WillReturnResult(sqlmock.NewResult(0, 1))

	m.wizard.resolveDailyDetour(m, DailyPartial, 2)

	assert.Equal(t, 1, st.sessionCursor)
	assert.Equal(t, 1, st.sessionLogs)
	require.Len(t, st.rollback.createdWorklogIDs, 1)
	assert.InDelta(t, 2, st.dayTotals[day], 0.001)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDailyDetourSkipLogsNothing(t *testing.T) {
	m, mock := newTestModel(t)
	m.snap = &snapshot.Snapshot{}
	st := freshWizardState(m, StepSessionWorklogs)

	day := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	st.sessions = []*session.Session{
		sessionFor("ses1", "PROJ-1", day),
		sessionFor("ses2", "PROJ-2", day),
	}

	m.wizard.resolveDailyDetour(m, DailySkip, 2)

	assert.Equal(t, 1, st.sessionCursor)
	assert.Zero(t, st.sessionLogs)
	assert.Empty(t, st.rollback.createdWorklogIDs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func worklogColumnsForTest() []string {
	return []string{
		"id", "issue_key", "work_date", "hours", "comment", "status",
		"source", "source_id", "remote_id", "created_at", "updated_at",
	}
}
