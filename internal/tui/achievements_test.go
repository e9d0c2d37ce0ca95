package tui

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tildaslashalef/worklog/internal/achievement"
	"github.com/tildaslashalef/worklog/internal/meeting"
	"github.com/tildaslashalef/worklog/internal/snapshot"
)

// collectUnlocks registers a subscriber recording unlock announcements
func collectUnlocks(m *Model) *[]achievement.Achievement {
	var unlocked []achievement.Achievement
	m.bus.Subscribe(subscriberFunc(func(ev Event, _ *Model) {
		if e, ok := ev.(AchievementUnlockedEvent); ok {
			unlocked = append(unlocked, e.Achievement)
		}
	}))
	return &unlocked
}

func TestSecretSequenceUnlocks(t *testing.T) {
	m, mock := newTestModel(t)
	tracker := NewTracker()
	unlocked := collectUnlocks(m)

	mock.ExpectExec("INSERT INTO achievements").
		WillReturnResult(sqlmock.NewResult(0, 1))

	tracker.OnEvent(SecretSequenceEvent{Name: "secret_friend"}, m)
	m.bus.Process(m)

	assert.Equal(t, []achievement.Achievement{achievement.SecretFriend}, *unlocked)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUnknownSecretSequenceIgnored(t *testing.T) {
	m, mock := newTestModel(t)
	tracker := NewTracker()
	unlocked := collectUnlocks(m)

	tracker.OnEvent(SecretSequenceEvent{Name: "bogus"}, m)
	m.bus.Process(m)

	assert.Empty(t, *unlocked)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepeatUnlockIsSilent(t *testing.T) {
	m, mock := newTestModel(t)
	tracker := NewTracker()
	unlocked := collectUnlocks(m)

	// Already in the table: still no error, no announcement
	mock.ExpectExec("INSERT INTO achievements").
		WillReturnResult(sqlmock.NewResult(0, 0))

	tracker.OnEvent(AboutOpenedEvent{}, m)
	m.bus.Process(m)

	assert.Empty(t, *unlocked)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRevertUnlocksTheUndoer(t *testing.T) {
	m, mock := newTestModel(t)
	tracker := NewTracker()
	unlocked := collectUnlocks(m)

	mock.ExpectExec("INSERT INTO achievements").
		WillReturnResult(sqlmock.NewResult(0, 1))

	tracker.OnEvent(RevertCompleteEvent{HistoryID: "h1", Deleted: 3}, m)
	m.bus.Process(m)

	assert.Equal(t, []achievement.Achievement{achievement.TheUndoer}, *unlocked)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAutoLinkMasterNeedsFullyLinkedWindow(t *testing.T) {
	linkedMeetings := func(linked, unlinked int) []*meeting.Meeting {
		key := "PROJ-1"
		var out []*meeting.Meeting
		for i := 0; i < linked; i++ {
			out = append(out, &meeting.Meeting{ID: "l", IssueKey: &key})
		}
		for i := 0; i < unlinked; i++ {
			out = append(out, &meeting.Meeting{ID: "u"})
		}
		return out
	}

	t.Run("ten linked and none pending unlocks", func(t *testing.T) {
		m, mock := newTestModel(t)
		tracker := NewTracker()
		unlocked := collectUnlocks(m)

		mock.ExpectExec("INSERT INTO achievements").
			WillReturnResult(sqlmock.NewResult(0, 1))

		tracker.OnEvent(RefreshedEvent{Snap: &snapshot.Snapshot{
			Meetings: linkedMeetings(10, 0),
		}}, m)
		m.bus.Process(m)

		assert.Equal(t, []achievement.Achievement{achievement.AutoLinkMaster}, *unlocked)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("too few meetings does not", func(t *testing.T) {
		m, mock := newTestModel(t)
		tracker := NewTracker()
		unlocked := collectUnlocks(m)

		tracker.OnEvent(RefreshedEvent{Snap: &snapshot.Snapshot{
			Meetings: linkedMeetings(9, 0),
		}}, m)
		m.bus.Process(m)

		assert.Empty(t, *unlocked)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("pending unlinked meetings do not", func(t *testing.T) {
		m, mock := newTestModel(t)
		tracker := NewTracker()
		unlocked := collectUnlocks(m)

		tracker.OnEvent(RefreshedEvent{Snap: &snapshot.Snapshot{
			Meetings: linkedMeetings(10, 1),
		}}, m)
		m.bus.Process(m)

		assert.Empty(t, *unlocked)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPushDuringWizardUnlocksApprentice(t *testing.T) {
	m, mock := newTestModel(t)
	tracker := NewTracker()
	unlocked := collectUnlocks(m)
	freshWizardState(m, StepPushing)

	mock.ExpectExec("INSERT INTO achievements").
		WillReturnResult(sqlmock.NewResult(0, 1))
	// The remaining push checks need history data; an empty result
	// ends them without further unlocks
	mock.ExpectQuery("SELECT .+ FROM worklog_history").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	tracker.OnEvent(PushCompleteEvent{HistoryID: "h1", Pushed: 2}, m)
	m.bus.Process(m)

	assert.Equal(t, []achievement.Achievement{achievement.WizardApprentice}, *unlocked)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUnlockTimestampFlowsThrough(t *testing.T) {
	m, mock := newTestModel(t)
	tracker := NewTracker()

	var at time.Time
	m.bus.Subscribe(subscriberFunc(func(ev Event, _ *Model) {
		if e, ok := ev.(AchievementUnlockedEvent); ok {
			at = e.UnlockedAt
		}
	}))

	mock.ExpectExec("INSERT INTO achievements").
		WillReturnResult(sqlmock.NewResult(0, 1))

	before := time.Now()
	tracker.OnEvent(AboutOpenedEvent{}, m)
	m.bus.Process(m)

	assert.False(t, at.Before(before))
}
