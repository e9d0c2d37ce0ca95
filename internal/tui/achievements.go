package tui

import (
	"context"
	"time"

	"github.com/tildaslashalef/worklog/internal/achievement"
	"github.com/tildaslashalef/worklog/internal/loggy"
	"github.com/tildaslashalef/worklog/internal/worklog"
)

// timelineFixerAge is how far back a pushed worklog must reach to
// count as fixing the timeline
const timelineFixerAge = 60 * 24 * time.Hour

// repeatPusherCount is the number of pushes on one day that makes a
// repeat pusher
const repeatPusherCount = 3

// autoLinkMasterFloor is the meeting count below which a fully linked
// window does not count
const autoLinkMasterFloor = 10

// Tracker watches the bus and unlocks achievements when their
// conditions hold. Unlocks are idempotent; a condition observed twice
// unlocks once.
type Tracker struct{}

// NewTracker creates the achievement tracker
func NewTracker() *Tracker {
	return &Tracker{}
}

// OnEvent checks every achievement condition the event could satisfy
func (t *Tracker) OnEvent(ev Event, m *Model) {
	switch e := ev.(type) {
	case PushCompleteEvent:
		t.onPushComplete(m, e)
	case RevertCompleteEvent:
		t.unlock(m, achievement.TheUndoer)
	case AboutOpenedEvent:
		t.unlock(m, achievement.CuriousExplorer)
	case SecretSequenceEvent:
		a := achievement.Achievement(e.Name)
		if a.Valid() {
			t.unlock(m, a)
		}
	case RefreshedEvent:
		t.onRefreshed(m, e)
	}
}

func (t *Tracker) onPushComplete(m *Model, e PushCompleteEvent) {
	if e.Pushed == 0 {
		return
	}
	if m.WizardActive() {
		t.unlock(m, achievement.WizardApprentice)
	}

	ctx := context.Background()
	entry, items, err := m.app.Worklogs.HistoryEntry(ctx, e.HistoryID)
	if err != nil || entry == nil {
		loggy.Warn("achievement check: loading push history failed", "id", e.HistoryID, "error", err)
		return
	}

	for _, item := range items {
		if entry.PushedAt.Sub(item.WorkDate) > timelineFixerAge {
			t.unlock(m, achievement.TimelineFixer)
			break
		}
	}

	if t.pushesToday(m, entry.PushedAt) >= repeatPusherCount {
		t.unlock(m, achievement.RepeatPusher)
	}

	t.checkDeclinedButLogged(m, items)
}

// pushesToday counts history entries pushed on the same day as t0
func (t *Tracker) pushesToday(m *Model, t0 time.Time) int {
	entries, err := m.app.Worklogs.History(context.Background())
	if err != nil {
		loggy.Warn("achievement check: listing history failed", "error", err)
		return 0
	}
	y, mo, d := t0.Date()
	n := 0
	for _, e := range entries {
		ey, emo, ed := e.PushedAt.Date()
		if ey == y && emo == mo && ed == d {
			n++
		}
	}
	return n
}

// checkDeclinedButLogged looks for a pushed worklog whose source
// meeting was declined
func (t *Tracker) checkDeclinedButLogged(m *Model, items []worklog.HistoryItem) {
	ctx := context.Background()
	for _, item := range items {
		wl, err := m.app.Worklogs.Get(ctx, item.WorklogID)
		if err != nil || wl.Source != worklog.SourceMeeting || wl.SourceID == nil {
			continue
		}
		mt, err := m.app.Meetings.Get(ctx, *wl.SourceID)
		if err != nil || mt == nil {
			continue
		}
		if mt.Declined {
			t.unlock(m, achievement.DeclinedButLogged)
			return
		}
	}
}

func (t *Tracker) onRefreshed(m *Model, e RefreshedEvent) {
	if e.Snap == nil {
		return
	}
	linked := len(e.Snap.LinkedMeetings())
	unlinked := len(e.Snap.UnlinkedMeetings())
	if linked >= autoLinkMasterFloor && unlinked == 0 {
		t.unlock(m, achievement.AutoLinkMaster)
	}
}

// unlock records the achievement and, when newly earned, announces it
// on the next bus pass
func (t *Tracker) unlock(m *Model, a achievement.Achievement) {
	newly, err := m.app.Achievements.Unlock(context.Background(), a)
	if err != nil {
		loggy.Warn("unlocking achievement failed", "achievement", string(a), "error", err)
		return
	}
	if newly {
		m.bus.Publish(AchievementUnlockedEvent{Achievement: a, UnlockedAt: time.Now()})
	}
}
