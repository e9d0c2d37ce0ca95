package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/tildaslashalef/worklog/internal/worklog"
)

// requestSync pulls sprints, issues and sessions in the background
func (m *Model) requestSync() bool {
	a := m.app
	return m.ops.Request(CategorySync, "syncing tracker data", func(ctx context.Context, progress func(string)) (Event, error) {
		progress("fetching sprints")
		sprints, err := a.Sprints.Sync(ctx)
		if err != nil {
			return nil, err
		}

		issues := 0
		if followed, err := a.Sprints.Followed(ctx); err == nil && followed != nil {
			progress("fetching issues")
			issues, err = a.Issues.Sync(ctx, followed.ID)
			if err != nil {
				return nil, err
			}
		}

		progress("scanning sessions")
		since := time.Now().AddDate(0, 0, -30)
		sessions, err := a.Sessions.Sync(ctx, since)
		if err != nil {
			return nil, err
		}

		return SyncCompleteEvent{Sprints: sprints, Issues: issues, Sessions: sessions}, nil
	}, func(reason string) Event {
		return SyncFailedEvent{Reason: reason}
	})
}

// requestRefresh rebuilds the dashboard snapshot in the background
func (m *Model) requestRefresh() bool {
	a := m.app
	return m.ops.Request(CategoryRefresh, "refreshing", func(ctx context.Context, progress func(string)) (Event, error) {
		snap, err := a.Snapshots.Collect(ctx)
		if err != nil {
			return nil, err
		}
		return RefreshedEvent{Snap: snap}, nil
	}, func(reason string) Event {
		return RefreshFailedEvent{Reason: reason}
	})
}

// requestPush submits every staged worklog in the background
func (m *Model) requestPush() bool {
	a := m.app
	return m.ops.Request(CategoryPush, "pushing worklogs", func(ctx context.Context, progress func(string)) (Event, error) {
		result, err := a.Worklogs.Push(ctx, func(done, total int) {
			progress(fmt.Sprintf("pushing %d/%d", done, total))
		})
		if err != nil {
			return nil, err
		}
		return PushCompleteEvent{
			HistoryID: result.HistoryID,
			Pushed:    result.Pushed,
			Failed:    result.Failed,
		}, nil
	}, func(reason string) Event {
		return PushFailedEvent{Reason: reason}
	})
}

// requestRevert undoes one history entry in the background
func (m *Model) requestRevert(historyID string) bool {
	a := m.app
	return m.ops.Request(CategoryRevert, "reverting", func(ctx context.Context, progress func(string)) (Event, error) {
		result, err := a.Worklogs.Revert(ctx, historyID, func(done, total int) {
			progress(fmt.Sprintf("reverting %d/%d", done, total))
		})
		if err != nil {
			return nil, err
		}
		return RevertCompleteEvent{
			HistoryID: historyID,
			Deleted:   result.Deleted,
			Missing:   result.Missing,
		}, nil
	}, func(reason string) Event {
		return RevertFailedEvent{Reason: reason}
	})
}

// stageWorklog marks one draft worklog for the next push
func (m *Model) stageWorklog(id string) {
	if err := m.app.Worklogs.Stage(context.Background(), id); err != nil {
		m.setStatus("stage failed: "+err.Error(), true)
		return
	}
	m.requestRefresh()
}

// deleteWorklog removes one local worklog
func (m *Model) deleteWorklog(w *worklog.LocalWorklog) {
	if err := m.app.Worklogs.Delete(context.Background(), w.ID); err != nil {
		m.setStatus(err.Error(), true)
		return
	}
	m.requestRefresh()
}

// followSprint marks a sprint as the working sprint
func (m *Model) followSprint(id string) {
	if err := m.app.Sprints.Follow(context.Background(), id); err != nil {
		m.setStatus("follow failed: "+err.Error(), true)
		return
	}
	m.requestRefresh()
}

// unfollowSprint clears the working sprint
func (m *Model) unfollowSprint(id string) {
	if err := m.app.Sprints.Unfollow(context.Background(), id); err != nil {
		m.setStatus("unfollow failed: "+err.Error(), true)
		return
	}
	m.requestRefresh()
}

// unlinkMeeting clears a meeting's issue link after confirmation
func (m *Model) unlinkMeeting(meetingID string) {
	if _, err := m.app.Meetings.Unlink(context.Background(), meetingID); err != nil {
		m.setStatus("unlink failed: "+err.Error(), true)
		return
	}
	m.requestRefresh()
}
