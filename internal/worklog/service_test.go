package worklog

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/goombaio/namegenerator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tildaslashalef/worklog/internal/loggy"
	"github.com/tildaslashalef/worklog/internal/tracker"
)

// MockRepository implements Repository in memory for testing
type MockRepository struct {
	worklogs map[string]*LocalWorklog
	entries  map[string]*HistoryEntry
	items    map[string][]HistoryItem

	SaveWorklogCalled int
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		worklogs: make(map[string]*LocalWorklog),
		entries:  make(map[string]*HistoryEntry),
		items:    make(map[string][]HistoryItem),
	}
}

func (m *MockRepository) SaveWorklog(ctx context.Context, w *LocalWorklog) error {
	cp := *w
	m.worklogs[w.ID] = &cp
	m.SaveWorklogCalled++
	return nil
}

func (m *MockRepository) GetWorklog(ctx context.Context, id string) (*LocalWorklog, error) {
	w, ok := m.worklogs[id]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (m *MockRepository) ListWorklogs(ctx context.Context, from, to time.Time) ([]*LocalWorklog, error) {
	var out []*LocalWorklog
	for _, w := range m.worklogs {
		if !w.WorkDate.Before(from) && !w.WorkDate.After(to) {
			out = append(out, w)
		}
	}
	return out, nil
}

func (m *MockRepository) ListByStatus(ctx context.Context, status Status) ([]*LocalWorklog, error) {
	var out []*LocalWorklog
	for _, w := range m.worklogs {
		if w.Status == status {
			cp := *w
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockRepository) DeleteWorklog(ctx context.Context, id string) error {
	delete(m.worklogs, id)
	return nil
}

func (m *MockRepository) DailyTotal(ctx context.Context, day time.Time) (float64, error) {
	dayStart := day.UTC().Truncate(24 * time.Hour)
	total := 0.0
	for _, w := range m.worklogs {
		if w.Day().Equal(dayStart) {
			total += w.Hours
		}
	}
	return total, nil
}

func (m *MockRepository) SaveHistoryEntry(ctx context.Context, entry *HistoryEntry, items []HistoryItem) error {
	cp := *entry
	m.entries[entry.ID] = &cp
	m.items[entry.ID] = append([]HistoryItem(nil), items...)
	return nil
}

func (m *MockRepository) GetHistoryEntry(ctx context.Context, id string) (*HistoryEntry, []HistoryItem, error) {
	entry, ok := m.entries[id]
	if !ok {
		return nil, nil, nil
	}
	cp := *entry
	return &cp, append([]HistoryItem(nil), m.items[id]...), nil
}

func (m *MockRepository) ListHistory(ctx context.Context) ([]*HistoryEntry, error) {
	var out []*HistoryEntry
	for _, e := range m.entries {
		out = append(out, e)
	}
	return out, nil
}

func (m *MockRepository) SetItemRemoteID(ctx context.Context, historyID, worklogID, remoteID string) error {
	items := m.items[historyID]
	for i := range items {
		if items[i].WorklogID == worklogID {
			id := remoteID
			items[i].RemoteID = &id
		}
	}
	m.items[historyID] = items
	return nil
}

func (m *MockRepository) MarkHistoryReverted(ctx context.Context, id string, at time.Time) error {
	entry, ok := m.entries[id]
	if !ok {
		return errors.New("no such entry")
	}
	entry.RevertedAt = &at
	return nil
}

// MockRemote implements RemoteWorklogs for testing
type MockRemote struct {
	nextID      int
	AddErrs     map[string]error // keyed by issue key
	DeleteErrs  map[string]error // keyed by remote ID
	AddCalls    []tracker.Worklog
	DeleteCalls []string
}

func NewMockRemote() *MockRemote {
	return &MockRemote{
		AddErrs:    make(map[string]error),
		DeleteErrs: make(map[string]error),
	}
}

func (m *MockRemote) AddWorklog(ctx context.Context, w tracker.Worklog) (string, error) {
	m.AddCalls = append(m.AddCalls, w)
	if err, ok := m.AddErrs[w.IssueKey]; ok {
		return "", err
	}
	m.nextID++
	return fmt.Sprintf("rw-%d", m.nextID), nil
}

func (m *MockRemote) DeleteWorklog(ctx context.Context, issueKey, worklogID string) error {
	m.DeleteCalls = append(m.DeleteCalls, worklogID)
	if err, ok := m.DeleteErrs[worklogID]; ok {
		return err
	}
	return nil
}

func newTestService(repo Repository, remote RemoteWorklogs) *Service {
	return &Service{
		repo:   repo,
		remote: remote,
		names:  namegenerator.NewNameGenerator(42),
		logger: loggy.NewNoopLogger(),
	}
}

func stagedWorklog(id, issueKey string, day time.Time, hours float64) *LocalWorklog {
	now := time.Now().UTC()
	return &LocalWorklog{
		ID:        id,
		IssueKey:  issueKey,
		WorkDate:  day,
		Hours:     hours,
		Status:    StatusStaged,
		Source:    SourceManual,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestPushEmptyIsNoop(t *testing.T) {
	repo := NewMockRepository()
	remote := NewMockRemote()
	svc := newTestService(repo, remote)

	result, err := svc.Push(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Pushed)
	assert.Empty(t, result.HistoryID, "no history entry for an empty push")
	assert.Empty(t, remote.AddCalls)
}

func TestPushRecordsHistoryBeforeSending(t *testing.T) {
	repo := NewMockRepository()
	remote := NewMockRemote()
	svc := newTestService(repo, remote)

	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SaveWorklog(context.Background(), stagedWorklog("wl_1", "PROJ-1", day, 3)))
	require.NoError(t, repo.SaveWorklog(context.Background(), stagedWorklog("wl_2", "PROJ-2", day, 4.5)))

	var progressCalls []int
	result, err := svc.Push(context.Background(), func(done, total int) {
		progressCalls = append(progressCalls, done)
		assert.Equal(t, 2, total)
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Pushed)
	assert.Equal(t, 0, result.Failed)
	assert.InDelta(t, 7.5, result.TotalHours, 0.001)
	assert.Equal(t, []int{1, 2}, progressCalls)

	entry, items, err := repo.GetHistoryEntry(context.Background(), result.HistoryID)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.NotEmpty(t, entry.Name)
	assert.Equal(t, 2, entry.ItemCount)
	require.Len(t, items, 2)
	for _, item := range items {
		assert.NotNil(t, item.RemoteID)
	}

	for _, id := range []string{"wl_1", "wl_2"} {
		w, err := repo.GetWorklog(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, StatusPushed, w.Status)
		assert.NotNil(t, w.RemoteID)
	}
}

func TestPushPartialFailure(t *testing.T) {
	repo := NewMockRepository()
	remote := NewMockRemote()
	remote.AddErrs["PROJ-2"] = errors.New("issue is closed")
	svc := newTestService(repo, remote)

	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SaveWorklog(context.Background(), stagedWorklog("wl_1", "PROJ-1", day, 3)))
	require.NoError(t, repo.SaveWorklog(context.Background(), stagedWorklog("wl_2", "PROJ-2", day, 4)))

	result, err := svc.Push(context.Background(), nil)
	require.NoError(t, err, "item failures do not fail the push")
	assert.Equal(t, 1, result.Pushed)
	assert.Equal(t, 1, result.Failed)
	assert.Len(t, remote.AddCalls, 2, "a failed item never stops the rest")

	// The failed worklog stays staged for a later retry
	w, err := repo.GetWorklog(context.Background(), "wl_2")
	require.NoError(t, err)
	assert.Equal(t, StatusStaged, w.Status)
}

func TestRevert(t *testing.T) {
	repo := NewMockRepository()
	remote := NewMockRemote()
	svc := newTestService(repo, remote)

	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SaveWorklog(context.Background(), stagedWorklog("wl_1", "PROJ-1", day, 3)))
	require.NoError(t, repo.SaveWorklog(context.Background(), stagedWorklog("wl_2", "PROJ-2", day, 4)))

	pushed, err := svc.Push(context.Background(), nil)
	require.NoError(t, err)

	result, err := svc.Revert(context.Background(), pushed.HistoryID, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Deleted)
	assert.Equal(t, 0, result.Missing)
	assert.Len(t, remote.DeleteCalls, 2)

	// Worklogs are staged again, entry is consumed
	w, err := repo.GetWorklog(context.Background(), "wl_1")
	require.NoError(t, err)
	assert.Equal(t, StatusStaged, w.Status)
	assert.Nil(t, w.RemoteID)

	entry, _, err := repo.GetHistoryEntry(context.Background(), pushed.HistoryID)
	require.NoError(t, err)
	assert.True(t, entry.Reverted())

	// A second revert of the same entry is rejected
	_, err = svc.Revert(context.Background(), pushed.HistoryID, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already reverted")
}

func TestRevertMissingRemoteIsSkipped(t *testing.T) {
	repo := NewMockRepository()
	remote := NewMockRemote()
	svc := newTestService(repo, remote)

	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SaveWorklog(context.Background(), stagedWorklog("wl_1", "PROJ-1", day, 3)))

	pushed, err := svc.Push(context.Background(), nil)
	require.NoError(t, err)

	// Remote side already deleted the worklog
	remote.DeleteErrs["rw-1"] = fmt.Errorf("%w: gone", tracker.ErrNotFound)

	result, err := svc.Revert(context.Background(), pushed.HistoryID, nil)
	require.NoError(t, err, "missing remote records are warnings, not failures")
	assert.Equal(t, 0, result.Deleted)
	assert.Equal(t, 1, result.Missing)

	entry, _, err := repo.GetHistoryEntry(context.Background(), pushed.HistoryID)
	require.NoError(t, err)
	assert.True(t, entry.Reverted(), "entry is consumed even when records were missing")
}

func TestFindGapDays(t *testing.T) {
	repo := NewMockRepository()
	svc := newTestService(repo, NewMockRemote())

	day1 := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)
	day3 := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.SaveWorklog(context.Background(), stagedWorklog("wl_1", "PROJ-1", day1, 8)))
	require.NoError(t, repo.SaveWorklog(context.Background(), stagedWorklog("wl_2", "PROJ-1", day2, 2)))

	gaps, err := svc.FindGapDays(context.Background(), []time.Time{day1, day2, day3}, 6)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{day2, day3}, gaps)
}

func TestDeletePushedWorklogRejected(t *testing.T) {
	repo := NewMockRepository()
	svc := newTestService(repo, NewMockRemote())

	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	w := stagedWorklog("wl_1", "PROJ-1", day, 3)
	w.Status = StatusPushed
	require.NoError(t, repo.SaveWorklog(context.Background(), w))

	err := svc.Delete(context.Background(), "wl_1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "revert")
}
