package worklog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goombaio/namegenerator"

	"github.com/tildaslashalef/worklog/internal/loggy"
	"github.com/tildaslashalef/worklog/internal/tracker"
	"github.com/tildaslashalef/worklog/internal/ulid"
)

// RemoteWorklogs is the tracker surface the service pushes through
type RemoteWorklogs interface {
	AddWorklog(ctx context.Context, w tracker.Worklog) (string, error)
	DeleteWorklog(ctx context.Context, issueKey, worklogID string) error
}

// ProgressFunc reports per-item progress during push and revert
type ProgressFunc func(done, total int)

// PushResult summarizes a push run
type PushResult struct {
	HistoryID   string
	HistoryName string
	Pushed      int
	Failed      int
	TotalHours  float64
}

// RevertResult summarizes a revert run
type RevertResult struct {
	Deleted int
	Missing int
	Failed  int
}

// Service provides worklog management operations
type Service struct {
	repo   Repository
	remote RemoteWorklogs
	names  namegenerator.Generator
	logger *loggy.Logger
}

// NewService creates a new worklog service
func NewService(db *sql.DB, remote RemoteWorklogs, logger *loggy.Logger) *Service {
	return &Service{
		repo:   NewSQLRepository(db, logger),
		remote: remote,
		names:  namegenerator.NewNameGenerator(time.Now().UnixNano()),
		logger: logger,
	}
}

// Create drafts a new local worklog
func (s *Service) Create(ctx context.Context, issueKey string, workDate time.Time, hours float64, comment string, source Source, sourceID *string) (*LocalWorklog, error) {
	if hours <= 0 {
		return nil, fmt.Errorf("worklog hours must be positive, got %.2f", hours)
	}

	now := time.Now().UTC()
	w := &LocalWorklog{
		ID:        ulid.WorklogID(),
		IssueKey:  issueKey,
		WorkDate:  workDate,
		Hours:     hours,
		Comment:   comment,
		Status:    StatusCreated,
		Source:    source,
		SourceID:  sourceID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.SaveWorklog(ctx, w); err != nil {
		return nil, fmt.Errorf("saving worklog: %w", err)
	}

	return w, nil
}

// Delete removes a local worklog. Pushed worklogs cannot be deleted;
// revert the push instead.
func (s *Service) Delete(ctx context.Context, id string) error {
	w, err := s.repo.GetWorklog(ctx, id)
	if err != nil {
		return err
	}
	if w == nil {
		return fmt.Errorf("unknown worklog %q", id)
	}
	if w.Status == StatusPushed {
		return fmt.Errorf("worklog %s is pushed, revert it instead", id)
	}
	return s.repo.DeleteWorklog(ctx, id)
}

// Stage marks a draft worklog for the next push
func (s *Service) Stage(ctx context.Context, id string) error {
	w, err := s.repo.GetWorklog(ctx, id)
	if err != nil {
		return err
	}
	if w == nil {
		return fmt.Errorf("unknown worklog %q", id)
	}
	if w.Status != StatusCreated {
		return nil
	}

	w.Status = StatusStaged
	w.UpdatedAt = time.Now().UTC()
	return s.repo.SaveWorklog(ctx, w)
}

// StageAll marks every draft worklog for the next push.
// Returns the number staged.
func (s *Service) StageAll(ctx context.Context) (int, error) {
	drafts, err := s.repo.ListByStatus(ctx, StatusCreated)
	if err != nil {
		return 0, err
	}

	for i, w := range drafts {
		w.Status = StatusStaged
		w.UpdatedAt = time.Now().UTC()
		if err := s.repo.SaveWorklog(ctx, w); err != nil {
			return i, err
		}
	}

	return len(drafts), nil
}

// List returns worklogs with work dates in [from, to]
func (s *Service) List(ctx context.Context, from, to time.Time) ([]*LocalWorklog, error) {
	return s.repo.ListWorklogs(ctx, from, to)
}

// ListByStatus returns all worklogs in a given status
func (s *Service) ListByStatus(ctx context.Context, status Status) ([]*LocalWorklog, error) {
	return s.repo.ListByStatus(ctx, status)
}

// Get returns a worklog by ID, nil if unknown
func (s *Service) Get(ctx context.Context, id string) (*LocalWorklog, error) {
	return s.repo.GetWorklog(ctx, id)
}

// FindGapDays returns the days whose logged total is below minHours
func (s *Service) FindGapDays(ctx context.Context, days []time.Time, minHours float64) ([]time.Time, error) {
	var gaps []time.Time
	for _, day := range days {
		total, err := s.repo.DailyTotal(ctx, day)
		if err != nil {
			return nil, err
		}
		if total < minHours {
			gaps = append(gaps, day)
		}
	}
	return gaps, nil
}

// Push sends every staged worklog to the tracker. Items are pushed
// independently; a failure on one item never stops the rest. The
// history entry is written before the first item goes out so a crash
// mid-push still leaves a record of what was attempted.
func (s *Service) Push(ctx context.Context, progress ProgressFunc) (*PushResult, error) {
	staged, err := s.repo.ListByStatus(ctx, StatusStaged)
	if err != nil {
		return nil, fmt.Errorf("listing staged worklogs: %w", err)
	}

	result := &PushResult{}
	if len(staged) == 0 {
		return result, nil
	}

	entry := &HistoryEntry{
		ID:        ulid.HistoryID(),
		Name:      s.names.Generate(),
		ItemCount: len(staged),
		PushedAt:  time.Now().UTC(),
	}
	items := make([]HistoryItem, 0, len(staged))
	for _, w := range staged {
		entry.TotalHours += w.Hours
		items = append(items, HistoryItem{
			HistoryID: entry.ID,
			WorklogID: w.ID,
			IssueKey:  w.IssueKey,
			WorkDate:  w.WorkDate,
			Hours:     w.Hours,
		})
	}

	if err := s.repo.SaveHistoryEntry(ctx, entry, items); err != nil {
		return nil, fmt.Errorf("recording push history: %w", err)
	}

	result.HistoryID = entry.ID
	result.HistoryName = entry.Name
	result.TotalHours = entry.TotalHours

	for i, w := range staged {
		remoteID, err := s.remote.AddWorklog(ctx, tracker.Worklog{
			IssueKey: w.IssueKey,
			Started:  w.WorkDate,
			Hours:    w.Hours,
			Comment:  w.Comment,
		})
		if err != nil {
			result.Failed++
			s.logger.Warn("Failed to push worklog", "worklog", w.ID, "issue", w.IssueKey, "error", err)
		} else {
			if err := s.repo.SetItemRemoteID(ctx, entry.ID, w.ID, remoteID); err != nil {
				s.logger.Warn("Failed to record remote ID", "worklog", w.ID, "error", err)
			}

			w.Status = StatusPushed
			w.RemoteID = &remoteID
			w.UpdatedAt = time.Now().UTC()
			if err := s.repo.SaveWorklog(ctx, w); err != nil {
				s.logger.Warn("Failed to mark worklog pushed", "worklog", w.ID, "error", err)
			}
			result.Pushed++
		}

		if progress != nil {
			progress(i+1, len(staged))
		}
	}

	s.logger.Info("Push complete",
		"history", entry.Name, "pushed", result.Pushed, "failed", result.Failed)
	return result, nil
}

// Revert undoes a pushed history entry by deleting its worklogs from
// the tracker. Items already gone remotely are counted as missing and
// skipped. The entry can be reverted only once.
func (s *Service) Revert(ctx context.Context, historyID string, progress ProgressFunc) (*RevertResult, error) {
	entry, items, err := s.repo.GetHistoryEntry(ctx, historyID)
	if err != nil {
		return nil, fmt.Errorf("loading history entry: %w", err)
	}
	if entry == nil {
		return nil, fmt.Errorf("unknown history entry %q", historyID)
	}
	if entry.Reverted() {
		return nil, fmt.Errorf("history entry %s was already reverted", entry.Name)
	}

	result := &RevertResult{}
	for i, item := range items {
		if item.RemoteID == nil {
			// Item never made it to the tracker
			result.Missing++
			s.logger.Warn("History item has no remote ID, skipping", "worklog", item.WorklogID)
		} else if err := s.remote.DeleteWorklog(ctx, item.IssueKey, *item.RemoteID); err != nil {
			if errors.Is(err, tracker.ErrNotFound) {
				result.Missing++
				s.logger.Warn("Remote worklog already gone", "worklog", item.WorklogID, "remote", *item.RemoteID)
			} else {
				result.Failed++
				s.logger.Warn("Failed to delete remote worklog", "worklog", item.WorklogID, "error", err)
				if progress != nil {
					progress(i+1, len(items))
				}
				continue
			}
		} else {
			result.Deleted++
		}

		if w, err := s.repo.GetWorklog(ctx, item.WorklogID); err == nil && w != nil {
			w.Status = StatusStaged
			w.RemoteID = nil
			w.UpdatedAt = time.Now().UTC()
			if err := s.repo.SaveWorklog(ctx, w); err != nil {
				s.logger.Warn("Failed to restage worklog", "worklog", w.ID, "error", err)
			}
		} else if w == nil {
			s.logger.Warn("Local worklog missing during revert", "worklog", item.WorklogID)
		}

		if progress != nil {
			progress(i+1, len(items))
		}
	}

	if result.Failed > 0 {
		return result, fmt.Errorf("revert of %s incomplete: %d item(s) failed", entry.Name, result.Failed)
	}

	if err := s.repo.MarkHistoryReverted(ctx, historyID, time.Now().UTC()); err != nil {
		return result, fmt.Errorf("marking history reverted: %w", err)
	}

	s.logger.Info("Revert complete",
		"history", entry.Name, "deleted", result.Deleted, "missing", result.Missing)
	return result, nil
}

// History returns all push history entries, newest first
func (s *Service) History(ctx context.Context) ([]*HistoryEntry, error) {
	return s.repo.ListHistory(ctx)
}

// HistoryEntry returns one history entry with its items
func (s *Service) HistoryEntry(ctx context.Context, id string) (*HistoryEntry, []HistoryItem, error) {
	return s.repo.GetHistoryEntry(ctx, id)
}
