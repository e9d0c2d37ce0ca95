package sprint

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tildaslashalef/worklog/internal/loggy"
	"github.com/tildaslashalef/worklog/internal/tracker"
)

// RemoteSource lists sprints from the tracker
type RemoteSource interface {
	Sprints(ctx context.Context) ([]tracker.Sprint, error)
}

// Service provides sprint management operations
type Service struct {
	repo   Repository
	remote RemoteSource
	logger *loggy.Logger
}

// NewService creates a new sprint service
func NewService(db *sql.DB, remote RemoteSource, logger *loggy.Logger) *Service {
	return &Service{
		repo:   NewSQLRepository(db, logger),
		remote: remote,
		logger: logger,
	}
}

// Sync pulls sprints from the tracker and upserts them locally.
// Returns the number of sprints written.
func (s *Service) Sync(ctx context.Context) (int, error) {
	remote, err := s.remote.Sprints(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetching sprints: %w", err)
	}

	count := 0
	for _, r := range remote {
		sp := FromRemote(r)
		if err := s.repo.SaveSprint(ctx, sp); err != nil {
			return count, fmt.Errorf("saving sprint %s: %w", sp.ID, err)
		}
		count++
	}

	s.logger.Debug("Sprint sync complete", "count", count)
	return count, nil
}

// List returns all known sprints, newest first
func (s *Service) List(ctx context.Context) ([]*Sprint, error) {
	return s.repo.ListSprints(ctx)
}

// Follow marks a sprint as the one the dashboard works against
func (s *Service) Follow(ctx context.Context, id string) error {
	sp, err := s.repo.GetSprint(ctx, id)
	if err != nil {
		return err
	}
	if sp == nil {
		return fmt.Errorf("unknown sprint %q", id)
	}
	return s.repo.SetFollowed(ctx, id, true)
}

// Unfollow clears the followed flag on a sprint
func (s *Service) Unfollow(ctx context.Context, id string) error {
	return s.repo.SetFollowed(ctx, id, false)
}

// Followed returns the currently followed sprint, nil if none
func (s *Service) Followed(ctx context.Context) (*Sprint, error) {
	return s.repo.GetFollowedSprint(ctx)
}
