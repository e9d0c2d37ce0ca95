package achievement

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tildaslashalef/worklog/internal/loggy"
)

// Service provides achievement unlock operations
type Service struct {
	repo   Repository
	logger *loggy.Logger
}

// NewService creates a new achievement service
func NewService(db *sql.DB, logger *loggy.Logger) *Service {
	return &Service{
		repo:   NewSQLRepository(db, logger),
		logger: logger,
	}
}

// Unlock records an achievement. Returns true only on the first
// unlock; repeated unlocks are no-ops.
func (s *Service) Unlock(ctx context.Context, a Achievement) (bool, error) {
	if !a.Valid() {
		return false, fmt.Errorf("unknown achievement %q", a)
	}

	newly, err := s.repo.Unlock(ctx, a, time.Now().UTC())
	if err != nil {
		return false, err
	}

	if newly {
		meta := a.Meta()
		s.logger.Info("Achievement unlocked", "achievement", meta.Name)
	}
	return newly, nil
}

// Unlocks returns all unlocks ordered by unlock time
func (s *Service) Unlocks(ctx context.Context) ([]Unlock, error) {
	return s.repo.ListUnlocks(ctx)
}

// HasAnyUnlocked reports whether at least one achievement is unlocked
func (s *Service) HasAnyUnlocked(ctx context.Context) (bool, error) {
	unlocks, err := s.repo.ListUnlocks(ctx)
	if err != nil {
		return false, err
	}
	return len(unlocks) > 0, nil
}

// ResetAll removes every unlock
func (s *Service) ResetAll(ctx context.Context) error {
	return s.repo.ResetAll(ctx)
}
