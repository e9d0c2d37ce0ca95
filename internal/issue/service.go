package issue

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/tildaslashalef/worklog/internal/loggy"
	"github.com/tildaslashalef/worklog/internal/tracker"
)

// keyPattern matches tracker issue keys like PROJ-123
var keyPattern = regexp.MustCompile(`\b([A-Z][A-Z0-9]+-\d+)\b`)

// ExtractKeys returns the issue keys referenced in a piece of text,
// in order of first appearance and without duplicates.
func ExtractKeys(text string) []string {
	seen := make(map[string]struct{})
	var keys []string
	for _, m := range keyPattern.FindAllString(text, -1) {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		keys = append(keys, m)
	}
	return keys
}

// RemoteSource lists sprint issues from the tracker
type RemoteSource interface {
	SprintIssues(ctx context.Context, sprintID string) ([]tracker.Issue, error)
}

// Service provides issue management operations
type Service struct {
	repo   Repository
	remote RemoteSource
	logger *loggy.Logger
}

// NewService creates a new issue service
func NewService(db *sql.DB, remote RemoteSource, logger *loggy.Logger) *Service {
	return &Service{
		repo:   NewSQLRepository(db, logger),
		remote: remote,
		logger: logger,
	}
}

// Sync pulls a sprint's issues from the tracker and upserts them locally.
// Returns the number of issues written.
func (s *Service) Sync(ctx context.Context, sprintID string) (int, error) {
	remote, err := s.remote.SprintIssues(ctx, sprintID)
	if err != nil {
		return 0, fmt.Errorf("fetching issues: %w", err)
	}

	count := 0
	for _, r := range remote {
		iss := FromRemote(r)
		if iss.SprintID == nil {
			id := sprintID
			iss.SprintID = &id
		}
		if err := s.repo.SaveIssue(ctx, iss); err != nil {
			return count, fmt.Errorf("saving issue %s: %w", iss.Key, err)
		}
		count++
	}

	s.logger.Debug("Issue sync complete", "sprint", sprintID, "count", count)
	return count, nil
}

// List returns the issues of a sprint
func (s *Service) List(ctx context.Context, sprintID string) ([]*Issue, error) {
	return s.repo.ListIssues(ctx, sprintID)
}

// Get returns an issue by key, nil if unknown
func (s *Service) Get(ctx context.Context, key string) (*Issue, error) {
	return s.repo.GetIssue(ctx, key)
}
