package meeting

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tildaslashalef/worklog/internal/issue"
	"github.com/tildaslashalef/worklog/internal/loggy"
	"github.com/tildaslashalef/worklog/internal/ulid"
)

// AutoLinkResult records the outcome of an auto-link pass so it can
// be undone later.
type AutoLinkResult struct {
	// LinkedIDs are the meetings that received a link
	LinkedIDs []string
	// OriginalLinks holds the pre-existing link per meeting ID,
	// nil when the meeting was unlinked before
	OriginalLinks map[string]*string
}

// Service provides meeting management operations
type Service struct {
	repo   Repository
	issues *issue.Service
	logger *loggy.Logger
}

// NewService creates a new meeting service
func NewService(db *sql.DB, issues *issue.Service, logger *loggy.Logger) *Service {
	return &Service{
		repo:   NewSQLRepository(db, logger),
		issues: issues,
		logger: logger,
	}
}

// Import upserts externally sourced meetings, assigning local IDs to
// new ones. Returns the number of meetings written.
func (s *Service) Import(ctx context.Context, meetings []*Meeting) (int, error) {
	now := time.Now().UTC()
	count := 0
	for _, m := range meetings {
		if m.ID == "" {
			m.ID = ulid.MeetingID()
		}
		if m.CreatedAt.IsZero() {
			m.CreatedAt = now
		}
		m.UpdatedAt = now
		if err := s.repo.SaveMeeting(ctx, m); err != nil {
			return count, fmt.Errorf("saving meeting %q: %w", m.Title, err)
		}
		count++
	}
	return count, nil
}

// List returns the meetings starting within [from, to]
func (s *Service) List(ctx context.Context, from, to time.Time) ([]*Meeting, error) {
	return s.repo.ListMeetings(ctx, from, to)
}

// Get returns a meeting by ID, nil if unknown
func (s *Service) Get(ctx context.Context, id string) (*Meeting, error) {
	return s.repo.GetMeeting(ctx, id)
}

// Link attaches a meeting to an issue. The issue must be known locally.
func (s *Service) Link(ctx context.Context, meetingID, issueKey string) error {
	iss, err := s.issues.Get(ctx, issueKey)
	if err != nil {
		return err
	}
	if iss == nil {
		return fmt.Errorf("unknown issue %q", issueKey)
	}
	return s.repo.SetIssueKey(ctx, meetingID, &issueKey)
}

// Unlink clears a meeting's issue link and returns the previous link
// so callers can restore it.
func (s *Service) Unlink(ctx context.Context, meetingID string) (*string, error) {
	m, err := s.repo.GetMeeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("unknown meeting %q", meetingID)
	}

	previous := m.IssueKey
	if err := s.repo.SetIssueKey(ctx, meetingID, nil); err != nil {
		return nil, err
	}
	return previous, nil
}

// RestoreLink sets a meeting's issue link back to a recorded value.
// Used when undoing an auto-link pass.
func (s *Service) RestoreLink(ctx context.Context, meetingID string, issueKey *string) error {
	return s.repo.SetIssueKey(ctx, meetingID, issueKey)
}

// AutoLink links unlinked, non-declined meetings in [from, to] to
// issues whose key appears in the meeting title. Returns the linked
// meeting IDs and the original links for rollback.
func (s *Service) AutoLink(ctx context.Context, from, to time.Time) (*AutoLinkResult, error) {
	meetings, err := s.repo.ListMeetings(ctx, from, to)
	if err != nil {
		return nil, err
	}

	result := &AutoLinkResult{OriginalLinks: make(map[string]*string)}
	for _, m := range meetings {
		if m.Declined || m.Linked() {
			continue
		}

		keys := issue.ExtractKeys(m.Title)
		if len(keys) == 0 {
			continue
		}

		// First key in the title with a locally known issue wins
		for _, key := range keys {
			iss, err := s.issues.Get(ctx, key)
			if err != nil {
				return result, err
			}
			if iss == nil {
				continue
			}

			if err := s.repo.SetIssueKey(ctx, m.ID, &key); err != nil {
				return result, err
			}
			result.LinkedIDs = append(result.LinkedIDs, m.ID)
			result.OriginalLinks[m.ID] = m.IssueKey
			s.logger.Debug("Auto-linked meeting", "meeting", m.ID, "issue", key)
			break
		}
	}

	return result, nil
}
