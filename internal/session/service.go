package session

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/google/go-github/v59/github"
	"golang.org/x/oauth2"

	"github.com/tildaslashalef/worklog/internal/config"
	"github.com/tildaslashalef/worklog/internal/issue"
	"github.com/tildaslashalef/worklog/internal/loggy"
	"github.com/tildaslashalef/worklog/internal/ulid"
)

// sessionGap is the idle time that splits two commits into separate
// sessions
const sessionGap = 2 * time.Hour

// commitInfo is the slice of a commit the session builder needs
type commitInfo struct {
	when    time.Time
	message string
}

// Service provides coding session discovery and storage
type Service struct {
	repo   Repository
	cfg    config.GitHubConfig
	gh     *github.Client
	logger *loggy.Logger
}

// NewService creates a new session service. A GitHub client is only
// constructed when a token is configured.
func NewService(db *sql.DB, cfg config.GitHubConfig, logger *loggy.Logger) *Service {
	s := &Service{
		repo:   NewSQLRepository(db, logger),
		cfg:    cfg,
		logger: logger,
	}

	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		httpClient := oauth2.NewClient(context.Background(), ts)
		httpClient.Timeout = cfg.RequestTimeout
		s.gh = github.NewClient(httpClient)
	}

	return s
}

// List returns the sessions starting within [from, to]
func (s *Service) List(ctx context.Context, from, to time.Time) ([]*Session, error) {
	return s.repo.ListSessions(ctx, from, to)
}

// Sync discovers sessions from configured local repositories and from
// GitHub, then stores them. Returns the number of sessions written.
func (s *Service) Sync(ctx context.Context, since time.Time) (int, error) {
	count := 0

	for _, path := range s.cfg.LocalRepos {
		sessions, err := s.scanLocalRepo(ctx, path, since)
		if err != nil {
			s.logger.Warn("Failed to scan local repository", "path", path, "error", err)
			continue
		}
		for _, sess := range sessions {
			if err := s.repo.SaveSession(ctx, sess); err != nil {
				return count, fmt.Errorf("saving session: %w", err)
			}
			count++
		}
	}

	if s.gh != nil {
		sessions, err := s.fetchGitHubSessions(ctx, since)
		if err != nil {
			s.logger.Warn("Failed to fetch GitHub events", "error", err)
		} else {
			for _, sess := range sessions {
				if err := s.repo.SaveSession(ctx, sess); err != nil {
					return count, fmt.Errorf("saving session: %w", err)
				}
				count++
			}
		}
	}

	s.logger.Debug("Session sync complete", "count", count)
	return count, nil
}

// scanLocalRepo walks a repository's commit log and groups commits
// into sessions
func (s *Service) scanLocalRepo(ctx context.Context, path string, since time.Time) ([]*Session, error) {
	repo, err := gogit.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("opening repository: %w", err)
	}

	branch := ""
	if head, err := repo.Head(); err == nil {
		branch = head.Name().Short()
	}

	iter, err := repo.Log(&gogit.LogOptions{Since: &since, All: true})
	if err != nil {
		return nil, fmt.Errorf("reading commit log: %w", err)
	}
	defer iter.Close()

	var commits []commitInfo
	err = iter.ForEach(func(c *object.Commit) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		commits = append(commits, commitInfo{
			when:    c.Author.When.UTC(),
			message: c.Message,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking commits: %w", err)
	}

	repoName := filepath.Base(path)
	return buildSessions(repoName, branch, SourceLocal, commits), nil
}

// fetchGitHubSessions reconstructs sessions from the authenticated
// user's push events
func (s *Service) fetchGitHubSessions(ctx context.Context, since time.Time) ([]*Session, error) {
	user, _, err := s.gh.Users.Get(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("resolving authenticated user: %w", err)
	}

	events, _, err := s.gh.Activity.ListEventsPerformedByUser(ctx, user.GetLogin(), false,
		&github.ListOptions{PerPage: 100})
	if err != nil {
		return nil, fmt.Errorf("listing user events: %w", err)
	}

	commitsByRepo := make(map[string][]commitInfo)
	for _, ev := range events {
		if ev.GetType() != "PushEvent" {
			continue
		}
		when := ev.GetCreatedAt().Time.UTC()
		if when.Before(since) {
			continue
		}

		payload, err := ev.ParsePayload()
		if err != nil {
			continue
		}
		push, ok := payload.(*github.PushEvent)
		if !ok {
			continue
		}

		repoName := ev.GetRepo().GetName()
		for _, c := range push.Commits {
			commitsByRepo[repoName] = append(commitsByRepo[repoName], commitInfo{
				when:    when,
				message: c.GetMessage(),
			})
		}
	}

	var sessions []*Session
	for repoName, commits := range commitsByRepo {
		sessions = append(sessions, buildSessions(repoName, "", SourceGitHub, commits)...)
	}
	return sessions, nil
}

// buildSessions groups commits into sessions, splitting wherever the
// gap between consecutive commits exceeds sessionGap
func buildSessions(repoName, branch string, source Source, commits []commitInfo) []*Session {
	if len(commits) == 0 {
		return nil
	}

	sort.Slice(commits, func(i, j int) bool {
		return commits[i].when.Before(commits[j].when)
	})

	now := time.Now().UTC()
	var sessions []*Session
	current := newSession(repoName, branch, source, commits[0], now)

	for _, c := range commits[1:] {
		if c.when.Sub(current.EndTime) > sessionGap {
			sessions = append(sessions, current)
			current = newSession(repoName, branch, source, c, now)
			continue
		}
		current.EndTime = c.when
		current.CommitCount++
		current.IssueKeys = mergeKeys(current.IssueKeys, issue.ExtractKeys(c.message))
	}

	return append(sessions, current)
}

func newSession(repoName, branch string, source Source, c commitInfo, now time.Time) *Session {
	return &Session{
		ID:          ulid.SessionID(),
		Repo:        repoName,
		Branch:      branch,
		Source:      source,
		StartTime:   c.when,
		EndTime:     c.when,
		CommitCount: 1,
		IssueKeys:   issue.ExtractKeys(c.message),
		CreatedAt:   now,
	}
}

func mergeKeys(existing, extra []string) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, k := range existing {
		seen[k] = struct{}{}
	}
	for _, k := range extra {
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			existing = append(existing, k)
		}
	}
	return existing
}
