package session

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/tildaslashalef/worklog/internal/loggy"
)

// Repository defines operations for persisting sessions
type Repository interface {
	// SaveSession inserts or updates a session
	SaveSession(ctx context.Context, s *Session) error

	// ListSessions retrieves sessions starting within [from, to]
	ListSessions(ctx context.Context, from, to time.Time) ([]*Session, error)
}

// SQLRepository implements Repository using a SQL database
type SQLRepository struct {
	db     *sql.DB
	logger *loggy.Logger
}

// NewSQLRepository creates a new SQL session repository
func NewSQLRepository(db *sql.DB, logger *loggy.Logger) *SQLRepository {
	return &SQLRepository{db: db, logger: logger}
}

var sessionColumns = []string{
	"id",
	"repo",
	"branch",
	"source",
	"start_time",
	"end_time",
	"commit_count",
	"issue_keys",
	"created_at",
}

// SaveSession inserts or updates a session
func (r *SQLRepository) SaveSession(ctx context.Context, s *Session) error {
	query := sq.Insert("sessions").
		Columns(sessionColumns...).
		Values(
			s.ID,
			s.Repo,
			s.Branch,
			s.Source,
			s.StartTime,
			s.EndTime,
			s.CommitCount,
			joinKeys(s.IssueKeys),
			s.CreatedAt,
		).
		Suffix("ON CONFLICT(repo, source, start_time) DO UPDATE SET end_time = ?, commit_count = ?, issue_keys = ?",
			s.EndTime,
			s.CommitCount,
			joinKeys(s.IssueKeys),
		)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("generating SQL: %w", err)
	}

	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("executing query: %w", err)
	}

	return nil
}

// ListSessions retrieves sessions starting within [from, to]
func (r *SQLRepository) ListSessions(ctx context.Context, from, to time.Time) ([]*Session, error) {
	query := sq.Select(sessionColumns...).
		From("sessions").
		Where(sq.GtOrEq{"start_time": from}).
		Where(sq.LtOrEq{"start_time": to}).
		OrderBy("start_time ASC")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("generating SQL: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		var s Session
		var branch sql.NullString
		var keys string

		err := rows.Scan(
			&s.ID,
			&s.Repo,
			&branch,
			&s.Source,
			&s.StartTime,
			&s.EndTime,
			&s.CommitCount,
			&keys,
			&s.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}

		if branch.Valid {
			s.Branch = branch.String
		}
		s.IssueKeys = splitKeys(keys)
		sessions = append(sessions, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating session rows: %w", err)
	}

	return sessions, nil
}
