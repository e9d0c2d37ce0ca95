package meeting

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/tildaslashalef/worklog/internal/loggy"
)

// Repository defines operations for persisting meetings
type Repository interface {
	// SaveMeeting inserts or updates a meeting (keyed by external ID)
	SaveMeeting(ctx context.Context, m *Meeting) error

	// GetMeeting retrieves a meeting by ID, nil if not found
	GetMeeting(ctx context.Context, id string) (*Meeting, error)

	// ListMeetings retrieves meetings starting within [from, to] ordered
	// by start time
	ListMeetings(ctx context.Context, from, to time.Time) ([]*Meeting, error)

	// SetIssueKey updates a meeting's issue link; nil clears it
	SetIssueKey(ctx context.Context, id string, issueKey *string) error
}

// SQLRepository implements Repository using a SQL database
type SQLRepository struct {
	db     *sql.DB
	logger *loggy.Logger
}

// NewSQLRepository creates a new SQL meeting repository
func NewSQLRepository(db *sql.DB, logger *loggy.Logger) *SQLRepository {
	return &SQLRepository{db: db, logger: logger}
}

var meetingColumns = []string{
	"id",
	"external_id",
	"title",
	"start_time",
	"end_time",
	"declined",
	"issue_key",
	"created_at",
	"updated_at",
}

// SaveMeeting inserts or updates a meeting
func (r *SQLRepository) SaveMeeting(ctx context.Context, m *Meeting) error {
	query := sq.Insert("meetings").
		Columns(meetingColumns...).
		Values(
			m.ID,
			m.ExternalID,
			m.Title,
			m.StartTime,
			m.EndTime,
			m.Declined,
			m.IssueKey,
			m.CreatedAt,
			m.UpdatedAt,
		).
		Suffix("ON CONFLICT(external_id) DO UPDATE SET title = ?, start_time = ?, end_time = ?, declined = ?, updated_at = ?",
			m.Title,
			m.StartTime,
			m.EndTime,
			m.Declined,
			m.UpdatedAt,
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

// GetMeeting retrieves a meeting by ID
func (r *SQLRepository) GetMeeting(ctx context.Context, id string) (*Meeting, error) {
	query := sq.Select(meetingColumns...).
		From("meetings").
		Where(sq.Eq{"id": id})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("generating SQL: %w", err)
	}

	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	m, err := scanMeeting(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning meeting: %w", err)
	}

	return m, nil
}

// ListMeetings retrieves meetings starting within [from, to]
func (r *SQLRepository) ListMeetings(ctx context.Context, from, to time.Time) ([]*Meeting, error) {
	query := sq.Select(meetingColumns...).
		From("meetings").
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

	var meetings []*Meeting
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning meeting: %w", err)
		}
		meetings = append(meetings, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating meeting rows: %w", err)
	}

	return meetings, nil
}

// SetIssueKey updates a meeting's issue link
func (r *SQLRepository) SetIssueKey(ctx context.Context, id string, issueKey *string) error {
	query := sq.Update("meetings").
		Set("issue_key", issueKey).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("generating SQL: %w", err)
	}

	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("executing query: %w", err)
	}

	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("meeting %q not found", id)
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMeeting(row scanner) (*Meeting, error) {
	var m Meeting
	var issueKey sql.NullString

	err := row.Scan(
		&m.ID,
		&m.ExternalID,
		&m.Title,
		&m.StartTime,
		&m.EndTime,
		&m.Declined,
		&issueKey,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if issueKey.Valid {
		m.IssueKey = &issueKey.String
	}

	return &m, nil
}
