package issue

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/tildaslashalef/worklog/internal/loggy"
)

// Repository defines operations for persisting issues
type Repository interface {
	// SaveIssue inserts or updates an issue
	SaveIssue(ctx context.Context, iss *Issue) error

	// GetIssue retrieves an issue by key, nil if not found
	GetIssue(ctx context.Context, key string) (*Issue, error)

	// ListIssues retrieves all issues for a sprint ordered by key
	ListIssues(ctx context.Context, sprintID string) ([]*Issue, error)
}

// SQLRepository implements Repository using a SQL database
type SQLRepository struct {
	db     *sql.DB
	logger *loggy.Logger
}

// NewSQLRepository creates a new SQL issue repository
func NewSQLRepository(db *sql.DB, logger *loggy.Logger) *SQLRepository {
	return &SQLRepository{db: db, logger: logger}
}

var issueColumns = []string{
	"key",
	"sprint_id",
	"summary",
	"status",
	"assignee",
	"created_at",
	"updated_at",
}

// SaveIssue inserts or updates an issue
func (r *SQLRepository) SaveIssue(ctx context.Context, iss *Issue) error {
	query := sq.Insert("issues").
		Columns(issueColumns...).
		Values(
			iss.Key,
			iss.SprintID,
			iss.Summary,
			iss.Status,
			iss.Assignee,
			iss.CreatedAt,
			iss.UpdatedAt,
		).
		Suffix("ON CONFLICT(key) DO UPDATE SET sprint_id = ?, summary = ?, status = ?, assignee = ?, updated_at = ?",
			iss.SprintID,
			iss.Summary,
			iss.Status,
			iss.Assignee,
			iss.UpdatedAt,
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

// GetIssue retrieves an issue by key
func (r *SQLRepository) GetIssue(ctx context.Context, key string) (*Issue, error) {
	query := sq.Select(issueColumns...).
		From("issues").
		Where(sq.Eq{"key": key})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("generating SQL: %w", err)
	}

	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	iss, err := scanIssue(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning issue: %w", err)
	}

	return iss, nil
}

// ListIssues retrieves all issues for a sprint ordered by key
func (r *SQLRepository) ListIssues(ctx context.Context, sprintID string) ([]*Issue, error) {
	query := sq.Select(issueColumns...).
		From("issues").
		Where(sq.Eq{"sprint_id": sprintID}).
		OrderBy("key ASC")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("generating SQL: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	var issues []*Issue
	for rows.Next() {
		iss, err := scanIssue(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning issue: %w", err)
		}
		issues = append(issues, iss)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating issue rows: %w", err)
	}

	return issues, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanIssue(row scanner) (*Issue, error) {
	var iss Issue
	var sprintID, assignee sql.NullString

	err := row.Scan(
		&iss.Key,
		&sprintID,
		&iss.Summary,
		&iss.Status,
		&assignee,
		&iss.CreatedAt,
		&iss.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if sprintID.Valid {
		iss.SprintID = &sprintID.String
	}
	if assignee.Valid {
		iss.Assignee = &assignee.String
	}

	return &iss, nil
}
