package sprint

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/tildaslashalef/worklog/internal/loggy"
)

// Repository defines operations for persisting sprints
type Repository interface {
	// SaveSprint inserts or updates a sprint
	SaveSprint(ctx context.Context, s *Sprint) error

	// GetSprint retrieves a sprint by ID, nil if not found
	GetSprint(ctx context.Context, id string) (*Sprint, error)

	// ListSprints retrieves all sprints ordered by start date descending
	ListSprints(ctx context.Context) ([]*Sprint, error)

	// SetFollowed marks a sprint as followed or not
	SetFollowed(ctx context.Context, id string, followed bool) error

	// GetFollowedSprint retrieves the currently followed sprint, nil if none
	GetFollowedSprint(ctx context.Context) (*Sprint, error)
}

// SQLRepository implements Repository using a SQL database
type SQLRepository struct {
	db     *sql.DB
	logger *loggy.Logger
}

// NewSQLRepository creates a new SQL sprint repository
func NewSQLRepository(db *sql.DB, logger *loggy.Logger) *SQLRepository {
	return &SQLRepository{db: db, logger: logger}
}

var sprintColumns = []string{
	"id",
	"name",
	"state",
	"start_date",
	"end_date",
	"is_followed",
	"created_at",
	"updated_at",
}

// SaveSprint inserts or updates a sprint
func (r *SQLRepository) SaveSprint(ctx context.Context, s *Sprint) error {
	query := sq.Insert("sprints").
		Columns(sprintColumns...).
		Values(
			s.ID,
			s.Name,
			s.State,
			s.StartDate,
			s.EndDate,
			s.IsFollowed,
			s.CreatedAt,
			s.UpdatedAt,
		).
		Suffix("ON CONFLICT(id) DO UPDATE SET name = ?, state = ?, start_date = ?, end_date = ?, updated_at = ?",
			s.Name,
			s.State,
			s.StartDate,
			s.EndDate,
			s.UpdatedAt,
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

// GetSprint retrieves a sprint by ID
func (r *SQLRepository) GetSprint(ctx context.Context, id string) (*Sprint, error) {
	query := sq.Select(sprintColumns...).
		From("sprints").
		Where(sq.Eq{"id": id})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("generating SQL: %w", err)
	}

	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	s, err := scanSprint(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning sprint: %w", err)
	}

	return s, nil
}

// ListSprints retrieves all sprints ordered by start date descending
func (r *SQLRepository) ListSprints(ctx context.Context) ([]*Sprint, error) {
	query := sq.Select(sprintColumns...).
		From("sprints").
		OrderBy("start_date DESC")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("generating SQL: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	var sprints []*Sprint
	for rows.Next() {
		s, err := scanSprint(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning sprint: %w", err)
		}
		sprints = append(sprints, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sprint rows: %w", err)
	}

	return sprints, nil
}

// SetFollowed marks a sprint as followed or not. Following a sprint
// clears the flag on every other sprint so at most one is followed.
func (r *SQLRepository) SetFollowed(ctx context.Context, id string, followed bool) error {
	if followed {
		clear := sq.Update("sprints").
			Set("is_followed", false).
			Where(sq.NotEq{"id": id})

		sqlStr, args, err := clear.ToSql()
		if err != nil {
			return fmt.Errorf("generating SQL: %w", err)
		}
		if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
			return fmt.Errorf("clearing followed flags: %w", err)
		}
	}

	query := sq.Update("sprints").
		Set("is_followed", followed).
		Where(sq.Eq{"id": id})

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

// GetFollowedSprint retrieves the currently followed sprint
func (r *SQLRepository) GetFollowedSprint(ctx context.Context) (*Sprint, error) {
	query := sq.Select(sprintColumns...).
		From("sprints").
		Where(sq.Eq{"is_followed": true}).
		Limit(1)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("generating SQL: %w", err)
	}

	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	s, err := scanSprint(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning sprint: %w", err)
	}

	return s, nil
}

// scanner abstracts sql.Row and sql.Rows for scanning
type scanner interface {
	Scan(dest ...any) error
}

func scanSprint(row scanner) (*Sprint, error) {
	var s Sprint
	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.State,
		&s.StartDate,
		&s.EndDate,
		&s.IsFollowed,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
