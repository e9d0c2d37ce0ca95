package achievement

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/tildaslashalef/worklog/internal/loggy"
)

// Repository defines operations for persisting achievement unlocks
type Repository interface {
	// Unlock records an achievement; returns true when it was newly
	// unlocked, false when it already was
	Unlock(ctx context.Context, a Achievement, at time.Time) (bool, error)

	// ListUnlocks retrieves all unlocks ordered by unlock time
	ListUnlocks(ctx context.Context) ([]Unlock, error)

	// ResetAll removes every unlock
	ResetAll(ctx context.Context) error
}

// SQLRepository implements Repository using a SQL database
type SQLRepository struct {
	db     *sql.DB
	logger *loggy.Logger
}

// NewSQLRepository creates a new SQL achievement repository
func NewSQLRepository(db *sql.DB, logger *loggy.Logger) *SQLRepository {
	return &SQLRepository{db: db, logger: logger}
}

// Unlock records an achievement unlock if it is not already present
func (r *SQLRepository) Unlock(ctx context.Context, a Achievement, at time.Time) (bool, error) {
	query := sq.Insert("achievements").
		Columns("id", "unlocked_at").
		Values(a, at).
		Suffix("ON CONFLICT(id) DO NOTHING")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return false, fmt.Errorf("generating SQL: %w", err)
	}

	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return false, fmt.Errorf("executing query: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading affected rows: %w", err)
	}

	return affected > 0, nil
}

// ListUnlocks retrieves all unlocks ordered by unlock time
func (r *SQLRepository) ListUnlocks(ctx context.Context) ([]Unlock, error) {
	query := sq.Select("id", "unlocked_at").
		From("achievements").
		OrderBy("unlocked_at ASC")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("generating SQL: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	var unlocks []Unlock
	for rows.Next() {
		var u Unlock
		if err := rows.Scan(&u.Achievement, &u.UnlockedAt); err != nil {
			return nil, fmt.Errorf("scanning unlock: %w", err)
		}
		unlocks = append(unlocks, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating unlock rows: %w", err)
	}

	return unlocks, nil
}

// ResetAll removes every unlock
func (r *SQLRepository) ResetAll(ctx context.Context) error {
	query := sq.Delete("achievements")

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
