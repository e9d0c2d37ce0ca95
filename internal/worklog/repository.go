package worklog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/tildaslashalef/worklog/internal/loggy"
)

// Repository defines operations for persisting worklogs and push history
type Repository interface {
	// SaveWorklog inserts or updates a worklog
	SaveWorklog(ctx context.Context, w *LocalWorklog) error

	// GetWorklog retrieves a worklog by ID, nil if not found
	GetWorklog(ctx context.Context, id string) (*LocalWorklog, error)

	// ListWorklogs retrieves worklogs with work dates in [from, to]
	ListWorklogs(ctx context.Context, from, to time.Time) ([]*LocalWorklog, error)

	// ListByStatus retrieves all worklogs in a given status
	ListByStatus(ctx context.Context, status Status) ([]*LocalWorklog, error)

	// DeleteWorklog removes a worklog row
	DeleteWorklog(ctx context.Context, id string) error

	// DailyTotal sums the hours logged on a calendar day
	DailyTotal(ctx context.Context, day time.Time) (float64, error)

	// SaveHistoryEntry inserts a history entry with its items
	SaveHistoryEntry(ctx context.Context, entry *HistoryEntry, items []HistoryItem) error

	// GetHistoryEntry retrieves an entry and its items, nil if not found
	GetHistoryEntry(ctx context.Context, id string) (*HistoryEntry, []HistoryItem, error)

	// ListHistory retrieves all history entries, newest first
	ListHistory(ctx context.Context) ([]*HistoryEntry, error)

	// SetItemRemoteID records the remote ID assigned to a pushed item
	SetItemRemoteID(ctx context.Context, historyID, worklogID, remoteID string) error

	// MarkHistoryReverted stamps an entry as reverted
	MarkHistoryReverted(ctx context.Context, id string, at time.Time) error
}

// SQLRepository implements Repository using a SQL database
type SQLRepository struct {
	db     *sql.DB
	logger *loggy.Logger
}

// NewSQLRepository creates a new SQL worklog repository
func NewSQLRepository(db *sql.DB, logger *loggy.Logger) *SQLRepository {
	return &SQLRepository{db: db, logger: logger}
}

var worklogColumns = []string{
	"id",
	"issue_key",
	"work_date",
	"hours",
	"comment",
	"status",
	"source",
	"source_id",
	"remote_id",
	"created_at",
	"updated_at",
}

// SaveWorklog inserts or updates a worklog
func (r *SQLRepository) SaveWorklog(ctx context.Context, w *LocalWorklog) error {
	query := sq.Insert("worklogs").
		Columns(worklogColumns...).
		Values(
			w.ID,
			w.IssueKey,
			w.WorkDate,
			w.Hours,
			w.Comment,
			w.Status,
			w.Source,
			w.SourceID,
			w.RemoteID,
			w.CreatedAt,
			w.UpdatedAt,
		).
		Suffix("ON CONFLICT(id) DO UPDATE SET issue_key = ?, work_date = ?, hours = ?, comment = ?, status = ?, remote_id = ?, updated_at = ?",
			w.IssueKey,
			w.WorkDate,
			w.Hours,
			w.Comment,
			w.Status,
			w.RemoteID,
			w.UpdatedAt,
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

// GetWorklog retrieves a worklog by ID
func (r *SQLRepository) GetWorklog(ctx context.Context, id string) (*LocalWorklog, error) {
	query := sq.Select(worklogColumns...).
		From("worklogs").
		Where(sq.Eq{"id": id})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("generating SQL: %w", err)
	}

	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	w, err := scanWorklog(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning worklog: %w", err)
	}

	return w, nil
}

// ListWorklogs retrieves worklogs with work dates in [from, to]
func (r *SQLRepository) ListWorklogs(ctx context.Context, from, to time.Time) ([]*LocalWorklog, error) {
	query := sq.Select(worklogColumns...).
		From("worklogs").
		Where(sq.GtOrEq{"work_date": from}).
		Where(sq.LtOrEq{"work_date": to}).
		OrderBy("work_date ASC", "id ASC")

	return r.queryWorklogs(ctx, query)
}

// ListByStatus retrieves all worklogs in a given status
func (r *SQLRepository) ListByStatus(ctx context.Context, status Status) ([]*LocalWorklog, error) {
	query := sq.Select(worklogColumns...).
		From("worklogs").
		Where(sq.Eq{"status": status}).
		OrderBy("work_date ASC", "id ASC")

	return r.queryWorklogs(ctx, query)
}

func (r *SQLRepository) queryWorklogs(ctx context.Context, query sq.SelectBuilder) ([]*LocalWorklog, error) {
	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("generating SQL: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	var worklogs []*LocalWorklog
	for rows.Next() {
		w, err := scanWorklog(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning worklog: %w", err)
		}
		worklogs = append(worklogs, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating worklog rows: %w", err)
	}

	return worklogs, nil
}

// DeleteWorklog removes a worklog row
func (r *SQLRepository) DeleteWorklog(ctx context.Context, id string) error {
	query := sq.Delete("worklogs").
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

// DailyTotal sums the hours logged on a calendar day
func (r *SQLRepository) DailyTotal(ctx context.Context, day time.Time) (float64, error) {
	dayStart := day.UTC().Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24*time.Hour - time.Nanosecond)

	query := sq.Select("COALESCE(SUM(hours), 0)").
		From("worklogs").
		Where(sq.GtOrEq{"work_date": dayStart}).
		Where(sq.LtOrEq{"work_date": dayEnd})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("generating SQL: %w", err)
	}

	var total float64
	err = r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("executing query: %w", err)
	}

	return total, nil
}

// SaveHistoryEntry inserts a history entry with its items
func (r *SQLRepository) SaveHistoryEntry(ctx context.Context, entry *HistoryEntry, items []HistoryItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	entryQuery := sq.Insert("worklog_history").
		Columns("id", "name", "total_hours", "item_count", "pushed_at", "reverted_at").
		Values(entry.ID, entry.Name, entry.TotalHours, entry.ItemCount, entry.PushedAt, entry.RevertedAt)

	sqlStr, args, err := entryQuery.ToSql()
	if err != nil {
		return fmt.Errorf("generating SQL: %w", err)
	}
	if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("inserting history entry: %w", err)
	}

	for _, item := range items {
		itemQuery := sq.Insert("worklog_history_items").
			Columns("history_id", "worklog_id", "issue_key", "work_date", "hours", "remote_id").
			Values(entry.ID, item.WorklogID, item.IssueKey, item.WorkDate, item.Hours, item.RemoteID)

		sqlStr, args, err := itemQuery.ToSql()
		if err != nil {
			return fmt.Errorf("generating SQL: %w", err)
		}
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return fmt.Errorf("inserting history item: %w", err)
		}
	}

	return tx.Commit()
}

// GetHistoryEntry retrieves an entry and its items
func (r *SQLRepository) GetHistoryEntry(ctx context.Context, id string) (*HistoryEntry, []HistoryItem, error) {
	entryQuery := sq.Select("id", "name", "total_hours", "item_count", "pushed_at", "reverted_at").
		From("worklog_history").
		Where(sq.Eq{"id": id})

	sqlStr, args, err := entryQuery.ToSql()
	if err != nil {
		return nil, nil, fmt.Errorf("generating SQL: %w", err)
	}

	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	entry, err := scanHistoryEntry(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("scanning history entry: %w", err)
	}

	itemQuery := sq.Select("history_id", "worklog_id", "issue_key", "work_date", "hours", "remote_id").
		From("worklog_history_items").
		Where(sq.Eq{"history_id": id}).
		OrderBy("work_date ASC", "worklog_id ASC")

	sqlStr, args, err = itemQuery.ToSql()
	if err != nil {
		return nil, nil, fmt.Errorf("generating SQL: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	var items []HistoryItem
	for rows.Next() {
		var item HistoryItem
		var remoteID sql.NullString
		err := rows.Scan(&item.HistoryID, &item.WorklogID, &item.IssueKey, &item.WorkDate, &item.Hours, &remoteID)
		if err != nil {
			return nil, nil, fmt.Errorf("scanning history item: %w", err)
		}
		if remoteID.Valid {
			item.RemoteID = &remoteID.String
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterating history item rows: %w", err)
	}

	return entry, items, nil
}

// ListHistory retrieves all history entries, newest first
func (r *SQLRepository) ListHistory(ctx context.Context) ([]*HistoryEntry, error) {
	query := sq.Select("id", "name", "total_hours", "item_count", "pushed_at", "reverted_at").
		From("worklog_history").
		OrderBy("pushed_at DESC")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("generating SQL: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	var entries []*HistoryEntry
	for rows.Next() {
		entry, err := scanHistoryEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning history entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history rows: %w", err)
	}

	return entries, nil
}

// SetItemRemoteID records the remote ID assigned to a pushed item
func (r *SQLRepository) SetItemRemoteID(ctx context.Context, historyID, worklogID, remoteID string) error {
	query := sq.Update("worklog_history_items").
		Set("remote_id", remoteID).
		Where(sq.Eq{"history_id": historyID, "worklog_id": worklogID})

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

// MarkHistoryReverted stamps an entry as reverted
func (r *SQLRepository) MarkHistoryReverted(ctx context.Context, id string, at time.Time) error {
	query := sq.Update("worklog_history").
		Set("reverted_at", at).
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

type scanner interface {
	Scan(dest ...any) error
}

func scanWorklog(row scanner) (*LocalWorklog, error) {
	var w LocalWorklog
	var sourceID, remoteID sql.NullString

	err := row.Scan(
		&w.ID,
		&w.IssueKey,
		&w.WorkDate,
		&w.Hours,
		&w.Comment,
		&w.Status,
		&w.Source,
		&sourceID,
		&remoteID,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if sourceID.Valid {
		w.SourceID = &sourceID.String
	}
	if remoteID.Valid {
		w.RemoteID = &remoteID.String
	}

	return &w, nil
}

func scanHistoryEntry(row scanner) (*HistoryEntry, error) {
	var entry HistoryEntry
	var revertedAt sql.NullTime

	err := row.Scan(
		&entry.ID,
		&entry.Name,
		&entry.TotalHours,
		&entry.ItemCount,
		&entry.PushedAt,
		&revertedAt,
	)
	if err != nil {
		return nil, err
	}

	if revertedAt.Valid {
		entry.RevertedAt = &revertedAt.Time
	}

	return &entry, nil
}
