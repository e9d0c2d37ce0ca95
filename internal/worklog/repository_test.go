package worklog

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tildaslashalef/worklog/internal/loggy"
)

func newTestRepository(db *sql.DB) *SQLRepository {
	return NewSQLRepository(db, loggy.NewNoopLogger())
}

func TestWorklogRepository(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create mock database")
	defer db.Close()

	repo := newTestRepository(db)

	sourceID := "mtg_01HX5ZZKBM"
	sample := &LocalWorklog{
		ID:        "wl_123456",
		IssueKey:  "PROJ-42",
		WorkDate:  time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		Hours:     1.5,
		Comment:   "Sprint planning",
		Status:    StatusCreated,
		Source:    SourceMeeting,
		SourceID:  &sourceID,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	t.Run("SaveWorklog", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO worklogs").
			WithArgs(
				sample.ID,
				sample.IssueKey,
				sample.WorkDate,
				sample.Hours,
				sample.Comment,
				string(sample.Status),
				string(sample.Source),
				sample.SourceID,
				nil,
				sqlmock.AnyArg(),
				sqlmock.AnyArg(),
				sample.IssueKey,
				sample.WorkDate,
				sample.Hours,
				sample.Comment,
				string(sample.Status),
				nil,
				sqlmock.AnyArg(),
			).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := repo.SaveWorklog(context.Background(), sample)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("GetWorklog", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{
			"id", "issue_key", "work_date", "hours", "comment",
			"status", "source", "source_id", "remote_id", "created_at", "updated_at",
		}).AddRow(
			sample.ID, sample.IssueKey, sample.WorkDate, sample.Hours, sample.Comment,
			string(sample.Status), string(sample.Source), sourceID, nil,
			sample.CreatedAt, sample.UpdatedAt,
		)

		mock.ExpectQuery("SELECT .+ FROM worklogs WHERE id = ?").
			WithArgs(sample.ID).
			WillReturnRows(rows)

		got, err := repo.GetWorklog(context.Background(), sample.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, sample.IssueKey, got.IssueKey)
		assert.Equal(t, StatusCreated, got.Status)
		require.NotNil(t, got.SourceID)
		assert.Equal(t, sourceID, *got.SourceID)
		assert.Nil(t, got.RemoteID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("GetWorklogNotFound", func(t *testing.T) {
		mock.ExpectQuery("SELECT .+ FROM worklogs WHERE id = ?").
			WithArgs("wl_missing").
			WillReturnError(sql.ErrNoRows)

		got, err := repo.GetWorklog(context.Background(), "wl_missing")
		assert.NoError(t, err)
		assert.Nil(t, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DailyTotal", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"total"}).AddRow(6.5)

		mock.ExpectQuery(`SELECT COALESCE\(SUM\(hours\), 0\) FROM worklogs`).
			WillReturnRows(rows)

		total, err := repo.DailyTotal(context.Background(), sample.WorkDate)
		require.NoError(t, err)
		assert.InDelta(t, 6.5, total, 0.001)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ListByStatus", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{
			"id", "issue_key", "work_date", "hours", "comment",
			"status", "source", "source_id", "remote_id", "created_at", "updated_at",
		}).AddRow(
			sample.ID, sample.IssueKey, sample.WorkDate, sample.Hours, sample.Comment,
			string(StatusStaged), string(sample.Source), nil, nil,
			sample.CreatedAt, sample.UpdatedAt,
		)

		mock.ExpectQuery("SELECT .+ FROM worklogs WHERE status = ?").
			WithArgs(string(StatusStaged)).
			WillReturnRows(rows)

		got, err := repo.ListByStatus(context.Background(), StatusStaged)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, StatusStaged, got[0].Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestHistoryRepository(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create mock database")
	defer db.Close()

	repo := newTestRepository(db)

	entry := &HistoryEntry{
		ID:         "hist_123456",
		Name:       "quiet-meadow",
		TotalHours: 7.5,
		ItemCount:  2,
		PushedAt:   time.Date(2025, 3, 14, 17, 0, 0, 0, time.UTC),
	}
	items := []HistoryItem{
		{HistoryID: entry.ID, WorklogID: "wl_1", IssueKey: "PROJ-1", WorkDate: entry.PushedAt, Hours: 3.5},
		{HistoryID: entry.ID, WorklogID: "wl_2", IssueKey: "PROJ-2", WorkDate: entry.PushedAt, Hours: 4.0},
	}

	t.Run("SaveHistoryEntry", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO worklog_history ").
			WithArgs(entry.ID, entry.Name, entry.TotalHours, entry.ItemCount, entry.PushedAt, nil).
			WillReturnResult(sqlmock.NewResult(1, 1))
		for _, item := range items {
			mock.ExpectExec("INSERT INTO worklog_history_items").
				WithArgs(entry.ID, item.WorklogID, item.IssueKey, item.WorkDate, item.Hours, nil).
				WillReturnResult(sqlmock.NewResult(1, 1))
		}
		mock.ExpectCommit()

		err := repo.SaveHistoryEntry(context.Background(), entry, items)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("GetHistoryEntry", func(t *testing.T) {
		entryRows := sqlmock.NewRows([]string{
			"id", "name", "total_hours", "item_count", "pushed_at", "reverted_at",
		}).AddRow(entry.ID, entry.Name, entry.TotalHours, entry.ItemCount, entry.PushedAt, nil)

		mock.ExpectQuery("SELECT .+ FROM worklog_history WHERE id = ?").
			WithArgs(entry.ID).
			WillReturnRows(entryRows)

		itemRows := sqlmock.NewRows([]string{
			"history_id", "worklog_id", "issue_key", "work_date", "hours", "remote_id",
		})
		for _, item := range items {
			itemRows.AddRow(item.HistoryID, item.WorklogID, item.IssueKey, item.WorkDate, item.Hours, "rw-1")
		}

		mock.ExpectQuery("SELECT .+ FROM worklog_history_items WHERE history_id = ?").
			WithArgs(entry.ID).
			WillReturnRows(itemRows)

		got, gotItems, err := repo.GetHistoryEntry(context.Background(), entry.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, entry.Name, got.Name)
		assert.False(t, got.Reverted())
		require.Len(t, gotItems, 2)
		require.NotNil(t, gotItems[0].RemoteID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("MarkHistoryReverted", func(t *testing.T) {
		mock.ExpectExec("UPDATE worklog_history SET reverted_at").
			WithArgs(sqlmock.AnyArg(), entry.ID).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := repo.MarkHistoryReverted(context.Background(), entry.ID, time.Now().UTC())
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
