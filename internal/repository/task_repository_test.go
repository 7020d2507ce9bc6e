package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func newTaskRepoMock(t *testing.T) (*TaskRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewTaskRepo(db), mock
}

var taskRowCols = []string{
	"id", "user_id", "title", "date", "status", "priority", "order", "created_at", "updated_at",
}

func now() time.Time { return time.Date(2025, 2, 12, 10, 0, 0, 0, time.UTC) }

func TestList_FiltersAndPagination(t *testing.T) {
	repo, mock := newTaskRepoMock(t)

	countQ := regexp.QuoteMeta(
		"SELECT COUNT(*) FROM tasks WHERE user_id = ? AND status = ? AND priority = ? AND date >= ? AND date <= ?")
	mock.ExpectQuery(countQ).
		WithArgs(uint64(1), "pending", "high", "2025-02-01", "2025-02-28").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(25))

	dataQ := regexp.QuoteMeta("FROM tasks WHERE user_id = ? AND status = ? AND priority = ? AND date >= ? AND date <= ? ORDER BY date ASC, FIELD(priority,'low','medium','high') DESC, id ASC LIMIT ? OFFSET ?")
	rows := sqlmock.NewRows(taskRowCols).
		AddRow(5, 1, "write report", "2025-02-12", "pending", "high", nil, now(), now()).
		AddRow(6, 1, "review PR", "2025-02-13", "pending", "high", 2, now(), now())
	mock.ExpectQuery(dataQ).
		WithArgs(uint64(1), "pending", "high", "2025-02-01", "2025-02-28", 10, 20).
		WillReturnRows(rows)

	tasks, total, err := repo.List(context.Background(), 1, TaskQuery{
		Status:    "pending",
		Priority:  "high",
		StartDate: "2025-02-01",
		EndDate:   "2025-02-28",
		Page:      3,
		PageSize:  10,
	})
	require.NoError(t, err)
	require.EqualValues(t, 25, total)
	require.Len(t, tasks, 2)

	require.Equal(t, "write report", tasks[0].Title)
	require.Equal(t, "2025-02-12", tasks[0].Date)
	require.Nil(t, tasks[0].Order)
	require.NotNil(t, tasks[1].Order)
	require.Equal(t, 2, *tasks[1].Order)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList_NoFilters(t *testing.T) {
	repo, mock := newTaskRepoMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM tasks WHERE user_id = ?")).
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM tasks WHERE user_id = ? ORDER BY")).
		WithArgs(uint64(9), 20, 0).
		WillReturnRows(sqlmock.NewRows(taskRowCols))

	tasks, total, err := repo.List(context.Background(), 9, TaskQuery{Page: 1, PageSize: 20})
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, tasks)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_ReturnsPersistedRow(t *testing.T) {
	repo, mock := newTaskRepoMock(t)

	mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO tasks (user_id, title, date, status, priority) VALUES (?,?,?,?,?)")).
		WithArgs(uint64(1), "buy milk", "2025-03-01", "pending", "medium").
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM tasks WHERE id = ? AND user_id = ?")).
		WithArgs(uint64(11), uint64(1)).
		WillReturnRows(sqlmock.NewRows(taskRowCols).
			AddRow(11, 1, "buy milk", "2025-03-01", "pending", "medium", nil, now(), now()))

	task, err := repo.Create(context.Background(), 1, "buy milk", "2025-03-01", "pending", "medium")
	require.NoError(t, err)
	require.EqualValues(t, 11, task.ID)
	require.Equal(t, "buy milk", task.Title)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_AppliesOnlySuppliedFields(t *testing.T) {
	repo, mock := newTaskRepoMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM tasks WHERE id = ? AND user_id = ?")).
		WithArgs(uint64(5), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE tasks SET status = ?, updated_at = NOW() WHERE id = ? AND user_id = ?")).
		WithArgs("completed", uint64(5), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM tasks WHERE id = ? AND user_id = ?")).
		WithArgs(uint64(5), uint64(1)).
		WillReturnRows(sqlmock.NewRows(taskRowCols).
			AddRow(5, 1, "write report", "2025-02-12", "completed", "high", nil, now(), now()))
	mock.ExpectCommit()

	status := "completed"
	task, err := repo.Update(context.Background(), 1, 5, TaskPatch{Status: &status})
	require.NoError(t, err)
	require.Equal(t, "completed", task.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_ForeignTaskIsNotFound(t *testing.T) {
	repo, mock := newTaskRepoMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM tasks WHERE id = ? AND user_id = ?")).
		WithArgs(uint64(5), uint64(2)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	title := "hijack"
	_, err := repo.Update(context.Background(), 2, 5, TaskPatch{Title: &title})
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_ZeroRowsIsNotFound(t *testing.T) {
	repo, mock := newTaskRepoMock(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM tasks WHERE id = ? AND user_id = ?")).
		WithArgs(uint64(99), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), 1, 99)
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkReorder_SkipsForeignIdsAndCommits(t *testing.T) {
	repo, mock := newTaskRepoMock(t)

	upd := regexp.QuoteMeta("UPDATE tasks SET `order` = ?, updated_at = NOW() WHERE id = ? AND user_id = ?")
	mock.ExpectBegin()
	mock.ExpectExec(upd).WithArgs(0, uint64(5), uint64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	// Foreign id: matches no row, still no error.
	mock.ExpectExec(upd).WithArgs(1, uint64(77), uint64(1)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(upd).WithArgs(2, uint64(6), uint64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.BulkReorder(context.Background(), 1, []ReorderItem{
		{ID: 5, Order: 0}, {ID: 77, Order: 1}, {ID: 6, Order: 2},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkReorder_RollsBackOnError(t *testing.T) {
	repo, mock := newTaskRepoMock(t)

	upd := regexp.QuoteMeta("UPDATE tasks SET `order` = ?, updated_at = NOW() WHERE id = ? AND user_id = ?")
	mock.ExpectBegin()
	mock.ExpectExec(upd).WithArgs(0, uint64(5), uint64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(upd).WithArgs(1, uint64(6), uint64(1)).WillReturnError(errors.New("connection lost"))
	mock.ExpectRollback()

	err := repo.BulkReorder(context.Background(), 1, []ReorderItem{
		{ID: 5, Order: 0}, {ID: 6, Order: 1},
	})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkReorder_EmptyBatchIsNoop(t *testing.T) {
	repo, mock := newTaskRepoMock(t)

	require.NoError(t, repo.BulkReorder(context.Background(), 1, nil))
	require.NoError(t, mock.ExpectationsWereMet())
}
