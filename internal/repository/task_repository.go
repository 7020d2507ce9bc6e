package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/task-planner/internal/model"
)

// TaskRepo provides ownership-scoped access to the tasks table.
// Every statement filters by user_id; a task id belonging to another
// user behaves exactly like a missing row.
type TaskRepo struct{ DB *sql.DB }

func NewTaskRepo(db *sql.DB) *TaskRepo { return &TaskRepo{DB: db} }

// taskCols selects the full row with the date formatted as a plain
// calendar day. Priority sorting uses FIELD so high > medium > low
// instead of the accidental lexicographic order of the raw strings.
const taskCols = "id, user_id, title, DATE_FORMAT(date,'%Y-%m-%d'), status, priority, `order`, created_at, updated_at"

const taskOrderBy = " ORDER BY date ASC, FIELD(priority,'low','medium','high') DESC, id ASC"

func scanTask(row interface{ Scan(...any) error }) (model.Task, error) {
	var t model.Task
	var order sql.NullInt64
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Date, &t.Status, &t.Priority,
		&order, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return model.Task{}, err
	}
	if order.Valid {
		n := int(order.Int64)
		t.Order = &n
	}
	return t, nil
}

// TaskQuery defines the filters and pagination for listing tasks.
// All filters are combined with AND; empty strings mean "no filter".
// Page is 1-indexed and PageSize is assumed to be clamped by the
// caller.
type TaskQuery struct {
	Status    string
	Priority  string
	StartDate string // inclusive lower bound, YYYY-MM-DD
	EndDate   string // inclusive upper bound, YYYY-MM-DD
	Page      int
	PageSize  int
}

// List returns one page of the user's tasks plus the total count of
// the filtered set before pagination, so callers can compute the
// number of pages independently of the page size.
func (r *TaskRepo) List(ctx context.Context, userID uint64, q TaskQuery) ([]model.Task, int64, error) {
	where := []string{"user_id = ?"}
	args := []any{userID}

	if q.Status != "" {
		where = append(where, "status = ?")
		args = append(args, q.Status)
	}
	if q.Priority != "" {
		where = append(where, "priority = ?")
		args = append(args, q.Priority)
	}
	if q.StartDate != "" {
		where = append(where, "date >= ?")
		args = append(args, q.StartDate)
	}
	if q.EndDate != "" {
		where = append(where, "date <= ?")
		args = append(args, q.EndDate)
	}
	cond := strings.Join(where, " AND ")

	var total int64
	countSQL := "SELECT COUNT(*) FROM tasks WHERE " + cond
	if err := r.DB.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := q.PageSize
	offset := (q.Page - 1) * q.PageSize

	dataSQL := "SELECT " + taskCols + " FROM tasks WHERE " + cond +
		taskOrderBy + " LIMIT ? OFFSET ?"
	argsData := append(append([]any{}, args...), limit, offset)

	rows, err := r.DB.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Task, 0, limit)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ListRange returns all of the user's tasks between two dates,
// inclusive, without pagination. Used by the calendar view.
func (r *TaskRepo) ListRange(ctx context.Context, userID uint64, start, end string) ([]model.Task, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+taskCols+" FROM tasks WHERE user_id = ? AND date BETWEEN ? AND ?"+taskOrderBy,
		userID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Create inserts a task and returns the persisted row, including the
// generated id and timestamps.
func (r *TaskRepo) Create(ctx context.Context, userID uint64, title, date, status, priority string) (model.Task, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO tasks (user_id, title, date, status, priority) VALUES (?,?,?,?,?)",
		userID, title, date, status, priority)
	if err != nil {
		return model.Task{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Task{}, err
	}
	return r.getScoped(ctx, r.DB, uint64(id), userID)
}

// TaskPatch carries the optional fields of a partial update. Nil
// means "leave unchanged". Columns are fixed here; caller-supplied
// keys never reach SQL construction.
type TaskPatch struct {
	Title    *string
	Date     *string
	Status   *string
	Priority *string
	Order    *int
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Date == nil && p.Status == nil &&
		p.Priority == nil && p.Order == nil
}

// Update applies a partial update to a task scoped to its owner and
// returns the updated row. The whole operation runs in one
// transaction: existence is verified first so a no-op update is still
// distinguishable from a missing or foreign row, then the SET clause
// is assembled from the fixed column whitelist, then the row is
// re-read.
func (r *TaskRepo) Update(ctx context.Context, userID, taskID uint64, p TaskPatch) (model.Task, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Task{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var id uint64
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM tasks WHERE id = ? AND user_id = ?", taskID, userID).Scan(&id)
	if err == sql.ErrNoRows {
		return model.Task{}, ErrNotFound
	}
	if err != nil {
		return model.Task{}, err
	}

	set := []string{}
	args := []any{}
	if p.Title != nil {
		set = append(set, "title = ?")
		args = append(args, *p.Title)
	}
	if p.Date != nil {
		set = append(set, "date = ?")
		args = append(args, *p.Date)
	}
	if p.Status != nil {
		set = append(set, "status = ?")
		args = append(args, *p.Status)
	}
	if p.Priority != nil {
		set = append(set, "priority = ?")
		args = append(args, *p.Priority)
	}
	if p.Order != nil {
		set = append(set, "`order` = ?")
		args = append(args, *p.Order)
	}
	set = append(set, "updated_at = NOW()")
	args = append(args, taskID, userID)

	if _, err := tx.ExecContext(ctx,
		"UPDATE tasks SET "+strings.Join(set, ", ")+" WHERE id = ? AND user_id = ?",
		args...); err != nil {
		return model.Task{}, err
	}

	t, err := r.getScoped(ctx, tx, taskID, userID)
	if err != nil {
		return model.Task{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Task{}, err
	}
	return t, nil
}

// Delete removes a task scoped to its owner. Zero affected rows
// means the task does not exist or belongs to someone else; both
// report ErrNotFound.
func (r *TaskRepo) Delete(ctx context.Context, userID, taskID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM tasks WHERE id = ? AND user_id = ?", taskID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ReorderItem pairs a task id with its new manual position.
type ReorderItem struct {
	ID    uint64 `json:"id"`
	Order int    `json:"order"`
}

// BulkReorder applies all order updates in a single transaction.
// Ids owned by other users match no row and are skipped silently;
// ordering is a visual hint and has no cross-user effect. Any SQL
// error rolls back the whole batch.
func (r *TaskRepo) BulkReorder(ctx context.Context, userID uint64, items []ReorderItem) error {
	if len(items) == 0 {
		return nil
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, it := range items {
		if _, err := tx.ExecContext(ctx,
			"UPDATE tasks SET `order` = ?, updated_at = NOW() WHERE id = ? AND user_id = ?",
			it.Order, it.ID, userID); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *TaskRepo) getScoped(ctx context.Context, q queryRower, taskID, userID uint64) (model.Task, error) {
	row := q.QueryRowContext(ctx,
		"SELECT "+taskCols+" FROM tasks WHERE id = ? AND user_id = ?", taskID, userID)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return model.Task{}, ErrNotFound
	}
	return t, err
}
