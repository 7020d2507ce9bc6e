package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/task-planner/internal/model"
	"github.com/iliyamo/task-planner/internal/repository"
)

// ErrValidation marks malformed input: empty or overlong titles,
// unparseable dates, unknown status or priority values, empty
// patches. Handlers translate it into HTTP 400.
var ErrValidation = errors.New("validation error")

const maxTitleLen = 200

// Pagination bounds for task listing.
const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// TaskService validates and executes task mutations on behalf of an
// authenticated user. Ownership is enforced by the repository (all
// statements are scoped by user_id); this layer owns input
// validation, defaults and the completed-task event.
type TaskService struct {
	Tasks *repository.TaskRepo

	// Completed, when set, is invoked after a patch moves a task to
	// completed status. Fire-and-forget: publish failures never fail
	// the mutation.
	Completed func(ctx context.Context, t model.Task)
}

func NewTaskService(tasks *repository.TaskRepo) *TaskService {
	return &TaskService{Tasks: tasks}
}

// TaskPage is the result of List: one page of tasks plus enough
// information for the caller to render pagination controls.
type TaskPage struct {
	Tasks []model.Task
	Total int64
	Page  int
	Limit int
	Pages int
}

// List returns the user's tasks matching the query. Filters are
// validated against the enums, page defaults to 1 and the page size
// is clamped to 1..100 with a default of 20.
func (s *TaskService) List(ctx context.Context, userID uint64, q repository.TaskQuery) (TaskPage, error) {
	if q.Status != "" && !model.ValidStatus(q.Status) {
		return TaskPage{}, fmt.Errorf("%w: unknown status %q", ErrValidation, q.Status)
	}
	if q.Priority != "" && !model.ValidPriority(q.Priority) {
		return TaskPage{}, fmt.Errorf("%w: unknown priority %q", ErrValidation, q.Priority)
	}
	if q.StartDate != "" {
		if _, err := time.Parse("2006-01-02", q.StartDate); err != nil {
			return TaskPage{}, fmt.Errorf("%w: bad startDate", ErrValidation)
		}
	}
	if q.EndDate != "" {
		if _, err := time.Parse("2006-01-02", q.EndDate); err != nil {
			return TaskPage{}, fmt.Errorf("%w: bad endDate", ErrValidation)
		}
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = defaultPageSize
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}

	tasks, total, err := s.Tasks.List(ctx, userID, q)
	if err != nil {
		return TaskPage{}, err
	}
	pages := int((total + int64(q.PageSize) - 1) / int64(q.PageSize))
	return TaskPage{Tasks: tasks, Total: total, Page: q.Page, Limit: q.PageSize, Pages: pages}, nil
}

// Range returns all tasks between two mandatory dates for the
// calendar view.
func (s *TaskService) Range(ctx context.Context, userID uint64, start, end string) ([]model.Task, error) {
	if _, err := time.Parse("2006-01-02", start); err != nil {
		return nil, fmt.Errorf("%w: bad startDate", ErrValidation)
	}
	if _, err := time.Parse("2006-01-02", end); err != nil {
		return nil, fmt.Errorf("%w: bad endDate", ErrValidation)
	}
	return s.Tasks.ListRange(ctx, userID, start, end)
}

// Create validates and persists a new task owned by userID. Status
// and priority default to pending/medium when empty.
func (s *TaskService) Create(ctx context.Context, userID uint64, title, date, status, priority string) (model.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Task{}, fmt.Errorf("%w: title required", ErrValidation)
	}
	if len(title) > maxTitleLen {
		return model.Task{}, fmt.Errorf("%w: title exceeds %d characters", ErrValidation, maxTitleLen)
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return model.Task{}, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	}
	if status == "" {
		status = model.StatusPending
	}
	if !model.ValidStatus(status) {
		return model.Task{}, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	if priority == "" {
		priority = model.PriorityMedium
	}
	if !model.ValidPriority(priority) {
		return model.Task{}, fmt.Errorf("%w: unknown priority %q", ErrValidation, priority)
	}
	return s.Tasks.Create(ctx, userID, title, date, status, priority)
}

// Patch applies a partial update to one of the user's tasks. At
// least one whitelisted field must be present; each supplied field is
// validated like in Create. A task belonging to another user is
// indistinguishable from a missing one (repository.ErrNotFound).
func (s *TaskService) Patch(ctx context.Context, userID, taskID uint64, p repository.TaskPatch) (model.Task, error) {
	if p.Empty() {
		return model.Task{}, fmt.Errorf("%w: no updatable fields supplied", ErrValidation)
	}
	if p.Title != nil {
		t := strings.TrimSpace(*p.Title)
		if t == "" {
			return model.Task{}, fmt.Errorf("%w: title must not be empty", ErrValidation)
		}
		if len(t) > maxTitleLen {
			return model.Task{}, fmt.Errorf("%w: title exceeds %d characters", ErrValidation, maxTitleLen)
		}
		p.Title = &t
	}
	if p.Date != nil {
		if _, err := time.Parse("2006-01-02", *p.Date); err != nil {
			return model.Task{}, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
		}
	}
	if p.Status != nil && !model.ValidStatus(*p.Status) {
		return model.Task{}, fmt.Errorf("%w: unknown status %q", ErrValidation, *p.Status)
	}
	if p.Priority != nil && !model.ValidPriority(*p.Priority) {
		return model.Task{}, fmt.Errorf("%w: unknown priority %q", ErrValidation, *p.Priority)
	}

	t, err := s.Tasks.Update(ctx, userID, taskID, p)
	if err != nil {
		return model.Task{}, err
	}
	if s.Completed != nil && p.Status != nil && *p.Status == model.StatusCompleted {
		s.Completed(ctx, t)
	}
	return t, nil
}

// Delete removes one of the user's tasks.
func (s *TaskService) Delete(ctx context.Context, userID, taskID uint64) error {
	return s.Tasks.Delete(ctx, userID, taskID)
}

// BulkReorder persists new manual positions for the user's tasks in
// one transaction. Foreign ids are skipped, not rejected.
func (s *TaskService) BulkReorder(ctx context.Context, userID uint64, items []repository.ReorderItem) error {
	return s.Tasks.BulkReorder(ctx, userID, items)
}
