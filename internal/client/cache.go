package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/iliyamo/task-planner/internal/model"
)

// ErrNotCached is returned by operations that need the task's current
// local state (toggle) when the id is not in the cache.
var ErrNotCached = errors.New("task not in local cache")

// TaskCache is the optimistic in-memory mirror of the signed-in
// user's tasks. All mutating UI actions go through it; server
// responses are authoritative and replace the local entries they
// concern. The session is injected explicitly so the data flow stays
// testable.
//
// Concurrency: the mutex only guards the slice. Two in-flight
// mutations for the same task can race and the last response to
// arrive wins locally — accepted limitation, matching the server's
// last-write-wins policy.
type TaskCache struct {
	api  *Client
	sess Session

	mu    sync.Mutex
	tasks []model.Task

	// OnReorderError, when set, receives failures from the
	// asynchronous persistence of a local reorder. The local order is
	// intentionally kept: snapping the list back mid-drag would be
	// worse for the user than a stale order that the next FetchAll
	// corrects.
	OnReorderError func(error)
}

func NewTaskCache(api *Client, sess Session) *TaskCache {
	return &TaskCache{api: api, sess: sess}
}

// Tasks returns a copy of the current local list.
func (tc *TaskCache) Tasks() []model.Task {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	out := make([]model.Task, len(tc.tasks))
	copy(out, tc.tasks)
	return out
}

// FetchAll replaces the entire local list with the server's state.
// A malformed response becomes an empty list, never a crash.
func (tc *TaskCache) FetchAll(ctx context.Context) error {
	tasks, err := tc.api.ListTasks(ctx, tc.sess)
	if err != nil {
		return err
	}
	tc.mu.Lock()
	tc.tasks = tasks
	tc.mu.Unlock()
	return nil
}

// Add creates a task on the server and appends the returned row to
// the local list. There is no optimistic insert: the id is
// server-assigned, and a locally invented one would have to be
// patched up afterwards.
func (tc *TaskCache) Add(ctx context.Context, d TaskDraft) (model.Task, error) {
	t, err := tc.api.CreateTask(ctx, tc.sess, d)
	if err != nil {
		return model.Task{}, err
	}
	tc.mu.Lock()
	tc.tasks = append(tc.tasks, t)
	tc.mu.Unlock()
	return t, nil
}

// ToggleStatus flips a task between pending and completed based on
// its current local status and swaps in the server's row on success.
func (tc *TaskCache) ToggleStatus(ctx context.Context, id uint64) (model.Task, error) {
	tc.mu.Lock()
	cur, ok := tc.find(id)
	tc.mu.Unlock()
	if !ok {
		return model.Task{}, ErrNotCached
	}

	next := model.StatusCompleted
	if cur.Status == model.StatusCompleted {
		next = model.StatusPending
	}
	t, err := tc.api.PatchTask(ctx, tc.sess, id, TaskPatch{Status: &next})
	if err != nil {
		return model.Task{}, err
	}
	tc.replace(t)
	return t, nil
}

// Update applies an arbitrary partial update and reconciles the local
// entry with the server's row.
func (tc *TaskCache) Update(ctx context.Context, id uint64, p TaskPatch) (model.Task, error) {
	t, err := tc.api.PatchTask(ctx, tc.sess, id, p)
	if err != nil {
		return model.Task{}, err
	}
	tc.replace(t)
	return t, nil
}

// MoveToDate handles a drop onto a calendar day: a date change, not a
// reordering.
func (tc *TaskCache) MoveToDate(ctx context.Context, id uint64, newDate string) (model.Task, error) {
	return tc.Update(ctx, id, TaskPatch{Date: &newDate})
}

// Remove deletes a task on the server and prunes it locally only
// after the server confirms. Removing first and restoring on failure
// would let a transient error resurrect a task mid-interaction.
func (tc *TaskCache) Remove(ctx context.Context, id uint64) error {
	if err := tc.api.DeleteTask(ctx, tc.sess, id); err != nil {
		return err
	}
	tc.mu.Lock()
	defer tc.mu.Unlock()
	for i, t := range tc.tasks {
		if t.ID == id {
			tc.tasks = append(tc.tasks[:i], tc.tasks[i+1:]...)
			break
		}
	}
	return nil
}

// ReorderWithinList moves a task from one position to another
// immediately, keeping drag feedback responsive, and persists the new
// order asynchronously via bulk-update. Persistence failures go to
// OnReorderError; the local order is not rolled back.
func (tc *TaskCache) ReorderWithinList(fromIndex, toIndex int) error {
	if tc.sess.AccessToken == "" {
		return ErrUnauthenticated
	}

	tc.mu.Lock()
	if fromIndex < 0 || fromIndex >= len(tc.tasks) || toIndex < 0 || toIndex >= len(tc.tasks) {
		tc.mu.Unlock()
		return errors.New("reorder index out of range")
	}
	moved := tc.tasks[fromIndex]
	tc.tasks = append(tc.tasks[:fromIndex], tc.tasks[fromIndex+1:]...)
	tc.tasks = append(tc.tasks[:toIndex], append([]model.Task{moved}, tc.tasks[toIndex:]...)...)

	items := make([]ReorderItem, len(tc.tasks))
	for i := range tc.tasks {
		n := i
		tc.tasks[i].Order = &n
		items[i] = ReorderItem{ID: tc.tasks[i].ID, Order: i}
	}
	tc.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := tc.api.BulkUpdate(ctx, tc.sess, items); err != nil && tc.OnReorderError != nil {
			tc.OnReorderError(err)
		}
	}()
	return nil
}

// find returns the cached task with the given id. Caller holds tc.mu.
func (tc *TaskCache) find(id uint64) (model.Task, bool) {
	for _, t := range tc.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}

// replace swaps the cached entry matching t.ID for t, if present.
func (tc *TaskCache) replace(t model.Task) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	for i := range tc.tasks {
		if tc.tasks[i].ID == t.ID {
			tc.tasks[i] = t
			return
		}
	}
}
