package model

import "time"

// Task statuses. The set is closed but every transition between
// members is allowed; the planner UI toggles pending/completed and
// sets in_progress explicitly.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Task priorities, ordered low < medium < high for display purposes.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// ValidStatus reports whether s is one of the known task statuses.
func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusInProgress || s == StatusCompleted
}

// ValidPriority reports whether p is one of the known task priorities.
func ValidPriority(p string) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Task represents a row in the `tasks` table. Unlike User this type
// is serialized directly in API responses and consumed by the client
// cache, so it carries json tags. Date is kept as a plain
// YYYY-MM-DD string: tasks belong to a calendar day, not a point in
// time, and formatting happens in SQL via DATE_FORMAT.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owning user; every query is scoped by this column.
//  Title     – 1–200 characters, never empty.
//  Date      – calendar day the task is planned for.
//  Status    – one of pending, in_progress, completed.
//  Priority  – one of low, medium, high.
//  Order     – optional manual position inside a day's list (nullable).
//  CreatedAt – creation timestamp.
//  UpdatedAt – refreshed on every mutation.
type Task struct {
	ID        uint64    `json:"id"`         // tasks.id
	UserID    uint64    `json:"user_id"`    // tasks.user_id
	Title     string    `json:"title"`      // tasks.title
	Date      string    `json:"date"`       // tasks.date (DATE, formatted YYYY-MM-DD)
	Status    string    `json:"status"`     // tasks.status
	Priority  string    `json:"priority"`   // tasks.priority
	Order     *int      `json:"order"`      // tasks.`order` (nullable)
	CreatedAt time.Time `json:"created_at"` // tasks.created_at
	UpdatedAt time.Time `json:"updated_at"` // tasks.updated_at
}
