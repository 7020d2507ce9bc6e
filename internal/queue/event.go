// Package queue defines the message payloads exchanged over the
// broker, the publisher, and the background consumer that turns
// task-completion events into an activity log.
package queue

// TaskCompletedEvent is published when a patch moves a task into
// completed status. It carries enough for downstream consumers to
// log or notify without querying the primary database.
type TaskCompletedEvent struct {
	TaskID      uint64 `json:"task_id"`
	UserID      uint64 `json:"user_id"`
	Title       string `json:"title"`
	Date        string `json:"date"`
	Priority    string `json:"priority"`
	CompletedAt string `json:"completed_at"`
}
