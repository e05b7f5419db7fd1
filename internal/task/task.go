package task

import (
	"context"
	"time"
)

// Status represents the state of a task.
type Status string

const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Task represents a single step of a plan run.
type Task struct {
	ID        string
	RunID     string
	Plan      string
	Sequence  int
	Name      string
	Status    Status
	Message   string
	CreatedAt time.Time
}

// Progress represents the completion state of a run.
type Progress struct {
	Done  int
	Total int
}

// Manager journals the steps of plan runs.
type Manager interface {
	// AddTasks adds multiple tasks to a run in order.
	AddTasks(ctx context.Context, runID, plan string, names []string) error

	// NextTask returns the next pending task of a run, or nil if all are finished.
	NextTask(ctx context.Context, runID string) (*Task, error)

	// CompleteTask marks a task as completed.
	CompleteTask(ctx context.Context, taskID string) error

	// SkipTask marks a task as skipped with the reason.
	SkipTask(ctx context.Context, taskID, reason string) error

	// FailTask marks a task as failed with an error message.
	FailTask(ctx context.Context, taskID string, err error) error

	// Progress returns the completion progress of a run.
	Progress(ctx context.Context, runID string) (*Progress, error)

	// ListTasks returns the tasks of a run in order.
	ListTasks(ctx context.Context, runID string) ([]Task, error)
}
