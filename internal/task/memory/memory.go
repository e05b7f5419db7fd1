package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/wolsen/snap-openstack-sub000/internal/clock"
	"github.com/wolsen/snap-openstack-sub000/internal/log"
	"github.com/wolsen/snap-openstack-sub000/internal/model"
	"github.com/wolsen/snap-openstack-sub000/internal/task"
)

var _ task.Manager = (*Manager)(nil)

// ManagerConfig is the configuration for the in-memory task manager.
type ManagerConfig struct {
	Clock  clock.Clock
	Logger log.Logger
}

func (c *ManagerConfig) defaults() error {
	if c.Clock == nil {
		c.Clock = clock.Real
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "task.Memory"})
	return nil
}

// Manager is an in-memory implementation of task.Manager. The journal lives only
// as long as the process.
type Manager struct {
	tasks  map[string]*task.Task
	runs   map[string][]string // Run ID -> task IDs in order.
	clock  clock.Clock
	mu     sync.RWMutex
	logger log.Logger
}

// NewManager creates a new in-memory task manager.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Manager{
		tasks:  map[string]*task.Task{},
		runs:   map[string][]string{},
		clock:  cfg.Clock,
		logger: cfg.Logger,
	}, nil
}

// AddTasks adds multiple tasks to a run in order.
func (m *Manager) AddTasks(ctx context.Context, runID, plan string, names []string) error {
	if len(names) == 0 {
		return nil
	}
	if runID == "" {
		return fmt.Errorf("run ID is required: %w", model.ErrNotValid)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now().UTC()
	seq := len(m.runs[runID])
	for i, name := range names {
		t := &task.Task{
			ID:        ulid.Make().String(),
			RunID:     runID,
			Plan:      plan,
			Sequence:  seq + i + 1,
			Name:      name,
			Status:    task.StatusPending,
			CreatedAt: now,
		}
		m.tasks[t.ID] = t
		m.runs[runID] = append(m.runs[runID], t.ID)
	}

	m.logger.Debugf("Added %d tasks for run %s plan %s", len(names), runID, plan)
	return nil
}

// NextTask returns the next pending task of a run, or nil if all are finished.
func (m *Manager) NextTask(ctx context.Context, runID string) (*task.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, id := range m.runs[runID] {
		t := m.tasks[id]
		if t.Status == task.StatusPending {
			tc := *t
			return &tc, nil
		}
	}

	return nil, nil
}

// CompleteTask marks a task as completed.
func (m *Manager) CompleteTask(ctx context.Context, taskID string) error {
	return m.finish(taskID, task.StatusDone, "")
}

// SkipTask marks a task as skipped with the reason.
func (m *Manager) SkipTask(ctx context.Context, taskID, reason string) error {
	return m.finish(taskID, task.StatusSkipped, reason)
}

// FailTask marks a task as failed with an error message.
func (m *Manager) FailTask(ctx context.Context, taskID string, taskErr error) error {
	msg := ""
	if taskErr != nil {
		msg = taskErr.Error()
	}
	return m.finish(taskID, task.StatusFailed, msg)
}

func (m *Manager) finish(taskID string, status task.Status, msg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[taskID]
	if !ok {
		return fmt.Errorf("task %s: %w", taskID, model.ErrNotFound)
	}
	t.Status = status
	t.Message = msg

	m.logger.Debugf("Task %s finished as %s", taskID, status)
	return nil
}

// Progress returns the completion progress of a run, skipped tasks count as done.
func (m *Manager) Progress(ctx context.Context, runID string) (*task.Progress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p := &task.Progress{Total: len(m.runs[runID])}
	for _, id := range m.runs[runID] {
		switch m.tasks[id].Status {
		case task.StatusDone, task.StatusSkipped:
			p.Done++
		}
	}

	return p, nil
}

// ListTasks returns the tasks of a run in order.
func (m *Manager) ListTasks(ctx context.Context, runID string) ([]task.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tasks := make([]task.Task, 0, len(m.runs[runID]))
	for _, id := range m.runs[runID] {
		tasks = append(tasks, *m.tasks[id])
	}
	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].Sequence < tasks[j].Sequence })

	return tasks, nil
}

// RunIDs returns the IDs of all the journaled runs sorted.
func (m *Manager) RunIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.runs))
	for id := range m.runs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids
}
