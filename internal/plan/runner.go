package plan

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/wolsen/snap-openstack-sub000/internal/log"
	"github.com/wolsen/snap-openstack-sub000/internal/model"
	"github.com/wolsen/snap-openstack-sub000/internal/task"
	"github.com/wolsen/snap-openstack-sub000/internal/task/memory"
)

// ErrStepFailed is matched by the error returned when a plan stops on a failed step.
var ErrStepFailed = errors.New("step failed")

// StepError is the terminal error of a plan run, it has the failed step result message.
// Err is the result message when it's an error (e.g. a wait timeout).
type StepError struct {
	Step    string
	Message string
	Err     error
	// NotRun are the journaled steps left pending after the failed one.
	NotRun []string
}

func (e *StepError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("step %q failed", e.Step)
	}
	return fmt.Sprintf("step %q failed: %s", e.Step, e.Message)
}

// Is makes the error match ErrStepFailed.
func (e *StepError) Is(target error) bool { return target == ErrStepFailed }

func (e *StepError) Unwrap() error { return e.Err }

// RunnerConfig is the configuration for the plan runner.
type RunnerConfig struct {
	UI     UI
	Tasks  task.Manager
	Logger log.Logger
}

func (c *RunnerConfig) defaults() error {
	if c.UI == nil {
		c.UI = NoopUI
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "plan.Runner"})

	if c.Tasks == nil {
		m, err := memory.NewManager(memory.ManagerConfig{Logger: c.Logger})
		if err != nil {
			return fmt.Errorf("could not create task manager: %w", err)
		}
		c.Tasks = m
	}

	return nil
}

// Runner runs plans, it's the only place steps are executed.
type Runner struct {
	ui     UI
	tasks  task.Manager
	logger log.Logger
}

// NewRunner returns a new plan runner.
func NewRunner(cfg RunnerConfig) (*Runner, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Runner{
		ui:     cfg.UI,
		tasks:  cfg.Tasks,
		logger: cfg.Logger,
	}, nil
}

// Run runs the plan steps in order and returns their results.
//
// For each step the user is prompted (if the step has prompts), then IsSkip is
// checked and Run is only called when IsSkip completed. The first failed result
// (from IsSkip or Run) is recorded and stops the plan with a *StepError, later
// steps are not touched. The returned results are valid even on error.
func (r *Runner) Run(ctx context.Context, name string, p Plan) (*Results, error) {
	results := NewResults()
	runID := ulid.Make().String()
	ctx = r.logger.SetValuesOnCtx(ctx, log.Kv{"plan": name, "run-id": runID})
	logger := r.logger.WithCtxValues(ctx)

	names := make([]string, 0, len(p))
	for _, s := range p {
		names = append(names, s.Name())
	}
	if err := r.tasks.AddTasks(ctx, runID, name, names); err != nil {
		return results, fmt.Errorf("could not journal plan steps: %w", err)
	}

	logger.Debugf("Running plan with %d steps", len(p))
	for _, step := range p {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("plan interrupted before step %q: %w", step.Name(), err)
		}

		stepCtx := r.logger.SetValuesOnCtx(ctx, log.Kv{"step": step.Name()})
		stepLogger := r.logger.WithCtxValues(stepCtx)

		t, err := r.tasks.NextTask(ctx, runID)
		if err != nil {
			return results, fmt.Errorf("could not get next journal task: %w", err)
		}

		progress, err := r.tasks.Progress(ctx, runID)
		if err != nil {
			return results, fmt.Errorf("could not get journal progress: %w", err)
		}
		status := r.ui.StartStatus(fmt.Sprintf("[%d/%d] %s", progress.Done+1, progress.Total, step.Description()))

		if step.HasPrompts() {
			status.Pause()
			err := step.Prompt(stepCtx, r.ui)
			status.Resume()
			if err != nil {
				status.Done(model.Failed(err))
				r.journal(ctx, t, model.Failed(err))
				return results, fmt.Errorf("could not prompt for step %q: %w", step.Name(), err)
			}
		}

		res := step.IsSkip(stepCtx, status)
		switch res.Type {
		case model.ResultSkipped:
			stepLogger.Debugf("Skipping step: %s", res.Text())
		case model.ResultFailed:
			stepLogger.Debugf("Step preconditions failed: %s", res.Text())
		default:
			stepLogger.Debugf("Running step")
			res = step.Run(stepCtx, status)
		}

		results.Set(step, res)
		status.Done(res)
		r.journal(ctx, t, res)

		if res.IsFailed() {
			stepLogger.Debugf("Step failed: %s", res.Text())
			stepErr := &StepError{Step: step.Name(), Message: res.Text()}
			if err, ok := res.Message.(error); ok {
				stepErr.Err = err
			}
			stepErr.NotRun = r.pending(ctx, runID)
			if len(stepErr.NotRun) > 0 {
				stepLogger.Warningf("Steps not run: %s", strings.Join(stepErr.NotRun, ", "))
			}
			return results, stepErr
		}
	}

	logger.Debugf("Plan finished")
	return results, nil
}

func (r *Runner) pending(ctx context.Context, runID string) []string {
	tasks, err := r.tasks.ListTasks(ctx, runID)
	if err != nil {
		r.logger.Warningf("Could not list journal tasks: %s", err)
		return nil
	}

	var names []string
	for _, t := range tasks {
		if t.Status == task.StatusPending {
			names = append(names, t.Name)
		}
	}
	return names
}

func (r *Runner) journal(ctx context.Context, t *task.Task, res model.Result) {
	if t == nil {
		return
	}

	var err error
	switch res.Type {
	case model.ResultSkipped:
		err = r.tasks.SkipTask(ctx, t.ID, res.Text())
	case model.ResultFailed:
		err = r.tasks.FailTask(ctx, t.ID, errors.New(res.Text()))
	default:
		err = r.tasks.CompleteTask(ctx, t.ID)
	}
	if err != nil {
		r.logger.Warningf("Could not journal step %s result: %s", t.Name, err)
	}
}
