package plan_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolsen/snap-openstack-sub000/internal/log"
	"github.com/wolsen/snap-openstack-sub000/internal/model"
	"github.com/wolsen/snap-openstack-sub000/internal/plan"
	"github.com/wolsen/snap-openstack-sub000/internal/task"
	"github.com/wolsen/snap-openstack-sub000/internal/task/memory"
)

// callLog records the step calls in order.
type callLog struct {
	calls []string
}

func (c *callLog) add(format string, args ...any) {
	c.calls = append(c.calls, fmt.Sprintf(format, args...))
}

type spyStep struct {
	plan.BaseStep
	log       *callLog
	prompts   bool
	promptErr error
	skip      model.Result
	run       model.Result
}

func newSpyStep(name string, l *callLog, skip, run model.Result) *spyStep {
	return &spyStep{
		BaseStep: plan.BaseStep{StepName: name, StepDescription: "Running " + name},
		log:      l,
		skip:     skip,
		run:      run,
	}
}

func (s *spyStep) HasPrompts() bool { return s.prompts }

func (s *spyStep) Prompt(ctx context.Context, p plan.Prompter) error {
	s.log.add("%s.prompt", s.Name())
	return s.promptErr
}

func (s *spyStep) IsSkip(ctx context.Context, status plan.Status) model.Result {
	s.log.add("%s.is_skip", s.Name())
	return s.skip
}

func (s *spyStep) Run(ctx context.Context, status plan.Status) model.Result {
	s.log.add("%s.run", s.Name())
	return s.run
}

// Distinct step types, results are keyed by type.
type stepOne struct{ *spyStep }
type stepTwo struct{ *spyStep }
type stepThree struct{ *spyStep }

var (
	keyOne = plan.StepKey(stepOne{})
	keyTwo = plan.StepKey(stepTwo{})
)

func TestRunnerRun(t *testing.T) {
	tests := map[string]struct {
		plan       func(l *callLog) plan.Plan
		expCalls   []string
		expResults map[string]model.ResultType
		expKeys    []string
		expErr     bool
		expErrMsg  string
	}{
		"a single completed step should be recorded": {
			plan: func(l *callLog) plan.Plan {
				return plan.Plan{stepOne{newSpyStep("s1", l, model.Completed(nil), model.Completed(nil))}}
			},
			expCalls:   []string{"s1.is_skip", "s1.run"},
			expKeys:    []string{keyOne},
			expResults: map[string]model.ResultType{keyOne: model.ResultCompleted},
		},
		"the first failed step should halt the plan": {
			plan: func(l *callLog) plan.Plan {
				return plan.Plan{
					stepOne{newSpyStep("s1", l, model.Completed(nil), model.Completed(nil))},
					stepTwo{newSpyStep("s2", l, model.Completed(nil), model.Failed("disk full"))},
					stepThree{newSpyStep("s3", l, model.Completed(nil), model.Completed(nil))},
				}
			},
			expCalls: []string{"s1.is_skip", "s1.run", "s2.is_skip", "s2.run"},
			expKeys:  []string{keyOne, keyTwo},
			expResults: map[string]model.ResultType{
				keyOne: model.ResultCompleted,
				keyTwo: model.ResultFailed,
			},
			expErr:    true,
			expErrMsg: "disk full",
		},
		"skipped steps should not run": {
			plan: func(l *callLog) plan.Plan {
				return plan.Plan{
					stepOne{newSpyStep("s1", l, model.Skipped("already there"), model.Failed("should not run"))},
					stepTwo{newSpyStep("s2", l, model.Completed(nil), model.Completed("token"))},
				}
			},
			expCalls: []string{"s1.is_skip", "s2.is_skip", "s2.run"},
			expKeys:  []string{keyOne, keyTwo},
			expResults: map[string]model.ResultType{
				keyOne: model.ResultSkipped,
				keyTwo: model.ResultCompleted,
			},
		},
		"failed preconditions should halt the plan without running the step": {
			plan: func(l *callLog) plan.Plan {
				return plan.Plan{
					stepOne{newSpyStep("s1", l, model.Failed(fmt.Errorf("orchestrator unreachable")), model.Completed(nil))},
					stepTwo{newSpyStep("s2", l, model.Completed(nil), model.Completed(nil))},
				}
			},
			expCalls:   []string{"s1.is_skip"},
			expKeys:    []string{keyOne},
			expResults: map[string]model.ResultType{keyOne: model.ResultFailed},
			expErr:     true,
			expErrMsg:  "orchestrator unreachable",
		},
		"steps with prompts should be prompted before checking them": {
			plan: func(l *callLog) plan.Plan {
				s := newSpyStep("s1", l, model.Completed(nil), model.Completed(nil))
				s.prompts = true
				return plan.Plan{stepOne{s}}
			},
			expCalls:   []string{"s1.prompt", "s1.is_skip", "s1.run"},
			expKeys:    []string{keyOne},
			expResults: map[string]model.ResultType{keyOne: model.ResultCompleted},
		},
		"prompt errors should abort the plan": {
			plan: func(l *callLog) plan.Plan {
				s := newSpyStep("s1", l, model.Completed(nil), model.Completed(nil))
				s.prompts = true
				s.promptErr = fmt.Errorf("no tty")
				return plan.Plan{stepOne{s}, stepTwo{newSpyStep("s2", l, model.Completed(nil), model.Completed(nil))}}
			},
			expCalls:   []string{"s1.prompt"},
			expResults: map[string]model.ResultType{},
			expErr:     true,
			expErrMsg:  "no tty",
		},
		"an empty plan should succeed": {
			plan:       func(l *callLog) plan.Plan { return nil },
			expResults: map[string]model.ResultType{},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			l := &callLog{}
			runner, err := plan.NewRunner(plan.RunnerConfig{Logger: log.Noop})
			require.NoError(err)

			results, err := runner.Run(context.Background(), "test", test.plan(l))

			if test.expErr {
				require.Error(err)
				assert.Contains(err.Error(), test.expErrMsg)
			} else {
				require.NoError(err)
			}
			require.NotNil(results)
			assert.Equal(test.expCalls, l.calls)
			assert.Equal(test.expKeys, results.Keys())
			got := map[string]model.ResultType{}
			for _, k := range results.Keys() {
				res, _ := results.ByKey(k)
				got[k] = res.Type
			}
			assert.Equal(test.expResults, got)
		})
	}
}

func TestRunnerRunStepError(t *testing.T) {
	tests := map[string]struct {
		run        model.Result
		expMessage string
		expErrs    []error
	}{
		"A failed step with a text message should fail the run.": {
			run:        model.Failed("disk full"),
			expMessage: "disk full",
			expErrs:    []error{plan.ErrStepFailed},
		},

		"A failed step with an error message should keep the error chain.": {
			run:        model.Failed(fmt.Errorf("keystone not active: %w", model.ErrTimeout)),
			expMessage: "keystone not active: timed out",
			expErrs:    []error{plan.ErrStepFailed, model.ErrTimeout},
		},

		"A failed step with a wait error should keep the error chain.": {
			run:        model.Failed(fmt.Errorf("unit keystone/0 in error: %w", model.ErrWait)),
			expMessage: "unit keystone/0 in error: wait failed",
			expErrs:    []error{plan.ErrStepFailed, model.ErrWait},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			l := &callLog{}
			runner, err := plan.NewRunner(plan.RunnerConfig{})
			require.NoError(t, err)

			_, err = runner.Run(context.Background(), "test", plan.Plan{
				stepOne{newSpyStep("s1", l, model.Completed(nil), test.run)},
			})

			for _, expErr := range test.expErrs {
				assert.ErrorIs(err, expErr)
			}
			var stepErr *plan.StepError
			if assert.ErrorAs(err, &stepErr) {
				assert.Equal("s1", stepErr.Step)
				assert.Equal(test.expMessage, stepErr.Message)
			}
		})
	}
}

func TestRunnerRunIsIdempotentOnSkips(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	// Steps that skip when their goal is satisfied.
	deployed := false
	l := &callLog{}
	s := newSpyStep("deploy", l, model.Completed(nil), model.Completed(nil))
	step := &conditionalStep{spyStep: s, done: &deployed}

	runner, err := plan.NewRunner(plan.RunnerConfig{})
	require.NoError(err)

	results, err := runner.Run(context.Background(), "test", plan.Plan{step})
	require.NoError(err)
	res, _ := results.Get(step)
	assert.Equal(model.ResultCompleted, res.Type)

	results, err = runner.Run(context.Background(), "test", plan.Plan{step})
	require.NoError(err)
	res, _ = results.Get(step)
	assert.Equal(model.ResultSkipped, res.Type)
}

type conditionalStep struct {
	*spyStep
	done *bool
}

func (c *conditionalStep) IsSkip(ctx context.Context, status plan.Status) model.Result {
	if *c.done {
		return model.Skipped("already done")
	}
	return model.Completed(nil)
}

func (c *conditionalStep) Run(ctx context.Context, status plan.Status) model.Result {
	*c.done = true
	return model.Completed(nil)
}

// recordingUI records the status messages of the steps.
type recordingUI struct {
	plan.UI
	statuses []string
}

func (u *recordingUI) StartStatus(msg string) plan.StatusHandle {
	u.statuses = append(u.statuses, msg)
	return u.UI.StartStatus(msg)
}

func TestRunnerRunJournal(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	tasks, err := memory.NewManager(memory.ManagerConfig{})
	require.NoError(err)
	l := &callLog{}
	ui := &recordingUI{UI: plan.NoopUI}
	runner, err := plan.NewRunner(plan.RunnerConfig{Tasks: tasks, UI: ui})
	require.NoError(err)

	_, err = runner.Run(context.Background(), "test", plan.Plan{
		stepOne{newSpyStep("s1", l, model.Skipped("nothing to do"), model.Completed(nil))},
		stepTwo{newSpyStep("s2", l, model.Completed(nil), model.Failed("disk full"))},
		stepThree{newSpyStep("s3", l, model.Completed(nil), model.Completed(nil))},
	})
	require.Error(err)

	// There is a single run, find it through a known step.
	statuses := journalStatuses(t, tasks)
	assert.Equal([]task.Status{task.StatusSkipped, task.StatusFailed, task.StatusPending}, statuses)

	// The step counter comes from the journal progress.
	assert.Equal([]string{"[1/3] Running s1", "[2/3] Running s2"}, ui.statuses)

	var stepErr *plan.StepError
	require.ErrorAs(err, &stepErr)
	assert.Equal([]string{"s3"}, stepErr.NotRun)
}

func journalStatuses(t *testing.T, m *memory.Manager) []task.Status {
	t.Helper()
	runIDs := m.RunIDs()
	require.Len(t, runIDs, 1)
	tasks, err := m.ListTasks(context.Background(), runIDs[0])
	require.NoError(t, err)

	statuses := make([]task.Status, 0, len(tasks))
	for _, tk := range tasks {
		statuses = append(statuses, tk.Status)
	}
	return statuses
}

func TestRunnerRunCancelledContext(t *testing.T) {
	assert := assert.New(t)

	l := &callLog{}
	runner, err := plan.NewRunner(plan.RunnerConfig{})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = runner.Run(ctx, "test", plan.Plan{stepOne{newSpyStep("s1", l, model.Completed(nil), model.Completed(nil))}})

	assert.ErrorIs(err, context.Canceled)
	assert.Empty(l.calls)
}
