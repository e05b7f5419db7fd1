package steps

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wolsen/snap-openstack-sub000/internal/model"
	"github.com/wolsen/snap-openstack-sub000/internal/plan"
)

// WaitActiveStep waits until all the units of the workloads are active and idle.
type WaitActiveStep struct {
	plan.BaseStep
	deps      Deps
	workloads []string
	timeout   time.Duration
}

// NewWaitActiveStep returns a new wait active step.
func NewWaitActiveStep(deps Deps, workloads []string, timeout time.Duration) (*WaitActiveStep, error) {
	if err := deps.defaults(); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}
	if len(workloads) == 0 {
		return nil, fmt.Errorf("at least one workload is required: %w", model.ErrNotValid)
	}

	return &WaitActiveStep{
		BaseStep: plan.BaseStep{
			StepName:        "wait-active",
			StepDescription: fmt.Sprintf("Waiting for %s to be active", strings.Join(workloads, ", ")),
		},
		deps:      deps,
		workloads: workloads,
		timeout:   timeoutOrDefault(timeout),
	}, nil
}

// IsSkip skips when every unit is already active and idle.
func (s *WaitActiveStep) IsSkip(ctx context.Context, status plan.Status) model.Result {
	for _, name := range s.workloads {
		w, err := s.deps.Client.GetWorkload(ctx, s.deps.Model, name)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.Completed(nil)
			}
			return model.Failed(fmt.Errorf("could not check %s: %w", name, err))
		}
		if len(w.Units) == 0 {
			return model.Completed(nil)
		}
		for _, u := range w.Units {
			if u.AgentStatus != model.AgentStatusIdle || u.WorkloadStatus != model.WorkloadStatusActive {
				return model.Completed(nil)
			}
		}
	}

	return model.Skipped("All units are already active")
}

// Run waits for the workloads.
func (s *WaitActiveStep) Run(ctx context.Context, status plan.Status) model.Result {
	err := s.deps.Waiter.WaitUntilActive(ctx, model.WaitSpec{
		Model:    s.deps.Model,
		Entities: s.workloads,
		Timeout:  s.timeout,
	})
	if err != nil {
		return failedWait(s.deps.Logger, err)
	}

	return model.Completed(nil)
}
