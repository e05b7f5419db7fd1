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

// DestroyWorkloadsStep removes workloads and waits until they are gone.
type DestroyWorkloadsStep struct {
	plan.BaseStep
	deps      Deps
	workloads []string
	timeout   time.Duration
	present   []string
}

// NewDestroyWorkloadsStep returns a new destroy step.
func NewDestroyWorkloadsStep(deps Deps, workloads []string, timeout time.Duration) (*DestroyWorkloadsStep, error) {
	if err := deps.defaults(); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}
	if len(workloads) == 0 {
		return nil, fmt.Errorf("at least one workload is required: %w", model.ErrNotValid)
	}

	return &DestroyWorkloadsStep{
		BaseStep: plan.BaseStep{
			StepName:        "destroy-workloads",
			StepDescription: fmt.Sprintf("Destroying %s", strings.Join(workloads, ", ")),
		},
		deps:      deps,
		workloads: workloads,
		timeout:   timeoutOrDefault(timeout),
	}, nil
}

// IsSkip skips when none of the workloads are deployed.
func (s *DestroyWorkloadsStep) IsSkip(ctx context.Context, status plan.Status) model.Result {
	s.present = nil
	for _, name := range s.workloads {
		_, err := s.deps.Client.GetWorkload(ctx, s.deps.Model, name)
		switch {
		case err == nil:
			s.present = append(s.present, name)
		case errors.Is(err, model.ErrNotFound):
			s.deps.Logger.Debugf("Workload %s is not deployed", name)
		default:
			return model.Failed(fmt.Errorf("could not check %s: %w", name, err))
		}
	}

	if len(s.present) == 0 {
		return model.Skipped("Nothing to destroy")
	}
	return model.Completed(nil)
}

// Run removes the deployed workloads and waits for them to be gone.
func (s *DestroyWorkloadsStep) Run(ctx context.Context, status plan.Status) model.Result {
	for _, name := range s.present {
		err := s.deps.Client.RemoveWorkload(ctx, s.deps.Model, name)
		if err != nil && !errors.Is(err, model.ErrNotFound) {
			s.deps.Logger.Warningf("Could not remove %s: %s", name, err)
			return model.Failed(fmt.Errorf("could not remove %s: %w", name, err))
		}
	}

	status.Update(fmt.Sprintf("Waiting for %s to be gone", strings.Join(s.present, ", ")))
	err := s.deps.Waiter.WaitGone(ctx, model.WaitSpec{
		Model:    s.deps.Model,
		Entities: s.present,
		Timeout:  s.timeout,
	})
	if err != nil {
		return failedWait(s.deps.Logger, err)
	}

	return model.Completed(s.present)
}
