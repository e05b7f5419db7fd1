package steps

import (
	"context"
	"errors"
	"fmt"

	"github.com/wolsen/snap-openstack-sub000/internal/model"
	"github.com/wolsen/snap-openstack-sub000/internal/orchestrator"
	"github.com/wolsen/snap-openstack-sub000/internal/plan"
)

// DeployWorkloadStep deploys a workload and waits until it's ready.
type DeployWorkloadStep struct {
	plan.BaseStep
	deps   Deps
	spec   model.WorkloadSpec
	config map[string]string
}

// NewDeployWorkloadStep returns a new deploy step.
func NewDeployWorkloadStep(deps Deps, spec model.WorkloadSpec) (*DeployWorkloadStep, error) {
	if err := deps.defaults(); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid workload: %w", err)
	}

	config := make(map[string]string, len(spec.Config))
	for k, v := range spec.Config {
		config[k] = v
	}

	return &DeployWorkloadStep{
		BaseStep: plan.BaseStep{
			StepName:        "deploy-" + spec.Name,
			StepDescription: fmt.Sprintf("Deploying %s", spec.Name),
		},
		deps:   deps,
		spec:   spec,
		config: config,
	}, nil
}

// Config returns the resolved workload config. It's shared with the step, so it has
// the prompted answers once Prompt ran.
func (s *DeployWorkloadStep) Config() map[string]string { return s.config }

// HasPrompts returns true when the workload asks the user for config values.
func (s *DeployWorkloadStep) HasPrompts() bool { return len(s.spec.Ask) > 0 }

// Prompt asks the user for the config values, the manifest values are the defaults.
func (s *DeployWorkloadStep) Prompt(ctx context.Context, p plan.Prompter) error {
	for _, key := range s.spec.Ask {
		v, err := p.Ask(ctx, fmt.Sprintf("%s %s", s.spec.Name, key), s.config[key])
		if err != nil {
			return fmt.Errorf("could not ask for %s: %w", key, err)
		}
		s.config[key] = v
	}
	return nil
}

// IsSkip skips the deployment when the workload is already deployed.
func (s *DeployWorkloadStep) IsSkip(ctx context.Context, status plan.Status) model.Result {
	_, err := s.deps.Client.GetWorkload(ctx, s.deps.Model, s.spec.Name)
	switch {
	case err == nil:
		return model.Skipped(fmt.Sprintf("%s is already deployed", s.spec.Name))
	case errors.Is(err, model.ErrNotFound):
		return model.Completed(nil)
	default:
		return model.Failed(fmt.Errorf("could not check %s: %w", s.spec.Name, err))
	}
}

// Run deploys the workload and waits for it to be ready.
func (s *DeployWorkloadStep) Run(ctx context.Context, status plan.Status) model.Result {
	err := s.deps.Client.Deploy(ctx, s.deps.Model, orchestrator.DeployRequest{
		Name:     s.spec.Name,
		Charm:    s.spec.Charm,
		Channel:  s.spec.Channel,
		Machines: s.spec.Machines,
		Config:   s.config,
	})
	if err != nil {
		s.deps.Logger.Warningf("Could not deploy %s: %s", s.spec.Name, err)
		return model.Failed(fmt.Errorf("could not deploy %s: %w", s.spec.Name, err))
	}

	status.Update(fmt.Sprintf("Waiting for %s to be ready", s.spec.Name))
	err = s.deps.Waiter.WaitReady(ctx, model.WaitSpec{
		Model:                    s.deps.Model,
		Entities:                 []string{s.spec.Name},
		AcceptedWorkloadStatuses: statusesOrDefault(s.spec.AcceptedStatuses, model.WorkloadStatusActive, model.WorkloadStatusUnknown),
		Timeout:                  timeoutOrDefault(s.spec.Timeout),
	})
	if err != nil {
		return failedWait(s.deps.Logger, err)
	}

	return model.Completed(nil)
}
