package lib

import (
	"context"
	"fmt"

	"github.com/wolsen/snap-openstack-sub000/internal/app/deploy"
	"github.com/wolsen/snap-openstack-sub000/internal/app/destroy"
	"github.com/wolsen/snap-openstack-sub000/internal/app/doctor"
	"github.com/wolsen/snap-openstack-sub000/internal/app/status"
	"github.com/wolsen/snap-openstack-sub000/internal/app/upgrade"
	"github.com/wolsen/snap-openstack-sub000/internal/app/wait"
	"github.com/wolsen/snap-openstack-sub000/internal/check"
)

// Deploy converges the model to the manifest.
//
// Every workload is deployed when missing, gets the units of the missing machines
// and its config applied. Finally it waits until the whole model is active. Steps
// that have nothing to do are skipped, so calling Deploy twice is safe.
//
// Returns [ErrCheckFailed] if a preflight check fails, [ErrNotValid] if the manifest
// is not valid, or [ErrStepFailed] if a step fails. The result is never nil.
func (c *Client) Deploy(ctx context.Context, m Manifest, opts *DeployOpts) (*DeployResult, error) {
	if opts == nil {
		opts = &DeployOpts{}
	}

	svc, err := deploy.NewService(deploy.ServiceConfig{
		Client: c.orchestrator,
		Waiter: c.waiter,
		Runner: c.runner,
		Checks: c.checks(),
		Logger: c.logger,
	})
	if err != nil {
		return &DeployResult{}, fmt.Errorf("could not create service: %w", err)
	}

	resp, err := svc.Run(ctx, deploy.Request{
		Manifest:   toInternalManifest(m, c.model),
		SkipChecks: opts.SkipChecks,
		IdlePeriod: opts.IdlePeriod,
	})
	return &DeployResult{
		Checks: fromInternalChecks(resp.Checks),
		Steps:  fromInternalResults(resp.Results),
	}, mapError(err)
}

// Upgrade refreshes the deployed workloads whose channel differs from the manifest
// and waits until they settle. Workloads that are not deployed are ignored.
func (c *Client) Upgrade(ctx context.Context, m Manifest, opts *UpgradeOpts) (*UpgradeResult, error) {
	if opts == nil {
		opts = &UpgradeOpts{}
	}

	svc, err := upgrade.NewService(upgrade.ServiceConfig{
		Client: c.orchestrator,
		Waiter: c.waiter,
		Runner: c.runner,
		Logger: c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	resp, err := svc.Run(ctx, upgrade.Request{Manifest: toInternalManifest(m, c.model), IdlePeriod: opts.IdlePeriod})
	if err != nil {
		return nil, mapError(err)
	}

	return &UpgradeResult{
		Deployed: resp.Deployed,
		Upgraded: resp.Upgraded,
		Steps:    fromInternalResults(resp.Results),
	}, nil
}

// Destroy removes the units and then the workloads, waiting until they are gone.
//
// Returns [ErrNotValid] when there is nothing to destroy.
func (c *Client) Destroy(ctx context.Context, opts DestroyOpts) ([]StepResult, error) {
	svc, err := destroy.NewService(destroy.ServiceConfig{
		Client: c.orchestrator,
		Waiter: c.waiter,
		Runner: c.runner,
		Logger: c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	units := make([]destroy.UnitPlacement, 0, len(opts.Units))
	for _, u := range opts.Units {
		units = append(units, destroy.UnitPlacement{Workload: u.Workload, Machine: u.Machine})
	}

	results, err := svc.Run(ctx, destroy.Request{
		Model:     c.modelOr(opts.Model),
		Units:     units,
		Workloads: opts.Workloads,
		Timeout:   opts.Timeout,
	})
	if err != nil {
		return nil, mapError(err)
	}

	return fromInternalResults(results), nil
}

// Status returns a snapshot of the model workloads. With no workloads it returns all
// the model workloads.
//
// Returns [ErrNotFound] if a requested workload does not exist.
func (c *Client) Status(ctx context.Context, modelName string, workloads ...string) ([]Workload, error) {
	svc, err := status.NewService(status.ServiceConfig{Client: c.orchestrator, Logger: c.logger})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	ws, err := svc.Run(ctx, status.Request{Model: c.modelOr(modelName), Workloads: workloads})
	if err != nil {
		return nil, mapError(err)
	}

	res := make([]Workload, 0, len(ws))
	for _, w := range ws {
		res = append(res, fromInternalWorkload(w))
	}
	return res, nil
}

// Wait blocks until the entities converge, the timeout expires or the context is cancelled.
//
// Returns [ErrTimeout] when the timeout expires, [ErrWait] when the orchestrator reports
// an error state, or [ErrNotValid] if the options are not valid.
func (c *Client) Wait(ctx context.Context, opts WaitOpts) error {
	svc, err := wait.NewService(wait.ServiceConfig{Waiter: c.waiter, Logger: c.logger})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	err = svc.Run(ctx, wait.Request{
		Mode:          wait.Mode(opts.Mode),
		Model:         c.modelOr(opts.Model),
		Entities:      opts.Entities,
		Statuses:      toInternalWorkloadStatuses(opts.Statuses),
		AgentStatuses: toInternalAgentStatuses(opts.AgentStatuses),
		Timeout:       opts.Timeout,
		IdlePeriod:    opts.IdlePeriod,
	})
	return mapError(err)
}

// Doctor runs the environment preflight checks and the model reachability check.
//
// For [OrchestratorFake] only the model check is run.
func (c *Client) Doctor(ctx context.Context, modelName string) ([]CheckResult, error) {
	checks := append(c.checks(), check.ModelCheck{Client: c.orchestrator, Model: c.modelOr(modelName)})
	svc, err := doctor.NewService(doctor.ServiceConfig{Checks: checks, Logger: c.logger})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	resp, err := svc.Run(ctx)
	if err != nil {
		return nil, mapError(err)
	}

	return fromInternalChecks(resp.Results), nil
}

func (c *Client) checks() []check.Check {
	if c.orchestratorType == OrchestratorFake {
		return nil
	}
	return []check.Check{check.BinaryCheck{Binary: c.jujuBinary}}
}
