package deploy

import (
	"context"
	"fmt"
	"time"

	"github.com/wolsen/snap-openstack-sub000/internal/check"
	"github.com/wolsen/snap-openstack-sub000/internal/log"
	"github.com/wolsen/snap-openstack-sub000/internal/model"
	"github.com/wolsen/snap-openstack-sub000/internal/orchestrator"
	"github.com/wolsen/snap-openstack-sub000/internal/plan"
	"github.com/wolsen/snap-openstack-sub000/internal/steps"
)

// ServiceConfig is the configuration for the deploy service.
type ServiceConfig struct {
	Client orchestrator.Client
	Waiter steps.Waiter
	Runner *plan.Runner
	// Checks are run before the manifest and model checks.
	Checks []check.Check
	Logger log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Client == nil {
		return fmt.Errorf("client is required")
	}

	if c.Waiter == nil {
		return fmt.Errorf("waiter is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Deploy"})

	if c.Runner == nil {
		r, err := plan.NewRunner(plan.RunnerConfig{Logger: c.Logger})
		if err != nil {
			return fmt.Errorf("could not create plan runner: %w", err)
		}
		c.Runner = r
	}

	return nil
}

// Service converges a model to a manifest.
type Service struct {
	client orchestrator.Client
	waiter steps.Waiter
	runner *plan.Runner
	checks []check.Check
	logger log.Logger
}

// NewService creates a new deploy service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		client: cfg.Client,
		waiter: cfg.Waiter,
		runner: cfg.Runner,
		checks: cfg.Checks,
		logger: cfg.Logger,
	}, nil
}

// Request represents the deploy request parameters.
type Request struct {
	Manifest model.Manifest
	// SkipChecks skips the preflight checks.
	SkipChecks bool
	// IdlePeriod is the time reconfigured units need to stay settled, zero uses the default.
	IdlePeriod time.Duration
}

// Response is the deploy outcome.
type Response struct {
	Checks  []model.CheckResult
	Results *plan.Results
}

// Run checks the preflight requirements and runs the deploy plan, for each workload it
// deploys it, adds the missing units, applies its config and finally waits until the
// whole model is active.
func (s *Service) Run(ctx context.Context, req Request) (*Response, error) {
	resp := &Response{}
	if !req.SkipChecks {
		checks := append([]check.Check{}, s.checks...)
		checks = append(checks,
			check.ManifestCheck{Manifest: req.Manifest},
			check.ModelCheck{Client: s.client, Model: req.Manifest.Model},
		)
		results, err := check.RunUntilFailure(ctx, checks)
		resp.Checks = results
		if err != nil {
			return resp, fmt.Errorf("preflight checks failed: %w", err)
		}
	} else if err := req.Manifest.Validate(); err != nil {
		return resp, fmt.Errorf("invalid manifest: %w", err)
	}

	p, err := s.plan(req.Manifest, req.IdlePeriod)
	if err != nil {
		return resp, fmt.Errorf("could not build deploy plan: %w", err)
	}

	s.logger.Infof("Deploying %d workloads in model %s", len(req.Manifest.Workloads), req.Manifest.Model)
	resp.Results, err = s.runner.Run(ctx, "deploy", p)
	if err != nil {
		return resp, err
	}

	return resp, nil
}

func (s *Service) plan(m model.Manifest, idlePeriod time.Duration) (plan.Plan, error) {
	deps := steps.Deps{Client: s.client, Waiter: s.waiter, Model: m.Model, Logger: s.logger}

	var p plan.Plan
	for _, w := range m.Workloads {
		deploy, err := steps.NewDeployWorkloadStep(deps, w)
		if err != nil {
			return nil, err
		}
		p = append(p, deploy)

		if len(w.Machines) > 0 {
			add, err := steps.NewAddUnitsStep(deps, w.Name, w.Machines, w.AcceptedStatuses, w.Timeout)
			if err != nil {
				return nil, err
			}
			p = append(p, add)
		}

		// The configure step shares the deploy step config so it applies the prompted answers.
		if len(w.Config) > 0 || len(w.Ask) > 0 {
			configure, err := steps.NewConfigureWorkloadStep(deps, w.Name, deploy.Config(), w.AcceptedStatuses, w.Timeout, idlePeriod)
			if err != nil {
				return nil, err
			}
			p = append(p, configure)
		}
	}

	wait, err := steps.NewWaitActiveStep(deps, m.WorkloadNames(), 0)
	if err != nil {
		return nil, err
	}
	p = append(p, wait)

	return p, nil
}
