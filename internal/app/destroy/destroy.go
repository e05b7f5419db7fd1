package destroy

import (
	"context"
	"fmt"
	"time"

	"github.com/wolsen/snap-openstack-sub000/internal/log"
	"github.com/wolsen/snap-openstack-sub000/internal/model"
	"github.com/wolsen/snap-openstack-sub000/internal/orchestrator"
	"github.com/wolsen/snap-openstack-sub000/internal/plan"
	"github.com/wolsen/snap-openstack-sub000/internal/steps"
)

// ServiceConfig is the configuration for the destroy service.
type ServiceConfig struct {
	Client orchestrator.Client
	Waiter steps.Waiter
	Runner *plan.Runner
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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Destroy"})

	if c.Runner == nil {
		r, err := plan.NewRunner(plan.RunnerConfig{Logger: c.Logger})
		if err != nil {
			return fmt.Errorf("could not create plan runner: %w", err)
		}
		c.Runner = r
	}

	return nil
}

// Service removes units and workloads from a model.
type Service struct {
	client orchestrator.Client
	waiter steps.Waiter
	runner *plan.Runner
	logger log.Logger
}

// NewService creates a new destroy service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		client: cfg.Client,
		waiter: cfg.Waiter,
		runner: cfg.Runner,
		logger: cfg.Logger,
	}, nil
}

// UnitPlacement identifies a unit by its workload and machine.
type UnitPlacement struct {
	Workload string
	Machine  string
}

// Request represents the destroy request parameters.
type Request struct {
	Model string
	// Units are removed first, one step each.
	Units []UnitPlacement
	// Workloads are removed with all their units.
	Workloads []string
	Timeout   time.Duration
}

// Run removes the requested units and then the requested workloads.
func (s *Service) Run(ctx context.Context, req Request) (*plan.Results, error) {
	if req.Model == "" {
		return nil, fmt.Errorf("model is required: %w", model.ErrNotValid)
	}
	if len(req.Units) == 0 && len(req.Workloads) == 0 {
		return nil, fmt.Errorf("at least one unit or workload is required: %w", model.ErrNotValid)
	}

	deps := steps.Deps{Client: s.client, Waiter: s.waiter, Model: req.Model, Logger: s.logger}
	var p plan.Plan
	for _, u := range req.Units {
		step, err := steps.NewRemoveUnitStep(deps, u.Workload, u.Machine, req.Timeout)
		if err != nil {
			return nil, fmt.Errorf("could not build destroy plan: %w", err)
		}
		p = append(p, step)
	}

	if len(req.Workloads) > 0 {
		step, err := steps.NewDestroyWorkloadsStep(deps, req.Workloads, req.Timeout)
		if err != nil {
			return nil, fmt.Errorf("could not build destroy plan: %w", err)
		}
		p = append(p, step)
	}

	s.logger.Infof("Destroying %d units and %d workloads in model %s", len(req.Units), len(req.Workloads), req.Model)
	return s.runner.Run(ctx, "destroy", p)
}
