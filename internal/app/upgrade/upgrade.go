package upgrade

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/wolsen/snap-openstack-sub000/internal/log"
	"github.com/wolsen/snap-openstack-sub000/internal/model"
	"github.com/wolsen/snap-openstack-sub000/internal/orchestrator"
	"github.com/wolsen/snap-openstack-sub000/internal/plan"
	"github.com/wolsen/snap-openstack-sub000/internal/steps"
)

// ServiceConfig is the configuration for the upgrade service.
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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Upgrade"})

	if c.Runner == nil {
		r, err := plan.NewRunner(plan.RunnerConfig{Logger: c.Logger})
		if err != nil {
			return fmt.Errorf("could not create plan runner: %w", err)
		}
		c.Runner = r
	}

	return nil
}

// Service moves the deployed workloads to the manifest channels.
type Service struct {
	client orchestrator.Client
	waiter steps.Waiter
	runner *plan.Runner
	logger log.Logger
}

// NewService creates a new upgrade service.
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

// Request represents the upgrade request parameters.
type Request struct {
	Manifest model.Manifest
	// IdlePeriod is the time the refreshed units need to stay settled, zero uses the default.
	IdlePeriod time.Duration
}

// Response is the upgrade outcome.
type Response struct {
	// Deployed are the channels found before upgrading.
	Deployed steps.Channels
	// Upgraded are the workloads that have been refreshed, sorted.
	Upgraded []string
	Results  *plan.Results
}

// Run runs two plans: the first one collects the deployed channels and the second one
// refreshes the workloads whose channel differs from the manifest. Workloads that
// are not deployed are ignored.
func (s *Service) Run(ctx context.Context, req Request) (*Response, error) {
	if err := req.Manifest.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	deps := steps.Deps{Client: s.client, Waiter: s.waiter, Model: req.Manifest.Model, Logger: s.logger}

	collect, err := steps.NewCollectChannelsStep(deps, req.Manifest.WorkloadNames())
	if err != nil {
		return nil, fmt.Errorf("could not build collect plan: %w", err)
	}
	results, err := s.runner.Run(ctx, "collect-channels", plan.Plan{collect})
	if err != nil {
		return nil, err
	}

	deployed, ok := plan.MessageOf[*steps.CollectChannelsStep, steps.Channels](results)
	if !ok {
		return nil, fmt.Errorf("deployed channels are missing from the results")
	}

	targets := steps.Channels{}
	var upgraded []string
	for _, w := range req.Manifest.Workloads {
		current, ok := deployed[w.Name]
		if !ok || w.Channel == "" || current == w.Channel {
			continue
		}
		targets[w.Name] = w.Channel
		upgraded = append(upgraded, w.Name)
	}
	sort.Strings(upgraded)

	resp := &Response{Deployed: deployed, Results: results}
	if len(targets) == 0 {
		s.logger.Infof("All workloads are on their target channel")
		return resp, nil
	}

	accepted := []model.WorkloadStatus{model.WorkloadStatusActive, model.WorkloadStatusBlocked}
	refresh, err := steps.NewRefreshWorkloadsStep(deps, targets, accepted, 0, req.IdlePeriod)
	if err != nil {
		return nil, fmt.Errorf("could not build refresh plan: %w", err)
	}

	s.logger.Infof("Upgrading %d workloads in model %s", len(targets), req.Manifest.Model)
	resp.Results, err = s.runner.Run(ctx, "upgrade", plan.Plan{refresh})
	if err != nil {
		return resp, err
	}
	resp.Upgraded = upgraded

	return resp, nil
}
