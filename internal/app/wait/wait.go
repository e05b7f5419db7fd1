package wait

import (
	"context"
	"fmt"
	"time"

	"github.com/wolsen/snap-openstack-sub000/internal/log"
	"github.com/wolsen/snap-openstack-sub000/internal/model"
)

// Mode is the kind of convergence wait.
type Mode string

const (
	// ModeReady waits for workloads to reach an accepted status.
	ModeReady Mode = "ready"
	// ModeGone waits for workloads or units to disappear.
	ModeGone Mode = "gone"
	// ModeUnit waits for units to reach accepted agent and workload statuses.
	ModeUnit Mode = "unit"
	// ModeAllUnits waits for every unit of the workloads.
	ModeAllUnits Mode = "units"
	// ModeActive waits for all the units to be active and idle.
	ModeActive Mode = "active"
	// ModeDesired waits for the units to settle in an accepted status for an idle period.
	ModeDesired Mode = "desired"
)

// Modes are the supported wait modes.
var Modes = []Mode{ModeReady, ModeGone, ModeUnit, ModeAllUnits, ModeActive, ModeDesired}

// Waiter has every convergence wait.
type Waiter interface {
	WaitReady(ctx context.Context, spec model.WaitSpec) error
	WaitGone(ctx context.Context, spec model.WaitSpec) error
	WaitUnitReady(ctx context.Context, spec model.WaitSpec) error
	WaitAllUnitsReady(ctx context.Context, spec model.WaitSpec) error
	WaitUntilActive(ctx context.Context, spec model.WaitSpec) error
	WaitUntilDesiredStatus(ctx context.Context, spec model.WaitSpec) error
}

// ServiceConfig is the configuration for the wait service.
type ServiceConfig struct {
	Waiter Waiter
	Logger log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Waiter == nil {
		return fmt.Errorf("waiter is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Wait"})

	return nil
}

// Service runs ad-hoc convergence waits.
type Service struct {
	waiter Waiter
	logger log.Logger
}

// NewService creates a new wait service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		waiter: cfg.Waiter,
		logger: cfg.Logger,
	}, nil
}

// Request represents the wait request parameters.
type Request struct {
	Mode          Mode
	Model         string
	Entities      []string
	Statuses      []model.WorkloadStatus
	AgentStatuses []model.AgentStatus
	Timeout       time.Duration
	IdlePeriod    time.Duration
}

// Run blocks until the entities converge, the timeout expires or the context is cancelled.
func (s *Service) Run(ctx context.Context, req Request) error {
	spec := model.WaitSpec{
		Model:                    req.Model,
		Entities:                 req.Entities,
		AcceptedWorkloadStatuses: req.Statuses,
		AcceptedAgentStatuses:    req.AgentStatuses,
		Timeout:                  req.Timeout,
		IdlePeriod:               req.IdlePeriod,
	}
	if req.Model == "" {
		return fmt.Errorf("model is required: %w", model.ErrNotValid)
	}

	var wait func(ctx context.Context, spec model.WaitSpec) error
	switch req.Mode {
	case ModeReady:
		wait = s.waiter.WaitReady
	case ModeGone:
		wait = s.waiter.WaitGone
	case ModeUnit:
		wait = s.waiter.WaitUnitReady
	case ModeAllUnits:
		wait = s.waiter.WaitAllUnitsReady
	case ModeActive:
		wait = s.waiter.WaitUntilActive
	case ModeDesired:
		wait = s.waiter.WaitUntilDesiredStatus
	default:
		return fmt.Errorf("unknown wait mode %q: %w", req.Mode, model.ErrNotValid)
	}

	s.logger.Infof("Waiting for %v (%s) in model %s", req.Entities, req.Mode, req.Model)
	return wait(ctx, spec)
}
