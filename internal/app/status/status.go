package status

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/wolsen/snap-openstack-sub000/internal/log"
	"github.com/wolsen/snap-openstack-sub000/internal/model"
	"github.com/wolsen/snap-openstack-sub000/internal/orchestrator"
)

// ServiceConfig is the configuration for the status service.
type ServiceConfig struct {
	Client orchestrator.StatusReader
	Logger log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Client == nil {
		return fmt.Errorf("client is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Status"})

	return nil
}

// Service retrieves a snapshot of the model workloads.
type Service struct {
	client orchestrator.StatusReader
	logger log.Logger
}

// NewService creates a new status service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		client: cfg.Client,
		logger: cfg.Logger,
	}, nil
}

// Request represents the status request parameters.
type Request struct {
	Model string
	// Workloads filters the workloads, all the model workloads when empty.
	Workloads []string
}

// Run returns the workloads in the requested order (sorted by name when not filtered).
// Listed workloads removed while reading are left out, filtered workloads that are
// missing return a not found error.
func (s *Service) Run(ctx context.Context, req Request) ([]model.Workload, error) {
	if req.Model == "" {
		return nil, fmt.Errorf("model is required: %w", model.ErrNotValid)
	}

	names := req.Workloads
	filtered := len(names) > 0
	if !filtered {
		var err error
		names, err = s.client.ListWorkloads(ctx, req.Model)
		if err != nil {
			return nil, fmt.Errorf("could not list workloads: %w", err)
		}
	}
	s.logger.Debugf("getting status of %d workloads in model %s", len(names), req.Model)

	workloads := make([]*model.Workload, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			w, err := s.client.GetWorkload(gctx, req.Model, name)
			if err != nil {
				if errors.Is(err, model.ErrNotFound) && !filtered {
					s.logger.Debugf("workload %s disappeared while reading status", name)
					return nil
				}
				return fmt.Errorf("could not get workload %s: %w", name, err)
			}
			workloads[i] = w
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := make([]model.Workload, 0, len(workloads))
	for _, w := range workloads {
		if w != nil {
			res = append(res, *w)
		}
	}

	return res, nil
}
