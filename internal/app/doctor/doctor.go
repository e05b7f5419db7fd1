package doctor

import (
	"context"
	"fmt"

	"github.com/wolsen/snap-openstack-sub000/internal/check"
	"github.com/wolsen/snap-openstack-sub000/internal/log"
	"github.com/wolsen/snap-openstack-sub000/internal/model"
)

// ServiceConfig is the configuration for the doctor service.
type ServiceConfig struct {
	Checks []check.Check
	Logger log.Logger
}

func (c *ServiceConfig) defaults() error {
	if len(c.Checks) == 0 {
		return fmt.Errorf("at least one check is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Doctor"})

	return nil
}

// Service runs all the preflight checks.
type Service struct {
	checks []check.Check
	logger log.Logger
}

// NewService creates a new doctor service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		checks: cfg.Checks,
		logger: cfg.Logger,
	}, nil
}

// Response is the doctor report.
type Response struct {
	Results  []model.CheckResult
	OK       int
	Warnings int
	Errors   int
}

// Run runs every check, a failed check doesn't stop the rest.
func (s *Service) Run(ctx context.Context) (*Response, error) {
	results := check.RunAll(ctx, s.checks)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp := &Response{Results: results}
	resp.OK, resp.Warnings, resp.Errors = model.CountByStatus(results)
	s.logger.Debugf("checks finished: %d ok, %d warnings, %d errors", resp.OK, resp.Warnings, resp.Errors)

	return resp, nil
}
