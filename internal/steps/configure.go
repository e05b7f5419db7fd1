package steps

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/wolsen/snap-openstack-sub000/internal/model"
	"github.com/wolsen/snap-openstack-sub000/internal/plan"
)

// ConfigureWorkloadStep sets the config of a deployed workload and waits until its
// units settle with the new config.
type ConfigureWorkloadStep struct {
	plan.BaseStep
	deps       Deps
	workload   string
	config     map[string]string
	accepted   []model.WorkloadStatus
	timeout    time.Duration
	idlePeriod time.Duration
	changes    map[string]string
}

// NewConfigureWorkloadStep returns a new configure step.
func NewConfigureWorkloadStep(deps Deps, workload string, config map[string]string, accepted []model.WorkloadStatus, timeout, idlePeriod time.Duration) (*ConfigureWorkloadStep, error) {
	if err := deps.defaults(); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}
	if workload == "" {
		return nil, fmt.Errorf("workload is required: %w", model.ErrNotValid)
	}

	return &ConfigureWorkloadStep{
		BaseStep: plan.BaseStep{
			StepName:        "configure-" + workload,
			StepDescription: fmt.Sprintf("Configuring %s", workload),
		},
		deps:       deps,
		workload:   workload,
		config:     config,
		accepted:   statusesOrDefault(accepted, model.WorkloadStatusActive),
		timeout:    timeoutOrDefault(timeout),
		idlePeriod: idlePeriod,
	}, nil
}

// IsSkip skips when the workload config already has the values.
func (s *ConfigureWorkloadStep) IsSkip(ctx context.Context, status plan.Status) model.Result {
	if len(s.config) == 0 {
		return model.Skipped("Nothing to configure")
	}

	current, err := s.deps.Client.GetConfig(ctx, s.deps.Model, s.workload)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Failed(fmt.Sprintf("Workload %s has not been deployed", s.workload))
		}
		return model.Failed(fmt.Errorf("could not get %s config: %w", s.workload, err))
	}

	s.changes = map[string]string{}
	for k, v := range s.config {
		if cv, ok := current[k]; !ok || cv != v {
			s.changes[k] = v
		}
	}
	if len(s.changes) == 0 {
		return model.Skipped(fmt.Sprintf("%s config is up to date", s.workload))
	}

	return model.Completed(nil)
}

// Run sets the changed config values. The message has the changed keys.
func (s *ConfigureWorkloadStep) Run(ctx context.Context, status plan.Status) model.Result {
	if err := s.deps.Client.SetConfig(ctx, s.deps.Model, s.workload, s.changes); err != nil {
		s.deps.Logger.Warningf("Could not configure %s: %s", s.workload, err)
		return model.Failed(fmt.Errorf("could not configure %s: %w", s.workload, err))
	}

	status.Update(fmt.Sprintf("Waiting for %s to settle", s.workload))
	err := s.deps.Waiter.WaitUntilDesiredStatus(ctx, model.WaitSpec{
		Model:                    s.deps.Model,
		Entities:                 []string{s.workload},
		AcceptedWorkloadStatuses: s.accepted,
		Timeout:                  s.timeout,
		IdlePeriod:               s.idlePeriod,
	})
	if err != nil {
		return failedWait(s.deps.Logger, err)
	}

	keys := make([]string, 0, len(s.changes))
	for k := range s.changes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return model.Completed(keys)
}
