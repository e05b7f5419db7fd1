package steps

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/wolsen/snap-openstack-sub000/internal/model"
	"github.com/wolsen/snap-openstack-sub000/internal/plan"
)

// Channels maps workload names to their channel.
type Channels map[string]string

// CollectChannelsStep reads the channel of the deployed workloads. Missing workloads
// are left out of the result message.
type CollectChannelsStep struct {
	plan.BaseStep
	deps      Deps
	workloads []string
}

// NewCollectChannelsStep returns a new collect channels step.
func NewCollectChannelsStep(deps Deps, workloads []string) (*CollectChannelsStep, error) {
	if err := deps.defaults(); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}

	return &CollectChannelsStep{
		BaseStep: plan.BaseStep{
			StepName:        "collect-channels",
			StepDescription: "Collecting deployed channels",
		},
		deps:      deps,
		workloads: workloads,
	}, nil
}

// Run returns the deployed channels as the result message.
func (s *CollectChannelsStep) Run(ctx context.Context, status plan.Status) model.Result {
	channels := Channels{}
	for _, name := range s.workloads {
		w, err := s.deps.Client.GetWorkload(ctx, s.deps.Model, name)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				s.deps.Logger.Debugf("Workload %s is not deployed, ignoring", name)
				continue
			}
			return model.Failed(fmt.Errorf("could not get %s: %w", name, err))
		}
		channels[name] = w.Channel
	}

	return model.Completed(channels)
}

// RefreshWorkloadsStep moves workloads to new channels (rolling upgrade) and waits
// until all their units are stable in the accepted statuses.
type RefreshWorkloadsStep struct {
	plan.BaseStep
	deps       Deps
	targets    Channels
	accepted   []model.WorkloadStatus
	timeout    time.Duration
	idlePeriod time.Duration
	pending    []string
}

// NewRefreshWorkloadsStep returns a new refresh step.
func NewRefreshWorkloadsStep(deps Deps, targets Channels, accepted []model.WorkloadStatus, timeout, idlePeriod time.Duration) (*RefreshWorkloadsStep, error) {
	if err := deps.defaults(); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("at least one workload is required: %w", model.ErrNotValid)
	}

	names := make([]string, 0, len(targets))
	for name := range targets {
		names = append(names, name)
	}
	sort.Strings(names)

	return &RefreshWorkloadsStep{
		BaseStep: plan.BaseStep{
			StepName:        "refresh-workloads",
			StepDescription: fmt.Sprintf("Upgrading %s", strings.Join(names, ", ")),
		},
		deps:       deps,
		targets:    targets,
		accepted:   statusesOrDefault(accepted, model.WorkloadStatusActive, model.WorkloadStatusBlocked),
		timeout:    timeoutOrDefault(timeout),
		idlePeriod: idlePeriod,
	}, nil
}

// IsSkip skips when all the workloads are on their target channel. The workloads must be deployed.
func (s *RefreshWorkloadsStep) IsSkip(ctx context.Context, status plan.Status) model.Result {
	s.pending = nil
	for name, channel := range s.targets {
		w, err := s.deps.Client.GetWorkload(ctx, s.deps.Model, name)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.Failed(fmt.Sprintf("Workload %s has not been deployed", name))
			}
			return model.Failed(fmt.Errorf("could not check %s: %w", name, err))
		}
		if w.Channel != channel {
			s.pending = append(s.pending, name)
		}
	}
	sort.Strings(s.pending)

	if len(s.pending) == 0 {
		return model.Skipped("All workloads are on their target channel")
	}
	return model.Completed(nil)
}

// Run refreshes the pending workloads and waits for the rollout to land.
func (s *RefreshWorkloadsStep) Run(ctx context.Context, status plan.Status) model.Result {
	for _, name := range s.pending {
		status.Update(fmt.Sprintf("Refreshing %s to %s", name, s.targets[name]))
		if err := s.deps.Client.Refresh(ctx, s.deps.Model, name, s.targets[name]); err != nil {
			s.deps.Logger.Warningf("Could not refresh %s: %s", name, err)
			return model.Failed(fmt.Errorf("could not refresh %s: %w", name, err))
		}
	}

	status.Update(fmt.Sprintf("Waiting for %s to settle", strings.Join(s.pending, ", ")))
	err := s.deps.Waiter.WaitUntilDesiredStatus(ctx, model.WaitSpec{
		Model:                    s.deps.Model,
		Entities:                 s.pending,
		AcceptedWorkloadStatuses: s.accepted,
		Timeout:                  s.timeout,
		IdlePeriod:               s.idlePeriod,
	})
	if err != nil {
		return failedWait(s.deps.Logger, err)
	}

	return model.Completed(s.pending)
}
