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

// AddUnitsStep adds units of a workload to the machines that don't have one.
type AddUnitsStep struct {
	plan.BaseStep
	deps     Deps
	workload string
	machines []string
	accepted []model.WorkloadStatus
	timeout  time.Duration
	toAdd    []string
}

// NewAddUnitsStep returns a new add units step.
func NewAddUnitsStep(deps Deps, workload string, machines []string, accepted []model.WorkloadStatus, timeout time.Duration) (*AddUnitsStep, error) {
	if err := deps.defaults(); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}
	if workload == "" {
		return nil, fmt.Errorf("workload is required: %w", model.ErrNotValid)
	}

	return &AddUnitsStep{
		BaseStep: plan.BaseStep{
			StepName:        "add-units-" + workload,
			StepDescription: fmt.Sprintf("Adding %s units", workload),
		},
		deps:     deps,
		workload: workload,
		machines: machines,
		accepted: statusesOrDefault(accepted, model.WorkloadStatusActive),
		timeout:  timeoutOrDefault(timeout),
	}, nil
}

// IsSkip computes the machines missing a unit. The workload must be deployed.
func (s *AddUnitsStep) IsSkip(ctx context.Context, status plan.Status) model.Result {
	if len(s.machines) == 0 {
		return model.Skipped("No machines requested")
	}

	w, err := s.deps.Client.GetWorkload(ctx, s.deps.Model, s.workload)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Failed(fmt.Sprintf("Workload %s has not been deployed", s.workload))
		}
		return model.Failed(fmt.Errorf("could not check %s: %w", s.workload, err))
	}

	deployed := w.MachineUnits()
	s.toAdd = nil
	seen := map[string]bool{}
	for _, m := range s.machines {
		if _, ok := deployed[m]; ok || seen[m] {
			continue
		}
		seen[m] = true
		s.toAdd = append(s.toAdd, m)
	}
	sort.Strings(s.toAdd)

	if len(s.toAdd) == 0 {
		return model.Skipped("No new units to deploy")
	}
	return model.Completed(nil)
}

// Run adds the units and waits for them to be ready. The message has the new unit names.
func (s *AddUnitsStep) Run(ctx context.Context, status plan.Status) model.Result {
	units := make([]string, 0, len(s.toAdd))
	for _, m := range s.toAdd {
		unit, err := s.deps.Client.AddUnit(ctx, s.deps.Model, s.workload, m)
		if err != nil {
			s.deps.Logger.Warningf("Could not add %s unit on machine %s: %s", s.workload, m, err)
			return model.Failed(fmt.Errorf("could not add %s unit on machine %s: %w", s.workload, m, err))
		}
		units = append(units, unit)
	}

	status.Update(fmt.Sprintf("Waiting for units %s to be ready", strings.Join(units, ", ")))
	err := s.deps.Waiter.WaitUnitReady(ctx, model.WaitSpec{
		Model:                    s.deps.Model,
		Entities:                 units,
		AcceptedWorkloadStatuses: s.accepted,
		Timeout:                  s.timeout,
	})
	if err != nil {
		return failedWait(s.deps.Logger, err)
	}

	return model.Completed(units)
}

// RemoveUnitStep removes the unit of a workload placed on a machine.
type RemoveUnitStep struct {
	plan.BaseStep
	deps     Deps
	workload string
	machine  string
	timeout  time.Duration
	unit     string
}

// NewRemoveUnitStep returns a new remove unit step.
func NewRemoveUnitStep(deps Deps, workload, machine string, timeout time.Duration) (*RemoveUnitStep, error) {
	if err := deps.defaults(); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}
	if workload == "" || machine == "" {
		return nil, fmt.Errorf("workload and machine are required: %w", model.ErrNotValid)
	}

	return &RemoveUnitStep{
		BaseStep: plan.BaseStep{
			StepName:        fmt.Sprintf("remove-unit-%s-%s", workload, machine),
			StepDescription: fmt.Sprintf("Removing %s unit from machine %s", workload, machine),
		},
		deps:     deps,
		workload: workload,
		machine:  machine,
		timeout:  timeoutOrDefault(timeout),
	}, nil
}

// IsSkip skips when there is nothing to remove.
func (s *RemoveUnitStep) IsSkip(ctx context.Context, status plan.Status) model.Result {
	w, err := s.deps.Client.GetWorkload(ctx, s.deps.Model, s.workload)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Skipped(fmt.Sprintf("Workload %s has not been deployed yet", s.workload))
		}
		return model.Failed(fmt.Errorf("could not check %s: %w", s.workload, err))
	}

	u, ok := w.MachineUnits()[s.machine]
	if !ok {
		return model.Skipped(fmt.Sprintf("No %s unit on machine %s", s.workload, s.machine))
	}
	s.unit = u.Name
	return model.Completed(nil)
}

// Run removes the unit, waits for it to be gone and for the workload to settle.
func (s *RemoveUnitStep) Run(ctx context.Context, status plan.Status) model.Result {
	if err := s.deps.Client.RemoveUnit(ctx, s.deps.Model, s.unit); err != nil {
		s.deps.Logger.Warningf("Could not remove unit %s: %s", s.unit, err)
		return model.Failed(fmt.Errorf("could not remove unit %s: %w", s.unit, err))
	}

	status.Update(fmt.Sprintf("Waiting for %s to be removed", s.unit))
	err := s.deps.Waiter.WaitGone(ctx, model.WaitSpec{
		Model:    s.deps.Model,
		Entities: []string{s.unit},
		Timeout:  s.timeout,
	})
	if err != nil {
		return failedWait(s.deps.Logger, err)
	}

	err = s.deps.Waiter.WaitReady(ctx, model.WaitSpec{
		Model:                    s.deps.Model,
		Entities:                 []string{s.workload},
		AcceptedWorkloadStatuses: []model.WorkloadStatus{model.WorkloadStatusActive, model.WorkloadStatusUnknown},
		Timeout:                  s.timeout,
	})
	if err != nil {
		return failedWait(s.deps.Logger, err)
	}

	return model.Completed(s.unit)
}
