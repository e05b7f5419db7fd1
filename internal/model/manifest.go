package model

import (
	"fmt"
	"time"
)

// Manifest describes the workloads a deployment converges to.
type Manifest struct {
	Model     string
	Workloads []WorkloadSpec
}

// WorkloadSpec is the desired state of a single workload.
type WorkloadSpec struct {
	Name    string
	Charm   string
	Channel string
	// Machines are the machines that should run one unit each.
	Machines []string
	Config   map[string]string
	// Ask are config keys the user is always prompted for, the Config value is the default answer.
	Ask []string
	// AcceptedStatuses are the workload statuses considered ready after deploying.
	AcceptedStatuses []WorkloadStatus
	Timeout          time.Duration
}

// Workload returns the workload spec by name.
func (m Manifest) Workload(name string) (WorkloadSpec, bool) {
	for _, w := range m.Workloads {
		if w.Name == name {
			return w, true
		}
	}
	return WorkloadSpec{}, false
}

// WorkloadNames returns the manifest workload names in declaration order.
func (m Manifest) WorkloadNames() []string {
	names := make([]string, 0, len(m.Workloads))
	for _, w := range m.Workloads {
		names = append(names, w.Name)
	}
	return names
}

// Validate validates the manifest.
func (m Manifest) Validate() error {
	if m.Model == "" {
		return fmt.Errorf("model is required: %w", ErrNotValid)
	}
	if len(m.Workloads) == 0 {
		return fmt.Errorf("at least one workload is required: %w", ErrNotValid)
	}

	seen := map[string]bool{}
	for _, w := range m.Workloads {
		if err := w.Validate(); err != nil {
			return fmt.Errorf("workload %q: %w", w.Name, err)
		}
		if seen[w.Name] {
			return fmt.Errorf("workload %q is duplicated: %w", w.Name, ErrNotValid)
		}
		seen[w.Name] = true
	}

	return nil
}

// Validate validates the workload spec.
func (w WorkloadSpec) Validate() error {
	if w.Name == "" {
		return fmt.Errorf("name is required: %w", ErrNotValid)
	}
	if w.Charm == "" {
		return fmt.Errorf("charm is required: %w", ErrNotValid)
	}
	if w.Timeout < 0 {
		return fmt.Errorf("timeout can't be negative: %w", ErrNotValid)
	}

	machines := map[string]bool{}
	for _, m := range w.Machines {
		if m == "" {
			return fmt.Errorf("machine ids can't be empty: %w", ErrNotValid)
		}
		if machines[m] {
			return fmt.Errorf("machine %q is duplicated: %w", m, ErrNotValid)
		}
		machines[m] = true
	}

	return nil
}
