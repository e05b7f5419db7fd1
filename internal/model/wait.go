package model

import (
	"fmt"
	"time"
)

// WaitSpec describes a bounded convergence wait over a set of remote entities.
type WaitSpec struct {
	// Model is the orchestrator model (namespace) the entities live in.
	Model string
	// Entities are workload names or unit names (<workload>/<n>) depending on the wait.
	Entities []string
	// AcceptedWorkloadStatuses are the workload statuses that satisfy the wait.
	AcceptedWorkloadStatuses []WorkloadStatus
	// AcceptedAgentStatuses are the agent statuses that satisfy the wait (unit waits only).
	AcceptedAgentStatuses []AgentStatus
	// Timeout bounds the whole wait, it's required.
	Timeout time.Duration
	// IdlePeriod is the time a unit needs to stay satisfied before it's trusted (desired status wait only).
	IdlePeriod time.Duration
	// PollInterval is the sleep between two status reads.
	PollInterval time.Duration
}

// Validate checks the wait is bounded and targets something.
func (w WaitSpec) Validate() error {
	if w.Timeout <= 0 {
		return fmt.Errorf("timeout must be greater than zero: %w", ErrNotValid)
	}
	if len(w.Entities) == 0 {
		return fmt.Errorf("at least one entity is required: %w", ErrNotValid)
	}
	for _, e := range w.Entities {
		if e == "" {
			return fmt.Errorf("entity names can't be empty: %w", ErrNotValid)
		}
	}
	if w.IdlePeriod < 0 {
		return fmt.Errorf("idle period can't be negative: %w", ErrNotValid)
	}
	if w.PollInterval < 0 {
		return fmt.Errorf("poll interval can't be negative: %w", ErrNotValid)
	}
	return nil
}
