package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wolsen/snap-openstack-sub000/internal/model"
)

// StatusReader reads the orchestrator state.
//
// Missing entities are returned as errors wrapping model.ErrNotFound, never as a status.
// Failures observing the state (connectivity, payload parsing...) wrap model.ErrUnavailable.
type StatusReader interface {
	GetWorkload(ctx context.Context, modelName, name string) (*model.Workload, error)
	GetUnit(ctx context.Context, modelName, unitName string) (*model.Unit, error)
	ListWorkloads(ctx context.Context, modelName string) ([]string, error)
}

// SnapshotReader is implemented by orchestrators that can read many workloads from a
// single observation of the model, so all of them are judged against the same state.
type SnapshotReader interface {
	// GetWorkloads returns the requested workloads keyed by name. Missing workloads are
	// left out of the result, they are not an error.
	GetWorkloads(ctx context.Context, modelName string, names []string) (map[string]*model.Workload, error)
}

// DeployRequest is the request to deploy a new workload.
type DeployRequest struct {
	Name     string
	Charm    string
	Channel  string
	Machines []string
	Config   map[string]string
}

// Mutator changes the orchestrator state.
type Mutator interface {
	Deploy(ctx context.Context, modelName string, req DeployRequest) error
	// AddUnit adds a unit to a workload placed on the machine and returns the new unit name.
	AddUnit(ctx context.Context, modelName, workload, machine string) (string, error)
	RemoveUnit(ctx context.Context, modelName, unitName string) error
	RemoveWorkload(ctx context.Context, modelName, name string) error
	Refresh(ctx context.Context, modelName, workload, channel string) error
	SetConfig(ctx context.Context, modelName, workload string, config map[string]string) error
}

// Client is the full orchestrator client.
type Client interface {
	StatusReader
	Mutator
	// GetConfig returns the config of a workload.
	GetConfig(ctx context.Context, modelName, workload string) (map[string]string, error)
}

// IdleWaiter is implemented by orchestrators that have a native bulk wait that
// blocks until all the units of the workloads are active and their agents idle.
//
// Errors are *UnitError, *AgentError, *MachineError or *WorkloadError when an entity
// goes into an error state, and ErrIdleTimeout when the timeout expires.
type IdleWaiter interface {
	WaitForIdle(ctx context.Context, modelName string, workloads []string, timeout time.Duration) error
}

// ErrIdleTimeout is returned by native idle waits when the timeout expires.
var ErrIdleTimeout = errors.New("timed out waiting for idle")

// UnitError is returned when a unit workload goes into error.
type UnitError struct {
	Unit    string
	Message string
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("unit %s is in error: %s", e.Unit, e.Message)
}

// AgentError is returned when a unit agent goes into error.
type AgentError struct {
	Unit    string
	Message string
}

func (e *AgentError) Error() string {
	return fmt.Sprintf("agent of unit %s is in error: %s", e.Unit, e.Message)
}

// MachineError is returned when a machine hosting units goes into error.
type MachineError struct {
	Machine string
	Message string
}

func (e *MachineError) Error() string {
	return fmt.Sprintf("machine %s is in error: %s", e.Machine, e.Message)
}

// WorkloadError is returned when the aggregated status of a workload is error.
type WorkloadError struct {
	Workload string
	Message  string
}

func (e *WorkloadError) Error() string {
	return fmt.Sprintf("workload %s is in error: %s", e.Workload, e.Message)
}

// IsEntityError returns true if the error is one of the native entity error states.
func IsEntityError(err error) bool {
	var (
		unitErr     *UnitError
		agentErr    *AgentError
		machineErr  *MachineError
		workloadErr *WorkloadError
	)
	return errors.As(err, &unitErr) ||
		errors.As(err, &agentErr) ||
		errors.As(err, &machineErr) ||
		errors.As(err, &workloadErr)
}
