package lib

import (
	"errors"
	"time"

	"github.com/wolsen/snap-openstack-sub000/internal/check"
	"github.com/wolsen/snap-openstack-sub000/internal/model"
	"github.com/wolsen/snap-openstack-sub000/internal/plan"
)

// OrchestratorType identifies the orchestrator backend.
type OrchestratorType string

const (
	// OrchestratorJuju drives a real juju controller through the juju CLI.
	OrchestratorJuju OrchestratorType = "juju"

	// OrchestratorFake uses an in-memory simulation, nothing is deployed.
	// Use this for unit testing without infrastructure dependencies.
	OrchestratorFake OrchestratorType = "fake"
)

// WorkloadStatus is the application level health of a workload or a unit.
type WorkloadStatus string

const (
	WorkloadStatusActive      WorkloadStatus = "active"
	WorkloadStatusBlocked     WorkloadStatus = "blocked"
	WorkloadStatusWaiting     WorkloadStatus = "waiting"
	WorkloadStatusMaintenance WorkloadStatus = "maintenance"
	WorkloadStatusUnknown     WorkloadStatus = "unknown"
	WorkloadStatusError       WorkloadStatus = "error"
	WorkloadStatusTerminated  WorkloadStatus = "terminated"
)

// AgentStatus is the health of the agent colocated with a unit.
type AgentStatus string

const (
	AgentStatusIdle       AgentStatus = "idle"
	AgentStatusExecuting  AgentStatus = "executing"
	AgentStatusAllocating AgentStatus = "allocating"
	AgentStatusError      AgentStatus = "error"
	AgentStatusLost       AgentStatus = "lost"
)

// Manifest is the desired state of a model.
type Manifest struct {
	// Model is the orchestrator model. Empty uses the client model.
	Model     string
	Workloads []WorkloadSpec
}

// WorkloadSpec is the desired state of a single workload.
type WorkloadSpec struct {
	Name string
	// Charm defaults to the workload name.
	Charm   string
	Channel string
	// Machines run one unit each.
	Machines []string
	Config   map[string]string
	// AcceptedStatuses are the statuses considered ready after deploying.
	// Default: active.
	AcceptedStatuses []WorkloadStatus
	// Timeout bounds the waits of this workload.
	// Default: 10m.
	Timeout time.Duration
}

// Workload is a read-only snapshot of a deployed workload.
type Workload struct {
	Name    string
	Charm   string
	Channel string
	// Status is aggregated from the units.
	Status  WorkloadStatus
	Message string
	Config  map[string]string
	// Units are sorted by unit number.
	Units []Unit
}

// Unit is a read-only snapshot of a workload unit.
type Unit struct {
	// Name is <workload>/<n>.
	Name           string
	Workload       string
	AgentStatus    AgentStatus
	WorkloadStatus WorkloadStatus
	Message        string
	Machine        string
	Leader         bool
	Since          time.Time
}

// StepResult is the outcome of one plan step.
type StepResult struct {
	// Step identifies the step kind (e.g. steps.DeployWorkloadStep).
	Step string
	// Result is completed, skipped or failed.
	Result  string
	Message string
}

// CheckResult is the outcome of a preflight check.
type CheckResult struct {
	ID      string
	Message string
	// Status is ok, warning or error.
	Status string
}

// DeployOpts are the options of [Client.Deploy].
type DeployOpts struct {
	// SkipChecks skips the preflight checks.
	SkipChecks bool
	// IdlePeriod is the time reconfigured units need to stay settled.
	// Default: 15s.
	IdlePeriod time.Duration
}

// DeployResult is the outcome of [Client.Deploy].
type DeployResult struct {
	Checks []CheckResult
	Steps  []StepResult
}

// UpgradeOpts are the options of [Client.Upgrade].
type UpgradeOpts struct {
	// IdlePeriod is the time refreshed units need to stay settled.
	// Default: 15s.
	IdlePeriod time.Duration
}

// UpgradeResult is the outcome of [Client.Upgrade].
type UpgradeResult struct {
	// Deployed are the channels of the workloads before upgrading.
	Deployed map[string]string
	// Upgraded are the refreshed workloads, sorted.
	Upgraded []string
	Steps    []StepResult
}

// UnitPlacement identifies the unit of a workload on a machine.
type UnitPlacement struct {
	Workload string
	Machine  string
}

// DestroyOpts are the options of [Client.Destroy].
type DestroyOpts struct {
	// Model is the orchestrator model. Empty uses the client model.
	Model string
	// Units are removed first.
	Units []UnitPlacement
	// Workloads are removed with all their units.
	Workloads []string
	// Timeout bounds every removal wait.
	// Default: 10m.
	Timeout time.Duration
}

// WaitMode is the kind of convergence wait.
type WaitMode string

const (
	// WaitReady waits for workloads to reach an accepted status, missing workloads are ready.
	WaitReady WaitMode = "ready"
	// WaitGone waits for workloads or units to disappear.
	WaitGone WaitMode = "gone"
	// WaitUnit waits for units to reach accepted agent and workload statuses.
	WaitUnit WaitMode = "unit"
	// WaitAllUnits waits for every unit of the workloads.
	WaitAllUnits WaitMode = "units"
	// WaitActive waits for all the units to be active and idle.
	WaitActive WaitMode = "active"
	// WaitDesired waits for the units to settle in an accepted status for an idle period.
	WaitDesired WaitMode = "desired"
)

// WaitOpts are the options of [Client.Wait].
type WaitOpts struct {
	Mode WaitMode
	// Model is the orchestrator model. Empty uses the client model.
	Model string
	// Entities are workload names, or unit names for [WaitUnit] and [WaitGone].
	Entities []string
	// Statuses are the accepted workload statuses.
	// Default: active.
	Statuses []WorkloadStatus
	// AgentStatuses are the accepted agent statuses of unit waits.
	// Default: idle.
	AgentStatuses []AgentStatus
	// Timeout bounds the wait, it's required.
	Timeout time.Duration
	// IdlePeriod is used by [WaitDesired].
	// Default: 15s.
	IdlePeriod time.Duration
}

// Sentinel errors returned by the SDK. Use [errors.Is] to check for these.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrNotValid      = errors.New("not valid")
	// ErrTimeout is returned when a wait expires before its condition holds.
	ErrTimeout = errors.New("timed out")
	// ErrWait is returned when the orchestrator reports an error state while waiting.
	ErrWait = errors.New("wait failed")
	// ErrStepFailed is returned when a plan step fails.
	ErrStepFailed = errors.New("step failed")
	// ErrCheckFailed is returned when a preflight check fails.
	ErrCheckFailed = errors.New("check failed")
)

// --- Conversion helpers ---

func toInternalManifest(m Manifest, defaultModel string) model.Manifest {
	res := model.Manifest{Model: m.Model}
	if res.Model == "" {
		res.Model = defaultModel
	}

	for _, w := range m.Workloads {
		charm := w.Charm
		if charm == "" {
			charm = w.Name
		}
		res.Workloads = append(res.Workloads, model.WorkloadSpec{
			Name:             w.Name,
			Charm:            charm,
			Channel:          w.Channel,
			Machines:         w.Machines,
			Config:           w.Config,
			AcceptedStatuses: toInternalWorkloadStatuses(w.AcceptedStatuses),
			Timeout:          w.Timeout,
		})
	}

	return res
}

func fromInternalWorkload(w model.Workload) Workload {
	res := Workload{
		Name:    w.Name,
		Charm:   w.Charm,
		Channel: w.Channel,
		Status:  WorkloadStatus(w.Status),
		Message: w.Message,
		Config:  w.Config,
		Units:   make([]Unit, 0, len(w.Units)),
	}
	for _, u := range w.Units {
		res.Units = append(res.Units, Unit{
			Name:           u.Name,
			Workload:       u.Workload,
			AgentStatus:    AgentStatus(u.AgentStatus),
			WorkloadStatus: WorkloadStatus(u.WorkloadStatus),
			Message:        u.Message,
			Machine:        u.Machine,
			Leader:         u.Leader,
			Since:          u.Since,
		})
	}
	return res
}

func fromInternalResults(r *plan.Results) []StepResult {
	if r == nil {
		return nil
	}

	res := make([]StepResult, 0, r.Len())
	for _, k := range r.Keys() {
		sr, _ := r.ByKey(k)
		res = append(res, StepResult{Step: plan.ShortKey(k), Result: sr.Type.String(), Message: sr.Text()})
	}
	return res
}

func fromInternalChecks(cs []model.CheckResult) []CheckResult {
	res := make([]CheckResult, 0, len(cs))
	for _, c := range cs {
		res = append(res, CheckResult{ID: c.ID, Message: c.Message, Status: string(c.Status)})
	}
	return res
}

func toInternalWorkloadStatuses(ss []WorkloadStatus) []model.WorkloadStatus {
	res := make([]model.WorkloadStatus, 0, len(ss))
	for _, s := range ss {
		res = append(res, model.WorkloadStatus(s))
	}
	return res
}

func toInternalAgentStatuses(ss []AgentStatus) []model.AgentStatus {
	res := make([]model.AgentStatus, 0, len(ss))
	for _, s := range ss {
		res = append(res, model.AgentStatus(s))
	}
	return res
}

// internalErrors maps the internal sentinels to the public ones.
var internalErrors = []struct {
	internal error
	public   error
}{
	{model.ErrNotFound, ErrNotFound},
	{model.ErrAlreadyExists, ErrAlreadyExists},
	{model.ErrNotValid, ErrNotValid},
	{model.ErrTimeout, ErrTimeout},
	{model.ErrWait, ErrWait},
	{plan.ErrStepFailed, ErrStepFailed},
	{check.ErrCheckFailed, ErrCheckFailed},
}

func mapError(err error) error {
	if err == nil {
		return nil
	}

	var sentinels []error
	for _, e := range internalErrors {
		if errors.Is(err, e.internal) {
			sentinels = append(sentinels, e.public)
		}
	}
	if len(sentinels) == 0 {
		return err
	}

	return &mappedError{original: err, sentinels: sentinels}
}

type mappedError struct {
	original  error
	sentinels []error
}

func (e *mappedError) Error() string { return e.original.Error() }

func (e *mappedError) Is(target error) bool {
	for _, s := range e.sentinels {
		if target == s {
			return true
		}
	}
	return false
}

func (e *mappedError) Unwrap() error { return e.original }
