package fake

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/wolsen/snap-openstack-sub000/internal/clock"
	"github.com/wolsen/snap-openstack-sub000/internal/log"
	"github.com/wolsen/snap-openstack-sub000/internal/model"
	"github.com/wolsen/snap-openstack-sub000/internal/orchestrator"
)

var (
	_ orchestrator.Client         = (*Orchestrator)(nil)
	_ orchestrator.IdleWaiter     = (*Orchestrator)(nil)
	_ orchestrator.SnapshotReader = (*Orchestrator)(nil)
)

// Operation names used to inject failures.
const (
	OpGetWorkload    = "GetWorkload"
	OpGetWorkloads   = "GetWorkloads"
	OpGetUnit        = "GetUnit"
	OpListWorkloads  = "ListWorkloads"
	OpDeploy         = "Deploy"
	OpAddUnit        = "AddUnit"
	OpRemoveUnit     = "RemoveUnit"
	OpRemoveWorkload = "RemoveWorkload"
	OpRefresh        = "Refresh"
	OpSetConfig      = "SetConfig"
	OpWaitForIdle    = "WaitForIdle"
)

// OrchestratorConfig is the configuration for the fake orchestrator.
type OrchestratorConfig struct {
	// UnitAgentStatus is the agent status new units start with (default idle).
	UnitAgentStatus model.AgentStatus
	// UnitWorkloadStatus is the workload status new units start with (default active).
	UnitWorkloadStatus model.WorkloadStatus
	// PollInterval is used by the native idle wait.
	PollInterval time.Duration
	Clock        clock.Clock
	Logger       log.Logger
}

func (c *OrchestratorConfig) defaults() error {
	if c.UnitAgentStatus == "" {
		c.UnitAgentStatus = model.AgentStatusIdle
	}

	if c.UnitWorkloadStatus == "" {
		c.UnitWorkloadStatus = model.WorkloadStatusActive
	}

	if c.PollInterval == 0 {
		c.PollInterval = 500 * time.Millisecond
	}

	if c.Clock == nil {
		c.Clock = clock.Real
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "orchestrator.Fake"})

	return nil
}

type workloadState struct {
	workload         model.Workload
	nextUnit         int
	statusOverridden bool
}

// Orchestrator is an in-memory implementation of the orchestrator.
// It simulates a remote orchestrator without any infrastructure, units converge
// to the configured status as soon as they are created.
type Orchestrator struct {
	models      map[string]map[string]*workloadState
	failures    map[string]error
	nextMachine int
	cfg         OrchestratorConfig
	mu          sync.RWMutex
	logger      log.Logger
}

// NewOrchestrator creates a new fake orchestrator.
func NewOrchestrator(cfg OrchestratorConfig) (*Orchestrator, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Orchestrator{
		models:   map[string]map[string]*workloadState{},
		failures: map[string]error{},
		cfg:      cfg,
		logger:   cfg.Logger,
	}, nil
}

// FailOn makes every call to the operation fail with err until it's reset with a nil error.
func (o *Orchestrator) FailOn(op string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err == nil {
		delete(o.failures, op)
		return
	}
	o.failures[op] = err
}

// Seed stores a workload as is, replacing any previous one with the same name.
func (o *Orchestrator) Seed(modelName string, w model.Workload) {
	o.mu.Lock()
	defer o.mu.Unlock()

	w = copyWorkload(w)
	model.SortUnits(w.Units)
	st := &workloadState{workload: w, statusOverridden: w.Status != ""}
	for _, u := range w.Units {
		if _, n := unitNumber(u.Name); n >= st.nextUnit {
			st.nextUnit = n + 1
		}
	}
	if !st.statusOverridden {
		st.workload.Status = aggregateStatus(st.workload.Units)
	}

	o.modelWorkloads(modelName)[w.Name] = st
}

// SetUnitStatus changes the statuses of a unit.
func (o *Orchestrator) SetUnitStatus(modelName, unitName string, agent model.AgentStatus, workload model.WorkloadStatus) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	st, idx, err := o.unit(modelName, unitName)
	if err != nil {
		return err
	}

	u := &st.workload.Units[idx]
	u.AgentStatus = agent
	u.WorkloadStatus = workload
	u.Since = o.cfg.Clock.Now().UTC()
	if !st.statusOverridden {
		st.workload.Status = aggregateStatus(st.workload.Units)
	}

	return nil
}

// SetWorkloadStatus forces the aggregated status of a workload.
func (o *Orchestrator) SetWorkloadStatus(modelName, name string, status model.WorkloadStatus) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	st, ok := o.modelWorkloads(modelName)[name]
	if !ok {
		return fmt.Errorf("workload %s: %w", name, model.ErrNotFound)
	}
	st.workload.Status = status
	st.statusOverridden = true

	return nil
}

// GetWorkload returns a copy of the workload.
func (o *Orchestrator) GetWorkload(ctx context.Context, modelName, name string) (*model.Workload, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if err := o.failure(OpGetWorkload); err != nil {
		return nil, err
	}

	st, ok := o.models[modelName][name]
	if !ok {
		return nil, fmt.Errorf("workload %s in model %s: %w", name, modelName, model.ErrNotFound)
	}

	w := copyWorkload(st.workload)
	return &w, nil
}

// GetWorkloads returns copies of the requested workloads read under a single lock,
// missing ones are left out.
func (o *Orchestrator) GetWorkloads(ctx context.Context, modelName string, names []string) (map[string]*model.Workload, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if err := o.failure(OpGetWorkloads); err != nil {
		return nil, err
	}

	workloads := make(map[string]*model.Workload, len(names))
	for _, name := range names {
		st, ok := o.models[modelName][name]
		if !ok {
			continue
		}
		w := copyWorkload(st.workload)
		workloads[name] = &w
	}

	return workloads, nil
}

// GetUnit returns a copy of the unit.
func (o *Orchestrator) GetUnit(ctx context.Context, modelName, unitName string) (*model.Unit, error) {
	if err := model.ValidateUnitName(unitName); err != nil {
		return nil, err
	}

	o.mu.RLock()
	defer o.mu.RUnlock()

	if err := o.failure(OpGetUnit); err != nil {
		return nil, err
	}

	st, ok := o.models[modelName][model.UnitWorkload(unitName)]
	if !ok {
		return nil, fmt.Errorf("unit %s in model %s: %w", unitName, modelName, model.ErrNotFound)
	}
	u, ok := st.workload.Unit(unitName)
	if !ok {
		return nil, fmt.Errorf("unit %s in model %s: %w", unitName, modelName, model.ErrNotFound)
	}

	return &u, nil
}

// ListWorkloads returns the sorted workload names of a model.
func (o *Orchestrator) ListWorkloads(ctx context.Context, modelName string) ([]string, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if err := o.failure(OpListWorkloads); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(o.models[modelName]))
	for name := range o.models[modelName] {
		names = append(names, name)
	}
	sort.Strings(names)

	return names, nil
}

// Deploy deploys a workload with one unit per requested machine, or a single unit
// on a new machine when no machines are requested.
func (o *Orchestrator) Deploy(ctx context.Context, modelName string, req orchestrator.DeployRequest) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.failure(OpDeploy); err != nil {
		return err
	}

	if req.Name == "" || req.Charm == "" {
		return fmt.Errorf("name and charm are required: %w", model.ErrNotValid)
	}

	workloads := o.modelWorkloads(modelName)
	if _, ok := workloads[req.Name]; ok {
		return fmt.Errorf("workload %s: %w", req.Name, model.ErrAlreadyExists)
	}

	config := make(map[string]string, len(req.Config))
	for k, v := range req.Config {
		config[k] = v
	}

	st := &workloadState{workload: model.Workload{
		Name:    req.Name,
		Charm:   req.Charm,
		Channel: req.Channel,
		Config:  config,
	}}
	machines := req.Machines
	if len(machines) == 0 {
		machines = []string{""}
	}
	for _, machine := range machines {
		o.newUnit(st, machine)
	}
	st.workload.Status = aggregateStatus(st.workload.Units)
	workloads[req.Name] = st

	o.logger.Infof("Deployed fake workload: %s (units: %d)", req.Name, len(st.workload.Units))
	return nil
}

// AddUnit adds a unit to the workload.
func (o *Orchestrator) AddUnit(ctx context.Context, modelName, workload, machine string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.failure(OpAddUnit); err != nil {
		return "", err
	}

	st, ok := o.modelWorkloads(modelName)[workload]
	if !ok {
		return "", fmt.Errorf("workload %s: %w", workload, model.ErrNotFound)
	}

	u := o.newUnit(st, machine)
	if !st.statusOverridden {
		st.workload.Status = aggregateStatus(st.workload.Units)
	}

	o.logger.Infof("Added fake unit: %s (machine: %s)", u.Name, u.Machine)
	return u.Name, nil
}

// RemoveUnit removes a unit.
func (o *Orchestrator) RemoveUnit(ctx context.Context, modelName, unitName string) error {
	if err := model.ValidateUnitName(unitName); err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.failure(OpRemoveUnit); err != nil {
		return err
	}

	st, idx, err := o.unit(modelName, unitName)
	if err != nil {
		return err
	}
	st.workload.Units = append(st.workload.Units[:idx], st.workload.Units[idx+1:]...)
	if !st.statusOverridden {
		st.workload.Status = aggregateStatus(st.workload.Units)
	}

	o.logger.Infof("Removed fake unit: %s", unitName)
	return nil
}

// RemoveWorkload removes a workload and all its units.
func (o *Orchestrator) RemoveWorkload(ctx context.Context, modelName, name string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.failure(OpRemoveWorkload); err != nil {
		return err
	}

	workloads := o.modelWorkloads(modelName)
	if _, ok := workloads[name]; !ok {
		return fmt.Errorf("workload %s: %w", name, model.ErrNotFound)
	}
	delete(workloads, name)

	o.logger.Infof("Removed fake workload: %s", name)
	return nil
}

// Refresh moves a workload to a new channel, units restart and converge again.
func (o *Orchestrator) Refresh(ctx context.Context, modelName, workload, channel string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.failure(OpRefresh); err != nil {
		return err
	}

	st, ok := o.modelWorkloads(modelName)[workload]
	if !ok {
		return fmt.Errorf("workload %s: %w", workload, model.ErrNotFound)
	}

	now := o.cfg.Clock.Now().UTC()
	st.workload.Channel = channel
	for i := range st.workload.Units {
		st.workload.Units[i].AgentStatus = o.cfg.UnitAgentStatus
		st.workload.Units[i].WorkloadStatus = o.cfg.UnitWorkloadStatus
		st.workload.Units[i].Since = now
	}
	if !st.statusOverridden {
		st.workload.Status = aggregateStatus(st.workload.Units)
	}

	o.logger.Infof("Refreshed fake workload: %s (channel: %s)", workload, channel)
	return nil
}

// GetConfig returns a copy of the workload config.
func (o *Orchestrator) GetConfig(ctx context.Context, modelName, workload string) (map[string]string, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	st, ok := o.models[modelName][workload]
	if !ok {
		return nil, fmt.Errorf("workload %s: %w", workload, model.ErrNotFound)
	}

	config := make(map[string]string, len(st.workload.Config))
	for k, v := range st.workload.Config {
		config[k] = v
	}
	return config, nil
}

// SetConfig merges the config into the workload config.
func (o *Orchestrator) SetConfig(ctx context.Context, modelName, workload string, config map[string]string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.failure(OpSetConfig); err != nil {
		return err
	}

	st, ok := o.modelWorkloads(modelName)[workload]
	if !ok {
		return fmt.Errorf("workload %s: %w", workload, model.ErrNotFound)
	}
	if st.workload.Config == nil {
		st.workload.Config = map[string]string{}
	}
	for k, v := range config {
		st.workload.Config[k] = v
	}

	return nil
}

// WaitForIdle blocks until every unit of the workloads is active with an idle agent.
func (o *Orchestrator) WaitForIdle(ctx context.Context, modelName string, workloads []string, timeout time.Duration) error {
	deadline := o.cfg.Clock.Now().Add(timeout)
	for {
		done, err := o.idle(modelName, workloads)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		if !o.cfg.Clock.Now().Before(deadline) {
			return orchestrator.ErrIdleTimeout
		}
		if err := o.cfg.Clock.Sleep(ctx, o.cfg.PollInterval); err != nil {
			return err
		}
	}
}

func (o *Orchestrator) idle(modelName string, workloads []string) (bool, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if err := o.failure(OpWaitForIdle); err != nil {
		return false, err
	}

	done := true
	for _, name := range workloads {
		st, ok := o.models[modelName][name]
		if !ok {
			done = false
			continue
		}
		if len(st.workload.Units) == 0 {
			done = false
		}
		for _, u := range st.workload.Units {
			if u.AgentStatus == model.AgentStatusError {
				return false, &orchestrator.AgentError{Unit: u.Name, Message: u.Message}
			}
			if u.WorkloadStatus == model.WorkloadStatusError {
				return false, &orchestrator.UnitError{Unit: u.Name, Message: u.Message}
			}
			if u.AgentStatus != model.AgentStatusIdle || u.WorkloadStatus != model.WorkloadStatusActive {
				done = false
			}
		}
	}

	return done, nil
}

func (o *Orchestrator) failure(op string) error {
	err, ok := o.failures[op]
	if !ok {
		return nil
	}
	return fmt.Errorf("fake %s failure: %w", op, err)
}

func (o *Orchestrator) modelWorkloads(modelName string) map[string]*workloadState {
	workloads, ok := o.models[modelName]
	if !ok {
		workloads = map[string]*workloadState{}
		o.models[modelName] = workloads
	}
	return workloads
}

func (o *Orchestrator) unit(modelName, unitName string) (*workloadState, int, error) {
	st, ok := o.models[modelName][model.UnitWorkload(unitName)]
	if !ok {
		return nil, 0, fmt.Errorf("unit %s: %w", unitName, model.ErrNotFound)
	}
	for i, u := range st.workload.Units {
		if u.Name == unitName {
			return st, i, nil
		}
	}
	return nil, 0, fmt.Errorf("unit %s: %w", unitName, model.ErrNotFound)
}

func (o *Orchestrator) newUnit(st *workloadState, machine string) model.Unit {
	if machine == "" {
		machine = strconv.Itoa(o.nextMachine)
		o.nextMachine++
	}

	u := model.Unit{
		Name:           fmt.Sprintf("%s/%d", st.workload.Name, st.nextUnit),
		Workload:       st.workload.Name,
		AgentStatus:    o.cfg.UnitAgentStatus,
		WorkloadStatus: o.cfg.UnitWorkloadStatus,
		Machine:        machine,
		Leader:         len(st.workload.Units) == 0,
		Since:          o.cfg.Clock.Now().UTC(),
	}
	st.nextUnit++
	st.workload.Units = append(st.workload.Units, u)
	model.SortUnits(st.workload.Units)

	return u
}

// statusSeverity orders workload statuses, the aggregated status is the most severe one.
var statusSeverity = map[model.WorkloadStatus]int{
	model.WorkloadStatusError:       6,
	model.WorkloadStatusBlocked:     5,
	model.WorkloadStatusMaintenance: 4,
	model.WorkloadStatusWaiting:     3,
	model.WorkloadStatusActive:      2,
	model.WorkloadStatusTerminated:  1,
	model.WorkloadStatusUnknown:     0,
}

func aggregateStatus(units []model.Unit) model.WorkloadStatus {
	if len(units) == 0 {
		return model.WorkloadStatusUnknown
	}

	status := units[0].WorkloadStatus
	for _, u := range units[1:] {
		if statusSeverity[u.WorkloadStatus] > statusSeverity[status] {
			status = u.WorkloadStatus
		}
	}
	return status
}

func unitNumber(name string) (string, int) {
	workload, number, _ := strings.Cut(name, "/")
	n, err := strconv.Atoi(number)
	if err != nil {
		return workload, -1
	}
	return workload, n
}

func copyWorkload(w model.Workload) model.Workload {
	c := w
	if w.Config != nil {
		c.Config = make(map[string]string, len(w.Config))
		for k, v := range w.Config {
			c.Config[k] = v
		}
	}
	c.Units = append([]model.Unit(nil), w.Units...)
	return c
}
