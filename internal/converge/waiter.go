package converge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wolsen/snap-openstack-sub000/internal/clock"
	"github.com/wolsen/snap-openstack-sub000/internal/log"
	"github.com/wolsen/snap-openstack-sub000/internal/model"
	"github.com/wolsen/snap-openstack-sub000/internal/orchestrator"
)

const (
	// DefaultPollInterval is the sleep between two status reads.
	DefaultPollInterval = 500 * time.Millisecond
	// DefaultIdlePeriod is the time a unit needs to stay in the desired status before it's trusted.
	DefaultIdlePeriod = 15 * time.Second

	maxConcurrentReads = 8
)

// WaiterConfig is the configuration for the waiter.
type WaiterConfig struct {
	Client orchestrator.StatusReader
	Clock  clock.Clock
	// PollInterval is used when the wait spec doesn't set one.
	PollInterval time.Duration
	Logger       log.Logger
}

func (c *WaiterConfig) defaults() error {
	if c.Client == nil {
		return fmt.Errorf("client is required")
	}

	if c.Clock == nil {
		c.Clock = clock.Real
	}

	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.PollInterval < 0 {
		return fmt.Errorf("poll interval can't be negative")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "converge.Waiter"})

	return nil
}

// Waiter blocks until remote entities converge to a status.
//
// The orchestrator doesn't push changes, so all the waits poll its state: one
// snapshot read per tick (or one read per entity when the client can't read
// snapshots), all judged against that tick's state, until
// the condition holds or the wait timeout expires. Failures reading the state are
// returned as they are and never retried.
type Waiter struct {
	client       orchestrator.StatusReader
	clock        clock.Clock
	pollInterval time.Duration
	logger       log.Logger
}

// NewWaiter returns a new waiter.
func NewWaiter(cfg WaiterConfig) (*Waiter, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Waiter{
		client:       cfg.Client,
		clock:        cfg.Clock,
		pollInterval: cfg.PollInterval,
		logger:       cfg.Logger,
	}, nil
}

// WaitReady blocks until the workloads aggregated status is one of the accepted
// statuses (default active).
//
// A missing workload is not deployed yet, there is nothing to wait for, so it
// satisfies the wait.
func (w *Waiter) WaitReady(ctx context.Context, spec model.WaitSpec) error {
	if err := spec.Validate(); err != nil {
		return fmt.Errorf("invalid wait: %w", err)
	}
	accepted := acceptedWorkload(spec.AcceptedWorkloadStatuses)
	what := fmt.Sprintf("%s to be ready", describe("workload", spec.Entities))

	return w.poll(ctx, spec, what, func(ctx context.Context, _ time.Time) ([]string, error) {
		workloads, err := w.workloads(ctx, spec.Model, spec.Entities)
		if err != nil {
			return nil, err
		}

		var busy []string
		for _, name := range spec.Entities {
			wl, ok := workloads[name]
			if !ok {
				w.logger.Debugf("Workload %s is missing from model %s, nothing to wait for", name, spec.Model)
				continue
			}
			if !model.ContainsWorkloadStatus(accepted, wl.Status) {
				busy = append(busy, fmt.Sprintf("%s (status: %s)", name, wl.Status))
			}
		}
		return busy, nil
	})
}

// WaitGone blocks until none of the entities (workloads or units) exist.
func (w *Waiter) WaitGone(ctx context.Context, spec model.WaitSpec) error {
	if err := spec.Validate(); err != nil {
		return fmt.Errorf("invalid wait: %w", err)
	}
	what := fmt.Sprintf("%s to be gone", strings.Join(spec.Entities, ", "))

	var workloadNames, unitNames []string
	for _, e := range spec.Entities {
		if model.IsUnitName(e) {
			unitNames = append(unitNames, e)
			continue
		}
		workloadNames = append(workloadNames, e)
	}

	return w.poll(ctx, spec, what, func(ctx context.Context, _ time.Time) ([]string, error) {
		workloads, units, err := w.observe(ctx, spec.Model, workloadNames, unitNames)
		if err != nil {
			return nil, err
		}

		var busy []string
		for _, name := range spec.Entities {
			_, isWorkload := workloads[name]
			_, isUnit := units[name]
			if isWorkload || isUnit {
				busy = append(busy, name)
			}
		}
		return busy, nil
	})
}

// WaitUnitReady blocks until the units agent status (default idle) and workload
// status (default active) are accepted.
//
// A missing unit satisfies the wait.
func (w *Waiter) WaitUnitReady(ctx context.Context, spec model.WaitSpec) error {
	if err := spec.Validate(); err != nil {
		return fmt.Errorf("invalid wait: %w", err)
	}
	for _, name := range spec.Entities {
		if err := model.ValidateUnitName(name); err != nil {
			return fmt.Errorf("invalid wait: %w", err)
		}
	}
	acceptedWl := acceptedWorkload(spec.AcceptedWorkloadStatuses)
	acceptedAgent := acceptedAgent(spec.AcceptedAgentStatuses)
	what := fmt.Sprintf("%s to be ready", describe("unit", spec.Entities))

	return w.poll(ctx, spec, what, func(ctx context.Context, _ time.Time) ([]string, error) {
		units, err := w.units(ctx, spec.Model, spec.Entities)
		if err != nil {
			return nil, err
		}

		var busy []string
		for _, name := range spec.Entities {
			u, ok := units[name]
			if !ok {
				w.logger.Debugf("Unit %s is missing from model %s, nothing to wait for", name, spec.Model)
				continue
			}
			if !unitReady(*u, acceptedAgent, acceptedWl) {
				busy = append(busy, unitState(*u))
			}
		}
		return busy, nil
	})
}

// WaitAllUnitsReady blocks until every unit of the workloads is ready, using the
// same acceptance rules as WaitUnitReady. Missing workloads satisfy the wait.
func (w *Waiter) WaitAllUnitsReady(ctx context.Context, spec model.WaitSpec) error {
	if err := spec.Validate(); err != nil {
		return fmt.Errorf("invalid wait: %w", err)
	}
	acceptedWl := acceptedWorkload(spec.AcceptedWorkloadStatuses)
	acceptedAgent := acceptedAgent(spec.AcceptedAgentStatuses)
	what := fmt.Sprintf("all units of %s to be ready", describe("workload", spec.Entities))

	return w.poll(ctx, spec, what, func(ctx context.Context, _ time.Time) ([]string, error) {
		workloads, err := w.workloads(ctx, spec.Model, spec.Entities)
		if err != nil {
			return nil, err
		}

		var busy []string
		for _, name := range spec.Entities {
			wl, ok := workloads[name]
			if !ok {
				continue
			}
			for _, u := range wl.Units {
				if !unitReady(u, acceptedAgent, acceptedWl) {
					busy = append(busy, unitState(u))
				}
			}
		}
		return busy, nil
	})
}

// WaitUntilActive blocks until every unit of the workloads is active and its agent idle.
//
// When the orchestrator has a native bulk wait it's used, its entity error states are
// returned as *WaitError and its expiry as *TimeoutError. Otherwise the state is polled
// with the same semantics: units in error end the wait with a *WaitError and missing
// workloads keep it busy.
func (w *Waiter) WaitUntilActive(ctx context.Context, spec model.WaitSpec) error {
	if err := spec.Validate(); err != nil {
		return fmt.Errorf("invalid wait: %w", err)
	}
	what := fmt.Sprintf("model %q to be ready", spec.Model)

	if iw, ok := w.client.(orchestrator.IdleWaiter); ok {
		w.logger.Debugf("Using native idle wait for %s", strings.Join(spec.Entities, ", "))
		err := iw.WaitForIdle(ctx, spec.Model, spec.Entities, spec.Timeout)
		switch {
		case err == nil:
			return nil
		case orchestrator.IsEntityError(err):
			return &WaitError{Model: spec.Model, Err: err}
		case errors.Is(err, orchestrator.ErrIdleTimeout),
			errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
			return &TimeoutError{What: what, Timeout: spec.Timeout}
		default:
			return fmt.Errorf("could not wait for model %q: %w", spec.Model, err)
		}
	}

	return w.poll(ctx, spec, what, func(ctx context.Context, _ time.Time) ([]string, error) {
		workloads, err := w.workloads(ctx, spec.Model, spec.Entities)
		if err != nil {
			return nil, err
		}

		var busy []string
		for _, name := range spec.Entities {
			wl, ok := workloads[name]
			if !ok {
				busy = append(busy, name+" (missing)")
				continue
			}
			if len(wl.Units) == 0 {
				busy = append(busy, name+" (no units)")
				continue
			}
			for _, u := range wl.Units {
				switch {
				case u.AgentStatus == model.AgentStatusError:
					return nil, &WaitError{Model: spec.Model, Err: &orchestrator.AgentError{Unit: u.Name, Message: u.Message}}
				case u.WorkloadStatus == model.WorkloadStatusError:
					return nil, &WaitError{Model: spec.Model, Err: &orchestrator.UnitError{Unit: u.Name, Message: u.Message}}
				case u.AgentStatus != model.AgentStatusIdle || u.WorkloadStatus != model.WorkloadStatusActive:
					busy = append(busy, unitState(u))
				}
			}
		}
		return busy, nil
	})
}

// WaitUntilDesiredStatus blocks until every unit of the workloads has been stable
// in the desired status for the idle period (default 15s).
//
// A unit is satisfied on a tick when its agent is idle, its workload status is
// accepted and the aggregated status of its workload is accepted. The first tick
// it's satisfied starts its idle period, any tick it isn't resets it. The wait
// succeeds on the first tick where all units are stable.
//
// Unlike the other ready waits, a missing workload keeps the wait busy: this wait
// confirms a rollout fully landed, not that something exists. A timeout shorter
// than the idle period can't succeed.
func (w *Waiter) WaitUntilDesiredStatus(ctx context.Context, spec model.WaitSpec) error {
	if err := spec.Validate(); err != nil {
		return fmt.Errorf("invalid wait: %w", err)
	}
	accepted := acceptedWorkload(spec.AcceptedWorkloadStatuses)
	idlePeriod := spec.IdlePeriod
	if idlePeriod == 0 {
		idlePeriod = DefaultIdlePeriod
	}
	what := fmt.Sprintf("%s to settle in status %s for %s", describe("workload", spec.Entities), joinStatuses(accepted), idlePeriod)

	becameIdleAt := map[string]time.Time{}
	return w.poll(ctx, spec, what, func(ctx context.Context, now time.Time) ([]string, error) {
		workloads, err := w.workloads(ctx, spec.Model, spec.Entities)
		if err != nil {
			return nil, err
		}

		seen := map[string]bool{}
		var busy []string
		for _, name := range spec.Entities {
			wl, ok := workloads[name]
			if !ok {
				busy = append(busy, name+" (missing)")
				continue
			}

			wlAccepted := model.ContainsWorkloadStatus(accepted, wl.Status)
			if len(wl.Units) == 0 && !wlAccepted {
				busy = append(busy, fmt.Sprintf("%s (status: %s)", name, wl.Status))
				continue
			}

			for _, u := range wl.Units {
				seen[u.Name] = true
				satisfied := u.AgentStatus == model.AgentStatusIdle &&
					model.ContainsWorkloadStatus(accepted, u.WorkloadStatus) &&
					wlAccepted
				if !satisfied {
					delete(becameIdleAt, u.Name)
					busy = append(busy, fmt.Sprintf("%s (agent: %s, workload: %s, %s status: %s)", u.Name, u.AgentStatus, u.WorkloadStatus, name, wl.Status))
					continue
				}

				since, ok := becameIdleAt[u.Name]
				if !ok {
					since = now
					becameIdleAt[u.Name] = now
				}
				if stableFor := now.Sub(since); stableFor < idlePeriod {
					busy = append(busy, fmt.Sprintf("%s (agent: %s, workload: %s, stable for %s of %s)", u.Name, u.AgentStatus, u.WorkloadStatus, stableFor, idlePeriod))
				}
			}
		}

		// Forget units that are not there anymore.
		for unit := range becameIdleAt {
			if !seen[unit] {
				delete(becameIdleAt, unit)
			}
		}

		return busy, nil
	})
}

// condition evaluates one tick of a wait and returns the entities that are still busy,
// no busy entities means the wait condition holds.
type condition func(ctx context.Context, now time.Time) (busy []string, err error)

// poll is the polling primitive all the waits are built on.
func (w *Waiter) poll(ctx context.Context, spec model.WaitSpec, what string, cond condition) error {
	interval := spec.PollInterval
	if interval == 0 {
		interval = w.pollInterval
	}

	logger := w.logger.WithCtxValues(ctx)
	start := w.clock.Now()
	deadline := start.Add(spec.Timeout)
	logger.Debugf("Waiting for %s (timeout: %s)", what, spec.Timeout)

	var lastBusy []string
	for tick := 1; ; tick++ {
		now := w.clock.Now()

		// A single tick can't block beyond the wait deadline, but it always has at least
		// one poll interval to complete.
		budget := deadline.Sub(now)
		if budget < interval {
			budget = interval
		}
		tickCtx, cancel := context.WithTimeout(ctx, budget)
		busy, err := cond(tickCtx, now)
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				return &TimeoutError{What: what, Timeout: spec.Timeout, Busy: lastBusy}
			}
			return err
		}

		if len(busy) == 0 {
			logger.Debugf("Finished waiting for %s after %s (%d ticks)", what, w.clock.Now().Sub(start), tick)
			return nil
		}
		lastBusy = busy
		logger.Debugf("Still waiting for %s: %s", what, strings.Join(busy, ", "))

		now = w.clock.Now()
		if !now.Before(deadline) {
			return &TimeoutError{What: what, Timeout: spec.Timeout, Busy: busy}
		}

		sleep := interval
		if remaining := deadline.Sub(now); remaining < sleep {
			sleep = remaining
		}
		if err := w.clock.Sleep(ctx, sleep); err != nil {
			return fmt.Errorf("wait for %s interrupted: %w", what, err)
		}
	}
}

func (w *Waiter) workloads(ctx context.Context, modelName string, names []string) (map[string]*model.Workload, error) {
	workloads, _, err := w.observe(ctx, modelName, names, nil)
	return workloads, err
}

func (w *Waiter) units(ctx context.Context, modelName string, names []string) (map[string]*model.Unit, error) {
	_, units, err := w.observe(ctx, modelName, nil, names)
	return units, err
}

// observe reads the workloads and units of a tick. When the client can read snapshots
// everything comes from a single read, otherwise every entity is read on its own.
func (w *Waiter) observe(ctx context.Context, modelName string, workloadNames, unitNames []string) (map[string]*model.Workload, map[string]*model.Unit, error) {
	sr, ok := w.client.(orchestrator.SnapshotReader)
	if !ok {
		workloads, err := fetchAll(ctx, workloadNames, func(ctx context.Context, name string) (*model.Workload, error) {
			return w.client.GetWorkload(ctx, modelName, name)
		})
		if err != nil {
			return nil, nil, err
		}
		units, err := fetchAll(ctx, unitNames, func(ctx context.Context, name string) (*model.Unit, error) {
			return w.client.GetUnit(ctx, modelName, name)
		})
		if err != nil {
			return nil, nil, err
		}
		return workloads, units, nil
	}

	names := append([]string(nil), workloadNames...)
	for _, name := range unitNames {
		names = append(names, model.UnitWorkload(name))
	}
	if len(names) == 0 {
		return map[string]*model.Workload{}, map[string]*model.Unit{}, nil
	}
	snapshot, err := sr.GetWorkloads(ctx, modelName, names)
	if err != nil {
		return nil, nil, fmt.Errorf("could not get status of %s: %w", strings.Join(names, ", "), err)
	}

	workloads := make(map[string]*model.Workload, len(workloadNames))
	for _, name := range workloadNames {
		if wl, ok := snapshot[name]; ok {
			workloads[name] = wl
		}
	}
	units := make(map[string]*model.Unit, len(unitNames))
	for _, name := range unitNames {
		wl, ok := snapshot[model.UnitWorkload(name)]
		if !ok {
			continue
		}
		if u, ok := wl.Unit(name); ok {
			units[name] = &u
		}
	}
	return workloads, units, nil
}

// fetchAll reads all the entities concurrently, it's used when the client can't read
// a snapshot of many workloads at once. Missing entities are not an error,
// they are left out of the result.
func fetchAll[T any](ctx context.Context, names []string, get func(ctx context.Context, name string) (*T, error)) (map[string]*T, error) {
	var mu sync.Mutex
	results := make(map[string]*T, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentReads)
	requested := map[string]bool{}
	for _, name := range names {
		if requested[name] {
			continue
		}
		requested[name] = true
		name := name

		g.Go(func() error {
			v, err := get(gctx, name)
			if err != nil {
				if errors.Is(err, model.ErrNotFound) {
					return nil
				}
				return fmt.Errorf("could not get status of %s: %w", name, err)
			}

			mu.Lock()
			results[name] = v
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

func unitReady(u model.Unit, acceptedAgent []model.AgentStatus, acceptedWl []model.WorkloadStatus) bool {
	return model.ContainsAgentStatus(acceptedAgent, u.AgentStatus) &&
		model.ContainsWorkloadStatus(acceptedWl, u.WorkloadStatus)
}

func unitState(u model.Unit) string {
	return fmt.Sprintf("%s (agent: %s, workload: %s)", u.Name, u.AgentStatus, u.WorkloadStatus)
}

func acceptedWorkload(s []model.WorkloadStatus) []model.WorkloadStatus {
	if len(s) == 0 {
		return []model.WorkloadStatus{model.WorkloadStatusActive}
	}
	return s
}

func acceptedAgent(s []model.AgentStatus) []model.AgentStatus {
	if len(s) == 0 {
		return []model.AgentStatus{model.AgentStatusIdle}
	}
	return s
}

func joinStatuses(s []model.WorkloadStatus) string {
	strs := make([]string, 0, len(s))
	for _, st := range s {
		strs = append(strs, string(st))
	}
	return strings.Join(strs, "|")
}

func describe(kind string, names []string) string {
	if len(names) == 1 {
		return fmt.Sprintf("%s %q", kind, names[0])
	}
	return fmt.Sprintf("%ss %s", kind, strings.Join(names, ", "))
}
