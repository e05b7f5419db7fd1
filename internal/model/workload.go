package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// AgentStatus is the health of the management agent colocated with a unit.
type AgentStatus string

const (
	AgentStatusIdle       AgentStatus = "idle"
	AgentStatusExecuting  AgentStatus = "executing"
	AgentStatusAllocating AgentStatus = "allocating"
	AgentStatusError      AgentStatus = "error"
	AgentStatusLost       AgentStatus = "lost"
)

// WorkloadStatus is the application level health reported by a unit, or aggregated for a workload.
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

// Unit is one running instance of a workload placed on a machine.
// Units are mirrored read-only from the orchestrator on every read.
type Unit struct {
	Name           string // <workload>/<n>.
	Workload       string
	AgentStatus    AgentStatus
	WorkloadStatus WorkloadStatus
	Message        string
	Machine        string
	Leader         bool
	Since          time.Time
}

// Workload is a remotely managed service composed of units.
type Workload struct {
	Name    string
	Charm   string
	Channel string
	Status  WorkloadStatus // Aggregated status.
	Message string
	Config  map[string]string
	Units   []Unit // Sorted by name.
}

// Unit returns the workload unit by name.
func (w Workload) Unit(name string) (Unit, bool) {
	for _, u := range w.Units {
		if u.Name == name {
			return u, true
		}
	}
	return Unit{}, false
}

// MachineUnits returns the units indexed by the machine they are placed on.
func (w Workload) MachineUnits() map[string]Unit {
	units := make(map[string]Unit, len(w.Units))
	for _, u := range w.Units {
		if u.Machine == "" {
			continue
		}
		units[u.Machine] = u
	}
	return units
}

// SortUnits sorts units by workload and unit number so snapshots are stable.
func SortUnits(units []Unit) {
	sort.SliceStable(units, func(i, j int) bool {
		wi, ni := splitUnitName(units[i].Name)
		wj, nj := splitUnitName(units[j].Name)
		if wi != wj {
			return wi < wj
		}
		return ni < nj
	})
}

// ValidateUnitName checks a unit name has the <workload>/<n> format.
func ValidateUnitName(name string) error {
	workload, n, ok := strings.Cut(name, "/")
	if !ok || workload == "" || strings.Contains(n, "/") {
		return fmt.Errorf("unit name %q should have the <workload>/<number> format: %w", name, ErrNotValid)
	}
	if _, err := strconv.Atoi(n); err != nil {
		return fmt.Errorf("unit name %q has an invalid unit number: %w", name, ErrNotValid)
	}
	return nil
}

// IsUnitName returns true if the entity name refers to a unit instead of a workload.
func IsUnitName(name string) bool { return strings.Contains(name, "/") }

// UnitWorkload returns the workload name part of a unit name.
func UnitWorkload(unitName string) string {
	workload, _, _ := strings.Cut(unitName, "/")
	return workload
}

func splitUnitName(name string) (string, int) {
	workload, n, _ := strings.Cut(name, "/")
	i, err := strconv.Atoi(n)
	if err != nil {
		return workload, -1
	}
	return workload, i
}

// ContainsWorkloadStatus returns true if s is one of the accepted statuses.
func ContainsWorkloadStatus(accepted []WorkloadStatus, s WorkloadStatus) bool {
	for _, a := range accepted {
		if a == s {
			return true
		}
	}
	return false
}

// ContainsAgentStatus returns true if s is one of the accepted statuses.
func ContainsAgentStatus(accepted []AgentStatus, s AgentStatus) bool {
	for _, a := range accepted {
		if a == s {
			return true
		}
	}
	return false
}
