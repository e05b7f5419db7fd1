package jujucli

import (
	"context"
	"time"

	"github.com/wolsen/snap-openstack-sub000/internal/model"
	"github.com/wolsen/snap-openstack-sub000/internal/orchestrator"
)

// WaitForIdle blocks until all the units of the applications are active with idle agents.
//
// Units, agents and machines in error end the wait with the native error types, missing
// applications keep waiting.
func (c *Client) WaitForIdle(ctx context.Context, modelName string, workloads []string, timeout time.Duration) error {
	deadline := c.clock.Now().Add(timeout)
	for {
		doc, err := c.status(ctx, modelName)
		if err != nil {
			return err
		}

		done, err := idle(doc, workloads)
		if err != nil || done {
			return err
		}

		if !c.clock.Now().Before(deadline) {
			return orchestrator.ErrIdleTimeout
		}
		if err := c.clock.Sleep(ctx, c.pollInterval); err != nil {
			return err
		}
	}
}

func idle(doc *statusDoc, workloads []string) (bool, error) {
	done := true
	for _, name := range workloads {
		w, ok := doc.workload(name)
		if !ok || len(w.Units) == 0 {
			done = false
			continue
		}

		for _, u := range w.Units {
			if m, ok := doc.Machines[u.Machine]; ok && m.JujuStatus.Current == "error" {
				return false, &orchestrator.MachineError{Machine: u.Machine, Message: m.JujuStatus.Message}
			}
			switch {
			case u.AgentStatus == model.AgentStatusError:
				return false, &orchestrator.AgentError{Unit: u.Name, Message: u.Message}
			case u.WorkloadStatus == model.WorkloadStatusError:
				return false, &orchestrator.UnitError{Unit: u.Name, Message: u.Message}
			case u.AgentStatus != model.AgentStatusIdle || u.WorkloadStatus != model.WorkloadStatusActive:
				done = false
			}
		}
	}
	return done, nil
}
