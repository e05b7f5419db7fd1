package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/wolsen/snap-openstack-sub000/internal/app/wait"
	"github.com/wolsen/snap-openstack-sub000/internal/model"
)

type WaitCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	mode          string
	entities      []string
	timeout       time.Duration
	statuses      []string
	agentStatuses []string
	idlePeriod    time.Duration
}

// NewWaitCommand returns the wait command.
func NewWaitCommand(rootCmd *RootCommand, app *kingpin.Application) *WaitCommand {
	c := &WaitCommand{rootCmd: rootCmd}

	modes := make([]string, 0, len(wait.Modes))
	for _, m := range wait.Modes {
		modes = append(modes, string(m))
	}

	c.Cmd = app.Command("wait", "Wait until workloads or units converge.")
	c.Cmd.Arg("mode", "Wait mode.").Required().EnumVar(&c.mode, modes...)
	c.Cmd.Arg("entities", "Workload or unit (<workload>/<n>) names.").Required().StringsVar(&c.entities)
	c.Cmd.Flag("timeout", "Maximum time to wait.").Default("10m").DurationVar(&c.timeout)
	c.Cmd.Flag("status", "Accepted workload status. Repeatable.").StringsVar(&c.statuses)
	c.Cmd.Flag("agent-status", "Accepted agent status (unit mode). Repeatable.").StringsVar(&c.agentStatuses)
	c.Cmd.Flag("idle-period", "Time the units need to stay settled (desired mode).").Default("15s").DurationVar(&c.idlePeriod)

	return c
}

func (c WaitCommand) Name() string { return c.Cmd.FullCommand() }

func (c WaitCommand) Run(ctx context.Context) error {
	client, err := c.rootCmd.OrchestratorClient()
	if err != nil {
		return err
	}
	waiter, err := c.rootCmd.Waiter(client)
	if err != nil {
		return err
	}

	svc, err := wait.NewService(wait.ServiceConfig{
		Waiter: waiter,
		Logger: c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	statuses := make([]model.WorkloadStatus, 0, len(c.statuses))
	for _, s := range c.statuses {
		statuses = append(statuses, model.WorkloadStatus(s))
	}
	agentStatuses := make([]model.AgentStatus, 0, len(c.agentStatuses))
	for _, s := range c.agentStatuses {
		agentStatuses = append(agentStatuses, model.AgentStatus(s))
	}

	err = svc.Run(ctx, wait.Request{
		Mode:          wait.Mode(c.mode),
		Model:         c.rootCmd.Model,
		Entities:      c.entities,
		Statuses:      statuses,
		AgentStatuses: agentStatuses,
		Timeout:       c.timeout,
		IdlePeriod:    c.idlePeriod,
	})
	if err != nil {
		return err
	}

	return c.rootCmd.Printer("table").PrintMessage("Done")
}
