package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/wolsen/snap-openstack-sub000/internal/app/status"
)

type StatusCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	workloads []string
	format    string
}

// NewStatusCommand returns the status command.
func NewStatusCommand(rootCmd *RootCommand, app *kingpin.Application) *StatusCommand {
	c := &StatusCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("status", "Get the status of the model workloads and units.")
	c.Cmd.Arg("workloads", "Workloads to show (all by default).").StringsVar(&c.workloads)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c StatusCommand) Name() string { return c.Cmd.FullCommand() }

func (c StatusCommand) Run(ctx context.Context) error {
	client, err := c.rootCmd.OrchestratorClient()
	if err != nil {
		return err
	}

	svc, err := status.NewService(status.ServiceConfig{
		Client: client,
		Logger: c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	workloads, err := svc.Run(ctx, status.Request{
		Model:     c.rootCmd.Model,
		Workloads: c.workloads,
	})
	if err != nil {
		return fmt.Errorf("could not get model status: %w", err)
	}

	if err := c.rootCmd.Printer(c.format).PrintWorkloads(workloads); err != nil {
		return fmt.Errorf("could not print status: %w", err)
	}

	return nil
}
