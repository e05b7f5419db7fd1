package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/wolsen/snap-openstack-sub000/internal/app/deploy"
)

type DeployCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	manifest   manifestFlags
	skipChecks bool
	idlePeriod time.Duration
	format     string
}

// NewDeployCommand returns the deploy command.
func NewDeployCommand(rootCmd *RootCommand, app *kingpin.Application) *DeployCommand {
	c := &DeployCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("deploy", "Converge the model to the manifest workloads.")
	c.manifest.register(c.Cmd)
	c.Cmd.Flag("skip-checks", "Skip the preflight checks.").BoolVar(&c.skipChecks)
	c.Cmd.Flag("idle-period", "Time the reconfigured units need to stay settled.").Default("15s").DurationVar(&c.idlePeriod)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c DeployCommand) Name() string { return c.Cmd.FullCommand() }

func (c DeployCommand) Run(ctx context.Context) error {
	manifest, err := c.manifest.load(ctx, c.rootCmd)
	if err != nil {
		return err
	}

	client, err := c.rootCmd.OrchestratorClient()
	if err != nil {
		return err
	}
	waiter, err := c.rootCmd.Waiter(client)
	if err != nil {
		return err
	}
	runner, err := c.rootCmd.PlanRunner()
	if err != nil {
		return err
	}

	svc, err := deploy.NewService(deploy.ServiceConfig{
		Client: client,
		Waiter: waiter,
		Runner: runner,
		Checks: c.rootCmd.Checks(),
		Logger: c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	resp, err := svc.Run(ctx, deploy.Request{Manifest: manifest, SkipChecks: c.skipChecks, IdlePeriod: c.idlePeriod})
	p := c.rootCmd.Printer(c.format)
	if len(resp.Checks) > 0 && (err != nil || c.rootCmd.Debug) {
		if perr := p.PrintChecks(resp.Checks); perr != nil {
			return fmt.Errorf("could not print checks: %w", perr)
		}
	}
	if err != nil {
		return err
	}

	if err := p.PrintResults(resp.Results); err != nil {
		return fmt.Errorf("could not print results: %w", err)
	}

	return nil
}
