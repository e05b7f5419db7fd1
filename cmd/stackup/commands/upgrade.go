package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/wolsen/snap-openstack-sub000/internal/app/upgrade"
)

type UpgradeCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	manifest   manifestFlags
	idlePeriod time.Duration
	format     string
}

// NewUpgradeCommand returns the upgrade command.
func NewUpgradeCommand(rootCmd *RootCommand, app *kingpin.Application) *UpgradeCommand {
	c := &UpgradeCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("upgrade", "Refresh the deployed workloads to the manifest channels.")
	c.manifest.register(c.Cmd)
	c.Cmd.Flag("idle-period", "Time the refreshed units need to stay settled.").Default("15s").DurationVar(&c.idlePeriod)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c UpgradeCommand) Name() string { return c.Cmd.FullCommand() }

func (c UpgradeCommand) Run(ctx context.Context) error {
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

	svc, err := upgrade.NewService(upgrade.ServiceConfig{
		Client: client,
		Waiter: waiter,
		Runner: runner,
		Logger: c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	resp, err := svc.Run(ctx, upgrade.Request{Manifest: manifest, IdlePeriod: c.idlePeriod})
	if err != nil {
		return err
	}

	p := c.rootCmd.Printer(c.format)
	if len(resp.Upgraded) == 0 {
		return p.PrintMessage("All workloads are on their target channel")
	}
	if err := p.PrintResults(resp.Results); err != nil {
		return fmt.Errorf("could not print results: %w", err)
	}
	c.rootCmd.Logger.Infof("Upgraded workloads: %s", strings.Join(resp.Upgraded, ", "))

	return nil
}
