package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/wolsen/snap-openstack-sub000/internal/app/destroy"
)

type DestroyCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	workloads []string
	units     []string
	timeout   time.Duration
	yes       bool
	format    string
}

// NewDestroyCommand returns the destroy command.
func NewDestroyCommand(rootCmd *RootCommand, app *kingpin.Application) *DestroyCommand {
	c := &DestroyCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("destroy", "Remove units by machine and whole workloads.")
	c.Cmd.Flag("workload", "Workload to remove with all its units. Repeatable.").Short('w').StringsVar(&c.workloads)
	c.Cmd.Flag("unit-machine", "Remove the unit of a workload on a machine (<workload>=<machine>). Repeatable.").StringsVar(&c.units)
	c.Cmd.Flag("timeout", "Timeout of every removal wait.").Default("10m").DurationVar(&c.timeout)
	c.Cmd.Flag("yes", "Don't ask for confirmation.").Short('y').BoolVar(&c.yes)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c DestroyCommand) Name() string { return c.Cmd.FullCommand() }

func (c DestroyCommand) Run(ctx context.Context) error {
	units, err := parseUnitPlacements(c.units)
	if err != nil {
		return err
	}

	if !c.yes {
		ok, err := c.confirm(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return c.rootCmd.Printer(c.format).PrintMessage("Nothing destroyed")
		}
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

	svc, err := destroy.NewService(destroy.ServiceConfig{
		Client: client,
		Waiter: waiter,
		Runner: runner,
		Logger: c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	results, err := svc.Run(ctx, destroy.Request{
		Model:     c.rootCmd.Model,
		Units:     units,
		Workloads: c.workloads,
		Timeout:   c.timeout,
	})
	if err != nil {
		return err
	}

	return c.rootCmd.Printer(c.format).PrintResults(results)
}

func (c DestroyCommand) confirm(ctx context.Context) (bool, error) {
	console, err := c.rootCmd.Console()
	if err != nil {
		return false, err
	}

	var targets []string
	targets = append(targets, c.workloads...)
	targets = append(targets, c.units...)
	q := fmt.Sprintf("Destroy %s in model %s?", strings.Join(targets, ", "), c.rootCmd.Model)
	return console.Confirm(ctx, q, false)
}

// parseUnitPlacements parses <workload>=<machine> specs.
func parseUnitPlacements(specs []string) ([]destroy.UnitPlacement, error) {
	res := make([]destroy.UnitPlacement, 0, len(specs))
	for _, spec := range specs {
		workload, machine, ok := strings.Cut(spec, "=")
		if !ok || workload == "" || machine == "" {
			return nil, fmt.Errorf("invalid unit spec %q, expected <workload>=<machine>", spec)
		}
		res = append(res, destroy.UnitPlacement{Workload: workload, Machine: machine})
	}
	return res, nil
}
