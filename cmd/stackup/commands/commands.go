package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/alecthomas/kingpin/v2"

	"github.com/wolsen/snap-openstack-sub000/internal/check"
	"github.com/wolsen/snap-openstack-sub000/internal/conventions"
	"github.com/wolsen/snap-openstack-sub000/internal/converge"
	"github.com/wolsen/snap-openstack-sub000/internal/log"
	"github.com/wolsen/snap-openstack-sub000/internal/orchestrator"
	"github.com/wolsen/snap-openstack-sub000/internal/orchestrator/fake"
	"github.com/wolsen/snap-openstack-sub000/internal/orchestrator/jujucli"
	"github.com/wolsen/snap-openstack-sub000/internal/plan"
	"github.com/wolsen/snap-openstack-sub000/internal/printer"
	"github.com/wolsen/snap-openstack-sub000/internal/ui"
)

const (
	// LoggerTypeDefault is the logger default type.
	LoggerTypeDefault = "default"
	// LoggerTypeJSON is the logger json type.
	LoggerTypeJSON = "json"

	// OrchestratorJuju drives the juju CLI.
	OrchestratorJuju = "juju"
	// OrchestratorFake uses an in-memory orchestrator, nothing is deployed.
	OrchestratorFake = "fake"
)

// Command represents an application command, all commands that want to be executed
// should implement and setup on main.
type Command interface {
	Name() string
	Run(ctx context.Context) error
}

// RootCommand represents the root command configuration and global configuration
// for all the commands.
type RootCommand struct {
	// Global flags.
	Debug          bool
	NoLog          bool
	NoColor        bool
	LoggerType     string
	Orchestrator   string
	JujuBinary     string
	Model          string
	DataDir        string
	AcceptDefaults bool

	// Global instances.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger log.Logger
}

// NewRootCommand initializes the main root configuration.
func NewRootCommand(app *kingpin.Application) *RootCommand {
	c := &RootCommand{}

	app.Flag("debug", "Enable debug mode.").BoolVar(&c.Debug)
	app.Flag("no-log", "Disable logger.").BoolVar(&c.NoLog)
	app.Flag("no-color", "Disable logger and UI color.").BoolVar(&c.NoColor)
	app.Flag("logger", "Selects the logger type.").Default(LoggerTypeDefault).EnumVar(&c.LoggerType, LoggerTypeDefault, LoggerTypeJSON)
	app.Flag("orchestrator", "Orchestrator backend.").Default(OrchestratorJuju).EnumVar(&c.Orchestrator, OrchestratorJuju, OrchestratorFake)
	app.Flag("juju-bin", "Path or name of the juju binary.").Default(conventions.DefaultOrchestratorBinary).StringVar(&c.JujuBinary)
	app.Flag("model", "Orchestrator model to work on.").Short('m').Default(conventions.DefaultModel).StringVar(&c.Model)
	app.Flag("data-dir", "Directory with the stackup data (default manifest...).").Default(conventions.DataDir()).StringVar(&c.DataDir)
	app.Flag("accept-defaults", "Accept the default value of every prompt.").BoolVar(&c.AcceptDefaults)

	return c
}

// OrchestratorClient returns the configured orchestrator client.
func (c *RootCommand) OrchestratorClient() (orchestrator.Client, error) {
	switch c.Orchestrator {
	case OrchestratorFake:
		o, err := fake.NewOrchestrator(fake.OrchestratorConfig{Logger: c.Logger})
		if err != nil {
			return nil, fmt.Errorf("could not create fake orchestrator: %w", err)
		}
		return o, nil
	default:
		cli, err := jujucli.NewClient(jujucli.ClientConfig{Binary: c.JujuBinary, Logger: c.Logger})
		if err != nil {
			return nil, fmt.Errorf("could not create juju client: %w", err)
		}
		return cli, nil
	}
}

// Waiter returns a convergence waiter over the client.
func (c *RootCommand) Waiter(client orchestrator.StatusReader) (*converge.Waiter, error) {
	w, err := converge.NewWaiter(converge.WaiterConfig{Client: client, Logger: c.Logger})
	if err != nil {
		return nil, fmt.Errorf("could not create waiter: %w", err)
	}
	return w, nil
}

// Console returns the terminal UI, status and prompts go to stderr.
func (c *RootCommand) Console() (*ui.Console, error) {
	console, err := ui.NewConsole(ui.ConsoleConfig{
		In:             c.Stdin,
		Out:            c.Stderr,
		AcceptDefaults: c.AcceptDefaults,
		NoColor:        c.NoColor,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create console: %w", err)
	}
	return console, nil
}

// PlanRunner returns a plan runner that reports on the terminal.
func (c *RootCommand) PlanRunner() (*plan.Runner, error) {
	console, err := c.Console()
	if err != nil {
		return nil, err
	}

	r, err := plan.NewRunner(plan.RunnerConfig{UI: console, Logger: c.Logger})
	if err != nil {
		return nil, fmt.Errorf("could not create plan runner: %w", err)
	}
	return r, nil
}

// Checks returns the environment preflight checks.
func (c *RootCommand) Checks() []check.Check {
	if c.Orchestrator == OrchestratorFake {
		return nil
	}
	return []check.Check{check.BinaryCheck{Binary: c.JujuBinary}}
}

// Printer returns the printer for the output format.
func (c *RootCommand) Printer(format string) printer.Printer {
	if format == "json" {
		return printer.NewJSONPrinter(c.Stdout)
	}
	return printer.NewTablePrinter(c.Stdout)
}
