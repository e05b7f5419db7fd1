package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"

	"github.com/wolsen/snap-openstack-sub000/internal/app/doctor"
	"github.com/wolsen/snap-openstack-sub000/internal/check"
	"github.com/wolsen/snap-openstack-sub000/internal/conventions"
)

type DoctorCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	manifest manifestFlags
	format   string
}

// NewDoctorCommand returns the doctor command.
func NewDoctorCommand(rootCmd *RootCommand, app *kingpin.Application) *DoctorCommand {
	c := &DoctorCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("doctor", "Run the deployment preflight checks.")
	c.manifest.register(c.Cmd)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c DoctorCommand) Name() string { return c.Cmd.FullCommand() }

func (c DoctorCommand) Run(ctx context.Context) error {
	client, err := c.rootCmd.OrchestratorClient()
	if err != nil {
		return err
	}

	checks := c.rootCmd.Checks()
	checks = append(checks, check.ModelCheck{Client: client, Model: c.rootCmd.Model})

	// The manifest is optional unless explicitly set.
	manifest, err := c.manifest.load(ctx, c.rootCmd)
	switch {
	case err == nil:
		checks = append(checks, check.ManifestCheck{Manifest: manifest})
	case c.manifest.path == "" && errors.Is(err, os.ErrNotExist):
		c.rootCmd.Logger.Debugf("No manifest at %s, skipping manifest check", conventions.ManifestPath(c.rootCmd.DataDir))
	default:
		return err
	}

	svc, err := doctor.NewService(doctor.ServiceConfig{
		Checks: checks,
		Logger: c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	resp, err := svc.Run(ctx)
	if err != nil {
		return err
	}

	if err := c.rootCmd.Printer(c.format).PrintChecks(resp.Results); err != nil {
		return fmt.Errorf("could not print checks: %w", err)
	}

	if resp.Errors > 0 {
		return fmt.Errorf("preflight checks failed with %d error(s)", resp.Errors)
	}

	return nil
}
