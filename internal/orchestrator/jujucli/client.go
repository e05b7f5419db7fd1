package jujucli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wolsen/snap-openstack-sub000/internal/clock"
	"github.com/wolsen/snap-openstack-sub000/internal/log"
	"github.com/wolsen/snap-openstack-sub000/internal/model"
	"github.com/wolsen/snap-openstack-sub000/internal/orchestrator"
)

var (
	_ orchestrator.Client         = (*Client)(nil)
	_ orchestrator.IdleWaiter     = (*Client)(nil)
	_ orchestrator.SnapshotReader = (*Client)(nil)
)

// CommandRunner runs a command and returns its standard output.
type CommandRunner interface {
	Run(ctx context.Context, bin string, args ...string) ([]byte, error)
}

// CommandRunnerFunc is a helper to use functions as command runners.
type CommandRunnerFunc func(ctx context.Context, bin string, args ...string) ([]byte, error)

func (f CommandRunnerFunc) Run(ctx context.Context, bin string, args ...string) ([]byte, error) {
	return f(ctx, bin, args...)
}

// ExecRunner runs commands on the host.
var ExecRunner CommandRunner = CommandRunnerFunc(func(ctx context.Context, bin string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
})

// ClientConfig is the configuration for the juju CLI client.
type ClientConfig struct {
	// Binary is the juju binary name or path (default juju).
	Binary string
	Runner CommandRunner
	Clock  clock.Clock
	// PollInterval is used by the idle wait.
	PollInterval time.Duration
	Logger       log.Logger
}

func (c *ClientConfig) defaults() error {
	if c.Binary == "" {
		c.Binary = "juju"
	}

	if c.Runner == nil {
		c.Runner = ExecRunner
	}

	if c.Clock == nil {
		c.Clock = clock.Real
	}

	if c.PollInterval == 0 {
		c.PollInterval = 500 * time.Millisecond
	}
	if c.PollInterval < 0 {
		return fmt.Errorf("poll interval can't be negative")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "orchestrator.JujuCLI"})

	return nil
}

// Client is an orchestrator client that drives the juju CLI.
//
// The status is read with `juju status --format=yaml` and parsed once into the model,
// nothing else in the app knows about the juju payloads.
type Client struct {
	bin          string
	runner       CommandRunner
	clock        clock.Clock
	pollInterval time.Duration
	logger       log.Logger
}

// NewClient returns a new juju CLI client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Client{
		bin:          cfg.Binary,
		runner:       cfg.Runner,
		clock:        cfg.Clock,
		pollInterval: cfg.PollInterval,
		logger:       cfg.Logger,
	}, nil
}

// GetWorkload returns the status of an application.
func (c *Client) GetWorkload(ctx context.Context, modelName, name string) (*model.Workload, error) {
	doc, err := c.status(ctx, modelName)
	if err != nil {
		return nil, err
	}

	w, ok := doc.workload(name)
	if !ok {
		return nil, fmt.Errorf("application %s in model %s: %w", name, modelName, model.ErrNotFound)
	}
	return w, nil
}

// GetWorkloads returns the status of the requested applications from a single
// status read, missing ones are left out.
func (c *Client) GetWorkloads(ctx context.Context, modelName string, names []string) (map[string]*model.Workload, error) {
	doc, err := c.status(ctx, modelName)
	if err != nil {
		return nil, err
	}

	workloads := make(map[string]*model.Workload, len(names))
	for _, name := range names {
		if w, ok := doc.workload(name); ok {
			workloads[name] = w
		}
	}
	return workloads, nil
}

// GetUnit returns the status of a unit.
func (c *Client) GetUnit(ctx context.Context, modelName, unitName string) (*model.Unit, error) {
	if err := model.ValidateUnitName(unitName); err != nil {
		return nil, err
	}

	w, err := c.GetWorkload(ctx, modelName, model.UnitWorkload(unitName))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("unit %s in model %s: %w", unitName, modelName, model.ErrNotFound)
		}
		return nil, err
	}

	u, ok := w.Unit(unitName)
	if !ok {
		return nil, fmt.Errorf("unit %s in model %s: %w", unitName, modelName, model.ErrNotFound)
	}
	return &u, nil
}

// ListWorkloads returns the sorted application names of a model.
func (c *Client) ListWorkloads(ctx context.Context, modelName string) ([]string, error) {
	doc, err := c.status(ctx, modelName)
	if err != nil {
		return nil, err
	}
	return doc.workloadNames(), nil
}

// GetConfig returns the config values of an application.
func (c *Client) GetConfig(ctx context.Context, modelName, workload string) (map[string]string, error) {
	if _, err := c.GetWorkload(ctx, modelName, workload); err != nil {
		return nil, err
	}

	out, err := c.run(ctx, "config", "-m", modelName, workload, "--format=yaml")
	if err != nil {
		return nil, fmt.Errorf("could not get config of %s: %w: %w", workload, err, model.ErrUnavailable)
	}

	config, err := parseConfig(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", err, model.ErrUnavailable)
	}
	return config, nil
}

// Deploy deploys a charm as a new application.
func (c *Client) Deploy(ctx context.Context, modelName string, req orchestrator.DeployRequest) error {
	if req.Name == "" || req.Charm == "" {
		return fmt.Errorf("name and charm are required: %w", model.ErrNotValid)
	}

	args := []string{"deploy", "-m", modelName, req.Charm, req.Name}
	if req.Channel != "" {
		args = append(args, "--channel", req.Channel)
	}
	if len(req.Machines) > 0 {
		args = append(args, "-n", strconv.Itoa(len(req.Machines)), "--to", strings.Join(req.Machines, ","))
	}
	for _, kv := range sortedKV(req.Config) {
		args = append(args, "--config", kv)
	}

	if _, err := c.run(ctx, args...); err != nil {
		return fmt.Errorf("could not deploy %s: %w", req.Name, err)
	}

	c.logger.Infof("Deployed application %s (charm: %s, channel: %s)", req.Name, req.Charm, req.Channel)
	return nil
}

// AddUnit adds a unit to the application and returns its name.
func (c *Client) AddUnit(ctx context.Context, modelName, workload, machine string) (string, error) {
	before, err := c.GetWorkload(ctx, modelName, workload)
	if err != nil {
		return "", err
	}

	args := []string{"add-unit", "-m", modelName, workload}
	if machine != "" {
		args = append(args, "--to", machine)
	}
	if _, err := c.run(ctx, args...); err != nil {
		return "", fmt.Errorf("could not add unit to %s: %w", workload, err)
	}

	after, err := c.GetWorkload(ctx, modelName, workload)
	if err != nil {
		return "", err
	}

	existing := map[string]bool{}
	for _, u := range before.Units {
		existing[u.Name] = true
	}
	for _, u := range after.Units {
		if !existing[u.Name] && (machine == "" || u.Machine == machine) {
			c.logger.Infof("Added unit %s (machine: %s)", u.Name, u.Machine)
			return u.Name, nil
		}
	}

	return "", fmt.Errorf("unit added to %s is not in the status yet: %w", workload, model.ErrUnavailable)
}

// RemoveUnit removes a unit.
func (c *Client) RemoveUnit(ctx context.Context, modelName, unitName string) error {
	if err := model.ValidateUnitName(unitName); err != nil {
		return err
	}

	if _, err := c.run(ctx, "remove-unit", "-m", modelName, unitName, "--no-prompt"); err != nil {
		return fmt.Errorf("could not remove unit %s: %w", unitName, err)
	}
	return nil
}

// RemoveWorkload removes an application.
func (c *Client) RemoveWorkload(ctx context.Context, modelName, name string) error {
	if _, err := c.run(ctx, "remove-application", "-m", modelName, name, "--no-prompt"); err != nil {
		return fmt.Errorf("could not remove application %s: %w", name, err)
	}
	return nil
}

// Refresh moves an application to a new channel.
func (c *Client) Refresh(ctx context.Context, modelName, workload, channel string) error {
	if _, err := c.run(ctx, "refresh", "-m", modelName, workload, "--channel", channel); err != nil {
		return fmt.Errorf("could not refresh %s: %w", workload, err)
	}

	c.logger.Infof("Refreshed application %s (channel: %s)", workload, channel)
	return nil
}

// SetConfig sets the config values of an application.
func (c *Client) SetConfig(ctx context.Context, modelName, workload string, config map[string]string) error {
	if len(config) == 0 {
		return nil
	}

	args := append([]string{"config", "-m", modelName, workload}, sortedKV(config)...)
	if _, err := c.run(ctx, args...); err != nil {
		return fmt.Errorf("could not set config of %s: %w", workload, err)
	}
	return nil
}

func (c *Client) status(ctx context.Context, modelName string) (*statusDoc, error) {
	out, err := c.run(ctx, "status", "-m", modelName, "--format=yaml")
	if err != nil {
		return nil, fmt.Errorf("could not get status of model %s: %w: %w", modelName, err, model.ErrUnavailable)
	}

	doc, err := parseStatus(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", err, model.ErrUnavailable)
	}
	return doc, nil
}

func (c *Client) run(ctx context.Context, args ...string) ([]byte, error) {
	c.logger.Debugf("Running: %s %s", c.bin, strings.Join(args, " "))
	return c.runner.Run(ctx, c.bin, args...)
}

func sortedKV(m map[string]string) []string {
	kvs := make([]string, 0, len(m))
	for k, v := range m {
		kvs = append(kvs, k+"="+v)
	}
	sort.Strings(kvs)
	return kvs
}
