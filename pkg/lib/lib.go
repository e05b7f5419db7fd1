package lib

import (
	"fmt"
	"time"

	"github.com/wolsen/snap-openstack-sub000/internal/conventions"
	"github.com/wolsen/snap-openstack-sub000/internal/converge"
	"github.com/wolsen/snap-openstack-sub000/internal/log"
	"github.com/wolsen/snap-openstack-sub000/internal/orchestrator"
	"github.com/wolsen/snap-openstack-sub000/internal/orchestrator/fake"
	"github.com/wolsen/snap-openstack-sub000/internal/orchestrator/jujucli"
	"github.com/wolsen/snap-openstack-sub000/internal/plan"
)

// Config configures the SDK client.
//
// All fields are optional. An empty Config{} drives the juju binary found in PATH
// and works on the "openstack" model.
type Config struct {
	// Orchestrator selects the orchestrator backend.
	// Default: [OrchestratorJuju].
	Orchestrator OrchestratorType

	// JujuBinary is the path or name of the juju binary.
	// Only used when Orchestrator is [OrchestratorJuju].
	// Default: "juju".
	JujuBinary string

	// Model is the orchestrator model used when a call doesn't set one.
	// Default: "openstack".
	Model string

	// PollInterval is the sleep between two status reads while waiting.
	// Default: 500ms.
	PollInterval time.Duration

	// Logger receives structured log output from the SDK.
	// Default: noop (silent). See the log sub-package for the interface.
	Logger log.Logger
}

func (c *Config) defaults() error {
	if c.Orchestrator == "" {
		c.Orchestrator = OrchestratorJuju
	}

	if c.Orchestrator != OrchestratorJuju && c.Orchestrator != OrchestratorFake {
		return fmt.Errorf("unsupported orchestrator type: %s: %w", c.Orchestrator, ErrNotValid)
	}

	if c.JujuBinary == "" {
		c.JujuBinary = conventions.DefaultOrchestratorBinary
	}

	if c.Model == "" {
		c.Model = conventions.DefaultModel
	}

	if c.PollInterval < 0 {
		return fmt.Errorf("poll interval can't be negative: %w", ErrNotValid)
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// Client is the main SDK entry point to converge models programmatically.
//
// Create a Client with [New]. A Client is safe for concurrent use, although
// running two plans on the same model at once gives undefined results.
type Client struct {
	orchestrator     orchestrator.Client
	waiter           *converge.Waiter
	runner           *plan.Runner
	model            string
	orchestratorType OrchestratorType
	jujuBinary       string
	logger           log.Logger
}

// New creates a new SDK client.
//
//	client, err := lib.New(lib.Config{Model: "openstack"})
//	if err != nil {
//	    return err
//	}
func New(cfg Config) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var (
		oc  orchestrator.Client
		err error
	)
	switch cfg.Orchestrator {
	case OrchestratorFake:
		oc, err = fake.NewOrchestrator(fake.OrchestratorConfig{PollInterval: cfg.PollInterval, Logger: cfg.Logger})
	default:
		oc, err = jujucli.NewClient(jujucli.ClientConfig{Binary: cfg.JujuBinary, PollInterval: cfg.PollInterval, Logger: cfg.Logger})
	}
	if err != nil {
		return nil, fmt.Errorf("could not create orchestrator client: %w", err)
	}

	waiter, err := converge.NewWaiter(converge.WaiterConfig{
		Client:       oc,
		PollInterval: cfg.PollInterval,
		Logger:       cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create waiter: %w", err)
	}

	runner, err := plan.NewRunner(plan.RunnerConfig{Logger: cfg.Logger})
	if err != nil {
		return nil, fmt.Errorf("could not create plan runner: %w", err)
	}

	return &Client{
		orchestrator:     oc,
		waiter:           waiter,
		runner:           runner,
		model:            cfg.Model,
		orchestratorType: cfg.Orchestrator,
		jujuBinary:       cfg.JujuBinary,
		logger:           cfg.Logger,
	}, nil
}

func (c *Client) modelOr(name string) string {
	if name == "" {
		return c.model
	}
	return name
}
