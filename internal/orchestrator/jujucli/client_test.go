package jujucli_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clockfake "github.com/wolsen/snap-openstack-sub000/internal/clock/fake"
	"github.com/wolsen/snap-openstack-sub000/internal/log"
	"github.com/wolsen/snap-openstack-sub000/internal/model"
	"github.com/wolsen/snap-openstack-sub000/internal/orchestrator"
	"github.com/wolsen/snap-openstack-sub000/internal/orchestrator/jujucli"
)

const statusActive = `
model:
  name: openstack
machines:
  "0":
    juju-status:
      current: started
  "1":
    juju-status:
      current: started
applications:
  keystone:
    charm: keystone
    charm-name: keystone
    charm-channel: 2024.1/stable
    application-status:
      current: active
    units:
      keystone/1:
        workload-status:
          current: active
          since: 30 Jan 2026 10:00:00Z
        juju-status:
          current: idle
        machine: "1"
      keystone/0:
        workload-status:
          current: active
          message: Ready
          since: 30 Jan 2026 10:00:00Z
        juju-status:
          current: idle
        leader: true
        machine: "0"
  glance:
    charm: glance
    charm-channel: 2024.1/stable
    application-status:
      current: waiting
      message: waiting for database
    units:
      glance/0:
        workload-status:
          current: waiting
          message: waiting for database
        juju-status:
          current: executing
        machine: "0"
`

// fakeRunner returns canned outputs by command (first argument) and records the calls.
type fakeRunner struct {
	mu      sync.Mutex
	outputs map[string][]string
	errs    map[string]error
	calls   []string
}

func (f *fakeRunner) Run(ctx context.Context, bin string, args ...string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, bin+" "+strings.Join(args, " "))
	cmd := args[0]
	if err := f.errs[cmd]; err != nil {
		return nil, err
	}

	outs := f.outputs[cmd]
	if len(outs) == 0 {
		return nil, nil
	}
	out := outs[0]
	if len(outs) > 1 {
		f.outputs[cmd] = outs[1:]
	}
	return []byte(out), nil
}

func newClient(t *testing.T, r *fakeRunner) *jujucli.Client {
	c, err := jujucli.NewClient(jujucli.ClientConfig{
		Runner: r,
		Clock:  clockfake.NewClock(time.Date(2026, 1, 30, 10, 0, 0, 0, time.UTC)),
		Logger: log.Noop,
	})
	require.NoError(t, err)
	return c
}

func TestClientGetWorkload(t *testing.T) {
	tests := map[string]struct {
		runner      *fakeRunner
		name        string
		expWorkload *model.Workload
		expErrIs    error
	}{
		"an existing application should be mapped": {
			runner: &fakeRunner{outputs: map[string][]string{"status": {statusActive}}},
			name:   "keystone",
			expWorkload: &model.Workload{
				Name:    "keystone",
				Charm:   "keystone",
				Channel: "2024.1/stable",
				Status:  model.WorkloadStatusActive,
				Units: []model.Unit{
					{
						Name:           "keystone/0",
						Workload:       "keystone",
						AgentStatus:    model.AgentStatusIdle,
						WorkloadStatus: model.WorkloadStatusActive,
						Message:        "Ready",
						Machine:        "0",
						Leader:         true,
						Since:          time.Date(2026, 1, 30, 10, 0, 0, 0, time.UTC),
					},
					{
						Name:           "keystone/1",
						Workload:       "keystone",
						AgentStatus:    model.AgentStatusIdle,
						WorkloadStatus: model.WorkloadStatusActive,
						Machine:        "1",
						Since:          time.Date(2026, 1, 30, 10, 0, 0, 0, time.UTC),
					},
				},
			},
		},
		"a missing application should be not found": {
			runner:   &fakeRunner{outputs: map[string][]string{"status": {statusActive}}},
			name:     "nova",
			expErrIs: model.ErrNotFound,
		},
		"a failing status command should be unavailable": {
			runner:   &fakeRunner{errs: map[string]error{"status": fmt.Errorf("connection refused")}},
			name:     "keystone",
			expErrIs: model.ErrUnavailable,
		},
		"an invalid status payload should be unavailable": {
			runner:   &fakeRunner{outputs: map[string][]string{"status": {"applications: [not a map"}}},
			name:     "keystone",
			expErrIs: model.ErrUnavailable,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			c := newClient(t, test.runner)
			w, err := c.GetWorkload(context.Background(), "openstack", test.name)

			if test.expErrIs != nil {
				assert.ErrorIs(err, test.expErrIs)
			} else if assert.NoError(err) {
				assert.Equal(test.expWorkload, w)
			}
			assert.Equal([]string{"juju status -m openstack --format=yaml"}, test.runner.calls)
		})
	}
}

func TestClientGetWorkloads(t *testing.T) {
	tests := map[string]struct {
		runner       *fakeRunner
		names        []string
		expWorkloads map[string]model.WorkloadStatus
		expErrIs     error
	}{
		"all the requested applications should be read from a single status": {
			runner:       &fakeRunner{outputs: map[string][]string{"status": {statusActive}}},
			names:        []string{"keystone", "glance"},
			expWorkloads: map[string]model.WorkloadStatus{"keystone": model.WorkloadStatusActive, "glance": model.WorkloadStatusWaiting},
		},
		"missing applications should be left out": {
			runner:       &fakeRunner{outputs: map[string][]string{"status": {statusActive}}},
			names:        []string{"keystone", "nova", "cinder"},
			expWorkloads: map[string]model.WorkloadStatus{"keystone": model.WorkloadStatusActive},
		},
		"a failing status command should be unavailable": {
			runner:   &fakeRunner{errs: map[string]error{"status": fmt.Errorf("connection refused")}},
			names:    []string{"keystone", "glance"},
			expErrIs: model.ErrUnavailable,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			c := newClient(t, test.runner)
			ws, err := c.GetWorkloads(context.Background(), "openstack", test.names)

			if test.expErrIs != nil {
				assert.ErrorIs(err, test.expErrIs)
			} else if assert.NoError(err) {
				got := map[string]model.WorkloadStatus{}
				for name, w := range ws {
					got[name] = w.Status
				}
				assert.Equal(test.expWorkloads, got)
			}
			assert.Equal([]string{"juju status -m openstack --format=yaml"}, test.runner.calls)
		})
	}
}

func TestClientGetUnit(t *testing.T) {
	tests := map[string]struct {
		unit      string
		expStatus model.AgentStatus
		expErrIs  error
	}{
		"an existing unit should be returned": {
			unit:      "glance/0",
			expStatus: model.AgentStatusExecuting,
		},
		"a missing unit should be not found": {
			unit:     "glance/3",
			expErrIs: model.ErrNotFound,
		},
		"a unit of a missing application should be not found": {
			unit:     "nova/0",
			expErrIs: model.ErrNotFound,
		},
		"an invalid unit name should fail": {
			unit:     "glance",
			expErrIs: model.ErrNotValid,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			c := newClient(t, &fakeRunner{outputs: map[string][]string{"status": {statusActive}}})
			u, err := c.GetUnit(context.Background(), "openstack", test.unit)

			if test.expErrIs != nil {
				assert.ErrorIs(err, test.expErrIs)
			} else if assert.NoError(err) {
				assert.Equal(test.expStatus, u.AgentStatus)
			}
		})
	}
}

func TestClientListWorkloads(t *testing.T) {
	c := newClient(t, &fakeRunner{outputs: map[string][]string{"status": {statusActive}}})

	names, err := c.ListWorkloads(context.Background(), "openstack")

	require.NoError(t, err)
	assert.Equal(t, []string{"glance", "keystone"}, names)
}

func TestClientGetConfig(t *testing.T) {
	r := &fakeRunner{outputs: map[string][]string{
		"status": {statusActive},
		"config": {`
application: keystone
settings:
  debug:
    source: user
    value: true
  region:
    source: default
    value: RegionOne
  token-expiration:
    source: default
    value: 3600
  unset:
    source: unset
`},
	}}
	c := newClient(t, r)

	config, err := c.GetConfig(context.Background(), "openstack", "keystone")

	require.NoError(t, err)
	assert.Equal(t, map[string]string{"debug": "true", "region": "RegionOne", "token-expiration": "3600"}, config)
}

func TestClientMutations(t *testing.T) {
	tests := map[string]struct {
		exec     func(c *jujucli.Client) error
		expCalls []string
	}{
		"deploy with machines, channel and config": {
			exec: func(c *jujucli.Client) error {
				return c.Deploy(context.Background(), "openstack", orchestrator.DeployRequest{
					Name:     "nova",
					Charm:    "nova-compute",
					Channel:  "2024.1/stable",
					Machines: []string{"0", "1"},
					Config:   map[string]string{"virt-type": "kvm", "debug": "true"},
				})
			},
			expCalls: []string{"juju deploy -m openstack nova-compute nova --channel 2024.1/stable -n 2 --to 0,1 --config debug=true --config virt-type=kvm"},
		},
		"deploy without machines": {
			exec: func(c *jujucli.Client) error {
				return c.Deploy(context.Background(), "openstack", orchestrator.DeployRequest{Name: "nova", Charm: "nova-compute"})
			},
			expCalls: []string{"juju deploy -m openstack nova-compute nova"},
		},
		"remove unit": {
			exec: func(c *jujucli.Client) error {
				return c.RemoveUnit(context.Background(), "openstack", "nova/2")
			},
			expCalls: []string{"juju remove-unit -m openstack nova/2 --no-prompt"},
		},
		"remove application": {
			exec: func(c *jujucli.Client) error {
				return c.RemoveWorkload(context.Background(), "openstack", "nova")
			},
			expCalls: []string{"juju remove-application -m openstack nova --no-prompt"},
		},
		"refresh": {
			exec: func(c *jujucli.Client) error {
				return c.Refresh(context.Background(), "openstack", "nova", "2024.2/stable")
			},
			expCalls: []string{"juju refresh -m openstack nova --channel 2024.2/stable"},
		},
		"set config": {
			exec: func(c *jujucli.Client) error {
				return c.SetConfig(context.Background(), "openstack", "nova", map[string]string{"b": "2", "a": "1"})
			},
			expCalls: []string{"juju config -m openstack nova a=1 b=2"},
		},
		"set empty config should not run anything": {
			exec: func(c *jujucli.Client) error {
				return c.SetConfig(context.Background(), "openstack", "nova", nil)
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			r := &fakeRunner{}
			c := newClient(t, r)

			err := test.exec(c)

			require.NoError(t, err)
			assert.Equal(t, test.expCalls, r.calls)
		})
	}
}

func TestClientAddUnit(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	after := strings.Replace(statusActive, `      glance/0:
        workload-status:`, `      glance/1:
        workload-status:
          current: waiting
        juju-status:
          current: allocating
        machine: "1"
      glance/0:
        workload-status:`, 1)
	r := &fakeRunner{outputs: map[string][]string{"status": {statusActive, after}}}
	c := newClient(t, r)

	unit, err := c.AddUnit(context.Background(), "openstack", "glance", "1")

	require.NoError(err)
	assert.Equal("glance/1", unit)
	assert.Contains(r.calls, "juju add-unit -m openstack glance --to 1")
}

func TestClientWaitForIdle(t *testing.T) {
	unitError := strings.Replace(statusActive, `          current: waiting
          message: waiting for database
        juju-status:
          current: executing`, `          current: error
          message: hook failed
        juju-status:
          current: idle`, 1)
	agentError := strings.Replace(statusActive, `        juju-status:
          current: executing`, `        juju-status:
          current: error`, 1)
	machineError := strings.Replace(statusActive, `  "1":
    juju-status:
      current: started`, `  "1":
    juju-status:
      current: error
      message: no capacity`, 1)
	glanceActive := strings.Replace(statusActive, `          current: waiting
          message: waiting for database
        juju-status:
          current: executing`, `          current: active
        juju-status:
          current: idle`, 1)

	tests := map[string]struct {
		statuses   []string
		workloads  []string
		expErrIs   error
		expErrType any
	}{
		"idle applications should succeed": {
			statuses:  []string{statusActive},
			workloads: []string{"keystone"},
		},
		"applications becoming idle should succeed": {
			statuses:  []string{statusActive, statusActive, glanceActive},
			workloads: []string{"keystone", "glance"},
		},
		"busy applications should time out": {
			statuses:  []string{statusActive},
			workloads: []string{"glance"},
			expErrIs:  orchestrator.ErrIdleTimeout,
		},
		"missing applications should time out": {
			statuses:  []string{statusActive},
			workloads: []string{"nova"},
			expErrIs:  orchestrator.ErrIdleTimeout,
		},
		"units in error should fail": {
			statuses:   []string{unitError},
			workloads:  []string{"glance"},
			expErrType: &orchestrator.UnitError{},
		},
		"agents in error should fail": {
			statuses:   []string{agentError},
			workloads:  []string{"glance"},
			expErrType: &orchestrator.AgentError{},
		},
		"machines in error should fail": {
			statuses:   []string{machineError},
			workloads:  []string{"keystone"},
			expErrType: &orchestrator.MachineError{},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			c := newClient(t, &fakeRunner{outputs: map[string][]string{"status": test.statuses}})
			err := c.WaitForIdle(context.Background(), "openstack", test.workloads, 10*time.Second)

			switch {
			case test.expErrIs != nil:
				assert.ErrorIs(err, test.expErrIs)
			case test.expErrType != nil:
				assert.IsType(test.expErrType, err)
				assert.True(orchestrator.IsEntityError(err))
			default:
				assert.NoError(err)
			}
		})
	}
}
