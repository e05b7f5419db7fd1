package deploy_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolsen/snap-openstack-sub000/internal/app/deploy"
	"github.com/wolsen/snap-openstack-sub000/internal/check"
	clockfake "github.com/wolsen/snap-openstack-sub000/internal/clock/fake"
	"github.com/wolsen/snap-openstack-sub000/internal/converge"
	"github.com/wolsen/snap-openstack-sub000/internal/log"
	"github.com/wolsen/snap-openstack-sub000/internal/model"
	"github.com/wolsen/snap-openstack-sub000/internal/orchestrator/fake"
	"github.com/wolsen/snap-openstack-sub000/internal/plan"
	"github.com/wolsen/snap-openstack-sub000/internal/steps"
)

type failingCheck struct{}

func (failingCheck) ID() string { return "orchestrator_binary" }
func (failingCheck) Run(ctx context.Context) model.CheckResult {
	return model.CheckResult{ID: "orchestrator_binary", Message: "juju binary not found in PATH", Status: model.CheckStatusError}
}

func newService(t *testing.T, cfg fake.OrchestratorConfig, checks ...check.Check) (*deploy.Service, *fake.Orchestrator) {
	clk := clockfake.NewClock(time.Date(2026, 1, 30, 10, 0, 0, 0, time.UTC))
	cfg.Clock = clk
	o, err := fake.NewOrchestrator(cfg)
	require.NoError(t, err)
	w, err := converge.NewWaiter(converge.WaiterConfig{Client: o, Clock: clk})
	require.NoError(t, err)

	svc, err := deploy.NewService(deploy.ServiceConfig{
		Client: o,
		Waiter: w,
		Checks: checks,
		Logger: log.Noop,
	})
	require.NoError(t, err)

	return svc, o
}

func testManifest() model.Manifest {
	return model.Manifest{Model: "openstack", Workloads: []model.WorkloadSpec{
		{Name: "keystone", Charm: "keystone", Channel: "2024.1/stable", Machines: []string{"0", "1"}},
		{Name: "glance", Charm: "glance", Channel: "2024.1/stable", Config: map[string]string{"debug": "true"}},
	}}
}

func TestNewService(t *testing.T) {
	o, err := fake.NewOrchestrator(fake.OrchestratorConfig{})
	require.NoError(t, err)
	w, err := converge.NewWaiter(converge.WaiterConfig{Client: o})
	require.NoError(t, err)

	tests := map[string]struct {
		config deploy.ServiceConfig
		expErr bool
	}{
		"valid config should create service": {
			config: deploy.ServiceConfig{Client: o, Waiter: w, Logger: log.Noop},
		},
		"missing client should fail": {
			config: deploy.ServiceConfig{Waiter: w},
			expErr: true,
		},
		"missing waiter should fail": {
			config: deploy.ServiceConfig{Client: o},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			svc, err := deploy.NewService(test.config)

			if test.expErr {
				require.Error(err)
				require.Nil(svc)
			} else {
				require.NoError(err)
				require.NotNil(svc)
			}
		})
	}
}

func TestService_Run(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	svc, o := newService(t, fake.OrchestratorConfig{})

	resp, err := svc.Run(ctx, deploy.Request{Manifest: testManifest()})
	require.NoError(err)
	assert.Len(resp.Checks, 2)

	keystone, err := o.GetWorkload(ctx, "openstack", "keystone")
	require.NoError(err)
	assert.Len(keystone.Units, 2)
	glance, err := o.GetWorkload(ctx, "openstack", "glance")
	require.NoError(err)
	assert.Equal("true", glance.Config["debug"])

	res, ok := plan.ResultOf[*steps.WaitActiveStep](resp.Results)
	require.True(ok)
	assert.Equal(model.ResultCompleted, res.Type)

	// A second run converges to the same state without changes.
	resp, err = svc.Run(ctx, deploy.Request{Manifest: testManifest()})
	require.NoError(err)
	for _, key := range resp.Results.Keys() {
		res, _ := resp.Results.ByKey(key)
		assert.Equal(model.ResultSkipped, res.Type, key)
	}
	keystone, err = o.GetWorkload(ctx, "openstack", "keystone")
	require.NoError(err)
	assert.Len(keystone.Units, 2)
}

func TestService_RunNewMachines(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	svc, o := newService(t, fake.OrchestratorConfig{})
	_, err := svc.Run(ctx, deploy.Request{Manifest: testManifest()})
	require.NoError(err)

	m := testManifest()
	m.Workloads[0].Machines = append(m.Workloads[0].Machines, "2")
	resp, err := svc.Run(ctx, deploy.Request{Manifest: m})
	require.NoError(err)

	res, ok := plan.ResultOf[*steps.AddUnitsStep](resp.Results)
	require.True(ok)
	assert.Equal(model.ResultCompleted, res.Type)
	keystone, err := o.GetWorkload(ctx, "openstack", "keystone")
	require.NoError(err)
	assert.Equal("2", keystone.Units[2].Machine)
}

func TestService_RunErrors(t *testing.T) {
	tests := map[string]struct {
		cfg       fake.OrchestratorConfig
		checks    []check.Check
		req       deploy.Request
		expErr    error
		expCause  error
		expErrMsg string
		expChecks int
	}{
		"a failing preflight check should stop before deploying": {
			checks:    []check.Check{failingCheck{}},
			req:       deploy.Request{Manifest: testManifest()},
			expErr:    check.ErrCheckFailed,
			expChecks: 1,
		},
		"an invalid manifest should fail the preflight checks": {
			req:       deploy.Request{Manifest: model.Manifest{Model: "openstack"}},
			expErr:    check.ErrCheckFailed,
			expChecks: 1,
		},
		"an invalid manifest should fail when checks are skipped": {
			req:    deploy.Request{Manifest: model.Manifest{Model: "openstack"}, SkipChecks: true},
			expErr: model.ErrNotValid,
		},
		"workloads that don't get ready should fail the plan": {
			cfg: fake.OrchestratorConfig{UnitWorkloadStatus: model.WorkloadStatusBlocked},
			req: deploy.Request{Manifest: model.Manifest{Model: "openstack", Workloads: []model.WorkloadSpec{
				{Name: "keystone", Charm: "keystone", Timeout: 10 * time.Second},
			}}},
			expErr:    plan.ErrStepFailed,
			expCause:  model.ErrTimeout,
			expErrMsg: `step "deploy-keystone" failed: timed out after 10s while waiting for workload "keystone" to be ready, still busy: keystone (status: blocked)`,
			expChecks: 2,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			svc, o := newService(t, test.cfg, test.checks...)
			resp, err := svc.Run(context.Background(), test.req)

			assert.ErrorIs(err, test.expErr)
			if test.expCause != nil {
				assert.ErrorIs(err, test.expCause)
			}
			if test.expErrMsg != "" {
				assert.EqualError(err, test.expErrMsg)
			}
			assert.Len(resp.Checks, test.expChecks)

			if test.expErr == check.ErrCheckFailed {
				names, err := o.ListWorkloads(context.Background(), "openstack")
				assert.NoError(err)
				assert.Empty(names)
			}
		})
	}
}

type answeringUI struct {
	answer string
}

func (u *answeringUI) Ask(ctx context.Context, question, defaultValue string) (string, error) {
	return u.answer, nil
}

func (u *answeringUI) AskSecret(ctx context.Context, question string) (string, error) {
	return u.answer, nil
}

func (u *answeringUI) Confirm(ctx context.Context, question string, defaultValue bool) (bool, error) {
	return defaultValue, nil
}

func (u *answeringUI) StartStatus(msg string) plan.StatusHandle { return plan.NoopUI.StartStatus(msg) }

func TestService_RunPromptedConfig(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	clk := clockfake.NewClock(time.Date(2026, 1, 30, 10, 0, 0, 0, time.UTC))
	o, err := fake.NewOrchestrator(fake.OrchestratorConfig{Clock: clk})
	require.NoError(err)
	w, err := converge.NewWaiter(converge.WaiterConfig{Client: o, Clock: clk})
	require.NoError(err)
	ui := &answeringUI{answer: "user-answer"}
	runner, err := plan.NewRunner(plan.RunnerConfig{UI: ui})
	require.NoError(err)
	svc, err := deploy.NewService(deploy.ServiceConfig{Client: o, Waiter: w, Runner: runner})
	require.NoError(err)

	m := model.Manifest{Model: "openstack", Workloads: []model.WorkloadSpec{
		{Name: "keystone", Charm: "keystone", Config: map[string]string{"region": "manifest-default"}, Ask: []string{"region"}},
	}}

	// The answer is deployed and not reverted to the manifest value.
	_, err = svc.Run(ctx, deploy.Request{Manifest: m})
	require.NoError(err)
	config, err := o.GetConfig(ctx, "openstack", "keystone")
	require.NoError(err)
	assert.Equal("user-answer", config["region"])

	// Once deployed, a new answer is applied by the configure step.
	ui.answer = "second-answer"
	resp, err := svc.Run(ctx, deploy.Request{Manifest: m})
	require.NoError(err)
	res, ok := plan.ResultOf[*steps.ConfigureWorkloadStep](resp.Results)
	require.True(ok)
	assert.Equal(model.ResultCompleted, res.Type)
	config, err = o.GetConfig(ctx, "openstack", "keystone")
	require.NoError(err)
	assert.Equal("second-answer", config["region"])
}
