package destroy_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolsen/snap-openstack-sub000/internal/app/destroy"
	clockfake "github.com/wolsen/snap-openstack-sub000/internal/clock/fake"
	"github.com/wolsen/snap-openstack-sub000/internal/converge"
	"github.com/wolsen/snap-openstack-sub000/internal/log"
	"github.com/wolsen/snap-openstack-sub000/internal/model"
	"github.com/wolsen/snap-openstack-sub000/internal/orchestrator"
	"github.com/wolsen/snap-openstack-sub000/internal/orchestrator/fake"
	"github.com/wolsen/snap-openstack-sub000/internal/plan"
	"github.com/wolsen/snap-openstack-sub000/internal/steps"
)

func TestNewService(t *testing.T) {
	_, err := destroy.NewService(destroy.ServiceConfig{})
	assert.Error(t, err)
}

func TestService_Run(t *testing.T) {
	tests := map[string]struct {
		setup        func(o *fake.Orchestrator)
		req          destroy.Request
		expErr       error
		expWorkloads []string
		expUnits     map[string]int
		expResults   map[string]model.ResultType
	}{
		"removing a unit should keep the rest of the workload": {
			req:          destroy.Request{Model: "openstack", Units: []destroy.UnitPlacement{{Workload: "nova", Machine: "1"}}},
			expWorkloads: []string{"glance", "nova"},
			expUnits:     map[string]int{"nova": 1},
			expResults: map[string]model.ResultType{
				plan.StepKey(&steps.RemoveUnitStep{}): model.ResultCompleted,
			},
		},
		"removing workloads should remove them from the model": {
			req:          destroy.Request{Model: "openstack", Workloads: []string{"glance", "cinder"}},
			expWorkloads: []string{"nova"},
			expResults: map[string]model.ResultType{
				plan.StepKey(&steps.DestroyWorkloadsStep{}): model.ResultCompleted,
			},
		},
		"removing missing things should be skipped": {
			req: destroy.Request{
				Model:     "openstack",
				Units:     []destroy.UnitPlacement{{Workload: "nova", Machine: "9"}},
				Workloads: []string{"cinder"},
			},
			expWorkloads: []string{"glance", "nova"},
			expUnits:     map[string]int{"nova": 2},
			expResults: map[string]model.ResultType{
				plan.StepKey(&steps.RemoveUnitStep{}):       model.ResultSkipped,
				plan.StepKey(&steps.DestroyWorkloadsStep{}): model.ResultSkipped,
			},
		},
		"remove failures should fail the plan": {
			setup:        func(o *fake.Orchestrator) { o.FailOn(fake.OpRemoveWorkload, fmt.Errorf("model is locked")) },
			req:          destroy.Request{Model: "openstack", Workloads: []string{"glance"}},
			expErr:       plan.ErrStepFailed,
			expWorkloads: []string{"glance", "nova"},
		},
		"an empty request should fail": {
			req:          destroy.Request{Model: "openstack"},
			expErr:       model.ErrNotValid,
			expWorkloads: []string{"glance", "nova"},
		},
		"a request without model should fail": {
			req:          destroy.Request{Workloads: []string{"glance"}},
			expErr:       model.ErrNotValid,
			expWorkloads: []string{"glance", "nova"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)
			ctx := context.Background()

			clk := clockfake.NewClock(time.Date(2026, 1, 30, 10, 0, 0, 0, time.UTC))
			o, err := fake.NewOrchestrator(fake.OrchestratorConfig{Clock: clk})
			require.NoError(err)
			w, err := converge.NewWaiter(converge.WaiterConfig{Client: o, Clock: clk})
			require.NoError(err)
			require.NoError(o.Deploy(ctx, "openstack", orchestrator.DeployRequest{Name: "nova", Charm: "nova", Machines: []string{"0", "1"}}))
			require.NoError(o.Deploy(ctx, "openstack", orchestrator.DeployRequest{Name: "glance", Charm: "glance", Machines: []string{"0"}}))
			if test.setup != nil {
				test.setup(o)
			}

			svc, err := destroy.NewService(destroy.ServiceConfig{Client: o, Waiter: w, Logger: log.Noop})
			require.NoError(err)

			results, err := svc.Run(ctx, test.req)

			if test.expErr != nil {
				assert.ErrorIs(err, test.expErr)
			} else {
				require.NoError(err)
				for key, expType := range test.expResults {
					res, ok := results.ByKey(key)
					require.True(ok, key)
					assert.Equal(expType, res.Type, key)
				}
			}

			names, err := o.ListWorkloads(ctx, "openstack")
			require.NoError(err)
			assert.Equal(test.expWorkloads, names)
			for wl, n := range test.expUnits {
				got, err := o.GetWorkload(ctx, "openstack", wl)
				require.NoError(err)
				assert.Len(got.Units, n)
			}
		})
	}
}
