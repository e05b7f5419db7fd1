package status_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wolsen/snap-openstack-sub000/internal/app/status"
	"github.com/wolsen/snap-openstack-sub000/internal/log"
	"github.com/wolsen/snap-openstack-sub000/internal/model"
	"github.com/wolsen/snap-openstack-sub000/internal/orchestrator/orchestratormock"
)

func TestNewService(t *testing.T) {
	tests := map[string]struct {
		config status.ServiceConfig
		expErr bool
	}{
		"valid config should create service": {
			config: status.ServiceConfig{
				Client: &orchestratormock.MockClient{},
				Logger: log.Noop,
			},
			expErr: false,
		},
		"missing client should fail": {
			config: status.ServiceConfig{
				Logger: log.Noop,
			},
			expErr: true,
		},
		"nil logger should default to noop": {
			config: status.ServiceConfig{
				Client: &orchestratormock.MockClient{},
			},
			expErr: false,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			svc, err := status.NewService(test.config)

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
	keystone := &model.Workload{Name: "keystone", Status: model.WorkloadStatusActive, Units: []model.Unit{
		{Name: "keystone/0", AgentStatus: model.AgentStatusIdle, WorkloadStatus: model.WorkloadStatusActive},
	}}
	glance := &model.Workload{Name: "glance", Status: model.WorkloadStatusBlocked}

	tests := map[string]struct {
		mock      func(m *orchestratormock.MockClient)
		req       status.Request
		expResult []model.Workload
		expErr    bool
	}{
		"all the model workloads should be returned": {
			mock: func(m *orchestratormock.MockClient) {
				m.On("ListWorkloads", mock.Anything, "openstack").Once().Return([]string{"glance", "keystone"}, nil)
				m.On("GetWorkload", mock.Anything, "openstack", "glance").Once().Return(glance, nil)
				m.On("GetWorkload", mock.Anything, "openstack", "keystone").Once().Return(keystone, nil)
			},
			req:       status.Request{Model: "openstack"},
			expResult: []model.Workload{*glance, *keystone},
		},
		"filtered workloads should keep the requested order": {
			mock: func(m *orchestratormock.MockClient) {
				m.On("GetWorkload", mock.Anything, "openstack", "keystone").Once().Return(keystone, nil)
				m.On("GetWorkload", mock.Anything, "openstack", "glance").Once().Return(glance, nil)
			},
			req:       status.Request{Model: "openstack", Workloads: []string{"keystone", "glance"}},
			expResult: []model.Workload{*keystone, *glance},
		},
		"workloads removed while listing should be ignored": {
			mock: func(m *orchestratormock.MockClient) {
				m.On("ListWorkloads", mock.Anything, "openstack").Once().Return([]string{"glance", "keystone"}, nil)
				m.On("GetWorkload", mock.Anything, "openstack", "glance").Once().Return(nil, model.ErrNotFound)
				m.On("GetWorkload", mock.Anything, "openstack", "keystone").Once().Return(keystone, nil)
			},
			req:       status.Request{Model: "openstack"},
			expResult: []model.Workload{*keystone},
		},
		"missing filtered workloads should fail": {
			mock: func(m *orchestratormock.MockClient) {
				m.On("GetWorkload", mock.Anything, "openstack", "cinder").Once().Return(nil, model.ErrNotFound)
			},
			req:    status.Request{Model: "openstack", Workloads: []string{"cinder"}},
			expErr: true,
		},
		"list errors should propagate": {
			mock: func(m *orchestratormock.MockClient) {
				m.On("ListWorkloads", mock.Anything, "openstack").Once().Return(nil, fmt.Errorf("juju is down"))
			},
			req:    status.Request{Model: "openstack"},
			expErr: true,
		},
		"missing model should fail": {
			mock:   func(m *orchestratormock.MockClient) {},
			req:    status.Request{},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			// Setup
			m := &orchestratormock.MockClient{}
			test.mock(m)

			svc, err := status.NewService(status.ServiceConfig{
				Client: m,
				Logger: log.Noop,
			})
			require.NoError(err)

			// Execute
			result, err := svc.Run(context.Background(), test.req)

			// Verify
			if test.expErr {
				assert.Error(err)
			} else {
				assert.NoError(err)
				assert.Equal(test.expResult, result)
			}

			m.AssertExpectations(t)
		})
	}
}
