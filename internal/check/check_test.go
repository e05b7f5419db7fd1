package check_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/wolsen/snap-openstack-sub000/internal/check"
	"github.com/wolsen/snap-openstack-sub000/internal/model"
	"github.com/wolsen/snap-openstack-sub000/internal/orchestrator/orchestratormock"
)

type staticCheck struct {
	id     string
	status model.CheckStatus
	runs   *int
}

func (c staticCheck) ID() string { return c.id }

func (c staticCheck) Run(ctx context.Context) model.CheckResult {
	*c.runs++
	return model.CheckResult{ID: c.id, Status: c.status, Message: "msg"}
}

func TestRunUntilFailure(t *testing.T) {
	assert := assert.New(t)

	runs := 0
	checks := []check.Check{
		staticCheck{id: "a", status: model.CheckStatusOK, runs: &runs},
		staticCheck{id: "b", status: model.CheckStatusWarning, runs: &runs},
		staticCheck{id: "c", status: model.CheckStatusError, runs: &runs},
		staticCheck{id: "d", status: model.CheckStatusOK, runs: &runs},
	}

	results, err := check.RunUntilFailure(context.Background(), checks)
	assert.ErrorIs(err, check.ErrCheckFailed)
	assert.EqualError(err, "c: msg: preflight check failed")
	assert.Len(results, 3)
	assert.Equal(3, runs)

	runs = 0
	results = check.RunAll(context.Background(), checks)
	assert.Len(results, 4)
	assert.Equal(4, runs)
}

func TestBinaryCheck(t *testing.T) {
	tests := map[string]struct {
		lookPath  func(string) (string, error)
		expStatus model.CheckStatus
		expMsg    string
	}{
		"A binary in the path should be ok": {
			lookPath:  func(string) (string, error) { return "/snap/bin/juju", nil },
			expStatus: model.CheckStatusOK,
			expMsg:    "juju found at /snap/bin/juju",
		},
		"A missing binary should fail": {
			lookPath:  func(string) (string, error) { return "", errors.New("not found") },
			expStatus: model.CheckStatusError,
			expMsg:    "juju binary not found in PATH",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			r := check.BinaryCheck{Binary: "juju", LookPath: test.lookPath}.Run(context.Background())
			assert.Equal(t, test.expStatus, r.Status)
			assert.Equal(t, test.expMsg, r.Message)
			assert.Equal(t, "orchestrator_binary", r.ID)
		})
	}
}

func TestModelCheck(t *testing.T) {
	tests := map[string]struct {
		mock      func(m *orchestratormock.MockClient)
		expStatus model.CheckStatus
		expMsg    string
	}{
		"A reachable model should be ok": {
			mock: func(m *orchestratormock.MockClient) {
				m.On("ListWorkloads", mock.Anything, "openstack").Once().Return([]string{"nova", "glance"}, nil)
			},
			expStatus: model.CheckStatusOK,
			expMsg:    `Model "openstack" is reachable (2 workloads)`,
		},
		"An empty model should be ok": {
			mock: func(m *orchestratormock.MockClient) {
				m.On("ListWorkloads", mock.Anything, "openstack").Once().Return([]string{}, nil)
			},
			expStatus: model.CheckStatusOK,
			expMsg:    `Model "openstack" is reachable and empty`,
		},
		"An unreachable model should fail": {
			mock: func(m *orchestratormock.MockClient) {
				m.On("ListWorkloads", mock.Anything, "openstack").Once().Return(nil, model.ErrUnavailable)
			},
			expStatus: model.CheckStatusError,
			expMsg:    `Could not read model "openstack": unavailable`,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			m := orchestratormock.NewMockClient(t)
			test.mock(m)

			r := check.ModelCheck{Client: m, Model: "openstack"}.Run(context.Background())
			assert.Equal(t, test.expStatus, r.Status)
			assert.Equal(t, test.expMsg, r.Message)
		})
	}
}

func TestManifestCheck(t *testing.T) {
	tests := map[string]struct {
		manifest  model.Manifest
		expStatus model.CheckStatus
		expMsg    string
	}{
		"A valid manifest should be ok": {
			manifest: model.Manifest{Model: "openstack", Workloads: []model.WorkloadSpec{
				{Name: "nova", Charm: "nova", Machines: []string{"0", "1"}},
				{Name: "glance", Charm: "glance", Machines: []string{"1"}},
			}},
			expStatus: model.CheckStatusOK,
			expMsg:    "Manifest has 2 workloads across 2 machines",
		},
		"Missing asked values should warn": {
			manifest: model.Manifest{Model: "openstack", Workloads: []model.WorkloadSpec{
				{Name: "nova", Charm: "nova", Ask: []string{"region", "debug"}, Config: map[string]string{"debug": "true"}},
			}},
			expStatus: model.CheckStatusWarning,
			expMsg:    "Manifest needs values for: nova.region",
		},
		"An invalid manifest should fail": {
			manifest:  model.Manifest{Model: "openstack"},
			expStatus: model.CheckStatusError,
			expMsg:    "Manifest is not valid: at least one workload is required: not valid",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			r := check.ManifestCheck{Manifest: test.manifest}.Run(context.Background())
			assert.Equal(t, test.expStatus, r.Status)
			assert.Equal(t, test.expMsg, r.Message)
		})
	}
}
