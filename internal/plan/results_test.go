package plan_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wolsen/snap-openstack-sub000/internal/model"
	"github.com/wolsen/snap-openstack-sub000/internal/plan"
)

func TestResults(t *testing.T) {
	assert := assert.New(t)

	l := &callLog{}
	s1 := stepOne{newSpyStep("s1", l, model.Completed(nil), model.Completed(nil))}
	s2 := stepTwo{newSpyStep("s2", l, model.Completed(nil), model.Completed(nil))}
	s1bis := stepOne{newSpyStep("s1-bis", l, model.Completed(nil), model.Completed(nil))}

	r := plan.NewResults()
	r.Set(s1, model.Completed(map[string]string{"app1": "2024.1/stable"}))
	r.Set(s2, model.Skipped(nil))
	r.Set(s1bis, model.Completed("replaced"))

	assert.Equal(2, r.Len())
	assert.Equal([]string{keyOne, keyTwo}, r.Keys())

	res, ok := r.Get(s1)
	assert.True(ok)
	assert.Equal("replaced", res.Message)

	msg, ok := plan.MessageOf[stepOne, string](r)
	assert.True(ok)
	assert.Equal("replaced", msg)

	_, ok = plan.MessageOf[stepTwo, string](r)
	assert.False(ok, "nil messages are not strings")

	_, ok = plan.ResultOf[stepThree](r)
	assert.False(ok)

	_, ok = plan.ResultOf[stepThree](nil)
	assert.False(ok)
}

func TestStepKeyDereferencesPointers(t *testing.T) {
	l := &callLog{}
	s := newSpyStep("s1", l, model.Completed(nil), model.Completed(nil))

	assert.Equal(t, "github.com/wolsen/snap-openstack-sub000/internal/plan_test.spyStep", plan.StepKey(s))
	assert.Equal(t, "github.com/wolsen/snap-openstack-sub000/internal/plan_test.stepOne", plan.StepKey(&stepOne{s}))
}

func TestShortKey(t *testing.T) {
	tests := map[string]struct {
		key    string
		expKey string
	}{
		"A step key should lose the import path directories.": {
			key:    "github.com/wolsen/snap-openstack-sub000/internal/steps.DeployWorkloadStep",
			expKey: "steps.DeployWorkloadStep",
		},

		"A key without directories should stay the same.": {
			key:    "main.customStep",
			expKey: "main.customStep",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.expKey, plan.ShortKey(test.key))
		})
	}
}
