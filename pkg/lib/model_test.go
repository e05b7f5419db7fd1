package lib

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wolsen/snap-openstack-sub000/internal/converge"
	"github.com/wolsen/snap-openstack-sub000/internal/model"
	"github.com/wolsen/snap-openstack-sub000/internal/plan"
)

func TestMapError(t *testing.T) {
	tests := map[string]struct {
		err       error
		expErrs   []error
		expNotErr []error
	}{
		"A step that timed out should match the step and timeout errors.": {
			err: &plan.StepError{
				Step:    "wait-active",
				Message: "timed out",
				Err:     &converge.TimeoutError{What: `workload "keystone" to be active`, Timeout: time.Second},
			},
			expErrs:   []error{ErrStepFailed, ErrTimeout},
			expNotErr: []error{ErrWait, ErrNotFound},
		},

		"A step that failed waiting should match the step and wait errors.": {
			err: &plan.StepError{
				Step: "wait-active",
				Err:  &converge.WaitError{Model: "openstack", Err: errors.New("unit keystone/0 hook failed")},
			},
			expErrs:   []error{ErrStepFailed, ErrWait},
			expNotErr: []error{ErrTimeout},
		},

		"A step with a text message should only match the step error.": {
			err:       &plan.StepError{Step: "deploy-keystone", Message: "disk full"},
			expErrs:   []error{ErrStepFailed},
			expNotErr: []error{ErrTimeout, ErrWait},
		},

		"A wrapped not found error should be mapped.": {
			err:     fmt.Errorf("could not get keystone: %w", model.ErrNotFound),
			expErrs: []error{ErrNotFound},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			err := mapError(test.err)
			assert.EqualError(err, test.err.Error())
			for _, e := range test.expErrs {
				assert.ErrorIs(err, e)
			}
			for _, e := range test.expNotErr {
				assert.NotErrorIs(err, e)
			}
		})
	}
}
