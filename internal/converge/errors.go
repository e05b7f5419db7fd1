package converge

import (
	"fmt"
	"strings"
	"time"

	"github.com/wolsen/snap-openstack-sub000/internal/model"
)

// TimeoutError is returned when a wait expires before its condition holds.
// Busy has the entities that were still not converged on the last observation,
// with their last known statuses.
type TimeoutError struct {
	What    string
	Timeout time.Duration
	Busy    []string
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("timed out after %s while waiting for %s", e.Timeout, e.What)
	if len(e.Busy) > 0 {
		msg += ", still busy: " + strings.Join(e.Busy, ", ")
	}
	return msg
}

// Is makes the error match model.ErrTimeout.
func (e *TimeoutError) Is(target error) bool { return target == model.ErrTimeout }

// WaitError is returned when the orchestrator reports an error state while waiting.
type WaitError struct {
	Model string
	Err   error
}

func (e *WaitError) Error() string {
	return fmt.Sprintf("error while waiting for model %q to be ready: %s", e.Model, e.Err)
}

func (e *WaitError) Unwrap() error { return e.Err }

// Is makes the error match model.ErrWait.
func (e *WaitError) Is(target error) bool { return target == model.ErrWait }
