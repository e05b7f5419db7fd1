package steps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wolsen/snap-openstack-sub000/internal/log"
	"github.com/wolsen/snap-openstack-sub000/internal/model"
	"github.com/wolsen/snap-openstack-sub000/internal/orchestrator"
)

// DefaultTimeout is the wait timeout of the steps when none is configured.
const DefaultTimeout = 10 * time.Minute

// Waiter waits for the orchestrator entities to converge.
type Waiter interface {
	WaitReady(ctx context.Context, spec model.WaitSpec) error
	WaitGone(ctx context.Context, spec model.WaitSpec) error
	WaitUnitReady(ctx context.Context, spec model.WaitSpec) error
	WaitUntilActive(ctx context.Context, spec model.WaitSpec) error
	WaitUntilDesiredStatus(ctx context.Context, spec model.WaitSpec) error
}

// Deps are the dependencies shared by the steps.
type Deps struct {
	Client orchestrator.Client
	Waiter Waiter
	// Model is the orchestrator model the steps work on.
	Model  string
	Logger log.Logger
}

func (d *Deps) defaults() error {
	if d.Client == nil {
		return fmt.Errorf("client is required")
	}

	if d.Waiter == nil {
		return fmt.Errorf("waiter is required")
	}

	if d.Model == "" {
		return fmt.Errorf("model is required")
	}

	if d.Logger == nil {
		d.Logger = log.Noop
	}
	d.Logger = d.Logger.WithValues(log.Kv{"svc": "steps"})

	return nil
}

// failedWait converts a wait error into a failed result.
func failedWait(logger log.Logger, err error) model.Result {
	switch {
	case errors.Is(err, model.ErrTimeout), errors.Is(err, model.ErrWait):
		logger.Warningf("%s", err)
	default:
		logger.Errorf("%s", err)
	}
	return model.Failed(err)
}

func timeoutOrDefault(t time.Duration) time.Duration {
	if t <= 0 {
		return DefaultTimeout
	}
	return t
}

func statusesOrDefault(s []model.WorkloadStatus, def ...model.WorkloadStatus) []model.WorkloadStatus {
	if len(s) == 0 {
		return def
	}
	return s
}
