package check

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/wolsen/snap-openstack-sub000/internal/model"
	"github.com/wolsen/snap-openstack-sub000/internal/orchestrator"
)

// ErrCheckFailed is returned when a preflight check ends in error.
var ErrCheckFailed = errors.New("preflight check failed")

// Check is a preflight check run before changing the deployment.
type Check interface {
	ID() string
	Run(ctx context.Context) model.CheckResult
}

// RunUntilFailure runs the checks in order and stops on the first one in error.
func RunUntilFailure(ctx context.Context, checks []Check) ([]model.CheckResult, error) {
	results := make([]model.CheckResult, 0, len(checks))
	for _, c := range checks {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		r := c.Run(ctx)
		results = append(results, r)
		if r.Status == model.CheckStatusError {
			return results, fmt.Errorf("%s: %s: %w", r.ID, r.Message, ErrCheckFailed)
		}
	}

	return results, nil
}

// RunAll runs all the checks regardless of their result.
func RunAll(ctx context.Context, checks []Check) []model.CheckResult {
	results := make([]model.CheckResult, 0, len(checks))
	for _, c := range checks {
		results = append(results, c.Run(ctx))
	}
	return results
}

// BinaryCheck checks the orchestrator CLI binary can be found.
type BinaryCheck struct {
	Binary string
	// LookPath resolves the binary, defaults to exec.LookPath.
	LookPath func(file string) (string, error)
}

func (c BinaryCheck) ID() string { return "orchestrator_binary" }

func (c BinaryCheck) Run(ctx context.Context) model.CheckResult {
	lookPath := c.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	path, err := lookPath(c.Binary)
	if err != nil {
		return model.CheckResult{
			ID:      c.ID(),
			Message: fmt.Sprintf("%s binary not found in PATH", c.Binary),
			Status:  model.CheckStatusError,
		}
	}

	if c.LookPath == nil {
		info, err := os.Stat(path)
		if err != nil || info.Mode()&0111 == 0 {
			return model.CheckResult{
				ID:      c.ID(),
				Message: fmt.Sprintf("%s is not executable", path),
				Status:  model.CheckStatusError,
			}
		}
	}

	return model.CheckResult{
		ID:      c.ID(),
		Message: fmt.Sprintf("%s found at %s", c.Binary, path),
		Status:  model.CheckStatusOK,
	}
}

// ModelCheck checks the model status can be read.
type ModelCheck struct {
	Client orchestrator.StatusReader
	Model  string
}

func (c ModelCheck) ID() string { return "model_reachable" }

func (c ModelCheck) Run(ctx context.Context) model.CheckResult {
	names, err := c.Client.ListWorkloads(ctx, c.Model)
	if err != nil {
		return model.CheckResult{
			ID:      c.ID(),
			Message: fmt.Sprintf("Could not read model %q: %v", c.Model, err),
			Status:  model.CheckStatusError,
		}
	}

	if len(names) == 0 {
		return model.CheckResult{
			ID:      c.ID(),
			Message: fmt.Sprintf("Model %q is reachable and empty", c.Model),
			Status:  model.CheckStatusOK,
		}
	}

	return model.CheckResult{
		ID:      c.ID(),
		Message: fmt.Sprintf("Model %q is reachable (%d workloads)", c.Model, len(names)),
		Status:  model.CheckStatusOK,
	}
}

// ManifestCheck checks the manifest is valid and warns about workloads that
// will need user input.
type ManifestCheck struct {
	Manifest model.Manifest
}

func (c ManifestCheck) ID() string { return "manifest" }

func (c ManifestCheck) Run(ctx context.Context) model.CheckResult {
	if err := c.Manifest.Validate(); err != nil {
		return model.CheckResult{
			ID:      c.ID(),
			Message: fmt.Sprintf("Manifest is not valid: %v", err),
			Status:  model.CheckStatusError,
		}
	}

	var asking []string
	machines := map[string]bool{}
	for _, w := range c.Manifest.Workloads {
		for _, m := range w.Machines {
			machines[m] = true
		}
		for _, key := range w.Ask {
			if _, ok := w.Config[key]; !ok {
				asking = append(asking, w.Name+"."+key)
			}
		}
	}

	if len(asking) > 0 {
		sort.Strings(asking)
		return model.CheckResult{
			ID:      c.ID(),
			Message: fmt.Sprintf("Manifest needs values for: %s", strings.Join(asking, ", ")),
			Status:  model.CheckStatusWarning,
		}
	}

	return model.CheckResult{
		ID:      c.ID(),
		Message: fmt.Sprintf("Manifest has %d workloads across %d machines", len(c.Manifest.Workloads), len(machines)),
		Status:  model.CheckStatusOK,
	}
}
