package plan

import (
	"context"

	"github.com/wolsen/snap-openstack-sub000/internal/model"
)

// Step is an idempotent unit of work of a plan.
//
// IsSkip is a read only check of the preconditions: it returns skipped when the
// goal is already satisfied, completed when there is work to do and failed when
// the preconditions can't be evaluated. Run makes the changes and is never called
// after IsSkip returned skipped or failed.
//
// Steps must convert their domain failures into failed results. A step that panics
// aborts the whole plan.
type Step interface {
	Name() string
	Description() string
	HasPrompts() bool
	// Prompt asks the user for the step input, only called when HasPrompts is true.
	Prompt(ctx context.Context, p Prompter) error
	IsSkip(ctx context.Context, status Status) model.Result
	Run(ctx context.Context, status Status) model.Result
}

// Plan is an ordered list of steps, the order is the execution order.
type Plan []Step

// BaseStep has the default behavior of a step, concrete steps embed it and
// override what they need.
type BaseStep struct {
	StepName        string
	StepDescription string
}

func (b BaseStep) Name() string                                 { return b.StepName }
func (b BaseStep) Description() string                          { return b.StepDescription }
func (b BaseStep) HasPrompts() bool                             { return false }
func (b BaseStep) Prompt(ctx context.Context, p Prompter) error { return nil }
func (b BaseStep) IsSkip(ctx context.Context, status Status) model.Result {
	return model.Completed(nil)
}

// Prompter asks the user for input.
type Prompter interface {
	Ask(ctx context.Context, question, defaultValue string) (string, error)
	AskSecret(ctx context.Context, question string) (string, error)
	Confirm(ctx context.Context, question string, defaultValue bool) (bool, error)
}

// Status lets a running step report what it's doing.
type Status interface {
	Update(msg string)
}

// StatusHandle is the progress indicator of a step.
type StatusHandle interface {
	Status
	// Pause stops the indicator so the user can be prompted.
	Pause()
	Resume()
	// Done ends the indicator with the step result.
	Done(res model.Result)
}

// UI is the user interface used while running a plan.
type UI interface {
	Prompter
	StartStatus(msg string) StatusHandle
}

// NoopUI is a UI that doesn't show anything and answers every prompt with its default.
const NoopUI = noopUI(0)

type noopUI int

var _ UI = NoopUI

func (noopUI) Ask(ctx context.Context, question, defaultValue string) (string, error) {
	return defaultValue, nil
}

func (noopUI) AskSecret(ctx context.Context, question string) (string, error) { return "", nil }

func (noopUI) Confirm(ctx context.Context, question string, defaultValue bool) (bool, error) {
	return defaultValue, nil
}

func (n noopUI) StartStatus(msg string) StatusHandle { return n }
func (noopUI) Update(msg string)                     {}
func (noopUI) Pause()                                {}
func (noopUI) Resume()                               {}
func (noopUI) Done(res model.Result)                 {}
