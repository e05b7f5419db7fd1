package model

import "errors"

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a resource already exists.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotValid is returned when a resource is not valid.
	ErrNotValid = errors.New("not valid")
	// ErrTimeout is returned when a bounded wait expires before its condition holds.
	ErrTimeout = errors.New("timed out")
	// ErrWait is returned when the orchestrator reports units, agents or machines in an error state while waiting.
	ErrWait = errors.New("wait failed")
	// ErrUnavailable is returned when the orchestrator status can't be observed (connectivity, parsing...).
	ErrUnavailable = errors.New("unavailable")
)
