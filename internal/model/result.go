package model

import "fmt"

// ResultType is the outcome kind of a step check or execution.
type ResultType int

const (
	ResultCompleted ResultType = iota
	ResultFailed
	ResultSkipped
)

func (r ResultType) String() string {
	switch r {
	case ResultCompleted:
		return "completed"
	case ResultFailed:
		return "failed"
	case ResultSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("unknown(%d)", int(r))
	}
}

// Result is the immutable outcome of a step. Message is optional and can carry
// any value a later step may need (e.g. a generated token or a channel map).
type Result struct {
	Type    ResultType
	Message any
}

// Completed returns a completed result.
func Completed(message any) Result { return Result{Type: ResultCompleted, Message: message} }

// Failed returns a failed result.
func Failed(message any) Result { return Result{Type: ResultFailed, Message: message} }

// Skipped returns a skipped result.
func Skipped(message any) Result { return Result{Type: ResultSkipped, Message: message} }

// IsFailed returns true if the result is a failure.
func (r Result) IsFailed() bool { return r.Type == ResultFailed }

// IsSkipped returns true if the result is a skip.
func (r Result) IsSkipped() bool { return r.Type == ResultSkipped }

// Text renders the result message as a human readable string.
func (r Result) Text() string {
	switch m := r.Message.(type) {
	case nil:
		return ""
	case string:
		return m
	case error:
		return m.Error()
	case fmt.Stringer:
		return m.String()
	default:
		return fmt.Sprintf("%v", m)
	}
}
