package plan

import (
	"reflect"
	"strings"

	"github.com/wolsen/snap-openstack-sub000/internal/model"
)

// Results are the results of a plan run keyed by the step concrete type, in the order
// the steps were run. They let later steps (or plans) read values produced by
// earlier ones.
type Results struct {
	keys    []string
	results map[string]model.Result
}

// NewResults returns empty results.
func NewResults() *Results {
	return &Results{results: map[string]model.Result{}}
}

// Set stores the result of a step. A step of the same type replaces the previous
// result but keeps its position.
func (r *Results) Set(step Step, res model.Result) {
	key := StepKey(step)
	if _, ok := r.results[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.results[key] = res
}

// Get returns the result of the step type.
func (r *Results) Get(step Step) (model.Result, bool) {
	res, ok := r.results[StepKey(step)]
	return res, ok
}

// Keys returns the step keys in run order.
func (r *Results) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Len returns the number of results.
func (r *Results) Len() int { return len(r.keys) }

// ByKey returns the result stored with the key.
func (r *Results) ByKey(key string) (model.Result, bool) {
	res, ok := r.results[key]
	return res, ok
}

// ResultOf returns the result of the step type T.
func ResultOf[T Step](r *Results) (model.Result, bool) {
	if r == nil {
		return model.Result{}, false
	}
	res, ok := r.results[typeKey(reflect.TypeOf((*T)(nil)).Elem())]
	return res, ok
}

// MessageOf returns the message of the step type T result when it's of type M.
func MessageOf[T Step, M any](r *Results) (M, bool) {
	var zero M
	res, ok := ResultOf[T](r)
	if !ok {
		return zero, false
	}
	m, ok := res.Message.(M)
	if !ok {
		return zero, false
	}
	return m, true
}

// StepKey returns the key used to store the results of a step, the step type import
// path and name (e.g. example.com/stackup/internal/steps.DeployWorkloadStep).
func StepKey(step Step) string {
	return typeKey(reflect.TypeOf(step))
}

// ShortKey returns the key without the import path directories (e.g. steps.DeployWorkloadStep).
// Use it only for display, two step types can share the same short key.
func ShortKey(key string) string {
	return key[strings.LastIndex(key, "/")+1:]
}

func typeKey(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}
