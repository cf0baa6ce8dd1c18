// Package result wraps the outcome of a service call: the primary
// record, the contract errors that prevented the change, and the work
// packages rescheduled as a side effect.
package result

import (
	"github.com/kianm04/OpenProjectEkster-sub016/internal/contracts"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
)

// ServiceResult is returned by every write operation of the services.
// Infrastructure failures are reported through the accompanying error;
// contract violations are reported through Errors.
type ServiceResult[T any] struct {
	Result     T
	Errors     *contracts.Errors
	Dependents []*models.WorkPackage
}

// Success builds a successful result
func Success[T any](v T, dependents ...*models.WorkPackage) *ServiceResult[T] {
	return &ServiceResult[T]{Result: v, Errors: contracts.NewErrors(), Dependents: dependents}
}

// Failure builds a result rejected by a contract
func Failure[T any](errs *contracts.Errors) *ServiceResult[T] {
	if errs == nil {
		errs = contracts.NewErrors()
		errs.Add(contracts.AttrBase, contracts.CodeInvalid)
	}
	return &ServiceResult[T]{Errors: errs}
}

// Success reports whether the change was applied
func (r *ServiceResult[T]) Success() bool {
	return r != nil && r.Errors.Empty()
}

// Failure reports whether a contract rejected the change
func (r *ServiceResult[T]) Failure() bool { return !r.Success() }

// Err returns the contract errors as an error, or nil on success
func (r *ServiceResult[T]) Err() error {
	if r.Success() {
		return nil
	}
	if r == nil {
		errs := contracts.NewErrors()
		errs.Add(contracts.AttrBase, contracts.CodeInvalid)
		return errs
	}
	return r.Errors
}

// AllResults returns the primary result followed by every dependent
func (r *ServiceResult[T]) AllResults() []any {
	if r == nil {
		return nil
	}
	out := make([]any, 0, 1+len(r.Dependents))
	out = append(out, r.Result)
	for _, d := range r.Dependents {
		out = append(out, d)
	}
	return out
}

// Merge folds the dependents and errors of another result into r
func Merge[T, U any](r *ServiceResult[T], other *ServiceResult[U]) {
	if other == nil {
		return
	}
	r.Errors.Merge(other.Errors)
	r.Dependents = appendUnique(r.Dependents, other.Dependents...)
}

// appendUnique adds work packages not yet present by ID. A later copy
// replaces an earlier one so the freshest dates win.
func appendUnique(list []*models.WorkPackage, more ...*models.WorkPackage) []*models.WorkPackage {
	for _, wp := range more {
		replaced := false
		for i, existing := range list {
			if existing.ID == wp.ID {
				list[i] = wp
				replaced = true
				break
			}
		}
		if !replaced {
			list = append(list, wp)
		}
	}
	return list
}
