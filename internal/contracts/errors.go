// Package contracts validates proposed changes to models before services
// persist them. A contract never touches storage: callers hand it
// everything it needs to decide.
package contracts

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Code is a machine readable validation error
type Code string

const (
	CodeBlank                Code = "blank"
	CodeTooLong              Code = "too_long"
	CodeTooShort             Code = "too_short"
	CodeInvalid              Code = "invalid"
	CodeInclusion            Code = "inclusion"
	CodeTaken                Code = "taken"
	CodeDueBeforeStart       Code = "greater_than_or_equal_to_start_date"
	CodeCantLinkToAncestor   Code = "cant_link_to_ancestor"
	CodeCantLinkToDescendant Code = "cant_link_to_descendant"
	CodeCircularDependency   Code = "circular_dependency"
	CodeNotAWorkingDay       Code = "not_a_working_day"
	CodeReadonly             Code = "error_readonly"
	CodeUnauthorized         Code = "error_unauthorized"
	CodeNotFound             Code = "not_found"
	CodeStale                Code = "stale"
)

// AttrBase collects errors that are not tied to a single attribute
const AttrBase = "base"

// Errors is an ordered attribute -> codes collection. The zero value is
// ready to use.
type Errors struct {
	order  []string
	byAttr map[string][]Code
}

// NewErrors returns an empty collection
func NewErrors() *Errors { return &Errors{} }

// Add records code on attr. Adding the same code twice is a no-op.
func (e *Errors) Add(attr string, code Code) {
	if e.byAttr == nil {
		e.byAttr = make(map[string][]Code)
	}
	existing, ok := e.byAttr[attr]
	if !ok {
		e.order = append(e.order, attr)
	}
	for _, c := range existing {
		if c == code {
			return
		}
	}
	e.byAttr[attr] = append(existing, code)
}

// On returns the codes recorded for attr
func (e *Errors) On(attr string) []Code {
	if e == nil {
		return nil
	}
	return e.byAttr[attr]
}

// Has reports whether code was recorded on attr
func (e *Errors) Has(attr string, code Code) bool {
	for _, c := range e.On(attr) {
		if c == code {
			return true
		}
	}
	return false
}

// Empty reports whether no error was recorded
func (e *Errors) Empty() bool { return e == nil || len(e.order) == 0 }

// Attributes returns the attributes with errors in insertion order
func (e *Errors) Attributes() []string {
	if e == nil {
		return nil
	}
	return append([]string(nil), e.order...)
}

// Merge appends every error of other
func (e *Errors) Merge(other *Errors) {
	if other == nil {
		return
	}
	for _, attr := range other.order {
		for _, code := range other.byAttr[attr] {
			e.Add(attr, code)
		}
	}
}

// Error renders the collection as "attr: code, code; attr: code"
func (e *Errors) Error() string {
	if e.Empty() {
		return "no validation errors"
	}
	parts := make([]string, 0, len(e.order))
	for _, attr := range e.order {
		codes := make([]string, 0, len(e.byAttr[attr]))
		for _, c := range e.byAttr[attr] {
			codes = append(codes, string(c))
		}
		parts = append(parts, fmt.Sprintf("%s: %s", attr, strings.Join(codes, ", ")))
	}
	return strings.Join(parts, "; ")
}

// FieldError is one attribute with its codes, used for JSON output
type FieldError struct {
	Attribute string `json:"attribute"`
	Codes     []Code `json:"codes"`
}

// Details lists the errors in insertion order
func (e *Errors) Details() []FieldError {
	if e == nil {
		return nil
	}
	out := make([]FieldError, 0, len(e.order))
	for _, attr := range e.order {
		out = append(out, FieldError{Attribute: attr, Codes: append([]Code(nil), e.byAttr[attr]...)})
	}
	return out
}

// MarshalJSON keeps the insertion order of attributes
func (e *Errors) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Details())
}

// AsErrors extracts an *Errors from err's chain
func AsErrors(err error) (*Errors, bool) {
	var e *Errors
	if errors.As(err, &e) && !e.Empty() {
		return e, true
	}
	return nil, false
}

// single builds a collection holding one error
func single(attr string, code Code) *Errors {
	e := NewErrors()
	e.Add(attr, code)
	return e
}
