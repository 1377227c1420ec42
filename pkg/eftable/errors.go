package eftable

import (
	"fmt"

	"github.com/efsolve/efsolve/pkg/terms"
	"github.com/efsolve/efsolve/pkg/values"
)

// The error types below are invariant violations: they indicate a
// malformed model or a defect in the inner solver or value store, not
// expected runtime conditions. Callers abort the EF iteration rather
// than recover; none is transient.

// UnresolvableDependencyError reports that the dependency-resolution
// worklist completed a full cycle without resolving any witness.
type UnresolvableDependencyError struct {
	Witness  terms.Term
	Rendered string
}

func (e *UnresolvableDependencyError) Error() string {
	return fmt.Sprintf("unable to clear dependency for %s", e.Rendered)
}

// CircularRepresentativeError reports that a representative request
// revisited a witness already being resolved on the same call stack.
type CircularRepresentativeError struct {
	Witness  terms.Term
	Rendered string
}

func (e *CircularRepresentativeError) Error() string {
	return fmt.Sprintf("circular dependency while finding a representative for %s", e.Rendered)
}

// MissingRepresentativeError reports a witness with no usable source
// terms, or a representative query issued before resolution
// completed.
type MissingRepresentativeError struct {
	Witness  terms.Term
	Rendered string
}

func (e *MissingRepresentativeError) Error() string {
	return fmt.Sprintf("no representative for %s", e.Rendered)
}

// UnsupportedFunctionDefaultError reports a function value carrying a
// default entry, which the witness-term encoding cannot express.
// Dropping the default would silently under-constrain the candidate
// model, so it is a hard error.
type UnsupportedFunctionDefaultError struct {
	Function terms.Term
	Default  values.Value
	Rendered string
}

func (e *UnsupportedFunctionDefaultError) Error() string {
	return fmt.Sprintf("function %s has a default value in its interpretation", e.Rendered)
}
