package eftable

import (
	"github.com/efsolve/efsolve/pkg/terms"
)

// distinctElements builds the pairwise-distinctness constraint over a
// witness inventory; fewer than two known values need no constraint.
func (t *Table) distinctElements(ws []terms.Term) terms.Term {
	if len(ws) < 2 {
		return t.terms.True()
	}
	return t.terms.Distinct(ws...)
}

// DistinctConstraint asserts that the known witnesses of every
// uninterpreted type are pairwise distinct, conjoined across types.
func (t *Table) DistinctConstraint() terms.Term {
	result := t.terms.True()
	for _, tau := range t.typeOrder {
		if !t.terms.TypeIsUninterpreted(tau) {
			continue
		}
		result = t.terms.And(result, t.distinctElements(t.typeValues[tau]))
	}
	return result
}

// DistinctConstraintFor is DistinctConstraint restricted to the
// uninterpreted types of the given terms, which are grouped into a
// temporary per-type inventory in argument order.
func (t *Table) DistinctConstraintFor(vars []terms.Term) terms.Term {
	grouped := make(map[terms.Type][]terms.Term)
	var order []terms.Type
	for _, x := range vars {
		tau := t.terms.TypeOf(x)
		if !t.terms.TypeIsUninterpreted(tau) {
			continue
		}
		if _, ok := grouped[tau]; !ok {
			order = append(order, tau)
		}
		grouped[tau] = append(grouped[tau], x)
	}

	result := t.terms.True()
	for _, tau := range order {
		result = t.terms.And(result, t.distinctElements(grouped[tau]))
	}
	return result
}

// EnumerationConstraint asserts that each uninterpreted-type term in
// vars equals one of its type's known witnesses. With a non-negative
// bound, witnesses whose dependency rank exceeds the bound are
// excluded, throttling enumeration to cheap candidates.
func (t *Table) EnumerationConstraint(vars []terms.Term, bound int) terms.Term {
	result := t.terms.True()
	for _, x := range vars {
		tau := t.terms.TypeOf(x)
		if !t.terms.TypeIsUninterpreted(tau) {
			continue
		}
		ws, ok := t.typeValues[tau]
		if !ok {
			continue
		}
		eqs := make([]terms.Term, 0, len(ws))
		for _, w := range ws {
			if bound >= 0 {
				if p, known := t.priority[w]; known && p > uint32(bound) {
					continue
				}
			}
			eqs = append(eqs, t.terms.Eq(x, w))
		}
		result = t.terms.And(result, t.terms.Or(eqs...))
	}
	return result
}
