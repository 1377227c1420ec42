package ground

import (
	"fmt"
	"strings"

	"github.com/go-air/gini/inter"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"

	"github.com/efsolve/efsolve/pkg/terms"
)

// QuantifiedFormulaError is returned when a formula still contains a
// quantifier. Ground formulas are quantifier-free; skolemization must
// run first.
type QuantifiedFormulaError struct {
	Rendered string
}

func (e *QuantifiedFormulaError) Error() string {
	return fmt.Sprintf("cannot ground quantified subterm %s", e.Rendered)
}

// NonBooleanAtomError is returned when the boolean skeleton bottoms
// out at a term that is not boolean-typed, which means the input was
// not a formula.
type NonBooleanAtomError struct {
	Rendered string
}

func (e *NonBooleanAtomError) Error() string {
	return fmt.Sprintf("atom %s is not boolean", e.Rendered)
}

type inconsistentAtomMapping []error

func (inconsistentAtomMapping) Error() string {
	return "internal ground solver failure"
}

// atomMapping performs translation between terms and the literals
// that appear in the SAT formula. Boolean structure (or, xor, ite,
// iff, negation) is compiled into the embedded circuit; everything
// below it becomes an atom with its own literal.
type atomMapping struct {
	terms   *terms.Table
	inorder []terms.Term
	atoms   map[z.Lit]terms.Term
	lits    map[terms.Term]z.Lit
	c       *logic.C
	errs    inconsistentAtomMapping
}

func newAtomMapping(tbl *terms.Table) *atomMapping {
	return &atomMapping{
		terms: tbl,
		atoms: make(map[z.Lit]terms.Term),
		lits:  make(map[terms.Term]z.Lit),
		c:     logic.NewC(),
	}
}

// LitOf returns the positive literal for the given atom, assigning a
// fresh one on first sight. Atoms are keyed on their positive phase.
func (d *atomMapping) LitOf(t terms.Term) z.Lit {
	if t.IsNeg() {
		d.errs = append(d.errs, fmt.Errorf("negative term %s used as atom key", d.terms.String(t)))
		t = t.Positive()
	}
	if m, ok := d.lits[t]; ok {
		return m
	}
	m := d.c.Lit()
	d.lits[t] = m
	d.atoms[m] = t
	d.inorder = append(d.inorder, t)
	return m
}

// AtomOf returns the atom corresponding to the provided literal, or
// NullTerm if no such atom exists.
func (d *atomMapping) AtomOf(m z.Lit) terms.Term {
	if t, ok := d.atoms[m]; ok {
		return t
	}
	d.errs = append(d.errs, fmt.Errorf("no atom corresponding to %s", m))
	return terms.NullTerm
}

// compile translates the boolean skeleton of t into the circuit and
// returns the literal standing for t.
func (d *atomMapping) compile(t terms.Term) (z.Lit, error) {
	if t.IsNeg() {
		m, err := d.compile(t.Positive())
		if err != nil {
			return z.LitNull, err
		}
		return m.Not(), nil
	}

	switch d.terms.Kind(t) {
	case terms.KindBool:
		return d.c.T, nil

	case terms.KindOr:
		ms, err := d.compileChildren(t)
		if err != nil {
			return z.LitNull, err
		}
		return d.c.Ors(ms...), nil

	case terms.KindXor:
		ms, err := d.compileChildren(t)
		if err != nil {
			return z.LitNull, err
		}
		acc := d.c.F
		for _, m := range ms {
			acc = d.c.Xor(acc, m)
		}
		return acc, nil

	case terms.KindIte:
		if d.terms.IsBoolean(d.terms.Child(t, 1)) {
			ms, err := d.compileChildren(t)
			if err != nil {
				return z.LitNull, err
			}
			return d.c.Ands(
				d.c.Implies(ms[0], ms[1]),
				d.c.Implies(ms[0].Not(), ms[2]),
			), nil
		}

	case terms.KindEq:
		if d.terms.IsBoolean(d.terms.Child(t, 0)) {
			ms, err := d.compileChildren(t)
			if err != nil {
				return z.LitNull, err
			}
			return d.c.Ands(
				d.c.Implies(ms[0], ms[1]),
				d.c.Implies(ms[1], ms[0]),
			), nil
		}

	case terms.KindForall:
		return z.LitNull, &QuantifiedFormulaError{Rendered: d.terms.String(t)}
	}

	if !d.terms.IsBoolean(t) {
		return z.LitNull, &NonBooleanAtomError{Rendered: d.terms.String(t)}
	}
	return d.LitOf(t), nil
}

func (d *atomMapping) compileChildren(t terms.Term) ([]z.Lit, error) {
	children := d.terms.Children(t)
	ms := make([]z.Lit, len(children))
	for i, c := range children {
		var err error
		ms[i], err = d.compile(c)
		if err != nil {
			return nil, err
		}
	}
	return ms, nil
}

// Error returns a single error value that is an aggregation of all
// errors encountered during an atomMapping's lifetime, or nil if
// there have been none. A non-nil return value likely indicates a bug
// in the compiler rather than a problem with the input.
func (d *atomMapping) Error() error {
	if len(d.errs) == 0 {
		return nil
	}
	s := make([]string, len(d.errs))
	for i, err := range d.errs {
		s[i] = err.Error()
	}
	return fmt.Errorf("%d errors encountered: %s", len(s), strings.Join(s, ", "))
}

// AddConstraints adds the circuit built so far to the solver g.
func (d *atomMapping) AddConstraints(g inter.S) {
	d.c.ToCnf(g)
}

// Atoms returns every atom seen during compilation, in first-seen
// order.
func (d *atomMapping) Atoms() []terms.Term {
	return d.inorder
}
