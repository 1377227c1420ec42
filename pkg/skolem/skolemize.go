// Package skolem implements existential elimination for the EF
// solver: a polarity-aware negation-normal-form rewrite that replaces
// each existentially bound variable with an application of a fresh
// function symbol to the universal variables in scope.
package skolem

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/efsolve/efsolve/pkg/terms"
)

// Skolem pairs a fresh function symbol with its application to the
// in-scope universal variables. Under an empty scope the symbol is a
// nullary constant and App equals Func.
type Skolem struct {
	Func terms.Term
	App  terms.Term
}

// Skolemizer rewrites formulas into negation normal form with no
// existential quantifiers. One rewrite must complete before another
// starts on the same instance: the universal-scope stack is not
// reentrant. Constructed terms are owned by the shared term table.
type Skolemizer struct {
	terms    *terms.Table
	bindings *Bindings
	counter  *Counter
	logger   *logrus.Entry

	flattenIte bool
	flattenIff bool

	// scope is the stack of universal variables currently in
	// scope; it is empty between rewrites.
	scope []terms.Term
}

type Option func(sk *Skolemizer) error

// WithBindings shares the analyzer-owned existential bindings.
func WithBindings(b *Bindings) Option {
	return func(sk *Skolemizer) error {
		sk.bindings = b
		return nil
	}
}

// WithCounter shares the session's fresh-name counter.
func WithCounter(c *Counter) Option {
	return func(sk *Skolemizer) error {
		sk.counter = c
		return nil
	}
}

// FlattenIte enables rewriting boolean if-then-else terms into
// implication pairs, exposing quantifiers nested inside the branches.
func FlattenIte(enabled bool) Option {
	return func(sk *Skolemizer) error {
		sk.flattenIte = enabled
		return nil
	}
}

// FlattenIff enables rewriting boolean equality into implication
// pairs, exposing quantifiers nested inside either side.
func FlattenIff(enabled bool) Option {
	return func(sk *Skolemizer) error {
		sk.flattenIff = enabled
		return nil
	}
}

// WithLogger sets the logger used for debug traces.
func WithLogger(logger *logrus.Entry) Option {
	return func(sk *Skolemizer) error {
		sk.logger = logger
		return nil
	}
}

// New returns a Skolemizer over the given term table.
func New(tbl *terms.Table, options ...Option) (*Skolemizer, error) {
	sk := &Skolemizer{terms: tbl}
	for _, option := range append(options, defaults...) {
		if err := option(sk); err != nil {
			return nil, err
		}
	}
	return sk, nil
}

var defaults = []Option{
	func(sk *Skolemizer) error {
		if sk.bindings == nil {
			sk.bindings = NewBindings()
		}
		return nil
	},
	func(sk *Skolemizer) error {
		if sk.counter == nil {
			sk.counter = &Counter{}
		}
		return nil
	},
	func(sk *Skolemizer) error {
		if sk.logger == nil {
			l := logrus.New()
			l.SetOutput(io.Discard)
			sk.logger = logrus.NewEntry(l)
		}
		return nil
	},
}

// Bindings returns the existential bindings the skolemizer writes to.
func (sk *Skolemizer) Bindings() *Bindings {
	return sk.bindings
}

// Skolemize rewrites t into an equisatisfiable quantifier-free
// formula. Universal quantifiers are dropped, their variables left
// free as implicit scope; each eliminated existential becomes an
// application of a fresh symbol to the universal variables enclosing
// it.
func (sk *Skolemizer) Skolemize(t terms.Term) (terms.Term, error) {
	if len(sk.scope) != 0 {
		return terms.NullTerm, fmt.Errorf("skolemizer reentered with %d universals still in scope", len(sk.scope))
	}
	result, err := sk.rewrite(t)
	sk.scope = sk.scope[:0]
	if err != nil {
		return terms.NullTerm, err
	}
	if err := sk.terms.Err(); err != nil {
		return terms.NullTerm, err
	}
	return result, nil
}

func (sk *Skolemizer) rewrite(t terms.Term) (terms.Term, error) {
	if sk.terms.IsAtomic(t.Positive()) {
		return t, nil
	}
	if t.IsNeg() {
		return sk.rewriteNegative(t.Positive())
	}
	return sk.rewritePositive(t)
}

// rewriteNegative handles (not p). OR distributes by De Morgan,
// FORALL is the existential case, and the flag-gated ITE/IFF
// flattenings expose quantifiers hidden inside boolean structure.
func (sk *Skolemizer) rewriteNegative(p terms.Term) (terms.Term, error) {
	c := sk.terms.Children(p)
	switch sk.terms.Kind(p) {
	case terms.KindIte:
		if sk.flattenIte && sk.terms.IsBoolean(c[1]) {
			// not (ite C A B) becomes (C => not A) and (not C => not B)
			u, err := sk.rewrite(sk.terms.Implies(c[0], c[1].Not()))
			if err != nil {
				return terms.NullTerm, err
			}
			v, err := sk.rewrite(sk.terms.Implies(c[0].Not(), c[2].Not()))
			if err != nil {
				return terms.NullTerm, err
			}
			return sk.terms.And(u, v), nil
		}

	case terms.KindEq:
		if sk.flattenIff && sk.terms.IsBoolean(c[0]) {
			// not (iff A B) becomes (not (A => B)) or (not (B => A))
			u, err := sk.rewrite(sk.terms.Implies(c[0], c[1]).Not())
			if err != nil {
				return terms.NullTerm, err
			}
			v, err := sk.rewrite(sk.terms.Implies(c[1], c[0]).Not())
			if err != nil {
				return terms.NullTerm, err
			}
			return sk.terms.Or(u, v), nil
		}

	case terms.KindOr:
		// not (or a ...) becomes (and (not a) ...)
		rewritten := make([]terms.Term, len(c))
		for i, a := range c {
			var err error
			rewritten[i], err = sk.rewrite(a.Not())
			if err != nil {
				return terms.NullTerm, err
			}
		}
		return sk.terms.And(rewritten...), nil

	case terms.KindForall:
		// not (forall x ... body) is the existential case
		body, err := sk.eliminate(p, sk.scope)
		if err != nil {
			return terms.NullTerm, err
		}
		return sk.rewrite(body)
	}

	result, err := sk.rebuildChildren(p)
	if err != nil {
		return terms.NullTerm, err
	}
	return result.Not(), nil
}

// rewritePositive handles the un-negated polarity. A universal
// quantifier contributes its variables to the scope stack for the
// extent of its body.
func (sk *Skolemizer) rewritePositive(p terms.Term) (terms.Term, error) {
	c := sk.terms.Children(p)
	switch sk.terms.Kind(p) {
	case terms.KindIte:
		if sk.flattenIte && sk.terms.IsBoolean(c[1]) {
			// (ite C A B) becomes (C => A) and (not C => B)
			u, err := sk.rewrite(sk.terms.Implies(c[0], c[1]))
			if err != nil {
				return terms.NullTerm, err
			}
			v, err := sk.rewrite(sk.terms.Implies(c[0].Not(), c[2]))
			if err != nil {
				return terms.NullTerm, err
			}
			return sk.terms.And(u, v), nil
		}

	case terms.KindEq:
		if sk.flattenIff && sk.terms.IsBoolean(c[0]) {
			// (iff A B) becomes (A => B) and (B => A)
			u, err := sk.rewrite(sk.terms.Implies(c[0], c[1]))
			if err != nil {
				return terms.NullTerm, err
			}
			v, err := sk.rewrite(sk.terms.Implies(c[1], c[0]))
			if err != nil {
				return terms.NullTerm, err
			}
			return sk.terms.And(u, v), nil
		}

	case terms.KindForall:
		return sk.rewriteForall(p, c)
	}

	return sk.rebuildChildren(p)
}

// rewriteForall drops the universal quantifier: its variables become
// implicit scope for the extent of the body, and every skolem symbol
// introduced underneath is applied to them. The bound variables remain
// free in the result.
func (sk *Skolemizer) rewriteForall(p terms.Term, c []terms.Term) (terms.Term, error) {
	vars := c[:len(c)-1]
	body := c[len(c)-1]

	depth := len(sk.scope)
	sk.scope = append(sk.scope, vars...)
	// the scope is strictly nested: restore it even when the
	// recursion fails partway
	defer func() {
		sk.scope = sk.scope[:depth]
	}()

	return sk.rewrite(body)
}

// rebuildChildren is the generic case: rewrite every child, then
// reconstruct the same kind from the results.
func (sk *Skolemizer) rebuildChildren(p terms.Term) (terms.Term, error) {
	children := sk.terms.Children(p)
	rewritten := make([]terms.Term, len(children))
	for i, c := range children {
		var err error
		rewritten[i], err = sk.rewrite(c)
		if err != nil {
			return terms.NullTerm, err
		}
	}
	return sk.terms.Rebuild(p, rewritten)
}

// eliminate removes the quantifier of a negated FORALL term p,
// substituting every bound variable by its skolem application and
// returning the negated body.
func (sk *Skolemizer) eliminate(p terms.Term, scope []terms.Term) (terms.Term, error) {
	children := sk.terms.Children(p)
	vars := children[:len(children)-1]
	body := children[len(children)-1].Not()
	return sk.eliminateVars(vars, body, scope)
}

// eliminateVars substitutes skolem applications for co-bound
// existentials in a single simultaneous pass, so that one replacement
// can never capture another.
func (sk *Skolemizer) eliminateVars(vars []terms.Term, body terms.Term, scope []terms.Term) (terms.Term, error) {
	repls := make([]terms.Term, len(vars))
	for i, x := range vars {
		s := sk.SkolemTerm(x, scope)
		repls[i] = s.App
		if err := sk.bindings.register(x, s.Func, len(scope) > 0); err != nil {
			if rbe, ok := err.(*RedundantBindingError); ok {
				rbe.Rendered = sk.terms.String(x)
			}
			return terms.NullTerm, err
		}
		sk.logger.WithFields(logrus.Fields{
			"var":    sk.terms.String(x),
			"skolem": sk.terms.String(s.App),
		}).Debug("eliminated existential")
	}
	return sk.terms.Substitute(body, vars, repls)
}

// SkolemTerm builds the fresh symbol that witnesses x under the given
// universal scope: a function from the scope variables' types to x's
// type, or a plain constant when the scope is empty. Naming is
// deterministic given the counter state so that re-runs reproduce.
func (sk *Skolemizer) SkolemTerm(x terms.Term, scope []terms.Term) Skolem {
	name := fmt.Sprintf("skolem%d_%s", sk.counter.Next(), sk.terms.Name(x))
	if len(scope) == 0 {
		fn := sk.terms.NewConstant(name, sk.terms.TypeOf(x))
		return Skolem{Func: fn, App: fn}
	}
	dom := make([]terms.Type, len(scope))
	for i, u := range scope {
		dom[i] = sk.terms.TypeOf(u)
	}
	fn := sk.terms.NewConstant(name, sk.terms.FunctionType(dom, sk.terms.TypeOf(x)))
	return Skolem{Func: fn, App: sk.terms.App(fn, scope...)}
}

// AddExistentialsAt eliminates the quantifier of a negated FORALL
// embedded at some position of a larger formula, reconstructing the
// enclosing universal scope by walking the parent map upward from t.
// The rest of the NNF rewrite is the caller's concern: the returned
// body is not recursed into. parents is a plain lookup table of term
// position to enclosing position, used only for this upward walk.
func (sk *Skolemizer) AddExistentialsAt(t terms.Term, toplevel bool, parents map[terms.Term]terms.Term) (terms.Term, error) {
	p := t.Positive()
	if !t.IsNeg() || sk.terms.Kind(p) != terms.KindForall {
		return terms.NullTerm, fmt.Errorf("add existentials: %s is not a negated universal", sk.terms.String(t))
	}

	var scope []terms.Term
	if !toplevel {
		for cur, ok := parents[t]; ok; cur, ok = parents[cur] {
			if sk.terms.Kind(cur) == terms.KindForall && !cur.IsNeg() {
				c := sk.terms.Children(cur)
				scope = append(scope, c[:len(c)-1]...)
			}
		}
	}

	body, err := sk.eliminate(p, scope)
	if err != nil {
		return terms.NullTerm, err
	}
	if err := sk.terms.Err(); err != nil {
		return terms.NullTerm, err
	}
	return body, nil
}
