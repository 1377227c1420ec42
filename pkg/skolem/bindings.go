package skolem

import (
	"fmt"

	"github.com/efsolve/efsolve/pkg/terms"
)

// Counter generates unique fresh-symbol names. It is an explicit
// handle rather than package state so that independent EF sessions
// never share numbering; share one Counter across the skolemizers of
// a single session.
type Counter struct {
	n uint64
}

// Next returns the next counter value, starting at 1.
func (c *Counter) Next() uint64 {
	c.n++
	return c.n
}

// Value returns the number of symbols named so far.
func (c *Counter) Value() uint64 {
	return c.n
}

// RedundantBindingError reports an existential variable encountered
// twice, which means the same quantifier was eliminated twice and the
// enclosing analysis is defective.
type RedundantBindingError struct {
	Var      terms.Term
	Rendered string
}

func (e *RedundantBindingError) Error() string {
	return fmt.Sprintf("existential %s already bound", e.Rendered)
}

// Bindings records, per existential variable, the symbol it resolved
// to: a fresh nullary constant when it was eliminated under an empty
// universal scope (a genuine existential the outer EF search still
// owns), or the fresh skolem function that replaced it. Bindings are
// owned by the enclosing analyzer, not the skolemizer.
type Bindings struct {
	order []terms.Term
	m     map[terms.Term]binding
}

type binding struct {
	symbol     terms.Term
	skolemized bool
}

// NewBindings returns an empty binding set.
func NewBindings() *Bindings {
	return &Bindings{m: make(map[terms.Term]binding)}
}

func (b *Bindings) register(x, symbol terms.Term, skolemized bool) error {
	if _, ok := b.m[x]; ok {
		return &RedundantBindingError{Var: x}
	}
	b.m[x] = binding{symbol: symbol, skolemized: skolemized}
	b.order = append(b.order, x)
	return nil
}

// Lookup returns the symbol bound to x and whether x was skolemized
// (replaced by a function of in-scope universals) rather than kept as
// a genuine existential.
func (b *Bindings) Lookup(x terms.Term) (symbol terms.Term, skolemized, ok bool) {
	bd, ok := b.m[x]
	return bd.symbol, bd.skolemized, ok
}

// Vars returns the bound existential variables in elimination order.
func (b *Bindings) Vars() []terms.Term {
	return b.order
}

// Existentials returns the symbols of the genuine (unskolemized)
// existentials in elimination order. These are the variables the
// outer candidate search ranges over.
func (b *Bindings) Existentials() []terms.Term {
	var out []terms.Term
	for _, x := range b.order {
		if bd := b.m[x]; !bd.skolemized {
			out = append(out, bd.symbol)
		}
	}
	return out
}

// Len returns the number of bound existentials.
func (b *Bindings) Len() int {
	return len(b.order)
}
