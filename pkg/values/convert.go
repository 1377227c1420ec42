package values

import (
	"fmt"

	"github.com/efsolve/efsolve/pkg/terms"
)

// Converter produces a canonical witness term for a semantic value.
// Implementations are leaf-level and stateless: memoizing conversions
// so that one value yields one term is the caller's responsibility,
// not the converter's.
type Converter interface {
	Convert(v Value) (terms.Term, error)
}

// UnconvertibleValueError reports a value the converter cannot encode
// as a term.
type UnconvertibleValueError struct {
	Value Value
	Kind  Kind
}

func (e *UnconvertibleValueError) Error() string {
	return fmt.Sprintf("cannot convert %s value %d to a term", e.Kind, e.Value)
}

// TermConverter is the default Converter over a Store and a term
// table. Uninterpreted and function values convert to fresh witness
// constants, so callers that need one term per value must route
// conversions through their own memo.
type TermConverter struct {
	store *Store
	terms *terms.Table
}

// NewTermConverter returns a Converter minting witness terms into
// tbl.
func NewTermConverter(store *Store, tbl *terms.Table) *TermConverter {
	return &TermConverter{store: store, terms: tbl}
}

// Convert implements Converter.
func (c *TermConverter) Convert(v Value) (terms.Term, error) {
	switch c.store.Kind(v) {
	case KindBoolean:
		if c.store.BoolValue(v) {
			return c.terms.True(), nil
		}
		return c.terms.False(), nil
	case KindRational:
		return c.terms.Rational(c.store.Num(v)), nil
	case KindBitvector:
		return c.terms.Bitvector(c.store.Num(v)), nil
	case KindUninterpreted:
		tau := c.store.UninterpretedType(v)
		name := fmt.Sprintf("%s!%d", c.terms.TypeName(tau), c.store.UninterpretedIndex(v))
		return c.terms.NewConstant(name, tau), nil
	case KindFunction:
		tau := c.store.FunctionType(v)
		name := fmt.Sprintf("fun!%d", v)
		return c.terms.NewConstant(name, tau), nil
	}
	return terms.NullTerm, &UnconvertibleValueError{Value: v, Kind: c.store.Kind(v)}
}
