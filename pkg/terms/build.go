package terms

import (
	"fmt"
	"math/big"
)

// True returns the boolean constant true.
func (tbl *Table) True() Term {
	return termOf(0)
}

// False returns the boolean constant false.
func (tbl *Table) False() Term {
	return tbl.True().Not()
}

// NewConstant mints a fresh free constant of the given type. Repeated
// calls with the same name return distinct terms; names exist for
// human debugging only.
func (tbl *Table) NewConstant(name string, tau Type) Term {
	if tbl.TypeKindOf(tau) == TypeInvalid {
		tbl.recordErr(fmt.Errorf("constant %q of invalid type", name))
		return NullTerm
	}
	return tbl.fresh(nodeKey{Kind: KindConstant, Type: tau, Name: name})
}

// NewVariable mints a fresh bound variable of the given type for use
// under a quantifier.
func (tbl *Table) NewVariable(name string, tau Type) Term {
	if tbl.TypeKindOf(tau) == TypeInvalid {
		tbl.recordErr(fmt.Errorf("variable %q of invalid type", name))
		return NullTerm
	}
	return tbl.fresh(nodeKey{Kind: KindVariable, Type: tau, Name: name})
}

// Rational interns the rational constant denoted by num, which may be
// any numeral big.Rat accepts ("5", "-1/3", "0.25").
func (tbl *Table) Rational(num string) Term {
	r, ok := new(big.Rat).SetString(num)
	if !ok {
		tbl.recordErr(fmt.Errorf("bad rational numeral %q", num))
		return NullTerm
	}
	return tbl.intern(nodeKey{Kind: KindRational, Type: tbl.rationalType, Num: r.RatString()})
}

// Bitvector interns the bitvector constant written as a binary string
// of '0' and '1' characters, most significant bit first. The width is
// the string length.
func (tbl *Table) Bitvector(bits string) Term {
	if len(bits) == 0 {
		tbl.recordErr(fmt.Errorf("empty bitvector constant"))
		return NullTerm
	}
	for _, c := range bits {
		if c != '0' && c != '1' {
			tbl.recordErr(fmt.Errorf("bad bitvector constant %q", bits))
			return NullTerm
		}
	}
	tau := tbl.BitvectorType(uint32(len(bits)))
	return tbl.intern(nodeKey{Kind: KindBitvector, Type: tau, Num: bits})
}

// Eq returns the equality of l and r, which must share a type.
// Boolean equality denotes iff.
func (tbl *Table) Eq(l, r Term) Term {
	if tbl.TypeOf(l) != tbl.TypeOf(r) || tbl.TypeOf(l) == NullType {
		tbl.recordErr(fmt.Errorf("eq over mismatched types: %s, %s", tbl.String(l), tbl.String(r)))
		return NullTerm
	}
	if l == r {
		return tbl.True()
	}
	return tbl.intern(nodeKey{Kind: KindEq, Type: tbl.boolType, Children: []Term{l, r}})
}

// Distinct returns the pairwise-distinctness atom over args, which
// must number at least two and share a type.
func (tbl *Table) Distinct(args ...Term) Term {
	if len(args) < 2 {
		tbl.recordErr(fmt.Errorf("distinct needs at least two arguments"))
		return NullTerm
	}
	tau := tbl.TypeOf(args[0])
	for _, a := range args[1:] {
		if tbl.TypeOf(a) != tau {
			tbl.recordErr(fmt.Errorf("distinct over mismatched types"))
			return NullTerm
		}
	}
	return tbl.intern(nodeKey{Kind: KindDistinct, Type: tbl.boolType, Children: append([]Term(nil), args...)})
}

// Or returns the n-ary disjunction of args. The empty disjunction is
// false; true operands short-circuit and false operands drop out.
func (tbl *Table) Or(args ...Term) Term {
	kept := make([]Term, 0, len(args))
	for _, a := range args {
		if !tbl.IsBoolean(a) {
			tbl.recordErr(fmt.Errorf("or over non-boolean %s", tbl.String(a)))
			return NullTerm
		}
		switch a {
		case tbl.True():
			return tbl.True()
		case tbl.False():
			continue
		}
		kept = append(kept, a)
	}
	switch len(kept) {
	case 0:
		return tbl.False()
	case 1:
		return kept[0]
	}
	return tbl.intern(nodeKey{Kind: KindOr, Type: tbl.boolType, Children: kept})
}

// And returns the n-ary conjunction of args, encoded as a negated
// disjunction so that no dedicated kind is needed.
func (tbl *Table) And(args ...Term) Term {
	neg := make([]Term, len(args))
	for i, a := range args {
		neg[i] = a.Not()
	}
	return tbl.Or(neg...).Not()
}

// Implies returns (l => r).
func (tbl *Table) Implies(l, r Term) Term {
	return tbl.Or(l.Not(), r)
}

// Xor returns the n-ary exclusive or of args.
func (tbl *Table) Xor(args ...Term) Term {
	if len(args) == 0 {
		tbl.recordErr(fmt.Errorf("xor needs at least one argument"))
		return NullTerm
	}
	for _, a := range args {
		if !tbl.IsBoolean(a) {
			tbl.recordErr(fmt.Errorf("xor over non-boolean %s", tbl.String(a)))
			return NullTerm
		}
	}
	if len(args) == 1 {
		return args[0]
	}
	return tbl.intern(nodeKey{Kind: KindXor, Type: tbl.boolType, Children: append([]Term(nil), args...)})
}

// Ite returns (if cond then thn else els). The branches must share a
// type, which becomes the type of the result.
func (tbl *Table) Ite(cond, thn, els Term) Term {
	if !tbl.IsBoolean(cond) {
		tbl.recordErr(fmt.Errorf("ite condition %s is not boolean", tbl.String(cond)))
		return NullTerm
	}
	tau := tbl.TypeOf(thn)
	if tau == NullType || tau != tbl.TypeOf(els) {
		tbl.recordErr(fmt.Errorf("ite branches have mismatched types"))
		return NullTerm
	}
	return tbl.intern(nodeKey{Kind: KindIte, Type: tau, Children: []Term{cond, thn, els}})
}

// App returns the application of fn to args. fn must have a function
// type whose domain matches the argument types.
func (tbl *Table) App(fn Term, args ...Term) Term {
	tau := tbl.TypeOf(fn)
	if !tbl.TypeIsFunction(tau) {
		tbl.recordErr(fmt.Errorf("applying non-function %s", tbl.String(fn)))
		return NullTerm
	}
	dom := tbl.Domain(tau)
	if len(args) != len(dom) {
		tbl.recordErr(fmt.Errorf("%s expects %d arguments, got %d", tbl.String(fn), len(dom), len(args)))
		return NullTerm
	}
	for i, a := range args {
		if tbl.TypeOf(a) != dom[i] {
			tbl.recordErr(fmt.Errorf("argument %d of %s has type %s, want %s",
				i, tbl.String(fn), tbl.TypeString(tbl.TypeOf(a)), tbl.TypeString(dom[i])))
			return NullTerm
		}
	}
	children := make([]Term, 0, len(args)+1)
	children = append(children, fn)
	children = append(children, args...)
	return tbl.intern(nodeKey{Kind: KindApp, Type: tbl.Range(tau), Children: children})
}

// Forall returns the universal quantification of body over vars. The
// body is the last child, after the bound variables, matching the
// layout the skolemizer destructures.
func (tbl *Table) Forall(vars []Term, body Term) Term {
	if len(vars) == 0 {
		tbl.recordErr(fmt.Errorf("forall with no bound variables"))
		return NullTerm
	}
	for _, v := range vars {
		if tbl.Kind(v) != KindVariable {
			tbl.recordErr(fmt.Errorf("forall binder %s is not a variable", tbl.String(v)))
			return NullTerm
		}
	}
	if !tbl.IsBoolean(body) {
		tbl.recordErr(fmt.Errorf("forall body %s is not boolean", tbl.String(body)))
		return NullTerm
	}
	children := make([]Term, 0, len(vars)+1)
	children = append(children, vars...)
	children = append(children, body)
	return tbl.intern(nodeKey{Kind: KindForall, Type: tbl.boolType, Children: children})
}

// Exists returns the existential quantification of body over vars,
// encoded as (not (forall vars (not body))).
func (tbl *Table) Exists(vars []Term, body Term) Term {
	return tbl.Forall(vars, body.Not()).Not()
}

// BvArray returns the bitvector whose bits are the given boolean
// terms, most significant first.
func (tbl *Table) BvArray(bits ...Term) Term {
	if len(bits) == 0 {
		tbl.recordErr(fmt.Errorf("bv-array with no bits"))
		return NullTerm
	}
	for _, b := range bits {
		if !tbl.IsBoolean(b) {
			tbl.recordErr(fmt.Errorf("bv-array bit %s is not boolean", tbl.String(b)))
			return NullTerm
		}
	}
	tau := tbl.BitvectorType(uint32(len(bits)))
	return tbl.intern(nodeKey{Kind: KindBvArray, Type: tau, Children: append([]Term(nil), bits...)})
}

func (tbl *Table) bvBinary(kind Kind, l, r Term) Term {
	tau := tbl.TypeOf(l)
	if tbl.TypeKindOf(tau) != TypeBitvector || tbl.TypeOf(r) != tau {
		tbl.recordErr(fmt.Errorf("%s over mismatched bitvectors: %s, %s", kind, tbl.String(l), tbl.String(r)))
		return NullTerm
	}
	resType := tau
	switch kind {
	case KindBvGe, KindBvSge:
		resType = tbl.boolType
	}
	return tbl.intern(nodeKey{Kind: kind, Type: resType, Children: []Term{l, r}})
}

// BvDiv returns the unsigned quotient of two same-width bitvectors.
func (tbl *Table) BvDiv(l, r Term) Term { return tbl.bvBinary(KindBvDiv, l, r) }

// BvRem returns the unsigned remainder.
func (tbl *Table) BvRem(l, r Term) Term { return tbl.bvBinary(KindBvRem, l, r) }

// BvSdiv returns the signed quotient.
func (tbl *Table) BvSdiv(l, r Term) Term { return tbl.bvBinary(KindBvSdiv, l, r) }

// BvSrem returns the signed remainder (sign of the dividend).
func (tbl *Table) BvSrem(l, r Term) Term { return tbl.bvBinary(KindBvSrem, l, r) }

// BvSmod returns the signed remainder (sign of the divisor).
func (tbl *Table) BvSmod(l, r Term) Term { return tbl.bvBinary(KindBvSmod, l, r) }

// BvShl returns the left shift of l by r.
func (tbl *Table) BvShl(l, r Term) Term { return tbl.bvBinary(KindBvShl, l, r) }

// BvLshr returns the logical right shift of l by r.
func (tbl *Table) BvLshr(l, r Term) Term { return tbl.bvBinary(KindBvLshr, l, r) }

// BvAshr returns the arithmetic right shift of l by r.
func (tbl *Table) BvAshr(l, r Term) Term { return tbl.bvBinary(KindBvAshr, l, r) }

// BvGe returns the unsigned comparison atom (l >= r).
func (tbl *Table) BvGe(l, r Term) Term { return tbl.bvBinary(KindBvGe, l, r) }

// BvSge returns the signed comparison atom (l >= r).
func (tbl *Table) BvSge(l, r Term) Term { return tbl.bvBinary(KindBvSge, l, r) }
