package terms

import "fmt"

// rebuildFunc reconstructs one composite kind from rewritten
// children. The original term is passed for arity context only.
type rebuildFunc func(tbl *Table, t Term, children []Term) Term

// rebuilders is the closed reconstruction table indexed by kind.
// Every composite kind has exactly one entry; looking up a kind with
// no entry is a caller defect surfaced through Rebuild's error.
var rebuilders = map[Kind]rebuildFunc{
	KindEq: func(tbl *Table, t Term, c []Term) Term {
		return tbl.Eq(c[0], c[1])
	},
	KindDistinct: func(tbl *Table, t Term, c []Term) Term {
		return tbl.Distinct(c...)
	},
	KindOr: func(tbl *Table, t Term, c []Term) Term {
		return tbl.Or(c...)
	},
	KindXor: func(tbl *Table, t Term, c []Term) Term {
		return tbl.Xor(c...)
	},
	KindIte: func(tbl *Table, t Term, c []Term) Term {
		// the result type is recomputed from the rewritten
		// then-branch inside Ite
		return tbl.Ite(c[0], c[1], c[2])
	},
	KindApp: func(tbl *Table, t Term, c []Term) Term {
		return tbl.App(c[0], c[1:]...)
	},
	KindForall: func(tbl *Table, t Term, c []Term) Term {
		return tbl.Forall(c[:len(c)-1], c[len(c)-1])
	},
	KindBvArray: func(tbl *Table, t Term, c []Term) Term {
		return tbl.BvArray(c...)
	},
	KindBvDiv: func(tbl *Table, t Term, c []Term) Term {
		return tbl.BvDiv(c[0], c[1])
	},
	KindBvRem: func(tbl *Table, t Term, c []Term) Term {
		return tbl.BvRem(c[0], c[1])
	},
	KindBvSdiv: func(tbl *Table, t Term, c []Term) Term {
		return tbl.BvSdiv(c[0], c[1])
	},
	KindBvSrem: func(tbl *Table, t Term, c []Term) Term {
		return tbl.BvSrem(c[0], c[1])
	},
	KindBvSmod: func(tbl *Table, t Term, c []Term) Term {
		return tbl.BvSmod(c[0], c[1])
	},
	KindBvShl: func(tbl *Table, t Term, c []Term) Term {
		return tbl.BvShl(c[0], c[1])
	},
	KindBvLshr: func(tbl *Table, t Term, c []Term) Term {
		return tbl.BvLshr(c[0], c[1])
	},
	KindBvAshr: func(tbl *Table, t Term, c []Term) Term {
		return tbl.BvAshr(c[0], c[1])
	},
	KindBvGe: func(tbl *Table, t Term, c []Term) Term {
		return tbl.BvGe(c[0], c[1])
	},
	KindBvSge: func(tbl *Table, t Term, c []Term) Term {
		return tbl.BvSge(c[0], c[1])
	},
}

// Rebuild reconstructs the positive composite term t from the given
// rewritten children, preserving t's kind. Arity mismatches are
// reported through the table's aggregated error.
func (tbl *Table) Rebuild(t Term, children []Term) (Term, error) {
	kind := tbl.Kind(t)
	fn, ok := rebuilders[kind]
	if !ok {
		return NullTerm, fmt.Errorf("no reconstruction for %s term %s", kind, tbl.String(t))
	}
	if len(children) != tbl.NumChildren(t) {
		return NullTerm, fmt.Errorf("reconstructing %s with %d children, want %d",
			tbl.String(t), len(children), tbl.NumChildren(t))
	}
	return fn(tbl, t, children), nil
}
