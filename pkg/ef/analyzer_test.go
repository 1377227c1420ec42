package ef

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efsolve/efsolve/pkg/ground"
	"github.com/efsolve/efsolve/pkg/terms"
	"github.com/efsolve/efsolve/pkg/values"
)

// fakeInner lets a test decide the assignment after seeing the
// skolemized formula.
type fakeInner struct {
	solve func(formula terms.Term) (*ground.Assignment, error)
	got   terms.Term
}

func (f *fakeInner) Solve(_ context.Context, formula terms.Term) (*ground.Assignment, error) {
	f.got = formula
	return f.solve(formula)
}

func TestIterateDerivesRefinement(t *testing.T) {
	tbl := terms.NewTable()
	store := values.NewStore()
	u := tbl.UninterpretedType("U")
	c := tbl.NewConstant("c", u)
	x := tbl.NewVariable("x", u)

	a, err := New(tbl, store)
	require.NoError(t, err)

	// the inner solver answers with an uninterpreted model that
	// maps the skolem constant and c to the same element
	inner := &fakeInner{
		solve: func(formula terms.Term) (*ground.Assignment, error) {
			k := tbl.Child(formula, 0)
			return &ground.Assignment{
				Atoms:  []terms.Term{k, c},
				Values: []values.Value{store.Uninterpreted(u, 0), store.Uninterpreted(u, 0)},
			}, nil
		},
	}

	refinement, err := a.Iterate(context.Background(), tbl.Exists([]terms.Term{x}, tbl.Eq(x, c)), inner)
	require.NoError(t, err)

	// the formula handed to the inner solver is the skolemization
	require.Equal(t, terms.KindEq, tbl.Kind(inner.got))
	k := tbl.Child(inner.got, 0)
	assert.Equal(t, terms.KindConstant, tbl.Kind(k))

	// one shared value: nothing to keep distinct, and the
	// existential is pinned to the single known witness
	assert.Equal(t, tbl.True(), refinement.Distinct)
	require.Equal(t, terms.KindEq, tbl.Kind(refinement.Enumeration))
	assert.Equal(t, k, tbl.Child(refinement.Enumeration, 0))
}

func TestIterateDistinguishesValues(t *testing.T) {
	tbl := terms.NewTable()
	store := values.NewStore()
	u := tbl.UninterpretedType("U")
	c := tbl.NewConstant("c", u)
	x := tbl.NewVariable("x", u)

	a, err := New(tbl, store)
	require.NoError(t, err)

	inner := &fakeInner{
		solve: func(formula terms.Term) (*ground.Assignment, error) {
			k := tbl.Child(formula, 0)
			return &ground.Assignment{
				Atoms:  []terms.Term{k, c},
				Values: []values.Value{store.Uninterpreted(u, 0), store.Uninterpreted(u, 1)},
			}, nil
		},
	}

	refinement, err := a.Iterate(context.Background(), tbl.Exists([]terms.Term{x}, tbl.Eq(x, c)), inner)
	require.NoError(t, err)

	// two distinct elements were observed
	require.Equal(t, terms.KindDistinct, tbl.Kind(refinement.Distinct))
	assert.Len(t, tbl.Children(refinement.Distinct), 2)
	require.Equal(t, terms.KindOr, tbl.Kind(refinement.Enumeration))
	assert.Len(t, tbl.Children(refinement.Enumeration), 2)
}

func TestIterateUnsatPassesThrough(t *testing.T) {
	tbl := terms.NewTable()
	store := values.NewStore()

	a, err := New(tbl, store)
	require.NoError(t, err)

	inner := &fakeInner{
		solve: func(terms.Term) (*ground.Assignment, error) {
			return nil, ground.ErrUnsat
		},
	}

	_, err = a.Iterate(context.Background(), tbl.NewConstant("a", tbl.BoolType()), inner)
	assert.ErrorIs(t, err, ground.ErrUnsat)
}

func TestIterateWithGroundSolver(t *testing.T) {
	tbl := terms.NewTable()
	store := values.NewStore()
	b := tbl.NewConstant("b", tbl.BoolType())
	v := tbl.NewVariable("v", tbl.BoolType())

	a, err := New(tbl, store)
	require.NoError(t, err)
	inner, err := ground.New(tbl, store)
	require.NoError(t, err)

	// boolean-only pipeline: no uninterpreted inventory means
	// trivial refinement constraints
	refinement, err := a.Iterate(context.Background(), tbl.Exists([]terms.Term{v}, tbl.Or(v, b)), inner)
	require.NoError(t, err)
	assert.Equal(t, tbl.True(), refinement.Distinct)
	assert.Equal(t, tbl.True(), refinement.Enumeration)
}

func TestIterateUniversalFormula(t *testing.T) {
	tbl := terms.NewTable()
	store := values.NewStore()
	u := tbl.UninterpretedType("U")
	x := tbl.NewVariable("x", u)
	y := tbl.NewVariable("y", u)

	a, err := New(tbl, store)
	require.NoError(t, err)
	inner, err := ground.New(tbl, store)
	require.NoError(t, err)

	// the universal quantifier is dropped during skolemization, so
	// the skeleton solver sees a single opaque theory atom over the
	// skolem application
	formula := tbl.Forall([]terms.Term{y}, tbl.Exists([]terms.Term{x}, tbl.Eq(x, y)))
	refinement, err := a.Iterate(context.Background(), formula, inner)
	require.NoError(t, err)

	symbol, skolemized, ok := a.Bindings().Lookup(x)
	require.True(t, ok)
	assert.True(t, skolemized)
	assert.Equal(t, tbl.FunctionType([]terms.Type{u}, u), tbl.TypeOf(symbol))

	// no witnessable atoms in the model, so both constraints are
	// trivial
	assert.Equal(t, tbl.True(), refinement.Distinct)
	assert.Equal(t, tbl.True(), refinement.Enumeration)
}
