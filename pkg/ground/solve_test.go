package ground

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efsolve/efsolve/pkg/terms"
	"github.com/efsolve/efsolve/pkg/values"
)

func newTestSolver(t *testing.T) (*terms.Table, *values.Store, *Solver) {
	t.Helper()
	tbl := terms.NewTable()
	store := values.NewStore()
	s, err := New(tbl, store)
	require.NoError(t, err)
	return tbl, store, s
}

// lookup returns the assigned boolean for an atom, failing the test
// when the atom is missing from the assignment.
func lookup(t *testing.T, store *values.Store, a *Assignment, atom terms.Term) bool {
	t.Helper()
	for i, x := range a.Atoms {
		if x == atom {
			return store.BoolValue(a.Values[i])
		}
	}
	t.Fatalf("atom missing from assignment")
	return false
}

func TestSolveSatisfiable(t *testing.T) {
	tbl, store, s := newTestSolver(t)
	a := tbl.NewConstant("a", tbl.BoolType())
	b := tbl.NewConstant("b", tbl.BoolType())

	got, err := s.Solve(context.Background(), tbl.Or(a, b))
	require.NoError(t, err)
	require.Len(t, got.Atoms, 2)
	assert.True(t, lookup(t, store, got, a) || lookup(t, store, got, b))
}

func TestSolveUnsatisfiable(t *testing.T) {
	tbl, _, s := newTestSolver(t)
	a := tbl.NewConstant("a", tbl.BoolType())

	_, err := s.Solve(context.Background(), tbl.And(a, a.Not()))
	assert.ErrorIs(t, err, ErrUnsat)
}

func TestSolveForcedAssignment(t *testing.T) {
	tbl, store, s := newTestSolver(t)
	a := tbl.NewConstant("a", tbl.BoolType())
	b := tbl.NewConstant("b", tbl.BoolType())

	type tc struct {
		Name    string
		Formula terms.Term
		WantA   bool
		WantB   bool
	}

	for _, tt := range []tc{
		{
			Name:    "conjunction",
			Formula: tbl.And(a, b.Not()),
			WantA:   true,
			WantB:   false,
		},
		{
			Name:    "iff propagates",
			Formula: tbl.And(tbl.Eq(a, b), a),
			WantA:   true,
			WantB:   true,
		},
		{
			Name:    "xor excludes",
			Formula: tbl.And(tbl.Xor(a, b), a),
			WantA:   true,
			WantB:   false,
		},
		{
			Name:    "ite selects then branch",
			Formula: tbl.And(tbl.Ite(a, b, b.Not()), a),
			WantA:   true,
			WantB:   true,
		},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			got, err := s.Solve(context.Background(), tt.Formula)
			require.NoError(t, err)
			assert.Equal(t, tt.WantA, lookup(t, store, got, a))
			assert.Equal(t, tt.WantB, lookup(t, store, got, b))
		})
	}
}

func TestSolveTreatsTheoryAtomsAsOpaque(t *testing.T) {
	tbl, store, s := newTestSolver(t)
	u := tbl.UninterpretedType("U")
	x := tbl.NewConstant("x", u)
	y := tbl.NewConstant("y", u)

	eq := tbl.Eq(x, y)
	got, err := s.Solve(context.Background(), eq)
	require.NoError(t, err)
	require.Equal(t, []terms.Term{eq}, got.Atoms)
	assert.True(t, store.BoolValue(got.Values[0]))
}

func TestSolveRejectsQuantifiers(t *testing.T) {
	tbl, _, s := newTestSolver(t)
	u := tbl.UninterpretedType("U")
	p := tbl.NewConstant("p", tbl.FunctionType([]terms.Type{u}, tbl.BoolType()))
	x := tbl.NewVariable("x", u)

	_, err := s.Solve(context.Background(), tbl.Forall([]terms.Term{x}, tbl.App(p, x)))
	var qerr *QuantifiedFormulaError
	assert.ErrorAs(t, err, &qerr)
}

func TestSolveRejectsNonBooleanInput(t *testing.T) {
	tbl, _, s := newTestSolver(t)

	_, err := s.Solve(context.Background(), tbl.Rational("3"))
	var nerr *NonBooleanAtomError
	assert.ErrorAs(t, err, &nerr)
}

func TestSolveCancelled(t *testing.T) {
	tbl, _, s := newTestSolver(t)
	a := tbl.NewConstant("a", tbl.BoolType())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Solve(ctx, a)
	assert.ErrorIs(t, err, Incomplete)
}

func TestSolveTrivial(t *testing.T) {
	tbl, _, s := newTestSolver(t)

	got, err := s.Solve(context.Background(), tbl.True())
	require.NoError(t, err)
	assert.Empty(t, got.Atoms)

	_, err = s.Solve(context.Background(), tbl.False())
	assert.ErrorIs(t, err, ErrUnsat)
}
