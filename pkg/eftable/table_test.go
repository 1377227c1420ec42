package eftable

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efsolve/efsolve/pkg/terms"
	"github.com/efsolve/efsolve/pkg/values"
)

func newTestTable(t *testing.T) (*terms.Table, *values.Store, *Table) {
	t.Helper()
	tbl := terms.NewTable()
	store := values.NewStore()
	table, err := New(tbl, store)
	require.NoError(t, err)
	return tbl, store, table
}

func TestFillCollapsesEqualValues(t *testing.T) {
	tbl, store, table := newTestTable(t)
	u := tbl.UninterpretedType("U")
	x1 := tbl.NewConstant("x1", u)
	x2 := tbl.NewConstant("x2", u)
	x3 := tbl.NewConstant("x3", u)

	err := table.Fill(
		[]terms.Term{x1, x2, x3},
		[]values.Value{store.Uninterpreted(u, 0), store.Uninterpreted(u, 0), store.Uninterpreted(u, 1)},
	)
	require.NoError(t, err)

	witnesses := table.Witnesses()
	require.Len(t, witnesses, 2)
	assert.Equal(t, []terms.Term{x1, x2}, table.SourcesOf(witnesses[0]))
	assert.Equal(t, []terms.Term{x3}, table.SourcesOf(witnesses[1]))

	// the first atomic source becomes the representative
	rep, err := table.Representative(witnesses[0])
	require.NoError(t, err)
	assert.Equal(t, x1, rep)

	rep, err = table.Representative(witnesses[1])
	require.NoError(t, err)
	assert.Equal(t, x3, rep)

	for _, w := range witnesses {
		p, ok := table.PriorityOf(w)
		require.True(t, ok)
		assert.Equal(t, uint32(0), p)
	}
}

func TestFillLengthMismatch(t *testing.T) {
	tbl, store, table := newTestTable(t)
	u := tbl.UninterpretedType("U")

	err := table.Fill(
		[]terms.Term{tbl.NewConstant("x", u)},
		[]values.Value{store.Uninterpreted(u, 0), store.Uninterpreted(u, 1)},
	)
	assert.Error(t, err)
}

func TestDistinctConstraint(t *testing.T) {
	tbl, store, table := newTestTable(t)
	u := tbl.UninterpretedType("U")
	x1 := tbl.NewConstant("x1", u)
	x2 := tbl.NewConstant("x2", u)

	require.NoError(t, table.Fill(
		[]terms.Term{x1, x2},
		[]values.Value{store.Uninterpreted(u, 0), store.Uninterpreted(u, 1)},
	))

	got := table.DistinctConstraint()
	require.NotEqual(t, terms.NullTerm, got)
	assert.Equal(t, terms.KindDistinct, tbl.Kind(got))
	assert.Equal(t, table.Witnesses(), tbl.Children(got))
}

func TestDistinctConstraintSingleValue(t *testing.T) {
	tbl, store, table := newTestTable(t)
	u := tbl.UninterpretedType("U")

	require.NoError(t, table.Fill(
		[]terms.Term{tbl.NewConstant("x", u)},
		[]values.Value{store.Uninterpreted(u, 0)},
	))

	// one known value needs no constraint
	assert.Equal(t, tbl.True(), table.DistinctConstraint())
}

func TestDistinctConstraintFor(t *testing.T) {
	tbl, store, table := newTestTable(t)
	u := tbl.UninterpretedType("U")
	x1 := tbl.NewConstant("x1", u)
	x2 := tbl.NewConstant("x2", u)
	b := tbl.NewConstant("b", tbl.BoolType())
	_ = store

	got := table.DistinctConstraintFor([]terms.Term{x1, b, x2})
	assert.Equal(t, tbl.Distinct(x1, x2), got)
}

func TestEnumerationConstraint(t *testing.T) {
	tbl, store, table := newTestTable(t)
	u := tbl.UninterpretedType("U")
	x1 := tbl.NewConstant("x1", u)
	x2 := tbl.NewConstant("x2", u)
	y := tbl.NewConstant("y", u)

	require.NoError(t, table.Fill(
		[]terms.Term{x1, x2},
		[]values.Value{store.Uninterpreted(u, 0), store.Uninterpreted(u, 1)},
	))

	ws := table.Witnesses()
	got := table.EnumerationConstraint([]terms.Term{y}, -1)
	assert.Equal(t, tbl.Or(tbl.Eq(y, ws[0]), tbl.Eq(y, ws[1])), got)

	// terms of types with no inventory stay unconstrained
	b := tbl.NewConstant("b", tbl.BoolType())
	assert.Equal(t, tbl.True(), table.EnumerationConstraint([]terms.Term{b}, -1))
}

func TestFunctionExpansion(t *testing.T) {
	tbl, store, table := newTestTable(t)
	u := tbl.UninterpretedType("U")
	ftype := tbl.FunctionType([]terms.Type{u}, u)
	c := tbl.NewConstant("c", u)
	f := tbl.NewConstant("f", ftype)

	fval := store.Function(ftype, []values.FuncEntry{
		{Args: []values.Value{store.Uninterpreted(u, 0)}, Result: store.Uninterpreted(u, 1)},
	}, store.Unknown())

	require.NoError(t, table.Fill(
		[]terms.Term{c, f},
		[]values.Value{store.Uninterpreted(u, 0), fval},
	))

	// c's witness, f's witness, and the expanded entry's witness
	witnesses := table.Witnesses()
	require.Len(t, witnesses, 3)

	entry := witnesses[2]
	srcs := table.SourcesOf(entry)
	require.Len(t, srcs, 1)
	assert.Equal(t, terms.KindApp, tbl.Kind(srcs[0]))

	// the application ranks one above its argument
	p, ok := table.PriorityOf(entry)
	require.True(t, ok)
	assert.Equal(t, uint32(1), p)

	// resolving the entry's representative substitutes the
	// argument witness by its own representative
	rep, err := table.Representative(entry)
	require.NoError(t, err)
	assert.Equal(t, tbl.App(f, c), rep)
	assert.NoError(t, tbl.Err())
}

func TestEnumerationConstraintBound(t *testing.T) {
	tbl, store, table := newTestTable(t)
	u := tbl.UninterpretedType("U")
	ftype := tbl.FunctionType([]terms.Type{u}, u)
	c := tbl.NewConstant("c", u)
	f := tbl.NewConstant("f", ftype)
	y := tbl.NewConstant("y", u)

	fval := store.Function(ftype, []values.FuncEntry{
		{Args: []values.Value{store.Uninterpreted(u, 0)}, Result: store.Uninterpreted(u, 1)},
	}, store.Unknown())

	require.NoError(t, table.Fill(
		[]terms.Term{c, f},
		[]values.Value{store.Uninterpreted(u, 0), fval},
	))

	ws := table.Witnesses()
	base := ws[0]  // rank 0, from c
	entry := ws[2] // rank 1, from the expanded application

	assert.Equal(t,
		tbl.Or(tbl.Eq(y, base), tbl.Eq(y, entry)),
		table.EnumerationConstraint([]terms.Term{y}, -1))

	// rank-1 witnesses drop out under bound 0
	assert.Equal(t,
		tbl.Eq(y, base),
		table.EnumerationConstraint([]terms.Term{y}, 0))
}

func TestPriorityAccumulatesThroughDependencies(t *testing.T) {
	tbl, store, table := newTestTable(t)
	u := tbl.UninterpretedType("U")
	ftype := tbl.FunctionType([]terms.Type{u}, u)
	c := tbl.NewConstant("c", u)
	f := tbl.NewConstant("f", ftype)
	g := tbl.NewConstant("g", ftype)
	y := tbl.NewConstant("y", u)

	// f maps the base element to a second one, g maps that second
	// element onward, so the third witness depends on the second
	fval := store.Function(ftype, []values.FuncEntry{
		{Args: []values.Value{store.Uninterpreted(u, 0)}, Result: store.Uninterpreted(u, 1)},
	}, store.Unknown())
	gval := store.Function(ftype, []values.FuncEntry{
		{Args: []values.Value{store.Uninterpreted(u, 1)}, Result: store.Uninterpreted(u, 2)},
	}, store.Unknown())

	require.NoError(t, table.Fill(
		[]terms.Term{c, f, g},
		[]values.Value{store.Uninterpreted(u, 0), fval, gval},
	))

	ws := table.Witnesses()
	require.Len(t, ws, 5)

	for i, want := range map[int]uint32{0: 0, 3: 1, 4: 2} {
		p, ok := table.PriorityOf(ws[i])
		require.True(t, ok, "witness %d has no priority", i)
		assert.Equal(t, want, p, "witness %d", i)
	}

	// bound 1 admits the chain's first application but not the second
	assert.Equal(t,
		tbl.Or(tbl.Eq(y, ws[0]), tbl.Eq(y, ws[3])),
		table.EnumerationConstraint([]terms.Term{y}, 1))
}

func TestFunctionDefaultRejected(t *testing.T) {
	tbl, store, table := newTestTable(t)
	u := tbl.UninterpretedType("U")
	ftype := tbl.FunctionType([]terms.Type{u}, u)
	f := tbl.NewConstant("f", ftype)

	fval := store.Function(ftype, nil, store.Uninterpreted(u, 0))

	err := table.Fill([]terms.Term{f}, []values.Value{fval})
	var derr *UnsupportedFunctionDefaultError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, f, derr.Function)
}

func TestUnresolvableDependency(t *testing.T) {
	tbl, store, table := newTestTable(t)
	u := tbl.UninterpretedType("U")
	cond := tbl.NewConstant("cond", tbl.BoolType())
	a := tbl.NewConstant("a", u)
	b := tbl.NewConstant("b", u)

	// an ite source is composite but not an application, so its
	// rank can never be computed
	ite := tbl.Ite(cond, a, b)
	err := table.Fill([]terms.Term{ite}, []values.Value{store.Uninterpreted(u, 0)})
	var uerr *UnresolvableDependencyError
	require.ErrorAs(t, err, &uerr)
}

func TestCircularRepresentative(t *testing.T) {
	tbl, _, table := newTestTable(t)
	u := tbl.UninterpretedType("U")
	ftype := tbl.FunctionType([]terms.Type{u}, u)
	f := tbl.NewConstant("f", ftype)
	w1 := tbl.NewConstant("w1", u)
	w2 := tbl.NewConstant("w2", u)

	table.sources[w1] = []terms.Term{tbl.App(f, w2)}
	table.sources[w2] = []terms.Term{tbl.App(f, w1)}
	table.reps[w1] = tbl.App(f, w2)
	table.reps[w2] = tbl.App(f, w1)

	_, err := table.Representative(w1)
	var cerr *CircularRepresentativeError
	require.ErrorAs(t, err, &cerr)
}

func TestMissingRepresentative(t *testing.T) {
	tbl, _, table := newTestTable(t)
	u := tbl.UninterpretedType("U")

	_, err := table.Representative(tbl.NewConstant("stranger", u))
	var merr *MissingRepresentativeError
	require.ErrorAs(t, err, &merr)
}

func TestValuesFromTable(t *testing.T) {
	tbl, store, table := newTestTable(t)
	u := tbl.UninterpretedType("U")
	x1 := tbl.NewConstant("x1", u)
	x2 := tbl.NewConstant("x2", u)

	require.NoError(t, table.Fill(
		[]terms.Term{x1, x2},
		[]values.Value{store.Uninterpreted(u, 0), store.Uninterpreted(u, 1)},
	))

	ws := table.Witnesses()
	vals := []terms.Term{ws[0], tbl.True(), ws[1]}
	require.NoError(t, table.ValuesFromTable(vals))
	assert.Equal(t, []terms.Term{x1, tbl.True(), x2}, vals)
}

func TestReset(t *testing.T) {
	tbl, store, table := newTestTable(t)
	u := tbl.UninterpretedType("U")

	require.NoError(t, table.Fill(
		[]terms.Term{tbl.NewConstant("x", u)},
		[]values.Value{store.Uninterpreted(u, 0)},
	))
	require.Len(t, table.Witnesses(), 1)

	table.Reset()
	assert.Empty(t, table.Witnesses())
	assert.Equal(t, tbl.True(), table.DistinctConstraint())
}

func TestFillDeterminism(t *testing.T) {
	render := func() string {
		tbl := terms.NewTable()
		store := values.NewStore()
		table, err := New(tbl, store)
		require.NoError(t, err)

		u := tbl.UninterpretedType("U")
		vars := []terms.Term{
			tbl.NewConstant("x1", u),
			tbl.NewConstant("x2", u),
			tbl.NewConstant("x3", u),
		}
		vals := []values.Value{
			store.Uninterpreted(u, 1),
			store.Uninterpreted(u, 0),
			store.Uninterpreted(u, 1),
		}
		require.NoError(t, table.Fill(vars, vals))
		return table.String()
	}

	first := render()
	for i := 0; i < 10; i++ {
		if diff := cmp.Diff(first, render()); diff != "" {
			t.Fatalf("unexpected table dump (-want +got):\n%s", diff)
		}
	}
}
