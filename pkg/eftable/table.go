// Package eftable implements the EF value table: the mapping from
// semantic model values to witness terms, the per-type value
// inventories behind distinctness and enumeration constraints, and
// the dependency-ordered choice of a canonical representative term
// for every observed value.
package eftable

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/efsolve/efsolve/pkg/terms"
	"github.com/efsolve/efsolve/pkg/values"
)

// Table maps model values to witness terms for one EF iteration. A
// Table is filled once, queried read-only afterwards, and reset
// before the next iteration; interleaving Fill with representative
// queries is not supported.
type Table struct {
	terms   *terms.Table
	store   *values.Store
	convert values.Converter
	logger  *logrus.Entry

	// sources maps each witness term to the source terms known to
	// evaluate to it, in discovery order. witnessOrder fixes a
	// deterministic iteration order over its keys.
	sources      map[terms.Term][]terms.Term
	witnessOrder []terms.Term

	// typeValues inventories the simple-value witnesses of each
	// type, again with an explicit insertion order.
	typeValues map[terms.Type][]terms.Term
	typeOrder  []terms.Type

	// valueTerms memoizes value-to-term conversion so at most one
	// witness term is minted per distinct semantic value.
	valueTerms map[values.Value]terms.Term

	// priority is the dependency rank of a term: 0 for atomic
	// terms, 1 plus the sum of argument ranks for applications.
	// The first assignment wins; later attempts are no-ops.
	priority map[terms.Term]uint32

	// reps holds the chosen representative source term of each
	// resolved witness.
	reps map[terms.Term]terms.Term
}

type Option func(t *Table) error

// WithConverter overrides the value-to-term converter service.
func WithConverter(c values.Converter) Option {
	return func(t *Table) error {
		t.convert = c
		return nil
	}
}

// WithLogger sets the logger used for debug traces.
func WithLogger(logger *logrus.Entry) Option {
	return func(t *Table) error {
		t.logger = logger
		return nil
	}
}

// New returns an empty value table over the given term table and
// value store.
func New(tbl *terms.Table, store *values.Store, options ...Option) (*Table, error) {
	t := &Table{terms: tbl, store: store}
	for _, option := range append(options, defaults...) {
		if err := option(t); err != nil {
			return nil, err
		}
	}
	t.Reset()
	return t, nil
}

var defaults = []Option{
	func(t *Table) error {
		if t.convert == nil {
			t.convert = values.NewTermConverter(t.store, t.terms)
		}
		return nil
	},
	func(t *Table) error {
		if t.logger == nil {
			l := logrus.New()
			l.SetOutput(io.Discard)
			t.logger = logrus.NewEntry(l)
		}
		return nil
	},
}

// Reset releases all entries so the table can be reused by the next
// EF iteration. The term table, value store and converter are kept.
func (t *Table) Reset() {
	t.sources = make(map[terms.Term][]terms.Term)
	t.witnessOrder = nil
	t.typeValues = make(map[terms.Type][]terms.Term)
	t.typeOrder = nil
	t.valueTerms = make(map[values.Value]terms.Term)
	t.priority = make(map[terms.Term]uint32)
	t.reps = make(map[terms.Term]terms.Term)
}

// setPriority assigns a dependency rank exactly once.
func (t *Table) setPriority(x terms.Term, p uint32) {
	if _, ok := t.priority[x]; !ok {
		t.priority[x] = p
	}
}

// storeRep records the representative of a witness; the first
// discovery wins.
func (t *Table) storeRep(witness, x terms.Term) {
	if _, ok := t.reps[witness]; !ok {
		t.reps[witness] = x
	}
}

// PriorityOf returns the dependency rank of x, if known.
func (t *Table) PriorityOf(x terms.Term) (uint32, bool) {
	p, ok := t.priority[x]
	return p, ok
}

// Witnesses returns every witness term in discovery order.
func (t *Table) Witnesses() []terms.Term {
	return t.witnessOrder
}

// SourcesOf returns the source terms recorded for a witness, in
// discovery order.
func (t *Table) SourcesOf(witness terms.Term) []terms.Term {
	return t.sources[witness]
}

// convertValue routes a conversion through the table's memo. The
// converter itself is stateless, so this is the only place a witness
// term is minted.
func (t *Table) convertValue(v values.Value) (terms.Term, error) {
	if tvalue, ok := t.valueTerms[v]; ok {
		return tvalue, nil
	}
	tvalue, err := t.convert.Convert(v)
	if err != nil {
		return terms.NullTerm, err
	}
	t.valueTerms[v] = tvalue
	return tvalue, nil
}

// StoreTypeValue records a simple value's witness in the per-type
// inventory. Function values are excluded. With check set, witnesses
// already present in the source map are skipped, which deduplicates
// late insertions.
func (t *Table) StoreTypeValue(v values.Value, witness terms.Term, check bool) {
	if check {
		if _, ok := t.sources[witness]; ok {
			return
		}
	}
	switch t.store.Kind(v) {
	case values.KindBoolean, values.KindRational, values.KindBitvector, values.KindUninterpreted:
	default:
		return
	}
	tau := t.terms.TypeOf(witness)
	if _, ok := t.typeValues[tau]; !ok {
		t.typeOrder = append(t.typeOrder, tau)
	}
	t.typeValues[tau] = append(t.typeValues[tau], witness)
}

// storeTermValue records that source term x evaluates to value v.
func (t *Table) storeTermValue(x terms.Term, v values.Value) error {
	tvalue, known := t.valueTerms[v]
	if !known {
		var err error
		tvalue, err = t.convertValue(v)
		if err != nil {
			return err
		}
		t.sources[tvalue] = nil
		t.witnessOrder = append(t.witnessOrder, tvalue)
		t.StoreTypeValue(v, tvalue, false)
	}
	t.sources[tvalue] = append(t.sources[tvalue], x)
	if t.terms.IsAtomic(x) {
		t.setPriority(x, 0)
		t.setPriority(tvalue, 0)
		t.storeRep(tvalue, x)
	}
	return nil
}

// storeFuncValues expands a function value's explicit finite map,
// recording one application term per entry.
func (t *Table) storeFuncValues(fn terms.Term, v values.Value) error {
	if def, ok := t.store.Default(v); ok {
		return &UnsupportedFunctionDefaultError{
			Function: fn,
			Default:  def,
			Rendered: t.terms.String(fn),
		}
	}
	for _, entry := range t.store.Entries(v) {
		args := make([]terms.Term, len(entry.Args))
		for j, av := range entry.Args {
			at, err := t.convertValue(av)
			if err != nil {
				return err
			}
			args[j] = at
		}
		app := t.terms.App(fn, args...)
		if err := t.storeTermValue(app, entry.Result); err != nil {
			return err
		}
	}
	return nil
}

// Fill populates the table from a flat assignment of equal-length
// slices: a direct pass over every pair, an expansion pass over
// function values, and a worklist pass resolving representative and
// priority for witnesses with no atomic source.
func (t *Table) Fill(vars []terms.Term, vals []values.Value) error {
	if len(vars) != len(vals) {
		return fmt.Errorf("assignment length mismatch: %d variables, %d values", len(vars), len(vals))
	}

	for i := range vars {
		if err := t.storeTermValue(vars[i], vals[i]); err != nil {
			return err
		}
	}

	for i := range vars {
		if t.store.Kind(vals[i]) == values.KindFunction {
			if err := t.storeFuncValues(vars[i], vals[i]); err != nil {
				return err
			}
		}
	}

	if err := t.resolveDependencies(); err != nil {
		return err
	}
	return t.terms.Err()
}

// resolveDependencies runs the worklist fixpoint over witnesses that
// still lack a representative. A saturating no-progress counter
// compared against the worklist length detects a stuck resolution.
func (t *Table) resolveDependencies() error {
	var queue []terms.Term
	for _, w := range t.witnessOrder {
		if _, ok := t.reps[w]; !ok {
			queue = append(queue, w)
		}
	}

	noProgress := 0
	for len(queue) > 0 {
		w := queue[0]
		queue = queue[1:]

		srcs := t.sources[w]
		if len(srcs) == 0 {
			return &MissingRepresentativeError{Witness: w, Rendered: t.terms.String(w)}
		}

		best := terms.NullTerm
		bestPrio := uint32(0)
		for _, x := range srcs {
			prio, ok := t.sourcePriority(x)
			if !ok {
				continue
			}
			t.setPriority(x, prio)
			if best == terms.NullTerm || prio < bestPrio {
				best = x
				bestPrio = prio
			}
		}

		if best != terms.NullTerm {
			t.setPriority(w, bestPrio)
			t.storeRep(w, best)
			noProgress = 0
			t.logger.WithFields(logrus.Fields{
				"witness":        t.terms.String(w),
				"representative": t.terms.String(best),
				"priority":       bestPrio,
			}).Debug("resolved witness")
			continue
		}

		queue = append(queue, w)
		noProgress++
		if noProgress >= len(queue) {
			// a full cycle without a single resolution
			return &UnresolvableDependencyError{Witness: w, Rendered: t.terms.String(w)}
		}
	}
	return nil
}

// sourcePriority computes the dependency rank of a source term. An
// application's rank needs every argument's rank to be known already;
// when one is missing the attempt fails and the caller retries on a
// later worklist cycle.
func (t *Table) sourcePriority(x terms.Term) (uint32, bool) {
	if p, ok := t.priority[x]; ok {
		return p, true
	}
	if t.terms.IsAtomic(x) {
		return 0, true
	}
	if t.terms.Kind(x) != terms.KindApp {
		return 0, false
	}
	total := uint32(1)
	for _, arg := range t.terms.Children(x)[1:] {
		p, ok := t.priority[arg]
		if !ok {
			if !t.terms.IsAtomic(arg) {
				return 0, false
			}
			p = 0
		}
		total += p
	}
	return total, true
}

// Representative returns the term to substitute for a witness when
// building a concrete candidate model term. Composite representatives
// are resolved recursively: each argument witness is replaced by its
// own representative through a simultaneous substitution.
func (t *Table) Representative(witness terms.Term) (terms.Term, error) {
	return t.representative(witness, make(map[terms.Term]struct{}))
}

func (t *Table) representative(w terms.Term, requests map[terms.Term]struct{}) (terms.Term, error) {
	if _, ok := t.sources[w]; !ok {
		return terms.NullTerm, &MissingRepresentativeError{Witness: w, Rendered: t.terms.String(w)}
	}
	rep, ok := t.reps[w]
	if !ok {
		return terms.NullTerm, &MissingRepresentativeError{Witness: w, Rendered: t.terms.String(w)}
	}
	if !t.terms.IsComposite(rep) {
		return rep, nil
	}

	// rep is an application whose arguments are themselves
	// witness terms; revisiting a witness on this call stack is a
	// cycle the worklist cannot have seen.
	requests[w] = struct{}{}
	defer delete(requests, w)

	children := t.terms.Children(rep)
	var olds, news []terms.Term
	for _, arg := range children[1:] {
		if _, busy := requests[arg]; busy {
			return terms.NullTerm, &CircularRepresentativeError{Witness: w, Rendered: t.terms.String(w)}
		}
		argRep, err := t.representative(arg, requests)
		if err != nil {
			return terms.NullTerm, err
		}
		if argRep != arg {
			olds = append(olds, arg)
			news = append(news, argRep)
		}
	}
	if len(olds) == 0 {
		return rep, nil
	}
	return t.terms.Substitute(rep, olds, news)
}

// ValuesFromTable replaces every uninterpreted-type witness term in
// vals by its representative, in place.
func (t *Table) ValuesFromTable(vals []terms.Term) error {
	for i, x := range vals {
		if !t.terms.TypeIsUninterpreted(t.terms.TypeOf(x)) {
			continue
		}
		rep, err := t.Representative(x)
		if err != nil {
			return err
		}
		vals[i] = rep
	}
	return nil
}

// String renders the table contents for diagnostics.
func (t *Table) String() string {
	var b strings.Builder
	b.WriteString("== VALUE TYPES ==\n")
	for _, tau := range t.typeOrder {
		fmt.Fprintf(&b, "%s ->", t.terms.TypeString(tau))
		for _, w := range t.typeValues[tau] {
			fmt.Fprintf(&b, " %s", t.terms.String(w))
		}
		b.WriteString("\n")
	}
	b.WriteString("== VALUE TERMS ==\n")
	for _, w := range t.witnessOrder {
		fmt.Fprintf(&b, "%s ->", t.terms.String(w))
		for _, x := range t.sources[w] {
			fmt.Fprintf(&b, " %s", t.terms.String(x))
		}
		if rep, ok := t.reps[w]; ok {
			fmt.Fprintf(&b, " [rep %s]", t.terms.String(rep))
		}
		b.WriteString("\n")
	}
	return b.String()
}
