// Package ef drives one round of exists/forall refinement: it
// eliminates existentials from a formula, asks an inner solver for a
// candidate model of the boolean skeleton, turns that model into a
// value table, and derives the refinement constraints that steer the
// next round.
package ef

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/efsolve/efsolve/pkg/eftable"
	"github.com/efsolve/efsolve/pkg/ground"
	"github.com/efsolve/efsolve/pkg/metrics"
	"github.com/efsolve/efsolve/pkg/skolem"
	"github.com/efsolve/efsolve/pkg/terms"
	"github.com/efsolve/efsolve/pkg/values"
)

// InnerSolver produces candidate models of ground boolean skeletons.
// *ground.Solver satisfies it.
type InnerSolver interface {
	Solve(ctx context.Context, formula terms.Term) (*ground.Assignment, error)
}

// Refinement carries the constraints derived from one candidate
// model: a distinctness constraint over the representatives of every
// uninterpreted type, and an enumeration constraint tying the
// existential symbols to values already discovered.
type Refinement struct {
	Distinct    terms.Term
	Enumeration terms.Term
}

// Analyzer owns the per-session skolemization state: the existential
// bindings, the fresh-name counter, and the rewrite flags. A single
// Analyzer serves all iterations of one exists/forall session so that
// skolem names never collide across rounds.
type Analyzer struct {
	terms    *terms.Table
	store    *values.Store
	bindings *skolem.Bindings
	counter  *skolem.Counter
	sk       *skolem.Skolemizer
	logger   *logrus.Entry

	flattenIte bool
	flattenIff bool
	bound      int
}

type Option func(a *Analyzer) error

// FlattenIte enables boolean if-then-else flattening during
// skolemization.
func FlattenIte(enabled bool) Option {
	return func(a *Analyzer) error {
		a.flattenIte = enabled
		return nil
	}
}

// FlattenIff enables boolean iff flattening during skolemization.
func FlattenIff(enabled bool) Option {
	return func(a *Analyzer) error {
		a.flattenIff = enabled
		return nil
	}
}

// WithEnumerationBound restricts enumeration constraints to witnesses
// of priority at most the given bound; witnesses above it are
// excluded. A negative bound enumerates every witness.
func WithEnumerationBound(bound int) Option {
	return func(a *Analyzer) error {
		a.bound = bound
		return nil
	}
}

// WithLogger sets the logger shared with the skolemizer.
func WithLogger(logger *logrus.Entry) Option {
	return func(a *Analyzer) error {
		a.logger = logger
		return nil
	}
}

var defaults = []Option{
	func(a *Analyzer) error {
		if a.logger == nil {
			l := logrus.New()
			l.SetOutput(io.Discard)
			a.logger = logrus.NewEntry(l)
		}
		return nil
	},
}

// New returns an Analyzer over the given term table and value store.
func New(tbl *terms.Table, store *values.Store, options ...Option) (*Analyzer, error) {
	a := &Analyzer{
		terms:    tbl,
		store:    store,
		bindings: skolem.NewBindings(),
		counter:  &skolem.Counter{},
		bound:    -1,
	}
	for _, option := range append(options, defaults...) {
		if err := option(a); err != nil {
			return nil, err
		}
	}
	sk, err := skolem.New(tbl,
		skolem.WithBindings(a.bindings),
		skolem.WithCounter(a.counter),
		skolem.FlattenIte(a.flattenIte),
		skolem.FlattenIff(a.flattenIff),
		skolem.WithLogger(a.logger),
	)
	if err != nil {
		return nil, err
	}
	a.sk = sk
	return a, nil
}

// Bindings returns the existential bindings accumulated so far.
func (a *Analyzer) Bindings() *skolem.Bindings {
	return a.bindings
}

// Skolemize eliminates the existentials of t, recording each fresh
// symbol in the session bindings.
func (a *Analyzer) Skolemize(t terms.Term) (terms.Term, error) {
	before := a.counter.Value()
	result, err := a.sk.Skolemize(t)
	metrics.SkolemCount.Add(float64(a.counter.Value() - before))
	return result, err
}

// Iterate runs one refinement round: skolemize the formula, ask the
// inner solver for a candidate model, fold the model into a value
// table, and derive the next round's constraints. ground.ErrUnsat
// passes through untouched; it means the session has converged.
func (a *Analyzer) Iterate(ctx context.Context, formula terms.Term, inner InnerSolver) (*Refinement, error) {
	skolemized, err := a.Skolemize(formula)
	if err != nil {
		metrics.IterationCount.WithLabelValues(metrics.Failed).Inc()
		return nil, errors.Wrap(err, "eliminating existentials")
	}

	assignment, err := inner.Solve(ctx, skolemized)
	if err != nil {
		metrics.IterationCount.WithLabelValues(metrics.Failed).Inc()
		if errors.Is(err, ground.ErrUnsat) {
			return nil, err
		}
		return nil, errors.Wrap(err, "solving boolean skeleton")
	}

	witnesses, vals := a.modelWitnesses(assignment)

	table, err := eftable.New(a.terms, a.store, eftable.WithLogger(a.logger))
	if err != nil {
		metrics.IterationCount.WithLabelValues(metrics.Failed).Inc()
		return nil, err
	}

	start := time.Now()
	if err := table.Fill(witnesses, vals); err != nil {
		metrics.ObserveResolution(metrics.Failed, time.Since(start).Seconds())
		metrics.IterationCount.WithLabelValues(metrics.Failed).Inc()
		a.logger.WithError(err).WithField("witnesses", len(witnesses)).Warn("model resolution failed")
		return nil, err
	}
	metrics.ObserveResolution(metrics.Succeeded, time.Since(start).Seconds())
	metrics.ResolutionCount.Add(float64(len(table.Witnesses())))

	refinement := &Refinement{
		Distinct:    table.DistinctConstraint(),
		Enumeration: table.EnumerationConstraint(a.bindings.Existentials(), a.bound),
	}
	if err := a.terms.Err(); err != nil {
		metrics.IterationCount.WithLabelValues(metrics.Failed).Inc()
		return nil, err
	}
	metrics.IterationCount.WithLabelValues(metrics.Succeeded).Inc()
	return refinement, nil
}

// modelWitnesses filters a skeleton assignment down to the atoms that
// can act as witness terms: uninterpreted constants and function
// applications. Boolean structure the skeleton solver invented has no
// place in the value table.
func (a *Analyzer) modelWitnesses(assignment *ground.Assignment) ([]terms.Term, []values.Value) {
	var witnesses []terms.Term
	var vals []values.Value
	for i, atom := range assignment.Atoms {
		switch a.terms.Kind(atom) {
		case terms.KindConstant, terms.KindApp:
			witnesses = append(witnesses, atom)
			vals = append(vals, assignment.Values[i])
		}
	}
	return witnesses, vals
}
