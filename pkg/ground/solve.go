// Package ground decides quantifier-free boolean skeletons with a SAT
// solver. It compiles the boolean structure of a formula into a
// circuit, treats everything below as opaque atoms, and reads the
// atom assignment back out of the model.
package ground

import (
	"context"
	"errors"
	"io"

	"github.com/go-air/gini"
	"github.com/sirupsen/logrus"

	"github.com/efsolve/efsolve/pkg/terms"
	"github.com/efsolve/efsolve/pkg/values"
)

// ErrUnsat is returned by Solve when the formula has no model.
var ErrUnsat = errors.New("formula is unsatisfiable")

// Incomplete is returned when the context expires before a verdict.
var Incomplete = errors.New("cancelled before a solution could be found")

const (
	satisfiable   = 1
	unsatisfiable = -1
)

// Assignment is a model of the boolean skeleton: each atom paired
// with the boolean value the solver chose for it, in first-seen
// order.
type Assignment struct {
	Atoms  []terms.Term
	Values []values.Value
}

// Solver decides boolean skeletons of ground formulas.
type Solver struct {
	terms  *terms.Table
	store  *values.Store
	logger *logrus.Entry
}

type Option func(s *Solver) error

// WithLogger sets the logger used for debug traces.
func WithLogger(logger *logrus.Entry) Option {
	return func(s *Solver) error {
		s.logger = logger
		return nil
	}
}

var defaults = []Option{
	func(s *Solver) error {
		if s.logger == nil {
			l := logrus.New()
			l.SetOutput(io.Discard)
			s.logger = logrus.NewEntry(l)
		}
		return nil
	},
}

// New returns a Solver over the given term table and value store.
func New(tbl *terms.Table, store *values.Store, options ...Option) (*Solver, error) {
	s := &Solver{terms: tbl, store: store}
	for _, option := range append(options, defaults...) {
		if err := option(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Solve decides the boolean skeleton of formula and returns an atom
// assignment if one exists. ErrUnsat reports that no model exists;
// any other error indicates the formula could not be compiled.
func (s *Solver) Solve(ctx context.Context, formula terms.Term) (result *Assignment, err error) {
	dict := newAtomMapping(s.terms)
	defer func() {
		// This likely indicates a bug, so discard whatever
		// return values were produced.
		if derr := dict.Error(); derr != nil {
			result = nil
			err = derr
		}
	}()

	m, err := dict.compile(formula)
	if err != nil {
		return nil, err
	}

	g := gini.New()
	dict.AddConstraints(g)
	g.Assume(m)

	if ctx.Err() != nil {
		return nil, Incomplete
	}

	switch g.Solve() {
	case satisfiable:
		atoms := dict.Atoms()
		assignment := &Assignment{
			Atoms:  atoms,
			Values: make([]values.Value, len(atoms)),
		}
		for i, atom := range atoms {
			assignment.Values[i] = s.store.Boolean(g.Value(dict.LitOf(atom)))
		}
		s.logger.WithField("atoms", len(atoms)).Debug("skeleton satisfiable")
		return assignment, nil
	case unsatisfiable:
		return nil, ErrUnsat
	}

	return nil, Incomplete
}
