package terms

import "fmt"

// SubstitutionError reports a simultaneous substitution that was
// rejected before or during application: a target that is not a
// positional leaf, or a replacement of the wrong type.
type SubstitutionError struct {
	Var         Term
	Replacement Term
	Reason      string
}

func (e *SubstitutionError) Error() string {
	return fmt.Sprintf("substitution rejected: %s", e.Reason)
}

// Substitute applies the simultaneous substitution defined by the
// parallel slices vars and repls to t. Every element of vars must be
// a bound variable or an uninterpreted constant, and each replacement
// must share its variable's type. All replacements are applied in a
// single pass so that co-bound variables cannot capture one another.
func (tbl *Table) Substitute(t Term, vars, repls []Term) (Term, error) {
	if len(vars) != len(repls) {
		return NullTerm, &SubstitutionError{Reason: fmt.Sprintf("%d variables but %d replacements", len(vars), len(repls))}
	}
	m := make(map[Term]Term, len(vars))
	for i, v := range vars {
		switch tbl.Kind(v) {
		case KindVariable, KindConstant:
		default:
			return NullTerm, &SubstitutionError{Var: v, Replacement: repls[i],
				Reason: fmt.Sprintf("target %s is not a leaf", tbl.String(v))}
		}
		if tbl.TypeOf(v) != tbl.TypeOf(repls[i]) {
			return NullTerm, &SubstitutionError{Var: v, Replacement: repls[i],
				Reason: fmt.Sprintf("replacement %s has type %s, want %s", tbl.String(repls[i]),
					tbl.TypeString(tbl.TypeOf(repls[i])), tbl.TypeString(tbl.TypeOf(v)))}
		}
		m[v.Positive()] = repls[i]
	}
	s := &substitution{tbl: tbl, m: m, cache: make(map[Term]Term)}
	return s.apply(t)
}

type substitution struct {
	tbl   *Table
	m     map[Term]Term
	cache map[Term]Term
}

func (s *substitution) apply(t Term) (Term, error) {
	if t < 0 {
		return t, nil
	}
	neg := t.IsNeg()
	p := t.Positive()
	if r, ok := s.m[p]; ok {
		if neg {
			return r.Not(), nil
		}
		return r, nil
	}
	if s.tbl.IsAtomic(p) {
		return t, nil
	}
	if r, ok := s.cache[p]; ok {
		if neg {
			return r.Not(), nil
		}
		return r, nil
	}
	var result Term
	var err error
	if s.tbl.Kind(p) == KindForall {
		result, err = s.applyForall(p)
	} else {
		children := s.tbl.Children(p)
		rewritten := make([]Term, len(children))
		changed := false
		for i, c := range children {
			rewritten[i], err = s.apply(c)
			if err != nil {
				return NullTerm, err
			}
			changed = changed || rewritten[i] != c
		}
		if !changed {
			result = p
		} else {
			result, err = s.tbl.Rebuild(p, rewritten)
		}
	}
	if err != nil {
		return NullTerm, err
	}
	s.cache[p] = result
	if neg {
		return result.Not(), nil
	}
	return result, nil
}

// applyForall descends into a quantifier, shadowing any substitution
// target rebound by the quantifier itself.
func (s *substitution) applyForall(p Term) (Term, error) {
	children := s.tbl.Children(p)
	bound := children[:len(children)-1]
	body := children[len(children)-1]

	shadowed := false
	for _, v := range bound {
		if _, ok := s.m[v.Positive()]; ok {
			shadowed = true
			break
		}
	}
	inner := s
	if shadowed {
		filtered := make(map[Term]Term, len(s.m))
		for k, v := range s.m {
			filtered[k] = v
		}
		for _, v := range bound {
			delete(filtered, v.Positive())
		}
		if len(filtered) == 0 {
			return p, nil
		}
		// the cache keys assume one fixed mapping, so the
		// shadowed scope gets its own
		inner = &substitution{tbl: s.tbl, m: filtered, cache: make(map[Term]Term)}
	}
	rewritten, err := inner.apply(body)
	if err != nil {
		return NullTerm, err
	}
	if rewritten == body {
		return p, nil
	}
	return s.tbl.Forall(bound, rewritten), nil
}
