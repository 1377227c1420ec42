// Package values implements the semantic value store consumed by the
// EF value table: model values of boolean, rational, bitvector,
// uninterpreted and function kinds, plus the leaf-level value-to-term
// converter service. Function values carry explicit finite maps whose
// entries iterate in insertion order, so conversions are reproducible
// across runs.
package values

import (
	"fmt"
	"math/big"

	"github.com/efsolve/efsolve/pkg/terms"
)

// Value values identify semantic model values held by a Store.
type Value int32

// NullValue is returned by constructors and queries in error cases.
const NullValue Value = -1

type Kind int

const (
	KindInvalid Kind = iota
	KindUnknown
	KindBoolean
	KindRational
	KindBitvector
	KindUninterpreted
	KindFunction
)

var kindNames = map[Kind]string{
	KindInvalid:       "invalid",
	KindUnknown:       "unknown",
	KindBoolean:       "boolean",
	KindRational:      "rational",
	KindBitvector:     "bitvector",
	KindUninterpreted: "uninterpreted",
	KindFunction:      "function",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// FuncEntry is one explicit point of a function value's finite map.
type FuncEntry struct {
	Args   []Value
	Result Value
}

type node struct {
	kind    Kind
	typ     terms.Type
	b       bool
	num     string // canonical numeral or bit string
	index   int32  // distinguishes uninterpreted values of one type
	entries []FuncEntry
	def     Value // NullValue when the function has no default
}

// Store holds semantic values produced by an inner solver's model.
// Scalar values are interned so that equal values share an id, which
// is what lets the value table collapse witnesses.
type Store struct {
	nodes   []node
	scalars map[string]Value
	unknown Value
	errs    []error
}

// NewStore returns an empty Store with the distinguished unknown
// value already present.
func NewStore() *Store {
	s := &Store{scalars: make(map[string]Value)}
	s.unknown = s.append(node{kind: KindUnknown, typ: terms.NullType, def: NullValue})
	return s
}

func (s *Store) append(n node) Value {
	v := Value(len(s.nodes))
	s.nodes = append(s.nodes, n)
	return v
}

func (s *Store) internScalar(key string, n node) Value {
	if v, ok := s.scalars[key]; ok {
		return v
	}
	v := s.append(n)
	s.scalars[key] = v
	return v
}

func (s *Store) recordErr(err error) {
	s.errs = append(s.errs, err)
}

// Err returns an aggregation of every constructor misuse recorded
// during the Store's lifetime, or nil.
func (s *Store) Err() error {
	if len(s.errs) == 0 {
		return nil
	}
	return fmt.Errorf("%d value construction errors, first: %v", len(s.errs), s.errs[0])
}

// Unknown returns the distinguished unknown value, used as the
// absent-default marker of function values.
func (s *Store) Unknown() Value {
	return s.unknown
}

// Boolean returns the boolean value b.
func (s *Store) Boolean(b bool) Value {
	key := "b:f"
	if b {
		key = "b:t"
	}
	return s.internScalar(key, node{kind: KindBoolean, b: b, typ: terms.NullType, def: NullValue})
}

// Rational returns the rational value denoted by num.
func (s *Store) Rational(num string) Value {
	r, ok := new(big.Rat).SetString(num)
	if !ok {
		s.recordErr(fmt.Errorf("bad rational numeral %q", num))
		return NullValue
	}
	canon := r.RatString()
	return s.internScalar("q:"+canon, node{kind: KindRational, num: canon, typ: terms.NullType, def: NullValue})
}

// Bitvector returns the bitvector value with the given bits, most
// significant first.
func (s *Store) Bitvector(bits string) Value {
	if len(bits) == 0 {
		s.recordErr(fmt.Errorf("empty bitvector value"))
		return NullValue
	}
	for _, c := range bits {
		if c != '0' && c != '1' {
			s.recordErr(fmt.Errorf("bad bitvector value %q", bits))
			return NullValue
		}
	}
	return s.internScalar("v:"+bits, node{kind: KindBitvector, num: bits, typ: terms.NullType, def: NullValue})
}

// Uninterpreted returns the index-th element of the uninterpreted
// type tau. Equal (tau, index) pairs denote the same value.
func (s *Store) Uninterpreted(tau terms.Type, index int32) Value {
	key := fmt.Sprintf("u:%d:%d", tau, index)
	return s.internScalar(key, node{kind: KindUninterpreted, typ: tau, index: index, def: NullValue})
}

// Function returns a fresh function value of type tau with the given
// explicit entries and default. Pass a Store's Unknown value as def
// when the function has no default. Function values are nominal, not
// interned.
func (s *Store) Function(tau terms.Type, entries []FuncEntry, def Value) Value {
	n := node{kind: KindFunction, typ: tau, entries: append([]FuncEntry(nil), entries...), def: def}
	if def == s.unknown {
		n.def = NullValue
	}
	return s.append(n)
}

func (s *Store) node(v Value) *node {
	if v < 0 || int(v) >= len(s.nodes) {
		return nil
	}
	return &s.nodes[v]
}

// Kind returns the kind of v.
func (s *Store) Kind(v Value) Kind {
	n := s.node(v)
	if n == nil {
		return KindInvalid
	}
	return n.kind
}

// BoolValue returns the payload of a boolean value.
func (s *Store) BoolValue(v Value) bool {
	n := s.node(v)
	return n != nil && n.b
}

// Num returns the canonical numeral of a rational or bitvector value.
func (s *Store) Num(v Value) string {
	n := s.node(v)
	if n == nil {
		return ""
	}
	return n.num
}

// UninterpretedType returns the type of an uninterpreted value.
func (s *Store) UninterpretedType(v Value) terms.Type {
	n := s.node(v)
	if n == nil || n.kind != KindUninterpreted {
		return terms.NullType
	}
	return n.typ
}

// UninterpretedIndex returns the element index of an uninterpreted
// value within its type.
func (s *Store) UninterpretedIndex(v Value) int32 {
	n := s.node(v)
	if n == nil {
		return -1
	}
	return n.index
}

// FunctionType returns the type of a function value.
func (s *Store) FunctionType(v Value) terms.Type {
	n := s.node(v)
	if n == nil || n.kind != KindFunction {
		return terms.NullType
	}
	return n.typ
}

// Entries returns the explicit finite map of a function value in
// insertion order. The slice is owned by the Store.
func (s *Store) Entries(v Value) []FuncEntry {
	n := s.node(v)
	if n == nil {
		return nil
	}
	return n.entries
}

// Default returns a function value's default entry and whether one is
// present.
func (s *Store) Default(v Value) (Value, bool) {
	n := s.node(v)
	if n == nil || n.def == NullValue {
		return NullValue, false
	}
	return n.def, true
}

// String renders v for diagnostics.
func (s *Store) String(v Value) string {
	n := s.node(v)
	if n == nil {
		return "<null>"
	}
	switch n.kind {
	case KindUnknown:
		return "<unknown>"
	case KindBoolean:
		return fmt.Sprintf("%v", n.b)
	case KindRational:
		return n.num
	case KindBitvector:
		return "0b" + n.num
	case KindUninterpreted:
		return fmt.Sprintf("elem!%d!%d", n.typ, n.index)
	case KindFunction:
		return fmt.Sprintf("<function with %d entries>", len(n.entries))
	}
	return "<invalid>"
}
