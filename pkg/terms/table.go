// Package terms implements the shared term table consumed by the EF
// model-resolution core: hash-consed terms with explicit polarity,
// type queries, kind-directed reconstruction, and simultaneous
// substitution. All terms constructed during a session are owned by
// one Table, which outlives the components that use it.
package terms

import (
	"fmt"
	"strings"

	"github.com/mitchellh/hashstructure"
)

// Term values are handles into a Table. The low bit carries polarity:
// a Term with the bit set denotes the negation of the underlying
// (necessarily boolean) node, so negation costs no allocation and
// every term can be queried for its sign.
type Term int32

// NullTerm is returned by constructors and queries in error cases.
const NullTerm Term = -1

// Not returns the opposite polarity of t. It is only meaningful for
// boolean terms; constructors reject negated non-boolean operands.
func (t Term) Not() Term {
	if t < 0 {
		return t
	}
	return t ^ 1
}

// IsNeg reports whether t is a negated occurrence.
func (t Term) IsNeg() bool {
	return t >= 0 && t&1 == 1
}

// Positive returns t stripped of its sign.
func (t Term) Positive() Term {
	if t < 0 {
		return t
	}
	return t &^ 1
}

func (t Term) index() int32 {
	return int32(t) >> 1
}

func termOf(index int32) Term {
	return Term(index << 1)
}

type Kind int

const (
	KindInvalid Kind = iota
	KindBool         // the boolean constant true
	KindConstant     // free uninterpreted constant or function symbol
	KindVariable     // bound variable
	KindRational     // rational constant
	KindBitvector    // bitvector constant
	KindEq
	KindDistinct
	KindOr
	KindXor
	KindIte
	KindApp
	KindForall
	KindBvArray
	KindBvDiv
	KindBvRem
	KindBvSdiv
	KindBvSrem
	KindBvSmod
	KindBvShl
	KindBvLshr
	KindBvAshr
	KindBvGe
	KindBvSge
)

var kindNames = map[Kind]string{
	KindInvalid:   "invalid",
	KindBool:      "bool-const",
	KindConstant:  "constant",
	KindVariable:  "variable",
	KindRational:  "rational-const",
	KindBitvector: "bitvector-const",
	KindEq:        "eq",
	KindDistinct:  "distinct",
	KindOr:        "or",
	KindXor:       "xor",
	KindIte:       "ite",
	KindApp:       "app",
	KindForall:    "forall",
	KindBvArray:   "bv-array",
	KindBvDiv:     "bv-div",
	KindBvRem:     "bv-rem",
	KindBvSdiv:    "bv-sdiv",
	KindBvSrem:    "bv-srem",
	KindBvSmod:    "bv-smod",
	KindBvShl:     "bv-shl",
	KindBvLshr:    "bv-lshr",
	KindBvAshr:    "bv-ashr",
	KindBvGe:      "bv-ge",
	KindBvSge:     "bv-sge",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// nodeKey carries every field that distinguishes one term node from
// another. Only exported fields participate in interning hashes.
type nodeKey struct {
	Kind     Kind
	Type     Type
	Name     string
	Num      string // canonical numeral for rational and bitvector constants
	Children []Term
}

func nodeKeysEqual(a, b *nodeKey) bool {
	if a.Kind != b.Kind || a.Type != b.Type || a.Name != b.Name || a.Num != b.Num {
		return false
	}
	if len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if a.Children[i] != b.Children[i] {
			return false
		}
	}
	return true
}

// Table interns terms and types. A Table is not safe for concurrent
// mutation.
type Table struct {
	nodes   []nodeKey
	buckets map[uint64][]int32

	types       []typeKey
	typeBuckets map[uint64][]Type

	boolType     Type
	rationalType Type

	errs []error
}

// NewTable returns an empty Table with the built-in scalar types and
// the boolean constant already interned.
func NewTable() *Table {
	tbl := &Table{
		buckets:     make(map[uint64][]int32),
		typeBuckets: make(map[uint64][]Type),
	}
	tbl.boolType = tbl.internType(typeKey{Kind: TypeBool, Range: NullType})
	tbl.rationalType = tbl.internType(typeKey{Kind: TypeRational, Range: NullType})
	// node 0 is the constant true; false is its negation.
	tbl.nodes = append(tbl.nodes, nodeKey{Kind: KindBool, Type: tbl.boolType})
	return tbl
}

// recordErr notes a constructor misuse. Misuses indicate a defect in
// a caller, not an expected runtime condition, so they are aggregated
// and surfaced by Err rather than returned from every constructor.
func (tbl *Table) recordErr(err error) {
	tbl.errs = append(tbl.errs, err)
}

// Err returns a single error aggregating every constructor misuse
// recorded during the Table's lifetime, or nil if there have been
// none. A non-nil return value likely indicates a defect in the
// component driving term construction.
func (tbl *Table) Err() error {
	if len(tbl.errs) == 0 {
		return nil
	}
	s := make([]string, len(tbl.errs))
	for i, err := range tbl.errs {
		s[i] = err.Error()
	}
	return fmt.Errorf("%d term construction errors: %s", len(s), strings.Join(s, ", "))
}

func (tbl *Table) internType(key typeKey) Type {
	h, err := hashstructure.Hash(key, nil)
	if err != nil {
		tbl.recordErr(fmt.Errorf("hashing type: %v", err))
		return NullType
	}
	for _, tau := range tbl.typeBuckets[h] {
		if typeKeysEqual(&tbl.types[tau], &key) {
			return tau
		}
	}
	tau := Type(len(tbl.types))
	tbl.types = append(tbl.types, key)
	tbl.typeBuckets[h] = append(tbl.typeBuckets[h], tau)
	return tau
}

func (tbl *Table) intern(key nodeKey) Term {
	h, err := hashstructure.Hash(key, nil)
	if err != nil {
		tbl.recordErr(fmt.Errorf("hashing term: %v", err))
		return NullTerm
	}
	for _, i := range tbl.buckets[h] {
		if nodeKeysEqual(&tbl.nodes[i], &key) {
			return termOf(i)
		}
	}
	i := int32(len(tbl.nodes))
	tbl.nodes = append(tbl.nodes, key)
	tbl.buckets[h] = append(tbl.buckets[h], i)
	return termOf(i)
}

// fresh appends a nominal node that is never interned. Constants and
// variables are distinguished by identity, not structure: two calls
// with the same name yield two distinct terms.
func (tbl *Table) fresh(key nodeKey) Term {
	i := int32(len(tbl.nodes))
	tbl.nodes = append(tbl.nodes, key)
	return termOf(i)
}

func (tbl *Table) node(t Term) *nodeKey {
	i := t.Positive().index()
	if i < 0 || int(i) >= len(tbl.nodes) {
		return nil
	}
	return &tbl.nodes[i]
}

// Kind returns the kind of t's underlying node, ignoring polarity.
func (tbl *Table) Kind(t Term) Kind {
	n := tbl.node(t)
	if n == nil {
		return KindInvalid
	}
	return n.Kind
}

// TypeOf returns the type of t. Negated terms are boolean.
func (tbl *Table) TypeOf(t Term) Type {
	n := tbl.node(t)
	if n == nil {
		return NullType
	}
	return n.Type
}

// NumChildren returns t's arity.
func (tbl *Table) NumChildren(t Term) int {
	n := tbl.node(t)
	if n == nil {
		return 0
	}
	return len(n.Children)
}

// Child returns t's i-th child, or NullTerm when out of range.
func (tbl *Table) Child(t Term, i int) Term {
	n := tbl.node(t)
	if n == nil || i < 0 || i >= len(n.Children) {
		return NullTerm
	}
	return n.Children[i]
}

// Children returns t's child slice. The slice is owned by the Table
// and must not be mutated.
func (tbl *Table) Children(t Term) []Term {
	n := tbl.node(t)
	if n == nil {
		return nil
	}
	return n.Children
}

// Name returns the name of a constant or variable term.
func (tbl *Table) Name(t Term) string {
	n := tbl.node(t)
	if n == nil {
		return ""
	}
	return n.Name
}

// Num returns the canonical numeral of a rational or bitvector
// constant.
func (tbl *Table) Num(t Term) string {
	n := tbl.node(t)
	if n == nil {
		return ""
	}
	return n.Num
}

// IsAtomic reports whether t is a leaf: a constant of any sort or a
// bound variable. Atomic terms rewrite to themselves and carry
// dependency rank zero.
func (tbl *Table) IsAtomic(t Term) bool {
	switch tbl.Kind(t) {
	case KindBool, KindConstant, KindVariable, KindRational, KindBitvector:
		return true
	}
	return false
}

// IsComposite reports whether t has children.
func (tbl *Table) IsComposite(t Term) bool {
	n := tbl.node(t)
	return n != nil && len(n.Children) > 0
}

// IsBoolean reports whether t has boolean type.
func (tbl *Table) IsBoolean(t Term) bool {
	return tbl.TypeOf(t) == tbl.boolType
}

// String renders t for diagnostics in an s-expression style.
func (tbl *Table) String(t Term) string {
	if t < 0 {
		return "<null>"
	}
	if t.IsNeg() {
		return fmt.Sprintf("(not %s)", tbl.String(t.Positive()))
	}
	n := tbl.node(t)
	if n == nil {
		return "<bad-term>"
	}
	switch n.Kind {
	case KindBool:
		return "true"
	case KindConstant, KindVariable:
		return n.Name
	case KindRational, KindBitvector:
		return n.Num
	case KindForall:
		vars := make([]string, len(n.Children)-1)
		for i := 0; i < len(n.Children)-1; i++ {
			vars[i] = tbl.String(n.Children[i])
		}
		return fmt.Sprintf("(forall (%s) %s)", strings.Join(vars, " "), tbl.String(n.Children[len(n.Children)-1]))
	default:
		parts := make([]string, 0, len(n.Children)+1)
		parts = append(parts, n.Kind.String())
		for _, c := range n.Children {
			parts = append(parts, tbl.String(c))
		}
		return fmt.Sprintf("(%s)", strings.Join(parts, " "))
	}
}
