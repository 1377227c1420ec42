package terms

import (
	"fmt"
	"strings"
)

// Type values identify types interned in a Table. The zero-width
// scalar types (boolean, rational) are created when the Table is and
// are shared by every term of that type.
type Type int32

// NullType is returned by type constructors and queries in error
// cases.
const NullType Type = -1

type TypeKind int

const (
	TypeInvalid TypeKind = iota
	TypeBool
	TypeRational
	TypeBitvector
	TypeUninterpreted
	TypeFunction
)

// typeKey carries every field that distinguishes one type from
// another. Only exported fields participate in interning hashes.
type typeKey struct {
	Kind   TypeKind
	Width  uint32
	Name   string
	Domain []Type
	Range  Type
}

func typeKeysEqual(a, b *typeKey) bool {
	if a.Kind != b.Kind || a.Width != b.Width || a.Name != b.Name || a.Range != b.Range {
		return false
	}
	if len(a.Domain) != len(b.Domain) {
		return false
	}
	for i := range a.Domain {
		if a.Domain[i] != b.Domain[i] {
			return false
		}
	}
	return true
}

// BoolType returns the boolean type.
func (tbl *Table) BoolType() Type {
	return tbl.boolType
}

// RationalType returns the rational (arithmetic) type.
func (tbl *Table) RationalType() Type {
	return tbl.rationalType
}

// BitvectorType returns the type of bitvectors of the given width.
func (tbl *Table) BitvectorType(width uint32) Type {
	if width == 0 {
		tbl.recordErr(fmt.Errorf("bitvector type of width zero"))
		return NullType
	}
	return tbl.internType(typeKey{Kind: TypeBitvector, Width: width, Range: NullType})
}

// UninterpretedType returns the uninterpreted type with the given
// name, creating it on first use. Uninterpreted types have no
// built-in interpretation beyond equality.
func (tbl *Table) UninterpretedType(name string) Type {
	return tbl.internType(typeKey{Kind: TypeUninterpreted, Name: name, Range: NullType})
}

// FunctionType returns the type of functions from domain to rng. The
// domain must be non-empty; nullary functions are plain constants of
// the range type.
func (tbl *Table) FunctionType(domain []Type, rng Type) Type {
	if len(domain) == 0 {
		tbl.recordErr(fmt.Errorf("function type with empty domain"))
		return NullType
	}
	key := typeKey{Kind: TypeFunction, Domain: append([]Type(nil), domain...), Range: rng}
	return tbl.internType(key)
}

// TypeKindOf returns the kind of tau, or TypeInvalid if tau is not a
// type of this table.
func (tbl *Table) TypeKindOf(tau Type) TypeKind {
	if tau < 0 || int(tau) >= len(tbl.types) {
		return TypeInvalid
	}
	return tbl.types[tau].Kind
}

// TypeIsUninterpreted reports whether tau is an uninterpreted type.
func (tbl *Table) TypeIsUninterpreted(tau Type) bool {
	return tbl.TypeKindOf(tau) == TypeUninterpreted
}

// TypeIsFunction reports whether tau is a function type.
func (tbl *Table) TypeIsFunction(tau Type) bool {
	return tbl.TypeKindOf(tau) == TypeFunction
}

// Domain returns the domain types of a function type.
func (tbl *Table) Domain(tau Type) []Type {
	if tbl.TypeKindOf(tau) != TypeFunction {
		return nil
	}
	return tbl.types[tau].Domain
}

// Range returns the range type of a function type.
func (tbl *Table) Range(tau Type) Type {
	if tbl.TypeKindOf(tau) != TypeFunction {
		return NullType
	}
	return tbl.types[tau].Range
}

// Width returns the width of a bitvector type.
func (tbl *Table) Width(tau Type) uint32 {
	if tbl.TypeKindOf(tau) != TypeBitvector {
		return 0
	}
	return tbl.types[tau].Width
}

// TypeName returns the name of an uninterpreted type.
func (tbl *Table) TypeName(tau Type) string {
	if tbl.TypeKindOf(tau) != TypeUninterpreted {
		return ""
	}
	return tbl.types[tau].Name
}

// TypeString renders tau for diagnostics.
func (tbl *Table) TypeString(tau Type) string {
	switch tbl.TypeKindOf(tau) {
	case TypeBool:
		return "bool"
	case TypeRational:
		return "rational"
	case TypeBitvector:
		return fmt.Sprintf("(bitvector %d)", tbl.types[tau].Width)
	case TypeUninterpreted:
		return tbl.types[tau].Name
	case TypeFunction:
		parts := make([]string, 0, len(tbl.types[tau].Domain)+1)
		for _, d := range tbl.types[tau].Domain {
			parts = append(parts, tbl.TypeString(d))
		}
		parts = append(parts, tbl.TypeString(tbl.types[tau].Range))
		return fmt.Sprintf("(-> %s)", strings.Join(parts, " "))
	}
	return "<invalid>"
}
