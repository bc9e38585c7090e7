package arena

import (
	"math/bits"
	"strings"
)

// Type is a primitive JSON Schema type, plus the Any and Never extremes.
type Type uint8

const (
	Never Type = iota
	Any
	Null
	Boolean
	Integer
	Number
	String
	Array
	Object
)

var typeNames = [...]string{"never", "any", "null", "boolean", "integer", "number", "string", "array", "object"}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "unknown"
}

// ParseType parses a type name. Unknown names are reported as not ok.
func ParseType(s string) (Type, bool) {
	for i, n := range typeNames {
		if n == s {
			return Type(i), true
		}
	}
	return Never, false
}

// Intersect is the type-intersection lattice: Any is the identity, Never
// absorbs, Integer∩Number is Integer and any other mismatch is Never.
func Intersect(a, b Type) Type {
	switch {
	case a == Any:
		return b
	case b == Any:
		return a
	case a == Never || b == Never:
		return Never
	case a == b:
		return a
	case (a == Integer && b == Number) || (a == Number && b == Integer):
		return Integer
	default:
		return Never
	}
}

// TypeSet is a set of types read as a union. The zero value means no type
// constraint was declared.
type TypeSet uint16

// TypeSetOf builds a normalized set.
func TypeSetOf(types ...Type) TypeSet {
	var s TypeSet
	for _, t := range types {
		s = s.Add(t)
	}
	return s
}

// Add returns s with t added. Any absorbs every other member; Never is
// dropped once anything else is present.
func (s TypeSet) Add(t Type) TypeSet {
	s |= 1 << t
	if s.Has(Any) {
		return 1 << Any
	}
	if s != 1<<Never {
		s &^= 1 << Never
	}
	return s
}

// Has reports whether t is a member.
func (s TypeSet) Has(t Type) bool {
	return s&(1<<t) != 0
}

// Len returns the number of members.
func (s TypeSet) Len() int {
	return bits.OnesCount16(uint16(s))
}

// IsZero reports whether no type constraint is declared.
func (s TypeSet) IsZero() bool { return s == 0 }

// Single returns the only member of a one-element set. An empty set reads as Any.
func (s TypeSet) Single() (Type, bool) {
	switch s.Len() {
	case 0:
		return Any, true
	case 1:
		return Type(bits.TrailingZeros16(uint16(s))), true
	default:
		return Never, false
	}
}

// Slice returns the members in lattice order.
func (s TypeSet) Slice() []Type {
	var out []Type
	for t := Never; t <= Object; t++ {
		if s.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

func (s TypeSet) String() string {
	if s == 0 {
		return "unconstrained"
	}
	parts := make([]string, 0, s.Len())
	for _, t := range s.Slice() {
		parts = append(parts, t.String())
	}
	return strings.Join(parts, "|")
}
