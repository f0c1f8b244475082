package vm

import (
	"fmt"
)

// ---------------------------------------------------------------------------
// Value: the tagged union stored in cell fields and registers
// ---------------------------------------------------------------------------

// ValueKind discriminates the variants of a Value.
type ValueKind uint8

const (
	KindNil     ValueKind = iota // the empty-list/terminator atom
	KindInteger                  // signed integer atom
	KindOpcode                   // symbolic opcode tag
	KindRef                      // reference to a heap cell
	KindDummy                    // pending frame placeholder installed by DUM
)

// kindNames maps kinds to their diagnostic names.
var kindNames = [...]string{
	KindNil:     "Nil",
	KindInteger: "Integer",
	KindOpcode:  "Opcode",
	KindRef:     "Ref",
	KindDummy:   "Dummy",
}

// String returns the kind's diagnostic name.
func (k ValueKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("ValueKind(%d)", uint8(k))
}

// Value is a single machine word: an integer, an opcode tag, the empty-list
// marker, a cell reference, or the dummy-frame placeholder. The zero Value
// is Nil.
type Value struct {
	kind ValueKind
	n    int64 // integer payload, opcode, or address
}

// Nil is the empty-list value.
var Nil = Value{}

// Dummy is the placeholder installed by DUM as frame 0 of the environment.
// RAP overwrites it in place with the real bound frame. It never appears on
// the stack of a well-behaved program.
var Dummy = Value{kind: KindDummy}

// FromInt creates an integer value.
func FromInt(n int64) Value {
	return Value{kind: KindInteger, n: n}
}

// FromOpcode creates an opcode tag value.
func FromOpcode(op Opcode) Value {
	return Value{kind: KindOpcode, n: int64(op)}
}

// FromAddress creates a reference to the cell at address a.
func FromAddress(a Address) Value {
	return Value{kind: KindRef, n: int64(a)}
}

// Kind returns the value's variant.
func (v Value) Kind() ValueKind {
	return v.kind
}

// IsNil returns true if v is the empty-list marker.
func (v Value) IsNil() bool {
	return v.kind == KindNil
}

// IsInteger returns true if v is an integer atom.
func (v Value) IsInteger() bool {
	return v.kind == KindInteger
}

// IsOpcode returns true if v is an opcode tag.
func (v Value) IsOpcode() bool {
	return v.kind == KindOpcode
}

// IsRef returns true if v references a heap cell.
func (v Value) IsRef() bool {
	return v.kind == KindRef
}

// IsDummy returns true if v is the pending-frame placeholder.
func (v Value) IsDummy() bool {
	return v.kind == KindDummy
}

// IsAtom returns true if v is not a cell reference. This is the predicate
// tested by the ATOM opcode.
func (v Value) IsAtom() bool {
	return v.kind != KindRef
}

// Int returns the integer payload.
// Panics if v is not an integer.
func (v Value) Int() int64 {
	if v.kind != KindInteger {
		panic("Value.Int: not an integer")
	}
	return v.n
}

// Op returns the opcode tag.
// Panics if v is not an opcode.
func (v Value) Op() Opcode {
	if v.kind != KindOpcode {
		panic("Value.Op: not an opcode")
	}
	return Opcode(v.n)
}

// Addr returns the referenced cell address.
// Panics if v is not a reference.
func (v Value) Addr() Address {
	if v.kind != KindRef {
		panic("Value.Addr: not a reference")
	}
	return Address(v.n)
}

// String renders the value for diagnostics. References render as their
// address; use Heap.Decode to render the structure they point at.
func (v Value) String() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindInteger:
		return fmt.Sprintf("%d", v.n)
	case KindOpcode:
		return Opcode(v.n).String()
	case KindRef:
		return fmt.Sprintf("@%d", v.n)
	case KindDummy:
		return "dummy"
	default:
		return fmt.Sprintf("Value(%d,%d)", v.kind, v.n)
	}
}
