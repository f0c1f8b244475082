package vm

import (
	"fmt"
)

// ---------------------------------------------------------------------------
// Encoder/decoder: program literals <-> heap structure
// ---------------------------------------------------------------------------
//
// A program literal is a nested Go value built from int/int64 atoms, Opcode
// tags, and []any sequences. A sequence [a, b, c] is materialized as
// Cell(a, Ref(Cell(b, Ref(Cell(c, Nil))))); the empty sequence encodes to
// Nil. The decoder is the inverse and is used only by diagnostics and tests.

// Decoder markers for structure the literal domain cannot express: a cycle
// created by RAP's back-reference, and a pending dummy frame.
const (
	LoopMarker  = "<loop>"
	DummyMarker = "<dummy>"
	dotMarker   = "."
)

// Encode materializes a program literal into cells and returns the value to
// load into a register: Nil for the empty sequence, a Ref otherwise.
func (h *Heap) Encode(lit any) (Value, error) {
	switch x := lit.(type) {
	case nil:
		return Nil, nil
	case int:
		return FromInt(int64(x)), nil
	case int64:
		return FromInt(x), nil
	case Opcode:
		if !x.Valid() {
			return Nil, fmt.Errorf("vm: encode: unknown opcode %d", uint8(x))
		}
		return FromOpcode(x), nil
	case []any:
		tail := Nil
		for i := len(x) - 1; i >= 0; i-- {
			head, err := h.Encode(x[i])
			if err != nil {
				return Nil, err
			}
			tail = h.Cons(head, tail)
		}
		return tail, nil
	default:
		return Nil, fmt.Errorf("vm: encode: unsupported literal type %T", lit)
	}
}

// Decode reads the structure at v back into a literal. Integer atoms decode
// to int, opcode tags to Opcode, Nil to the empty sequence. Cycles (the
// RAP back-reference) decode to the LoopMarker string, pending dummy frames
// to DummyMarker, and an improper tail is preceded by a "." marker, so any
// reachable heap shape renders without recursing forever.
func (h *Heap) Decode(v Value) (any, error) {
	return h.decode(v, make(map[Address]bool))
}

func (h *Heap) decode(v Value, seen map[Address]bool) (any, error) {
	switch v.Kind() {
	case KindNil:
		return []any{}, nil
	case KindInteger:
		return int(v.Int()), nil
	case KindOpcode:
		return v.Op(), nil
	case KindDummy:
		return DummyMarker, nil
	case KindRef:
		out := []any{}
		for v.IsRef() {
			a := v.Addr()
			if seen[a] {
				out = append(out, LoopMarker)
				return out, nil
			}
			seen[a] = true
			first, second, err := h.Read(a)
			if err != nil {
				return nil, fmt.Errorf("vm: decode: %w", err)
			}
			elem, err := h.decode(first, seen)
			if err != nil {
				return nil, err
			}
			out = append(out, elem)
			v = second
		}
		if !v.IsNil() {
			// Improper list: render the tail after a dot.
			tail, err := h.decode(v, seen)
			if err != nil {
				return nil, err
			}
			out = append(out, dotMarker, tail)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("vm: decode: unexpected value kind %s", v.Kind())
	}
}

// listLen returns the number of cells in the list at v, stopping at the
// first non-reference tail. The stack and dump registers are always acyclic
// so this terminates on them.
func (h *Heap) listLen(v Value) int {
	n := 0
	for v.IsRef() {
		n++
		next, ok := h.cdr(v)
		if !ok {
			break
		}
		v = next
	}
	return n
}
