package vm

import (
	"reflect"
	"testing"
)

// ---------------------------------------------------------------------------
// Encoder tests
// ---------------------------------------------------------------------------

func TestEncodeAtoms(t *testing.T) {
	h := NewHeap()

	v, err := h.Encode(42)
	if err != nil {
		t.Fatalf("Encode(42): %v", err)
	}
	if !v.IsInteger() || v.Int() != 42 {
		t.Errorf("Encode(42) = %s", v)
	}

	v, err = h.Encode(OpADD)
	if err != nil {
		t.Fatalf("Encode(ADD): %v", err)
	}
	if !v.IsOpcode() || v.Op() != OpADD {
		t.Errorf("Encode(ADD) = %s", v)
	}

	if h.Len() != 0 {
		t.Errorf("atoms should not allocate, Len() = %d", h.Len())
	}
}

func TestEncodeEmptyList(t *testing.T) {
	h := NewHeap()
	v, err := h.Encode([]any{})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !v.IsNil() {
		t.Errorf("empty list should encode to nil, got %s", v)
	}
}

func TestEncodeListStructure(t *testing.T) {
	h := NewHeap()
	v, err := h.Encode([]any{1, 2, 3})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !v.IsRef() {
		t.Fatalf("Encode = %s, want a ref", v)
	}
	if h.Len() != 3 {
		t.Errorf("Len() = %d, want 3", h.Len())
	}

	// Walk the spine: (1 . (2 . (3 . nil)))
	want := []int64{1, 2, 3}
	for i, n := range want {
		first, second, err := h.Read(v.Addr())
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if first.Int() != n {
			t.Errorf("element %d = %s, want %d", i, first, n)
		}
		v = second
	}
	if !v.IsNil() {
		t.Errorf("tail = %s, want nil", v)
	}
}

func TestEncodeUnknownOpcode(t *testing.T) {
	h := NewHeap()
	if _, err := h.Encode(Opcode(100)); err == nil {
		t.Error("Encode of an out of range opcode should fail")
	}
}

func TestEncodeUnsupportedType(t *testing.T) {
	h := NewHeap()
	if _, err := h.Encode("hello"); err == nil {
		t.Error("Encode of a string should fail")
	}
}

// ---------------------------------------------------------------------------
// Round trip tests
// ---------------------------------------------------------------------------

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		lit  any
	}{
		{"flat", []any{1, 2, 3}},
		{"nested", []any{1, []any{2, 3}, 4}},
		{"deep", []any{[]any{[]any{7}}}},
		{"empty inner", []any{[]any{}, 1}},
		{"program", []any{OpLDC, 3, OpLDC, 4, OpADD, OpWRITEI, OpSTOP}},
		{"coordinates", []any{OpLD, []any{1, 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHeap()
			v, err := h.Encode(tt.lit)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			got, err := h.Decode(v)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if !reflect.DeepEqual(got, tt.lit) {
				t.Errorf("round trip = %#v, want %#v", got, tt.lit)
			}
		})
	}
}

func TestDecodeDummy(t *testing.T) {
	h := NewHeap()
	v := h.Cons(Dummy, Nil)
	got, err := h.Decode(v)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(got, []any{DummyMarker}) {
		t.Errorf("Decode = %#v, want [%s]", got, DummyMarker)
	}
}

func TestDecodeCycle(t *testing.T) {
	h := NewHeap()
	a := h.Alloc(FromInt(1), Nil)
	// Tie the knot: cdr points back at the cell itself.
	if err := h.Write(a, FromInt(1), FromAddress(a)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := h.Decode(FromAddress(a))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(got, []any{1, LoopMarker}) {
		t.Errorf("Decode = %#v, want [1 %s]", got, LoopMarker)
	}
}

func TestDecodeImproperList(t *testing.T) {
	h := NewHeap()
	v := h.Cons(FromInt(1), FromInt(2))
	got, err := h.Decode(v)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(got, []any{1, ".", 2}) {
		t.Errorf("Decode = %#v, want [1 . 2]", got)
	}
}
