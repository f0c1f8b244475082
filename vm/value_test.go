package vm

import (
	"testing"
)

// ---------------------------------------------------------------------------
// Kind tests
// ---------------------------------------------------------------------------

func TestValueZeroIsNil(t *testing.T) {
	var v Value
	if !v.IsNil() {
		t.Error("zero Value should be nil")
	}
	if v != Nil {
		t.Error("zero Value should equal Nil")
	}
}

func TestValueKinds(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		kind ValueKind
	}{
		{"nil", Nil, KindNil},
		{"integer", FromInt(42), KindInteger},
		{"opcode", FromOpcode(OpADD), KindOpcode},
		{"ref", FromAddress(7), KindRef},
		{"dummy", Dummy, KindDummy},
	}

	for _, tt := range tests {
		if got := tt.v.Kind(); got != tt.kind {
			t.Errorf("%s: Kind() = %v, want %v", tt.name, got, tt.kind)
		}
	}
}

func TestValueTypeChecks(t *testing.T) {
	v := FromInt(-3)
	if !v.IsInteger() {
		t.Error("IsInteger should be true")
	}
	if v.IsNil() {
		t.Error("IsNil should be false for integer")
	}
	if v.IsOpcode() {
		t.Error("IsOpcode should be false for integer")
	}
	if v.IsRef() {
		t.Error("IsRef should be false for integer")
	}
	if v.IsDummy() {
		t.Error("IsDummy should be false for integer")
	}
}

func TestValueIsAtom(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want bool
	}{
		{"nil", Nil, true},
		{"integer", FromInt(0), true},
		{"opcode", FromOpcode(OpNIL), true},
		{"dummy", Dummy, true},
		{"ref", FromAddress(0), false},
	}

	for _, tt := range tests {
		if got := tt.v.IsAtom(); got != tt.want {
			t.Errorf("%s: IsAtom() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// Accessor tests
// ---------------------------------------------------------------------------

func TestValueAccessorRoundTrip(t *testing.T) {
	for _, n := range []int64{0, 1, -1, 120, -9007199254740993} {
		if got := FromInt(n).Int(); got != n {
			t.Errorf("FromInt(%d).Int() = %d", n, got)
		}
	}
	if got := FromOpcode(OpRAP).Op(); got != OpRAP {
		t.Errorf("Op() = %v, want RAP", got)
	}
	if got := FromAddress(33).Addr(); got != 33 {
		t.Errorf("Addr() = %d, want 33", got)
	}
}

func TestValueAccessorPanics(t *testing.T) {
	assertPanics := func(name string, f func()) {
		defer func() {
			if recover() == nil {
				t.Errorf("%s: expected panic", name)
			}
		}()
		f()
	}

	assertPanics("Int on nil", func() { Nil.Int() })
	assertPanics("Op on integer", func() { FromInt(1).Op() })
	assertPanics("Addr on opcode", func() { FromOpcode(OpCAR).Addr() })
}

func TestValueString(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Nil, "nil"},
		{FromInt(-7), "-7"},
		{FromOpcode(OpLDC), "LDC"},
		{FromAddress(12), "@12"},
		{Dummy, "dummy"},
	}

	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
