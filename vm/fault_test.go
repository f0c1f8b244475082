package vm

import (
	"strings"
	"testing"
)

func TestFaultKindString(t *testing.T) {
	tests := []struct {
		kind FaultKind
		want string
	}{
		{FaultInvalidAddress, "InvalidAddress"},
		{FaultBadAddress, "BadAddress"},
		{FaultTypeMismatch, "TypeMismatch"},
		{FaultDumpUnderflow, "DumpUnderflow"},
		{FaultStackUnderflow, "StackUnderflow"},
		{FaultDivisionByZero, "DivisionByZero"},
		{FaultProtocolViolation, "ProtocolViolation"},
		{FaultUnknownOpcode, "UnknownOpcode"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestFaultError(t *testing.T) {
	f := &Fault{
		Kind:       FaultDivisionByZero,
		Op:         "DIV",
		Detail:     "5 / 0",
		StackDepth: 2,
		DumpDepth:  1,
	}
	msg := f.Error()
	for _, want := range []string{"DivisionByZero", "DIV", "5 / 0", "S=2", "D=1"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
}

func TestFaultErrorNoDetail(t *testing.T) {
	f := &Fault{Kind: FaultStackUnderflow, Op: "ADD"}
	msg := f.Error()
	if strings.Contains(msg, ": (") {
		t.Errorf("Error() = %q, empty detail should be omitted", msg)
	}
}
