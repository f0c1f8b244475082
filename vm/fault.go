package vm

import (
	"fmt"
)

// ---------------------------------------------------------------------------
// Faults: fatal machine errors
// ---------------------------------------------------------------------------

// FaultKind classifies the contract violation that stopped the machine.
type FaultKind uint8

const (
	FaultInvalidAddress    FaultKind = iota // reference outside the heap
	FaultBadAddress                         // LD coordinates out of range
	FaultTypeMismatch                       // wrong value variant for the opcode
	FaultDumpUnderflow                      // RTN/JOIN with an empty dump
	FaultStackUnderflow                     // pop from an empty stack
	FaultDivisionByZero                     // DIV with zero divisor
	FaultProtocolViolation                  // RAP without a pending dummy frame, or a malformed instruction stream
	FaultUnknownOpcode                      // head of C is not a canonical opcode
)

var faultKindNames = [...]string{
	FaultInvalidAddress:    "InvalidAddress",
	FaultBadAddress:        "BadAddress",
	FaultTypeMismatch:      "TypeMismatch",
	FaultDumpUnderflow:     "DumpUnderflow",
	FaultStackUnderflow:    "StackUnderflow",
	FaultDivisionByZero:    "DivisionByZero",
	FaultProtocolViolation: "ProtocolViolation",
	FaultUnknownOpcode:     "UnknownOpcode",
}

// String returns the fault kind's name.
func (k FaultKind) String() string {
	if int(k) < len(faultKindNames) {
		return faultKindNames[k]
	}
	return fmt.Sprintf("FaultKind(%d)", uint8(k))
}

// Fault records why a machine stopped. Faults are fatal: the machine that
// raised one never executes another opcode. The output emitted before the
// fault remains observable for diagnostics.
type Fault struct {
	Kind       FaultKind
	Op         string // name of the opcode being executed, or "fetch"
	Detail     string
	StackDepth int // entries on S at the fault point
	DumpDepth  int // entries on D at the fault point
}

// Error implements the error interface.
func (f *Fault) Error() string {
	if f.Detail == "" {
		return fmt.Sprintf("vm: %s fault in %s (S=%d D=%d)", f.Kind, f.Op, f.StackDepth, f.DumpDepth)
	}
	return fmt.Sprintf("vm: %s fault in %s: %s (S=%d D=%d)", f.Kind, f.Op, f.Detail, f.StackDepth, f.DumpDepth)
}
