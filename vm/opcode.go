package vm

import (
	"fmt"
)

// ---------------------------------------------------------------------------
// Opcode definitions
// ---------------------------------------------------------------------------

// Opcode identifies a single machine instruction. Opcodes are stored in
// cells as symbolic tags, never raw integers, so heap dumps and traces stay
// readable.
type Opcode uint8

// Load and store
const (
	OpNIL Opcode = iota // push the empty list
	OpLDC               // push the constant that follows in C
	OpLD                // push a variable located by a (frame, slot) pair
	OpLDF               // build a closure over the code list that follows in C
)

// Application and return
const (
	OpAP Opcode = iota + 4 // apply a closure
	OpRTN                  // return from an application
	OpDUM                  // push a pending dummy frame onto E
	OpRAP                  // recursive apply through the dummy frame
)

// Branching
const (
	OpSEL Opcode = iota + 8 // select one of two code lists by the top of S
	OpJOIN                  // resume after the enclosing SEL
)

// List structure
const (
	OpCAR Opcode = iota + 10 // first field of the referenced cell
	OpCDR                    // second field of the referenced cell
	OpCONS                   // allocate a cell from the top two stack items
	OpATOM                   // test whether the top of S is an atom
)

// Arithmetic and comparison. Binary operators compute a op b where a was
// pushed before b.
const (
	OpADD Opcode = iota + 14
	OpSUB
	OpMUL
	OpDIV
	OpEQ
	OpLT
	OpGT
	OpLEQ
	OpGEQ
)

// I/O and control
const (
	OpWRITEI Opcode = iota + 23 // pop an integer, append it to the output
	OpSTOP                      // halt the machine
)

// numOpcodes bounds the contiguous opcode space.
const numOpcodes = int(OpSTOP) + 1

// ---------------------------------------------------------------------------
// Opcode metadata
// ---------------------------------------------------------------------------

// OpcodeInfo holds metadata about an opcode.
type OpcodeInfo struct {
	Name        string // symbolic name as written in programs
	Operands    int    // items consumed from C after the opcode itself
	StackEffect int    // net effect on S
}

// opcodeTable maps opcodes to their metadata.
var opcodeTable = map[Opcode]OpcodeInfo{
	OpNIL: {"NIL", 0, 1},
	OpLDC: {"LDC", 1, 1},
	OpLD:  {"LD", 1, 1},
	OpLDF: {"LDF", 1, 1},

	OpAP:  {"AP", 0, -2},
	OpRTN: {"RTN", 0, -1},
	OpDUM: {"DUM", 0, 0},
	OpRAP: {"RAP", 0, -2},

	OpSEL:  {"SEL", 2, -1},
	OpJOIN: {"JOIN", 0, 0},

	OpCAR:  {"CAR", 0, 0},
	OpCDR:  {"CDR", 0, 0},
	OpCONS: {"CONS", 0, -1},
	OpATOM: {"ATOM", 0, 0},

	OpADD: {"ADD", 0, -1},
	OpSUB: {"SUB", 0, -1},
	OpMUL: {"MUL", 0, -1},
	OpDIV: {"DIV", 0, -1},
	OpEQ:  {"EQ", 0, -1},
	OpLT:  {"LT", 0, -1},
	OpGT:  {"GT", 0, -1},
	OpLEQ: {"LEQ", 0, -1},
	OpGEQ: {"GEQ", 0, -1},

	OpWRITEI: {"WRITEI", 0, -1},
	OpSTOP:   {"STOP", 0, 0},
}

// opcodeByName is the inverse of opcodeTable, built once at init.
var opcodeByName = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opcodeTable))
	for op, info := range opcodeTable {
		m[info.Name] = op
	}
	return m
}()

// Info returns the metadata for an opcode.
func (op Opcode) Info() OpcodeInfo {
	if info, ok := opcodeTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN_%02X", uint8(op))}
}

// Name returns the symbolic name for an opcode.
func (op Opcode) Name() string {
	return op.Info().Name
}

// Operands returns the number of items the opcode consumes from C after
// the opcode itself.
func (op Opcode) Operands() int {
	return op.Info().Operands
}

// Valid returns true if op is in the canonical opcode set.
func (op Opcode) Valid() bool {
	_, ok := opcodeTable[op]
	return ok
}

// String implements the Stringer interface.
func (op Opcode) String() string {
	return op.Name()
}

// ParseOpcode resolves a symbolic name to its opcode. The second result is
// false for names outside the canonical set.
func ParseOpcode(name string) (Opcode, bool) {
	op, ok := opcodeByName[name]
	return op, ok
}

// OpcodeNames returns the canonical opcode names in opcode order.
func OpcodeNames() []string {
	names := make([]string, 0, len(opcodeTable))
	for op := Opcode(0); int(op) < numOpcodes; op++ {
		if info, ok := opcodeTable[op]; ok {
			names = append(names, info.Name)
		}
	}
	return names
}
