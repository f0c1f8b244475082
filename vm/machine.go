package vm

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("secd.vm")

// ---------------------------------------------------------------------------
// Machine: the four SECD registers plus run state
// ---------------------------------------------------------------------------

// Machine is one SECD machine instance: a heap of cells and the four
// registers S (stack), E (environment), C (control), D (dump). A machine is
// strictly single-threaded; Run drives it to STOP or to a fatal fault.
type Machine struct {
	heap *Heap
	id   string

	s, e, c, d Value

	halted bool
	fault  *Fault

	output []int64
	sink   io.Writer // optional; WRITEI also prints here when set

	trace bool
	steps uint64
}

// NewMachine creates a machine with its own empty heap.
func NewMachine() *Machine {
	return NewMachineWithHeap(NewHeap())
}

// NewMachineWithHeap creates a machine over an existing heap, so a caller
// can pre-build structure (or share an encoder) before loading.
func NewMachineWithHeap(h *Heap) *Machine {
	return &Machine{
		heap: h,
		id:   uuid.NewString(),
	}
}

// ID returns the machine's run identifier, used in trace output.
func (m *Machine) ID() string {
	return m.id
}

// Heap returns the machine's cell store.
func (m *Machine) Heap() *Heap {
	return m.heap
}

// SetTrace enables per-step debug logging.
func (m *Machine) SetTrace(on bool) {
	m.trace = on
}

// SetSink directs WRITEI output to w (one integer per line) in addition to
// the recorded output sequence.
func (m *Machine) SetSink(w io.Writer) {
	m.sink = w
}

// Load encodes a program literal and initializes the registers:
// C = the program, S = E = D = Nil. Any previous run state is discarded.
func (m *Machine) Load(program any) error {
	code, err := m.heap.Encode(program)
	if err != nil {
		return err
	}
	m.LoadCode(code)
	return nil
}

// LoadCode initializes the registers with an already-encoded program.
func (m *Machine) LoadCode(code Value) {
	m.s = Nil
	m.e = Nil
	m.c = code
	m.d = Nil
	m.halted = false
	m.fault = nil
	m.output = m.output[:0]
	m.steps = 0
	if m.trace {
		log.Debugf("[%s] loaded program at %s", m.id, code)
	}
}

// S returns the stack register.
func (m *Machine) S() Value { return m.s }

// E returns the environment register.
func (m *Machine) E() Value { return m.e }

// C returns the control register.
func (m *Machine) C() Value { return m.c }

// D returns the dump register.
func (m *Machine) D() Value { return m.d }

// Halted returns true after STOP.
func (m *Machine) Halted() bool {
	return m.halted
}

// Faulted returns true if the machine stopped on a contract violation.
func (m *Machine) Faulted() bool {
	return m.fault != nil
}

// Fault returns the fault record, or nil if the machine has not faulted.
func (m *Machine) Fault() *Fault {
	return m.fault
}

// Output returns the integers emitted by WRITEI, in emission order. The
// slice is live; callers must not modify it.
func (m *Machine) Output() []int64 {
	return m.output
}

// Steps returns the number of opcodes executed since the last load.
func (m *Machine) Steps() uint64 {
	return m.steps
}

// DumpRegisters renders the registers for diagnostics, decoding each list
// structure the way the original machine's register dump did.
func (m *Machine) DumpRegisters() string {
	var b strings.Builder
	for _, reg := range []struct {
		name string
		v    Value
	}{{"S", m.s}, {"E", m.e}, {"C", m.c}, {"D", m.d}} {
		dec, err := m.heap.Decode(reg.v)
		if err != nil {
			dec = fmt.Sprintf("<%v>", err)
		}
		fmt.Fprintf(&b, "%s: %s value: %v\n", reg.name, reg.v, dec)
	}
	return b.String()
}

// emit appends n to the output sequence and to the sink, if any.
func (m *Machine) emit(n int64) {
	m.output = append(m.output, n)
	if m.sink != nil {
		fmt.Fprintf(m.sink, "%d\n", n)
	}
}

// failf stops the machine with a fault. The fault records the opcode and
// the S/D depths at the point of violation; no opcode executes after it.
func (m *Machine) failf(kind FaultKind, op Opcode, format string, args ...any) error {
	return m.fail(kind, op.Name(), fmt.Sprintf(format, args...))
}

// failFetchf records a fault raised while fetching the next opcode, before
// any handler ran.
func (m *Machine) failFetchf(kind FaultKind, format string, args ...any) error {
	return m.fail(kind, "fetch", fmt.Sprintf(format, args...))
}

func (m *Machine) fail(kind FaultKind, op, detail string) error {
	m.fault = &Fault{
		Kind:       kind,
		Op:         op,
		Detail:     detail,
		StackDepth: m.heap.listLen(m.s),
		DumpDepth:  m.heap.listLen(m.d),
	}
	if m.trace {
		log.Errorf("[%s] step %d: %v", m.id, m.steps, m.fault)
	}
	return m.fault
}
