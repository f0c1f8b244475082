package vm

import (
	"fmt"
)

// ---------------------------------------------------------------------------
// The fetch-decode-execute loop
// ---------------------------------------------------------------------------

// Run executes opcodes until the machine halts via STOP or faults. The
// returned error is the fault; a clean halt returns nil. Run never yields:
// a non-terminating program simply does not return.
func (m *Machine) Run() error {
	for !m.halted {
		if err := m.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Step executes exactly one opcode. Calling Step on a halted machine is an
// error; calling it on a faulted machine returns the fault again.
func (m *Machine) Step() error {
	if m.fault != nil {
		return m.fault
	}
	if m.halted {
		return fmt.Errorf("vm: machine halted")
	}
	if !m.c.IsRef() {
		return m.failFetchf(FaultProtocolViolation, "control exhausted without STOP")
	}
	head, rest, err := m.heap.Read(m.c.Addr())
	if err != nil {
		return m.failFetchf(FaultInvalidAddress, "%v", err)
	}
	if !head.IsOpcode() || !head.Op().Valid() {
		return m.failFetchf(FaultUnknownOpcode, "expected an opcode, found %s", head)
	}
	op := head.Op()
	m.steps++
	if m.trace {
		log.Debugf("[%s] step %d: %s S=%s E=%s C=%s D=%s",
			m.id, m.steps, op, m.s, m.e, m.c, m.d)
	}
	return m.exec(op, rest)
}

// exec dispatches one opcode. rest is the control list after the opcode
// itself; handlers that take operands consume them from rest, and every
// handler leaves C pointing at the next instruction.
func (m *Machine) exec(op Opcode, rest Value) error {
	switch op {

	// --- Load and store ---

	case OpNIL:
		m.pushS(Nil)
		m.c = rest

	case OpLDC:
		v, err := m.next(op, &rest)
		if err != nil {
			return err
		}
		m.pushS(v)
		m.c = rest

	case OpLD:
		pair, err := m.next(op, &rest)
		if err != nil {
			return err
		}
		i, j, ok := m.coordinates(pair)
		if !ok {
			return m.failf(FaultBadAddress, op, "malformed coordinate pair %s", pair)
		}
		v, err := m.locate(op, i, j)
		if err != nil {
			return err
		}
		m.pushS(v)
		m.c = rest

	case OpLDF:
		code, err := m.next(op, &rest)
		if err != nil {
			return err
		}
		if !code.IsRef() {
			return m.failf(FaultTypeMismatch, op, "closure body is %s, not a code list", code)
		}
		m.pushS(m.heap.Cons(code, m.e))
		m.c = rest

	// --- Application and return ---

	case OpAP, OpRAP:
		clo, err := m.popS(op)
		if err != nil {
			return err
		}
		if !clo.IsRef() {
			return m.failf(FaultTypeMismatch, op, "expected a closure, found %s", clo)
		}
		args, err := m.popS(op)
		if err != nil {
			return err
		}
		code, cenv, rerr := m.heap.Read(clo.Addr())
		if rerr != nil {
			return m.failf(FaultInvalidAddress, op, "%v", rerr)
		}
		if !code.IsRef() {
			return m.failf(FaultTypeMismatch, op, "closure code is %s, not a code list", code)
		}
		if op == OpAP {
			m.pushD(m.triple(m.s, m.e, rest))
			m.e = m.heap.Cons(args, cenv)
		} else {
			// RAP resolves recursion by rewriting the dummy frame in
			// place: the closure's captured environment then aliases the
			// frame holding its own arguments.
			if !cenv.IsRef() {
				return m.failf(FaultProtocolViolation, op, "closure environment %s has no pending dummy frame", cenv)
			}
			frame, outer, rerr := m.heap.Read(cenv.Addr())
			if rerr != nil {
				return m.failf(FaultInvalidAddress, op, "%v", rerr)
			}
			if !frame.IsDummy() {
				return m.failf(FaultProtocolViolation, op, "frame 0 of the closure environment is %s, not a pending dummy frame", frame)
			}
			m.pushD(m.triple(m.s, outer, rest))
			if werr := m.heap.Write(cenv.Addr(), args, outer); werr != nil {
				return m.failf(FaultInvalidAddress, op, "%v", werr)
			}
			m.e = cenv
		}
		m.s = Nil
		m.c = code

	case OpRTN:
		r, err := m.popS(op)
		if err != nil {
			return err
		}
		entry, err := m.popD(op)
		if err != nil {
			return err
		}
		s, e, c, ok := m.splitTriple(entry)
		if !ok {
			return m.failf(FaultTypeMismatch, op, "dump entry %s is not a return triple", entry)
		}
		m.s = m.heap.Cons(r, s)
		m.e = e
		m.c = c

	case OpDUM:
		m.e = m.heap.Cons(Dummy, m.e)
		m.c = rest

	// --- Branching ---

	case OpSEL:
		sel, err := m.popS(op)
		if err != nil {
			return err
		}
		if !sel.IsInteger() {
			return m.failf(FaultTypeMismatch, op, "selector is %s, not an integer", sel)
		}
		thenBr, err := m.next(op, &rest)
		if err != nil {
			return err
		}
		elseBr, err := m.next(op, &rest)
		if err != nil {
			return err
		}
		if !thenBr.IsRef() || !elseBr.IsRef() {
			return m.failf(FaultTypeMismatch, op, "branches %s / %s are not code lists", thenBr, elseBr)
		}
		m.pushD(rest)
		if sel.Int() != 0 {
			m.c = thenBr
		} else {
			m.c = elseBr
		}

	case OpJOIN:
		cont, err := m.popD(op)
		if err != nil {
			return err
		}
		m.c = cont

	// --- List structure ---

	case OpCAR, OpCDR:
		v, err := m.popS(op)
		if err != nil {
			return err
		}
		if !v.IsRef() {
			return m.failf(FaultTypeMismatch, op, "expected a cell reference, found %s", v)
		}
		first, second, rerr := m.heap.Read(v.Addr())
		if rerr != nil {
			return m.failf(FaultInvalidAddress, op, "%v", rerr)
		}
		if op == OpCAR {
			m.pushS(first)
		} else {
			m.pushS(second)
		}
		m.c = rest

	case OpCONS:
		b, err := m.popS(op)
		if err != nil {
			return err
		}
		a, err := m.popS(op)
		if err != nil {
			return err
		}
		m.pushS(m.heap.Cons(a, b))
		m.c = rest

	case OpATOM:
		v, err := m.popS(op)
		if err != nil {
			return err
		}
		if v.IsAtom() {
			m.pushS(FromInt(1))
		} else {
			m.pushS(FromInt(0))
		}
		m.c = rest

	// --- Arithmetic and comparison ---

	case OpADD, OpSUB, OpMUL, OpDIV, OpEQ, OpLT, OpGT, OpLEQ, OpGEQ:
		b, err := m.popS(op)
		if err != nil {
			return err
		}
		a, err := m.popS(op)
		if err != nil {
			return err
		}
		if !a.IsInteger() || !b.IsInteger() {
			return m.failf(FaultTypeMismatch, op, "operands %s, %s are not integers", a, b)
		}
		r, err := m.arith(op, a.Int(), b.Int())
		if err != nil {
			return err
		}
		m.pushS(FromInt(r))
		m.c = rest

	// --- I/O and control ---

	case OpWRITEI:
		v, err := m.popS(op)
		if err != nil {
			return err
		}
		if !v.IsInteger() {
			return m.failf(FaultTypeMismatch, op, "expected an integer, found %s", v)
		}
		m.emit(v.Int())
		m.c = rest

	case OpSTOP:
		m.halted = true
		if m.trace {
			log.Infof("[%s] halted after %d steps", m.id, m.steps)
		}

	default:
		return m.failf(FaultUnknownOpcode, op, "no handler for opcode %d", uint8(op))
	}
	return nil
}

// arith computes a op b; a was pushed before b. DIV floors, matching the
// source machine.
func (m *Machine) arith(op Opcode, a, b int64) (int64, error) {
	switch op {
	case OpADD:
		return a + b, nil
	case OpSUB:
		return a - b, nil
	case OpMUL:
		return a * b, nil
	case OpDIV:
		if b == 0 {
			return 0, m.failf(FaultDivisionByZero, op, "%d / 0", a)
		}
		q := a / b
		if a%b != 0 && (a < 0) != (b < 0) {
			q--
		}
		return q, nil
	case OpEQ:
		return boolInt(a == b), nil
	case OpLT:
		return boolInt(a < b), nil
	case OpGT:
		return boolInt(a > b), nil
	case OpLEQ:
		return boolInt(a <= b), nil
	case OpGEQ:
		return boolInt(a >= b), nil
	default:
		return 0, m.failf(FaultUnknownOpcode, op, "not an arithmetic opcode")
	}
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// ---------------------------------------------------------------------------
// Register plumbing
// ---------------------------------------------------------------------------

// pushS pushes v onto the stack register.
func (m *Machine) pushS(v Value) {
	m.s = m.heap.Cons(v, m.s)
}

// popS pops the top of the stack register.
func (m *Machine) popS(op Opcode) (Value, error) {
	if !m.s.IsRef() {
		return Nil, m.failf(FaultStackUnderflow, op, "pop from empty stack")
	}
	head, tail, err := m.heap.Read(m.s.Addr())
	if err != nil {
		return Nil, m.failf(FaultInvalidAddress, op, "%v", err)
	}
	m.s = tail
	return head, nil
}

// pushD pushes an entry onto the dump register.
func (m *Machine) pushD(v Value) {
	m.d = m.heap.Cons(v, m.d)
}

// popD pops the most recent dump entry.
func (m *Machine) popD(op Opcode) (Value, error) {
	if !m.d.IsRef() {
		return Nil, m.failf(FaultDumpUnderflow, op, "pop from empty dump")
	}
	head, tail, err := m.heap.Read(m.d.Addr())
	if err != nil {
		return Nil, m.failf(FaultInvalidAddress, op, "%v", err)
	}
	m.d = tail
	return head, nil
}

// next consumes one operand from the control list.
func (m *Machine) next(op Opcode, rest *Value) (Value, error) {
	if !rest.IsRef() {
		return Nil, m.failf(FaultProtocolViolation, op, "missing operand")
	}
	head, tail, err := m.heap.Read(rest.Addr())
	if err != nil {
		return Nil, m.failf(FaultInvalidAddress, op, "%v", err)
	}
	*rest = tail
	return head, nil
}

// triple packs a saved (S, E, C) dump entry as a three-element list.
func (m *Machine) triple(s, e, c Value) Value {
	return m.heap.Cons(s, m.heap.Cons(e, m.heap.Cons(c, Nil)))
}

// splitTriple unpacks a dump entry produced by triple.
func (m *Machine) splitTriple(entry Value) (s, e, c Value, ok bool) {
	if !entry.IsRef() {
		return Nil, Nil, Nil, false
	}
	s, t1, ok := m.readPair(entry)
	if !ok || !t1.IsRef() {
		return Nil, Nil, Nil, false
	}
	e, t2, ok := m.readPair(t1)
	if !ok || !t2.IsRef() {
		return Nil, Nil, Nil, false
	}
	c, tail, ok := m.readPair(t2)
	if !ok || !tail.IsNil() {
		return Nil, Nil, Nil, false
	}
	return s, e, c, true
}

// readPair reads both fields of the cell referenced by v.
func (m *Machine) readPair(v Value) (first, second Value, ok bool) {
	first, second, err := m.heap.Read(v.Addr())
	if err != nil {
		return Nil, Nil, false
	}
	return first, second, true
}

// coordinates decodes an LD operand: a two-element list (i j) of integers.
func (m *Machine) coordinates(pair Value) (i, j int64, ok bool) {
	if !pair.IsRef() {
		return 0, 0, false
	}
	iv, tail, ok := m.readPair(pair)
	if !ok || !iv.IsInteger() || !tail.IsRef() {
		return 0, 0, false
	}
	jv, _, ok := m.readPair(tail)
	if !ok || !jv.IsInteger() {
		return 0, 0, false
	}
	return iv.Int(), jv.Int(), true
}

// locate resolves variable coordinates against the environment register:
// the j-th slot of the i-th frame, both 1-based, frame 1 innermost.
func (m *Machine) locate(op Opcode, i, j int64) (Value, error) {
	if i < 1 || j < 1 {
		return Nil, m.failf(FaultBadAddress, op, "coordinates (%d,%d) out of range", i, j)
	}
	frames := m.e
	for n := i; n > 1; n-- {
		next, ok := m.heap.cdr(frames)
		if !ok {
			return Nil, m.failf(FaultBadAddress, op, "frame %d out of range", i)
		}
		frames = next
	}
	frame, ok := m.heap.car(frames)
	if !ok {
		return Nil, m.failf(FaultBadAddress, op, "frame %d out of range", i)
	}
	if frame.IsDummy() {
		return Nil, m.failf(FaultBadAddress, op, "frame %d is a pending dummy frame", i)
	}
	for n := j; n > 1; n-- {
		next, ok := m.heap.cdr(frame)
		if !ok {
			return Nil, m.failf(FaultBadAddress, op, "slot %d out of range in frame %d", j, i)
		}
		frame = next
	}
	slot, ok := m.heap.car(frame)
	if !ok {
		return Nil, m.failf(FaultBadAddress, op, "slot %d out of range in frame %d", j, i)
	}
	return slot, nil
}
