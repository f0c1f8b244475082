package vm

import (
	"fmt"
)

// ---------------------------------------------------------------------------
// Heap: the arena of cons cells
// ---------------------------------------------------------------------------

// Address is a stable index into the heap. Addresses remain valid for the
// heap's lifetime; cells are never freed.
type Address int

// Cell is the sole heap entity: two fields, each holding a Value.
type Cell struct {
	First  Value
	Second Value
}

// Heap owns every cell of one machine instance. Allocation only grows the
// arena; there is no deletion and no collector. The single in-place mutation
// path is Write, used by the DUM/RAP recursion machinery.
type Heap struct {
	cells []Cell
}

// NewHeap creates an empty heap.
func NewHeap() *Heap {
	return NewHeapWithCapacity(256)
}

// NewHeapWithCapacity creates an empty heap with room for n cells before
// the arena reallocates.
func NewHeapWithCapacity(n int) *Heap {
	if n < 0 {
		n = 0
	}
	return &Heap{cells: make([]Cell, 0, n)}
}

// Len returns the number of allocated cells.
func (h *Heap) Len() int {
	return len(h.cells)
}

// Alloc creates a cell and returns its address.
func (h *Heap) Alloc(first, second Value) Address {
	h.cells = append(h.cells, Cell{First: first, Second: second})
	return Address(len(h.cells) - 1)
}

// Cons allocates a cell and returns a reference to it.
func (h *Heap) Cons(first, second Value) Value {
	return FromAddress(h.Alloc(first, second))
}

// valid reports whether a was allocated by this heap.
func (h *Heap) valid(a Address) bool {
	return a >= 0 && int(a) < len(h.cells)
}

// Read returns both fields of the cell at a.
func (h *Heap) Read(a Address) (first, second Value, err error) {
	if !h.valid(a) {
		return Nil, Nil, fmt.Errorf("heap: invalid address %d", a)
	}
	c := h.cells[a]
	return c.First, c.Second, nil
}

// Write overwrites both fields of the cell at a. This is the heap's only
// mutator; the machine uses it exclusively for RAP's dummy-frame rewrite.
func (h *Heap) Write(a Address, first, second Value) error {
	if !h.valid(a) {
		return fmt.Errorf("heap: invalid address %d", a)
	}
	h.cells[a] = Cell{First: first, Second: second}
	return nil
}

// car returns the first field of the cell referenced by v. The bool result
// is false if v is not a reference or the address is stale. Internal
// fast path for the interpreter; contract checks happen in the handlers.
func (h *Heap) car(v Value) (Value, bool) {
	if !v.IsRef() || !h.valid(v.Addr()) {
		return Nil, false
	}
	return h.cells[v.Addr()].First, true
}

// cdr returns the second field of the cell referenced by v.
func (h *Heap) cdr(v Value) (Value, bool) {
	if !v.IsRef() || !h.valid(v.Addr()) {
		return Nil, false
	}
	return h.cells[v.Addr()].Second, true
}
