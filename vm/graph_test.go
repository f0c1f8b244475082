package vm

import (
	"strings"
	"testing"
)

func TestHeapWriteDot(t *testing.T) {
	h := NewHeap()
	root, err := h.Encode([]any{1, 2})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var b strings.Builder
	if err := h.WriteDot(&b, root); err != nil {
		t.Fatalf("WriteDot: %v", err)
	}
	out := b.String()

	for _, want := range []string{"digraph", "shape=record", "->", "}"} {
		if !strings.Contains(out, want) {
			t.Errorf("dot output missing %q:\n%s", want, out)
		}
	}
	// Both cells of the two-element list appear.
	if !strings.Contains(out, "node0") || !strings.Contains(out, "node1") {
		t.Errorf("dot output missing cell nodes:\n%s", out)
	}
}

func TestMachineWriteDot(t *testing.T) {
	m := NewMachine()
	if err := m.Load([]any{OpLDC, 1, OpSTOP}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := m.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}

	var b strings.Builder
	if err := m.WriteDot(&b); err != nil {
		t.Fatalf("WriteDot: %v", err)
	}
	out := b.String()

	for _, want := range []string{"digraph", "regS", "regE", "regC", "regD"} {
		if !strings.Contains(out, want) {
			t.Errorf("dot output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteDotTerminatesOnCycle(t *testing.T) {
	// The structure left behind by RAP contains a back-reference; the walker
	// must visit each cell once.
	m := NewMachine()
	if err := m.Load([]any{
		OpDUM,
		OpLDF, []any{OpLD, []any{2, 1}, OpRTN}, OpNIL, OpCONS,
		OpLDF, []any{OpLD, []any{1, 1}, OpRTN}, OpRAP,
		OpWRITEI, OpSTOP,
	}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	// Step to just after RAP so E aliases the rewritten dummy frame.
	for i := 0; i < 6; i++ {
		if err := m.Step(); err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
	}

	var b strings.Builder
	if err := m.WriteDot(&b); err != nil {
		t.Fatalf("WriteDot: %v", err)
	}
	if !strings.Contains(b.String(), "digraph") {
		t.Error("dot output looks empty")
	}
}
