package vm

import (
	"fmt"
	"io"
	"strings"
)

// ---------------------------------------------------------------------------
// Graphviz export of heap structure
// ---------------------------------------------------------------------------

// WriteDot renders the cell structure reachable from root as a Graphviz
// digraph of record nodes, one per cell: address, then the two fields.
// Reference fields become edges; atoms render inline. Traversal is
// cycle-safe, so the graph of a RAP-created recursive environment is finite.
func (h *Heap) WriteDot(w io.Writer, root Value) error {
	g := &dotWriter{h: h, w: w, seen: make(map[Address]bool)}
	if _, err := fmt.Fprintln(w, "digraph heap {"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "\trankdir=LR;"); err != nil {
		return err
	}
	if err := g.walk(root); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "}")
	return err
}

// WriteDot renders the machine's four registers and everything reachable
// from them. Register names become plain nodes pointing into the heap.
func (m *Machine) WriteDot(w io.Writer) error {
	g := &dotWriter{h: m.heap, w: w, seen: make(map[Address]bool)}
	if _, err := fmt.Fprintln(w, "digraph machine {"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "\trankdir=LR;"); err != nil {
		return err
	}
	for _, reg := range []struct {
		name string
		v    Value
	}{{"S", m.s}, {"E", m.e}, {"C", m.c}, {"D", m.d}} {
		if _, err := fmt.Fprintf(w, "\treg%s [label=\"%s\"];\n", reg.name, reg.name); err != nil {
			return err
		}
		if reg.v.IsRef() {
			if _, err := fmt.Fprintf(w, "\treg%s -> node%d:f0;\n", reg.name, reg.v.Addr()); err != nil {
				return err
			}
			if err := g.walk(reg.v); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintln(w, "}")
	return err
}

type dotWriter struct {
	h    *Heap
	w    io.Writer
	seen map[Address]bool
}

// walk emits the node for the cell at v and recurses into its reference
// fields. Non-reference values produce no output of their own.
func (g *dotWriter) walk(v Value) error {
	if !v.IsRef() || g.seen[v.Addr()] {
		return nil
	}
	a := v.Addr()
	g.seen[a] = true

	first, second, err := g.h.Read(a)
	if err != nil {
		return fmt.Errorf("vm: dot export: %w", err)
	}
	label := fmt.Sprintf("<f0> %d|<f1> %s|<f2> %s", a, fieldLabel("car", first), fieldLabel("cdr", second))
	if _, err := fmt.Fprintf(g.w, "\tnode%d [shape=record, label=\"%s\"];\n", a, label); err != nil {
		return err
	}
	for i, f := range []Value{first, second} {
		if f.IsRef() {
			if _, err := fmt.Fprintf(g.w, "\tnode%d:f%d -> node%d:f0;\n", a, i+1, f.Addr()); err != nil {
				return err
			}
			if err := g.walk(f); err != nil {
				return err
			}
		}
	}
	return nil
}

// fieldLabel renders one cell field for a record label: references show
// the field role and target address, atoms show themselves.
func fieldLabel(role string, v Value) string {
	if v.IsRef() {
		return fmt.Sprintf("%s %d", role, v.Addr())
	}
	return escapeDot(v.String())
}

// escapeDot escapes characters meaningful inside a record label.
func escapeDot(s string) string {
	r := strings.NewReplacer(`"`, `\"`, "|", `\|`, "<", `\<`, ">", `\>`, "{", `\{`, "}", `\}`)
	return r.Replace(s)
}
