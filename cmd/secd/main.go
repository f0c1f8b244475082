// SECD CLI - loads and runs compiled SECD programs.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/carlohamalainen/pysecd/manifest"
	"github.com/carlohamalainen/pysecd/sexpr"
	"github.com/carlohamalainen/pysecd/vm"
	"github.com/carlohamalainen/pysecd/vm/wire"
)

const historyFile = ".secd_history"

func main() {
	interactive := flag.Bool("i", false, "Start interactive REPL")
	trace := flag.Bool("trace", false, "Log every executed opcode")
	dotPath := flag.String("dot", "", "Write the final machine state as Graphviz dot to FILE")
	verbosity := flag.Int("v", 0, "Log verbosity")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: secd [options] [program...]\n\n")
		fmt.Fprintf(os.Stderr, "Runs SECD programs: s-expression text (.sexp) or CBOR (.cbor) files.\n")
		fmt.Fprintf(os.Stderr, "With no arguments, runs the entry program from secd.toml if present.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  secd add.sexp            # run a program\n")
		fmt.Fprintf(os.Stderr, "  secd -i                  # start the REPL\n")
		fmt.Fprintf(os.Stderr, "  secd -trace -v 2 f.sexp  # run with per-opcode logging\n")
		fmt.Fprintf(os.Stderr, "  secd -dot heap.dot f.sexp\n")
	}
	flag.Parse()

	commonlog.Configure(*verbosity, nil)

	mf, err := manifest.FindAndLoad(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading secd.toml: %v\n", err)
		os.Exit(1)
	}

	cells := manifest.DefaultCells
	if mf != nil {
		cells = mf.Machine.Cells
		if mf.Machine.Trace {
			*trace = true
		}
	}

	if *interactive {
		os.Exit(repl(cells, *trace))
	}

	paths := flag.Args()
	if len(paths) == 0 {
		if mf != nil && mf.EntryPath() != "" {
			paths = []string{mf.EntryPath()}
		} else {
			flag.Usage()
			os.Exit(2)
		}
	}

	for _, path := range paths {
		if err := runFile(path, cells, *trace, *dotPath); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			os.Exit(1)
		}
	}
}

// runFile loads one program file, runs it to halt or fault, and optionally
// dumps the final machine state as dot.
func runFile(path string, cells int, trace bool, dotPath string) error {
	program, err := loadProgram(path)
	if err != nil {
		return err
	}

	m := vm.NewMachineWithHeap(vm.NewHeapWithCapacity(cells))
	m.SetTrace(trace)
	m.SetSink(os.Stdout)
	if err := m.Load(program); err != nil {
		return err
	}
	runErr := m.Run()

	if dotPath != "" {
		if err := writeDot(m, dotPath); err != nil {
			return err
		}
	}
	return runErr
}

// loadProgram reads a program literal from a file, choosing the format by
// extension: .cbor is the binary wire format, everything else is text.
func loadProgram(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if filepath.Ext(path) == ".cbor" {
		return wire.Unmarshal(data)
	}
	return sexpr.Parse(string(data))
}

func writeDot(m *vm.Machine, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return m.WriteDot(f)
}

// ---------------------------------------------------------------------------
// repl
// ---------------------------------------------------------------------------

// repl reads one program per input, runs it on a fresh machine, and prints
// the output followed by the final top of stack.
func repl(cells int, trace bool) int {
	fmt.Println("SECD machine. Enter a program list, :quit to exit.")

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	for {
		src, ok := readProgram(ln)
		if !ok {
			fmt.Println()
			return 0
		}

		trimmed := strings.TrimSpace(src)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ":") {
			switch strings.ToLower(trimmed) {
			case ":quit":
				return 0
			default:
				fmt.Println("unknown command. Type :quit to exit.")
			}
			continue
		}

		program, err := sexpr.Parse(src)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}

		m := vm.NewMachineWithHeap(vm.NewHeapWithCapacity(cells))
		m.SetTrace(trace)
		m.SetSink(os.Stdout)
		if err := m.Load(program); err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		if err := m.Run(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		printResult(m)
		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))
	}
}

// readProgram collects lines until the parser no longer reports incomplete
// input. Returns false on EOF or interrupt.
func readProgram(ln *liner.State) (string, bool) {
	var b strings.Builder

	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt("secd> ")
		} else {
			line, err = ln.Prompt("....> ")
		}
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			return "", false
		}
		if err != nil {
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.TrimSpace(src) == "" {
			return src, true
		}
		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			return src, true
		}
		_, perr := sexpr.Parse(src)
		if perr == nil || !sexpr.IsIncomplete(perr) {
			return src, true
		}
	}
}

// printResult renders the value left on top of the stack after STOP.
func printResult(m *vm.Machine) {
	top := m.S()
	if !top.IsRef() {
		return
	}
	first, _, err := m.Heap().Read(top.Addr())
	if err != nil {
		return
	}
	dec, err := m.Heap().Decode(first)
	if err != nil {
		return
	}
	fmt.Printf("=> %s\n", sexpr.Format(dec))
}
