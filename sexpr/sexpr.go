// Package sexpr reads and prints the textual program form:
// parenthesized lists of integers and opcode names, e.g.
//
//	(LDC (3 4) LDF (LD (1 2) LD (1 1) ADD RTN) AP WRITEI STOP)
//
// Semicolon comments run to end of line. The parser distinguishes
// incomplete input (unbalanced parentheses at end of text) from malformed
// input so an interactive caller can prompt for continuation lines.
package sexpr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/carlohamalainen/pysecd/vm"
)

// ErrIncomplete reports input that is well-formed so far but not finished.
var ErrIncomplete = errors.New("sexpr: incomplete input")

// IsIncomplete returns true if err means the input needs more text.
func IsIncomplete(err error) bool {
	return errors.Is(err, ErrIncomplete)
}

// Parse reads a single program literal from src. The top level must be one
// list; trailing non-comment text is an error.
func Parse(src string) (any, error) {
	toks := tokenize(src)
	p := &parser{toks: toks}
	lit, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.toks) {
		return nil, fmt.Errorf("sexpr: trailing input after expression: %q", p.toks[p.pos])
	}
	if _, ok := lit.([]any); !ok {
		return nil, fmt.Errorf("sexpr: expected a program list, got %T", lit)
	}
	return lit, nil
}

// Format renders a program literal in the textual form Parse accepts.
func Format(lit any) string {
	var b strings.Builder
	writeValue(&b, lit)
	return b.String()
}

func writeValue(b *strings.Builder, lit any) {
	switch x := lit.(type) {
	case int:
		fmt.Fprintf(b, "%d", x)
	case int64:
		fmt.Fprintf(b, "%d", x)
	case vm.Opcode:
		b.WriteString(x.Name())
	case []any:
		b.WriteByte('(')
		for i, e := range x {
			if i > 0 {
				b.WriteByte(' ')
			}
			writeValue(b, e)
		}
		b.WriteByte(')')
	default:
		fmt.Fprintf(b, "<%T>", lit)
	}
}

// ---------------------------------------------------------------------------
// Tokenizer and parser
// ---------------------------------------------------------------------------

func tokenize(src string) []string {
	var toks []string
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ';':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case c == '(' || c == ')':
			toks = append(toks, string(c))
			i++
		case unicode.IsSpace(rune(c)):
			i++
		default:
			j := i
			for j < len(src) && src[j] != '(' && src[j] != ')' && src[j] != ';' &&
				!unicode.IsSpace(rune(src[j])) {
				j++
			}
			toks = append(toks, src[i:j])
			i = j
		}
	}
	return toks
}

type parser struct {
	toks []string
	pos  int
}

func (p *parser) parseValue() (any, error) {
	if p.pos >= len(p.toks) {
		return nil, ErrIncomplete
	}
	tok := p.toks[p.pos]
	p.pos++
	switch tok {
	case "(":
		return p.parseList()
	case ")":
		return nil, fmt.Errorf("sexpr: unexpected ')'")
	default:
		return parseAtom(tok)
	}
}

func (p *parser) parseList() (any, error) {
	list := []any{}
	for {
		if p.pos >= len(p.toks) {
			return nil, ErrIncomplete
		}
		if p.toks[p.pos] == ")" {
			p.pos++
			return list, nil
		}
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		list = append(list, v)
	}
}

func parseAtom(tok string) (any, error) {
	if n, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return int(n), nil
	}
	if op, ok := vm.ParseOpcode(strings.ToUpper(tok)); ok {
		return op, nil
	}
	return nil, fmt.Errorf("sexpr: unknown opcode %q", tok)
}
