// Package wire implements the on-disk program format: a CBOR document
// whose structure mirrors the program literal — nested arrays of signed
// integers and opcode-name text strings. Canonical encoding keeps the
// bytes deterministic for a given program.
package wire

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/carlohamalainen/pysecd/vm"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("wire: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Marshal serializes a program literal to CBOR bytes. Opcode tags are
// written as their symbolic names so program files stay self-describing.
func Marshal(program any) ([]byte, error) {
	doc, err := toDocument(program)
	if err != nil {
		return nil, err
	}
	return cborEncMode.Marshal(doc)
}

// Unmarshal deserializes CBOR bytes back into a program literal suitable
// for vm.Heap.Encode. Unknown opcode names are an error.
func Unmarshal(data []byte) (any, error) {
	var doc any
	if err := cbor.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("wire: unmarshal program: %w", err)
	}
	return fromDocument(doc)
}

// toDocument converts a literal into the CBOR-facing shape: Opcode -> name
// string, ints normalized to int64.
func toDocument(lit any) (any, error) {
	switch x := lit.(type) {
	case int:
		return int64(x), nil
	case int64:
		return x, nil
	case vm.Opcode:
		if !x.Valid() {
			return nil, fmt.Errorf("wire: unknown opcode %d", uint8(x))
		}
		return x.Name(), nil
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			d, err := toDocument(e)
			if err != nil {
				return nil, err
			}
			out[i] = d
		}
		return out, nil
	default:
		return nil, fmt.Errorf("wire: unsupported literal type %T", lit)
	}
}

// fromDocument converts a decoded CBOR value back into a program literal.
func fromDocument(doc any) (any, error) {
	switch x := doc.(type) {
	case int64:
		return int(x), nil
	case uint64:
		return int(x), nil
	case string:
		op, ok := vm.ParseOpcode(x)
		if !ok {
			return nil, fmt.Errorf("wire: unknown opcode %q", x)
		}
		return op, nil
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			l, err := fromDocument(e)
			if err != nil {
				return nil, err
			}
			out[i] = l
		}
		return out, nil
	default:
		return nil, fmt.Errorf("wire: unsupported document type %T", doc)
	}
}
