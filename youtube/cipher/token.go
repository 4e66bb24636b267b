package cipher

import (
	"fmt"
	"strings"
)

// OpKind is one of the four canonical array operations a player script applies
// to a signature.
type OpKind int

const (
	OpReverse OpKind = iota
	OpSliceFrom
	OpRemovePrefix
	OpSwapFirst
)

// opKinds is the fixed scan order used during key resolution. Later kinds win
// when two shapes resolve to the same key.
var opKinds = [...]OpKind{OpReverse, OpSliceFrom, OpRemovePrefix, OpSwapFirst}

var opNames = map[OpKind]string{
	OpReverse:      "reverse",
	OpSliceFrom:    "slice",
	OpRemovePrefix: "splice",
	OpSwapFirst:    "swap",
}

// Valid reports whether k is one of the canonical kinds.
func (k OpKind) Valid() bool {
	_, ok := opNames[k]
	return ok
}

func (k OpKind) String() string {
	if name, ok := opNames[k]; ok {
		return name
	}
	return fmt.Sprintf("op(%d)", int(k))
}

// Token is a single operation with its literal operand.
type Token struct {
	Kind    OpKind
	Operand int
}

// String renders t as kind(operand). Reverse keeps its unused literal too.
func (t Token) String() string {
	return fmt.Sprintf("%s(%d)", t.Kind, t.Operand)
}

// TokenSequence is the ordered list of operations a script version applies.
type TokenSequence []Token

// Clone returns an independent copy of s.
func (s TokenSequence) Clone() TokenSequence {
	if s == nil {
		return nil
	}
	out := make(TokenSequence, len(s))
	copy(out, s)
	return out
}

func (s TokenSequence) String() string {
	parts := make([]string, len(s))
	for i, t := range s {
		parts[i] = t.String()
	}
	return strings.Join(parts, ",")
}
