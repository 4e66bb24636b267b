package cipher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_Scenarios(t *testing.T) {
	tests := []struct {
		name string
		seq  TokenSequence
		want string
	}{
		{"reverse", TokenSequence{{Kind: OpReverse}}, "FEDCBA"},
		{"swap first", TokenSequence{{Kind: OpSwapFirst, Operand: 3}}, "DBCAEF"},
		{"remove prefix", TokenSequence{{Kind: OpRemovePrefix, Operand: 2}}, "CDEF"},
		{"slice from", TokenSequence{{Kind: OpSliceFrom, Operand: 2}}, "CDEF"},
		{"reverse then remove prefix", TokenSequence{{Kind: OpReverse}, {Kind: OpRemovePrefix, Operand: 1}}, "EDCBA"},
		{"empty sequence", nil, "ABCDEF"},
		{"remove whole string", TokenSequence{{Kind: OpRemovePrefix, Operand: 6}}, ""},
		{"slice past end", TokenSequence{{Kind: OpSliceFrom, Operand: 10}}, ""},
		{"swap with itself", TokenSequence{{Kind: OpSwapFirst, Operand: 0}}, "ABCDEF"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(tt.seq, "ABCDEF")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApply_Errors(t *testing.T) {
	tests := []struct {
		name string
		seq  TokenSequence
		code string
	}{
		{"remove prefix past end", TokenSequence{{Kind: OpRemovePrefix, Operand: 7}}, ErrCodeOperandOutOfRange},
		{"swap past end", TokenSequence{{Kind: OpSwapFirst, Operand: 6}}, ErrCodeOperandOutOfRange},
		{"negative operand", TokenSequence{{Kind: OpSliceFrom, Operand: -1}}, ErrCodeOperandOutOfRange},
		{"unknown kind", TokenSequence{{Kind: OpKind(42), Operand: 1}}, ErrCodeUnknownOperation},
		{"fails after earlier tokens", TokenSequence{{Kind: OpRemovePrefix, Operand: 4}, {Kind: OpSwapFirst, Operand: 2}}, ErrCodeOperandOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(tt.seq, "ABCDEF")
			require.Error(t, err)
			assert.Empty(t, got)
			assert.True(t, IsTransformError(err))
			e, ok := asError(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, e.Code)
		})
	}
}

func TestApply_Properties(t *testing.T) {
	inputs := []string{"", "A", "AB", "ABCDEF", "0123456789abcdefghijklmnopqrstuvwxyz", "héllo wörld→✓"}

	for _, in := range inputs {
		runes := []rune(in)
		l := len(runes)

		twice, err := Apply(TokenSequence{{Kind: OpReverse}, {Kind: OpReverse}}, in)
		require.NoError(t, err)
		assert.Equal(t, in, twice, "reverse twice is identity for %q", in)

		for n := 0; n <= l+2; n++ {
			sliced, err := Apply(TokenSequence{{Kind: OpSliceFrom, Operand: n}}, in)
			require.NoError(t, err)
			assert.Len(t, []rune(sliced), max(0, l-n))

			removed, err := Apply(TokenSequence{{Kind: OpRemovePrefix, Operand: n}}, in)
			if n > l {
				assert.True(t, IsTransformError(err))
			} else {
				require.NoError(t, err)
				assert.Len(t, []rune(removed), l-n)
			}

			if n < l {
				swapped, err := Apply(TokenSequence{{Kind: OpSwapFirst, Operand: n}, {Kind: OpSwapFirst, Operand: n}}, in)
				require.NoError(t, err)
				assert.Equal(t, in, swapped, "swap(%d) twice is identity for %q", n, in)
			}
		}
	}
}

func TestApply_RunesAndDeterminism(t *testing.T) {
	seq := TokenSequence{{Kind: OpReverse}, {Kind: OpSwapFirst, Operand: 2}, {Kind: OpRemovePrefix, Operand: 1}}
	in := "αβγδε"

	first, err := Apply(seq, in)
	require.NoError(t, err)
	second, err := Apply(seq, in)
	require.NoError(t, err)

	assert.Equal(t, "δεβα", first)
	assert.Equal(t, first, second)
	assert.Equal(t, "αβγδε", in)
}
