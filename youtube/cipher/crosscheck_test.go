package cipher

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/dop251/goja"
	"github.com/robertkrimen/otto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ottoApply runs seq as plain array operations in otto.
func ottoApply(t *testing.T, seq TokenSequence, in string) string {
	t.Helper()
	var src strings.Builder
	fmt.Fprintf(&src, "var a=%q.split('');", in)
	for _, tok := range seq {
		switch tok.Kind {
		case OpReverse:
			src.WriteString("a.reverse();")
		case OpSliceFrom:
			fmt.Fprintf(&src, "a=a.slice(%d);", tok.Operand)
		case OpRemovePrefix:
			fmt.Fprintf(&src, "a.splice(0,%d);", tok.Operand)
		case OpSwapFirst:
			fmt.Fprintf(&src, "var c=a[0];a[0]=a[%d];a[%d]=c;", tok.Operand, tok.Operand)
		}
	}
	src.WriteString("a.join('')")

	v, err := otto.New().Run(src.String())
	require.NoError(t, err)
	s, err := v.ToString()
	require.NoError(t, err)
	return s
}

func TestApply_AgreesWithOtto(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_="

	for i := 0; i < 100; i++ {
		b := make([]byte, 40+r.Intn(60))
		for j := range b {
			b[j] = alphabet[r.Intn(len(alphabet))]
		}
		in := string(b)

		// Keep operands inside the shrinking buffer so JS and Go agree.
		var seq TokenSequence
		l := len(in)
		for n := 1 + r.Intn(6); n > 0 && l > 1; n-- {
			tok := Token{Kind: opKinds[r.Intn(len(opKinds))]}
			switch tok.Kind {
			case OpSliceFrom, OpRemovePrefix:
				tok.Operand = r.Intn(3)
				l -= tok.Operand
			case OpSwapFirst:
				tok.Operand = r.Intn(l)
			}
			seq = append(seq, tok)
		}

		got, err := Apply(seq, in)
		require.NoError(t, err)
		assert.Equal(t, ottoApply(t, seq, in), got, "seq=%s input=%s", seq, in)
	}
}

func gojaDecipher(t *testing.T, script, cipher string) string {
	t.Helper()
	vm := goja.New()
	_, err := vm.RunString(script)
	require.NoError(t, err)
	fn, ok := goja.AssertFunction(vm.Get("decipher"))
	require.True(t, ok, "decipher is not a function")
	res, err := fn(goja.Undefined(), vm.ToValue(cipher))
	require.NoError(t, err)
	return res.String()
}

func TestExtract_AgreesWithGoja(t *testing.T) {
	const cipher = "AOq0QJ8wRgIhAKZ3Ybs6m1cO8H7pQ2tVr6xu9n4lWbIeLkTZcJ3fMDaFAiEAy5qR0wW8sN4"

	keys := [len(opKinds)]string{OpReverse: "Ab", OpSliceFrom: "s1", OpRemovePrefix: "cD", OpSwapFirst: "e-f"}
	scripts := map[string]string{
		"classic": classicScript("Xy", keys, TokenSequence{
			{Kind: OpSwapFirst, Operand: 41},
			{Kind: OpRemovePrefix, Operand: 2},
			{Kind: OpReverse, Operand: 39},
			{Kind: OpSliceFrom, Operand: 1},
			{Kind: OpSwapFirst, Operand: 17},
		}),
		"renamed": renamedFixture,
	}

	for name, script := range scripts {
		t.Run(name, func(t *testing.T) {
			seq, err := Extract(script)
			require.NoError(t, err)

			got, err := Apply(seq, cipher)
			require.NoError(t, err)
			assert.Equal(t, gojaDecipher(t, script, cipher), got)
		})
	}
}
