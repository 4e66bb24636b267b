package cipher

import (
	"slices"
)

// Apply replays seq on cipher and returns the resulting signature. The input
// is processed as runes and is never modified.
func Apply(seq TokenSequence, cipher string) (string, error) {
	buf := []rune(cipher)
	for i, t := range seq {
		if t.Operand < 0 {
			return "", NewError(ErrCodeOperandOutOfRange, "negative operand",
				map[string]any{"index": i, "token": t.String()})
		}
		switch t.Kind {
		case OpReverse:
			slices.Reverse(buf)
		case OpSliceFrom:
			if t.Operand >= len(buf) {
				buf = buf[:0]
			} else {
				buf = buf[t.Operand:]
			}
		case OpRemovePrefix:
			if t.Operand > len(buf) {
				return "", NewError(ErrCodeOperandOutOfRange, "remove prefix past end of signature",
					map[string]any{"index": i, "token": t.String(), "length": len(buf)})
			}
			buf = buf[t.Operand:]
		case OpSwapFirst:
			if t.Operand >= len(buf) {
				return "", NewError(ErrCodeOperandOutOfRange, "swap index past end of signature",
					map[string]any{"index": i, "token": t.String(), "length": len(buf)})
			}
			buf[0], buf[t.Operand] = buf[t.Operand], buf[0]
		default:
			return "", NewError(ErrCodeUnknownOperation, "unknown operation",
				map[string]any{"index": i, "kind": int(t.Kind)})
		}
	}
	return string(buf), nil
}
