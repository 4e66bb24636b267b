package cipher

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
)

var classicBodies = [len(opKinds)]string{
	OpReverse:      `function(a){a.reverse()}`,
	OpSliceFrom:    `function(a,b){return a.slice(b)}`,
	OpRemovePrefix: `function(a,b){a.splice(0,b)}`,
	OpSwapFirst:    `function(a,b){var c=a[0];a[0]=a[b%a.length];a[b%a.length]=c}`,
}

var identRegexp = regexp.MustCompile(`^[a-zA-Z_$][a-zA-Z_0-9$]*$`)

func jsKey(k string) string {
	if identRegexp.MatchString(k) {
		return k
	}
	return `"` + k + `"`
}

func jsAccess(k string) string {
	if identRegexp.MatchString(k) {
		return "." + k
	}
	return `["` + k + `"]`
}

// classicScript renders a minified player fragment with the operations object
// obj, property names keys (indexed by kind, empty to omit) and a decipher
// function calling seq in order. Slice results are assigned back to a.
func classicScript(obj string, keys [len(opKinds)]string, seq TokenSequence) string {
	var props []string
	for _, k := range opKinds {
		if keys[k] == "" {
			continue
		}
		props = append(props, jsKey(keys[k])+":"+classicBodies[k])
	}

	var calls strings.Builder
	for _, t := range seq {
		if t.Kind == OpSliceFrom {
			calls.WriteString("a=")
		}
		fmt.Fprintf(&calls, "%s%s(a,%d);", obj, jsAccess(keys[t.Kind]), t.Operand)
	}

	return fmt.Sprintf(`var yt={};(function(g){var Pq=function(){return 1};`+
		`var %s={%s};`+
		`var decipher=function(a){a=a.split("");%sreturn a.join("")};`+
		`g.decipher=decipher})(this);`,
		obj, strings.Join(props, ",\n"), calls.String())
}

// renamedFixture uses non-standard parameter names, whitespace and a const
// declaration, which only the renamed strategy accepts.
const renamedFixture = `
const Wq = {
  xx: function (sig) { sig.reverse(); },
  yy: function (sig, n) { sig.splice(0, n); },
  "z-z": function (s, i) { var t = s[0]; s[0] = s[i % s.length]; s[i % s.length] = t; }
};
var decipher = function (q) { q = q.split(""); Wq.yy(q, 3); Wq["z-z"](q, 7); Wq.xx(q, 0); return q.join(""); };
`

var renamedFixtureTokens = TokenSequence{
	{Kind: OpRemovePrefix, Operand: 3},
	{Kind: OpSwapFirst, Operand: 7},
	{Kind: OpReverse, Operand: 0},
}

const keyAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ_$"

// randomKeys returns four distinct identifiers of one to three characters.
func randomKeys(r *rand.Rand) [len(opKinds)]string {
	var keys [len(opKinds)]string
	seen := map[string]bool{}
	for i := range keys {
		for {
			n := 1 + r.Intn(3)
			b := make([]byte, n)
			for j := range b {
				b[j] = keyAlphabet[r.Intn(len(keyAlphabet))]
			}
			if k := string(b); !seen[k] {
				seen[k] = true
				keys[i] = k
				break
			}
		}
	}
	return keys
}

func randomSequence(r *rand.Rand) TokenSequence {
	seq := make(TokenSequence, 1+r.Intn(10))
	for i := range seq {
		seq[i] = Token{Kind: opKinds[r.Intn(len(opKinds))], Operand: r.Intn(100)}
	}
	return seq
}
