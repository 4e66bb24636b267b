package cipher

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dlclark/regexp2"
)

// Building blocks for the minifier output shapes.
const (
	jsVarStr      = `[a-zA-Z_\$][a-zA-Z_0-9\$]*`
	jsSingleQuote = `'[^'\\]*(?:\\[\s\S][^'\\]*)*'`
	jsDoubleQuote = `"[^"\\]*(?:\\[\s\S][^"\\]*)*"`
	jsEmptyStr    = `(?:''|"")`

	jsQuoteStr = `(?:` + jsSingleQuote + `|` + jsDoubleQuote + `)`
	jsKeyStr   = `(?:` + jsVarStr + `|` + jsQuoteStr + `)`
	jsPropStr  = `(?:\.` + jsVarStr + `|\[` + jsQuoteStr + `\])`

	reverseStr = `:function\(a\)\{(?:return )?a\.reverse\(\)\}`
	sliceStr   = `:function\(a,b\)\{return a\.slice\(b\)\}`
	spliceStr  = `:function\(a,b\)\{a\.splice\(0,b\)\}`
	swapStr    = `:function\(a,b\)\{var c=a\[0\];a\[0\]=a\[b(?:%a\.length)?\];a\[b(?:%a\.length)?\]=c(?:;return a)?\}`
)

var (
	actionsObjRegexp = regexp.MustCompile(fmt.Sprintf(
		`var (%s)=\{((?:(?:%s%s|%s%s|%s%s|%s%s),?\r?\n?)+)\};`,
		jsVarStr,
		jsKeyStr, reverseStr,
		jsKeyStr, sliceStr,
		jsKeyStr, spliceStr,
		jsKeyStr, swapStr,
	))

	actionsFuncRegexp = regexp.MustCompile(fmt.Sprintf(
		`function(?: %s)?\(a\)\{a=a\.split\(%s\);\s*((?:(?:a=)?%s%s\(a,\d+\);)+)return a\.join\(%s\)\}`,
		jsVarStr, jsEmptyStr, jsVarStr, jsPropStr, jsEmptyStr,
	))

	classicShapes = [len(opKinds)]matcher{
		OpReverse:      stdMatcher{regexp.MustCompile(`(?m:^|,)(` + jsKeyStr + `)` + reverseStr)},
		OpSliceFrom:    stdMatcher{regexp.MustCompile(`(?m:^|,)(` + jsKeyStr + `)` + sliceStr)},
		OpRemovePrefix: stdMatcher{regexp.MustCompile(`(?m:^|,)(` + jsKeyStr + `)` + spliceStr)},
		OpSwapFirst:    stdMatcher{regexp.MustCompile(`(?m:^|,)(` + jsKeyStr + `)` + swapStr)},
	}
)

// Shapes emitted when the minifier does not reuse the a/b/c parameter names.
// Parameter names are tied together with backreferences, which the standard
// library engine does not support.
const (
	rnParam = `[a-zA-Z_$][\w$]*`
	rnHead  = `(?:^|,)\s*(` + jsKeyStr + `)\s*:\s*function\s*`
	rnTail  = `\s*;?\s*\}`
)

var (
	renamedFuncRegexp = regexp2.MustCompile(
		`function(?:\s+`+rnParam+`)?\s*\(\s*(`+rnParam+`)\s*\)\s*\{\s*`+
			`\1\s*=\s*\1\.split\(\s*`+jsEmptyStr+`\s*\)\s*;\s*`+
			`((?:(?:\1\s*=\s*)?`+rnParam+`\s*(?:\.`+rnParam+`|\[\s*`+jsQuoteStr+`\s*\])\s*\(\s*\1\s*,\s*\d+\s*\)\s*;\s*)+)`+
			`return\s+\1\.join\(\s*`+jsEmptyStr+`\s*\)`+rnTail,
		regexp2.None)

	renamedShapes = [len(opKinds)]matcher{
		OpReverse: re2Matcher{regexp2.MustCompile(
			rnHead+`\(\s*(`+rnParam+`)\s*\)\s*\{\s*(?:return\s+)?\2\.reverse\(\s*\)`+rnTail, regexp2.None)},
		OpSliceFrom: re2Matcher{regexp2.MustCompile(
			rnHead+`\(\s*(`+rnParam+`)\s*,\s*(`+rnParam+`)\s*\)\s*\{\s*return\s+\2\.slice\(\s*\3\s*\)`+rnTail, regexp2.None)},
		OpRemovePrefix: re2Matcher{regexp2.MustCompile(
			rnHead+`\(\s*(`+rnParam+`)\s*,\s*(`+rnParam+`)\s*\)\s*\{\s*\2\.splice\(\s*0\s*,\s*\3\s*\)`+rnTail, regexp2.None)},
		OpSwapFirst: re2Matcher{regexp2.MustCompile(
			rnHead+`\(\s*(`+rnParam+`)\s*,\s*(`+rnParam+`)\s*\)\s*\{\s*`+
				`var\s+(`+rnParam+`)\s*=\s*\2\[\s*0\s*\]\s*;\s*`+
				`\2\[\s*0\s*\]\s*=\s*\2\[\s*\3(?:\s*%\s*\2\.length)?\s*\]\s*;\s*`+
				`\2\[\s*\3(?:\s*%\s*\2\.length)?\s*\]\s*=\s*\4`+
				`(?:\s*;\s*return\s+\2)?`+rnTail, regexp2.None)},
	}
)

// anyCallRegexp matches every member call in a call sequence regardless of
// whether its key resolved: 1 object, 2-4 key, 5 argument, 6 operand.
var anyCallRegexp = regexp.MustCompile(
	`(` + jsVarStr + `)\s*(?:\.(` + jsVarStr + `)|\[\s*'([^']*)'\s*\]|\[\s*"([^"]*)"\s*\])` +
		`\s*\(\s*(` + jsVarStr + `)\s*,\s*(\d+)\s*\)`)

// matcher abstracts over the two regular expression engines used by the
// pattern library. Submatches that did not participate are empty strings.
type matcher interface {
	match(s string) []string
	matchAll(s string) [][]string
}

type stdMatcher struct {
	re *regexp.Regexp
}

func (m stdMatcher) match(s string) []string {
	return m.re.FindStringSubmatch(s)
}

func (m stdMatcher) matchAll(s string) [][]string {
	return m.re.FindAllStringSubmatch(s, -1)
}

type re2Matcher struct {
	re *regexp2.Regexp
}

func (m re2Matcher) match(s string) []string {
	res, err := m.re.FindStringMatch(s)
	if err != nil || res == nil {
		return nil
	}
	return re2Groups(res)
}

func (m re2Matcher) matchAll(s string) [][]string {
	var out [][]string
	res, err := m.re.FindStringMatch(s)
	for err == nil && res != nil {
		out = append(out, re2Groups(res))
		res, err = m.re.FindNextMatch(res)
	}
	return out
}

func re2Groups(res *regexp2.Match) []string {
	groups := res.Groups()
	out := make([]string, len(groups))
	for i, g := range groups {
		if len(g.Captures) > 0 {
			out[i] = g.String()
		}
	}
	return out
}

// Located is what a Strategy finds in a player script before key resolution.
type Located struct {
	// Object is the identifier of the operations object.
	Object string
	// ObjectBody is the text between the object's braces.
	ObjectBody string
	// Param is the decipher function's single parameter name.
	Param string
	// Calls is the call-sequence part of the decipher function body.
	Calls string
}

// Strategy is one family of minifier output shapes. Strategies are tried in
// order by the Extractor; new shapes are added as new strategies without
// touching token replay.
type Strategy interface {
	Name() string
	// Locate finds the operations object and the decipher function.
	Locate(script string) (*Located, error)
	// shapes returns one matcher per canonical kind, indexed by OpKind.
	shapes() [len(opKinds)]matcher
	// CallPattern builds the call-sequence walker for the resolved keys.
	// Submatches 1-3 hold the key in its three access forms, 4 the operand.
	CallPattern(loc *Located, keys []string) (*regexp.Regexp, error)
}

// ClassicStrategy matches the literal shapes the player minifier has emitted
// for years: fixed a/b/c parameter names, no whitespace, `var` declarations.
type ClassicStrategy struct{}

func (ClassicStrategy) Name() string { return "classic" }

func (ClassicStrategy) Locate(script string) (*Located, error) {
	obj := actionsObjRegexp.FindStringSubmatch(script)
	if len(obj) < 3 {
		return nil, NewError(ErrCodeObjectNotFound, "operations object not found in player script")
	}
	fn := actionsFuncRegexp.FindStringSubmatch(script)
	if len(fn) < 2 {
		return &Located{Object: obj[1], ObjectBody: obj[2]},
			NewError(ErrCodeFunctionNotFound, "decipher function not found in player script")
	}
	return &Located{Object: obj[1], ObjectBody: obj[2], Param: "a", Calls: fn[1]}, nil
}

func (ClassicStrategy) shapes() [len(opKinds)]matcher { return classicShapes }

func (ClassicStrategy) CallPattern(loc *Located, keys []string) (*regexp.Regexp, error) {
	alt := keyAlternation(keys)
	return compileCallPattern(fmt.Sprintf(
		`(?:a=)?%s(?:\.(%s)|\['(%s)'\]|\["(%s)"\])\(a,(\d+)\)`,
		regexp.QuoteMeta(loc.Object), alt, alt, alt))
}

// RenamedStrategy accepts arbitrary parameter names, optional whitespace and
// let/const declarations. The decipher function is located first and the
// operations object is looked up by the name used at its first call.
type RenamedStrategy struct{}

func (RenamedStrategy) Name() string { return "renamed" }

func (RenamedStrategy) Locate(script string) (*Located, error) {
	fn := re2Matcher{renamedFuncRegexp}.match(script)
	if len(fn) < 3 {
		return nil, NewError(ErrCodeFunctionNotFound, "decipher function not found in player script")
	}
	param, calls := fn[1], fn[2]

	first := regexp.MustCompile(`^(?:` + regexp.QuoteMeta(param) + `\s*=\s*)?(` + rnParam + `)\s*[\.\[]`).
		FindStringSubmatch(calls)
	if len(first) < 2 {
		return nil, NewError(ErrCodePatternMismatch, "decipher function has no object call", calls)
	}
	name := first[1]

	objRe := regexp.MustCompile(`(?:var|let|const)\s+` + regexp.QuoteMeta(name) +
		`\s*=\s*\{((?:\s*` + jsKeyStr + `\s*:\s*function\s*\([^)]*\)\s*\{[^{}]*\}\s*,?)+)\s*\}`)
	obj := objRe.FindStringSubmatch(script)
	if len(obj) < 2 {
		return &Located{Object: name, Param: param, Calls: calls},
			NewError(ErrCodeObjectNotFound, "operations object not found in player script", name)
	}
	return &Located{Object: name, ObjectBody: obj[1], Param: param, Calls: calls}, nil
}

func (RenamedStrategy) shapes() [len(opKinds)]matcher { return renamedShapes }

func (RenamedStrategy) CallPattern(loc *Located, keys []string) (*regexp.Regexp, error) {
	alt := keyAlternation(keys)
	p := regexp.QuoteMeta(loc.Param)
	return compileCallPattern(fmt.Sprintf(
		`(?:%s\s*=\s*)?%s\s*(?:\.(%s)|\[\s*'(%s)'\s*\]|\[\s*"(%s)"\s*\])\s*\(\s*%s\s*,\s*(\d+)\s*\)`,
		p, regexp.QuoteMeta(loc.Object), alt, alt, alt, p))
}

// DefaultStrategies is the order in which strategies are tried.
func DefaultStrategies() []Strategy {
	return []Strategy{ClassicStrategy{}, RenamedStrategy{}}
}

func keyAlternation(keys []string) string {
	quoted := make([]string, len(keys))
	for i, k := range keys {
		quoted[i] = regexp.QuoteMeta(k)
	}
	return strings.Join(quoted, "|")
}

func compileCallPattern(expr string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, wrapError(ErrCodeInvalidPatternSpec, "failed to compile call pattern", err)
	}
	return re, nil
}
