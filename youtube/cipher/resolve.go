package cipher

import (
	"sort"
	"strings"

	"github.com/ytget/ytdl/internal/logger"
)

// KeyTable maps the minified property names of an operations object to the
// canonical operation each one implements. Keys are stored without quotes.
type KeyTable map[string]OpKind

// Keys returns the table keys ordered longest first so that an alternation
// built from them never stops at a shorter prefix of a longer key.
func (t KeyTable) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}

// resolveKeys runs every shape matcher over body independently and records,
// per shape, the key of that shape's first match in body. When two kinds
// claim the same key the kind later in opKinds wins.
func resolveKeys(body string, shapes [len(opKinds)]matcher, log *logger.ComponentLogger) (KeyTable, error) {
	table := make(KeyTable, len(opKinds))
	for _, kind := range opKinds {
		m := shapes[kind].match(body)
		if len(m) < 2 || m[1] == "" {
			continue
		}
		key := unquoteKey(m[1])
		if prev, ok := table[key]; ok && log != nil {
			log.Warn("operation key claimed by two shapes", map[string]interface{}{
				"key":      key,
				"previous": prev.String(),
				"kind":     kind.String(),
			})
		}
		table[key] = kind
	}
	if len(table) == 0 {
		return nil, NewError(ErrCodeObjectNotFound, "no operation shape found in operations object")
	}
	return table, nil
}

func unquoteKey(k string) string {
	if len(k) >= 2 {
		if (k[0] == '\'' && k[len(k)-1] == '\'') || (k[0] == '"' && k[len(k)-1] == '"') {
			return k[1 : len(k)-1]
		}
	}
	return strings.TrimSpace(k)
}
