package codegen

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/xrash/smetrics"

	"github.com/tinyrange/bfc/internal/diag"
)

var (
	regMu   sync.RWMutex
	tables  = map[string]*Table{}
	aliases = map[string]string{}
)

// Register makes t available under its name and the given aliases. It is
// meant to be called from init and panics on an incomplete table or a
// duplicate name.
func Register(t *Table, alias ...string) {
	if err := t.validate(); err != nil {
		panic("codegen: " + err.Error())
	}
	regMu.Lock()
	defer regMu.Unlock()
	for _, name := range append([]string{t.Name}, alias...) {
		key := normalize(name)
		if _, dup := aliases[key]; dup {
			panic(fmt.Sprintf("codegen: target %q registered twice", name))
		}
		aliases[key] = t.Name
	}
	tables[t.Name] = t
}

// Lookup returns the table registered under name or one of its aliases.
func Lookup(name string) (*Table, error) {
	regMu.RLock()
	defer regMu.RUnlock()
	if canon, ok := aliases[normalize(name)]; ok {
		return tables[canon], nil
	}
	return nil, &diag.UnsupportedArchError{Arch: name, Suggestion: suggest(normalize(name))}
}

// Targets lists the canonical names of all registered targets.
func Targets() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Aliases lists every name that resolves to target.
func Aliases(target string) []string {
	regMu.RLock()
	defer regMu.RUnlock()
	var out []string
	for alias, canon := range aliases {
		if canon == target && alias != normalize(target) {
			out = append(out, alias)
		}
	}
	sort.Strings(out)
	return out
}

func normalize(name string) string { return strings.ToLower(strings.TrimSpace(name)) }

// maxSuggestDistance is the largest edit distance still offered as a
// suggestion.
const maxSuggestDistance = 2

// suggest returns the canonical target closest to name. Caller holds regMu.
func suggest(name string) string {
	if name == "" {
		return ""
	}
	keys := make([]string, 0, len(aliases))
	for k := range aliases {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	best, bestDist := "", maxSuggestDistance+1
	for _, k := range keys {
		if d := smetrics.WagnerFischer(name, k, 1, 1, 2); d < bestDist {
			best, bestDist = aliases[k], d
		}
	}
	return best
}
