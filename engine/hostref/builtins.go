package hostref

import (
	"fmt"
	"sort"
	"strings"
)

// MergeAttr implements the runtime half of the class/style bind rules: merge a plain
// attribute value with a bound map of token->truthy, de-duplicating and
// dropping falsy/empty entries, joined by delimiter.
func MergeAttr(plain any, bound map[string]bool, delimiter string) string {
	seen := make(map[string]bool)
	var tokens []string
	add := func(tok string) {
		tok = strings.TrimSpace(tok)
		if tok == "" || seen[tok] {
			return
		}
		seen[tok] = true
		tokens = append(tokens, tok)
	}

	if s, ok := plain.(string); ok {
		// class-style values split on whitespace; style-style values split
		// on the ";" the delimiter carries.
		if strings.Contains(delimiter, ";") {
			for _, tok := range strings.Split(s, ";") {
				add(tok)
			}
		} else {
			for _, tok := range strings.Fields(s) {
				add(tok)
			}
		}
	}

	// Deterministic order for the truthy bound entries.
	keys := make([]string, 0, len(bound))
	for k := range bound {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if bound[k] {
			add(k)
		}
	}

	return strings.Join(tokens, delimiter)
}

// Translate is an illustrative stand-in for the host's blueprint-matching
// translate() call: it returns the blueprint unmodified, since no localized
// catalogue exists here — the real host owns that and would run
// CheckBlueprintMatch against the selected translation string before
// merging it with the blueprint.
func Translate(key any, blueprint string, params map[string]any) (string, error) {
	_ = params
	return blueprint, nil
}

// TranslateAttr is the attribute-level counterpart of Translate. The Node
// Compiler never emits a call to it: "s-translate:<key>" opens a translation
// scope (see engine/attrs) rather than producing a translated attribute.
func TranslateAttr(key string, value any) (string, error) {
	return fmt.Sprintf("%v", value), nil
}

// Partial is an illustrative stand-in for the host's partial-include
// operation; the real host resolves path against its template directories.
func Partial(path string) (string, error) {
	return fmt.Sprintf("<!-- partial: %s -->", path), nil
}

// NewDefaultRegistry returns a Registry with the built-ins mergeAttr,
// translate, translateAttr and partial pre-registered (all but translateAttr
// are emitted by the compiler), so a compiled artifact's dispatch-prefixed
// calls resolve in tests without each caller re-registering them.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	_ = r.Register("mergeAttr", MergeAttr, 1000)
	_ = r.Register("translate", Translate, 1000)
	_ = r.Register("translateAttr", TranslateAttr, 1000)
	_ = r.Register("partial", Partial, 0)
	return r
}
