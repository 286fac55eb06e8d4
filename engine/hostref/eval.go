package hostref

import (
	"fmt"
	"regexp"

	"github.com/expr-lang/expr"
)

// Eval is the reference condition/expression engine: it evaluates the
// already-dispatch-rewritten text of an s-if/s-for/s-bind expression against
// a supplied variable map. Grounded on dpotapov-go-pages's chtml/expr.go,
// which reaches for expr-lang/expr for the same purpose; this is
// intentionally simpler (no static shape-checking) since the compiler's
// own correctness never depends on it.
func Eval(expression string, vars map[string]any) (any, error) {
	program, err := expr.Compile(expression, expr.Env(vars), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("compiling expression %q: %w", expression, err)
	}
	return expr.Run(program, vars)
}

// EvalBool is a convenience wrapper for s-if/s-elseif conditions.
func EvalBool(expression string, vars map[string]any) (bool, error) {
	v, err := Eval(expression, vars)
	if err != nil {
		return false, err
	}
	b, _ := v.(bool)
	return b, nil
}

// ErrTranslationBlueprintMismatch is raised at render time when a selected
// translation string contains an element tag the blueprint does not.
type ErrTranslationBlueprintMismatch struct {
	Blueprint   string
	Translation string
	Tag         string
}

func (e *ErrTranslationBlueprintMismatch) Error() string {
	return fmt.Sprintf("translation contains tag <%s> absent from its blueprint", e.Tag)
}

var tagRe = regexp.MustCompile(`<([a-zA-Z][a-zA-Z0-9-]*)[ >/]`)

func tagSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, m := range tagRe.FindAllStringSubmatch(s+" ", -1) {
		set[m[1]] = true
	}
	return set
}

// CheckBlueprintMatch reports an error if translation uses an element tag
// that blueprint never opens.
func CheckBlueprintMatch(blueprint, translation string) error {
	allowed := tagSet(blueprint)
	for tag := range tagSet(translation) {
		if !allowed[tag] {
			return &ErrTranslationBlueprintMismatch{Blueprint: blueprint, Translation: translation, Tag: tag}
		}
	}
	return nil
}
