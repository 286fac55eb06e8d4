// Package i18n implements the Translation Weaver: it captures
// a node's rendered subtree as a translation blueprint and, separately,
// resolves the corrected plural-range matching rule.
package i18n

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sfire-framework/sfire-template/engine/rewrite"
)

// State is the weaver's current mode.
type State int

const (
	Idle State = iota
	Open
)

// ErrNestedTranslation is raised when s-translate is encountered while a
// translation scope is already open.
type ErrNestedTranslation struct {
	Outer string
	Inner string
}

func (e *ErrNestedTranslation) Error() string {
	return fmt.Sprintf("translations may not be nested: %q already open when %q was opened", e.Outer, e.Inner)
}

// Weaver holds the Idle/Open state machine and accumulates the translation
// buffer while open. It is not safe for concurrent use; one Weaver belongs to
// one CompileContext.
type Weaver struct {
	state    State
	ownerTag string
	key      string
	params   string
	buf      strings.Builder
}

// NewWeaver returns an idle weaver.
func NewWeaver() *Weaver {
	return &Weaver{}
}

// IsOpen reports whether a translation scope is currently active.
func (w *Weaver) IsOpen() bool { return w.state == Open }

// Open transitions Idle -> Open. ownerTag is recorded only so a later nested
// attempt can name both tags in its error. key is the dotted translation
// identifier carried by "s-translate:<key>"; empty for plain "s-translate".
func (w *Weaver) Open(ownerTag, key, params string) error {
	if w.state == Open {
		return &ErrNestedTranslation{Outer: w.ownerTag, Inner: ownerTag}
	}
	w.state = Open
	w.ownerTag = ownerTag
	w.key = key
	w.params = params
	w.buf.Reset()
	return nil
}

// Append adds already-formatted markup (an open tag, a close tag, an
// interpolation's escape expression) to the translation buffer verbatim.
func (w *Weaver) Append(s string) {
	w.buf.WriteString(s)
}

// AppendText escapes text content against the single quote that will
// delimit the blueprint string literal, then buffers it.
func (w *Weaver) AppendText(text string) {
	w.buf.WriteString(EscapeSingleQuote(text))
}

// Close transitions Open -> Idle and returns the host translate() call
// literal for the accumulated blueprint, key, and parameters. key is "null"
// when the scope was opened without a dotted identifier.
func (w *Weaver) Close() string {
	blueprint := w.buf.String()
	keyLiteral := "null"
	if w.key != "" {
		keyLiteral = strconv.Quote(w.key)
	}
	params := "null"
	if strings.TrimSpace(w.params) != "" {
		params = rewrite.Rewrite(w.params)
	}
	call := fmt.Sprintf(`<?= $this->translate(%s, '%s', %s) ?>`, keyLiteral, blueprint, params)
	w.state = Idle
	w.ownerTag = ""
	w.key = ""
	w.params = ""
	w.buf.Reset()
	return call
}

// EscapeSingleQuote backslash-escapes ' in s, respecting occurrences that are
// already escaped (an existing "\'" is left alone rather than doubled).
func EscapeSingleQuote(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\'' && !escaped {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
		escaped = c == '\\' && !escaped
	}
	return b.String()
}

// PluralMatch is a parsed plural-range selector (e.g. "5", "1,5", "3,", ",10").
type PluralMatch struct {
	Exact   bool
	HasFrom bool
	HasTo   bool
	From    int
	To      int
}

// ParsePluralSelector parses one plural-range selector ("5", "1,5", "3,",
// ",10") into its bound semantics: exact match with no comma, from..to with
// both bounds, an open lower or upper bound otherwise.
func ParsePluralSelector(sel string) PluralMatch {
	sel = strings.TrimSpace(sel)
	if !strings.Contains(sel, ",") {
		v, _ := strconv.Atoi(sel)
		return PluralMatch{Exact: true, From: v}
	}
	parts := strings.SplitN(sel, ",", 2)
	fromStr := strings.TrimSpace(parts[0])
	toStr := strings.TrimSpace(parts[1])
	m := PluralMatch{}
	if fromStr != "" {
		m.HasFrom = true
		m.From, _ = strconv.Atoi(fromStr)
	}
	if toStr != "" {
		m.HasTo = true
		m.To, _ = strconv.Atoi(toStr)
	}
	return m
}

// Matches reports whether count n is selected by m.
func (m PluralMatch) Matches(n int) bool {
	if m.Exact {
		return n == m.From
	}
	switch {
	case m.HasFrom && m.HasTo:
		return n >= m.From && n <= m.To
	case m.HasFrom:
		return n >= m.From
	case m.HasTo:
		return n <= m.To
	default:
		return false
	}
}
