// Package attrs implements the Attribute Compiler: given a
// node and whether it sits inside an open translation scope, it classifies
// every raw attribute into exactly one branch and produces the emitted
// per-attribute fragment plus the control-flow/skip/partial/translate
// directives the Node Compiler must act on.
package attrs

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sfire-framework/sfire-template/engine/ast"
	"github.com/sfire-framework/sfire-template/engine/rewrite"
)

// KnownBooleanAttrs carries a single canonical form: emitted only when truthy.
var KnownBooleanAttrs = map[string]bool{
	"async": true, "autofocus": true, "autoplay": true, "checked": true,
	"compact": true, "controls": true, "default": true, "defer": true,
	"disabled": true, "hidden": true, "indeterminate": true, "ismap": true,
	"loop": true, "multiple": true, "muted": true, "nohref": true,
	"noshade": true, "novalidate": true, "nowrap": true, "open": true,
	"readonly": true, "required": true, "reversed": true, "scoped": true,
	"seamless": true, "selected": true, "sortable": true,
	"formnovalidate": true, "noresize": true,
}

// TwoFormBooleanAttrs have a truthy and falsy textual rendering instead of
// simple presence/absence.
var TwoFormBooleanAttrs = map[string][2]string{
	"autocomplete":    {"on", "off"},
	"border":          {"1", "0"},
	"contenteditable": {"true", "false"},
	"frameborder":     {"1", "0"},
	"spellcheck":      {"true", "false"},
	"translate":       {"yes", "no"},
}

// ForKind distinguishes the three s-for loop shapes.
type ForKind int

const (
	ForCounted ForKind = iota
	ForKeyValue
	ForValueOnly
)

// ForClause is the parsed s-for value.
type ForClause struct {
	Item  string
	Index string
	Items string
	Kind  ForKind
}

// DirectiveKind tags one staged control-flow open.
type DirectiveKind int

const (
	DirectiveIf DirectiveKind = iota
	DirectiveElseIf
	DirectiveElse
	DirectiveFor
)

// ControlFlow is one staged control-flow open, in emission order.
type ControlFlow struct {
	Kind      DirectiveKind
	Condition string // meaningful for If/ElseIf
	For       ForClause
}

// StagedDirectives collects everything besides plain attribute emission that
// the Node Compiler must act on for this node.
type StagedDirectives struct {
	Controls []ControlFlow // already ordered s-if < s-elseif < s-else < s-for

	Skip bool

	HasPartial  bool
	PartialExpr string

	Translate       bool
	TranslateKey    string // dotted identifier from "s-translate:<key>"; empty for plain "s-translate"
	TranslateParams string
}

// CompiledAttribute is one emitted attribute: Parsed is the fragment placed
// between the preserved Enclosure quotes. An empty Name marks a bare
// fragment (a boolean attribute's conditional echo) emitted without the
// name=value shape.
type CompiledAttribute struct {
	Name      string
	Enclosure byte
	Parsed    string
}

func (a CompiledAttribute) render(b *strings.Builder) {
	b.WriteByte(' ')
	if a.Name == "" {
		b.WriteString(a.Parsed)
		return
	}
	b.WriteString(a.Name)
	b.WriteByte('=')
	b.WriteByte(a.Enclosure)
	b.WriteString(a.Parsed)
	b.WriteByte(a.Enclosure)
}

// Compiler runs the classification/emission pass over one node's attributes.
type Compiler struct {
	node               *ast.Node
	inTranslationScope bool
}

// NewAttributeCompiler constructs a Compiler over node's raw attributes.
func NewAttributeCompiler(node *ast.Node, inTranslationScope bool) *Compiler {
	return &Compiler{node: node, inTranslationScope: inTranslationScope}
}

// inSplitRe splits "(ITEM, INDEX) in ITEMS" / "ITEM in ITEMS".
var inSplitRe = regexp.MustCompile(`\sin\s`)
var numericLiteralRe = regexp.MustCompile(`^-?[0-9]+$`)

func parseForClause(value string) ForClause {
	loc := inSplitRe.FindStringIndex(value)
	if loc == nil {
		// Malformed; treat the whole value as ITEMS with no bound item.
		return ForClause{Items: strings.TrimSpace(value), Kind: ForValueOnly}
	}
	left := strings.TrimSpace(value[:loc[0]])
	items := strings.TrimSpace(value[loc[1]:])

	left = strings.TrimPrefix(left, "(")
	left = strings.TrimSuffix(left, ")")

	var item, index string
	if idx := strings.IndexByte(left, ','); idx >= 0 {
		item = strings.TrimSpace(left[:idx])
		index = strings.TrimSpace(left[idx+1:])
	} else {
		item = strings.TrimSpace(left)
	}

	clause := ForClause{Item: item, Index: index, Items: items}
	switch {
	case numericLiteralRe.MatchString(items):
		clause.Kind = ForCounted
	case index != "":
		clause.Kind = ForKeyValue
	default:
		clause.Kind = ForValueOnly
	}
	return clause
}

// forHeader renders a ForClause into its PHP-style loop opener.
func forHeader(f ForClause) string {
	switch f.Kind {
	case ForCounted:
		n, err := strconv.Atoi(f.Items)
		if err != nil {
			n = 0
		}
		return fmt.Sprintf("<?php for(%s = 0; %s < %d; %s++): ?>", f.Item, f.Item, n, f.Item)
	case ForKeyValue:
		return fmt.Sprintf("<?php foreach(%s as %s => %s): ?>", rewrite.Rewrite(f.Items), f.Index, f.Item)
	default:
		return fmt.Sprintf("<?php foreach(%s as %s): ?>", rewrite.Rewrite(f.Items), f.Item)
	}
}

// escapeEmbedded runs the Expression Rewriter and wraps the result in an
// HTML-entity-escaped render.
func escapeEmbedded(expr string) string {
	return fmt.Sprintf(`<?= htmlentities((string)(%s), ENT_QUOTES) ?>`, rewrite.Rewrite(expr))
}

// EscapeEnclosure backslash-escapes every unescaped occurrence of quote in s;
// an occurrence already preceded by an odd run of backslashes is left alone.
func EscapeEnclosure(s string, quote byte) string {
	var b strings.Builder
	b.Grow(len(s))
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == quote && !escaped {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
		escaped = c == '\\' && !escaped
	}
	return b.String()
}

// phpQuote renders s as a single-quoted PHP string literal.
func phpQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}

// classOrStyleMerge builds the runtime merge call used by s-bind:class and
// s-bind:style.
func classOrStyleMerge(plain, bound, delimiter string) string {
	rewritten := rewrite.Rewrite(bound)
	plainLit := "null"
	if plain != "" {
		plainLit = phpQuote(plain)
	}
	return fmt.Sprintf(`<?= $this->mergeAttr(%s, %s, %s) ?>`, plainLit, rewritten, phpQuote(delimiter))
}

// defaultEnclosure is assumed when a producer could not report the source
// quote style.
const defaultEnclosure = '"'

func enclosureOf(a ast.RawAttribute) byte {
	if a.Enclosure == 0 {
		return defaultEnclosure
	}
	return a.Enclosure
}

// Compile classifies and emits every raw attribute on the node, returning the
// concatenated emitted text (each entry prefixed by one space, matching
// source-attribute spacing) and the staged directives.
func (c *Compiler) Compile() (string, StagedDirectives) {
	compiled, directives := c.CompileAttributes()
	var emitted strings.Builder
	for _, a := range compiled {
		a.render(&emitted)
	}
	return emitted.String(), directives
}

// CompileAttributes is Compile without the final join, for callers that want
// the per-attribute shape.
func (c *Compiler) CompileAttributes() ([]CompiledAttribute, StagedDirectives) {
	var directives StagedDirectives
	var compiled []CompiledAttribute

	raws := c.node.Attrs

	// First pass: collect s-bind:class / s-bind:style and s-partial targets so
	// the co-existence rules can suppress their plain counterparts.
	var boundClass, boundStyle ast.RawAttribute
	hasBoundClass, hasBoundStyle := false, false
	suppressPlain := map[string]bool{}
	for _, a := range raws {
		if a.Key == "s-bind" {
			switch a.Type {
			case "class":
				boundClass, hasBoundClass = a, true
			case "style":
				boundStyle, hasBoundStyle = a, true
			case "":
				// missing-bind-type: handled by caller via ErrMissingBindType
			default:
				suppressPlain[a.Type] = true
			}
		}
	}

	var plainClass, plainStyle ast.RawAttribute
	hasPlainClass, hasPlainStyle := false, false

	var ifCond, elseifCond string
	haveIf, haveElseif, haveElse := false, false, false
	var forClause ForClause
	haveFor := false

	for _, a := range raws {
		switch {
		case a.Key == "s-translate":
			// Both plain "s-translate" and dotted "s-translate:<key>" open a
			// translation scope on this node; the dotted form additionally
			// carries a translation-message key.
			directives.Translate = true
			directives.TranslateKey = a.Type
			directives.TranslateParams = a.Value

		case a.Key == "s-partial-var":
			// Reserved; never emitted.

		case a.Key == "s-skip" && a.Type == "":
			directives.Skip = true

		case a.Key == "s-partial" && a.Type == "":
			directives.HasPartial = true
			directives.PartialExpr = a.Value

		case a.Key == "s-for" && a.Type == "":
			forClause = parseForClause(a.Value)
			haveFor = true

		case a.Key == "s-if" && a.Type == "":
			ifCond = a.Value
			haveIf = true

		case a.Key == "s-elseif" && a.Type == "":
			elseifCond = a.Value
			haveElseif = true

		case a.Key == "s-else" && a.Type == "":
			haveElse = true

		case a.Key == "class" && a.Type == "":
			plainClass, hasPlainClass = a, true

		case a.Key == "style" && a.Type == "":
			plainStyle, hasPlainStyle = a, true

		case a.Key == "s-bind" && a.Type == "class":
			// handled after the loop, merged with plainClass

		case a.Key == "s-bind" && a.Type == "style":
			// handled after the loop, merged with plainStyle

		case a.Key == "s-bind" && a.Type == "s-partial":
			directives.HasPartial = true
			directives.PartialExpr = a.Value

		case a.Key == "s-bind":
			compiled = append(compiled, compileBind(a))

		default:
			if a.Key == "class" || a.Key == "style" {
				break
			}
			if suppressPlain[a.Key] {
				continue
			}
			compiled = append(compiled, CompiledAttribute{
				Name:      a.Name,
				Enclosure: enclosureOf(a),
				Parsed:    a.Value,
			})
		}
	}

	if hasBoundClass || hasPlainClass {
		compiled = append(compiled, mergedAttr("class", " ",
			plainClass, hasPlainClass, boundClass, hasBoundClass))
	}
	if hasBoundStyle || hasPlainStyle {
		compiled = append(compiled, mergedAttr("style", "; ",
			plainStyle, hasPlainStyle, boundStyle, hasBoundStyle))
	}

	// Ordering invariant: s-if < s-elseif < s-else < s-for < everything-else.
	if haveIf {
		directives.Controls = append(directives.Controls, ControlFlow{Kind: DirectiveIf, Condition: rewrite.Rewrite(ifCond)})
	}
	if haveElseif {
		directives.Controls = append(directives.Controls, ControlFlow{Kind: DirectiveElseIf, Condition: rewrite.Rewrite(elseifCond)})
	}
	if haveElse {
		directives.Controls = append(directives.Controls, ControlFlow{Kind: DirectiveElse})
	}
	if haveFor {
		directives.Controls = append(directives.Controls, ControlFlow{Kind: DirectiveFor, For: forClause})
	}

	return compiled, directives
}

// compileBind renders one s-bind:<attr> under the boolean / two-form /
// default rules. class/style/s-partial never reach here.
func compileBind(a ast.RawAttribute) CompiledAttribute {
	name := a.Type
	enc := enclosureOf(a)
	if KnownBooleanAttrs[name] {
		return CompiledAttribute{
			Parsed: fmt.Sprintf(`<?php if(%s) echo " %s"; ?>`, rewrite.Rewrite(a.Value), name),
		}
	}
	if forms, ok := TwoFormBooleanAttrs[name]; ok {
		parsed := fmt.Sprintf(`<?= (%s) ? %s : %s ?>`,
			rewrite.Rewrite(a.Value), phpQuote(forms[0]), phpQuote(forms[1]))
		if enc == '\'' {
			parsed = EscapeEnclosure(parsed, enc)
		}
		return CompiledAttribute{Name: name, Enclosure: enc, Parsed: parsed}
	}
	return CompiledAttribute{Name: name, Enclosure: enc, Parsed: escapeEmbedded(a.Value)}
}

// mergedAttr renders the single merged class/style attribute from whichever
// of the plain and bound forms are present, preserving the source enclosure
// (the bound form's wins when both exist).
func mergedAttr(name, delimiter string, plain ast.RawAttribute, hasPlain bool, bound ast.RawAttribute, hasBound bool) CompiledAttribute {
	plainVal := ""
	if hasPlain {
		plainVal = plain.Value
	}
	boundVal := "[]"
	enc := byte(defaultEnclosure)
	if hasBound {
		boundVal = bound.Value
		enc = enclosureOf(bound)
	} else if hasPlain {
		enc = enclosureOf(plain)
	}
	parsed := classOrStyleMerge(plainVal, boundVal, delimiter)
	if enc == '\'' {
		parsed = EscapeEnclosure(parsed, enc)
	}
	return CompiledAttribute{Name: name, Enclosure: enc, Parsed: parsed}
}

// OpenerFor renders the PHP-style header for one staged control-flow entry.
func OpenerFor(cf ControlFlow) string {
	switch cf.Kind {
	case DirectiveIf:
		return fmt.Sprintf("<?php if(%s): ?>", cf.Condition)
	case DirectiveElseIf:
		return fmt.Sprintf("<?php elseif(%s): ?>", cf.Condition)
	case DirectiveElse:
		return "<?php else: ?>"
	case DirectiveFor:
		return forHeader(cf.For)
	default:
		return ""
	}
}

// CloserFor renders the terminator for one staged control-flow entry. For
// If/ElseIf/Else the caller is responsible for only emitting endif once per
// chain; For always closes its own loop immediately.
func CloserFor(cf ControlFlow) string {
	switch cf.Kind {
	case DirectiveFor:
		if cf.For.Kind == ForCounted {
			return "<?php endfor; ?>"
		}
		return "<?php endforeach; ?>"
	default:
		return "<?php endif; ?>"
	}
}

// IsChainMember reports whether kind is part of an if/elseif/else chain (as
// opposed to a for loop), used by the Node Compiler to decide whether a
// following sibling continues the chain.
func IsChainMember(kind DirectiveKind) bool {
	return kind == DirectiveIf || kind == DirectiveElseIf || kind == DirectiveElse
}
