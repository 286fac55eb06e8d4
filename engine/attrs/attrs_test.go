package attrs

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sfire-framework/sfire-template/engine/ast"
)

func attr(name, value string) ast.RawAttribute {
	key, typ := name, ""
	for i := 0; i < len(name); i++ {
		if name[i] == ':' {
			key, typ = name[:i], name[i+1:]
			break
		}
	}
	return ast.RawAttribute{Key: key, Type: typ, Name: name, Value: value, Enclosure: '"'}
}

func TestCompile_PassThrough(t *testing.T) {
	n := &ast.Node{Attrs: []ast.RawAttribute{attr("id", "main")}}
	emitted, dirs := NewAttributeCompiler(n, false).Compile()
	assert.Contains(t, emitted, `id="main"`)
	assert.Empty(t, dirs.Controls)
}

func TestCompile_IfElseifElseOrdering(t *testing.T) {
	n := &ast.Node{Attrs: []ast.RawAttribute{
		attr("s-else", ""),
		attr("s-if", "$x==1"),
		attr("s-elseif", "$x==2"),
	}}
	_, dirs := NewAttributeCompiler(n, false).Compile()
	if assert.Len(t, dirs.Controls, 3) {
		assert.Equal(t, DirectiveIf, dirs.Controls[0].Kind)
		assert.Equal(t, DirectiveElseIf, dirs.Controls[1].Kind)
		assert.Equal(t, DirectiveElse, dirs.Controls[2].Kind)
	}
}

func TestCompile_ForNumericLiteralIsCounted(t *testing.T) {
	n := &ast.Node{Attrs: []ast.RawAttribute{attr("s-for", "$i in 10")}}
	_, dirs := NewAttributeCompiler(n, false).Compile()
	if assert.Len(t, dirs.Controls, 1) {
		cf := dirs.Controls[0]
		assert.Equal(t, DirectiveFor, cf.Kind)
		assert.Equal(t, ForCounted, cf.For.Kind)
		assert.Equal(t, "$i", cf.For.Item)
		assert.Equal(t, "10", cf.For.Items)
	}
}

func TestCompile_ForKeyValue(t *testing.T) {
	n := &ast.Node{Attrs: []ast.RawAttribute{attr("s-for", "($item, $index) in $items")}}
	_, dirs := NewAttributeCompiler(n, false).Compile()
	cf := dirs.Controls[0]
	assert.Equal(t, ForKeyValue, cf.For.Kind)
	assert.Equal(t, "$item", cf.For.Item)
	assert.Equal(t, "$index", cf.For.Index)
	assert.Equal(t, "$items", cf.For.Items)
}

func TestCompile_ForValueOnly(t *testing.T) {
	n := &ast.Node{Attrs: []ast.RawAttribute{attr("s-for", "$item in $items")}}
	_, dirs := NewAttributeCompiler(n, false).Compile()
	cf := dirs.Controls[0]
	assert.Equal(t, ForValueOnly, cf.For.Kind)
	assert.Equal(t, "$item", cf.For.Item)
	assert.Equal(t, "$items", cf.For.Items)
}

func TestCompile_BoundClassMergesWithPlain(t *testing.T) {
	n := &ast.Node{Attrs: []ast.RawAttribute{
		attr("class", "static"),
		attr("s-bind:class", "['active' => true, 'hidden' => false]"),
	}}
	emitted, _ := NewAttributeCompiler(n, false).Compile()
	assert.Equal(t, 1, countOccurrences(emitted, "class="))
	assert.Contains(t, emitted, "mergeAttr")
}

func TestCompile_KnownBooleanAttr(t *testing.T) {
	n := &ast.Node{Attrs: []ast.RawAttribute{attr("s-bind:disabled", "$isDisabled")}}
	emitted, _ := NewAttributeCompiler(n, false).Compile()
	assert.Contains(t, emitted, `if($isDisabled) echo " disabled";`)
}

func TestCompile_KnownBooleanAttrRewritesBareCall(t *testing.T) {
	n := &ast.Node{Attrs: []ast.RawAttribute{attr("s-bind:checked", "isChecked()")}}
	emitted, _ := NewAttributeCompiler(n, false).Compile()
	assert.Contains(t, emitted, `if($this->isChecked()) echo " checked";`)
}

func TestCompile_TwoFormBooleanAttr(t *testing.T) {
	n := &ast.Node{Attrs: []ast.RawAttribute{attr("s-bind:spellcheck", "$on")}}
	emitted, _ := NewAttributeCompiler(n, false).Compile()
	assert.Contains(t, emitted, `'true' : 'false'`)
}

func TestCompile_SkipAndPartialAreStagedNotEmitted(t *testing.T) {
	n := &ast.Node{Attrs: []ast.RawAttribute{attr("s-skip", ""), attr("s-partial", "'header'")}}
	emitted, dirs := NewAttributeCompiler(n, false).Compile()
	assert.Empty(t, emitted)
	assert.True(t, dirs.Skip)
	assert.True(t, dirs.HasPartial)
	assert.Equal(t, "'header'", dirs.PartialExpr)
}

func TestCompile_PreservesSourceEnclosure(t *testing.T) {
	n := &ast.Node{Attrs: []ast.RawAttribute{
		{Key: "id", Name: "id", Value: "main", Enclosure: '\''},
	}}
	emitted, _ := NewAttributeCompiler(n, false).Compile()
	assert.Contains(t, emitted, `id='main'`)
}

func TestCompile_SingleQuoteEnclosureEscapesGeneratedLiterals(t *testing.T) {
	n := &ast.Node{Attrs: []ast.RawAttribute{
		{Key: "s-bind", Type: "spellcheck", Name: "s-bind:spellcheck", Value: "$on", Enclosure: '\''},
	}}
	emitted, _ := NewAttributeCompiler(n, false).Compile()
	assert.Contains(t, emitted, `spellcheck='`)
	assert.Contains(t, emitted, `\'true\' : \'false\'`)
}

func TestCompileAttributes_ReturnsPerAttributeShape(t *testing.T) {
	n := &ast.Node{Attrs: []ast.RawAttribute{
		attr("id", "main"),
		attr("s-bind:title", "$t"),
	}}
	compiled, _ := NewAttributeCompiler(n, false).CompileAttributes()
	if assert.Len(t, compiled, 2) {
		assert.Equal(t, "id", compiled[0].Name)
		assert.Equal(t, byte('"'), compiled[0].Enclosure)
		assert.Equal(t, "main", compiled[0].Parsed)
		assert.Equal(t, "title", compiled[1].Name)
		assert.Contains(t, compiled[1].Parsed, "htmlentities")
	}
}

func TestEscapeEnclosure_RespectsAlreadyEscaped(t *testing.T) {
	assert.Equal(t, `don\'t`, EscapeEnclosure(`don't`, '\''))
	assert.Equal(t, `already\'escaped`, EscapeEnclosure(`already\'escaped`, '\''))
	assert.Equal(t, `say \"hi\"`, EscapeEnclosure(`say "hi"`, '"'))
}

func countOccurrences(s, sub string) int {
	count := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			count++
			i += len(sub) - 1
		}
	}
	return count
}
