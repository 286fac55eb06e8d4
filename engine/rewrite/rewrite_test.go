package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRewrite_BareCallAtStartOfString(t *testing.T) {
	assert.Equal(t, "$this->foo(5, 2) + 1", Rewrite("foo(5, 2) + 1"))
}

func TestRewrite_MethodCallIsUntouched(t *testing.T) {
	assert.Equal(t, "bar->baz(1)", Rewrite("bar->baz(1)"))
}

func TestRewrite_NamespacedSymbolIsUntouched(t *testing.T) {
	assert.Equal(t, `App\Helpers\baz(1)`, Rewrite(`App\Helpers\baz(1)`))
}

func TestRewrite_AllowedPrecedingOperators(t *testing.T) {
	cases := []string{
		"1 + foo()", "1 - foo()", "1 * foo()", "1 / foo()", "1 % foo()", "2 ** foo()",
		"$x = foo()", "$x += foo()", "$x -= foo()", "$x *= foo()", "$x /= foo()", "$x %= foo()",
		"$a && foo()", "$a || foo()", "!foo()", "$a and foo()", "$a or foo()", "$a xor foo()",
		"$a == foo()", "$a === foo()", "$a != foo()", "$a <> foo()", "$a !== foo()",
		"$a > foo()", "$a < foo()", "$a >= foo()", "$a <= foo()", "$a <=> foo()",
		"'x' . foo()", "$a .= foo()", "(foo())", "$a ? foo() : 1", "$a in foo()",
	}
	for _, c := range cases {
		assert.Contains(t, Rewrite(c), "$this->foo(", "input: %q", c)
	}
}

func TestRewrite_ArrowCommentTokenStillQualifies(t *testing.T) {
	// "-->" is an allowed preceding token even though it ends in the
	// disallowed "->" sequence.
	assert.Equal(t, "$a --> $this->foo()", Rewrite("$a --> foo()"))
}

func TestRewrite_DisallowedPrecedingOperators(t *testing.T) {
	assert.Equal(t, "$obj->foo(1)", Rewrite("$obj->foo(1)"))
	assert.Equal(t, `Ns\foo(1)`, Rewrite(`Ns\foo(1)`))
}

func TestRewrite_HostBuiltinsAreUntouched(t *testing.T) {
	for _, expr := range []string{
		"is_array($x)", "is_string($x)", "boolval($x)", "intval($x)", "floatval($x)",
		"strval($x)", "get_defined_vars()", "get_resource_type($x)", "gettype($x)",
		"var_dump($x)", "var_export($x)", "print_r($x)", "debug_zval_dump($x)",
		"isset($x)", "empty($x)", "unset($x)", "settype($x, 'int')",
		"serialize($x)", "unserialize($x)",
	} {
		assert.Equal(t, expr, Rewrite(expr), "builtin should pass through untouched: %q", expr)
	}
}

func TestRewrite_OpenParenInsideQuotedStringIsNotACallSite(t *testing.T) {
	// The "(" at index 4 sits inside the quoted string and must never be
	// treated as a call site; the "." concatenation after the closing
	// quote still allows the following bare call to qualify normally.
	assert.Equal(t, `"foo(" . $this->bar()`, Rewrite(`"foo(" . bar()`))
}

func TestRewrite_EscapedQuoteInsideStringDoesNotCloseIt(t *testing.T) {
	// The escaped quote must not end the string early, so the "(" right
	// after it is still inside the string and not mistaken for a call.
	assert.Equal(t, `'it\'s (fine)' . $this->bar()`, Rewrite(`'it\'s (fine)' . bar()`))
}

func TestRewrite_MultipleCallsRewrittenLeftToRight(t *testing.T) {
	assert.Equal(t, "$this->a() + $this->b()", Rewrite("a() + b()"))
}

func TestRewrite_NestedBareCallInsideArgsAlsoQualifies(t *testing.T) {
	// "(" is itself an allowed preceding token, so a bare call
	// immediately inside another call's argument list also qualifies.
	assert.Equal(t, "$this->foo($this->bar(1))", Rewrite("foo(bar(1))"))
}

func TestRewrite_EmptyNameIsNotACall(t *testing.T) {
	assert.Equal(t, "(1 + 2)", Rewrite("(1 + 2)"))
}

func TestRewrite_NonIdentifierNameIsSkipped(t *testing.T) {
	assert.Equal(t, "$a->1foo()", Rewrite("$a->1foo()"))
}

func TestRewrite_Idempotent(t *testing.T) {
	for _, expr := range []string{
		"foo(5, 2) + 1", "bar->baz(1)", "a() + b()", "is_array($x)", "plain text",
	} {
		once := Rewrite(expr)
		twice := Rewrite(once)
		assert.Equal(t, once, twice, "input: %q", expr)
	}
}

func TestRewrite_NoMatchReturnsInputUnchanged(t *testing.T) {
	assert.Equal(t, "plain text, no calls", Rewrite("plain text, no calls"))
}
