// Package rewrite implements the Expression Rewriter: it finds
// bare function invocations in an expression string and rewrites them into
// host-method dispatch calls, leaving everything the host already qualifies
// (method calls, namespaced symbols, builtins) untouched.
package rewrite

import (
	"regexp"
	"strings"
)

// DispatchPrefix is the host-defined token meaning "invoke on the compiled
// template's runtime" — conceptually a method receiver, spelled the way the
// PHP host (sfire-template) spells it.
const DispatchPrefix = "$this->"

var identRe = regexp.MustCompile(`^[_A-Za-z][_A-Za-z0-9]*$`)

// hostBuiltins are callables the host runtime provides; the rewriter must
// leave them alone.
var hostBuiltins = map[string]bool{
	"boolval": true, "intval": true, "floatval": true, "strval": true,
	"get_defined_vars": true, "get_resource_type": true, "gettype": true,
	"var_dump": true, "var_export": true, "print_r": true, "debug_zval_dump": true,
	"isset": true, "empty": true, "unset": true, "settype": true,
	"serialize": true, "unserialize": true,
}

func isHostBuiltin(name string) bool {
	if strings.HasPrefix(name, "is_") {
		return true
	}
	return hostBuiltins[name]
}

// allowedSymbolTokens are the non-word preceding tokens that mark a call as
// qualifying, ordered longest-first so suffix matching picks the longest one.
var allowedSymbolTokens = []string{
	"<=>", "!==", "===", "**",
	"&&", "||", "==", "!=", "<>", ">=", "<=", "+=", "-=", "*=", "/=", "%=", ".=",
	"+", "-", "*", "/", "%", "=", "!", ".", "(", ":", "?", ">", "<",
}

// allowedWordTokens are the word-shaped preceding tokens that mark a call as
// qualifying; they must end on a word boundary to avoid matching inside a
// longer identifier (e.g. "train(" must not match the "in" word token).
var allowedWordTokens = []string{"and", "or", "xor", "in"}

// disallowedTokens denote a method call or namespaced symbol: already
// host-qualified, so the rewriter must not touch it.
var disallowedTokens = []string{"->", "\\"}

func hasSuffix(s, tok string) bool {
	return len(s) >= len(tok) && s[len(s)-len(tok):] == tok
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// qualifies reports whether the call whose name starts at nameStart in s is a
// bare, rewritable invocation, based on the text preceding it.
func qualifies(s string, nameStart int) bool {
	pre := s[:nameStart]
	trimmed := strings.TrimRight(pre, " \t\r\n")
	if trimmed == "" {
		return true // start of string
	}
	// "-->" must be tested before the disallowed "->" suffix it contains.
	if hasSuffix(trimmed, "-->") {
		return true
	}
	for _, tok := range disallowedTokens {
		if hasSuffix(trimmed, tok) {
			return false
		}
	}
	for _, tok := range allowedSymbolTokens {
		if hasSuffix(trimmed, tok) {
			return true
		}
	}
	for _, word := range allowedWordTokens {
		if hasSuffix(trimmed, word) {
			boundaryIdx := len(trimmed) - len(word)
			if boundaryIdx == 0 || !isIdentByte(trimmed[boundaryIdx-1]) {
				return true
			}
		}
	}
	return false
}

// Rewrite scans expr for qualifying bare function invocations and rewrites
// each to "<DispatchPrefix>name(args)". It never raises: an unrecognizable
// expression passes through unchanged.
func Rewrite(expr string) string {
	type sub struct {
		at int
	}
	var subs []sub

	var quote byte
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		if quote != 0 {
			if c == '\\' {
				i++ // skip escaped char, if any
				continue
			}
			if c == quote {
				quote = 0
			}
			continue
		}
		if c == '\'' || c == '"' {
			quote = c
			continue
		}
		if c != '(' {
			continue
		}
		// Walk left through the longest run of [A-Za-z0-9_].
		j := i
		for j > 0 && isIdentByte(expr[j-1]) {
			j--
		}
		name := expr[j:i]
		if name == "" || !identRe.MatchString(name) {
			continue
		}
		if !qualifies(expr, j) {
			continue
		}
		if isHostBuiltin(name) {
			continue
		}
		subs = append(subs, sub{at: j})
	}

	if len(subs) == 0 {
		return expr
	}

	// Pure insertions at ascending, non-overlapping offsets: equivalent to
	// applying them right-to-left, every recorded offset stays valid.
	var b strings.Builder
	b.Grow(len(expr) + len(subs)*len(DispatchPrefix))
	last := 0
	for _, s := range subs {
		b.WriteString(expr[last:s.at])
		b.WriteString(DispatchPrefix)
		last = s.at
	}
	b.WriteString(expr[last:])
	return b.String()
}
