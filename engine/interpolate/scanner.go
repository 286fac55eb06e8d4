// Package interpolate implements the Interpolation Scanner: it
// finds {{ expr }} (escaping) and {!! expr !!} (raw) spans in a text fragment.
package interpolate

import (
	"strings"

	"github.com/sfire-framework/sfire-template/engine/rewrite"
)

// Span is one interpolation occurrence. Begin/End are the byte positions of
// the outermost delimiters; Length spans the whole delimiter pair.
type Span struct {
	Begin   int
	End     int
	Length  int
	Content string
	Escape  bool // true for {{ }}, false for {!! !!}
}

// Scan performs a single forward pass with a "currently open" cursor. Quote
// tracking is intentionally NOT applied — interpolation delimiters are
// recognized even inside quoted regions, matching the source behavior.
//
// Open-question resolution: the close style need not match the
// open style. Whichever of "}}" or "!!}" is seen first while a span is open
// closes it. This is the documented, pinned policy — see
// engine/interpolate/scanner_test.go for the behavior this locks in.
func Scan(text string) []Span {
	var spans []Span
	i := 0
	n := len(text)
	for i < n {
		openStart, openLen, isRaw, ok := matchOpen(text, i)
		if !ok {
			i++
			continue
		}
		contentStart := openStart + openLen
		closeStart, closeLen, found := findClose(text, contentStart)
		if !found {
			// Unbalanced: partially open bracket with no matching close
			// produces no span (silently dropped) — and nothing further to
			// scan from here since the rest of the text has no closer either.
			break
		}
		spans = append(spans, Span{
			Begin:   openStart,
			End:     closeStart + closeLen,
			Length:  (closeStart + closeLen) - openStart,
			Content: text[contentStart:closeStart],
			Escape:  !isRaw,
		})
		i = closeStart + closeLen
	}
	return spans
}

func matchOpen(text string, i int) (start, length int, isRaw bool, ok bool) {
	if i+1 < len(text) && text[i] == '{' && text[i+1] == '{' {
		return i, 2, false, true
	}
	if i+2 < len(text) && text[i] == '{' && text[i+1] == '!' && text[i+2] == '!' {
		return i, 3, true, true
	}
	return 0, 0, false, false
}

// findClose returns the position of whichever closer ("}}" or "!!}") occurs
// first at or after from, regardless of which opener started the span.
func findClose(text string, from int) (start, length int, found bool) {
	bestStart, bestLen := -1, 0
	for i := from; i < len(text); i++ {
		if i+1 < len(text) && text[i] == '}' && text[i+1] == '}' {
			bestStart, bestLen = i, 2
			break
		}
		if i+2 < len(text) && text[i] == '!' && text[i+1] == '!' && text[i+2] == '}' {
			bestStart, bestLen = i, 3
			break
		}
	}
	if bestStart < 0 {
		return 0, 0, false
	}
	return bestStart, bestLen, true
}

// Emit runs the Expression Rewriter over each span's content, trimmed of the
// whitespace just inside its delimiters, and substitutes
// escaping or raw emission markers for it. The spans are non-overlapping and
// in source order, so rebuilding forward is equivalent to substituting
// right-to-left. escapeEmit/rawEmit format a rewritten expression into the
// final emission text (e.g. the Node Compiler supplies the "<?php echo ...?>"
// forms).
func Emit(text string, escapeEmit, rawEmit func(expr string) string) string {
	spans := Scan(text)
	if len(spans) == 0 {
		return text
	}
	out := make([]byte, 0, len(text))
	last := 0
	for _, sp := range spans {
		out = append(out, text[last:sp.Begin]...)
		rewritten := rewrite.Rewrite(strings.TrimSpace(sp.Content))
		if sp.Escape {
			out = append(out, escapeEmit(rewritten)...)
		} else {
			out = append(out, rawEmit(rewritten)...)
		}
		last = sp.End
	}
	out = append(out, text[last:]...)
	return string(out)
}
