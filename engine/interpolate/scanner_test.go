package interpolate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScan_Basic(t *testing.T) {
	spans := Scan("hello {{ name }} and {!! raw !!}")
	assert.Len(t, spans, 2)
	assert.True(t, spans[0].Escape)
	assert.Equal(t, " name ", spans[0].Content)
	assert.False(t, spans[1].Escape)
	assert.Equal(t, " raw ", spans[1].Content)
}

func TestScan_NoSpans(t *testing.T) {
	assert.Empty(t, Scan("plain text, no braces"))
}

// Pinned open-question resolution: a span may open with one style and close
// with the other. Whichever closer is encountered first wins.
func TestScan_MismatchedCloseStyleIsAllowed(t *testing.T) {
	spans := Scan("{{ value !!}")
	if assert.Len(t, spans, 1) {
		assert.True(t, spans[0].Escape, "opened with {{, so it is still an escaping span")
		assert.Equal(t, " value ", spans[0].Content)
	}

	spans2 := Scan("{!! value }}")
	if assert.Len(t, spans2, 1) {
		assert.False(t, spans2[0].Escape, "opened with {!!, so it is still a raw span")
		assert.Equal(t, " value ", spans2[0].Content)
	}
}

func TestScan_ClosesOnWhicheverComesFirst(t *testing.T) {
	// The first "}}" inside the content terminates the span even though a
	// "!!}" appears later in the text — the scanner does not look ahead.
	spans := Scan("{{ a }} !!} trailing")
	if assert.Len(t, spans, 1) {
		assert.Equal(t, " a ", spans[0].Content)
	}
}

func TestScan_UnclosedSpanIsDropped(t *testing.T) {
	assert.Empty(t, Scan("{{ never closed"))
}

func TestScan_MultipleSpansAdvancePastEachOther(t *testing.T) {
	spans := Scan("{{ a }}{{ b }}{{ c }}")
	if assert.Len(t, spans, 3) {
		assert.Equal(t, " a ", spans[0].Content)
		assert.Equal(t, " b ", spans[1].Content)
		assert.Equal(t, " c ", spans[2].Content)
	}
}

func TestEmit_RewritesAndFormats(t *testing.T) {
	out := Emit("Hi {{ greet(name) }}!", func(expr string) string {
		return "<?= " + expr + " ?>"
	}, func(expr string) string {
		return "<?= raw(" + expr + ") ?>"
	})
	assert.Equal(t, "Hi <?= $this->greet(name) ?>!", out)
}

func TestEmit_NoSpansReturnsInputUnchanged(t *testing.T) {
	in := "just text"
	out := Emit(in, func(string) string { return "X" }, func(string) string { return "Y" })
	assert.Equal(t, in, out)
}
