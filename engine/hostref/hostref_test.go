package hostref

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_DispatchUnknown(t *testing.T) {
	r := NewRegistry()
	_, err := r.Dispatch("nope")
	var unknown *ErrUnknownTemplateFunction
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "nope", unknown.Name)
}

func TestRegistry_RegisterRejectsRedefinition(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("greet", func() string { return "hi" }, 10))
	err := r.Register("greet", func() string { return "bye" }, 10)
	assert.Error(t, err)
}

func TestRegistry_DispatchCallsThrough(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("double", func(n int) int { return n * 2 }, 100))
	out, err := r.Dispatch("double", 21)
	require.NoError(t, err)
	assert.Equal(t, 42, out)
}

func TestRegistry_CacheBoundRecomputesAfterLimit(t *testing.T) {
	r := NewRegistry()
	calls := 0
	require.NoError(t, r.Register("counter", func() int {
		calls++
		return calls
	}, 2))

	first, err := r.Dispatch("counter")
	require.NoError(t, err)
	assert.Equal(t, 1, first)

	// Within cache_bound: served from cache, underlying fn not re-invoked.
	second, err := r.Dispatch("counter")
	require.NoError(t, err)
	assert.Equal(t, 1, second)

	third, err := r.Dispatch("counter")
	require.NoError(t, err)
	assert.Equal(t, 1, third)

	// hits has now reached cache_bound (2): next call recomputes.
	fourth, err := r.Dispatch("counter")
	require.NoError(t, err)
	assert.Equal(t, 2, fourth)
	assert.Equal(t, 2, calls)
}

func TestRegistry_ZeroCacheBoundAlwaysRecomputes(t *testing.T) {
	r := NewRegistry()
	calls := 0
	require.NoError(t, r.Register("uncached", func() int {
		calls++
		return calls
	}, 0))
	_, _ = r.Dispatch("uncached")
	_, _ = r.Dispatch("uncached")
	out, err := r.Dispatch("uncached")
	require.NoError(t, err)
	assert.Equal(t, 3, out)
}

func TestMergeAttr_PlainFirstThenTruthyBound(t *testing.T) {
	out := MergeAttr("static", map[string]bool{"active": true, "hidden": false}, " ")
	assert.Equal(t, "static active", out)
}

func TestMergeAttr_DeduplicatesAndDropsEmpties(t *testing.T) {
	out := MergeAttr("a  b a", map[string]bool{"b": true, "c": true, "": true}, " ")
	assert.Equal(t, "a b c", out)
}

func TestMergeAttr_StyleDelimiter(t *testing.T) {
	out := MergeAttr("color: red", map[string]bool{"margin: 0": true}, "; ")
	assert.Equal(t, "color: red; margin: 0", out)
}

func TestEvalBool(t *testing.T) {
	ok, err := EvalBool("x == 1", map[string]any{"x": 1})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = EvalBool("x == 1", map[string]any{"x": 2})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckBlueprintMatch(t *testing.T) {
	assert.NoError(t, CheckBlueprintMatch("Hi <b>there</b>", "Salut <b>là</b>"))

	err := CheckBlueprintMatch("Hi <b>there</b>", "Salut <i>là</i>")
	var mismatch *ErrTranslationBlueprintMismatch
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "i", mismatch.Tag)
}
