package cache

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManifestCache_UnwritableDirErrors(t *testing.T) {
	if runtime.GOOS == "windows" || os.Getuid() == 0 {
		t.Skip("permission bits are not enforced here")
	}
	parent := t.TempDir()
	require.NoError(t, os.Chmod(parent, 0o500))
	t.Cleanup(func() { _ = os.Chmod(parent, 0o755) })

	_, err := NewManifestCache(filepath.Join(parent, "cache"))
	assert.ErrorIs(t, err, ErrCacheDirNotWritable)
}

func TestManifestCache_PutGetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	mc, err := NewManifestCache(dir)
	require.NoError(t, err)

	mtime := time.Now()
	require.NoError(t, mc.Put("/templates/home.html", "<p>hi</p>", mtime))

	artifact, gotMtime, ok := mc.Get("/templates/home.html")
	assert.True(t, ok)
	assert.Equal(t, "<p>hi</p>", artifact)
	assert.True(t, gotMtime.Equal(mtime))
}

func TestManifestCache_MissIsNotOK(t *testing.T) {
	mc, err := NewManifestCache(t.TempDir())
	require.NoError(t, err)
	_, _, ok := mc.Get("/nope")
	assert.False(t, ok)
}

func TestManifestCache_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	mc, err := NewManifestCache(dir)
	require.NoError(t, err)
	mtime := time.Now()
	require.NoError(t, mc.Put("/templates/a.html", "artifact-a", mtime))

	reopened, err := NewManifestCache(dir)
	require.NoError(t, err)
	artifact, _, ok := reopened.Get("/templates/a.html")
	assert.True(t, ok)
	assert.Equal(t, "artifact-a", artifact)
}

func TestFresh(t *testing.T) {
	now := time.Now()
	later := now.Add(time.Minute)
	assert.True(t, Fresh(now, later), "source older than cached mtime is still fresh")
	assert.True(t, Fresh(now, now), "untouched source (equal mtime) is still fresh")
	assert.False(t, Fresh(later, now), "source modified after caching must recompile")
}

func TestFilename_TruncatesAndFingerprints(t *testing.T) {
	name := Filename("/a/very/long/path/to/templates/some-page.html")
	assert.LessOrEqual(t, len(name), 30+1+8+len(".html"))
	assert.Contains(t, name, ".html")
}

func TestFilename_StripsDisallowedCharacters(t *testing.T) {
	name := Filename("/weird path/na me!!.html")
	assert.NotContains(t, name, " ")
	assert.NotContains(t, name, "!")
}

func TestFilename_DeterministicForSamePath(t *testing.T) {
	a := Filename("/templates/x.html")
	b := Filename("/templates/x.html")
	assert.Equal(t, a, b)
}

func TestFilename_DiffersForDifferentPaths(t *testing.T) {
	a := Filename("/templates/x.html")
	b := Filename("/templates/y.html")
	assert.NotEqual(t, a, b)
}
